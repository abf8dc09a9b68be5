package portfolio

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
)

// 默认配色
const (
	DefaultPrimary    = "#B026FF"
	DefaultAccent     = "#FFD23F"
	DefaultBackground = "#0a0a12"
)

// FallbackRGB 是 HexToRGB 遇到非 6 位十六进制颜色时的返回值。
var FallbackRGB = RGB{R: 176, G: 38, B: 255}

// Theme 是两种渲染器共用的已解析配色。
type Theme struct {
	Primary    string `json:"primary"`
	Accent     string `json:"accent"`
	Background string `json:"background"`
}

// DefaultTheme 返回未自定义时的配色。
func DefaultTheme() Theme {
	return Theme{Primary: DefaultPrimary, Accent: DefaultAccent, Background: DefaultBackground}
}

// Customizations 是作品集上可选的配色覆盖，三种颜色以外的键被忽略。
type Customizations struct {
	Primary    string `json:"primary,omitempty" yaml:"primary,omitempty"`
	Accent     string `json:"accent,omitempty" yaml:"accent,omitempty"`
	Background string `json:"background,omitempty" yaml:"background,omitempty"`
}

// ParseCustomizations 解析 customizations 列。颜色可在顶层或嵌套的 "colors" 对象中，
// 顶层优先；非法输入返回空值。
func ParseCustomizations(data []byte) Customizations {
	if len(data) == 0 {
		return Customizations{}
	}
	var raw struct {
		Customizations
		Colors Customizations `json:"colors"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return Customizations{}
	}
	c := raw.Customizations
	if strings.TrimSpace(c.Primary) == "" {
		c.Primary = raw.Colors.Primary
	}
	if strings.TrimSpace(c.Accent) == "" {
		c.Accent = raw.Colors.Accent
	}
	if strings.TrimSpace(c.Background) == "" {
		c.Background = raw.Colors.Background
	}
	return c
}

// ResolveTheme 用默认值补齐每个空白字段。
func ResolveTheme(c Customizations) Theme {
	theme := DefaultTheme()
	if v := strings.TrimSpace(c.Primary); v != "" {
		theme.Primary = v
	}
	if v := strings.TrimSpace(c.Accent); v != "" {
		theme.Accent = v
	}
	if v := strings.TrimSpace(c.Background); v != "" {
		theme.Background = v
	}
	return theme
}

var hexColorPattern = regexp.MustCompile(`^#?[0-9A-Fa-f]{6}$`)

// IsHexColor 判断 s 是否为 "#RRGGBB" 或 "RRGGBB"。
func IsHexColor(s string) bool {
	return hexColorPattern.MatchString(strings.TrimSpace(s))
}

// RGB 颜色分量，取值 0-255。
type RGB struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// HexToRGB 解析 "#RRGGBB" 或 "RRGGBB"（不区分大小写），其余输入返回 FallbackRGB。
func HexToRGB(hex string) RGB {
	s := strings.TrimPrefix(strings.TrimSpace(hex), "#")
	if len(s) != 6 {
		return FallbackRGB
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return FallbackRGB
	}
	return RGB{
		R: int(v >> 16 & 0xff),
		G: int(v >> 8 & 0xff),
		B: int(v & 0xff),
	}
}
