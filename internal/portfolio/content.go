package portfolio

import (
	"encoding/json"
	"sort"
	"strings"

	"github.com/samber/lo"
)

// ContentRecord 是渲染用的扁平化视图，由 Artist 与 Portfolio 合并而来。
// 除 Name 与 Email 外的字段都可以为空，空字段只会让对应区块被省略。
type ContentRecord struct {
	Name            string      `json:"name" yaml:"name"`
	Category        string      `json:"category" yaml:"category"`
	ExperienceLevel string      `json:"experience_level" yaml:"experience_level"`
	Location        Location    `json:"location" yaml:"location"`
	AboutMe         string      `json:"about_me" yaml:"about_me"`
	Jobs            string      `json:"jobs" yaml:"jobs"`
	Skills          SkillList   `json:"skills" yaml:"skills"`
	Services        string      `json:"services" yaml:"services"`
	Testimonials    string      `json:"testimonials" yaml:"testimonials"`
	SocialLinks     SocialLinks `json:"social_links" yaml:"social_links"`
	Email           string      `json:"email" yaml:"email"`
	Phone           string      `json:"phone" yaml:"phone"`
	ProfileImageURL string      `json:"profile_image_url" yaml:"profile_image_url"`

	Title       string    `json:"title" yaml:"title"`
	Description string    `json:"description" yaml:"description"`
	Sections    []Section `json:"sections" yaml:"sections"`
}

// Location 描述艺术家所在地，两部分均可为空。
type Location struct {
	City    string `json:"city" yaml:"city"`
	Country string `json:"country" yaml:"country"`
}

// String 用 ", " 连接非空部分。
func (l Location) String() string {
	parts := lo.Filter([]string{l.City, l.Country}, func(s string, _ int) bool {
		return strings.TrimSpace(s) != ""
	})
	return strings.Join(lo.Map(parts, func(s string, _ int) string { return strings.TrimSpace(s) }), ", ")
}

// IsZero 表示城市与国家均为空。
func (l Location) IsZero() bool {
	return l.String() == ""
}

// Section 是 PDF 中独占一页的自由文本区块，按切片顺序渲染（不排序）。
type Section struct {
	Type    string `json:"type" yaml:"type"`
	Title   string `json:"title,omitempty" yaml:"title,omitempty"`
	Content string `json:"content" yaml:"content"`
	Order   int    `json:"order" yaml:"order"`
}

// Label 返回大写的页眉文本：标题，标题为空时用类型。
func (s Section) Label() string {
	label := strings.TrimSpace(s.Title)
	if label == "" {
		label = strings.TrimSpace(s.Type)
	}
	return strings.ToUpper(label)
}

// SkillList 接受字符串数组或逗号分隔的单个字符串。
type SkillList []string

func (s *SkillList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*s = SkillList(CleanSkills(list))
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		// null 或无法识别的结构按无技能处理
		*s = nil
		return nil
	}
	*s = SplitSkills(raw)
	return nil
}

// UnmarshalYAML 为 CLI 内容文件接受同样两种结构。
func (s *SkillList) UnmarshalYAML(unmarshal func(any) error) error {
	var list []string
	if err := unmarshal(&list); err == nil {
		*s = SkillList(CleanSkills(list))
		return nil
	}
	var raw string
	if err := unmarshal(&raw); err != nil {
		*s = nil
		return nil
	}
	*s = SplitSkills(raw)
	return nil
}

// SplitSkills 拆分逗号分隔的字符串，去空白并丢弃空项。
func SplitSkills(raw string) SkillList {
	return SkillList(CleanSkills(strings.Split(raw, ",")))
}

// CleanSkills 去除空白项，保持输入顺序。
func CleanSkills(skills []string) []string {
	out := lo.FilterMap(skills, func(s string, _ int) (string, bool) {
		s = strings.TrimSpace(s)
		return s, s != ""
	})
	if len(out) == 0 {
		return nil
	}
	return out
}

// 已知社交平台，按渲染顺序排列。
const (
	PlatformInstagram = "instagram"
	PlatformYouTube   = "youtube"
	PlatformTikTok    = "tiktok"
	PlatformFacebook  = "facebook"
	PlatformTwitter   = "twitter"
	PlatformWebsite   = "website"
)

// KnownPlatforms 是 HTML 模板会渲染图标的平台。
var KnownPlatforms = []string{
	PlatformInstagram,
	PlatformYouTube,
	PlatformTikTok,
	PlatformFacebook,
	PlatformTwitter,
	PlatformWebsite,
}

// SocialLinks 平台名到 URL 的映射，每项均可选。
type SocialLinks map[string]string

// SocialLink 是一个已填写的平台。
type SocialLink struct {
	Platform string
	URL      string
}

// Populated 返回非空链接：先按 KnownPlatforms 顺序列出已知平台，其余按名称排序。
// 平台名不区分大小写。
func (l SocialLinks) Populated() []SocialLink {
	normalized := make(map[string]string, len(l))
	for k, v := range l {
		key := strings.ToLower(strings.TrimSpace(k))
		if key == "" || strings.TrimSpace(v) == "" {
			continue
		}
		normalized[key] = strings.TrimSpace(v)
	}

	out := make([]SocialLink, 0, len(normalized))
	for _, p := range KnownPlatforms {
		if u, ok := normalized[p]; ok {
			out = append(out, SocialLink{Platform: p, URL: u})
			delete(normalized, p)
		}
	}

	rest := lo.Keys(normalized)
	sort.Strings(rest)
	for _, p := range rest {
		out = append(out, SocialLink{Platform: p, URL: normalized[p]})
	}
	return out
}

// Known 只返回 KnownPlatforms 中已填写的链接。
func (l SocialLinks) Known() []SocialLink {
	return lo.Filter(l.Populated(), func(link SocialLink, _ int) bool {
		return lo.Contains(KnownPlatforms, link.Platform)
	})
}
