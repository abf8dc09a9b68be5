// Package html 使用固定布局（modern、classic、artistic）把 ContentRecord 渲染为
// 独立的 HTML5 文档。
package html

import (
	"fmt"
	"strings"
	"text/template"
	"time"

	"artfolio/internal/portfolio"
)

var layouts = buildLayouts()

// buildLayouts 只解析一次公共模板，并为每个布局绑定 "body" 模板。
func buildLayouts() map[portfolio.TemplateID]*template.Template {
	base := template.Must(template.New("portfolio").Parse(documentTemplates))

	out := make(map[portfolio.TemplateID]*template.Template, len(portfolio.Templates()))
	for _, id := range portfolio.Templates() {
		t := template.Must(base.Clone())
		template.Must(t.New("body").Parse(fmt.Sprintf(`{{template %q .}}`, string(id))))
		out[id] = t
	}
	return out
}

// Composer 渲染 HTML 文档，须通过 NewComposer 构造。
type Composer struct {
	now       func() time.Time
	sanitizer *sanitizer
}

type Option func(*Composer)

// WithClock 替换页脚年份使用的时钟。
func WithClock(now func() time.Time) Option {
	return func(c *Composer) {
		if now != nil {
			c.now = now
		}
	}
}

// WithSanitizer 在插值前清洗用户字段（含配色）。默认关闭，内容原样插值。
func WithSanitizer(enabled bool) Option {
	return func(c *Composer) {
		if enabled {
			c.sanitizer = newSanitizer()
		} else {
			c.sanitizer = nil
		}
	}
}

func NewComposer(opts ...Option) *Composer {
	c := &Composer{now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

type socialIcon struct {
	Platform string
	URL      string
	Icon     string
	Label    string
}

type pageData struct {
	Content  portfolio.ContentRecord
	Theme    portfolio.Theme
	Template portfolio.TemplateID
	Category string
	Location string
	Social   []socialIcon
	Year     int
}

var platformIcons = map[string]socialIcon{
	portfolio.PlatformInstagram: {Icon: "fab fa-instagram", Label: "Instagram"},
	portfolio.PlatformYouTube:   {Icon: "fab fa-youtube", Label: "YouTube"},
	portfolio.PlatformTikTok:    {Icon: "fab fa-tiktok", Label: "TikTok"},
	portfolio.PlatformFacebook:  {Icon: "fab fa-facebook", Label: "Facebook"},
	portfolio.PlatformTwitter:   {Icon: "fab fa-twitter", Label: "Twitter"},
	portfolio.PlatformWebsite:   {Icon: "fas fa-globe", Label: "Website"},
}

// Compose 用指定布局与配色渲染内容。未知布局回落到 modern，缺失的可选字段只会省略对应区块。
func (c *Composer) Compose(content portfolio.ContentRecord, id portfolio.TemplateID, theme portfolio.Theme) (string, error) {
	id = portfolio.SelectTemplate(string(id))
	tmpl := layouts[id]

	content = trimContent(content)
	if c.sanitizer != nil {
		content = c.sanitizer.content(content)
		theme = c.sanitizer.theme(theme)
	}

	data := pageData{
		Content:  content,
		Theme:    theme,
		Template: id,
		Category: strings.ReplaceAll(content.Category, "_", " "),
		Location: content.Location.String(),
		Social:   socialIcons(content.SocialLinks),
		Year:     c.now().Year(),
	}

	var b strings.Builder
	if err := tmpl.ExecuteTemplate(&b, "document", data); err != nil {
		return "", fmt.Errorf("execute %s template: %w", id, err)
	}
	return b.String(), nil
}

// Render 是使用默认选项、不返回错误的 Compose。
func Render(content portfolio.ContentRecord, id portfolio.TemplateID, theme portfolio.Theme) string {
	out, err := NewComposer().Compose(content, id, theme)
	if err != nil {
		return ""
	}
	return out
}

func socialIcons(links portfolio.SocialLinks) []socialIcon {
	known := links.Known()
	icons := make([]socialIcon, 0, len(known))
	for _, link := range known {
		icon := platformIcons[link.Platform]
		icon.Platform = link.Platform
		icon.URL = link.URL
		icons = append(icons, icon)
	}
	return icons
}

// trimContent 把纯空白字段置空。
func trimContent(c portfolio.ContentRecord) portfolio.ContentRecord {
	c.Name = strings.TrimSpace(c.Name)
	c.Category = strings.TrimSpace(c.Category)
	c.ExperienceLevel = strings.TrimSpace(c.ExperienceLevel)
	c.AboutMe = strings.TrimSpace(c.AboutMe)
	c.Jobs = strings.TrimSpace(c.Jobs)
	c.Services = strings.TrimSpace(c.Services)
	c.Testimonials = strings.TrimSpace(c.Testimonials)
	c.Email = strings.TrimSpace(c.Email)
	c.Phone = strings.TrimSpace(c.Phone)
	c.ProfileImageURL = strings.TrimSpace(c.ProfileImageURL)
	c.Skills = portfolio.SkillList(portfolio.CleanSkills(c.Skills))
	return c
}
