package html

import (
	"net/url"
	"strings"

	"github.com/microcosm-cc/bluemonday"

	"artfolio/internal/portfolio"
)

// sanitizer 在插值前清洗用户内容：自由文本保留安全的富文本标签，单行字段去除全部标签，
// 链接只允许 http/https。
type sanitizer struct {
	text *bluemonday.Policy
	line *bluemonday.Policy
}

func newSanitizer() *sanitizer {
	return &sanitizer{
		text: bluemonday.UGCPolicy(),
		line: bluemonday.StrictPolicy(),
	}
}

func (s *sanitizer) content(c portfolio.ContentRecord) portfolio.ContentRecord {
	c.Name = s.line.Sanitize(c.Name)
	c.Category = s.line.Sanitize(c.Category)
	c.ExperienceLevel = s.line.Sanitize(c.ExperienceLevel)
	c.Location = portfolio.Location{
		City:    s.line.Sanitize(c.Location.City),
		Country: s.line.Sanitize(c.Location.Country),
	}
	c.Email = s.line.Sanitize(c.Email)
	c.Phone = s.line.Sanitize(c.Phone)
	c.ProfileImageURL = safeURL(c.ProfileImageURL)

	c.AboutMe = s.text.Sanitize(c.AboutMe)
	c.Jobs = s.text.Sanitize(c.Jobs)
	c.Services = s.text.Sanitize(c.Services)
	c.Testimonials = s.text.Sanitize(c.Testimonials)

	skills := make(portfolio.SkillList, 0, len(c.Skills))
	for _, skill := range c.Skills {
		skills = append(skills, s.line.Sanitize(skill))
	}
	c.Skills = portfolio.SkillList(portfolio.CleanSkills(skills))

	links := make(portfolio.SocialLinks, len(c.SocialLinks))
	for platform, link := range c.SocialLinks {
		if u := safeURL(link); u != "" {
			links[platform] = u
		}
	}
	c.SocialLinks = links
	return c
}

// theme 只保留 6 位十六进制颜色（补齐 "#"），其余回退到默认配色。
func (s *sanitizer) theme(t portfolio.Theme) portfolio.Theme {
	defaults := portfolio.DefaultTheme()
	color := func(v, fallback string) string {
		if !portfolio.IsHexColor(v) {
			return fallback
		}
		return "#" + strings.TrimPrefix(strings.TrimSpace(v), "#")
	}
	return portfolio.Theme{
		Primary:    color(t.Primary, defaults.Primary),
		Accent:     color(t.Accent, defaults.Accent),
		Background: color(t.Background, defaults.Background),
	}
}

// safeURL keeps absolute http(s) URLs and drops everything else.
func safeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	u, err := url.Parse(raw)
	if err != nil {
		return ""
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	default:
		return ""
	}
	if u.Host == "" {
		return ""
	}
	return strings.NewReplacer(`"`, "%22", "<", "%3C", ">", "%3E").Replace(u.String())
}
