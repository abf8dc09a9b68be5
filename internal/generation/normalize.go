package generation

import (
	"encoding/json"
	"fmt"
	"strings"

	"artfolio/internal/database"
	"artfolio/internal/portfolio"
)

// PortfolioContent 对应作品集 content JSON 列的结构。
type PortfolioContent struct {
	AboutMe      string              `json:"aboutMe,omitempty"`
	Jobs         string              `json:"jobs,omitempty"`
	Services     string              `json:"services,omitempty"`
	Testimonials string              `json:"testimonials,omitempty"`
	Skills       portfolio.SkillList `json:"skills,omitempty"`
}

// ParseContent 解析 content 列；JSON 非法时返回零值。
func ParseContent(data []byte) PortfolioContent {
	var c PortfolioContent
	if len(data) == 0 {
		return c
	}
	if err := json.Unmarshal(data, &c); err != nil {
		return PortfolioContent{}
	}
	return c
}

// ParseSections 按存储顺序解析 sections 列；JSON 非法时返回 nil。
func ParseSections(data []byte) []portfolio.Section {
	if len(data) == 0 {
		return nil
	}
	var sections []portfolio.Section
	if err := json.Unmarshal(data, &sections); err != nil {
		return nil
	}
	return sections
}

// ParseSocialLinks 解析艺术家社交链接列；JSON 非法时返回 nil。
func ParseSocialLinks(data []byte) portfolio.SocialLinks {
	if len(data) == 0 {
		return nil
	}
	var links portfolio.SocialLinks
	if err := json.Unmarshal(data, &links); err != nil {
		return nil
	}
	return links
}

// Normalize 把艺术家与其作品集合并成渲染器读取的扁平记录，并返回作品集的配色覆盖。
// 非法 JSON 列按空处理；唯一的错误是作品集不属于该艺术家。
func Normalize(artist database.Artist, p database.Portfolio) (portfolio.ContentRecord, portfolio.Customizations, error) {
	if p.ArtistID != artist.ID {
		return portfolio.ContentRecord{}, portfolio.Customizations{},
			fmt.Errorf("portfolio %d belongs to artist %d, not %d", p.ID, p.ArtistID, artist.ID)
	}

	content := ParseContent(p.Content)

	about := strings.TrimSpace(content.AboutMe)
	if about == "" {
		about = strings.TrimSpace(artist.Bio)
	}

	skills := portfolio.SkillList(portfolio.CleanSkills(content.Skills))
	if len(skills) == 0 {
		skills = portfolio.SplitSkills(artist.Skills)
	}

	record := portfolio.ContentRecord{
		Name:            strings.TrimSpace(artist.Name),
		Category:        strings.TrimSpace(artist.Category),
		ExperienceLevel: strings.TrimSpace(artist.ExperienceLevel),
		Location:        portfolio.Location{City: artist.City, Country: artist.Country},
		AboutMe:         about,
		Jobs:            content.Jobs,
		Skills:          skills,
		Services:        content.Services,
		Testimonials:    content.Testimonials,
		SocialLinks:     ParseSocialLinks(artist.SocialLinks),
		Email:           strings.TrimSpace(artist.Email),
		Phone:           strings.TrimSpace(artist.Phone),
		Title:           strings.TrimSpace(p.Title),
		Description:     strings.TrimSpace(p.Description),
		Sections:        ParseSections(p.Sections),
	}

	return record, portfolio.ParseCustomizations(p.Customizations), nil
}
