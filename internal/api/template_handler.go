package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"artfolio/internal/portfolio"
)

// TemplateHandler 暴露固定的模板集合。
type TemplateHandler struct{}

func NewTemplateHandler() *TemplateHandler {
	return &TemplateHandler{}
}

type templateListItem struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Default     bool   `json:"default"`
}

var templateDescriptions = map[portfolio.TemplateID]templateListItem{
	portfolio.Modern: {
		Title:       "Modern",
		Description: "Hero header with a two-column body: story on the left, skills and contact on the right.",
	},
	portfolio.Classic: {
		Title:       "Classic",
		Description: "Centered header and a single reading column.",
	},
	portfolio.Artistic: {
		Title:       "Artistic",
		Description: "Gradient backdrop in your primary and accent colors with card sections.",
	},
}

// GET /v1/templates
func (h *TemplateHandler) ListTemplates(c *gin.Context) {
	ids := portfolio.Templates()
	items := make([]templateListItem, 0, len(ids))
	for _, id := range ids {
		item := templateDescriptions[id]
		item.ID = string(id)
		item.Default = id == portfolio.SelectTemplate("")
		items = append(items, item)
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}
