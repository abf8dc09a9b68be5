package portfolio

import "strings"

// TemplateID 标识固定的 HTML 布局之一。
type TemplateID string

const (
	Modern   TemplateID = "modern"
	Classic  TemplateID = "classic"
	Artistic TemplateID = "artistic"
)

// DefaultTemplate 用于任何无法识别的标识。
const DefaultTemplate = Modern

// Templates 按展示顺序返回全部布局。
func Templates() []TemplateID {
	return []TemplateID{Modern, Classic, Artistic}
}

// SelectTemplate 把标识映射到布局，未知值回落到 Modern。
func SelectTemplate(id string) TemplateID {
	switch TemplateID(strings.ToLower(strings.TrimSpace(id))) {
	case Classic:
		return Classic
	case Artistic:
		return Artistic
	default:
		return DefaultTemplate
	}
}
