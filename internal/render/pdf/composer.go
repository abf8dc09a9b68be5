// Package pdf 使用 gofpdf 按坐标把作品集绘制为 A4 分页文档：
// 封面、简介、每个区块一页、技能、联系方式。
package pdf

import (
	"fmt"
	"io"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/jung-kurt/gofpdf"

	"artfolio/internal/portfolio"
)

const (
	pageWidth    = 595.28
	pageHeight   = 841.89
	margin       = 50.0
	contentWidth = pageWidth - 2*margin

	bannerHeight = 220.0
	bandHeight   = 80.0
	bodyTop      = 110.0
	lineHeight   = 18.0

	chipRowHeight = 35.0
	chipHeight    = 24.0
	chipPadding   = 12.0
	chipGap       = 10.0

	fontFamily = "Helvetica"
)

var (
	ink   = portfolio.RGB{R: 51, G: 51, B: 51}
	muted = portfolio.RGB{R: 136, G: 136, B: 136}
	white = portfolio.RGB{R: 255, G: 255, B: 255}
)

// Composer 渲染 PDF 文档。
type Composer struct {
	now func() time.Time
}

type Option func(*Composer)

// WithClock 设置创建日期与 "Generated on" 页脚使用的时钟。
func WithClock(now func() time.Time) Option {
	return func(c *Composer) {
		if now != nil {
			c.now = now
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

// PageCount 返回 Compose 的页数：封面 + [简介] + 每个区块一页 + [技能] + 联系方式。
func PageCount(content portfolio.ContentRecord) int {
	n := 2 + len(content.Sections)
	if strings.TrimSpace(content.AboutMe) != "" {
		n++
	}
	if len(portfolio.CleanSkills(content.Skills)) > 0 {
		n++
	}
	return n
}

// Compose 绘制文档并写入 w。内容本身不会导致失败，错误只来自 gofpdf 或 w。
func (c *Composer) Compose(content portfolio.ContentRecord, theme portfolio.Theme, w io.Writer) error {
	now := c.now()

	f := gofpdf.New("P", "pt", "A4", "")
	f.SetMargins(margin, margin, margin)
	f.SetAutoPageBreak(false, 0)
	f.SetCatalogSort(true)
	f.SetCreationDate(now)

	d := &document{
		pdf:     f,
		tr:      f.UnicodeTranslatorFromDescriptor(""),
		primary: portfolio.HexToRGB(theme.Primary),
		accent:  portfolio.HexToRGB(theme.Accent),
	}
	f.SetTitle(d.tr(strings.TrimSpace(content.Name+" Portfolio")), false)
	f.SetAuthor(d.tr(content.Name), false)
	f.SetCreator("artfolio", false)

	d.cover(content)
	if about := strings.TrimSpace(content.AboutMe); about != "" {
		d.headerBand("ABOUT THE ARTIST")
		d.body(about)
	}
	for _, s := range content.Sections {
		d.headerBand(s.Label())
		d.body(strings.TrimSpace(s.Content))
	}
	if skills := portfolio.CleanSkills(content.Skills); len(skills) > 0 {
		d.skills(skills)
	}
	d.contact(content, now)

	if err := f.Error(); err != nil {
		return fmt.Errorf("draw pdf: %w", err)
	}
	if err := f.Output(w); err != nil {
		return fmt.Errorf("write pdf: %w", err)
	}
	return nil
}

type document struct {
	pdf     *gofpdf.Fpdf
	tr      func(string) string
	primary portfolio.RGB
	accent  portfolio.RGB
}

func (d *document) fill(c portfolio.RGB) { d.pdf.SetFillColor(c.R, c.G, c.B) }
func (d *document) text(c portfolio.RGB) { d.pdf.SetTextColor(c.R, c.G, c.B) }

// line 在 (x, y) 处写一个单行单元格。
func (d *document) line(x, y, w, h float64, s, align string) {
	d.pdf.SetXY(x, y)
	d.pdf.CellFormat(w, h, d.tr(s), "", 0, align, false, 0, "")
}

func (d *document) cover(content portfolio.ContentRecord) {
	d.pdf.AddPage()

	d.fill(d.primary)
	d.pdf.Rect(0, 0, pageWidth, bannerHeight, "F")

	d.text(white)
	d.pdf.SetFont(fontFamily, "B", 36)
	d.line(margin, 55, contentWidth, 44, strings.TrimSpace(content.Name), "C")

	if category := strings.TrimSpace(content.Category); category != "" {
		d.pdf.SetFont(fontFamily, "", 14)
		d.line(margin, 108, contentWidth, 20, strings.ToUpper(strings.ReplaceAll(category, "_", " ")), "C")
	}
	if level := strings.TrimSpace(content.ExperienceLevel); level != "" {
		d.pdf.SetFont(fontFamily, "", 12)
		d.line(margin, 132, contentWidth, 18, strings.ToUpper(level), "C")
	}

	d.fill(d.accent)
	d.pdf.Rect(pageWidth/2-40, 170, 80, 4, "F")

	y := bannerHeight + 40
	if title := strings.TrimSpace(content.Title); title != "" {
		d.text(d.primary)
		d.pdf.SetFont(fontFamily, "B", 24)
		d.line(margin, y, contentWidth, 30, title, "L")
		y += 45
	}
	if desc := strings.TrimSpace(content.Description); desc != "" {
		d.text(ink)
		d.pdf.SetFont(fontFamily, "", 12)
		d.pdf.SetXY(margin, y)
		d.pdf.MultiCell(contentWidth, lineHeight, d.tr(desc), "", "J", false)
	}
}

// headerBand 新起一页，绘制强调色页眉与白色标题。
func (d *document) headerBand(label string) {
	d.pdf.AddPage()
	d.fill(d.accent)
	d.pdf.Rect(0, 0, pageWidth, bandHeight, "F")
	d.text(white)
	d.pdf.SetFont(fontFamily, "B", 22)
	d.line(margin, 0, contentWidth, bandHeight, label, "LM")
}

func (d *document) body(s string) {
	if s == "" {
		return
	}
	d.text(ink)
	d.pdf.SetFont(fontFamily, "", 12)
	d.pdf.SetXY(margin, bodyTop)
	d.pdf.MultiCell(contentWidth, lineHeight, d.tr(s), "", "J", false)
}

func (d *document) skills(skills []string) {
	d.headerBand("SKILLS & SPECIALTIES")

	d.pdf.SetFont(fontFamily, "B", 11)
	placements := LayoutChips(skills, func(s string) float64 {
		return d.pdf.GetStringWidth(d.tr(s))
	}, ChipBounds{
		Left:      margin,
		Right:     pageWidth - margin,
		Top:       bodyTop,
		Bottom:    pageHeight - margin,
		RowHeight: chipRowHeight,
		Padding:   chipPadding,
		Gap:       chipGap,
	})

	for _, p := range placements {
		d.fill(d.primary)
		d.pdf.RoundedRect(p.X, p.Y, p.Width, chipHeight, chipHeight/2, "1234", "F")
		d.text(white)
		d.line(p.X, p.Y, p.Width, chipHeight, p.Text, "CM")
	}
}

func (d *document) contact(content portfolio.ContentRecord, now time.Time) {
	d.headerBand("CONTACT INFORMATION")

	y := bodyTop
	field := func(label, value string) {
		d.text(d.primary)
		d.pdf.SetFont(fontFamily, "B", 12)
		d.line(margin, y, contentWidth, 16, label, "L")
		d.text(ink)
		d.pdf.SetFont(fontFamily, "", 12)
		d.line(margin, y+20, contentWidth, 16, value, "L")
		y += 50
	}

	field("Email", strings.TrimSpace(content.Email))
	if phone := strings.TrimSpace(content.Phone); phone != "" {
		field("Phone", phone)
	}
	if !content.Location.IsZero() {
		field("Location", content.Location.String())
	}

	if links := content.SocialLinks.Populated(); len(links) > 0 {
		d.text(d.primary)
		d.pdf.SetFont(fontFamily, "B", 12)
		d.line(margin, y, contentWidth, 16, "Social Media", "L")
		y += 25

		d.text(ink)
		d.pdf.SetFont(fontFamily, "", 11)
		for _, link := range links {
			d.line(margin, y, contentWidth, 14, capitalize(link.Platform)+": "+link.URL, "L")
			y += 20
		}
	}

	d.text(muted)
	d.pdf.SetFont(fontFamily, "I", 9)
	d.line(margin, pageHeight-margin-12, contentWidth, 12,
		"Generated on "+now.Format("January 2, 2006 at 15:04 MST"), "C")
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if size == 0 || r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}
