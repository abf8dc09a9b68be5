package pdf

import (
	"bytes"
	"errors"
	"testing"
	"time"

	pdfreader "github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"artfolio/internal/portfolio"
)

func fixedClock() time.Time {
	return time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)
}

func sampleContent() portfolio.ContentRecord {
	return portfolio.ContentRecord{
		Name:            "Ama K.",
		Email:           "ama@x.com",
		Phone:           "+233 20 000 0000",
		Category:        "singer_songwriter",
		ExperienceLevel: "professional",
		Location:        portfolio.Location{City: "Accra", Country: "Ghana"},
		AboutMe:         "Singer and guitarist from Accra. Café sessions every Friday.",
		Skills:          portfolio.SkillList{"vocals", "guitar", "songwriting", "arranging"},
		SocialLinks: portfolio.SocialLinks{
			"instagram": "https://instagram.com/ama",
			"website":   "https://ama.dev",
		},
		Title:       "Live Portfolio",
		Description: "Selected performances 2023-2026.",
		Sections: []portfolio.Section{
			{Type: "gallery", Title: "Stage photos", Content: "Shots from the tour."},
			{Type: "press", Content: ""},
		},
	}
}

func pageCount(t *testing.T, b []byte) int {
	t.Helper()
	r, err := pdfreader.NewReader(bytes.NewReader(b), int64(len(b)))
	require.NoError(t, err)
	return r.NumPage()
}

func pageTexts(t *testing.T, b []byte) []string {
	t.Helper()
	r, err := pdfreader.NewReader(bytes.NewReader(b), int64(len(b)))
	require.NoError(t, err)
	texts := make([]string, 0, r.NumPage())
	for i := 1; i <= r.NumPage(); i++ {
		text, err := r.Page(i).GetPlainText(nil)
		require.NoError(t, err)
		texts = append(texts, text)
	}
	return texts
}

func TestComposePageText(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, NewComposer(WithClock(fixedClock)).Compose(sampleContent(), portfolio.DefaultTheme(), &buf))

	pages := pageTexts(t, buf.Bytes())
	require.Len(t, pages, 6)

	cover := pages[0]
	assert.Contains(t, cover, "Ama K.")
	assert.Contains(t, cover, "SINGER SONGWRITER")
	assert.Contains(t, cover, "PROFESSIONAL")
	assert.Contains(t, cover, "Live Portfolio")

	assert.Contains(t, pages[1], "ABOUT THE ARTIST")
	assert.Contains(t, pages[1], "Singer and guitarist from Accra.")

	assert.Contains(t, pages[2], "STAGE PHOTOS")
	assert.Contains(t, pages[2], "Shots from the tour.")
	// 标题为空时用类型作为页眉
	assert.Contains(t, pages[3], "PRESS")

	assert.Contains(t, pages[4], "SKILLS & SPECIALTIES")
	for _, skill := range []string{"vocals", "guitar", "songwriting", "arranging"} {
		assert.Contains(t, pages[4], skill)
	}

	contact := pages[5]
	assert.Contains(t, contact, "CONTACT INFORMATION")
	assert.Contains(t, contact, "ama@x.com")
	assert.Contains(t, contact, "+233 20 000 0000")
	assert.Contains(t, contact, "Accra, Ghana")
	assert.Contains(t, contact, "Social Media")
	assert.Contains(t, contact, "Instagram: https://instagram.com/ama")
	assert.Contains(t, contact, "Website: https://ama.dev")
	assert.Contains(t, contact, "Generated on March 14, 2026 at 12:00 UTC")
}

func TestComposeContactSkipsEmptyLocation(t *testing.T) {
	content := sampleContent()
	content.Location = portfolio.Location{City: " ", Country: ""}
	content.Phone = ""
	content.SocialLinks = nil

	var buf bytes.Buffer
	require.NoError(t, NewComposer(WithClock(fixedClock)).Compose(content, portfolio.DefaultTheme(), &buf))
	pages := pageTexts(t, buf.Bytes())
	contact := pages[len(pages)-1]
	assert.Contains(t, contact, "ama@x.com")
	assert.NotContains(t, contact, "Location")
	assert.NotContains(t, contact, "Phone")
	assert.NotContains(t, contact, "Social Media")
}

func TestComposePageCount(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*portfolio.ContentRecord)
		want   int
	}{
		{name: "full", mutate: func(*portfolio.ContentRecord) {}, want: 6},
		{name: "no bio", mutate: func(c *portfolio.ContentRecord) { c.AboutMe = "  " }, want: 5},
		{name: "no skills", mutate: func(c *portfolio.ContentRecord) { c.Skills = portfolio.SkillList{" ", ""} }, want: 5},
		{name: "no sections", mutate: func(c *portfolio.ContentRecord) { c.Sections = nil }, want: 4},
		{name: "minimal", mutate: func(c *portfolio.ContentRecord) {
			*c = portfolio.ContentRecord{Name: "Ama K.", Email: "ama@x.com"}
		}, want: 2},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			content := sampleContent()
			tc.mutate(&content)
			require.Equal(t, tc.want, PageCount(content))

			var buf bytes.Buffer
			require.NoError(t, NewComposer(WithClock(fixedClock)).Compose(content, portfolio.DefaultTheme(), &buf))
			assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
			assert.Equal(t, tc.want, pageCount(t, buf.Bytes()))
		})
	}
}

func TestComposeIsDeterministicForFixedClock(t *testing.T) {
	c := NewComposer(WithClock(fixedClock))
	var a, b bytes.Buffer
	require.NoError(t, c.Compose(sampleContent(), portfolio.DefaultTheme(), &a))
	require.NoError(t, c.Compose(sampleContent(), portfolio.DefaultTheme(), &b))
	assert.Equal(t, a.Bytes(), b.Bytes())

	later := NewComposer(WithClock(func() time.Time { return fixedClock().Add(time.Hour) }))
	var d bytes.Buffer
	require.NoError(t, later.Compose(sampleContent(), portfolio.DefaultTheme(), &d))
	assert.NotEqual(t, a.Bytes(), d.Bytes())
}

func TestComposeToleratesMalformedColors(t *testing.T) {
	theme := portfolio.Theme{Primary: "not-a-color", Accent: "#12", Background: ""}
	var buf bytes.Buffer
	require.NoError(t, NewComposer().Compose(sampleContent(), theme, &buf))
	assert.Equal(t, PageCount(sampleContent()), pageCount(t, buf.Bytes()))
}

func TestComposeManySkillsStayOnOnePage(t *testing.T) {
	content := portfolio.ContentRecord{Name: "Kofi", Email: "kofi@example.com"}
	for i := 0; i < 200; i++ {
		content.Skills = append(content.Skills, "improvisation")
	}
	var buf bytes.Buffer
	require.NoError(t, NewComposer().Compose(content, portfolio.DefaultTheme(), &buf))
	assert.Equal(t, 3, pageCount(t, buf.Bytes()))
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestComposeReportsSinkFailure(t *testing.T) {
	err := NewComposer().Compose(sampleContent(), portfolio.DefaultTheme(), failingWriter{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestCapitalize(t *testing.T) {
	assert.Equal(t, "Instagram", capitalize("instagram"))
	assert.Equal(t, "", capitalize(""))
	assert.Equal(t, "Élan", capitalize("élan"))
}
