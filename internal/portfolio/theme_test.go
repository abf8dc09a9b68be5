package portfolio

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHexToRGB(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want RGB
	}{
		{name: "default primary", in: "#B026FF", want: RGB{176, 38, 255}},
		{name: "no hash", in: "FFD23F", want: RGB{255, 210, 63}},
		{name: "lower case", in: "#0a0a12", want: RGB{10, 10, 18}},
		{name: "black", in: "#000000", want: RGB{0, 0, 0}},
		{name: "white", in: "#ffffff", want: RGB{255, 255, 255}},
		{name: "surrounding space", in: "  #102030 ", want: RGB{16, 32, 48}},
		{name: "empty", in: "", want: FallbackRGB},
		{name: "short form", in: "#fff", want: FallbackRGB},
		{name: "not hex", in: "#GGGGGG", want: FallbackRGB},
		{name: "too long", in: "#1234567", want: FallbackRGB},
		{name: "double hash", in: "##123456", want: FallbackRGB},
		{name: "sign", in: "+12345", want: FallbackRGB},
		{name: "named color", in: "purple", want: FallbackRGB},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := HexToRGB(tt.in)
			assert.Equal(t, tt.want, got)
			for _, c := range []int{got.R, got.G, got.B} {
				assert.GreaterOrEqual(t, c, 0)
				assert.LessOrEqual(t, c, 255)
			}
		})
	}
}

func TestIsHexColor(t *testing.T) {
	assert.True(t, IsHexColor("#B026FF"))
	assert.True(t, IsHexColor(" abcdef "))
	assert.False(t, IsHexColor("#abc"))
	assert.False(t, IsHexColor("red;}</style>"))
	assert.False(t, IsHexColor("##abcdef"))
}

func TestResolveTheme(t *testing.T) {
	assert.Equal(t, DefaultTheme(), ResolveTheme(Customizations{}))

	got := ResolveTheme(Customizations{Primary: "#112233", Background: "  "})
	assert.Equal(t, Theme{Primary: "#112233", Accent: DefaultAccent, Background: DefaultBackground}, got)
}

func TestParseCustomizations(t *testing.T) {
	t.Run("flat keys with extras", func(t *testing.T) {
		c := ParseCustomizations([]byte(`{"primary":"#111111","font":"serif","layout":{"x":1}}`))
		assert.Equal(t, Customizations{Primary: "#111111"}, c)
	})

	t.Run("nested colors", func(t *testing.T) {
		c := ParseCustomizations([]byte(`{"accent":"#222222","colors":{"accent":"#333333","background":"#444444"}}`))
		assert.Equal(t, Customizations{Accent: "#222222", Background: "#444444"}, c)
	})

	t.Run("malformed", func(t *testing.T) {
		assert.Equal(t, Customizations{}, ParseCustomizations([]byte(`not json`)))
		assert.Equal(t, Customizations{}, ParseCustomizations(nil))
	})
}

func TestSelectTemplate(t *testing.T) {
	assert.Equal(t, Modern, SelectTemplate("modern"))
	assert.Equal(t, Classic, SelectTemplate("Classic"))
	assert.Equal(t, Artistic, SelectTemplate(" artistic "))
	assert.Equal(t, Modern, SelectTemplate(""))
	assert.Equal(t, Modern, SelectTemplate("brutalist"))
	assert.Equal(t, []TemplateID{Modern, Classic, Artistic}, Templates())
}
