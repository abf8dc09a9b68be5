package portfolio

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitSkills(t *testing.T) {
	assert.Equal(t, SkillList{"vocals", "guitar", "piano"}, SplitSkills(" vocals, guitar ,,piano , "))
	assert.Nil(t, SplitSkills(""))
	assert.Nil(t, SplitSkills(" , ,"))
}

func TestSkillListUnmarshal(t *testing.T) {
	var rec struct {
		Skills SkillList `json:"skills"`
	}

	require.NoError(t, json.Unmarshal([]byte(`{"skills":["a"," b ",""]}`), &rec))
	assert.Equal(t, SkillList{"a", "b"}, rec.Skills)

	require.NoError(t, json.Unmarshal([]byte(`{"skills":"dance, choreography"}`), &rec))
	assert.Equal(t, SkillList{"dance", "choreography"}, rec.Skills)

	require.NoError(t, json.Unmarshal([]byte(`{"skills":42}`), &rec))
	assert.Nil(t, rec.Skills)
}

func TestSocialLinksPopulated(t *testing.T) {
	links := SocialLinks{
		"website":   "https://ama.dev",
		"Instagram": "https://instagram.com/ama",
		"twitter":   "  ",
		"bandcamp":  "https://ama.bandcamp.com",
		"behance":   "https://behance.net/ama",
	}

	got := links.Populated()
	assert.Equal(t, []SocialLink{
		{Platform: "instagram", URL: "https://instagram.com/ama"},
		{Platform: "website", URL: "https://ama.dev"},
		{Platform: "bandcamp", URL: "https://ama.bandcamp.com"},
		{Platform: "behance", URL: "https://behance.net/ama"},
	}, got)

	assert.Equal(t, []SocialLink{
		{Platform: "instagram", URL: "https://instagram.com/ama"},
		{Platform: "website", URL: "https://ama.dev"},
	}, links.Known())

	assert.Empty(t, SocialLinks(nil).Populated())
}

func TestLocationString(t *testing.T) {
	assert.Equal(t, "Accra, Ghana", Location{City: "Accra", Country: "Ghana"}.String())
	assert.Equal(t, "Ghana", Location{Country: " Ghana "}.String())
	assert.True(t, Location{City: " "}.IsZero())
}

func TestSectionLabel(t *testing.T) {
	assert.Equal(t, "TOUR DATES", Section{Type: "custom", Title: "Tour dates"}.Label())
	assert.Equal(t, "GALLERY", Section{Type: "gallery"}.Label())
}
