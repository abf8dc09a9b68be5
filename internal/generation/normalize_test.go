package generation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"artfolio/internal/database"
	"artfolio/internal/portfolio"
)

func testArtist() database.Artist {
	return database.Artist{
		Model:           gorm.Model{ID: 1},
		Name:            "Ama K.",
		Email:           "ama@x.com",
		Category:        "singer_songwriter",
		ExperienceLevel: "professional",
		City:            "Accra",
		Bio:             "Bio from profile.",
		Skills:          "vocals, guitar, ,songwriting",
		SocialLinks:     datatypes.JSON(`{"instagram":"https://instagram.com/ama","twitter":""}`),
	}
}

func TestNormalizeMergesArtistAndPortfolio(t *testing.T) {
	p := database.Portfolio{
		Model:          gorm.Model{ID: 9},
		ArtistID:       1,
		Title:          " Live ",
		Description:    "Selected work",
		Content:        datatypes.JSON(`{"aboutMe":"Portfolio bio","jobs":"Session singer","skills":["arranging"," mixing "]}`),
		Sections:       datatypes.JSON(`[{"type":"press","content":"b","order":2},{"type":"gallery","title":"Stage","content":"a","order":1}]`),
		Customizations: datatypes.JSON(`{"colors":{"primary":"#123456"},"font":"serif"}`),
	}

	rec, custom, err := Normalize(testArtist(), p)
	require.NoError(t, err)

	assert.Equal(t, "Ama K.", rec.Name)
	assert.Equal(t, "ama@x.com", rec.Email)
	assert.Equal(t, "Portfolio bio", rec.AboutMe)
	assert.Equal(t, "Session singer", rec.Jobs)
	assert.Equal(t, portfolio.SkillList{"arranging", "mixing"}, rec.Skills)
	assert.Equal(t, "Accra", rec.Location.String())
	assert.Equal(t, "Live", rec.Title)
	require.Len(t, rec.Sections, 2)
	assert.Equal(t, "press", rec.Sections[0].Type, "stored order is kept")
	assert.Equal(t, []portfolio.SocialLink{{Platform: "instagram", URL: "https://instagram.com/ama"}}, rec.SocialLinks.Populated())
	assert.Equal(t, "#123456", custom.Primary)
}

func TestNormalizeFallsBackToArtist(t *testing.T) {
	p := database.Portfolio{ArtistID: 1, Content: datatypes.JSON(`{"skills":""}`)}
	rec, _, err := Normalize(testArtist(), p)
	require.NoError(t, err)

	assert.Equal(t, "Bio from profile.", rec.AboutMe)
	assert.Equal(t, portfolio.SkillList{"vocals", "guitar", "songwriting"}, rec.Skills)
	assert.Empty(t, rec.Sections)
}

func TestNormalizeToleratesMalformedColumns(t *testing.T) {
	artist := testArtist()
	artist.SocialLinks = datatypes.JSON(`not json`)
	p := database.Portfolio{
		ArtistID:       1,
		Content:        datatypes.JSON(`{"aboutMe":`),
		Sections:       datatypes.JSON(`{"type":"x"}`),
		Customizations: datatypes.JSON(`[]`),
	}

	rec, custom, err := Normalize(artist, p)
	require.NoError(t, err)
	assert.Equal(t, "Bio from profile.", rec.AboutMe)
	assert.Nil(t, rec.SocialLinks)
	assert.Nil(t, rec.Sections)
	assert.Equal(t, portfolio.Customizations{}, custom)
}

func TestNormalizeRejectsForeignPortfolio(t *testing.T) {
	_, _, err := Normalize(testArtist(), database.Portfolio{ArtistID: 2})
	assert.Error(t, err)
}
