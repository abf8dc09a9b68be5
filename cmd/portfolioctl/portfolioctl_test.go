package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"artfolio/internal/auth"
	"artfolio/internal/database"
	"artfolio/internal/repository"
)

const sampleContent = `template: classic
theme:
  primary: "#224466"
content:
  name: Kofi Mensah
  email: kofi@example.com
  category: musician
  location:
    city: Kumasi
    country: Ghana
  about_me: Highlife guitarist.
  skills: guitar, vocals, , arrangement
  social_links:
    youtube: https://youtube.com/@kofi
  sections:
    - type: discography
      content: Three albums since 2019.
`

func writeContent(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "content.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadContentFile(t *testing.T) {
	f, err := loadContentFile(writeContent(t, sampleContent))
	require.NoError(t, err)
	assert.Equal(t, "classic", f.Template)
	assert.Equal(t, "#224466", f.Theme.Primary)
	assert.Equal(t, "Kofi Mensah", f.Content.Name)
	assert.Equal(t, []string{"guitar", "vocals", "arrangement"}, []string(f.Content.Skills))
	require.Len(t, f.Content.Sections, 1)
	assert.Equal(t, "discography", f.Content.Sections[0].Type)

	_, err = loadContentFile(writeContent(t, "content:\n  email: a@b.c\n"))
	assert.Error(t, err)
}

func TestRenderCommand(t *testing.T) {
	input := writeContent(t, sampleContent)

	t.Run("html to stdout", func(t *testing.T) {
		var out bytes.Buffer
		cmd := newRootCmd()
		cmd.SetOut(&out)
		cmd.SetArgs([]string{"render", "--input", input, "--format", "html"})
		require.NoError(t, cmd.Execute())
		assert.Contains(t, out.String(), "Kofi Mensah")
		assert.Contains(t, out.String(), "#224466")
	})

	t.Run("pdf to file", func(t *testing.T) {
		target := filepath.Join(t.TempDir(), "out.pdf")
		cmd := newRootCmd()
		cmd.SetArgs([]string{"render", "-i", input, "-f", "pdf", "-o", target})
		require.NoError(t, cmd.Execute())

		raw, err := os.ReadFile(target)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(raw, []byte("%PDF")))
	})

	t.Run("unknown format", func(t *testing.T) {
		cmd := newRootCmd()
		cmd.SetOut(&bytes.Buffer{})
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs([]string{"render", "--input", input, "--format", "docx"})
		assert.Error(t, cmd.Execute())
	})
}

func TestResetPassword(t *testing.T) {
	ctx := context.Background()
	repo := repository.NewMemoryRepository()
	artist := &database.Artist{Name: "Kofi", Email: "kofi@example.com", PasswordHash: "old"}
	require.NoError(t, repo.CreateArtist(ctx, artist))

	password, err := resetPassword(ctx, repo, " KOFI@example.com ")
	require.NoError(t, err)
	assert.Len(t, password, 24)

	stored, err := repo.GetArtist(ctx, artist.ID)
	require.NoError(t, err)
	assert.True(t, auth.CheckPasswordHash(password, stored.PasswordHash))

	_, err = resetPassword(ctx, repo, "nobody@example.com")
	assert.ErrorIs(t, err, repository.ErrNotFound)
}
