package generation

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	pdfreader "github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"artfolio/internal/config"
	"artfolio/internal/database"
	"artfolio/internal/repository"
	"artfolio/internal/storage"
)

type fixture struct {
	repo      *repository.MemoryRepository
	store     *storage.LocalStore
	portfolio *database.Portfolio
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	repo := repository.NewMemoryRepository()
	store, err := storage.NewLocalStore(t.TempDir(), "http://localhost:8080")
	require.NoError(t, err)

	artist := &database.Artist{
		Name:        "Ama K.",
		Email:       "ama@x.com",
		Skills:      "vocals,guitar",
		SocialLinks: datatypes.JSON(`{"instagram":"https://instagram.com/ama"}`),
	}
	require.NoError(t, repo.CreateArtist(ctx, artist))

	p := &database.Portfolio{
		ArtistID:   artist.ID,
		Title:      "Live",
		TemplateID: "modern",
		Status:     database.StatusDraft,
		Sections:   datatypes.JSON(`[{"type":"gallery","content":"Photos"}]`),
	}
	require.NoError(t, repo.CreatePortfolio(ctx, p))

	return &fixture{repo: repo, store: store, portfolio: p}
}

// steppingClock advances one second per call.
func steppingClock() func() time.Time {
	var n atomic.Int64
	base := time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		return base.Add(time.Duration(n.Add(1)) * time.Second)
	}
}

func counterTokens() func() string {
	var n atomic.Int64
	return func() string { return fmt.Sprintf("t%d", n.Add(1)) }
}

func TestGeneratePDF(t *testing.T) {
	f := newFixture(t)
	svc := NewService(f.repo, f.store, WithClock(steppingClock()), WithTokenSource(counterTokens()))
	ctx := context.Background()

	doc, err := svc.GeneratePDF(ctx, f.portfolio.ID)
	require.NoError(t, err)

	assert.Equal(t, database.FormatPDF, doc.Format)
	assert.True(t, strings.HasPrefix(doc.Filename, fmt.Sprintf("portfolio-%d-", f.portfolio.ID)))
	assert.True(t, strings.HasSuffix(doc.Filename, "-t1.pdf"))
	assert.Equal(t, ObjectKey(f.portfolio.ID, doc.Filename), doc.ObjectKey)
	assert.Equal(t, "http://localhost:8080/files/"+doc.ObjectKey, doc.URL)

	onDisk, err := os.ReadFile(filepath.Join(f.store.Root(), filepath.FromSlash(doc.ObjectKey)))
	require.NoError(t, err)
	assert.Equal(t, int64(len(onDisk)), doc.SizeBytes)

	r, err := pdfreader.NewReader(bytes.NewReader(onDisk), int64(len(onDisk)))
	require.NoError(t, err)
	// cover + gallery + skills + contact
	assert.Equal(t, 4, r.NumPage())

	p, err := f.repo.GetPortfolio(ctx, f.portfolio.ID)
	require.NoError(t, err)
	assert.Equal(t, database.StatusCompleted, p.Status)
	assert.Equal(t, doc.ObjectKey, p.PDFObjectKey)
	assert.Equal(t, doc.SizeBytes, p.PDFSizeBytes)

	docs, err := f.repo.ListDocuments(ctx, f.portfolio.ID)
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestRegeneratingProducesDistinctFiles(t *testing.T) {
	f := newFixture(t)
	svc := NewService(f.repo, f.store, WithClock(steppingClock()))
	ctx := context.Background()

	first, err := svc.GeneratePDF(ctx, f.portfolio.ID)
	require.NoError(t, err)
	second, err := svc.GeneratePDF(ctx, f.portfolio.ID)
	require.NoError(t, err)

	assert.NotEqual(t, first.Filename, second.Filename)
	for _, d := range []*database.GeneratedDocument{first, second} {
		rc, _, err := f.store.Get(ctx, d.ObjectKey)
		require.NoError(t, err, "older files are kept")
		rc.Close()
	}

	p, err := f.repo.GetPortfolio(ctx, f.portfolio.ID)
	require.NoError(t, err)
	assert.Equal(t, second.ObjectKey, p.PDFObjectKey, "last write wins")
}

func TestOverwriteNaming(t *testing.T) {
	f := newFixture(t)
	svc := NewService(f.repo, f.store, WithNaming(config.FileNamingOverwrite))
	ctx := context.Background()

	first, err := svc.GenerateHTML(ctx, f.portfolio.ID)
	require.NoError(t, err)
	second, err := svc.GenerateHTML(ctx, f.portfolio.ID)
	require.NoError(t, err)

	want := fmt.Sprintf("portfolio-%d.html", f.portfolio.ID)
	assert.Equal(t, want, first.Filename)
	assert.Equal(t, want, second.Filename)

	docs, err := f.repo.ListDocuments(ctx, f.portfolio.ID)
	require.NoError(t, err)
	assert.Len(t, docs, 2)
}

func TestGenerateHTML(t *testing.T) {
	f := newFixture(t)
	svc := NewService(f.repo, f.store)
	ctx := context.Background()

	doc, err := svc.Generate(ctx, f.portfolio.ID, "HTML")
	require.NoError(t, err)
	assert.Equal(t, database.FormatHTML, doc.Format)

	rc, info, err := f.store.Get(ctx, doc.ObjectKey)
	require.NoError(t, err)
	defer rc.Close()
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, int64(len(body)), info.Size)
	assert.Equal(t, info.Size, doc.SizeBytes)
	assert.Contains(t, string(body), `<span class="skill-chip">vocals</span>`)
	assert.Contains(t, string(body), "fab fa-instagram")

	p, err := f.repo.GetPortfolio(ctx, f.portfolio.ID)
	require.NoError(t, err)
	assert.Equal(t, doc.ObjectKey, p.HTMLObjectKey)
}

func TestRenderHTMLDoesNotPersist(t *testing.T) {
	f := newFixture(t)
	svc := NewService(f.repo, f.store)
	ctx := context.Background()

	out, err := svc.RenderHTML(ctx, f.portfolio.ID)
	require.NoError(t, err)
	assert.Contains(t, out, "<h2>About Me</h2>")

	docs, err := f.repo.ListDocuments(ctx, f.portfolio.ID)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestGenerateErrors(t *testing.T) {
	f := newFixture(t)
	svc := NewService(f.repo, f.store)
	ctx := context.Background()

	_, err := svc.GeneratePDF(ctx, 9999)
	assert.ErrorIs(t, err, repository.ErrNotFound)

	_, err = svc.Generate(ctx, f.portfolio.ID, "docx")
	assert.ErrorIs(t, err, ErrUnknownFormat)
}

// failingStore hands out writers whose Close reports an upload failure.
type failingStore struct {
	storage.Store
	aborted atomic.Bool
}

func (s *failingStore) NewWriter(context.Context, string, string) (storage.ObjectWriter, error) {
	return &failingWriter{store: s}, nil
}

type failingWriter struct {
	store *failingStore
	buf   bytes.Buffer
}

func (w *failingWriter) Write(p []byte) (int, error) { return w.buf.Write(p) }
func (w *failingWriter) Close() error                { return errors.New("bucket unavailable") }
func (w *failingWriter) Abort(error)                 { w.store.aborted.Store(true) }
func (w *failingWriter) Size() int64                 { return int64(w.buf.Len()) }

func TestSinkFailureIsReported(t *testing.T) {
	f := newFixture(t)
	store := &failingStore{Store: f.store}
	svc := NewService(f.repo, store)
	ctx := context.Background()

	_, err := svc.GeneratePDF(ctx, f.portfolio.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bucket unavailable")

	docs, err := f.repo.ListDocuments(ctx, f.portfolio.ID)
	require.NoError(t, err)
	assert.Empty(t, docs)

	p, err := f.repo.GetPortfolio(ctx, f.portfolio.ID)
	require.NoError(t, err)
	assert.Equal(t, database.StatusFailed, p.Status)
	assert.Empty(t, p.PDFObjectKey)
}
