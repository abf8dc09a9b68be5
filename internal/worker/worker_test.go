package worker

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"artfolio/internal/database"
	"artfolio/internal/errcode"
	"artfolio/internal/generation"
	"artfolio/internal/repository"
	"artfolio/internal/storage"
	"artfolio/internal/tasks"
)

type published struct {
	channel string
	msg     NotifyMessage
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []published
	err  error
}

func (p *fakePublisher) Publish(_ context.Context, channel string, payload []byte) error {
	if p.err != nil {
		return p.err
	}
	var msg NotifyMessage
	if err := json.Unmarshal(payload, &msg); err != nil {
		return err
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.msgs = append(p.msgs, published{channel: channel, msg: msg})
	return nil
}

type fakeEnqueuer struct {
	tasks []*asynq.Task
	err   error
}

func (e *fakeEnqueuer) EnqueueContext(_ context.Context, task *asynq.Task, _ ...asynq.Option) (*asynq.TaskInfo, error) {
	if e.err != nil {
		return nil, e.err
	}
	e.tasks = append(e.tasks, task)
	return &asynq.TaskInfo{ID: "t1", Type: task.Type()}, nil
}

type failingGenerator struct{ err error }

func (g failingGenerator) Generate(context.Context, uint, string) (*database.GeneratedDocument, error) {
	return nil, g.err
}

type fakeShooter struct {
	html string
	err  error
}

func (s *fakeShooter) Screenshot(_ context.Context, html string, _ int) ([]byte, error) {
	s.html = html
	if s.err != nil {
		return nil, s.err
	}
	return []byte("\xff\xd8jpeg"), nil
}

type env struct {
	repo      *repository.MemoryRepository
	store     *storage.LocalStore
	svc       *generation.Service
	pub       *fakePublisher
	artist    *database.Artist
	portfolio *database.Portfolio
}

func newEnv(t *testing.T) *env {
	t.Helper()
	ctx := context.Background()
	repo := repository.NewMemoryRepository()
	store, err := storage.NewLocalStore(t.TempDir(), "http://localhost:8080")
	require.NoError(t, err)

	artist := &database.Artist{Name: "Ama K.", Email: "ama@x.com", Skills: "vocals"}
	require.NoError(t, repo.CreateArtist(ctx, artist))
	p := &database.Portfolio{
		ArtistID: artist.ID,
		Title:    "Live",
		Content:  datatypes.JSON(`{"aboutMe":"Singer."}`),
		Status:   database.StatusGenerating,
	}
	require.NoError(t, repo.CreatePortfolio(ctx, p))

	return &env{
		repo:      repo,
		store:     store,
		svc:       generation.NewService(repo, store),
		pub:       &fakePublisher{},
		artist:    artist,
		portfolio: p,
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func generateTask(t *testing.T, id uint, format string) *asynq.Task {
	t.Helper()
	task, err := tasks.NewGenerateTask(id, format, "corr-1")
	require.NoError(t, err)
	return task
}

func TestGenerateTaskPublishesCompletion(t *testing.T) {
	e := newEnv(t)
	enq := &fakeEnqueuer{}
	h := NewGenerateTaskHandler(e.svc, e.repo, e.pub, enq, discardLogger())

	require.NoError(t, h.ProcessTask(context.Background(), generateTask(t, e.portfolio.ID, "pdf")))

	require.Len(t, e.pub.msgs, 1)
	got := e.pub.msgs[0]
	assert.Equal(t, tasks.NotifyChannel(e.artist.ID), got.channel)
	assert.Equal(t, NotifyCompleted, got.msg.Status)
	assert.Equal(t, "pdf", got.msg.Format)
	assert.Equal(t, "corr-1", got.msg.CorrelationID)
	assert.Positive(t, got.msg.SizeBytes)
	assert.Contains(t, got.msg.URL, "/files/portfolios/")
	assert.Equal(t, errcode.OK, got.msg.ErrorCode)
	assert.Empty(t, enq.tasks, "pdf does not trigger a preview")

	p, err := e.repo.GetPortfolio(context.Background(), e.portfolio.ID)
	require.NoError(t, err)
	assert.Equal(t, database.StatusCompleted, p.Status)
}

func TestGenerateTaskQueuesPreviewAfterHTML(t *testing.T) {
	e := newEnv(t)
	enq := &fakeEnqueuer{err: asynq.ErrTaskIDConflict}
	h := NewGenerateTaskHandler(e.svc, e.repo, e.pub, enq, discardLogger())
	require.NoError(t, h.ProcessTask(context.Background(), generateTask(t, e.portfolio.ID, "html")), "duplicate preview is not an error")

	enq.err = nil
	require.NoError(t, h.ProcessTask(context.Background(), generateTask(t, e.portfolio.ID, "html")))
	require.Len(t, enq.tasks, 1)
	assert.Equal(t, tasks.TypePortfolioPreview, enq.tasks[0].Type())
}

func TestGenerateTaskMissingPortfolioIsSkipped(t *testing.T) {
	e := newEnv(t)
	h := NewGenerateTaskHandler(e.svc, e.repo, e.pub, nil, discardLogger())

	assert.NoError(t, h.ProcessTask(context.Background(), generateTask(t, 9999, "pdf")))
	assert.Empty(t, e.pub.msgs)
}

func TestGenerateTaskUnknownFormatSkipsRetry(t *testing.T) {
	e := newEnv(t)
	h := NewGenerateTaskHandler(e.svc, e.repo, e.pub, nil, discardLogger())

	err := h.ProcessTask(context.Background(), generateTask(t, e.portfolio.ID, "docx"))
	require.Error(t, err)
	assert.ErrorIs(t, err, asynq.SkipRetry)

	require.Len(t, e.pub.msgs, 1)
	assert.Equal(t, NotifyError, e.pub.msgs[0].msg.Status)
	assert.Equal(t, errcode.UnknownFormat, e.pub.msgs[0].msg.ErrorCode)
}

func TestGenerateTaskNotifiesOnlyOnFinalAttempt(t *testing.T) {
	e := newEnv(t)
	h := NewGenerateTaskHandler(failingGenerator{err: errors.New("bucket unavailable")}, e.repo, e.pub, nil, discardLogger())

	final := false
	h.finalAttempt = func(context.Context) bool { return final }

	err := h.ProcessTask(context.Background(), generateTask(t, e.portfolio.ID, "pdf"))
	require.Error(t, err)
	assert.Empty(t, e.pub.msgs, "retries stay silent")

	final = true
	err = h.ProcessTask(context.Background(), generateTask(t, e.portfolio.ID, "pdf"))
	require.Error(t, err)
	require.Len(t, e.pub.msgs, 1)
	assert.Equal(t, errcode.SystemError, e.pub.msgs[0].msg.ErrorCode)
	assert.Contains(t, e.pub.msgs[0].msg.ErrorMessage, "bucket unavailable")
}

func TestGenerateTaskBadPayload(t *testing.T) {
	e := newEnv(t)
	h := NewGenerateTaskHandler(e.svc, e.repo, e.pub, nil, discardLogger())
	err := h.ProcessTask(context.Background(), asynq.NewTask(tasks.TypePortfolioGenerate, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
}

func TestPreviewTaskStoresScreenshot(t *testing.T) {
	e := newEnv(t)
	shooter := &fakeShooter{}
	h := NewPreviewTaskHandler(e.svc, shooter, e.repo, e.store, e.pub, discardLogger())

	task, err := tasks.NewPreviewTask(e.portfolio.ID, "corr-2")
	require.NoError(t, err)
	require.NoError(t, h.ProcessTask(context.Background(), task))

	assert.Contains(t, shooter.html, "Singer.")

	key := PreviewObjectKey(e.portfolio.ID)
	rc, info, err := e.store.Get(context.Background(), key)
	require.NoError(t, err)
	rc.Close()
	assert.Equal(t, "image/jpeg", info.ContentType)

	p, err := e.repo.GetPortfolio(context.Background(), e.portfolio.ID)
	require.NoError(t, err)
	assert.Equal(t, key, p.PreviewObjectKey)

	require.Len(t, e.pub.msgs, 1)
	assert.Equal(t, NotifyPreview, e.pub.msgs[0].msg.Status)
}

func TestPreviewTaskScreenshotFailure(t *testing.T) {
	e := newEnv(t)
	h := NewPreviewTaskHandler(e.svc, &fakeShooter{err: errors.New("no chromium")}, e.repo, e.store, e.pub, discardLogger())

	task, err := tasks.NewPreviewTask(e.portfolio.ID, "corr-3")
	require.NoError(t, err)
	assert.Error(t, h.ProcessTask(context.Background(), task))

	p, err := e.repo.GetPortfolio(context.Background(), e.portfolio.ID)
	require.NoError(t, err)
	assert.Empty(t, p.PreviewObjectKey)
}
