package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/samber/lo"

	"artfolio/internal/database"
)

// MemoryRepository 把数据保存在进程内存中，供 portfolioctl 与测试使用。
type MemoryRepository struct {
	mu         sync.RWMutex
	now        func() time.Time
	nextID     uint
	artists    map[uint]database.Artist
	portfolios map[uint]database.Portfolio
	documents  map[uint]database.GeneratedDocument
}

var _ Repository = (*MemoryRepository)(nil)

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		now:        time.Now,
		artists:    make(map[uint]database.Artist),
		portfolios: make(map[uint]database.Portfolio),
		documents:  make(map[uint]database.GeneratedDocument),
	}
}

// id 在三张表之间共享递增，足够保证各自唯一。
func (r *MemoryRepository) id() uint {
	r.nextID++
	return r.nextID
}

func (r *MemoryRepository) CreateArtist(_ context.Context, a *database.Artist) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	a.Email = strings.ToLower(strings.TrimSpace(a.Email))
	if r.emailTaken(a.Email, 0) {
		return ErrDuplicate
	}
	a.ID = r.id()
	a.CreatedAt = r.now()
	a.UpdatedAt = a.CreatedAt
	stored := *a
	stored.Portfolios = nil
	r.artists[a.ID] = stored
	return nil
}

func (r *MemoryRepository) emailTaken(email string, except uint) bool {
	for id, a := range r.artists {
		if id != except && a.Email == email {
			return true
		}
	}
	return false
}

func (r *MemoryRepository) GetArtist(_ context.Context, id uint) (*database.Artist, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.artists[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &a, nil
}

func (r *MemoryRepository) GetArtistByEmail(_ context.Context, email string) (*database.Artist, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	email = strings.ToLower(strings.TrimSpace(email))
	for _, a := range r.artists {
		if a.Email == email {
			return &a, nil
		}
	}
	return nil, ErrNotFound
}

func (r *MemoryRepository) ListArtists(_ context.Context, opts ListOptions) ([]database.Artist, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	category := strings.TrimSpace(opts.Category)
	all := lo.Filter(lo.Values(r.artists), func(a database.Artist, _ int) bool {
		return category == "" || a.Category == category
	})
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })
	return page(all, opts), nil
}

func page[T any](items []T, opts ListOptions) []T {
	if opts.Offset >= len(items) {
		return []T{}
	}
	if opts.Offset > 0 {
		items = items[opts.Offset:]
	}
	return lo.Subset(items, 0, uint(opts.limit()))
}

func (r *MemoryRepository) UpdateArtist(_ context.Context, a *database.Artist) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.artists[a.ID]
	if !ok {
		return ErrNotFound
	}
	a.Email = strings.ToLower(strings.TrimSpace(a.Email))
	if r.emailTaken(a.Email, a.ID) {
		return ErrDuplicate
	}
	a.CreatedAt = existing.CreatedAt
	a.UpdatedAt = r.now()
	stored := *a
	stored.Portfolios = nil
	r.artists[a.ID] = stored
	return nil
}

func (r *MemoryRepository) DeleteArtist(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.artists[id]; !ok {
		return ErrNotFound
	}
	for pid, p := range r.portfolios {
		if p.ArtistID == id {
			r.deletePortfolioLocked(pid)
		}
	}
	delete(r.artists, id)
	return nil
}

func (r *MemoryRepository) CreatePortfolio(_ context.Context, p *database.Portfolio) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.artists[p.ArtistID]; !ok {
		return ErrNotFound
	}
	p.ID = r.id()
	p.CreatedAt = r.now()
	p.UpdatedAt = p.CreatedAt
	stored := *p
	stored.Artist = database.Artist{}
	r.portfolios[p.ID] = stored
	return nil
}

func (r *MemoryRepository) GetPortfolio(_ context.Context, id uint) (*database.Portfolio, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.portfolios[id]
	if !ok {
		return nil, ErrNotFound
	}
	return &p, nil
}

func (r *MemoryRepository) ListPortfolios(_ context.Context, artistID uint) ([]database.Portfolio, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := lo.Filter(lo.Values(r.portfolios), func(p database.Portfolio, _ int) bool {
		return p.ArtistID == artistID
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *MemoryRepository) UpdatePortfolio(_ context.Context, p *database.Portfolio) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.portfolios[p.ID]
	if !ok {
		return ErrNotFound
	}
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = r.now()
	stored := *p
	stored.Artist = database.Artist{}
	r.portfolios[p.ID] = stored
	return nil
}

func (r *MemoryRepository) UpdatePortfolioState(_ context.Context, id uint, u PortfolioUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.updatePortfolioStateLocked(id, u)
}

func (r *MemoryRepository) updatePortfolioStateLocked(id uint, u PortfolioUpdate) error {
	p, ok := r.portfolios[id]
	if !ok {
		return ErrNotFound
	}
	u.apply(&p)
	p.UpdatedAt = r.now()
	r.portfolios[id] = p
	return nil
}

func (r *MemoryRepository) DeletePortfolio(_ context.Context, id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.portfolios[id]; !ok {
		return ErrNotFound
	}
	r.deletePortfolioLocked(id)
	return nil
}

func (r *MemoryRepository) deletePortfolioLocked(id uint) {
	for did, d := range r.documents {
		if d.PortfolioID == id {
			delete(r.documents, did)
		}
	}
	delete(r.portfolios, id)
}

func (r *MemoryRepository) RecordDocument(_ context.Context, doc *database.GeneratedDocument, u PortfolioUpdate) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.portfolios[doc.PortfolioID]; !ok {
		return ErrNotFound
	}
	doc.ID = r.id()
	doc.CreatedAt = r.now()
	doc.UpdatedAt = doc.CreatedAt
	stored := *doc
	stored.Portfolio = database.Portfolio{}
	r.documents[doc.ID] = stored
	return r.updatePortfolioStateLocked(doc.PortfolioID, u)
}

func (r *MemoryRepository) ListDocuments(_ context.Context, portfolioID uint) ([]database.GeneratedDocument, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := lo.Filter(lo.Values(r.documents), func(d database.GeneratedDocument, _ int) bool {
		return d.PortfolioID == portfolioID
	})
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return out, nil
}
