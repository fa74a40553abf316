package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"

	"whatsapp-catalog-bot/internal/domain"
	"whatsapp-catalog-bot/internal/domain/model"
	"whatsapp-catalog-bot/internal/domain/ports/repository"
)

var (
	_ repository.ProductRepository  = (*ProductRepo)(nil)
	_ repository.TransactionManager = (*TxManager)(nil)
)

// ProductRepo keeps the catalog in process memory. Used when no database
// url is configured and by tests.
type ProductRepo struct {
	mu    sync.RWMutex
	seq   int64
	items map[int64]model.Product
	now   func() time.Time
}

func NewProductRepo() *ProductRepo {
	return &ProductRepo{items: make(map[int64]model.Product), now: time.Now}
}

func (r *ProductRepo) Save(ctx context.Context, tx repository.Tx, p *model.Product) error {
	if p == nil {
		return domain.ErrInvalidArgument
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	now := r.now().UTC()
	if p.ID == 0 {
		r.seq++
		p.ID = r.seq
		p.CreatedAt = now
	} else if _, ok := r.items[p.ID]; !ok {
		return domain.ErrNotFound
	}
	p.UpdatedAt = now
	r.items[p.ID] = copyProduct(p)
	return nil
}

func (r *ProductRepo) FindByID(ctx context.Context, tx repository.Tx, id int64) (*model.Product, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.items[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := copyProduct(&p)
	return &cp, nil
}

func (r *ProductRepo) FindAll(ctx context.Context, tx repository.Tx) ([]*model.Product, error) {
	return r.filter(func(*model.Product) bool { return true }), nil
}

func (r *ProductRepo) FindVisible(ctx context.Context, tx repository.Tx) ([]*model.Product, error) {
	return r.filter((*model.Product).IsVisible), nil
}

func (r *ProductRepo) Delete(ctx context.Context, tx repository.Tx, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.items[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.items, id)
	return nil
}

func (r *ProductRepo) filter(keep func(*model.Product) bool) []*model.Product {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*model.Product, 0, len(r.items))
	for _, p := range r.items {
		cp := copyProduct(&p)
		if keep(&cp) {
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func copyProduct(p *model.Product) model.Product {
	cp := *p
	if p.ImageURL != nil {
		u := *p.ImageURL
		cp.ImageURL = &u
	}
	return cp
}

// TxManager runs fn directly; the in-memory repo has no transactions.
type TxManager struct{}

func (TxManager) WithTx(ctx context.Context, _ pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	return fn(ctx, repository.NoTX)
}
