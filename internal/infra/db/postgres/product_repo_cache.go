package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jackc/pgx/v4"

	"whatsapp-catalog-bot/internal/domain/model"
	"whatsapp-catalog-bot/internal/domain/ports/repository"
	"whatsapp-catalog-bot/internal/infra/metrics"
	red "whatsapp-catalog-bot/internal/infra/redis"
)

var _ repository.ProductRepository = (*productRepoCacheDecorator)(nil)

const productListKey = "products:all"

// productRepoCacheDecorator is a read-through cache in front of any product
// repository. Reads inside a transaction always go to the inner repo.
type productRepoCacheDecorator struct {
	inner repository.ProductRepository
	cache red.RedisClient
	ttl   time.Duration
}

func NewProductRepoCacheDecorator(inner repository.ProductRepository, cache red.RedisClient, ttl time.Duration) repository.ProductRepository {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &productRepoCacheDecorator{inner: inner, cache: cache, ttl: ttl}
}

func productKey(id int64) string {
	return fmt.Sprintf("product:%d", id)
}

func (d *productRepoCacheDecorator) FindByID(ctx context.Context, tx repository.Tx, id int64) (*model.Product, error) {
	if tx != nil {
		return d.inner.FindByID(ctx, tx, id)
	}
	key := productKey(id)
	var p model.Product
	if d.lookup(ctx, "product", key, &p) {
		return &p, nil
	}

	found, err := d.inner.FindByID(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	d.store(ctx, key, found)
	return found, nil
}

func (d *productRepoCacheDecorator) FindAll(ctx context.Context, tx repository.Tx) ([]*model.Product, error) {
	if tx != nil {
		return d.inner.FindAll(ctx, tx)
	}
	var products []*model.Product
	if d.lookup(ctx, "product_list", productListKey, &products) {
		return products, nil
	}

	products, err := d.inner.FindAll(ctx, tx)
	if err != nil {
		return nil, err
	}
	d.store(ctx, productListKey, products)
	return products, nil
}

// FindVisible filters the cached full list.
func (d *productRepoCacheDecorator) FindVisible(ctx context.Context, tx repository.Tx) ([]*model.Product, error) {
	if tx != nil {
		return d.inner.FindVisible(ctx, tx)
	}
	all, err := d.FindAll(ctx, tx)
	if err != nil {
		return nil, err
	}
	out := make([]*model.Product, 0, len(all))
	for _, p := range all {
		if p.IsVisible() {
			out = append(out, p)
		}
	}
	return out, nil
}

// Writes invalidate both the entry and the list. Inside a transaction the
// keys are also queued and dropped again after the transaction ends, so a
// concurrent reader cannot re-cache the pre-commit row.
func (d *productRepoCacheDecorator) Save(ctx context.Context, tx repository.Tx, p *model.Product) error {
	if err := d.inner.Save(ctx, tx, p); err != nil {
		return err
	}
	d.invalidate(ctx, p.ID)
	return nil
}

func (d *productRepoCacheDecorator) Delete(ctx context.Context, tx repository.Tx, id int64) error {
	if err := d.inner.Delete(ctx, tx, id); err != nil {
		return err
	}
	d.invalidate(ctx, id)
	return nil
}

func (d *productRepoCacheDecorator) lookup(ctx context.Context, cacheName, key string, dst interface{}) bool {
	val, err := d.cache.Get(ctx, key)
	switch {
	case err == nil:
		if json.Unmarshal([]byte(val), dst) == nil {
			metrics.IncCacheRequest(cacheName, "hit")
			return true
		}
	case !errors.Is(err, red.Nil):
		metrics.IncCacheRequest(cacheName, "error")
		return false
	}
	metrics.IncCacheRequest(cacheName, "miss")
	return false
}

func (d *productRepoCacheDecorator) store(ctx context.Context, key string, v interface{}) {
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	_ = d.cache.Set(ctx, key, b, d.ttl)
}

func (d *productRepoCacheDecorator) invalidate(ctx context.Context, id int64) {
	keys := []string{productKey(id), productListKey}
	if pending, ok := ctx.Value(pendingCtxKey{}).(*pendingKeys); ok {
		pending.add(keys...)
	}
	_ = d.cache.Del(ctx, keys...)
}

type pendingCtxKey struct{}

// pendingKeys collects cache keys written during one transaction.
type pendingKeys struct {
	mu   sync.Mutex
	keys map[string]struct{}
}

func (p *pendingKeys) add(keys ...string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, k := range keys {
		p.keys[k] = struct{}{}
	}
}

func (p *pendingKeys) list() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.keys))
	for k := range p.keys {
		out = append(out, k)
	}
	return out
}

var _ repository.TransactionManager = (*cacheAwareTxManager)(nil)

// cacheAwareTxManager drops the product cache entries touched inside a
// transaction once it has committed or rolled back.
type cacheAwareTxManager struct {
	inner repository.TransactionManager
	cache red.RedisClient
}

func NewCacheAwareTxManager(inner repository.TransactionManager, cache red.RedisClient) repository.TransactionManager {
	return &cacheAwareTxManager{inner: inner, cache: cache}
}

func (m *cacheAwareTxManager) WithTx(ctx context.Context, txOpt pgx.TxOptions, fn func(ctx context.Context, tx repository.Tx) error) error {
	if _, nested := ctx.Value(pendingCtxKey{}).(*pendingKeys); nested {
		return m.inner.WithTx(ctx, txOpt, fn)
	}
	pending := &pendingKeys{keys: map[string]struct{}{}}
	err := m.inner.WithTx(context.WithValue(ctx, pendingCtxKey{}, pending), txOpt, fn)
	if keys := pending.list(); len(keys) > 0 {
		_ = m.cache.Del(context.WithoutCancel(ctx), keys...)
	}
	return err
}
