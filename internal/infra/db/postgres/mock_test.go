//go:build !integration

package postgres

import (
	"context"
	"time"

	"whatsapp-catalog-bot/internal/domain/model"
	"whatsapp-catalog-bot/internal/domain/ports/repository"
	red "whatsapp-catalog-bot/internal/infra/redis"
)

// mockInnerProductRepo mocks the database repository that the decorator wraps.
type mockInnerProductRepo struct {
	SaveFunc        func(ctx context.Context, tx repository.Tx, p *model.Product) error
	DeleteFunc      func(ctx context.Context, tx repository.Tx, id int64) error
	FindByIDFunc    func(ctx context.Context, tx repository.Tx, id int64) (*model.Product, error)
	FindAllFunc     func(ctx context.Context, tx repository.Tx) ([]*model.Product, error)
	FindVisibleFunc func(ctx context.Context, tx repository.Tx) ([]*model.Product, error)
}

func (m *mockInnerProductRepo) Save(ctx context.Context, tx repository.Tx, p *model.Product) error {
	return m.SaveFunc(ctx, tx, p)
}
func (m *mockInnerProductRepo) Delete(ctx context.Context, tx repository.Tx, id int64) error {
	return m.DeleteFunc(ctx, tx, id)
}
func (m *mockInnerProductRepo) FindByID(ctx context.Context, tx repository.Tx, id int64) (*model.Product, error) {
	return m.FindByIDFunc(ctx, tx, id)
}
func (m *mockInnerProductRepo) FindAll(ctx context.Context, tx repository.Tx) ([]*model.Product, error) {
	return m.FindAllFunc(ctx, tx)
}
func (m *mockInnerProductRepo) FindVisible(ctx context.Context, tx repository.Tx) ([]*model.Product, error) {
	return m.FindVisibleFunc(ctx, tx)
}

// mockRedisClient mocks our Redis client wrapper. Unset funcs behave like an
// empty cache.
type mockRedisClient struct {
	GetFunc func(ctx context.Context, key string) (string, error)
	SetFunc func(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	DelFunc func(ctx context.Context, keys ...string) error
}

var _ red.RedisClient = &mockRedisClient{}

func (m *mockRedisClient) Get(ctx context.Context, key string) (string, error) {
	if m.GetFunc == nil {
		return "", red.Nil
	}
	return m.GetFunc(ctx, key)
}
func (m *mockRedisClient) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if m.SetFunc == nil {
		return nil
	}
	return m.SetFunc(ctx, key, value, expiration)
}
func (m *mockRedisClient) Del(ctx context.Context, keys ...string) error {
	if m.DelFunc == nil {
		return nil
	}
	return m.DelFunc(ctx, keys...)
}
func (m *mockRedisClient) Ping(ctx context.Context) error { return nil }
func (m *mockRedisClient) Incr(ctx context.Context, key string) (int64, error) {
	return 0, nil
}
func (m *mockRedisClient) Expire(ctx context.Context, key string, expiration time.Duration) error {
	return nil
}
func (m *mockRedisClient) Close() error { return nil }
