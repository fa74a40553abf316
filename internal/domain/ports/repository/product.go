package repository

import (
	"context"

	"whatsapp-catalog-bot/internal/domain/model"
)

// ProductRepository persists catalog entries. Save inserts when ID is zero
// (and assigns it) and updates otherwise.
type ProductRepository interface {
	Save(ctx context.Context, tx Tx, p *model.Product) error
	FindByID(ctx context.Context, tx Tx, id int64) (*model.Product, error)
	// FindAll returns every product ordered by id.
	FindAll(ctx context.Context, tx Tx) ([]*model.Product, error)
	// FindVisible returns products with an image that are available.
	FindVisible(ctx context.Context, tx Tx) ([]*model.Product, error)
	Delete(ctx context.Context, tx Tx, id int64) error
}
