package usecase

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"whatsapp-catalog-bot/internal/domain"
	"whatsapp-catalog-bot/internal/domain/model"
	"whatsapp-catalog-bot/internal/domain/ports/repository"
	"whatsapp-catalog-bot/internal/infra/logging"
)

// Compile-time check
var _ CatalogUseCase = (*catalogUC)(nil)

// CatalogUseCase exposes read access to products for the HTTP API.
type CatalogUseCase interface {
	ListVisible(ctx context.Context) ([]*model.Product, error)
	GetVisible(ctx context.Context, id int64) (*model.Product, error)
	ListAll(ctx context.Context) ([]*model.Product, error)
}

type catalogUC struct {
	products repository.ProductRepository
	log      *zerolog.Logger
}

func NewCatalogUseCase(products repository.ProductRepository, logger *zerolog.Logger) *catalogUC {
	l := logger.With().Str("component", "CatalogUC").Logger()
	return &catalogUC{products: products, log: &l}
}

func (c *catalogUC) ListVisible(ctx context.Context) ([]*model.Product, error) {
	defer logging.TraceDuration(c.log, "CatalogUC.ListVisible")()
	return c.products.FindVisible(ctx, repository.NoTX)
}

// GetVisible hides products without an image or marked unavailable.
func (c *catalogUC) GetVisible(ctx context.Context, id int64) (*model.Product, error) {
	if id <= 0 {
		return nil, fmt.Errorf("%w: product id %d", domain.ErrInvalidArgument, id)
	}
	p, err := c.products.FindByID(ctx, repository.NoTX, id)
	if err != nil {
		return nil, err
	}
	if !p.IsVisible() {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

func (c *catalogUC) ListAll(ctx context.Context) ([]*model.Product, error) {
	return c.products.FindAll(ctx, repository.NoTX)
}
