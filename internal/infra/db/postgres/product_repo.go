package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/shopspring/decimal"

	"whatsapp-catalog-bot/internal/domain"
	"whatsapp-catalog-bot/internal/domain/model"
	"whatsapp-catalog-bot/internal/domain/ports/repository"
)

var _ repository.ProductRepository = (*ProductRepo)(nil)

type ProductRepo struct {
	pool *pgxpool.Pool
}

func NewProductRepo(pool *pgxpool.Pool) *ProductRepo {
	return &ProductRepo{pool: pool}
}

const productColumns = `id, name, description, price::text, category, whatsapp_number,
       image_url, available, stock, created_at, updated_at`

func (r *ProductRepo) Save(ctx context.Context, tx repository.Tx, p *model.Product) error {
	exec, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	if p.ID == 0 {
		const q = `
INSERT INTO products (name, description, price, category, whatsapp_number,
                      image_url, available, stock, created_at, updated_at)
VALUES ($1, $2, $3::numeric, $4, $5, $6, $7, $8, $9, $9)
RETURNING id;
`
		if err := exec.QueryRow(ctx, q,
			p.Name, p.Description, p.Price.String(), p.Category, p.WhatsappNumber,
			p.ImageURL, p.Available, p.Stock, now,
		).Scan(&p.ID); err != nil {
			return fmt.Errorf("insert product: %w", err)
		}
		p.CreatedAt, p.UpdatedAt = now, now
		return nil
	}

	const q = `
UPDATE products
   SET name = $2, description = $3, price = $4::numeric, category = $5,
       whatsapp_number = $6, image_url = $7, available = $8, stock = $9,
       updated_at = $10
 WHERE id = $1;
`
	ct, err := exec.Exec(ctx, q,
		p.ID, p.Name, p.Description, p.Price.String(), p.Category,
		p.WhatsappNumber, p.ImageURL, p.Available, p.Stock, now,
	)
	if err != nil {
		return fmt.Errorf("update product %d: %w", p.ID, err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	p.UpdatedAt = now
	return nil
}

func (r *ProductRepo) FindByID(ctx context.Context, tx repository.Tx, id int64) (*model.Product, error) {
	exec, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	q := `SELECT ` + productColumns + ` FROM products WHERE id = $1`
	if inTx(tx) {
		q += ` FOR UPDATE`
	}

	p, err := scanProduct(exec.QueryRow(ctx, q, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find product %d: %w", id, err)
	}
	return p, nil
}

func (r *ProductRepo) FindAll(ctx context.Context, tx repository.Tx) ([]*model.Product, error) {
	return r.list(ctx, tx, `SELECT `+productColumns+` FROM products ORDER BY id`)
}

func (r *ProductRepo) FindVisible(ctx context.Context, tx repository.Tx) ([]*model.Product, error) {
	return r.list(ctx, tx, `SELECT `+productColumns+` FROM products
 WHERE image_url IS NOT NULL AND image_url <> '' AND available
 ORDER BY id`)
}

func (r *ProductRepo) Delete(ctx context.Context, tx repository.Tx, id int64) error {
	exec, err := getExecutor(r.pool, tx)
	if err != nil {
		return err
	}
	ct, err := exec.Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete product %d: %w", id, err)
	}
	if ct.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ProductRepo) list(ctx context.Context, tx repository.Tx, q string) ([]*model.Product, error) {
	exec, err := getExecutor(r.pool, tx)
	if err != nil {
		return nil, err
	}
	rows, err := exec.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var out []*model.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func scanProduct(row pgx.Row) (*model.Product, error) {
	var (
		p     model.Product
		price string
	)
	if err := row.Scan(
		&p.ID, &p.Name, &p.Description, &price, &p.Category, &p.WhatsappNumber,
		&p.ImageURL, &p.Available, &p.Stock, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	d, err := decimal.NewFromString(price)
	if err != nil {
		return nil, fmt.Errorf("product %d price %q: %w", p.ID, price, err)
	}
	p.Price = d
	return &p, nil
}
