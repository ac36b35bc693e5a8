package product

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"storefront/internal/domain"
	"storefront/internal/logging"
)

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger logrus.FieldLogger
}

func NewPostgres(pool *pgxpool.Pool, logger logrus.FieldLogger) Repository {
	return &postgresRepo{pool: pool, logger: logging.OrDiscard(logger)}
}

const productColumns = `
p.id::text, COALESCE(p.category_id::text, ''), p.name, p.slug, COALESCE(p.description, ''), COALESCE(p.image, ''),
p.price::text, p.original_price::text, p.available, p.stock_quantity, p.created_at, p.updated_at`

func (r *postgresRepo) List(ctx context.Context) ([]domain.Product, error) {
	q := `SELECT ` + productColumns + `
FROM products p
ORDER BY p.name ASC
`
	return r.query(ctx, "list", q)
}

func (r *postgresRepo) ListByCategory(ctx context.Context, categorySlug string) ([]domain.Product, error) {
	q := `SELECT ` + productColumns + `
FROM products p
JOIN categories c ON c.id = p.category_id
WHERE c.slug = $1
ORDER BY p.name ASC
`
	return r.query(ctx, "list_by_category", q, categorySlug)
}

func (r *postgresRepo) Search(ctx context.Context, query string) ([]domain.Product, error) {
	q := `SELECT ` + productColumns + `
FROM products p
WHERE p.available AND (p.name ILIKE '%' || $1 || '%' OR p.description ILIKE '%' || $1 || '%')
ORDER BY p.name ASC
LIMIT 50
`
	return r.query(ctx, "search", q, query)
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	q := `SELECT ` + productColumns + `
FROM products p
WHERE p.id = $1
`
	p, err := scanProduct(r.pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.WithField("id", id).Debug("product repo: get not found")
			return nil, domain.ErrNotFound
		}
		r.logger.WithError(err).WithField("id", id).Error("product repo: get failed")
		return nil, err
	}
	return &p, nil
}

func (r *postgresRepo) GetByIDs(ctx context.Context, ids []string) (map[string]domain.Product, error) {
	valid := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, err := uuid.Parse(id); err == nil {
			valid = append(valid, id)
		}
	}
	out := make(map[string]domain.Product, len(valid))
	if len(valid) == 0 {
		return out, nil
	}
	q := `SELECT ` + productColumns + `
FROM products p
WHERE p.id = ANY($1::uuid[])
`
	list, err := r.query(ctx, "get_by_ids", q, valid)
	if err != nil {
		return nil, err
	}
	for _, p := range list {
		out[p.ID] = p
	}
	return out, nil
}

func (r *postgresRepo) Upsert(ctx context.Context, p domain.Product) (*domain.Product, error) {
	const q = `
INSERT INTO products (category_id, name, slug, description, image, price, original_price, available, stock_quantity)
VALUES (NULLIF($1, '')::uuid, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6::numeric, $7::numeric, $8, $9)
ON CONFLICT (slug) DO UPDATE SET
    category_id = EXCLUDED.category_id,
    name = EXCLUDED.name,
    description = EXCLUDED.description,
    image = EXCLUDED.image,
    price = EXCLUDED.price,
    original_price = EXCLUDED.original_price,
    available = EXCLUDED.available,
    stock_quantity = EXCLUDED.stock_quantity,
    updated_at = now()
RETURNING id::text, created_at, updated_at
`
	var original *string
	if p.OriginalPrice != nil {
		s := p.OriginalPrice.String()
		original = &s
	}
	res := p
	err := r.pool.QueryRow(ctx, q,
		p.CategoryID,
		p.Name,
		p.Slug,
		p.Description,
		p.Image,
		p.Price.String(),
		original,
		p.Available,
		p.StockQuantity,
	).Scan(&res.ID, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		r.logger.WithError(err).WithField("slug", p.Slug).Error("product repo: upsert failed")
		return nil, err
	}
	r.logger.WithFields(logrus.Fields{"slug": res.Slug, "id": res.ID}).Debug("product repo: upserted")
	return &res, nil
}

func (r *postgresRepo) query(ctx context.Context, op, q string, args ...any) ([]domain.Product, error) {
	rows, err := r.pool.Query(ctx, q, args...)
	if err != nil {
		r.logger.WithError(err).WithField("op", op).Error("product repo: query failed")
		return nil, err
	}
	defer rows.Close()

	var result []domain.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, p)
	}
	if err := rows.Err(); err != nil {
		r.logger.WithError(err).WithField("op", op).Error("product repo: rows failed")
		return nil, err
	}
	r.logger.WithFields(logrus.Fields{"op": op, "count": len(result)}).Debug("product repo: query")
	return result, nil
}

func scanProduct(row pgx.Row) (domain.Product, error) {
	var (
		p        domain.Product
		price    string
		original *string
	)
	if err := row.Scan(
		&p.ID,
		&p.CategoryID,
		&p.Name,
		&p.Slug,
		&p.Description,
		&p.Image,
		&price,
		&original,
		&p.Available,
		&p.StockQuantity,
		&p.CreatedAt,
		&p.UpdatedAt,
	); err != nil {
		return domain.Product{}, err
	}
	d, err := decimal.NewFromString(price)
	if err != nil {
		return domain.Product{}, fmt.Errorf("product %s: parse price %q: %w", p.ID, price, err)
	}
	p.Price = d
	if original != nil {
		o, err := decimal.NewFromString(*original)
		if err != nil {
			return domain.Product{}, fmt.Errorf("product %s: parse original price %q: %w", p.ID, *original, err)
		}
		p.OriginalPrice = &o
	}
	return p, nil
}
