package order

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"

	"storefront/internal/domain"
	"storefront/internal/logging"
)

type querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

type postgresRepo struct {
	pool   *pgxpool.Pool
	logger logrus.FieldLogger
}

func NewPostgres(pool *pgxpool.Pool, logger logrus.FieldLogger) Repository {
	return &postgresRepo{pool: pool, logger: logging.OrDiscard(logger)}
}

const orderColumns = `
id::text, customer_id::text, first_name, last_name, email, address, postal_code, city, phone,
payment_method, paid, payment_status, paypal_payment_id, paypal_payer_id, created_at, updated_at`

func (r *postgresRepo) Create(ctx context.Context, o domain.Order, beforeCommit CommitHook) (*domain.Order, error) {
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	const insertOrder = `
INSERT INTO orders (customer_id, first_name, last_name, email, address, postal_code, city, phone, payment_method, paid, payment_status)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, FALSE, 'pending')
RETURNING id::text, created_at, updated_at
`
	out := o
	out.Paid = false
	out.PaymentStatus = domain.PaymentPending
	if err := tx.QueryRow(ctx, insertOrder,
		o.CustomerID,
		o.Contact.FirstName,
		o.Contact.LastName,
		o.Contact.Email,
		o.Contact.Address,
		o.Contact.PostalCode,
		o.Contact.City,
		o.Contact.Phone,
		string(o.PaymentMethod),
	).Scan(&out.ID, &out.CreatedAt, &out.UpdatedAt); err != nil {
		r.logger.WithError(err).WithField("customer_id", o.CustomerID).Error("order repo: insert order failed")
		return nil, fmt.Errorf("insert order: %w", err)
	}

	const insertItem = `
INSERT INTO order_items (order_id, product_id, price, quantity, position)
VALUES ($1, $2, $3::numeric, $4, $5)
RETURNING id::text
`
	out.Items = make([]domain.OrderItem, len(o.Items))
	for i, item := range o.Items {
		if err := item.Validate(); err != nil {
			return nil, err
		}
		item.OrderID = out.ID
		if err := tx.QueryRow(ctx, insertItem, out.ID, item.ProductID, item.Price.String(), item.Quantity, i).Scan(&item.ID); err != nil {
			r.logger.WithError(err).WithFields(logrus.Fields{"order_id": out.ID, "product_id": item.ProductID}).Error("order repo: insert item failed")
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23503" {
				return nil, fmt.Errorf("order item %s: %w", item.ProductID, domain.ErrNotFound)
			}
			return nil, fmt.Errorf("insert order item %s: %w", item.ProductID, err)
		}
		out.Items[i] = item
	}

	if beforeCommit != nil {
		if err := beforeCommit(ctx); err != nil {
			return nil, err
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit order: %w", err)
	}
	r.logger.WithFields(logrus.Fields{"order_id": out.ID, "items": len(out.Items)}).Info("order repo: created")
	return &out, nil
}

func (r *postgresRepo) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	return r.load(ctx, r.pool, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
}

func (r *postgresRepo) GetForCustomer(ctx context.Context, id, customerID string) (*domain.Order, error) {
	o, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if o.CustomerID != customerID {
		r.logger.WithFields(logrus.Fields{"order_id": id, "customer_id": customerID}).Warn("order repo: access by non-owner")
		return nil, domain.ErrUnauthorized
	}
	return o, nil
}

func (r *postgresRepo) ListByCustomer(ctx context.Context, customerID string) ([]domain.Order, error) {
	if _, err := uuid.Parse(customerID); err != nil {
		return nil, nil
	}
	rows, err := r.pool.Query(ctx, `SELECT `+orderColumns+`
FROM orders
WHERE customer_id = $1
ORDER BY created_at DESC
`, customerID)
	if err != nil {
		return nil, err
	}
	var result []domain.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		result = append(result, o)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if len(result) == 0 {
		return result, nil
	}
	ids := make([]string, len(result))
	for i := range result {
		ids[i] = result[i].ID
	}
	items, err := loadItemsByOrder(ctx, r.pool, ids)
	if err != nil {
		return nil, err
	}
	for i := range result {
		result[i].Items = items[result[i].ID]
		if result[i].Items == nil {
			result[i].Items = []domain.OrderItem{}
		}
	}
	r.logger.WithFields(logrus.Fields{"customer_id": customerID, "count": len(result)}).Debug("order repo: listed")
	return result, nil
}

func (r *postgresRepo) UpdatePayment(ctx context.Context, id string, fn PaymentUpdate) (*domain.Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, domain.ErrNotFound
	}
	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	o, err := r.load(ctx, tx, `SELECT `+orderColumns+` FROM orders WHERE id = $1 FOR UPDATE`, id)
	if err != nil {
		return nil, err
	}

	changed, err := fn(o)
	if err != nil {
		return nil, err
	}
	if !changed {
		return o, nil
	}
	if err := o.CheckPaymentInvariant(); err != nil {
		return nil, err
	}

	const q = `
UPDATE orders
SET paid = $2, payment_status = $3, paypal_payment_id = $4, paypal_payer_id = $5, updated_at = now()
WHERE id = $1
RETURNING updated_at
`
	if err := tx.QueryRow(ctx, q, o.ID, o.Paid, string(o.PaymentStatus), o.PaypalPaymentID, o.PaypalPayerID).Scan(&o.UpdatedAt); err != nil {
		return nil, fmt.Errorf("update payment: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit payment: %w", err)
	}
	r.logger.WithFields(logrus.Fields{"order_id": o.ID, "status": o.PaymentStatus, "paid": o.Paid}).Info("order repo: payment updated")
	return o, nil
}

func (r *postgresRepo) load(ctx context.Context, q querier, sql string, id string) (*domain.Order, error) {
	o, err := scanOrder(q.QueryRow(ctx, sql, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	items, err := loadItems(ctx, q, o.ID)
	if err != nil {
		return nil, err
	}
	o.Items = items
	return &o, nil
}

func scanOrder(row pgx.Row) (domain.Order, error) {
	var (
		o      domain.Order
		method string
		status string
	)
	err := row.Scan(
		&o.ID,
		&o.CustomerID,
		&o.Contact.FirstName,
		&o.Contact.LastName,
		&o.Contact.Email,
		&o.Contact.Address,
		&o.Contact.PostalCode,
		&o.Contact.City,
		&o.Contact.Phone,
		&method,
		&o.Paid,
		&status,
		&o.PaypalPaymentID,
		&o.PaypalPayerID,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	if err != nil {
		return domain.Order{}, err
	}
	o.PaymentMethod = domain.PaymentMethod(method)
	o.PaymentStatus = domain.PaymentStatus(status)
	return o, nil
}

const itemColumns = `
SELECT oi.id::text, oi.order_id::text, oi.product_id::text, COALESCE(p.name, ''), oi.price::text, oi.quantity
FROM order_items oi
LEFT JOIN products p ON p.id = oi.product_id
`

func loadItems(ctx context.Context, q querier, orderID string) ([]domain.OrderItem, error) {
	items, err := queryItems(ctx, q, itemColumns+`WHERE oi.order_id = $1
ORDER BY oi.position ASC
`, orderID)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.OrderItem{}
	}
	return items, nil
}

// loadItemsByOrder fetches the items of several orders in one query, grouped by order id.
func loadItemsByOrder(ctx context.Context, q querier, orderIDs []string) (map[string][]domain.OrderItem, error) {
	items, err := queryItems(ctx, q, itemColumns+`WHERE oi.order_id = ANY($1::uuid[])
ORDER BY oi.order_id, oi.position ASC
`, orderIDs)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]domain.OrderItem, len(orderIDs))
	for _, item := range items {
		out[item.OrderID] = append(out[item.OrderID], item)
	}
	return out, nil
}

func queryItems(ctx context.Context, q querier, sql string, args ...any) ([]domain.OrderItem, error) {
	rows, err := q.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []domain.OrderItem
	for rows.Next() {
		var (
			item  domain.OrderItem
			price string
		)
		if err := rows.Scan(&item.ID, &item.OrderID, &item.ProductID, &item.Name, &price, &item.Quantity); err != nil {
			return nil, err
		}
		d, err := decimal.NewFromString(price)
		if err != nil {
			return nil, fmt.Errorf("order item %s: parse price %q: %w", item.ID, price, err)
		}
		item.Price = d
		items = append(items, item)
	}
	return items, rows.Err()
}
