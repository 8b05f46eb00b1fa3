package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/fusaf/fusaf-service/internal/model"
	"github.com/fusaf/fusaf-service/internal/repository"
)

type paymentRepository struct{ pool *pgxpool.Pool }

func NewPaymentRepository(pool *pgxpool.Pool) repository.PaymentRepository {
	return &paymentRepository{pool: pool}
}

const paymentColumns = `id, order_id, registration_id, amount::text, currency, status, provider,
	provider_status, provider_payment_id, created_at, updated_at`

func scanPayment(row pgx.Row) (model.Payment, error) {
	var (
		p      model.Payment
		amount string
	)
	if err := row.Scan(&p.ID, &p.OrderID, &p.RegistrationID, &amount, &p.Currency, &p.Status, &p.Provider,
		&p.ProviderStatus, &p.ProviderPaymentID, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return model.Payment{}, err
	}
	d, err := decimal.NewFromString(amount)
	if err != nil {
		return model.Payment{}, fmt.Errorf("parse amount %q: %w", amount, err)
	}
	p.Amount = d
	return p, nil
}

func (r *paymentRepository) Create(ctx context.Context, p model.Payment) (model.Payment, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.Payment{}, err
	}
	out, err := scanPayment(getQ(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO payments (order_id, registration_id, amount, currency, status, provider)
		 VALUES ($1, $2, $3::numeric, $4, $5, $6)
		 RETURNING `+paymentColumns,
		p.OrderID, p.RegistrationID, p.Amount.String(), p.Currency, p.Status, p.Provider,
	))
	if err != nil {
		return model.Payment{}, repository.MapPgError(err)
	}
	return out, nil
}

func (r *paymentRepository) GetByOrderID(ctx context.Context, orderID string) (model.Payment, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.Payment{}, err
	}
	out, err := scanPayment(getQ(ctx, r.pool).QueryRow(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE order_id = $1`, orderID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Payment{}, repository.ErrNotFound
		}
		return model.Payment{}, repository.MapPgError(err)
	}
	return out, nil
}

func (r *paymentRepository) ListPending(ctx context.Context, createdBefore time.Time) ([]model.Payment, error) {
	if err := ensurePool(r.pool); err != nil {
		return nil, err
	}
	rows, err := getQ(ctx, r.pool).Query(ctx,
		`SELECT `+paymentColumns+`
		 FROM payments
		 WHERE status = 'pending' AND created_at <= $1
		 ORDER BY created_at`,
		createdBefore,
	)
	if err != nil {
		return nil, repository.MapPgError(err)
	}
	defer rows.Close()

	out := make([]model.Payment, 0)
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, repository.MapPgError(err)
		}
		out = append(out, p)
	}
	return out, repository.MapPgError(rows.Err())
}

// UpdateStatus refuses to move a payment out of a final status; that race
// (callback vs. reconciliation) surfaces as ErrConflict.
func (r *paymentRepository) UpdateStatus(ctx context.Context, p model.Payment) (model.Payment, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.Payment{}, err
	}
	out, err := scanPayment(getQ(ctx, r.pool).QueryRow(ctx,
		`UPDATE payments SET status = $2, provider_status = $3, provider_payment_id = $4, updated_at = now()
		 WHERE order_id = $1 AND status = 'pending'
		 RETURNING `+paymentColumns,
		p.OrderID, p.Status, p.ProviderStatus, p.ProviderPaymentID,
	))
	if err == nil {
		return out, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return model.Payment{}, repository.MapPgError(err)
	}
	if _, getErr := r.GetByOrderID(ctx, p.OrderID); getErr != nil {
		return model.Payment{}, getErr
	}
	return model.Payment{}, repository.ErrConflict
}

var _ repository.PaymentRepository = (*paymentRepository)(nil)
