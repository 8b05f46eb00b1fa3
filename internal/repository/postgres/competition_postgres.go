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

type competitionRepository struct{ pool *pgxpool.Pool }

func NewCompetitionRepository(pool *pgxpool.Pool) repository.CompetitionRepository {
	return &competitionRepository{pool: pool}
}

// entry_fee travels as text so decimal.Decimal never goes through float.
const competitionColumns = `id, slug, title, type, location, start_date, end_date, registration_deadline,
	status, entry_fee::text, currency, description, created_at, updated_at`

func scanCompetition(row pgx.Row, extra ...any) (model.Competition, error) {
	var (
		c        model.Competition
		deadline *time.Time
		fee      string
	)
	dest := []any{
		&c.ID, &c.Slug, &c.Title, &c.Type, &c.Location, &c.StartDate, &c.EndDate, &deadline,
		&c.Status, &fee, &c.Currency, &c.Description, &c.CreatedAt, &c.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return model.Competition{}, err
	}
	c.RegistrationDeadline = timeOrZero(deadline)
	amount, err := decimal.NewFromString(fee)
	if err != nil {
		return model.Competition{}, fmt.Errorf("parse entry fee %q: %w", fee, err)
	}
	c.EntryFee = amount
	return c, nil
}

func (r *competitionRepository) Create(ctx context.Context, c model.Competition) (model.Competition, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.Competition{}, err
	}
	row := getQ(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO competitions (slug, title, type, location, start_date, end_date,
			registration_deadline, status, entry_fee, currency, description)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::numeric, $10, $11)
		 RETURNING `+competitionColumns,
		c.Slug, c.Title, c.Type, c.Location, c.StartDate, c.EndDate,
		nullTime(c.RegistrationDeadline), c.Status, c.EntryFee.String(), c.Currency, c.Description,
	)
	out, err := scanCompetition(row)
	if err != nil {
		return model.Competition{}, repository.MapPgError(err)
	}
	return out, nil
}

func (r *competitionRepository) GetByID(ctx context.Context, id int64) (model.Competition, error) {
	return r.getOne(ctx, `SELECT `+competitionColumns+` FROM competitions WHERE id = $1`, id)
}

func (r *competitionRepository) GetBySlug(ctx context.Context, slug string) (model.Competition, error) {
	return r.getOne(ctx, `SELECT `+competitionColumns+` FROM competitions WHERE slug = $1`, slug)
}

func (r *competitionRepository) getOne(ctx context.Context, query string, arg any) (model.Competition, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.Competition{}, err
	}
	out, err := scanCompetition(getQ(ctx, r.pool).QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Competition{}, repository.ErrNotFound
		}
		return model.Competition{}, repository.MapPgError(err)
	}
	return out, nil
}

func (r *competitionRepository) List(ctx context.Context, f model.CompetitionFilter, p repository.Page) (repository.PageResult[model.Competition], error) {
	if err := ensurePool(r.pool); err != nil {
		return repository.PageResult[model.Competition]{}, err
	}
	limit, offset := sanitizeLimitOffset(p.Limit, p.Offset)
	var status *string
	if f.Status != "" && f.Status != model.FilterAll {
		status = &f.Status
	}
	rows, err := getQ(ctx, r.pool).Query(ctx,
		`SELECT `+competitionColumns+`, COUNT(*) OVER() AS total
		 FROM competitions
		 WHERE ($1::TEXT IS NULL OR status = $1)
		 ORDER BY start_date DESC, id
		 LIMIT $2 OFFSET $3`,
		status, limit, offset,
	)
	if err != nil {
		return repository.PageResult[model.Competition]{}, repository.MapPgError(err)
	}
	defer rows.Close()

	res := repository.PageResult[model.Competition]{Items: make([]model.Competition, 0, limit)}
	for rows.Next() {
		var total int
		c, err := scanCompetition(rows, &total)
		if err != nil {
			return repository.PageResult[model.Competition]{}, repository.MapPgError(err)
		}
		res.Items = append(res.Items, c)
		res.Total = total
	}
	if err := rows.Err(); err != nil {
		return repository.PageResult[model.Competition]{}, repository.MapPgError(err)
	}
	return res, nil
}

func (r *competitionRepository) Update(ctx context.Context, c model.Competition) (model.Competition, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.Competition{}, err
	}
	row := getQ(ctx, r.pool).QueryRow(ctx,
		`UPDATE competitions SET
			slug = $2, title = $3, type = $4, location = $5, start_date = $6, end_date = $7,
			registration_deadline = $8, status = $9, entry_fee = $10::numeric, currency = $11,
			description = $12, updated_at = now()
		 WHERE id = $1
		 RETURNING `+competitionColumns,
		c.ID, c.Slug, c.Title, c.Type, c.Location, c.StartDate, c.EndDate,
		nullTime(c.RegistrationDeadline), c.Status, c.EntryFee.String(), c.Currency, c.Description,
	)
	out, err := scanCompetition(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.Competition{}, repository.ErrNotFound
		}
		return model.Competition{}, repository.MapPgError(err)
	}
	return out, nil
}

func (r *competitionRepository) Delete(ctx context.Context, id int64) error {
	if err := ensurePool(r.pool); err != nil {
		return err
	}
	tag, err := getQ(ctx, r.pool).Exec(ctx, `DELETE FROM competitions WHERE id = $1`, id)
	if err != nil {
		return repository.MapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

var _ repository.CompetitionRepository = (*competitionRepository)(nil)
