package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fusaf/fusaf-service/internal/model"
	"github.com/fusaf/fusaf-service/internal/repository"
)

type registrationRepository struct{ pool *pgxpool.Pool }

func NewRegistrationRepository(pool *pgxpool.Pool) repository.RegistrationRepository {
	return &registrationRepository{pool: pool}
}

const preliminaryColumns = `id, competition_id, club_name, contact_name, contact_email, contact_phone,
	city, entries, total_participants, created_at`

func scanPreliminary(row pgx.Row, extra ...any) (model.PreliminaryRegistration, error) {
	var p model.PreliminaryRegistration
	dest := []any{
		&p.ID, &p.CompetitionID, &p.ClubName, &p.ContactName, &p.ContactEmail, &p.ContactPhone,
		&p.City, &p.Entries, &p.TotalParticipants, &p.CreatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return model.PreliminaryRegistration{}, err
	}
	if p.Entries == nil {
		p.Entries = []model.PreliminaryEntry{}
	}
	return p, nil
}

// CreatePreliminary stores entries as JSONB; pgx encodes the slice with encoding/json.
func (r *registrationRepository) CreatePreliminary(ctx context.Context, p model.PreliminaryRegistration) (model.PreliminaryRegistration, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.PreliminaryRegistration{}, err
	}
	row := getQ(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO preliminary_registrations (competition_id, club_name, contact_name, contact_email,
			contact_phone, city, entries, total_participants)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING `+preliminaryColumns,
		p.CompetitionID, p.ClubName, p.ContactName, p.ContactEmail, p.ContactPhone, p.City,
		p.Entries, p.TotalParticipants,
	)
	out, err := scanPreliminary(row)
	if err != nil {
		return model.PreliminaryRegistration{}, repository.MapPgError(err)
	}
	return out, nil
}

func (r *registrationRepository) ListPreliminary(ctx context.Context, competitionID int64, p repository.Page) (repository.PageResult[model.PreliminaryRegistration], error) {
	if err := ensurePool(r.pool); err != nil {
		return repository.PageResult[model.PreliminaryRegistration]{}, err
	}
	limit, offset := sanitizeLimitOffset(p.Limit, p.Offset)
	rows, err := getQ(ctx, r.pool).Query(ctx,
		`SELECT `+preliminaryColumns+`, COUNT(*) OVER() AS total
		 FROM preliminary_registrations
		 WHERE competition_id = $1
		 ORDER BY id
		 LIMIT $2 OFFSET $3`,
		competitionID, limit, offset,
	)
	if err != nil {
		return repository.PageResult[model.PreliminaryRegistration]{}, repository.MapPgError(err)
	}
	defer rows.Close()

	res := repository.PageResult[model.PreliminaryRegistration]{Items: make([]model.PreliminaryRegistration, 0, limit)}
	for rows.Next() {
		var total int
		it, err := scanPreliminary(rows, &total)
		if err != nil {
			return repository.PageResult[model.PreliminaryRegistration]{}, repository.MapPgError(err)
		}
		res.Items = append(res.Items, it)
		res.Total = total
	}
	return res, repository.MapPgError(rows.Err())
}

const individualColumns = `id, competition_id, athlete_id, athlete_name, program, age_category,
	status, order_id, created_at, updated_at`

func scanIndividual(row pgx.Row, extra ...any) (model.IndividualRegistration, error) {
	var r model.IndividualRegistration
	dest := []any{
		&r.ID, &r.CompetitionID, &r.AthleteID, &r.AthleteName, &r.Program, &r.AgeCategory,
		&r.Status, &r.OrderID, &r.CreatedAt, &r.UpdatedAt,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return model.IndividualRegistration{}, err
	}
	return r, nil
}

func (r *registrationRepository) CreateIndividual(ctx context.Context, reg model.IndividualRegistration) (model.IndividualRegistration, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.IndividualRegistration{}, err
	}
	row := getQ(ctx, r.pool).QueryRow(ctx,
		`INSERT INTO individual_registrations (competition_id, athlete_id, athlete_name, program,
			age_category, status, order_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 RETURNING `+individualColumns,
		reg.CompetitionID, reg.AthleteID, reg.AthleteName, reg.Program, reg.AgeCategory, reg.Status, reg.OrderID,
	)
	out, err := scanIndividual(row)
	if err != nil {
		return model.IndividualRegistration{}, repository.MapPgError(err)
	}
	return out, nil
}

func (r *registrationRepository) GetIndividual(ctx context.Context, id int64) (model.IndividualRegistration, error) {
	if err := ensurePool(r.pool); err != nil {
		return model.IndividualRegistration{}, err
	}
	out, err := scanIndividual(getQ(ctx, r.pool).QueryRow(ctx,
		`SELECT `+individualColumns+` FROM individual_registrations WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.IndividualRegistration{}, repository.ErrNotFound
		}
		return model.IndividualRegistration{}, repository.MapPgError(err)
	}
	return out, nil
}

func (r *registrationRepository) ListIndividual(ctx context.Context, competitionID int64, p repository.Page) (repository.PageResult[model.IndividualRegistration], error) {
	if err := ensurePool(r.pool); err != nil {
		return repository.PageResult[model.IndividualRegistration]{}, err
	}
	limit, offset := sanitizeLimitOffset(p.Limit, p.Offset)
	rows, err := getQ(ctx, r.pool).Query(ctx,
		`SELECT `+individualColumns+`, COUNT(*) OVER() AS total
		 FROM individual_registrations
		 WHERE competition_id = $1
		 ORDER BY id
		 LIMIT $2 OFFSET $3`,
		competitionID, limit, offset,
	)
	if err != nil {
		return repository.PageResult[model.IndividualRegistration]{}, repository.MapPgError(err)
	}
	defer rows.Close()

	res := repository.PageResult[model.IndividualRegistration]{Items: make([]model.IndividualRegistration, 0, limit)}
	for rows.Next() {
		var total int
		it, err := scanIndividual(rows, &total)
		if err != nil {
			return repository.PageResult[model.IndividualRegistration]{}, repository.MapPgError(err)
		}
		res.Items = append(res.Items, it)
		res.Total = total
	}
	return res, repository.MapPgError(rows.Err())
}

func (r *registrationRepository) UpdateIndividualStatus(ctx context.Context, orderID, status string) error {
	if err := ensurePool(r.pool); err != nil {
		return err
	}
	tag, err := getQ(ctx, r.pool).Exec(ctx,
		`UPDATE individual_registrations SET status = $2, updated_at = now() WHERE order_id = $1`,
		orderID, status,
	)
	if err != nil {
		return repository.MapPgError(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

var _ repository.RegistrationRepository = (*registrationRepository)(nil)
