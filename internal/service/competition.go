package service

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gosimple/slug"
	"github.com/rs/zerolog"

	"github.com/fusaf/fusaf-service/internal/model"
	"github.com/fusaf/fusaf-service/internal/repository"
)

const maxSlugAttempts = 20

type competitionService struct {
	competitions repository.CompetitionRepository
	log          zerolog.Logger
}

func NewCompetitionService(competitions repository.CompetitionRepository, logger zerolog.Logger) CompetitionService {
	l := logger.With().Str("module", "service").Str("component", "competition").Logger()
	return &competitionService{competitions: competitions, log: l}
}

func validateCompetition(c *model.Competition) []FieldError {
	c.Title = strings.TrimSpace(c.Title)
	c.Location = strings.TrimSpace(c.Location)
	if c.Status == "" {
		c.Status = model.CompetitionDraft
	}
	if c.Currency == "" {
		c.Currency = "UAH"
	}

	var ferrs []FieldError
	if c.Title == "" {
		ferrs = append(ferrs, FieldError{Field: "title", Message: "must not be empty"})
	} else if len([]rune(c.Title)) > 200 {
		ferrs = append(ferrs, FieldError{Field: "title", Message: "length must be <= 200"})
	}
	if !isValidCompetitionType(c.Type) {
		ferrs = append(ferrs, FieldError{Field: "type", Message: "must be one of championship, cup, open, festival"})
	}
	if !isValidCompetitionStatus(c.Status) {
		ferrs = append(ferrs, FieldError{Field: "status", Message: "must be one of draft, open, closed, finished"})
	}
	if c.StartDate.IsZero() {
		ferrs = append(ferrs, FieldError{Field: "start_date", Message: "is required"})
	}
	if c.EndDate.IsZero() {
		c.EndDate = c.StartDate
	} else if c.EndDate.Before(c.StartDate) {
		ferrs = append(ferrs, FieldError{Field: "end_date", Message: "must not be before start_date"})
	}
	if !c.RegistrationDeadline.IsZero() && !c.StartDate.IsZero() && c.RegistrationDeadline.After(c.StartDate) {
		ferrs = append(ferrs, FieldError{Field: "registration_deadline", Message: "must not be after start_date"})
	}
	if c.EntryFee.IsNegative() {
		ferrs = append(ferrs, FieldError{Field: "entry_fee", Message: "must be >= 0"})
	}
	if len(c.Currency) != 3 {
		ferrs = append(ferrs, FieldError{Field: "currency", Message: "must be an ISO 4217 code"})
	}
	return ferrs
}

func (s *competitionService) Create(ctx context.Context, c model.Competition) (model.Competition, error) {
	start := time.Now()
	if err := newInvalidInput(validateCompetition(&c)); err != nil {
		return model.Competition{}, err
	}

	base := slug.Make(c.Title)
	if base == "" {
		base = "competition"
	}
	for attempt := 1; attempt <= maxSlugAttempts; attempt++ {
		c.Slug = base
		if attempt > 1 {
			c.Slug = base + "-" + strconv.Itoa(attempt)
		}
		out, err := s.competitions.Create(ctx, c)
		if errors.Is(err, repository.ErrAlreadyExists) {
			continue
		}
		if err != nil {
			s.log.Error().Err(err).Str("slug", c.Slug).Msg("create competition failed")
			return model.Competition{}, err
		}
		s.log.Info().Dur("took", time.Since(start)).Int64("competition_id", out.ID).Str("slug", out.Slug).Msg("competition created")
		return out, nil
	}
	return model.Competition{}, repository.ErrAlreadyExists
}

func (s *competitionService) Get(ctx context.Context, id int64) (model.Competition, error) {
	if id <= 0 {
		return model.Competition{}, newInvalidInput([]FieldError{{Field: "id", Message: "must be > 0"}})
	}
	return s.competitions.GetByID(ctx, id)
}

func (s *competitionService) GetBySlug(ctx context.Context, sl string) (model.Competition, error) {
	if !slug.IsSlug(sl) {
		return model.Competition{}, newInvalidInput([]FieldError{{Field: "slug", Message: "must be a valid slug"}})
	}
	return s.competitions.GetBySlug(ctx, sl)
}

func (s *competitionService) List(ctx context.Context, f model.CompetitionFilter, page repository.Page) (repository.PageResult[model.Competition], error) {
	if f.Status == model.FilterAll {
		f.Status = ""
	}
	if f.Status != "" && !isValidCompetitionStatus(f.Status) {
		return repository.PageResult[model.Competition]{}, newInvalidInput([]FieldError{{Field: "status", Message: "must be one of draft, open, closed, finished"}})
	}
	p := normalizePage(page)
	res, err := s.competitions.List(ctx, f, p)
	if err != nil {
		s.log.Error().Err(err).Int("limit", p.Limit).Int("offset", p.Offset).Msg("list competitions failed")
		return repository.PageResult[model.Competition]{}, err
	}
	return res, nil
}

// Update replaces the editable fields; the slug stays stable.
func (s *competitionService) Update(ctx context.Context, c model.Competition) (model.Competition, error) {
	ferrs := validateCompetition(&c)
	if c.ID <= 0 {
		ferrs = append(ferrs, FieldError{Field: "id", Message: "must be > 0"})
	}
	if err := newInvalidInput(ferrs); err != nil {
		return model.Competition{}, err
	}
	current, err := s.competitions.GetByID(ctx, c.ID)
	if err != nil {
		return model.Competition{}, err
	}
	c.Slug = current.Slug
	out, err := s.competitions.Update(ctx, c)
	if err != nil {
		s.log.Error().Err(err).Int64("competition_id", c.ID).Msg("update competition failed")
		return model.Competition{}, err
	}
	s.log.Info().Int64("competition_id", out.ID).Str("status", out.Status).Msg("competition updated")
	return out, nil
}

func (s *competitionService) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return newInvalidInput([]FieldError{{Field: "id", Message: "must be > 0"}})
	}
	if err := s.competitions.Delete(ctx, id); err != nil {
		return err
	}
	s.log.Info().Int64("competition_id", id).Msg("competition deleted")
	return nil
}
