package service

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/fusaf/fusaf-service/internal/model"
	"github.com/fusaf/fusaf-service/internal/repository"
)

type athleteService struct {
	store AthleteStore
	log   zerolog.Logger
}

func NewAthleteService(store AthleteStore, logger zerolog.Logger) AthleteService {
	l := logger.With().Str("module", "service").Str("component", "athlete").Logger()
	return &athleteService{store: store, log: l}
}

func (s *athleteService) List(_ context.Context, f model.AthleteFilter) ([]model.Athlete, error) {
	return s.store.Filter(f), nil
}

func (s *athleteService) Get(_ context.Context, id string) (model.Athlete, error) {
	a, ok := s.store.FindByID(id)
	if !ok {
		return model.Athlete{}, repository.ErrNotFound
	}
	return a, nil
}

func (s *athleteService) GetByEmail(_ context.Context, email string) (model.Athlete, error) {
	email = strings.TrimSpace(email)
	if !isEmail(email) {
		return model.Athlete{}, newInvalidInput([]FieldError{{Field: "email", Message: "must be a valid email"}})
	}
	a, ok := s.store.FindByEmail(email)
	if !ok {
		return model.Athlete{}, repository.ErrNotFound
	}
	return a, nil
}

func (s *athleteService) Create(_ context.Context, a model.Athlete) (model.Athlete, error) {
	start := time.Now()
	a.FirstName = strings.TrimSpace(a.FirstName)
	a.LastName = strings.TrimSpace(a.LastName)
	a.Email = strings.TrimSpace(a.Email)

	var ferrs []FieldError
	ferrs = checkName(ferrs, "first_name", a.FirstName)
	ferrs = checkName(ferrs, "last_name", a.LastName)
	if a.Email != "" && !isEmail(a.Email) {
		ferrs = append(ferrs, FieldError{Field: "email", Message: "must be a valid email"})
	}
	if a.Status != "" && !isValidAthleteStatus(a.Status) {
		ferrs = append(ferrs, FieldError{Field: "status", Message: "must be one of active, inactive, suspended, retired"})
	}
	if a.Visibility != "" && !isValidVisibility(a.Visibility) {
		ferrs = append(ferrs, FieldError{Field: "visibility", Message: "must be one of public, members, private"})
	}
	for _, r := range a.Results {
		ferrs = validateResult(ferrs, r)
	}
	if err := newInvalidInput(ferrs); err != nil {
		s.log.Debug().Interface("field_errors", ferrs).Msg("athlete validation failed")
		return model.Athlete{}, err
	}

	out, ok := s.store.Add(a)
	if !ok {
		s.log.Info().Str("athlete_id", a.ID).Str("email", a.Email).Msg("athlete already exists")
		return model.Athlete{}, repository.ErrAlreadyExists
	}
	s.log.Info().Dur("took", time.Since(start)).Str("athlete_id", out.ID).Msg("athlete created")
	return out, nil
}

func (s *athleteService) Update(_ context.Context, id string, p model.AthletePatch) (model.Athlete, error) {
	var ferrs []FieldError
	if p.FirstName != nil {
		ferrs = checkName(ferrs, "first_name", *p.FirstName)
	}
	if p.LastName != nil {
		ferrs = checkName(ferrs, "last_name", *p.LastName)
	}
	if p.Email != nil && *p.Email != "" && !isEmail(*p.Email) {
		ferrs = append(ferrs, FieldError{Field: "email", Message: "must be a valid email"})
	}
	if p.Status != nil && !isValidAthleteStatus(*p.Status) {
		ferrs = append(ferrs, FieldError{Field: "status", Message: "must be one of active, inactive, suspended, retired"})
	}
	if p.Visibility != nil && !isValidVisibility(*p.Visibility) {
		ferrs = append(ferrs, FieldError{Field: "visibility", Message: "must be one of public, members, private"})
	}
	if err := newInvalidInput(ferrs); err != nil {
		return model.Athlete{}, err
	}

	// The store merges blindly; an email taken by someone else is a conflict.
	if p.Email != nil && *p.Email != "" {
		if other, ok := s.store.FindByEmail(*p.Email); ok && other.ID != id {
			return model.Athlete{}, repository.ErrAlreadyExists
		}
	}
	out, ok := s.store.Update(id, p)
	if !ok {
		return model.Athlete{}, repository.ErrNotFound
	}
	s.log.Info().Str("athlete_id", id).Msg("athlete updated")
	return out, nil
}

func (s *athleteService) Delete(_ context.Context, id string) error {
	if !s.store.Remove(id) {
		return repository.ErrNotFound
	}
	s.log.Info().Str("athlete_id", id).Msg("athlete removed")
	return nil
}

func (s *athleteService) AddMedia(_ context.Context, athleteID string, m model.MediaItem) (model.MediaItem, error) {
	var ferrs []FieldError
	if !oneOf(m.Type, model.MediaPhoto, model.MediaVideo) {
		ferrs = append(ferrs, FieldError{Field: "type", Message: "must be photo or video"})
	}
	if !isURL(m.URL) {
		ferrs = append(ferrs, FieldError{Field: "url", Message: "must be an absolute URL"})
	}
	if err := newInvalidInput(ferrs); err != nil {
		return model.MediaItem{}, err
	}
	out, ok := s.store.AddMedia(athleteID, m)
	if !ok {
		return model.MediaItem{}, repository.ErrNotFound
	}
	return out, nil
}

func validateResult(ferrs []FieldError, r model.CompetitionResult) []FieldError {
	if strings.TrimSpace(r.CompetitionName) == "" {
		ferrs = append(ferrs, FieldError{Field: "competition_name", Message: "must not be empty"})
	}
	ferrs = checkRank(ferrs, r.Rank)
	ferrs = checkScore(ferrs, "total_score", r.TotalScore)
	ferrs = checkScore(ferrs, "technique", r.Technique)
	ferrs = checkScore(ferrs, "artistry", r.Artistry)
	ferrs = checkScore(ferrs, "execution", r.Execution)
	ferrs = checkScore(ferrs, "difficulty", r.Difficulty)
	return ferrs
}

func (s *athleteService) AddResult(_ context.Context, athleteID string, r model.CompetitionResult) (model.CompetitionResult, error) {
	if err := newInvalidInput(validateResult(nil, r)); err != nil {
		return model.CompetitionResult{}, err
	}
	out, ok := s.store.AddResult(athleteID, r)
	if !ok {
		return model.CompetitionResult{}, repository.ErrNotFound
	}
	s.log.Info().Str("athlete_id", athleteID).Str("result_id", out.ID).Bool("personal_best", out.IsPersonalBest).Msg("result added")
	return out, nil
}

func (s *athleteService) UpdateResult(_ context.Context, athleteID, resultID string, p model.ResultPatch) (model.CompetitionResult, error) {
	var ferrs []FieldError
	if p.CompetitionName != nil && strings.TrimSpace(*p.CompetitionName) == "" {
		ferrs = append(ferrs, FieldError{Field: "competition_name", Message: "must not be empty"})
	}
	ferrs = checkRank(ferrs, p.Rank)
	ferrs = checkScore(ferrs, "total_score", p.TotalScore)
	ferrs = checkScore(ferrs, "technique", p.Technique)
	ferrs = checkScore(ferrs, "artistry", p.Artistry)
	ferrs = checkScore(ferrs, "execution", p.Execution)
	ferrs = checkScore(ferrs, "difficulty", p.Difficulty)
	if err := newInvalidInput(ferrs); err != nil {
		return model.CompetitionResult{}, err
	}
	out, ok := s.store.UpdateResult(athleteID, resultID, p)
	if !ok {
		return model.CompetitionResult{}, repository.ErrNotFound
	}
	return out, nil
}

func (s *athleteService) DeleteResult(_ context.Context, athleteID, resultID string) error {
	if !s.store.DeleteResult(athleteID, resultID) {
		return repository.ErrNotFound
	}
	return nil
}

func (s *athleteService) Stats(context.Context) (model.StorageStats, error) {
	return s.store.Stats(), nil
}
