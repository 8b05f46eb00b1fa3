package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/fusaf/fusaf-service/internal/export"
	"github.com/fusaf/fusaf-service/internal/model"
	"github.com/fusaf/fusaf-service/internal/repository"
)

// SheetsAppender is implemented by *export.SheetsWriter.
type SheetsAppender interface {
	Append(ctx context.Context, t export.Table) (int, error)
}

// ExportService builds tabular exports and pushes them to spreadsheets.
type ExportService interface {
	Athletes(ctx context.Context, f model.AthleteFilter) (export.Table, error)
	Preliminary(ctx context.Context, competitionID int64) (export.Table, error)
	PushAthletes(ctx context.Context, f model.AthleteFilter) (int, error)
}

type exportService struct {
	athletes      AthleteStore
	registrations repository.RegistrationRepository
	sheets        SheetsAppender
	log           zerolog.Logger
}

// NewExportService accepts a nil sheets appender when the spreadsheet export
// is not configured.
func NewExportService(athletes AthleteStore, registrations repository.RegistrationRepository, sheets SheetsAppender, logger zerolog.Logger) ExportService {
	l := logger.With().Str("module", "service").Str("component", "export").Logger()
	return &exportService{athletes: athletes, registrations: registrations, sheets: sheets, log: l}
}

func (s *exportService) Athletes(_ context.Context, f model.AthleteFilter) (export.Table, error) {
	return export.AthletesTable(s.athletes.Filter(f)), nil
}

func (s *exportService) Preliminary(ctx context.Context, competitionID int64) (export.Table, error) {
	if competitionID <= 0 {
		return export.Table{}, newInvalidInput([]FieldError{{Field: "competition_id", Message: "must be > 0"}})
	}
	const batch = 200
	var all []model.PreliminaryRegistration
	for offset := 0; ; offset += batch {
		page, err := s.registrations.ListPreliminary(ctx, competitionID, repository.Page{Limit: batch, Offset: offset})
		if err != nil {
			return export.Table{}, err
		}
		all = append(all, page.Items...)
		if len(page.Items) < batch || len(all) >= page.Total {
			break
		}
	}
	return export.PreliminaryTable(all), nil
}

func (s *exportService) PushAthletes(ctx context.Context, f model.AthleteFilter) (int, error) {
	if s.sheets == nil {
		return 0, fmt.Errorf("%w: google sheets export is not configured", ErrUnavailable)
	}
	t, _ := s.Athletes(ctx, f)
	n, err := s.sheets.Append(ctx, t)
	if err != nil {
		s.log.Error().Err(err).Msg("sheets export failed")
		return 0, err
	}
	return n, nil
}
