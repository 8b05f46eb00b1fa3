package export

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/fusaf/fusaf-service/internal/config"
)

var ErrSheetsDisabled = errors.New("google sheets export is not configured")

// SheetsWriter appends tables to one spreadsheet.
type SheetsWriter struct {
	values        *sheets.SpreadsheetsValuesService
	spreadsheetID string
	rng           string
	log           zerolog.Logger
}

// NewSheetsWriter authenticates with the service account key in
// cfg.CredentialsFile.
func NewSheetsWriter(ctx context.Context, cfg config.Sheets, logger zerolog.Logger) (*SheetsWriter, error) {
	if !cfg.Enabled() {
		return nil, ErrSheetsDisabled
	}
	key, err := os.ReadFile(cfg.CredentialsFile)
	if err != nil {
		return nil, fmt.Errorf("read sheets credentials: %w", err)
	}
	jwtCfg, err := google.JWTConfigFromJSON(key, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse sheets credentials: %w", err)
	}
	return newSheetsWriter(ctx, cfg, logger, option.WithHTTPClient(jwtCfg.Client(ctx)))
}

func newSheetsWriter(ctx context.Context, cfg config.Sheets, logger zerolog.Logger, opts ...option.ClientOption) (*SheetsWriter, error) {
	svc, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("sheets client: %w", err)
	}
	return &SheetsWriter{
		values:        svc.Spreadsheets.Values,
		spreadsheetID: cfg.SpreadsheetID,
		rng:           cfg.Range,
		log:           logger.With().Str("module", "export").Str("component", "sheets").Logger(),
	}, nil
}

func sheetValues(t Table) [][]any {
	out := make([][]any, 0, len(t.Rows)+1)
	for _, row := range append([][]string{t.Headers}, t.Rows...) {
		cells := make([]any, len(row))
		for i, v := range row {
			cells[i] = v
		}
		out = append(out, cells)
	}
	return out
}

// Append adds the header and rows of t below the existing data and returns
// the number of rows written.
func (s *SheetsWriter) Append(ctx context.Context, t Table) (int, error) {
	resp, err := s.values.Append(s.spreadsheetID, s.rng, &sheets.ValueRange{Values: sheetValues(t)}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return 0, fmt.Errorf("sheets append: %w", err)
	}
	if resp.Updates == nil {
		return 0, errors.New("sheets append: response carries no updates")
	}
	s.log.Info().Str("table", t.Name).Str("range", resp.Updates.UpdatedRange).Int64("rows", resp.Updates.UpdatedRows).Msg("sheet appended")
	return int(resp.Updates.UpdatedRows), nil
}
