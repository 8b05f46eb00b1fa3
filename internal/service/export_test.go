package service_test

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fusaf/fusaf-service/internal/athlete"
	"github.com/fusaf/fusaf-service/internal/export"
	"github.com/fusaf/fusaf-service/internal/model"
	"github.com/fusaf/fusaf-service/internal/repository/contract"
	"github.com/fusaf/fusaf-service/internal/repository/memory"
	"github.com/fusaf/fusaf-service/internal/service"
)

type fakeSheets struct {
	got export.Table
	err error
}

func (f *fakeSheets) Append(_ context.Context, t export.Table) (int, error) {
	f.got = t
	return len(t.Rows), f.err
}

func TestExportService(t *testing.T) {
	logger := zerolog.New(io.Discard)
	ctx := context.Background()
	db := memory.New()
	athletes := athlete.NewStore(logger)
	athlete.Seed(athletes)

	comp, err := db.Competitions().Create(ctx, contract.NewCompetition("cup"))
	require.NoError(t, err)
	_, err = db.Registrations().CreatePreliminary(ctx, validPreliminary(comp.ID))
	require.NoError(t, err)

	t.Run("athletes", func(t *testing.T) {
		svc := service.NewExportService(athletes, db.Registrations(), nil, logger)
		tbl, err := svc.Athletes(ctx, model.AthleteFilter{Status: model.AthleteStatusActive})
		require.NoError(t, err)
		assert.Len(t, tbl.Rows, 2)
	})

	t.Run("preliminary", func(t *testing.T) {
		svc := service.NewExportService(athletes, db.Registrations(), nil, logger)
		tbl, err := svc.Preliminary(ctx, comp.ID)
		require.NoError(t, err)
		assert.Len(t, tbl.Rows, 2, "one row per entry")

		_, err = svc.Preliminary(ctx, 0)
		assert.ErrorIs(t, err, service.ErrInvalidInput)
	})

	t.Run("push without sheets", func(t *testing.T) {
		svc := service.NewExportService(athletes, db.Registrations(), nil, logger)
		_, err := svc.PushAthletes(ctx, model.AthleteFilter{})
		assert.ErrorIs(t, err, service.ErrUnavailable)
	})

	t.Run("push", func(t *testing.T) {
		sheets := &fakeSheets{}
		svc := service.NewExportService(athletes, db.Registrations(), sheets, logger)
		n, err := svc.PushAthletes(ctx, model.AthleteFilter{})
		require.NoError(t, err)
		assert.Equal(t, 3, n)
		assert.Equal(t, "athletes", sheets.got.Name)

		sheets.err = errors.New("quota")
		_, err = svc.PushAthletes(ctx, model.AthleteFilter{})
		assert.Error(t, err)
	})
}
