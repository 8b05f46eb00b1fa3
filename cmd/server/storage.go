package main

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"

	"github.com/fusaf/fusaf-service/internal/config"
	"github.com/fusaf/fusaf-service/internal/repository"
	"github.com/fusaf/fusaf-service/internal/repository/memory"
	"github.com/fusaf/fusaf-service/internal/repository/postgres"
	"github.com/fusaf/fusaf-service/migrations"
)

// storage is the repository set for the configured driver.
type storage struct {
	competitions  repository.CompetitionRepository
	registrations repository.RegistrationRepository
	payments      repository.PaymentRepository
	notifications repository.NotificationRepository
	tx            repository.TxManager
	dumper        repository.TableDumper
	pinger        repository.Pinger
	close         func()
}

func openStorage(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (*storage, error) {
	if cfg.Storage.Driver == config.DriverMemory {
		db := memory.New()
		logger.Warn().Msg("using in-memory storage; data is lost on restart")
		return &storage{
			competitions:  db.Competitions(),
			registrations: db.Registrations(),
			payments:      db.Payments(),
			notifications: db.Notifications(),
			tx:            db,
			dumper:        db,
			pinger:        db,
			close:         func() {},
		}, nil
	}

	repo, err := repository.New(ctx, cfg, &logger)
	if err != nil {
		return nil, err
	}
	pool := repo.Pool()
	if cfg.Postgres.Migrate {
		sqlDB := stdlib.OpenDBFromPool(pool)
		err := migrations.Up(ctx, sqlDB)
		_ = sqlDB.Close()
		if err != nil {
			repo.Close()
			return nil, fmt.Errorf("migrate: %w", err)
		}
		logger.Info().Msg("migrations applied")
	}
	return &storage{
		competitions:  postgres.NewCompetitionRepository(pool),
		registrations: postgres.NewRegistrationRepository(pool),
		payments:      postgres.NewPaymentRepository(pool),
		notifications: postgres.NewNotificationRepository(pool),
		tx:            postgres.NewTxManager(pool),
		dumper:        postgres.NewTableDumper(pool),
		pinger:        postgres.NewPinger(pool),
		close:         repo.Close,
	}, nil
}
