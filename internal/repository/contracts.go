package repository

import (
	"context"
	"time"

	"github.com/fusaf/fusaf-service/internal/model"
)

// Pinger represents a minimal readiness probe capability.
// I use it to decouple health checks from storage implementation details.
type Pinger interface {
	Ping(ctx context.Context) error
}

// TxFunc is the unit of work executed within a transaction boundary.
// I pass context through so nested calls can honor cancellations and deadlines.
type TxFunc func(ctx context.Context) error

// TxManager abstracts transactional execution for repositories that support it.
type TxManager interface {
	WithinTx(ctx context.Context, fn TxFunc) error
}

// CompetitionRepository declares persistence operations for competitions.
// I return domain models and surface domain errors from errors.go rather than PG codes.
type CompetitionRepository interface {
	Create(ctx context.Context, c model.Competition) (model.Competition, error)
	GetByID(ctx context.Context, id int64) (model.Competition, error)
	GetBySlug(ctx context.Context, slug string) (model.Competition, error)
	List(ctx context.Context, f model.CompetitionFilter, p Page) (PageResult[model.Competition], error)
	Update(ctx context.Context, c model.Competition) (model.Competition, error)
	Delete(ctx context.Context, id int64) error
}

// RegistrationRepository stores both registration flows.
// Preliminary entries are an aggregate headcount, individual ones bind an athlete.
type RegistrationRepository interface {
	CreatePreliminary(ctx context.Context, r model.PreliminaryRegistration) (model.PreliminaryRegistration, error)
	ListPreliminary(ctx context.Context, competitionID int64, p Page) (PageResult[model.PreliminaryRegistration], error)
	CreateIndividual(ctx context.Context, r model.IndividualRegistration) (model.IndividualRegistration, error)
	GetIndividual(ctx context.Context, id int64) (model.IndividualRegistration, error)
	ListIndividual(ctx context.Context, competitionID int64, p Page) (PageResult[model.IndividualRegistration], error)
	// UpdateIndividualStatus sets the status of the registration owning orderID.
	UpdateIndividualStatus(ctx context.Context, orderID, status string) error
}

// PaymentRepository tracks gateway orders.
type PaymentRepository interface {
	Create(ctx context.Context, p model.Payment) (model.Payment, error)
	GetByOrderID(ctx context.Context, orderID string) (model.Payment, error)
	// ListPending returns pending payments created at or before the given time.
	ListPending(ctx context.Context, createdBefore time.Time) ([]model.Payment, error)
	UpdateStatus(ctx context.Context, p model.Payment) (model.Payment, error)
}

// NotificationRepository keeps a log of admin broadcasts.
type NotificationRepository interface {
	Create(ctx context.Context, n model.Notification) (model.Notification, error)
	List(ctx context.Context, p Page) (PageResult[model.Notification], error)
}

// TableDumper exports whole tables as rows of column -> value for backups.
type TableDumper interface {
	Tables() []string
	DumpTable(ctx context.Context, table string) ([]map[string]any, error)
}
