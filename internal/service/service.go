// Package service holds business logic orchestration across stores, repositories and handlers.
// Kept intentionally lean: only use-case coordination, validation and domain error shaping.
package service

import (
	"context"
	"errors"

	"github.com/fusaf/fusaf-service/internal/backup"
	"github.com/fusaf/fusaf-service/internal/model"
	"github.com/fusaf/fusaf-service/internal/payment"
	"github.com/fusaf/fusaf-service/internal/repository"
)

// ErrInvalidInput is the marker error for aggregated validation failures (maps to HTTP 400).
// Field-level details are retrieved via FieldErrors(err).
var ErrInvalidInput = errors.New("invalid input")

// ErrUnavailable marks a feature whose backing integration is not configured (HTTP 503).
var ErrUnavailable = errors.New("unavailable")

// FieldError describes a single invalid field in a client request.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// invalidInputError aggregates multiple FieldError instances and unwraps to ErrInvalidInput.
type invalidInputError struct {
	fields []FieldError
}

func (e *invalidInputError) Error() string        { return ErrInvalidInput.Error() }
func (e *invalidInputError) Unwrap() error        { return ErrInvalidInput }
func (e *invalidInputError) Fields() []FieldError { return e.fields }

// newInvalidInput builds an aggregated validation error if any field errors are present.
func newInvalidInput(fe []FieldError) error {
	if len(fe) == 0 {
		return nil
	}
	return &invalidInputError{fields: fe}
}

// NewFieldError reports a single invalid field, for input rejected before it
// reaches a service (malformed JSON, bad path parameters).
func NewFieldError(field, message string) error {
	return newInvalidInput([]FieldError{{Field: field, Message: message}})
}

// FieldErrors extracts field errors from an aggregated validation error.
func FieldErrors(err error) []FieldError {
	if err == nil {
		return nil
	}
	var v interface{ Fields() []FieldError }
	if errors.As(err, &v) && errors.Is(err, ErrInvalidInput) {
		return v.Fields()
	}
	return nil
}

// AthleteStore is the in-process athlete storage the athlete service drives.
// Boolean results report whether the target existed (or, for Add, whether
// the athlete was new).
type AthleteStore interface {
	GetAll() []model.Athlete
	FindByID(id string) (model.Athlete, bool)
	FindByEmail(email string) (model.Athlete, bool)
	Add(a model.Athlete) (model.Athlete, bool)
	Update(id string, patch model.AthletePatch) (model.Athlete, bool)
	Remove(id string) bool
	AddMedia(id string, m model.MediaItem) (model.MediaItem, bool)
	AddResult(id string, r model.CompetitionResult) (model.CompetitionResult, bool)
	UpdateResult(athleteID, resultID string, patch model.ResultPatch) (model.CompetitionResult, bool)
	DeleteResult(athleteID, resultID string) bool
	Filter(f model.AthleteFilter) []model.Athlete
	Stats() model.StorageStats
}

// AthleteService defines athlete profile and result use cases.
type AthleteService interface {
	List(ctx context.Context, f model.AthleteFilter) ([]model.Athlete, error)
	Get(ctx context.Context, id string) (model.Athlete, error)
	GetByEmail(ctx context.Context, email string) (model.Athlete, error)
	Create(ctx context.Context, a model.Athlete) (model.Athlete, error)
	Update(ctx context.Context, id string, patch model.AthletePatch) (model.Athlete, error)
	Delete(ctx context.Context, id string) error
	AddMedia(ctx context.Context, athleteID string, m model.MediaItem) (model.MediaItem, error)
	AddResult(ctx context.Context, athleteID string, r model.CompetitionResult) (model.CompetitionResult, error)
	UpdateResult(ctx context.Context, athleteID, resultID string, patch model.ResultPatch) (model.CompetitionResult, error)
	DeleteResult(ctx context.Context, athleteID, resultID string) error
	Stats(ctx context.Context) (model.StorageStats, error)
}

// CompetitionService defines competition calendar use cases.
type CompetitionService interface {
	Create(ctx context.Context, c model.Competition) (model.Competition, error)
	Get(ctx context.Context, id int64) (model.Competition, error)
	GetBySlug(ctx context.Context, slug string) (model.Competition, error)
	List(ctx context.Context, f model.CompetitionFilter, page repository.Page) (repository.PageResult[model.Competition], error)
	Update(ctx context.Context, c model.Competition) (model.Competition, error)
	Delete(ctx context.Context, id int64) error
}

// IndividualInput is what an athlete (or their coach) submits.
type IndividualInput struct {
	CompetitionID int64  `json:"competition_id"`
	AthleteID     string `json:"athlete_id"`
	Program       string `json:"program"`
	AgeCategory   string `json:"age_category"`
}

// IndividualCheckout is a created registration with the form to pay for it.
// Payment and Checkout are nil for free competitions.
type IndividualCheckout struct {
	Registration model.IndividualRegistration `json:"registration"`
	Payment      *model.Payment               `json:"payment,omitempty"`
	Checkout     *payment.CheckoutForm        `json:"checkout,omitempty"`
}

// PaymentGateway is implemented by *payment.Client.
type PaymentGateway interface {
	Configured() bool
	Checkout(req payment.CheckoutRequest) (payment.CheckoutForm, error)
	VerifyCallback(data, signature string) (payment.Callback, error)
	Status(ctx context.Context, orderID string) (payment.Callback, error)
}

// RegistrationService defines the preliminary and individual registration flows.
type RegistrationService interface {
	SubmitPreliminary(ctx context.Context, r model.PreliminaryRegistration) (model.PreliminaryRegistration, error)
	ListPreliminary(ctx context.Context, competitionID int64, page repository.Page) (repository.PageResult[model.PreliminaryRegistration], error)
	RegisterIndividual(ctx context.Context, in IndividualInput) (IndividualCheckout, error)
	GetIndividual(ctx context.Context, id int64) (model.IndividualRegistration, error)
	ListIndividual(ctx context.Context, competitionID int64, page repository.Page) (repository.PageResult[model.IndividualRegistration], error)
}

// ReconcileReport summarizes one reconciliation pass.
type ReconcileReport struct {
	Checked int `json:"checked"`
	Paid    int `json:"paid"`
	Failed  int `json:"failed"`
	Expired int `json:"expired"`
	Errors  int `json:"errors"`
}

// PaymentService applies gateway outcomes to payments and registrations.
type PaymentService interface {
	HandleCallback(ctx context.Context, data, signature string) (model.Payment, error)
	Refresh(ctx context.Context, orderID string) (model.Payment, error)
	Reconcile(ctx context.Context) (ReconcileReport, error)
}

// Notification audiences.
const (
	AudienceAthletes = "athletes"
	AudienceAdmin    = "admin"
	AudienceCustom   = "custom"
)

// NotificationInput is an admin broadcast request.
type NotificationInput struct {
	Subject    string   `json:"subject"`
	Body       string   `json:"body"`
	Audience   string   `json:"audience"`
	Recipients []string `json:"recipients"`
}

// NotificationService renders and delivers broadcasts and keeps their log.
type NotificationService interface {
	Send(ctx context.Context, in NotificationInput) (model.Notification, error)
	List(ctx context.Context, page repository.Page) (repository.PageResult[model.Notification], error)
}

// BackupRunner is implemented by *backup.Service.
type BackupRunner interface {
	Run(ctx context.Context) (backup.Manifest, error)
	Last() (backup.Manifest, bool)
	Restore(ctx context.Context, id string) (backup.RestoreReport, error)
}
