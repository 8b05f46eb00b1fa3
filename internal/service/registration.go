package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fusaf/fusaf-service/internal/model"
	"github.com/fusaf/fusaf-service/internal/payment"
	"github.com/fusaf/fusaf-service/internal/repository"
)

// ErrRegistrationClosed is returned when a competition is not open or its
// deadline passed.
var ErrRegistrationClosed = fmt.Errorf("%w: registration is closed", repository.ErrConflict)

// RegistrationDeps groups the collaborators of the registration service.
type RegistrationDeps struct {
	Competitions  repository.CompetitionRepository
	Registrations repository.RegistrationRepository
	Payments      repository.PaymentRepository
	Tx            repository.TxManager
	Athletes      AthleteStore
	Gateway       PaymentGateway
	Now           func() time.Time
}

type registrationService struct {
	RegistrationDeps
	log zerolog.Logger
}

func NewRegistrationService(deps RegistrationDeps, logger zerolog.Logger) RegistrationService {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	l := logger.With().Str("module", "service").Str("component", "registration").Logger()
	return &registrationService{RegistrationDeps: deps, log: l}
}

// openCompetition loads the competition and checks it accepts registrations.
// A missing competition is reported as a field error.
func (s *registrationService) openCompetition(ctx context.Context, id int64) (model.Competition, error) {
	c, err := s.Competitions.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return model.Competition{}, newInvalidInput([]FieldError{{Field: "competition_id", Message: "competition does not exist"}})
	}
	if err != nil {
		return model.Competition{}, err
	}
	if !c.AcceptsRegistrations(s.Now()) {
		return model.Competition{}, ErrRegistrationClosed
	}
	return c, nil
}

func (s *registrationService) SubmitPreliminary(ctx context.Context, r model.PreliminaryRegistration) (model.PreliminaryRegistration, error) {
	start := time.Now()
	r.ClubName = strings.TrimSpace(r.ClubName)
	r.ContactName = strings.TrimSpace(r.ContactName)
	r.ContactEmail = strings.TrimSpace(r.ContactEmail)

	var ferrs []FieldError
	if r.CompetitionID <= 0 {
		ferrs = append(ferrs, FieldError{Field: "competition_id", Message: "must be > 0"})
	}
	if r.ClubName == "" {
		ferrs = append(ferrs, FieldError{Field: "club_name", Message: "must not be empty"})
	}
	ferrs = checkName(ferrs, "contact_name", r.ContactName)
	if !isEmail(r.ContactEmail) {
		ferrs = append(ferrs, FieldError{Field: "contact_email", Message: "must be a valid email"})
	}
	if len(r.Entries) == 0 {
		ferrs = append(ferrs, FieldError{Field: "entries", Message: "must contain at least one entry"})
	}
	total := 0
	for i, e := range r.Entries {
		field := fmt.Sprintf("entries[%d]", i)
		if strings.TrimSpace(e.AgeCategory) == "" || strings.TrimSpace(e.Program) == "" {
			ferrs = append(ferrs, FieldError{Field: field, Message: "age_category and program are required"})
		}
		if e.Count < 1 {
			ferrs = append(ferrs, FieldError{Field: field + ".count", Message: "must be >= 1"})
		}
		total += e.Count
	}
	if err := newInvalidInput(ferrs); err != nil {
		s.log.Debug().Interface("field_errors", ferrs).Msg("preliminary registration validation failed")
		return model.PreliminaryRegistration{}, err
	}
	if _, err := s.openCompetition(ctx, r.CompetitionID); err != nil {
		return model.PreliminaryRegistration{}, err
	}

	r.TotalParticipants = total
	out, err := s.Registrations.CreatePreliminary(ctx, r)
	if err != nil {
		s.log.Error().Err(err).Int64("competition_id", r.CompetitionID).Msg("create preliminary registration failed")
		return model.PreliminaryRegistration{}, err
	}
	s.log.Info().Dur("took", time.Since(start)).Int64("registration_id", out.ID).Int("participants", total).Msg("preliminary registration stored")
	return out, nil
}

func (s *registrationService) ListPreliminary(ctx context.Context, competitionID int64, page repository.Page) (repository.PageResult[model.PreliminaryRegistration], error) {
	if competitionID <= 0 {
		return repository.PageResult[model.PreliminaryRegistration]{}, newInvalidInput([]FieldError{{Field: "competition_id", Message: "must be > 0"}})
	}
	return s.Registrations.ListPreliminary(ctx, competitionID, normalizePage(page))
}

func (s *registrationService) RegisterIndividual(ctx context.Context, in IndividualInput) (IndividualCheckout, error) {
	start := time.Now()
	in.Program = strings.TrimSpace(in.Program)
	in.AgeCategory = strings.TrimSpace(in.AgeCategory)

	var ferrs []FieldError
	if in.CompetitionID <= 0 {
		ferrs = append(ferrs, FieldError{Field: "competition_id", Message: "must be > 0"})
	}
	if in.Program == "" {
		ferrs = append(ferrs, FieldError{Field: "program", Message: "must not be empty"})
	}
	if in.AgeCategory == "" {
		ferrs = append(ferrs, FieldError{Field: "age_category", Message: "must not be empty"})
	}
	athlete, found := s.Athletes.FindByID(in.AthleteID)
	switch {
	case !found:
		ferrs = append(ferrs, FieldError{Field: "athlete_id", Message: "athlete does not exist"})
	case athlete.Status != model.AthleteStatusActive:
		ferrs = append(ferrs, FieldError{Field: "athlete_id", Message: "athlete is not active"})
	}
	if err := newInvalidInput(ferrs); err != nil {
		return IndividualCheckout{}, err
	}

	comp, err := s.openCompetition(ctx, in.CompetitionID)
	if err != nil {
		return IndividualCheckout{}, err
	}
	paid := comp.EntryFee.IsPositive()
	if paid && !s.Gateway.Configured() {
		return IndividualCheckout{}, fmt.Errorf("%w: payment gateway is not configured", ErrUnavailable)
	}

	reg := model.IndividualRegistration{
		CompetitionID: comp.ID,
		AthleteID:     athlete.ID,
		AthleteName:   strings.TrimSpace(athlete.LastName + " " + athlete.FirstName),
		Program:       in.Program,
		AgeCategory:   in.AgeCategory,
		Status:        model.RegistrationPaid,
		OrderID:       "fusaf-" + uuid.NewString(),
	}
	var out IndividualCheckout
	err = s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		if paid {
			reg.Status = model.RegistrationPendingPayment
		}
		created, err := s.Registrations.CreateIndividual(ctx, reg)
		if err != nil {
			return err
		}
		out.Registration = created
		if !paid {
			return nil
		}
		p, err := s.Payments.Create(ctx, model.Payment{
			OrderID:        created.OrderID,
			RegistrationID: created.ID,
			Amount:         comp.EntryFee,
			Currency:       comp.Currency,
			Status:         model.PaymentPending,
			Provider:       "liqpay",
		})
		if err != nil {
			return err
		}
		out.Payment = &p
		return nil
	})
	if err != nil {
		s.log.Error().Err(err).Int64("competition_id", comp.ID).Str("athlete_id", athlete.ID).Msg("individual registration failed")
		return IndividualCheckout{}, err
	}

	if paid {
		form, err := s.Gateway.Checkout(payment.CheckoutRequest{
			OrderID:     reg.OrderID,
			Amount:      comp.EntryFee,
			Currency:    comp.Currency,
			Description: fmt.Sprintf("%s: %s, %s (%s)", comp.Title, reg.AthleteName, reg.Program, reg.AgeCategory),
		})
		if err != nil {
			return IndividualCheckout{}, err
		}
		out.Checkout = &form
	}
	s.log.Info().Dur("took", time.Since(start)).Int64("registration_id", out.Registration.ID).Str("order_id", reg.OrderID).Bool("free", !paid).Msg("individual registration created")
	return out, nil
}

func (s *registrationService) GetIndividual(ctx context.Context, id int64) (model.IndividualRegistration, error) {
	if id <= 0 {
		return model.IndividualRegistration{}, newInvalidInput([]FieldError{{Field: "id", Message: "must be > 0"}})
	}
	return s.Registrations.GetIndividual(ctx, id)
}

func (s *registrationService) ListIndividual(ctx context.Context, competitionID int64, page repository.Page) (repository.PageResult[model.IndividualRegistration], error) {
	if competitionID <= 0 {
		return repository.PageResult[model.IndividualRegistration]{}, newInvalidInput([]FieldError{{Field: "competition_id", Message: "must be > 0"}})
	}
	return s.Registrations.ListIndividual(ctx, competitionID, normalizePage(page))
}
