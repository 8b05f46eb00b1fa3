package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	"github.com/fusaf/fusaf-service/internal/email"
	"github.com/fusaf/fusaf-service/internal/model"
	"github.com/fusaf/fusaf-service/internal/payment"
	"github.com/fusaf/fusaf-service/internal/repository"
)

// PaymentDeps groups the collaborators of the payment service.
type PaymentDeps struct {
	Payments      repository.PaymentRepository
	Registrations repository.RegistrationRepository
	Tx            repository.TxManager
	Gateway       PaymentGateway
	Athletes      AthleteStore
	// Mailer sends payment confirmations; nil disables them.
	Mailer email.Sender
	// TTL is how long a payment may stay pending before it expires.
	TTL time.Duration
	Now func() time.Time
}

type paymentService struct {
	PaymentDeps
	log zerolog.Logger
}

func NewPaymentService(deps PaymentDeps, logger zerolog.Logger) PaymentService {
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.TTL <= 0 {
		deps.TTL = 10 * time.Minute
	}
	l := logger.With().Str("module", "service").Str("component", "payment").Logger()
	return &paymentService{PaymentDeps: deps, log: l}
}

func registrationStatusFor(paymentStatus string) string {
	switch paymentStatus {
	case model.PaymentPaid:
		return model.RegistrationPaid
	case model.PaymentFailed:
		return model.RegistrationPaymentFailed
	case model.PaymentExpired:
		return model.RegistrationExpired
	default:
		return model.RegistrationPendingPayment
	}
}

// apply moves a pending payment to status and mirrors it on the registration.
// A payment that is already final is returned unchanged.
func (s *paymentService) apply(ctx context.Context, p model.Payment, status string, cb payment.Callback) (model.Payment, error) {
	if p.Final() || status == model.PaymentPending {
		return p, nil
	}
	p.Status = status
	p.ProviderStatus = cb.Status
	if cb.PaymentID != 0 {
		p.ProviderPaymentID = strconv.FormatInt(cb.PaymentID, 10)
	}

	var out model.Payment
	err := s.Tx.WithinTx(ctx, func(ctx context.Context) error {
		updated, err := s.Payments.UpdateStatus(ctx, p)
		if err != nil {
			return err
		}
		out = updated
		return s.Registrations.UpdateIndividualStatus(ctx, p.OrderID, registrationStatusFor(status))
	})
	if errors.Is(err, repository.ErrConflict) {
		// lost the race against another callback or reconciliation
		return s.Payments.GetByOrderID(ctx, p.OrderID)
	}
	if err != nil {
		s.log.Error().Err(err).Str("order_id", p.OrderID).Str("status", status).Msg("apply payment status failed")
		return model.Payment{}, err
	}
	s.log.Info().Str("order_id", out.OrderID).Str("status", out.Status).Str("provider_status", cb.Status).Msg("payment status changed")
	if out.Status == model.PaymentPaid {
		s.confirm(ctx, out)
	}
	return out, nil
}

func (s *paymentService) HandleCallback(ctx context.Context, data, signature string) (model.Payment, error) {
	if data == "" || signature == "" {
		return model.Payment{}, newInvalidInput([]FieldError{{Field: "data", Message: "data and signature are required"}})
	}
	cb, err := s.Gateway.VerifyCallback(data, signature)
	if err != nil {
		s.log.Warn().Err(err).Msg("payment callback rejected")
		if errors.Is(err, payment.ErrNotConfigured) {
			return model.Payment{}, fmt.Errorf("%w: payment gateway is not configured", ErrUnavailable)
		}
		return model.Payment{}, newInvalidInput([]FieldError{{Field: "signature", Message: "invalid signature"}})
	}
	p, err := s.Payments.GetByOrderID(ctx, cb.OrderID)
	if err != nil {
		return model.Payment{}, err
	}
	return s.apply(ctx, p, payment.MapStatus(cb.Status), cb)
}

// Refresh asks the gateway once for a pending payment's state.
func (s *paymentService) Refresh(ctx context.Context, orderID string) (model.Payment, error) {
	p, err := s.Payments.GetByOrderID(ctx, orderID)
	if err != nil {
		return model.Payment{}, err
	}
	if p.Final() || !s.Gateway.Configured() {
		return p, nil
	}
	cb, err := s.Gateway.Status(ctx, orderID)
	if errors.Is(err, payment.ErrOrderNotFound) {
		return p, nil
	}
	if err != nil {
		s.log.Warn().Err(err).Str("order_id", orderID).Msg("payment status refresh failed")
		return p, nil
	}
	return s.apply(ctx, p, payment.MapStatus(cb.Status), cb)
}

// Reconcile refreshes every pending payment and expires the ones that stayed
// pending longer than TTL.
func (s *paymentService) Reconcile(ctx context.Context) (ReconcileReport, error) {
	now := s.Now()
	pending, err := s.Payments.ListPending(ctx, now)
	if err != nil {
		return ReconcileReport{}, err
	}
	var rep ReconcileReport
	for _, p := range pending {
		if ctx.Err() != nil {
			return rep, ctx.Err()
		}
		rep.Checked++
		status := model.PaymentPending
		var cb payment.Callback
		if s.Gateway.Configured() {
			cb, err = s.Gateway.Status(ctx, p.OrderID)
			switch {
			case errors.Is(err, payment.ErrOrderNotFound):
				// not paid yet; only the TTL below may finalize it
			case err != nil:
				rep.Errors++
				s.log.Warn().Err(err).Str("order_id", p.OrderID).Msg("reconcile status check failed")
			default:
				status = payment.MapStatus(cb.Status)
			}
		}
		if status == model.PaymentPending && now.Sub(p.CreatedAt) >= s.TTL {
			status = model.PaymentExpired
		}
		out, err := s.apply(ctx, p, status, cb)
		if err != nil {
			rep.Errors++
			continue
		}
		if out.Status != status {
			continue
		}
		switch status {
		case model.PaymentPaid:
			rep.Paid++
		case model.PaymentFailed:
			rep.Failed++
		case model.PaymentExpired:
			rep.Expired++
		}
	}
	if rep.Checked > 0 {
		s.log.Info().Interface("report", rep).Msg("payments reconciled")
	}
	return rep, nil
}

// confirm emails the athlete; delivery problems are only logged.
func (s *paymentService) confirm(ctx context.Context, p model.Payment) {
	if s.Mailer == nil || s.Athletes == nil {
		return
	}
	reg, err := s.Registrations.GetIndividual(ctx, p.RegistrationID)
	if err != nil {
		s.log.Warn().Err(err).Str("order_id", p.OrderID).Msg("confirmation skipped: registration lookup failed")
		return
	}
	a, ok := s.Athletes.FindByID(reg.AthleteID)
	if !ok || a.Email == "" {
		return
	}
	body := fmt.Sprintf("Вітаємо, %s!\n\nОплату реєстрації отримано.\n\n- програма: %s\n- вікова категорія: %s\n- сума: %s %s\n- замовлення: `%s`\n",
		a.FirstName, reg.Program, reg.AgeCategory, p.Amount.StringFixed(2), p.Currency, p.OrderID)
	if _, err := s.Mailer.Send(ctx, email.Message{To: []string{a.Email}, Subject: "ФУСАФ: реєстрацію оплачено", Markdown: body}); err != nil {
		s.log.Warn().Err(err).Str("order_id", p.OrderID).Msg("payment confirmation not delivered")
	}
}
