package service_test

import (
	"context"
	"errors"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fusaf/fusaf-service/internal/athlete"
	"github.com/fusaf/fusaf-service/internal/email"
	"github.com/fusaf/fusaf-service/internal/model"
	"github.com/fusaf/fusaf-service/internal/payment"
	"github.com/fusaf/fusaf-service/internal/repository"
	"github.com/fusaf/fusaf-service/internal/repository/contract"
	"github.com/fusaf/fusaf-service/internal/repository/memory"
	"github.com/fusaf/fusaf-service/internal/service"
)

type fakeGateway struct {
	mu         sync.Mutex
	configured bool
	statuses   map[string]string
	statusErr  error
	forged     bool
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{configured: true, statuses: map[string]string{}}
}

func (g *fakeGateway) Configured() bool { return g.configured }

func (g *fakeGateway) Checkout(req payment.CheckoutRequest) (payment.CheckoutForm, error) {
	return payment.CheckoutForm{Action: "https://pay.example", Data: "data-" + req.OrderID, Signature: "sig"}, nil
}

// VerifyCallback treats data as "orderID|status".
func (g *fakeGateway) VerifyCallback(data, _ string) (payment.Callback, error) {
	if g.forged {
		return payment.Callback{}, payment.ErrInvalidSignature
	}
	for i := len(data) - 1; i >= 0; i-- {
		if data[i] == '|' {
			return payment.Callback{OrderID: data[:i], Status: data[i+1:], PaymentID: 42}, nil
		}
	}
	return payment.Callback{}, errors.New("bad data")
}

func (g *fakeGateway) Status(_ context.Context, orderID string) (payment.Callback, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.statusErr != nil {
		return payment.Callback{}, g.statusErr
	}
	status, ok := g.statuses[orderID]
	if !ok {
		return payment.Callback{OrderID: orderID}, payment.ErrOrderNotFound
	}
	return payment.Callback{OrderID: orderID, Status: status}, nil
}

func (g *fakeGateway) set(orderID, status string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.statuses[orderID] = status
}

type recordingSender struct {
	mu   sync.Mutex
	msgs []email.Message
	fail map[string]bool
}

func (r *recordingSender) Name() string { return "recording" }

func (r *recordingSender) Send(_ context.Context, m email.Message) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail[m.To[0]] {
		return "", errors.New("mailbox unavailable")
	}
	r.msgs = append(r.msgs, m)
	return "msg", nil
}

type fixture struct {
	db       *memory.Store
	athletes *athlete.Store
	gateway  *fakeGateway
	mailer   *recordingSender
	now      time.Time
	// shift moves the payment clock relative to real time; the memory
	// store stamps payments with time.Now.
	shift    time.Duration
	regs     service.RegistrationService
	payments service.PaymentService
	comp     model.Competition
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	logger := zerolog.New(io.Discard)
	f := &fixture{
		db:       memory.New(),
		athletes: athlete.NewStore(logger),
		gateway:  newFakeGateway(),
		mailer:   &recordingSender{},
		now:      time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
	athlete.Seed(f.athletes)

	comp, err := f.db.Competitions().Create(context.Background(), contract.NewCompetition("kubok-kyieva"))
	require.NoError(t, err)
	f.comp = comp

	clock := func() time.Time { return f.now }
	f.regs = service.NewRegistrationService(service.RegistrationDeps{
		Competitions:  f.db.Competitions(),
		Registrations: f.db.Registrations(),
		Payments:      f.db.Payments(),
		Tx:            f.db,
		Athletes:      f.athletes,
		Gateway:       f.gateway,
		Now:           clock,
	}, logger)
	f.payments = service.NewPaymentService(service.PaymentDeps{
		Payments:      f.db.Payments(),
		Registrations: f.db.Registrations(),
		Tx:            f.db,
		Gateway:       f.gateway,
		Athletes:      f.athletes,
		Mailer:        f.mailer,
		TTL:           10 * time.Minute,
		Now:           func() time.Time { return time.Now().Add(f.shift) },
	}, logger)
	return f
}

func (f *fixture) register(t *testing.T) service.IndividualCheckout {
	t.Helper()
	out, err := f.regs.RegisterIndividual(context.Background(), service.IndividualInput{
		CompetitionID: f.comp.ID, AthleteID: "demo-kovalenko", Program: "individual", AgeCategory: "seniors",
	})
	require.NoError(t, err)
	return out
}

func validPreliminary(compID int64) model.PreliminaryRegistration {
	return model.PreliminaryRegistration{
		CompetitionID: compID, ClubName: "Грація", ContactName: "Ірина Бондар", ContactEmail: "club@gracia.ua",
		Entries: []model.PreliminaryEntry{{AgeCategory: "9-11", Program: "individual", Count: 4}, {AgeCategory: "12-14", Program: "trio", Count: 3}},
	}
}

func TestSubmitPreliminary(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	out, err := f.regs.SubmitPreliminary(ctx, validPreliminary(f.comp.ID))
	require.NoError(t, err)
	assert.Equal(t, 7, out.TotalParticipants)

	page, err := f.regs.ListPreliminary(ctx, f.comp.ID, repository.Page{})
	require.NoError(t, err)
	assert.Equal(t, 1, page.Total)
}

func TestSubmitPreliminary_Validation(t *testing.T) {
	f := newFixture(t)
	bad := validPreliminary(f.comp.ID)
	bad.ContactEmail = "x"
	bad.Entries = append(bad.Entries, model.PreliminaryEntry{AgeCategory: "15-17", Program: "", Count: 0})

	_, err := f.regs.SubmitPreliminary(context.Background(), bad)
	require.ErrorIs(t, err, service.ErrInvalidInput)
	assert.True(t, hasField(err, "contact_email"))
	assert.True(t, hasField(err, "entries[2]"))
	assert.True(t, hasField(err, "entries[2].count"))

	missing := validPreliminary(9999)
	_, err = f.regs.SubmitPreliminary(context.Background(), missing)
	assert.True(t, hasField(err, "competition_id"))
}

func TestSubmitPreliminary_ClosedCompetition(t *testing.T) {
	f := newFixture(t)
	f.now = f.comp.RegistrationDeadline.Add(time.Minute)
	_, err := f.regs.SubmitPreliminary(context.Background(), validPreliminary(f.comp.ID))
	assert.ErrorIs(t, err, service.ErrRegistrationClosed)
	assert.ErrorIs(t, err, repository.ErrConflict)

	f.now = f.comp.RegistrationDeadline.Add(-time.Hour)
	draft := contract.NewCompetition("draft-cup")
	draft.Status = model.CompetitionDraft
	d, err := f.db.Competitions().Create(context.Background(), draft)
	require.NoError(t, err)
	_, err = f.regs.SubmitPreliminary(context.Background(), validPreliminary(d.ID))
	assert.ErrorIs(t, err, service.ErrRegistrationClosed)
}

func TestRegisterIndividual_CreatesPendingPaymentAndCheckout(t *testing.T) {
	f := newFixture(t)
	out := f.register(t)

	assert.Equal(t, model.RegistrationPendingPayment, out.Registration.Status)
	require.NotNil(t, out.Payment)
	assert.Equal(t, model.PaymentPending, out.Payment.Status)
	assert.True(t, out.Payment.Amount.Equal(decimal.RequireFromString("450.50")))
	require.NotNil(t, out.Checkout)
	assert.Equal(t, "data-"+out.Registration.OrderID, out.Checkout.Data)

	_, err := f.regs.RegisterIndividual(context.Background(), service.IndividualInput{
		CompetitionID: f.comp.ID, AthleteID: "demo-kovalenko", Program: "individual", AgeCategory: "seniors",
	})
	assert.ErrorIs(t, err, repository.ErrAlreadyExists)
}

func TestRegisterIndividual_Validation(t *testing.T) {
	f := newFixture(t)
	_, err := f.regs.RegisterIndividual(context.Background(), service.IndividualInput{CompetitionID: f.comp.ID, AthleteID: "nobody"})
	require.ErrorIs(t, err, service.ErrInvalidInput)
	assert.True(t, hasField(err, "athlete_id"))
	assert.True(t, hasField(err, "program"))
	assert.True(t, hasField(err, "age_category"))

	_, err = f.regs.RegisterIndividual(context.Background(), service.IndividualInput{
		CompetitionID: f.comp.ID, AthleteID: "demo-bondar", Program: "individual", AgeCategory: "seniors",
	})
	assert.True(t, hasField(err, "athlete_id"), "inactive athlete")
}

func TestRegisterIndividual_GatewayNotConfigured(t *testing.T) {
	f := newFixture(t)
	f.gateway.configured = false
	_, err := f.regs.RegisterIndividual(context.Background(), service.IndividualInput{
		CompetitionID: f.comp.ID, AthleteID: "demo-kovalenko", Program: "individual", AgeCategory: "seniors",
	})
	assert.ErrorIs(t, err, service.ErrUnavailable)
}

func TestRegisterIndividual_FreeCompetitionIsPaid(t *testing.T) {
	f := newFixture(t)
	free := contract.NewCompetition("festival")
	free.EntryFee = decimal.Zero
	c, err := f.db.Competitions().Create(context.Background(), free)
	require.NoError(t, err)

	out, err := f.regs.RegisterIndividual(context.Background(), service.IndividualInput{
		CompetitionID: c.ID, AthleteID: "demo-shevchuk", Program: "individual", AgeCategory: "juniors",
	})
	require.NoError(t, err)
	assert.Equal(t, model.RegistrationPaid, out.Registration.Status)
	assert.Nil(t, out.Payment)
	assert.Nil(t, out.Checkout)
}
