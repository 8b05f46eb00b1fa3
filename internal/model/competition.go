package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Competition statuses.
const (
	CompetitionDraft    = "draft"
	CompetitionOpen     = "open"
	CompetitionClosed   = "closed"
	CompetitionFinished = "finished"
)

// Competition is an event athletes and clubs register for.
type Competition struct {
	ID                   int64           `json:"id"`
	Slug                 string          `json:"slug"`
	Title                string          `json:"title"`
	Type                 string          `json:"type"` // championship, cup, open, festival
	Location             string          `json:"location"`
	StartDate            time.Time       `json:"start_date"`
	EndDate              time.Time       `json:"end_date"`
	RegistrationDeadline time.Time       `json:"registration_deadline"`
	Status               string          `json:"status"`
	EntryFee             decimal.Decimal `json:"entry_fee"`
	Currency             string          `json:"currency"`
	Description          string          `json:"description,omitempty"`
	CreatedAt            time.Time       `json:"created_at"`
	UpdatedAt            time.Time       `json:"updated_at"`
}

// AcceptsRegistrations reports whether registrations may be submitted at now.
func (c Competition) AcceptsRegistrations(now time.Time) bool {
	if c.Status != CompetitionOpen {
		return false
	}
	return c.RegistrationDeadline.IsZero() || !now.After(c.RegistrationDeadline)
}

// CompetitionFilter narrows a competition listing.
type CompetitionFilter struct {
	Status string
}

// Registration statuses.
const (
	RegistrationPendingPayment = "pending_payment"
	RegistrationPaid           = "paid"
	RegistrationPaymentFailed  = "payment_failed"
	RegistrationExpired        = "expired"
)

// PreliminaryEntry is a headcount for one age category and program.
type PreliminaryEntry struct {
	AgeCategory string `json:"age_category"`
	Program     string `json:"program"`
	Count       int    `json:"count"`
}

// PreliminaryRegistration is an aggregate, not-yet-named headcount from a club.
type PreliminaryRegistration struct {
	ID                int64              `json:"id"`
	CompetitionID     int64              `json:"competition_id"`
	ClubName          string             `json:"club_name"`
	ContactName       string             `json:"contact_name"`
	ContactEmail      string             `json:"contact_email"`
	ContactPhone      string             `json:"contact_phone,omitempty"`
	City              string             `json:"city,omitempty"`
	Entries           []PreliminaryEntry `json:"entries"`
	TotalParticipants int                `json:"total_participants"`
	CreatedAt         time.Time          `json:"created_at"`
}

// IndividualRegistration binds one athlete to a competition program.
type IndividualRegistration struct {
	ID            int64     `json:"id"`
	CompetitionID int64     `json:"competition_id"`
	AthleteID     string    `json:"athlete_id"`
	AthleteName   string    `json:"athlete_name"`
	Program       string    `json:"program"`
	AgeCategory   string    `json:"age_category"`
	Status        string    `json:"status"`
	OrderID       string    `json:"order_id"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Payment statuses.
const (
	PaymentPending = "pending"
	PaymentPaid    = "paid"
	PaymentFailed  = "failed"
	PaymentExpired = "expired"
)

// Payment tracks one gateway order for an individual registration.
type Payment struct {
	ID                int64           `json:"id"`
	OrderID           string          `json:"order_id"`
	RegistrationID    int64           `json:"registration_id"`
	Amount            decimal.Decimal `json:"amount"`
	Currency          string          `json:"currency"`
	Status            string          `json:"status"`
	Provider          string          `json:"provider"`
	ProviderStatus    string          `json:"provider_status,omitempty"`
	ProviderPaymentID string          `json:"provider_payment_id,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
}

// Final reports whether the payment reached a terminal status.
func (p Payment) Final() bool {
	return p.Status == PaymentPaid || p.Status == PaymentFailed || p.Status == PaymentExpired
}

// Notification is an admin broadcast delivered by email.
type Notification struct {
	ID         int64     `json:"id"`
	Subject    string    `json:"subject"`
	Body       string    `json:"body"` // markdown
	Audience   string    `json:"audience"`
	Recipients []string  `json:"recipients"`
	Delivered  int       `json:"delivered"`
	Failed     int       `json:"failed"`
	CreatedAt  time.Time `json:"created_at"`
}
