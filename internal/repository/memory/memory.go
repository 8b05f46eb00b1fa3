// Package memory provides in-process repository implementations used for the
// demo driver and as the always-on target of the contract suites.
// Data lives for the lifetime of the process only.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/fusaf/fusaf-service/internal/model"
	"github.com/fusaf/fusaf-service/internal/repository"
)

// Store holds every table behind one lock so cross-table checks
// (foreign keys, cascades) stay consistent.
type Store struct {
	mu  sync.RWMutex
	now func() time.Time

	seq           map[string]int64
	competitions  map[int64]model.Competition
	preliminaries map[int64]model.PreliminaryRegistration
	individuals   map[int64]model.IndividualRegistration
	payments      map[int64]model.Payment
	notifications map[int64]model.Notification
}

// New returns an empty in-memory database.
func New() *Store {
	return &Store{
		now:           func() time.Time { return time.Now().UTC() },
		seq:           make(map[string]int64),
		competitions:  make(map[int64]model.Competition),
		preliminaries: make(map[int64]model.PreliminaryRegistration),
		individuals:   make(map[int64]model.IndividualRegistration),
		payments:      make(map[int64]model.Payment),
		notifications: make(map[int64]model.Notification),
	}
}

func (s *Store) nextID(table string) int64 {
	s.seq[table]++
	return s.seq[table]
}

// Competitions returns the competition repository view.
func (s *Store) Competitions() repository.CompetitionRepository { return competitionRepo{s} }

// Registrations returns the registration repository view.
func (s *Store) Registrations() repository.RegistrationRepository { return registrationRepo{s} }

// Payments returns the payment repository view.
func (s *Store) Payments() repository.PaymentRepository { return paymentRepo{s} }

// Notifications returns the notification repository view.
func (s *Store) Notifications() repository.NotificationRepository { return notificationRepo{s} }

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

// WithinTx runs fn directly. The memory driver has no rollback; each
// repository call is atomic on its own.
func (s *Store) WithinTx(ctx context.Context, fn repository.TxFunc) error { return fn(ctx) }

func sortedValues[T any](m map[int64]T) []T {
	ids := make([]int64, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	out := make([]T, 0, len(ids))
	for _, id := range ids {
		out = append(out, m[id])
	}
	return out
}

// competitions

type competitionRepo struct{ s *Store }

func (r competitionRepo) Create(_ context.Context, c model.Competition) (model.Competition, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, existing := range r.s.competitions {
		if existing.Slug == c.Slug {
			return model.Competition{}, repository.ErrAlreadyExists
		}
	}
	now := r.s.now()
	c.ID = r.s.nextID("competitions")
	c.CreatedAt, c.UpdatedAt = now, now
	r.s.competitions[c.ID] = c
	return c, nil
}

func (r competitionRepo) GetByID(_ context.Context, id int64) (model.Competition, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	c, ok := r.s.competitions[id]
	if !ok {
		return model.Competition{}, repository.ErrNotFound
	}
	return c, nil
}

func (r competitionRepo) GetBySlug(_ context.Context, slug string) (model.Competition, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, c := range r.s.competitions {
		if c.Slug == slug {
			return c, nil
		}
	}
	return model.Competition{}, repository.ErrNotFound
}

func (r competitionRepo) List(_ context.Context, f model.CompetitionFilter, p repository.Page) (repository.PageResult[model.Competition], error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	all := make([]model.Competition, 0, len(r.s.competitions))
	for _, c := range sortedValues(r.s.competitions) {
		if f.Status != "" && f.Status != model.FilterAll && c.Status != f.Status {
			continue
		}
		all = append(all, c)
	}
	// newest first, matching the postgres ordering
	sort.SliceStable(all, func(i, j int) bool { return all[i].StartDate.After(all[j].StartDate) })
	return repository.Window(all, p), nil
}

func (r competitionRepo) Update(_ context.Context, c model.Competition) (model.Competition, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	old, ok := r.s.competitions[c.ID]
	if !ok {
		return model.Competition{}, repository.ErrNotFound
	}
	for id, existing := range r.s.competitions {
		if id != c.ID && existing.Slug == c.Slug {
			return model.Competition{}, repository.ErrAlreadyExists
		}
	}
	c.CreatedAt = old.CreatedAt
	c.UpdatedAt = r.s.now()
	r.s.competitions[c.ID] = c
	return c, nil
}

func (r competitionRepo) Delete(_ context.Context, id int64) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.competitions[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.s.competitions, id)
	for pid, p := range r.s.preliminaries {
		if p.CompetitionID == id {
			delete(r.s.preliminaries, pid)
		}
	}
	for rid, reg := range r.s.individuals {
		if reg.CompetitionID != id {
			continue
		}
		delete(r.s.individuals, rid)
		for payID, pay := range r.s.payments {
			if pay.RegistrationID == rid {
				delete(r.s.payments, payID)
			}
		}
	}
	return nil
}

// registrations

type registrationRepo struct{ s *Store }

func (r registrationRepo) CreatePreliminary(_ context.Context, p model.PreliminaryRegistration) (model.PreliminaryRegistration, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.competitions[p.CompetitionID]; !ok {
		return model.PreliminaryRegistration{}, repository.ErrConflict
	}
	p.ID = r.s.nextID("preliminary_registrations")
	p.CreatedAt = r.s.now()
	p.Entries = slices.Clone(p.Entries)
	if p.Entries == nil {
		p.Entries = []model.PreliminaryEntry{}
	}
	r.s.preliminaries[p.ID] = p
	return p, nil
}

func (r registrationRepo) ListPreliminary(_ context.Context, competitionID int64, p repository.Page) (repository.PageResult[model.PreliminaryRegistration], error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	all := make([]model.PreliminaryRegistration, 0)
	for _, it := range sortedValues(r.s.preliminaries) {
		if it.CompetitionID == competitionID {
			it.Entries = slices.Clone(it.Entries)
			all = append(all, it)
		}
	}
	return repository.Window(all, p), nil
}

func (r registrationRepo) CreateIndividual(_ context.Context, reg model.IndividualRegistration) (model.IndividualRegistration, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.competitions[reg.CompetitionID]; !ok {
		return model.IndividualRegistration{}, repository.ErrConflict
	}
	for _, existing := range r.s.individuals {
		if existing.OrderID == reg.OrderID ||
			(existing.CompetitionID == reg.CompetitionID && existing.AthleteID == reg.AthleteID && existing.Program == reg.Program) {
			return model.IndividualRegistration{}, repository.ErrAlreadyExists
		}
	}
	now := r.s.now()
	reg.ID = r.s.nextID("individual_registrations")
	reg.CreatedAt, reg.UpdatedAt = now, now
	r.s.individuals[reg.ID] = reg
	return reg, nil
}

func (r registrationRepo) GetIndividual(_ context.Context, id int64) (model.IndividualRegistration, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	reg, ok := r.s.individuals[id]
	if !ok {
		return model.IndividualRegistration{}, repository.ErrNotFound
	}
	return reg, nil
}

func (r registrationRepo) ListIndividual(_ context.Context, competitionID int64, p repository.Page) (repository.PageResult[model.IndividualRegistration], error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	all := make([]model.IndividualRegistration, 0)
	for _, it := range sortedValues(r.s.individuals) {
		if it.CompetitionID == competitionID {
			all = append(all, it)
		}
	}
	return repository.Window(all, p), nil
}

func (r registrationRepo) UpdateIndividualStatus(_ context.Context, orderID, status string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, reg := range r.s.individuals {
		if reg.OrderID == orderID {
			reg.Status = status
			reg.UpdatedAt = r.s.now()
			r.s.individuals[id] = reg
			return nil
		}
	}
	return repository.ErrNotFound
}

// payments

type paymentRepo struct{ s *Store }

func (r paymentRepo) Create(_ context.Context, p model.Payment) (model.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.individuals[p.RegistrationID]; !ok {
		return model.Payment{}, repository.ErrConflict
	}
	for _, existing := range r.s.payments {
		if existing.OrderID == p.OrderID {
			return model.Payment{}, repository.ErrAlreadyExists
		}
	}
	now := r.s.now()
	p.ID = r.s.nextID("payments")
	p.CreatedAt, p.UpdatedAt = now, now
	r.s.payments[p.ID] = p
	return p, nil
}

func (r paymentRepo) GetByOrderID(_ context.Context, orderID string) (model.Payment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	for _, p := range r.s.payments {
		if p.OrderID == orderID {
			return p, nil
		}
	}
	return model.Payment{}, repository.ErrNotFound
}

func (r paymentRepo) ListPending(_ context.Context, createdBefore time.Time) ([]model.Payment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	out := make([]model.Payment, 0)
	for _, p := range sortedValues(r.s.payments) {
		if p.Status == model.PaymentPending && !p.CreatedAt.After(createdBefore) {
			out = append(out, p)
		}
	}
	return out, nil
}

func (r paymentRepo) UpdateStatus(_ context.Context, p model.Payment) (model.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for id, existing := range r.s.payments {
		if existing.OrderID != p.OrderID {
			continue
		}
		if existing.Status != model.PaymentPending {
			return model.Payment{}, repository.ErrConflict
		}
		existing.Status = p.Status
		existing.ProviderStatus = p.ProviderStatus
		existing.ProviderPaymentID = p.ProviderPaymentID
		existing.UpdatedAt = r.s.now()
		r.s.payments[id] = existing
		return existing, nil
	}
	return model.Payment{}, repository.ErrNotFound
}

// notifications

type notificationRepo struct{ s *Store }

func (r notificationRepo) Create(_ context.Context, n model.Notification) (model.Notification, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	n.ID = r.s.nextID("notifications")
	n.CreatedAt = r.s.now()
	n.Recipients = slices.Clone(n.Recipients)
	if n.Recipients == nil {
		n.Recipients = []string{}
	}
	r.s.notifications[n.ID] = n
	return n, nil
}

func (r notificationRepo) List(_ context.Context, p repository.Page) (repository.PageResult[model.Notification], error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	all := sortedValues(r.s.notifications)
	slices.Reverse(all)
	return repository.Window(all, p), nil
}

// backups

var tables = []string{
	"competitions",
	"preliminary_registrations",
	"individual_registrations",
	"payments",
	"notifications",
}

// Tables lists the dumpable tables in the same order as the postgres driver.
func (s *Store) Tables() []string { return slices.Clone(tables) }

// DumpTable renders rows through encoding/json so both drivers produce the
// same row shape.
func (s *Store) DumpTable(_ context.Context, table string) ([]map[string]any, error) {
	s.mu.RLock()
	var rows any
	switch table {
	case "competitions":
		rows = sortedValues(s.competitions)
	case "preliminary_registrations":
		rows = sortedValues(s.preliminaries)
	case "individual_registrations":
		rows = sortedValues(s.individuals)
	case "payments":
		rows = sortedValues(s.payments)
	case "notifications":
		rows = sortedValues(s.notifications)
	default:
		s.mu.RUnlock()
		return nil, fmt.Errorf("table %q is not part of backups", table)
	}
	raw, err := json.Marshal(rows)
	s.mu.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", table, err)
	}
	out := make([]map[string]any, 0)
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode %s: %w", table, err)
	}
	return out, nil
}

var (
	_ repository.CompetitionRepository  = competitionRepo{}
	_ repository.RegistrationRepository = registrationRepo{}
	_ repository.PaymentRepository      = paymentRepo{}
	_ repository.NotificationRepository = notificationRepo{}
	_ repository.TableDumper            = (*Store)(nil)
	_ repository.TxManager              = (*Store)(nil)
	_ repository.Pinger                 = (*Store)(nil)
)
