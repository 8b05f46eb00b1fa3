// Package contract holds repository behavior suites shared by every storage
// driver. Each driver's tests supply factories; the suites assert the same
// domain errors and ordering everywhere.
package contract

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/fusaf/fusaf-service/internal/model"
	"github.com/fusaf/fusaf-service/internal/repository"
)

type CompetitionFactory func(t *testing.T) (repository.CompetitionRepository, func())

type RegistrationFactory func(t *testing.T) (repo repository.RegistrationRepository, mkCompetition func(ctx context.Context) (int64, error), cleanup func())

type PaymentFactory func(t *testing.T) (repo repository.PaymentRepository, mkRegistration func(ctx context.Context, orderID string) (int64, error), cleanup func())

type NotificationFactory func(t *testing.T) (repository.NotificationRepository, func())

type DumperFactory func(t *testing.T) (dumper repository.TableDumper, mkCompetition func(ctx context.Context) (int64, error), cleanup func())

type PingerFactory func(t *testing.T) (repository.Pinger, func())

// NewCompetition builds a valid open competition for seeding.
func NewCompetition(slug string) model.Competition {
	start := time.Date(2026, 4, 10, 9, 0, 0, 0, time.UTC)
	return model.Competition{
		Slug:                 slug,
		Title:                "Cup " + slug,
		Type:                 "cup",
		Location:             "Kyiv",
		StartDate:            start,
		EndDate:              start.Add(48 * time.Hour),
		RegistrationDeadline: start.Add(-7 * 24 * time.Hour),
		Status:               model.CompetitionOpen,
		EntryFee:             decimal.RequireFromString("450.50"),
		Currency:             "UAH",
	}
}

func RunCompetitionRepositoryContract(t *testing.T, makeRepo CompetitionFactory) {
	t.Helper()

	t.Run("create_and_get", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		created, err := repo.Create(ctx, NewCompetition("kyiv-cup"))
		if err != nil {
			t.Fatalf("create failed: %v", err)
		}
		if created.ID == 0 || created.CreatedAt.IsZero() {
			t.Fatalf("expected id and timestamps, got %+v", created)
		}
		got, err := repo.GetByID(ctx, created.ID)
		if err != nil {
			t.Fatalf("get failed: %v", err)
		}
		if got.Slug != "kyiv-cup" || !got.EntryFee.Equal(decimal.RequireFromString("450.5")) {
			t.Fatalf("mismatch: %+v", got)
		}
		if got.RegistrationDeadline.IsZero() {
			t.Fatalf("deadline lost")
		}
		bySlug, err := repo.GetBySlug(ctx, "kyiv-cup")
		if err != nil || bySlug.ID != created.ID {
			t.Fatalf("get by slug: %v %+v", err, bySlug)
		}
	})

	t.Run("zero_deadline_roundtrip", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		c := NewCompetition("no-deadline")
		c.RegistrationDeadline = time.Time{}
		created, err := repo.Create(context.Background(), c)
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if !created.RegistrationDeadline.IsZero() {
			t.Fatalf("expected zero deadline, got %v", created.RegistrationDeadline)
		}
	})

	t.Run("get_not_found", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		if _, err := repo.GetByID(context.Background(), 999999); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		if _, err := repo.GetBySlug(context.Background(), "missing"); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("duplicate_slug", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		if _, err := repo.Create(ctx, NewCompetition("dup")); err != nil {
			t.Fatalf("seed: %v", err)
		}
		if _, err := repo.Create(ctx, NewCompetition("dup")); !errors.Is(err, repository.ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
	})

	t.Run("list_filter_and_pagination", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		for i := 0; i < 5; i++ {
			c := NewCompetition(fmt.Sprintf("c-%d", i))
			c.StartDate = c.StartDate.AddDate(0, i, 0)
			c.EndDate = c.StartDate.Add(24 * time.Hour)
			if i%2 == 1 {
				c.Status = model.CompetitionDraft
			}
			if _, err := repo.Create(ctx, c); err != nil {
				t.Fatalf("seed: %v", err)
			}
		}
		res, err := repo.List(ctx, model.CompetitionFilter{}, repository.Page{Limit: 2})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(res.Items) != 2 || res.Total != 5 {
			t.Fatalf("unexpected page: len=%d total=%d", len(res.Items), res.Total)
		}
		if res.Items[0].Slug != "c-4" {
			t.Fatalf("expected newest first, got %s", res.Items[0].Slug)
		}
		open, err := repo.List(ctx, model.CompetitionFilter{Status: model.CompetitionOpen}, repository.Page{Limit: 10})
		if err != nil {
			t.Fatalf("list open: %v", err)
		}
		if len(open.Items) != 3 || open.Total != 3 {
			t.Fatalf("expected 3 open, got len=%d total=%d", len(open.Items), open.Total)
		}
		all, err := repo.List(ctx, model.CompetitionFilter{Status: model.FilterAll}, repository.Page{Limit: 10})
		if err != nil || all.Total != 5 {
			t.Fatalf("status all: %v total=%d", err, all.Total)
		}
	})

	t.Run("update_and_delete", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		created, err := repo.Create(ctx, NewCompetition("upd"))
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
		created.Status = model.CompetitionClosed
		created.EntryFee = decimal.NewFromInt(600)
		updated, err := repo.Update(ctx, created)
		if err != nil {
			t.Fatalf("update: %v", err)
		}
		if updated.Status != model.CompetitionClosed || !updated.EntryFee.Equal(decimal.NewFromInt(600)) {
			t.Fatalf("update not applied: %+v", updated)
		}
		if err := repo.Delete(ctx, created.ID); err != nil {
			t.Fatalf("delete: %v", err)
		}
		if err := repo.Delete(ctx, created.ID); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound on second delete, got %v", err)
		}
		missing := NewCompetition("ghost")
		missing.ID = 424242
		if _, err := repo.Update(ctx, missing); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound on update, got %v", err)
		}
	})
}

func RunRegistrationRepositoryContract(t *testing.T, makeRepo RegistrationFactory) {
	t.Helper()

	t.Run("preliminary_create_and_list", func(t *testing.T) {
		repo, mkCompetition, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		compID, err := mkCompetition(ctx)
		if err != nil {
			t.Fatalf("seed competition: %v", err)
		}
		entries := []model.PreliminaryEntry{
			{AgeCategory: "12-14", Program: "Individual Women", Count: 3},
			{AgeCategory: "Seniors", Program: "Trio", Count: 3},
		}
		created, err := repo.CreatePreliminary(ctx, model.PreliminaryRegistration{
			CompetitionID: compID, ClubName: "Olymp", ContactName: "Iryna",
			ContactEmail: "club@example.com", Entries: entries, TotalParticipants: 6,
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if created.ID == 0 {
			t.Fatalf("expected id")
		}
		res, err := repo.ListPreliminary(ctx, compID, repository.Page{Limit: 10})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if res.Total != 1 || len(res.Items[0].Entries) != 2 || res.Items[0].Entries[1].Program != "Trio" {
			t.Fatalf("unexpected list: %+v", res)
		}
		other, err := repo.ListPreliminary(ctx, compID+1000, repository.Page{Limit: 10})
		if err != nil || other.Total != 0 {
			t.Fatalf("expected empty list for other competition: %v %+v", err, other)
		}
	})

	t.Run("preliminary_unknown_competition", func(t *testing.T) {
		repo, _, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		_, err := repo.CreatePreliminary(context.Background(), model.PreliminaryRegistration{
			CompetitionID: 999999, ClubName: "x", ContactName: "x", ContactEmail: "x@example.com",
		})
		if !errors.Is(err, repository.ErrConflict) {
			t.Fatalf("expected ErrConflict, got %v", err)
		}
	})

	t.Run("individual_lifecycle", func(t *testing.T) {
		repo, mkCompetition, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		compID, err := mkCompetition(ctx)
		if err != nil {
			t.Fatalf("seed competition: %v", err)
		}
		reg := model.IndividualRegistration{
			CompetitionID: compID, AthleteID: "ath-1", AthleteName: "Olena Kovalenko",
			Program: "Individual Women", AgeCategory: "Seniors",
			Status: model.RegistrationPendingPayment, OrderID: "order-1",
		}
		created, err := repo.CreateIndividual(ctx, reg)
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		reg.OrderID = "order-2"
		if _, err := repo.CreateIndividual(ctx, reg); !errors.Is(err, repository.ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists for same athlete+program, got %v", err)
		}
		if err := repo.UpdateIndividualStatus(ctx, "order-1", model.RegistrationPaid); err != nil {
			t.Fatalf("update status: %v", err)
		}
		got, err := repo.GetIndividual(ctx, created.ID)
		if err != nil || got.Status != model.RegistrationPaid {
			t.Fatalf("status not updated: %v %+v", err, got)
		}
		if err := repo.UpdateIndividualStatus(ctx, "missing", model.RegistrationPaid); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
		list, err := repo.ListIndividual(ctx, compID, repository.Page{Limit: 10})
		if err != nil || list.Total != 1 {
			t.Fatalf("list: %v %+v", err, list)
		}
		if _, err := repo.GetIndividual(ctx, 999999); !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func RunPaymentRepositoryContract(t *testing.T, makeRepo PaymentFactory) {
	t.Helper()

	t.Run("create_get_and_final_status", func(t *testing.T) {
		repo, mkRegistration, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		regID, err := mkRegistration(ctx, "ord-1")
		if err != nil {
			t.Fatalf("seed registration: %v", err)
		}
		created, err := repo.Create(ctx, model.Payment{
			OrderID: "ord-1", RegistrationID: regID, Amount: decimal.RequireFromString("450.50"),
			Currency: "UAH", Status: model.PaymentPending, Provider: "liqpay",
		})
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		got, err := repo.GetByOrderID(ctx, "ord-1")
		if err != nil || got.ID != created.ID || !got.Amount.Equal(decimal.RequireFromString("450.5")) {
			t.Fatalf("get: %v %+v", err, got)
		}

		got.Status = model.PaymentPaid
		got.ProviderStatus = "success"
		got.ProviderPaymentID = "123"
		updated, err := repo.UpdateStatus(ctx, got)
		if err != nil || updated.Status != model.PaymentPaid || updated.ProviderPaymentID != "123" {
			t.Fatalf("update: %v %+v", err, updated)
		}
		got.Status = model.PaymentFailed
		if _, err := repo.UpdateStatus(ctx, got); !errors.Is(err, repository.ErrConflict) {
			t.Fatalf("expected ErrConflict leaving a final status, got %v", err)
		}
	})

	t.Run("duplicate_order", func(t *testing.T) {
		repo, mkRegistration, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		regID, err := mkRegistration(ctx, "ord-dup")
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
		p := model.Payment{OrderID: "ord-dup", RegistrationID: regID, Amount: decimal.NewFromInt(1), Currency: "UAH", Status: model.PaymentPending, Provider: "liqpay"}
		if _, err := repo.Create(ctx, p); err != nil {
			t.Fatalf("create: %v", err)
		}
		if _, err := repo.Create(ctx, p); !errors.Is(err, repository.ErrAlreadyExists) {
			t.Fatalf("expected ErrAlreadyExists, got %v", err)
		}
	})

	t.Run("list_pending_cutoff", func(t *testing.T) {
		repo, mkRegistration, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		regID, err := mkRegistration(ctx, "ord-p")
		if err != nil {
			t.Fatalf("seed: %v", err)
		}
		if _, err := repo.Create(ctx, model.Payment{OrderID: "ord-p", RegistrationID: regID, Amount: decimal.NewFromInt(10), Currency: "UAH", Status: model.PaymentPending, Provider: "liqpay"}); err != nil {
			t.Fatalf("create: %v", err)
		}
		later, err := repo.ListPending(ctx, time.Now().Add(time.Hour))
		if err != nil || len(later) != 1 {
			t.Fatalf("expected 1 pending, got %v %d", err, len(later))
		}
		earlier, err := repo.ListPending(ctx, time.Now().Add(-time.Hour))
		if err != nil || len(earlier) != 0 {
			t.Fatalf("expected 0 pending before cutoff, got %v %d", err, len(earlier))
		}
	})

	t.Run("update_missing", func(t *testing.T) {
		repo, _, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		_, err := repo.UpdateStatus(context.Background(), model.Payment{OrderID: "nope", Status: model.PaymentPaid})
		if !errors.Is(err, repository.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func RunNotificationRepositoryContract(t *testing.T, makeRepo NotificationFactory) {
	t.Helper()

	t.Run("create_and_list_newest_first", func(t *testing.T) {
		repo, cleanup := makeRepo(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		for i := 0; i < 3; i++ {
			_, err := repo.Create(ctx, model.Notification{
				Subject: fmt.Sprintf("n-%d", i), Body: "**hi**", Audience: "all",
				Recipients: []string{"a@example.com"}, Delivered: 1,
			})
			if err != nil {
				t.Fatalf("create: %v", err)
			}
		}
		res, err := repo.List(ctx, repository.Page{Limit: 2})
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if res.Total != 3 || len(res.Items) != 2 || res.Items[0].Subject != "n-2" {
			t.Fatalf("unexpected page: %+v", res)
		}
		if len(res.Items[0].Recipients) != 1 {
			t.Fatalf("recipients lost: %+v", res.Items[0])
		}
	})
}

func RunTableDumperContract(t *testing.T, makeDumper DumperFactory) {
	t.Helper()

	t.Run("dump_rows", func(t *testing.T) {
		dumper, mkCompetition, cleanup := makeDumper(t)
		t.Cleanup(cleanup)
		ctx := context.Background()
		if _, err := mkCompetition(ctx); err != nil {
			t.Fatalf("seed: %v", err)
		}
		if len(dumper.Tables()) == 0 || dumper.Tables()[0] != "competitions" {
			t.Fatalf("unexpected tables: %v", dumper.Tables())
		}
		rows, err := dumper.DumpTable(ctx, "competitions")
		if err != nil {
			t.Fatalf("dump: %v", err)
		}
		if len(rows) != 1 || rows[0]["slug"] == nil {
			t.Fatalf("unexpected rows: %+v", rows)
		}
		empty, err := dumper.DumpTable(ctx, "payments")
		if err != nil || len(empty) != 0 {
			t.Fatalf("expected empty payments dump: %v %+v", err, empty)
		}
	})

	t.Run("unknown_table", func(t *testing.T) {
		dumper, _, cleanup := makeDumper(t)
		t.Cleanup(cleanup)
		if _, err := dumper.DumpTable(context.Background(), "users; DROP TABLE x"); err == nil {
			t.Fatalf("expected error for unknown table")
		}
	})
}

func RunPingerContract(t *testing.T, makePinger PingerFactory) {
	t.Helper()
	t.Run("ping_ok", func(t *testing.T) {
		p, cleanup := makePinger(t)
		t.Cleanup(cleanup)
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := p.Ping(ctx); err != nil {
			t.Fatalf("ping failed: %v", err)
		}
	})
}
