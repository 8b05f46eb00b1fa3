package handler_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fusaf/fusaf-service/internal/athlete"
	"github.com/fusaf/fusaf-service/internal/auth"
	"github.com/fusaf/fusaf-service/internal/backup"
	"github.com/fusaf/fusaf-service/internal/config"
	"github.com/fusaf/fusaf-service/internal/email"
	"github.com/fusaf/fusaf-service/internal/handler"
	"github.com/fusaf/fusaf-service/internal/model"
	"github.com/fusaf/fusaf-service/internal/payment"
	"github.com/fusaf/fusaf-service/internal/repository/memory"
	"github.com/fusaf/fusaf-service/internal/service"
)

type app struct {
	engine *gin.Engine
	tokens *auth.Manager
	liqpay *payment.Client
	compID int64
}

func newApp(t *testing.T) *app {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := zerolog.New(io.Discard)

	tokens, err := auth.NewManager("test-secret-0123456789", "fusaf-test", time.Hour)
	require.NoError(t, err)

	db := memory.New()
	athletes := athlete.NewStore(logger)
	athlete.Seed(athletes)

	liqpay := payment.NewClient(config.LiqPay{
		PublicKey: "pub", PrivateKey: "priv",
		CheckoutURL: "https://www.liqpay.ua/api/3/checkout", APIURL: "http://127.0.0.1:1/api/request",
	}, logger)
	mailer := email.NewLogSender(logger)

	start := time.Now().Add(30 * 24 * time.Hour).UTC().Truncate(time.Second)
	comp, err := db.Competitions().Create(context.Background(), model.Competition{
		Slug: "kubok-lvova", Title: "Кубок Львова", Type: "cup", Status: model.CompetitionOpen,
		StartDate: start, EndDate: start, RegistrationDeadline: start.Add(-48 * time.Hour),
		EntryFee: decimal.RequireFromString("300"), Currency: "UAH",
	})
	require.NoError(t, err)

	r := gin.New()
	handler.Register(r, handler.Deps{
		Pinger:       db,
		Tokens:       tokens,
		Athletes:     service.NewAthleteService(athletes, logger),
		Competitions: service.NewCompetitionService(db.Competitions(), logger),
		Registrations: service.NewRegistrationService(service.RegistrationDeps{
			Competitions: db.Competitions(), Registrations: db.Registrations(), Payments: db.Payments(),
			Tx: db, Athletes: athletes, Gateway: liqpay,
		}, logger),
		Payments: service.NewPaymentService(service.PaymentDeps{
			Payments: db.Payments(), Registrations: db.Registrations(), Tx: db,
			Gateway: liqpay, Athletes: athletes, Mailer: mailer,
		}, logger),
		Notifications: service.NewNotificationService(db.Notifications(), athletes, mailer, "admin@fusaf.org.ua", logger),
		Backups:       backup.New(db, athletes, t.TempDir(), logger),
		Exports:       service.NewExportService(athletes, db.Registrations(), nil, logger),
	})
	return &app{engine: r, tokens: tokens, liqpay: liqpay, compID: comp.ID}
}

func (a *app) token(t *testing.T, subject, role string) string {
	t.Helper()
	tok, _, err := a.tokens.Issue(subject, role, 0)
	require.NoError(t, err)
	return tok
}

func (a *app) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		rdr = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, rdr)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

// health

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

func healthEngine(p handler.Pinger) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	handler.Register(r, handler.Deps{Pinger: p})
	return r
}

func TestHealth(t *testing.T) {
	cases := []struct {
		name string
		err  error
		path string
		want int
	}{
		{"ready", nil, handler.APIV1Prefix + "/health/ready", http.StatusOK},
		{"ready db down", errors.New("db down"), handler.APIV1Prefix + "/health/ready", http.StatusServiceUnavailable},
		{"live root", nil, "/live", http.StatusOK},
		{"live ignores db", errors.New("db down"), "/live", http.StatusOK},
		{"ready root", nil, "/ready", http.StatusOK},
		{"ready root db down", errors.New("db down"), "/ready", http.StatusServiceUnavailable},
		{"unknown", nil, "/no-such", http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			healthEngine(stubPinger{err: tc.err}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, tc.path, nil))
			assert.Equal(t, tc.want, w.Code, w.Body.String())
		})
	}
}

func TestHealth_UnmountedServices(t *testing.T) {
	w := httptest.NewRecorder()
	healthEngine(stubPinger{}).ServeHTTP(w, httptest.NewRequest(http.MethodGet, handler.APIV1Prefix+"/athletes", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestDocs(t *testing.T) {
	w := httptest.NewRecorder()
	healthEngine(nil).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/docs", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "/openapi.yaml")
}

// auth

func TestAuth_Guards(t *testing.T) {
	a := newApp(t)
	body := map[string]any{"first_name": "Ірина", "last_name": "Мельник"}
	path := handler.APIV1Prefix + "/athletes"

	assert.Equal(t, http.StatusUnauthorized, a.do(t, http.MethodPost, path, "", body).Code)
	assert.Equal(t, http.StatusUnauthorized, a.do(t, http.MethodPost, path, "garbage", body).Code)
	assert.Equal(t, http.StatusForbidden, a.do(t, http.MethodPost, path, a.token(t, "demo-kovalenko", auth.RoleAthlete), body).Code)

	w := a.do(t, http.MethodPost, path, a.token(t, "coach-1", auth.RoleCoach), body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[model.Athlete](t, w)
	assert.Equal(t, path+"/"+created.ID, w.Header().Get("Location"))

	other, err := auth.NewManager("another-secret-987654321", "fusaf-test", time.Hour)
	require.NoError(t, err)
	forged, _, _ := other.Issue("x", auth.RoleAdmin, 0)
	assert.Equal(t, http.StatusUnauthorized, a.do(t, http.MethodDelete, path+"/"+created.ID, forged, nil).Code)
}

// athletes

func TestAthletes_ListAndGet(t *testing.T) {
	a := newApp(t)
	w := a.do(t, http.MethodGet, handler.APIV1Prefix+"/athletes?status=active&country=UA", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[struct {
		Items []model.Athlete `json:"items"`
		Total int             `json:"total"`
	}](t, w)
	assert.Equal(t, 2, list.Total)

	w = a.do(t, http.MethodGet, handler.APIV1Prefix+"/athletes/demo-kovalenko", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	got := decode[model.Athlete](t, w)
	assert.Equal(t, "Коваленко", got.LastName)
	assert.NotZero(t, got.Stats.TotalCompetitions)

	assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodGet, handler.APIV1Prefix+"/athletes/nobody", "", nil).Code)

	w = a.do(t, http.MethodGet, handler.APIV1Prefix+"/athletes/stats", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 3, decode[model.StorageStats](t, w).TotalAthletes)
}

func TestAthletes_ByEmailRequiresToken(t *testing.T) {
	a := newApp(t)
	path := handler.APIV1Prefix + "/athletes/by-email?email=" + url.QueryEscape("olena.kovalenko@example.com")
	assert.Equal(t, http.StatusUnauthorized, a.do(t, http.MethodGet, path, "", nil).Code)
	w := a.do(t, http.MethodGet, path, a.token(t, "j", auth.RoleJudge), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "demo-kovalenko", decode[model.Athlete](t, w).ID)
}

func TestAthletes_SelfEdit(t *testing.T) {
	a := newApp(t)
	own := a.token(t, "demo-kovalenko", auth.RoleAthlete)
	patch := map[string]any{"city": "Дніпро"}

	w := a.do(t, http.MethodPatch, handler.APIV1Prefix+"/athletes/demo-kovalenko", own, patch)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Дніпро", decode[model.Athlete](t, w).City)

	assert.Equal(t, http.StatusForbidden, a.do(t, http.MethodPatch, handler.APIV1Prefix+"/athletes/demo-shevchuk", own, patch).Code)
	assert.Equal(t, http.StatusOK, a.do(t, http.MethodPatch, handler.APIV1Prefix+"/athletes/demo-shevchuk", a.token(t, "c", auth.RoleClubOwner), patch).Code)
}

func TestAthletes_SelfEditCannotChangeStatusOrLicense(t *testing.T) {
	a := newApp(t)
	path := handler.APIV1Prefix + "/athletes/demo-kovalenko"
	admin := a.token(t, "a", auth.RoleAdmin)
	own := a.token(t, "demo-kovalenko", auth.RoleAthlete)

	w := a.do(t, http.MethodPatch, path, admin, map[string]any{"status": model.AthleteStatusSuspended})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	assert.Equal(t, http.StatusForbidden, a.do(t, http.MethodPatch, path, own, map[string]any{"status": model.AthleteStatusActive}).Code)
	assert.Equal(t, http.StatusForbidden, a.do(t, http.MethodPatch, path, own, map[string]any{"license": "UA-0001"}).Code)

	w = a.do(t, http.MethodGet, path, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.AthleteStatusSuspended, decode[model.Athlete](t, w).Status)

	// other fields stay self-editable
	w = a.do(t, http.MethodPatch, path, own, map[string]any{"visibility": model.VisibilityMembers})
	assert.Equal(t, http.StatusOK, w.Code, w.Body.String())
}

func TestAthletes_Results(t *testing.T) {
	a := newApp(t)
	judge := a.token(t, "judge-1", auth.RoleJudge)
	path := handler.APIV1Prefix + "/athletes/demo-shevchuk/results"

	w := a.do(t, http.MethodPost, path, judge, map[string]any{"competition_name": "Кубок", "rank": 0})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"field":"rank"`)

	w = a.do(t, http.MethodPost, path, judge, map[string]any{
		"competition_name": "Кубок Львова", "discipline": "individual", "rank": 1, "total_score": 99.5, "date": "2026-05-10T00:00:00Z",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	res := decode[model.CompetitionResult](t, w)
	assert.True(t, res.IsPersonalBest)

	w = a.do(t, http.MethodPatch, path+"/"+res.ID, judge, map[string]any{"rank": 2})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	assert.Equal(t, http.StatusNoContent, a.do(t, http.MethodDelete, path+"/"+res.ID, judge, nil).Code)
	assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodDelete, path+"/"+res.ID, judge, nil).Code)
}

func TestAthletes_BadJSON(t *testing.T) {
	a := newApp(t)
	req := httptest.NewRequest(http.MethodPost, handler.APIV1Prefix+"/athletes", strings.NewReader("{"))
	req.Header.Set("Authorization", "Bearer "+a.token(t, "admin", auth.RoleAdmin))
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "invalid_input")
}

// competitions

func TestCompetitions_CRUD(t *testing.T) {
	a := newApp(t)
	admin := a.token(t, "admin", auth.RoleAdmin)
	body := map[string]any{
		"title": "Чемпіонат Києва", "type": "championship", "location": "Київ",
		"start_date": "2026-12-05T09:00:00Z", "registration_deadline": "2026-12-01T00:00:00Z",
		"entry_fee": "250.00", "status": "open",
	}

	w := a.do(t, http.MethodPost, handler.APIV1Prefix+"/competitions", admin, body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	comp := decode[model.Competition](t, w)
	assert.NotEmpty(t, comp.Slug)
	assert.True(t, comp.EntryFee.Equal(decimal.RequireFromString("250")))

	w = a.do(t, http.MethodGet, handler.APIV1Prefix+"/competitions/"+comp.Slug, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, comp.ID, decode[model.Competition](t, w).ID)

	w = a.do(t, http.MethodGet, handler.APIV1Prefix+"/competitions?status=open", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":2`)

	body["status"] = "closed"
	w = a.do(t, http.MethodPut, handler.APIV1Prefix+"/competitions/"+itoa(comp.ID), a.token(t, "c", auth.RoleCoach), body)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, model.CompetitionClosed, decode[model.Competition](t, w).Status)

	assert.Equal(t, http.StatusForbidden, a.do(t, http.MethodDelete, handler.APIV1Prefix+"/competitions/"+itoa(comp.ID), a.token(t, "c", auth.RoleCoach), nil).Code)
	assert.Equal(t, http.StatusNoContent, a.do(t, http.MethodDelete, handler.APIV1Prefix+"/competitions/"+itoa(comp.ID), admin, nil).Code)
	assert.Equal(t, http.StatusBadRequest, a.do(t, http.MethodDelete, handler.APIV1Prefix+"/competitions/abc", admin, nil).Code)
}

// registrations and payments

func TestPreliminaryRegistration(t *testing.T) {
	a := newApp(t)
	body := map[string]any{
		"competition_id": a.compID, "club_name": "Грація", "contact_name": "Ірина", "contact_email": "club@gracia.ua",
		"entries": []map[string]any{{"age_category": "9-11", "program": "individual", "count": 5}},
	}
	w := a.do(t, http.MethodPost, handler.APIV1Prefix+"/registrations/preliminary", "", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, 5, decode[model.PreliminaryRegistration](t, w).TotalParticipants)

	list := handler.APIV1Prefix + "/competitions/" + itoa(a.compID) + "/registrations/preliminary"
	assert.Equal(t, http.StatusUnauthorized, a.do(t, http.MethodGet, list, "", nil).Code)
	w = a.do(t, http.MethodGet, list, a.token(t, "j", auth.RoleJudge), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":1`)

	w = a.do(t, http.MethodGet, handler.APIV1Prefix+"/admin/export/competitions/"+itoa(a.compID)+"/preliminary.csv", a.token(t, "a", auth.RoleAdmin), nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, strings.HasPrefix(w.Body.String(), "\ufeff"))
	assert.Contains(t, w.Body.String(), "Грація")
}

func TestIndividualRegistration_PaidByCallback(t *testing.T) {
	a := newApp(t)
	athleteTok := a.token(t, "demo-kovalenko", auth.RoleAthlete)
	in := map[string]any{"competition_id": a.compID, "athlete_id": "demo-kovalenko", "program": "individual", "age_category": "seniors"}

	// athletes cannot register someone else
	other := map[string]any{"competition_id": a.compID, "athlete_id": "demo-shevchuk", "program": "individual", "age_category": "seniors"}
	assert.Equal(t, http.StatusForbidden, a.do(t, http.MethodPost, handler.APIV1Prefix+"/registrations/individual", athleteTok, other).Code)

	w := a.do(t, http.MethodPost, handler.APIV1Prefix+"/registrations/individual", athleteTok, in)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	out := decode[service.IndividualCheckout](t, w)
	require.NotNil(t, out.Checkout)
	assert.Equal(t, a.liqpay.Sign(out.Checkout.Data), out.Checkout.Signature)
	orderID := out.Registration.OrderID

	assert.Equal(t, http.StatusConflict, a.do(t, http.MethodPost, handler.APIV1Prefix+"/registrations/individual", athleteTok, in).Code)

	// forged callback
	form := url.Values{"data": {"e30="}, "signature": {"nope"}}
	w = postForm(a, handler.APIV1Prefix+"/payments/callback", form)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	raw, _ := json.Marshal(payment.Callback{Action: "pay", Status: "success", OrderID: orderID, PaymentID: 777, Amount: 300, Currency: "UAH"})
	data := base64.StdEncoding.EncodeToString(raw)
	w = postForm(a, handler.APIV1Prefix+"/payments/callback", url.Values{"data": {data}, "signature": {a.liqpay.Sign(data)}})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Contains(t, w.Body.String(), `"status":"paid"`)

	w = a.do(t, http.MethodGet, handler.APIV1Prefix+"/payments/"+orderID, "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	p := decode[model.Payment](t, w)
	assert.Equal(t, model.PaymentPaid, p.Status)
	assert.Equal(t, "777", p.ProviderPaymentID)

	w = a.do(t, http.MethodGet, handler.APIV1Prefix+"/registrations/individual/"+itoa(out.Registration.ID), athleteTok, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, model.RegistrationPaid, decode[model.IndividualRegistration](t, w).Status)

	assert.Equal(t, http.StatusForbidden, a.do(t, http.MethodGet,
		handler.APIV1Prefix+"/registrations/individual/"+itoa(out.Registration.ID), a.token(t, "demo-shevchuk", auth.RoleAthlete), nil).Code)
	assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodGet, handler.APIV1Prefix+"/payments/missing", "", nil).Code)
}

func postForm(a *app, path string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	a.engine.ServeHTTP(w, req)
	return w
}

// admin

func TestAdmin_RequiresAdmin(t *testing.T) {
	a := newApp(t)
	path := handler.APIV1Prefix + "/admin/notifications"
	assert.Equal(t, http.StatusUnauthorized, a.do(t, http.MethodGet, path, "", nil).Code)
	assert.Equal(t, http.StatusForbidden, a.do(t, http.MethodGet, path, a.token(t, "c", auth.RoleCoach), nil).Code)
}

func TestAdmin_Notifications(t *testing.T) {
	a := newApp(t)
	admin := a.token(t, "admin", auth.RoleAdmin)
	w := a.do(t, http.MethodPost, handler.APIV1Prefix+"/admin/notifications", admin, service.NotificationInput{
		Subject: "Збори", Body: "Збори **відбудуться** у суботу.", Audience: service.AudienceAthletes,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	n := decode[model.Notification](t, w)
	assert.Equal(t, 2, n.Delivered)

	w = a.do(t, http.MethodGet, handler.APIV1Prefix+"/admin/notifications", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"total":1`)

	w = a.do(t, http.MethodPost, handler.APIV1Prefix+"/admin/notifications", admin, service.NotificationInput{Audience: "nobody"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdmin_Backups(t *testing.T) {
	a := newApp(t)
	admin := a.token(t, "admin", auth.RoleAdmin)

	assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodGet, handler.APIV1Prefix+"/admin/backups/last", admin, nil).Code)

	w := a.do(t, http.MethodPost, handler.APIV1Prefix+"/admin/backups", admin, nil)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	m := decode[backup.Manifest](t, w)
	assert.NotEmpty(t, m.Checksum)

	w = a.do(t, http.MethodGet, handler.APIV1Prefix+"/admin/backups/last", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, m.ID, decode[backup.Manifest](t, w).ID)

	restore := handler.APIV1Prefix + "/admin/backups/" + m.ID + "/restore"
	assert.Equal(t, http.StatusForbidden, a.do(t, http.MethodPost, restore, a.token(t, "c", auth.RoleCoach), nil).Code)
	w = a.do(t, http.MethodPost, restore, admin, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, m.ID, decode[backup.RestoreReport](t, w).ID)
	assert.Equal(t, http.StatusNotFound, a.do(t, http.MethodPost, handler.APIV1Prefix+"/admin/backups/20990101T000000Z/restore", admin, nil).Code)
}

func TestAdmin_Exports(t *testing.T) {
	a := newApp(t)
	admin := a.token(t, "admin", auth.RoleAdmin)

	w := a.do(t, http.MethodGet, handler.APIV1Prefix+"/admin/export/athletes.csv?status=active", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "text/csv; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "athletes.csv")
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	assert.Len(t, lines, 3, "header plus two active athletes")

	w = a.do(t, http.MethodPost, handler.APIV1Prefix+"/admin/export/athletes/sheets", admin, nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func itoa(v int64) string { return strconv.FormatInt(v, 10) }
