package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/fusaf/fusaf-service/internal/service"
)

// Deps carries everything the HTTP layer serves. Nil services leave their
// routes unmounted, which keeps health-only engines cheap to build in tests.
type Deps struct {
	Pinger        Pinger
	Tokens        TokenParser
	Athletes      service.AthleteService
	Competitions  service.CompetitionService
	Registrations service.RegistrationService
	Payments      service.PaymentService
	Notifications service.NotificationService
	Backups       service.BackupRunner
	Exports       service.ExportService
}

// Register mounts all public routes on the given engine.
func Register(r *gin.Engine, d Deps) {
	h := NewHealthHandler(d.Pinger)
	guard := NewGuard(d.Tokens)

	// Health probes
	r.GET("/live", h.Liveness)
	r.GET("/ready", h.Readiness)

	// Docs endpoints (root-level)
	RegisterDocs(r)

	api := r.Group(APIV1Prefix)
	{
		health := api.Group("/health")
		{
			health.GET("/live", h.Liveness)
			health.GET("/ready", h.Readiness)
		}
		if d.Athletes != nil {
			NewAthleteHandler(d.Athletes, guard).Register(api)
		}
		if d.Competitions != nil {
			NewCompetitionHandler(d.Competitions, guard).Register(api)
		}
		if d.Registrations != nil {
			NewRegistrationHandler(d.Registrations, guard).Register(api)
		}
		if d.Payments != nil {
			NewPaymentHandler(d.Payments).Register(api)
		}
		if d.Notifications != nil || d.Backups != nil || d.Exports != nil {
			NewAdminHandler(d.Notifications, d.Backups, d.Exports, guard).Register(api)
		}
	}
}
