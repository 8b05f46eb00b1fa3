package handler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fusaf/fusaf-service/internal/auth"
	"github.com/fusaf/fusaf-service/internal/export"
	"github.com/fusaf/fusaf-service/internal/repository"
	"github.com/fusaf/fusaf-service/internal/service"
	"github.com/fusaf/fusaf-service/pkg/response"
)

// backupTimeout bounds an on-demand backup; scheduled runs use their own.
const backupTimeout = 5 * time.Minute

// AdminHandler groups the operator endpoints: broadcasts, backups and exports.
// Any of its services may be nil; the matching routes are then not mounted.
type AdminHandler struct {
	notifications service.NotificationService
	backups       service.BackupRunner
	exports       service.ExportService
	guard         Guard
}

func NewAdminHandler(notifications service.NotificationService, backups service.BackupRunner, exports service.ExportService, guard Guard) *AdminHandler {
	return &AdminHandler{notifications: notifications, backups: backups, exports: exports, guard: guard}
}

func (h *AdminHandler) Register(r *gin.RouterGroup) {
	g := r.Group("/admin", h.guard.Require(auth.RoleAdmin))
	if h.notifications != nil {
		g.POST("/notifications", h.sendNotification)
		g.GET("/notifications", h.listNotifications)
	}
	if h.backups != nil {
		g.POST("/backups", h.runBackup)
		g.GET("/backups/last", h.lastBackup)
		g.POST("/backups/:id/restore", h.restoreBackup)
	}
	if h.exports != nil {
		g.GET("/export/athletes.csv", h.athletesCSV)
		g.POST("/export/athletes/sheets", h.athletesSheets)
		g.GET("/export/competitions/:id/preliminary.csv", h.preliminaryCSV)
	}
}

func (h *AdminHandler) sendNotification(c *gin.Context) {
	var req service.NotificationInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.WriteBadRequest(c, "body", err.Error())
		return
	}
	n, err := h.notifications.Send(c.Request.Context(), req)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusCreated, n)
}

func (h *AdminHandler) listNotifications(c *gin.Context) {
	res, err := h.notifications.List(c.Request.Context(), pageQuery(c))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, res)
}

func (h *AdminHandler) runBackup(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), backupTimeout)
	defer cancel()
	m, err := h.backups.Run(ctx)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusCreated, m)
}

func (h *AdminHandler) lastBackup(c *gin.Context) {
	m, ok := h.backups.Last()
	if !ok {
		response.WriteError(c, repository.ErrNotFound)
		return
	}
	response.WriteData(c, http.StatusOK, m)
}

func (h *AdminHandler) restoreBackup(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), backupTimeout)
	defer cancel()
	rep, err := h.backups.Restore(ctx, c.Param("id"))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, rep)
}

func (h *AdminHandler) athletesCSV(c *gin.Context) {
	t, err := h.exports.Athletes(c.Request.Context(), athleteFilterQuery(c))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	writeCSV(c, "athletes.csv", t)
}

func (h *AdminHandler) athletesSheets(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 4*serviceTimeout)
	defer cancel()
	n, err := h.exports.PushAthletes(ctx, athleteFilterQuery(c))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, gin.H{"rows": n})
}

func (h *AdminHandler) preliminaryCSV(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	t, err := h.exports.Preliminary(c.Request.Context(), id)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	writeCSV(c, fmt.Sprintf("competition-%d-preliminary.csv", id), t)
}

func writeCSV(c *gin.Context, filename string, t export.Table) {
	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Status(http.StatusOK)
	if err := export.WriteCSV(c.Writer, t); err != nil {
		// headers are already sent
		_ = c.Error(err)
	}
}
