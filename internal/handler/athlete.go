package handler

import (
	"fmt"
	"net/http"
	"slices"

	"github.com/gin-gonic/gin"

	"github.com/fusaf/fusaf-service/internal/auth"
	"github.com/fusaf/fusaf-service/internal/model"
	"github.com/fusaf/fusaf-service/internal/service"
	"github.com/fusaf/fusaf-service/pkg/response"
)

// Roles allowed to maintain any athlete profile.
var athleteEditors = []string{auth.RoleAdmin, auth.RoleCoach, auth.RoleClubOwner}

type AthleteHandler struct {
	svc   service.AthleteService
	guard Guard
}

func NewAthleteHandler(svc service.AthleteService, guard Guard) *AthleteHandler {
	return &AthleteHandler{svc: svc, guard: guard}
}

func (h *AthleteHandler) Register(r *gin.RouterGroup) {
	g := r.Group("/athletes")
	{
		g.GET("", h.list)
		g.GET("/stats", h.stats)
		g.GET("/by-email", h.guard.Authenticated(), h.getByEmail)
		g.GET("/:id", h.get)
		g.POST("", h.guard.Require(athleteEditors...), h.create)
		g.PATCH("/:id", h.guard.Authenticated(), h.update)
		g.DELETE("/:id", h.guard.Require(auth.RoleAdmin), h.delete)

		g.POST("/:id/media", h.guard.Authenticated(), h.addMedia)
		g.POST("/:id/results", h.guard.Require(auth.RoleAdmin, auth.RoleCoach, auth.RoleJudge), h.addResult)
		g.PATCH("/:id/results/:result_id", h.guard.Require(auth.RoleAdmin, auth.RoleCoach, auth.RoleJudge), h.updateResult)
		g.DELETE("/:id/results/:result_id", h.guard.Require(auth.RoleAdmin, auth.RoleCoach, auth.RoleJudge), h.deleteResult)
	}
}

// canEdit lets editors change any profile and athletes change their own.
func canEdit(c *gin.Context, athleteID string) bool {
	if isEditor(c) {
		return true
	}
	claims, ok := claimsFrom(c)
	return ok && claims.Role == auth.RoleAthlete && claims.Subject == athleteID
}

func isEditor(c *gin.Context) bool {
	claims, ok := claimsFrom(c)
	return ok && slices.Contains(athleteEditors, claims.Role)
}

// editorOnlyField names the first patched field an athlete may not set on
// their own profile, or "" when the patch is allowed.
func editorOnlyField(p model.AthletePatch) string {
	switch {
	case p.Status != nil:
		return "status"
	case p.License != nil:
		return "license"
	}
	return ""
}

func (h *AthleteHandler) list(c *gin.Context) {
	items, err := h.svc.List(c.Request.Context(), athleteFilterQuery(c))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, gin.H{"items": items, "total": len(items)})
}

func (h *AthleteHandler) stats(c *gin.Context) {
	st, err := h.svc.Stats(c.Request.Context())
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, st)
}

func (h *AthleteHandler) getByEmail(c *gin.Context) {
	a, err := h.svc.GetByEmail(c.Request.Context(), c.Query("email"))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, a)
}

func (h *AthleteHandler) get(c *gin.Context) {
	a, err := h.svc.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, a)
}

func (h *AthleteHandler) create(c *gin.Context) {
	var req model.Athlete
	if err := c.ShouldBindJSON(&req); err != nil {
		response.WriteBadRequest(c, "body", err.Error())
		return
	}
	a, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	c.Header("Location", fmt.Sprintf("%s/athletes/%s", APIV1Prefix, a.ID))
	response.WriteData(c, http.StatusCreated, a)
}

func (h *AthleteHandler) update(c *gin.Context) {
	id := c.Param("id")
	if !canEdit(c, id) {
		response.WriteError(c, auth.ErrForbidden)
		return
	}
	var patch model.AthletePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.WriteBadRequest(c, "body", err.Error())
		return
	}
	if field := editorOnlyField(patch); field != "" && !isEditor(c) {
		response.WriteError(c, fmt.Errorf("%w: %s is managed by the federation", auth.ErrForbidden, field))
		return
	}
	a, err := h.svc.Update(c.Request.Context(), id, patch)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, a)
}

func (h *AthleteHandler) delete(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.WriteError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *AthleteHandler) addMedia(c *gin.Context) {
	id := c.Param("id")
	if !canEdit(c, id) {
		response.WriteError(c, auth.ErrForbidden)
		return
	}
	var req model.MediaItem
	if err := c.ShouldBindJSON(&req); err != nil {
		response.WriteBadRequest(c, "body", err.Error())
		return
	}
	m, err := h.svc.AddMedia(c.Request.Context(), id, req)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusCreated, m)
}

func (h *AthleteHandler) addResult(c *gin.Context) {
	var req model.CompetitionResult
	if err := c.ShouldBindJSON(&req); err != nil {
		response.WriteBadRequest(c, "body", err.Error())
		return
	}
	r, err := h.svc.AddResult(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusCreated, r)
}

func (h *AthleteHandler) updateResult(c *gin.Context) {
	var patch model.ResultPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		response.WriteBadRequest(c, "body", err.Error())
		return
	}
	r, err := h.svc.UpdateResult(c.Request.Context(), c.Param("id"), c.Param("result_id"), patch)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, r)
}

func (h *AthleteHandler) deleteResult(c *gin.Context) {
	if err := h.svc.DeleteResult(c.Request.Context(), c.Param("id"), c.Param("result_id")); err != nil {
		response.WriteError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
