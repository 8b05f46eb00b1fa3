package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/fusaf/fusaf-service/internal/auth"
	"github.com/fusaf/fusaf-service/internal/model"
	"github.com/fusaf/fusaf-service/internal/service"
	"github.com/fusaf/fusaf-service/pkg/response"
)

type RegistrationHandler struct {
	svc   service.RegistrationService
	guard Guard
}

func NewRegistrationHandler(svc service.RegistrationService, guard Guard) *RegistrationHandler {
	return &RegistrationHandler{svc: svc, guard: guard}
}

func (h *RegistrationHandler) Register(r *gin.RouterGroup) {
	g := r.Group("/registrations")
	{
		g.POST("/preliminary", h.submitPreliminary)
		g.POST("/individual", h.guard.Require(auth.RoleAthlete, auth.RoleCoach, auth.RoleClubOwner, auth.RoleAdmin), h.registerIndividual)
		g.GET("/individual/:id", h.guard.Authenticated(), h.getIndividual)
	}
	// Listings nested under the competition: /api/v1/competitions/:id/registrations/...
	comp := r.Group("/competitions/:id/registrations")
	{
		comp.GET("/preliminary", h.guard.Require(auth.RoleAdmin, auth.RoleCoach, auth.RoleJudge), h.listPreliminary)
		comp.GET("/individual", h.guard.Require(auth.RoleAdmin, auth.RoleJudge), h.listIndividual)
	}
}

type preliminaryRequest struct {
	CompetitionID int64                    `json:"competition_id"`
	ClubName      string                   `json:"club_name"`
	ContactName   string                   `json:"contact_name"`
	ContactEmail  string                   `json:"contact_email"`
	ContactPhone  string                   `json:"contact_phone"`
	City          string                   `json:"city"`
	Entries       []model.PreliminaryEntry `json:"entries"`
}

func (h *RegistrationHandler) submitPreliminary(c *gin.Context) {
	var req preliminaryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.WriteBadRequest(c, "body", err.Error())
		return
	}
	out, err := h.svc.SubmitPreliminary(c.Request.Context(), model.PreliminaryRegistration{
		CompetitionID: req.CompetitionID,
		ClubName:      req.ClubName,
		ContactName:   req.ContactName,
		ContactEmail:  req.ContactEmail,
		ContactPhone:  req.ContactPhone,
		City:          req.City,
		Entries:       req.Entries,
	})
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusCreated, out)
}

func (h *RegistrationHandler) registerIndividual(c *gin.Context) {
	var req service.IndividualInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.WriteBadRequest(c, "body", err.Error())
		return
	}
	// athletes register themselves only
	if claims, ok := claimsFrom(c); ok && claims.Role == auth.RoleAthlete && claims.Subject != req.AthleteID {
		response.WriteError(c, auth.ErrForbidden)
		return
	}
	out, err := h.svc.RegisterIndividual(c.Request.Context(), req)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusCreated, out)
}

func (h *RegistrationHandler) getIndividual(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	reg, err := h.svc.GetIndividual(c.Request.Context(), id)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	if claims, ok := claimsFrom(c); ok && claims.Role == auth.RoleAthlete && claims.Subject != reg.AthleteID {
		response.WriteError(c, auth.ErrForbidden)
		return
	}
	response.WriteData(c, http.StatusOK, reg)
}

func (h *RegistrationHandler) listPreliminary(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	res, err := h.svc.ListPreliminary(c.Request.Context(), id, pageQuery(c))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, res)
}

func (h *RegistrationHandler) listIndividual(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	res, err := h.svc.ListIndividual(c.Request.Context(), id, pageQuery(c))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, res)
}
