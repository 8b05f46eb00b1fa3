package handler

import (
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	"github.com/fusaf/fusaf-service/internal/auth"
	"github.com/fusaf/fusaf-service/internal/model"
	"github.com/fusaf/fusaf-service/internal/service"
	"github.com/fusaf/fusaf-service/pkg/response"
)

type CompetitionHandler struct {
	svc   service.CompetitionService
	guard Guard
}

func NewCompetitionHandler(svc service.CompetitionService, guard Guard) *CompetitionHandler {
	return &CompetitionHandler{svc: svc, guard: guard}
}

func (h *CompetitionHandler) Register(r *gin.RouterGroup) {
	g := r.Group("/competitions")
	{
		g.GET("", h.list)
		g.GET("/:id", h.get)
		g.POST("", h.guard.Require(auth.RoleAdmin, auth.RoleCoach), h.create)
		g.PUT("/:id", h.guard.Require(auth.RoleAdmin, auth.RoleCoach), h.update)
		g.DELETE("/:id", h.guard.Require(auth.RoleAdmin), h.delete)
	}
}

type competitionRequest struct {
	Title                string          `json:"title"`
	Type                 string          `json:"type"`
	Location             string          `json:"location"`
	StartDate            time.Time       `json:"start_date"`
	EndDate              time.Time       `json:"end_date"`
	RegistrationDeadline time.Time       `json:"registration_deadline"`
	Status               string          `json:"status"`
	EntryFee             decimal.Decimal `json:"entry_fee"`
	Currency             string          `json:"currency"`
	Description          string          `json:"description"`
}

func (r competitionRequest) toModel() model.Competition {
	return model.Competition{
		Title:                r.Title,
		Type:                 r.Type,
		Location:             r.Location,
		StartDate:            r.StartDate,
		EndDate:              r.EndDate,
		RegistrationDeadline: r.RegistrationDeadline,
		Status:               r.Status,
		EntryFee:             r.EntryFee,
		Currency:             r.Currency,
		Description:          r.Description,
	}
}

func (h *CompetitionHandler) list(c *gin.Context) {
	res, err := h.svc.List(c.Request.Context(), model.CompetitionFilter{Status: c.Query("status")}, pageQuery(c))
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, res)
}

// get accepts either the numeric id or the slug.
func (h *CompetitionHandler) get(c *gin.Context) {
	key := c.Param("id")
	var (
		comp model.Competition
		err  error
	)
	if id, perr := strconv.ParseInt(key, 10, 64); perr == nil {
		comp, err = h.svc.Get(c.Request.Context(), id)
	} else {
		comp, err = h.svc.GetBySlug(c.Request.Context(), key)
	}
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, comp)
}

func (h *CompetitionHandler) create(c *gin.Context) {
	var req competitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.WriteBadRequest(c, "body", err.Error())
		return
	}
	comp, err := h.svc.Create(c.Request.Context(), req.toModel())
	if err != nil {
		response.WriteError(c, err)
		return
	}
	c.Header("Location", fmt.Sprintf("%s/competitions/%d", APIV1Prefix, comp.ID))
	response.WriteData(c, http.StatusCreated, comp)
}

func (h *CompetitionHandler) update(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	var req competitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.WriteBadRequest(c, "body", err.Error())
		return
	}
	in := req.toModel()
	in.ID = id
	comp, err := h.svc.Update(c.Request.Context(), in)
	if err != nil {
		response.WriteError(c, err)
		return
	}
	response.WriteData(c, http.StatusOK, comp)
}

func (h *CompetitionHandler) delete(c *gin.Context) {
	id, ok := int64Param(c, "id")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		response.WriteError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
