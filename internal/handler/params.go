package handler

import (
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fusaf/fusaf-service/internal/model"
	"github.com/fusaf/fusaf-service/internal/repository"
	"github.com/fusaf/fusaf-service/pkg/response"
)

const serviceTimeout = 5 * time.Second

// int64Param parses a positive numeric path parameter, writing a 400 when it
// is not one.
func int64Param(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(c.Param(name)), 10, 64)
	if err != nil || id <= 0 {
		response.WriteBadRequest(c, name, "must be a positive integer")
		return 0, false
	}
	return id, true
}

// pageQuery reads limit/offset. Parse errors fall back to 0 and the service
// applies its defaults.
func pageQuery(c *gin.Context) repository.Page {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	return repository.Page{Limit: limit, Offset: offset}
}

func athleteFilterQuery(c *gin.Context) model.AthleteFilter {
	return model.AthleteFilter{
		Discipline: strings.TrimSpace(c.Query("discipline")),
		Country:    strings.TrimSpace(c.Query("country")),
		License:    strings.TrimSpace(c.Query("license")),
		Surname:    strings.TrimSpace(c.Query("surname")),
		Status:     strings.TrimSpace(c.Query("status")),
	}
}
