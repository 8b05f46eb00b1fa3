package service

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/fusaf/fusaf-service/internal/model"
	"github.com/fusaf/fusaf-service/internal/repository"
)

var validate = validator.New()

func normalizePage(p repository.Page) repository.Page {
	limit := p.Limit
	offset := p.Offset
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}
	return repository.Page{Limit: limit, Offset: offset}
}

func isEmail(s string) bool {
	return validate.Var(s, "required,email") == nil
}

func isURL(s string) bool {
	return validate.Var(s, "required,url") == nil
}

func oneOf(v string, allowed ...string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

func isValidAthleteStatus(s string) bool {
	return oneOf(s, model.AthleteStatusActive, model.AthleteStatusInactive, model.AthleteStatusSuspended, model.AthleteStatusRetired)
}

func isValidVisibility(s string) bool {
	return oneOf(s, model.VisibilityPublic, model.VisibilityMembers, model.VisibilityPrivate)
}

func isValidCompetitionStatus(s string) bool {
	return oneOf(s, model.CompetitionDraft, model.CompetitionOpen, model.CompetitionClosed, model.CompetitionFinished)
}

func isValidCompetitionType(s string) bool {
	return oneOf(s, "championship", "cup", "open", "festival")
}

// checkName rejects blank and overlong personal names.
func checkName(ferrs []FieldError, field, v string) []FieldError {
	switch {
	case strings.TrimSpace(v) == "":
		return append(ferrs, FieldError{Field: field, Message: "must not be empty"})
	case len([]rune(v)) > 100:
		return append(ferrs, FieldError{Field: field, Message: "length must be <= 100"})
	}
	return ferrs
}

func checkScore(ferrs []FieldError, field string, v *float64) []FieldError {
	if v != nil && (*v < 0 || *v > 100) {
		return append(ferrs, FieldError{Field: field, Message: "must be within 0..100"})
	}
	return ferrs
}

func checkRank(ferrs []FieldError, v *int) []FieldError {
	if v != nil && *v < 1 {
		return append(ferrs, FieldError{Field: "rank", Message: "must be >= 1"})
	}
	return ferrs
}
