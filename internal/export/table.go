// Package export turns athletes and registrations into flat tables and
// writes them as CSV or appends them to a Google spreadsheet.
package export

import (
	"strconv"
	"strings"
	"time"

	"github.com/fusaf/fusaf-service/internal/model"
)

// Table is a header row plus data rows of equal width.
type Table struct {
	Name    string
	Headers []string
	Rows    [][]string
}

func date(t *time.Time) string {
	if t == nil || t.IsZero() {
		return ""
	}
	return t.Format(time.DateOnly)
}

func score(f float64) string {
	return strconv.FormatFloat(f, 'f', 2, 64)
}

// AthletesTable flattens athletes with their cached statistics.
func AthletesTable(athletes []model.Athlete) Table {
	t := Table{
		Name: "athletes",
		Headers: []string{
			"id", "last_name", "first_name", "middle_name", "date_of_birth", "gender",
			"country", "city", "club", "coach", "license", "disciplines", "status",
			"competitions", "wins", "podiums", "gold", "silver", "bronze", "average_score", "best_score",
		},
	}
	for _, a := range athletes {
		s := a.Stats
		t.Rows = append(t.Rows, []string{
			a.ID, a.LastName, a.FirstName, a.MiddleName, date(a.DateOfBirth), a.Gender,
			a.Country, a.City, a.Club, a.Coach, a.License, strings.Join(a.Disciplines, "; "), a.Status,
			strconv.Itoa(s.TotalCompetitions), strconv.Itoa(s.Wins), strconv.Itoa(s.Podiums),
			strconv.Itoa(s.MedalsByType.Gold), strconv.Itoa(s.MedalsByType.Silver), strconv.Itoa(s.MedalsByType.Bronze),
			score(s.AverageScore), score(s.BestScore),
		})
	}
	return t
}

// PreliminaryTable emits one row per entry so counts can be pivoted.
func PreliminaryTable(regs []model.PreliminaryRegistration) Table {
	t := Table{
		Name:    "preliminary_registrations",
		Headers: []string{"registration_id", "club", "contact", "email", "phone", "city", "age_category", "program", "count"},
	}
	for _, r := range regs {
		for _, e := range r.Entries {
			t.Rows = append(t.Rows, []string{
				strconv.FormatInt(r.ID, 10), r.ClubName, r.ContactName, r.ContactEmail, r.ContactPhone, r.City,
				e.AgeCategory, e.Program, strconv.Itoa(e.Count),
			})
		}
	}
	return t
}
