package athlete

import (
	"time"

	"github.com/fusaf/fusaf-service/internal/model"
)

type seedResult struct {
	competition string
	kind        string
	date        string
	location    string
	category    string
	discipline  string
	rank        int
	total       float64
	technique   float64
	artistry    float64
}

type seedAthlete struct {
	athlete model.Athlete
	results []seedResult
}

func demoAthletes() []seedAthlete {
	return []seedAthlete{
		{
			athlete: model.Athlete{
				ID: "demo-kovalenko", FirstName: "Олена", LastName: "Коваленко",
				Email: "olena.kovalenko@example.com", Country: "UA", City: "Київ",
				Gender: "female", Disciplines: []string{"Individual Women", "Mixed Pair"},
				Club: "Олімп", Coach: "Ірина Савчук", License: "UA-AER-0142",
			},
			results: []seedResult{
				{"Чемпіонат України 2023", "championship", "2023-05-14", "Київ", "Seniors", "Individual Women", 2, 19.35, 7.9, 8.1},
				{"Кубок України 2024", "cup", "2024-03-02", "Львів", "Seniors", "Individual Women", 1, 20.1, 8.2, 8.3},
				{"Kharkiv Open 2024", "open", "2024-10-19", "Харків", "Seniors", "Mixed Pair", 4, 18.7, 7.6, 7.8},
			},
		},
		{
			athlete: model.Athlete{
				ID: "demo-shevchuk", FirstName: "Андрій", LastName: "Шевчук",
				Email: "andrii.shevchuk@example.com", Country: "UA", City: "Львів",
				Gender: "male", Disciplines: []string{"Individual Men"},
				Club: "Галичина", Coach: "Петро Мельник", License: "UA-AER-0217",
			},
			results: []seedResult{
				{"Чемпіонат України 2024", "championship", "2024-05-18", "Дніпро", "Juniors", "Individual Men", 3, 18.95, 7.7, 7.9},
				{"Кубок України 2025", "cup", "2025-03-08", "Одеса", "Seniors", "Individual Men", 2, 19.4, 8.0, 7.95},
			},
		},
		{
			athlete: model.Athlete{
				ID: "demo-bondar", FirstName: "Марія", LastName: "Бондар",
				Email: "mariia.bondar@example.com", Country: "UA", City: "Одеса",
				Gender: "female", Disciplines: []string{"Aerobic Dance"},
				Club: "Чорноморець", License: "UA-FIT-0033", Status: model.AthleteStatusInactive,
			},
		},
	}
}

// Seed loads demonstration athletes with their results. Entries that
// already exist are skipped, so calling it twice is harmless.
func Seed(s *Store) int {
	added := 0
	for _, d := range demoAthletes() {
		if _, ok := s.Add(d.athlete); !ok {
			continue
		}
		added++
		for _, r := range d.results {
			date, _ := time.Parse(time.DateOnly, r.date)
			rank, total, technique, artistry := r.rank, r.total, r.technique, r.artistry
			s.AddResult(d.athlete.ID, model.CompetitionResult{
				CompetitionName: r.competition,
				CompetitionType: r.kind,
				Date:            date,
				Location:        r.location,
				Category:        r.category,
				Discipline:      r.discipline,
				Rank:            &rank,
				TotalScore:      &total,
				Technique:       &technique,
				Artistry:        &artistry,
			})
		}
	}
	s.log.Info().Int("athletes", added).Msg("demo athletes seeded")
	return added
}
