package athlete

import (
	"math"
	"strconv"

	"github.com/fusaf/fusaf-service/internal/model"
)

// unknownYear buckets results that carry no date.
const unknownYear = "unknown"

type disciplineAcc struct {
	competitions int
	bestRank     int
	scoreSum     float64
	scored       int
}

// ComputeStats derives AthleteStats from the current result list.
// It is a pure function: the same list always yields the same stats.
//
// Results without a total score are left out of the score averages but still
// count as competitions; results without a rank never count as wins, podiums
// or medals.
func ComputeStats(results []model.CompetitionResult) model.AthleteStats {
	stats := model.AthleteStats{
		TotalCompetitions:  len(results),
		CompetitionsByYear: make(map[string]int),
		DisciplineStats:    make(map[string]model.DisciplineStat),
	}

	var (
		scoreSum float64
		scored   int
	)
	perDiscipline := make(map[string]*disciplineAcc)

	for _, r := range results {
		if r.Rank != nil {
			switch *r.Rank {
			case 1:
				stats.Wins++
				stats.MedalsByType.Gold++
			case 2:
				stats.MedalsByType.Silver++
			case 3:
				stats.MedalsByType.Bronze++
			}
			if *r.Rank >= 1 && *r.Rank <= 3 {
				stats.Podiums++
			}
		}

		if r.TotalScore != nil {
			if scored == 0 || *r.TotalScore > stats.BestScore {
				stats.BestScore = *r.TotalScore
			}
			scoreSum += *r.TotalScore
			scored++
		}

		stats.CompetitionsByYear[yearKey(r)]++

		if r.Discipline == "" {
			continue
		}
		acc, ok := perDiscipline[r.Discipline]
		if !ok {
			acc = &disciplineAcc{bestRank: math.MaxInt}
			perDiscipline[r.Discipline] = acc
		}
		acc.competitions++
		if r.Rank != nil && *r.Rank < acc.bestRank {
			acc.bestRank = *r.Rank
		}
		if r.TotalScore != nil {
			acc.scoreSum += *r.TotalScore
			acc.scored++
		}
	}

	if scored > 0 {
		stats.AverageScore = scoreSum / float64(scored)
	}

	for name, acc := range perDiscipline {
		ds := model.DisciplineStat{Competitions: acc.competitions}
		if acc.bestRank != math.MaxInt {
			best := acc.bestRank
			ds.BestRank = &best
		}
		if acc.scored > 0 {
			ds.AverageScore = acc.scoreSum / float64(acc.scored)
		}
		stats.DisciplineStats[name] = ds
	}

	return stats
}

func yearKey(r model.CompetitionResult) string {
	if r.Date.IsZero() {
		return unknownYear
	}
	return strconv.Itoa(r.Date.Year())
}
