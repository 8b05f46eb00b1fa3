package athlete

import (
	"maps"
	"slices"

	"github.com/fusaf/fusaf-service/internal/model"
)

// Deep copies keep callers from reaching into store-owned memory.

func cloneAthlete(a *model.Athlete) model.Athlete {
	out := *a
	out.DateOfBirth = clonePtr(a.DateOfBirth)
	out.Disciplines = cloneSlice(a.Disciplines)
	out.Achievements = cloneSlice(a.Achievements)
	out.Media = cloneSlice(a.Media)
	out.Results = make([]model.CompetitionResult, len(a.Results))
	for i := range a.Results {
		out.Results[i] = cloneResult(a.Results[i])
	}
	out.PersonalBests = model.PersonalBests{
		TotalScore: clonePtr(a.PersonalBests.TotalScore),
		Technique:  clonePtr(a.PersonalBests.Technique),
		Artistry:   clonePtr(a.PersonalBests.Artistry),
	}
	out.Stats = cloneStats(a.Stats)
	return out
}

func cloneResult(r model.CompetitionResult) model.CompetitionResult {
	r.Rank = clonePtr(r.Rank)
	r.TotalScore = clonePtr(r.TotalScore)
	r.Technique = clonePtr(r.Technique)
	r.Artistry = clonePtr(r.Artistry)
	r.Execution = clonePtr(r.Execution)
	r.Difficulty = clonePtr(r.Difficulty)
	r.MediaIDs = slices.Clone(r.MediaIDs)
	return r
}

func cloneStats(s model.AthleteStats) model.AthleteStats {
	s.CompetitionsByYear = maps.Clone(s.CompetitionsByYear)
	if s.DisciplineStats != nil {
		ds := make(map[string]model.DisciplineStat, len(s.DisciplineStats))
		for k, v := range s.DisciplineStats {
			v.BestRank = clonePtr(v.BestRank)
			ds[k] = v
		}
		s.DisciplineStats = ds
	}
	return s
}

// cloneSlice never returns nil so JSON renders empty lists as [].
func cloneSlice[T any](in []T) []T {
	out := make([]T, len(in))
	copy(out, in)
	return out
}

func clonePtr[T any](p *T) *T {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
