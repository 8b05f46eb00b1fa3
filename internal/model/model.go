// Package model contains domain entities and DTOs used across layers.
// I keep it lean and focused on data shapes without behavior.
package model

import "time"

// Athlete statuses.
const (
	AthleteStatusActive    = "active"
	AthleteStatusInactive  = "inactive"
	AthleteStatusSuspended = "suspended"
	AthleteStatusRetired   = "retired"
)

// Athlete profile visibility.
const (
	VisibilityPublic  = "public"
	VisibilityMembers = "members"
	VisibilityPrivate = "private"
)

// Media kinds.
const (
	MediaPhoto = "photo"
	MediaVideo = "video"
)

// FilterAll disables a filter dimension when passed as its value.
const FilterAll = "all"

// Athlete is a registered competitor with its career record.
// Club and coach references are informational only.
type Athlete struct {
	ID            string              `json:"id"`
	FirstName     string              `json:"first_name"`
	LastName      string              `json:"last_name"`
	MiddleName    string              `json:"middle_name,omitempty"`
	Email         string              `json:"email"`
	Phone         string              `json:"phone,omitempty"`
	DateOfBirth   *time.Time          `json:"date_of_birth,omitempty"`
	Gender        string              `json:"gender,omitempty"`
	Country       string              `json:"country"`
	City          string              `json:"city,omitempty"`
	Disciplines   []string            `json:"disciplines"`
	Club          string              `json:"club,omitempty"`
	ClubID        string              `json:"club_id,omitempty"`
	Coach         string              `json:"coach,omitempty"`
	CoachID       string              `json:"coach_id,omitempty"`
	License       string              `json:"license,omitempty"`
	Status        string              `json:"status"`
	Visibility    string              `json:"visibility"`
	Bio           string              `json:"bio,omitempty"`
	PhotoURL      string              `json:"photo_url,omitempty"`
	Results       []CompetitionResult `json:"results"`
	Achievements  []Achievement       `json:"achievements"`
	Media         []MediaItem         `json:"media"`
	PersonalBests PersonalBests       `json:"personal_bests"`
	Stats         AthleteStats        `json:"stats"`
	RegisteredAt  time.Time           `json:"registered_at"`
	LastUpdated   time.Time           `json:"last_updated"`
}

// AthletePatch carries a shallow partial update; nil fields are left as is.
type AthletePatch struct {
	FirstName    *string        `json:"first_name,omitempty"`
	LastName     *string        `json:"last_name,omitempty"`
	MiddleName   *string        `json:"middle_name,omitempty"`
	Email        *string        `json:"email,omitempty"`
	Phone        *string        `json:"phone,omitempty"`
	DateOfBirth  *time.Time     `json:"date_of_birth,omitempty"`
	Gender       *string        `json:"gender,omitempty"`
	Country      *string        `json:"country,omitempty"`
	City         *string        `json:"city,omitempty"`
	Disciplines  *[]string      `json:"disciplines,omitempty"`
	Club         *string        `json:"club,omitempty"`
	ClubID       *string        `json:"club_id,omitempty"`
	Coach        *string        `json:"coach,omitempty"`
	CoachID      *string        `json:"coach_id,omitempty"`
	License      *string        `json:"license,omitempty"`
	Status       *string        `json:"status,omitempty"`
	Visibility   *string        `json:"visibility,omitempty"`
	Bio          *string        `json:"bio,omitempty"`
	PhotoURL     *string        `json:"photo_url,omitempty"`
	Achievements *[]Achievement `json:"achievements,omitempty"`
}

// CompetitionResult is one placement of one athlete at one competition.
type CompetitionResult struct {
	ID              string    `json:"id"`
	CompetitionID   string    `json:"competition_id,omitempty"`
	CompetitionName string    `json:"competition_name"`
	CompetitionType string    `json:"competition_type,omitempty"`
	Date            time.Time `json:"date"`
	Location        string    `json:"location,omitempty"`
	Category        string    `json:"category,omitempty"`
	Discipline      string    `json:"discipline,omitempty"`
	Rank            *int      `json:"rank,omitempty"`
	TotalScore      *float64  `json:"total_score,omitempty"`
	Technique       *float64  `json:"technique,omitempty"`
	Artistry        *float64  `json:"artistry,omitempty"`
	Execution       *float64  `json:"execution,omitempty"`
	Difficulty      *float64  `json:"difficulty,omitempty"`
	IsPersonalBest  bool      `json:"is_personal_best"`
	MediaIDs        []string  `json:"media_ids,omitempty"`
}

// ResultPatch carries a shallow partial update of a result.
type ResultPatch struct {
	CompetitionID   *string    `json:"competition_id,omitempty"`
	CompetitionName *string    `json:"competition_name,omitempty"`
	CompetitionType *string    `json:"competition_type,omitempty"`
	Date            *time.Time `json:"date,omitempty"`
	Location        *string    `json:"location,omitempty"`
	Category        *string    `json:"category,omitempty"`
	Discipline      *string    `json:"discipline,omitempty"`
	Rank            *int       `json:"rank,omitempty"`
	TotalScore      *float64   `json:"total_score,omitempty"`
	Technique       *float64   `json:"technique,omitempty"`
	Artistry        *float64   `json:"artistry,omitempty"`
	Execution       *float64   `json:"execution,omitempty"`
	Difficulty      *float64   `json:"difficulty,omitempty"`
	IsPersonalBest  *bool      `json:"is_personal_best,omitempty"`
	MediaIDs        *[]string  `json:"media_ids,omitempty"`
}

// Achievement is a free-form career highlight (title, record, award).
type Achievement struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description,omitempty"`
	Type        string    `json:"type,omitempty"`
	Date        time.Time `json:"date"`
}

// MediaItem is a photo or video attached to an athlete profile.
type MediaItem struct {
	ID            string    `json:"id"`
	Type          string    `json:"type"`
	URL           string    `json:"url"`
	ThumbnailURL  string    `json:"thumbnail_url,omitempty"`
	Title         string    `json:"title,omitempty"`
	Description   string    `json:"description,omitempty"`
	CompetitionID string    `json:"competition_id,omitempty"`
	UploadedAt    time.Time `json:"uploaded_at"`
}

// ScoreRecord is the competition where a personal best was set.
type ScoreRecord struct {
	Score           float64   `json:"score"`
	CompetitionID   string    `json:"competition_id,omitempty"`
	CompetitionName string    `json:"competition_name,omitempty"`
	Date            time.Time `json:"date"`
}

// PersonalBests tracks the highest score per score type.
type PersonalBests struct {
	TotalScore *ScoreRecord `json:"total_score,omitempty"`
	Technique  *ScoreRecord `json:"technique,omitempty"`
	Artistry   *ScoreRecord `json:"artistry,omitempty"`
}

// MedalCounts counts podium places by medal.
type MedalCounts struct {
	Gold   int `json:"gold"`
	Silver int `json:"silver"`
	Bronze int `json:"bronze"`
}

// DisciplineStat summarizes results within one discipline.
// BestRank is nil when no ranked result exists for the discipline.
type DisciplineStat struct {
	Competitions int     `json:"competitions"`
	BestRank     *int    `json:"best_rank"`
	AverageScore float64 `json:"average_score"`
}

// AthleteStats is derived from the result list and never persisted on its own.
type AthleteStats struct {
	TotalCompetitions  int                       `json:"total_competitions"`
	Wins               int                       `json:"wins"`
	Podiums            int                       `json:"podiums"`
	AverageScore       float64                   `json:"average_score"`
	BestScore          float64                   `json:"best_score"`
	MedalsByType       MedalCounts               `json:"medals_by_type"`
	CompetitionsByYear map[string]int            `json:"competitions_by_year"`
	DisciplineStats    map[string]DisciplineStat `json:"discipline_stats"`
}

// AthleteFilter narrows an athlete listing; every set field must match.
type AthleteFilter struct {
	Discipline string
	Country    string
	License    string
	Surname    string
	Status     string
}

// StorageStats aggregates the whole athlete collection.
type StorageStats struct {
	TotalAthletes     int            `json:"total_athletes"`
	ByStatus          map[string]int `json:"by_status"`
	ByDiscipline      map[string]int `json:"by_discipline"`
	ByCountry         map[string]int `json:"by_country"`
	TotalCompetitions int            `json:"total_competitions"`
	TotalMedia        int            `json:"total_media"`
}
