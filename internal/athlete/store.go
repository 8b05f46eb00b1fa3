// Package athlete keeps the in-process athlete collection and recomputes
// derived statistics whenever an athlete's results change.
package athlete

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/fusaf/fusaf-service/internal/model"
)

// Store is the authoritative athlete collection of the process.
// All writers are serialized on one lock, so concurrent AddResult calls on the
// same athlete never lose an append. Stats are recomputed after every write
// and reads return the cached value.
type Store struct {
	mu       sync.RWMutex
	athletes []*model.Athlete // insertion order
	byID     map[string]*model.Athlete

	now   func() time.Time
	newID func() string
	log   zerolog.Logger
}

// Option customizes a Store.
type Option func(*Store)

// WithClock overrides the time source used for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithIDGenerator overrides the generator used for missing ids.
func WithIDGenerator(gen func() string) Option {
	return func(s *Store) { s.newID = gen }
}

// NewStore returns an empty store.
func NewStore(logger zerolog.Logger, opts ...Option) *Store {
	s := &Store{
		byID:  make(map[string]*model.Athlete),
		now:   func() time.Time { return time.Now().UTC() },
		newID: func() string { return uuid.NewString() },
		log:   logger.With().Str("module", "athlete").Str("component", "store").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetAll returns a copy of every athlete in insertion order.
func (s *Store) GetAll() []model.Athlete {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Athlete, 0, len(s.athletes))
	for _, a := range s.athletes {
		out = append(out, cloneAthlete(a))
	}
	return out
}

// Len reports the number of stored athletes.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.athletes)
}

// FindByID returns the athlete with its current stats.
func (s *Store) FindByID(id string) (model.Athlete, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	a, ok := s.byID[id]
	if !ok {
		return model.Athlete{}, false
	}
	return cloneAthlete(a), true
}

// FindByEmail returns the athlete whose email matches exactly.
func (s *Store) FindByEmail(email string) (model.Athlete, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if a := s.findByEmailLocked(email); a != nil {
		return cloneAthlete(a), true
	}
	return model.Athlete{}, false
}

func (s *Store) findByEmailLocked(email string) *model.Athlete {
	if email == "" {
		return nil
	}
	for _, a := range s.athletes {
		if a.Email == email {
			return a
		}
	}
	return nil
}

// Add inserts a new athlete after applying defaults. It is a silent no-op
// returning false when an athlete with the same id or email already exists.
func (s *Store) Add(a model.Athlete) (model.Athlete, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if a.ID != "" {
		if _, exists := s.byID[a.ID]; exists {
			s.log.Debug().Str("athlete_id", a.ID).Msg("add skipped: duplicate id")
			return model.Athlete{}, false
		}
	}
	if s.findByEmailLocked(a.Email) != nil {
		s.log.Debug().Str("email", a.Email).Msg("add skipped: duplicate email")
		return model.Athlete{}, false
	}

	stored := cloneAthlete(&a)
	s.applyDefaults(&stored)
	for i := range stored.Results {
		if stored.Results[i].ID == "" {
			stored.Results[i].ID = s.newID()
		}
	}
	s.recompute(&stored)

	s.athletes = append(s.athletes, &stored)
	s.byID[stored.ID] = &stored
	return cloneAthlete(&stored), true
}

func (s *Store) applyDefaults(a *model.Athlete) {
	now := s.now()
	if a.ID == "" {
		a.ID = s.newID()
	}
	if a.Status == "" {
		a.Status = model.AthleteStatusActive
	}
	if a.Visibility == "" {
		a.Visibility = model.VisibilityPublic
	}
	if a.RegisteredAt.IsZero() {
		a.RegisteredAt = now
	}
	a.LastUpdated = now
}

// Update merges the non-nil patch fields into the athlete.
func (s *Store) Update(id string, p model.AthletePatch) (model.Athlete, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[id]
	if !ok {
		return model.Athlete{}, false
	}
	applyAthletePatch(a, p)
	a.LastUpdated = s.now()
	s.recompute(a)
	return cloneAthlete(a), true
}

func applyAthletePatch(a *model.Athlete, p model.AthletePatch) {
	setIf(&a.FirstName, p.FirstName)
	setIf(&a.LastName, p.LastName)
	setIf(&a.MiddleName, p.MiddleName)
	setIf(&a.Email, p.Email)
	setIf(&a.Phone, p.Phone)
	if p.DateOfBirth != nil {
		a.DateOfBirth = clonePtr(p.DateOfBirth)
	}
	setIf(&a.Gender, p.Gender)
	setIf(&a.Country, p.Country)
	setIf(&a.City, p.City)
	if p.Disciplines != nil {
		a.Disciplines = cloneSlice(*p.Disciplines)
	}
	setIf(&a.Club, p.Club)
	setIf(&a.ClubID, p.ClubID)
	setIf(&a.Coach, p.Coach)
	setIf(&a.CoachID, p.CoachID)
	setIf(&a.License, p.License)
	setIf(&a.Status, p.Status)
	setIf(&a.Visibility, p.Visibility)
	setIf(&a.Bio, p.Bio)
	setIf(&a.PhotoURL, p.PhotoURL)
	if p.Achievements != nil {
		a.Achievements = cloneSlice(*p.Achievements)
	}
}

// AddMedia appends a media item to the athlete's gallery.
func (s *Store) AddMedia(athleteID string, m model.MediaItem) (model.MediaItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[athleteID]
	if !ok {
		return model.MediaItem{}, false
	}
	if m.ID == "" {
		m.ID = s.newID()
	}
	if m.UploadedAt.IsZero() {
		m.UploadedAt = s.now()
	}
	a.Media = append(a.Media, m)
	a.LastUpdated = s.now()
	s.recompute(a)
	return m, true
}

// AddResult appends a result. A total score strictly above the stored
// personal best (or the first total score) replaces the personal best and
// flags this result; flags on older results are left untouched.
func (s *Store) AddResult(athleteID string, r model.CompetitionResult) (model.CompetitionResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[athleteID]
	if !ok {
		return model.CompetitionResult{}, false
	}

	r = cloneResult(r)
	if r.ID == "" {
		r.ID = s.newID()
	}
	if improveBest(&a.PersonalBests.TotalScore, r.TotalScore, r) {
		r.IsPersonalBest = true
		s.log.Debug().Str("athlete_id", athleteID).Float64("score", *r.TotalScore).Msg("new personal best")
	}
	improveBest(&a.PersonalBests.Technique, r.Technique, r)
	improveBest(&a.PersonalBests.Artistry, r.Artistry, r)

	a.Results = append(a.Results, r)
	a.LastUpdated = s.now()
	s.recompute(a)
	return cloneResult(r), true
}

func improveBest(best **model.ScoreRecord, score *float64, r model.CompetitionResult) bool {
	if score == nil {
		return false
	}
	if *best != nil && *score <= (*best).Score {
		return false
	}
	*best = &model.ScoreRecord{
		Score:           *score,
		CompetitionID:   r.CompetitionID,
		CompetitionName: r.CompetitionName,
		Date:            r.Date,
	}
	return true
}

// UpdateResult merges the patch into one result of the athlete.
func (s *Store) UpdateResult(athleteID, resultID string, p model.ResultPatch) (model.CompetitionResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[athleteID]
	if !ok {
		return model.CompetitionResult{}, false
	}
	idx := indexOfResult(a.Results, resultID)
	if idx < 0 {
		return model.CompetitionResult{}, false
	}
	applyResultPatch(&a.Results[idx], p)
	a.LastUpdated = s.now()
	s.recompute(a)
	return cloneResult(a.Results[idx]), true
}

func applyResultPatch(r *model.CompetitionResult, p model.ResultPatch) {
	setIf(&r.CompetitionID, p.CompetitionID)
	setIf(&r.CompetitionName, p.CompetitionName)
	setIf(&r.CompetitionType, p.CompetitionType)
	setIf(&r.Date, p.Date)
	setIf(&r.Location, p.Location)
	setIf(&r.Category, p.Category)
	setIf(&r.Discipline, p.Discipline)
	if p.Rank != nil {
		r.Rank = clonePtr(p.Rank)
	}
	if p.TotalScore != nil {
		r.TotalScore = clonePtr(p.TotalScore)
	}
	if p.Technique != nil {
		r.Technique = clonePtr(p.Technique)
	}
	if p.Artistry != nil {
		r.Artistry = clonePtr(p.Artistry)
	}
	if p.Execution != nil {
		r.Execution = clonePtr(p.Execution)
	}
	if p.Difficulty != nil {
		r.Difficulty = clonePtr(p.Difficulty)
	}
	setIf(&r.IsPersonalBest, p.IsPersonalBest)
	if p.MediaIDs != nil {
		r.MediaIDs = cloneSlice(*p.MediaIDs)
	}
}

// DeleteResult removes one result of the athlete.
func (s *Store) DeleteResult(athleteID, resultID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[athleteID]
	if !ok {
		return false
	}
	idx := indexOfResult(a.Results, resultID)
	if idx < 0 {
		return false
	}
	a.Results = append(a.Results[:idx], a.Results[idx+1:]...)
	a.LastUpdated = s.now()
	s.recompute(a)
	return true
}

func indexOfResult(results []model.CompetitionResult, id string) int {
	for i := range results {
		if results[i].ID == id {
			return i
		}
	}
	return -1
}

// Remove hard-deletes an athlete.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return false
	}
	delete(s.byID, id)
	for i, a := range s.athletes {
		if a.ID == id {
			s.athletes = append(s.athletes[:i], s.athletes[i+1:]...)
			break
		}
	}
	return true
}

// Filter returns athletes matching every set criterion. Discipline, country
// and status treat "all" as unset; license and surname match
// case-insensitive substrings.
func (s *Store) Filter(f model.AthleteFilter) []model.Athlete {
	license := strings.ToLower(strings.TrimSpace(f.License))
	surname := strings.ToLower(strings.TrimSpace(f.Surname))

	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Athlete, 0)
	for _, a := range s.athletes {
		if active(f.Discipline) && !containsString(a.Disciplines, f.Discipline) {
			continue
		}
		if active(f.Country) && a.Country != f.Country {
			continue
		}
		if active(f.Status) && a.Status != f.Status {
			continue
		}
		if license != "" && !strings.Contains(strings.ToLower(a.License), license) {
			continue
		}
		if surname != "" && !strings.Contains(strings.ToLower(a.LastName), surname) {
			continue
		}
		out = append(out, cloneAthlete(a))
	}
	return out
}

func active(v string) bool { return v != "" && v != model.FilterAll }

func containsString(list []string, v string) bool {
	for _, it := range list {
		if it == v {
			return true
		}
	}
	return false
}

// Stats aggregates counts across the whole collection.
func (s *Store) Stats() model.StorageStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := model.StorageStats{
		TotalAthletes: len(s.athletes),
		ByStatus:      make(map[string]int),
		ByDiscipline:  make(map[string]int),
		ByCountry:     make(map[string]int),
	}
	for _, a := range s.athletes {
		out.ByStatus[a.Status]++
		for _, d := range a.Disciplines {
			out.ByDiscipline[d]++
		}
		if a.Country != "" {
			out.ByCountry[a.Country]++
		}
		out.TotalCompetitions += len(a.Results)
		out.TotalMedia += len(a.Media)
	}
	return out
}

// Snapshot returns a copy of the whole collection for backups.
func (s *Store) Snapshot() []model.Athlete { return s.GetAll() }

// Restore replaces the whole collection, e.g. from a backup snapshot, and
// returns how many athletes were kept. Entries repeating an earlier id or
// email are skipped as Add would. Stats are recomputed rather than trusted.
func (s *Store) Restore(athletes []model.Athlete) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.athletes = make([]*model.Athlete, 0, len(athletes))
	s.byID = make(map[string]*model.Athlete, len(athletes))
	emails := make(map[string]struct{}, len(athletes))
	for i := range athletes {
		a := cloneAthlete(&athletes[i])
		if a.ID == "" {
			a.ID = s.newID()
		}
		if _, dup := s.byID[a.ID]; dup {
			s.log.Warn().Str("athlete_id", a.ID).Msg("restore: duplicate id skipped")
			continue
		}
		if a.Email != "" {
			if _, dup := emails[a.Email]; dup {
				s.log.Warn().Str("athlete_id", a.ID).Msg("restore: duplicate email skipped")
				continue
			}
			emails[a.Email] = struct{}{}
		}
		s.recompute(&a)
		s.athletes = append(s.athletes, &a)
		s.byID[a.ID] = &a
	}
	s.log.Info().Int("athletes", len(s.athletes)).Msg("store restored")
	return len(s.athletes)
}

// recompute refreshes the cached stats; callers hold the write lock.
func (s *Store) recompute(a *model.Athlete) {
	a.Stats = ComputeStats(a.Results)
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}
