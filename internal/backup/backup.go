// Package backup dumps every persisted table plus the in-process athlete
// store into a single checksummed archive, keeps it on disk and optionally
// uploads it to S3 compatible storage. A verified local archive can be
// loaded back into the athlete store.
package backup

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/fusaf/fusaf-service/internal/email"
	"github.com/fusaf/fusaf-service/internal/model"
	"github.com/fusaf/fusaf-service/internal/repository"
)

// AthletesTable names the athlete store snapshot inside an archive.
const AthletesTable = "athletes"

var (
	// ErrRunning is returned when a backup or restore is requested while
	// another one runs.
	ErrRunning = errors.New("backup already running")
	// ErrCorrupt means an archive failed to decode or verify.
	ErrCorrupt = errors.New("backup archive is corrupt")
)

// AthleteStore is the in-process collection carried in every archive.
type AthleteStore interface {
	Snapshot() []model.Athlete
	Restore(athletes []model.Athlete) int
}

// Uploader stores a finished archive remotely and returns its location.
type Uploader interface {
	Upload(ctx context.Context, name string, body []byte) (string, error)
}

// TableChecksum describes one dumped table.
type TableChecksum struct {
	Name   string `json:"name"`
	Rows   int    `json:"rows"`
	SHA256 string `json:"sha256"`
}

// Manifest is the archive header. Checksum covers the table checksums in
// name order.
type Manifest struct {
	ID        string          `json:"id"`
	CreatedAt time.Time       `json:"created_at"`
	Tables    []TableChecksum `json:"tables"`
	Checksum  string          `json:"checksum"`
	File      string          `json:"file"`
	Location  string          `json:"location,omitempty"`
}

// Archive is the on-disk document.
type Archive struct {
	Manifest Manifest                   `json:"manifest"`
	Tables   map[string]json.RawMessage `json:"tables"`
}

type Service struct {
	dumper   repository.TableDumper
	athletes AthleteStore
	uploader Uploader
	alerts   email.Sender
	adminTo  string
	dir      string
	now      func() time.Time
	log      zerolog.Logger

	mu      sync.Mutex
	running bool
	last    *Manifest
}

type Option func(*Service)

// WithUploader enables remote upload.
func WithUploader(u Uploader) Option { return func(s *Service) { s.uploader = u } }

// WithAlerts emails admin when a run fails.
func WithAlerts(sender email.Sender, admin string) Option {
	return func(s *Service) { s.alerts, s.adminTo = sender, admin }
}

func WithClock(now func() time.Time) Option { return func(s *Service) { s.now = now } }

func New(dumper repository.TableDumper, athletes AthleteStore, dir string, logger zerolog.Logger, opts ...Option) *Service {
	s := &Service{
		dumper:   dumper,
		athletes: athletes,
		dir:      dir,
		now:      time.Now,
		log:      logger.With().Str("module", "backup").Str("component", "service").Logger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Last returns the manifest of the latest successful run.
func (s *Service) Last() (Manifest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return Manifest{}, false
	}
	return *s.last, true
}

func (s *Service) acquire() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.running {
		return ErrRunning
	}
	s.running = true
	return nil
}

func (s *Service) release() {
	s.mu.Lock()
	s.running = false
	s.mu.Unlock()
}

// Run produces one archive. A failed run sends an alert when configured.
func (s *Service) Run(ctx context.Context) (Manifest, error) {
	if err := s.acquire(); err != nil {
		return Manifest{}, err
	}
	defer s.release()

	start := s.now()
	m, err := s.run(ctx, start)
	if err != nil {
		s.log.Error().Err(err).Msg("backup failed")
		s.alert(ctx, start, err)
		return Manifest{}, err
	}

	s.mu.Lock()
	s.last = &m
	s.mu.Unlock()
	s.log.Info().Str("id", m.ID).Int("tables", len(m.Tables)).Str("location", m.Location).Msg("backup completed")
	return m, nil
}

func (s *Service) run(ctx context.Context, start time.Time) (Manifest, error) {
	tables := s.dumper.Tables()
	dumps := make([]json.RawMessage, len(tables))
	counts := make([]int, len(tables))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, table := range tables {
		g.Go(func() error {
			rows, err := s.dumper.DumpTable(gctx, table)
			if err != nil {
				return fmt.Errorf("dump %s: %w", table, err)
			}
			raw, err := json.Marshal(rows)
			if err != nil {
				return fmt.Errorf("encode %s: %w", table, err)
			}
			dumps[i], counts[i] = raw, len(rows)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Manifest{}, err
	}

	archive := Archive{Tables: make(map[string]json.RawMessage, len(tables)+1)}
	m := Manifest{ID: start.UTC().Format("20060102T150405Z"), CreatedAt: start.UTC()}
	for i, table := range tables {
		archive.Tables[table] = dumps[i]
		m.Tables = append(m.Tables, checksum(table, counts[i], dumps[i]))
	}
	if s.athletes != nil {
		snap := s.athletes.Snapshot()
		raw, err := json.Marshal(snap)
		if err != nil {
			return Manifest{}, fmt.Errorf("encode athletes: %w", err)
		}
		archive.Tables[AthletesTable] = raw
		m.Tables = append(m.Tables, checksum(AthletesTable, len(snap), raw))
	}
	sort.Slice(m.Tables, func(i, j int) bool { return m.Tables[i].Name < m.Tables[j].Name })
	m.Checksum = ManifestChecksum(m.Tables)
	m.File = archiveFile(m.ID)

	archive.Manifest = m
	body, err := json.MarshalIndent(archive, "", "  ")
	if err != nil {
		return Manifest{}, fmt.Errorf("encode archive: %w", err)
	}
	if err := os.MkdirAll(s.dir, 0o750); err != nil {
		return Manifest{}, fmt.Errorf("create backup dir: %w", err)
	}
	path := filepath.Join(s.dir, m.File)
	if err := os.WriteFile(path, body, 0o640); err != nil {
		return Manifest{}, fmt.Errorf("write archive: %w", err)
	}
	m.Location = path

	if s.uploader != nil {
		loc, err := s.uploader.Upload(ctx, m.File, body)
		if err != nil {
			return Manifest{}, fmt.Errorf("upload archive: %w", err)
		}
		m.Location = loc
	}
	return m, nil
}

func archiveFile(id string) string { return "fusaf-backup-" + id + ".json" }

// RestoreReport describes a finished restore.
type RestoreReport struct {
	ID       string `json:"id"`
	Athletes int    `json:"athletes"`
}

// Load reads and verifies the local archive with the given manifest id.
func (s *Service) Load(id string) (Archive, error) {
	if id == "" || strings.ContainsAny(id, `/\.`) {
		return Archive{}, fmt.Errorf("backup %q: %w", id, repository.ErrNotFound)
	}
	raw, err := os.ReadFile(filepath.Join(s.dir, archiveFile(id)))
	if errors.Is(err, fs.ErrNotExist) {
		return Archive{}, fmt.Errorf("backup %s: %w", id, repository.ErrNotFound)
	}
	if err != nil {
		return Archive{}, fmt.Errorf("read archive: %w", err)
	}
	var a Archive
	if err := json.Unmarshal(raw, &a); err != nil {
		return Archive{}, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if err := Verify(a); err != nil {
		return Archive{}, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	return a, nil
}

// Restore replaces the athlete store with the snapshot of a verified
// archive. Persisted tables are left to database tooling.
func (s *Service) Restore(ctx context.Context, id string) (RestoreReport, error) {
	if s.athletes == nil {
		return RestoreReport{}, errors.New("no athlete store to restore into")
	}
	if err := s.acquire(); err != nil {
		return RestoreReport{}, err
	}
	defer s.release()

	a, err := s.Load(id)
	if err != nil {
		return RestoreReport{}, err
	}
	raw, ok := a.Tables[AthletesTable]
	if !ok {
		return RestoreReport{}, fmt.Errorf("%w: no %s table", ErrCorrupt, AthletesTable)
	}
	var athletes []model.Athlete
	if err := json.Unmarshal(raw, &athletes); err != nil {
		return RestoreReport{}, fmt.Errorf("%w: %w", ErrCorrupt, err)
	}
	if err := ctx.Err(); err != nil {
		return RestoreReport{}, err
	}
	n := s.athletes.Restore(athletes)
	s.log.Warn().Str("id", id).Int("athletes", n).Int("skipped", len(athletes)-n).Msg("athlete store restored from backup")
	return RestoreReport{ID: id, Athletes: n}, nil
}

// checksum hashes the compact form of raw, so the indentation of the archive
// file does not matter.
func checksum(name string, rows int, raw []byte) TableChecksum {
	var buf bytes.Buffer
	if err := json.Compact(&buf, raw); err == nil {
		raw = buf.Bytes()
	}
	sum := sha256.Sum256(raw)
	return TableChecksum{Name: name, Rows: rows, SHA256: hex.EncodeToString(sum[:])}
}

// ManifestChecksum hashes "name:sha256\n" lines of tables in the given order.
func ManifestChecksum(tables []TableChecksum) string {
	h := sha256.New()
	for _, t := range tables {
		fmt.Fprintf(h, "%s:%s\n", t.Name, t.SHA256)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Verify recomputes every checksum of an archive.
func Verify(a Archive) error {
	var errs []error
	for _, t := range a.Manifest.Tables {
		raw, ok := a.Tables[t.Name]
		if !ok {
			errs = append(errs, fmt.Errorf("table %s missing", t.Name))
			continue
		}
		if got := checksum(t.Name, t.Rows, raw).SHA256; got != t.SHA256 {
			errs = append(errs, fmt.Errorf("table %s checksum mismatch", t.Name))
		}
	}
	if ManifestChecksum(a.Manifest.Tables) != a.Manifest.Checksum {
		errs = append(errs, errors.New("manifest checksum mismatch"))
	}
	return errors.Join(errs...)
}

func (s *Service) alert(ctx context.Context, at time.Time, cause error) {
	if s.alerts == nil || s.adminTo == "" {
		return
	}
	var b strings.Builder
	fmt.Fprintf(&b, "## Резервне копіювання не вдалося\n\n")
	fmt.Fprintf(&b, "- час: %s\n", at.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "- помилка: `%s`\n", cause.Error())
	_, err := s.alerts.Send(ctx, email.Message{
		To:       []string{s.adminTo},
		Subject:  "FUSAF: помилка резервного копіювання",
		Markdown: b.String(),
	})
	if err != nil {
		s.log.Error().Err(err).Msg("backup alert not delivered")
	}
}
