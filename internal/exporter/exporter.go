// Package exporter writes start lists downloaded from the competition
// platform into the files the timing system reads: one ".evt" file per
// event, a "schedule.sch" schedule and a "lynx.cfg" configuration file.
package exporter

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/spf13/afero"

	"github.com/stacklok/lynx-sync-agent/internal/remote"
)

const (
	// StartListExtension is the extension of exported start list files
	StartListExtension = ".evt"
	// ScheduleFileName is the name of the exported schedule
	ScheduleFileName = "schedule.sch"
	// TimingConfigFileName is the name of the exported timing system configuration
	TimingConfigFileName = "lynx.cfg"
	// DefaultRetention is how long exported start lists are kept before cleanup
	DefaultRetention = 24 * time.Hour

	maxNameLength  = 50
	writeProbeName = ".lynx-sync-write-test"
)

var (
	// ErrDirectoryNotFound is returned when the export directory does not exist
	ErrDirectoryNotFound = errors.New("export directory not found")
	// ErrPermissionDenied is returned when the export directory is not accessible or writable
	ErrPermissionDenied = errors.New("permission denied on export directory")
	// ErrNotDirectory is returned when the export path is a file
	ErrNotDirectory = errors.New("export path is not a directory")

	forbiddenChars = regexp.MustCompile(`[<>:"/\\|?*]`)
	whitespaceRuns = regexp.MustCompile(`\s+`)
	fieldCleaner   = strings.NewReplacer(",", " ", "\r", " ", "\n", " ")
)

// Metadata describes the competition and the directories the timing system uses
type Metadata struct {
	CompetitionID   string
	CompetitionName string
	ServerURL       string
	TimingSystem    string
	// StartListDir is where the timing system reads start lists (the export directory)
	StartListDir string
	// ResultDir is where the timing system writes result files (the watched directory)
	ResultDir string
}

// ExportResult summarizes an export run
type ExportResult struct {
	Files   []string
	Removed int
	Errors  []error
}

// Err joins the per file errors, or returns nil when every file was written
func (r *ExportResult) Err() error {
	if r == nil {
		return nil
	}
	return errors.Join(r.Errors...)
}

// Option configures an Exporter
type Option func(*Exporter)

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(e *Exporter) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithClock sets the time source used by Cleanup
func WithClock(now func() time.Time) Option {
	return func(e *Exporter) {
		if now != nil {
			e.now = now
		}
	}
}

// WithRetention sets how old an exported start list must be before ExportAll removes it
func WithRetention(d time.Duration) Option {
	return func(e *Exporter) {
		if d > 0 {
			e.retention = d
		}
	}
}

// Exporter writes timing system input files into a directory
type Exporter struct {
	fs        afero.Fs
	dir       string
	logger    *slog.Logger
	now       func() time.Time
	retention time.Duration
}

// New creates an exporter writing into dir on fsys
func New(fsys afero.Fs, dir string, opts ...Option) *Exporter {
	e := &Exporter{
		fs:        fsys,
		dir:       dir,
		logger:    slog.Default(),
		now:       time.Now,
		retention: DefaultRetention,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Dir returns the export directory
func (e *Exporter) Dir() string {
	return e.dir
}

// SanitizeName makes s safe for use in a file name: characters rejected by
// common file systems are removed, whitespace runs become a single
// underscore and the result is cut to 50 characters.
func SanitizeName(s string) string {
	s = forbiddenChars.ReplaceAllString(s, "")
	s = whitespaceRuns.ReplaceAllString(s, "_")
	if r := []rune(s); len(r) > maxNameLength {
		s = string(r[:maxNameLength])
	}
	return s
}

// EventFileName returns the start list file name of ev
func EventFileName(ev remote.StartListEvent) string {
	return fmt.Sprintf("Event_%s_%s_%s_%s%s",
		SanitizeName(ev.EventNumber.String()),
		SanitizeName(ev.EventName.String()),
		SanitizeName(ev.Round.String()),
		SanitizeName(ev.Heat.String()),
		StartListExtension)
}

// ValidateDirectory checks that dir exists, is a directory and is writable
func (e *Exporter) ValidateDirectory(dir string) error {
	info, err := e.fs.Stat(dir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return fmt.Errorf("%w: %s", ErrDirectoryNotFound, dir)
	case errors.Is(err, fs.ErrPermission):
		return fmt.Errorf("%w: %s", ErrPermissionDenied, dir)
	case err != nil:
		return fmt.Errorf("failed to access export directory %s: %w", dir, err)
	case !info.IsDir():
		return fmt.Errorf("%w: %s", ErrNotDirectory, dir)
	}

	probe := filepath.Join(dir, writeProbeName)
	f, err := e.fs.OpenFile(probe, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		if errors.Is(err, fs.ErrPermission) {
			return fmt.Errorf("%w: %s", ErrPermissionDenied, dir)
		}
		return fmt.Errorf("failed to write to export directory %s: %w", dir, err)
	}
	_ = f.Close()
	_ = e.fs.Remove(probe)
	return nil
}

// WriteStartList writes the start list file of one event and returns its path
func (e *Exporter) WriteStartList(ev remote.StartListEvent) (string, error) {
	var b strings.Builder
	// number,round,heat,name,,,,,,time
	writeRow(&b,
		ev.EventNumber.String(), ev.Round.String(), ev.Heat.String(), ev.EventName.String(),
		"", "", "", "", "", ev.ScheduledTime.String())

	for _, reg := range ev.Registrations {
		given, surname := reg.Names()
		// ,startNumber,surname,givenName,club,,,license
		writeRow(&b,
			"", reg.StartNumber.String(), surname, given, reg.Club.String(),
			"", "", reg.LicenseNumber.String())
	}

	path := filepath.Join(e.dir, EventFileName(ev))
	if err := e.writeFile(path, b.String()); err != nil {
		return "", err
	}
	return path, nil
}

// WriteSchedule writes the schedule file listing every event and returns its path
func (e *Exporter) WriteSchedule(events []remote.StartListEvent) (string, error) {
	var b strings.Builder
	for _, ev := range events {
		writeRow(&b, ev.EventNumber.String(), ev.Round.String(), ev.Heat.String(), ev.ScheduledTime.String())
	}

	path := filepath.Join(e.dir, ScheduleFileName)
	if err := e.writeFile(path, b.String()); err != nil {
		return "", err
	}
	return path, nil
}

// Cleanup removes files with extension ext from the export directory whose
// modification time is older than maxAge. It returns the number removed.
func (e *Exporter) Cleanup(ext string, maxAge time.Duration) (int, error) {
	entries, err := afero.ReadDir(e.fs, e.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to list export directory %s: %w", e.dir, err)
	}

	cutoff := e.now().Add(-maxAge)
	removed := 0
	var errs []error
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ext) {
			continue
		}
		if !entry.ModTime().Before(cutoff) {
			continue
		}
		path := filepath.Join(e.dir, entry.Name())
		if err := e.fs.Remove(path); err != nil {
			errs = append(errs, fmt.Errorf("failed to remove %s: %w", path, err))
			continue
		}
		removed++
	}

	if removed > 0 {
		e.logger.Info("Removed stale exports", "dir", e.dir, "extension", ext, "removed", removed)
	}
	return removed, errors.Join(errs...)
}

// ExportAll validates the export directory, removes stale start lists and
// writes every start list, the schedule and the timing configuration. A
// failure on one file does not stop the others; those failures are in
// ExportResult.Errors. The returned error is only set when the directory
// itself is unusable.
func (e *Exporter) ExportAll(events []remote.StartListEvent, meta Metadata) (*ExportResult, error) {
	if err := e.ValidateDirectory(e.dir); err != nil {
		return nil, err
	}

	result := &ExportResult{}

	removed, err := e.Cleanup(StartListExtension, e.retention)
	result.Removed = removed
	if err != nil {
		result.Errors = append(result.Errors, err)
	}

	for _, ev := range events {
		path, err := e.WriteStartList(ev)
		if err != nil {
			result.Errors = append(result.Errors, err)
			continue
		}
		result.Files = append(result.Files, path)
	}

	if path, err := e.WriteSchedule(events); err != nil {
		result.Errors = append(result.Errors, err)
	} else {
		result.Files = append(result.Files, path)
	}

	if path, err := e.WriteTimingConfig(meta); err != nil {
		result.Errors = append(result.Errors, err)
	} else {
		result.Files = append(result.Files, path)
	}

	e.logger.Info("Exported start lists",
		"dir", e.dir,
		"events", len(events),
		"files", len(result.Files),
		"errors", len(result.Errors))

	return result, nil
}

// writeFile writes content to a temporary file and renames it into place so
// the timing system never reads a half written file
func (e *Exporter) writeFile(path, content string) error {
	tmp := filepath.Join(filepath.Dir(path), "."+filepath.Base(path)+".tmp")
	if err := afero.WriteFile(e.fs, tmp, []byte(content), 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := e.fs.Rename(tmp, path); err != nil {
		_ = e.fs.Remove(tmp)
		return fmt.Errorf("failed to move %s into place: %w", path, err)
	}
	return nil
}

// writeRow writes one comma separated line. Commas and line breaks inside
// values would corrupt the format and are replaced by spaces.
func writeRow(b *strings.Builder, fields ...string) {
	for i, f := range fields {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(fieldCleaner.Replace(strings.TrimSpace(f)))
	}
	b.WriteByte('\n')
}
