package exporter

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sebdah/goldie/v2"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/ini.v1"

	"github.com/stacklok/lynx-sync-agent/internal/lif"
	"github.com/stacklok/lynx-sync-agent/internal/remote"
)

const exportDir = "/export"

func sampleEvents() []remote.StartListEvent {
	return []remote.StartListEvent{
		{
			EventNumber:   "12",
			EventName:     "100m Men",
			Round:         "1",
			Heat:          "2",
			ScheduledTime: "14:05",
			Registrations: []remote.Registration{
				{FirstName: "Anna", LastName: "Berg", Club: "IFK Lund", StartNumber: "101", LicenseNumber: "L-1"},
				{AthleteName: "Erik Lund", Club: "Hammarby, IF", StartNumber: "102", LicenseNumber: "L-2"},
			},
		},
		{
			EventNumber:   "13",
			EventName:     "200m Women: Final",
			Round:         "1",
			Heat:          "1",
			ScheduledTime: "14:20",
		},
	}
}

func newMemExporter(t *testing.T, opts ...Option) (afero.Fs, *Exporter) {
	t.Helper()
	fsys := afero.NewMemMapFs()
	require.NoError(t, fsys.MkdirAll(exportDir, 0o755))
	return fsys, New(fsys, exportDir, opts...)
}

func TestSanitizeName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "plain", input: "100m", want: "100m"},
		{name: "spaces become underscores", input: "100m  Men\tFinal", want: "100m_Men_Final"},
		{name: "forbidden characters removed", input: `Long<>:"/\|?*Jump`, want: "LongJump"},
		{name: "leading and trailing whitespace", input: " Shot Put ", want: "_Shot_Put_"},
		{name: "truncated to fifty", input: strings.Repeat("a", 60), want: strings.Repeat("a", 50)},
		{name: "truncation counts runes", input: strings.Repeat("ö", 55), want: strings.Repeat("ö", 50)},
		{name: "empty", input: "", want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got := SanitizeName(tt.input)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, got, SanitizeName(got), "sanitizing twice must not change the result")
			assert.LessOrEqual(t, len([]rune(got)), 50)
		})
	}
}

func TestEventFileName(t *testing.T) {
	t.Parallel()

	events := sampleEvents()
	assert.Equal(t, "Event_12_100m_Men_1_2.evt", EventFileName(events[0]))
	assert.Equal(t, "Event_13_200m_Women_Final_1_1.evt", EventFileName(events[1]))
}

func TestWriteStartList_Golden(t *testing.T) {
	t.Parallel()

	fsys, exp := newMemExporter(t)

	path, err := exp.WriteStartList(sampleEvents()[0])
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(exportDir, "Event_12_100m_Men_1_2.evt"), path)

	data, err := afero.ReadFile(fsys, path)
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "start_list", data)

	// The file must be readable by the start list parser
	parsed, err := lif.ParseStartList(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, parsed, 1)
	assert.Equal(t, "100m Men", parsed[0].EventName)
	assert.Equal(t, "14:05", parsed[0].ScheduledTime)
	require.Len(t, parsed[0].Athletes, 2)
	assert.Equal(t, "Berg", parsed[0].Athletes[0].Surname)
	assert.Equal(t, "Anna", parsed[0].Athletes[0].GivenName)
	assert.Equal(t, "L-2", parsed[0].Athletes[1].LicenseNumber)
}

func TestWriteSchedule_Golden(t *testing.T) {
	t.Parallel()

	fsys, exp := newMemExporter(t)

	path, err := exp.WriteSchedule(sampleEvents())
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(exportDir, ScheduleFileName), path)

	data, err := afero.ReadFile(fsys, path)
	require.NoError(t, err)

	g := goldie.New(t)
	g.Assert(t, "schedule", data)

	entries, err := lif.ParseSchedule(bytes.NewReader(data))
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "14:20", entries[1].Time)
}

func TestWriteTimingConfig(t *testing.T) {
	t.Parallel()

	fsys, exp := newMemExporter(t)

	path, err := exp.WriteTimingConfig(Metadata{
		CompetitionID:   "comp-7",
		CompetitionName: "Indoor Games",
		ServerURL:       "https://results.example.org",
		StartListDir:    `C:\Lynx\Input`,
		ResultDir:       `C:\Lynx\Output`,
	})
	require.NoError(t, err)

	data, err := afero.ReadFile(fsys, path)
	require.NoError(t, err)

	cfg, err := ini.Load(data)
	require.NoError(t, err)
	assert.Equal(t, `C:\Lynx\Input`, cfg.Section("Directories").Key("Input").String())
	assert.Equal(t, `C:\Lynx\Output`, cfg.Section("Directories").Key("Output").String())
	assert.Equal(t, "comp-7", cfg.Section("Competition").Key("Id").String())
	assert.Equal(t, "Indoor Games", cfg.Section("Competition").Key("Name").String())
	assert.Equal(t, "https://results.example.org", cfg.Section("Competition").Key("Server").String())
	assert.Equal(t, DefaultTimingSystem, cfg.Section("Competition").Key("TimingSystem").String())

	exists, err := afero.Exists(fsys, filepath.Join(exportDir, "."+TimingConfigFileName+".tmp"))
	require.NoError(t, err)
	assert.False(t, exists, "temporary file should be renamed")
}

func TestValidateDirectory(t *testing.T) {
	t.Parallel()

	base := afero.NewMemMapFs()
	require.NoError(t, base.MkdirAll(exportDir, 0o755))
	require.NoError(t, afero.WriteFile(base, "/file.txt", []byte("x"), 0o644))

	tests := []struct {
		name    string
		fs      afero.Fs
		dir     string
		wantErr error
	}{
		{name: "writable directory", fs: base, dir: exportDir},
		{name: "missing directory", fs: base, dir: "/missing", wantErr: ErrDirectoryNotFound},
		{name: "file instead of directory", fs: base, dir: "/file.txt", wantErr: ErrNotDirectory},
		{name: "read only", fs: afero.NewReadOnlyFs(base), dir: exportDir, wantErr: ErrPermissionDenied},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := New(tt.fs, tt.dir).ValidateDirectory(tt.dir)
			if tt.wantErr == nil {
				require.NoError(t, err)
				exists, _ := afero.Exists(tt.fs, filepath.Join(tt.dir, writeProbeName))
				assert.False(t, exists, "write probe should be removed")
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCleanup(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	fsys, exp := newMemExporter(t, WithClock(func() time.Time { return now }))

	files := map[string]time.Duration{
		"old.evt":  48 * time.Hour,
		"OLD2.EVT": 25 * time.Hour,
		"new.evt":  time.Hour,
		"old.txt":  48 * time.Hour,
	}
	for name, age := range files {
		path := filepath.Join(exportDir, name)
		require.NoError(t, afero.WriteFile(fsys, path, []byte("x"), 0o644))
		require.NoError(t, fsys.Chtimes(path, now.Add(-age), now.Add(-age)))
	}

	removed, err := exp.Cleanup(StartListExtension, 24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, 2, removed)

	remaining, err := afero.ReadDir(fsys, exportDir)
	require.NoError(t, err)
	var names []string
	for _, fi := range remaining {
		names = append(names, fi.Name())
	}
	assert.ElementsMatch(t, []string{"new.evt", "old.txt"}, names)
}

func TestExportAll(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	fsys, exp := newMemExporter(t, WithClock(func() time.Time { return now }))

	stale := filepath.Join(exportDir, "Event_1_Old_1_1.evt")
	require.NoError(t, afero.WriteFile(fsys, stale, []byte("x"), 0o644))
	require.NoError(t, fsys.Chtimes(stale, now.Add(-30*time.Hour), now.Add(-30*time.Hour)))

	result, err := exp.ExportAll(sampleEvents(), Metadata{CompetitionID: "comp-7"})
	require.NoError(t, err)
	require.NoError(t, result.Err())

	assert.Equal(t, 1, result.Removed)
	assert.Len(t, result.Files, 4)
	for _, f := range result.Files {
		exists, err := afero.Exists(fsys, f)
		require.NoError(t, err)
		assert.True(t, exists, f)
	}

	_, err = fsys.Stat(stale)
	assert.True(t, os.IsNotExist(err))
}

func TestExportAll_InvalidDirectory(t *testing.T) {
	t.Parallel()

	exp := New(afero.NewMemMapFs(), "/nowhere")
	result, err := exp.ExportAll(sampleEvents(), Metadata{})
	assert.Nil(t, result)
	assert.ErrorIs(t, err, ErrDirectoryNotFound)
}

func TestExportResult_Err(t *testing.T) {
	t.Parallel()

	var nilResult *ExportResult
	assert.NoError(t, nilResult.Err())
	assert.NoError(t, (&ExportResult{}).Err())
	assert.Error(t, (&ExportResult{Errors: []error{os.ErrClosed}}).Err())
}
