package exporter

import (
	"fmt"
	"path/filepath"

	"gopkg.in/ini.v1"
)

// DefaultTimingSystem is written when the configuration does not name one
const DefaultTimingSystem = "FinishLynx"

// TimingConfig builds the ini document describing the competition and the
// directories the timing system reads from and writes to
func TimingConfig(meta Metadata) (*ini.File, error) {
	cfg := ini.Empty()

	dirs, err := cfg.NewSection("Directories")
	if err != nil {
		return nil, err
	}
	if _, err := dirs.NewKey("Input", meta.StartListDir); err != nil {
		return nil, err
	}
	if _, err := dirs.NewKey("Output", meta.ResultDir); err != nil {
		return nil, err
	}

	comp, err := cfg.NewSection("Competition")
	if err != nil {
		return nil, err
	}
	timing := meta.TimingSystem
	if timing == "" {
		timing = DefaultTimingSystem
	}
	for _, kv := range [][2]string{
		{"Id", meta.CompetitionID},
		{"Name", meta.CompetitionName},
		{"Server", meta.ServerURL},
		{"TimingSystem", timing},
	} {
		if _, err := comp.NewKey(kv[0], kv[1]); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// WriteTimingConfig writes lynx.cfg into the export directory and returns its path
func (e *Exporter) WriteTimingConfig(meta Metadata) (string, error) {
	cfg, err := TimingConfig(meta)
	if err != nil {
		return "", fmt.Errorf("failed to build timing configuration: %w", err)
	}

	path := filepath.Join(e.dir, TimingConfigFileName)
	tmp := filepath.Join(e.dir, "."+TimingConfigFileName+".tmp")

	f, err := e.fs.Create(tmp)
	if err != nil {
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	if _, err := cfg.WriteTo(f); err != nil {
		_ = f.Close()
		_ = e.fs.Remove(tmp)
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		_ = e.fs.Remove(tmp)
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := e.fs.Rename(tmp, path); err != nil {
		_ = e.fs.Remove(tmp)
		return "", fmt.Errorf("failed to move %s into place: %w", path, err)
	}
	return path, nil
}
