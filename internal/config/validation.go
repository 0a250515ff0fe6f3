package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"
)

// ValidationError lists missing required fields and invalid values
type ValidationError struct {
	Missing []string
	Invalid []string
}

// Error returns the error message
func (e *ValidationError) Error() string {
	var parts []string
	if len(e.Missing) > 0 {
		parts = append(parts, "missing required configuration: "+strings.Join(e.Missing, ", "))
	}
	if len(e.Invalid) > 0 {
		parts = append(parts, "invalid configuration: "+strings.Join(e.Invalid, "; "))
	}
	return strings.Join(parts, "; ")
}

// IsValidationError reports whether err is or wraps a *ValidationError
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Validate checks that every field a sync session needs is present and
// well formed. It returns a *ValidationError or nil.
func (c *Config) Validate() error {
	if c == nil {
		return &ValidationError{Missing: []string{"serverUrl", "apiKey", "inputDir", "outputDir", "competitionId"}}
	}

	ve := &ValidationError{}
	for _, f := range []struct {
		name  string
		value string
	}{
		{"serverUrl", c.ServerURL},
		{"apiKey", c.APIKey},
		{"inputDir", c.InputDir},
		{"outputDir", c.OutputDir},
		{"competitionId", c.CompetitionID},
	} {
		if strings.TrimSpace(f.value) == "" {
			ve.Missing = append(ve.Missing, f.name)
		}
	}

	if err := c.check(); err != nil {
		var inner *ValidationError
		if errors.As(err, &inner) {
			ve.Invalid = append(ve.Invalid, inner.Invalid...)
		}
	}

	if len(ve.Missing) == 0 && len(ve.Invalid) == 0 {
		return nil
	}
	return ve
}

// check validates the values that are set, without requiring any field
func (c *Config) check() error {
	ve := &ValidationError{}

	if c.ServerURL != "" {
		u, err := url.Parse(c.ServerURL)
		switch {
		case err != nil:
			ve.Invalid = append(ve.Invalid, fmt.Sprintf("serverUrl: %v", err))
		case u.Scheme != "http" && u.Scheme != "https":
			ve.Invalid = append(ve.Invalid, "serverUrl: scheme must be http or https")
		case u.Host == "":
			ve.Invalid = append(ve.Invalid, "serverUrl: host is required")
		}
	}
	if c.SyncInterval < 0 {
		ve.Invalid = append(ve.Invalid, "syncInterval: must not be negative")
	}
	if c.StartListInterval < 0 {
		ve.Invalid = append(ve.Invalid, "startListInterval: must not be negative")
	}
	if c.MaxUploadAttempts < 0 {
		ve.Invalid = append(ve.Invalid, "maxUploadAttempts: must not be negative")
	}
	if c.ExportRetention != "" {
		if d, err := time.ParseDuration(c.ExportRetention); err != nil || d <= 0 {
			ve.Invalid = append(ve.Invalid, fmt.Sprintf("exportRetention: %q is not a positive duration", c.ExportRetention))
		}
	}
	if err := c.Telemetry.Validate(); err != nil {
		ve.Invalid = append(ve.Invalid, fmt.Sprintf("telemetry: %v", err))
	}

	if len(ve.Invalid) == 0 {
		return nil
	}
	return ve
}
