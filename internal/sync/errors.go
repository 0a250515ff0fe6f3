package sync

import (
	"errors"
	"io/fs"
	"os"

	"github.com/stacklok/lynx-sync-agent/internal/config"
	"github.com/stacklok/lynx-sync-agent/internal/exporter"
	"github.com/stacklok/lynx-sync-agent/internal/remote"
)

// Kind classifies a sync failure
type Kind string

const (
	KindConfiguration Kind = "configuration"
	KindConnectivity  Kind = "connectivity"
	KindServer        Kind = "server"
	KindClient        Kind = "client"
	KindFilesystem    Kind = "filesystem"
	KindUnknown       Kind = "unknown"
)

// Error represents a structured sync failure
type Error struct {
	Err     error
	Message string
	Kind    Kind
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf classifies err. Remote errors keep their classification.
func KindOf(err error) Kind {
	if err == nil {
		return ""
	}

	var syncErr *Error
	if errors.As(err, &syncErr) && syncErr.Kind != "" {
		return syncErr.Kind
	}

	switch remote.KindOf(err) {
	case remote.KindConnectivity:
		return KindConnectivity
	case remote.KindServer:
		return KindServer
	case remote.KindClient:
		return KindClient
	}

	switch {
	case config.IsValidationError(err):
		return KindConfiguration
	case isFilesystemError(err):
		return KindFilesystem
	default:
		return KindUnknown
	}
}

func newError(err error, message string) *Error {
	return &Error{
		Err:     err,
		Message: message,
		Kind:    KindOf(err),
	}
}

func isFilesystemError(err error) bool {
	var pathErr *fs.PathError
	var linkErr *os.LinkError
	return errors.Is(err, exporter.ErrDirectoryNotFound) ||
		errors.Is(err, exporter.ErrPermissionDenied) ||
		errors.Is(err, exporter.ErrNotDirectory) ||
		errors.As(err, &pathErr) ||
		errors.As(err, &linkErr)
}
