// Package sync performs the individual synchronization operations of the
// agent: checking connectivity, uploading the results of one file and
// exporting start lists.
//
// # Core Interfaces
//
//   - Manager: runs one operation against the competition platform for a
//     given configuration and reports failures as *Error
//
// The Manager holds no session state. Queueing, scheduling and status
// reporting live in the sync/coordinator subpackage, which calls the Manager
// from its single loop goroutine.
//
// # Error Kinds
//
// Every failure carries a Kind so callers can react without inspecting the
// wrapped error:
//
//   - KindConfiguration: the configuration cannot be used
//   - KindConnectivity: the server could not be reached
//   - KindServer: the server answered with a non-2xx status
//   - KindClient: the request could not be built
//   - KindFilesystem: a local file or directory could not be read or written
//
// Message holds the text recorded as the session's last error.
package sync
