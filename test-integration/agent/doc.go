// Package integration provides end-to-end tests for the sync agent. They run
// the complete agent against a fake competition platform and a real result
// directory watched through the OS.
package integration
