// Package helpers provides a fake competition platform and agent lifecycle
// helpers for the integration suite.
package helpers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/go-chi/chi/v5"

	"github.com/stacklok/lynx-sync-agent/internal/remote"
)

// APIKey is the key the fake platform accepts
const APIKey = "integration-key"

// Platform is an in-process competition platform recording what the agent sends
type Platform struct {
	server *httptest.Server

	mu          sync.Mutex
	probes      int
	uploads     []remote.UploadRequest
	failUploads int
	startLists  []byte
}

// NewPlatform starts the fake platform. startLists is served verbatim.
func NewPlatform(startLists string) *Platform {
	p := &Platform{startLists: []byte(startLists)}

	r := chi.NewRouter()
	r.Use(p.authenticate)
	r.Get("/api/health", p.health)
	r.Post("/api/finishlynx/import-results-agent", p.importResults)
	r.Get("/api/finishlynx/export-start-lists/{competitionID}", p.exportStartLists)

	p.server = httptest.NewServer(r)
	p.server.Config.SetKeepAlivesEnabled(false)
	return p
}

// URL returns the base URL of the platform
func (p *Platform) URL() string {
	return p.server.URL
}

// Close shuts the platform down
func (p *Platform) Close() {
	p.server.Close()
}

// Probes returns the number of health checks received
func (p *Platform) Probes() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.probes
}

// Uploads returns the accepted uploads in arrival order
func (p *Platform) Uploads() []remote.UploadRequest {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]remote.UploadRequest(nil), p.uploads...)
}

// FailNextUploads makes the next n uploads fail with 500
func (p *Platform) FailNextUploads(n int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.failUploads = n
}

func (*Platform) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+APIKey {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "invalid api key"})
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (p *Platform) health(w http.ResponseWriter, _ *http.Request) {
	p.mu.Lock()
	p.probes++
	p.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (p *Platform) importResults(w http.ResponseWriter, r *http.Request) {
	var req remote.UploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": err.Error()})
		return
	}

	p.mu.Lock()
	if p.failUploads > 0 {
		p.failUploads--
		p.mu.Unlock()
		writeJSON(w, http.StatusInternalServerError, map[string]string{"message": "database unavailable"})
		return
	}
	p.uploads = append(p.uploads, req)
	p.mu.Unlock()

	writeJSON(w, http.StatusCreated, map[string]int{"imported": len(req.Results)})
}

func (p *Platform) exportStartLists(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(p.startLists)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
