package helpers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/onsi/gomega"

	agentapp "github.com/stacklok/lynx-sync-agent/internal/app"
	"github.com/stacklok/lynx-sync-agent/internal/config"
	"github.com/stacklok/lynx-sync-agent/internal/status"
)

// AgentTestHelper manages the sync agent lifecycle for testing
type AgentTestHelper struct {
	ctx        context.Context
	configPath string
	inputDir   string
	outputDir  string
	statusFile string
	httpClient *http.Client
	app        *agentapp.AgentApp
	baseURL    string
	done       chan error
}

// NewAgentTestHelper writes an agent configuration under workDir that points
// at platformURL and drains the queue every second
func NewAgentTestHelper(ctx context.Context, workDir, platformURL string, autoSync bool) (*AgentTestHelper, error) {
	h := &AgentTestHelper{
		ctx:        ctx,
		configPath: filepath.Join(workDir, "agent.yaml"),
		inputDir:   filepath.Join(workDir, "Lynx", "input"),
		outputDir:  filepath.Join(workDir, "Lynx", "results"),
		statusFile: filepath.Join(workDir, "status", "status.json"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, dir := range []string{h.inputDir, h.outputDir} {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}

	cfg := config.Default()
	cfg.ServerURL = platformURL
	cfg.APIKey = APIKey
	cfg.CompetitionID = "indoor-2026"
	cfg.CompetitionName = "Indoor Games"
	cfg.InputDir = h.inputDir
	cfg.OutputDir = h.outputDir
	cfg.SyncInterval = 1
	cfg.AutoSync = autoSync
	cfg.StatusFile = h.statusFile

	if err := config.SaveConfig(cfg, h.configPath); err != nil {
		return nil, fmt.Errorf("failed to write config: %w", err)
	}
	return h, nil
}

// StartAgent loads the configuration file and starts the agent with its
// status API on an ephemeral port
func (h *AgentTestHelper) StartAgent() error {
	cfg, err := config.LoadConfig(config.WithConfigPath(h.configPath))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	app, err := agentapp.NewAgentApp(h.ctx,
		agentapp.WithConfig(cfg),
		agentapp.WithAddress("127.0.0.1:0"),
		agentapp.WithStreamInterval(200*time.Millisecond),
	)
	if err != nil {
		return fmt.Errorf("failed to build app: %w", err)
	}
	h.app = app
	h.done = make(chan error, 1)

	go func() {
		h.done <- app.Start()
	}()

	select {
	case <-app.Ready():
	case <-time.After(10 * time.Second):
		return fmt.Errorf("agent did not start listening")
	}
	if app.Addr() == "" {
		h.app = nil
		return fmt.Errorf("agent failed to start: %w", <-h.done)
	}
	h.baseURL = "http://" + app.Addr()
	return nil
}

// StopAgent gracefully stops the agent
func (h *AgentTestHelper) StopAgent() error {
	if h.app == nil {
		return nil
	}
	if err := h.app.Stop(5 * time.Second); err != nil {
		return err
	}
	return <-h.done
}

// InputDir returns the start list export directory
func (h *AgentTestHelper) InputDir() string { return h.inputDir }

// OutputDir returns the watched result directory
func (h *AgentTestHelper) OutputDir() string { return h.outputDir }

// StatusFile returns the path of the status snapshot file
func (h *AgentTestHelper) StatusFile() string { return h.statusFile }

// BaseURL returns the status API base URL
func (h *AgentTestHelper) BaseURL() string { return h.baseURL }

// GetStatus makes a GET request to /status
func (h *AgentTestHelper) GetStatus() (status.SyncStatus, error) {
	var st status.SyncStatus
	resp, err := h.httpClient.Get(h.baseURL + "/status")
	if err != nil {
		return st, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode != http.StatusOK {
		return st, fmt.Errorf("status returned %d", resp.StatusCode)
	}
	err = json.NewDecoder(resp.Body).Decode(&st)
	return st, err
}

// StartSession makes a POST request to /session/start
func (h *AgentTestHelper) StartSession() (*http.Response, error) {
	return h.httpClient.Post(h.baseURL+"/session/start", "application/json", nil)
}

// StopSession makes a POST request to /session/stop
func (h *AgentTestHelper) StopSession() (*http.Response, error) {
	return h.httpClient.Post(h.baseURL+"/session/stop", "application/json", nil)
}

// OpenEvents opens the server-sent event stream
func (h *AgentTestHelper) OpenEvents() (*http.Response, error) {
	req, err := http.NewRequestWithContext(h.ctx, http.MethodGet, h.baseURL+"/events", nil)
	if err != nil {
		return nil, err
	}
	// The stream outlives the default client timeout
	return (&http.Client{}).Do(req)
}

// WaitForStatus polls /status until match accepts it and returns that status
func (h *AgentTestHelper) WaitForStatus(match func(status.SyncStatus) bool, timeout time.Duration) status.SyncStatus {
	var last status.SyncStatus
	gomega.Eventually(func() bool {
		st, err := h.GetStatus()
		if err != nil {
			return false
		}
		last = st
		return match(st)
	}, timeout, 100*time.Millisecond).Should(gomega.BeTrue(), "status did not reach the expected state")
	return last
}

// WriteResultFile writes a result file the way the timing system does: the
// content appears under its final name in a single step
func (h *AgentTestHelper) WriteResultFile(name, content string) string {
	path := filepath.Join(h.outputDir, name)
	tmp := filepath.Join(h.outputDir, "."+name+".tmp")
	gomega.Expect(os.WriteFile(tmp, []byte(content), 0o600)).To(gomega.Succeed())
	gomega.Expect(os.Rename(tmp, path)).To(gomega.Succeed())
	return path
}
