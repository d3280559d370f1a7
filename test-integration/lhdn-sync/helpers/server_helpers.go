// Package helpers provides utilities for the LHDN sync server integration tests.
package helpers

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/onsi/gomega"

	syncapp "github.com/einvoice-sync/lhdn-sync-server/internal/app"
	"github.com/einvoice-sync/lhdn-sync-server/internal/config"
)

// ServerTestHelper manages the sync server lifecycle for testing
type ServerTestHelper struct {
	ctx        context.Context
	configPath string
	baseURL    string
	address    string
	httpClient *http.Client
	app        *syncapp.SyncApp
}

// NewServerTestHelper creates a new server test helper listening on a free local port
func NewServerTestHelper(ctx context.Context, configPath string) *ServerTestHelper {
	port := freePort()
	return &ServerTestHelper{
		ctx:        ctx,
		configPath: configPath,
		address:    fmt.Sprintf("127.0.0.1:%d", port),
		baseURL:    fmt.Sprintf("http://127.0.0.1:%d", port),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// StartServer starts the sync server programmatically
func (s *ServerTestHelper) StartServer() error {
	cfg, err := config.LoadConfig(config.WithConfigPath(s.configPath))
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	app, err := syncapp.NewSyncApp(s.ctx,
		syncapp.WithConfig(cfg),
		syncapp.WithAddress(s.address),
	)
	if err != nil {
		return fmt.Errorf("failed to build app: %w", err)
	}

	s.app = app

	go func() {
		if err := app.Start(); err != nil {
			// The test fails when it tries to connect
			fmt.Fprintf(os.Stderr, "Server start failed: %v\n", err)
		}
	}()

	return nil
}

// StopServer gracefully stops the sync server
func (s *ServerTestHelper) StopServer() error {
	if s.app != nil {
		return s.app.Stop(5 * time.Second)
	}
	return nil
}

// WaitForServerReady waits for the server to be ready to accept requests
func (s *ServerTestHelper) WaitForServerReady(timeout time.Duration) {
	gomega.Eventually(func() error {
		resp, err := s.httpClient.Get(s.baseURL + "/readiness")
		if err != nil {
			return err
		}
		defer func() {
			_ = resp.Body.Close()
		}()
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("server returned status %d", resp.StatusCode)
		}
		return nil
	}, timeout, 100*time.Millisecond).Should(gomega.Succeed(), "Server should be ready")
}

// GetRecentDocuments makes a GET request to /api/v1/documents/recent
func (s *ServerTestHelper) GetRecentDocuments(refresh bool) (*http.Response, error) {
	return s.httpClient.Get(fmt.Sprintf("%s/api/v1/documents/recent?refresh=%t", s.baseURL, refresh))
}

// GetDocument makes a GET request to /api/v1/documents/{uuid}
func (s *ServerTestHelper) GetDocument(uuid string) (*http.Response, error) {
	return s.httpClient.Get(fmt.Sprintf("%s/api/v1/documents/%s", s.baseURL, uuid))
}

// PostSync makes a POST request to /api/v1/sync
func (s *ServerTestHelper) PostSync() (*http.Response, error) {
	return s.httpClient.Post(s.baseURL+"/api/v1/sync", "application/json", http.NoBody)
}

// GetSyncLogs makes a GET request to /api/v1/sync/logs
func (s *ServerTestHelper) GetSyncLogs() (*http.Response, error) {
	return s.httpClient.Get(s.baseURL + "/api/v1/sync/logs")
}

func freePort() int {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	gomega.Expect(err).NotTo(gomega.HaveOccurred())
	defer func() { _ = l.Close() }()
	return l.Addr().(*net.TCPAddr).Port
}
