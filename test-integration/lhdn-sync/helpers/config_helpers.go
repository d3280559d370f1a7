package helpers

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/onsi/gomega"
)

// WriteConfigYAML writes a SQLite-backed server configuration pointing at the mock LHDN API.
// Retries and delays are kept short so failure paths finish quickly.
func WriteConfigYAML(dir, baseURL string) string {
	tokenFile := filepath.Join(dir, "token")
	gomega.Expect(os.WriteFile(tokenFile, []byte(TestToken+"\n"), 0o600)).To(gomega.Succeed())

	content := fmt.Sprintf(`tenant: integration
lhdn:
  environment: sandbox
  baseURL: %s
  tokenFile: %s
  maxRetries: 0
  baseDelay: 10ms
  maxDelay: 20ms
sync:
  pageSize: 2
  maxConsecutiveFailures: 1
  pageDelay: 0s
  failureDelay: 10ms
  freshnessThreshold: 1h
  interval: "0"
artifacts:
  basePath: %s
storage:
  type: sqlite
  sqlite:
    path: %s
`, baseURL, tokenFile, filepath.Join(dir, "artifacts"), filepath.Join(dir, "lhdn-sync.db"))

	path := filepath.Join(dir, "config.yaml")
	gomega.Expect(os.WriteFile(path, []byte(content), 0o600)).To(gomega.Succeed())
	return path
}
