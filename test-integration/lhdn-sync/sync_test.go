package integration

import (
	"encoding/json"
	"io"
	"io/fs"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	v1 "github.com/einvoice-sync/lhdn-sync-server/internal/api/v1"
	"github.com/einvoice-sync/lhdn-sync-server/test-integration/lhdn-sync/helpers"
)

func decode[T any](resp *http.Response) T {
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	Expect(err).NotTo(HaveOccurred())

	var out T
	Expect(json.Unmarshal(body, &out)).To(Succeed(), string(body))
	return out
}

func countArtifacts(dir string) int {
	n := 0
	_ = filepath.WalkDir(dir, func(_ string, d fs.DirEntry, err error) error {
		if err == nil && !d.IsDir() && strings.HasSuffix(d.Name(), ".json") {
			n++
		}
		return nil
	})
	return n
}

var _ = Describe("Document Sync Integration", Label("sync"), func() {
	var (
		tempDir      string
		mockLHDN     *helpers.MockLHDN
		serverHelper *helpers.ServerTestHelper
	)

	BeforeEach(func() {
		tempDir = createTempDir("lhdn-sync-test-")
		mockLHDN = helpers.NewMockLHDN(
			helpers.ValidInvoice(1),
			helpers.ValidInvoice(2),
			helpers.ValidInvoice(3),
		)

		configFile := helpers.WriteConfigYAML(tempDir, mockLHDN.BaseURL())
		serverHelper = helpers.NewServerTestHelper(ctx, configFile)
		Expect(serverHelper.StartServer()).To(Succeed())
		serverHelper.WaitForServerReady(10 * time.Second)
	})

	AfterEach(func() {
		if serverHelper != nil {
			Expect(serverHelper.StopServer()).To(Succeed())
		}
		if mockLHDN != nil {
			mockLHDN.Close()
		}
		cleanupTempDir(tempDir)
	})

	Context("Freshness", func() {
		It("should sync live on first request and serve from storage afterwards", func() {
			By("querying an empty store")
			resp, err := serverHelper.GetRecentDocuments(false)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			live := decode[v1.DocumentsResponse](resp)
			Expect(live.Source).To(Equal("live"))
			Expect(live.Count).To(Equal(3))
			Expect(live.Stale).To(BeFalse())

			// Three documents at page size two
			Expect(mockLHDN.Requests()).To(Equal(2))

			By("querying again within the freshness threshold")
			resp, err = serverHelper.GetRecentDocuments(false)
			Expect(err).NotTo(HaveOccurred())

			cached := decode[v1.DocumentsResponse](resp)
			Expect(cached.Source).To(Equal("cache"))
			Expect(cached.Count).To(Equal(3))
			Expect(mockLHDN.Requests()).To(Equal(2))
		})

		It("should sync live when refresh is requested", func() {
			resp, err := serverHelper.GetRecentDocuments(false)
			Expect(err).NotTo(HaveOccurred())
			_ = decode[v1.DocumentsResponse](resp)

			mockLHDN.SetDocuments(helpers.ValidInvoice(1), helpers.ValidInvoice(4))

			resp, err = serverHelper.GetRecentDocuments(true)
			Expect(err).NotTo(HaveOccurred())

			refreshed := decode[v1.DocumentsResponse](resp)
			Expect(refreshed.Source).To(Equal("live"))
			Expect(refreshed.Count).To(Equal(2))
		})
	})

	Context("Upstream failure", func() {
		It("should serve stale documents with a reason when the API is down", func() {
			resp, err := serverHelper.PostSync()
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			_ = decode[v1.SyncResponse](resp)

			mockLHDN.FailWith(http.StatusServiceUnavailable)

			resp, err = serverHelper.GetRecentDocuments(true)
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			stale := decode[v1.DocumentsResponse](resp)
			Expect(stale.Source).To(Equal("fallback"))
			Expect(stale.Stale).To(BeTrue())
			Expect(stale.Count).To(Equal(3))
			Expect(stale.Reason).To(Equal("fetch-exhausted"))
			Expect(stale.Warning).NotTo(BeEmpty())
		})

		It("should report a failed forced sync", func() {
			mockLHDN.FailWith(http.StatusServiceUnavailable)

			resp, err := serverHelper.PostSync()
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusServiceUnavailable))

			summary := decode[v1.SyncResponse](resp)
			Expect(summary.Success).To(BeFalse())
			Expect(summary.Reason).To(Equal("fetch-exhausted"))
		})
	})

	Context("Reconciliation", func() {
		It("should store documents, write artifacts and log the run", func() {
			resp, err := serverHelper.PostSync()
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))

			summary := decode[v1.SyncResponse](resp)
			Expect(summary.Success).To(BeTrue())
			Expect(summary.Fetched).To(Equal(3))
			Expect(summary.Succeeded).To(Equal(3))
			Expect(summary.Artifacts).To(HaveKeyWithValue("generated", 3))

			Expect(countArtifacts(filepath.Join(tempDir, "artifacts"))).To(Equal(3))

			By("fetching one stored document")
			resp, err = serverHelper.GetDocument("UUID0002ABCDEFGH")
			Expect(err).NotTo(HaveOccurred())
			Expect(resp.StatusCode).To(Equal(http.StatusOK))
			doc := decode[map[string]any](resp)
			Expect(doc).To(HaveKeyWithValue("internalId", "INV-0002"))

			By("syncing the same documents again")
			resp, err = serverHelper.PostSync()
			Expect(err).NotTo(HaveOccurred())
			again := decode[v1.SyncResponse](resp)
			Expect(again.Artifacts).To(HaveKeyWithValue("exists", 3))
			Expect(countArtifacts(filepath.Join(tempDir, "artifacts"))).To(Equal(3))

			By("reading the operational log")
			resp, err = serverHelper.GetSyncLogs()
			Expect(err).NotTo(HaveOccurred())
			logs := decode[v1.LogsResponse](resp)
			Expect(logs.Logs).NotTo(BeEmpty())
		})

		It("should answer 404 for an unknown document", func() {
			resp, err := serverHelper.GetDocument("MISSING")
			Expect(err).NotTo(HaveOccurred())
			defer func() { _ = resp.Body.Close() }()
			Expect(resp.StatusCode).To(Equal(http.StatusNotFound))
		})
	})
})
