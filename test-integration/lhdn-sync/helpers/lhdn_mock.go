package helpers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"sync/atomic"
)

// TestToken is the bearer token the mock LHDN API accepts
const TestToken = "integration-token"

// MockLHDN is a mock of the LHDN recent documents endpoint
type MockLHDN struct {
	*httptest.Server

	mu        sync.Mutex
	documents []map[string]any
	status    int
	pageSize  int

	requests atomic.Int32
}

// NewMockLHDN starts a mock LHDN API serving the given documents
func NewMockLHDN(documents ...map[string]any) *MockLHDN {
	m := &MockLHDN{documents: documents, pageSize: 2}
	m.Server = httptest.NewServer(http.HandlerFunc(m.serve))
	return m
}

// BaseURL is the value for lhdn.baseURL
func (m *MockLHDN) BaseURL() string {
	return m.URL + "/api/v1.0"
}

// SetDocuments replaces the documents served
func (m *MockLHDN) SetDocuments(documents ...map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.documents = documents
}

// FailWith makes every request answer with status. Zero restores normal service.
func (m *MockLHDN) FailWith(status int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.status = status
}

// Requests returns the number of page requests received
func (m *MockLHDN) Requests() int {
	return int(m.requests.Load())
}

func (m *MockLHDN) serve(w http.ResponseWriter, r *http.Request) {
	m.requests.Add(1)

	if r.URL.Path != "/api/v1.0/documents/recent" {
		http.NotFound(w, r)
		return
	}
	if r.Header.Get("Authorization") != "Bearer "+TestToken {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}

	m.mu.Lock()
	status, docs, pageSize := m.status, m.documents, m.pageSize
	m.mu.Unlock()

	if status != 0 {
		w.WriteHeader(status)
		return
	}

	pageNo, err := strconv.Atoi(r.URL.Query().Get("pageNo"))
	if err != nil || pageNo < 1 {
		pageNo = 1
	}

	totalPages := max(1, (len(docs)+pageSize-1)/pageSize)
	start := min((pageNo-1)*pageSize, len(docs))
	end := min(start+pageSize, len(docs))

	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("x-rate-limit-remaining", "100")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"result": docs[start:end],
		"metadata": map[string]any{
			"totalPages": totalPages,
			"totalCount": len(docs),
		},
	})
}

// ValidInvoice builds a Valid invoice payload that qualifies for an artifact
func ValidInvoice(n int) map[string]any {
	return map[string]any{
		"uuid":               fmt.Sprintf("UUID%04dABCDEFGH", n),
		"submissionUid":      fmt.Sprintf("SUB%04d", n),
		"longId":             fmt.Sprintf("LONG%04d", n),
		"internalId":         fmt.Sprintf("INV-%04d", n),
		"typeName":           "Invoice",
		"typeVersionName":    "1.0",
		"issuerTin":          "C1234567890",
		"issuerName":         "Acme Sdn Bhd",
		"buyerTin":           "C9876543210",
		"buyerName":          "Buyer Enterprise",
		"totalPayableAmount": 106.5,
		"dateTimeIssued":     "2024-06-01T08:00:00Z",
		"dateTimeValidated":  "2024-06-01T08:05:00Z",
		"status":             "Valid",
	}
}
