package documents

import "strings"

// Status is the lifecycle state of a document as reported by LHDN
type Status string

// Known document statuses
const (
	StatusPending   Status = "Pending"
	StatusSubmitted Status = "Submitted"
	StatusValid     Status = "Valid"
	StatusInvalid   Status = "Invalid"
	StatusCancelled Status = "Cancelled"
	StatusFailed    Status = "Failed"
	StatusRejected  Status = "Rejected"
)

var knownStatuses = []Status{
	StatusPending,
	StatusSubmitted,
	StatusValid,
	StatusInvalid,
	StatusCancelled,
	StatusFailed,
	StatusRejected,
}

// ParseStatus maps an upstream status string onto a known Status, ignoring case.
// Unknown values are preserved verbatim so that nothing reported upstream is lost.
func ParseStatus(s string) Status {
	s = strings.TrimSpace(s)
	for _, known := range knownStatuses {
		if strings.EqualFold(s, string(known)) {
			return known
		}
	}
	// LHDN reports cancelled documents with either spelling
	if strings.EqualFold(s, "canceled") {
		return StatusCancelled
	}
	return Status(s)
}

// IsKnown reports whether s is one of the enumerated statuses
func (s Status) IsKnown() bool {
	for _, known := range knownStatuses {
		if s == known {
			return true
		}
	}
	return false
}
