// Package documents defines the canonical document record synchronized from the
// LHDN document API, together with the rules used to normalize raw upstream payloads.
package documents

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Sync status values written on every successful upsert
const (
	SyncStatusSynced = "synced"
)

// Record is the canonical persisted representation of one remote document.
// A Record is uniquely addressed by UUID.
type Record struct {
	// Identity
	UUID          string `json:"uuid"`
	SubmissionUID string `json:"submissionUid"`
	LongID        string `json:"longId"`
	InternalID    string `json:"internalId"`

	// Classification
	TypeName        string `json:"typeName"`
	TypeVersionName string `json:"typeVersionName"`

	// Parties
	IssuerTIN              string `json:"issuerTin"`
	IssuerName             string `json:"issuerName"`
	ReceiverID             string `json:"receiverId"`
	ReceiverName           string `json:"receiverName"`
	ReceiverRegistrationNo string `json:"receiverRegistrationNo"`
	ReceiverAddress        string `json:"receiverAddress"`

	// Monetary totals. These are zero when absent upstream, never nil.
	TotalSales         decimal.Decimal `json:"totalSales"`
	TotalExcludingTax  decimal.Decimal `json:"totalExcludingTax"`
	TotalDiscount      decimal.Decimal `json:"totalDiscount"`
	TotalNetAmount     decimal.Decimal `json:"totalNetAmount"`
	TotalPayableAmount decimal.Decimal `json:"totalPayableAmount"`

	// Timestamps, always UTC
	DateTimeIssued    *time.Time `json:"dateTimeIssued,omitempty"`
	DateTimeReceived  *time.Time `json:"dateTimeReceived,omitempty"`
	DateTimeValidated *time.Time `json:"dateTimeValidated,omitempty"`

	Status Status `json:"status"`

	// Sync metadata
	LastSyncDate *time.Time `json:"lastSyncDate,omitempty"`
	SyncStatus   string     `json:"syncStatus,omitempty"`

	// Raw is the upstream payload the record was normalized from
	Raw json.RawMessage `json:"-"`
}

// TypeCode returns the two-digit document type code for the record
func (r *Record) TypeCode() string {
	return TypeCodeFor(r.TypeName)
}

// InvoiceNumber returns the best available human-facing document number
func (r *Record) InvoiceNumber() string {
	if r.InternalID != "" {
		return r.InternalID
	}
	return r.UUID
}

// IsArtifactCandidate reports whether the record carries everything needed
// to produce a downstream artifact file.
func (r *Record) IsArtifactCandidate() bool {
	return r.Status == StatusValid && r.UUID != "" && r.SubmissionUID != "" && r.LongID != ""
}
