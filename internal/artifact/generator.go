// Package artifact writes a small JSON descriptor for every document that
// reaches the Valid state, at a path derived from the document's identity.
package artifact

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/einvoice-sync/lhdn-sync-server/internal/documents"
	"github.com/einvoice-sync/lhdn-sync-server/internal/store"
)

// Status is the outcome of one generation attempt
type Status string

// Generation outcomes
const (
	StatusGenerated Status = "generated"
	StatusExists    Status = "exists"
	StatusSkipped   Status = "skipped"
	StatusFailed    Status = "failed"
)

// Defaults for path derivation
const (
	DefaultMaxPathLength = 255
	DefaultTypeSegment   = "Invoice"
	UnknownCompany       = "Unknown Company"
	fallbackDirPrefix    = "LHDN_Fallback_"
)

// ErrArtifactWrite marks a failed primary write whose fallback also failed
var ErrArtifactWrite = errors.New("artifact write failed")

// ErrPathTooLong is returned when the primary path exceeds the configured maximum
var ErrPathTooLong = errors.New("artifact path too long")

// WriteError carries the primary write failure for a document
type WriteError struct {
	UUID string
	Path string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("failed to write artifact for %s at %s: %v", e.UUID, e.Path, e.Err)
}

func (e *WriteError) Unwrap() error {
	return e.Err
}

// Is reports ErrArtifactWrite so callers can match without unwrapping
func (*WriteError) Is(target error) bool {
	return target == ErrArtifactWrite
}

// Result is the outcome of Generate for one record
type Result struct {
	UUID   string
	Status Status
	Path   string
	Note   string
	Err    error
}

// Descriptor is the JSON body written for each artifact
type Descriptor struct {
	IssueDate     string    `json:"issueDate,omitempty"`
	IssueTime     string    `json:"issueTime,omitempty"`
	TypeCode      string    `json:"typeCode"`
	InvoiceNumber string    `json:"invoiceNumber"`
	UUID          string    `json:"uuid"`
	SubmissionUID string    `json:"submissionUid"`
	LongID        string    `json:"longId"`
	ValidationURL string    `json:"validationUrl"`
	Status        string    `json:"status"`
	GeneratedAt   time.Time `json:"generatedAt"`
}

// Lookup resolves the related rows used to name the company directory
type Lookup interface {
	GetSubmission(ctx context.Context, uuid string) (*store.Submission, error)
	GetCompanyByTIN(ctx context.Context, tin string) (*store.Company, error)
}

// Option configures a Generator
type Option func(*Generator)

// WithMaxPathLength sets the longest primary path attempted before falling back
func WithMaxPathLength(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.maxPathLength = n
		}
	}
}

// WithPortalURL sets the public portal used to build validation links
func WithPortalURL(portalURL string) Option {
	return func(g *Generator) {
		g.portalURL = strings.TrimSuffix(portalURL, "/")
	}
}

// WithClock overrides the time source used for fallback directories and descriptors
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		g.now = now
	}
}

// Generator produces artifact descriptors for valid documents
type Generator struct {
	sink          Sink
	basePath      string
	lookup        Lookup
	portalURL     string
	maxPathLength int
	now           func() time.Time
}

// NewGenerator creates a generator writing beneath basePath on sink
func NewGenerator(sink Sink, basePath string, lookup Lookup, opts ...Option) *Generator {
	g := &Generator{
		sink:          sink,
		basePath:      basePath,
		lookup:        lookup,
		maxPathLength: DefaultMaxPathLength,
		now:           time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// ValidationURL builds the public verification link for a document
func ValidationURL(portalURL, uuid, longID string) string {
	return fmt.Sprintf("%s/%s/share/%s", strings.TrimSuffix(portalURL, "/"), uuid, longID)
}

// PrimaryPath derives the destination of a record's artifact
func (g *Generator) PrimaryPath(ctx context.Context, rec *documents.Record) string {
	typeSegment := Sanitize(rec.TypeName)
	if typeSegment == "" {
		typeSegment = DefaultTypeSegment
	}
	filename := fmt.Sprintf("%s_%s_%s.json",
		rec.TypeCode(), Sanitize(rec.InvoiceNumber()), Sanitize(rec.UUID))
	return g.sink.Join(g.basePath, typeSegment, g.companySegment(ctx, rec), filename)
}

// FallbackPath derives the simplified destination used when the primary write fails
func (g *Generator) FallbackPath(rec *documents.Record) string {
	dir := fallbackDirPrefix + g.now().Format("20060102")
	return g.sink.Join(g.basePath, dir, "document_"+alphanumeric(rec.UUID)+".json")
}

// Generate writes the artifact for rec unless it is ineligible or already present
func (g *Generator) Generate(ctx context.Context, rec *documents.Record) Result {
	res := Result{UUID: rec.UUID}
	if !rec.IsArtifactCandidate() {
		res.Status = StatusSkipped
		res.Note = "document is not Valid or lacks uuid, submissionUid or longId"
		return res
	}

	data, err := json.MarshalIndent(g.descriptor(rec), "", "  ")
	if err != nil {
		res.Status = StatusFailed
		res.Err = fmt.Errorf("failed to encode descriptor: %w", err)
		return res
	}

	primary := g.PrimaryPath(ctx, rec)
	res.Path = primary

	exists, err := g.sink.Exists(ctx, primary)
	if err == nil && exists {
		res.Status = StatusExists
		res.Note = "artifact already exists"
		return res
	}

	primaryErr := g.write(ctx, primary, data)
	if primaryErr == nil {
		res.Status = StatusGenerated
		return res
	}
	if errors.Is(primaryErr, ErrExists) {
		res.Status = StatusExists
		res.Note = "artifact already exists"
		return res
	}

	fallback := g.FallbackPath(rec)
	slog.WarnContext(ctx, "Primary artifact write failed, trying fallback location",
		"uuid", rec.UUID,
		"path", primary,
		"fallback", fallback,
		"error", primaryErr)

	switch err := g.sink.Create(ctx, fallback, data); {
	case err == nil:
		res.Status = StatusGenerated
		res.Path = fallback
		res.Note = fmt.Sprintf("written to fallback location: %v", primaryErr)
	case errors.Is(err, ErrExists):
		res.Status = StatusExists
		res.Path = fallback
		res.Note = "artifact already exists at fallback location"
	default:
		slog.ErrorContext(ctx, "Fallback artifact write failed",
			"uuid", rec.UUID,
			"fallback", fallback,
			"error", err)
		res.Status = StatusFailed
		res.Err = &WriteError{UUID: rec.UUID, Path: primary, Err: primaryErr}
	}
	return res
}

func (g *Generator) write(ctx context.Context, location string, data []byte) error {
	if len(location) > g.maxPathLength {
		return fmt.Errorf("%w: %d characters exceeds %d", ErrPathTooLong, len(location), g.maxPathLength)
	}
	return g.sink.Create(ctx, location, data)
}

func (g *Generator) descriptor(rec *documents.Record) Descriptor {
	d := Descriptor{
		TypeCode:      rec.TypeCode(),
		InvoiceNumber: rec.InvoiceNumber(),
		UUID:          rec.UUID,
		SubmissionUID: rec.SubmissionUID,
		LongID:        rec.LongID,
		ValidationURL: ValidationURL(g.portalURL, rec.UUID, rec.LongID),
		Status:        string(rec.Status),
		GeneratedAt:   g.now().UTC(),
	}
	if rec.DateTimeIssued != nil {
		issued := rec.DateTimeIssued.UTC()
		d.IssueDate = issued.Format(time.DateOnly)
		d.IssueTime = issued.Format("15:04:05Z")
	}
	return d
}

// companySegment names the company directory from the related submission's
// file location, then the company table, then a fixed placeholder.
func (g *Generator) companySegment(ctx context.Context, rec *documents.Record) string {
	if g.lookup == nil {
		return UnknownCompany
	}

	sub, err := g.lookup.GetSubmission(ctx, rec.UUID)
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		slog.DebugContext(ctx, "Submission lookup failed", "uuid", rec.UUID, "error", err)
	}
	if err == nil && sub.FilePath != "" {
		dir := path.Base(path.Dir(strings.ReplaceAll(sub.FilePath, `\`, "/")))
		if name := Sanitize(dir); name != "" && name != "_" {
			return name
		}
	}

	for _, tin := range []string{rec.IssuerTIN, rec.ReceiverID} {
		if tin == "" {
			continue
		}
		company, err := g.lookup.GetCompanyByTIN(ctx, tin)
		if err != nil {
			if !errors.Is(err, store.ErrNotFound) {
				slog.DebugContext(ctx, "Company lookup failed", "tin", tin, "error", err)
			}
			continue
		}
		if name := Sanitize(company.Name); name != "" {
			return name
		}
	}
	return UnknownCompany
}
