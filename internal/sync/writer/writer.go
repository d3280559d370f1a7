// Package writer reconciles fetched documents into durable storage in bounded
// concurrent chunks, generating artifacts and propagating failed states.
package writer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	"github.com/einvoice-sync/lhdn-sync-server/internal/artifact"
	"github.com/einvoice-sync/lhdn-sync-server/internal/documents"
	"github.com/einvoice-sync/lhdn-sync-server/internal/otel"
	"github.com/einvoice-sync/lhdn-sync-server/internal/store"
	"github.com/einvoice-sync/lhdn-sync-server/internal/telemetry"
)

// DefaultChunkSize caps simultaneous storage operations
const DefaultChunkSize = 10

// PersistenceError reports a record that could not be upserted
type PersistenceError struct {
	UUID string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("failed to persist document %s: %v", e.UUID, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// Result aggregates the outcome of one reconciliation
type Result struct {
	SuccessCount int
	ErrorCount   int
	// Stale counts upserts skipped because storage already held a newer fetch
	Stale     int
	Artifacts []artifact.Result
	Errors    []error
}

// ArtifactGenerator produces artifacts for valid documents
type ArtifactGenerator interface {
	Generate(ctx context.Context, rec *documents.Record) artifact.Result
}

// Option configures a Writer
type Option func(*Writer)

// WithChunkSize sets how many records are upserted concurrently
func WithChunkSize(n int) Option {
	return func(w *Writer) {
		if n > 0 {
			w.chunkSize = n
		}
	}
}

// WithArtifactGenerator enables artifact generation for valid documents
func WithArtifactGenerator(g ArtifactGenerator) Option {
	return func(w *Writer) {
		w.artifacts = g
	}
}

// WithTenant labels metrics with the tenant
func WithTenant(tenant string) Option {
	return func(w *Writer) {
		w.tenant = tenant
	}
}

// WithMetrics sets the metrics recorder
func WithMetrics(m *telemetry.SyncMetrics) Option {
	return func(w *Writer) {
		w.metrics = m
	}
}

// WithTracer sets the OpenTelemetry tracer
func WithTracer(tracer trace.Tracer) Option {
	return func(w *Writer) {
		w.tracer = tracer
	}
}

// Writer upserts fetched records into the store
type Writer struct {
	store     store.Store
	artifacts ArtifactGenerator
	chunkSize int
	tenant    string
	metrics   *telemetry.SyncMetrics
	tracer    trace.Tracer
}

// New creates a Writer on top of st
func New(st store.Store, opts ...Option) *Writer {
	w := &Writer{
		store:     st,
		chunkSize: DefaultChunkSize,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

type outcome struct {
	applied  bool
	err      error
	artifact *artifact.Result
}

// Reconcile upserts records in chunks. Records within a chunk run concurrently,
// chunks run one after another. A failing record never aborts the batch.
// Results are reported in the order the records were received.
func (w *Writer) Reconcile(ctx context.Context, records []*documents.Record, fetchedAt time.Time) *Result {
	ctx, span := otel.StartSpan(ctx, w.tracer, "writer.Reconcile",
		trace.WithAttributes(otel.AttrResultCount.Int(len(records))))
	defer span.End()

	res := &Result{}
	for start := 0; start < len(records); start += w.chunkSize {
		chunk := records[start:min(start+w.chunkSize, len(records))]
		outcomes := make([]outcome, len(chunk))

		// One goroutine per record; the chunk size bounds concurrency.
		// Only cancellation is returned to the group, per-record failures
		// stay in outcomes.
		var g errgroup.Group
		for i, rec := range chunk {
			g.Go(func() error {
				if err := ctx.Err(); err != nil {
					outcomes[i] = outcome{err: &PersistenceError{UUID: rec.UUID, Err: err}}
					return err
				}
				outcomes[i] = w.reconcileOne(ctx, rec, fetchedAt)
				return nil
			})
		}
		cancelled := g.Wait()

		for _, o := range outcomes {
			switch {
			case o.err != nil:
				res.ErrorCount++
				res.Errors = append(res.Errors, o.err)
			case !o.applied:
				res.SuccessCount++
				res.Stale++
			default:
				res.SuccessCount++
			}
			if o.artifact != nil {
				res.Artifacts = append(res.Artifacts, *o.artifact)
			}
		}

		if cancelled != nil {
			rest := records[start+len(chunk):]
			slog.WarnContext(ctx, "Reconciliation cancelled, remaining records not persisted",
				"remaining", len(rest),
				"error", cancelled)
			for _, rec := range rest {
				res.ErrorCount++
				res.Errors = append(res.Errors, &PersistenceError{UUID: rec.UUID, Err: cancelled})
			}
			break
		}
	}

	w.metrics.RecordReconciled(ctx, w.tenant, res.SuccessCount, res.ErrorCount)
	if res.ErrorCount > 0 {
		otel.RecordError(span, errors.Join(res.Errors...))
	}

	slog.InfoContext(ctx, "Reconciliation finished",
		"records", len(records),
		"succeeded", res.SuccessCount,
		"failed", res.ErrorCount,
		"stale", res.Stale,
		"artifacts", len(res.Artifacts))
	return res
}

func (w *Writer) reconcileOne(ctx context.Context, rec *documents.Record, fetchedAt time.Time) outcome {
	applied, err := w.store.UpsertDocument(ctx, rec, fetchedAt)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to persist document", "uuid", rec.UUID, "error", err)
		return outcome{err: &PersistenceError{UUID: rec.UUID, Err: err}}
	}
	if !applied {
		slog.DebugContext(ctx, "Stored document is newer, skipping side effects", "uuid", rec.UUID)
		return outcome{}
	}

	o := outcome{applied: true}
	switch rec.Status {
	case documents.StatusValid:
		if w.artifacts != nil {
			ar := w.artifacts.Generate(ctx, rec)
			w.metrics.RecordArtifact(ctx, string(ar.Status))
			if ar.Err != nil {
				slog.WarnContext(ctx, "Artifact generation failed", "uuid", rec.UUID, "error", ar.Err)
			}
			o.artifact = &ar
		}
	case documents.StatusFailed:
		if err := w.store.MarkSubmissionFailed(ctx, rec.UUID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				slog.DebugContext(ctx, "No submission tracked for failed document", "uuid", rec.UUID)
			} else {
				slog.WarnContext(ctx, "Failed to mark submission failed", "uuid", rec.UUID, "error", err)
			}
		}
	}
	return o
}
