package sync

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/einvoice-sync/lhdn-sync-server/internal/documents"
	"github.com/einvoice-sync/lhdn-sync-server/internal/lhdn"
	"github.com/einvoice-sync/lhdn-sync-server/internal/otel"
	"github.com/einvoice-sync/lhdn-sync-server/internal/telemetry"
)

// Orchestrator defaults
const (
	DefaultPageSize               = 100
	DefaultMaxConsecutiveFailures = 3
	DefaultPageDelay              = time.Second
	DefaultFailureDelay           = 2 * time.Second
	DefaultSortBy                 = "dateTimeValidated"
	DefaultSortOrder              = "desc"
)

// PageFetcher fetches one page of the remote document feed
//
//go:generate mockgen -destination=mocks/mock_page_fetcher.go -package=mocks github.com/einvoice-sync/lhdn-sync-server/internal/sync PageFetcher
type PageFetcher interface {
	FetchPage(ctx context.Context, rl *lhdn.RateLimitState, req lhdn.PageRequest) (*lhdn.Page, error)
}

// Orchestrator drives a PageFetcher across every page of the feed
type Orchestrator struct {
	fetcher                PageFetcher
	normalizer             *documents.Normalizer
	pageSize               int
	maxConsecutiveFailures int
	maxPages               int
	pageDelay              time.Duration
	failureDelay           time.Duration
	sortBy                 string
	sortOrder              string
	sleep                  lhdn.Sleeper
	tracer                 trace.Tracer
	metrics                *telemetry.SyncMetrics
}

// OrchestratorOption configures an Orchestrator
type OrchestratorOption func(*Orchestrator)

// WithPageSize sets the page size requested from the API
func WithPageSize(n int) OrchestratorOption {
	return func(o *Orchestrator) {
		if n > 0 {
			o.pageSize = n
		}
	}
}

// WithMaxConsecutiveFailures sets the circuit-breaking threshold
func WithMaxConsecutiveFailures(n int) OrchestratorOption {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxConsecutiveFailures = n
		}
	}
}

// WithMaxPages caps the number of pages fetched in one run. Zero means no cap.
func WithMaxPages(n int) OrchestratorOption {
	return func(o *Orchestrator) {
		if n >= 0 {
			o.maxPages = n
		}
	}
}

// WithPageDelay sets the pause between successful pages
func WithPageDelay(d time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		if d >= 0 {
			o.pageDelay = d
		}
	}
}

// WithFailureDelay sets the base pause before re-requesting a failed page.
// The pause doubles with each consecutive failure.
func WithFailureDelay(d time.Duration) OrchestratorOption {
	return func(o *Orchestrator) {
		if d >= 0 {
			o.failureDelay = d
		}
	}
}

// WithSort sets the sort field and order
func WithSort(by, order string) OrchestratorOption {
	return func(o *Orchestrator) {
		if by != "" {
			o.sortBy = by
		}
		if order != "" {
			o.sortOrder = order
		}
	}
}

// WithNormalizer sets the payload normalizer
func WithNormalizer(n *documents.Normalizer) OrchestratorOption {
	return func(o *Orchestrator) {
		if n != nil {
			o.normalizer = n
		}
	}
}

// WithOrchestratorSleeper replaces the sleep function, mainly for tests
func WithOrchestratorSleeper(s lhdn.Sleeper) OrchestratorOption {
	return func(o *Orchestrator) {
		if s != nil {
			o.sleep = s
		}
	}
}

// WithOrchestratorTracer sets the tracer
func WithOrchestratorTracer(t trace.Tracer) OrchestratorOption {
	return func(o *Orchestrator) {
		o.tracer = t
	}
}

// WithOrchestratorMetrics sets the metrics recorder
func WithOrchestratorMetrics(m *telemetry.SyncMetrics) OrchestratorOption {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// NewOrchestrator creates an Orchestrator over fetcher
func NewOrchestrator(fetcher PageFetcher, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		fetcher:                fetcher,
		normalizer:             documents.NewNormalizer(nil),
		pageSize:               DefaultPageSize,
		maxConsecutiveFailures: DefaultMaxConsecutiveFailures,
		pageDelay:              DefaultPageDelay,
		failureDelay:           DefaultFailureDelay,
		sortBy:                 DefaultSortBy,
		sortOrder:              DefaultSortOrder,
		sleep:                  sleepWithContext,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// FetchAll fetches pages in order until an empty page, the reported last page,
// or a short page when the total is unknown. A failed page is requested again
// after a pause; once maxConsecutiveFailures is reached it returns a
// *FetchExhaustedError carrying the records collected so far. Auth failures abort
// immediately.
func (o *Orchestrator) FetchAll(ctx context.Context) ([]*documents.Record, error) {
	ctx, span := otel.StartSpan(ctx, o.tracer, "sync.Orchestrator.FetchAll",
		trace.WithAttributes(otel.AttrPageSize.Int(o.pageSize)),
	)
	defer span.End()

	start := time.Now()
	rl := lhdn.NewRateLimitState()
	seen := make(map[string]struct{})
	var records []*documents.Record

	pageNo := 1
	pages := 0
	failures := 0

	for {
		page, err := o.fetcher.FetchPage(ctx, rl, lhdn.PageRequest{
			PageNo:    pageNo,
			PageSize:  o.pageSize,
			SortBy:    o.sortBy,
			SortOrder: o.sortOrder,
		})
		if err != nil {
			if errors.Is(err, lhdn.ErrAuth) {
				slog.Error("LHDN rejected credentials, aborting fetch", "page", pageNo, "error", err)
				otel.RecordError(span, err)
				return records, fmt.Errorf("page %d: %w", pageNo, err)
			}
			if errors.Is(err, lhdn.ErrRejected) {
				slog.Error("LHDN rejected the page request, aborting fetch", "page", pageNo, "error", err)
				otel.RecordError(span, err)
				return records, fmt.Errorf("page %d: %w", pageNo, err)
			}
			if ctxErr := ctx.Err(); ctxErr != nil {
				otel.RecordError(span, err)
				return records, fmt.Errorf("page %d: %w", pageNo, errors.Join(ctxErr, err))
			}

			failures++
			slog.Warn("Failed to fetch page",
				"page", pageNo,
				"consecutive_failures", failures,
				"error", err)

			if failures >= o.maxConsecutiveFailures {
				exhausted := &FetchExhaustedError{
					Failures: failures,
					Page:     pageNo,
					Records:  records,
					LastErr:  err,
				}
				slog.Error("Fetch exhausted",
					"page", pageNo,
					"failures", failures,
					"records_collected", len(records),
					"duration", time.Since(start),
					"error", err)
				otel.RecordError(span, exhausted)
				return records, exhausted
			}

			if sleepErr := o.sleep(ctx, o.failurePause(failures)); sleepErr != nil {
				otel.RecordError(span, sleepErr)
				return records, fmt.Errorf("page %d: %w", pageNo, errors.Join(sleepErr, err))
			}
			continue
		}

		failures = 0
		pages++
		o.metrics.RecordPageFetched(ctx)

		if len(page.Records) == 0 {
			break
		}
		records = o.appendNormalized(records, seen, pageNo, page)

		if page.TotalPages > 0 && pageNo >= page.TotalPages {
			break
		}
		if page.TotalPages == 0 && len(page.Records) < o.pageSize {
			break
		}
		if o.maxPages > 0 && pageNo >= o.maxPages {
			slog.Warn("Page cap reached, stopping fetch", "max_pages", o.maxPages)
			break
		}

		pageNo++
		if err := o.sleep(ctx, o.pageDelay); err != nil {
			otel.RecordError(span, err)
			return records, fmt.Errorf("page %d: %w", pageNo, err)
		}
	}

	span.SetAttributes(
		attribute.Int("pages.fetched", pages),
		otel.AttrResultCount.Int(len(records)),
	)
	slog.Info("Fetched recent documents",
		"pages", pages,
		"records", len(records),
		"duration", time.Since(start))

	return records, nil
}

func (o *Orchestrator) failurePause(failures int) time.Duration {
	if failures < 1 || o.failureDelay <= 0 {
		return o.failureDelay
	}
	shift := min(failures-1, 10)
	return o.failureDelay << shift
}

// appendNormalized normalizes one page in order. Records without a uuid are
// dropped, and a uuid already seen in this run keeps its first position.
func (o *Orchestrator) appendNormalized(
	records []*documents.Record, seen map[string]struct{}, pageNo int, page *lhdn.Page,
) []*documents.Record {
	for i, raw := range page.Records {
		rec, err := o.normalizer.Normalize(raw)
		if err != nil {
			slog.Warn("Dropping document without usable identity",
				"page", pageNo,
				"index", i,
				"error", err)
			continue
		}
		if _, dup := seen[rec.UUID]; dup {
			continue
		}
		seen[rec.UUID] = struct{}{}
		records = append(records, rec)
	}
	return records
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
