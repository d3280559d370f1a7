package artifact

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/googleapi"
)

// GCSSink writes artifacts as objects in a Google Cloud Storage bucket
type GCSSink struct {
	bucket *storage.BucketHandle
}

var _ Sink = (*GCSSink)(nil)

// NewGCSSink creates a sink writing into the named bucket
func NewGCSSink(client *storage.Client, bucket string) *GCSSink {
	return &GCSSink{bucket: client.Bucket(bucket)}
}

// Join implements Sink. Object names never start with a slash.
func (*GCSSink) Join(elem ...string) string {
	return strings.TrimPrefix(path.Join(elem...), "/")
}

// Exists implements Sink
func (g *GCSSink) Exists(ctx context.Context, location string) (bool, error) {
	_, err := g.bucket.Object(location).Attrs(ctx)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, storage.ErrObjectNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("failed to read attributes of %s: %w", location, err)
	}
}

// Create implements Sink. The DoesNotExist precondition makes the write exclusive.
func (g *GCSSink) Create(ctx context.Context, location string, data []byte) error {
	w := g.bucket.Object(location).If(storage.Conditions{DoesNotExist: true}).NewWriter(ctx)
	w.ContentType = "application/json"

	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		if isPreconditionFailed(err) {
			return ErrExists
		}
		return fmt.Errorf("failed to write %s: %w", location, err)
	}
	if err := w.Close(); err != nil {
		if isPreconditionFailed(err) {
			return ErrExists
		}
		return fmt.Errorf("failed to finalize %s: %w", location, err)
	}
	return nil
}

func isPreconditionFailed(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusPreconditionFailed
}
