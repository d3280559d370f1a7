package artifact

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrExists is returned by Sink.Create when the target already exists
var ErrExists = errors.New("artifact already exists")

// Sink stores artifact files. Create never overwrites an existing file.
type Sink interface {
	// Join builds a location from path elements using the sink's separator
	Join(elem ...string) string
	// Exists reports whether a file is present at location
	Exists(ctx context.Context, location string) (bool, error)
	// Create writes data to a new file at location, returning ErrExists if one is already there
	Create(ctx context.Context, location string, data []byte) error
}

// FileSink writes artifacts to a local or network-mounted filesystem
type FileSink struct{}

var _ Sink = FileSink{}

// Join implements Sink
func (FileSink) Join(elem ...string) string {
	return filepath.Join(elem...)
}

// Exists implements Sink
func (FileSink) Exists(_ context.Context, location string) (bool, error) {
	_, err := os.Stat(location)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("failed to stat %s: %w", location, err)
	}
}

// Create implements Sink with an exclusive create so concurrent writers cannot clobber one another
func (FileSink) Create(_ context.Context, location string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(location), 0750); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", filepath.Dir(location), err)
	}

	f, err := os.OpenFile(location, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0640) //nolint:gosec // path is sanitized
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return ErrExists
		}
		return fmt.Errorf("failed to create %s: %w", location, err)
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(location)
		return fmt.Errorf("failed to write %s: %w", location, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(location)
		return fmt.Errorf("failed to close %s: %w", location, err)
	}
	return nil
}
