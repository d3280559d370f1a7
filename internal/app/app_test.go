package app

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSyncApp_StartStop(t *testing.T) {
	t.Parallel()

	cfg := testConfig(t)

	app, err := NewSyncApp(context.Background(),
		WithConfig(cfg),
		WithAddress("127.0.0.1:0"),
		WithPageFetcher(onePageFetcher(t, 0)),
	)
	require.NoError(t, err)
	assert.Same(t, cfg, app.GetConfig())

	errCh := make(chan error, 1)
	go func() { errCh <- app.Start() }()

	require.NoError(t, app.Stop(5*time.Second))

	select {
	case err := <-errCh:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after Stop")
	}

	// Releasing twice is harmless
	app.Close()
}
