package cli

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatch_RequiresQueue(t *testing.T) {
	_, err := run(t, &Services{}, "watch", t.TempDir())

	assert.EqualError(t, err, "job queue not configured")
}

func TestWatch_RequiresDirectory(t *testing.T) {
	_, err := run(t, &Services{Queue: newFakeQueue()}, "watch")

	assert.EqualError(t, err, "no inbox directory given or configured")
}

func TestServe_RequiresServices(t *testing.T) {
	_, err := run(t, &Services{}, "serve")

	assert.EqualError(t, err, "services not configured")
}

func TestRunWithQueue_StopsQueueWhenDone(t *testing.T) {
	queue := newFakeQueue()
	SetServices(&Services{Queue: queue})
	defer SetServices(nil)

	err := runWithQueue(context.Background(), func(context.Context) error { return nil })

	assert.NoError(t, err)
}

func TestRunWithQueue_ReturnsError(t *testing.T) {
	SetServices(&Services{Queue: newFakeQueue()})
	defer SetServices(nil)

	err := runWithQueue(context.Background(), func(context.Context) error {
		return errors.New("listen: address in use")
	})

	assert.EqualError(t, err, "listen: address in use")
}

func TestRunWatch_SubmitsExistingBundles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "book.zip"), []byte("zip"), 0o644))
	queue := newFakeQueue()
	SetServices(&Services{Queue: queue})
	defer SetServices(nil)
	defer resetFlags(rootCmd)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	watchCmd.SetContext(ctx)
	watchCmd.SetOut(io.Discard)

	done := make(chan error, 1)
	go func() { done <- runWatch(watchCmd, []string{dir}) }()

	require.Eventually(t, func() bool {
		queue.mu.Lock()
		defer queue.mu.Unlock()
		return len(queue.submitted) == 1
	}, 2*time.Second, 10*time.Millisecond)
	cancel()
	require.NoError(t, <-done)

	queue.mu.Lock()
	defer queue.mu.Unlock()
	assert.Equal(t, "book.zip", queue.submitted[0].BundleName)
	assert.Equal(t, 1, queue.callbacks)
}
