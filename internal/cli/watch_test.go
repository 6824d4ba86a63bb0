package cli

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWatchFile_CallsOnChange(t *testing.T) {
	path := filepath.Join(t.TempDir(), "commands.yaml")
	require.NoError(t, os.WriteFile(path, []byte("a"), 0644))
	other := filepath.Join(filepath.Dir(path), "other.yaml")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls atomic.Int32
	done := make(chan error, 1)
	go func() {
		done <- watchFile(ctx, path, func() { calls.Add(1) })
	}()

	require.Eventually(t, func() bool {
		_ = os.WriteFile(other, []byte("x"), 0644)
		_ = os.WriteFile(path, []byte("b"), 0644)
		return calls.Load() > 0
	}, 5*time.Second, 50*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop after cancel")
	}
}

func TestWatchFile_MissingDirectory(t *testing.T) {
	err := watchFile(context.Background(), filepath.Join(t.TempDir(), "nope", "x.yaml"), func() {})
	require.Error(t, err)
}
