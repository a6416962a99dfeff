package configwatcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"lms_backend/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatchConfigReloadsOnWrite(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(file, []byte("server:\n  port: \"8080\"\nstorage:\n  type: minio\n"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	reloaded := make(chan *config.Config, 1)
	done := make(chan error, 1)
	go func() {
		done <- WatchConfig(ctx, file, func(cfg *config.Config) {
			select {
			case reloaded <- cfg:
			default:
			}
		})
	}()

	// watcher 需要时间注册
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(file, []byte("server:\n  port: \"9191\"\nstorage:\n  type: minio\n"), 0o644))

	select {
	case cfg := <-reloaded:
		assert.Equal(t, "9191", cfg.Server.Port)
	case <-time.After(5 * time.Second):
		t.Fatal("config was not reloaded")
	}

	cancel()
	assert.NoError(t, <-done)
}
