package store

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/rawen554/uploader/internal/config"
	"github.com/rawen554/uploader/internal/models"
	"github.com/rawen554/uploader/internal/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLazy_OpensOnce(t *testing.T) {
	ctx := context.Background()
	var opens atomic.Int32

	lazy := NewLazy(func(context.Context) (Backend, error) {
		opens.Add(1)
		return memory.NewMemoryStorage(nil)
	}, zap.L().Sugar())

	assert.Zero(t, opens.Load(), "must not connect before first use")

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := lazy.Persist(ctx, "a.mp4", 1, []models.ProviderID{models.Filemoon}, nil)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	got, err := lazy.List(ctx, 50)
	require.NoError(t, err)

	assert.Len(t, got, 10)
	assert.Equal(t, int32(1), opens.Load())
}

func TestLazy_RetriesFailedOpen(t *testing.T) {
	ctx := context.Background()
	errDown := errors.New("connection refused")
	var opens atomic.Int32

	lazy := NewLazy(func(context.Context) (Backend, error) {
		if opens.Add(1) == 1 {
			return nil, errDown
		}
		return memory.NewMemoryStorage(nil)
	}, zap.L().Sugar())

	_, err := lazy.Persist(ctx, "a.mp4", 1, nil, nil)
	assert.ErrorIs(t, err, errDown)

	_, err = lazy.Persist(ctx, "a.mp4", 1, nil, nil)
	assert.NoError(t, err)
	assert.NoError(t, lazy.Ping(ctx))
	assert.Equal(t, int32(2), opens.Load())
}

func TestLazy_Close(t *testing.T) {
	ctx := context.Background()
	lazy := NewLazy(func(context.Context) (Backend, error) {
		return memory.NewMemoryStorage(nil)
	}, zap.L().Sugar())

	require.NoError(t, lazy.Ping(ctx))
	require.NoError(t, lazy.Close())

	_, err := lazy.List(ctx, 50)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestNewStore(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name string
		cfg  *config.ServerConfig
	}{
		{
			name: "memory by default",
			cfg:  &config.ServerConfig{},
		},
		{
			name: "file storage",
			cfg:  &config.ServerConfig{FileStoragePath: filepath.Join(t.TempDir(), "history.json")},
		},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			s := NewStore(tt.cfg, zap.L().Sugar())
			defer func() {
				assert.NoError(t, s.Close())
			}()

			stored, err := s.Persist(ctx, "clip.mp4", 10, []models.ProviderID{models.Voe},
				[]models.UploadResult{models.Succeeded(models.Voe, "https://voe/x")})
			require.NoError(t, err)

			got, err := s.List(ctx, 50)
			require.NoError(t, err)
			require.Len(t, got, 1)
			assert.Equal(t, stored.ID, got[0].ID)
		})
	}
}
