// Package storetest holds behaviour checks shared by every history backend.
package storetest

import (
	"context"
	"fmt"
	"testing"

	"github.com/rawen554/uploader/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Store interface {
	Persist(
		ctx context.Context,
		fileName string,
		fileSize uint64,
		services []models.ProviderID,
		results []models.UploadResult,
	) (*models.UploadRecord, error)
	List(ctx context.Context, limit int) ([]models.UploadRecord, error)
	Ping(ctx context.Context) error
}

// Run checks round trip, ordering and limit behaviour. newStore must return
// an empty store.
func Run(t *testing.T, newStore func(t *testing.T) Store) {
	t.Run("round trip", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)
		require.NoError(t, s.Ping(ctx))

		services := []models.ProviderID{models.Voe, models.Filemoon}
		results := []models.UploadResult{
			models.Succeeded(models.Filemoon, "https://cdn/abc"),
			models.Failed(models.Voe, "Failed to get upload server URL from Voe.sx"),
		}
		stored, err := s.Persist(ctx, "clip.mp4", 123456789, services, results)
		require.NoError(t, err)
		assert.NotEmpty(t, stored.ID)
		assert.False(t, stored.UploadDate.IsZero())

		got, err := s.List(ctx, 50)
		require.NoError(t, err)
		require.Len(t, got, 1)

		assert.Equal(t, stored.ID, got[0].ID)
		assert.Equal(t, "clip.mp4", got[0].FileName)
		assert.Equal(t, uint64(123456789), got[0].FileSize)
		assert.Equal(t, services, got[0].Services)
		assert.Equal(t, results, got[0].Results)
		assert.True(t, stored.UploadDate.Equal(got[0].UploadDate))
	})

	t.Run("newest first and limited", func(t *testing.T) {
		ctx := context.Background()
		s := newStore(t)

		ids := make(map[string]struct{})
		for i := 0; i < 55; i++ {
			r, err := s.Persist(ctx, fmt.Sprintf("file-%02d.mp4", i), uint64(i),
				[]models.ProviderID{models.Filemoon},
				[]models.UploadResult{models.Succeeded(models.Filemoon, "u")})
			require.NoError(t, err)
			ids[r.ID] = struct{}{}
		}
		assert.Len(t, ids, 55, "ids must be unique")

		got, err := s.List(ctx, 50)
		require.NoError(t, err)

		assert.Len(t, got, 50)
		for i := 1; i < len(got); i++ {
			assert.False(t, got[i].UploadDate.After(got[i-1].UploadDate),
				"record %d is newer than record %d", i, i-1)
		}

		few, err := s.List(ctx, 3)
		require.NoError(t, err)
		assert.Len(t, few, 3)
	})
}
