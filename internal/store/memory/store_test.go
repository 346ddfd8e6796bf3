package memory

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/rawen554/uploader/internal/models"
	"github.com/rawen554/uploader/internal/store/storetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStorage_PersistAndList(t *testing.T) {
	ctx := context.Background()
	s, err := NewMemoryStorage(nil)
	require.NoError(t, err)

	results := []models.UploadResult{models.Succeeded(models.Filemoon, "https://cdn/abc")}
	stored, err := s.Persist(ctx, "clip.mp4", 1024, []models.ProviderID{models.Filemoon}, results)
	require.NoError(t, err)

	got, err := s.List(ctx, 50)
	require.NoError(t, err)

	require.Len(t, got, 1)
	assert.Equal(t, *stored, got[0])
	assert.Equal(t, "clip.mp4", got[0].FileName)
	assert.Equal(t, uint64(1024), got[0].FileSize)
	assert.Equal(t, results, got[0].Results)
}

func TestMemoryStorage_ListLimitAndOrder(t *testing.T) {
	ctx := context.Background()
	s, err := NewMemoryStorage(nil)
	require.NoError(t, err)

	for i := 0; i < 60; i++ {
		_, err := s.Persist(ctx, fmt.Sprintf("file-%d.mp4", i), uint64(i), []models.ProviderID{models.Voe}, nil)
		require.NoError(t, err)
	}

	got, err := s.List(ctx, 50)
	require.NoError(t, err)

	assert.Len(t, got, 50)
	assert.Equal(t, "file-59.mp4", got[0].FileName)
	for i := 1; i < len(got); i++ {
		assert.False(t, got[i].UploadDate.After(got[i-1].UploadDate), "history must be newest first")
	}
	assert.Equal(t, 60, s.Count())
}

func TestNewest(t *testing.T) {
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	records := []models.UploadRecord{
		{ID: "a", UploadDate: base},
		{ID: "c", UploadDate: base.Add(2 * time.Hour)},
		{ID: "b", UploadDate: base.Add(time.Hour)},
	}

	tests := []struct {
		name  string
		limit int
		want  []string
	}{
		{name: "all", limit: 10, want: []string{"c", "b", "a"}},
		{name: "limited", limit: 2, want: []string{"c", "b"}},
		{name: "no limit", limit: 0, want: []string{"c", "b", "a"}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			in := make([]models.UploadRecord, len(records))
			copy(in, records)

			ids := make([]string, 0)
			for _, r := range Newest(in, tt.limit) {
				ids = append(ids, r.ID)
			}
			assert.Equal(t, tt.want, ids)
		})
	}
}

func TestMemoryStorage_Contract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) storetest.Store {
		s, err := NewMemoryStorage(nil)
		require.NoError(t, err)
		return s
	})
}
