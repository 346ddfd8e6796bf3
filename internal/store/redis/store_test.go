package redis

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/rawen554/uploader/internal/store/storetest"
	"github.com/stretchr/testify/require"
)

func TestStore_Contract(t *testing.T) {
	url := os.Getenv("TEST_REDIS_URL")
	if url == "" {
		t.Skip("TEST_REDIS_URL is not set")
	}

	storetest.Run(t, func(t *testing.T) storetest.Store {
		ctx := context.Background()
		key := fmt.Sprintf("upload_history_test_%d", time.Now().UnixNano())

		s, err := NewRedisStore(ctx, url, key)
		require.NoError(t, err)

		t.Cleanup(func() {
			if err := s.Clear(ctx); err != nil {
				t.Error(err)
			}
			if err := s.Close(); err != nil {
				t.Error(err)
			}
		})
		return s
	})
}
