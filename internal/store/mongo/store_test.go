package mongo

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
	uri := os.Getenv("TEST_MONGO_URL")
	if uri == "" {
		t.Skip("TEST_MONGO_URL is not set")
	}

	storetest.Run(t, func(t *testing.T) storetest.Store {
		ctx := context.Background()
		database := fmt.Sprintf("uploader_test_%d", time.Now().UnixNano())

		s, err := NewMongoStore(ctx, uri, database)
		require.NoError(t, err)

		t.Cleanup(func() {
			if err := s.DropCollection(ctx); err != nil {
				t.Error(err)
			}
			if err := s.Close(); err != nil {
				t.Error(err)
			}
		})
		return s
	})
}
