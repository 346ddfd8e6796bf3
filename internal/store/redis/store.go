package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/rawen554/uploader/internal/models"
	"github.com/rawen554/uploader/internal/store/memory"
	"github.com/redis/go-redis/v9"
)

const DefaultKey = "upload_history"

// Store keeps the history log in a Redis list, newest record at the head.
type Store struct {
	rdb *redis.Client
	key string
}

func NewRedisStore(ctx context.Context, url string, key string) (*Store, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("could not parse Redis URL: %w", err)
	}
	rdb := redis.NewClient(opts)

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("could not connect to Redis: %w", err)
	}

	if key == "" {
		key = DefaultKey
	}

	return &Store{rdb: rdb, key: key}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.rdb.Ping(ctx).Err()
}

func (s *Store) Close() error {
	return s.rdb.Close()
}

func (s *Store) Persist(
	ctx context.Context,
	fileName string,
	fileSize uint64,
	services []models.ProviderID,
	results []models.UploadResult,
) (*models.UploadRecord, error) {
	record := models.NewUploadRecord(fileName, fileSize, services, results)

	b, err := json.Marshal(record)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal upload record: %w", err)
	}

	if err := s.rdb.LPush(ctx, s.key, b).Err(); err != nil {
		return nil, fmt.Errorf("error pushing upload record: %w", err)
	}

	return &record, nil
}

func (s *Store) List(ctx context.Context, limit int) ([]models.UploadRecord, error) {
	values, err := s.rdb.LRange(ctx, s.key, 0, int64(limit)-1).Result()
	if err != nil {
		return nil, fmt.Errorf("error reading upload history: %w", err)
	}

	records := make([]models.UploadRecord, 0, len(values))
	for _, v := range values {
		var r models.UploadRecord
		if err := json.Unmarshal([]byte(v), &r); err != nil {
			return nil, fmt.Errorf("failed to unmarshal upload record: %w", err)
		}
		records = append(records, r)
	}

	// Concurrent writers may push slightly out of timestamp order.
	return memory.Newest(records, limit), nil
}

// Clear deletes the list. Used by tests.
func (s *Store) Clear(ctx context.Context) error {
	return s.rdb.Del(ctx, s.key).Err()
}
