// Package store selects the history backend and manages its connection.
package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rawen554/uploader/internal/config"
	"github.com/rawen554/uploader/internal/models"
	"github.com/rawen554/uploader/internal/store/fs"
	"github.com/rawen554/uploader/internal/store/memory"
	"github.com/rawen554/uploader/internal/store/mongo"
	"github.com/rawen554/uploader/internal/store/postgres"
	"github.com/rawen554/uploader/internal/store/redis"
	"go.uber.org/zap"
)

type Backend interface {
	Persist(
		ctx context.Context,
		fileName string,
		fileSize uint64,
		services []models.ProviderID,
		results []models.UploadResult,
	) (*models.UploadRecord, error)
	List(ctx context.Context, limit int) ([]models.UploadRecord, error)
	Ping(ctx context.Context) error
	Close() error
}

type Opener func(ctx context.Context) (Backend, error)

var ErrClosed = errors.New("history store is closed")

// Lazy opens its backend on first use and reuses it for the life of the
// process. A failed open is retried by the next call.
type Lazy struct {
	mux     *sync.Mutex
	open    Opener
	backend Backend
	closed  bool
	logger  *zap.SugaredLogger
}

func NewLazy(open Opener, logger *zap.SugaredLogger) *Lazy {
	return &Lazy{
		mux:    &sync.Mutex{},
		open:   open,
		logger: logger,
	}
}

func (l *Lazy) get(ctx context.Context) (Backend, error) {
	l.mux.Lock()
	defer l.mux.Unlock()

	if l.closed {
		return nil, ErrClosed
	}
	if l.backend != nil {
		return l.backend, nil
	}

	backend, err := l.open(ctx)
	if err != nil {
		return nil, fmt.Errorf("error opening history store: %w", err)
	}
	l.logger.Info("history store connected")
	l.backend = backend

	return backend, nil
}

func (l *Lazy) Persist(
	ctx context.Context,
	fileName string,
	fileSize uint64,
	services []models.ProviderID,
	results []models.UploadResult,
) (*models.UploadRecord, error) {
	b, err := l.get(ctx)
	if err != nil {
		return nil, err
	}
	return b.Persist(ctx, fileName, fileSize, services, results)
}

func (l *Lazy) List(ctx context.Context, limit int) ([]models.UploadRecord, error) {
	b, err := l.get(ctx)
	if err != nil {
		return nil, err
	}
	return b.List(ctx, limit)
}

func (l *Lazy) Ping(ctx context.Context) error {
	b, err := l.get(ctx)
	if err != nil {
		return err
	}
	return b.Ping(ctx)
}

// Close releases the backend if it was ever opened. Later calls fail with
// ErrClosed.
func (l *Lazy) Close() error {
	l.mux.Lock()
	defer l.mux.Unlock()

	l.closed = true
	if l.backend == nil {
		return nil
	}

	err := l.backend.Close()
	l.backend = nil
	return err
}

// NewStore picks the backend from config: mongo, postgres, redis, file, and
// memory as the fallback. No connection is made until first use.
func NewStore(cfg *config.ServerConfig, logger *zap.SugaredLogger) *Lazy {
	var open Opener

	switch {
	case cfg.MongoURL != "":
		logger.Infof("using mongo history store, database %q", cfg.DBName)
		open = func(ctx context.Context) (Backend, error) {
			return mongo.NewMongoStore(ctx, cfg.MongoURL, cfg.DBName)
		}
	case cfg.DatabaseDSN != "":
		logger.Info("using postgres history store")
		open = func(ctx context.Context) (Backend, error) {
			return postgres.NewPostgresStore(ctx, cfg.DatabaseDSN)
		}
	case cfg.RedisURL != "":
		logger.Info("using redis history store")
		open = func(ctx context.Context) (Backend, error) {
			return redis.NewRedisStore(ctx, cfg.RedisURL, redis.DefaultKey)
		}
	case cfg.FileStoragePath != "":
		logger.Infof("using file history store at %s", cfg.FileStoragePath)
		open = func(context.Context) (Backend, error) {
			return fs.NewFileStorage(cfg.FileStoragePath)
		}
	default:
		logger.Info("using in-memory history store")
		open = func(context.Context) (Backend, error) {
			return memory.NewMemoryStorage(nil)
		}
	}

	return NewLazy(open, logger)
}
