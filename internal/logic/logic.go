package logic

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rawen554/uploader/internal/metrics"
	"github.com/rawen554/uploader/internal/models"
	"github.com/rawen554/uploader/internal/providers"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// DefaultHistoryLimit is the number of records History returns when the
// caller does not ask for a positive limit.
const DefaultHistoryLimit = 50

// ValidationError is a caller mistake detected before any provider is called.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string {
	return e.msg
}

var (
	ErrNoFile            = &ValidationError{msg: "no file"}
	ErrNoServiceSelected = &ValidationError{msg: "no service selected"}
)

//go:generate mockgen -destination=../store/mocks/store.go -package=mocks github.com/rawen554/uploader/internal/logic Store
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
	Close() error
}

type CoreLogic struct {
	store     Store
	providers *providers.Registry
	metrics   *metrics.Metrics
	logger    *zap.SugaredLogger
	inflight  *sync.WaitGroup
}

func NewCoreLogic(
	store Store,
	registry *providers.Registry,
	m *metrics.Metrics,
	logger *zap.SugaredLogger,
) *CoreLogic {
	return &CoreLogic{
		store:     store,
		providers: registry,
		metrics:   m,
		logger:    logger,
		inflight:  &sync.WaitGroup{},
	}
}

// Upload sends file to every selected provider concurrently, waits for all of
// them and records the run in the history store. Provider failures are part
// of the returned record; only validation and persistence errors are returned.
func (cl *CoreLogic) Upload(
	ctx context.Context,
	file []byte,
	fileName string,
	fileSize uint64,
	services []models.ProviderID,
) (*models.UploadRecord, error) {
	if len(file) == 0 {
		return nil, ErrNoFile
	}
	if len(services) == 0 {
		return nil, ErrNoServiceSelected
	}

	cl.inflight.Add(1)
	defer cl.inflight.Done()

	results := cl.dispatch(ctx, file, fileName, cl.providers.Select(services))

	record, err := cl.store.Persist(ctx, fileName, fileSize, services, results)
	if err != nil {
		cl.metrics.PersistFailed()
		err = fmt.Errorf("error saving upload history: %w", err)
		cl.logger.Error(err)
		return nil, err
	}

	return record, nil
}

// dispatch runs every adapter in its own goroutine. Adapters report failures
// in their result, so the group never cancels a sibling.
func (cl *CoreLogic) dispatch(
	ctx context.Context,
	file []byte,
	fileName string,
	adapters []providers.Adapter,
) []models.UploadResult {
	cl.metrics.RunStarted()
	defer cl.metrics.RunFinished()

	results := make([]models.UploadResult, len(adapters))

	var g errgroup.Group
	for i, adapter := range adapters {
		i, adapter := i, adapter
		g.Go(func() error {
			start := time.Now()
			results[i] = cl.execute(ctx, adapter, file, fileName)
			cl.metrics.ObserveUpload(results[i], time.Since(start))
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func (cl *CoreLogic) execute(
	ctx context.Context,
	adapter providers.Adapter,
	file []byte,
	fileName string,
) (result models.UploadResult) {
	defer func() {
		if r := recover(); r != nil {
			cl.logger.Errorf("provider %s panicked: %v", adapter.ID(), r)
			result = models.Failed(adapter.ID(), fmt.Sprintf("%v", r))
		}
	}()

	result = adapter.Execute(ctx, file, fileName)
	if result.Success {
		cl.logger.Infow("upload finished", "service", result.Service, "file_url", result.FileURL)
	} else {
		cl.logger.Warnw("upload failed", "service", result.Service, "error", result.Error)
	}

	return result
}

func (cl *CoreLogic) History(ctx context.Context, limit int) ([]models.UploadRecord, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	records, err := cl.store.List(ctx, limit)
	if err != nil {
		err = fmt.Errorf("error getting upload history: %w", err)
		cl.logger.Error(err)
		return nil, err
	}

	return records, nil
}

func (cl *CoreLogic) Ping(ctx context.Context) error {
	if err := cl.store.Ping(ctx); err != nil {
		err = fmt.Errorf("error connecting to history store: %w", err)
		cl.logger.Error(err)
		return err
	}

	return nil
}

// Drain waits for running uploads to be persisted. Call it after the HTTP
// server stops accepting requests and before the store is closed.
func (cl *CoreLogic) Drain(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		cl.inflight.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("error waiting for running uploads: %w", ctx.Err())
	}
}

func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
