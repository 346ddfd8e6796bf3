package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/rawen554/uploader/internal/models"
)

// MemoryStorage keeps the history log in process memory, oldest first.
type MemoryStorage struct {
	mux     *sync.Mutex
	records []models.UploadRecord
}

func NewMemoryStorage(records []models.UploadRecord) (*MemoryStorage, error) {
	if records == nil {
		records = make([]models.UploadRecord, 0)
	}

	return &MemoryStorage{
		mux:     &sync.Mutex{},
		records: records,
	}, nil
}

func (s *MemoryStorage) Persist(
	_ context.Context,
	fileName string,
	fileSize uint64,
	services []models.ProviderID,
	results []models.UploadResult,
) (*models.UploadRecord, error) {
	s.mux.Lock()
	defer s.mux.Unlock()

	record := models.NewUploadRecord(fileName, fileSize, services, results)
	s.records = append(s.records, record)

	return &record, nil
}

// Append adds an already stamped record, used when replaying a log.
func (s *MemoryStorage) Append(record models.UploadRecord) {
	s.mux.Lock()
	defer s.mux.Unlock()

	s.records = append(s.records, record)
}

func (s *MemoryStorage) List(_ context.Context, limit int) ([]models.UploadRecord, error) {
	s.mux.Lock()
	snapshot := make([]models.UploadRecord, 0, len(s.records))
	for i := len(s.records) - 1; i >= 0; i-- {
		snapshot = append(snapshot, s.records[i])
	}
	s.mux.Unlock()

	return Newest(snapshot, limit), nil
}

func (s *MemoryStorage) Count() int {
	s.mux.Lock()
	defer s.mux.Unlock()

	return len(s.records)
}

func (s *MemoryStorage) Ping(context.Context) error {
	return nil
}

func (s *MemoryStorage) Close() error {
	return nil
}

// Newest sorts records by uploadDate descending and keeps at most limit of
// them. records is sorted in place.
func Newest(records []models.UploadRecord, limit int) []models.UploadRecord {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].UploadDate.After(records[j].UploadDate)
	})

	if limit > 0 && len(records) > limit {
		records = records[:limit]
	}

	return records
}
