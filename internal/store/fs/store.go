package fs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/rawen554/uploader/internal/models"
	"github.com/rawen554/uploader/internal/store/memory"
)

const FileStorageFilePerm = 0600

// FSStorage serves reads from memory and appends every record to a JSON
// lines file that is replayed on start.
type FSStorage struct {
	*memory.MemoryStorage
	mux  *sync.Mutex
	sw   *StorageWriter
	path string
}

func NewFileStorage(filename string) (*FSStorage, error) {
	sr, err := NewStorageReader(filename)
	if err != nil {
		return nil, err
	}

	records, err := sr.ReadFromFile()
	if closeErr := sr.Close(); closeErr != nil && err == nil {
		err = closeErr
	}
	if err != nil {
		return nil, err
	}

	storage, err := memory.NewMemoryStorage(records)
	if err != nil {
		return nil, fmt.Errorf("error initialising memory storage with records: %w", err)
	}

	sw, err := NewStorageWriter(filename)
	if err != nil {
		return nil, err
	}

	return &FSStorage{
		path:          filename,
		MemoryStorage: storage,
		mux:           &sync.Mutex{},
		sw:            sw,
	}, nil
}

// Persist writes the record to the file before it becomes visible in memory,
// so a failed write leaves no trace.
func (s *FSStorage) Persist(
	_ context.Context,
	fileName string,
	fileSize uint64,
	services []models.ProviderID,
	results []models.UploadResult,
) (*models.UploadRecord, error) {
	s.mux.Lock()
	defer s.mux.Unlock()

	record := models.NewUploadRecord(fileName, fileSize, services, results)
	if err := s.sw.AppendToFile(&record); err != nil {
		return nil, fmt.Errorf("error persisting record: %w", err)
	}
	s.MemoryStorage.Append(record)

	return &record, nil
}

func (s *FSStorage) Ping(context.Context) error {
	s.mux.Lock()
	defer s.mux.Unlock()

	if _, err := s.sw.file.Stat(); err != nil {
		return fmt.Errorf("error checking storage file: %w", err)
	}
	return nil
}

func (s *FSStorage) Close() error {
	s.mux.Lock()
	defer s.mux.Unlock()

	if err := s.sw.file.Close(); err != nil {
		return fmt.Errorf("error closing file: %w", err)
	}
	return nil
}

func (s *FSStorage) DeleteStorageFile() error {
	if err := os.Remove(s.path); err != nil {
		return fmt.Errorf("error delete file: %w", err)
	}
	return nil
}

type StorageReader struct {
	file    *os.File
	decoder *json.Decoder
}

func NewStorageReader(filename string) (*StorageReader, error) {
	file, err := os.OpenFile(filename, os.O_RDONLY|os.O_CREATE, FileStorageFilePerm)
	if err != nil {
		return nil, fmt.Errorf("error open file: %w", err)
	}

	return &StorageReader{
		file:    file,
		decoder: json.NewDecoder(file),
	}, nil
}

func (sr *StorageReader) ReadFromFile() ([]models.UploadRecord, error) {
	records := make([]models.UploadRecord, 0)
	for {
		r, err := sr.ReadLine()
		if errors.Is(err, io.EOF) {
			break
		} else if err != nil {
			return nil, err
		}
		records = append(records, *r)
	}

	return records, nil
}

func (sr *StorageReader) ReadLine() (*models.UploadRecord, error) {
	r := models.UploadRecord{}
	if err := sr.decoder.Decode(&r); err != nil {
		return nil, fmt.Errorf("error decode records: %w", err)
	}

	return &r, nil
}

func (sr *StorageReader) Close() error {
	return sr.file.Close()
}

type StorageWriter struct {
	file    *os.File
	encoder *json.Encoder
}

func NewStorageWriter(filename string) (*StorageWriter, error) {
	file, err := os.OpenFile(filename, os.O_WRONLY|os.O_CREATE|os.O_APPEND, FileStorageFilePerm)
	if err != nil {
		return nil, fmt.Errorf("error opening file: %w", err)
	}

	return &StorageWriter{
		file:    file,
		encoder: json.NewEncoder(file),
	}, nil
}

func (sw *StorageWriter) AppendToFile(r *models.UploadRecord) error {
	if err := sw.encoder.Encode(r); err != nil {
		return fmt.Errorf("error encode records: %w", err)
	}
	return nil
}
