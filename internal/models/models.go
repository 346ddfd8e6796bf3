package models

import (
	"time"

	"github.com/google/uuid"
)

type ProviderID string

const (
	Filemoon ProviderID = "filemoon"
	Voe      ProviderID = "voe"
)

// UploadResult is the normalized outcome of one provider upload.
// FileURL is set only on success, Error only on failure.
type UploadResult struct {
	Service ProviderID `json:"service" bson:"service"`
	Success bool       `json:"success" bson:"success"`
	FileURL string     `json:"file_url,omitempty" bson:"file_url,omitempty"`
	Error   string     `json:"error,omitempty" bson:"error,omitempty"`
}

func Succeeded(service ProviderID, fileURL string) UploadResult {
	return UploadResult{Service: service, Success: true, FileURL: fileURL}
}

func Failed(service ProviderID, msg string) UploadResult {
	return UploadResult{Service: service, Success: false, Error: msg}
}

// UploadRecord is the immutable history entry of one orchestration run.
type UploadRecord struct {
	ID         string         `json:"id"`
	FileName   string         `json:"fileName"`
	FileSize   uint64         `json:"fileSize"`
	UploadDate time.Time      `json:"uploadDate"`
	Services   []ProviderID   `json:"services"`
	Results    []UploadResult `json:"results"`
}

// NewUploadRecord stamps a fresh id and the current time. Stores call it at
// persist time so uploadDate reflects completion order.
func NewUploadRecord(fileName string, fileSize uint64, services []ProviderID, results []UploadResult) UploadRecord {
	s := make([]ProviderID, len(services))
	copy(s, services)
	r := make([]UploadResult, len(results))
	copy(r, results)

	return UploadRecord{
		ID:         uuid.New().String(),
		FileName:   fileName,
		FileSize:   fileSize,
		UploadDate: time.Now().UTC(),
		Services:   s,
		Results:    r,
	}
}

type UploadResponse struct {
	Success      bool           `json:"success"`
	Results      []UploadResult `json:"results"`
	UploadRecord *UploadRecord  `json:"uploadRecord"`
}

type HistoryResponse struct {
	History []UploadRecord `json:"history"`
}

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
}
