package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rawen554/uploader/internal/models"
)

type DBStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, dsn string) (*DBStore, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("error creating postgres pool: %w", err)
	}
	dbStore := &DBStore{pool: pool}

	if err := dbStore.CreateTable(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("error creating table: %w", err)
	}

	return dbStore, nil
}

func (db *DBStore) Ping(ctx context.Context) error {
	return db.pool.Ping(ctx)
}

func (db *DBStore) Close() error {
	db.pool.Close()
	return nil
}

func (db *DBStore) Persist(
	ctx context.Context,
	fileName string,
	fileSize uint64,
	services []models.ProviderID,
	results []models.UploadResult,
) (*models.UploadRecord, error) {
	record := models.NewUploadRecord(fileName, fileSize, services, results)
	record.UploadDate = record.UploadDate.Truncate(time.Microsecond)

	servicesJSON, err := json.Marshal(record.Services)
	if err != nil {
		return nil, fmt.Errorf("error encoding services: %w", err)
	}
	resultsJSON, err := json.Marshal(record.Results)
	if err != nil {
		return nil, fmt.Errorf("error encoding results: %w", err)
	}

	_, err = db.pool.Exec(ctx, `
		INSERT INTO upload_history (id, file_name, file_size, upload_date, services, results)
		VALUES (@id, @fileName, @fileSize, @uploadDate, @services, @results)
	`, pgx.NamedArgs{
		"id":         record.ID,
		"fileName":   record.FileName,
		"fileSize":   int64(record.FileSize),
		"uploadDate": record.UploadDate,
		"services":   servicesJSON,
		"results":    resultsJSON,
	})
	if err != nil {
		return nil, fmt.Errorf("error inserting upload record: %w", err)
	}

	return &record, nil
}

func (db *DBStore) List(ctx context.Context, limit int) ([]models.UploadRecord, error) {
	rows, err := db.pool.Query(ctx, `
		SELECT id::text, file_name, file_size, upload_date, services, results
		FROM upload_history
		ORDER BY upload_date DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("error querying upload history: %w", err)
	}
	defer rows.Close()

	records := make([]models.UploadRecord, 0, limit)
	for rows.Next() {
		var (
			r            models.UploadRecord
			size         int64
			servicesJSON []byte
			resultsJSON  []byte
		)
		if err := rows.Scan(&r.ID, &r.FileName, &size, &r.UploadDate, &servicesJSON, &resultsJSON); err != nil {
			return nil, fmt.Errorf("error scanning upload record: %w", err)
		}
		r.FileSize = uint64(size)
		r.UploadDate = r.UploadDate.UTC()
		if err := json.Unmarshal(servicesJSON, &r.Services); err != nil {
			return nil, fmt.Errorf("error decoding services: %w", err)
		}
		if err := json.Unmarshal(resultsJSON, &r.Results); err != nil {
			return nil, fmt.Errorf("error decoding results: %w", err)
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error reading upload history: %w", err)
	}

	return records, nil
}

func (db *DBStore) CreateTable(ctx context.Context) error {
	if _, err := db.pool.Exec(ctx, "CREATE TABLE IF NOT EXISTS upload_history( "+
		"id UUID PRIMARY KEY, "+
		"file_name TEXT NOT NULL, "+
		"file_size BIGINT NOT NULL, "+
		"upload_date TIMESTAMPTZ NOT NULL, "+
		"services JSONB NOT NULL, "+
		"results JSONB NOT NULL "+
		");"); err != nil {
		return err
	}

	_, err := db.pool.Exec(ctx,
		"CREATE INDEX IF NOT EXISTS upload_history_upload_date_idx ON upload_history (upload_date DESC);")
	return err
}

func (db *DBStore) DropTable(ctx context.Context) error {
	_, err := db.pool.Exec(ctx, "DROP TABLE IF EXISTS upload_history;")
	return err
}
