package mongo

import (
	"context"
	"fmt"
	"time"

	"github.com/rawen554/uploader/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const CollectionName = "upload_history"

type Store struct {
	client     *mongo.Client
	collection *mongo.Collection
}

func NewMongoStore(ctx context.Context, uri string, database string) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("error connecting to mongo: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("error pinging mongo: %w", err)
	}

	collection := client.Database(database).Collection(CollectionName)
	if _, err := collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "uploadDate", Value: -1}},
	}); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("error creating uploadDate index: %w", err)
	}

	return &Store{client: client, collection: collection}, nil
}

func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx, nil)
}

func (s *Store) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.client.Disconnect(ctx)
}

func (s *Store) Persist(
	ctx context.Context,
	fileName string,
	fileSize uint64,
	services []models.ProviderID,
	results []models.UploadResult,
) (*models.UploadRecord, error) {
	record := models.NewUploadRecord(fileName, fileSize, services, results)
	// BSON dates carry milliseconds.
	record.UploadDate = record.UploadDate.Truncate(time.Millisecond)

	if _, err := s.collection.InsertOne(ctx, toDocument(record)); err != nil {
		return nil, fmt.Errorf("error inserting upload record: %w", err)
	}

	return &record, nil
}

func (s *Store) List(ctx context.Context, limit int) ([]models.UploadRecord, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "uploadDate", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := s.collection.Find(ctx, bson.D{}, opts)
	if err != nil {
		return nil, fmt.Errorf("error querying upload history: %w", err)
	}

	var docs []document
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("error decoding upload history: %w", err)
	}

	records := make([]models.UploadRecord, 0, len(docs))
	for _, d := range docs {
		records = append(records, d.toRecord())
	}

	return records, nil
}

// DropCollection removes every record. Used by tests.
func (s *Store) DropCollection(ctx context.Context) error {
	return s.collection.Drop(ctx)
}

// document stores fileSize as int64 because BSON has no unsigned integers.
type document struct {
	ID         string                `bson:"id"`
	FileName   string                `bson:"fileName"`
	FileSize   int64                 `bson:"fileSize"`
	UploadDate time.Time             `bson:"uploadDate"`
	Services   []models.ProviderID   `bson:"services"`
	Results    []models.UploadResult `bson:"results"`
}

func toDocument(r models.UploadRecord) document {
	return document{
		ID:         r.ID,
		FileName:   r.FileName,
		FileSize:   int64(r.FileSize),
		UploadDate: r.UploadDate,
		Services:   r.Services,
		Results:    r.Results,
	}
}

func (d document) toRecord() models.UploadRecord {
	return models.UploadRecord{
		ID:         d.ID,
		FileName:   d.FileName,
		FileSize:   uint64(d.FileSize),
		UploadDate: d.UploadDate.UTC(),
		Services:   d.Services,
		Results:    d.Results,
	}
}
