package storage

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"realestate-scraper/models"
	"realestate-scraper/utils"
)

const (
	collProperties   = "properties"
	collTrainingData = "rental_training_data"
	collScrapingJobs = "scraping_jobs"
)

// DocumentStore owns the document side of the dual store: variable-shaped
// property documents, rental training samples and job lifecycle records.
type DocumentStore struct {
	client *mongo.Client
	db     *mongo.Database
	logger *utils.Logger
}

// NewDocumentStore connects to MongoDB, verifies the connection and creates
// the collection indexes.
func NewDocumentStore(ctx context.Context, uri, dbName string, logger *utils.Logger) (*DocumentStore, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	s := &DocumentStore{
		client: client,
		db:     client.Database(dbName),
		logger: logger,
	}
	if err := s.ensureIndexes(connectCtx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("create indexes: %w", err)
	}
	logger.Info("Connected to MongoDB (database %s)", dbName)
	return s, nil
}

func (s *DocumentStore) ensureIndexes(ctx context.Context) error {
	_, err := s.db.Collection(collProperties).Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "pgPropertyId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return err
	}

	_, err = s.db.Collection(collTrainingData).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "city", Value: 1}, {Key: "state", Value: 1}}},
		{Keys: bson.D{{Key: "bedrooms", Value: 1}, {Key: "bathrooms", Value: 1}}},
		{Keys: bson.D{{Key: "squareFootage", Value: 1}}},
		{Keys: bson.D{{Key: "actualRent", Value: 1}}},
	})
	if err != nil {
		return err
	}

	_, err = s.db.Collection(collScrapingJobs).Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "jobType", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "createdAt", Value: -1}}},
	})
	return err
}

// SavePropertyDocument upserts the document keyed by its relational row id,
// so re-scraping a property replaces the old document.
func (s *DocumentStore) SavePropertyDocument(ctx context.Context, doc *models.PropertyDocument) error {
	doc.UpdatedAt = time.Now()
	_, err := s.db.Collection(collProperties).ReplaceOne(ctx,
		bson.M{"pgPropertyId": doc.PropertyID},
		doc,
		options.Replace().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("save property document %d: %w", doc.PropertyID, err)
	}
	return nil
}

// SaveTrainingRecord appends one rental observation to the training set.
func (s *DocumentStore) SaveTrainingRecord(ctx context.Context, rec *models.RentalTrainingRecord) error {
	if _, err := s.db.Collection(collTrainingData).InsertOne(ctx, rec); err != nil {
		return fmt.Errorf("save training record: %w", err)
	}
	return nil
}

// LoadTrainingRecords returns the full training set.
func (s *DocumentStore) LoadTrainingRecords(ctx context.Context) ([]models.RentalTrainingRecord, error) {
	cursor, err := s.db.Collection(collTrainingData).Find(ctx, bson.D{})
	if err != nil {
		return nil, fmt.Errorf("load training records: %w", err)
	}
	defer cursor.Close(ctx)

	var records []models.RentalTrainingRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("decode training records: %w", err)
	}
	return records, nil
}

// InsertJob persists a freshly started job record.
func (s *DocumentStore) InsertJob(ctx context.Context, job *models.ScrapingJob) error {
	if _, err := s.db.Collection(collScrapingJobs).InsertOne(ctx, job); err != nil {
		return fmt.Errorf("insert job %s: %w", job.ID, err)
	}
	return nil
}

// FinalizeJob replaces the stored record with the job's terminal state.
func (s *DocumentStore) FinalizeJob(ctx context.Context, job *models.ScrapingJob) error {
	res, err := s.db.Collection(collScrapingJobs).ReplaceOne(ctx, bson.M{"_id": job.ID}, job)
	if err != nil {
		return fmt.Errorf("finalize job %s: %w", job.ID, err)
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("finalize job %s: no such job record", job.ID)
	}
	return nil
}

// Close disconnects from MongoDB.
func (s *DocumentStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
