package mongodb

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/mamadbah2/agroyield/internal/domain/models"
)

// Repository defines the interface for estimation history storage.
type Repository interface {
	SaveEstimation(ctx context.Context, record models.EstimationHistoryRecord) error
	ListEstimations(ctx context.Context) ([]models.EstimationHistoryRecord, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// MongoRepository implements the Repository interface for MongoDB.
type MongoRepository struct {
	client   *mongo.Client
	dbName   string
	collName string
}

// NewMongoRepository creates a new MongoDB repository.
func NewMongoRepository(ctx context.Context, uri string, dbName string) (*MongoRepository, error) {
	clientOptions := options.Client().ApplyURI(uri)
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}

	// Ping the database to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoRepository{
		client:   client,
		dbName:   dbName,
		collName: "estimations",
	}, nil
}

// SaveEstimation appends an estimation record to the history collection.
func (r *MongoRepository) SaveEstimation(ctx context.Context, record models.EstimationHistoryRecord) error {
	collection := r.client.Database(r.dbName).Collection(r.collName)
	if _, err := collection.InsertOne(ctx, record); err != nil {
		return fmt.Errorf("failed to insert estimation record: %w", err)
	}
	return nil
}

// ListEstimations returns all history records, most recent first.
func (r *MongoRepository) ListEstimations(ctx context.Context) ([]models.EstimationHistoryRecord, error) {
	collection := r.client.Database(r.dbName).Collection(r.collName)

	findOptions := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}})
	cursor, err := collection.Find(ctx, bson.D{}, findOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to query estimation history: %w", err)
	}
	defer cursor.Close(ctx)

	var records []models.EstimationHistoryRecord
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("failed to decode estimation history: %w", err)
	}
	return records, nil
}

// DeleteOlderThan removes history records created before the cutoff and
// reports how many were deleted.
func (r *MongoRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	collection := r.client.Database(r.dbName).Collection(r.collName)

	result, err := collection.DeleteMany(ctx, bson.M{"created_at": bson.M{"$lt": cutoff}})
	if err != nil {
		return 0, fmt.Errorf("failed to prune estimation history: %w", err)
	}
	return result.DeletedCount, nil
}

// Close closes the MongoDB connection.
func (r *MongoRepository) Close(ctx context.Context) error {
	return r.client.Disconnect(ctx)
}
