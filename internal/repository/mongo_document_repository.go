package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"doc-converter/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// ConnectMongo opens a client to the document store and verifies it answers.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}
	return client, nil
}

// MongoDocumentRepository keeps one record per converted file. Every filter
// carries the owner so a document is never reachable by another user.
type MongoDocumentRepository struct {
	collection *mongo.Collection
}

func NewMongoDocumentRepository(collection *mongo.Collection) *MongoDocumentRepository {
	return &MongoDocumentRepository{collection: collection}
}

// EnsureIndexes creates the unique file_id index and the per-owner listing index.
func (r *MongoDocumentRepository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "file_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}},
		},
	})
	if err != nil {
		return fmt.Errorf("create document indexes: %w", err)
	}
	return nil
}

func (r *MongoDocumentRepository) Create(ctx context.Context, document *domain.Document) error {
	if err := document.Validate(); err != nil {
		return err
	}
	if _, err := r.collection.InsertOne(ctx, document); err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

func (r *MongoDocumentRepository) GetOwned(ctx context.Context, fileID string, userID int64) (*domain.Document, error) {
	var document domain.Document
	err := r.collection.FindOne(ctx, ownedFilter(fileID, userID)).Decode(&document)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("find document: %w", err)
	}
	return &document, nil
}

// ListByUser returns the owner's documents, newest first, without storage paths.
func (r *MongoDocumentRepository) ListByUser(ctx context.Context, userID int64) ([]*domain.Document, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetProjection(bson.D{
			{Key: "_id", Value: 0},
			{Key: "original_path", Value: 0},
			{Key: "pdf_path", Value: 0},
		})

	cursor, err := r.collection.Find(ctx, bson.M{"user_id": userID}, opts)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer cursor.Close(ctx)

	documents := make([]*domain.Document, 0)
	if err := cursor.All(ctx, &documents); err != nil {
		return nil, fmt.Errorf("decode documents: %w", err)
	}
	return documents, nil
}

// DeleteOwned removes the record and reports whether one existed.
func (r *MongoDocumentRepository) DeleteOwned(ctx context.Context, fileID string, userID int64) (bool, error) {
	res, err := r.collection.DeleteOne(ctx, ownedFilter(fileID, userID))
	if err != nil {
		return false, fmt.Errorf("delete document: %w", err)
	}
	return res.DeletedCount > 0, nil
}

func ownedFilter(fileID string, userID int64) bson.M {
	return bson.M{"file_id": fileID, "user_id": userID}
}
