package services

import (
	"context"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/sarrtle/fbtools/models"
)

// InitMongoDB initializes the MongoDB connection.
func InitMongoDB(ctx context.Context, uri string) (*mongo.Client, error) {
	clientOptions := options.Client().ApplyURI(uri)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, err
	}

	// Ping to verify connection
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	slog.Info("Connected to MongoDB")
	return client, nil
}

// EventStore persists classified webhook events. A nil store is valid
// and drops everything, persistence is optional.
type EventStore struct {
	db *mongo.Database
}

// NewEventStore creates an event store on the given database.
func NewEventStore(client *mongo.Client, databaseName string) *EventStore {
	return &EventStore{db: client.Database(databaseName)}
}

// EnsureIndexes creates the collection indexes the store queries by.
func (s *EventStore) EnsureIndexes(ctx context.Context) error {
	if s == nil {
		return nil
	}

	posts := s.db.Collection("posts")
	if _, err := posts.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.M{"post_id": 1}},
		{Keys: bson.M{"page_id": 1}},
		{Keys: bson.M{"received_at": -1}},
	}); err != nil {
		return err
	}

	comments := s.db.Collection("comments")
	if _, err := comments.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.M{"comment_id": 1}, Options: options.Index().SetUnique(true)},
		{Keys: bson.M{"post_id": 1}},
		{Keys: bson.M{"page_id": 1}},
		{Keys: bson.M{"is_reply": 1}},
		{Keys: bson.M{"received_at": -1}},
	}); err != nil {
		return err
	}

	messages := s.db.Collection("messages")
	if _, err := messages.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.M{"sender_id": 1}},
		{Keys: bson.M{"page_id": 1}},
		{Keys: bson.M{"timestamp": -1}},
	}); err != nil {
		return err
	}

	reactions := s.db.Collection("reactions")
	if _, err := reactions.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.M{"target_id": 1}},
		{Keys: bson.M{"page_id": 1}},
		{Keys: bson.M{"received_at": -1}},
	}); err != nil {
		return err
	}

	return nil
}

// SavePost persists a post notification.
func (s *EventStore) SavePost(ctx context.Context, post *models.StoredPost) error {
	if s == nil {
		return nil
	}
	post.ReceivedAt = time.Now()
	_, err := s.db.Collection("posts").InsertOne(ctx, post)
	return err
}

// SaveComment persists a comment notification.
func (s *EventStore) SaveComment(ctx context.Context, comment *models.StoredComment) error {
	if s == nil {
		return nil
	}
	comment.ReceivedAt = time.Now()
	_, err := s.db.Collection("comments").InsertOne(ctx, comment)
	return err
}

// SaveMessage persists a message notification.
func (s *EventStore) SaveMessage(ctx context.Context, message *models.StoredMessage) error {
	if s == nil {
		return nil
	}
	message.ReceivedAt = time.Now()
	_, err := s.db.Collection("messages").InsertOne(ctx, message)
	return err
}

// SaveReaction persists a reaction notification.
func (s *EventStore) SaveReaction(ctx context.Context, reaction *models.StoredReaction) error {
	if s == nil {
		return nil
	}
	reaction.ReceivedAt = time.Now()
	_, err := s.db.Collection("reactions").InsertOne(ctx, reaction)
	return err
}
