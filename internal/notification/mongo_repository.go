package notification

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongoRepository struct {
	collection *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) Repository {
	return &mongoRepository{collection: db.Collection("notifications")}
}

func (m *mongoRepository) Append(ctx context.Context, n *Notification) error {
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	res, err := m.collection.InsertOne(ctx, bson.M{
		"session_key": n.SessionKey,
		"kind":        n.Kind,
		"title":       n.Title,
		"body":        n.Body,
		"read":        n.Read,
		"created_at":  n.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}

	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		n.ID = oid.Hex()
	}
	return nil
}

func (m *mongoRepository) ListBySession(ctx context.Context, sessionKey string, limit int) ([]*Notification, error) {
	filter := bson.M{"session_key": sessionKey}
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := m.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query notifications: %w", err)
	}
	defer cursor.Close(ctx)

	var result []*Notification
	for cursor.Next(ctx) {
		var doc struct {
			ID         primitive.ObjectID `bson:"_id"`
			SessionKey string             `bson:"session_key"`
			Kind       string             `bson:"kind"`
			Title      string             `bson:"title"`
			Body       string             `bson:"body"`
			Read       bool               `bson:"read"`
			CreatedAt  time.Time          `bson:"created_at"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode notification: %w", err)
		}
		result = append(result, &Notification{
			ID:         doc.ID.Hex(),
			SessionKey: doc.SessionKey,
			Kind:       doc.Kind,
			Title:      doc.Title,
			Body:       doc.Body,
			Read:       doc.Read,
			CreatedAt:  doc.CreatedAt,
		})
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor iteration error: %w", err)
	}
	return result, nil
}

func (m *mongoRepository) MarkRead(ctx context.Context, sessionKey, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotificationNotFound
	}

	filter := bson.M{"_id": oid, "session_key": sessionKey}
	update := bson.M{"$set": bson.M{"read": true}}

	res, err := m.collection.UpdateOne(ctx, filter, update)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

// EnsureIndexes creates the feed's query index.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	_, err := db.Collection("notifications").Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{
			{Key: "session_key", Value: 1},
			{Key: "created_at", Value: -1},
		},
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("failed to create notification indexes: %w", err)
	}
	return nil
}
