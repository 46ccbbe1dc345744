package leads

import (
	"context"
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
	return &mongoRepository{collection: db.Collection("leads")}
}

func (m *mongoRepository) Submit(ctx context.Context, lead *Lead) error {
	if lead.CreatedAt.IsZero() {
		lead.CreatedAt = time.Now()
	}

	res, err := m.collection.InsertOne(ctx, bson.M{
		"service":       lead.Service,
		"property_type": lead.PropertyType,
		"size":          lead.Size,
		"frequency":     lead.Frequency,
		"extras":        lead.Extras,
		"contact": bson.M{
			"name":     lead.Contact.Name,
			"email":    lead.Contact.Email,
			"phone":    lead.Contact.Phone,
			"postcode": lead.Contact.Postcode,
			"message":  lead.Contact.Message,
		},
		"source":     lead.Source,
		"created_at": lead.CreatedAt,
	})
	if err != nil {
		return fmt.Errorf("failed to insert lead: %w", err)
	}

	if oid, ok := res.InsertedID.(primitive.ObjectID); ok {
		lead.ID = oid.Hex()
	}
	return nil
}

func (m *mongoRepository) ListRecent(ctx context.Context, limit int) ([]*Lead, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}}).
		SetLimit(int64(limit))

	cursor, err := m.collection.Find(ctx, bson.M{}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query leads: %w", err)
	}
	defer cursor.Close(ctx)

	var result []*Lead
	for cursor.Next(ctx) {
		var doc struct {
			ID           primitive.ObjectID `bson:"_id"`
			Service      string             `bson:"service"`
			PropertyType string             `bson:"property_type"`
			Size         int                `bson:"size"`
			Frequency    string             `bson:"frequency"`
			Extras       []string           `bson:"extras"`
			Contact      Contact            `bson:"contact"`
			Source       string             `bson:"source"`
			CreatedAt    time.Time          `bson:"created_at"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("failed to decode lead: %w", err)
		}
		result = append(result, &Lead{
			ID:           doc.ID.Hex(),
			Service:      doc.Service,
			PropertyType: doc.PropertyType,
			Size:         doc.Size,
			Frequency:    doc.Frequency,
			Extras:       doc.Extras,
			Contact:      doc.Contact,
			Source:       doc.Source,
			CreatedAt:    doc.CreatedAt,
		})
	}

	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor iteration error: %w", err)
	}
	return result, nil
}
