package services

import (
	"context"
	"crypto/tls"
	"log"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/askaway/backend/internal/models"
)

type MongoNotificationService struct {
	client *mongo.Client
	db     *mongo.Database
	col    *mongo.Collection
}

func NewMongoNotificationService(ctx context.Context, mongoURI, dbName string) (*MongoNotificationService, error) {
	tlsCfg := &tls.Config{
		MinVersion: tls.VersionTLS12,
		MaxVersion: tls.VersionTLS12,
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI).SetTLSConfig(tlsCfg))
	if err != nil {
		return nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, err
	}

	db := client.Database(dbName)
	col := db.Collection("notifications")

	_, _ = col.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "recipient_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "recipient_id", Value: 1}, {Key: "is_read", Value: 1}}},
	})

	log.Printf("MongoDB connected (notifications): db=%s", dbName)
	return &MongoNotificationService{client: client, db: db, col: col}, nil
}

func (s *MongoNotificationService) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoNotificationService) Create(n *models.Notification) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	c := *n
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}

	_, err := s.col.InsertOne(ctx, c)
	return err
}

func (s *MongoNotificationService) ListByRecipient(userID string, limit int) ([]*models.Notification, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if limit <= 0 || limit > 100 {
		limit = 50
	}

	cur, err := s.col.Find(ctx,
		bson.M{"recipient_id": userID},
		options.Find().
			SetSort(bson.D{{Key: "created_at", Value: -1}}).
			SetLimit(int64(limit)))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]*models.Notification, 0)
	for cur.Next(ctx) {
		var n models.Notification
		if err := cur.Decode(&n); err != nil {
			return nil, err
		}
		out = append(out, &n)
	}
	return out, cur.Err()
}

func (s *MongoNotificationService) MarkRead(userID, id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	res, err := s.col.UpdateOne(ctx,
		bson.M{"_id": id, "recipient_id": userID},
		bson.M{"$set": bson.M{"is_read": true}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

func (s *MongoNotificationService) MarkAllRead(userID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := s.col.UpdateMany(ctx,
		bson.M{"recipient_id": userID, "is_read": false},
		bson.M{"$set": bson.M{"is_read": true}})
	return err
}

func (s *MongoNotificationService) UnreadCount(userID string) (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return s.col.CountDocuments(ctx, bson.M{"recipient_id": userID, "is_read": false})
}
