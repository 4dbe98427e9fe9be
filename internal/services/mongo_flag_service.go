package services

import (
	"context"
	"crypto/tls"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/askaway/backend/internal/models"
)

type MongoFlagService struct {
	client   *mongo.Client
	db       *mongo.Database
	flagsCol *mongo.Collection
}

type mongoFlagDoc struct {
	ID          string             `bson:"_id"`
	ContentType models.ContentType `bson:"content_type"`
	ContentID   string             `bson:"content_id"`
	ReporterID  string             `bson:"reporter_id"`
	Reason      string             `bson:"reason"`
	Status      string             `bson:"status"`
	// Active mirrors status (pending/resolved) so the partial unique index
	// can enforce one active flag per reporter per content.
	Active        bool      `bson:"active"`
	Action        string    `bson:"action,omitempty"`
	ActionApplied bool      `bson:"action_applied"`
	CreatedAt     time.Time `bson:"created_at"`
}

func NewMongoFlagService(ctx context.Context, mongoURI, dbName string) (*MongoFlagService, error) {
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
	flags := db.Collection("flags")

	svc := &MongoFlagService{client: client, db: db, flagsCol: flags}

	// Best-effort indexes. The partial unique index rejects a second active
	// flag by the same reporter on the same content at the storage layer.
	_, _ = flags.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "reporter_id", Value: 1},
				{Key: "content_type", Value: 1},
				{Key: "content_id", Value: 1},
			},
			Options: options.Index().
				SetUnique(true).
				SetPartialFilterExpression(bson.M{"active": true}),
		},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "action_applied", Value: 1}}},
	})

	log.Printf("MongoDB connected (flags): db=%s", dbName)
	return svc, nil
}

func (s *MongoFlagService) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func flagDocToModel(d mongoFlagDoc) *models.Flag {
	return &models.Flag{
		ID:            d.ID,
		ContentType:   d.ContentType,
		ContentID:     d.ContentID,
		ReporterID:    d.ReporterID,
		Reason:        d.Reason,
		Status:        d.Status,
		Action:        d.Action,
		ActionApplied: d.ActionApplied,
		CreatedAt:     d.CreatedAt,
	}
}

func (s *MongoFlagService) Create(ref models.ContentRef, reporterID, reason string) (*models.Flag, error) {
	if !models.ValidFlagReason(reason) {
		return nil, ErrInvalidReason
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	doc := mongoFlagDoc{
		ID:          uuid.New().String(),
		ContentType: ref.Type,
		ContentID:   ref.ID,
		ReporterID:  reporterID,
		Reason:      reason,
		Status:      models.FlagPending,
		Active:      true,
		CreatedAt:   time.Now().UTC(),
	}

	if _, err := s.flagsCol.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrDuplicateFlag
		}
		return nil, err
	}
	return flagDocToModel(doc), nil
}

func (s *MongoFlagService) GetByID(id string) (*models.Flag, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var doc mongoFlagDoc
	if err := s.flagsCol.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrFlagNotFound
		}
		return nil, err
	}
	return flagDocToModel(doc), nil
}

func (s *MongoFlagService) List(status string) ([]*models.Flag, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}

	cur, err := s.flagsCol.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	return decodeFlags(ctx, cur)
}

func (s *MongoFlagService) SetStatus(id, status, action string) (*models.Flag, error) {
	// A decision must land on a terminal status; leaving the flag pending
	// would hide an unapplied action from ListUnapplied.
	if !models.ValidModerationTarget(status) {
		return nil, errors.New("invalid flag status")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Only pending flags transition; terminal flags stay terminal.
	res := s.flagsCol.FindOneAndUpdate(ctx,
		bson.M{"_id": id, "status": models.FlagPending},
		bson.M{"$set": bson.M{
			"status":         status,
			"active":         status != models.FlagDismissed,
			"action":         action,
			"action_applied": false,
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After))

	var updated mongoFlagDoc
	if err := res.Decode(&updated); err != nil {
		if err == mongo.ErrNoDocuments {
			var exists mongoFlagDoc
			if err2 := s.flagsCol.FindOne(ctx, bson.M{"_id": id}).Decode(&exists); err2 == mongo.ErrNoDocuments {
				return nil, ErrFlagNotFound
			}
			return nil, ErrFlagFinalized
		}
		return nil, err
	}
	return flagDocToModel(updated), nil
}

func (s *MongoFlagService) MarkActionApplied(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	res, err := s.flagsCol.UpdateOne(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"action_applied": true}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrFlagNotFound
	}
	return nil
}

func (s *MongoFlagService) ListUnapplied() ([]*models.Flag, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cur, err := s.flagsCol.Find(ctx, bson.M{
		"status":         bson.M{"$ne": models.FlagPending},
		"action":         bson.M{"$nin": bson.A{nil, ""}},
		"action_applied": false,
	}, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	return decodeFlags(ctx, cur)
}

func (s *MongoFlagService) Delete(id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	res, err := s.flagsCol.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrFlagNotFound
	}
	return nil
}

func (s *MongoFlagService) CountByStatus(status string) (int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	return s.flagsCol.CountDocuments(ctx, filter)
}

func decodeFlags(ctx context.Context, cur *mongo.Cursor) ([]*models.Flag, error) {
	out := make([]*models.Flag, 0)
	for cur.Next(ctx) {
		var doc mongoFlagDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, flagDocToModel(doc))
	}
	return out, cur.Err()
}
