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

type MongoBookmarkService struct {
	client       *mongo.Client
	db           *mongo.Database
	bookmarksCol *mongo.Collection
	content      ContentService
}

type mongoBookmarkDoc struct {
	ID         string    `bson:"_id"`
	UserID     string    `bson:"user_id"`
	QuestionID string    `bson:"question_id"`
	CreatedAt  time.Time `bson:"created_at"`
}

func NewMongoBookmarkService(ctx context.Context, mongoURI, dbName string, content ContentService) (*MongoBookmarkService, error) {
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
	bookmarks := db.Collection("bookmarks")

	svc := &MongoBookmarkService{
		client:       client,
		db:           db,
		bookmarksCol: bookmarks,
		content:      content,
	}

	// Best-effort indexes.
	_, _ = bookmarks.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "question_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
	})

	log.Printf("MongoDB connected (bookmarks): db=%s", dbName)
	return svc, nil
}

func (s *MongoBookmarkService) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoBookmarkService) Add(userID, questionID string) (*models.Bookmark, error) {
	// Ensure the question exists (also prevents bookmarks pointing to
	// garbage IDs).
	if _, err := s.content.GetQuestion(questionID); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	doc := mongoBookmarkDoc{
		ID:         uuid.New().String(),
		UserID:     userID,
		QuestionID: questionID,
		CreatedAt:  time.Now().UTC(),
	}

	if _, err := s.bookmarksCol.InsertOne(ctx, doc); err != nil {
		// Duplicate key (already bookmarked).
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrAlreadyBookmarked
		}
		return nil, err
	}

	return &models.Bookmark{
		ID:         doc.ID,
		UserID:     doc.UserID,
		QuestionID: doc.QuestionID,
		CreatedAt:  doc.CreatedAt,
	}, nil
}

func (s *MongoBookmarkService) Remove(userID, questionID string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	res, err := s.bookmarksCol.DeleteOne(ctx, bson.M{
		"user_id":     userID,
		"question_id": questionID,
	})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrBookmarkNotFound
	}
	return nil
}

func (s *MongoBookmarkService) ListWithQuestions(userID string) ([]*models.BookmarkWithQuestion, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	cur, err := s.bookmarksCol.Find(ctx,
		bson.M{"user_id": userID},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]*models.BookmarkWithQuestion, 0)
	for cur.Next(ctx) {
		var doc mongoBookmarkDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}

		q, err := s.content.GetQuestion(doc.QuestionID)
		if err != nil {
			// Skip bookmarks of deleted questions.
			if errors.Is(err, ErrQuestionNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, &models.BookmarkWithQuestion{
			Bookmark: models.Bookmark{
				ID:         doc.ID,
				UserID:     doc.UserID,
				QuestionID: doc.QuestionID,
				CreatedAt:  doc.CreatedAt,
			},
			Question: *q,
		})
	}
	return out, cur.Err()
}
