package services

import (
	"context"
	"crypto/tls"
	"log"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/askaway/backend/internal/models"
)

// MongoLeaderboardService ranks users with an aggregation pipeline over the
// users and reputation_history collections; per-entry content counts come
// from the content service.
type MongoLeaderboardService struct {
	client   *mongo.Client
	db       *mongo.Database
	usersCol *mongo.Collection
	content  ContentService
}

func NewMongoLeaderboardService(ctx context.Context, mongoURI, dbName string, content ContentService) (*MongoLeaderboardService, error) {
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

	log.Printf("MongoDB connected (leaderboard): db=%s", dbName)
	return &MongoLeaderboardService{
		client:   client,
		db:       db,
		usersCol: db.Collection("users"),
		content:  content,
	}, nil
}

func (s *MongoLeaderboardService) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

type leaderboardRow struct {
	ID          string `bson:"_id"`
	DisplayName string `bson:"display_name"`
	Reputation  int    `bson:"reputation"`
	Score       int    `bson:"score"`
}

func (s *MongoLeaderboardService) Rank(rangeKey string, limit int) ([]models.LeaderboardEntry, error) {
	cutoff, err := rangeCutoff(rangeKey, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	match := bson.D{{Key: "$match", Value: bson.M{
		"role":      bson.M{"$ne": models.RoleAdmin},
		"is_banned": bson.M{"$ne": true},
	}}}

	var pipeline mongo.Pipeline
	if cutoff == nil {
		pipeline = mongo.Pipeline{
			match,
			{{Key: "$addFields", Value: bson.M{"score": "$reputation"}}},
		}
	} else {
		// Windowed score: sum ledger deltas inside the window per user. The
		// sort runs over the whole eligible population because windowed
		// scores are not derivable from the live counter.
		pipeline = mongo.Pipeline{
			match,
			{{Key: "$lookup", Value: bson.M{
				"from": "reputation_history",
				"let":  bson.M{"uid": "$_id"},
				"pipeline": mongo.Pipeline{
					{{Key: "$match", Value: bson.M{"$expr": bson.M{"$and": bson.A{
						bson.M{"$eq": bson.A{"$user_id", "$$uid"}},
						bson.M{"$gte": bson.A{"$created_at", *cutoff}},
					}}}}},
					{{Key: "$group", Value: bson.M{"_id": nil, "total": bson.M{"$sum": "$change"}}}},
				},
				"as": "window",
			}}},
			{{Key: "$addFields", Value: bson.M{
				"score": bson.M{"$ifNull": bson.A{
					bson.M{"$arrayElemAt": bson.A{"$window.total", 0}},
					0,
				}},
			}}},
		}
	}

	pipeline = append(pipeline,
		bson.D{{Key: "$sort", Value: bson.D{{Key: "score", Value: -1}, {Key: "_id", Value: 1}}}},
		bson.D{{Key: "$limit", Value: int64(limit)}},
		bson.D{{Key: "$project", Value: bson.M{"display_name": 1, "reputation": 1, "score": 1}}},
	)

	cur, err := s.usersCol.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	rows := make([]leaderboardRow, 0, limit)
	if err := cur.All(ctx, &rows); err != nil {
		return nil, err
	}

	out := make([]models.LeaderboardEntry, 0, len(rows))
	for i, row := range rows {
		questions, answers, err := s.content.CountByAuthor(row.ID, cutoff)
		if err != nil {
			return nil, err
		}
		rank := i + 1
		out = append(out, models.LeaderboardEntry{
			UserID:      row.ID,
			DisplayName: row.DisplayName,
			Score:       row.Score,
			Answers:     answers,
			Questions:   questions,
			Rank:        rank,
			Badge:       models.BadgeFor(rank, row.Reputation, answers),
		})
	}
	return out, nil
}
