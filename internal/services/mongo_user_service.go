package services

import (
	"context"
	"crypto/tls"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"golang.org/x/crypto/bcrypt"

	"github.com/askaway/backend/internal/models"
)

type MongoUserService struct {
	client      *mongo.Client
	db          *mongo.Database
	usersCol    *mongo.Collection
	historyCol  *mongo.Collection
	adminEmails map[string]bool
}

type mongoUserDoc struct {
	ID           string     `bson:"_id"`
	Email        string     `bson:"email"`
	PasswordHash string     `bson:"password_hash"`
	DisplayName  string     `bson:"display_name"`
	Role         string     `bson:"role"`
	Reputation   int        `bson:"reputation"`
	IsBanned     bool       `bson:"is_banned"`
	BanReason    string     `bson:"ban_reason,omitempty"`
	BannedAt     *time.Time `bson:"banned_at,omitempty"`
	BannedBy     string     `bson:"banned_by,omitempty"`
	CreatedAt    time.Time  `bson:"created_at"`
}

func NewMongoUserService(ctx context.Context, mongoURI, dbName, adminEmails string) (*MongoUserService, error) {
	// Atlas occasionally fails TLS negotiation in some environments unless we force TLS 1.2.
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
	users := db.Collection("users")
	history := db.Collection("reputation_history")

	svc := &MongoUserService{
		client:      client,
		db:          db,
		usersCol:    users,
		historyCol:  history,
		adminEmails: make(map[string]bool),
	}
	for _, e := range strings.Split(adminEmails, ",") {
		if e = strings.TrimSpace(strings.ToLower(e)); e != "" {
			svc.adminEmails[e] = true
		}
	}

	// Best-effort indexes.
	_, _ = users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{Keys: bson.D{{Key: "role", Value: 1}, {Key: "reputation", Value: -1}}},
	})
	_, _ = history.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "user_id", Value: 1}, {Key: "created_at", Value: -1}}},
	})

	log.Printf("MongoDB connected (users): db=%s", dbName)
	return svc, nil
}

func (s *MongoUserService) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func userDocToModel(d mongoUserDoc) *models.User {
	return &models.User{
		ID:           d.ID,
		Email:        d.Email,
		PasswordHash: d.PasswordHash,
		DisplayName:  d.DisplayName,
		Role:         d.Role,
		Reputation:   d.Reputation,
		IsBanned:     d.IsBanned,
		BanReason:    d.BanReason,
		BannedAt:     d.BannedAt,
		BannedBy:     d.BannedBy,
		CreatedAt:    d.CreatedAt,
	}
}

func (s *MongoUserService) Register(req *models.RegisterRequest) (*models.User, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	role := models.RoleUser
	if s.adminEmails[strings.ToLower(req.Email)] {
		role = models.RoleAdmin
	}

	doc := mongoUserDoc{
		ID:           uuid.New().String(),
		Email:        req.Email,
		PasswordHash: string(hashedPassword),
		DisplayName:  req.DisplayName,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}

	if _, err := s.usersCol.InsertOne(ctx, doc); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, ErrEmailExists
		}
		return nil, err
	}

	return userDocToModel(doc), nil
}

func (s *MongoUserService) Login(req *models.LoginRequest) (*models.User, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var doc mongoUserDoc
	if err := s.usersCol.FindOne(ctx, bson.M{"email": req.Email}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(doc.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidPassword
	}

	return userDocToModel(doc), nil
}

func (s *MongoUserService) GetByID(id string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var doc mongoUserDoc
	if err := s.usersCol.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return userDocToModel(doc), nil
}

// ApplyReputationDelta is the single entry point for reputation changes: it
// bumps the live counter with $inc and appends the ledger entry. The two
// writes are not transactional; the ledger is the source of truth and the
// counter can be re-derived from it.
func (s *MongoUserService) ApplyReputationDelta(userID string, delta int, reason string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	res, err := s.usersCol.UpdateOne(ctx,
		bson.M{"_id": userID},
		bson.M{"$inc": bson.M{"reputation": delta}},
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrUserNotFound
	}

	_, err = s.historyCol.InsertOne(ctx, models.ReputationEvent{
		UserID:    userID,
		Change:    delta,
		Reason:    reason,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		log.Printf("[users] reputation ledger append failed user=%s delta=%d: %v", userID, delta, err)
	}
	return err
}

func (s *MongoUserService) Ban(adminID, targetID, reason string) (*models.User, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, ErrBanReasonRequired
	}
	if adminID == targetID {
		return nil, ErrSelfBan
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	now := time.Now().UTC()
	res := s.usersCol.FindOneAndUpdate(ctx,
		bson.M{"_id": targetID, "role": bson.M{"$ne": models.RoleAdmin}},
		bson.M{"$set": bson.M{
			"is_banned":  true,
			"ban_reason": reason,
			"banned_at":  now,
			"banned_by":  adminID,
		}},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)

	var updated mongoUserDoc
	if err := res.Decode(&updated); err != nil {
		if err == mongo.ErrNoDocuments {
			// Distinguish not found vs admin target.
			var exists mongoUserDoc
			if err2 := s.usersCol.FindOne(ctx, bson.M{"_id": targetID}).Decode(&exists); err2 == mongo.ErrNoDocuments {
				return nil, ErrUserNotFound
			}
			return nil, ErrCannotBanAdmin
		}
		return nil, err
	}
	return userDocToModel(updated), nil
}

func (s *MongoUserService) CountUsers() (int64, int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	total, err := s.usersCol.CountDocuments(ctx, bson.M{})
	if err != nil {
		return 0, 0, err
	}
	banned, err := s.usersCol.CountDocuments(ctx, bson.M{"is_banned": true})
	if err != nil {
		return 0, 0, err
	}
	return total, banned, nil
}

func (s *MongoUserService) Unban(targetID string) (*models.User, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	res := s.usersCol.FindOneAndUpdate(ctx,
		bson.M{"_id": targetID},
		bson.M{
			"$set":   bson.M{"is_banned": false},
			"$unset": bson.M{"ban_reason": "", "banned_at": "", "banned_by": ""},
		},
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)

	var updated mongoUserDoc
	if err := res.Decode(&updated); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return userDocToModel(updated), nil
}
