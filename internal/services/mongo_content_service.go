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

type MongoContentService struct {
	client       *mongo.Client
	db           *mongo.Database
	questionsCol *mongo.Collection
	answersCol   *mongo.Collection
}

type mongoQuestionDoc struct {
	ID        string           `bson:"_id"`
	AuthorID  string           `bson:"author_id"`
	Title     string           `bson:"title"`
	Content   string           `bson:"content"`
	Tags      []string         `bson:"tags"`
	Votes     models.Votes     `bson:"votes"`
	Comments  []models.Comment `bson:"comments"`
	IsDeleted bool             `bson:"is_deleted"`
	DeletedAt *time.Time       `bson:"deleted_at,omitempty"`
	CreatedAt time.Time        `bson:"created_at"`
}

type mongoAnswerDoc struct {
	ID         string           `bson:"_id"`
	QuestionID string           `bson:"question_id"`
	AuthorID   string           `bson:"author_id"`
	Content    string           `bson:"content"`
	Votes      models.Votes     `bson:"votes"`
	Comments   []models.Comment `bson:"comments"`
	IsAccepted bool             `bson:"is_accepted"`
	IsDeleted  bool             `bson:"is_deleted"`
	DeletedAt  *time.Time       `bson:"deleted_at,omitempty"`
	CreatedAt  time.Time        `bson:"created_at"`
}

func NewMongoContentService(ctx context.Context, mongoURI, dbName string) (*MongoContentService, error) {
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
	questions := db.Collection("questions")
	answers := db.Collection("answers")

	svc := &MongoContentService{
		client:       client,
		db:           db,
		questionsCol: questions,
		answersCol:   answers,
	}

	// Best-effort indexes.
	_, _ = questions.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "author_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "tags", Value: 1}}},
		{Keys: bson.D{{Key: "title", Value: "text"}, {Key: "content", Value: "text"}}},
	})
	_, _ = answers.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "question_id", Value: 1}, {Key: "created_at", Value: 1}}},
		{Keys: bson.D{{Key: "author_id", Value: 1}, {Key: "created_at", Value: -1}}},
	})

	log.Printf("MongoDB connected (content): db=%s", dbName)
	return svc, nil
}

func (s *MongoContentService) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func questionDocToModel(d mongoQuestionDoc) *models.Question {
	q := &models.Question{
		ID:        d.ID,
		AuthorID:  d.AuthorID,
		Title:     d.Title,
		Content:   d.Content,
		Tags:      d.Tags,
		Votes:     d.Votes,
		Comments:  d.Comments,
		IsDeleted: d.IsDeleted,
		DeletedAt: d.DeletedAt,
		CreatedAt: d.CreatedAt,
	}
	if q.Tags == nil {
		q.Tags = []string{}
	}
	if q.Comments == nil {
		q.Comments = []models.Comment{}
	}
	return q
}

func answerDocToModel(d mongoAnswerDoc) *models.Answer {
	a := &models.Answer{
		ID:         d.ID,
		QuestionID: d.QuestionID,
		AuthorID:   d.AuthorID,
		Content:    d.Content,
		Votes:      d.Votes,
		Comments:   d.Comments,
		IsAccepted: d.IsAccepted,
		IsDeleted:  d.IsDeleted,
		DeletedAt:  d.DeletedAt,
		CreatedAt:  d.CreatedAt,
	}
	if a.Comments == nil {
		a.Comments = []models.Comment{}
	}
	return a
}

func (s *MongoContentService) CreateQuestion(authorID string, req *models.CreateQuestionRequest) (*models.Question, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}

	doc := mongoQuestionDoc{
		ID:        uuid.New().String(),
		AuthorID:  authorID,
		Title:     req.Title,
		Content:   req.Content,
		Tags:      tags,
		Votes:     models.Votes{Upvotes: []string{}, Downvotes: []string{}},
		Comments:  []models.Comment{},
		CreatedAt: time.Now().UTC(),
	}

	if _, err := s.questionsCol.InsertOne(ctx, doc); err != nil {
		return nil, err
	}
	return questionDocToModel(doc), nil
}

func (s *MongoContentService) GetQuestion(id string) (*models.Question, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var doc mongoQuestionDoc
	if err := s.questionsCol.FindOne(ctx, bson.M{"_id": id, "is_deleted": false}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrQuestionNotFound
		}
		return nil, err
	}
	return questionDocToModel(doc), nil
}

func (s *MongoContentService) ListQuestions(query *models.ListQuestionsQuery) ([]*models.Question, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	page, limit := 1, 20
	filter := bson.M{"is_deleted": false}
	if query != nil {
		if query.Search != "" {
			filter["$text"] = bson.M{"$search": query.Search}
		}
		if query.Tag != "" {
			filter["tags"] = query.Tag
		}
		if query.Page > 0 {
			page = query.Page
		}
		if query.Limit > 0 {
			limit = query.Limit
		}
	}
	if limit > 100 {
		limit = 100
	}

	cur, err := s.questionsCol.Find(ctx, filter, options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: 1}}).
		SetSkip(int64((page-1)*limit)).
		SetLimit(int64(limit)))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]*models.Question, 0)
	for cur.Next(ctx) {
		var doc mongoQuestionDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, questionDocToModel(doc))
	}
	return out, cur.Err()
}

func (s *MongoContentService) UpdateQuestion(callerID string, isAdmin bool, id string, req *models.UpdateQuestionRequest) (*models.Question, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	filter := bson.M{"_id": id, "is_deleted": false}
	if !isAdmin {
		filter["author_id"] = callerID
	}

	set := bson.M{"title": req.Title, "content": req.Content}
	if req.Tags != nil {
		set["tags"] = req.Tags
	}

	res := s.questionsCol.FindOneAndUpdate(ctx, filter, bson.M{"$set": set},
		options.FindOneAndUpdate().SetReturnDocument(options.After))

	var updated mongoQuestionDoc
	if err := res.Decode(&updated); err != nil {
		if err == mongo.ErrNoDocuments {
			// Distinguish not found vs not owner.
			var exists mongoQuestionDoc
			if err2 := s.questionsCol.FindOne(ctx, bson.M{"_id": id, "is_deleted": false}).Decode(&exists); err2 == mongo.ErrNoDocuments {
				return nil, ErrQuestionNotFound
			}
			return nil, ErrNotContentOwner
		}
		return nil, err
	}
	return questionDocToModel(updated), nil
}

func (s *MongoContentService) DeleteQuestion(callerID string, isAdmin bool, id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	filter := bson.M{"_id": id, "is_deleted": false}
	if !isAdmin {
		filter["author_id"] = callerID
	}

	res, err := s.questionsCol.UpdateOne(ctx, filter,
		bson.M{"$set": bson.M{"is_deleted": true, "deleted_at": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		var exists mongoQuestionDoc
		if err2 := s.questionsCol.FindOne(ctx, bson.M{"_id": id, "is_deleted": false}).Decode(&exists); err2 == mongo.ErrNoDocuments {
			return ErrQuestionNotFound
		}
		return ErrNotContentOwner
	}
	return nil
}

func (s *MongoContentService) RestoreQuestion(id string) (*models.Question, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	res := s.questionsCol.FindOneAndUpdate(ctx, bson.M{"_id": id},
		bson.M{"$set": bson.M{"is_deleted": false}, "$unset": bson.M{"deleted_at": ""}},
		options.FindOneAndUpdate().SetReturnDocument(options.After))

	var updated mongoQuestionDoc
	if err := res.Decode(&updated); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrQuestionNotFound
		}
		return nil, err
	}
	return questionDocToModel(updated), nil
}

func (s *MongoContentService) CreateAnswer(questionID, authorID string, req *models.CreateAnswerRequest) (*models.Answer, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var q mongoQuestionDoc
	if err := s.questionsCol.FindOne(ctx, bson.M{"_id": questionID, "is_deleted": false}).Decode(&q); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrQuestionNotFound
		}
		return nil, err
	}

	doc := mongoAnswerDoc{
		ID:         uuid.New().String(),
		QuestionID: questionID,
		AuthorID:   authorID,
		Content:    req.Content,
		Votes:      models.Votes{Upvotes: []string{}, Downvotes: []string{}},
		Comments:   []models.Comment{},
		CreatedAt:  time.Now().UTC(),
	}

	if _, err := s.answersCol.InsertOne(ctx, doc); err != nil {
		return nil, err
	}
	return answerDocToModel(doc), nil
}

func (s *MongoContentService) GetAnswer(id string) (*models.Answer, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var doc mongoAnswerDoc
	if err := s.answersCol.FindOne(ctx, bson.M{"_id": id, "is_deleted": false}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrAnswerNotFound
		}
		return nil, err
	}
	return answerDocToModel(doc), nil
}

func (s *MongoContentService) ListAnswers(questionID string) ([]*models.Answer, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var q mongoQuestionDoc
	if err := s.questionsCol.FindOne(ctx, bson.M{"_id": questionID, "is_deleted": false}).Decode(&q); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrQuestionNotFound
		}
		return nil, err
	}

	cur, err := s.answersCol.Find(ctx,
		bson.M{"question_id": questionID, "is_deleted": false},
		options.Find().SetSort(bson.D{{Key: "is_accepted", Value: -1}, {Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]*models.Answer, 0)
	for cur.Next(ctx) {
		var doc mongoAnswerDoc
		if err := cur.Decode(&doc); err != nil {
			return nil, err
		}
		out = append(out, answerDocToModel(doc))
	}
	return out, cur.Err()
}

func (s *MongoContentService) UpdateAnswer(callerID string, isAdmin bool, id string, req *models.UpdateAnswerRequest) (*models.Answer, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	filter := bson.M{"_id": id, "is_deleted": false}
	if !isAdmin {
		filter["author_id"] = callerID
	}

	res := s.answersCol.FindOneAndUpdate(ctx, filter,
		bson.M{"$set": bson.M{"content": req.Content}},
		options.FindOneAndUpdate().SetReturnDocument(options.After))

	var updated mongoAnswerDoc
	if err := res.Decode(&updated); err != nil {
		if err == mongo.ErrNoDocuments {
			var exists mongoAnswerDoc
			if err2 := s.answersCol.FindOne(ctx, bson.M{"_id": id, "is_deleted": false}).Decode(&exists); err2 == mongo.ErrNoDocuments {
				return nil, ErrAnswerNotFound
			}
			return nil, ErrNotContentOwner
		}
		return nil, err
	}
	return answerDocToModel(updated), nil
}

func (s *MongoContentService) DeleteAnswer(callerID string, isAdmin bool, id string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	filter := bson.M{"_id": id, "is_deleted": false}
	if !isAdmin {
		filter["author_id"] = callerID
	}

	res, err := s.answersCol.UpdateOne(ctx, filter,
		bson.M{"$set": bson.M{"is_deleted": true, "deleted_at": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		var exists mongoAnswerDoc
		if err2 := s.answersCol.FindOne(ctx, bson.M{"_id": id, "is_deleted": false}).Decode(&exists); err2 == mongo.ErrNoDocuments {
			return ErrAnswerNotFound
		}
		return ErrNotContentOwner
	}
	return nil
}

func (s *MongoContentService) AcceptAnswer(callerID, answerID string) (*models.Answer, string, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var a mongoAnswerDoc
	if err := s.answersCol.FindOne(ctx, bson.M{"_id": answerID, "is_deleted": false}).Decode(&a); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, "", ErrAnswerNotFound
		}
		return nil, "", err
	}

	var q mongoQuestionDoc
	if err := s.questionsCol.FindOne(ctx, bson.M{"_id": a.QuestionID, "is_deleted": false}).Decode(&q); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, "", ErrQuestionNotFound
		}
		return nil, "", err
	}
	if q.AuthorID != callerID {
		return nil, "", ErrNotContentOwner
	}

	// Re-accepting the current answer is a no-op; reporting its own author
	// as the previous holder keeps the acceptance award from repeating.
	if a.IsAccepted {
		return answerDocToModel(a), a.AuthorID, nil
	}

	// Unmark any previously accepted answer first so at most one answer per
	// question stays accepted.
	prevAuthor := ""
	var prev mongoAnswerDoc
	err := s.answersCol.FindOneAndUpdate(ctx,
		bson.M{"question_id": a.QuestionID, "is_accepted": true, "_id": bson.M{"$ne": answerID}},
		bson.M{"$set": bson.M{"is_accepted": false}},
	).Decode(&prev)
	if err == nil {
		prevAuthor = prev.AuthorID
	} else if err != mongo.ErrNoDocuments {
		return nil, "", err
	}

	res := s.answersCol.FindOneAndUpdate(ctx,
		bson.M{"_id": answerID},
		bson.M{"$set": bson.M{"is_accepted": true}},
		options.FindOneAndUpdate().SetReturnDocument(options.After))

	var updated mongoAnswerDoc
	if err := res.Decode(&updated); err != nil {
		return nil, "", err
	}
	return answerDocToModel(updated), prevAuthor, nil
}

func (s *MongoContentService) AddComment(ref models.ContentRef, authorID string, req *models.CreateCommentRequest) (*models.Comment, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	c := models.Comment{
		ID:        uuid.New().String(),
		AuthorID:  authorID,
		Content:   req.Content,
		CreatedAt: time.Now().UTC(),
	}

	col, err := s.collectionFor(ref.Type)
	if err != nil {
		return nil, err
	}

	res, err := col.UpdateOne(ctx,
		bson.M{"_id": ref.ID, "is_deleted": false},
		bson.M{"$push": bson.M{"comments": c}})
	if err != nil {
		return nil, err
	}
	if res.MatchedCount == 0 {
		return nil, ErrContentNotFound
	}
	return &c, nil
}

// Vote applies toggle/exclusivity semantics with per-field atomic set
// operators only; the vote sets are never rewritten wholesale, so concurrent
// voters cannot clobber each other.
func (s *MongoContentService) Vote(ref models.ContentRef, voterID string, voteType models.VoteType) (*VoteResult, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	col, err := s.collectionFor(ref.Type)
	if err != nil {
		return nil, err
	}

	var state struct {
		AuthorID string       `bson:"author_id"`
		Votes    models.Votes `bson:"votes"`
	}
	if err := col.FindOne(ctx, bson.M{"_id": ref.ID, "is_deleted": false}).Decode(&state); err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrContentNotFound
		}
		return nil, err
	}
	if state.AuthorID == voterID {
		return nil, ErrSelfVote
	}

	prevUp := state.Votes.HasUpvote(voterID)
	prevDown := state.Votes.HasDownvote(voterID)

	var update bson.M
	res := &VoteResult{
		AuthorID:    state.AuthorID,
		AuthorDelta: voteDelta(voteType, prevUp, prevDown),
	}

	switch voteType {
	case models.VoteUp:
		if prevUp {
			update = bson.M{"$pull": bson.M{"votes.upvotes": voterID}}
			res.Removed = true
		} else {
			update = bson.M{
				"$addToSet": bson.M{"votes.upvotes": voterID},
				"$pull":     bson.M{"votes.downvotes": voterID},
			}
			res.Switched = prevDown
		}
	case models.VoteDown:
		if prevDown {
			update = bson.M{"$pull": bson.M{"votes.downvotes": voterID}}
			res.Removed = true
		} else {
			update = bson.M{
				"$addToSet": bson.M{"votes.downvotes": voterID},
				"$pull":     bson.M{"votes.upvotes": voterID},
			}
			res.Switched = prevUp
		}
	default:
		return nil, models.ErrInvalidVoteType
	}

	switch ref.Type {
	case models.ContentQuestion:
		var updated mongoQuestionDoc
		if err := col.FindOneAndUpdate(ctx, bson.M{"_id": ref.ID}, update,
			options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&updated); err != nil {
			return nil, err
		}
		res.Content = questionDocToModel(updated)
		res.NetVotes = updated.Votes.Net()
	case models.ContentAnswer:
		var updated mongoAnswerDoc
		if err := col.FindOneAndUpdate(ctx, bson.M{"_id": ref.ID}, update,
			options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&updated); err != nil {
			return nil, err
		}
		res.Content = answerDocToModel(updated)
		res.NetVotes = updated.Votes.Net()
	}
	return res, nil
}

func (s *MongoContentService) ResolveContent(ref models.ContentRef) (string, bool, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	col, err := s.collectionFor(ref.Type)
	if err != nil {
		return "", false, err
	}

	var doc struct {
		AuthorID  string `bson:"author_id"`
		IsDeleted bool   `bson:"is_deleted"`
	}
	if err := col.FindOne(ctx, bson.M{"_id": ref.ID}).Decode(&doc); err != nil {
		if err == mongo.ErrNoDocuments {
			return "", false, ErrContentNotFound
		}
		return "", false, err
	}
	return doc.AuthorID, doc.IsDeleted, nil
}

func (s *MongoContentService) SoftDeleteContent(ref models.ContentRef) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	col, err := s.collectionFor(ref.Type)
	if err != nil {
		return err
	}

	res, err := col.UpdateOne(ctx, bson.M{"_id": ref.ID},
		bson.M{"$set": bson.M{"is_deleted": true, "deleted_at": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrContentNotFound
	}
	return nil
}

func (s *MongoContentService) CountByAuthor(authorID string, since *time.Time) (int, int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	filter := bson.M{"author_id": authorID, "is_deleted": false}
	if since != nil {
		filter["created_at"] = bson.M{"$gte": *since}
	}

	questions, err := s.questionsCol.CountDocuments(ctx, filter)
	if err != nil {
		return 0, 0, err
	}
	answers, err := s.answersCol.CountDocuments(ctx, filter)
	if err != nil {
		return 0, 0, err
	}
	return int(questions), int(answers), nil
}

func (s *MongoContentService) Stats() (int64, int64, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	questions, err := s.questionsCol.CountDocuments(ctx, bson.M{"is_deleted": false})
	if err != nil {
		return 0, 0, err
	}
	answers, err := s.answersCol.CountDocuments(ctx, bson.M{"is_deleted": false})
	if err != nil {
		return 0, 0, err
	}
	return questions, answers, nil
}

func (s *MongoContentService) TopTags(limit int) ([]models.TagCount, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if limit <= 0 || limit > 50 {
		limit = 10
	}

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"is_deleted": false}}},
		{{Key: "$unwind", Value: "$tags"}},
		{{Key: "$group", Value: bson.M{"_id": "$tags", "count": bson.M{"$sum": 1}}}},
		{{Key: "$sort", Value: bson.D{{Key: "count", Value: -1}, {Key: "_id", Value: 1}}}},
		{{Key: "$limit", Value: int64(limit)}},
	}

	cur, err := s.questionsCol.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	out := make([]models.TagCount, 0, limit)
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *MongoContentService) collectionFor(t models.ContentType) (*mongo.Collection, error) {
	switch t {
	case models.ContentQuestion:
		return s.questionsCol, nil
	case models.ContentAnswer:
		return s.answersCol, nil
	default:
		return nil, models.ErrInvalidContentType
	}
}
