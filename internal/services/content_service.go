package services

import (
	"errors"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/askaway/backend/internal/models"
	"github.com/askaway/backend/internal/storage"
)

var (
	ErrQuestionNotFound = errors.New("question not found")
	ErrAnswerNotFound   = errors.New("answer not found")
	ErrContentNotFound  = errors.New("content not found")
	ErrNotContentOwner  = errors.New("not the owner of this content")
	ErrSelfVote         = errors.New("cannot vote on your own content")
)

// VoteResult reports what a vote call changed so the caller can route the
// author's reputation delta and notification.
type VoteResult struct {
	Content     interface{} `json:"content"` // *models.Question or *models.Answer
	AuthorID    string      `json:"author_id"`
	NetVotes    int         `json:"net_votes"`
	Removed     bool        `json:"removed"`  // the vote was toggled off
	Switched    bool        `json:"switched"` // moved from one set to the other
	AuthorDelta int         `json:"-"`
}

type ContentService interface {
	CreateQuestion(authorID string, req *models.CreateQuestionRequest) (*models.Question, error)
	GetQuestion(id string) (*models.Question, error)
	ListQuestions(q *models.ListQuestionsQuery) ([]*models.Question, error)
	UpdateQuestion(callerID string, isAdmin bool, id string, req *models.UpdateQuestionRequest) (*models.Question, error)
	DeleteQuestion(callerID string, isAdmin bool, id string) error
	RestoreQuestion(id string) (*models.Question, error)

	CreateAnswer(questionID, authorID string, req *models.CreateAnswerRequest) (*models.Answer, error)
	GetAnswer(id string) (*models.Answer, error)
	ListAnswers(questionID string) ([]*models.Answer, error)
	UpdateAnswer(callerID string, isAdmin bool, id string, req *models.UpdateAnswerRequest) (*models.Answer, error)
	DeleteAnswer(callerID string, isAdmin bool, id string) error
	// AcceptAnswer marks the answer accepted, unmarking any previously
	// accepted answer on the same question. Returns the previous accepted
	// answer's author (empty when there was none) so the caller can reverse
	// its reputation award.
	AcceptAnswer(callerID, answerID string) (*models.Answer, string, error)

	AddComment(ref models.ContentRef, authorID string, req *models.CreateCommentRequest) (*models.Comment, error)
	Vote(ref models.ContentRef, voterID string, voteType models.VoteType) (*VoteResult, error)

	// ResolveContent reports the author and soft-delete state of the
	// referenced content. ErrContentNotFound when it does not exist.
	ResolveContent(ref models.ContentRef) (authorID string, deleted bool, err error)
	// SoftDeleteContent is the moderation side effect path; it does not
	// check ownership.
	SoftDeleteContent(ref models.ContentRef) error
	// CountByAuthor counts non-deleted questions and answers by the user,
	// restricted to createdAt >= since when since is non-nil.
	CountByAuthor(authorID string, since *time.Time) (questions, answers int, err error)
	// Stats and TopTags feed the admin analytics summary.
	Stats() (questions, answers int64, err error)
	TopTags(limit int) ([]models.TagCount, error)
}

// voteDelta computes the author's reputation change for a transition of one
// voter's state. prevUp/prevDown describe the state before the call.
func voteDelta(voteType models.VoteType, prevUp, prevDown bool) int {
	switch voteType {
	case models.VoteUp:
		if prevUp {
			return -RepUpvoteReceived // toggled off
		}
		if prevDown {
			return RepUpvoteReceived - RepDownvoteReceived // switched
		}
		return RepUpvoteReceived
	case models.VoteDown:
		if prevDown {
			return -RepDownvoteReceived
		}
		if prevUp {
			return RepDownvoteReceived - RepUpvoteReceived
		}
		return RepDownvoteReceived
	}
	return 0
}

// MemoryContentService is the in-memory ContentService, snapshotting to JSON
// when a data dir is configured.
type MemoryContentService struct {
	mu        sync.RWMutex
	questions map[string]*models.Question
	answers   map[string]*models.Answer
	store     *storage.JSONStore
}

type contentSnapshot struct {
	Questions []*models.Question `json:"questions"`
	Answers   []*models.Answer   `json:"answers"`
}

func NewMemoryContentService(dataDir string) *MemoryContentService {
	s := &MemoryContentService{
		questions: make(map[string]*models.Question),
		answers:   make(map[string]*models.Answer),
	}

	if dataDir != "" {
		store, err := storage.NewJSONStore(dataDir, "content.json")
		if err != nil {
			log.Printf("[content] snapshot store unavailable: %v", err)
		} else {
			s.store = store
			var snap contentSnapshot
			if err := store.Load(&snap); err != nil {
				log.Printf("[content] snapshot load failed: %v", err)
			} else {
				for _, q := range snap.Questions {
					s.questions[q.ID] = q
				}
				for _, a := range snap.Answers {
					s.answers[a.ID] = a
				}
			}
		}
	}
	return s
}

func (s *MemoryContentService) persist() {
	if s.store == nil {
		return
	}
	var snap contentSnapshot
	for _, q := range s.questions {
		snap.Questions = append(snap.Questions, q)
	}
	for _, a := range s.answers {
		snap.Answers = append(snap.Answers, a)
	}
	if err := s.store.Save(&snap); err != nil {
		log.Printf("[content] snapshot save failed: %v", err)
	}
}

func (s *MemoryContentService) CreateQuestion(authorID string, req *models.CreateQuestionRequest) (*models.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q := &models.Question{
		ID:        uuid.New().String(),
		AuthorID:  authorID,
		Title:     req.Title,
		Content:   req.Content,
		Tags:      req.Tags,
		Votes:     models.Votes{Upvotes: []string{}, Downvotes: []string{}},
		Comments:  []models.Comment{},
		CreatedAt: time.Now().UTC(),
	}
	s.questions[q.ID] = q
	s.persist()
	return copyQuestion(q), nil
}

func (s *MemoryContentService) GetQuestion(id string) (*models.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	q, exists := s.questions[id]
	if !exists || q.IsDeleted {
		return nil, ErrQuestionNotFound
	}
	return copyQuestion(q), nil
}

func (s *MemoryContentService) ListQuestions(query *models.ListQuestionsQuery) ([]*models.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Question, 0)
	for _, q := range s.questions {
		if q.IsDeleted {
			continue
		}
		if query != nil && query.Search != "" {
			needle := strings.ToLower(query.Search)
			if !strings.Contains(strings.ToLower(q.Title), needle) &&
				!strings.Contains(strings.ToLower(q.Content), needle) {
				continue
			}
		}
		if query != nil && query.Tag != "" && !containsID(q.Tags, query.Tag) {
			continue
		}
		out = append(out, copyQuestion(q))
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})

	if query != nil {
		out = paginate(out, query.Page, query.Limit)
	}
	return out, nil
}

func paginate(qs []*models.Question, page, limit int) []*models.Question {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if page < 1 {
		page = 1
	}
	start := (page - 1) * limit
	if start >= len(qs) {
		return []*models.Question{}
	}
	end := start + limit
	if end > len(qs) {
		end = len(qs)
	}
	return qs[start:end]
}

func (s *MemoryContentService) UpdateQuestion(callerID string, isAdmin bool, id string, req *models.UpdateQuestionRequest) (*models.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, exists := s.questions[id]
	if !exists || q.IsDeleted {
		return nil, ErrQuestionNotFound
	}
	if q.AuthorID != callerID && !isAdmin {
		return nil, ErrNotContentOwner
	}

	q.Title = req.Title
	q.Content = req.Content
	if req.Tags != nil {
		q.Tags = req.Tags
	}
	s.persist()
	return copyQuestion(q), nil
}

func (s *MemoryContentService) DeleteQuestion(callerID string, isAdmin bool, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, exists := s.questions[id]
	if !exists || q.IsDeleted {
		return ErrQuestionNotFound
	}
	if q.AuthorID != callerID && !isAdmin {
		return ErrNotContentOwner
	}

	now := time.Now().UTC()
	q.IsDeleted = true
	q.DeletedAt = &now
	s.persist()
	return nil
}

func (s *MemoryContentService) RestoreQuestion(id string) (*models.Question, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, exists := s.questions[id]
	if !exists {
		return nil, ErrQuestionNotFound
	}

	q.IsDeleted = false
	q.DeletedAt = nil
	s.persist()
	return copyQuestion(q), nil
}

func (s *MemoryContentService) CreateAnswer(questionID, authorID string, req *models.CreateAnswerRequest) (*models.Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	q, exists := s.questions[questionID]
	if !exists || q.IsDeleted {
		return nil, ErrQuestionNotFound
	}

	a := &models.Answer{
		ID:         uuid.New().String(),
		QuestionID: questionID,
		AuthorID:   authorID,
		Content:    req.Content,
		Votes:      models.Votes{Upvotes: []string{}, Downvotes: []string{}},
		Comments:   []models.Comment{},
		CreatedAt:  time.Now().UTC(),
	}
	s.answers[a.ID] = a
	s.persist()
	return copyAnswer(a), nil
}

func (s *MemoryContentService) GetAnswer(id string) (*models.Answer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, exists := s.answers[id]
	if !exists || a.IsDeleted {
		return nil, ErrAnswerNotFound
	}
	return copyAnswer(a), nil
}

func (s *MemoryContentService) ListAnswers(questionID string) ([]*models.Answer, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if q, exists := s.questions[questionID]; !exists || q.IsDeleted {
		return nil, ErrQuestionNotFound
	}

	out := make([]*models.Answer, 0)
	for _, a := range s.answers {
		if a.QuestionID != questionID || a.IsDeleted {
			continue
		}
		out = append(out, copyAnswer(a))
	}

	// Accepted answer first, then best score, then oldest.
	sort.Slice(out, func(i, j int) bool {
		if out[i].IsAccepted != out[j].IsAccepted {
			return out[i].IsAccepted
		}
		ni, nj := out[i].Votes.Net(), out[j].Votes.Net()
		if ni != nj {
			return ni > nj
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryContentService) UpdateAnswer(callerID string, isAdmin bool, id string, req *models.UpdateAnswerRequest) (*models.Answer, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, exists := s.answers[id]
	if !exists || a.IsDeleted {
		return nil, ErrAnswerNotFound
	}
	if a.AuthorID != callerID && !isAdmin {
		return nil, ErrNotContentOwner
	}

	a.Content = req.Content
	s.persist()
	return copyAnswer(a), nil
}

func (s *MemoryContentService) DeleteAnswer(callerID string, isAdmin bool, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, exists := s.answers[id]
	if !exists || a.IsDeleted {
		return ErrAnswerNotFound
	}
	if a.AuthorID != callerID && !isAdmin {
		return ErrNotContentOwner
	}

	now := time.Now().UTC()
	a.IsDeleted = true
	a.DeletedAt = &now
	s.persist()
	return nil
}

func (s *MemoryContentService) AcceptAnswer(callerID, answerID string) (*models.Answer, string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, exists := s.answers[answerID]
	if !exists || a.IsDeleted {
		return nil, "", ErrAnswerNotFound
	}

	q, exists := s.questions[a.QuestionID]
	if !exists || q.IsDeleted {
		return nil, "", ErrQuestionNotFound
	}
	// Only the question's author decides the accepted answer.
	if q.AuthorID != callerID {
		return nil, "", ErrNotContentOwner
	}

	// Re-accepting the current answer is a no-op; reporting its own author
	// as the previous holder keeps the acceptance award from repeating.
	if a.IsAccepted {
		return copyAnswer(a), a.AuthorID, nil
	}

	prevAuthor := ""
	for _, other := range s.answers {
		if other.QuestionID == a.QuestionID && other.IsAccepted && other.ID != a.ID {
			other.IsAccepted = false
			prevAuthor = other.AuthorID
		}
	}

	a.IsAccepted = true
	s.persist()
	return copyAnswer(a), prevAuthor, nil
}

func (s *MemoryContentService) AddComment(ref models.ContentRef, authorID string, req *models.CreateCommentRequest) (*models.Comment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := models.Comment{
		ID:        uuid.New().String(),
		AuthorID:  authorID,
		Content:   req.Content,
		CreatedAt: time.Now().UTC(),
	}

	switch ref.Type {
	case models.ContentQuestion:
		q, exists := s.questions[ref.ID]
		if !exists || q.IsDeleted {
			return nil, ErrContentNotFound
		}
		q.Comments = append(q.Comments, c)
	case models.ContentAnswer:
		a, exists := s.answers[ref.ID]
		if !exists || a.IsDeleted {
			return nil, ErrContentNotFound
		}
		a.Comments = append(a.Comments, c)
	default:
		return nil, models.ErrInvalidContentType
	}
	s.persist()
	return &c, nil
}

func (s *MemoryContentService) Vote(ref models.ContentRef, voterID string, voteType models.VoteType) (*VoteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var votes *models.Votes
	var authorID string
	var content func() interface{}

	switch ref.Type {
	case models.ContentQuestion:
		q, exists := s.questions[ref.ID]
		if !exists || q.IsDeleted {
			return nil, ErrContentNotFound
		}
		votes, authorID = &q.Votes, q.AuthorID
		content = func() interface{} { return copyQuestion(q) }
	case models.ContentAnswer:
		a, exists := s.answers[ref.ID]
		if !exists || a.IsDeleted {
			return nil, ErrContentNotFound
		}
		votes, authorID = &a.Votes, a.AuthorID
		content = func() interface{} { return copyAnswer(a) }
	default:
		return nil, models.ErrInvalidContentType
	}

	if authorID == voterID {
		return nil, ErrSelfVote
	}

	prevUp := votes.HasUpvote(voterID)
	prevDown := votes.HasDownvote(voterID)

	res := &VoteResult{
		AuthorID:    authorID,
		AuthorDelta: voteDelta(voteType, prevUp, prevDown),
	}

	switch voteType {
	case models.VoteUp:
		if prevUp {
			votes.Upvotes = removeID(votes.Upvotes, voterID)
			res.Removed = true
		} else {
			votes.Downvotes = removeID(votes.Downvotes, voterID)
			votes.Upvotes = append(votes.Upvotes, voterID)
			res.Switched = prevDown
		}
	case models.VoteDown:
		if prevDown {
			votes.Downvotes = removeID(votes.Downvotes, voterID)
			res.Removed = true
		} else {
			votes.Upvotes = removeID(votes.Upvotes, voterID)
			votes.Downvotes = append(votes.Downvotes, voterID)
			res.Switched = prevUp
		}
	default:
		return nil, models.ErrInvalidVoteType
	}

	res.Content = content()
	res.NetVotes = votes.Net()
	s.persist()
	return res, nil
}

func (s *MemoryContentService) ResolveContent(ref models.ContentRef) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	switch ref.Type {
	case models.ContentQuestion:
		q, exists := s.questions[ref.ID]
		if !exists {
			return "", false, ErrContentNotFound
		}
		return q.AuthorID, q.IsDeleted, nil
	case models.ContentAnswer:
		a, exists := s.answers[ref.ID]
		if !exists {
			return "", false, ErrContentNotFound
		}
		return a.AuthorID, a.IsDeleted, nil
	default:
		return "", false, models.ErrInvalidContentType
	}
}

func (s *MemoryContentService) SoftDeleteContent(ref models.ContentRef) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	switch ref.Type {
	case models.ContentQuestion:
		q, exists := s.questions[ref.ID]
		if !exists {
			return ErrContentNotFound
		}
		q.IsDeleted = true
		q.DeletedAt = &now
	case models.ContentAnswer:
		a, exists := s.answers[ref.ID]
		if !exists {
			return ErrContentNotFound
		}
		a.IsDeleted = true
		a.DeletedAt = &now
	default:
		return models.ErrInvalidContentType
	}
	s.persist()
	return nil
}

func (s *MemoryContentService) CountByAuthor(authorID string, since *time.Time) (int, int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	questions, answers := 0, 0
	for _, q := range s.questions {
		if q.AuthorID == authorID && !q.IsDeleted && (since == nil || !q.CreatedAt.Before(*since)) {
			questions++
		}
	}
	for _, a := range s.answers {
		if a.AuthorID == authorID && !a.IsDeleted && (since == nil || !a.CreatedAt.Before(*since)) {
			answers++
		}
	}
	return questions, answers, nil
}

func (s *MemoryContentService) Stats() (int64, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var questions, answers int64
	for _, q := range s.questions {
		if !q.IsDeleted {
			questions++
		}
	}
	for _, a := range s.answers {
		if !a.IsDeleted {
			answers++
		}
	}
	return questions, answers, nil
}

func (s *MemoryContentService) TopTags(limit int) ([]models.TagCount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int64)
	for _, q := range s.questions {
		if q.IsDeleted {
			continue
		}
		for _, t := range q.Tags {
			counts[t]++
		}
	}

	out := make([]models.TagCount, 0, len(counts))
	for tag, n := range counts {
		out = append(out, models.TagCount{Tag: tag, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Tag < out[j].Tag
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func removeID(ids []string, id string) []string {
	out := ids[:0]
	for _, v := range ids {
		if v != id {
			out = append(out, v)
		}
	}
	return out
}

func copyQuestion(q *models.Question) *models.Question {
	c := *q
	c.Tags = append([]string(nil), q.Tags...)
	c.Votes.Upvotes = append([]string(nil), q.Votes.Upvotes...)
	c.Votes.Downvotes = append([]string(nil), q.Votes.Downvotes...)
	c.Comments = append([]models.Comment(nil), q.Comments...)
	if q.DeletedAt != nil {
		t := *q.DeletedAt
		c.DeletedAt = &t
	}
	return &c
}

func copyAnswer(a *models.Answer) *models.Answer {
	c := *a
	c.Votes.Upvotes = append([]string(nil), a.Votes.Upvotes...)
	c.Votes.Downvotes = append([]string(nil), a.Votes.Downvotes...)
	c.Comments = append([]models.Comment(nil), a.Comments...)
	if a.DeletedAt != nil {
		t := *a.DeletedAt
		c.DeletedAt = &t
	}
	return &c
}
