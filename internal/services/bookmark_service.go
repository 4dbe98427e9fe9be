package services

import (
	"errors"
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/askaway/backend/internal/models"
	"github.com/askaway/backend/internal/storage"
)

var (
	ErrBookmarkNotFound  = errors.New("bookmark not found")
	ErrAlreadyBookmarked = errors.New("question already bookmarked")
)

type BookmarkService interface {
	Add(userID, questionID string) (*models.Bookmark, error)
	Remove(userID, questionID string) error
	// ListWithQuestions returns the user's bookmarks newest first with the
	// question populated, skipping questions that were deleted since.
	ListWithQuestions(userID string) ([]*models.BookmarkWithQuestion, error)
}

type MemoryBookmarkService struct {
	mu        sync.RWMutex
	bookmarks map[string]*models.Bookmark // bookmarkID -> bookmark
	byUser    map[string]map[string]string
	content   ContentService
	store     *storage.JSONStore
}

type bookmarkSnapshot struct {
	Bookmarks []*models.Bookmark `json:"bookmarks"`
}

func NewMemoryBookmarkService(dataDir string, content ContentService) *MemoryBookmarkService {
	s := &MemoryBookmarkService{
		bookmarks: make(map[string]*models.Bookmark),
		byUser:    make(map[string]map[string]string),
		content:   content,
	}

	if dataDir != "" {
		store, err := storage.NewJSONStore(dataDir, "bookmarks.json")
		if err != nil {
			log.Printf("[bookmarks] snapshot store unavailable: %v", err)
		} else {
			s.store = store
			var snap bookmarkSnapshot
			if err := store.Load(&snap); err != nil {
				log.Printf("[bookmarks] snapshot load failed: %v", err)
			} else {
				for _, b := range snap.Bookmarks {
					s.index(b)
				}
			}
		}
	}
	return s
}

func (s *MemoryBookmarkService) index(b *models.Bookmark) {
	s.bookmarks[b.ID] = b
	if s.byUser[b.UserID] == nil {
		s.byUser[b.UserID] = make(map[string]string)
	}
	s.byUser[b.UserID][b.QuestionID] = b.ID
}

func (s *MemoryBookmarkService) persist() {
	if s.store == nil {
		return
	}
	var snap bookmarkSnapshot
	for _, b := range s.bookmarks {
		snap.Bookmarks = append(snap.Bookmarks, b)
	}
	if err := s.store.Save(&snap); err != nil {
		log.Printf("[bookmarks] snapshot save failed: %v", err)
	}
}

func (s *MemoryBookmarkService) Add(userID, questionID string) (*models.Bookmark, error) {
	// Ensure the question exists and is visible.
	if _, err := s.content.GetQuestion(questionID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if userBms, exists := s.byUser[userID]; exists {
		if _, exists := userBms[questionID]; exists {
			return nil, ErrAlreadyBookmarked
		}
	}

	b := &models.Bookmark{
		ID:         uuid.New().String(),
		UserID:     userID,
		QuestionID: questionID,
		CreatedAt:  time.Now().UTC(),
	}
	s.index(b)
	s.persist()
	return b, nil
}

func (s *MemoryBookmarkService) Remove(userID, questionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	userBms, exists := s.byUser[userID]
	if !exists {
		return ErrBookmarkNotFound
	}
	id, exists := userBms[questionID]
	if !exists {
		return ErrBookmarkNotFound
	}

	delete(s.bookmarks, id)
	delete(userBms, questionID)
	s.persist()
	return nil
}

func (s *MemoryBookmarkService) ListWithQuestions(userID string) ([]*models.BookmarkWithQuestion, error) {
	s.mu.RLock()
	list := make([]*models.Bookmark, 0)
	for _, id := range s.byUser[userID] {
		if b, exists := s.bookmarks[id]; exists {
			list = append(list, b)
		}
	}
	s.mu.RUnlock()

	sort.Slice(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })

	out := make([]*models.BookmarkWithQuestion, 0, len(list))
	for _, b := range list {
		q, err := s.content.GetQuestion(b.QuestionID)
		if err != nil {
			// Skip bookmarks of deleted questions.
			if errors.Is(err, ErrQuestionNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, &models.BookmarkWithQuestion{Bookmark: *b, Question: *q})
	}
	return out, nil
}
