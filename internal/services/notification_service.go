package services

import (
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/askaway/backend/internal/models"
)

var ErrNotificationNotFound = errors.New("notification not found")

// NotificationService is the fan-out sink for vote/answer/bookmark/accept
// events. Creation failures are never fatal to the triggering operation;
// callers log and move on.
type NotificationService interface {
	Create(n *models.Notification) error
	ListByRecipient(userID string, limit int) ([]*models.Notification, error)
	MarkRead(userID, id string) error
	MarkAllRead(userID string) error
	UnreadCount(userID string) (int64, error)
}

type MemoryNotificationService struct {
	mu            sync.RWMutex
	notifications map[string]*models.Notification
}

func NewMemoryNotificationService() *MemoryNotificationService {
	return &MemoryNotificationService{notifications: make(map[string]*models.Notification)}
}

func (s *MemoryNotificationService) Create(n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c := *n
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	s.notifications[c.ID] = &c
	return nil
}

func (s *MemoryNotificationService) ListByRecipient(userID string, limit int) ([]*models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Notification, 0)
	for _, n := range s.notifications {
		if n.RecipientID == userID {
			c := *n
			out = append(out, &c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryNotificationService) MarkRead(userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	n, exists := s.notifications[id]
	if !exists || n.RecipientID != userID {
		return ErrNotificationNotFound
	}
	n.IsRead = true
	return nil
}

func (s *MemoryNotificationService) MarkAllRead(userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, n := range s.notifications {
		if n.RecipientID == userID {
			n.IsRead = true
		}
	}
	return nil
}

func (s *MemoryNotificationService) UnreadCount(userID string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var count int64
	for _, n := range s.notifications {
		if n.RecipientID == userID && !n.IsRead {
			count++
		}
	}
	return count, nil
}
