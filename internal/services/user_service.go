package services

import (
	"errors"
	"log"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/askaway/backend/internal/models"
	"github.com/askaway/backend/internal/storage"
)

var (
	ErrUserNotFound      = errors.New("user not found")
	ErrEmailExists       = errors.New("email already registered")
	ErrInvalidPassword   = errors.New("invalid password")
	ErrSelfBan           = errors.New("cannot ban yourself")
	ErrCannotBanAdmin    = errors.New("cannot ban an admin")
	ErrBanReasonRequired = errors.New("ban reason is required")
)

// Reputation deltas applied by vote/accept events. Every change goes through
// ApplyReputationDelta so the live counter always matches the ledger.
const (
	RepUpvoteReceived   = 10
	RepDownvoteReceived = -2
	RepAnswerAccepted   = 15
)

type UserService interface {
	Register(req *models.RegisterRequest) (*models.User, error)
	Login(req *models.LoginRequest) (*models.User, error)
	GetByID(id string) (*models.User, error)
	ApplyReputationDelta(userID string, delta int, reason string) error
	Ban(adminID, targetID, reason string) (*models.User, error)
	Unban(targetID string) (*models.User, error)
	CountUsers() (total, banned int64, err error)
}

// MemoryUserService keeps accounts and the reputation ledger in memory,
// snapshotting to a JSON file when a data dir is configured. Used by tests
// and as the no-Mongo dev mode.
type MemoryUserService struct {
	mu          sync.RWMutex
	users       map[string]*models.User
	byEmail     map[string]string
	history     []models.ReputationEvent
	adminEmails map[string]bool
	store       *storage.JSONStore
}

type userSnapshot struct {
	Users   []*models.User           `json:"users"`
	History []models.ReputationEvent `json:"history"`
}

func NewMemoryUserService(dataDir, adminEmails string) *MemoryUserService {
	s := &MemoryUserService{
		users:       make(map[string]*models.User),
		byEmail:     make(map[string]string),
		adminEmails: make(map[string]bool),
	}
	for _, e := range strings.Split(adminEmails, ",") {
		if e = strings.TrimSpace(strings.ToLower(e)); e != "" {
			s.adminEmails[e] = true
		}
	}

	if dataDir != "" {
		store, err := storage.NewJSONStore(dataDir, "users.json")
		if err != nil {
			log.Printf("[users] snapshot store unavailable: %v", err)
		} else {
			s.store = store
			var snap userSnapshot
			if err := store.Load(&snap); err != nil {
				log.Printf("[users] snapshot load failed: %v", err)
			} else {
				for _, u := range snap.Users {
					s.users[u.ID] = u
					s.byEmail[u.Email] = u.ID
				}
				s.history = snap.History
			}
		}
	}
	return s
}

// persist snapshots current state; callers hold the write lock.
func (s *MemoryUserService) persist() {
	if s.store == nil {
		return
	}
	snap := userSnapshot{History: s.history}
	for _, u := range s.users {
		snap.Users = append(snap.Users, u)
	}
	if err := s.store.Save(&snap); err != nil {
		log.Printf("[users] snapshot save failed: %v", err)
	}
}

func (s *MemoryUserService) Register(req *models.RegisterRequest) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byEmail[req.Email]; exists {
		return nil, ErrEmailExists
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	role := models.RoleUser
	if s.adminEmails[strings.ToLower(req.Email)] {
		role = models.RoleAdmin
	}

	user := &models.User{
		ID:           uuid.New().String(),
		Email:        req.Email,
		PasswordHash: string(hashedPassword),
		DisplayName:  req.DisplayName,
		Role:         role,
		CreatedAt:    time.Now().UTC(),
	}

	s.users[user.ID] = user
	s.byEmail[user.Email] = user.ID
	s.persist()

	return copyUser(user), nil
}

func (s *MemoryUserService) Login(req *models.LoginRequest) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	userID, exists := s.byEmail[req.Email]
	if !exists {
		return nil, ErrUserNotFound
	}

	user := s.users[userID]
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, ErrInvalidPassword
	}

	return copyUser(user), nil
}

func (s *MemoryUserService) GetByID(id string) (*models.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, exists := s.users[id]
	if !exists {
		return nil, ErrUserNotFound
	}

	return copyUser(user), nil
}

// ApplyReputationDelta updates the live counter and appends the matching
// ledger entry in one step.
func (s *MemoryUserService) ApplyReputationDelta(userID string, delta int, reason string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	user, exists := s.users[userID]
	if !exists {
		return ErrUserNotFound
	}

	user.Reputation += delta
	s.history = append(s.history, models.ReputationEvent{
		UserID:    userID,
		Change:    delta,
		Reason:    reason,
		CreatedAt: time.Now().UTC(),
	})
	s.persist()
	return nil
}

func (s *MemoryUserService) Ban(adminID, targetID, reason string) (*models.User, error) {
	if strings.TrimSpace(reason) == "" {
		return nil, ErrBanReasonRequired
	}
	if adminID == targetID {
		return nil, ErrSelfBan
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	target, exists := s.users[targetID]
	if !exists {
		return nil, ErrUserNotFound
	}
	if target.Role == models.RoleAdmin {
		return nil, ErrCannotBanAdmin
	}

	now := time.Now().UTC()
	target.IsBanned = true
	target.BanReason = reason
	target.BannedAt = &now
	target.BannedBy = adminID
	s.persist()

	return copyUser(target), nil
}

func (s *MemoryUserService) Unban(targetID string) (*models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	target, exists := s.users[targetID]
	if !exists {
		return nil, ErrUserNotFound
	}

	target.IsBanned = false
	target.BanReason = ""
	target.BannedAt = nil
	target.BannedBy = ""
	s.persist()

	return copyUser(target), nil
}

func (s *MemoryUserService) CountUsers() (int64, int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var total, banned int64
	for _, u := range s.users {
		total++
		if u.IsBanned {
			banned++
		}
	}
	return total, banned, nil
}

// rankingUsers returns non-admin, non-banned users for the leaderboard.
func (s *MemoryUserService) rankingUsers() []*models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.User, 0, len(s.users))
	for _, u := range s.users {
		if u.Role == models.RoleAdmin || u.IsBanned {
			continue
		}
		out = append(out, copyUser(u))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// reputationSince sums ledger deltas for a user from the cutoff onward.
func (s *MemoryUserService) reputationSince(userID string, cutoff time.Time) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sum := 0
	for _, ev := range s.history {
		if ev.UserID == userID && !ev.CreatedAt.Before(cutoff) {
			sum += ev.Change
		}
	}
	return sum
}

func copyUser(u *models.User) *models.User {
	c := *u
	if u.BannedAt != nil {
		t := *u.BannedAt
		c.BannedAt = &t
	}
	return &c
}
