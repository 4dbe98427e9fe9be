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
	ErrFlagNotFound  = errors.New("flag not found")
	ErrDuplicateFlag = errors.New("content already flagged by this reporter")
	ErrInvalidReason = errors.New("invalid flag reason")
	ErrFlagFinalized = errors.New("flag is already resolved or dismissed")
)

// FlagService is the flag ledger: storage and lifecycle only. Cross-entity
// rules (content existence, moderation side effects) live in the moderation
// engine.
type FlagService interface {
	Create(ref models.ContentRef, reporterID, reason string) (*models.Flag, error)
	GetByID(id string) (*models.Flag, error)
	// List returns flags filtered by status; empty status means all.
	List(status string) ([]*models.Flag, error)
	// SetStatus moves a pending flag to the target status and records the
	// moderation action. Terminal flags reject further transitions.
	SetStatus(id, status, action string) (*models.Flag, error)
	MarkActionApplied(id string) error
	// ListUnapplied returns flags whose recorded action has not been
	// confirmed as applied, for the reconciler.
	ListUnapplied() ([]*models.Flag, error)
	Delete(id string) error
	CountByStatus(status string) (int64, error)
}

type MemoryFlagService struct {
	mu    sync.RWMutex
	flags map[string]*models.Flag
	store *storage.JSONStore
}

type flagSnapshot struct {
	Flags []*models.Flag `json:"flags"`
}

func NewMemoryFlagService(dataDir string) *MemoryFlagService {
	s := &MemoryFlagService{flags: make(map[string]*models.Flag)}

	if dataDir != "" {
		store, err := storage.NewJSONStore(dataDir, "flags.json")
		if err != nil {
			log.Printf("[flags] snapshot store unavailable: %v", err)
		} else {
			s.store = store
			var snap flagSnapshot
			if err := store.Load(&snap); err != nil {
				log.Printf("[flags] snapshot load failed: %v", err)
			} else {
				for _, f := range snap.Flags {
					s.flags[f.ID] = f
				}
			}
		}
	}
	return s
}

func (s *MemoryFlagService) persist() {
	if s.store == nil {
		return
	}
	var snap flagSnapshot
	for _, f := range s.flags {
		snap.Flags = append(snap.Flags, f)
	}
	if err := s.store.Save(&snap); err != nil {
		log.Printf("[flags] snapshot save failed: %v", err)
	}
}

func (s *MemoryFlagService) Create(ref models.ContentRef, reporterID, reason string) (*models.Flag, error) {
	if !models.ValidFlagReason(reason) {
		return nil, ErrInvalidReason
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// One active flag per (reporter, content). Dismissed flags free the slot.
	for _, f := range s.flags {
		if f.ReporterID == reporterID && f.ContentType == ref.Type && f.ContentID == ref.ID && f.IsActive() {
			return nil, ErrDuplicateFlag
		}
	}

	flag := &models.Flag{
		ID:          uuid.New().String(),
		ContentType: ref.Type,
		ContentID:   ref.ID,
		ReporterID:  reporterID,
		Reason:      reason,
		Status:      models.FlagPending,
		CreatedAt:   time.Now().UTC(),
	}
	s.flags[flag.ID] = flag
	s.persist()
	return copyFlag(flag), nil
}

func (s *MemoryFlagService) GetByID(id string) (*models.Flag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	f, exists := s.flags[id]
	if !exists {
		return nil, ErrFlagNotFound
	}
	return copyFlag(f), nil
}

func (s *MemoryFlagService) List(status string) ([]*models.Flag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Flag, 0)
	for _, f := range s.flags {
		if status != "" && f.Status != status {
			continue
		}
		out = append(out, copyFlag(f))
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (s *MemoryFlagService) SetStatus(id, status, action string) (*models.Flag, error) {
	// A decision must land on a terminal status; leaving the flag pending
	// would hide an unapplied action from ListUnapplied.
	if !models.ValidModerationTarget(status) {
		return nil, errors.New("invalid flag status")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	f, exists := s.flags[id]
	if !exists {
		return nil, ErrFlagNotFound
	}
	if f.Status != models.FlagPending {
		return nil, ErrFlagFinalized
	}

	f.Status = status
	f.Action = action
	f.ActionApplied = false
	s.persist()
	return copyFlag(f), nil
}

func (s *MemoryFlagService) MarkActionApplied(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, exists := s.flags[id]
	if !exists {
		return ErrFlagNotFound
	}
	f.ActionApplied = true
	s.persist()
	return nil
}

func (s *MemoryFlagService) ListUnapplied() ([]*models.Flag, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Flag, 0)
	for _, f := range s.flags {
		if f.Status != models.FlagPending && f.Action != "" && !f.ActionApplied {
			out = append(out, copyFlag(f))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *MemoryFlagService) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.flags[id]; !exists {
		return ErrFlagNotFound
	}
	delete(s.flags, id)
	s.persist()
	return nil
}

func (s *MemoryFlagService) CountByStatus(status string) (int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var n int64
	for _, f := range s.flags {
		if status == "" || f.Status == status {
			n++
		}
	}
	return n, nil
}

func copyFlag(f *models.Flag) *models.Flag {
	c := *f
	return &c
}
