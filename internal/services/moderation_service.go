package services

import (
	"errors"
	"fmt"
	"log"

	"github.com/askaway/backend/internal/models"
)

var ErrInvalidModerationAction = errors.New("invalid moderation action")

// ModerationService applies flag lifecycle decisions and their side effects
// to the content and user stores. The status write and the side effect are
// two separate writes; flags record the decided action so ReconcileOnce can
// re-apply side effects that did not land.
type ModerationService struct {
	Content ContentService
	Flags   FlagService
	Users   UserService
}

func NewModerationService(content ContentService, flags FlagService, users UserService) *ModerationService {
	return &ModerationService{Content: content, Flags: flags, Users: users}
}

// CreateFlag files a report against existing, visible content.
func (m *ModerationService) CreateFlag(ref models.ContentRef, reporterID, reason string) (*models.Flag, error) {
	_, deleted, err := m.Content.ResolveContent(ref)
	if err != nil {
		return nil, err
	}
	if deleted {
		return nil, ErrContentNotFound
	}
	return m.Flags.Create(ref, reporterID, reason)
}

// ListFlags returns flags for the admin queue, silently dropping flags whose
// content has since been removed or soft-deleted; those are stale, not errors.
func (m *ModerationService) ListFlags(status string) ([]*models.Flag, error) {
	flags, err := m.Flags.List(status)
	if err != nil {
		return nil, err
	}

	out := make([]*models.Flag, 0, len(flags))
	for _, f := range flags {
		_, deleted, err := m.Content.ResolveContent(f.Ref())
		if err != nil {
			if errors.Is(err, ErrContentNotFound) {
				continue
			}
			return nil, err
		}
		if deleted {
			continue
		}
		out = append(out, f)
	}
	return out, nil
}

// Moderate sets the flag's status first, then applies the action's side
// effect and records whether it landed.
func (m *ModerationService) Moderate(adminID, flagID, action, status string) (*models.Flag, error) {
	if !models.ValidModerationAction(action) {
		return nil, ErrInvalidModerationAction
	}

	flag, err := m.Flags.SetStatus(flagID, status, action)
	if err != nil {
		return nil, err
	}

	if err := m.applyAction(adminID, flag); err != nil {
		// The status write already happened; leave action_applied unset and
		// let the reconciler retry.
		log.Printf("[moderation] side effect failed flag=%s action=%s: %v", flag.ID, action, err)
		return flag, err
	}

	if err := m.Flags.MarkActionApplied(flag.ID); err != nil {
		log.Printf("[moderation] mark applied failed flag=%s: %v", flag.ID, err)
	}
	flag.ActionApplied = true
	return flag, nil
}

// applyAction performs the side effect for a moderation decision. All
// branches are idempotent so the reconciler can safely repeat them.
func (m *ModerationService) applyAction(adminID string, flag *models.Flag) error {
	switch flag.Action {
	case models.ActionDismiss, models.ActionResolve:
		return nil
	case models.ActionSoftDelete:
		err := m.Content.SoftDeleteContent(flag.Ref())
		if errors.Is(err, ErrContentNotFound) {
			// Content already gone; nothing left to do.
			return nil
		}
		return err
	case models.ActionBanUser:
		authorID, _, err := m.Content.ResolveContent(flag.Ref())
		if err != nil {
			if errors.Is(err, ErrContentNotFound) {
				return nil
			}
			return err
		}
		reason := fmt.Sprintf("Content flagged as %s", flag.Reason)
		_, err = m.Users.Ban(adminID, authorID, reason)
		if errors.Is(err, ErrCannotBanAdmin) || errors.Is(err, ErrSelfBan) {
			// Flag-driven bans never override the ban guards.
			return err
		}
		if errors.Is(err, ErrUserNotFound) {
			return nil
		}
		return err
	default:
		return ErrInvalidModerationAction
	}
}

// DeleteFlag removes a flag outright. This is admin-only terminal removal,
// not a lifecycle transition.
func (m *ModerationService) DeleteFlag(flagID string) error {
	return m.Flags.Delete(flagID)
}

// ReconcileOnce re-applies side effects for moderated flags whose action was
// never confirmed, e.g. after a crash between the status write and the side
// effect. Returns how many flags were repaired.
func (m *ModerationService) ReconcileOnce() (int, error) {
	flags, err := m.Flags.ListUnapplied()
	if err != nil {
		return 0, err
	}

	repaired := 0
	for _, flag := range flags {
		// The admin identity is not replayed; reconciled bans attribute to
		// the system account.
		if err := m.applyAction("system", flag); err != nil {
			log.Printf("[reconciler] flag=%s action=%s retry failed: %v", flag.ID, flag.Action, err)
			continue
		}
		if err := m.Flags.MarkActionApplied(flag.ID); err != nil {
			log.Printf("[reconciler] flag=%s mark applied failed: %v", flag.ID, err)
			continue
		}
		repaired++
	}
	if len(flags) > 0 {
		log.Printf("[reconciler] pass complete: %d pending, %d repaired", len(flags), repaired)
	}
	return repaired, nil
}
