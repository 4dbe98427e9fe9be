package models

import (
	"time"
)

// Flag reasons a reporter may choose from.
const (
	ReasonSpam          = "spam"
	ReasonInappropriate = "inappropriate"
	ReasonOffensive     = "offensive"
	ReasonDuplicate     = "duplicate"
	ReasonMisleading    = "misleading"
	ReasonOther         = "other"
)

// Flag lifecycle. Pending may move to resolved or dismissed; both are
// terminal. Admins may hard-delete a flag outright, which is removal,
// not a transition.
const (
	FlagPending   = "pending"
	FlagResolved  = "resolved"
	FlagDismissed = "dismissed"
)

// Moderation actions an admin can attach to a flag decision.
const (
	ActionDismiss    = "dismiss"
	ActionResolve    = "resolve"
	ActionSoftDelete = "soft-delete"
	ActionBanUser    = "ban-user"
)

type Flag struct {
	ID          string      `json:"id" bson:"_id"`
	ContentType ContentType `json:"content_type" bson:"content_type"`
	ContentID   string      `json:"content_id" bson:"content_id"`
	ReporterID  string      `json:"reporter_id" bson:"reporter_id"`
	Reason      string      `json:"reason" bson:"reason"`
	Status      string      `json:"status" bson:"status"`
	// Action and ActionApplied record the moderation decision so the
	// reconciler can re-apply side effects that did not land.
	Action        string    `json:"action,omitempty" bson:"action,omitempty"`
	ActionApplied bool      `json:"action_applied" bson:"action_applied"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
}

// Ref returns the flagged content's address.
func (f *Flag) Ref() ContentRef {
	return ContentRef{Type: f.ContentType, ID: f.ContentID}
}

// IsActive reports whether the flag still blocks the reporter from filing
// another flag on the same content. Dismissed flags do not.
func (f *Flag) IsActive() bool {
	return f.Status == FlagPending || f.Status == FlagResolved
}

func ValidFlagReason(reason string) bool {
	switch reason {
	case ReasonSpam, ReasonInappropriate, ReasonOffensive,
		ReasonDuplicate, ReasonMisleading, ReasonOther:
		return true
	}
	return false
}

func ValidFlagStatus(status string) bool {
	switch status {
	case FlagPending, FlagResolved, FlagDismissed:
		return true
	}
	return false
}

// ValidModerationTarget reports whether a moderation decision may leave the
// flag in the given status. Only the terminal statuses qualify.
func ValidModerationTarget(status string) bool {
	return status == FlagResolved || status == FlagDismissed
}

func ValidModerationAction(action string) bool {
	switch action {
	case ActionDismiss, ActionResolve, ActionSoftDelete, ActionBanUser:
		return true
	}
	return false
}

type CreateFlagRequest struct {
	Reason string `json:"reason"`
}

type ModerateFlagRequest struct {
	Action string `json:"action"`
	Status string `json:"status"`
}

func (r *CreateFlagRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Reason == "" {
		errors["reason"] = "Reason is required"
	} else if !ValidFlagReason(r.Reason) {
		errors["reason"] = "Reason must be one of: spam, inappropriate, offensive, duplicate, misleading, other"
	}

	return errors
}

func (r *ModerateFlagRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if !ValidModerationAction(r.Action) {
		errors["action"] = "Action must be one of: dismiss, resolve, soft-delete, ban-user"
	}
	// Pending is where flags start, not where a decision can leave them; a
	// decided flag must land on a terminal status or the reconciler cannot
	// see a failed side effect.
	if !ValidModerationTarget(r.Status) {
		errors["status"] = "Status must be one of: resolved, dismissed"
	}

	return errors
}
