package models

import (
	"time"
)

// Notification event types.
const (
	NotifyVote     = "vote"
	NotifyAnswer   = "answer"
	NotifyBookmark = "bookmark"
	NotifyAccept   = "accept"
)

type Notification struct {
	ID          string      `json:"id" bson:"_id"`
	RecipientID string      `json:"recipient_id" bson:"recipient_id"`
	ActorID     string      `json:"actor_id" bson:"actor_id"`
	Type        string      `json:"type" bson:"type"`
	ContentType ContentType `json:"content_type,omitempty" bson:"content_type,omitempty"`
	ContentID   string      `json:"content_id,omitempty" bson:"content_id,omitempty"`
	Message     string      `json:"message" bson:"message"`
	IsRead      bool        `json:"is_read" bson:"is_read"`
	CreatedAt   time.Time   `json:"created_at" bson:"created_at"`
}
