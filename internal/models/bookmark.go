package models

import (
	"time"
)

type Bookmark struct {
	ID         string    `json:"id" bson:"_id"`
	UserID     string    `json:"user_id" bson:"user_id"`
	QuestionID string    `json:"question_id" bson:"question_id"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at"`
}

type BookmarkWithQuestion struct {
	Bookmark
	Question Question `json:"question"`
}
