package models

import (
	"time"
)

type Answer struct {
	ID         string     `json:"id" bson:"_id"`
	QuestionID string     `json:"question_id" bson:"question_id"`
	AuthorID   string     `json:"author_id" bson:"author_id"`
	Content    string     `json:"content" bson:"content"`
	Votes      Votes      `json:"votes" bson:"votes"`
	Comments   []Comment  `json:"comments" bson:"comments"`
	IsAccepted bool       `json:"is_accepted" bson:"is_accepted"`
	IsDeleted  bool       `json:"is_deleted" bson:"is_deleted"`
	DeletedAt  *time.Time `json:"deleted_at,omitempty" bson:"deleted_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at" bson:"created_at"`
}

type CreateAnswerRequest struct {
	Content string `json:"content"`
}

type UpdateAnswerRequest struct {
	Content string `json:"content"`
}

func (r *CreateAnswerRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Content == "" {
		errors["content"] = "Content is required"
	}

	return errors
}

func (r *UpdateAnswerRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Content == "" {
		errors["content"] = "Content is required"
	}

	return errors
}
