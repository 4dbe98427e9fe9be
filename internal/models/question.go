package models

import (
	"time"
)

type Question struct {
	ID        string     `json:"id" bson:"_id"`
	AuthorID  string     `json:"author_id" bson:"author_id"`
	Title     string     `json:"title" bson:"title"`
	Content   string     `json:"content" bson:"content"`
	Tags      []string   `json:"tags" bson:"tags"`
	Votes     Votes      `json:"votes" bson:"votes"`
	Comments  []Comment  `json:"comments" bson:"comments"`
	IsDeleted bool       `json:"is_deleted" bson:"is_deleted"`
	DeletedAt *time.Time `json:"deleted_at,omitempty" bson:"deleted_at,omitempty"`
	CreatedAt time.Time  `json:"created_at" bson:"created_at"`
}

// Comment is an embedded remark on a question or answer.
type Comment struct {
	ID        string    `json:"id" bson:"id"`
	AuthorID  string    `json:"author_id" bson:"author_id"`
	Content   string    `json:"content" bson:"content"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
}

type CreateQuestionRequest struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

type UpdateQuestionRequest struct {
	Title   string   `json:"title"`
	Content string   `json:"content"`
	Tags    []string `json:"tags"`
}

type CreateCommentRequest struct {
	Content string `json:"content"`
}

type ListQuestionsQuery struct {
	Search string
	Tag    string
	Page   int
	Limit  int
}

func (r *CreateQuestionRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Title == "" {
		errors["title"] = "Title is required"
	} else if len(r.Title) > 200 {
		errors["title"] = "Title must be at most 200 characters"
	}
	if r.Content == "" {
		errors["content"] = "Content is required"
	}
	if len(r.Tags) > 5 {
		errors["tags"] = "At most 5 tags are allowed"
	}

	return errors
}

func (r *UpdateQuestionRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Title == "" {
		errors["title"] = "Title is required"
	}
	if r.Content == "" {
		errors["content"] = "Content is required"
	}

	return errors
}

func (r *CreateCommentRequest) Validate() map[string]string {
	errors := make(map[string]string)

	if r.Content == "" {
		errors["content"] = "Content is required"
	} else if len(r.Content) > 1000 {
		errors["content"] = "Comment must be at most 1000 characters"
	}

	return errors
}
