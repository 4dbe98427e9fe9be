package models

import (
	"errors"
)

// ContentType discriminates the two kinds of votable/flaggable content.
type ContentType string

const (
	ContentQuestion ContentType = "question"
	ContentAnswer   ContentType = "answer"
)

var ErrInvalidContentType = errors.New("invalid content type")

// ParseContentType validates a raw type tag from a URL or payload.
func ParseContentType(s string) (ContentType, error) {
	switch ContentType(s) {
	case ContentQuestion, ContentAnswer:
		return ContentType(s), nil
	default:
		return "", ErrInvalidContentType
	}
}

// ContentRef addresses a question or answer uniformly. Consumers switch on
// Type; ParseContentType guarantees only the two valid tags exist.
type ContentRef struct {
	Type ContentType `json:"content_type" bson:"content_type"`
	ID   string      `json:"content_id" bson:"content_id"`
}

func QuestionRef(id string) ContentRef {
	return ContentRef{Type: ContentQuestion, ID: id}
}

func AnswerRef(id string) ContentRef {
	return ContentRef{Type: ContentAnswer, ID: id}
}

// Votes holds the per-content vote ledger. A user ID appears in at most one
// of the two sets.
type Votes struct {
	Upvotes   []string `json:"upvotes" bson:"upvotes"`
	Downvotes []string `json:"downvotes" bson:"downvotes"`
}

// Net is the display score: upvotes minus downvotes.
func (v Votes) Net() int {
	return len(v.Upvotes) - len(v.Downvotes)
}

func (v Votes) HasUpvote(userID string) bool {
	return containsID(v.Upvotes, userID)
}

func (v Votes) HasDownvote(userID string) bool {
	return containsID(v.Downvotes, userID)
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

// VoteType is the direction of a vote request.
type VoteType string

const (
	VoteUp   VoteType = "upvote"
	VoteDown VoteType = "downvote"
)

var ErrInvalidVoteType = errors.New("invalid vote type")

func ParseVoteType(s string) (VoteType, error) {
	switch VoteType(s) {
	case VoteUp, VoteDown:
		return VoteType(s), nil
	default:
		return "", ErrInvalidVoteType
	}
}

type VoteRequest struct {
	VoteType string `json:"vote_type"`
}
