package services

import (
	"testing"

	"github.com/askaway/backend/internal/models"
)

func TestBookmarkAddRemove(t *testing.T) {
	content := NewMemoryContentService("")
	svc := NewMemoryBookmarkService("", content)

	q, err := content.CreateQuestion("author", &models.CreateQuestionRequest{Title: "A question", Content: "body"})
	if err != nil {
		t.Fatalf("create question: %v", err)
	}

	if _, err := svc.Add("reader", q.ID); err != nil {
		t.Fatalf("add: %v", err)
	}
	if _, err := svc.Add("reader", q.ID); err != ErrAlreadyBookmarked {
		t.Fatalf("duplicate add = %v, want ErrAlreadyBookmarked", err)
	}
	if _, err := svc.Add("reader", "no-such-question"); err != ErrQuestionNotFound {
		t.Fatalf("add missing = %v, want ErrQuestionNotFound", err)
	}

	if err := svc.Remove("reader", q.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := svc.Remove("reader", q.ID); err != ErrBookmarkNotFound {
		t.Fatalf("second remove = %v, want ErrBookmarkNotFound", err)
	}

	// Removing freed the slot for a new bookmark.
	if _, err := svc.Add("reader", q.ID); err != nil {
		t.Fatalf("re-add: %v", err)
	}
}

func TestBookmarkListSkipsDeletedQuestions(t *testing.T) {
	content := NewMemoryContentService("")
	svc := NewMemoryBookmarkService("", content)

	kept, err := content.CreateQuestion("author", &models.CreateQuestionRequest{Title: "Kept", Content: "body"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	doomed, err := content.CreateQuestion("author", &models.CreateQuestionRequest{Title: "Doomed", Content: "body"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	if _, err := svc.Add("reader", kept.ID); err != nil {
		t.Fatalf("add kept: %v", err)
	}
	if _, err := svc.Add("reader", doomed.ID); err != nil {
		t.Fatalf("add doomed: %v", err)
	}
	if err := content.DeleteQuestion("author", false, doomed.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	list, err := svc.ListWithQuestions("reader")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("list = %d, want 1", len(list))
	}
	if list[0].QuestionID != kept.ID || list[0].Question.Title != "Kept" {
		t.Fatalf("entry = %+v", list[0])
	}
}

func TestBookmarkListIsScopedToUser(t *testing.T) {
	content := NewMemoryContentService("")
	svc := NewMemoryBookmarkService("", content)

	q, err := content.CreateQuestion("author", &models.CreateQuestionRequest{Title: "A question", Content: "body"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.Add("reader1", q.ID); err != nil {
		t.Fatalf("add: %v", err)
	}

	list, err := svc.ListWithQuestions("reader2")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 0 {
		t.Fatalf("list = %d, want 0", len(list))
	}
}
