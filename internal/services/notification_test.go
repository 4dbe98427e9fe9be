package services

import (
	"testing"

	"github.com/askaway/backend/internal/models"
)

func TestNotificationsScopedToRecipient(t *testing.T) {
	svc := NewMemoryNotificationService()

	for _, n := range []*models.Notification{
		{RecipientID: "alice", ActorID: "bob", Type: models.NotifyVote, Message: "Your question received an upvote"},
		{RecipientID: "alice", ActorID: "carol", Type: models.NotifyAnswer, Message: "Your question received a new answer"},
		{RecipientID: "bob", ActorID: "alice", Type: models.NotifyAccept, Message: "Your answer was accepted"},
	} {
		if err := svc.Create(n); err != nil {
			t.Fatalf("create: %v", err)
		}
	}

	list, err := svc.ListByRecipient("alice", 10)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("alice notifications = %d, want 2", len(list))
	}

	count, err := svc.UnreadCount("alice")
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if count != 2 {
		t.Fatalf("unread = %d, want 2", count)
	}

	// A recipient cannot mark someone else's notification.
	bobList, _ := svc.ListByRecipient("bob", 10)
	if err := svc.MarkRead("alice", bobList[0].ID); err != ErrNotificationNotFound {
		t.Fatalf("cross-user mark = %v, want ErrNotificationNotFound", err)
	}

	if err := svc.MarkRead("alice", list[0].ID); err != nil {
		t.Fatalf("mark read: %v", err)
	}
	count, _ = svc.UnreadCount("alice")
	if count != 1 {
		t.Fatalf("unread after mark = %d, want 1", count)
	}

	if err := svc.MarkAllRead("alice"); err != nil {
		t.Fatalf("mark all: %v", err)
	}
	count, _ = svc.UnreadCount("alice")
	if count != 0 {
		t.Fatalf("unread after mark all = %d, want 0", count)
	}
}
