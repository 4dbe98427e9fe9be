package services

import (
	"testing"

	"github.com/askaway/backend/internal/models"
)

func TestFlagDuplicateRejected(t *testing.T) {
	svc := NewMemoryFlagService("")
	ref := models.QuestionRef("q1")

	if _, err := svc.Create(ref, "reporter", models.ReasonSpam); err != nil {
		t.Fatalf("first flag: %v", err)
	}
	if _, err := svc.Create(ref, "reporter", models.ReasonOffensive); err != ErrDuplicateFlag {
		t.Fatalf("second flag error = %v, want ErrDuplicateFlag", err)
	}
	// A different reporter on the same content is fine.
	if _, err := svc.Create(ref, "other", models.ReasonSpam); err != nil {
		t.Fatalf("flag by other reporter: %v", err)
	}
	// Same reporter on different content is fine.
	if _, err := svc.Create(models.AnswerRef("a1"), "reporter", models.ReasonSpam); err != nil {
		t.Fatalf("flag on other content: %v", err)
	}
}

func TestFlagInvalidReason(t *testing.T) {
	svc := NewMemoryFlagService("")

	if _, err := svc.Create(models.QuestionRef("q1"), "reporter", "because"); err != ErrInvalidReason {
		t.Fatalf("error = %v, want ErrInvalidReason", err)
	}
}

func TestFlagReFileAfterDismissal(t *testing.T) {
	svc := NewMemoryFlagService("")
	ref := models.QuestionRef("q1")

	f, err := svc.Create(ref, "reporter", models.ReasonSpam)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.SetStatus(f.ID, models.FlagDismissed, models.ActionDismiss); err != nil {
		t.Fatalf("dismiss: %v", err)
	}

	// Dismissal releases the duplicate guard.
	if _, err := svc.Create(ref, "reporter", models.ReasonSpam); err != nil {
		t.Fatalf("re-file after dismissal: %v", err)
	}
}

func TestFlagResolvedStaysActive(t *testing.T) {
	svc := NewMemoryFlagService("")
	ref := models.QuestionRef("q1")

	f, err := svc.Create(ref, "reporter", models.ReasonSpam)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.SetStatus(f.ID, models.FlagResolved, models.ActionResolve); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	// Resolution keeps the duplicate guard in place.
	if _, err := svc.Create(ref, "reporter", models.ReasonSpam); err != ErrDuplicateFlag {
		t.Fatalf("re-file after resolve = %v, want ErrDuplicateFlag", err)
	}
}

func TestFlagTerminalTransitionsRejected(t *testing.T) {
	svc := NewMemoryFlagService("")

	f, err := svc.Create(models.QuestionRef("q1"), "reporter", models.ReasonSpam)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.SetStatus(f.ID, models.FlagResolved, models.ActionResolve); err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if _, err := svc.SetStatus(f.ID, models.FlagDismissed, models.ActionDismiss); err != ErrFlagFinalized {
		t.Fatalf("transition from resolved = %v, want ErrFlagFinalized", err)
	}
}

func TestFlagDecisionMustBeTerminal(t *testing.T) {
	svc := NewMemoryFlagService("")

	f, err := svc.Create(models.QuestionRef("q1"), "reporter", models.ReasonSpam)
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// A decision that leaves the flag pending would carry an action the
	// reconciler never sees.
	if _, err := svc.SetStatus(f.ID, models.FlagPending, models.ActionSoftDelete); err == nil {
		t.Fatal("SetStatus to pending should fail")
	}

	unapplied, err := svc.ListUnapplied()
	if err != nil {
		t.Fatalf("ListUnapplied: %v", err)
	}
	if len(unapplied) != 0 {
		t.Fatalf("unapplied = %d, want 0", len(unapplied))
	}

	got, err := svc.GetByID(f.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Status != models.FlagPending || got.Action != "" {
		t.Fatalf("flag mutated by rejected decision: %+v", got)
	}
}

func TestFlagListByStatus(t *testing.T) {
	svc := NewMemoryFlagService("")

	f1, _ := svc.Create(models.QuestionRef("q1"), "r1", models.ReasonSpam)
	if _, err := svc.Create(models.QuestionRef("q2"), "r1", models.ReasonOther); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := svc.SetStatus(f1.ID, models.FlagResolved, models.ActionResolve); err != nil {
		t.Fatalf("resolve: %v", err)
	}

	pending, err := svc.List(models.FlagPending)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(pending) != 1 {
		t.Fatalf("pending count = %d, want 1", len(pending))
	}

	all, err := svc.List("")
	if err != nil {
		t.Fatalf("List all: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("all count = %d, want 2", len(all))
	}

	n, err := svc.CountByStatus(models.FlagPending)
	if err != nil {
		t.Fatalf("CountByStatus: %v", err)
	}
	if n != 1 {
		t.Fatalf("pending count = %d, want 1", n)
	}
}
