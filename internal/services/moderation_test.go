package services

import (
	"testing"

	"github.com/askaway/backend/internal/models"
)

type moderationFixture struct {
	moderation *ModerationService
	content    *MemoryContentService
	flags      *MemoryFlagService
	users      *MemoryUserService
	author     *models.User
	question   *models.Question
}

func newModerationFixture(t *testing.T) *moderationFixture {
	t.Helper()
	users := NewMemoryUserService("", "")
	content := NewMemoryContentService("")
	flags := NewMemoryFlagService("")

	author, err := users.Register(&models.RegisterRequest{
		Email:       "author@example.com",
		Password:    "hunter22",
		DisplayName: "Author",
	})
	if err != nil {
		t.Fatalf("register author: %v", err)
	}

	question, err := content.CreateQuestion(author.ID, &models.CreateQuestionRequest{
		Title:   "Why is my slice shared between functions?",
		Content: "Appending in a helper mutates the caller's data sometimes.",
		Tags:    []string{"go", "slices"},
	})
	if err != nil {
		t.Fatalf("create question: %v", err)
	}

	return &moderationFixture{
		moderation: NewModerationService(content, flags, users),
		content:    content,
		flags:      flags,
		users:      users,
		author:     author,
		question:   question,
	}
}

func TestCreateFlagRequiresVisibleContent(t *testing.T) {
	fx := newModerationFixture(t)

	if _, err := fx.moderation.CreateFlag(models.QuestionRef("missing"), "reporter", models.ReasonSpam); err != ErrContentNotFound {
		t.Fatalf("flag on missing content = %v, want ErrContentNotFound", err)
	}

	if err := fx.content.SoftDeleteContent(models.QuestionRef(fx.question.ID)); err != nil {
		t.Fatalf("soft delete: %v", err)
	}
	if _, err := fx.moderation.CreateFlag(models.QuestionRef(fx.question.ID), "reporter", models.ReasonSpam); err != ErrContentNotFound {
		t.Fatalf("flag on deleted content = %v, want ErrContentNotFound", err)
	}
}

func TestModerateSoftDelete(t *testing.T) {
	fx := newModerationFixture(t)

	flag, err := fx.moderation.CreateFlag(models.QuestionRef(fx.question.ID), "reporter", models.ReasonSpam)
	if err != nil {
		t.Fatalf("create flag: %v", err)
	}

	moderated, err := fx.moderation.Moderate("admin-1", flag.ID, models.ActionSoftDelete, models.FlagResolved)
	if err != nil {
		t.Fatalf("moderate: %v", err)
	}
	if moderated.Status != models.FlagResolved {
		t.Fatalf("status = %q, want resolved", moderated.Status)
	}
	if !moderated.ActionApplied {
		t.Fatal("action should be confirmed applied")
	}

	if _, err := fx.content.GetQuestion(fx.question.ID); err != ErrQuestionNotFound {
		t.Fatalf("question after soft delete = %v, want ErrQuestionNotFound", err)
	}
	// The record survives for restore.
	if _, deleted, err := fx.content.ResolveContent(models.QuestionRef(fx.question.ID)); err != nil || !deleted {
		t.Fatalf("ResolveContent = deleted=%v err=%v, want deleted record", deleted, err)
	}
}

func TestModerateBanUser(t *testing.T) {
	fx := newModerationFixture(t)

	flag, err := fx.moderation.CreateFlag(models.QuestionRef(fx.question.ID), "reporter", models.ReasonOffensive)
	if err != nil {
		t.Fatalf("create flag: %v", err)
	}

	if _, err := fx.moderation.Moderate("admin-1", flag.ID, models.ActionBanUser, models.FlagResolved); err != nil {
		t.Fatalf("moderate: %v", err)
	}

	banned, err := fx.users.GetByID(fx.author.ID)
	if err != nil {
		t.Fatalf("get author: %v", err)
	}
	if !banned.IsBanned {
		t.Fatal("author should be banned")
	}
	if banned.BanReason != "Content flagged as offensive" {
		t.Fatalf("ban reason = %q", banned.BanReason)
	}
	if banned.BannedBy != "admin-1" {
		t.Fatalf("banned by = %q, want admin-1", banned.BannedBy)
	}
	if banned.BannedAt == nil {
		t.Fatal("banned at should be set")
	}
}

func TestModerateBanAdminAuthorFails(t *testing.T) {
	fx := newModerationFixture(t)

	adminUsers := NewMemoryUserService("", "boss@example.com")
	boss, err := adminUsers.Register(&models.RegisterRequest{
		Email:       "boss@example.com",
		Password:    "hunter22",
		DisplayName: "Boss",
	})
	if err != nil {
		t.Fatalf("register admin: %v", err)
	}
	q, err := fx.content.CreateQuestion(boss.ID, &models.CreateQuestionRequest{
		Title:   "Announcement about the roadmap",
		Content: "Some content from an admin account.",
	})
	if err != nil {
		t.Fatalf("create question: %v", err)
	}
	moderation := NewModerationService(fx.content, fx.flags, adminUsers)

	flag, err := moderation.CreateFlag(models.QuestionRef(q.ID), "reporter", models.ReasonSpam)
	if err != nil {
		t.Fatalf("create flag: %v", err)
	}

	if _, err := moderation.Moderate("admin-1", flag.ID, models.ActionBanUser, models.FlagResolved); err != ErrCannotBanAdmin {
		t.Fatalf("banning admin author = %v, want ErrCannotBanAdmin", err)
	}

	// The status write landed but the side effect is left for the reconciler.
	stored, err := fx.flags.GetByID(flag.ID)
	if err != nil {
		t.Fatalf("get flag: %v", err)
	}
	if stored.Status != models.FlagResolved || stored.ActionApplied {
		t.Fatalf("flag status=%q applied=%v, want resolved and unapplied", stored.Status, stored.ActionApplied)
	}
}

func TestReconcileOnceRepairsUnapplied(t *testing.T) {
	fx := newModerationFixture(t)

	flag, err := fx.moderation.CreateFlag(models.QuestionRef(fx.question.ID), "reporter", models.ReasonSpam)
	if err != nil {
		t.Fatalf("create flag: %v", err)
	}

	// Simulate a crash after the status write: the decision is recorded but
	// the side effect never ran.
	if _, err := fx.flags.SetStatus(flag.ID, models.FlagResolved, models.ActionBanUser); err != nil {
		t.Fatalf("set status: %v", err)
	}

	repaired, err := fx.moderation.ReconcileOnce()
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if repaired != 1 {
		t.Fatalf("repaired = %d, want 1", repaired)
	}

	banned, err := fx.users.GetByID(fx.author.ID)
	if err != nil {
		t.Fatalf("get author: %v", err)
	}
	if !banned.IsBanned {
		t.Fatal("author should be banned by the reconciler")
	}
	if banned.BannedBy != "system" {
		t.Fatalf("banned by = %q, want system", banned.BannedBy)
	}

	stored, err := fx.flags.GetByID(flag.ID)
	if err != nil {
		t.Fatalf("get flag: %v", err)
	}
	if !stored.ActionApplied {
		t.Fatal("flag should be confirmed applied after reconcile")
	}

	// A second pass finds nothing to do.
	repaired, err = fx.moderation.ReconcileOnce()
	if err != nil {
		t.Fatalf("second reconcile: %v", err)
	}
	if repaired != 0 {
		t.Fatalf("second pass repaired = %d, want 0", repaired)
	}
}

func TestReconcileSoftDeleteIsIdempotent(t *testing.T) {
	fx := newModerationFixture(t)

	flag, err := fx.moderation.CreateFlag(models.QuestionRef(fx.question.ID), "reporter", models.ReasonSpam)
	if err != nil {
		t.Fatalf("create flag: %v", err)
	}
	if _, err := fx.moderation.Moderate("admin-1", flag.ID, models.ActionSoftDelete, models.FlagResolved); err != nil {
		t.Fatalf("moderate: %v", err)
	}

	// Force a replay of an already-applied action.
	fx.flags.flags[flag.ID].ActionApplied = false

	repaired, err := fx.moderation.ReconcileOnce()
	if err != nil {
		t.Fatalf("reconcile: %v", err)
	}
	if repaired != 1 {
		t.Fatalf("repaired = %d, want 1", repaired)
	}
}

func TestModerateInvalidAction(t *testing.T) {
	fx := newModerationFixture(t)

	flag, err := fx.moderation.CreateFlag(models.QuestionRef(fx.question.ID), "reporter", models.ReasonSpam)
	if err != nil {
		t.Fatalf("create flag: %v", err)
	}
	if _, err := fx.moderation.Moderate("admin-1", flag.ID, "nuke", models.FlagResolved); err != ErrInvalidModerationAction {
		t.Fatalf("error = %v, want ErrInvalidModerationAction", err)
	}
}

func TestListFlagsSkipsRemovedContent(t *testing.T) {
	fx := newModerationFixture(t)

	other, err := fx.content.CreateQuestion(fx.author.ID, &models.CreateQuestionRequest{
		Title:   "Second question for the queue",
		Content: "This one will stay visible.",
	})
	if err != nil {
		t.Fatalf("create question: %v", err)
	}
	if _, err := fx.moderation.CreateFlag(models.QuestionRef(fx.question.ID), "r1", models.ReasonSpam); err != nil {
		t.Fatalf("flag one: %v", err)
	}
	if _, err := fx.moderation.CreateFlag(models.QuestionRef(other.ID), "r1", models.ReasonSpam); err != nil {
		t.Fatalf("flag two: %v", err)
	}

	if err := fx.content.SoftDeleteContent(models.QuestionRef(fx.question.ID)); err != nil {
		t.Fatalf("soft delete: %v", err)
	}

	flags, err := fx.moderation.ListFlags("")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(flags) != 1 {
		t.Fatalf("visible flags = %d, want 1", len(flags))
	}
	if flags[0].ContentID != other.ID {
		t.Fatalf("remaining flag targets %s, want %s", flags[0].ContentID, other.ID)
	}
}
