package services

import (
	"testing"

	"github.com/askaway/backend/internal/models"
)

func registerUser(t *testing.T, svc *MemoryUserService, email, name string) *models.User {
	t.Helper()
	u, err := svc.Register(&models.RegisterRequest{
		Email:       email,
		Password:    "hunter22",
		DisplayName: name,
	})
	if err != nil {
		t.Fatalf("register %s: %v", email, err)
	}
	return u
}

func TestRegisterAndLogin(t *testing.T) {
	svc := NewMemoryUserService("", "")
	registerUser(t, svc, "alice@example.com", "Alice")

	if _, err := svc.Register(&models.RegisterRequest{
		Email:       "alice@example.com",
		Password:    "different",
		DisplayName: "Alice Again",
	}); err != ErrEmailExists {
		t.Fatalf("duplicate register = %v, want ErrEmailExists", err)
	}

	u, err := svc.Login(&models.LoginRequest{Email: "alice@example.com", Password: "hunter22"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if u.Role != models.RoleUser {
		t.Fatalf("role = %q, want user", u.Role)
	}
	if u.PasswordHash != "" {
		// The hash is json-hidden but should also never equal the raw password.
		if u.PasswordHash == "hunter22" {
			t.Fatal("password stored in the clear")
		}
	}

	if _, err := svc.Login(&models.LoginRequest{Email: "alice@example.com", Password: "wrong"}); err != ErrInvalidPassword {
		t.Fatalf("bad password = %v, want ErrInvalidPassword", err)
	}
	if _, err := svc.Login(&models.LoginRequest{Email: "nobody@example.com", Password: "x"}); err != ErrUserNotFound {
		t.Fatalf("unknown email = %v, want ErrUserNotFound", err)
	}
}

func TestRegisterAdminEmailPromotion(t *testing.T) {
	svc := NewMemoryUserService("", "ops@example.com, second@example.com")

	admin := registerUser(t, svc, "ops@example.com", "Ops")
	if admin.Role != models.RoleAdmin {
		t.Fatalf("role = %q, want admin", admin.Role)
	}
	regular := registerUser(t, svc, "user@example.com", "User")
	if regular.Role != models.RoleUser {
		t.Fatalf("role = %q, want user", regular.Role)
	}
}

func TestBanGuards(t *testing.T) {
	svc := NewMemoryUserService("", "boss@example.com")
	boss := registerUser(t, svc, "boss@example.com", "Boss")
	target := registerUser(t, svc, "target@example.com", "Target")

	if _, err := svc.Ban(boss.ID, target.ID, ""); err != ErrBanReasonRequired {
		t.Fatalf("empty reason = %v, want ErrBanReasonRequired", err)
	}
	if _, err := svc.Ban(boss.ID, boss.ID, "spam"); err != ErrSelfBan {
		t.Fatalf("self ban = %v, want ErrSelfBan", err)
	}
	if _, err := svc.Ban(target.ID, boss.ID, "revenge"); err != ErrCannotBanAdmin {
		t.Fatalf("ban admin = %v, want ErrCannotBanAdmin", err)
	}
	if _, err := svc.Ban(boss.ID, "no-such-user", "spam"); err != ErrUserNotFound {
		t.Fatalf("ban missing = %v, want ErrUserNotFound", err)
	}

	banned, err := svc.Ban(boss.ID, target.ID, "repeated spam")
	if err != nil {
		t.Fatalf("ban: %v", err)
	}
	if !banned.IsBanned || banned.BanReason != "repeated spam" || banned.BannedBy != boss.ID || banned.BannedAt == nil {
		t.Fatalf("ban fields not fully set: %+v", banned)
	}

	unbanned, err := svc.Unban(target.ID)
	if err != nil {
		t.Fatalf("unban: %v", err)
	}
	if unbanned.IsBanned || unbanned.BanReason != "" || unbanned.BannedBy != "" || unbanned.BannedAt != nil {
		t.Fatalf("unban did not clear fields: %+v", unbanned)
	}
}

func TestReputationLedgerMatchesCounter(t *testing.T) {
	svc := NewMemoryUserService("", "")
	u := registerUser(t, svc, "alice@example.com", "Alice")

	deltas := []int{RepUpvoteReceived, RepUpvoteReceived, RepDownvoteReceived, RepAnswerAccepted, -RepUpvoteReceived}
	for _, d := range deltas {
		if err := svc.ApplyReputationDelta(u.ID, d, "test event"); err != nil {
			t.Fatalf("apply delta %d: %v", d, err)
		}
	}

	got, err := svc.GetByID(u.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	want := 0
	for _, d := range deltas {
		want += d
	}
	if got.Reputation != want {
		t.Fatalf("reputation = %d, want %d", got.Reputation, want)
	}

	// The counter must equal the ledger sum.
	sum := 0
	for _, ev := range svc.history {
		if ev.UserID == u.ID {
			sum += ev.Change
		}
	}
	if sum != got.Reputation {
		t.Fatalf("ledger sum %d != counter %d", sum, got.Reputation)
	}

	if err := svc.ApplyReputationDelta("no-such-user", 5, "x"); err != ErrUserNotFound {
		t.Fatalf("delta on missing user = %v, want ErrUserNotFound", err)
	}
}

func TestCountUsers(t *testing.T) {
	svc := NewMemoryUserService("", "boss@example.com")
	boss := registerUser(t, svc, "boss@example.com", "Boss")
	a := registerUser(t, svc, "a@example.com", "A")
	registerUser(t, svc, "b@example.com", "B")

	if _, err := svc.Ban(boss.ID, a.ID, "spam"); err != nil {
		t.Fatalf("ban: %v", err)
	}

	total, banned, err := svc.CountUsers()
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if total != 3 || banned != 1 {
		t.Fatalf("total=%d banned=%d, want 3 and 1", total, banned)
	}
}
