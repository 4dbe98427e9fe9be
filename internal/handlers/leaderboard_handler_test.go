package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/askaway/backend/internal/models"
	"github.com/askaway/backend/internal/services"
)

func TestLeaderboardEndpointIsPublic(t *testing.T) {
	users := services.NewMemoryUserService("", "")
	content := services.NewMemoryContentService("")
	handler := NewLeaderboardHandler(services.NewMemoryLeaderboardService(users, content), 50)

	alice, err := users.Register(&models.RegisterRequest{
		Email: "alice@example.com", Password: "hunter22", DisplayName: "Alice",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if err := users.ApplyReputationDelta(alice.ID, 40, "test event"); err != nil {
		t.Fatalf("apply delta: %v", err)
	}

	// No auth middleware in front of the route.
	r := chi.NewRouter()
	r.Get("/api/leaderboard", handler.Get)

	req := httptest.NewRequest(http.MethodGet, "/api/leaderboard?range=all&limit=5", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp struct {
		Success bool                      `json:"success"`
		Data    []models.LeaderboardEntry `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Data) != 1 || resp.Data[0].Score != 40 || resp.Data[0].Rank != 1 {
		t.Fatalf("entries = %+v", resp.Data)
	}

	req = httptest.NewRequest(http.MethodGet, "/api/leaderboard?range=decade", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("bad range status = %d, want 400", rec.Code)
	}
}

func TestLeaderboardConfiguredDefaultLimit(t *testing.T) {
	users := services.NewMemoryUserService("", "")
	content := services.NewMemoryContentService("")
	handler := NewLeaderboardHandler(services.NewMemoryLeaderboardService(users, content), 1)

	for _, reg := range []models.RegisterRequest{
		{Email: "first@example.com", Password: "hunter22", DisplayName: "First"},
		{Email: "second@example.com", Password: "hunter22", DisplayName: "Second"},
	} {
		if _, err := users.Register(&reg); err != nil {
			t.Fatalf("register %s: %v", reg.Email, err)
		}
	}

	r := chi.NewRouter()
	r.Get("/api/leaderboard", handler.Get)

	// No limit in the query: the configured default caps the board.
	req := httptest.NewRequest(http.MethodGet, "/api/leaderboard", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp struct {
		Data []models.LeaderboardEntry `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Data) != 1 {
		t.Fatalf("entries = %d, want 1", len(resp.Data))
	}

	// An explicit limit still wins over the default.
	req = httptest.NewRequest(http.MethodGet, "/api/leaderboard?limit=2", nil)
	rec = httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Data) != 2 {
		t.Fatalf("entries with explicit limit = %d, want 2", len(resp.Data))
	}
}
