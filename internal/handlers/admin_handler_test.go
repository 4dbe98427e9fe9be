package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/askaway/backend/internal/middleware"
	"github.com/askaway/backend/internal/models"
	"github.com/askaway/backend/internal/services"
)

type adminTestEnv struct {
	users      *services.MemoryUserService
	content    *services.MemoryContentService
	flags      *services.MemoryFlagService
	moderation *services.ModerationService
	admin      *models.User
	user       *models.User
	question   *models.Question
	handler    *AdminHandler
}

func newAdminTestEnv(t *testing.T) *adminTestEnv {
	t.Helper()
	users := services.NewMemoryUserService("", "boss@example.com")
	content := services.NewMemoryContentService("")
	flags := services.NewMemoryFlagService("")
	moderation := services.NewModerationService(content, flags, users)

	admin, err := users.Register(&models.RegisterRequest{
		Email: "boss@example.com", Password: "hunter22", DisplayName: "Boss",
	})
	if err != nil {
		t.Fatalf("register admin: %v", err)
	}
	user, err := users.Register(&models.RegisterRequest{
		Email: "user@example.com", Password: "hunter22", DisplayName: "User",
	})
	if err != nil {
		t.Fatalf("register user: %v", err)
	}
	question, err := content.CreateQuestion(user.ID, &models.CreateQuestionRequest{
		Title:   "A flaggable question",
		Content: "Some content a reporter does not like.",
	})
	if err != nil {
		t.Fatalf("create question: %v", err)
	}

	return &adminTestEnv{
		users:      users,
		content:    content,
		flags:      flags,
		moderation: moderation,
		admin:      admin,
		user:       user,
		question:   question,
		handler:    NewAdminHandler(moderation, users, content, flags),
	}
}

func (env *adminTestEnv) router(asUser *models.User) http.Handler {
	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(authAs(asUser.ID, asUser.Role))
		r.Route("/api/admin", func(r chi.Router) {
			r.Use(middleware.RequireAdmin)
			r.Get("/flags", env.handler.ListFlags)
			r.Put("/flags/{flagId}", env.handler.ModerateFlag)
			r.Delete("/flags/{flagId}", env.handler.DeleteFlag)
			r.Post("/users/{userId}/ban", env.handler.BanUser)
			r.Post("/users/{userId}/unban", env.handler.UnbanUser)
			r.Get("/stats", env.handler.Stats)
		})
	})
	return r
}

func TestAdminRoutesRejectNonAdmin(t *testing.T) {
	env := newAdminTestEnv(t)
	router := env.router(env.user)

	req := httptest.NewRequest(http.MethodGet, "/api/admin/flags", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", rec.Code)
	}
}

func TestAdminModerateFlagFlow(t *testing.T) {
	env := newAdminTestEnv(t)
	router := env.router(env.admin)

	flag, err := env.moderation.CreateFlag(models.QuestionRef(env.question.ID), "reporter", models.ReasonSpam)
	if err != nil {
		t.Fatalf("create flag: %v", err)
	}

	body, _ := json.Marshal(models.ModerateFlagRequest{
		Action: models.ActionSoftDelete,
		Status: models.FlagResolved,
	})
	req := httptest.NewRequest(http.MethodPut, "/api/admin/flags/"+flag.ID, bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	if _, err := env.content.GetQuestion(env.question.ID); err != services.ErrQuestionNotFound {
		t.Fatalf("question should be soft-deleted, got %v", err)
	}

	// Moderating the same flag twice conflicts.
	req = httptest.NewRequest(http.MethodPut, "/api/admin/flags/"+flag.ID, bytes.NewReader(body))
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusConflict {
		t.Fatalf("repeat moderation status = %d, want 409", rec.Code)
	}
}

func TestAdminBanEndpointGuards(t *testing.T) {
	env := newAdminTestEnv(t)
	router := env.router(env.admin)

	ban := func(targetID, reason string) *httptest.ResponseRecorder {
		body, _ := json.Marshal(models.BanRequest{Reason: reason})
		req := httptest.NewRequest(http.MethodPost, "/api/admin/users/"+targetID+"/ban", bytes.NewReader(body))
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	if rec := ban(env.admin.ID, "oops"); rec.Code != http.StatusBadRequest {
		t.Fatalf("self ban status = %d, want 400", rec.Code)
	}
	if rec := ban(env.user.ID, ""); rec.Code != http.StatusBadRequest {
		t.Fatalf("empty reason status = %d, want 400", rec.Code)
	}
	if rec := ban("no-such-user", "spam"); rec.Code != http.StatusNotFound {
		t.Fatalf("missing user status = %d, want 404", rec.Code)
	}
	if rec := ban(env.user.ID, "repeated spam"); rec.Code != http.StatusOK {
		t.Fatalf("ban status = %d, body = %s", rec.Code, rec.Body.String())
	}

	banned, err := env.users.GetByID(env.user.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !banned.IsBanned || banned.BannedBy != env.admin.ID {
		t.Fatalf("ban fields: %+v", banned)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/admin/users/"+env.user.ID+"/unban", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("unban status = %d", rec.Code)
	}
}

func TestAdminStatsEndpoint(t *testing.T) {
	env := newAdminTestEnv(t)
	router := env.router(env.admin)

	if _, err := env.moderation.CreateFlag(models.QuestionRef(env.question.ID), "reporter", models.ReasonSpam); err != nil {
		t.Fatalf("create flag: %v", err)
	}

	req := httptest.NewRequest(http.MethodGet, "/api/admin/stats", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	var resp struct {
		Success bool              `json:"success"`
		Data    models.AdminStats `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Data.Users != 2 || resp.Data.Questions != 1 || resp.Data.PendingFlags != 1 {
		t.Fatalf("stats = %+v", resp.Data)
	}
}
