package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/askaway/backend/internal/middleware"
	"github.com/askaway/backend/internal/models"
	"github.com/askaway/backend/internal/services"
)

// authAs injects an authenticated identity the way the auth middleware would.
func authAs(userID, role string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := context.WithValue(r.Context(), middleware.UserIDKey, userID)
			ctx = context.WithValue(ctx, middleware.RoleKey, role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

type voteTestEnv struct {
	users    *services.MemoryUserService
	content  *services.MemoryContentService
	notifs   *services.MemoryNotificationService
	author   *models.User
	voter    *models.User
	question *models.Question
	handler  *VoteHandler
}

func newVoteTestEnv(t *testing.T) *voteTestEnv {
	t.Helper()
	users := services.NewMemoryUserService("", "")
	content := services.NewMemoryContentService("")
	notifs := services.NewMemoryNotificationService()

	author, err := users.Register(&models.RegisterRequest{
		Email: "author@example.com", Password: "hunter22", DisplayName: "Author",
	})
	if err != nil {
		t.Fatalf("register author: %v", err)
	}
	voter, err := users.Register(&models.RegisterRequest{
		Email: "voter@example.com", Password: "hunter22", DisplayName: "Voter",
	})
	if err != nil {
		t.Fatalf("register voter: %v", err)
	}
	question, err := content.CreateQuestion(author.ID, &models.CreateQuestionRequest{
		Title:   "Why does defer evaluate arguments eagerly?",
		Content: "The closure form behaves differently and I do not see why.",
	})
	if err != nil {
		t.Fatalf("create question: %v", err)
	}

	return &voteTestEnv{
		users:    users,
		content:  content,
		notifs:   notifs,
		author:   author,
		voter:    voter,
		question: question,
		handler:  NewVoteHandler(content, users, notifs),
	}
}

func (env *voteTestEnv) router(asUser *models.User) http.Handler {
	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		r.Use(authAs(asUser.ID, asUser.Role))
		r.Post("/api/content/{contentType}/{contentId}/vote", env.handler.Vote)
	})
	return r
}

func postVote(t *testing.T, router http.Handler, contentType, contentID, voteType string) *httptest.ResponseRecorder {
	t.Helper()
	body, _ := json.Marshal(models.VoteRequest{VoteType: voteType})
	req := httptest.NewRequest(http.MethodPost, "/api/content/"+contentType+"/"+contentID+"/vote", bytes.NewReader(body))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestVoteEndpointAppliesReputationAndNotifies(t *testing.T) {
	env := newVoteTestEnv(t)
	router := env.router(env.voter)

	rec := postVote(t, router, "question", env.question.ID, "upvote")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp models.APIResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success {
		t.Fatalf("success = false, error = %q", resp.Error)
	}

	author, err := env.users.GetByID(env.author.ID)
	if err != nil {
		t.Fatalf("get author: %v", err)
	}
	if author.Reputation != services.RepUpvoteReceived {
		t.Fatalf("author reputation = %d, want %d", author.Reputation, services.RepUpvoteReceived)
	}

	notifs, err := env.notifs.ListByRecipient(env.author.ID, 10)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	if len(notifs) != 1 || notifs[0].Type != models.NotifyVote {
		t.Fatalf("notifications = %+v", notifs)
	}
}

func TestVoteEndpointToggleNotifiesBothWays(t *testing.T) {
	env := newVoteTestEnv(t)
	router := env.router(env.voter)

	postVote(t, router, "question", env.question.ID, "upvote")
	rec := postVote(t, router, "question", env.question.ID, "upvote")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}

	author, err := env.users.GetByID(env.author.ID)
	if err != nil {
		t.Fatalf("get author: %v", err)
	}
	if author.Reputation != 0 {
		t.Fatalf("author reputation after toggle = %d, want 0", author.Reputation)
	}

	// The un-vote still notifies.
	notifs, err := env.notifs.ListByRecipient(env.author.ID, 10)
	if err != nil {
		t.Fatalf("list notifications: %v", err)
	}
	if len(notifs) != 2 {
		t.Fatalf("notifications = %d, want 2", len(notifs))
	}
}

func TestVoteEndpointRejectsSelfVote(t *testing.T) {
	env := newVoteTestEnv(t)
	router := env.router(env.author)

	rec := postVote(t, router, "question", env.question.ID, "upvote")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestVoteEndpointRejectsBadInput(t *testing.T) {
	env := newVoteTestEnv(t)
	router := env.router(env.voter)

	if rec := postVote(t, router, "question", env.question.ID, "sideways"); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad vote type status = %d, want 400", rec.Code)
	}
	if rec := postVote(t, router, "post", env.question.ID, "upvote"); rec.Code != http.StatusBadRequest {
		t.Fatalf("bad content type status = %d, want 400", rec.Code)
	}
	if rec := postVote(t, router, "question", "no-such-id", "upvote"); rec.Code != http.StatusNotFound {
		t.Fatalf("missing content status = %d, want 404", rec.Code)
	}
}
