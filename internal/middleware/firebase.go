package middleware

import (
	"context"
	"net/http"
	"strings"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	"github.com/askaway/backend/internal/models"
)

// FirebaseAuthConfig configures server-side verification of Firebase ID
// tokens, used when the frontend authenticates against Firebase instead of
// the local register/login endpoints.
type FirebaseAuthConfig struct {
	ProjectID       string
	CredentialsJSON string
}

// NewFirebaseAuthClient builds the Firebase Auth client once at startup.
func NewFirebaseAuthClient(ctx context.Context, cfg FirebaseAuthConfig) (*auth.Client, error) {
	opts := []option.ClientOption{}
	if cfg.CredentialsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		return nil, err
	}
	return app.Auth(ctx)
}

// FirebaseAuth verifies a bearer ID token and stores the Firebase UID as the
// caller identity. The role comes from the matching account record; unknown
// UIDs are treated as plain users so first-request account provisioning can
// happen downstream.
func FirebaseAuth(client *auth.Client, users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Authorization header required"))
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Invalid authorization header format"))
				return
			}

			token, err := client.VerifyIDToken(r.Context(), parts[1])
			if err != nil {
				writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Invalid or expired token"))
				return
			}

			role := models.RoleUser
			if users != nil {
				if user, lookupErr := users.GetByID(token.UID); lookupErr == nil {
					role = user.Role
				}
			}

			ctx := context.WithValue(r.Context(), UserIDKey, token.UID)
			ctx = context.WithValue(ctx, RoleKey, role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
