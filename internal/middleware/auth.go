package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/askaway/backend/internal/models"
)

type contextKey string

const (
	UserIDKey contextKey = "userID"
	RoleKey   contextKey = "role"
)

// UserLookup is the slice of the user service the middleware needs to check
// ban state without importing the services package.
type UserLookup interface {
	GetByID(id string) (*models.User, error)
}

// JWTAuth middleware validates JWT tokens and stores the caller's identity
// and role in the request context.
func JWTAuth(jwtSecret string) func(http.Handler) http.Handler {
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

			token, err := jwt.Parse(parts[1], func(token *jwt.Token) (interface{}, error) {
				if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, jwt.ErrSignatureInvalid
				}
				return []byte(jwtSecret), nil
			})

			if err != nil || !token.Valid {
				writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Invalid or expired token"))
				return
			}

			claims, ok := token.Claims.(jwt.MapClaims)
			if !ok {
				writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Invalid token claims"))
				return
			}

			userID, ok := claims["user_id"].(string)
			if !ok || userID == "" {
				writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Invalid user ID in token"))
				return
			}

			role, _ := claims["role"].(string)
			if role == "" {
				role = models.RoleUser
			}

			ctx := context.WithValue(r.Context(), UserIDKey, userID)
			ctx = context.WithValue(ctx, RoleKey, role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireAdmin rejects callers whose session role is not admin. Must run
// after JWTAuth or FirebaseAuth.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if GetRole(r.Context()) != models.RoleAdmin {
			writeJSON(w, http.StatusForbidden, models.NewErrorResponse("Admin access required"))
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RequireActiveUser rejects banned accounts on mutating routes. Lookup
// failures fall through: ban enforcement should not take the API down.
func RequireActiveUser(users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			userID := GetUserID(r.Context())
			if userID == "" {
				writeJSON(w, http.StatusUnauthorized, models.NewErrorResponse("Unauthorized"))
				return
			}
			if user, err := users.GetByID(userID); err == nil && user.IsBanned {
				writeJSON(w, http.StatusForbidden, models.NewErrorResponse("Account is banned"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// GetUserID extracts the caller's user ID from context.
func GetUserID(ctx context.Context) string {
	userID, ok := ctx.Value(UserIDKey).(string)
	if !ok {
		return ""
	}
	return userID
}

// GetRole extracts the caller's role from context. Absent means guest.
func GetRole(ctx context.Context) string {
	role, ok := ctx.Value(RoleKey).(string)
	if !ok {
		return models.RoleGuest
	}
	return role
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}
