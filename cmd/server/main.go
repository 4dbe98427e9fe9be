package main

import (
	"context"
	"log"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/askaway/backend/internal/config"
	"github.com/askaway/backend/internal/handlers"
	appMiddleware "github.com/askaway/backend/internal/middleware"
	"github.com/askaway/backend/internal/services"
)

func main() {
	cfg := config.Load()
	ctx := context.Background()

	var (
		userService         services.UserService
		contentService      services.ContentService
		flagService         services.FlagService
		bookmarkService     services.BookmarkService
		notificationService services.NotificationService
		leaderboardService  services.LeaderboardService
	)

	if cfg.MongoURI != "" {
		var err error
		userService, err = services.NewMongoUserService(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.AdminEmails)
		if err != nil {
			log.Fatalf("Failed to connect user service: %v", err)
		}
		contentService, err = services.NewMongoContentService(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			log.Fatalf("Failed to connect content service: %v", err)
		}
		flagService, err = services.NewMongoFlagService(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			log.Fatalf("Failed to connect flag service: %v", err)
		}
		bookmarkService, err = services.NewMongoBookmarkService(ctx, cfg.MongoURI, cfg.MongoDatabase, contentService)
		if err != nil {
			log.Fatalf("Failed to connect bookmark service: %v", err)
		}
		notificationService, err = services.NewMongoNotificationService(ctx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			log.Fatalf("Failed to connect notification service: %v", err)
		}
		leaderboardService, err = services.NewMongoLeaderboardService(ctx, cfg.MongoURI, cfg.MongoDatabase, contentService)
		if err != nil {
			log.Fatalf("Failed to connect leaderboard service: %v", err)
		}
	} else {
		// No Mongo configured: in-memory services with JSON snapshots.
		memUsers := services.NewMemoryUserService(cfg.DataDir, cfg.AdminEmails)
		memContent := services.NewMemoryContentService(cfg.DataDir)
		userService = memUsers
		contentService = memContent
		flagService = services.NewMemoryFlagService(cfg.DataDir)
		bookmarkService = services.NewMemoryBookmarkService(cfg.DataDir, memContent)
		notificationService = services.NewMemoryNotificationService()
		leaderboardService = services.NewMemoryLeaderboardService(memUsers, memContent)
	}

	moderationService := services.NewModerationService(contentService, flagService, userService)
	explainService := services.NewExplainService(cfg.OpenAIKey, cfg.OpenAIModel)

	authHandler := handlers.NewAuthHandler(userService, cfg.JWTSecret, cfg.JWTExpiration)
	questionHandler := handlers.NewQuestionHandler(contentService, explainService)
	answerHandler := handlers.NewAnswerHandler(contentService, userService, notificationService)
	voteHandler := handlers.NewVoteHandler(contentService, userService, notificationService)
	flagHandler := handlers.NewFlagHandler(moderationService)
	bookmarkHandler := handlers.NewBookmarkHandler(bookmarkService, contentService, notificationService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	leaderboardHandler := handlers.NewLeaderboardHandler(leaderboardService, cfg.LeaderboardSize)
	adminHandler := handlers.NewAdminHandler(moderationService, userService, contentService, flagService)

	// JWT is the default auth mode; Firebase ID token verification takes over
	// when a project is configured.
	authMiddleware := appMiddleware.JWTAuth(cfg.JWTSecret)
	if projectID := os.Getenv("FIREBASE_PROJECT_ID"); projectID != "" {
		authClient, err := appMiddleware.NewFirebaseAuthClient(ctx, appMiddleware.FirebaseAuthConfig{
			ProjectID:       projectID,
			CredentialsJSON: os.Getenv("FIREBASE_CREDENTIALS_JSON"),
		})
		if err != nil {
			log.Printf("Warning: failed to initialize Firebase Auth client: %v", err)
		} else {
			authMiddleware = appMiddleware.FirebaseAuth(authClient, userService)
		}
	}
	activeUser := appMiddleware.RequireActiveUser(userService)

	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	r.Route("/api", func(r chi.Router) {
		// Public routes
		r.Post("/auth/register", authHandler.Register)
		r.Post("/auth/login", authHandler.Login)
		r.Get("/questions", questionHandler.List)
		r.Get("/questions/{questionId}", questionHandler.Get)
		r.Get("/questions/{questionId}/answers", answerHandler.List)
		r.Get("/leaderboard", leaderboardHandler.Get)

		// Authenticated routes
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware)

			r.Get("/auth/me", authHandler.Me)
			r.Get("/questions/{questionId}/explain", questionHandler.Explain)

			r.Route("/notifications", func(r chi.Router) {
				r.Get("/", notificationHandler.List)
				r.Get("/unread-count", notificationHandler.UnreadCount)
				r.Put("/read-all", notificationHandler.MarkAllRead)
				r.Put("/{notificationId}/read", notificationHandler.MarkRead)
			})

			r.Get("/bookmarks", bookmarkHandler.List)

			// Mutating routes reject banned accounts.
			r.Group(func(r chi.Router) {
				r.Use(activeUser)

				r.Post("/questions", questionHandler.Create)
				r.Route("/questions/{questionId}", func(r chi.Router) {
					r.Put("/", questionHandler.Update)
					r.Delete("/", questionHandler.Delete)
					r.Post("/answers", answerHandler.Create)
					r.Post("/comments", questionHandler.AddComment)
					r.Post("/bookmark", bookmarkHandler.Add)
					r.Delete("/bookmark", bookmarkHandler.Remove)
				})

				r.Route("/answers/{answerId}", func(r chi.Router) {
					r.Put("/", answerHandler.Update)
					r.Delete("/", answerHandler.Delete)
					r.Post("/accept", answerHandler.Accept)
				})

				r.Route("/content/{contentType}/{contentId}", func(r chi.Router) {
					r.Post("/vote", voteHandler.Vote)
					r.Post("/flag", flagHandler.Create)
				})
			})

			// Admin routes
			r.Route("/admin", func(r chi.Router) {
				r.Use(appMiddleware.RequireAdmin)

				r.Get("/flags", adminHandler.ListFlags)
				r.Put("/flags/{flagId}", adminHandler.ModerateFlag)
				r.Delete("/flags/{flagId}", adminHandler.DeleteFlag)
				r.Post("/questions/{questionId}/restore", questionHandler.Restore)
				r.Post("/users/{userId}/ban", adminHandler.BanUser)
				r.Post("/users/{userId}/unban", adminHandler.UnbanUser)
				r.Get("/stats", adminHandler.Stats)
			})
		})
	})

	log.Printf("AskAway API server starting on %s", cfg.ServerAddress)
	if err := http.ListenAndServe(cfg.ServerAddress, r); err != nil {
		log.Fatalf("Server failed to start: %v", err)
	}
}
