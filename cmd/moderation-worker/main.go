package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/askaway/backend/internal/config"
	"github.com/askaway/backend/internal/services"
)

// The worker re-applies moderation side effects that were decided but never
// confirmed, e.g. after a crash between the flag status write and the
// content/user update. It runs the reconcile pass on a fixed interval and
// exposes a health endpoint plus a manual trigger.
func main() {
	cfg := config.Load()
	ctx := context.Background()

	if cfg.MongoURI == "" {
		log.Fatal("[worker] MONGO_URI env var is not set")
	}

	contentSvc, err := services.NewMongoContentService(ctx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		log.Fatalf("[worker] mongo content service init failed: %v", err)
	}
	flagSvc, err := services.NewMongoFlagService(ctx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		log.Fatalf("[worker] mongo flag service init failed: %v", err)
	}
	userSvc, err := services.NewMongoUserService(ctx, cfg.MongoURI, cfg.MongoDatabase, cfg.AdminEmails)
	if err != nil {
		log.Fatalf("[worker] mongo user service init failed: %v", err)
	}
	log.Printf("[worker] MongoDB services connected successfully")

	moderation := services.NewModerationService(contentSvc, flagSvc, userSvc)

	go func() {
		ticker := time.NewTicker(cfg.ReconcileEvery)
		defer ticker.Stop()
		for {
			if _, err := moderation.ReconcileOnce(); err != nil {
				log.Printf("[worker] reconcile pass failed: %v", err)
			}
			<-ticker.C
		}
	}()

	http.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	http.HandleFunc("/reconcile", func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		repaired, err := moderation.ReconcileOnce()
		if err != nil {
			log.Printf("[worker] manual reconcile failed: %v", err)
			http.Error(w, "reconcile failed", http.StatusInternalServerError)
			return
		}
		log.Printf("[worker] manual reconcile repaired=%d", repaired)
		w.WriteHeader(http.StatusOK)
	})

	log.Printf("moderation-worker listening on %s", cfg.ServerAddress)
	log.Fatal(http.ListenAndServe(cfg.ServerAddress, nil))
}
