package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"

	api "github.com/quizforge/quizforge/internal/api/http"
	"github.com/quizforge/quizforge/internal/assemble"
	"github.com/quizforge/quizforge/internal/auth"
	"github.com/quizforge/quizforge/internal/bank"
	"github.com/quizforge/quizforge/internal/config"
	"github.com/quizforge/quizforge/internal/db"
	"github.com/quizforge/quizforge/internal/eventlog"
	"github.com/quizforge/quizforge/internal/jobs"
	"github.com/quizforge/quizforge/internal/rbac"
	"github.com/quizforge/quizforge/internal/selector"
	"github.com/quizforge/quizforge/internal/session"
	"github.com/quizforge/quizforge/internal/stats"
	"github.com/quizforge/quizforge/internal/usage"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}

	pool := bank.NewSQLStore(dbh, cfg.DBDriver)
	ledger := usage.NewSQLStore(dbh)
	tests := assemble.NewSQLStore(dbh)
	sessions := session.NewSQLStore(dbh, cfg.DBDriver, pool)
	statsRepo := stats.NewRepo(dbh)
	events := eventlog.NewRepo(dbh)

	generator := assemble.NewService(pool, ledger, tests, sessions)

	// Startup ingestion of bank_*.json files.
	if n, err := bank.LoadDir(ctx, pool, cfg.BanksDir); err != nil {
		log.Fatalf("bank load failed: %v", err)
	} else {
		log.Printf("loaded %d bank file(s) from %s", n, cfg.BanksDir)
	}

	// --- Auth ---
	authSvc := auth.NewAuthService(cfg.HMACSecret)

	// --- Background cleanup ---
	sweeper := jobs.NewSweeper(sessions, cfg.SessionTimeout)
	sweeper.Start(cfg.SweepInterval)
	defer sweeper.Stop()

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/login", auth.LoginHandler(authSvc, cfg.AdminUser, cfg.AdminPassHash))

	// Public API. Identity is the JWT subject when present, the client IP
	// otherwise, so anonymous users still get per-user anti-repetition.
	r.Group(func(pr chi.Router) {
		pr.Use(auth.Identity(authSvc))

		pr.Get("/api/config", api.ConfigHandler(api.ConfigLimits{
			PassingGrade:     cfg.PassingGrade,
			MinQuestions:     selector.MinRequested,
			DefaultQuestions: assemble.DefaultRequested,
		}))
		pr.Get("/api/categories", api.CategoriesHandler(pool))
		pr.Get("/api/stats", api.StatsHandler(pool, statsRepo))

		pr.Post("/api/tests", api.CreateTestHandler(generator, statsRepo, events))
		pr.Get("/api/tests/{testID}", api.GetTestHandler(tests))

		pr.Post("/api/sessions", api.CreateSessionHandler(sessions, tests, statsRepo))
		pr.Get("/api/sessions/{sessionID}", api.GetSessionHandler(sessions, pool))
		pr.Post("/api/sessions/{sessionID}/answers", api.SaveAnswerHandler(sessions))
		pr.Post("/api/sessions/{sessionID}/complete", api.CompleteSessionHandler(sessions, statsRepo, events, cfg.PassingGrade))
		pr.Get("/api/sessions/{sessionID}/results", api.ResultsHandler(sessions, pool))
	})

	// Admin surface (JWT → role in context → RBAC).
	r.Group(func(pr chi.Router) {
		pr.Use(auth.RequireJWT(authSvc))

		pr.With(rbac.Require("bank:upload")).
			Post("/api/admin/banks", api.UploadBankHandler(pool, events))
		pr.With(rbac.Require("bank:delete")).
			Delete("/api/admin/banks/{bankID}", api.DeleteBankHandler(pool, events))
		pr.With(rbac.RequireAny("bank:list", "bank:upload")).
			Get("/api/admin/banks", api.ListBanksHandler(pool))
		pr.With(rbac.Require("session:list")).
			Get("/api/admin/sessions", api.ListSessionsHandler(sessions))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := dbh.PingContext(r.Context()); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(200)
	})

	log.Printf("listening on %s (db=%s)", cfg.HTTPAddr, cfg.DBDriver)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
