package main

import (
	"encoding/json"
	stdlog "log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/username/recurro/backend/src/config"
	"github.com/username/recurro/backend/src/database"
	"github.com/username/recurro/backend/src/detector"
	"github.com/username/recurro/backend/src/handlers"
	"github.com/username/recurro/backend/src/logger"
	"github.com/username/recurro/backend/src/security"
	"github.com/username/recurro/backend/src/services"
	"github.com/username/recurro/backend/src/store"
	"golang.org/x/time/rate"
)

var limiter *rate.Limiter

func rateLimitMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !limiter.Allow() {
			http.Error(w, http.StatusText(http.StatusTooManyRequests), http.StatusTooManyRequests)
			logger.L.Warn("Rate limit exceeded",
				"method", r.Method,
				"path", r.URL.Path,
				"remoteAddr", r.RemoteAddr)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		allowedOrigins := map[string]bool{
			"http://localhost:3000": true,
		}

		if allowedOrigins[origin] {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Credentials", "true")
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, PUT, DELETE, PATCH")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization, X-Requested-With, If-None-Match")
			w.Header().Set("Access-Control-Expose-Headers", "ETag")
		} else if origin == "" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		}

		if r.Method == "OPTIONS" {
			logger.L.Debug("Handling OPTIONS preflight request", "path", r.URL.Path, "origin", origin)
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func main() {
	config.LoadConfig()
	logger.InitLogger(config.Cfg.LogLevel)
	logger.L.Info("Recurro backend server starting...")
	limiter = rate.NewLimiter(rate.Every(100*time.Millisecond), config.Cfg.RateLimitBurst)

	if config.Cfg.JWTSecret == "" || len(config.Cfg.JWTSecret) < 32 {
		logger.L.Error("JWT_SECRET configuration invalid. Must be at least 32 bytes.")
		os.Exit(1)
	}

	logger.L.Info("Initializing database...", "path", config.Cfg.DatabasePath)
	database.InitDB(config.Cfg.DatabasePath)
	logger.L.Info("Database initialized successfully.")

	logger.L.Info("Initializing overview cache...", "ttl", config.Cfg.OverviewCacheTTL)
	overviewCache := cache.New(config.Cfg.OverviewCacheTTL, 2*config.Cfg.OverviewCacheTTL)

	logger.L.Info("Initializing services and handlers...")
	authService := security.NewAuthService(config.Cfg.JWTSecret)
	userHandler := handlers.NewUserHandler(authService)

	seriesRepo, billRepo, paycheckRepo, txRepo := store.NewStores(database.DB)

	seriesService := services.NewSeriesService(seriesRepo)
	billService := services.NewBillService(seriesRepo, billRepo)
	reconciler := services.NewReconciler(seriesRepo, billRepo, paycheckRepo, txRepo)
	backfillJob := services.NewBackfillJob(billRepo, paycheckRepo, txRepo)
	planner := services.NewPlanner(billRepo, paycheckRepo)
	detectionAdapter := services.NewDetectionAdapter(detector.NewHeuristic(), seriesRepo, billRepo, txRepo)

	seriesHandler := handlers.NewSeriesHandler(seriesService, overviewCache)
	billHandler := handlers.NewBillHandler(billService, overviewCache)
	reconcileHandler := handlers.NewReconcileHandler(reconciler, backfillJob, overviewCache)
	overviewHandler := handlers.NewOverviewHandler(planner, overviewCache)
	detectHandler := handlers.NewDetectHandler(detectionAdapter, overviewCache)

	logger.L.Info("Configuring routes...")
	rootMux := http.NewServeMux()
	apiRouter := http.NewServeMux()

	apiRouter.HandleFunc("POST /api/auth/login", userHandler.LoginUserHandler)
	apiRouter.HandleFunc("POST /api/auth/register", userHandler.RegisterUserHandler)
	apiRouter.HandleFunc("POST /api/auth/refresh", userHandler.RefreshTokenHandler)
	apiRouter.HandleFunc("POST /api/auth/logout", userHandler.AuthMiddleware(userHandler.LogoutUserHandler))

	applyAuth := func(handler http.HandlerFunc) http.Handler {
		return http.HandlerFunc(userHandler.AuthMiddleware(handler))
	}

	apiRouter.Handle("GET /api/series", applyAuth(seriesHandler.ListSeriesHandler))
	apiRouter.Handle("POST /api/series", applyAuth(seriesHandler.UpsertSeriesHandler))
	apiRouter.Handle("DELETE /api/series/{id}", applyAuth(seriesHandler.DeleteSeriesHandler))
	apiRouter.Handle("POST /api/series/{id}/snooze", applyAuth(seriesHandler.SnoozeSeriesHandler))

	apiRouter.Handle("GET /api/bills", applyAuth(billHandler.ListBillsHandler))
	apiRouter.Handle("POST /api/bills", applyAuth(billHandler.CreateBillHandler))
	apiRouter.Handle("POST /api/bills/{id}/mark", applyAuth(billHandler.MarkBillHandler))
	apiRouter.Handle("POST /api/bills/{id}/snooze", applyAuth(billHandler.SnoozeBillHandler))

	apiRouter.Handle("POST /api/bills/match", applyAuth(reconcileHandler.MatchBillHandler))
	apiRouter.Handle("POST /api/paychecks/match", applyAuth(reconcileHandler.MatchPaycheckHandler))
	apiRouter.Handle("POST /api/backfill-tx", applyAuth(reconcileHandler.BackfillHandler))

	apiRouter.Handle("GET /api/overview", applyAuth(overviewHandler.GetOverviewHandler))
	apiRouter.Handle("POST /api/detect", applyAuth(detectHandler.DetectSeriesHandler))

	rootMux.Handle("/api/", apiRouter)

	rootMux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/" && r.Method == http.MethodGet {
			w.Header().Set("Content-Type", "application/json")
			json.NewEncoder(w).Encode(map[string]string{"message": "Recurro backend is running"})
		} else {
			if !strings.HasPrefix(r.URL.Path, "/api/") {
				logger.L.Warn("Root level path not found", "method", r.Method, "path", r.URL.Path)
				http.NotFound(w, r)
			}
		}
	})

	logger.L.Info("Applying global middleware...")
	finalHandler := enableCORS(rateLimitMiddleware(rootMux))

	serverAddr := ":" + config.Cfg.Port
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      finalHandler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.L.Info("Server starting", "address", serverAddr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.L.Error("Failed to start server", "error", err)
		stdlog.Fatalf("Failed to start server: %v", err)
	} else if err == http.ErrServerClosed {
		logger.L.Info("Server stopped gracefully.")
	}
}
