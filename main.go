package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/StudyCore/studycore/internal/access"
	"github.com/StudyCore/studycore/internal/ai"
	"github.com/StudyCore/studycore/internal/attendance"
	"github.com/StudyCore/studycore/internal/auth"
	"github.com/StudyCore/studycore/internal/config"
	"github.com/StudyCore/studycore/internal/db"
	"github.com/StudyCore/studycore/internal/homework"
	"github.com/StudyCore/studycore/internal/middleware"
	"github.com/StudyCore/studycore/internal/profiles"
	"github.com/StudyCore/studycore/internal/session"
	"github.com/StudyCore/studycore/internal/upload"
)

func RootHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	fmt.Fprintln(w, "Server is up!")
}

func main() {
	_ = godotenv.Load(".env.local")

	cfg := config.LoadFromEnv()
	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid configuration: ", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db.Connect(cfg.DatabaseURL)

	auth.Init()
	profiles.Init()
	attendance.Init()
	homework.Init()

	policy := access.DefaultPolicy()
	if cfg.PolicyFile != "" {
		p, err := access.LoadPolicy(cfg.PolicyFile)
		if err != nil {
			log.Fatal("Failed to load navigation policy: ", err)
		}
		policy = p
	}
	hierarchy := policy.Hierarchy()

	var hub auth.Hub = auth.NewLocalHub()
	if cfg.RedisURL != "" {
		rdb, err := db.NewRedis(cfg.RedisURL)
		if err != nil {
			log.Fatal("Failed to connect to redis: ", err)
		}
		defer rdb.Close()

		redisHub, err := auth.NewRedisHub(ctx, rdb, auth.DefaultEventChannel)
		if err != nil {
			log.Fatal("Failed to subscribe to session events: ", err)
		}
		defer redisHub.Close()
		hub = redisHub
		log.Println("[auth] session events relayed through redis")
	}

	identity := auth.NewService(db.DB, hub, cfg.SessionTTL)
	profileStore := profiles.NewStore(db.DB)
	recorder := attendance.NewRecorder(db.DB)

	var telemetry session.Telemetry = recorder
	if cfg.AttendanceURL != "" {
		telemetry = attendance.NewHTTPReporter(cfg.AttendanceURL)
	}

	registry := session.NewRegistry(session.RegistryConfig{
		Size:      cfg.SessionCacheSize,
		TTL:       cfg.SessionCacheTTL,
		NewAuth:   func(token string) session.AuthService { return identity.ForToken(token) },
		Store:     profileStore,
		Telemetry: telemetry,
	})
	defer registry.Close()

	uploads, err := upload.NewHandler(cfg.UploadDir)
	if err != nil {
		log.Fatal("Failed to prepare upload directory: ", err)
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))
	r.Get("/", RootHandler)

	loginLimiter := middleware.NewIPRateLimiter(cfg.LoginRatePerMin)
	r.Mount("/auth", auth.SetupRoutes(auth.NewHandler(identity, registry, policy, cfg.CookieSecure), registry, loginLimiter))
	r.Mount("/api/users", profiles.SetupRoutes(profiles.NewHandler(profileStore, hierarchy, identity), registry))
	r.Mount("/api/attendance", attendance.SetupRoutes(attendance.NewHandler(recorder), registry))
	r.Mount("/api/homework", homework.SetupRoutes(homework.NewHandler(homework.NewStore(db.DB)), registry, hierarchy))
	r.Mount("/api/upload", upload.SetupRoutes(uploads, registry))
	r.Mount("/api/ai", ai.SetupRoutes(ai.NewHandler(ai.NewClient(cfg.AIAPIKey, cfg.AIAPIURL)), registry))
	r.Handle(upload.PublicPrefix+"*", uploads.Files())

	srv := &http.Server{
		Addr:              "0.0.0.0:" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Printf("Shutdown error: %v", err)
		}
	}()

	log.Printf("Server listening on port :%s...", cfg.Port)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatal(err)
	}
}
