package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"headdowell/internal/agent"
	"headdowell/internal/app"
	"headdowell/internal/config"
	"headdowell/internal/conversation"
	"headdowell/internal/metrics"
	"headdowell/internal/platform/logging"
	"headdowell/internal/platform/telegram"
	"headdowell/internal/report"
)

func main() {
	cfg, err := config.Load(os.Getenv("COMPANION_CONFIG"))
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}
	logging.Setup(cfg.Log.Level, cfg.Log.Pretty)

	// 1. Storage
	repo := conversation.NewMemoryRepository()
	if db := connectDB(cfg); db != nil {
		defer db.Close()
		runMigrations(cfg)
		repo = conversation.NewRepository(db)
	}

	// 2. Engine and collaborators
	engine, err := app.NewEngine(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build conversation engine")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	deps := conversation.Deps{
		Observer: metrics.MustNewMetrics(registry),
		VoiceID:  cfg.Speech.VoiceID,
	}
	if cfg.Speech.STTURL != "" {
		deps.STT = agent.NewWhisperClient(cfg.Speech.STTURL, cfg.Speech.STTLanguage)
	}
	if cfg.Speech.TTSAPIKey != "" {
		deps.TTS = agent.NewElevenLabsClient(cfg.Speech.TTSURL, cfg.Speech.TTSAPIKey)
	}
	if cfg.ReportEnabled() {
		tg := telegram.NewClient(cfg.Report.TelegramToken, cfg.Report.TelegramURL)
		deps.Report = report.NewService(tg, cfg.Report.ChatID, cfg.Report.FontPaths)
	} else {
		log.Warn().Msg("Telegram report is not configured, summaries stay in the chat")
	}

	svc := conversation.NewService(engine, repo, deps)
	handler := conversation.NewHandler(svc, cfg.Server.ReplyDelay)

	// 3. Router
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logging.RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors(cfg.Server.CORSOrigin))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	r.Route("/api", func(r chi.Router) {
		conversation.RegisterRoutes(r, handler)
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Server.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Server failed")
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Graceful shutdown failed")
	}
	log.Info().Msg("Server stopped")
}

// connectDB returns nil when no database is configured or reachable, in
// which case sessions live in memory.
func connectDB(cfg *config.Config) *sql.DB {
	if cfg.Database.URL == "" {
		log.Info().Msg("No database configured, using in-memory sessions")
		return nil
	}

	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Error().Err(err).Msg("Invalid database URL, using in-memory sessions")
		return nil
	}

	retries := cfg.Database.ConnectRetries
	if retries < 1 {
		retries = 1
	}
	for i := 0; i < retries; i++ {
		if err = db.Ping(); err == nil {
			log.Info().Msg("Connected to database")
			return db
		}
		log.Info().Int("attempt", i+1).Int("of", retries).Msg("Waiting for database")
		time.Sleep(2 * time.Second)
	}
	log.Error().Err(err).Msg("Could not connect to database, using in-memory sessions")
	db.Close()
	return nil
}

func runMigrations(cfg *config.Config) {
	m, err := migrate.New(cfg.Database.MigrationsPath, cfg.Database.URL)
	if err != nil {
		log.Error().Err(err).Msg("Migration init failed")
		return
	}
	defer m.Close()
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Error().Err(err).Msg("Migration up failed")
		return
	}
	log.Info().Msg("Migrations applied")
}

func cors(origin string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS, DELETE")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Content-Type, Content-Length, Accept-Encoding, Authorization")
			if r.Method == http.MethodOptions {
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
