package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/amogelangphejane-blip/Wuuble-sub003/internal/config"
	"github.com/amogelangphejane-blip/Wuuble-sub003/internal/controller"
	"github.com/amogelangphejane-blip/Wuuble-sub003/internal/database"
	"github.com/amogelangphejane-blip/Wuuble-sub003/internal/handler"
	"github.com/amogelangphejane-blip/Wuuble-sub003/internal/jobs"
	"github.com/amogelangphejane-blip/Wuuble-sub003/internal/matchmaker"
	"github.com/amogelangphejane-blip/Wuuble-sub003/internal/metrics"
	"github.com/amogelangphejane-blip/Wuuble-sub003/internal/middleware"
	"github.com/amogelangphejane-blip/Wuuble-sub003/internal/model"
	"github.com/amogelangphejane-blip/Wuuble-sub003/internal/ratelimit"
	"github.com/amogelangphejane-blip/Wuuble-sub003/internal/redis"
	"github.com/amogelangphejane-blip/Wuuble-sub003/internal/repository"
	"github.com/amogelangphejane-blip/Wuuble-sub003/internal/rtc"
	"github.com/amogelangphejane-blip/Wuuble-sub003/internal/safety"
	"github.com/amogelangphejane-blip/Wuuble-sub003/internal/service"
	"github.com/amogelangphejane-blip/Wuuble-sub003/internal/signaling"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	setLogLevel(cfg.LogLevel)

	isProduction := os.Getenv("FLY_APP_NAME") != ""
	if err := cfg.Validate(isProduction); err != nil {
		log.Fatal().Err(err).Msg("invalid config")
	}

	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), config.DBPingTimeout)
	if err := db.Ping(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to ping database")
	}
	cancel()
	log.Info().Msg("database connected")

	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	defer redisClient.Close()
	log.Info().Msg("redis connected")

	sessionRepo := repository.NewSessionRepository(db.DB)
	messageRepo := repository.NewMessageRepository(db.DB)
	reportRepo := repository.NewReportRepository(db.DB)
	restrictionRepo := repository.NewRestrictionRepository(db.DB)
	membershipRepo := repository.NewMembershipRepository(db.DB)

	broker := signaling.NewBroker(redisClient)
	defer broker.Close()

	sessionService := service.NewSessionService(sessionRepo, membershipRepo, cfg.MaxParticipants)
	messageService := service.NewMessageService(messageRepo)
	reportService := service.NewReportService(reportRepo, nil)

	notifier := signaling.NewMatchNotifier(broker)
	matcher := matchmaker.NewService(func(m matchmaker.Match) {
		matchCtx, matchCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer matchCancel()

		// The session row exists before either side learns the room id, so
		// both controllers can resolve it immediately.
		if _, err := sessionService.CreatePairSession(
			matchCtx, m.RoomID, m.A.Participant.UserID, m.B.Participant.UserID,
		); err != nil {
			log.Error().Err(err).Str("roomId", m.RoomID).Msg("failed to persist match")
		}
		metrics.MatchesTotal.Inc()
		notifier.OnMatch(m)
	}, notifier.OnStatus)

	var limiterStore ratelimit.Store
	if cfg.RateLimitStore == "memory" {
		limiterStore = ratelimit.NewMemoryStore()
	} else {
		limiterStore = ratelimit.NewRedisStore(redisClient.Client)
	}
	limiter := ratelimit.NewLimiter(limiterStore, cfg)

	filter := safety.NewFilter(restrictionRepo, redisClient.Client)

	newController := func(self model.Participant, forward func(kind string, payload json.RawMessage)) (*controller.Controller, *rtc.RelayManager) {
		channel := signaling.NewBrokerChannel(broker, matcher, self.ParticipantID)
		peers := rtc.NewRelayManager(forward)
		ctrl := controller.New(self, controller.Deps{
			Channel:        channel,
			Peers:          peers,
			Limiter:        limiter,
			Filter:         filter,
			Sessions:       sessionService,
			Messages:       messageService,
			Reports:        reportService,
			SearchAttempts: cfg.SearchAttempts,
		})
		return ctrl, peers
	}

	authMiddleware := middleware.NewAuthMiddleware(cfg.TokenSecret)

	tokenHandler := handler.NewTokenHandler(authMiddleware)
	wsHandler := handler.NewWSHandler(newController)
	reportHandler := handler.NewReportHandler(reportService)
	sessionHandler := handler.NewSessionHandler(sessionService, messageService)

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]any{
			"status":    "ok",
			"timestamp": time.Now().UnixMilli(),
		})
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Post("/v1/token", tokenHandler.IssueToken)

	r.Route("/v1", func(r chi.Router) {
		r.Use(authMiddleware.Handler)
		r.Get("/ws", wsHandler.ServeHTTP)
		r.Post("/reports", reportHandler.SubmitReport)
		r.Mount("/sessions", sessionHandler.Routes())
	})

	cleanupJob := jobs.NewCleanupJob(
		sessionRepo, restrictionRepo, cfg.SessionIdleTTL(), config.CleanupJobInterval,
	)
	cleanupJob.Start()
	defer cleanupJob.Stop()

	server := &http.Server{
		Addr:        cfg.Addr(),
		Handler:     r,
		ReadTimeout: config.ServerReadTimeout,
		// Websocket connections are long-lived; no write timeout.
		WriteTimeout: 0,
		IdleTimeout:  config.ServerIdleTimeout,
	}

	go func() {
		log.Info().Str("addr", cfg.Addr()).Msg("starting server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), config.ServerShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}

func setLogLevel(level string) {
	switch level {
	case "debug":
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	case "info":
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	case "warn":
		zerolog.SetGlobalLevel(zerolog.WarnLevel)
	case "error":
		zerolog.SetGlobalLevel(zerolog.ErrorLevel)
	default:
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}
}
