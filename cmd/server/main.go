package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/dkeye/Inkroom/internal/adapters/http"
	"github.com/dkeye/Inkroom/internal/adapters/presence"
	"github.com/dkeye/Inkroom/internal/app"
	"github.com/dkeye/Inkroom/internal/auth"
	"github.com/dkeye/Inkroom/internal/config"
	"github.com/dkeye/Inkroom/internal/core"
	"github.com/dkeye/Inkroom/internal/notify"
	"github.com/dkeye/Inkroom/internal/session"
	"github.com/dkeye/Inkroom/internal/store"
	"github.com/dkeye/Inkroom/internal/team"
)

// logMailer stands in for the external mail relay.
type logMailer struct{}

func (logMailer) Send(ctx context.Context, to, subject, body string) error {
	log.Info().Str("module", "mailer").Str("to", to).Str("subject", subject).Msg("mail handed off")
	return nil
}

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	verifier, err := auth.NewTokenVerifier(cfg.JWTSecret)
	if err != nil {
		log.Fatal().Err(err).Msg("token verifier")
	}

	db, err := store.Open(cfg.DatabaseDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("open document store")
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Fatal().Err(err).Msg("redis unreachable")
	}

	registry := core.NewRegistry()
	authorizer := auth.NewAuthorizer(registry, verifier)

	mailer := notify.NewMailer(cfg.RedisAddr, cfg.RedisPassword)
	defer mailer.Close()
	notifier := notify.NewService(db, mailer)

	blobs := session.NewRedisBlobStore(rdb)
	sessions := session.NewManager(ctx, registry, blobs, session.TeamEditPolicy{}, cfg.SnapshotEvery, cfg.ReviewEvery)
	engine := session.NewRelayEngine(sessions, registry)

	teams := team.NewService(registry, db, notifier)
	docs := app.NewDocumentService(db, registry, notifier, sessions)

	if err := docs.Rehydrate(ctx); err != nil {
		log.Fatal().Err(err).Msg("rehydrate registry")
	}

	presenceCtl := presence.NewController(authorizer, registry, teams, engine, presence.Options{
		ReadLimit:    cfg.ReadLimit,
		PingPeriod:   cfg.PingPeriod,
		WriteTimeout: cfg.WriteTimeout,
	})

	worker := notify.NewWorker(cfg.RedisAddr, cfg.RedisPassword, logMailer{})
	go func() {
		if err := worker.Run(); err != nil {
			log.Error().Err(err).Msg("mail worker stopped")
		}
	}()

	r := router.SetupRouter(ctx, cfg, verifier, registry, docs, db, presenceCtl)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("Inkroom server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	worker.Shutdown()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Msg("Server exited gracefully")
}
