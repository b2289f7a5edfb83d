package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/pflag"

	router "github.com/artemav/huddle/internal/adapters/http"
	wssignal "github.com/artemav/huddle/internal/adapters/signal"
	"github.com/artemav/huddle/internal/app"
	"github.com/artemav/huddle/internal/app/orch"
	"github.com/artemav/huddle/internal/auth"
	"github.com/artemav/huddle/internal/config"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	fs := pflag.NewFlagSet("huddle", pflag.ContinueOnError)
	configEnv := fs.StringP("config-env", "c", "", "config environment (config/config.<env>.yaml)")
	logLevel := fs.StringP("log-level", "l", "info", "log level")
	if err := fs.Parse(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	lvl, err := zerolog.ParseLevel(*logLevel)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to parse log level")
	}
	zerolog.SetGlobalLevel(lvl)

	cfg, err := config.Load(*configEnv)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	sessions := app.NewSessionRegistry()
	rooms := app.NewRoomRegistry()
	stats := app.NewStatsRegistry()
	orchestrator := orch.New(sessions, rooms, stats)

	identity := auth.NewJWTProvider(cfg.Secret, cfg.AllowGuests)
	ctrl := wssignal.NewController(orchestrator, identity, cfg)

	reaper := &app.Reaper{
		Rooms:        rooms,
		Sessions:     sessions,
		Stats:        stats,
		Interval:     cfg.SweepInterval,
		RoomIdleTTL:  cfg.RoomIdleTTL,
		StatsIdleTTL: cfg.StatsIdleTTL,
	}
	go reaper.Run(ctx)

	r := router.SetupRouter(cfg, ctrl)
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("huddle signaling server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	log.Info().Msg("server exited gracefully")
}
