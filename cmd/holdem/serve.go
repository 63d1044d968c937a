package main

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/parlourlabs/holdem/internal/ledger"
	"github.com/parlourlabs/holdem/internal/room"
	"github.com/parlourlabs/holdem/internal/server"
)

// ServeCmd runs the websocket server.
type ServeCmd struct {
	Config string `kong:"default='holdem.hcl',help='Path to HCL config file'"`
	Debug  bool   `kong:"help='Enable debug logging'"`
	Seed   *int64 `kong:"help='Deterministic RNG seed (optional)'"`
}

func (c *ServeCmd) Run() error {
	// .env is optional; it typically carries the database DSN.
	_ = godotenv.Load()

	cfg, err := server.LoadConfig(c.Config)
	if err != nil {
		return err
	}

	logger := setupLogger(c.Debug, cfg.Server.LogLevel)

	var seed int64
	if c.Seed != nil {
		seed = *c.Seed
		logger.Info("using deterministic seed", "seed", seed)
	} else {
		seed = time.Now().UnixNano()
	}
	rng := rand.New(rand.NewSource(seed))

	store, closeStore, err := openStore(cfg, logger)
	if err != nil {
		return err
	}
	defer closeStore()
	recorder := ledger.NewRecorder(store, logger)

	registry := room.NewRegistry(cfg.RoomConfig(), quartz.NewReal(), nil, recorder, rng, logger)

	if lobby, ok := registry.Get(room.DefaultRoomCode); ok {
		for _, bot := range cfg.Bots {
			if _, err := lobby.SeatBot(bot.Name, bot.Aggression); err != nil {
				logger.Warn("could not seat bot", "bot", bot.Name, "error", err)
			}
		}
	}

	srv := server.NewServer(cfg.Addr(), registry, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(func() error {
		registry.Janitor(gctx)
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// openStore picks the ledger backend: Postgres when the configured DSN
// environment variable is set, in-memory otherwise.
func openStore(cfg *server.Config, logger *log.Logger) (ledger.Store, func(), error) {
	opening := int64(cfg.Database.OpeningBalance)

	if env := cfg.Database.DSNEnv; env != "" {
		dsn := os.Getenv(env)
		if dsn == "" {
			return nil, nil, fmt.Errorf("database dsn_env %s is set but the variable is empty", env)
		}
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		pg, err := ledger.NewPostgresStore(ctx, dsn, opening)
		if err != nil {
			return nil, nil, fmt.Errorf("connecting to postgres: %w", err)
		}
		logger.Info("ledger backed by postgres")
		return pg, pg.Close, nil
	}

	logger.Info("ledger backed by memory store", "opening_balance", opening)
	return ledger.NewMemoryStore(opening), func() {}, nil
}

func setupLogger(debug bool, level string) *log.Logger {
	logger := log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
	})
	switch {
	case debug:
		logger.SetLevel(log.DebugLevel)
	default:
		if lvl, err := log.ParseLevel(level); err == nil {
			logger.SetLevel(lvl)
		}
	}
	return logger
}
