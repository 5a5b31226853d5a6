package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/starstream/starstream/cmd/starstream/shared"
	"github.com/starstream/starstream/internal/api"
	"github.com/starstream/starstream/internal/config"
	"github.com/starstream/starstream/internal/dashboard"
	"github.com/starstream/starstream/internal/games"
	"github.com/starstream/starstream/internal/randutil"
	"github.com/starstream/starstream/internal/shop"
	"github.com/starstream/starstream/internal/store"
	"github.com/starstream/starstream/internal/table"
)

// ServeCmd runs the chat gateway and the admin panel.
type ServeCmd struct {
	Config          string `kong:"short='c',default='starstream.hcl',help='Path to HCL configuration file'"`
	Addr            string `kong:"short='a',help='Gateway address (overrides config)'"`
	Debug           bool   `kong:"help='Enable debug logging'"`
	DatabaseURL     string `kong:"env='DATABASE_URL',help='Postgres connection string'"`
	AdminHash       string `kong:"env='ADMIN_PASSWORD_HASH',help='bcrypt hash gating the admin panel'"`
	SessionSecret   string `kong:"env='ADMIN_SESSION_SECRET',help='HMAC key for admin sessions'"`
	RoleWebhookURL  string `kong:"env='ROLE_WEBHOOK_URL',help='Webhook the shop calls to apply role grants'"`
	Seed            *int64 `kong:"help='Deterministic RNG seed (optional)'"`
	ShutdownTimeout int    `kong:"default='10',help='Graceful shutdown timeout in seconds'"`
}

func (c *ServeCmd) Run() error {
	_ = godotenv.Load()

	zlog := shared.SetupLogger(c.Debug)
	ctx := shared.SignalContext(zlog)

	cfg, err := config.Load(c.Config)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if c.Addr != "" {
		cfg.Server.Address = c.Addr
	}
	if c.Debug {
		cfg.Server.LogLevel = "debug"
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if c.AdminHash == "" {
		return errors.New("ADMIN_PASSWORD_HASH is required (see starstream hash-password)")
	}
	if c.SessionSecret == "" {
		return errors.New("ADMIN_SESSION_SECRET is required")
	}

	seed := time.Now().UnixNano()
	if c.Seed != nil {
		seed = *c.Seed
	}
	zlog.Info().Int64("seed", seed).Msg("seeding RNG")

	db, err := store.Open(ctx, c.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()
	if err := store.Migrate(ctx, db); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}

	logBuf := dashboard.NewLogBuffer()
	logger := shared.ServiceLogger(cfg.Server.LogLevel, logBuf)

	registry := table.NewRegistry(db.GrrLedger(), logger,
		table.WithTurnTimeout(time.Duration(cfg.Game.TurnTimeoutSeconds)*time.Second))
	house := games.NewHouse(db.GrrLedger(), db, randutil.New(seed), logger)

	var granter shop.RoleGranter = shop.NopRoleGranter{}
	if c.RoleWebhookURL != "" {
		granter = shop.NewWebhookRoleGranter(c.RoleWebhookURL)
	}
	shopSvc := shop.NewService(db, db, granter, logger)

	gateway := api.NewServer(registry, house, shopSvc, db, api.Config{
		DailyMin:           cfg.Game.DailyMin,
		DailyMax:           cfg.Game.DailyMax,
		ExchangeGrrCost:    cfg.Game.ExchangeGrrCost,
		ExchangeCoinReward: cfg.Game.ExchangeCoinReward,
	}, randutil.New(seed+1), logger)

	admin, err := dashboard.NewServer(db, logBuf, c.AdminHash, []byte(c.SessionSecret), logger)
	if err != nil {
		return fmt.Errorf("build admin panel: %w", err)
	}

	gatewaySrv := &http.Server{Addr: cfg.ServerAddress(), Handler: gateway.Handler()}
	adminSrv := &http.Server{Addr: cfg.AdminAddress(), Handler: admin.Handler()}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		zlog.Info().Str("addr", gatewaySrv.Addr).Msg("gateway listening")
		if err := gatewaySrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		zlog.Info().Str("addr", adminSrv.Addr).Msg("admin panel listening")
		if err := adminSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(),
			time.Duration(c.ShutdownTimeout)*time.Second)
		defer cancel()
		_ = gatewaySrv.Shutdown(shutdownCtx)
		_ = adminSrv.Shutdown(shutdownCtx)
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	zlog.Info().Msg("stopped")
	return nil
}

// MigrateCmd applies the embedded schema and exits.
type MigrateCmd struct {
	DatabaseURL string `kong:"env='DATABASE_URL',help='Postgres connection string'"`
	Debug       bool   `kong:"help='Enable debug logging'"`
}

func (c *MigrateCmd) Run() error {
	_ = godotenv.Load()

	zlog := shared.SetupLogger(c.Debug)
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}

	ctx := context.Background()
	db, err := store.Open(ctx, c.DatabaseURL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	if err := store.Migrate(ctx, db); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	zlog.Info().Msg("schema applied")
	return nil
}

// HashPasswordCmd prints a bcrypt hash for the admin panel password.
type HashPasswordCmd struct {
	Password string `kong:"arg,help='Password to hash'"`
}

func (c *HashPasswordCmd) Run() error {
	hash, err := dashboard.HashPassword(c.Password)
	if err != nil {
		return err
	}
	fmt.Fprintln(os.Stdout, hash)
	return nil
}
