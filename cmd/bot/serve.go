package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"linguo/internal/config"
	"linguo/internal/handler"
	"linguo/internal/language"
	"linguo/internal/middleware"
	"linguo/internal/repository/local"
	"linguo/internal/repository/postgres"
	"linguo/internal/service"
	"linguo/internal/session"
	"linguo/internal/translate"

	"github.com/golang-migrate/migrate/v4"
	postgresdb "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	tele "gopkg.in/telebot.v3"
)

// sweepInterval is how often idle sessions are looked for
const sweepInterval = time.Minute

func newServeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the translation bot",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.serve()
		},
	}
}

func (a *app) serve() error {
	logger := a.logger
	logger.Info("Starting Linguo Bot")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	langs, err := language.Load(cfg.LanguagesFile)
	if err != nil {
		return fmt.Errorf("failed to load languages: %w", err)
	}
	for _, code := range []string{cfg.Session.DefaultSource, cfg.Session.DefaultTarget} {
		if _, ok := langs.Lookup(code); !ok {
			return fmt.Errorf("default language %q is not in the catalog", code)
		}
	}

	logger.Info("Configuration loaded successfully", zap.Int("languages", len(langs.All())))

	// Connect to database with retries
	db, err := connectDatabase(cfg.DSN(), logger)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	logger.Info("Database connection established")

	// Run migrations
	if err := runMigrations(db, logger); err != nil {
		return err
	}

	// Device-local usage counters
	quotaDB, err := local.Open(cfg.QuotaDBPath)
	if err != nil {
		return fmt.Errorf("failed to open quota store: %w", err)
	}
	defer quotaDB.Close()

	quotaStore, err := local.NewQuotaStore(quotaDB)
	if err != nil {
		return fmt.Errorf("failed to prepare quota store: %w", err)
	}

	// Initialize repositories
	identityRepo := postgres.NewIdentityRepo(db)
	historyRepo := postgres.NewHistoryRepo(db)

	feed, err := postgres.NewHistoryFeed(historyRepo, postgres.NewListener(cfg.DSN(), logger), logger)
	if err != nil {
		return fmt.Errorf("failed to start history feed: %w", err)
	}
	defer feed.Close()

	// Initialize services
	identityService := service.NewIdentityService(identityRepo, logger)
	quotaService := service.NewQuotaService(quotaStore, cfg.Session.FreeTranslations)
	translator := translate.New(translate.Config{
		BaseURL: cfg.Translate.APIURL,
		Model:   cfg.Translate.Model,
		APIKey:  cfg.Translate.APIKey,
		Timeout: cfg.Translate.Timeout,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sessions := session.NewRegistry(func() *session.Controller {
		return session.New(session.Deps{
			Translator:    translator,
			History:       historyRepo,
			Feed:          feed,
			Quota:         quotaService,
			Languages:     langs,
			Logger:        logger,
			DefaultSource: cfg.Session.DefaultSource,
			DefaultTarget: cfg.Session.DefaultTarget,
		})
	}, nil)
	defer sessions.CloseAll()

	// Initialize Telegram bot
	bot, err := tele.NewBot(tele.Settings{
		Token:  cfg.BotToken,
		Poller: &tele.LongPoller{Timeout: 10 * time.Second},
		OnError: func(err error, c tele.Context) {
			logger.Error("Handler error", zap.Error(err))
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create bot: %w", err)
	}

	logger.Info("Telegram bot initialized")

	bot.Use(middleware.IdentityMiddleware(ctx, sessions, identityService, logger))

	// Initialize handler
	h := handler.NewHandler(ctx, bot, sessions, logger)
	h.RegisterHandlers()

	logger.Info("Handlers registered")

	// Start sweep job in background
	sweeper := service.NewSweepService(sessions, cfg.Session.IdleTimeout, logger)
	go runSweepJob(ctx, sweeper, logger)

	// Start bot in background
	go func() {
		logger.Info("Bot started successfully")
		bot.Start()
	}()

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan

	logger.Info("Shutdown signal received, stopping bot...")

	// Graceful shutdown
	bot.Stop()
	cancel()

	logger.Info("Bot stopped gracefully")
	return nil
}

// connectDatabase connects to PostgreSQL with retries
func connectDatabase(dsn string, logger *zap.Logger) (*sql.DB, error) {
	var db *sql.DB
	var err error

	maxRetries := 30
	retryDelay := 2 * time.Second

	for i := 0; i < maxRetries; i++ {
		db, err = sql.Open("postgres", dsn)
		if err != nil {
			logger.Warn("Failed to open database connection",
				zap.Int("attempt", i+1),
				zap.Error(err),
			)
			time.Sleep(retryDelay)
			continue
		}

		if err = db.Ping(); err != nil {
			logger.Warn("Failed to ping database",
				zap.Int("attempt", i+1),
				zap.Error(err),
			)
			db.Close()
			time.Sleep(retryDelay)
			continue
		}

		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)

		return db, nil
	}

	return nil, fmt.Errorf("failed to connect to database after %d attempts: %w", maxRetries, err)
}

// runMigrations applies pending schema migrations
func runMigrations(db *sql.DB, logger *zap.Logger) error {
	driver, err := postgresdb.WithInstance(db, &postgresdb.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		return fmt.Errorf("failed to create migration instance: %w", err)
	}

	err = m.Up()
	switch {
	case errors.Is(err, migrate.ErrNoChange):
		logger.Info("No new migrations to apply")
	case err != nil:
		return fmt.Errorf("failed to run migrations: %w", err)
	default:
		logger.Info("Migrations applied successfully")
	}

	return nil
}

// runSweepJob closes idle sessions until ctx is done
func runSweepJob(ctx context.Context, sweeper *service.SweepService, logger *zap.Logger) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Sweep job stopped")
			return
		case <-ticker.C:
			sweeper.SweepIdleSessions()
		}
	}
}
