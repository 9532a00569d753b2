package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"

	"github.com/spacecards/economy-api/internal/config"
	"github.com/spacecards/economy-api/internal/domain/wallet"
	"github.com/spacecards/economy-api/internal/pkg/database"
	"github.com/spacecards/economy-api/internal/pkg/logger"
)

// runTimeout bounds one reconciliation pass.
const runTimeout = 5 * time.Minute

func main() {
	once := flag.Bool("once", false, "run a single reconciliation pass and exit non-zero on drift")
	flag.Parse()

	cfg := config.Load()
	if err := logger.Init(logger.Config{
		Level:       cfg.LogLevel,
		Environment: cfg.Env,
		LogFile:     cfg.LogFile,
	}); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialise logger")
	}

	log.Info().Str("schedule", cfg.AuditSchedule).Bool("once", *once).Msg("Starting ledger-auditor")

	db, err := database.NewPostgres(cfg.DatabaseURL, database.PoolConfig{
		MaxOpenConns:    2,
		MaxIdleConns:    1,
		ConnMaxLifetime: 5 * time.Minute,
		ConnMaxIdleTime: time.Minute,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	if cfg.AutoMigrate {
		if err := database.Migrate(cfg.DatabaseURL); err != nil {
			log.Fatal().Err(err).Msg("Failed to run migrations")
		}
	}

	auditor := wallet.NewAuditor(wallet.NewRepository(db))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if *once {
		if !runAudit(ctx, auditor) {
			database.ClosePostgres(db)
			os.Exit(1)
		}
		return
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(cfg.AuditSchedule, func() { runAudit(ctx, auditor) }); err != nil {
		log.Fatal().Err(err).Str("schedule", cfg.AuditSchedule).Msg("Invalid audit schedule")
	}
	c.Start()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	<-sigChan
	log.Info().Msg("Shutdown signal received")

	cancel()
	<-c.Stop().Done()
	log.Info().Msg("ledger-auditor stopped")
}

// runAudit reports whether every wallet reconciled. Drift rows are logged
// by the auditor itself.
func runAudit(ctx context.Context, auditor *wallet.Auditor) bool {
	ctx, cancel := context.WithTimeout(ctx, runTimeout)
	defer cancel()

	report, err := auditor.Run(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Ledger audit failed")
		return false
	}

	return report.Clean()
}
