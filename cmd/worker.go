package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/frahmantamala/worktally/internal/auth"
	authPostgres "github.com/frahmantamala/worktally/internal/auth/postgres"
	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
)

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Start background workers",
	Long:  `Start scheduled background jobs such as expired session pruning.`,
}

var sessionWorkerCmd = &cobra.Command{
	Use:   "sessions",
	Short: "Prune expired sessions on a schedule",
	Long:  `Delete expired session rows according to worker.session_prune_schedule (cron syntax or descriptors such as @hourly).`,
	Run: func(cmd *cobra.Command, args []string) {
		startSessionWorker()
	},
}

var (
	pruneOnce     bool
	pruneSchedule string
)

func startSessionWorker() {
	config, err := loadConfig(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	log := initLogger(config)

	db, err := initDB(config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize database: %v\n", err)
		os.Exit(1)
	}
	defer closeDB(db)

	sessions := auth.NewService(
		authPostgres.NewAuthRepository(db),
		auth.NewJWTTokenGenerator(config.Security.SessionSecret),
		auth.NewBcryptHasher(config.Security.BCryptCost),
		config.Security.SessionTTL,
		log,
	)

	prune := func() {
		ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		removed, err := sessions.PruneExpired(ctx)
		if err != nil {
			log.Error("session prune failed", "error", err)
			return
		}
		log.Info("pruned expired sessions", "removed", removed)
	}

	if pruneOnce {
		prune()
		return
	}

	schedule := getStringFlag(pruneSchedule, config.Worker.SessionPruneSchedule)
	scheduler := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(slogPrintf{log})))
	if _, err := scheduler.AddFunc(schedule, prune); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid prune schedule %q: %v\n", schedule, err)
		os.Exit(1)
	}
	scheduler.Start()
	log.Info("session worker is running. Press Ctrl+C to stop.", "schedule", schedule)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigChan
	log.Info("received signal, shutting down session worker", "signal", sig)

	stopCtx := scheduler.Stop()
	select {
	case <-stopCtx.Done():
		log.Info("session worker shutdown complete")
	case <-time.After(shutdownTimeout):
		log.Warn("shutdown timeout reached, forcing exit")
	}
}

// slogPrintf routes cron's own logging to slog at debug level.
type slogPrintf struct {
	log *slog.Logger
}

func (p slogPrintf) Printf(format string, args ...interface{}) {
	p.log.Debug(fmt.Sprintf(format, args...), "component", "cron")
}

func getStringFlag(flagValue, configValue string) string {
	if flagValue != "" {
		return flagValue
	}
	return configValue
}

func init() {
	sessionWorkerCmd.Flags().BoolVar(&pruneOnce, "once", false, "Prune once and exit")
	sessionWorkerCmd.Flags().StringVar(&pruneSchedule, "schedule", "", "Cron schedule (overrides config)")

	workerCmd.AddCommand(sessionWorkerCmd)

	rootCmd.AddCommand(workerCmd)
}
