// platform-jobs runs the batch and maintenance tasks of the platform: schema
// migrations, catalogue seeding, note history derivation, the weekly reminder
// mail and the one-off data migrations.
package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/app"
	"github.com/alphagov/accessibility-monitoring-platform-sub003/internal/models"
	"github.com/alphagov/accessibility-monitoring-platform-sub003/pkg/config"
	"github.com/alphagov/accessibility-monitoring-platform-sub003/pkg/database"
	"github.com/alphagov/accessibility-monitoring-platform-sub003/pkg/logger"
)

const dateLayout = "2006-01-02"

type command struct {
	summary string
	run     func(ctx context.Context, env *jobEnv, args []string) error
}

var commands = map[string]command{
	"migrate":               {"apply (or with --down roll back one) schema migration", runMigrate},
	"seed":                  {"load WCAG definitions and statement checks from CSV", runSeed},
	"backfill-history":      {"derive check result notes history from the journal", runBackfillHistory},
	"teardown-history":      {"delete every derived notes history row", runTeardownHistory},
	"send-reminders":        {"mail every user their due reminders", runSendReminders},
	"migrate-burden":        {"split legacy disproportionate burden claims", runMigrateBurden},
	"enable-correspondence": {"enable report correspondence on existing cases", runEnableCorrespondence},
	"cleanup-exports":       {"remove rendered export files past retention", runCleanupExports},
}

type jobEnv struct {
	cfg    *config.Config
	logger *zap.Logger
}

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	if len(args) == 0 || args[0] == "-h" || args[0] == "--help" || args[0] == "help" {
		printUsage(os.Stderr)
		return nil
	}
	cmd, ok := commands[args[0]]
	if !ok {
		printUsage(os.Stderr)
		return fmt.Errorf("unknown command %q", args[0])
	}

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return cmd.run(ctx, &jobEnv{cfg: cfg, logger: logr.With(zap.String("job", args[0]))}, args[1:])
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: platform-jobs <command> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	for _, name := range []string{"migrate", "seed", "backfill-history", "teardown-history", "send-reminders", "migrate-burden", "enable-correspondence", "cleanup-exports"} {
		fmt.Fprintf(w, "  %-22s %s\n", name, commands[name].summary)
	}
}

func (e *jobEnv) platform(ctx context.Context) (*app.App, error) {
	return app.New(ctx, e.cfg, e.logger)
}

func withPlatform(ctx context.Context, env *jobEnv, fn func(*app.App) error) error {
	platform, err := env.platform(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := platform.Close(); err != nil {
			env.logger.Warn("failed to close resources", zap.Error(err))
		}
	}()
	return fn(platform)
}

func userFlags(flags *pflag.FlagSet) *models.UserHandle {
	user := &models.UserHandle{}
	flags.StringVar(&user.ID, "user-id", "platform-jobs", "user id recorded on journal events")
	flags.StringVar(&user.Name, "user-name", "Platform jobs", "user name recorded on journal events")
	return user
}

func runMigrate(ctx context.Context, env *jobEnv, args []string) error {
	flags := pflag.NewFlagSet("migrate", pflag.ContinueOnError)
	down := flags.Bool("down", false, "roll back the most recent migration")
	if err := flags.Parse(args); err != nil {
		return err
	}

	db, err := database.NewPostgres(env.cfg.Database)
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close() //nolint:errcheck

	if *down {
		err = database.Rollback(ctx, db)
	} else {
		err = database.Migrate(ctx, db)
	}
	if err != nil {
		return err
	}
	version, err := database.MigrationVersion(ctx, db)
	if err != nil {
		return err
	}
	env.logger.Info("migrations applied", zap.Int64("version", version))
	return nil
}

func runSeed(ctx context.Context, env *jobEnv, args []string) error {
	flags := pflag.NewFlagSet("seed", pflag.ContinueOnError)
	wcagPath := flags.String("wcag", "", "CSV file of WCAG definitions")
	checksPath := flags.String("statement-checks", "", "CSV file of statement checks")
	user := userFlags(flags)
	if err := flags.Parse(args); err != nil {
		return err
	}
	if *wcagPath == "" && *checksPath == "" {
		return fmt.Errorf("seed needs --wcag and/or --statement-checks")
	}

	return withPlatform(ctx, env, func(platform *app.App) error {
		if *wcagPath != "" {
			file, err := os.Open(*wcagPath)
			if err != nil {
				return err
			}
			defer file.Close() //nolint:errcheck
			result, err := platform.Catalogue.SeedWcagCSV(ctx, file, *user)
			if err != nil {
				return fmt.Errorf("seed wcag definitions: %w", err)
			}
			env.logger.Info("wcag definitions seeded", zap.Int("upserted", result.Upserted))
		}
		if *checksPath != "" {
			file, err := os.Open(*checksPath)
			if err != nil {
				return err
			}
			defer file.Close() //nolint:errcheck
			result, err := platform.Catalogue.SeedStatementChecksCSV(ctx, file, *user)
			if err != nil {
				return fmt.Errorf("seed statement checks: %w", err)
			}
			env.logger.Info("statement checks seeded", zap.Int("upserted", result.Upserted))
		}
		return nil
	})
}

func runBackfillHistory(ctx context.Context, env *jobEnv, args []string) error {
	flags := pflag.NewFlagSet("backfill-history", pflag.ContinueOnError)
	if err := flags.Parse(args); err != nil {
		return err
	}
	return withPlatform(ctx, env, func(platform *app.App) error {
		result, err := platform.History.Backfill(ctx)
		if err != nil {
			return err
		}
		env.logger.Info("history backfill finished", zap.Any("result", result))
		return nil
	})
}

func runTeardownHistory(ctx context.Context, env *jobEnv, args []string) error {
	flags := pflag.NewFlagSet("teardown-history", pflag.ContinueOnError)
	if err := flags.Parse(args); err != nil {
		return err
	}
	return withPlatform(ctx, env, func(platform *app.App) error {
		removed, err := platform.History.Teardown(ctx)
		if err != nil {
			return err
		}
		env.logger.Info("history teardown finished", zap.Int64("removed", removed))
		return nil
	})
}

func runSendReminders(ctx context.Context, env *jobEnv, args []string) error {
	flags := pflag.NewFlagSet("send-reminders", pflag.ContinueOnError)
	date := flags.String("date", "", "run as if today were this date (YYYY-MM-DD)")
	if err := flags.Parse(args); err != nil {
		return err
	}
	today := time.Now().UTC().Truncate(24 * time.Hour)
	if *date != "" {
		parsed, err := time.Parse(dateLayout, *date)
		if err != nil {
			return fmt.Errorf("invalid --date: %w", err)
		}
		today = parsed
	}
	return withPlatform(ctx, env, func(platform *app.App) error {
		result, err := platform.Tasks.EmailAllDue(ctx, today)
		if err != nil {
			return err
		}
		env.logger.Info("reminder mail finished",
			zap.Bool("ran", result.Ran),
			zap.Int("usersMailed", result.UsersMailed),
			zap.Int("failures", result.Failures),
			zap.Strings("failedUsers", result.FailedUsers))
		return nil
	})
}

func runMigrateBurden(ctx context.Context, env *jobEnv, args []string) error {
	flags := pflag.NewFlagSet("migrate-burden", pflag.ContinueOnError)
	firstCase := flags.Int64("first-case", 1, "lowest case id to migrate")
	user := userFlags(flags)
	if err := flags.Parse(args); err != nil {
		return err
	}
	return withPlatform(ctx, env, func(platform *app.App) error {
		result, err := platform.DataMigrations(*user).MigrateBurden(ctx, *firstCase)
		if err != nil {
			return err
		}
		env.logger.Info("burden migration finished", zap.Any("result", result))
		return nil
	})
}

func runEnableCorrespondence(ctx context.Context, env *jobEnv, args []string) error {
	flags := pflag.NewFlagSet("enable-correspondence", pflag.ContinueOnError)
	firstCase := flags.Int64("first-case", 1, "lowest case id to migrate")
	user := userFlags(flags)
	if err := flags.Parse(args); err != nil {
		return err
	}
	return withPlatform(ctx, env, func(platform *app.App) error {
		result, err := platform.DataMigrations(*user).EnableCorrespondence(ctx, *firstCase)
		if err != nil {
			return err
		}
		env.logger.Info("correspondence migration finished", zap.Any("result", result))
		return nil
	})
}

func runCleanupExports(ctx context.Context, env *jobEnv, args []string) error {
	flags := pflag.NewFlagSet("cleanup-exports", pflag.ContinueOnError)
	if err := flags.Parse(args); err != nil {
		return err
	}
	return withPlatform(ctx, env, func(platform *app.App) error {
		removed, err := platform.Exports.Cleanup()
		if err != nil {
			return err
		}
		env.logger.Info("export files removed", zap.Int("count", len(removed)))
		return nil
	})
}
