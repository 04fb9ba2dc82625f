package app

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/nuetzliches/micro/internal/database"
	"github.com/nuetzliches/micro/internal/directive"
	"github.com/nuetzliches/micro/internal/listener"
	"github.com/nuetzliches/micro/internal/registry"
	"github.com/nuetzliches/micro/internal/schema"
	"github.com/nuetzliches/micro/internal/timer"
)

func run(args []string, reg *registry.Registry) int {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	configPath := fs.String("config", "./micro", "path to directive file")
	overridesPath := fs.String("overrides", directive.DefaultOverridePath, "path to config override file")
	pidFile := fs.String("pid-file", "", "write process PID to file (for runtime control)")
	logLevel := fs.String("log-level", "info", "log level (debug|info|warn|error)")
	dotenvPath := fs.String("dotenv", "", "load environment variables from file (dev only)")
	watch := fs.Bool("watch", false, "watch directive file and re-validate on change")
	moduleRoots := map[string]string{}
	fs.Func("module-root", "map a dotted import prefix to a directory (name=dir, repeatable)", func(v string) error {
		name, dir, ok := strings.Cut(v, "=")
		name = strings.TrimSpace(name)
		dir = strings.TrimSpace(dir)
		if !ok || name == "" || dir == "" {
			return fmt.Errorf("invalid --module-root %q (use name=dir)", v)
		}
		moduleRoots[name] = dir
		return nil
	})
	if err := fs.Parse(args); err != nil {
		return 2
	}

	logger, err := newLogger(*logLevel)
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		return 2
	}
	slog.SetDefault(logger)

	releasePIDFile, err := claimPIDFile(strings.TrimSpace(*pidFile))
	if err != nil {
		logger.Error("pid_file_failed", slog.Any("err", err))
		return 1
	}
	defer releasePIDFile()

	if strings.TrimSpace(*dotenvPath) != "" {
		applied, err := loadDotenv(strings.TrimSpace(*dotenvPath))
		if err != nil {
			logger.Error("dotenv_failed", slog.Any("err", err))
			return 1
		}
		logger.Debug("dotenv_loaded", slog.Int("applied", applied))
	}

	rootCtx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ctx, stop := signal.NotifyContext(rootCtx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	listeners := listener.New(logger)
	ctl, err := directive.Parse(*configPath, directive.Options{
		Registry:     reg,
		Listeners:    listeners,
		ModuleRoots:  moduleRoots,
		OverridePath: *overridesPath,
		Logger:       logger,
	})
	if err != nil {
		logger.Error("compile_failed", slog.Any("err", err))
		return 1
	}
	logger.Info("config_ok",
		slog.Int("servers", listeners.Len()),
		slog.Int("config_keys", len(ctl.Keys)),
	)

	db, err := openDatabase(ctl.Config)
	if err != nil {
		logger.Error("open_database_failed", slog.Any("err", err))
		return 1
	}
	if db != nil {
		defer func() { _ = db.Close() }()
		logger.Info("database_opened", slog.String("driver", db.Driver()))
	}

	tracingEnabled, _ := ctl.Config.GetBool("trace.is_active")
	if tracingEnabled {
		shutdownTracing, err := initTracing(context.Background(), ctl.Config, func(err error) {
			logger.Error("tracing_export_failed", slog.Any("err", err))
		})
		if err != nil {
			logger.Error("tracing_init_failed", slog.Any("err", err))
			return 1
		}
		defer func() {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			_ = shutdownTracing(shutdownCtx)
		}()
		logger.Info("tracing_enabled")
	}

	listeners.Wrap = func(name string, h http.Handler) http.Handler {
		wrapped := withAccessLog(logger, h)
		if tracingEnabled {
			wrapped = wrapTracingHandler(name, wrapped)
		}
		return wrapped
	}

	listeners.Serve(cancel)

	if *watch {
		go watchDirectiveFile(ctx, *configPath, logger, func() {
			revalidate(*configPath, *overridesPath, moduleRoots, reg, logger)
		})
	}

	timers := timer.New()
	directive.Run(ctx, ctl, timers, logger)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	listeners.Shutdown(shutdownCtx)

	if ctl.Teardown != nil {
		if err := ctl.Teardown(ctl.Config); err != nil {
			logger.Error("teardown_failed", slog.Any("err", err))
			return 1
		}
	}
	return 0
}

// openDatabase opens the shared handle when the directive file defined the
// db.* keys and db.is_active resolves true. Returns nil when no database is
// configured.
func openDatabase(cfg *schema.Config) (*database.DB, error) {
	active, ok := cfg.GetBool("db.is_active")
	if !ok || !active {
		return nil, nil
	}
	driver, _ := cfg.GetString("db.driver")
	dsn, _ := cfg.GetString("db.dsn")
	poolSize := 0
	if cfg.Defined("db.pool_size") {
		poolSize, _ = cfg.GetInt("db.pool_size")
	}
	return database.Open(driver, dsn, poolSize)
}

// revalidate re-parses the directive file without binding listeners. The
// running topology is not swapped; a restart picks up the change.
func revalidate(path, overrides string, moduleRoots map[string]string, reg *registry.Registry, logger *slog.Logger) {
	discard := newDiscardLogger()
	_, err := directive.Parse(path, directive.Options{
		Registry:     reg,
		Listeners:    &listener.Registry{Logger: discard, Inert: true},
		ModuleRoots:  moduleRoots,
		OverridePath: overrides,
		ConfigOnly:   true,
		Logger:       discard,
	})
	if err != nil {
		logger.Error("directive_revalidate_failed", slog.Any("err", err))
		return
	}
	logger.Info("directive_revalidated_ok", slog.String("path", path), slog.String("note", "restart required to apply"))
}
