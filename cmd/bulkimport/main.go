package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/timmy/bulkimport/internal/client"
	"github.com/timmy/bulkimport/internal/config"
	"github.com/timmy/bulkimport/internal/logger"
	"github.com/timmy/bulkimport/internal/report"
	"github.com/timmy/bulkimport/internal/service"
	"github.com/timmy/bulkimport/internal/storage"
	"github.com/timmy/bulkimport/internal/window"
)

const (
	exitOK   = 0
	exitFail = 1
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdin, os.Stdout)
	stop()
	os.Exit(code)
}

// run executes one bulk import and returns the process exit code. Operator
// output goes to stdout; the confirmation answer is read from stdin.
func run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) (code int) {
	appLogger := logger.New(&logger.Config{
		Level:       "info",
		Format:      "text",
		ServiceName: "bulkimport",
	})
	logger.SetDefaultLogger(appLogger)
	defer logger.Sync()

	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(stdout, "\n❌ Unexpected error: %v\n", r)
			code = exitFail
		}
	}()

	fs := flag.NewFlagSet("bulkimport", flag.ContinueOnError)
	auto := fs.Bool("auto", false, "Proceed without interactive confirmation")
	configPath := fs.String("config", "", "Path to config file")
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		return exitFail
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(stdout, "\n❌ Unexpected error: %v\n", err)
		return exitFail
	}

	appLogger = logger.New(&logger.Config{
		Level:       cfg.Log.Level,
		Format:      cfg.Log.Format,
		ServiceName: "bulkimport",
		File:        cfg.Log.File,
		MaxSize:     100,
		MaxBackups:  7,
		MaxAge:      30,
	})
	logger.SetDefaultLogger(appLogger)

	ctx = appLogger.WithContext(ctx)
	ctx = logger.SetComponent(ctx, "bulkimport")
	ctx = logger.SetRunID(ctx, uuid.NewString())

	start, err := window.ParseStart(cfg.Importer.StartDate, time.Local)
	if err != nil {
		fmt.Fprintf(stdout, "\n❌ Unexpected error: %v\n", err)
		return exitFail
	}

	fmt.Fprintln(stdout, "🚀 Bulk Filtered Import Script")
	fmt.Fprintf(stdout, "📅 Importing data for all tables month by month starting from %s\n", start.Format(window.LabelLayout))
	fmt.Fprintf(stdout, "🌐 Server: %s\n", cfg.Importer.ServerURL)

	api := client.New(&client.Config{
		ImportURL:      cfg.Importer.ImportURL(),
		HealthURL:      cfg.Importer.HealthURL(),
		RequestTimeout: cfg.Importer.RequestTimeout,
		HealthTimeout:  cfg.Importer.HealthTimeout,
	})

	executor := service.NewExecutor(api, &service.ExecutorConfig{
		MaxAttempts: cfg.Importer.MaxAttempts,
		BackoffBase: cfg.Importer.BackoffBase,
	}, nil)

	runner := service.NewRunner(service.RunnerConfig{
		ServerURL:   cfg.Importer.ServerURL,
		StartDate:   start,
		Catalog:     cfg.Importer.Catalog,
		PacingDelay: cfg.Importer.PacingDelay,
	}, api, executor, stdout, nil, nil)

	if err := runner.Probe(ctx); err != nil {
		fmt.Fprintln(stdout, "❌ Cannot proceed without server connection")
		return exitFail
	}

	plan := runner.Plan()
	runner.PrintPlan(plan)

	if *auto {
		fmt.Fprintln(stdout, "🤖 Auto mode enabled, proceeding without confirmation...")
	} else {
		confirmed, err := confirm(ctx, stdin, stdout, plan.Total())
		if err != nil {
			fmt.Fprintln(stdout, "\n\n❌ Script interrupted by user")
			return exitFail
		}
		if !confirmed {
			fmt.Fprintln(stdout, "❌ Operation cancelled by user")
			return exitOK
		}
	}

	persister := report.NewPersister(&report.PersisterConfig{
		Dir:    cfg.Importer.OutputDir,
		Store:  newResultStore(ctx, &cfg.Storage),
		Prefix: cfg.Storage.Prefix,
	})

	results, err := runner.Run(ctx, plan)
	if err != nil {
		fmt.Fprintln(stdout, "\n\n❌ Script interrupted by user")
		if cfg.Importer.SavePartialOnInterrupt && len(results) > 0 {
			// The signal context is already done; give the save its own.
			saveCtx := logger.FromContext(ctx).WithContext(context.Background())
			if path, err := persister.Save(saveCtx, results); err != nil {
				fmt.Fprintf(stdout, "❌ Failed to save results: %v\n", err)
			} else {
				fmt.Fprintf(stdout, "💾 Partial results (%d/%d) saved to: %s\n", len(results), plan.Total(), path)
			}
		}
		return exitFail
	}

	path, err := persister.Save(ctx, results)
	if err != nil {
		fmt.Fprintf(stdout, "❌ Failed to save results: %v\n", err)
	} else {
		fmt.Fprintf(stdout, "💾 Results saved to: %s\n", path)
	}

	if err := report.Render(stdout, report.Summarize(results), cfg.Importer.Catalog); err != nil {
		logger.CtxError(ctx, "Failed to render summary: %v", err)
	}

	fmt.Fprintln(stdout, "\n🎉 Bulk import completed!")
	if path != "" {
		fmt.Fprintf(stdout, "📁 Detailed results saved to: %s\n", path)
	}
	fmt.Fprintf(stdout, "💾 JSON export files should be in: %s\n", cfg.Importer.ExportDir)

	return exitOK
}

// confirm prompts on in; an interrupt while waiting returns the context error.
func confirm(ctx context.Context, in io.Reader, out io.Writer, total int) (bool, error) {
	answer := make(chan bool, 1)
	go func() {
		answer <- service.Confirm(in, out, total)
	}()

	select {
	case ok := <-answer:
		return ok, nil
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

// newResultStore returns the configured object storage, or nil when uploads
// are disabled or the backend cannot be reached.
func newResultStore(ctx context.Context, cfg *config.StorageConfig) storage.ObjectStorage {
	if !cfg.Enabled {
		return nil
	}

	store, err := storage.NewStorage(&storage.S3Config{
		Type:      storage.StorageType(cfg.Type),
		Endpoint:  cfg.Endpoint,
		AccessKey: cfg.AccessKey,
		SecretKey: cfg.SecretKey,
		UseSSL:    cfg.UseSSL,
		Bucket:    cfg.Bucket,
		Region:    cfg.Region,
		PublicURL: cfg.PublicURL,
	})
	if err == nil {
		err = store.EnsureBucket(ctx)
	}
	if err != nil {
		logger.CtxWarn(ctx, "Result upload disabled: %v", err)
		return nil
	}
	return store
}
