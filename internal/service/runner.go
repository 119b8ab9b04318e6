package service

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/timmy/bulkimport/internal/domain"
	"github.com/timmy/bulkimport/internal/logger"
	"github.com/timmy/bulkimport/internal/window"
)

// ErrServerUnreachable is returned by Probe when the health check fails.
var ErrServerUnreachable = errors.New("import server unreachable")

// RunnerConfig is the immutable run configuration.
type RunnerConfig struct {
	ServerURL   string
	StartDate   time.Time
	Catalog     []domain.DataTypeDescriptor
	PacingDelay time.Duration
}

// Plan is the fixed set of operations a run will perform.
type Plan struct {
	Windows []domain.DateWindow
	Catalog []domain.DataTypeDescriptor
}

// Total returns the number of import operations in the plan.
func (p Plan) Total() int {
	return len(p.Windows) * len(p.Catalog)
}

// Runner drives a bulk import: every catalog entry for every window, one
// request at a time.
type Runner struct {
	cfg      RunnerConfig
	api      ImportAPI
	executor *Executor
	out      io.Writer
	sleep    SleepFunc
	now      func() time.Time
}

// NewRunner creates a new runner. Progress lines are written to out.
func NewRunner(cfg RunnerConfig, api ImportAPI, executor *Executor, out io.Writer, sleep SleepFunc, now func() time.Time) *Runner {
	if sleep == nil {
		sleep = Sleep
	}
	if now == nil {
		now = time.Now
	}
	catalog := make([]domain.DataTypeDescriptor, len(cfg.Catalog))
	copy(catalog, cfg.Catalog)
	cfg.Catalog = catalog

	return &Runner{
		cfg:      cfg,
		api:      api,
		executor: executor,
		out:      out,
		sleep:    sleep,
		now:      now,
	}
}

// Probe checks that the import server answers its health endpoint.
func (r *Runner) Probe(ctx context.Context) error {
	fmt.Fprintln(r.out, "\n🔍 Testing server connectivity...")

	status, err := r.api.Health(ctx)
	if err != nil {
		fmt.Fprintf(r.out, "❌ Cannot connect to server: %v\n", err)
		return fmt.Errorf("%w: %v", ErrServerUnreachable, err)
	}

	fmt.Fprintf(r.out, "✅ Server is reachable: %s\n", status)
	logger.CtxInfo(ctx, "Server is reachable: status=%s", status)
	return nil
}

// Plan computes the windows up to now and pairs them with the catalog.
func (r *Runner) Plan() Plan {
	return Plan{
		Windows: window.Generate(r.cfg.StartDate, r.now()),
		Catalog: r.cfg.Catalog,
	}
}

// PrintPlan writes the windows, data types and operation count.
func (r *Runner) PrintPlan(p Plan) {
	fmt.Fprintln(r.out, "\n📅 Date ranges to process:")
	for _, w := range p.Windows {
		fmt.Fprintf(r.out, "  • %s: %s to %s\n", w.Label, w.StartString(), w.EndString())
	}

	fmt.Fprintln(r.out, "\n📋 Data types to process:")
	for _, d := range p.Catalog {
		fmt.Fprintf(r.out, "  • %s %s (ID: %s)\n", d.Glyph, d.Name, d.ID)
	}

	fmt.Fprintf(r.out, "\n🎯 Total operations to perform: %d\n", p.Total())
}

// Confirm asks the operator to approve total requests. Only "y" and "yes"
// (any case) approve; EOF counts as a refusal.
func Confirm(in io.Reader, out io.Writer, total int) bool {
	fmt.Fprintf(out, "\n⚠️  This will make %d API requests. Continue? (y/N): ", total)

	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && line == "" {
		return false
	}

	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	default:
		return false
	}
}

// Run executes every operation of p in order. If ctx is cancelled before the
// last operation finishes, the results completed so far are returned together
// with the context error.
func (r *Runner) Run(ctx context.Context, p Plan) ([]domain.OperationResult, error) {
	total := p.Total()
	results := make([]domain.OperationResult, 0, total)
	started := r.now()

	fmt.Fprintf(r.out, "\n%s\n🚀 STARTING BULK IMPORT\n%s\n", Rule, Rule)
	logger.With(logger.Fields{logger.FieldCount: total}).Info(ctx, "Starting bulk import")

	operation := 0
	for _, w := range p.Windows {
		fmt.Fprintf(r.out, "\n📅 Processing %s (%s to %s)\n", w.Label, w.StartString(), w.EndString())

		for _, d := range p.Catalog {
			if err := ctx.Err(); err != nil {
				return results, err
			}

			operation++
			fmt.Fprintf(r.out, "  [%d/%d] %s %s...\n", operation, total, d.Glyph, d.Name)

			opCtx := logger.WithFields(ctx, logger.Fields{
				logger.FieldOperation: operation,
				logger.FieldWindow:    w.Label,
				logger.FieldDataType:  d.Name,
				logger.FieldExportID:  d.ID,
			})

			result := r.executor.Execute(opCtx, d, w)
			if err := ctx.Err(); err != nil {
				// The operation was cut short and is not a real outcome.
				return results, err
			}

			result.MonthName = w.Label
			result.StartDate = w.StartString()
			result.EndDate = w.EndString()
			result.OperationNumber = operation
			result.Timestamp = r.now().Format(time.RFC3339)
			results = append(results, result)

			if result.Success {
				fmt.Fprintf(r.out, "  ✅ %s %s: %d found, %d inserted, %d duplicates, %s\n",
					d.Glyph, d.Name, result.Found(), result.Inserted(), result.Duplicates(), result.Duration)
			} else {
				fmt.Fprintf(r.out, "  ❌ %s %s failed after %d attempts: %s\n",
					d.Glyph, d.Name, result.Attempts, result.Error)
			}

			// An interrupt while pacing after the final operation leaves a
			// complete run.
			if err := r.sleep(ctx, r.cfg.PacingDelay); err != nil && len(results) < total {
				return results, err
			}
		}
	}

	logger.With(logger.Fields{
		logger.FieldCount:      len(results),
		logger.FieldDurationMs: r.now().Sub(started).Milliseconds(),
	}).Info(ctx, "Bulk import finished")

	return results, nil
}

// Rule separates report sections on the console.
var Rule = strings.Repeat("=", 60)
