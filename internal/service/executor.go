package service

import (
	"context"
	"fmt"
	"time"

	"github.com/timmy/bulkimport/internal/client"
	"github.com/timmy/bulkimport/internal/domain"
	"github.com/timmy/bulkimport/internal/logger"
)

const (
	// DefaultMaxAttempts is used when ExecutorConfig.MaxAttempts is not positive.
	DefaultMaxAttempts = 3

	// maxBackoffExponent caps the doubling in Backoff.
	maxBackoffExponent = 16
)

// ImportAPI is the subset of the import server used by the driver.
type ImportAPI interface {
	Import(ctx context.Context, req client.ImportRequest) (*client.ImportResponse, error)
	Health(ctx context.Context) (string, error)
}

// SleepFunc blocks for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the SleepFunc used outside of tests.
func Sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// ExecutorConfig holds configuration for the import request executor.
type ExecutorConfig struct {
	MaxAttempts int
	// BackoffBase is multiplied by 2^attempt after a failed attempt.
	BackoffBase time.Duration
}

// Executor performs one import operation with bounded retries.
type Executor struct {
	api         ImportAPI
	maxAttempts int
	backoffBase time.Duration
	sleep       SleepFunc
}

// NewExecutor creates a new executor. A nil sleep uses Sleep.
func NewExecutor(api ImportAPI, cfg *ExecutorConfig, sleep SleepFunc) *Executor {
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	if sleep == nil {
		sleep = Sleep
	}
	return &Executor{
		api:         api,
		maxAttempts: maxAttempts,
		backoffBase: cfg.BackoffBase,
		sleep:       sleep,
	}
}

// Backoff returns the delay after the given failed attempt: base * 2^attempt,
// with the exponent capped at maxBackoffExponent.
func (e *Executor) Backoff(attempt int) time.Duration {
	attempt = min(max(attempt, 0), maxBackoffExponent)
	return e.backoffBase * time.Duration(1<<attempt)
}

// Execute imports one data type for one window. It never returns an error:
// transport, protocol and application failures are retried and, once the
// attempts are exhausted, reported in the returned result.
func (e *Executor) Execute(ctx context.Context, d domain.DataTypeDescriptor, w domain.DateWindow) domain.OperationResult {
	req := client.ImportRequest{
		ID:        d.ID,
		StartDate: w.StartString(),
		EndDate:   w.EndString(),
	}

	var lastErr error
	attempts := 0
	for attempt := 1; attempt <= e.maxAttempts; attempt++ {
		attempts = attempt
		logger.With(logger.Fields{"max_attempts": e.maxAttempts}).WithAttempt(attempt).
			Info(ctx, "Requesting %s data (attempt %d/%d)", d.Name, attempt, e.maxAttempts)

		start := time.Now()
		resp, err := e.api.Import(ctx, req)
		if err == nil {
			result := successResult(d, resp)
			result.Attempts = attempt
			logger.With(logger.Fields{logger.FieldCount: result.Inserted()}).
				WithAttempt(attempt).
				WithDuration(time.Since(start).Milliseconds()).
				Info(ctx, "%s %s: %d found, %d inserted, %d duplicates, %s",
				d.Glyph, d.Name, result.Found(), result.Inserted(), result.Duplicates(), result.Duration)
			return result
		}

		lastErr = err
		logger.With(logger.Fields{"max_attempts": e.maxAttempts}).WithAttempt(attempt).
			Warn(ctx, "%s %s attempt %d failed: %v", d.Glyph, d.Name, attempt, err)

		if ctx.Err() != nil {
			break
		}

		if attempt < e.maxAttempts {
			wait := e.Backoff(attempt)
			logger.CtxInfo(ctx, "Retrying in %s", wait)
			if err := e.sleep(ctx, wait); err != nil {
				lastErr = fmt.Errorf("retry interrupted: %w", err)
				logger.CtxWarn(ctx, "Retry of %s aborted: %v", d.Name, err)
				break
			}
		}
	}

	return domain.OperationResult{
		Success:  false,
		ExportID: d.ID,
		DataType: d.Name,
		Error:    lastErr.Error(),
		Attempts: attempts,
	}
}

func successResult(d domain.DataTypeDescriptor, resp *client.ImportResponse) domain.OperationResult {
	var found, inserted, duplicates int
	jsonFile := "N/A"

	if r := resp.Results; r != nil {
		found = r.FilteredRecordsFound
		if r.Database != nil {
			inserted = r.Database.RecordsInserted
			duplicates = r.Database.DuplicatesSkipped
		}
		if r.JSONFile != nil && r.JSONFile.Filename != "" {
			jsonFile = r.JSONFile.Filename
		}
	}

	duration := resp.Duration
	if duration == "" {
		duration = "Unknown"
	}

	return domain.OperationResult{
		Success:           true,
		ExportID:          d.ID,
		DataType:          d.Name,
		RecordsFound:      &found,
		RecordsInserted:   &inserted,
		DuplicatesSkipped: &duplicates,
		Duration:          duration,
		JSONFile:          jsonFile,
	}
}
