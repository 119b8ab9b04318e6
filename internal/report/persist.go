// Package report saves and summarizes the results of a bulk import run.
package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"time"

	"github.com/timmy/bulkimport/internal/domain"
	"github.com/timmy/bulkimport/internal/logger"
	"github.com/timmy/bulkimport/internal/storage"
)

// FileName returns the results file name for a run saved at t.
func FileName(t time.Time) string {
	return fmt.Sprintf("bulk_import_results_%s.json", t.Format("20060102_150405"))
}

// Persister writes result files and optionally mirrors them to object storage.
type Persister struct {
	dir    string
	store  storage.ObjectStorage
	prefix string
	now    func() time.Time
}

// PersisterConfig holds configuration for the persister.
type PersisterConfig struct {
	Dir    string
	Store  storage.ObjectStorage // nil disables uploads
	Prefix string
	Now    func() time.Time
}

// NewPersister creates a new persister.
func NewPersister(cfg *PersisterConfig) *Persister {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	dir := cfg.Dir
	if dir == "" {
		dir = "."
	}
	return &Persister{
		dir:    dir,
		store:  cfg.Store,
		prefix: cfg.Prefix,
		now:    now,
	}
}

// Save writes results as an indented JSON array and returns the file path.
// A failed upload is logged and does not fail Save.
func (p *Persister) Save(ctx context.Context, results []domain.OperationResult) (string, error) {
	if results == nil {
		results = []domain.OperationResult{}
	}

	data, err := json.MarshalIndent(results, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to encode results: %w", err)
	}

	name := FileName(p.now())
	filePath := filepath.Join(p.dir, name)

	if err := os.MkdirAll(p.dir, 0o755); err != nil {
		return filePath, fmt.Errorf("failed to create output dir: %w", err)
	}
	if err := os.WriteFile(filePath, data, 0o644); err != nil {
		return filePath, fmt.Errorf("failed to write results: %w", err)
	}

	logger.With(logger.Fields{logger.FieldCount: len(results)}).
		Info(ctx, "Results saved to %s", filePath)

	if p.store != nil {
		key := path.Join(p.prefix, name)
		if err := p.store.Upload(ctx, key, bytes.NewReader(data), int64(len(data)), "application/json"); err != nil {
			logger.CtxWarn(ctx, "Failed to upload results to %s: %v", key, err)
		} else {
			logger.CtxInfo(ctx, "Results uploaded to %s", p.store.GetURL(key))
		}
	}

	return filePath, nil
}
