package handler

import (
	"fmt"
	"hash/fnv"
	"math/rand"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/timmy/bulkimport/internal/api/middleware"
	"github.com/timmy/bulkimport/internal/client"
	"github.com/timmy/bulkimport/internal/domain"
)

// ImportHandler simulates the filtered-data import endpoint. Record counts are
// derived from the request so repeated runs are reproducible, and a range
// imported twice reports its records as duplicates the second time.
type ImportHandler struct {
	failRate float64

	mu       sync.Mutex
	rng      *rand.Rand
	imported map[string]bool
}

// ImportHandlerConfig holds configuration for the import handler.
type ImportHandlerConfig struct {
	// FailRate is the probability in [0,1] of answering 500.
	FailRate float64
	Seed     int64
}

// NewImportHandler creates a new import handler.
func NewImportHandler(cfg *ImportHandlerConfig) *ImportHandler {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &ImportHandler{
		failRate: cfg.FailRate,
		rng:      rand.New(rand.NewSource(seed)),
		imported: make(map[string]bool),
	}
}

type importBody struct {
	ID        string `json:"id" binding:"required"`
	StartDate string `json:"startDate" binding:"required"`
	EndDate   string `json:"endDate" binding:"required"`
}

// Import handles POST /import-filtered-data.
func (h *ImportHandler) Import(c *gin.Context) {
	started := time.Now()
	log := middleware.GetLogger(c)

	var req importBody
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"success": false,
			"message": "Invalid request: " + err.Error(),
		})
		return
	}

	start, err1 := time.Parse(domain.DateLayout, req.StartDate)
	end, err2 := time.Parse(domain.DateLayout, req.EndDate)
	if err1 != nil || err2 != nil || end.Before(start) {
		c.JSON(http.StatusOK, gin.H{
			"success": false,
			"message": fmt.Sprintf("invalid date range %s..%s", req.StartDate, req.EndDate),
		})
		return
	}

	key := req.ID + "|" + req.StartDate + "|" + req.EndDate

	h.mu.Lock()
	failed := h.failRate > 0 && h.rng.Float64() < h.failRate
	seen := h.imported[key]
	if !failed {
		h.imported[key] = true
	}
	h.mu.Unlock()

	if failed {
		log.WithField("export_id", req.ID).Warn("Simulated import failure")
		c.String(http.StatusInternalServerError, "simulated import failure")
		return
	}

	days := int(end.Sub(start).Hours()/24) + 1
	found := recordCount(key, days)
	inserted, duplicates := found, 0
	if seen {
		inserted, duplicates = 0, found
	}

	resp := client.ImportResponse{
		Success: true,
		Results: &client.ImportResults{
			FilteredRecordsFound: found,
			Database: &client.DatabaseResult{
				RecordsInserted:   inserted,
				DuplicatesSkipped: duplicates,
			},
			JSONFile: &client.JSONFileResult{
				Filename: fmt.Sprintf("%s_%s_%s_%s.json", req.ID, req.StartDate, req.EndDate, uuid.NewString()[:8]),
			},
		},
		Duration: time.Since(started).String(),
	}

	c.JSON(http.StatusOK, resp)
}

// recordCount returns a stable pseudo record count for a range.
func recordCount(key string, days int) int {
	h := fnv.New32a()
	h.Write([]byte(key))
	return days * int(h.Sum32()%50)
}
