package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timmy/bulkimport/internal/api/handler"
	"github.com/timmy/bulkimport/internal/client"
	"github.com/timmy/bulkimport/internal/logger"
)

func newStub(t *testing.T, failRate float64) (*httptest.Server, *client.Client) {
	t.Helper()
	log := logger.New(&logger.Config{Level: "error", Output: io.Discard})
	r := SetupRouter(&RouterConfig{
		Mode:   "test",
		Import: &handler.ImportHandlerConfig{FailRate: failRate, Seed: 42},
	}, log)

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)

	c := client.New(&client.Config{
		ImportURL:      srv.URL + "/import-filtered-data",
		HealthURL:      srv.URL + "/health",
		RequestTimeout: 5 * time.Second,
	})
	return srv, c
}

func TestStub_Health(t *testing.T) {
	_, c := newStub(t, 0)

	status, err := c.Health(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", status)
}

func TestStub_ImportIsReproducible(t *testing.T) {
	_, c := newStub(t, 0)
	req := client.ImportRequest{ID: "5157670999", StartDate: "2025-07-01", EndDate: "2025-07-31"}

	first, err := c.Import(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, first.Results)

	assert.True(t, first.Success)
	assert.Equal(t, first.Results.FilteredRecordsFound, first.Results.Database.RecordsInserted)
	assert.Zero(t, first.Results.Database.DuplicatesSkipped)
	assert.True(t, strings.HasPrefix(first.Results.JSONFile.Filename, "5157670999_2025-07-01_2025-07-31_"))
	assert.NotEmpty(t, first.Duration)

	second, err := c.Import(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, first.Results.FilteredRecordsFound, second.Results.FilteredRecordsFound)
	assert.Zero(t, second.Results.Database.RecordsInserted)
	assert.Equal(t, first.Results.FilteredRecordsFound, second.Results.Database.DuplicatesSkipped)
}

func TestStub_InvalidRange(t *testing.T) {
	_, c := newStub(t, 0)

	_, err := c.Import(context.Background(), client.ImportRequest{ID: "1", StartDate: "2025-07-31", EndDate: "2025-07-01"})

	var ae *client.ApplicationError
	require.True(t, errors.As(err, &ae), "expected application error, got %v", err)
	assert.Contains(t, ae.Message, "invalid date range")
}

func TestStub_MissingFields(t *testing.T) {
	srv, _ := newStub(t, 0)

	body, _ := json.Marshal(map[string]string{"id": "1"})
	resp, err := http.Post(srv.URL+"/import-filtered-data", "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestStub_FailRate(t *testing.T) {
	_, c := newStub(t, 1)

	_, err := c.Import(context.Background(), client.ImportRequest{ID: "1", StartDate: "2025-07-01", EndDate: "2025-07-02"})

	var pe *client.ProtocolError
	require.True(t, errors.As(err, &pe), "expected protocol error, got %v", err)
	assert.Equal(t, http.StatusInternalServerError, pe.StatusCode)
	assert.Contains(t, err.Error(), "HTTP 500")
}
