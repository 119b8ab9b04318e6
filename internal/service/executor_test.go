package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/timmy/bulkimport/internal/client"
	"github.com/timmy/bulkimport/internal/domain"
)

// fakeAPI answers Import calls from a script; once the script runs out the
// last entry repeats.
type fakeAPI struct {
	script   []func() (*client.ImportResponse, error)
	requests []client.ImportRequest
	health   func() (string, error)
}

func (f *fakeAPI) Import(ctx context.Context, req client.ImportRequest) (*client.ImportResponse, error) {
	f.requests = append(f.requests, req)
	i := len(f.requests) - 1
	if i >= len(f.script) {
		i = len(f.script) - 1
	}
	return f.script[i]()
}

func (f *fakeAPI) Health(ctx context.Context) (string, error) {
	if f.health == nil {
		return "ok", nil
	}
	return f.health()
}

func fail(err error) func() (*client.ImportResponse, error) {
	return func() (*client.ImportResponse, error) { return nil, err }
}

func succeed(found, inserted, dup int) func() (*client.ImportResponse, error) {
	return func() (*client.ImportResponse, error) {
		return &client.ImportResponse{
			Success:  true,
			Duration: "3s",
			Results: &client.ImportResults{
				FilteredRecordsFound: found,
				Database:             &client.DatabaseResult{RecordsInserted: inserted, DuplicatesSkipped: dup},
				JSONFile:             &client.JSONFileResult{Filename: "out.json"},
			},
		}, nil
	}
}

// recordSleep records requested delays without blocking.
type recordSleep struct {
	delays []time.Duration
}

func (r *recordSleep) sleep(ctx context.Context, d time.Duration) error {
	r.delays = append(r.delays, d)
	return ctx.Err()
}

var (
	testDescriptor = domain.DataTypeDescriptor{ID: "5157670999", Name: "users", Glyph: "👥"}
	testWindow     = domain.DateWindow{
		StartDate: time.Date(2025, time.July, 1, 0, 0, 0, 0, time.UTC),
		EndDate:   time.Date(2025, time.July, 15, 0, 0, 0, 0, time.UTC),
		Label:     "July 2025",
		Year:      2025,
		Month:     time.July,
	}
)

func TestExecutor_RetryBound(t *testing.T) {
	for _, maxAttempts := range []int{1, 2, 3, 5} {
		api := &fakeAPI{script: []func() (*client.ImportResponse, error){
			fail(&client.ProtocolError{StatusCode: 503, Body: "busy"}),
		}}
		rs := &recordSleep{}
		exec := NewExecutor(api, &ExecutorConfig{MaxAttempts: maxAttempts, BackoffBase: time.Second}, rs.sleep)

		result := exec.Execute(context.Background(), testDescriptor, testWindow)

		assert.Len(t, api.requests, maxAttempts, "max=%d", maxAttempts)
		assert.False(t, result.Success, "max=%d", maxAttempts)
		assert.Equal(t, maxAttempts, result.Attempts, "max=%d", maxAttempts)
		assert.Len(t, rs.delays, maxAttempts-1, "max=%d backoff sleeps", maxAttempts)
		assert.Contains(t, result.Error, "HTTP 503")
	}
}

func TestExecutor_SucceedsOnAttemptK(t *testing.T) {
	for k := 1; k <= 3; k++ {
		script := make([]func() (*client.ImportResponse, error), 0, k)
		for i := 1; i < k; i++ {
			script = append(script, fail(&client.TransportError{Err: errors.New("connection refused")}))
		}
		script = append(script, succeed(12, 10, 2))

		api := &fakeAPI{script: script}
		exec := NewExecutor(api, &ExecutorConfig{MaxAttempts: 3, BackoffBase: time.Second}, (&recordSleep{}).sleep)

		result := exec.Execute(context.Background(), testDescriptor, testWindow)

		assert.Len(t, api.requests, k, "k=%d", k)
		require.True(t, result.Success, "k=%d: %s", k, result.Error)
		assert.Equal(t, 12, result.Found())
		assert.Equal(t, 10, result.Inserted())
		assert.Equal(t, 2, result.Duplicates())
		assert.Equal(t, "out.json", result.JSONFile)
		assert.Equal(t, "3s", result.Duration)
		assert.Equal(t, k, result.Attempts)
	}
}

func TestExecutor_ExponentialBackoff(t *testing.T) {
	api := &fakeAPI{script: []func() (*client.ImportResponse, error){
		fail(&client.ApplicationError{Message: "locked"}),
	}}
	rs := &recordSleep{}
	exec := NewExecutor(api, &ExecutorConfig{MaxAttempts: 4, BackoffBase: time.Second}, rs.sleep)

	exec.Execute(context.Background(), testDescriptor, testWindow)

	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second}, rs.delays)
}

func TestExecutor_BackoffIsCapped(t *testing.T) {
	exec := NewExecutor(&fakeAPI{}, &ExecutorConfig{BackoffBase: time.Second}, nil)

	ceiling := time.Second << maxBackoffExponent
	prev := time.Duration(0)
	for _, attempt := range []int{1, 2, maxBackoffExponent, 30, 34, 63, 64, 1000} {
		d := exec.Backoff(attempt)
		assert.Positive(t, d, "attempt %d", attempt)
		assert.LessOrEqual(t, d, ceiling, "attempt %d", attempt)
		assert.GreaterOrEqual(t, d, prev, "attempt %d", attempt)
		prev = d
	}
	assert.Equal(t, ceiling, exec.Backoff(64))
}

func TestExecutor_RequestBody(t *testing.T) {
	api := &fakeAPI{script: []func() (*client.ImportResponse, error){succeed(0, 0, 0)}}
	exec := NewExecutor(api, &ExecutorConfig{}, (&recordSleep{}).sleep)

	exec.Execute(context.Background(), testDescriptor, testWindow)

	want := client.ImportRequest{ID: "5157670999", StartDate: "2025-07-01", EndDate: "2025-07-15"}
	assert.Equal(t, []client.ImportRequest{want}, api.requests)
}

func TestExecutor_MissingFieldsUseDefaults(t *testing.T) {
	api := &fakeAPI{script: []func() (*client.ImportResponse, error){
		func() (*client.ImportResponse, error) { return &client.ImportResponse{Success: true}, nil },
	}}
	exec := NewExecutor(api, &ExecutorConfig{}, (&recordSleep{}).sleep)

	result := exec.Execute(context.Background(), testDescriptor, testWindow)

	require.True(t, result.Success)
	assert.Equal(t, "Unknown", result.Duration)
	assert.Equal(t, "N/A", result.JSONFile)
	require.NotNil(t, result.RecordsFound)
	assert.Zero(t, *result.RecordsFound)
}

func TestExecutor_DefaultMaxAttempts(t *testing.T) {
	api := &fakeAPI{script: []func() (*client.ImportResponse, error){fail(errors.New("x"))}}
	exec := NewExecutor(api, &ExecutorConfig{}, (&recordSleep{}).sleep)

	exec.Execute(context.Background(), testDescriptor, testWindow)

	assert.Len(t, api.requests, DefaultMaxAttempts)
}

func TestExecutor_CancelledDuringBackoff(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	api := &fakeAPI{script: []func() (*client.ImportResponse, error){fail(errors.New("down"))}}
	sleep := func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}
	exec := NewExecutor(api, &ExecutorConfig{MaxAttempts: 3, BackoffBase: time.Second}, sleep)

	result := exec.Execute(ctx, testDescriptor, testWindow)

	assert.Len(t, api.requests, 1)
	assert.False(t, result.Success)
	assert.Contains(t, result.Error, "retry interrupted")
}

func TestExecutor_HTTP500(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "internal failure", http.StatusInternalServerError)
	}))
	defer srv.Close()

	api := client.New(&client.Config{ImportURL: srv.URL + "/import-filtered-data", RequestTimeout: 5 * time.Second})
	exec := NewExecutor(api, &ExecutorConfig{MaxAttempts: 3, BackoffBase: time.Millisecond}, nil)

	result := exec.Execute(context.Background(), testDescriptor, testWindow)

	require.False(t, result.Success)
	assert.Contains(t, result.Error, "HTTP 500")
	assert.Equal(t, 3, calls)
}

func TestSleep(t *testing.T) {
	assert.NoError(t, Sleep(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, Sleep(ctx, time.Hour), context.Canceled)
}
