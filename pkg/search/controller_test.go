package search

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// callbackRecorder collects controller callback invocations for
// assertions without racing the timer goroutine.
type callbackRecorder struct {
	mu       sync.Mutex
	results  [][]Record
	keywords []string
}

func (r *callbackRecorder) onFilter(records []Record) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.results = append(r.results, records)
}

func (r *callbackRecorder) onChange(keyword string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.keywords = append(r.keywords, keyword)
}

func (r *callbackRecorder) snapshot() (int, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kws := append([]string(nil), r.keywords...)
	return len(r.results), kws
}

func (r *callbackRecorder) lastResult() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.results) == 0 {
		return nil
	}
	return r.results[len(r.results)-1]
}

var sampleRecords = []Record{
	{"id": 1, "name": "Acme Corp"},
	{"id": 2, "name": "Beta LLC"},
}

func TestControllerDebounceCoalescing(t *testing.T) {
	rec := &callbackRecorder{}
	c := NewController(sampleRecords, nil, ControllerConfig{
		Debounce: 30 * time.Millisecond,
		OnFilter: rec.onFilter,
		OnChange: rec.onChange,
	})
	defer c.Close()

	// Rapid keystrokes within the debounce window: only the final value
	// commits, producing exactly one keyword transition and at most one
	// filter delivery.
	c.Input("a")
	c.Input("ac")
	c.Input("acm")
	c.Input("acme")

	require.Eventually(t, func() bool {
		n, _ := rec.snapshot()
		return n == 1
	}, time.Second, 5*time.Millisecond)

	n, keywords := rec.snapshot()
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"acme"}, keywords)

	got := rec.lastResult()
	require.Len(t, got, 1)
	assert.Equal(t, 1, got[0]["id"])
}

func TestControllerCommitTrimsKeyword(t *testing.T) {
	rec := &callbackRecorder{}
	c := NewController(sampleRecords, nil, ControllerConfig{
		Debounce: -1,
		OnFilter: rec.onFilter,
		OnChange: rec.onChange,
	})
	defer c.Close()

	c.Input("  acme  ")
	assert.Equal(t, "  acme  ", c.Value())
	assert.Equal(t, "acme", c.Keyword())
}

func TestControllerSuppressesRedundantDeliveries(t *testing.T) {
	rec := &callbackRecorder{}
	c := NewController(sampleRecords, nil, ControllerConfig{
		Debounce: -1,
		OnFilter: rec.onFilter,
	})
	defer c.Close()

	c.Input("acme")
	c.Input("acme corp") // still matches only id 1
	c.Input("acme")

	n, _ := rec.snapshot()
	assert.Equal(t, 1, n, "identical identity sequences must not re-deliver")
}

func TestControllerSetValueBypassesDebounceAndOnChange(t *testing.T) {
	rec := &callbackRecorder{}
	c := NewController(sampleRecords, nil, ControllerConfig{
		Debounce: time.Hour, // would never fire within the test
		OnFilter: rec.onFilter,
		OnChange: rec.onChange,
	})
	defer c.Close()

	c.SetValue("beta")

	assert.Equal(t, "beta", c.Keyword(), "external value commits immediately")
	_, keywords := rec.snapshot()
	assert.Empty(t, keywords, "external value must not be re-emitted")

	got := rec.lastResult()
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0]["id"])

	// Re-applying the same external value is a no-op.
	c.SetValue("beta")
	n, _ := rec.snapshot()
	assert.Equal(t, 1, n)
}

func TestControllerCloseCancelsPendingTimer(t *testing.T) {
	rec := &callbackRecorder{}
	c := NewController(sampleRecords, nil, ControllerConfig{
		Debounce: 20 * time.Millisecond,
		OnFilter: rec.onFilter,
	})

	c.Input("acme")
	c.Close()

	time.Sleep(60 * time.Millisecond)
	n, _ := rec.snapshot()
	assert.Zero(t, n, "no callback may fire after Close")
}

func TestControllerSetRecordsReruns(t *testing.T) {
	rec := &callbackRecorder{}
	c := NewController(sampleRecords, nil, ControllerConfig{
		Debounce: -1,
		OnFilter: rec.onFilter,
	})
	defer c.Close()

	c.Input("corp")
	first := rec.lastResult()
	require.Len(t, first, 1)

	c.SetRecords([]Record{
		{"id": 7, "name": "Corp of Seven"},
		{"id": 8, "name": "Unrelated"},
	})
	got := rec.lastResult()
	require.Len(t, got, 1)
	assert.Equal(t, 7, got[0]["id"])
}

func TestControllerFlush(t *testing.T) {
	rec := &callbackRecorder{}
	c := NewController(sampleRecords, nil, ControllerConfig{
		Debounce: time.Hour,
		OnFilter: rec.onFilter,
	})
	defer c.Close()

	c.Input("beta")
	c.Flush()

	got := rec.lastResult()
	require.Len(t, got, 1)
	assert.Equal(t, 2, got[0]["id"])
}

func TestControllerIdentityFallbackToIndex(t *testing.T) {
	rec := &callbackRecorder{}
	noIDs := []Record{{"name": "ax"}, {"name": "bx"}}
	c := NewController(noIDs, nil, ControllerConfig{
		Debounce: -1,
		OnFilter: rec.onFilter,
	})
	defer c.Close()

	c.Input("x")
	n, _ := rec.snapshot()
	assert.Equal(t, 1, n)
	assert.Len(t, rec.lastResult(), 2)
}
