package search

import (
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"
)

// DefaultDebounce is the delay between the last keystroke and the
// committed filter run when the caller does not configure one.
const DefaultDebounce = 300 * time.Millisecond

// DefaultIdentityKey is the record field used to decide whether a new
// filtered result is materially different from the last delivered one.
const DefaultIdentityKey = "id"

// ControllerConfig configures a Controller. Zero values fall back to
// package defaults.
type ControllerConfig struct {
	// Debounce is the quiet period after the last keystroke before the
	// keyword commits. Zero means DefaultDebounce; negative disables
	// debouncing entirely (every Input commits synchronously, useful in
	// tests).
	Debounce time.Duration

	// IdentityKey names the record field whose value identifies a
	// record across filter runs. Records lacking the field fall back to
	// their position index.
	IdentityKey string

	// OnFilter receives the filtered collection, but only when its
	// identity sequence differs from the previously delivered one.
	OnFilter func([]Record)

	// OnChange reports the committed (debounced, trimmed) keyword.
	// External SetValue calls are not re-emitted through it.
	OnChange func(string)
}

// Controller bridges raw per-keystroke input to Filter invocations. It
// owns at most one pending debounce timer; arming a new one always
// cancels the previous (last keystroke wins, stale filter runs are
// never queued). All methods are safe for concurrent use; the timer
// callback runs on its own goroutine.
type Controller struct {
	mu       sync.Mutex
	cfg      ControllerConfig
	records  []Record
	cols     []Column
	timer    *time.Timer
	gen      uint64 // correlates a fired timer with the latest arm
	raw      string // last user-typed value, shown immediately
	external string // last externally set value, never re-emitted
	keyword  string // committed keyword
	lastIDs  []string
	emitted  bool // whether any result has been delivered yet
	closed   bool
}

// NewController builds a Controller over an initial record collection.
func NewController(records []Record, cols []Column, cfg ControllerConfig) *Controller {
	if cfg.Debounce == 0 {
		cfg.Debounce = DefaultDebounce
	}
	if cfg.IdentityKey == "" {
		cfg.IdentityKey = DefaultIdentityKey
	}
	return &Controller{cfg: cfg, records: records, cols: cols}
}

// SetRecords replaces the source collection and re-runs the committed
// keyword against it.
func (c *Controller) SetRecords(records []Record) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.records = records
	c.commitLocked(c.keyword, false)
}

// SetColumns replaces the column descriptors and re-runs the committed
// keyword.
func (c *Controller) SetColumns(cols []Column) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.cols = cols
	c.commitLocked(c.keyword, false)
}

// Input records a keystroke. The raw value is stored immediately (the
// caller's input display must never lag) and the commit is deferred by
// the debounce interval; only the final value of a rapid burst commits.
func (c *Controller) Input(value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.raw = value
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	if c.cfg.Debounce < 0 {
		c.commitLocked(trimmed(value), true)
		return
	}
	c.gen++
	gen := c.gen
	c.timer = time.AfterFunc(c.cfg.Debounce, func() {
		c.fire(gen)
	})
}

// SetValue synchronizes an externally controlled value: the displayed
// input and committed keyword update immediately, bypassing debounce,
// and the change is not echoed back through OnChange (guards against
// update loops between controller and owner).
func (c *Controller) SetValue(value string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed || value == c.external {
		return
	}
	c.external = value
	c.raw = value
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.commitLocked(trimmed(value), false)
}

// Value returns the raw input value as currently displayed.
func (c *Controller) Value() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.raw
}

// Keyword returns the committed keyword.
func (c *Controller) Keyword() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.keyword
}

// Flush commits any pending input immediately, without waiting for the
// debounce timer.
func (c *Controller) Flush() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.commitLocked(trimmed(c.raw), true)
}

// Close cancels any pending timer. A timer that has already fired but
// not yet run becomes a no-op; no callback fires after Close returns.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Controller) fire(gen uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	// A newer keystroke re-armed the timer, or the controller closed,
	// between this timer firing and acquiring the lock.
	if c.closed || gen != c.gen {
		return
	}
	c.timer = nil
	c.commitLocked(trimmed(c.raw), true)
}

// commitLocked runs the filter for a committed keyword and delivers the
// result when its identity sequence differs from the last delivery.
// notify controls whether OnChange reports the keyword (external value
// synchronization passes false). Callbacks are invoked while the mutex
// is held; they must not call back into the controller synchronously.
func (c *Controller) commitLocked(keyword string, notify bool) {
	changed := keyword != c.keyword
	c.keyword = keyword
	if notify && changed && c.cfg.OnChange != nil {
		c.cfg.OnChange(keyword)
	}

	filtered := Filter(c.records, keyword, c.cols)
	ids := identitySequence(filtered, c.cfg.IdentityKey)
	if c.emitted && equalSequences(ids, c.lastIDs) {
		return
	}
	c.lastIDs = ids
	c.emitted = true
	if c.cfg.OnFilter != nil {
		c.cfg.OnFilter(filtered)
	}
}

// identitySequence derives the ordered identity keys of a collection.
// Structural equality over this sequence decides whether a delivery is
// redundant; records are never deep-compared.
func identitySequence(records []Record, key string) []string {
	ids := make([]string, len(records))
	for i, rec := range records {
		if v, ok := rec[key]; ok && v != nil {
			ids[i] = stringifyID(v)
			continue
		}
		ids[i] = "#" + strconv.Itoa(i)
	}
	return ids
}

func stringifyID(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		// JSON numbers decode as float64; render integral ones without
		// the fractional part so 1 and 1.0 identify the same record.
		if t == float64(int64(t)) {
			return strconv.FormatInt(int64(t), 10)
		}
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprint(t)
	}
}

func equalSequences(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func trimmed(s string) string {
	return strings.TrimSpace(s)
}
