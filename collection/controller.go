// Package collection keeps the browsed catalog view synchronized: it owns
// the in-flight primary request, classifies the endpoint's pagination mode
// from the first response, pages further results in, and merges live story
// arrivals without disturbing pagination bookkeeping.
package collection

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"snda-browse/api"
	"snda-browse/catalog"
	"snda-browse/debounce"
)

// Mode classifies how the endpoint paginates. It is decided once per
// controller lifetime, from the shape of the first successful response, and
// never re-detected.
type Mode int

const (
	// ModeUnknown means no response has been classified yet.
	ModeUnknown Mode = iota
	// ModeCursor means the server pages: {results, next, count}.
	ModeCursor
	// ModeFlat means the server returned the whole collection and paging
	// happens locally over the filtered sequence.
	ModeFlat
)

// Fetcher is the slice of the API client the controller needs.
type Fetcher interface {
	ListReferrals(ctx context.Context, p api.ListParams) (*api.ListResult, error)
	FetchPage(ctx context.Context, rawURL string) (*api.ListResult, error)
}

// Controller is the collection synchronization controller. The materialized
// view has exactly two writers: the fetch path (replace on search, append on
// load-more) and the live merge path (prepend); both go through the mutex.
type Controller struct {
	fetcher   Fetcher
	pageSize  int
	debouncer *debounce.Scheduler

	rootCtx    context.Context
	rootCancel context.CancelFunc

	mu          sync.Mutex
	gen         int
	cancel      context.CancelFunc
	mode        Mode
	filters     catalog.FilterState
	items       []catalog.Item // the displayed view
	all         []catalog.Item // flat mode: full fetched sequence
	pageIndex   int            // flat mode: windows materialized so far
	next        string         // cursor mode: continuation URL
	total       int
	hasTotal    bool
	loadingMore bool
	lastErr     error
}

// Option configures a Controller.
type Option func(*Controller)

// WithPageSize sets the local page window size (default 10).
func WithPageSize(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.pageSize = n
		}
	}
}

// WithDebounceWindow sets the filter debounce window (default 300ms).
func WithDebounceWindow(d time.Duration) Option {
	return func(c *Controller) {
		c.debouncer = debounce.NewScheduler(d)
	}
}

// NewController creates a controller over the given fetcher.
func NewController(fetcher Fetcher, opts ...Option) *Controller {
	ctx, cancel := context.WithCancel(context.Background())
	c := &Controller{
		fetcher:    fetcher,
		pageSize:   10,
		debouncer:  debounce.NewScheduler(0),
		rootCtx:    ctx,
		rootCancel: cancel,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Search advances the fetch generation, cancels any in-flight primary
// request, resets paging to the first page and issues a new request. On
// success the view is replaced wholesale; a superseded or cancelled request
// is silently dropped; any other failure is recorded as the retryable error
// without touching the view.
func (c *Controller) Search(ctx context.Context, filters catalog.FilterState) error {
	c.mu.Lock()
	c.gen++
	gen := c.gen
	if c.cancel != nil {
		c.cancel()
	}
	fctx, cancel := context.WithCancel(ctx)
	c.cancel = cancel
	c.filters = filters
	params := api.ListParams{Page: 1, PageSize: c.pageSize, Filters: filters}
	c.mu.Unlock()

	res, err := c.fetcher.ListReferrals(fctx, params)

	c.mu.Lock()
	defer c.mu.Unlock()

	if gen != c.gen {
		// A newer search superseded this one; discard whatever arrived.
		return nil
	}
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		c.lastErr = err
		return err
	}

	c.lastErr = nil
	c.commit(res)
	return nil
}

// SetFilters stores the filter state and schedules a debounced Search, so a
// burst of keystrokes produces a single request carrying the last value.
func (c *Controller) SetFilters(filters catalog.FilterState) {
	c.mu.Lock()
	c.filters = filters
	c.mu.Unlock()

	c.debouncer.Trigger(func() {
		if err := c.Search(c.rootCtx, filters); err != nil {
			slog.Warn("debounced search failed", "error", err)
		}
	})
}

// commit applies the first-response mode decision and replaces the view.
// Caller holds the mutex.
func (c *Controller) commit(res *api.ListResult) {
	if c.mode == ModeUnknown {
		switch res.Shape {
		case api.ShapeEnvelope:
			c.mode = ModeCursor
		case api.ShapeArray:
			c.mode = ModeFlat
		default:
			// Recoverable degradation: treat as an empty flat collection.
			c.mode = ModeFlat
			slog.Warn("unknown collection response shape, treating as empty flat list")
		}
	}

	switch c.mode {
	case ModeCursor:
		c.items = append([]catalog.Item(nil), res.Items...)
		c.next = res.Next
		if res.HasCount {
			c.total = res.Count
			c.hasTotal = true
		}
	case ModeFlat:
		c.all = append([]catalog.Item(nil), res.Items...)
		c.total = len(c.all)
		c.hasTotal = true
		c.next = ""
		c.pageIndex = 1
		filtered := c.filters.Filter(c.all)
		end := min(c.pageSize, len(filtered))
		c.items = append([]catalog.Item(nil), filtered[:end]...)
	}
}

// LoadMore extends the view by one page. A call while another load is in
// flight, or when no further page exists, is dropped rather than queued.
func (c *Controller) LoadMore(ctx context.Context) error {
	c.mu.Lock()
	if c.loadingMore || !c.hasMoreLocked() {
		c.mu.Unlock()
		return nil
	}
	c.loadingMore = true
	mode := c.mode
	next := c.next
	c.mu.Unlock()

	if mode == ModeFlat {
		c.mu.Lock()
		defer c.mu.Unlock()
		c.loadingMore = false
		filtered := c.filters.Filter(c.all)
		start := c.pageIndex * c.pageSize
		if start < len(filtered) {
			end := min(start+c.pageSize, len(filtered))
			c.items = append(c.items, filtered[start:end]...)
		}
		c.pageIndex++
		return nil
	}

	res, err := c.fetcher.FetchPage(ctx, next)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loadingMore = false

	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil
		}
		c.lastErr = err
		return err
	}
	if res.Shape != api.ShapeEnvelope {
		slog.Warn("unexpected shape on continuation page, dropping")
		return nil
	}
	c.items = append(c.items, res.Items...)
	c.next = res.Next
	if res.HasCount {
		c.total = res.Count
		c.hasTotal = true
	}
	return nil
}

// HasMore reports whether another page is available.
func (c *Controller) HasMore() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hasMoreLocked()
}

func (c *Controller) hasMoreLocked() bool {
	switch c.mode {
	case ModeCursor:
		return c.next != ""
	case ModeFlat:
		return c.pageIndex*c.pageSize < len(c.filters.Filter(c.all))
	default:
		return false
	}
}

// Prepend merges a live story arrival into the view. The insertion is
// head-only and touches neither the fetch generation, the continuation
// cursor, the local page index nor the total, so live items never count
// against load-more bookkeeping. Items lacking an identity or a title are
// dropped as malformed.
func (c *Controller) Prepend(it catalog.Item) bool {
	if it.ID == "" || it.Title == "" {
		slog.Warn("dropping malformed live item", "id", it.ID)
		return false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.items = append([]catalog.Item{it}, c.items...)
	return true
}

// AdjustLikeCount applies an optimistic like-count delta to the item with
// the given id. This is the only mutation permitted on a materialized item.
func (c *Controller) AdjustLikeCount(id catalog.ID, delta int) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.items {
		if c.items[i].ID == id {
			c.items[i].LikeCount += delta
		}
	}
	for i := range c.all {
		if c.all[i].ID == id {
			c.all[i].LikeCount += delta
		}
	}
}

// Retry re-issues the last query. Retries are user-initiated; there is no
// automatic backoff on the fetch path.
func (c *Controller) Retry(ctx context.Context) error {
	c.mu.Lock()
	filters := c.filters
	c.mu.Unlock()
	return c.Search(ctx, filters)
}

// Items returns a copy of the currently displayed view.
func (c *Controller) Items() []catalog.Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]catalog.Item(nil), c.items...)
}

// Mode returns the pagination mode decided for this session.
func (c *Controller) Mode() Mode {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.mode
}

// Total returns the reported collection total, when known.
func (c *Controller) Total() (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.total, c.hasTotal
}

// Filters returns the current filter state.
func (c *Controller) Filters() catalog.FilterState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filters
}

// Err returns the retryable error from the last failed fetch, if any.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

// Close cancels in-flight and scheduled work. The controller must not be
// used afterwards.
func (c *Controller) Close() {
	c.debouncer.Stop()
	c.mu.Lock()
	if c.cancel != nil {
		c.cancel()
	}
	c.mu.Unlock()
	c.rootCancel()
}
