// Package likes tracks the session's liked items and applies optimistic
// like-count mutations. An unauthenticated like is not an error: the intent
// is queued, the user is sent to sign in, and the queue is replayed in order
// once authentication completes.
package likes

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"snda-browse/auth"
	"snda-browse/catalog"
	"snda-browse/session"
)

var (
	// ErrAuthRequired signals that the intent was queued and the caller
	// should redirect to sign-in.
	ErrAuthRequired = errors.New("authentication required")
	// ErrCoolingDown signals a repeated interaction inside the cool-down
	// window; the caller should ignore it.
	ErrCoolingDown = errors.New("interaction cooling down")
)

const (
	likedKey        = "snda-liked-stories"
	pendingKey      = "snda-pending-likes"
	defaultCooldown = 500 * time.Millisecond
)

// Collection is the single write surface the manager has on displayed items.
type Collection interface {
	AdjustLikeCount(id catalog.ID, delta int)
}

// Manager is the per-session like state machine. Every mutation is persisted
// to the session store before the call returns, so a redirect or reload
// never loses an in-flight intent.
type Manager struct {
	store    session.Store
	auth     auth.Authenticator
	coll     Collection
	cooldown time.Duration
	now      func() time.Time

	mu         sync.Mutex
	liked      map[catalog.ID]bool
	likedOrder []catalog.ID
	pending    []catalog.ID
	lastToggle map[catalog.ID]time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithCooldown sets the double-submit guard window (default 500ms).
func WithCooldown(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.cooldown = d
		}
	}
}

// WithClock overrides the time source (for testing).
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates a manager and loads any persisted state, including a
// pending queue left over from an interrupted login round trip.
func NewManager(ctx context.Context, store session.Store, authenticator auth.Authenticator, coll Collection, opts ...Option) (*Manager, error) {
	m := &Manager{
		store:      store,
		auth:       authenticator,
		coll:       coll,
		cooldown:   defaultCooldown,
		now:        time.Now,
		liked:      make(map[catalog.ID]bool),
		lastToggle: make(map[catalog.ID]time.Time),
	}
	for _, opt := range opts {
		opt(m)
	}

	if err := m.load(ctx); err != nil {
		return nil, fmt.Errorf("load like state: %w", err)
	}
	return m, nil
}

func (m *Manager) load(ctx context.Context) error {
	likedIDs, err := readIDList(ctx, m.store, likedKey)
	if err != nil {
		return err
	}
	for _, id := range likedIDs {
		if !m.liked[id] {
			m.liked[id] = true
			m.likedOrder = append(m.likedOrder, id)
		}
	}

	m.pending, err = readIDList(ctx, m.store, pendingKey)
	return err
}

// Toggle flips the like state of an item. Authenticated: applies the
// optimistic ±1 through the collection and persists the membership change.
// Unauthenticated: queues the intent (deduplicated) and returns
// ErrAuthRequired. A repeat inside the cool-down window returns
// ErrCoolingDown and changes nothing.
func (m *Manager) Toggle(ctx context.Context, id catalog.ID) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.auth.IsAuthenticated() {
		return m.queuePendingLocked(ctx, id)
	}

	if last, ok := m.lastToggle[id]; ok && m.now().Sub(last) < m.cooldown {
		return ErrCoolingDown
	}

	if err := m.flipLocked(ctx, id); err != nil {
		return err
	}
	m.lastToggle[id] = m.now()
	return nil
}

// queuePendingLocked records an intent for replay after sign-in. Already
// queued ids are not re-queued.
func (m *Manager) queuePendingLocked(ctx context.Context, id catalog.ID) error {
	for _, queued := range m.pending {
		if queued == id {
			return ErrAuthRequired
		}
	}
	m.pending = append(m.pending, id)
	if err := writeIDList(ctx, m.store, pendingKey, m.pending); err != nil {
		m.pending = m.pending[:len(m.pending)-1]
		return fmt.Errorf("persist pending like: %w", err)
	}
	return ErrAuthRequired
}

// flipLocked toggles membership and applies the matching count delta. The
// membership change and the count mutation always carry the same sign.
func (m *Manager) flipLocked(ctx context.Context, id catalog.ID) error {
	delta := 1
	if m.liked[id] {
		delta = -1
		delete(m.liked, id)
		for i, existing := range m.likedOrder {
			if existing == id {
				m.likedOrder = append(m.likedOrder[:i], m.likedOrder[i+1:]...)
				break
			}
		}
	} else {
		m.liked[id] = true
		m.likedOrder = append(m.likedOrder, id)
	}

	if err := writeIDList(ctx, m.store, likedKey, m.likedOrder); err != nil {
		return fmt.Errorf("persist liked set: %w", err)
	}

	m.coll.AdjustLikeCount(id, delta)
	return nil
}

// ProcessPending drains the pending queue in FIFO order after authentication
// succeeds. Each queued id transitions to liked exactly as the authenticated
// path does; ids that are somehow already liked are skipped rather than
// double-counted. Returns the number of likes applied.
func (m *Manager) ProcessPending(ctx context.Context) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.auth.IsAuthenticated() {
		return 0, ErrAuthRequired
	}

	applied := 0
	for _, id := range m.pending {
		if m.liked[id] {
			continue
		}
		if err := m.flipLocked(ctx, id); err != nil {
			return applied, err
		}
		m.lastToggle[id] = m.now()
		applied++
	}

	m.pending = nil
	if err := m.store.Delete(ctx, pendingKey); err != nil {
		return applied, fmt.Errorf("clear pending likes: %w", err)
	}
	return applied, nil
}

// IsLiked reports whether the session has liked the item.
func (m *Manager) IsLiked(id catalog.ID) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.liked[id]
}

// Pending returns a copy of the queued intents, in order.
func (m *Manager) Pending() []catalog.ID {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]catalog.ID(nil), m.pending...)
}

// LikedCount returns the number of items the session has liked.
func (m *Manager) LikedCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.liked)
}

// Reset clears all like state and queued intents.
func (m *Manager) Reset(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.liked = make(map[catalog.ID]bool)
	m.likedOrder = nil
	m.pending = nil
	m.lastToggle = make(map[catalog.ID]time.Time)

	if err := m.store.Delete(ctx, likedKey); err != nil {
		return err
	}
	return m.store.Delete(ctx, pendingKey)
}

func readIDList(ctx context.Context, store session.Store, key string) ([]catalog.ID, error) {
	raw, err := store.Get(ctx, key)
	if errors.Is(err, session.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var list []catalog.ID
	if err := json.Unmarshal([]byte(raw), &list); err != nil {
		// A corrupt entry degrades to an empty set rather than failing the
		// whole session.
		return nil, nil
	}
	return list, nil
}

func writeIDList(ctx context.Context, store session.Store, key string, list []catalog.ID) error {
	if list == nil {
		list = []catalog.ID{}
	}
	data, err := json.Marshal(list)
	if err != nil {
		return err
	}
	return store.Set(ctx, key, string(data))
}
