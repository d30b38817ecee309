// Package live subscribes to the story push channel. It owns the connection
// lifecycle (dial, reconnect with capped exponential backoff, teardown) and
// hands each decoded story to a per-message callback; what happens to the
// story after that is the merger's business, not ours.
package live

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/gorilla/websocket"

	"snda-browse/catalog"
)

const (
	initialReconnectWait = time.Second
	maxReconnectWait     = 30 * time.Second
)

// URL converts an http(s) base URL and a path into the ws(s) endpoint.
func URL(base, path string) (string, error) {
	u, err := url.Parse(base)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("invalid base URL %q", base)
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	case "http":
		u.Scheme = "ws"
	default:
		return "", fmt.Errorf("unsupported scheme %q", u.Scheme)
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	u.Path = path
	u.RawQuery = ""
	return u.String(), nil
}

// DecodeStory extracts a story from a push frame. Frames arrive either as
// {"story": {...}} or as a bare story object; anything lacking an identity
// or a title is rejected as malformed.
func DecodeStory(data []byte) (catalog.Item, bool) {
	var wrapped struct {
		Story *catalog.Item `json:"story"`
	}
	if err := json.Unmarshal(data, &wrapped); err == nil && wrapped.Story != nil {
		return validate(*wrapped.Story)
	}

	var bare catalog.Item
	if err := json.Unmarshal(data, &bare); err == nil {
		return validate(bare)
	}
	return catalog.Item{}, false
}

func validate(it catalog.Item) (catalog.Item, bool) {
	if it.ID == "" || it.Title == "" {
		return catalog.Item{}, false
	}
	return it, true
}

// Subscription is a live connection to the story channel. Stop is the
// teardown handle returned at subscribe time.
type Subscription struct {
	url     string
	onStory func(catalog.Item)
	dialer  *websocket.Dialer

	cancel context.CancelFunc
	done   chan struct{}

	mu   sync.Mutex
	conn *websocket.Conn
}

// Subscribe dials the channel and invokes onStory for every valid story
// frame, in arrival order. The connection reconnects with exponential
// backoff (1s initial, 30s cap) until Stop is called; a successful dial
// resets the backoff. Malformed frames are dropped silently.
func Subscribe(rawURL string, onStory func(catalog.Item)) *Subscription {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Subscription{
		url:     rawURL,
		onStory: onStory,
		dialer:  websocket.DefaultDialer,
		cancel:  cancel,
		done:    make(chan struct{}),
	}
	go s.run(ctx)
	return s
}

func (s *Subscription) run(ctx context.Context) {
	defer close(s.done)

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = initialReconnectWait
	bo.MaxInterval = maxReconnectWait
	bo.MaxElapsedTime = 0 // never give up; teardown is explicit

	for {
		if ctx.Err() != nil {
			return
		}

		conn, _, err := s.dialer.DialContext(ctx, s.url, nil)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			wait := bo.NextBackOff()
			slog.Warn("story channel dial failed", "url", s.url, "retry_in", wait, "error", err)
			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}
			continue
		}

		bo.Reset()
		s.setConn(conn)
		s.readLoop(ctx, conn)
		s.setConn(nil)
		conn.Close()

		if ctx.Err() != nil {
			return
		}
		wait := bo.NextBackOff()
		slog.Info("story channel disconnected, reconnecting", "retry_in", wait)
		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}

func (s *Subscription) readLoop(ctx context.Context, conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return
		}
		story, ok := DecodeStory(data)
		if !ok {
			continue
		}
		if ctx.Err() != nil {
			return
		}
		s.onStory(story)
	}
}

func (s *Subscription) setConn(conn *websocket.Conn) {
	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
}

// Stop tears the subscription down and waits for the read loop to exit.
// Safe to call more than once.
func (s *Subscription) Stop() {
	s.cancel()
	s.mu.Lock()
	if s.conn != nil {
		s.conn.Close() // unblocks ReadMessage
	}
	s.mu.Unlock()
	<-s.done
}
