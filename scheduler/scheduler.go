// Package scheduler runs the daily catalog refresh at a configured local time.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

var clockRegex = regexp.MustCompile(`^([01][0-9]|2[0-3]):([0-5][0-9])$`)

// RefreshFunc re-runs the catalog fetch. The context carries the deadline for
// one refresh attempt.
type RefreshFunc func(ctx context.Context) error

// Refresher triggers a catalog refresh once a day at a fixed wall-clock time.
type Refresher struct {
	cron     *cron.Cron
	location *time.Location
	refresh  RefreshFunc
	timeout  time.Duration

	mu      sync.Mutex
	entryID cron.EntryID
	started bool
}

// NewRefresher creates a refresher in the given timezone.
func NewRefresher(timezone string, refresh RefreshFunc) (*Refresher, error) {
	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return nil, fmt.Errorf("load timezone %q: %w", timezone, err)
	}

	return &Refresher{
		cron:     cron.New(cron.WithLocation(loc)),
		location: loc,
		refresh:  refresh,
		timeout:  time.Minute,
	}, nil
}

// ScheduleDaily sets the daily refresh time (HH:MM). Calling it again moves
// the existing job to the new time.
func (r *Refresher) ScheduleDaily(clock string) error {
	hour, minute, err := parseClock(clock)
	if err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.entryID != 0 {
		r.cron.Remove(r.entryID)
	}

	spec := fmt.Sprintf("%d %d * * *", minute, hour)
	entryID, err := r.cron.AddFunc(spec, r.runOnce)
	if err != nil {
		return fmt.Errorf("add refresh job: %w", err)
	}
	r.entryID = entryID

	return nil
}

// Start begins running scheduled refreshes.
func (r *Refresher) Start() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.started {
		r.cron.Start()
		r.started = true
	}
}

// Stop halts the schedule. A refresh already in flight finishes on its own.
func (r *Refresher) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.started {
		r.cron.Stop()
		r.started = false
	}
}

// NextRun reports when the next scheduled refresh will fire. The zero time
// means nothing is scheduled or the refresher is stopped.
func (r *Refresher) NextRun() time.Time {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.entryID == 0 {
		return time.Time{}
	}
	return r.cron.Entry(r.entryID).Next
}

// RunNow performs one refresh immediately, outside the schedule.
func (r *Refresher) RunNow(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()
	return r.refresh(ctx)
}

func (r *Refresher) runOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	start := time.Now()
	if err := r.refresh(ctx); err != nil {
		slog.Error("scheduled refresh failed", "error", err)
		return
	}
	slog.Info("scheduled refresh complete", "duration", time.Since(start))
}

func parseClock(clock string) (int, int, error) {
	matches := clockRegex.FindStringSubmatch(clock)
	if len(matches) != 3 {
		return 0, 0, fmt.Errorf("invalid refresh time: %q (expected HH:MM)", clock)
	}

	hour, _ := strconv.Atoi(matches[1])
	minute, _ := strconv.Atoi(matches[2])

	return hour, minute, nil
}
