package session

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
)

func newTestDB(t *testing.T) (*DB, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "session.db")
	db, err := NewDB(path)
	if err != nil {
		t.Fatalf("NewDB failed: %v", err)
	}
	return db, path
}

func TestDBGetSetDelete(t *testing.T) {
	db, _ := newTestDB(t)
	defer db.Close()
	ctx := context.Background()

	if _, err := db.Get(ctx, "missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) = %v, want ErrNotFound", err)
	}

	if err := db.Set(ctx, "snda-liked-stories", `["a","b"]`); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, err := db.Get(ctx, "snda-liked-stories")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if got != `["a","b"]` {
		t.Errorf("Get = %q", got)
	}

	// Overwrite
	if err := db.Set(ctx, "snda-liked-stories", `["a"]`); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, _ = db.Get(ctx, "snda-liked-stories")
	if got != `["a"]` {
		t.Errorf("Get after overwrite = %q", got)
	}

	if err := db.Delete(ctx, "snda-liked-stories"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := db.Get(ctx, "snda-liked-stories"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after delete = %v, want ErrNotFound", err)
	}

	// Deleting an absent key is fine
	if err := db.Delete(ctx, "never-set"); err != nil {
		t.Errorf("Delete(absent) = %v", err)
	}
}

func TestDBSurvivesReopen(t *testing.T) {
	db, path := newTestDB(t)
	ctx := context.Background()

	if err := db.Set(ctx, "snda-pending-likes", `["x"]`); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	db.Close()

	// Simulates the redirect-to-login-and-back round trip: a fresh process
	// reopening the same session database must see the pending intent.
	reopened, err := NewDB(path)
	if err != nil {
		t.Fatalf("reopen failed: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.Get(ctx, "snda-pending-likes")
	if err != nil {
		t.Fatalf("Get after reopen failed: %v", err)
	}
	if got != `["x"]` {
		t.Errorf("Get after reopen = %q", got)
	}
}

func TestMemoryStore(t *testing.T) {
	m := NewMemory()
	ctx := context.Background()

	if _, err := m.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get(missing) = %v, want ErrNotFound", err)
	}

	if err := m.Set(ctx, "k", "v"); err != nil {
		t.Fatalf("Set failed: %v", err)
	}
	got, err := m.Get(ctx, "k")
	if err != nil || got != "v" {
		t.Errorf("Get = %q, %v", got, err)
	}

	if err := m.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := m.Get(ctx, "k"); !errors.Is(err, ErrNotFound) {
		t.Errorf("Get after delete = %v, want ErrNotFound", err)
	}
}

var _ Store = (*DB)(nil)
var _ Store = (*Memory)(nil)
