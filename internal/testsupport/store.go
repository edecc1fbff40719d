package testsupport

import (
	"context"
	"fmt"
	"testing"
	"time"

	"nabscan/internal/config"
	"nabscan/internal/store"
)

// MustOpenStore opens a store.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		st.Close()
	})
	return st
}

// AddGroup registers a group for tests.
func AddGroup(t testing.TB, st *store.Store, name string, active bool) *store.Group {
	t.Helper()

	g, err := st.AddGroup(context.Background(), name, active)
	if err != nil {
		t.Fatalf("store.AddGroup: %v", err)
	}
	return g
}

// AddBinary records a binary posted at the given time for tests.
func AddBinary(t testing.TB, st *store.Store, hash string, posted time.Time) int64 {
	t.Helper()

	id, err := st.AddBinary(context.Background(), store.Binary{
		Hash:      hash,
		Name:      hash,
		GroupName: "alt.binaries.test",
		Posted:    posted,
	})
	if err != nil {
		t.Fatalf("store.AddBinary: %v", err)
	}
	return id
}

// AddSegments records n segments in the given group for tests.
func AddSegments(t testing.TB, st *store.Store, groupID int64, prefix string, n int) {
	t.Helper()

	for i := 0; i < n; i++ {
		if _, err := st.AddSegment(context.Background(), store.Segment{
			GroupID:   groupID,
			MessageID: fmt.Sprintf("%s-%d@test", prefix, i),
			Number:    i + 1,
			Size:      1024,
		}); err != nil {
			t.Fatalf("store.AddSegment: %v", err)
		}
	}
}
