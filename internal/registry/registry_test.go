package registry

import (
	"testing"

	"github.com/rs/zerolog"
)

func TestAddGetCount(t *testing.T) {
	r := New(zerolog.Nop())
	r.Add(&Client{ID: "c1", PeerAddr: "127.0.0.1:1111"})
	r.Add(&Client{ID: "c2", PeerAddr: "127.0.0.1:2222"})

	if r.Count() != 2 {
		t.Fatalf("expected count 2, got %d", r.Count())
	}
	if _, ok := r.Get("c1"); !ok {
		t.Fatal("expected c1 to be registered")
	}
}

func TestRemoveIsIdempotent(t *testing.T) {
	r := New(zerolog.Nop())
	r.Add(&Client{ID: "c1"})

	r.Remove("c1")
	if r.Count() != 0 {
		t.Fatalf("expected count 0 after removal, got %d", r.Count())
	}

	// Second removal of the same id, and removal of an unknown id, must
	// both be no-ops rather than panicking.
	r.Remove("c1")
	r.Remove("unknown")
}

func TestSnapshotIsACopy(t *testing.T) {
	r := New(zerolog.Nop())
	r.Add(&Client{ID: "c1"})

	snap := r.Snapshot()
	r.Add(&Client{ID: "c2"})

	if len(snap) != 1 {
		t.Fatalf("snapshot should not observe later mutations, got %d entries", len(snap))
	}
}
