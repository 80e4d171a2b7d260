package state

import (
	"encoding/json"
	"testing"
)

type fakeLib struct{ names []string }

func (f fakeLib) List() ([]string, error) { return f.names, nil }

type fakeQueue struct{ names []string }

func (f fakeQueue) SnapshotNames() []string { return f.names }

func TestBuildAndMarshal(t *testing.T) {
	doc, err := Build(fakeLib{names: []string{"a.wav"}}, fakeQueue{names: []string{"b.wav"}}, 3)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if doc.ActiveListeners != 3 {
		t.Fatalf("unexpected listener count: %d", doc.ActiveListeners)
	}

	raw, err := doc.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("decode: %v", err)
	}
	for _, key := range []string{"active_listeners", "song_library", "song_queue"} {
		if _, ok := decoded[key]; !ok {
			t.Fatalf("missing key %q in %s", key, raw)
		}
	}
}

func TestBuildNilCollectionsBecomeEmptyArrays(t *testing.T) {
	doc, err := Build(fakeLib{}, fakeQueue{}, 0)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	raw, _ := doc.Marshal()
	if string(raw) != `{"active_listeners":0,"song_library":[],"song_queue":[]}` {
		t.Fatalf("expected empty arrays not null, got %s", raw)
	}
}
