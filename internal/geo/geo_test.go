package geo

import "testing"

func TestNilLookupCountryIsEmpty(t *testing.T) {
	var l *Lookup
	if got := l.Country("203.0.113.5:1234"); got != "" {
		t.Fatalf("expected empty country for nil lookup, got %q", got)
	}
}

func TestOpenMissingFileFails(t *testing.T) {
	if _, err := Open("/nonexistent/path.mmdb"); err == nil {
		t.Fatal("expected error opening a missing database file")
	}
}

func TestCountryWithoutReaderIsEmpty(t *testing.T) {
	l := &Lookup{}
	if got := l.Country("not-an-address"); got != "" {
		t.Fatalf("expected empty country without a loaded database, got %q", got)
	}
}
