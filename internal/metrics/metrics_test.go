package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestNewRegistersExpectedCollectors(t *testing.T) {
	m := New()
	m.ClientsConnected.Set(2)
	m.CommandsHandled.WithLabelValues("upload").Inc()
	m.ClientDisconnects.Inc()
	m.ChunksBroadcast.Inc()
	m.AudioSendFailures.Inc()
	m.StateBroadcastSent.Inc()

	rr := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/metrics", nil)
	Handler().ServeHTTP(rr, req)

	if rr.Code != 200 {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	body := rr.Body.String()
	for _, want := range []string{"aethercast_clients_connected", "aethercast_commands_handled_total", "aethercast_chunks_broadcast_total"} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected metrics output to mention %q, got:\n%s", want, body)
		}
	}
}
