package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"voxelscan.ai/internal/geom"
	"voxelscan.ai/internal/ids"
	"voxelscan.ai/internal/sonar"
)

func TestRecordSweep(t *testing.T) {
	m := New()
	coal := ids.MustVanilla("coal_ore")
	m.RecordSweep(sonar.Sweep{
		Started: 1000, Finished: 1020, Scanned: 50, Stored: 2,
		Found: []sonar.Partial{{Pos: geom.V(0, 0, 5), ID: coal}, {Pos: geom.V(0, 0, 6), ID: coal}},
	})
	m.RecordSweep(sonar.Sweep{Started: 2000, Finished: 2001, Scanned: 10, Stored: 1})

	if got := testutil.ToFloat64(m.sweeps); got != 2 {
		t.Fatalf("sweeps=%v", got)
	}
	if got := testutil.ToFloat64(m.scanned); got != 60 {
		t.Fatalf("scanned=%v", got)
	}
	if got := testutil.ToFloat64(m.matches.WithLabelValues("minecraft:coal_ore")); got != 2 {
		t.Fatalf("matches=%v", got)
	}
	if got := testutil.ToFloat64(m.stored); got != 1 {
		t.Fatalf("stored=%v", got)
	}
}

func TestHandlerServesGauges(t *testing.T) {
	m := New()
	m.Gauge("voxelscan_viewer_clients", "Subscribed viewers.", func() float64 { return 3 })

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "voxelscan_viewer_clients 3") {
		t.Fatalf("missing gauge in:\n%s", body)
	}
	if !strings.Contains(string(body), "voxelscan_sweeps_total 0") {
		t.Fatalf("missing counter in:\n%s", body)
	}
}
