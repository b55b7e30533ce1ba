package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestCounter(t *testing.T) {
	r := New()
	c := r.Counter("events_total", "Total events.")
	c.Inc()
	c.Add(2)
	if c.Value() != 3 {
		t.Fatalf("value = %d, want 3", c.Value())
	}
	if again := r.Counter("events_total", ""); again != c {
		t.Fatal("same name returned a different counter")
	}
}

func TestGauge(t *testing.T) {
	r := New()
	g := r.Gauge("inflight", "")
	g.Set(5)
	g.Inc()
	g.Dec()
	g.Dec()
	if g.Value() != 4 {
		t.Fatalf("value = %d, want 4", g.Value())
	}
}

func TestLabeledCounters_ShareTypeHeader(t *testing.T) {
	r := New()
	r.Counter(WithLabels("match_total", "outcome", "found"), "Match outcomes.").Inc()
	r.Counter(WithLabels("match_total", "outcome", "not_found"), "").Add(2)

	out := r.Render()
	if strings.Count(out, "# TYPE match_total counter") != 1 {
		t.Fatalf("want exactly one TYPE line:\n%s", out)
	}
	if !strings.Contains(out, `match_total{outcome="found"} 1`) {
		t.Fatalf("missing found series:\n%s", out)
	}
	if !strings.Contains(out, `match_total{outcome="not_found"} 2`) {
		t.Fatalf("missing not_found series:\n%s", out)
	}
}

func TestHistogram_CumulativeBuckets(t *testing.T) {
	r := New()
	h := r.Histogram("latency_seconds", "Request latency.", []float64{0.1, 1, 10})
	h.Observe(0.05)
	h.Observe(0.5)
	h.Observe(0.7)
	h.Observe(100) // above all buckets, counts only toward +Inf

	out := r.Render()
	for _, want := range []string{
		`latency_seconds_bucket{le="0.1"} 1`,
		`latency_seconds_bucket{le="1"} 3`,
		`latency_seconds_bucket{le="10"} 3`,
		`latency_seconds_bucket{le="+Inf"} 4`,
		`latency_seconds_count 4`,
	} {
		if !strings.Contains(out, want) {
			t.Errorf("missing %q in:\n%s", want, out)
		}
	}
}

func TestWithLabels(t *testing.T) {
	if got := WithLabels("m", "a", "1", "b", "2"); got != `m{a="1",b="2"}` {
		t.Fatalf("got %q", got)
	}
	if got := WithLabels("m", "dangling"); got != "m" {
		t.Fatalf("odd kvs should return bare name, got %q", got)
	}
}

func TestHandler(t *testing.T) {
	r := New()
	r.Counter("up", "").Inc()
	rec := httptest.NewRecorder()
	r.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	if !strings.Contains(rec.Body.String(), "up 1") {
		t.Fatalf("body = %s", rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "text/plain") {
		t.Fatalf("content type = %q", ct)
	}
}
