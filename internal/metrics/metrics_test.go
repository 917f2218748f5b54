package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestHTTPMiddlewareUsesRoutePattern(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /events/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	wrapped := HTTPMiddleware(mux)

	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/events/{param}", "404"))
	for _, id := range []string{"1", "2", "3"} {
		rec := httptest.NewRecorder()
		wrapped.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/events/"+id, nil))
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	}
	after := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "/events/{param}", "404"))
	if after-before != 3 {
		t.Fatalf("expected 3 requests recorded under the route pattern, got %v", after-before)
	}
}

func TestHTTPMiddlewareUnmatched(t *testing.T) {
	handler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("OK"))
	})
	before := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "unmatched", "200"))

	rec := httptest.NewRecorder()
	HTTPMiddleware(handler).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/anything", nil))

	after := testutil.ToFloat64(HTTPRequestsTotal.WithLabelValues("GET", "unmatched", "200"))
	if after-before != 1 {
		t.Fatalf("expected one unmatched request, got %v", after-before)
	}
}

func TestResponseWriterDefaults(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: rec}

	content := []byte("Hello, World!")
	_, _ = rw.Write(content)

	if rw.statusCode != http.StatusOK {
		t.Errorf("expected status code 200, got %d", rw.statusCode)
	}
	if rw.bytesWritten != len(content) {
		t.Errorf("expected %d bytes written, got %d", len(content), rw.bytesWritten)
	}
}

func TestDBCollector(t *testing.T) {
	collector := NewDBCollector(func() PoolStats {
		return PoolStats{Open: 3, InUse: 1, Idle: 2, MaxOpen: 10}
	})
	collector.collect()

	if got := testutil.ToFloat64(DBConnectionsOpen); got != 3 {
		t.Fatalf("open = %v, want 3", got)
	}
	if got := testutil.ToFloat64(DBConnectionsMaxOpen); got != 10 {
		t.Fatalf("max open = %v, want 10", got)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		collector.Start(ctx, time.Hour)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("collector did not stop on context cancellation")
	}
}

func TestDBCollectorNilSource(t *testing.T) {
	collector := NewDBCollector(nil)
	collector.collect()
	collector.Stop()
}
