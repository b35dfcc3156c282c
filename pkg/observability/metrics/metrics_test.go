package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestWritePrometheusReportsSyncCounters(t *testing.T) {
	ObserveSyncStarted()
	ObserveSyncCompleted(3, 2, 1, 1500*time.Millisecond)
	ObserveSyncRejected()

	rec := httptest.NewRecorder()
	WritePrometheus(rec)
	body := rec.Body.String()

	for _, want := range []string{
		"holded_sync_last_documents_count 3",
		"holded_sync_last_duration_milliseconds 1500",
		"# TYPE holded_sync_runs_started_total counter",
	} {
		if !strings.Contains(body, want) {
			t.Fatalf("expected %q in metrics output:\n%s", want, body)
		}
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Fatalf("unexpected content type %q", ct)
	}
}
