package metrics

import (
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

var (
	syncStarted        atomic.Int64
	syncCompleted      atomic.Int64
	syncFailed         atomic.Int64
	syncRejected       atomic.Int64
	syncInFlight       atomic.Int64
	invoicesInserted   atomic.Int64
	invoicesUpdated    atomic.Int64
	lastDocumentsCount atomic.Int64
	lastDurationMillis atomic.Int64
	lastSuccessUnix    atomic.Int64
)

func ObserveSyncStarted() {
	syncStarted.Add(1)
	syncInFlight.Add(1)
}

func ObserveSyncCompleted(documents, inserted, updated int, duration time.Duration) {
	syncInFlight.Add(-1)
	syncCompleted.Add(1)
	invoicesInserted.Add(int64(inserted))
	invoicesUpdated.Add(int64(updated))
	lastDocumentsCount.Store(int64(documents))
	lastDurationMillis.Store(duration.Milliseconds())
	lastSuccessUnix.Store(time.Now().Unix())
}

func ObserveSyncFailed(duration time.Duration) {
	syncInFlight.Add(-1)
	syncFailed.Add(1)
	lastDurationMillis.Store(duration.Milliseconds())
}

// ObserveSyncRejected counts requests refused because a sync was already running.
func ObserveSyncRejected() {
	syncRejected.Add(1)
}

func WritePrometheus(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	fmt.Fprintf(w, "# HELP holded_sync_runs_started_total Number of purchase syncs started.\n")
	fmt.Fprintf(w, "# TYPE holded_sync_runs_started_total counter\n")
	fmt.Fprintf(w, "holded_sync_runs_started_total %d\n", syncStarted.Load())

	fmt.Fprintf(w, "# HELP holded_sync_runs_completed_total Number of purchase syncs that completed.\n")
	fmt.Fprintf(w, "# TYPE holded_sync_runs_completed_total counter\n")
	fmt.Fprintf(w, "holded_sync_runs_completed_total %d\n", syncCompleted.Load())

	fmt.Fprintf(w, "# HELP holded_sync_runs_failed_total Number of purchase syncs that aborted.\n")
	fmt.Fprintf(w, "# TYPE holded_sync_runs_failed_total counter\n")
	fmt.Fprintf(w, "holded_sync_runs_failed_total %d\n", syncFailed.Load())

	fmt.Fprintf(w, "# HELP holded_sync_runs_rejected_total Number of sync requests rejected because one was already running.\n")
	fmt.Fprintf(w, "# TYPE holded_sync_runs_rejected_total counter\n")
	fmt.Fprintf(w, "holded_sync_runs_rejected_total %d\n", syncRejected.Load())

	fmt.Fprintf(w, "# HELP holded_sync_runs_in_flight Number of syncs currently running.\n")
	fmt.Fprintf(w, "# TYPE holded_sync_runs_in_flight gauge\n")
	fmt.Fprintf(w, "holded_sync_runs_in_flight %d\n", syncInFlight.Load())

	fmt.Fprintf(w, "# HELP holded_sync_invoices_inserted_total Number of invoices inserted by syncs.\n")
	fmt.Fprintf(w, "# TYPE holded_sync_invoices_inserted_total counter\n")
	fmt.Fprintf(w, "holded_sync_invoices_inserted_total %d\n", invoicesInserted.Load())

	fmt.Fprintf(w, "# HELP holded_sync_invoices_updated_total Number of invoices updated by syncs.\n")
	fmt.Fprintf(w, "# TYPE holded_sync_invoices_updated_total counter\n")
	fmt.Fprintf(w, "holded_sync_invoices_updated_total %d\n", invoicesUpdated.Load())

	fmt.Fprintf(w, "# HELP holded_sync_last_documents_count Number of documents handled by the latest completed sync.\n")
	fmt.Fprintf(w, "# TYPE holded_sync_last_documents_count gauge\n")
	fmt.Fprintf(w, "holded_sync_last_documents_count %d\n", lastDocumentsCount.Load())

	fmt.Fprintf(w, "# HELP holded_sync_last_duration_milliseconds Duration of the latest sync.\n")
	fmt.Fprintf(w, "# TYPE holded_sync_last_duration_milliseconds gauge\n")
	fmt.Fprintf(w, "holded_sync_last_duration_milliseconds %d\n", lastDurationMillis.Load())

	fmt.Fprintf(w, "# HELP holded_sync_last_success_timestamp_seconds Unix time of the latest completed sync.\n")
	fmt.Fprintf(w, "# TYPE holded_sync_last_success_timestamp_seconds gauge\n")
	fmt.Fprintf(w, "holded_sync_last_success_timestamp_seconds %d\n", lastSuccessUnix.Load())
}
