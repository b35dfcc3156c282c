package models

import "time"

// Event is the envelope published on the Kafka topics used by the sync service.
type Event struct {
	ID        string                 `json:"id"`
	Type      string                 `json:"type"` // holded.sync.requested, holded.sync.completed, holded.sync.failed
	Source    string                 `json:"source"`
	Data      map[string]interface{} `json:"data"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]string      `json:"metadata,omitempty"`
}

const (
	EventSyncRequested = "holded.sync.requested"
	EventSyncCompleted = "holded.sync.completed"
	EventSyncFailed    = "holded.sync.failed"
)

// SyncRequest is the payload of an EventSyncRequested event.
type SyncRequest struct {
	Company     string `json:"company"`
	RequestedBy string `json:"requested_by,omitempty"`
}

// SyncRequestFromEvent extracts the requested company from an event payload.
func SyncRequestFromEvent(event Event) (SyncRequest, bool) {
	company, _ := event.Data["company"].(string)
	if company == "" {
		return SyncRequest{}, false
	}
	requestedBy, _ := event.Data["requested_by"].(string)
	return SyncRequest{Company: company, RequestedBy: requestedBy}, true
}
