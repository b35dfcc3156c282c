package models

import "testing"

func TestSyncRequestFromEvent(t *testing.T) {
	req, ok := SyncRequestFromEvent(Event{Data: map[string]interface{}{"company": "menjar", "requested_by": "cron"}})
	if !ok {
		t.Fatal("expected request")
	}
	if req.Company != "menjar" || req.RequestedBy != "cron" {
		t.Fatalf("unexpected request %+v", req)
	}

	if _, ok := SyncRequestFromEvent(Event{Data: map[string]interface{}{"company": 3}}); ok {
		t.Fatal("expected non-string company to be rejected")
	}
}
