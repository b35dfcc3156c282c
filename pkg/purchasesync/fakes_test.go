package purchasesync

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"sync"
	"testing"

	"github.com/solucions-socials/platform/pkg/common/config"
	"github.com/solucions-socials/platform/pkg/holded"
	"github.com/solucions-socials/platform/pkg/invoices"
)

type fakeHolded struct {
	mu        sync.Mutex
	purchases []map[string]interface{}
	contacts  []map[string]interface{}
}

func (f *fakeHolded) set(purchases, contacts []map[string]interface{}) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.purchases = purchases
	f.contacts = contacts
}

func (f *fakeHolded) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var items []map[string]interface{}
	switch r.URL.Path {
	case "/documents/purchase":
		items = f.purchases
	case "/contacts":
		items = f.contacts
	default:
		w.WriteHeader(http.StatusNotFound)
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	out := []map[string]interface{}{}
	if page >= 1 && limit >= 1 {
		for i := (page - 1) * limit; i < len(items) && i < page*limit; i++ {
			out = append(out, items[i])
		}
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

func newTestRegistry(t *testing.T, fake http.Handler) *holded.Registry {
	t.Helper()
	server := httptest.NewServer(fake)
	t.Cleanup(server.Close)

	tenants, err := config.NewTenants([]config.Tenant{{ID: "solucions", APIKey: "test-key", BaseURL: server.URL}})
	if err != nil {
		t.Fatalf("tenants: %v", err)
	}
	return holded.NewRegistry(tenants, server.Client(), holded.Options{})
}

type memoryStore struct {
	mu         sync.Mutex
	runs       map[string]invoices.SyncRun
	rows       map[string]invoices.Invoice
	updates    int
	failFind   error
	failInsert error
	failUpdate error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{runs: map[string]invoices.SyncRun{}, rows: map[string]invoices.Invoice{}}
}

func (m *memoryStore) CreateSyncRun(ctx context.Context, run *invoices.SyncRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs[run.ID] = *run
	return nil
}

func (m *memoryStore) DeleteSyncRun(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.runs, id)
	return nil
}

func (m *memoryStore) FinalizeSyncRun(ctx context.Context, id string, counts invoices.SyncCounts) (*invoices.SyncRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	run, ok := m.runs[id]
	if !ok {
		return nil, invoices.ErrSyncRunNotFound
	}
	run.Status = invoices.SyncStatusCompleted
	run.Processed = true
	run.Metadata = counts.Metadata()
	m.runs[id] = run
	return &run, nil
}

func (m *memoryStore) MarkSyncRunFailed(ctx context.Context, id string, counts invoices.SyncCounts, cause string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	run := m.runs[id]
	run.Status = invoices.SyncStatusFailed
	run.Metadata = counts.Metadata()
	run.Metadata["error"] = cause
	m.runs[id] = run
	return nil
}

func (m *memoryStore) ListSyncRuns(ctx context.Context, company string, limit int) ([]invoices.SyncRun, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []invoices.SyncRun
	for _, run := range m.runs {
		if company == "" || run.Company == company {
			out = append(out, run)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].UploadedAt.After(out[j].UploadedAt) })
	return out, nil
}

func (m *memoryStore) FindByHoldedIDs(ctx context.Context, holdedIDs []string) ([]invoices.Invoice, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failFind != nil {
		return nil, m.failFind
	}
	wanted := map[string]bool{}
	for _, id := range holdedIDs {
		wanted[id] = true
	}
	var out []invoices.Invoice
	for _, row := range m.rows {
		if wanted[row.HoldedKey()] {
			out = append(out, row)
		}
	}
	return out, nil
}

func (m *memoryStore) InsertInvoices(ctx context.Context, rows []invoices.Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failInsert != nil {
		return m.failInsert
	}
	for _, row := range rows {
		for _, existing := range m.rows {
			if row.HoldedKey() != "" && existing.HoldedKey() == row.HoldedKey() {
				return fmt.Errorf("duplicate key value violates unique constraint on holded_id %s", row.HoldedKey())
			}
		}
		m.rows[row.ID] = row
	}
	return nil
}

func (m *memoryStore) UpdateInvoice(ctx context.Context, id string, inv invoices.Invoice) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failUpdate != nil {
		return m.failUpdate
	}
	current, ok := m.rows[id]
	if !ok {
		return fmt.Errorf("invoice %s not found", id)
	}
	inv.ID = current.ID
	m.rows[id] = inv
	m.updates++
	return nil
}

func (m *memoryStore) storedInvoices() []invoices.Invoice {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]invoices.Invoice, 0, len(m.rows))
	for _, row := range m.rows {
		out = append(out, row)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].HoldedKey() < out[j].HoldedKey() })
	return out
}

func (m *memoryStore) syncRuns() []invoices.SyncRun {
	runs, _ := m.ListSyncRuns(context.Background(), "", 0)
	return runs
}

type recordedEvent struct {
	eventType string
	key       string
	data      map[string]interface{}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (p *recordingPublisher) PublishEvent(ctx context.Context, eventType, source, key string, data map[string]interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, recordedEvent{eventType: eventType, key: key, data: data})
	return nil
}

type stubSource struct {
	company   string
	purchases []holded.Purchase
	contacts  []holded.Contact
	err       error
}

func (s *stubSource) Company() string { return s.company }

func (s *stubSource) CollectOpenPurchases(ctx context.Context) ([]holded.Purchase, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.purchases, nil
}

func (s *stubSource) AllContacts(ctx context.Context) ([]holded.Contact, error) {
	return s.contacts, nil
}

func (s *stubSource) EnrichPurchases(ctx context.Context, purchases []holded.Purchase, contacts []holded.Contact) []holded.Purchase {
	return holded.Enrich(purchases, contacts)
}

func stubResolver(src *stubSource) SourceResolver {
	return func(company string) (Source, error) {
		if company != src.company {
			return nil, fmt.Errorf("%w: %q", holded.ErrUnknownCompany, company)
		}
		return src, nil
	}
}
