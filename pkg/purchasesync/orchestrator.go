package purchasesync

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/solucions-socials/platform/pkg/common/logger"
	"github.com/solucions-socials/platform/pkg/common/models"
	"github.com/solucions-socials/platform/pkg/holded"
	"github.com/solucions-socials/platform/pkg/invoices"
	"github.com/solucions-socials/platform/pkg/normalizer"
	"github.com/solucions-socials/platform/pkg/observability/metrics"
)

// State is the stage a sync run is in.
type State string

const (
	StateIdle              State = "idle"
	StateCollectingRemote  State = "collecting_remote"
	StateEnrichingContacts State = "enriching_contacts"
	StateTransforming      State = "transforming"
	StateDiffingPersisted  State = "diffing_persisted"
	StateWriting           State = "writing"
	StateFinalized         State = "finalized"
	StateAborted           State = "aborted"
)

const eventSource = "holded-sync"

// Source is the remote side of a sync for one company.
type Source interface {
	Company() string
	CollectOpenPurchases(ctx context.Context) ([]holded.Purchase, error)
	AllContacts(ctx context.Context) ([]holded.Contact, error)
	EnrichPurchases(ctx context.Context, purchases []holded.Purchase, contacts []holded.Contact) []holded.Purchase
}

// SourceResolver returns the Source of a company, or an error wrapping
// holded.ErrUnknownCompany.
type SourceResolver func(company string) (Source, error)

// Store persists invoices and sync runs.
type Store interface {
	CreateSyncRun(ctx context.Context, run *invoices.SyncRun) error
	DeleteSyncRun(ctx context.Context, id string) error
	FinalizeSyncRun(ctx context.Context, id string, counts invoices.SyncCounts) (*invoices.SyncRun, error)
	MarkSyncRunFailed(ctx context.Context, id string, counts invoices.SyncCounts, cause string) error
	ListSyncRuns(ctx context.Context, company string, limit int) ([]invoices.SyncRun, error)
	FindByHoldedIDs(ctx context.Context, holdedIDs []string) ([]invoices.Invoice, error)
	InsertInvoices(ctx context.Context, rows []invoices.Invoice) error
	UpdateInvoice(ctx context.Context, id string, inv invoices.Invoice) error
}

// Publisher emits sync lifecycle events. kafka.Producer satisfies it.
type Publisher interface {
	PublishEvent(ctx context.Context, eventType, source, key string, data map[string]interface{}) error
}

// Result is returned to callers after a successful sync.
type Result struct {
	Success        bool              `json:"success"`
	DocumentsCount int               `json:"documentsCount"`
	InsertedCount  int               `json:"insertedCount"`
	UpdatedCount   int               `json:"updatedCount"`
	SyncRecord     *invoices.SyncRun `json:"syncRecord"`
}

type Orchestrator struct {
	sources     SourceResolver
	store       Store
	transformer *normalizer.Transformer
	locker      Locker
	publisher   Publisher
	now         func() time.Time
}

func NewOrchestrator(sources SourceResolver, store Store, transformer *normalizer.Transformer, locker Locker, publisher Publisher) *Orchestrator {
	if transformer == nil {
		transformer = normalizer.NewTransformer(nil)
	}
	if locker == nil {
		locker = NewLocalLocker()
	}
	return &Orchestrator{
		sources:     sources,
		store:       store,
		transformer: transformer,
		locker:      locker,
		publisher:   publisher,
		now:         time.Now,
	}
}

// Sync pulls the open purchases of company from Holded and reconciles them
// with the stored invoices. Only one sync per company runs at a time.
func (o *Orchestrator) Sync(ctx context.Context, company string) (*Result, error) {
	source, err := o.sources(company)
	if err != nil {
		return nil, err
	}
	company = source.Company()

	release, err := o.locker.Acquire(ctx, company)
	if err != nil {
		if errors.Is(err, ErrSyncInProgress) {
			metrics.ObserveSyncRejected()
		}
		return nil, err
	}
	defer release()

	start := o.now()
	metrics.ObserveSyncStarted()
	log := logger.WithCompany(company)
	log.Info("holded sync started")

	result, err := o.run(ctx, company, source)
	elapsed := o.now().Sub(start)
	if err != nil {
		metrics.ObserveSyncFailed(elapsed)
		log.WithError(err).Error("holded sync failed")
		o.publish(ctx, models.EventSyncFailed, company, map[string]interface{}{
			"company": company,
			"error":   err.Error(),
			"code":    string(CodeOf(err)),
		})
		return nil, err
	}

	metrics.ObserveSyncCompleted(result.DocumentsCount, result.InsertedCount, result.UpdatedCount, elapsed)
	log.WithFields(map[string]interface{}{
		"documents":   result.DocumentsCount,
		"inserted":    result.InsertedCount,
		"updated":     result.UpdatedCount,
		"duration_ms": elapsed.Milliseconds(),
	}).Info("holded sync completed")
	o.publish(ctx, models.EventSyncCompleted, company, map[string]interface{}{
		"company":         company,
		"sync_run_id":     result.SyncRecord.ID,
		"documents_count": result.DocumentsCount,
		"inserted_count":  result.InsertedCount,
		"updated_count":   result.UpdatedCount,
	})
	return result, nil
}

type pendingUpdate struct {
	id  string
	row invoices.Invoice
}

func (o *Orchestrator) run(ctx context.Context, company string, source Source) (*Result, error) {
	state := StateCollectingRemote
	abort := func(err error) error {
		return &SyncError{Company: company, State: state, Err: err}
	}

	purchases, err := source.CollectOpenPurchases(ctx)
	if err != nil {
		return nil, abort(err)
	}

	state = StateEnrichingContacts
	contacts, err := source.AllContacts(ctx)
	if err != nil {
		return nil, abort(err)
	}
	purchases = source.EnrichPurchases(ctx, purchases, contacts)

	state = StateTransforming
	rows := make([]invoices.Invoice, 0, len(purchases))
	for _, p := range purchases {
		rows = append(rows, o.transformer.Transform(p))
	}

	state = StateDiffingPersisted
	now := o.now().UTC()
	counts := invoices.SyncCounts{Documents: len(rows)}
	run := &invoices.SyncRun{
		ID:         uuid.New().String(),
		Filename:   invoices.SyncFilename(company, now),
		Company:    company,
		Type:       invoices.SyncTypeHoldedAPI,
		Metadata:   counts.Metadata(),
		Status:     invoices.SyncStatusRunning,
		UploadedAt: now,
	}
	if err := o.store.CreateSyncRun(ctx, run); err != nil {
		return nil, abort(err)
	}

	fail := func(err error) error {
		o.compensate(ctx, run, counts, err)
		return abort(err)
	}

	existing, err := o.store.FindByHoldedIDs(ctx, holdedIDs(rows))
	if err != nil {
		return nil, fail(err)
	}
	toInsert, toUpdate := diff(rows, existing, run.ID)

	state = StateWriting
	if err := o.store.InsertInvoices(ctx, toInsert); err != nil {
		return nil, fail(err)
	}
	counts.Inserted = len(toInsert)

	for _, u := range toUpdate {
		if err := o.store.UpdateInvoice(ctx, u.id, u.row); err != nil {
			return nil, fail(err)
		}
		counts.Updated++
	}

	finalized, err := o.store.FinalizeSyncRun(ctx, run.ID, counts)
	if err != nil {
		return nil, fail(err)
	}
	logger.WithCompany(company).WithField("state", StateFinalized).Debug("sync run finalized")

	return &Result{
		Success:        true,
		DocumentsCount: counts.Documents,
		InsertedCount:  counts.Inserted,
		UpdatedCount:   counts.Updated,
		SyncRecord:     finalized,
	}, nil
}

// diff splits transformed rows into new invoices and changed existing ones.
// Unchanged invoices are skipped.
func diff(rows, existing []invoices.Invoice, runID string) ([]invoices.Invoice, []pendingUpdate) {
	persisted := make(map[string]invoices.Invoice, len(existing))
	for _, inv := range existing {
		persisted[inv.HoldedKey()] = inv
	}

	var toInsert []invoices.Invoice
	var toUpdate []pendingUpdate
	for _, row := range rows {
		current, found := persisted[row.HoldedKey()]
		if !found || row.HoldedKey() == "" {
			row.ID = uuid.New().String()
			row.UploadID = runID
			toInsert = append(toInsert, row)
			continue
		}
		if current.SameContent(row) {
			continue
		}
		row.ID = current.ID
		row.UploadID = runID
		toUpdate = append(toUpdate, pendingUpdate{id: current.ID, row: row})
	}
	return toInsert, toUpdate
}

// compensate undoes a failed run. A run that wrote nothing is deleted; a run
// that already wrote invoices is kept and flagged failed so those rows still
// point at a valid audit record.
func (o *Orchestrator) compensate(ctx context.Context, run *invoices.SyncRun, counts invoices.SyncCounts, cause error) {
	ctx = context.WithoutCancel(ctx)
	log := logger.WithCompany(run.Company).WithField("sync_run_id", run.ID)

	if counts.Inserted == 0 && counts.Updated == 0 {
		if err := o.store.DeleteSyncRun(ctx, run.ID); err != nil {
			log.WithError(err).Error("failed to delete sync run after error")
		}
		return
	}
	if err := o.store.MarkSyncRunFailed(ctx, run.ID, counts, cause.Error()); err != nil {
		log.WithError(err).Error("failed to mark sync run as failed")
	}
}

func (o *Orchestrator) publish(ctx context.Context, eventType, company string, data map[string]interface{}) {
	if o.publisher == nil {
		return
	}
	if err := o.publisher.PublishEvent(context.WithoutCancel(ctx), eventType, eventSource, company, data); err != nil {
		logger.WithCompany(company).WithError(err).Warn("failed to publish sync event")
	}
}

// Runs lists recent sync runs, optionally for one company.
func (o *Orchestrator) Runs(ctx context.Context, company string, limit int) ([]invoices.SyncRun, error) {
	return o.store.ListSyncRuns(ctx, company, limit)
}

func holdedIDs(rows []invoices.Invoice) []string {
	ids := make([]string, 0, len(rows))
	for _, row := range rows {
		if key := row.HoldedKey(); key != "" {
			ids = append(ids, key)
		}
	}
	return ids
}

// RegistrySources resolves companies through a tenant registry.
func RegistrySources(registry *holded.Registry) SourceResolver {
	return func(company string) (Source, error) {
		svc, err := registry.Service(company)
		if err != nil {
			return nil, err
		}
		return svc, nil
	}
}
