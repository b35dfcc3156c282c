package invoices

import (
	"context"
	"errors"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var ErrSyncRunNotFound = errors.New("sync run not found")

const insertBatchSize = 100

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

func (r *Repository) AutoMigrate() error {
	return r.db.AutoMigrate(&SyncRun{}, &Invoice{})
}

func (r *Repository) CreateSyncRun(ctx context.Context, run *SyncRun) error {
	if run.UploadedAt.IsZero() {
		run.UploadedAt = time.Now().UTC()
	}
	return r.db.WithContext(ctx).Create(run).Error
}

func (r *Repository) DeleteSyncRun(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&SyncRun{}).Error
}

// FinalizeSyncRun marks a run processed and records its counts.
func (r *Repository) FinalizeSyncRun(ctx context.Context, id string, counts SyncCounts) (*SyncRun, error) {
	now := time.Now().UTC()
	err := r.db.WithContext(ctx).Model(&SyncRun{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       SyncStatusCompleted,
			"processed":    true,
			"processed_at": now,
			"metadata":     counts.Metadata(),
		}).Error
	if err != nil {
		return nil, err
	}
	return r.GetSyncRun(ctx, id)
}

// MarkSyncRunFailed keeps a run that already wrote invoices, flagged failed.
func (r *Repository) MarkSyncRunFailed(ctx context.Context, id string, counts SyncCounts, cause string) error {
	metadata := counts.Metadata()
	metadata["error"] = cause
	return r.db.WithContext(ctx).Model(&SyncRun{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":       SyncStatusFailed,
			"processed":    false,
			"processed_at": time.Now().UTC(),
			"metadata":     datatypes.JSONMap(metadata),
		}).Error
}

func (r *Repository) GetSyncRun(ctx context.Context, id string) (*SyncRun, error) {
	var run SyncRun
	result := r.db.WithContext(ctx).First(&run, "id = ?", id)
	if errors.Is(result.Error, gorm.ErrRecordNotFound) {
		return nil, ErrSyncRunNotFound
	}
	return &run, result.Error
}

// ListSyncRuns returns the most recent Holded sync runs, optionally for one company.
func (r *Repository) ListSyncRuns(ctx context.Context, company string, limit int) ([]SyncRun, error) {
	if limit <= 0 {
		limit = 50
	}
	query := r.db.WithContext(ctx).Where("type = ?", SyncTypeHoldedAPI)
	if company != "" {
		query = query.Where("company = ?", company)
	}
	var runs []SyncRun
	err := query.Order("uploaded_at DESC").Limit(limit).Find(&runs).Error
	return runs, err
}

func (r *Repository) FindByHoldedIDs(ctx context.Context, holdedIDs []string) ([]Invoice, error) {
	if len(holdedIDs) == 0 {
		return nil, nil
	}
	var rows []Invoice
	err := r.db.WithContext(ctx).Where("holded_id IN ?", holdedIDs).Find(&rows).Error
	return rows, err
}

func (r *Repository) InsertInvoices(ctx context.Context, rows []Invoice) error {
	if len(rows) == 0 {
		return nil
	}
	now := time.Now().UTC()
	for i := range rows {
		rows[i].CreatedAt = now
		rows[i].UpdatedAt = now
	}
	return r.db.WithContext(ctx).CreateInBatches(rows, insertBatchSize).Error
}

// UpdateInvoice overwrites the synchronised columns of an existing row.
func (r *Repository) UpdateInvoice(ctx context.Context, id string, inv Invoice) error {
	columns := inv.MutableColumns()
	columns["updated_at"] = time.Now().UTC()
	return r.db.WithContext(ctx).Model(&Invoice{}).
		Where("id = ?", id).
		Updates(columns).Error
}
