package service

import (
	"context"
	"fmt"
	"time"

	"github.com/haierkeys/vault-link-index/internal/domain"
	"github.com/haierkeys/vault-link-index/pkg/code"
	"github.com/haierkeys/vault-link-index/pkg/logger"
	"github.com/haierkeys/vault-link-index/pkg/util"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SyncOptions addresses the store a sync writes to.
type SyncOptions struct {
	URI            string
	Collection     string // <database>.<collection>
	BatchSize      int    // <= 0 uses DefaultBatchSize
	ConnectTimeout time.Duration
}

// SyncResult summarises one sync run.
type SyncResult struct {
	RunID          string           `json:"runId"`
	StartedAt      time.Time        `json:"startedAt"`
	Stats          domain.ScanStats `json:"stats"`
	SyncDurationMs int64            `json:"syncDurationMs"`
	DeletedCount   int64            `json:"deletedCount"`
	UpsertCount    int64            `json:"upsertCount"`  // newly inserted edges
	UpdatedCount   int64            `json:"updatedCount"` // re-observed edges
}

// SyncService keeps the persisted edge set equal to the vault.
type SyncService interface {
	// Sync scans the vault, upserts every observed edge, sweeps unobserved ones and saves the scan meta.
	// Upsert then sweep is not transactional; a crash in between leaves stale edges until the next sync.
	Sync(ctx context.Context, opts SyncOptions) (*SyncResult, error)
}

// syncService implements SyncService interface
type syncService struct {
	scanner   Scanner
	openStore StoreOpener
	logger    *zap.Logger
	now       func() time.Time
}

// NewSyncService creates a SyncService instance
func NewSyncService(scanner Scanner, open StoreOpener, lg *zap.Logger) SyncService {
	return &syncService{
		scanner:   scanner,
		openStore: open,
		logger:    lg,
		now:       time.Now,
	}
}

func (s *syncService) Sync(ctx context.Context, opts SyncOptions) (*SyncResult, error) {
	// Configuration is validated before any I/O.
	if _, err := validateStore(opts.URI, opts.Collection); err != nil {
		return nil, err
	}
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	begin := time.Now()
	store, err := openStore(ctx, s.openStore, StoreSettings{URI: opts.URI, Collection: opts.Collection, ConnectTimeout: opts.ConnectTimeout}, s.logger)
	if err != nil {
		return nil, err
	}
	defer closeStore(store, s.logger)

	prev, err := store.GetMeta(ctx)
	if err != nil {
		return nil, code.ErrorStoreQuery.WithDetails(err.Error())
	}
	var prevStartedAt time.Time
	if prev != nil {
		prevStartedAt = prev.StartedAt
	}

	result := &SyncResult{RunID: newRunID()}
	result.StartedAt = util.MonotonicAfter(s.now().UTC(), prevStartedAt)
	log := s.logger.With(zap.String(logger.FieldRunID, result.RunID), zap.String(logger.FieldCollection, opts.Collection))

	scan, err := s.scanner.Scan(ctx)
	if err != nil {
		return nil, err
	}
	result.Stats = scan.Stats

	edges, byType, byStatus := buildEdges(scan.Records, result.StartedAt)

	for start := 0; start < len(edges); start += batchSize {
		end := min(start+batchSize, len(edges))
		if err := s.upsertBatch(ctx, store, edges[start:end], result, log); err != nil {
			return nil, err
		}
	}

	deleted, err := store.DeleteStaleEdges(ctx, result.StartedAt)
	if err != nil {
		return nil, code.ErrorStoreWrite.WithDetails(err.Error())
	}
	result.DeletedCount = deleted
	result.SyncDurationMs = time.Since(begin).Milliseconds()

	err = store.SaveMeta(ctx, &domain.ScanMeta{
		RunID:        result.RunID,
		StartedAt:    result.StartedAt,
		DurationMs:   result.SyncDurationMs,
		NotesScanned: result.Stats.NotesScanned,
		EdgeTotal:    result.Stats.EdgeTotal,
		ByType:       byType,
		ByStatus:     byStatus,
		Errors:       result.Stats.Errors,
	})
	if err != nil {
		return nil, code.ErrorStoreWrite.WithDetails(err.Error())
	}

	log.Info("link sync finished",
		zap.Int("notes", result.Stats.NotesScanned),
		zap.Int("edges", result.Stats.EdgeTotal),
		zap.Int64("inserted", result.UpsertCount),
		zap.Int64("updated", result.UpdatedCount),
		zap.Int64("deleted", result.DeletedCount),
		zap.Int("errors", len(result.Stats.Errors)),
		zap.Int64(logger.FieldDuration, result.SyncDurationMs))
	return result, nil
}

// upsertBatch writes one batch; a rejected batch is retried row by row so one bad edge cannot block the rest.
// Only a batch where every row fails is treated as a store outage.
func (s *syncService) upsertBatch(ctx context.Context, store domain.LinkStore, batch []*domain.Edge, result *SyncResult, log *zap.Logger) error {
	r, err := store.UpsertEdges(ctx, batch)
	if err == nil {
		s.collect(r, result)
		return nil
	}
	if ctx.Err() != nil {
		return ctx.Err()
	}
	log.Warn("batch upsert rejected, retrying per edge", zap.Int(logger.FieldCount, len(batch)), zap.Error(err))

	failed := 0
	var lastErr error
	for _, e := range batch {
		r, err := store.UpsertEdges(ctx, []*domain.Edge{e})
		if err != nil {
			failed++
			lastErr = err
			result.Stats.Errors = append(result.Stats.Errors, fmt.Sprintf("upsert %s (%s:%d): %v", e.ID, e.NotePath, e.Line, err))
			continue
		}
		s.collect(r, result)
	}
	if failed == len(batch) {
		return code.ErrorStoreWrite.WithDetails(lastErr.Error())
	}
	return nil
}

func (s *syncService) collect(r domain.UpsertResult, result *SyncResult) {
	result.UpsertCount += r.Inserted
	result.UpdatedCount += r.Updated
	for _, f := range r.Failed {
		result.Stats.Errors = append(result.Stats.Errors, fmt.Sprintf("upsert %s: %s", f.ID, f.Reason))
	}
}

// buildEdges converts records to edges keyed by identity and counts them by type and status.
func buildEdges(records []*domain.LinkRecord, seen time.Time) ([]*domain.Edge, map[string]int64, map[string]int64) {
	edges := make([]*domain.Edge, 0, len(records))
	byType := make(map[string]int64)
	byStatus := make(map[string]int64)
	ids := make(map[string]bool, len(records))

	for _, r := range records {
		if ids[r.ID] {
			continue
		}
		ids[r.ID] = true
		edges = append(edges, r.ToEdge(seen))
		byType[string(r.LinkType)]++
		byStatus[string(r.Status)]++
	}
	return edges, byType, byStatus
}

func newRunID() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.NewString()
}
