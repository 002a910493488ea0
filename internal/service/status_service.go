package service

import (
	"context"
	"time"

	"github.com/haierkeys/vault-link-index/internal/domain"
	"github.com/haierkeys/vault-link-index/pkg/code"

	"go.uber.org/zap"
)

// Summary reports the health of the persisted link graph.
type Summary struct {
	Total          int64            `json:"total"`
	OkCount        int64            `json:"okCount"`
	BrokenCount    int64            `json:"brokenCount"`
	ByStatus       map[string]int64 `json:"byStatus"`
	ByType         map[string]int64 `json:"byType"`
	LastSyncTime   *time.Time       `json:"lastSyncTime"`
	ScanDurationMs int64            `json:"scanDurationMs"`
	SampleIssues   []*domain.Edge   `json:"sampleIssues"`
	Errors         []string         `json:"errors"`
	IsValid        bool             `json:"isValid"`
	FromMeta       bool             `json:"fromMeta"` // counts came from the last scan meta
}

// StatusService aggregates link counts for reporting.
type StatusService interface {
	Summarize(ctx context.Context) (*Summary, error)
}

// statusService implements StatusService interface
type statusService struct {
	loadSettings StoreSettingsLoader
	openStore    StoreOpener
	sampleSize   int
	logger       *zap.Logger
}

// NewStatusService creates a StatusService instance; sampleSize <= 0 uses DefaultSampleSize.
func NewStatusService(load StoreSettingsLoader, open StoreOpener, sampleSize int, lg *zap.Logger) StatusService {
	if sampleSize <= 0 {
		sampleSize = DefaultSampleSize
	}
	return &statusService{loadSettings: load, openStore: open, sampleSize: sampleSize, logger: lg}
}

// Summarize prefers the counts stored with the last scan and falls back to live group counts.
func (s *statusService) Summarize(ctx context.Context) (*Summary, error) {
	settings, err := s.loadSettings()
	if err != nil {
		return nil, code.ErrorConfigLoad.WithDetails(err.Error())
	}
	store, err := openStore(ctx, s.openStore, settings, s.logger)
	if err != nil {
		return nil, err
	}
	defer closeStore(store, s.logger)

	meta, err := store.GetMeta(ctx)
	if err != nil {
		return nil, code.ErrorStoreQuery.WithDetails(err.Error())
	}

	sum := &Summary{}
	if meta.HasCounts() {
		sum.FromMeta = true
		sum.ByStatus = meta.ByStatus
		sum.ByType = meta.ByType
	} else {
		if sum.ByStatus, err = store.CountBy(ctx, domain.GroupByStatus); err != nil {
			return nil, code.ErrorStoreQuery.WithDetails(err.Error())
		}
		if sum.ByType, err = store.CountBy(ctx, domain.GroupByLinkType); err != nil {
			return nil, code.ErrorStoreQuery.WithDetails(err.Error())
		}
	}

	if meta != nil {
		started := meta.StartedAt
		sum.LastSyncTime = &started
		sum.ScanDurationMs = meta.DurationMs
		sum.Errors = meta.Errors
	}

	for _, n := range sum.ByStatus {
		sum.Total += n
	}
	sum.OkCount = sum.ByStatus[string(domain.StatusOK)]
	sum.BrokenCount = sum.Total - sum.OkCount
	sum.IsValid = sum.BrokenCount == 0

	if sum.BrokenCount > 0 {
		if sum.SampleIssues, err = store.ListIssues(ctx, s.sampleSize); err != nil {
			return nil, code.ErrorStoreQuery.WithDetails(err.Error())
		}
	}
	return sum, nil
}
