package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/mestero/estimate-api/internal/domain"
	"github.com/mestero/estimate-api/internal/repository"
	"github.com/mestero/estimate-api/internal/worklog"
)

// WorklogSyncService pulls approved completion totals from the external
// worklog warehouse into the ledger. Completed amounts are the second
// half of the settlement lock next to paid amounts.
type WorklogSyncService struct {
	client     *worklog.Client
	ledgerRepo *repository.LedgerRepository
	logger     *zap.Logger
}

func NewWorklogSyncService(
	client *worklog.Client,
	ledgerRepo *repository.LedgerRepository,
	logger *zap.Logger,
) *WorklogSyncService {
	return &WorklogSyncService{
		client:     client,
		ledgerRepo: ledgerRepo,
		logger:     logger,
	}
}

// SyncResult summarizes one synchronization run
type SyncResult struct {
	RowsFetched int
	RowsUpdated int
	Duration    time.Duration
}

// Sync fetches completion rows and upserts them item by item. A row
// that fails to upsert is logged and skipped so one bad row never
// aborts the whole run.
func (s *WorklogSyncService) Sync(ctx context.Context) (*SyncResult, error) {
	if s.client == nil || !s.client.IsEnabled() {
		return nil, fmt.Errorf("worklog sync is not enabled")
	}

	start := time.Now()
	rows, err := s.client.FetchCompletions(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrExternalService, err)
	}

	updated := 0
	for _, row := range rows {
		completion := &domain.ItemCompletion{
			ProjectID: row.ProjectID,
			ItemID:    row.ItemID,
			Amount:    row.Amount,
			SourceRef: row.SourceRef,
			SyncedAt:  time.Now().UTC(),
		}
		if err := s.ledgerRepo.UpsertCompletion(ctx, completion); err != nil {
			s.logger.Error("Completion upsert failed",
				zap.String("item_id", row.ItemID.String()),
				zap.Error(err))
			continue
		}
		updated++
	}

	result := &SyncResult{
		RowsFetched: len(rows),
		RowsUpdated: updated,
		Duration:    time.Since(start),
	}

	s.logger.Info("Worklog sync finished",
		zap.Int("fetched", result.RowsFetched),
		zap.Int("updated", result.RowsUpdated),
		zap.Duration("duration", result.Duration))
	return result, nil
}
