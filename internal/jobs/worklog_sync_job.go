package jobs

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/mestero/estimate-api/internal/service"
)

// WorklogSyncJobName is the name of the worklog completion sync job
const WorklogSyncJobName = "worklog_sync"

// CompletionSyncService defines the interface for pulling completion
// totals from the worklog warehouse into the ledger. It lets the job
// avoid a hard dependency on the service package's concrete type.
type CompletionSyncService interface {
	Sync(ctx context.Context) (*service.SyncResult, error)
}

// WorklogSyncJob periodically refreshes completed amounts per item
type WorklogSyncJob struct {
	syncService CompletionSyncService
	logger      *zap.Logger
	timeout     time.Duration
}

// NewWorklogSyncJob creates a new worklog sync job.
// The timeout controls how long one sync run is allowed to take.
func NewWorklogSyncJob(syncService CompletionSyncService, logger *zap.Logger, timeout time.Duration) *WorklogSyncJob {
	return &WorklogSyncJob{
		syncService: syncService,
		logger:      logger,
		timeout:     timeout,
	}
}

// Run executes one sync. Called by the scheduler per the cron expression.
func (j *WorklogSyncJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()
	j.logger.Info("starting worklog sync job")

	result, err := j.syncService.Sync(ctx)
	if err != nil {
		j.logger.Error("worklog sync job failed",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)))
		return
	}

	j.logger.Info("worklog sync job completed",
		zap.Int("rows_fetched", result.RowsFetched),
		zap.Int("rows_updated", result.RowsUpdated),
		zap.Duration("duration", time.Since(start)))
}

// RegisterWorklogSyncJob registers the completion sync with the
// scheduler. When runStartupSync is true one sync runs immediately in a
// background goroutine so it never blocks API startup.
func RegisterWorklogSyncJob(scheduler *Scheduler, syncService CompletionSyncService, logger *zap.Logger, cronExpr string, timeout time.Duration, runStartupSync bool) error {
	job := NewWorklogSyncJob(syncService, logger, timeout)

	if runStartupSync {
		go job.Run()
	}

	return scheduler.AddJob(WorklogSyncJobName, cronExpr, job.Run)
}
