package jobs

import (
	"context"
	"encoding/json"

	"github.com/hibiken/asynq"

	"github.com/cabildo-gob/cabildo/internal/audit"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskTypeAuditWrite persists one audit entry.
	TaskTypeAuditWrite = "audit:write"
	// TaskTypeEpochSweep bounds the lifetime of principal-epoch keys.
	TaskTypeEpochSweep = "session:epoch_sweep"
)

// NewAuditWriteTask constructs an Asynq task carrying one audit entry.
func NewAuditWriteTask(e audit.Entry) (*asynq.Task, error) {
	data, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskTypeAuditWrite, data), nil
}

// NewEpochSweepTask constructs the periodic epoch-sweep task.
func NewEpochSweepTask() *asynq.Task {
	return asynq.NewTask(TaskTypeEpochSweep, nil)
}

// AuditWriter persists audit entries. Satisfied by audit.Service.
type AuditWriter interface {
	Write(ctx context.Context, e audit.Entry) error
}

// AuditWriteJob handles TaskTypeAuditWrite tasks.
type AuditWriteJob struct {
	writer AuditWriter
}

// NewAuditWriteJob constructs the handler.
func NewAuditWriteJob(writer AuditWriter) *AuditWriteJob {
	return &AuditWriteJob{writer: writer}
}

// Handle unmarshals and persists the entry. A malformed payload is dropped
// rather than retried.
func (j *AuditWriteJob) Handle(ctx context.Context, t *asynq.Task) error {
	var e audit.Entry
	if err := json.Unmarshal(t.Payload(), &e); err != nil {
		return asynq.SkipRetry
	}
	return j.writer.Write(ctx, e)
}
