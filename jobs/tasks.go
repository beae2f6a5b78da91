package jobs

import (
	"encoding/json"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskLedgerAudit recomputes stored quantities from the movement log.
	TaskLedgerAudit = "ledger:audit"
	// TaskIdempotencyCleanup removes expired idempotency keys.
	TaskIdempotencyCleanup = "idempotency:cleanup"
)

// LedgerAuditPayload scopes an audit run.
type LedgerAuditPayload struct {
	// ProductIDs limits the audit to the given products. Empty audits everything.
	ProductIDs []int64 `json:"product_ids,omitempty"`
}

// NewLedgerAuditTask constructs an Asynq task.
func NewLedgerAuditTask(payload LedgerAuditPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskLedgerAudit, data), nil
}

// IdempotencyCleanupPayload scopes a cleanup run.
type IdempotencyCleanupPayload struct {
	OlderThanHours int `json:"older_than_hours"`
}

// NewIdempotencyCleanupTask constructs an Asynq task.
func NewIdempotencyCleanupTask(payload IdempotencyCleanupPayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskIdempotencyCleanup, data), nil
}
