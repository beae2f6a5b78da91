package jobs

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"testing"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/require"
)

type fakeAuditor struct {
	mu       sync.Mutex
	stored   map[int64]int64
	replayed map[int64]int64
	audited  []int64
}

func (a *fakeAuditor) ProductIDs(ctx context.Context) ([]int64, error) {
	ids := make([]int64, 0, len(a.stored))
	for id := range a.stored {
		ids = append(ids, id)
	}
	return ids, nil
}

func (a *fakeAuditor) AuditProduct(ctx context.Context, productID int64) (int64, int64, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	stored, ok := a.stored[productID]
	if !ok {
		return 0, 0, fmt.Errorf("product %d missing", productID)
	}
	a.audited = append(a.audited, productID)
	return stored, a.replayed[productID], nil
}

func auditTask(t *testing.T, payload LedgerAuditPayload) *asynq.Task {
	t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(t, err)
	return asynq.NewTask(TaskLedgerAudit, data)
}

func TestLedgerAuditCoversAllProducts(t *testing.T) {
	auditor := &fakeAuditor{
		stored:   map[int64]int64{1: 5, 2: 9, 3: 0},
		replayed: map[int64]int64{1: 5, 2: 9, 3: 0},
	}
	job := NewLedgerAuditJob(auditor, nil, nil, nil)

	err := job.Handle(context.Background(), auditTask(t, LedgerAuditPayload{}))
	require.NoError(t, err)
	require.ElementsMatch(t, []int64{1, 2, 3}, auditor.audited)
}

func TestLedgerAuditScopedRun(t *testing.T) {
	auditor := &fakeAuditor{
		stored:   map[int64]int64{1: 5, 2: 9},
		replayed: map[int64]int64{1: 5, 2: 9},
	}
	job := NewLedgerAuditJob(auditor, nil, nil, nil)

	err := job.Handle(context.Background(), auditTask(t, LedgerAuditPayload{ProductIDs: []int64{2}}))
	require.NoError(t, err)
	require.Equal(t, []int64{2}, auditor.audited)
}

func TestLedgerAuditSurvivesDrift(t *testing.T) {
	// drift is reported, not treated as a job failure
	auditor := &fakeAuditor{
		stored:   map[int64]int64{1: 5},
		replayed: map[int64]int64{1: 3},
	}
	job := NewLedgerAuditJob(auditor, nil, nil, nil)

	err := job.Handle(context.Background(), auditTask(t, LedgerAuditPayload{}))
	require.NoError(t, err)
}

func TestLedgerAuditPropagatesErrors(t *testing.T) {
	auditor := &fakeAuditor{
		stored:   map[int64]int64{1: 5},
		replayed: map[int64]int64{1: 5},
	}
	job := NewLedgerAuditJob(auditor, nil, nil, nil)

	err := job.Handle(context.Background(), auditTask(t, LedgerAuditPayload{ProductIDs: []int64{99}}))
	require.Error(t, err)
}

func TestLedgerAuditRejectsMalformedPayload(t *testing.T) {
	job := NewLedgerAuditJob(&fakeAuditor{stored: map[int64]int64{}}, nil, nil, nil)

	err := job.Handle(context.Background(), asynq.NewTask(TaskLedgerAudit, []byte("{broken")))
	require.ErrorIs(t, err, asynq.SkipRetry)
}
