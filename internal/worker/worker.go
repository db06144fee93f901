// Package worker processes background jobs dequeued from Redis.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ticketvault/backend/pkg/queue"
)

// ReceiptProcessor consumes receipt issuance jobs and records a receipt per
// purchased invoice. Receipts are an after-the-fact artifact: the escrow
// transaction has already committed by the time a job exists.
type ReceiptProcessor struct {
	repo   *Repository
	queue  *queue.Queue
	logger *zap.Logger
}

// NewReceiptProcessor creates a receipt processor.
func NewReceiptProcessor(repo *Repository, q *queue.Queue, logger *zap.Logger) *ReceiptProcessor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReceiptProcessor{repo: repo, queue: q, logger: logger}
}

// Process executes one receipt job.
func (p *ReceiptProcessor) Process(ctx context.Context, job *queue.Job) error {
	if job.Type != queue.JobTypeReceipt {
		return fmt.Errorf("unknown job type: %s", job.Type)
	}
	var payload queue.ReceiptPayload
	if err := json.Unmarshal(job.Payload, &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %w", err)
	}
	if err := p.repo.RecordReceipt(ctx, payload); err != nil {
		return fmt.Errorf("record receipt: %w", err)
	}
	p.logger.Info("receipt issued",
		zap.String("invoice_id", payload.InvoiceID.String()),
		zap.Int64("amount_cents", payload.AmountCents))
	return nil
}

// Run consumes jobs until ctx is cancelled.
func (p *ReceiptProcessor) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			p.logger.Error("dequeue", zap.Error(err))
			time.Sleep(queue.RetryBackoff)
			continue
		}
		if job == nil {
			continue
		}

		if err := p.Process(ctx, job); err != nil {
			p.logger.Error("process job", zap.Error(err), zap.String("job_id", job.ID))
			if reErr := p.queue.Retry(ctx, job); reErr != nil {
				p.logger.Error("retry job", zap.Error(reErr), zap.String("job_id", job.ID))
			}
			time.Sleep(queue.RetryBackoff)
		}
	}
}
