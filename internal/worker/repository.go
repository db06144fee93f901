package worker

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ticketvault/backend/pkg/queue"
)

// Repository persists issued receipts.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a receipt repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// RecordReceipt inserts a receipt row for an invoice. Re-delivered jobs are
// absorbed by the unique constraint on invoice_id.
func (r *Repository) RecordReceipt(ctx context.Context, p queue.ReceiptPayload) error {
	const q = `INSERT INTO receipts (invoice_id, event_id, buyer_id, amount_cents)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (invoice_id) DO NOTHING`
	_, err := r.pool.Exec(ctx, q, p.InvoiceID, p.EventID, p.BuyerID, p.AmountCents)
	return err
}
