package ledger

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ticketvault/backend/internal/models"
)

const eventColumns = `id, name, description, starts_at, ends_at, escrow_balance_cents, organizer_id, created_at, updated_at`

// Repository is the PostgreSQL Store implementation. All state-changing
// service operations call it inside WithTx; GetEventForUpdate takes a row
// lock on the event so operations on the same event serialize.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a ledger repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// WithTx runs fn inside a single database transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

// CreateEvent inserts a new event.
func (r *Repository) CreateEvent(ctx context.Context, e *models.Event) error {
	const q = `INSERT INTO events (id, name, description, starts_at, ends_at, escrow_balance_cents, organizer_id)
		VALUES ($1, $2, $3, $4, $5, 0, $6)
		RETURNING created_at, updated_at`
	err := r.queryRow(ctx, q, e.ID, e.Name, e.Description, e.StartsAt, e.EndsAt, e.OrganizerID).
		Scan(&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create event: %w", err)
	}
	return nil
}

// GetEvent returns an event by ID.
func (r *Repository) GetEvent(ctx context.Context, id uuid.UUID) (models.Event, error) {
	return r.getEvent(ctx, id, "")
}

// GetEventForUpdate returns an event by ID with its row locked for the
// duration of the surrounding transaction.
func (r *Repository) GetEventForUpdate(ctx context.Context, id uuid.UUID) (models.Event, error) {
	return r.getEvent(ctx, id, " FOR UPDATE")
}

func (r *Repository) getEvent(ctx context.Context, id uuid.UUID, suffix string) (models.Event, error) {
	q := `SELECT ` + eventColumns + ` FROM events WHERE id = $1` + suffix
	var e models.Event
	err := r.queryRow(ctx, q, id).Scan(&e.ID, &e.Name, &e.Description, &e.StartsAt, &e.EndsAt,
		&e.EscrowBalanceCents, &e.OrganizerID, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return models.Event{}, models.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return models.Event{}, models.ErrEventNotFound
		}
		return models.Event{}, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

// UpdateEventBalance writes a new escrow balance.
func (r *Repository) UpdateEventBalance(ctx context.Context, id uuid.UUID, balanceCents int64) error {
	const q = `UPDATE events SET escrow_balance_cents = $1, updated_at = NOW() WHERE id = $2`
	if _, err := r.exec(ctx, q, balanceCents, id); err != nil {
		return fmt.Errorf("update event balance: %w", err)
	}
	return nil
}

// UpdateEventDetails writes a new name and description.
func (r *Repository) UpdateEventDetails(ctx context.Context, id uuid.UUID, name, description string) error {
	const q = `UPDATE events SET name = $1, description = $2, updated_at = NOW() WHERE id = $3`
	if _, err := r.exec(ctx, q, name, description, id); err != nil {
		return fmt.Errorf("update event details: %w", err)
	}
	return nil
}

// ListEvents returns all events, newest start first.
func (r *Repository) ListEvents(ctx context.Context) ([]models.Event, error) {
	rows, err := r.query(ctx, `SELECT `+eventColumns+` FROM events ORDER BY starts_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var list []models.Event
	for rows.Next() {
		var e models.Event
		if err := rows.Scan(&e.ID, &e.Name, &e.Description, &e.StartsAt, &e.EndsAt,
			&e.EscrowBalanceCents, &e.OrganizerID, &e.CreatedAt, &e.UpdatedAt); err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

// CreateLot inserts a new ticket lot.
func (r *Repository) CreateLot(ctx context.Context, l *models.TicketLot) error {
	const q = `INSERT INTO ticket_lots (id, event_id, unit_price_cents, capacity, sold)
		VALUES ($1, $2, $3, $4, 0)
		RETURNING created_at`
	err := r.queryRow(ctx, q, l.ID, l.EventID, l.UnitPriceCents, l.Capacity).Scan(&l.CreatedAt)
	if err != nil {
		return fmt.Errorf("create lot: %w", err)
	}
	return nil
}

// GetLot returns a ticket lot by ID.
func (r *Repository) GetLot(ctx context.Context, id uuid.UUID) (models.TicketLot, error) {
	const q = `SELECT id, event_id, unit_price_cents, capacity, sold, created_at
		FROM ticket_lots WHERE id = $1`
	var l models.TicketLot
	err := r.queryRow(ctx, q, id).Scan(&l.ID, &l.EventID, &l.UnitPriceCents, &l.Capacity, &l.Sold, &l.CreatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return models.TicketLot{}, models.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return models.TicketLot{}, models.ErrLotNotFound
		}
		return models.TicketLot{}, fmt.Errorf("get lot: %w", err)
	}
	return l, nil
}

// UpdateLotSold writes a new sold count.
func (r *Repository) UpdateLotSold(ctx context.Context, id uuid.UUID, sold int) error {
	const q = `UPDATE ticket_lots SET sold = $1 WHERE id = $2`
	if _, err := r.exec(ctx, q, sold, id); err != nil {
		return fmt.Errorf("update lot sold: %w", err)
	}
	return nil
}

// ListLots returns the ticket lots of an event.
func (r *Repository) ListLots(ctx context.Context, eventID uuid.UUID) ([]models.TicketLot, error) {
	const q = `SELECT id, event_id, unit_price_cents, capacity, sold, created_at
		FROM ticket_lots WHERE event_id = $1 ORDER BY created_at`
	rows, err := r.query(ctx, q, eventID)
	if err != nil {
		return nil, fmt.Errorf("list lots: %w", err)
	}
	defer rows.Close()

	var list []models.TicketLot
	for rows.Next() {
		var l models.TicketLot
		if err := rows.Scan(&l.ID, &l.EventID, &l.UnitPriceCents, &l.Capacity, &l.Sold, &l.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, l)
	}
	return list, rows.Err()
}

// CreateInvoice inserts a new invoice.
func (r *Repository) CreateInvoice(ctx context.Context, inv *models.Invoice) error {
	const q = `INSERT INTO invoices (id, event_id, lot_id, buyer_id, amount_paid_cents)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`
	err := r.queryRow(ctx, q, inv.ID, inv.EventID, inv.LotID, inv.BuyerID, inv.AmountPaidCents).Scan(&inv.CreatedAt)
	if err != nil {
		return fmt.Errorf("create invoice: %w", err)
	}
	return nil
}

// GetInvoice returns an invoice by ID.
func (r *Repository) GetInvoice(ctx context.Context, id uuid.UUID) (models.Invoice, error) {
	const q = `SELECT id, event_id, lot_id, buyer_id, amount_paid_cents, created_at
		FROM invoices WHERE id = $1`
	var inv models.Invoice
	err := r.queryRow(ctx, q, id).Scan(&inv.ID, &inv.EventID, &inv.LotID, &inv.BuyerID, &inv.AmountPaidCents, &inv.CreatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return models.Invoice{}, models.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return models.Invoice{}, models.ErrInvoiceNotFound
		}
		return models.Invoice{}, fmt.Errorf("get invoice: %w", err)
	}
	return inv, nil
}

// DeleteInvoice removes an invoice. Deleting an already-deleted invoice is
// reported as not found so a replayed refund cannot pass.
func (r *Repository) DeleteInvoice(ctx context.Context, id uuid.UUID) error {
	tag, err := r.exec(ctx, `DELETE FROM invoices WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete invoice: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return models.ErrInvoiceNotFound
	}
	return nil
}

// ListInvoicesByBuyer returns a buyer's outstanding invoices.
func (r *Repository) ListInvoicesByBuyer(ctx context.Context, buyerID uuid.UUID) ([]models.Invoice, error) {
	const q = `SELECT id, event_id, lot_id, buyer_id, amount_paid_cents, created_at
		FROM invoices WHERE buyer_id = $1 ORDER BY created_at DESC`
	rows, err := r.query(ctx, q, buyerID)
	if err != nil {
		return nil, fmt.Errorf("list invoices: %w", err)
	}
	defer rows.Close()

	var list []models.Invoice
	for rows.Next() {
		var inv models.Invoice
		if err := rows.Scan(&inv.ID, &inv.EventID, &inv.LotID, &inv.BuyerID, &inv.AmountPaidCents, &inv.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, inv)
	}
	return list, rows.Err()
}

// AppendEntry writes one journal row.
func (r *Repository) AppendEntry(ctx context.Context, entry *models.LedgerEntry) error {
	const q = `INSERT INTO ledger_entries (id, event_id, entry_type, amount_cents, counterparty_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at`
	err := r.queryRow(ctx, q, entry.ID, entry.EventID, entry.EntryType, entry.AmountCents, entry.CounterpartyID).
		Scan(&entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("append ledger entry: %w", err)
	}
	return nil
}

// ListEntries returns an event's journal, oldest first.
func (r *Repository) ListEntries(ctx context.Context, eventID uuid.UUID) ([]models.LedgerEntry, error) {
	const q = `SELECT id, event_id, entry_type, amount_cents, counterparty_id, created_at
		FROM ledger_entries WHERE event_id = $1 ORDER BY created_at`
	rows, err := r.query(ctx, q, eventID)
	if err != nil {
		return nil, fmt.Errorf("list ledger entries: %w", err)
	}
	defer rows.Close()

	var list []models.LedgerEntry
	for rows.Next() {
		var e models.LedgerEntry
		if err := rows.Scan(&e.ID, &e.EventID, &e.EntryType, &e.AmountCents, &e.CounterpartyID, &e.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

func (r *Repository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *Repository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}

func (r *Repository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}
