package ledger

import (
	"context"

	"github.com/google/uuid"

	"github.com/ticketvault/backend/internal/models"
)

// Store is the persistence substrate for the escrow ledger. WithTx must give
// the closure transaction-level atomicity: every read and write inside either
// commits together or rolls back together. GetEventForUpdate must serialize
// concurrent transactions touching the same event.
type Store interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error

	CreateEvent(ctx context.Context, e *models.Event) error
	GetEvent(ctx context.Context, id uuid.UUID) (models.Event, error)
	GetEventForUpdate(ctx context.Context, id uuid.UUID) (models.Event, error)
	UpdateEventBalance(ctx context.Context, id uuid.UUID, balanceCents int64) error
	UpdateEventDetails(ctx context.Context, id uuid.UUID, name, description string) error
	ListEvents(ctx context.Context) ([]models.Event, error)

	CreateLot(ctx context.Context, l *models.TicketLot) error
	GetLot(ctx context.Context, id uuid.UUID) (models.TicketLot, error)
	UpdateLotSold(ctx context.Context, id uuid.UUID, sold int) error
	ListLots(ctx context.Context, eventID uuid.UUID) ([]models.TicketLot, error)

	CreateInvoice(ctx context.Context, inv *models.Invoice) error
	GetInvoice(ctx context.Context, id uuid.UUID) (models.Invoice, error)
	DeleteInvoice(ctx context.Context, id uuid.UUID) error
	ListInvoicesByBuyer(ctx context.Context, buyerID uuid.UUID) ([]models.Invoice, error)

	AppendEntry(ctx context.Context, entry *models.LedgerEntry) error
	ListEntries(ctx context.Context, eventID uuid.UUID) ([]models.LedgerEntry, error)
}
