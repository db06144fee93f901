// Package ledger implements the escrow core: the rules governing how money
// moves between a buyer, an event's escrow balance, and an organizer, and how
// ticket lot, invoice and capability records change in lockstep with those
// movements. Every state-changing operation runs inside one store transaction
// with the event row locked, so a failing precondition leaves all rows
// unchanged and two operations on the same event never interleave.
package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ticketvault/backend/internal/capability"
	"github.com/ticketvault/backend/internal/clock"
	"github.com/ticketvault/backend/internal/models"
	"github.com/ticketvault/backend/pkg/queue"
)

// ReceiptEnqueuer enqueues receipt issuance jobs after a purchase commits.
type ReceiptEnqueuer interface {
	EnqueueReceipt(ctx context.Context, payload queue.ReceiptPayload) error
}

// Service executes escrow ledger operations.
type Service struct {
	store    Store
	caps     *capability.Authority
	clock    clock.Clock
	receipts ReceiptEnqueuer // optional; nil disables receipt jobs
	logger   *zap.Logger
}

// NewService creates a ledger service. receipts may be nil.
func NewService(store Store, caps *capability.Authority, clk clock.Clock, receipts ReceiptEnqueuer, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{store: store, caps: caps, clock: clk, receipts: receipts, logger: logger}
}

// CreateEventInput is the input for CreateEvent.
type CreateEventInput struct {
	Name        string
	Description string
	StartsAt    time.Time
	EndsAt      time.Time
	OrganizerID uuid.UUID
}

// CreateEvent registers an event with a zero escrow balance and mints its
// organizer capability token. The token is returned exactly once and never
// reissued; whoever holds it holds organizing rights.
func (s *Service) CreateEvent(ctx context.Context, in CreateEventInput) (models.Event, string, error) {
	if in.Name == "" {
		return models.Event{}, "", models.ErrInvalidArgument
	}
	if !in.StartsAt.Before(in.EndsAt) {
		return models.Event{}, "", models.ErrInvalidWindow
	}

	event := models.Event{
		ID:          uuid.New(),
		Name:        in.Name,
		Description: in.Description,
		StartsAt:    in.StartsAt,
		EndsAt:      in.EndsAt,
		OrganizerID: in.OrganizerID,
	}

	token, err := s.caps.Mint(event.ID)
	if err != nil {
		return models.Event{}, "", err
	}
	if err := s.store.CreateEvent(ctx, &event); err != nil {
		return models.Event{}, "", err
	}
	return event, token, nil
}

// UpdateEventDetails changes an event's display name and description.
// Capability-gated like every organizer operation.
func (s *Service) UpdateEventDetails(ctx context.Context, eventID uuid.UUID, capToken, name, description string) (models.Event, error) {
	if name == "" {
		return models.Event{}, models.ErrInvalidArgument
	}
	var updated models.Event
	err := s.store.WithTx(ctx, func(txCtx context.Context) error {
		event, err := s.store.GetEventForUpdate(txCtx, eventID)
		if err != nil {
			return err
		}
		if !s.caps.Authorize(capToken, event.ID) {
			return models.ErrUnauthorized
		}
		if err := s.store.UpdateEventDetails(txCtx, event.ID, name, description); err != nil {
			return err
		}
		event.Name = name
		event.Description = description
		updated = event
		return nil
	})
	if err != nil {
		return models.Event{}, err
	}
	return updated, nil
}

// CreateLotInput is the input for CreateLot.
type CreateLotInput struct {
	EventID        uuid.UUID
	Capability     string
	UnitPriceCents int64
	Capacity       int
}

// CreateLot adds sellable inventory to an event. Only the capability holder
// may add lots.
func (s *Service) CreateLot(ctx context.Context, in CreateLotInput) (models.TicketLot, error) {
	if in.UnitPriceCents < 0 || in.Capacity < 0 {
		return models.TicketLot{}, models.ErrInvalidArgument
	}
	var lot models.TicketLot
	err := s.store.WithTx(ctx, func(txCtx context.Context) error {
		event, err := s.store.GetEventForUpdate(txCtx, in.EventID)
		if err != nil {
			return err
		}
		if !s.caps.Authorize(in.Capability, event.ID) {
			return models.ErrUnauthorized
		}
		lot = models.TicketLot{
			ID:             uuid.New(),
			EventID:        event.ID,
			UnitPriceCents: in.UnitPriceCents,
			Capacity:       in.Capacity,
		}
		return s.store.CreateLot(txCtx, &lot)
	})
	if err != nil {
		return models.TicketLot{}, err
	}
	return lot, nil
}

// PurchaseInput is the input for Purchase.
type PurchaseInput struct {
	EventID      uuid.UUID
	LotID        uuid.UUID
	BuyerID      uuid.UUID
	PaymentCents int64
}

// Purchase sells one ticket: the window must be open, the lot must have
// capacity, and the tendered payment must cover the unit price. The entire
// tendered amount moves into escrow (no change is returned for overpayment),
// the sold count increments, and an invoice is minted as the buyer's
// single-use proof of claim. All of it commits atomically or not at all.
func (s *Service) Purchase(ctx context.Context, in PurchaseInput) (models.Invoice, error) {
	if in.PaymentCents < 0 {
		return models.Invoice{}, models.ErrInvalidArgument
	}
	now := s.clock.Now()

	var invoice models.Invoice
	err := s.store.WithTx(ctx, func(txCtx context.Context) error {
		event, err := s.store.GetEventForUpdate(txCtx, in.EventID)
		if err != nil {
			return err
		}
		lot, err := s.store.GetLot(txCtx, in.LotID)
		if err != nil {
			return err
		}
		if lot.EventID != event.ID {
			return models.ErrLotNotFound
		}

		if !event.IsOpen(now) {
			return models.ErrEventOver
		}
		if !lot.HasCapacity() {
			return models.ErrSoldOut
		}
		if in.PaymentCents < lot.UnitPriceCents {
			return models.ErrInsufficientPayment
		}

		event.Deposit(in.PaymentCents)
		if err := lot.RecordSale(); err != nil {
			return err
		}

		if err := s.store.UpdateEventBalance(txCtx, event.ID, event.EscrowBalanceCents); err != nil {
			return err
		}
		if err := s.store.UpdateLotSold(txCtx, lot.ID, lot.Sold); err != nil {
			return err
		}

		invoice = models.Invoice{
			ID:              uuid.New(),
			EventID:         event.ID,
			LotID:           lot.ID,
			BuyerID:         in.BuyerID,
			AmountPaidCents: in.PaymentCents,
		}
		if err := s.store.CreateInvoice(txCtx, &invoice); err != nil {
			return err
		}
		return s.store.AppendEntry(txCtx, &models.LedgerEntry{
			ID:             uuid.New(),
			EventID:        event.ID,
			EntryType:      models.EntryTypePurchase,
			AmountCents:    in.PaymentCents,
			CounterpartyID: in.BuyerID,
		})
	})
	if err != nil {
		return models.Invoice{}, err
	}

	if s.receipts != nil {
		payload := queue.ReceiptPayload{
			InvoiceID:   invoice.ID,
			EventID:     invoice.EventID,
			BuyerID:     invoice.BuyerID,
			AmountCents: invoice.AmountPaidCents,
		}
		if err := s.receipts.EnqueueReceipt(ctx, payload); err != nil {
			s.logger.Warn("enqueue receipt", zap.Error(err), zap.String("invoice_id", invoice.ID.String()))
		}
	}
	return invoice, nil
}

// Refund reverses one purchase while the event is still open: the sold count
// decrements, the unit price leaves escrow back to the buyer, and the invoice
// is deleted in the same transaction, which makes a second refund of the same
// purchase structurally impossible. Returns the payout amount.
func (s *Service) Refund(ctx context.Context, invoiceID, callerID uuid.UUID) (int64, error) {
	now := s.clock.Now()

	var payout int64
	err := s.store.WithTx(ctx, func(txCtx context.Context) error {
		// First read locates the event; the re-read after taking the event
		// lock is the one that counts, since a concurrent refund of the same
		// invoice serializes on that lock and deletes the row.
		probe, err := s.store.GetInvoice(txCtx, invoiceID)
		if err != nil {
			return err
		}
		event, err := s.store.GetEventForUpdate(txCtx, probe.EventID)
		if err != nil {
			return err
		}
		invoice, err := s.store.GetInvoice(txCtx, invoiceID)
		if err != nil {
			return err
		}
		lot, err := s.store.GetLot(txCtx, invoice.LotID)
		if err != nil {
			return err
		}

		if !event.IsOpen(now) {
			return models.ErrEventOver
		}
		if lot.Sold == 0 {
			return models.ErrNothingToRefund
		}
		if invoice.BuyerID != callerID {
			return models.ErrUnauthorized
		}
		if event.EscrowBalanceCents < lot.UnitPriceCents {
			return models.ErrInsufficientEscrow
		}

		if err := lot.RecordRefund(); err != nil {
			return err
		}
		if err := event.Take(lot.UnitPriceCents); err != nil {
			return err
		}

		if err := s.store.UpdateLotSold(txCtx, lot.ID, lot.Sold); err != nil {
			return err
		}
		if err := s.store.UpdateEventBalance(txCtx, event.ID, event.EscrowBalanceCents); err != nil {
			return err
		}
		if err := s.store.DeleteInvoice(txCtx, invoice.ID); err != nil {
			return err
		}
		payout = lot.UnitPriceCents
		return s.store.AppendEntry(txCtx, &models.LedgerEntry{
			ID:             uuid.New(),
			EventID:        event.ID,
			EntryType:      models.EntryTypeRefund,
			AmountCents:    payout,
			CounterpartyID: invoice.BuyerID,
		})
	})
	if err != nil {
		return 0, err
	}
	return payout, nil
}

// WithdrawAll drains the event's entire escrow balance to the recipient once
// the event has ended. Only the capability holder may withdraw; partial
// withdrawal is not supported. Returns the amount withdrawn.
func (s *Service) WithdrawAll(ctx context.Context, eventID uuid.UUID, capToken string, recipientID uuid.UUID) (int64, error) {
	now := s.clock.Now()

	var amount int64
	err := s.store.WithTx(ctx, func(txCtx context.Context) error {
		event, err := s.store.GetEventForUpdate(txCtx, eventID)
		if err != nil {
			return err
		}
		if !event.IsClosed(now) {
			return models.ErrEventStillOpen
		}
		if !s.caps.Authorize(capToken, event.ID) {
			return models.ErrUnauthorized
		}

		amount = event.EscrowBalanceCents
		if amount == 0 {
			return nil
		}
		if err := event.Take(amount); err != nil {
			return err
		}
		if err := s.store.UpdateEventBalance(txCtx, event.ID, event.EscrowBalanceCents); err != nil {
			return err
		}
		return s.store.AppendEntry(txCtx, &models.LedgerEntry{
			ID:             uuid.New(),
			EventID:        event.ID,
			EntryType:      models.EntryTypeWithdrawal,
			AmountCents:    amount,
			CounterpartyID: recipientID,
		})
	})
	if err != nil {
		return 0, err
	}
	return amount, nil
}

// GetEvent returns one event.
func (s *Service) GetEvent(ctx context.Context, id uuid.UUID) (models.Event, error) {
	return s.store.GetEvent(ctx, id)
}

// ListEvents returns all events.
func (s *Service) ListEvents(ctx context.Context) ([]models.Event, error) {
	return s.store.ListEvents(ctx)
}

// ListLots returns the ticket lots of an event.
func (s *Service) ListLots(ctx context.Context, eventID uuid.UUID) ([]models.TicketLot, error) {
	if _, err := s.store.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}
	return s.store.ListLots(ctx, eventID)
}

// ListInvoices returns the caller's outstanding invoices.
func (s *Service) ListInvoices(ctx context.Context, buyerID uuid.UUID) ([]models.Invoice, error) {
	return s.store.ListInvoicesByBuyer(ctx, buyerID)
}

// ListJournal returns the money movements of an event, oldest first.
func (s *Service) ListJournal(ctx context.Context, eventID uuid.UUID) ([]models.LedgerEntry, error) {
	if _, err := s.store.GetEvent(ctx, eventID); err != nil {
		return nil, err
	}
	return s.store.ListEntries(ctx, eventID)
}
