package ledger

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/ticketvault/backend/internal/models"
)

// fakeStore is an in-memory Store. WithTx holds one lock for the whole
// closure, so operations serialize exactly as the postgres row lock would,
// and snapshots state so a failing closure rolls everything back.
type fakeStore struct {
	mu       sync.Mutex
	events   map[uuid.UUID]models.Event
	lots     map[uuid.UUID]models.TicketLot
	invoices map[uuid.UUID]models.Invoice
	entries  []models.LedgerEntry
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		events:   make(map[uuid.UUID]models.Event),
		lots:     make(map[uuid.UUID]models.TicketLot),
		invoices: make(map[uuid.UUID]models.Invoice),
	}
}

func (s *fakeStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	events := cloneMap(s.events)
	lots := cloneMap(s.lots)
	invoices := cloneMap(s.invoices)
	entries := append([]models.LedgerEntry(nil), s.entries...)

	if err := fn(ctx); err != nil {
		s.events = events
		s.lots = lots
		s.invoices = invoices
		s.entries = entries
		return err
	}
	return nil
}

func cloneMap[K comparable, V any](m map[K]V) map[K]V {
	out := make(map[K]V, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}

func (s *fakeStore) CreateEvent(ctx context.Context, e *models.Event) error {
	e.CreatedAt = time.Now()
	e.UpdatedAt = e.CreatedAt
	s.events[e.ID] = *e
	return nil
}

func (s *fakeStore) GetEvent(ctx context.Context, id uuid.UUID) (models.Event, error) {
	e, ok := s.events[id]
	if !ok {
		return models.Event{}, models.ErrEventNotFound
	}
	return e, nil
}

func (s *fakeStore) GetEventForUpdate(ctx context.Context, id uuid.UUID) (models.Event, error) {
	return s.GetEvent(ctx, id)
}

func (s *fakeStore) UpdateEventBalance(ctx context.Context, id uuid.UUID, balanceCents int64) error {
	e, ok := s.events[id]
	if !ok {
		return models.ErrEventNotFound
	}
	e.EscrowBalanceCents = balanceCents
	s.events[id] = e
	return nil
}

func (s *fakeStore) UpdateEventDetails(ctx context.Context, id uuid.UUID, name, description string) error {
	e, ok := s.events[id]
	if !ok {
		return models.ErrEventNotFound
	}
	e.Name = name
	e.Description = description
	s.events[id] = e
	return nil
}

func (s *fakeStore) ListEvents(ctx context.Context) ([]models.Event, error) {
	var list []models.Event
	for _, e := range s.events {
		list = append(list, e)
	}
	return list, nil
}

func (s *fakeStore) CreateLot(ctx context.Context, l *models.TicketLot) error {
	l.CreatedAt = time.Now()
	s.lots[l.ID] = *l
	return nil
}

func (s *fakeStore) GetLot(ctx context.Context, id uuid.UUID) (models.TicketLot, error) {
	l, ok := s.lots[id]
	if !ok {
		return models.TicketLot{}, models.ErrLotNotFound
	}
	return l, nil
}

func (s *fakeStore) UpdateLotSold(ctx context.Context, id uuid.UUID, sold int) error {
	l, ok := s.lots[id]
	if !ok {
		return models.ErrLotNotFound
	}
	l.Sold = sold
	s.lots[id] = l
	return nil
}

func (s *fakeStore) ListLots(ctx context.Context, eventID uuid.UUID) ([]models.TicketLot, error) {
	var list []models.TicketLot
	for _, l := range s.lots {
		if l.EventID == eventID {
			list = append(list, l)
		}
	}
	return list, nil
}

func (s *fakeStore) CreateInvoice(ctx context.Context, inv *models.Invoice) error {
	inv.CreatedAt = time.Now()
	s.invoices[inv.ID] = *inv
	return nil
}

func (s *fakeStore) GetInvoice(ctx context.Context, id uuid.UUID) (models.Invoice, error) {
	inv, ok := s.invoices[id]
	if !ok {
		return models.Invoice{}, models.ErrInvoiceNotFound
	}
	return inv, nil
}

func (s *fakeStore) DeleteInvoice(ctx context.Context, id uuid.UUID) error {
	if _, ok := s.invoices[id]; !ok {
		return models.ErrInvoiceNotFound
	}
	delete(s.invoices, id)
	return nil
}

func (s *fakeStore) ListInvoicesByBuyer(ctx context.Context, buyerID uuid.UUID) ([]models.Invoice, error) {
	var list []models.Invoice
	for _, inv := range s.invoices {
		if inv.BuyerID == buyerID {
			list = append(list, inv)
		}
	}
	return list, nil
}

func (s *fakeStore) AppendEntry(ctx context.Context, entry *models.LedgerEntry) error {
	entry.CreatedAt = time.Now()
	s.entries = append(s.entries, *entry)
	return nil
}

func (s *fakeStore) ListEntries(ctx context.Context, eventID uuid.UUID) ([]models.LedgerEntry, error) {
	var list []models.LedgerEntry
	for _, e := range s.entries {
		if e.EventID == eventID {
			list = append(list, e)
		}
	}
	return list, nil
}
