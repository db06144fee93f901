package models

import (
	"time"

	"github.com/google/uuid"
)

// TicketLot is the sellable inventory for one event: a unit price and a fixed
// capacity, with a running sold count. 0 <= sold <= capacity always holds.
type TicketLot struct {
	ID             uuid.UUID `json:"id"`
	EventID        uuid.UUID `json:"event_id"`
	UnitPriceCents int64     `json:"unit_price_cents"`
	Capacity       int       `json:"capacity"`
	Sold           int       `json:"sold"`
	CreatedAt      time.Time `json:"created_at"`
}

// HasCapacity reports whether at least one seat remains unsold.
func (l *TicketLot) HasCapacity() bool {
	return l.Sold < l.Capacity
}

// RecordSale increments the sold count, failing with ErrSoldOut at capacity.
func (l *TicketLot) RecordSale() error {
	if !l.HasCapacity() {
		return ErrSoldOut
	}
	l.Sold++
	return nil
}

// RecordRefund decrements the sold count, failing with ErrNothingToRefund
// when no tickets are outstanding.
func (l *TicketLot) RecordRefund() error {
	if l.Sold == 0 {
		return ErrNothingToRefund
	}
	l.Sold--
	return nil
}
