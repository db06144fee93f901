package models

import (
	"time"

	"github.com/google/uuid"
)

// Event is a ticketed event holding buyer funds in escrow until the organizer
// withdraws them after the event ends, or buyers refund before it ends.
type Event struct {
	ID                 uuid.UUID `json:"id"`
	Name               string    `json:"name"`
	Description        string    `json:"description"`
	StartsAt           time.Time `json:"starts_at"`
	EndsAt             time.Time `json:"ends_at"`
	EscrowBalanceCents int64     `json:"escrow_balance_cents"`
	OrganizerID        uuid.UUID `json:"organizer_id"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// IsOpen reports whether the sale/refund window is still open at now.
// The window is [starts_at, ends_at): the instant now == ends_at is closed.
// StartsAt is deliberately not a lower bound on purchases.
func (e *Event) IsOpen(now time.Time) bool {
	return now.Before(e.EndsAt)
}

// IsClosed reports whether the event has ended at now.
func (e *Event) IsClosed(now time.Time) bool {
	return !now.Before(e.EndsAt)
}

// Deposit adds amount to the escrow balance. Negative amounts are ignored.
func (e *Event) Deposit(amountCents int64) {
	if amountCents < 0 {
		return
	}
	e.EscrowBalanceCents += amountCents
}

// Take removes amount from the escrow balance. The balance can never go
// negative; an over-draw returns ErrUnderflow and leaves the balance intact.
func (e *Event) Take(amountCents int64) error {
	if amountCents < 0 || amountCents > e.EscrowBalanceCents {
		return ErrUnderflow
	}
	e.EscrowBalanceCents -= amountCents
	return nil
}
