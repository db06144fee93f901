package models

import (
	"time"

	"github.com/google/uuid"
)

// Ledger entry types. A purchase credits escrow; a refund or withdrawal
// debits it. For any event, escrow_balance == sum(purchases) - sum(refunds)
// - sum(withdrawals) at all times.
const (
	EntryTypePurchase   = "purchase"
	EntryTypeRefund     = "refund"
	EntryTypeWithdrawal = "withdrawal"
)

// LedgerEntry is one money movement in or out of an event's escrow balance,
// written in the same transaction as the movement itself.
type LedgerEntry struct {
	ID             uuid.UUID `json:"id"`
	EventID        uuid.UUID `json:"event_id"`
	EntryType      string    `json:"entry_type"`
	AmountCents    int64     `json:"amount_cents"`
	CounterpartyID uuid.UUID `json:"counterparty_id"` // buyer or payout recipient
	CreatedAt      time.Time `json:"created_at"`
}
