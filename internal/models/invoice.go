package models

import (
	"time"

	"github.com/google/uuid"
)

// Invoice is the single-use proof of one paid, unrefunded purchase. It exists
// exactly while the buyer has an outstanding claim: minted atomically with a
// successful purchase and deleted atomically with its refund, so a second
// refund of the same purchase has no record to present.
type Invoice struct {
	ID              uuid.UUID `json:"id"`
	EventID         uuid.UUID `json:"event_id"`
	LotID           uuid.UUID `json:"lot_id"`
	BuyerID         uuid.UUID `json:"buyer_id"`
	AmountPaidCents int64     `json:"amount_paid_cents"`
	CreatedAt       time.Time `json:"created_at"`
}
