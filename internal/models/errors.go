package models

import "errors"

// Ledger operation failures. Every one is a precondition checked before any
// mutation; a failing operation leaves all rows unchanged.
var (
	ErrEventOver           = errors.New("event sale window has ended")
	ErrEventStillOpen      = errors.New("event sale window is still open")
	ErrInsufficientPayment = errors.New("payment below ticket price")
	ErrSoldOut             = errors.New("ticket lot sold out")
	ErrUnauthorized        = errors.New("caller not authorized")
	ErrNothingToRefund     = errors.New("nothing to refund")
	ErrInsufficientEscrow  = errors.New("escrow balance cannot cover refund")
	ErrUnderflow           = errors.New("escrow balance would go negative")

	ErrInvalidWindow   = errors.New("starts_at must be before ends_at")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrEventNotFound   = errors.New("event not found")
	ErrLotNotFound     = errors.New("ticket lot not found")
	ErrInvoiceNotFound = errors.New("invoice not found")
	ErrInvalidID       = errors.New("invalid id")
)
