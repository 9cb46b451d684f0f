package services

import "errors"

// Business-rule errors surfaced to clients. Controllers map these to
// HTTP status codes; anything else is treated as a store failure.
var (
	ErrNotFound           = errors.New("not found")
	ErrStationUnavailable = errors.New("station not available")
	ErrGameUnavailable    = errors.New("game not available")
	ErrInvalidRange       = errors.New("invalid time range")
	ErrSlotTaken          = errors.New("time slot not available")
	ErrQuotaExceeded      = errors.New("phone already has 5 reservations for this day")
	ErrEmptyOrder         = errors.New("order must have at least one item")
	ErrInvalidItems       = errors.New("some menu items are invalid")
	ErrTerminalStatus     = errors.New("order is already in a terminal status")
	ErrActiveOrders       = errors.New("table session still has active orders")
)
