package domain

import (
	"errors"
	"fmt"
)

type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusConfirmed OrderStatus = "confirmed"
	StatusShipped   OrderStatus = "shipped"
	StatusDelivered OrderStatus = "delivered"
	StatusCancelled OrderStatus = "cancelled"
)

// Statuses lists every status in lifecycle order.
var Statuses = []OrderStatus{StatusPending, StatusConfirmed, StatusShipped, StatusDelivered, StatusCancelled}

var ErrInvalidTransition = errors.New("invalid order status transition")

// transitions holds every permitted move. delivered/cancelled -> pending is the admin reset.
var transitions = map[OrderStatus][]OrderStatus{
	StatusPending:   {StatusConfirmed, StatusCancelled},
	StatusConfirmed: {StatusShipped, StatusCancelled},
	StatusShipped:   {StatusDelivered, StatusCancelled},
	StatusDelivered: {StatusPending},
	StatusCancelled: {StatusPending},
}

func ParseStatus(s string) (OrderStatus, bool) {
	st := OrderStatus(s)
	_, ok := transitions[st]
	return st, ok
}

func (s OrderStatus) Valid() bool {
	_, ok := transitions[s]
	return ok
}

func (s OrderStatus) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

func CanTransition(from, to OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NextStatuses returns the statuses reachable from s in one step.
func NextStatuses(s OrderStatus) []OrderStatus {
	next := transitions[s]
	out := make([]OrderStatus, len(next))
	copy(out, next)
	return out
}

// CheckTransition returns ErrInvalidTransition wrapped with the offending pair.
func CheckTransition(from, to OrderStatus) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}
