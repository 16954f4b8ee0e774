package order

import (
	"errors"
	"fmt"
	"strings"

	"github.com/example/farmbe-store/internal/domain"
)

type Status string

const (
	StatusPending   Status = "Pending"
	StatusReady     Status = "Ready"
	StatusInTransit Status = "In Transit"
	StatusShipped   Status = "Shipped"
	StatusDelivered Status = "Delivered"
	StatusCancelled Status = "Cancelled"
)

var (
	ErrInvalidStatus  = fmt.Errorf("%w: unknown order status", domain.ErrInvalidInput)
	ErrTerminalStatus = errors.New("order status is terminal")
)

// Statuses lists every legal status in lifecycle order.
var Statuses = []Status{
	StatusPending,
	StatusReady,
	StatusInTransit,
	StatusShipped,
	StatusDelivered,
	StatusCancelled,
}

// validTransitions defines allowed state transitions. Non-terminal states may
// move to any other state; Delivered and Cancelled accept nothing.
var validTransitions = map[Status][]Status{
	StatusPending:   {StatusReady, StatusInTransit, StatusShipped, StatusDelivered, StatusCancelled},
	StatusReady:     {StatusPending, StatusInTransit, StatusShipped, StatusDelivered, StatusCancelled},
	StatusInTransit: {StatusPending, StatusReady, StatusShipped, StatusDelivered, StatusCancelled},
	StatusShipped:   {StatusPending, StatusReady, StatusInTransit, StatusDelivered, StatusCancelled},
	StatusDelivered: {}, // terminal state
	StatusCancelled: {}, // terminal state
}

// ParseStatus accepts the canonical tags case-insensitively, with "_" or "-"
// standing in for the space of "In Transit".
func ParseStatus(raw string) (Status, error) {
	norm := strings.NewReplacer("_", " ", "-", " ").Replace(strings.TrimSpace(raw))
	for _, s := range Statuses {
		if strings.EqualFold(string(s), norm) {
			return s, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStatus, raw)
}

func (s Status) IsValid() bool {
	_, ok := validTransitions[s]
	return ok
}

func (s Status) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanTransitionTo checks if an order in status s may move to target.
func (s Status) CanTransitionTo(target Status) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == target {
			return true
		}
	}
	return false
}
