// Package lifecycle is the single authority for validating and applying order
// status transitions. It is pure in-memory logic: callers persist the mutated
// order with a conditional update keyed on the prior status.
package lifecycle

import (
	"time"

	"meal-delivery-api/apperr"
	"meal-delivery-api/models"
)

// Transition defines a valid state change and who can perform it
type Transition struct {
	From  models.OrderStatus `json:"from"`
	To    models.OrderStatus `json:"to"`
	Actor models.UserRole    `json:"actor"`
}

// validTransitions is the authoritative state machine definition. Admin may
// drive every listed edge (including late cancellation) but can never skip a
// stage: an edge absent from this table is invalid for everyone.
var validTransitions = []Transition{
	// Restaurant drives preparation
	{From: models.StatusPending, To: models.StatusAccepted, Actor: models.RoleRestaurant},
	{From: models.StatusAccepted, To: models.StatusPreparing, Actor: models.RoleRestaurant},
	{From: models.StatusPreparing, To: models.StatusReady, Actor: models.RoleRestaurant},
	// Delivery person drives transport
	{From: models.StatusReady, To: models.StatusOnTheWay, Actor: models.RoleDelivery},
	{From: models.StatusOnTheWay, To: models.StatusDelivered, Actor: models.RoleDelivery},
	// Customer or restaurant may cancel before the food is ready
	{From: models.StatusPending, To: models.StatusCancelled, Actor: models.RoleCustomer},
	{From: models.StatusPending, To: models.StatusCancelled, Actor: models.RoleRestaurant},
	{From: models.StatusAccepted, To: models.StatusCancelled, Actor: models.RoleCustomer},
	{From: models.StatusAccepted, To: models.StatusCancelled, Actor: models.RoleRestaurant},
	{From: models.StatusPreparing, To: models.StatusCancelled, Actor: models.RoleCustomer},
	{From: models.StatusPreparing, To: models.StatusCancelled, Actor: models.RoleRestaurant},
	// From ready onward only admin may cancel
	{From: models.StatusReady, To: models.StatusCancelled, Actor: models.RoleAdmin},
	{From: models.StatusOnTheWay, To: models.StatusCancelled, Actor: models.RoleAdmin},
}

// transitionKey is used to look up valid transitions quickly
type transitionKey struct {
	From  models.OrderStatus
	To    models.OrderStatus
	Actor models.UserRole
}

var transitionMap = func() map[transitionKey]bool {
	m := make(map[transitionKey]bool)
	for _, t := range validTransitions {
		m[transitionKey{t.From, t.To, t.Actor}] = true
	}
	return m
}()

// edgeSet holds every (from, to) pair that exists for any actor, so edge
// existence and actor permission fail with distinct errors.
var edgeSet = func() map[transitionKey]bool {
	m := make(map[transitionKey]bool)
	for _, t := range validTransitions {
		m[transitionKey{From: t.From, To: t.To}] = true
	}
	return m
}()

// NextStatuses returns all valid next states from a given state.
func NextStatuses(status models.OrderStatus) []models.OrderStatus {
	var nexts []models.OrderStatus
	seen := map[models.OrderStatus]bool{}
	for _, t := range validTransitions {
		if t.From == status && !seen[t.To] {
			nexts = append(nexts, t.To)
			seen[t.To] = true
		}
	}
	return nexts
}

// CanTransition checks whether the edge exists and whether the actor may
// drive it. Edge existence is checked first: a request for an edge no actor
// has (skipping a stage, moving backward, leaving a terminal state) is an
// InvalidTransition regardless of who asks; Forbidden is reserved for valid
// edges driven by the wrong role. Admin passes the actor check on every edge.
func CanTransition(from, to models.OrderStatus, actor models.UserRole) error {
	if !edgeSet[transitionKey{From: from, To: to}] {
		return apperr.InvalidTransition(
			"cannot move from '%s' to '%s'; valid next states: %s",
			from, to, describeValidFrom(from),
		)
	}
	if actor == models.RoleAdmin || transitionMap[transitionKey{From: from, To: to, Actor: actor}] {
		return nil
	}
	return apperr.Forbidden("role '%s' may not move an order from '%s' to '%s'", actor, from, to)
}

func describeValidFrom(status models.OrderStatus) string {
	nexts := NextStatuses(status)
	if len(nexts) == 0 {
		return "none (terminal state)"
	}
	result := ""
	for i, s := range nexts {
		if i > 0 {
			result += ", "
		}
		result += string(s)
	}
	return result
}

// Apply validates and applies a status transition in memory. On success the
// order's status is updated, exactly one history entry is appended, the
// matching derived timing field is stamped if not already set, cash orders
// are marked paid on delivery, and cancellations record reason/by/at. The
// note is required when cancelling (it becomes the cancellation reason).
func Apply(order *models.Order, to models.OrderStatus, actor models.UserRole, actorID uint, note string) error {
	if err := CanTransition(order.Status, to, actor); err != nil {
		return err
	}
	if to == models.StatusCancelled && note == "" {
		return apperr.Validation("cancellation reason is required")
	}

	now := time.Now()
	order.Status = to
	order.StatusHistory = append(order.StatusHistory, models.OrderStatusEvent{
		OrderID:   order.ID,
		Status:    to,
		Note:      note,
		ActorID:   &actorID,
		CreatedAt: now,
	})

	// Derived timing fields are set exactly once, on first entry.
	switch to {
	case models.StatusPreparing:
		if order.PreparationStartTime == nil {
			order.PreparationStartTime = &now
		}
	case models.StatusReady:
		if order.PreparationEndTime == nil {
			order.PreparationEndTime = &now
		}
	case models.StatusOnTheWay:
		if order.PickupTime == nil {
			order.PickupTime = &now
		}
	case models.StatusDelivered:
		if order.ActualDeliveryTime == nil {
			order.ActualDeliveryTime = &now
		}
		// Cash settles on handover. Card and wallet orders are settled by the
		// payment collaborator, not by the delivery transition.
		if order.PaymentMethod == models.PaymentCash {
			order.PaymentStatus = models.PaymentStatusPaid
		}
	case models.StatusCancelled:
		order.CancellationReason = note
		order.CancelledBy = &actorID
		order.CancelledAt = &now
	}
	return nil
}

// AllTransitions returns the full state machine for documentation
func AllTransitions() []Transition {
	return validTransitions
}
