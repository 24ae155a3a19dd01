// Package service orchestrates the stores, the lifecycle engine, the
// authorization gate and the notifier into the operations the handlers
// expose.
package service

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"meal-delivery-api/apperr"
	"meal-delivery-api/authz"
	"meal-delivery-api/lifecycle"
	"meal-delivery-api/models"
	"meal-delivery-api/notify"
	"meal-delivery-api/store"
	"meal-delivery-api/validate"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

type OrderService struct {
	orders   *store.Orders
	identity *store.Identity
	catalog  *store.Catalog
	notifier notify.Notifier
	logger   *zap.Logger
	taxRate  float64
}

func NewOrderService(
	orders *store.Orders,
	identity *store.Identity,
	catalog *store.Catalog,
	notifier notify.Notifier,
	logger *zap.Logger,
	taxRate float64,
) *OrderService {
	return &OrderService{
		orders:   orders,
		identity: identity,
		catalog:  catalog,
		notifier: notifier,
		logger:   logger,
		taxRate:  taxRate,
	}
}

type CreateOrderItem struct {
	MealID   uint `json:"meal_id" binding:"required"`
	Quantity int  `json:"quantity" binding:"required,min=1"`
}

type CreateOrderInput struct {
	CustomerID          uint
	RestaurantID        uint
	Items               []CreateOrderItem
	DeliveryAddress     string
	SpecialInstructions string
	PaymentMethod       models.PaymentMethod
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// ComputeTotals derives the monetary fields from item snapshots and charges.
// total = subtotal + delivery fee + tax - discount.
func ComputeTotals(items []models.OrderItem, deliveryFee, tax, discount float64) (subtotal, total float64) {
	for _, it := range items {
		subtotal += it.LineTotal
	}
	subtotal = round2(subtotal)
	total = round2(subtotal + deliveryFee + tax - discount)
	return subtotal, total
}

// NewOrderNumber builds a human-readable unique order number.
func NewOrderNumber() string {
	ts := fmt.Sprintf("%d", time.Now().Unix())
	rand := strings.ToUpper(strings.ReplaceAll(uuid.NewString(), "-", "")[:6])
	return fmt.Sprintf("ORD-%s-%s", ts[len(ts)-6:], rand)
}

// CreateOrder validates the restaurant and meals, snapshots items, computes
// totals and persists the aggregate with its initial history entry.
func (s *OrderService) CreateOrder(ctx context.Context, in CreateOrderInput) (*models.Order, error) {
	ve := validate.New()
	ve.Require("delivery_address", in.DeliveryAddress)
	ve.OneOf("payment_method", string(in.PaymentMethod),
		string(models.PaymentCash), string(models.PaymentCard), string(models.PaymentWallet))
	if len(in.Items) == 0 {
		ve.Add("items", "at least one item is required")
	}
	for i, item := range in.Items {
		if item.Quantity < 1 {
			ve.Add(fmt.Sprintf("items[%d].quantity", i), "must be at least 1")
		}
	}
	if err := ve.Err(); err != nil {
		return nil, err
	}

	restaurant, err := s.identity.FindByID(ctx, in.RestaurantID)
	if err != nil {
		return nil, err
	}
	if restaurant.Role != models.RoleRestaurant || restaurant.Restaurant == nil {
		return nil, apperr.NotFound("restaurant %d not found", in.RestaurantID)
	}
	profile := restaurant.Restaurant
	if profile.ApprovalStatus != models.ApprovalApproved {
		return nil, apperr.Validation("restaurant is not accepting orders")
	}
	if !profile.IsOpen {
		return nil, apperr.Validation("restaurant is currently closed")
	}

	var orderItems []models.OrderItem
	var prepMinutes int
	for _, reqItem := range in.Items {
		meal, err := s.catalog.FindByID(ctx, reqItem.MealID)
		if err != nil {
			return nil, err
		}
		if meal.RestaurantID != in.RestaurantID {
			return nil, apperr.Validation("meal '%s' does not belong to this restaurant", meal.Name)
		}
		if !meal.IsAvailable {
			return nil, apperr.Validation("meal '%s' is not available", meal.Name)
		}
		if meal.PrepMinutes > prepMinutes {
			prepMinutes = meal.PrepMinutes
		}
		orderItems = append(orderItems, models.OrderItem{
			MealID:    meal.ID,
			Name:      meal.Name,
			UnitPrice: meal.Price,
			Quantity:  reqItem.Quantity,
			LineTotal: round2(meal.Price * float64(reqItem.Quantity)),
		})
	}

	tax := 0.0
	for _, it := range orderItems {
		tax += it.LineTotal
	}
	tax = round2(tax * s.taxRate)
	subtotal, total := ComputeTotals(orderItems, profile.DeliveryFee, tax, 0)

	if subtotal < profile.MinimumOrder {
		return nil, apperr.Validation("order subtotal %.2f is below the restaurant minimum of %.2f",
			subtotal, profile.MinimumOrder)
	}

	now := time.Now()
	order := &models.Order{
		OrderNumber:           NewOrderNumber(),
		CustomerID:            in.CustomerID,
		RestaurantID:          in.RestaurantID,
		Items:                 orderItems,
		Subtotal:              subtotal,
		DeliveryFee:           profile.DeliveryFee,
		Tax:                   tax,
		Discount:              0,
		Total:                 total,
		Status:                models.StatusPending,
		DeliveryAddress:       in.DeliveryAddress,
		SpecialInstructions:   in.SpecialInstructions,
		EstimatedDeliveryTime: now.Add(time.Duration(prepMinutes+30) * time.Minute),
		PaymentMethod:         in.PaymentMethod,
		PaymentStatus:         models.PaymentStatusPending,
		StatusHistory: []models.OrderStatusEvent{{
			Status:    models.StatusPending,
			Note:      "order placed",
			ActorID:   &in.CustomerID,
			CreatedAt: now,
		}},
	}

	if err := s.orders.Create(ctx, order); err != nil {
		return nil, err
	}

	s.notifyQuietly(ctx, notify.EventOrderCreated, map[string]any{
		"order_id":     order.ID,
		"order_number": order.OrderNumber,
		"customer_id":  order.CustomerID,
		"total":        order.Total,
	})

	s.logger.Info("order created",
		zap.Uint("order_id", order.ID),
		zap.String("order_number", order.OrderNumber),
		zap.Float64("total", order.Total))
	return order, nil
}

// TransitionOrder validates authorization and the requested edge, then
// persists the change conditionally on the prior status. Concurrent writers
// lose with Conflict and must re-fetch; there are no silent retries here.
func (s *OrderService) TransitionOrder(ctx context.Context, orderID uint, to models.OrderStatus, actor authz.Actor, note string) (*models.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	if to == models.StatusCancelled {
		return s.cancel(ctx, order, note, actor)
	}

	if err := authz.Authorize(&actor, authz.ActionOrderTransition, authz.OrderResource(order)); err != nil {
		return nil, err
	}

	expected := order.Status
	if err := lifecycle.Apply(order, to, actor.Role, actor.ID, note); err != nil {
		return nil, err
	}
	if err := s.orders.ApplyTransition(ctx, order, expected); err != nil {
		return nil, err
	}

	s.notifyQuietly(ctx, notify.EventOrderStatusChanged, map[string]any{
		"order_id": order.ID,
		"from":     expected,
		"to":       order.Status,
		"actor_id": actor.ID,
	})
	return order, nil
}

// CancelOrder cancels with a mandatory reason, subject to the state guard:
// customers and restaurants may cancel up to preparing, admin at any
// non-terminal stage.
func (s *OrderService) CancelOrder(ctx context.Context, orderID uint, reason string, actor authz.Actor) (*models.Order, error) {
	order, err := s.orders.FindByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	return s.cancel(ctx, order, reason, actor)
}

func (s *OrderService) cancel(ctx context.Context, order *models.Order, reason string, actor authz.Actor) (*models.Order, error) {
	if err := authz.Authorize(&actor, authz.ActionOrderCancel, authz.OrderResource(order)); err != nil {
		return nil, err
	}

	expected := order.Status
	if err := lifecycle.Apply(order, models.StatusCancelled, actor.Role, actor.ID, reason); err != nil {
		return nil, err
	}
	if err := s.orders.ApplyTransition(ctx, order, expected); err != nil {
		return nil, err
	}

	s.notifyQuietly(ctx, notify.EventOrderStatusChanged, map[string]any{
		"order_id": order.ID,
		"from":     expected,
		"to":       models.StatusCancelled,
		"reason":   reason,
	})
	return order, nil
}

// AssignDeliveryPerson claims a ready, unassigned order for a delivery
// person. The claim itself is an atomic compare-and-set in the store; two
// racing claimants resolve to one winner and one Conflict.
func (s *OrderService) AssignDeliveryPerson(ctx context.Context, orderID, deliveryPersonID uint, actor authz.Actor) (*models.Order, error) {
	if err := authz.Authorize(&actor, authz.ActionOrderClaim, authz.Resource{Kind: authz.KindOrder}); err != nil {
		return nil, err
	}
	if actor.Role == models.RoleDelivery && actor.ID != deliveryPersonID {
		return nil, apperr.Forbidden("delivery personnel may only claim orders for themselves")
	}

	person, err := s.identity.FindByID(ctx, deliveryPersonID)
	if err != nil {
		return nil, err
	}
	if person.Role != models.RoleDelivery || person.Delivery == nil {
		return nil, apperr.Validation("user %d is not a delivery person", deliveryPersonID)
	}
	if person.Delivery.ApprovalStatus != models.ApprovalApproved {
		return nil, apperr.Forbidden("delivery account is not approved")
	}
	if !person.Delivery.IsAvailable {
		return nil, apperr.Validation("delivery person is not available")
	}

	order, err := s.orders.ClaimForDelivery(ctx, orderID, deliveryPersonID)
	if err != nil {
		return nil, err
	}

	s.notifyQuietly(ctx, notify.EventOrderClaimed, map[string]any{
		"order_id":           order.ID,
		"delivery_person_id": deliveryPersonID,
	})
	return order, nil
}

// notifyQuietly delivers the event and swallows failures; a notification
// problem never fails the state change it reports.
func (s *OrderService) notifyQuietly(ctx context.Context, event notify.Event, payload map[string]any) {
	if err := s.notifier.Notify(ctx, event, payload); err != nil {
		s.logger.Error("notification failed",
			zap.String("event", string(event)),
			zap.Error(err))
	}
}
