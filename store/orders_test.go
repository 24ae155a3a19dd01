package store

import (
	"context"
	"testing"

	"meal-delivery-api/apperr"
	"meal-delivery-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedOrder(t *testing.T, orders *Orders, status models.OrderStatus) *models.Order {
	t.Helper()
	order := &models.Order{
		OrderNumber:     "ORD-TEST-" + string(status),
		CustomerID:      1,
		RestaurantID:    2,
		Status:          status,
		DeliveryAddress: "123 Test Lane",
		PaymentMethod:   models.PaymentCash,
		PaymentStatus:   models.PaymentStatusPending,
		Subtotal:        20,
		Total:           25,
		StatusHistory: []models.OrderStatusEvent{
			{Status: models.StatusPending, Note: "order placed"},
		},
	}
	require.NoError(t, orders.Create(context.Background(), order))
	return order
}

func TestClaimForDeliveryOneWinner(t *testing.T) {
	orders := NewOrders(testDB(t))
	ctx := context.Background()
	order := seedOrder(t, orders, models.StatusReady)

	claimed, err := orders.ClaimForDelivery(ctx, order.ID, 7)
	require.NoError(t, err)
	require.NotNil(t, claimed.DeliveryPersonID)
	assert.Equal(t, uint(7), *claimed.DeliveryPersonID)
	// The claim assigns a driver but leaves the status untouched.
	assert.Equal(t, models.StatusReady, claimed.Status)

	// Second claimant finds the order taken.
	_, err = orders.ClaimForDelivery(ctx, order.ID, 8)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	// The winner's assignment survives.
	got, err := orders.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, uint(7), *got.DeliveryPersonID)
}

func TestClaimForDeliveryRequiresReady(t *testing.T) {
	orders := NewOrders(testDB(t))
	ctx := context.Background()
	order := seedOrder(t, orders, models.StatusPreparing)

	_, err := orders.ClaimForDelivery(ctx, order.ID, 7)
	assert.ErrorIs(t, err, apperr.ErrConflict)
}

func TestClaimForDeliveryMissingOrder(t *testing.T) {
	orders := NewOrders(testDB(t))

	_, err := orders.ClaimForDelivery(context.Background(), 999, 7)
	assert.ErrorIs(t, err, apperr.ErrNotFound)
}

func TestApplyTransitionStaleStatusConflicts(t *testing.T) {
	orders := NewOrders(testDB(t))
	ctx := context.Background()
	order := seedOrder(t, orders, models.StatusPending)

	// First writer moves pending -> accepted.
	first, err := orders.FindByID(ctx, order.ID)
	require.NoError(t, err)
	first.Status = models.StatusAccepted
	first.StatusHistory = append(first.StatusHistory, models.OrderStatusEvent{
		OrderID: first.ID, Status: models.StatusAccepted,
	})
	require.NoError(t, orders.ApplyTransition(ctx, first, models.StatusPending))

	// Second writer still holds the pending snapshot and loses.
	stale, err := orders.FindByID(ctx, order.ID)
	require.NoError(t, err)
	stale.Status = models.StatusCancelled
	stale.StatusHistory = append(stale.StatusHistory, models.OrderStatusEvent{
		OrderID: stale.ID, Status: models.StatusCancelled,
	})
	err = orders.ApplyTransition(ctx, stale, models.StatusPending)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	// The first writer's state stands and no orphan history was written.
	got, err := orders.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAccepted, got.Status)
	require.Len(t, got.StatusHistory, 2)
	assert.Equal(t, got.Status, got.StatusHistory[len(got.StatusHistory)-1].Status)
}

func TestApplyTransitionAppendsHistory(t *testing.T) {
	orders := NewOrders(testDB(t))
	ctx := context.Background()
	order := seedOrder(t, orders, models.StatusPending)

	chain := []models.OrderStatus{models.StatusAccepted, models.StatusPreparing, models.StatusReady}
	for _, next := range chain {
		current, err := orders.FindByID(ctx, order.ID)
		require.NoError(t, err)
		expected := current.Status
		current.Status = next
		current.StatusHistory = append(current.StatusHistory, models.OrderStatusEvent{
			OrderID: current.ID, Status: next,
		})
		require.NoError(t, orders.ApplyTransition(ctx, current, expected))
	}

	got, err := orders.FindByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusReady, got.Status)
	require.Len(t, got.StatusHistory, 4)
	assert.Equal(t, got.Status, got.StatusHistory[len(got.StatusHistory)-1].Status)
}

func TestFindAvailableForPickupExcludesClaimed(t *testing.T) {
	orders := NewOrders(testDB(t))
	ctx := context.Background()

	free := seedOrder(t, orders, models.StatusReady)
	taken := &models.Order{
		OrderNumber:     "ORD-TEST-TAKEN",
		CustomerID:      1,
		RestaurantID:    2,
		Status:          models.StatusReady,
		DeliveryAddress: "123 Test Lane",
	}
	require.NoError(t, orders.Create(ctx, taken))
	_, err := orders.ClaimForDelivery(ctx, taken.ID, 7)
	require.NoError(t, err)

	available, err := orders.FindAvailableForPickup(ctx)
	require.NoError(t, err)
	require.Len(t, available, 1)
	assert.Equal(t, free.ID, available[0].ID)
}
