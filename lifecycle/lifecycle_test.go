package lifecycle

import (
	"testing"

	"meal-delivery-api/apperr"
	"meal-delivery-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOrder(status models.OrderStatus, method models.PaymentMethod) *models.Order {
	return &models.Order{
		ID:            1,
		OrderNumber:   "ORD-000001-TEST",
		CustomerID:    10,
		RestaurantID:  20,
		Status:        status,
		PaymentMethod: method,
		PaymentStatus: models.PaymentStatusPending,
		StatusHistory: []models.OrderStatusEvent{
			{OrderID: 1, Status: models.StatusPending},
		},
	}
}

func TestHappyPathRestaurantStages(t *testing.T) {
	order := newOrder(models.StatusPending, models.PaymentCash)

	require.NoError(t, Apply(order, models.StatusAccepted, models.RoleRestaurant, 20, ""))
	require.NoError(t, Apply(order, models.StatusPreparing, models.RoleRestaurant, 20, ""))
	require.NoError(t, Apply(order, models.StatusReady, models.RoleRestaurant, 20, "packed"))

	require.Len(t, order.StatusHistory, 4)
	assert.Equal(t, models.StatusAccepted, order.StatusHistory[1].Status)
	assert.Equal(t, models.StatusPreparing, order.StatusHistory[2].Status)
	assert.Equal(t, models.StatusReady, order.StatusHistory[3].Status)
	assert.Equal(t, order.Status, order.StatusHistory[len(order.StatusHistory)-1].Status)

	require.NotNil(t, order.PreparationStartTime)
	require.NotNil(t, order.PreparationEndTime)
	assert.Nil(t, order.PickupTime)
	assert.Nil(t, order.ActualDeliveryTime)
}

func TestTimingFieldsSetOnce(t *testing.T) {
	order := newOrder(models.StatusAccepted, models.PaymentCash)
	require.NoError(t, Apply(order, models.StatusPreparing, models.RoleRestaurant, 20, ""))

	first := order.PreparationStartTime
	require.NotNil(t, first)

	// A later pass through a different stage must not restamp earlier fields.
	require.NoError(t, Apply(order, models.StatusReady, models.RoleRestaurant, 20, ""))
	assert.Equal(t, first, order.PreparationStartTime)
}

func TestHistoryLastAlwaysMatchesStatus(t *testing.T) {
	order := newOrder(models.StatusPending, models.PaymentCard)
	steps := []struct {
		to   models.OrderStatus
		role models.UserRole
	}{
		{models.StatusAccepted, models.RoleRestaurant},
		{models.StatusPreparing, models.RoleRestaurant},
		{models.StatusReady, models.RoleRestaurant},
		{models.StatusOnTheWay, models.RoleDelivery},
		{models.StatusDelivered, models.RoleDelivery},
	}
	for _, step := range steps {
		require.NoError(t, Apply(order, step.to, step.role, 30, ""))
		last := order.StatusHistory[len(order.StatusHistory)-1]
		assert.Equal(t, order.Status, last.Status)
	}
}

func TestSkippingStageIsInvalid(t *testing.T) {
	order := newOrder(models.StatusPending, models.PaymentCash)
	err := Apply(order, models.StatusReady, models.RoleRestaurant, 20, "")
	require.ErrorIs(t, err, apperr.ErrInvalidTransition)
	assert.Len(t, order.StatusHistory, 1)
}

func TestDeliveryActorOnNonexistentEdgeIsInvalidTransition(t *testing.T) {
	// pending -> on_the_way exists for nobody, so the failure is
	// InvalidTransition rather than Forbidden, for every role.
	order := newOrder(models.StatusPending, models.PaymentCash)
	err := Apply(order, models.StatusOnTheWay, models.RoleDelivery, 30, "")
	require.ErrorIs(t, err, apperr.ErrInvalidTransition)
}

func TestWrongActorOnValidEdgeIsForbidden(t *testing.T) {
	order := newOrder(models.StatusReady, models.PaymentCash)
	err := Apply(order, models.StatusOnTheWay, models.RoleRestaurant, 20, "")
	require.ErrorIs(t, err, apperr.ErrForbidden)

	// pending -> accepted is a valid edge, but not for customers.
	order2 := newOrder(models.StatusPending, models.PaymentCash)
	err = Apply(order2, models.StatusAccepted, models.RoleCustomer, 10, "")
	require.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestTerminalStatesRejectEverything(t *testing.T) {
	for _, terminal := range []models.OrderStatus{models.StatusDelivered, models.StatusCancelled} {
		order := newOrder(terminal, models.PaymentCash)
		for _, to := range []models.OrderStatus{
			models.StatusPending, models.StatusAccepted, models.StatusPreparing,
			models.StatusReady, models.StatusOnTheWay, models.StatusDelivered, models.StatusCancelled,
		} {
			err := Apply(order, to, models.RoleAdmin, 1, "reason")
			assert.ErrorIs(t, err, apperr.ErrInvalidTransition, "from %s to %s", terminal, to)
		}
	}
}

func TestNoBackwardTransitions(t *testing.T) {
	order := newOrder(models.StatusPreparing, models.PaymentCash)
	err := Apply(order, models.StatusAccepted, models.RoleRestaurant, 20, "")
	require.ErrorIs(t, err, apperr.ErrInvalidTransition)
}

func TestCancellation(t *testing.T) {
	t.Run("without reason fails validation", func(t *testing.T) {
		order := newOrder(models.StatusPreparing, models.PaymentCash)
		err := Apply(order, models.StatusCancelled, models.RoleCustomer, 10, "")
		require.ErrorIs(t, err, apperr.ErrValidation)
		assert.Equal(t, models.StatusPreparing, order.Status)
	})

	t.Run("with reason while preparing succeeds", func(t *testing.T) {
		order := newOrder(models.StatusPreparing, models.PaymentCash)
		require.NoError(t, Apply(order, models.StatusCancelled, models.RoleCustomer, 10, "changed my mind"))
		assert.Equal(t, models.StatusCancelled, order.Status)
		assert.Equal(t, "changed my mind", order.CancellationReason)
		require.NotNil(t, order.CancelledBy)
		assert.Equal(t, uint(10), *order.CancelledBy)
		assert.NotNil(t, order.CancelledAt)
	})

	t.Run("customer cannot cancel a ready order", func(t *testing.T) {
		order := newOrder(models.StatusReady, models.PaymentCash)
		err := Apply(order, models.StatusCancelled, models.RoleCustomer, 10, "too slow")
		require.ErrorIs(t, err, apperr.ErrForbidden)
	})

	t.Run("admin may cancel a ready order", func(t *testing.T) {
		order := newOrder(models.StatusReady, models.PaymentCash)
		require.NoError(t, Apply(order, models.StatusCancelled, models.RoleAdmin, 1, "restaurant closed early"))
		assert.Equal(t, models.StatusCancelled, order.Status)
	})
}

func TestCashOrderPaidOnDelivery(t *testing.T) {
	order := newOrder(models.StatusOnTheWay, models.PaymentCash)
	require.NoError(t, Apply(order, models.StatusDelivered, models.RoleDelivery, 30, ""))
	assert.Equal(t, models.PaymentStatusPaid, order.PaymentStatus)
	assert.NotNil(t, order.ActualDeliveryTime)
}

func TestCardOrderNotPaidOnDelivery(t *testing.T) {
	order := newOrder(models.StatusOnTheWay, models.PaymentCard)
	require.NoError(t, Apply(order, models.StatusDelivered, models.RoleDelivery, 30, ""))
	assert.Equal(t, models.PaymentStatusPending, order.PaymentStatus)
}

func TestAdminCannotSkipStages(t *testing.T) {
	order := newOrder(models.StatusPending, models.PaymentCash)
	err := Apply(order, models.StatusDelivered, models.RoleAdmin, 1, "")
	require.ErrorIs(t, err, apperr.ErrInvalidTransition)
}

func TestNextStatuses(t *testing.T) {
	assert.ElementsMatch(t,
		[]models.OrderStatus{models.StatusAccepted, models.StatusCancelled},
		NextStatuses(models.StatusPending))
	assert.Empty(t, NextStatuses(models.StatusDelivered))
	assert.Empty(t, NextStatuses(models.StatusCancelled))
}
