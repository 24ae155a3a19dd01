package service

import (
	"context"
	"fmt"
	"regexp"
	"testing"

	"meal-delivery-api/apperr"
	"meal-delivery-api/authz"
	"meal-delivery-api/models"
	"meal-delivery-api/notify"
	"meal-delivery-api/store"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

type fixture struct {
	svc      *OrderService
	identity *store.Identity
	catalog  *store.Catalog
	orders   *store.Orders

	customer   *models.User
	restaurant *models.User
	driver     *models.User
	burger     *models.Meal
	fries      *models.Meal
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.CustomerProfile{},
		&models.RestaurantProfile{},
		&models.DeliveryProfile{},
		&models.Meal{},
		&models.Order{},
		&models.OrderItem{},
		&models.OrderStatusEvent{},
	))

	f := &fixture{
		identity: store.NewIdentity(db),
		catalog:  store.NewCatalog(db),
		orders:   store.NewOrders(db),
	}
	log := zap.NewNop()
	f.svc = NewOrderService(f.orders, f.identity, f.catalog, notify.NewLogNotifier(log), log, 0.08)

	ctx := context.Background()
	f.customer = &models.User{
		Email: "cust@example.com", PasswordHash: "x", Role: models.RoleCustomer,
		Customer: &models.CustomerProfile{Name: "Cust"},
	}
	require.NoError(t, f.identity.Create(ctx, f.customer))

	f.restaurant = &models.User{
		Email: "resto@example.com", PasswordHash: "x", Role: models.RoleRestaurant,
		Restaurant: &models.RestaurantProfile{
			Name:           "Testaurant",
			ApprovalStatus: models.ApprovalApproved,
			IsOpen:         true,
			DeliveryFee:    2.99,
			MinimumOrder:   10,
		},
	}
	require.NoError(t, f.identity.Create(ctx, f.restaurant))

	f.driver = &models.User{
		Email: "rider@example.com", PasswordHash: "x", Role: models.RoleDelivery,
		Delivery: &models.DeliveryProfile{
			Name: "Rider", VehicleType: "bike",
			ApprovalStatus: models.ApprovalApproved,
			IsAvailable:    true,
		},
	}
	require.NoError(t, f.identity.Create(ctx, f.driver))

	f.burger = &models.Meal{RestaurantID: f.restaurant.ID, Name: "Burger", Price: 10.00, IsAvailable: true, PrepMinutes: 20}
	require.NoError(t, f.catalog.Create(ctx, f.burger))
	f.fries = &models.Meal{RestaurantID: f.restaurant.ID, Name: "Fries", Price: 5.50, IsAvailable: true, PrepMinutes: 10}
	require.NoError(t, f.catalog.Create(ctx, f.fries))

	return f
}

func (f *fixture) placeOrder(t *testing.T) *models.Order {
	t.Helper()
	order, err := f.svc.CreateOrder(context.Background(), CreateOrderInput{
		CustomerID:   f.customer.ID,
		RestaurantID: f.restaurant.ID,
		Items: []CreateOrderItem{
			{MealID: f.burger.ID, Quantity: 2},
			{MealID: f.fries.ID, Quantity: 1},
		},
		DeliveryAddress: "123 Test Lane",
		PaymentMethod:   models.PaymentCash,
	})
	require.NoError(t, err)
	return order
}

func TestComputeTotals(t *testing.T) {
	items := []models.OrderItem{
		{UnitPrice: 10.00, Quantity: 2, LineTotal: 20.00},
		{UnitPrice: 5.50, Quantity: 1, LineTotal: 5.50},
	}
	subtotal, total := ComputeTotals(items, 2.99, 1.80, 0)
	assert.InDelta(t, 25.50, subtotal, 0.001)
	assert.InDelta(t, 30.29, total, 0.001)
}

func TestNewOrderNumberFormat(t *testing.T) {
	pattern := regexp.MustCompile(`^ORD-\d{6}-[0-9A-F]{6}$`)
	seen := map[string]bool{}
	for i := 0; i < 50; i++ {
		n := NewOrderNumber()
		assert.Regexp(t, pattern, n)
		assert.False(t, seen[n], "order number repeated: %s", n)
		seen[n] = true
	}
}

func TestCreateOrderSnapshotsAndTotals(t *testing.T) {
	f := newFixture(t)
	order := f.placeOrder(t)

	assert.Equal(t, models.StatusPending, order.Status)
	assert.InDelta(t, 25.50, order.Subtotal, 0.001)
	assert.InDelta(t, 2.99, order.DeliveryFee, 0.001)
	assert.InDelta(t, 2.04, order.Tax, 0.001) // 25.50 * 0.08
	assert.InDelta(t, 30.53, order.Total, 0.001)
	require.Len(t, order.Items, 2)
	assert.Equal(t, "Burger", order.Items[0].Name)
	assert.InDelta(t, 10.00, order.Items[0].UnitPrice, 0.001)
	require.Len(t, order.StatusHistory, 1)
	assert.Equal(t, models.StatusPending, order.StatusHistory[0].Status)

	// Later price edits never touch the stored snapshot.
	require.NoError(t, f.catalog.Update(context.Background(), f.burger.ID, map[string]any{"price": 99.0}))
	got, err := f.orders.FindByID(context.Background(), order.ID)
	require.NoError(t, err)
	assert.InDelta(t, 10.00, got.Items[0].UnitPrice, 0.001)
}

func TestCreateOrderRejectsBelowMinimum(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CreateOrder(context.Background(), CreateOrderInput{
		CustomerID:      f.customer.ID,
		RestaurantID:    f.restaurant.ID,
		Items:           []CreateOrderItem{{MealID: f.fries.ID, Quantity: 1}},
		DeliveryAddress: "123 Test Lane",
		PaymentMethod:   models.PaymentCash,
	})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestCreateOrderRejectsForeignAndUnavailableMeals(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	other := &models.User{
		Email: "other@example.com", PasswordHash: "x", Role: models.RoleRestaurant,
		Restaurant: &models.RestaurantProfile{Name: "Other", ApprovalStatus: models.ApprovalApproved, IsOpen: true},
	}
	require.NoError(t, f.identity.Create(ctx, other))
	foreign := &models.Meal{RestaurantID: other.ID, Name: "Pizza", Price: 12, IsAvailable: true}
	require.NoError(t, f.catalog.Create(ctx, foreign))

	_, err := f.svc.CreateOrder(ctx, CreateOrderInput{
		CustomerID:      f.customer.ID,
		RestaurantID:    f.restaurant.ID,
		Items:           []CreateOrderItem{{MealID: foreign.ID, Quantity: 1}},
		DeliveryAddress: "123 Test Lane",
		PaymentMethod:   models.PaymentCash,
	})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	require.NoError(t, f.catalog.Update(ctx, f.burger.ID, map[string]any{"is_available": false}))
	_, err = f.svc.CreateOrder(ctx, CreateOrderInput{
		CustomerID:      f.customer.ID,
		RestaurantID:    f.restaurant.ID,
		Items:           []CreateOrderItem{{MealID: f.burger.ID, Quantity: 2}},
		DeliveryAddress: "123 Test Lane",
		PaymentMethod:   models.PaymentCash,
	})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestFullLifecycleCashSettlesOnDelivery(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.placeOrder(t)

	restaurantActor := authz.Actor{ID: f.restaurant.ID, Role: models.RoleRestaurant}
	driverActor := authz.Actor{ID: f.driver.ID, Role: models.RoleDelivery}

	for _, next := range []models.OrderStatus{models.StatusAccepted, models.StatusPreparing, models.StatusReady} {
		_, err := f.svc.TransitionOrder(ctx, order.ID, next, restaurantActor, "")
		require.NoError(t, err)
	}

	claimed, err := f.svc.AssignDeliveryPerson(ctx, order.ID, f.driver.ID, driverActor)
	require.NoError(t, err)
	assert.Equal(t, models.StatusReady, claimed.Status)

	_, err = f.svc.TransitionOrder(ctx, order.ID, models.StatusOnTheWay, driverActor, "")
	require.NoError(t, err)
	delivered, err := f.svc.TransitionOrder(ctx, order.ID, models.StatusDelivered, driverActor, "")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusPaid, delivered.PaymentStatus)
	assert.NotNil(t, delivered.ActualDeliveryTime)

	got, err := f.orders.FindByID(ctx, order.ID)
	require.NoError(t, err)
	require.Len(t, got.StatusHistory, 6)
	assert.Equal(t, got.Status, got.StatusHistory[len(got.StatusHistory)-1].Status)
}

func TestTransitionForeignRestaurantForbidden(t *testing.T) {
	f := newFixture(t)
	order := f.placeOrder(t)

	stranger := authz.Actor{ID: f.restaurant.ID + 100, Role: models.RoleRestaurant}
	_, err := f.svc.TransitionOrder(context.Background(), order.ID, models.StatusAccepted, stranger, "")
	assert.ErrorIs(t, err, apperr.ErrForbidden)
}

func TestCancelRequiresReasonAndWindow(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.placeOrder(t)
	customerActor := authz.Actor{ID: f.customer.ID, Role: models.RoleCustomer}
	restaurantActor := authz.Actor{ID: f.restaurant.ID, Role: models.RoleRestaurant}

	_, err := f.svc.CancelOrder(ctx, order.ID, "", customerActor)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	for _, next := range []models.OrderStatus{models.StatusAccepted, models.StatusPreparing, models.StatusReady} {
		_, err := f.svc.TransitionOrder(ctx, order.ID, next, restaurantActor, "")
		require.NoError(t, err)
	}

	// Once the food is ready, only admin may cancel.
	_, err = f.svc.CancelOrder(ctx, order.ID, "changed my mind", customerActor)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	admin := authz.Actor{ID: 999, Role: models.RoleAdmin}
	cancelled, err := f.svc.CancelOrder(ctx, order.ID, "restaurant closed early", admin)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCancelled, cancelled.Status)
	assert.Equal(t, "restaurant closed early", cancelled.CancellationReason)
}

func TestAssignDeliveryPersonGuards(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	order := f.placeOrder(t)
	restaurantActor := authz.Actor{ID: f.restaurant.ID, Role: models.RoleRestaurant}
	driverActor := authz.Actor{ID: f.driver.ID, Role: models.RoleDelivery}

	// Not ready yet.
	_, err := f.svc.AssignDeliveryPerson(ctx, order.ID, f.driver.ID, driverActor)
	assert.ErrorIs(t, err, apperr.ErrConflict)

	for _, next := range []models.OrderStatus{models.StatusAccepted, models.StatusPreparing, models.StatusReady} {
		_, err := f.svc.TransitionOrder(ctx, order.ID, next, restaurantActor, "")
		require.NoError(t, err)
	}

	// Drivers may only claim for themselves.
	_, err = f.svc.AssignDeliveryPerson(ctx, order.ID, f.driver.ID+100, driverActor)
	assert.ErrorIs(t, err, apperr.ErrForbidden)

	// Unavailable drivers cannot be assigned, even by admin.
	f.driver.Delivery.IsAvailable = false
	require.NoError(t, f.identity.SaveProfile(ctx, f.driver.Delivery))
	admin := authz.Actor{ID: 999, Role: models.RoleAdmin}
	_, err = f.svc.AssignDeliveryPerson(ctx, order.ID, f.driver.ID, admin)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	f.driver.Delivery.IsAvailable = true
	require.NoError(t, f.identity.SaveProfile(ctx, f.driver.Delivery))
	claimed, err := f.svc.AssignDeliveryPerson(ctx, order.ID, f.driver.ID, admin)
	require.NoError(t, err)
	assert.Equal(t, f.driver.ID, *claimed.DeliveryPersonID)
}
