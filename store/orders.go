package store

import (
	"context"
	"errors"

	"meal-delivery-api/apperr"
	"meal-delivery-api/models"

	"gorm.io/gorm"
)

// Orders is the order store. Status changes go through conditional updates
// keyed on the expected prior state so concurrent writers cannot silently
// overwrite each other; the loser gets Conflict and must re-fetch.
type Orders struct {
	db *gorm.DB
}

func NewOrders(db *gorm.DB) *Orders { return &Orders{db: db} }

// Create persists the order, its item snapshots and the initial history
// entry in one transaction.
func (s *Orders) Create(ctx context.Context, order *models.Order) error {
	return s.db.WithContext(ctx).Create(order).Error
}

func (s *Orders) FindByID(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	err := s.db.WithContext(ctx).
		Preload("Items").
		Preload("StatusHistory", func(db *gorm.DB) *gorm.DB {
			return db.Order("id asc")
		}).
		First(&order, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("order %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (s *Orders) FindByCustomer(ctx context.Context, customerID uint) ([]models.Order, error) {
	return s.findWhere(ctx, "customer_id = ?", customerID)
}

func (s *Orders) FindByRestaurant(ctx context.Context, restaurantID uint, status models.OrderStatus) ([]models.Order, error) {
	if status != "" {
		return s.findWhere(ctx, "restaurant_id = ? AND status = ?", restaurantID, status)
	}
	return s.findWhere(ctx, "restaurant_id = ?", restaurantID)
}

func (s *Orders) FindByDeliveryPerson(ctx context.Context, deliveryPersonID uint) ([]models.Order, error) {
	return s.findWhere(ctx, "delivery_person_id = ?", deliveryPersonID)
}

// FindAvailableForPickup returns ready, unclaimed orders oldest first.
func (s *Orders) FindAvailableForPickup(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.WithContext(ctx).Preload("Items").
		Where("status = ? AND delivery_person_id IS NULL", models.StatusReady).
		Order("created_at asc").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

func (s *Orders) findWhere(ctx context.Context, query string, args ...any) ([]models.Order, error) {
	var orders []models.Order
	err := s.db.WithContext(ctx).Preload("Items").
		Where(query, args...).
		Order("created_at desc").
		Find(&orders).Error
	if err != nil {
		return nil, err
	}
	return orders, nil
}

// AdminFilter narrows the admin order listing.
type AdminFilter struct {
	Status       models.OrderStatus
	CustomerID   uint
	RestaurantID uint
}

func (s *Orders) ListAll(ctx context.Context, f AdminFilter) ([]models.Order, error) {
	q := s.db.WithContext(ctx).Preload("Items").Preload("StatusHistory")
	if f.Status != "" {
		q = q.Where("status = ?", f.Status)
	}
	if f.CustomerID != 0 {
		q = q.Where("customer_id = ?", f.CustomerID)
	}
	if f.RestaurantID != 0 {
		q = q.Where("restaurant_id = ?", f.RestaurantID)
	}
	var orders []models.Order
	if err := q.Order("created_at desc").Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// ApplyTransition persists an order already mutated by the lifecycle engine,
// conditionally on the expected prior status. If another writer moved the
// order first, no row matches, nothing is written and Conflict is returned.
// The history entry is only inserted when the guarded update wins.
func (s *Orders) ApplyTransition(ctx context.Context, order *models.Order, expected models.OrderStatus) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Order{}).
			Where("id = ? AND status = ?", order.ID, expected).
			Updates(map[string]any{
				"status":                 order.Status,
				"payment_status":         order.PaymentStatus,
				"preparation_start_time": order.PreparationStartTime,
				"preparation_end_time":   order.PreparationEndTime,
				"pickup_time":            order.PickupTime,
				"actual_delivery_time":   order.ActualDeliveryTime,
				"cancellation_reason":    order.CancellationReason,
				"cancelled_by":           order.CancelledBy,
				"cancelled_at":           order.CancelledAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			var exists int64
			if err := tx.Model(&models.Order{}).Where("id = ?", order.ID).Count(&exists).Error; err != nil {
				return err
			}
			if exists == 0 {
				return apperr.NotFound("order %d not found", order.ID)
			}
			return apperr.Conflict("order %d was updated concurrently, re-fetch and retry", order.ID)
		}

		event := order.StatusHistory[len(order.StatusHistory)-1]
		return tx.Create(&event).Error
	})
}

// ClaimForDelivery atomically assigns a ready, unclaimed order to a delivery
// person. The guard is a single conditional UPDATE, not a read-modify-write
// pair, so two racing claimants can never both win; the loser gets Conflict.
func (s *Orders) ClaimForDelivery(ctx context.Context, orderID, deliveryPersonID uint) (*models.Order, error) {
	res := s.db.WithContext(ctx).Model(&models.Order{}).
		Where("id = ? AND status = ? AND delivery_person_id IS NULL", orderID, models.StatusReady).
		Update("delivery_person_id", deliveryPersonID)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		var exists int64
		if err := s.db.WithContext(ctx).Model(&models.Order{}).Where("id = ?", orderID).Count(&exists).Error; err != nil {
			return nil, err
		}
		if exists == 0 {
			return nil, apperr.NotFound("order %d not found", orderID)
		}
		return nil, apperr.Conflict("order %d is not available for pickup", orderID)
	}
	return s.FindByID(ctx, orderID)
}
