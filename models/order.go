package models

import "time"

// OrderStatus represents all possible states of a food delivery order
type OrderStatus string

const (
	StatusPending   OrderStatus = "pending"
	StatusAccepted  OrderStatus = "accepted"
	StatusPreparing OrderStatus = "preparing"
	StatusReady     OrderStatus = "ready"
	StatusOnTheWay  OrderStatus = "on_the_way"
	StatusDelivered OrderStatus = "delivered"
	StatusCancelled OrderStatus = "cancelled"
)

// IsTerminal reports whether no further transition can leave this status.
func (s OrderStatus) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

type PaymentMethod string

const (
	PaymentCash   PaymentMethod = "cash"
	PaymentCard   PaymentMethod = "card"
	PaymentWallet PaymentMethod = "digital_wallet"
)

type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusPaid     PaymentStatus = "paid"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

// Order is the aggregate: the order row plus its embedded items and status
// history, treated as one consistency unit. Items snapshot meal name and
// price at creation so later meal edits never change historical orders.
type Order struct {
	ID               uint        `json:"id" gorm:"primaryKey"`
	OrderNumber      string      `json:"order_number" gorm:"uniqueIndex;not null"`
	CustomerID       uint        `json:"customer_id" gorm:"not null;index"`
	RestaurantID     uint        `json:"restaurant_id" gorm:"not null;index"`
	DeliveryPersonID *uint       `json:"delivery_person_id" gorm:"index"`
	Items            []OrderItem `json:"items,omitempty" gorm:"foreignKey:OrderID"`

	Subtotal    float64 `json:"subtotal"`
	DeliveryFee float64 `json:"delivery_fee"`
	Tax         float64 `json:"tax"`
	Discount    float64 `json:"discount"`
	Total       float64 `json:"total"`

	Status        OrderStatus        `json:"status" gorm:"not null;default:'pending';index"`
	StatusHistory []OrderStatusEvent `json:"status_history,omitempty" gorm:"foreignKey:OrderID"`

	DeliveryAddress     string `json:"delivery_address" gorm:"not null"`
	SpecialInstructions string `json:"special_instructions"`

	EstimatedDeliveryTime time.Time  `json:"estimated_delivery_time"`
	PreparationStartTime  *time.Time `json:"preparation_start_time,omitempty"`
	PreparationEndTime    *time.Time `json:"preparation_end_time,omitempty"`
	PickupTime            *time.Time `json:"pickup_time,omitempty"`
	ActualDeliveryTime    *time.Time `json:"actual_delivery_time,omitempty"`

	PaymentMethod PaymentMethod `json:"payment_method" gorm:"not null;default:'cash'"`
	PaymentStatus PaymentStatus `json:"payment_status" gorm:"not null;default:'pending';index"`

	CancellationReason string     `json:"cancellation_reason,omitempty"`
	CancelledBy        *uint      `json:"cancelled_by,omitempty"`
	CancelledAt        *time.Time `json:"cancelled_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// OrderItem snapshots the meal name and unit price at order time.
type OrderItem struct {
	ID        uint    `json:"-" gorm:"primaryKey"`
	OrderID   uint    `json:"-" gorm:"not null;index"`
	MealID    uint    `json:"meal_id" gorm:"not null"`
	Name      string  `json:"name" gorm:"not null"`
	UnitPrice float64 `json:"unit_price" gorm:"not null"`
	Quantity  int     `json:"quantity" gorm:"not null"`
	LineTotal float64 `json:"line_total" gorm:"not null"`
}

// OrderStatusEvent is one entry of the append-only audit trail. Entries are
// never edited or reordered; the latest entry's status always equals the
// order's current status.
type OrderStatusEvent struct {
	ID        uint        `json:"-" gorm:"primaryKey"`
	OrderID   uint        `json:"-" gorm:"not null;index"`
	Status    OrderStatus `json:"status" gorm:"not null"`
	Note      string      `json:"note,omitempty"`
	ActorID   *uint       `json:"actor_id,omitempty"`
	CreatedAt time.Time   `json:"timestamp"`
}
