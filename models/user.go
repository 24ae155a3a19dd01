package models

import (
	"time"
)

// UserRole defines allowed roles in the system
type UserRole string

const (
	RoleAdmin      UserRole = "admin"
	RoleCustomer   UserRole = "customer"
	RoleRestaurant UserRole = "restaurant"
	RoleDelivery   UserRole = "delivery"
)

// ValidRoles is the closed set of roles accepted at registration.
var ValidRoles = map[UserRole]bool{
	RoleAdmin:      true,
	RoleCustomer:   true,
	RoleRestaurant: true,
	RoleDelivery:   true,
}

// ApprovalStatus tracks the admin approval workflow for restaurants and
// delivery personnel. Customers and admins are never subject to approval.
type ApprovalStatus string

const (
	ApprovalPending   ApprovalStatus = "pending"
	ApprovalApproved  ApprovalStatus = "approved"
	ApprovalRejected  ApprovalStatus = "rejected"
	ApprovalSuspended ApprovalStatus = "suspended"
)

// User is the identity base record. Exactly one role-specific profile is
// populated, resolved by Role at load/save boundaries.
type User struct {
	ID              uint       `json:"id" gorm:"primaryKey"`
	Email           string     `json:"email" gorm:"uniqueIndex;not null"`
	PasswordHash    string     `json:"-" gorm:"not null"`
	Role            UserRole   `json:"role" gorm:"not null;default:'customer'"`
	IsActive        bool       `json:"is_active" gorm:"default:true"`
	IsEmailVerified bool       `json:"is_email_verified" gorm:"default:false"`
	LastLoginAt     *time.Time `json:"last_login_at,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
	UpdatedAt       time.Time  `json:"updated_at"`

	Customer   *CustomerProfile   `json:"customer_profile,omitempty" gorm:"foreignKey:UserID"`
	Restaurant *RestaurantProfile `json:"restaurant_profile,omitempty" gorm:"foreignKey:UserID"`
	Delivery   *DeliveryProfile   `json:"delivery_profile,omitempty" gorm:"foreignKey:UserID"`
}

// DisplayName is computed on read, never stored.
func (u *User) DisplayName() string {
	switch u.Role {
	case RoleCustomer:
		if u.Customer != nil {
			return u.Customer.Name
		}
	case RoleRestaurant:
		if u.Restaurant != nil {
			return u.Restaurant.Name
		}
	case RoleDelivery:
		if u.Delivery != nil {
			return u.Delivery.Name
		}
	}
	return u.Email
}

type CustomerProfile struct {
	ID                    uint      `json:"-" gorm:"primaryKey"`
	UserID                uint      `json:"-" gorm:"uniqueIndex;not null"`
	Name                  string    `json:"name" gorm:"not null"`
	Phone                 string    `json:"phone"`
	Address               string    `json:"address"`
	FavoriteRestaurantIDs []uint    `json:"favorite_restaurant_ids" gorm:"serializer:json"`
	LoyaltyPoints         int       `json:"loyalty_points" gorm:"default:0"`
	CreatedAt             time.Time `json:"-"`
	UpdatedAt             time.Time `json:"-"`
}

// DayHours is one business-hours entry; a restaurant carries exactly seven,
// keyed by lowercase weekday name.
type DayHours struct {
	Open   string `json:"open"`
	Close  string `json:"close"`
	Closed bool   `json:"closed"`
}

type RestaurantProfile struct {
	ID             uint                `json:"-" gorm:"primaryKey"`
	UserID         uint                `json:"-" gorm:"uniqueIndex;not null"`
	Name           string              `json:"name" gorm:"not null"`
	Description    string              `json:"description"`
	ContactNumbers []string            `json:"contact_numbers" gorm:"serializer:json"`
	CuisineTypes   []string            `json:"cuisine_types" gorm:"serializer:json"`
	Address        string              `json:"address"`
	Latitude       float64             `json:"latitude"`
	Longitude      float64             `json:"longitude"`
	BusinessHours  map[string]DayHours `json:"business_hours" gorm:"serializer:json"`
	DeliveryFee    float64             `json:"delivery_fee" gorm:"default:0"`
	MinimumOrder   float64             `json:"minimum_order_amount" gorm:"default:0"`
	ApprovalStatus ApprovalStatus      `json:"approval_status" gorm:"not null;default:'pending'"`
	IsOpen         bool                `json:"is_open" gorm:"default:true"`
	RatingAvg      float64             `json:"rating_avg" gorm:"default:0"`
	RatingCount    int                 `json:"rating_count" gorm:"default:0"`
	CreatedAt      time.Time           `json:"-"`
	UpdatedAt      time.Time           `json:"-"`
}

type DeliveryProfile struct {
	ID                   uint           `json:"-" gorm:"primaryKey"`
	UserID               uint           `json:"-" gorm:"uniqueIndex;not null"`
	Name                 string         `json:"name" gorm:"not null"`
	Phone                string         `json:"phone"`
	VehicleType          string         `json:"vehicle_type"`
	LicensePlate         string         `json:"license_plate"`
	AssignedRestaurantID *uint          `json:"assigned_restaurant_id,omitempty"`
	IsAvailable          bool           `json:"is_available" gorm:"default:false"`
	Latitude             float64        `json:"latitude"`
	Longitude            float64        `json:"longitude"`
	ApprovalStatus       ApprovalStatus `json:"approval_status" gorm:"not null;default:'pending'"`
	CreatedAt            time.Time      `json:"-"`
	UpdatedAt            time.Time      `json:"-"`
}

// Weekdays is the canonical key set for BusinessHours.
var Weekdays = []string{"monday", "tuesday", "wednesday", "thursday", "friday", "saturday", "sunday"}
