package models

import "time"

// Meal is a catalog entry owned by a restaurant user. Meals are
// soft-deleted so historical orders keep resolving their meal ids.
type Meal struct {
	ID           uint       `json:"id" gorm:"primaryKey"`
	RestaurantID uint       `json:"restaurant_id" gorm:"not null;index"`
	Name         string     `json:"name" gorm:"not null"`
	Description  string     `json:"description"`
	Price        float64    `json:"price" gorm:"not null"`
	Category     string     `json:"category" gorm:"index"`
	IsAvailable  bool       `json:"is_available" gorm:"default:true"`
	PrepMinutes  int        `json:"prep_minutes" gorm:"default:15"`
	RatingAvg    float64    `json:"rating_avg" gorm:"default:0"`
	RatingCount  int        `json:"rating_count" gorm:"default:0"`
	IsDeleted    bool       `json:"-" gorm:"default:false;index"`
	DeletedAt    *time.Time `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}
