package store

import (
	"context"
	"errors"
	"time"

	"meal-delivery-api/apperr"
	"meal-delivery-api/models"

	"gorm.io/gorm"
)

// Catalog is the meal store.
type Catalog struct {
	db *gorm.DB
}

func NewCatalog(db *gorm.DB) *Catalog { return &Catalog{db: db} }

func (s *Catalog) Create(ctx context.Context, meal *models.Meal) error {
	return s.db.WithContext(ctx).Create(meal).Error
}

func (s *Catalog) FindByID(ctx context.Context, id uint) (*models.Meal, error) {
	var meal models.Meal
	err := s.db.WithContext(ctx).Where("is_deleted = ?", false).First(&meal, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("meal %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &meal, nil
}

// MealFilter narrows FindByRestaurant results.
type MealFilter struct {
	Category      string
	AvailableOnly bool
	Search        string
}

func (s *Catalog) FindByRestaurant(ctx context.Context, restaurantID uint, f MealFilter) ([]models.Meal, error) {
	var meals []models.Meal
	q := s.db.WithContext(ctx).
		Where("restaurant_id = ? AND is_deleted = ?", restaurantID, false)
	if f.Category != "" {
		q = q.Where("category = ?", f.Category)
	}
	if f.AvailableOnly {
		q = q.Where("is_available = ?", true)
	}
	if f.Search != "" {
		like := "%" + f.Search + "%"
		q = q.Where("name LIKE ? OR description LIKE ?", like, like)
	}
	if err := q.Order("category, name").Find(&meals).Error; err != nil {
		return nil, err
	}
	return meals, nil
}

// Update applies a whitelisted field map.
func (s *Catalog) Update(ctx context.Context, mealID uint, fields map[string]any) error {
	res := s.db.WithContext(ctx).Model(&models.Meal{}).
		Where("id = ? AND is_deleted = ?", mealID, false).
		Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("meal %d not found", mealID)
	}
	return nil
}

// SoftDelete flags the meal; rows referenced by historical orders are never
// physically removed.
func (s *Catalog) SoftDelete(ctx context.Context, mealID uint) error {
	now := time.Now()
	return s.Update(ctx, mealID, map[string]any{"is_deleted": true, "deleted_at": &now})
}

func (s *Catalog) ToggleAvailability(ctx context.Context, mealID uint) (*models.Meal, error) {
	meal, err := s.FindByID(ctx, mealID)
	if err != nil {
		return nil, err
	}
	meal.IsAvailable = !meal.IsAvailable
	if err := s.db.WithContext(ctx).Model(meal).Update("is_available", meal.IsAvailable).Error; err != nil {
		return nil, err
	}
	return meal, nil
}
