// Package store wraps the database behind thin per-entity contracts. The
// stores hold no lifecycle logic; they supply existence, ownership and the
// conditional-update primitives the order engine relies on.
package store

import (
	"context"
	"errors"
	"strings"

	"meal-delivery-api/apperr"
	"meal-delivery-api/models"

	"gorm.io/gorm"
)

// Identity is the user store.
type Identity struct {
	db *gorm.DB
}

func NewIdentity(db *gorm.DB) *Identity { return &Identity{db: db} }

func isDuplicate(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Create inserts the user together with its role profile. Duplicate emails
// surface as Conflict; uniqueness is enforced by the storage layer, not by a
// racy pre-read.
func (s *Identity) Create(ctx context.Context, user *models.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if isDuplicate(err) {
			return apperr.Conflict("email '%s' is already registered", user.Email)
		}
		return err
	}
	return nil
}

func (s *Identity) FindByID(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Preload("Customer").Preload("Restaurant").Preload("Delivery").
		First(&user, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("user %d not found", id)
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// FindByEmail looks a user up case-insensitively.
func (s *Identity) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	err := s.db.WithContext(ctx).
		Preload("Customer").Preload("Restaurant").Preload("Delivery").
		Where("email = ?", strings.ToLower(strings.TrimSpace(email))).
		First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("no account for that email")
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateFields applies a whitelisted field map to the user row.
func (s *Identity) UpdateFields(ctx context.Context, userID uint, fields map[string]any) error {
	res := s.db.WithContext(ctx).Model(&models.User{}).Where("id = ?", userID).Updates(fields)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return apperr.NotFound("user %d not found", userID)
	}
	return nil
}

// SetApprovalStatus updates the approval workflow state on the role profile
// matching the user's role. Only restaurants and delivery personnel carry one.
func (s *Identity) SetApprovalStatus(ctx context.Context, user *models.User, status models.ApprovalStatus) error {
	switch user.Role {
	case models.RoleRestaurant:
		return s.db.WithContext(ctx).Model(&models.RestaurantProfile{}).
			Where("user_id = ?", user.ID).
			Update("approval_status", status).Error
	case models.RoleDelivery:
		return s.db.WithContext(ctx).Model(&models.DeliveryProfile{}).
			Where("user_id = ?", user.ID).
			Update("approval_status", status).Error
	}
	return apperr.Validation("role '%s' has no approval workflow", user.Role)
}

// SetActive soft-(de)activates an account; users are never hard-deleted.
func (s *Identity) SetActive(ctx context.Context, userID uint, active bool) error {
	return s.UpdateFields(ctx, userID, map[string]any{"is_active": active})
}

func (s *Identity) SetRole(ctx context.Context, userID uint, role models.UserRole) error {
	return s.UpdateFields(ctx, userID, map[string]any{"role": role})
}

// SaveProfile persists the role-specific payload.
func (s *Identity) SaveProfile(ctx context.Context, profile any) error {
	return s.db.WithContext(ctx).Save(profile).Error
}

// List returns users, optionally filtered by role.
func (s *Identity) List(ctx context.Context, role models.UserRole) ([]models.User, error) {
	var users []models.User
	q := s.db.WithContext(ctx).Preload("Customer").Preload("Restaurant").Preload("Delivery")
	if role != "" {
		q = q.Where("role = ?", role)
	}
	if err := q.Order("created_at desc").Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

// ListApprovedRestaurants returns approved restaurant users with optional
// cuisine/name filters and an open-now filter.
func (s *Identity) ListApprovedRestaurants(ctx context.Context, cuisine, search string, openOnly bool) ([]models.User, error) {
	var users []models.User
	q := s.db.WithContext(ctx).Preload("Restaurant").
		Joins("JOIN restaurant_profiles rp ON rp.user_id = users.id").
		Where("users.role = ? AND rp.approval_status = ?", models.RoleRestaurant, models.ApprovalApproved).
		Where("users.is_active = ?", true)
	if cuisine != "" {
		q = q.Where("rp.cuisine_types LIKE ?", "%"+cuisine+"%")
	}
	if search != "" {
		q = q.Where("rp.name LIKE ?", "%"+search+"%")
	}
	if openOnly {
		q = q.Where("rp.is_open = ?", true)
	}
	if err := q.Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}
