package store

import (
	"context"
	"errors"
	"time"

	"meal-delivery-api/apperr"
	"meal-delivery-api/models"

	"gorm.io/gorm"
)

const maxOTPAttempts = 5

// OTPs stores single-use email verification codes.
type OTPs struct {
	db *gorm.DB
}

func NewOTPs(db *gorm.DB) *OTPs { return &OTPs{db: db} }

// Issue invalidates any outstanding codes for the email/purpose pair and
// stores a fresh one.
func (s *OTPs) Issue(ctx context.Context, otp *models.EmailOTP) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&models.EmailOTP{}).
			Where("email = ? AND purpose = ? AND is_used = ?", otp.Email, otp.Purpose, false).
			Update("is_used", true).Error; err != nil {
			return err
		}
		return tx.Create(otp).Error
	})
}

// Consume verifies the code and marks it used. Wrong codes count as attempts;
// too many attempts burn the code.
func (s *OTPs) Consume(ctx context.Context, email, code string, purpose models.OTPPurpose) error {
	var otp models.EmailOTP
	err := s.db.WithContext(ctx).
		Where("email = ? AND purpose = ? AND is_used = ?", email, purpose, false).
		Order("created_at desc").
		First(&otp).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return apperr.Validation("no verification code outstanding, request a new one")
	}
	if err != nil {
		return err
	}

	if time.Now().After(otp.ExpiresAt) {
		return apperr.Validation("verification code expired, request a new one")
	}
	if otp.Attempts >= maxOTPAttempts {
		return apperr.Validation("too many attempts, request a new code")
	}
	if otp.Code != code {
		s.db.WithContext(ctx).Model(&otp).Update("attempts", otp.Attempts+1)
		return apperr.Validation("incorrect verification code")
	}

	return s.db.WithContext(ctx).Model(&otp).Update("is_used", true).Error
}
