package models

import "time"

// OTPPurpose scopes a code to the flow it was issued for.
type OTPPurpose string

const (
	OTPPurposeVerifyEmail   OTPPurpose = "verify_email"
	OTPPurposeResetPassword OTPPurpose = "reset_password"
)

// EmailOTP is a single-use 6-digit code mailed to a user. Codes expire and
// track failed attempts; issuing a new code invalidates prior ones for the
// same email and purpose.
type EmailOTP struct {
	ID        uint       `json:"id" gorm:"primaryKey"`
	Email     string     `json:"email" gorm:"not null;index"`
	Code      string     `json:"-" gorm:"not null"`
	Purpose   OTPPurpose `json:"purpose" gorm:"not null;index"`
	ExpiresAt time.Time  `json:"expires_at" gorm:"not null"`
	IsUsed    bool       `json:"is_used" gorm:"default:false"`
	Attempts  int        `json:"-" gorm:"default:0"`
	CreatedAt time.Time  `json:"created_at"`
}
