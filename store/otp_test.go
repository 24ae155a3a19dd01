package store

import (
	"context"
	"testing"
	"time"

	"meal-delivery-api/apperr"
	"meal-delivery-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func issueCode(t *testing.T, otps *OTPs, email, code string, ttl time.Duration) {
	t.Helper()
	require.NoError(t, otps.Issue(context.Background(), &models.EmailOTP{
		Email:     email,
		Code:      code,
		Purpose:   models.OTPPurposeVerifyEmail,
		ExpiresAt: time.Now().Add(ttl),
	}))
}

func TestOTPConsumeIsSingleUse(t *testing.T) {
	otps := NewOTPs(testDB(t))
	ctx := context.Background()
	issueCode(t, otps, "a@example.com", "123456", 10*time.Minute)

	require.NoError(t, otps.Consume(ctx, "a@example.com", "123456", models.OTPPurposeVerifyEmail))

	err := otps.Consume(ctx, "a@example.com", "123456", models.OTPPurposeVerifyEmail)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestOTPWrongCodeCountsAttempts(t *testing.T) {
	otps := NewOTPs(testDB(t))
	ctx := context.Background()
	issueCode(t, otps, "a@example.com", "123456", 10*time.Minute)

	for i := 0; i < maxOTPAttempts; i++ {
		err := otps.Consume(ctx, "a@example.com", "000000", models.OTPPurposeVerifyEmail)
		assert.ErrorIs(t, err, apperr.ErrValidation)
	}

	// The code is burned even when the right one finally arrives.
	err := otps.Consume(ctx, "a@example.com", "123456", models.OTPPurposeVerifyEmail)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestOTPExpiredCodeRejected(t *testing.T) {
	otps := NewOTPs(testDB(t))
	issueCode(t, otps, "a@example.com", "123456", -time.Minute)

	err := otps.Consume(context.Background(), "a@example.com", "123456", models.OTPPurposeVerifyEmail)
	assert.ErrorIs(t, err, apperr.ErrValidation)
}

func TestOTPReissueInvalidatesPriorCodes(t *testing.T) {
	otps := NewOTPs(testDB(t))
	ctx := context.Background()
	issueCode(t, otps, "a@example.com", "111111", 10*time.Minute)
	issueCode(t, otps, "a@example.com", "222222", 10*time.Minute)

	err := otps.Consume(ctx, "a@example.com", "111111", models.OTPPurposeVerifyEmail)
	assert.ErrorIs(t, err, apperr.ErrValidation)

	require.NoError(t, otps.Consume(ctx, "a@example.com", "222222", models.OTPPurposeVerifyEmail))
}
