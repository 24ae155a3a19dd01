package handlers

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"net/http"
	"time"

	"meal-delivery-api/config"
	"meal-delivery-api/middleware"
	"meal-delivery-api/models"
	"meal-delivery-api/notify"
	"meal-delivery-api/store"
	"meal-delivery-api/validate"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type AuthHandler struct {
	identity *store.Identity
	otps     *store.OTPs
	notifier notify.Notifier
	cfg      *config.Config
	logger   *zap.Logger
}

type CustomerPayload struct {
	Name    string `json:"name" binding:"required"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

type RestaurantPayload struct {
	Name           string                     `json:"name" binding:"required"`
	Description    string                     `json:"description"`
	ContactNumbers []string                   `json:"contact_numbers" binding:"required"`
	CuisineTypes   []string                   `json:"cuisine_types" binding:"required"`
	Address        string                     `json:"address" binding:"required"`
	Latitude       float64                    `json:"latitude"`
	Longitude      float64                    `json:"longitude"`
	BusinessHours  map[string]models.DayHours `json:"business_hours" binding:"required"`
	DeliveryFee    float64                    `json:"delivery_fee"`
	MinimumOrder   float64                    `json:"minimum_order_amount"`
}

type DeliveryPayload struct {
	Name         string `json:"name" binding:"required"`
	Phone        string `json:"phone" binding:"required"`
	VehicleType  string `json:"vehicle_type" binding:"required"`
	LicensePlate string `json:"license_plate"`
}

type RegisterRequest struct {
	Email    string          `json:"email" binding:"required,email"`
	Password string          `json:"password" binding:"required,min=6"`
	Role     models.UserRole `json:"role" binding:"required"`

	Customer   *CustomerPayload   `json:"customer_profile"`
	Restaurant *RestaurantPayload `json:"restaurant_profile"`
	Delivery   *DeliveryPayload   `json:"delivery_profile"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func generateOTP() string {
	n, err := rand.Int(rand.Reader, big.NewInt(1_000_000))
	if err != nil {
		// crypto/rand only fails when the platform source is broken
		panic(err)
	}
	return fmt.Sprintf("%06d", n.Int64())
}

// Register creates a new account with its role-specific profile, pending
// email verification (and, for restaurants and delivery, admin approval).
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if !models.ValidRoles[req.Role] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role. Must be: customer, restaurant, delivery, or admin"})
		return
	}

	user := models.User{
		Email: req.Email,
		Role:  req.Role,
	}

	ve := validate.New()
	switch req.Role {
	case models.RoleCustomer:
		if req.Customer == nil {
			ve.Add("customer_profile", "is required for customer accounts")
			break
		}
		user.Customer = &models.CustomerProfile{
			Name:    req.Customer.Name,
			Phone:   req.Customer.Phone,
			Address: req.Customer.Address,
		}
	case models.RoleRestaurant:
		if req.Restaurant == nil {
			ve.Add("restaurant_profile", "is required for restaurant accounts")
			break
		}
		p := req.Restaurant
		ve.CountBetween("restaurant_profile.contact_numbers", len(p.ContactNumbers), 1, 3)
		ve.CountBetween("restaurant_profile.cuisine_types", len(p.CuisineTypes), 1, 10)
		ve.BusinessHours("restaurant_profile.business_hours", p.BusinessHours)
		ve.NonNegative("restaurant_profile.delivery_fee", p.DeliveryFee)
		ve.NonNegative("restaurant_profile.minimum_order_amount", p.MinimumOrder)
		user.Restaurant = &models.RestaurantProfile{
			Name:           p.Name,
			Description:    p.Description,
			ContactNumbers: p.ContactNumbers,
			CuisineTypes:   p.CuisineTypes,
			Address:        p.Address,
			Latitude:       p.Latitude,
			Longitude:      p.Longitude,
			BusinessHours:  p.BusinessHours,
			DeliveryFee:    p.DeliveryFee,
			MinimumOrder:   p.MinimumOrder,
			ApprovalStatus: models.ApprovalPending,
			IsOpen:         true,
		}
	case models.RoleDelivery:
		if req.Delivery == nil {
			ve.Add("delivery_profile", "is required for delivery accounts")
			break
		}
		user.Delivery = &models.DeliveryProfile{
			Name:           req.Delivery.Name,
			Phone:          req.Delivery.Phone,
			VehicleType:    req.Delivery.VehicleType,
			LicensePlate:   req.Delivery.LicensePlate,
			ApprovalStatus: models.ApprovalPending,
		}
	}
	if err := ve.Err(); err != nil {
		respondError(c, err)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}
	user.PasswordHash = string(hash)

	if err := h.identity.Create(c.Request.Context(), &user); err != nil {
		respondError(c, err)
		return
	}

	h.issueOTP(c, user.Email, models.OTPPurposeVerifyEmail)

	c.JSON(http.StatusCreated, gin.H{
		"message": "Account created. Check your email for the verification code.",
		"user": gin.H{
			"id":    user.ID,
			"email": user.Email,
			"role":  user.Role,
			"name":  user.DisplayName(),
		},
	})
}

// issueOTP stores a fresh code and hands it to the notification collaborator.
// Delivery failures are logged, never surfaced: the account exists either way
// and the code can be re-requested.
func (h *AuthHandler) issueOTP(c *gin.Context, email string, purpose models.OTPPurpose) {
	otp := &models.EmailOTP{
		Email:     email,
		Code:      generateOTP(),
		Purpose:   purpose,
		ExpiresAt: time.Now().Add(time.Duration(h.cfg.OTP.TTLMinutes) * time.Minute),
	}
	if err := h.otps.Issue(c.Request.Context(), otp); err != nil {
		h.logger.Error("failed to store otp", zap.Error(err))
		return
	}
	if err := h.notifier.Notify(c.Request.Context(), notify.EventEmailOTP, map[string]any{
		"email":   email,
		"purpose": purpose,
		"code":    otp.Code,
	}); err != nil {
		h.logger.Error("failed to send otp", zap.Error(err))
	}
}

type VerifyEmailRequest struct {
	Email string `json:"email" binding:"required,email"`
	Code  string `json:"code" binding:"required,len=6"`
}

// VerifyEmail consumes the OTP and marks the account verified.
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	var req VerifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.identity.FindByEmail(c.Request.Context(), req.Email)
	if err != nil {
		respondError(c, err)
		return
	}
	if user.IsEmailVerified {
		c.JSON(http.StatusOK, gin.H{"message": "Email already verified"})
		return
	}

	if err := h.otps.Consume(c.Request.Context(), user.Email, req.Code, models.OTPPurposeVerifyEmail); err != nil {
		respondError(c, err)
		return
	}
	if err := h.identity.UpdateFields(c.Request.Context(), user.ID, map[string]any{"is_email_verified": true}); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Email verified. You can now log in."})
}

type ResendOTPRequest struct {
	Email string `json:"email" binding:"required,email"`
}

// ResendOTP issues a fresh verification code, invalidating older ones.
func (h *AuthHandler) ResendOTP(c *gin.Context) {
	var req ResendOTPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.identity.FindByEmail(c.Request.Context(), req.Email)
	if err != nil {
		respondError(c, err)
		return
	}
	if user.IsEmailVerified {
		c.JSON(http.StatusOK, gin.H{"message": "Email already verified"})
		return
	}

	h.issueOTP(c, user.Email, models.OTPPurposeVerifyEmail)
	c.JSON(http.StatusOK, gin.H{"message": "Verification code sent"})
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required"`
}

// ForgotPassword issues a reset code to a registered email. Reset codes share
// the OTP machinery with email verification but live under their own purpose,
// so a verification code can never reset a password.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := validate.New().Email("email", req.Email).Err(); err != nil {
		respondError(c, err)
		return
	}

	user, err := h.identity.FindByEmail(c.Request.Context(), req.Email)
	if err != nil {
		respondError(c, err)
		return
	}

	h.issueOTP(c, user.Email, models.OTPPurposeResetPassword)
	c.JSON(http.StatusOK, gin.H{"message": "Password reset code sent"})
}

type ResetPasswordRequest struct {
	Email       string `json:"email" binding:"required,email"`
	Code        string `json:"code" binding:"required,len=6"`
	NewPassword string `json:"new_password" binding:"required,min=6"`
}

// ResetPassword consumes the reset code and replaces the password hash.
func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.identity.FindByEmail(c.Request.Context(), req.Email)
	if err != nil {
		respondError(c, err)
		return
	}

	if err := h.otps.Consume(c.Request.Context(), user.Email, req.Code, models.OTPPurposeResetPassword); err != nil {
		respondError(c, err)
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}
	if err := h.identity.UpdateFields(c.Request.Context(), user.ID, map[string]any{"password_hash": string(hash)}); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password reset. You can now log in with the new password."})
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" binding:"required"`
	NewPassword     string `json:"new_password" binding:"required,min=6"`
}

// ChangePassword replaces the logged-in user's password after re-checking the
// current one.
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.identity.FindByID(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.CurrentPassword)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Current password is incorrect"})
		return
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to hash password"})
		return
	}
	if err := h.identity.UpdateFields(c.Request.Context(), user.ID, map[string]any{"password_hash": string(hash)}); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Password changed"})
}

// Login authenticates a verified, active user and returns a JWT
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.identity.FindByEmail(c.Request.Context(), req.Email)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}
	if !user.IsEmailVerified {
		c.JSON(http.StatusForbidden, gin.H{"error": "Email not verified. Check your inbox for the code."})
		return
	}
	if !user.IsActive {
		c.JSON(http.StatusForbidden, gin.H{"error": "Account is deactivated"})
		return
	}

	token, err := middleware.GenerateToken(user,
		[]byte(h.cfg.JWT.Secret),
		time.Duration(h.cfg.JWT.TTLHours)*time.Hour)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate token"})
		return
	}

	now := time.Now()
	if err := h.identity.UpdateFields(c.Request.Context(), user.ID, map[string]any{"last_login_at": &now}); err != nil {
		h.logger.Warn("failed to record login time", zap.Error(err))
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"token":   token,
		"user": gin.H{
			"id":    user.ID,
			"email": user.Email,
			"role":  user.Role,
			"name":  user.DisplayName(),
		},
	})
}

// GetProfile returns the authenticated user's record with its role profile.
func (h *AuthHandler) GetProfile(c *gin.Context) {
	user, err := h.identity.FindByID(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}
