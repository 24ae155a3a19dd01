package routes

import (
	"meal-delivery-api/handlers"
	"meal-delivery-api/middleware"
	"meal-delivery-api/models"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(r *gin.Engine, h *handlers.Set, jwtSecret []byte) {
	// ── Public routes ──────────────────────────────────────────────
	public := r.Group("/api")
	{
		// Auth
		public.POST("/auth/register", h.Auth.Register)
		public.POST("/auth/verify-email", h.Auth.VerifyEmail)
		public.POST("/auth/resend-otp", h.Auth.ResendOTP)
		public.POST("/auth/login", h.Auth.Login)
		public.POST("/auth/forgot-password", h.Auth.ForgotPassword)
		public.POST("/auth/reset-password", h.Auth.ResetPassword)

		// Restaurants & menus (no auth needed)
		public.GET("/restaurants", h.Public.ListRestaurants)
		public.GET("/restaurants/:id", h.Public.GetRestaurant)
		public.GET("/restaurants/:id/menu", h.Public.GetMenu)

		// State machine info (great for docs/Postman)
		public.GET("/state-machine", h.Public.GetStateMachineInfo)
	}

	// ── Authenticated routes ───────────────────────────────────────
	auth := r.Group("/api")
	auth.Use(middleware.AuthRequired(jwtSecret))
	{
		auth.GET("/profile", h.Auth.GetProfile)
		auth.PUT("/profile/password", h.Auth.ChangePassword)
	}

	// ── Customer routes ────────────────────────────────────────────
	customer := r.Group("/api/customer")
	customer.Use(middleware.AuthRequired(jwtSecret), middleware.RoleRequired(models.RoleCustomer))
	{
		customer.POST("/orders", h.Customer.PlaceOrder)
		customer.GET("/orders", h.Customer.GetMyOrders)
		customer.GET("/orders/:id", h.Customer.GetOrderDetail)
		customer.PUT("/orders/:id/cancel", h.Customer.CancelOrder)

		customer.PUT("/profile", h.Customer.UpdateProfile)
		customer.GET("/favorites", h.Customer.ListFavorites)
		customer.PUT("/favorites/:restaurantId", h.Customer.AddFavorite)
		customer.DELETE("/favorites/:restaurantId", h.Customer.RemoveFavorite)
	}

	// ── Restaurant owner routes ────────────────────────────────────
	restaurant := r.Group("/api/restaurant")
	restaurant.Use(middleware.AuthRequired(jwtSecret), middleware.RoleRequired(models.RoleRestaurant))
	{
		// Restaurant management
		restaurant.GET("/", h.Restaurant.GetMyRestaurant)
		restaurant.PUT("/", h.Restaurant.UpdateRestaurant)

		// Menu management
		restaurant.POST("/menu", h.Restaurant.AddMeal)
		restaurant.GET("/menu", h.Restaurant.ListMyMeals)
		restaurant.PUT("/menu/:mealId", h.Restaurant.UpdateMeal)
		restaurant.DELETE("/menu/:mealId", h.Restaurant.DeleteMeal)
		restaurant.PUT("/menu/:mealId/availability", h.Restaurant.ToggleMealAvailability)

		// Order management
		restaurant.GET("/orders", h.Restaurant.GetRestaurantOrders)
		restaurant.PUT("/orders/:id/status", h.Restaurant.UpdateOrderStatus)
	}

	// ── Delivery routes ────────────────────────────────────────────
	delivery := r.Group("/api/delivery")
	delivery.Use(middleware.AuthRequired(jwtSecret), middleware.RoleRequired(models.RoleDelivery))
	{
		delivery.GET("/orders/available", h.Delivery.GetAvailableOrders)
		delivery.PUT("/orders/:id/claim", h.Delivery.ClaimOrder)
		delivery.GET("/orders/my-deliveries", h.Delivery.GetMyDeliveries)
		delivery.PUT("/orders/:id/pickup", h.Delivery.PickupOrder)
		delivery.PUT("/orders/:id/deliver", h.Delivery.CompleteDelivery)

		delivery.PUT("/availability", h.Delivery.SetAvailability)
		delivery.PUT("/location", h.Delivery.UpdateLocation)
	}

	// ── Admin routes ───────────────────────────────────────────────
	admin := r.Group("/api/admin")
	admin.Use(middleware.AuthRequired(jwtSecret), middleware.RoleRequired(models.RoleAdmin))
	{
		admin.GET("/users", h.Admin.ListUsers)
		admin.GET("/users/:id", h.Admin.GetUser)
		admin.PUT("/users/:id/role", h.Admin.ChangeRole)
		admin.PUT("/users/:id/active", h.Admin.SetActive)

		admin.GET("/approvals", h.Admin.ListPendingApprovals)
		admin.PUT("/users/:id/approval", h.Admin.SetApproval)

		admin.GET("/orders", h.Admin.ListAllOrders)
		admin.PUT("/orders/:id/status", h.Admin.ForceOrderStatus)
		admin.PUT("/orders/:id/cancel", h.Admin.CancelOrder)
	}
}
