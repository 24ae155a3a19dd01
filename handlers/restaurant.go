package handlers

import (
	"net/http"
	"strconv"

	"meal-delivery-api/apperr"
	"meal-delivery-api/authz"
	"meal-delivery-api/middleware"
	"meal-delivery-api/models"
	"meal-delivery-api/service"
	"meal-delivery-api/store"
	"meal-delivery-api/validate"

	"github.com/gin-gonic/gin"
)

type RestaurantHandler struct {
	identity *store.Identity
	catalog  *store.Catalog
	orders   *store.Orders
	orderSvc *service.OrderService
}

// restaurantProfile loads the caller's restaurant profile or fails the
// request.
func (h *RestaurantHandler) restaurantProfile(c *gin.Context) (*models.User, bool) {
	user, err := h.identity.FindByID(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	if user.Restaurant == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No restaurant profile for your account"})
		return nil, false
	}
	return user, true
}

// GetMyRestaurant returns the caller's restaurant profile.
func (h *RestaurantHandler) GetMyRestaurant(c *gin.Context) {
	user, ok := h.restaurantProfile(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": user.ID, "restaurant": user.Restaurant})
}

type UpdateRestaurantRequest struct {
	Name           string                     `json:"name"`
	Description    string                     `json:"description"`
	ContactNumbers []string                   `json:"contact_numbers"`
	CuisineTypes   []string                   `json:"cuisine_types"`
	Address        string                     `json:"address"`
	BusinessHours  map[string]models.DayHours `json:"business_hours"`
	DeliveryFee    *float64                   `json:"delivery_fee"`
	MinimumOrder   *float64                   `json:"minimum_order_amount"`
	IsOpen         *bool                      `json:"is_open"`
}

// UpdateRestaurant updates the caller's restaurant profile.
func (h *RestaurantHandler) UpdateRestaurant(c *gin.Context) {
	user, ok := h.restaurantProfile(c)
	if !ok {
		return
	}
	var req UpdateRestaurantRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ve := validate.New()
	p := user.Restaurant
	if req.Name != "" {
		p.Name = req.Name
	}
	if req.Description != "" {
		p.Description = req.Description
	}
	if req.ContactNumbers != nil {
		ve.CountBetween("contact_numbers", len(req.ContactNumbers), 1, 3)
		p.ContactNumbers = req.ContactNumbers
	}
	if req.CuisineTypes != nil {
		ve.CountBetween("cuisine_types", len(req.CuisineTypes), 1, 10)
		p.CuisineTypes = req.CuisineTypes
	}
	if req.Address != "" {
		p.Address = req.Address
	}
	if req.BusinessHours != nil {
		ve.BusinessHours("business_hours", req.BusinessHours)
		p.BusinessHours = req.BusinessHours
	}
	if req.DeliveryFee != nil {
		ve.NonNegative("delivery_fee", *req.DeliveryFee)
		p.DeliveryFee = *req.DeliveryFee
	}
	if req.MinimumOrder != nil {
		ve.NonNegative("minimum_order_amount", *req.MinimumOrder)
		p.MinimumOrder = *req.MinimumOrder
	}
	if req.IsOpen != nil {
		p.IsOpen = *req.IsOpen
	}
	if err := ve.Err(); err != nil {
		respondError(c, err)
		return
	}

	if err := h.identity.SaveProfile(c.Request.Context(), p); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Restaurant updated", "restaurant": p})
}

// ── Menu Management ─────────────────────────────────────────────────────────

type CreateMealRequest struct {
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description"`
	Price       float64 `json:"price" binding:"required,gt=0"`
	Category    string  `json:"category"`
	PrepMinutes int     `json:"prep_minutes" binding:"omitempty,gt=0"`
}

// AddMeal adds a meal to the caller's menu. Only approved restaurants may
// list meals.
func (h *RestaurantHandler) AddMeal(c *gin.Context) {
	user, ok := h.restaurantProfile(c)
	if !ok {
		return
	}
	if user.Restaurant.ApprovalStatus != models.ApprovalApproved {
		respondError(c, apperr.Forbidden("restaurant must be approved before listing meals"))
		return
	}

	var req CreateMealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.PrepMinutes == 0 {
		req.PrepMinutes = 15
	}

	meal := models.Meal{
		RestaurantID: user.ID,
		Name:         req.Name,
		Description:  req.Description,
		Price:        req.Price,
		Category:     req.Category,
		PrepMinutes:  req.PrepMinutes,
		IsAvailable:  true,
	}
	if err := h.catalog.Create(c.Request.Context(), &meal); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Meal added", "meal": meal})
}

// ListMyMeals returns the caller's full menu, soft-deleted meals excluded.
func (h *RestaurantHandler) ListMyMeals(c *gin.Context) {
	meals, err := h.catalog.FindByRestaurant(c.Request.Context(), middleware.GetUserID(c), store.MealFilter{
		Category: c.Query("category"),
		Search:   c.Query("search"),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(meals), "meals": meals})
}

// loadOwnMeal fetches a meal and verifies catalog ownership.
func (h *RestaurantHandler) loadOwnMeal(c *gin.Context) (*models.Meal, bool) {
	id, err := strconv.ParseUint(c.Param("mealId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid meal id"})
		return nil, false
	}
	meal, ferr := h.catalog.FindByID(c.Request.Context(), uint(id))
	if ferr != nil {
		respondError(c, ferr)
		return nil, false
	}
	actor := middleware.Actor(c)
	if aerr := authz.Authorize(&actor, authz.ActionMealWrite, authz.MealResource(meal)); aerr != nil {
		respondError(c, aerr)
		return nil, false
	}
	return meal, true
}

type UpdateMealRequest struct {
	Name        string   `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price"`
	Category    string   `json:"category"`
	PrepMinutes *int     `json:"prep_minutes"`
}

// UpdateMeal updates a meal owned by the caller.
func (h *RestaurantHandler) UpdateMeal(c *gin.Context) {
	meal, ok := h.loadOwnMeal(c)
	if !ok {
		return
	}
	var req UpdateMealRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ve := validate.New()
	fields := map[string]any{}
	if req.Name != "" {
		fields["name"] = req.Name
	}
	if req.Description != nil {
		fields["description"] = *req.Description
	}
	if req.Price != nil {
		ve.Positive("price", *req.Price)
		fields["price"] = *req.Price
	}
	if req.Category != "" {
		fields["category"] = req.Category
	}
	if req.PrepMinutes != nil {
		ve.Min("prep_minutes", *req.PrepMinutes, 1)
		fields["prep_minutes"] = *req.PrepMinutes
	}
	if err := ve.Err(); err != nil {
		respondError(c, err)
		return
	}

	if err := h.catalog.Update(c.Request.Context(), meal.ID, fields); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Meal updated"})
}

// DeleteMeal soft-deletes a meal; historical orders keep their snapshots.
func (h *RestaurantHandler) DeleteMeal(c *gin.Context) {
	meal, ok := h.loadOwnMeal(c)
	if !ok {
		return
	}
	if err := h.catalog.SoftDelete(c.Request.Context(), meal.ID); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Meal removed from menu"})
}

// ToggleMealAvailability flips a meal's availability flag.
func (h *RestaurantHandler) ToggleMealAvailability(c *gin.Context) {
	meal, ok := h.loadOwnMeal(c)
	if !ok {
		return
	}
	updated, err := h.catalog.ToggleAvailability(c.Request.Context(), meal.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Availability updated", "meal": updated})
}

// ── Order Management ────────────────────────────────────────────────────────

// GetRestaurantOrders returns the caller's orders with a status summary.
func (h *RestaurantHandler) GetRestaurantOrders(c *gin.Context) {
	orders, err := h.orders.FindByRestaurant(c.Request.Context(),
		middleware.GetUserID(c), models.OrderStatus(c.Query("status")))
	if err != nil {
		respondError(c, err)
		return
	}

	summary := map[string]int{}
	for _, o := range orders {
		summary[string(o.Status)]++
	}
	c.JSON(http.StatusOK, gin.H{
		"order_summary": summary,
		"count":         len(orders),
		"orders":        orders,
	})
}

type UpdateOrderStatusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
	Note   string             `json:"note"`
}

// UpdateOrderStatus drives the restaurant's stages of the order lifecycle
// (pending → accepted → preparing → ready), or cancellation while permitted.
func (h *RestaurantHandler) UpdateOrderStatus(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order id"})
		return
	}
	var req UpdateOrderStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, serr := h.orderSvc.TransitionOrder(c.Request.Context(),
		uint(id), req.Status, middleware.Actor(c), req.Note)
	if serr != nil {
		respondError(c, serr)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":        "Order status updated",
		"order_id":       order.ID,
		"current_status": order.Status,
	})
}
