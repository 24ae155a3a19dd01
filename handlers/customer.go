package handlers

import (
	"net/http"
	"strconv"

	"meal-delivery-api/authz"
	"meal-delivery-api/middleware"
	"meal-delivery-api/models"
	"meal-delivery-api/service"
	"meal-delivery-api/store"

	"github.com/gin-gonic/gin"
)

type CustomerHandler struct {
	identity *store.Identity
	orders   *store.Orders
	orderSvc *service.OrderService
}

type PlaceOrderRequest struct {
	RestaurantID        uint                      `json:"restaurant_id" binding:"required"`
	DeliveryAddress     string                    `json:"delivery_address" binding:"required"`
	SpecialInstructions string                    `json:"special_instructions"`
	PaymentMethod       models.PaymentMethod      `json:"payment_method" binding:"required"`
	Items               []service.CreateOrderItem `json:"items" binding:"required,min=1,dive"`
}

// PlaceOrder creates a new order (customer only)
func (h *CustomerHandler) PlaceOrder(c *gin.Context) {
	var req PlaceOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	order, err := h.orderSvc.CreateOrder(c.Request.Context(), service.CreateOrderInput{
		CustomerID:          middleware.GetUserID(c),
		RestaurantID:        req.RestaurantID,
		Items:               req.Items,
		DeliveryAddress:     req.DeliveryAddress,
		SpecialInstructions: req.SpecialInstructions,
		PaymentMethod:       req.PaymentMethod,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Order placed successfully", "order": order})
}

// GetMyOrders returns all orders for the logged-in customer
func (h *CustomerHandler) GetMyOrders(c *gin.Context) {
	orders, err := h.orders.FindByCustomer(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(orders), "orders": orders})
}

// GetOrderDetail returns a single order's full detail with history
func (h *CustomerHandler) GetOrderDetail(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order id"})
		return
	}

	order, ferr := h.orders.FindByID(c.Request.Context(), uint(id))
	if ferr != nil {
		respondError(c, ferr)
		return
	}
	actor := middleware.Actor(c)
	if aerr := authz.Authorize(&actor, authz.ActionOrderRead, authz.OrderResource(order)); aerr != nil {
		respondError(c, aerr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

type CancelOrderRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// CancelOrder cancels the customer's own order while it is still pending,
// accepted or preparing. Later stages need admin intervention.
func (h *CustomerHandler) CancelOrder(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order id"})
		return
	}
	var req CancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Cancellation reason is required"})
		return
	}

	order, serr := h.orderSvc.CancelOrder(c.Request.Context(), uint(id), req.Reason, middleware.Actor(c))
	if serr != nil {
		respondError(c, serr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order cancelled successfully", "order": order})
}

type UpdateCustomerProfileRequest struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// UpdateProfile updates the customer's own profile fields.
func (h *CustomerHandler) UpdateProfile(c *gin.Context) {
	var req UpdateCustomerProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, err := h.identity.FindByID(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if user.Customer == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Customer profile not found"})
		return
	}

	if req.Name != "" {
		user.Customer.Name = req.Name
	}
	if req.Phone != "" {
		user.Customer.Phone = req.Phone
	}
	if req.Address != "" {
		user.Customer.Address = req.Address
	}
	if err := h.identity.SaveProfile(c.Request.Context(), user.Customer); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile updated", "profile": user.Customer})
}

// AddFavorite adds a restaurant to the customer's favorites set.
func (h *CustomerHandler) AddFavorite(c *gin.Context) {
	h.updateFavorites(c, true)
}

// RemoveFavorite removes a restaurant from the customer's favorites set.
func (h *CustomerHandler) RemoveFavorite(c *gin.Context) {
	h.updateFavorites(c, false)
}

func (h *CustomerHandler) updateFavorites(c *gin.Context, add bool) {
	restaurantID, err := strconv.ParseUint(c.Param("restaurantId"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid restaurant id"})
		return
	}

	user, ferr := h.identity.FindByID(c.Request.Context(), middleware.GetUserID(c))
	if ferr != nil {
		respondError(c, ferr)
		return
	}
	if user.Customer == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Customer profile not found"})
		return
	}

	if add {
		target, terr := h.identity.FindByID(c.Request.Context(), uint(restaurantID))
		if terr != nil || target.Role != models.RoleRestaurant {
			c.JSON(http.StatusNotFound, gin.H{"error": "Restaurant not found"})
			return
		}
	}

	favorites := user.Customer.FavoriteRestaurantIDs[:0:0]
	for _, id := range user.Customer.FavoriteRestaurantIDs {
		if id != uint(restaurantID) {
			favorites = append(favorites, id)
		}
	}
	if add {
		favorites = append(favorites, uint(restaurantID))
	}
	user.Customer.FavoriteRestaurantIDs = favorites

	if err := h.identity.SaveProfile(c.Request.Context(), user.Customer); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"favorites": user.Customer.FavoriteRestaurantIDs})
}

// ListFavorites returns the customer's favorite restaurant ids.
func (h *CustomerHandler) ListFavorites(c *gin.Context) {
	user, err := h.identity.FindByID(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	if user.Customer == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Customer profile not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"favorites": user.Customer.FavoriteRestaurantIDs})
}
