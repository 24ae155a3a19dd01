package handlers

import (
	"net/http"
	"strconv"

	"meal-delivery-api/middleware"
	"meal-delivery-api/models"
	"meal-delivery-api/service"
	"meal-delivery-api/store"

	"github.com/gin-gonic/gin"
)

type DeliveryHandler struct {
	identity *store.Identity
	orders   *store.Orders
	orderSvc *service.OrderService
}

func (h *DeliveryHandler) deliveryProfile(c *gin.Context) (*models.User, bool) {
	user, err := h.identity.FindByID(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return nil, false
	}
	if user.Delivery == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "No delivery profile for your account"})
		return nil, false
	}
	return user, true
}

// GetAvailableOrders lists ready, unclaimed orders, oldest first.
func (h *DeliveryHandler) GetAvailableOrders(c *gin.Context) {
	orders, err := h.orders.FindAvailableForPickup(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(orders), "orders": orders})
}

// ClaimOrder assigns a ready order to the caller. The underlying claim is
// atomic; when two drivers race for the same order only one succeeds and the
// other receives a conflict.
func (h *DeliveryHandler) ClaimOrder(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order id"})
		return
	}

	order, serr := h.orderSvc.AssignDeliveryPerson(c.Request.Context(),
		uint(id), middleware.GetUserID(c), middleware.Actor(c))
	if serr != nil {
		respondError(c, serr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order claimed", "order": order})
}

// GetMyDeliveries returns orders assigned to the caller.
func (h *DeliveryHandler) GetMyDeliveries(c *gin.Context) {
	orders, err := h.orders.FindByDeliveryPerson(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(orders), "orders": orders})
}

// PickupOrder moves an assigned order from ready to on_the_way.
func (h *DeliveryHandler) PickupOrder(c *gin.Context) {
	h.transition(c, models.StatusOnTheWay, "picked up by delivery person")
}

// CompleteDelivery moves an order from on_the_way to delivered. Cash orders
// are marked paid at this point.
func (h *DeliveryHandler) CompleteDelivery(c *gin.Context) {
	h.transition(c, models.StatusDelivered, "delivered to customer")
}

func (h *DeliveryHandler) transition(c *gin.Context, to models.OrderStatus, note string) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order id"})
		return
	}

	order, serr := h.orderSvc.TransitionOrder(c.Request.Context(),
		uint(id), to, middleware.Actor(c), note)
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

type SetAvailabilityRequest struct {
	IsAvailable *bool `json:"is_available" binding:"required"`
}

// SetAvailability toggles whether the caller can be assigned new orders.
func (h *DeliveryHandler) SetAvailability(c *gin.Context) {
	user, ok := h.deliveryProfile(c)
	if !ok {
		return
	}
	var req SetAvailabilityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user.Delivery.IsAvailable = *req.IsAvailable
	if err := h.identity.SaveProfile(c.Request.Context(), user.Delivery); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":      "Availability updated",
		"is_available": user.Delivery.IsAvailable,
	})
}

type UpdateLocationRequest struct {
	Latitude  float64 `json:"latitude" binding:"required,gte=-90,lte=90"`
	Longitude float64 `json:"longitude" binding:"required,gte=-180,lte=180"`
}

// UpdateLocation records the caller's last reported position.
func (h *DeliveryHandler) UpdateLocation(c *gin.Context) {
	user, ok := h.deliveryProfile(c)
	if !ok {
		return
	}
	var req UpdateLocationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user.Delivery.Latitude = req.Latitude
	user.Delivery.Longitude = req.Longitude
	if err := h.identity.SaveProfile(c.Request.Context(), user.Delivery); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Location updated"})
}
