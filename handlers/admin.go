package handlers

import (
	"net/http"
	"strconv"

	"meal-delivery-api/authz"
	"meal-delivery-api/middleware"
	"meal-delivery-api/models"
	"meal-delivery-api/notify"
	"meal-delivery-api/service"
	"meal-delivery-api/store"

	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	identity *store.Identity
	orders   *store.Orders
	orderSvc *service.OrderService
	notifier notify.Notifier
}

// ── User Management ─────────────────────────────────────────────────────────

// ListUsers returns all users, optionally filtered by role.
func (h *AdminHandler) ListUsers(c *gin.Context) {
	users, err := h.identity.List(c.Request.Context(), models.UserRole(c.Query("role")))
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]gin.H, 0, len(users))
	for i := range users {
		u := &users[i]
		out = append(out, gin.H{
			"id":                u.ID,
			"email":             u.Email,
			"role":              u.Role,
			"name":              u.DisplayName(),
			"is_active":         u.IsActive,
			"is_email_verified": u.IsEmailVerified,
			"created_at":        u.CreatedAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"count": len(out), "users": out})
}

// GetUser returns one user with their full role profile.
func (h *AdminHandler) GetUser(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
		return
	}
	user, ferr := h.identity.FindByID(c.Request.Context(), uint(id))
	if ferr != nil {
		respondError(c, ferr)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

type ChangeRoleRequest struct {
	Role models.UserRole `json:"role" binding:"required"`
}

// ChangeRole updates a user's role. Admins cannot change their own role, so
// the last admin can never lock everyone out.
func (h *AdminHandler) ChangeRole(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
		return
	}
	var req ChangeRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !models.ValidRoles[req.Role] {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid role. Must be: customer, restaurant, delivery, or admin"})
		return
	}

	actor := middleware.Actor(c)
	if aerr := authz.Authorize(&actor, authz.ActionUserRoleChange, authz.UserResource(uint(id))); aerr != nil {
		respondError(c, aerr)
		return
	}

	if err := h.identity.SetRole(c.Request.Context(), uint(id), req.Role); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Role updated", "user_id": id, "role": req.Role})
}

type SetActiveRequest struct {
	IsActive *bool `json:"is_active" binding:"required"`
}

// SetActive activates or deactivates an account. Deactivated users cannot
// log in; their records and orders are kept.
func (h *AdminHandler) SetActive(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
		return
	}
	var req SetActiveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.identity.SetActive(c.Request.Context(), uint(id), *req.IsActive); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Account status updated", "user_id": id, "is_active": *req.IsActive})
}

// ── Approval Workflow ───────────────────────────────────────────────────────

// ListPendingApprovals returns restaurant and delivery accounts awaiting
// review.
func (h *AdminHandler) ListPendingApprovals(c *gin.Context) {
	restaurants, err := h.identity.List(c.Request.Context(), models.RoleRestaurant)
	if err != nil {
		respondError(c, err)
		return
	}
	delivery, err := h.identity.List(c.Request.Context(), models.RoleDelivery)
	if err != nil {
		respondError(c, err)
		return
	}

	pending := make([]gin.H, 0)
	for i := range restaurants {
		u := &restaurants[i]
		if u.Restaurant != nil && u.Restaurant.ApprovalStatus == models.ApprovalPending {
			pending = append(pending, gin.H{"id": u.ID, "role": u.Role, "name": u.DisplayName(), "profile": u.Restaurant})
		}
	}
	for i := range delivery {
		u := &delivery[i]
		if u.Delivery != nil && u.Delivery.ApprovalStatus == models.ApprovalPending {
			pending = append(pending, gin.H{"id": u.ID, "role": u.Role, "name": u.DisplayName(), "profile": u.Delivery})
		}
	}
	c.JSON(http.StatusOK, gin.H{"count": len(pending), "pending": pending})
}

type ApprovalRequest struct {
	Status models.ApprovalStatus `json:"status" binding:"required,oneof=approved rejected suspended"`
	Note   string                `json:"note"`
}

// SetApproval resolves the approval workflow for a restaurant or delivery
// account.
func (h *AdminHandler) SetApproval(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user id"})
		return
	}
	var req ApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	user, ferr := h.identity.FindByID(c.Request.Context(), uint(id))
	if ferr != nil {
		respondError(c, ferr)
		return
	}
	if err := h.identity.SetApprovalStatus(c.Request.Context(), user, req.Status); err != nil {
		respondError(c, err)
		return
	}

	// Approval outcome notifications are best-effort, same as OTP delivery.
	_ = h.notifier.Notify(c.Request.Context(), notify.EventAccountApproval, map[string]any{
		"user_id": user.ID,
		"email":   user.Email,
		"status":  req.Status,
		"note":    req.Note,
	})

	c.JSON(http.StatusOK, gin.H{"message": "Approval status updated", "user_id": user.ID, "status": req.Status})
}

// ── Order Oversight ─────────────────────────────────────────────────────────

// ListAllOrders returns every order with filters and a revenue summary over
// the filtered set. Cancelled orders are excluded from revenue.
func (h *AdminHandler) ListAllOrders(c *gin.Context) {
	filter := store.AdminFilter{Status: models.OrderStatus(c.Query("status"))}
	if v := c.Query("customer_id"); v != "" {
		if id, err := strconv.ParseUint(v, 10, 64); err == nil {
			filter.CustomerID = uint(id)
		}
	}
	if v := c.Query("restaurant_id"); v != "" {
		if id, err := strconv.ParseUint(v, 10, 64); err == nil {
			filter.RestaurantID = uint(id)
		}
	}

	orders, err := h.orders.ListAll(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	var totalRevenue float64
	statusCounts := map[string]int{}
	for _, o := range orders {
		statusCounts[string(o.Status)]++
		if o.Status != models.StatusCancelled {
			totalRevenue += o.Total
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"count":         len(orders),
		"total_revenue": totalRevenue,
		"status_counts": statusCounts,
		"orders":        orders,
	})
}

type ForceStatusRequest struct {
	Status models.OrderStatus `json:"status" binding:"required"`
	Note   string             `json:"note"`
}

// ForceOrderStatus moves an order on behalf of any party. The transition
// still runs through the lifecycle engine: admins bypass role restrictions
// but cannot skip stages or leave terminal states.
func (h *AdminHandler) ForceOrderStatus(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid order id"})
		return
	}
	var req ForceStatusRequest
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

// CancelOrder is the admin escape hatch: cancellation with a reason at any
// non-terminal stage, including ready and on_the_way.
func (h *AdminHandler) CancelOrder(c *gin.Context) {
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
	c.JSON(http.StatusOK, gin.H{"message": "Order cancelled", "order": order})
}
