package handlers

import (
	"net/http"
	"strconv"

	"meal-delivery-api/lifecycle"
	"meal-delivery-api/models"
	"meal-delivery-api/store"

	"github.com/gin-gonic/gin"
)

type PublicHandler struct {
	identity *store.Identity
	catalog  *store.Catalog
}

// ListRestaurants returns approved restaurants (public), filterable by
// cuisine, name search and open-now.
func (h *PublicHandler) ListRestaurants(c *gin.Context) {
	restaurants, err := h.identity.ListApprovedRestaurants(
		c.Request.Context(),
		c.Query("cuisine"),
		c.Query("search"),
		c.Query("open") == "true",
	)
	if err != nil {
		respondError(c, err)
		return
	}

	out := make([]gin.H, 0, len(restaurants))
	for i := range restaurants {
		r := &restaurants[i]
		out = append(out, gin.H{
			"id":         r.ID,
			"restaurant": r.Restaurant,
		})
	}
	c.JSON(http.StatusOK, gin.H{"count": len(out), "restaurants": out})
}

// GetRestaurant returns a single approved restaurant.
func (h *PublicHandler) GetRestaurant(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid restaurant id"})
		return
	}
	user, ferr := h.identity.FindByID(c.Request.Context(), uint(id))
	if ferr != nil || user.Role != models.RoleRestaurant || user.Restaurant == nil ||
		user.Restaurant.ApprovalStatus != models.ApprovalApproved {
		c.JSON(http.StatusNotFound, gin.H{"error": "Restaurant not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": user.ID, "restaurant": user.Restaurant})
}

// GetMenu returns a restaurant's available meals (public), filterable by
// category and free-text search.
func (h *PublicHandler) GetMenu(c *gin.Context) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid restaurant id"})
		return
	}
	user, ferr := h.identity.FindByID(c.Request.Context(), uint(id))
	if ferr != nil || user.Role != models.RoleRestaurant || user.Restaurant == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Restaurant not found"})
		return
	}

	meals, err := h.catalog.FindByRestaurant(c.Request.Context(), user.ID, store.MealFilter{
		Category:      c.Query("category"),
		Search:        c.Query("search"),
		AvailableOnly: true,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"restaurant": user.Restaurant.Name,
		"count":      len(meals),
		"menu":       meals,
	})
}

// GetStateMachineInfo returns the full order state machine for informational purposes
func (h *PublicHandler) GetStateMachineInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"state_machine":   lifecycle.AllTransitions(),
		"terminal_states": []models.OrderStatus{models.StatusDelivered, models.StatusCancelled},
		"description":     "Meal Delivery Order Lifecycle State Machine",
	})
}
