// Package handlers wires HTTP requests to the stores and services. All
// error mapping to status codes happens here, at the API boundary.
package handlers

import (
	"net/http"

	"meal-delivery-api/apperr"
	"meal-delivery-api/config"
	"meal-delivery-api/notify"
	"meal-delivery-api/service"
	"meal-delivery-api/store"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Set aggregates every handler group with its shared dependencies.
type Set struct {
	Auth       *AuthHandler
	Public     *PublicHandler
	Customer   *CustomerHandler
	Restaurant *RestaurantHandler
	Delivery   *DeliveryHandler
	Admin      *AdminHandler
}

func New(db *gorm.DB, cfg *config.Config, logger *zap.Logger) *Set {
	identity := store.NewIdentity(db)
	catalog := store.NewCatalog(db)
	orders := store.NewOrders(db)
	otps := store.NewOTPs(db)
	notifier := notify.NewLogNotifier(logger)
	orderSvc := service.NewOrderService(orders, identity, catalog, notifier, logger, cfg.Orders.TaxRate)

	return &Set{
		Auth:       &AuthHandler{identity: identity, otps: otps, notifier: notifier, cfg: cfg, logger: logger},
		Public:     &PublicHandler{identity: identity, catalog: catalog},
		Customer:   &CustomerHandler{identity: identity, orders: orders, orderSvc: orderSvc},
		Restaurant: &RestaurantHandler{identity: identity, catalog: catalog, orders: orders, orderSvc: orderSvc},
		Delivery:   &DeliveryHandler{identity: identity, orders: orders, orderSvc: orderSvc},
		Admin:      &AdminHandler{identity: identity, orders: orders, orderSvc: orderSvc, notifier: notifier},
	}
}

// respondError translates a core error into the API response.
func respondError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	body := gin.H{"error": err.Error()}
	if status == http.StatusInternalServerError {
		body["error"] = "internal server error"
	}
	if fields := apperr.FieldsOf(err); len(fields) > 0 {
		body["fields"] = fields
	}
	c.JSON(status, body)
}
