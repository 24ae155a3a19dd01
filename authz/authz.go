// Package authz decides whether an authenticated principal may perform an
// action on a resource. Decisions are pure: no store access, no side effects,
// so the rules are testable as a table of (role, action, ownership) triples.
package authz

import (
	"meal-delivery-api/apperr"
	"meal-delivery-api/models"
)

// Actor is the verified (id, role) pair supplied by the authentication
// middleware. The gate trusts it and performs no credential checks.
type Actor struct {
	ID   uint
	Role models.UserRole
}

type Action string

const (
	ActionOrderRead       Action = "order:read"
	ActionOrderTransition Action = "order:transition"
	ActionOrderCancel     Action = "order:cancel"
	ActionOrderClaim      Action = "order:claim"
	ActionOrderList       Action = "order:list_all"
	ActionMealWrite       Action = "meal:write"
	ActionUserRead        Action = "user:read"
	ActionUserUpdate      Action = "user:update"
	ActionUserRoleChange  Action = "user:role_change"
	ActionUserApprove     Action = "user:approve"
	ActionUserList        Action = "user:list_all"
	ActionFavoriteWrite   Action = "favorite:write"
)

type ResourceKind string

const (
	KindOrder ResourceKind = "order"
	KindMeal  ResourceKind = "meal"
	KindUser  ResourceKind = "user"
)

// Resource identifies the target and its owning parties. Orders carry three
// simultaneous owners with disjoint permitted actions.
type Resource struct {
	Kind             ResourceKind
	OwnerID          uint  // meal: owning restaurant; user: the user itself
	CustomerID       uint  // order party
	RestaurantID     uint  // order party
	DeliveryPersonID *uint // order party, unset until claimed
}

// OrderResource builds the resource descriptor for an order.
func OrderResource(o *models.Order) Resource {
	return Resource{
		Kind:             KindOrder,
		CustomerID:       o.CustomerID,
		RestaurantID:     o.RestaurantID,
		DeliveryPersonID: o.DeliveryPersonID,
	}
}

// MealResource builds the resource descriptor for a meal.
func MealResource(m *models.Meal) Resource {
	return Resource{Kind: KindMeal, OwnerID: m.RestaurantID}
}

// UserResource builds the resource descriptor for a user record.
func UserResource(userID uint) Resource {
	return Resource{Kind: KindUser, OwnerID: userID}
}

// Authorize returns nil when the actor may perform the action, a Forbidden
// error when not, and NotAuthenticated when there is no actor. The admin
// self-role-change guard runs before the generic admin elevation so an admin
// cannot lock themselves out of the admin role.
func Authorize(actor *Actor, action Action, res Resource) error {
	if actor == nil || actor.ID == 0 {
		return apperr.NotAuthenticated("authentication required")
	}

	if action == ActionUserRoleChange && res.Kind == KindUser && res.OwnerID == actor.ID {
		return apperr.Forbidden("you cannot change your own role")
	}

	if actor.Role == models.RoleAdmin {
		return nil
	}

	switch action {
	case ActionOrderRead:
		if isOrderParty(actor, res) {
			return nil
		}
		return apperr.Forbidden("this order does not involve you")

	case ActionOrderTransition:
		// Customers never drive forward transitions; cancellation is a
		// separate action. The lifecycle engine additionally gates which
		// edge each role may drive.
		if actor.Role == models.RoleRestaurant && res.RestaurantID == actor.ID {
			return nil
		}
		if actor.Role == models.RoleDelivery && res.DeliveryPersonID != nil && *res.DeliveryPersonID == actor.ID {
			return nil
		}
		return apperr.Forbidden("you may not update this order's status")

	case ActionOrderCancel:
		if actor.Role == models.RoleCustomer && res.CustomerID == actor.ID {
			return nil
		}
		if actor.Role == models.RoleRestaurant && res.RestaurantID == actor.ID {
			return nil
		}
		return apperr.Forbidden("you may not cancel this order")

	case ActionOrderClaim:
		if actor.Role == models.RoleDelivery {
			return nil
		}
		return apperr.Forbidden("only delivery personnel may claim orders")

	case ActionMealWrite:
		if actor.Role == models.RoleRestaurant && res.OwnerID == actor.ID {
			return nil
		}
		return apperr.Forbidden("you do not own this meal")

	case ActionUserRead, ActionUserUpdate:
		if res.OwnerID == actor.ID {
			return nil
		}
		return apperr.Forbidden("you may only access your own account")

	case ActionFavoriteWrite:
		if actor.Role == models.RoleCustomer && res.OwnerID == actor.ID {
			return nil
		}
		return apperr.Forbidden("favorites belong to customer accounts")

	case ActionUserRoleChange, ActionUserApprove, ActionUserList, ActionOrderList:
		return apperr.Forbidden("admin access required")
	}

	return apperr.Forbidden("action '%s' is not permitted", action)
}

func isOrderParty(actor *Actor, res Resource) bool {
	switch actor.Role {
	case models.RoleCustomer:
		return res.CustomerID == actor.ID
	case models.RoleRestaurant:
		return res.RestaurantID == actor.ID
	case models.RoleDelivery:
		return res.DeliveryPersonID != nil && *res.DeliveryPersonID == actor.ID
	}
	return false
}
