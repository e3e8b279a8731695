package orders

import (
	"homecook/models"
	"homecook/store"
	"homecook/utils"
)

// Principal is the authenticated caller.
type Principal struct {
	ID   string
	Role string
}

type Action int

const (
	ActionList Action = iota
	ActionRead
	ActionUpdateStatus
)

// Authorize decides whether p may perform action on o. Callers that are not
// allowed to see an existing order get a 404 so its existence is not leaked.
func Authorize(p Principal, action Action, o *models.Order) error {
	if action == ActionList {
		switch p.Role {
		case models.RoleAdmin, models.RoleCustomer, models.RoleCook:
			return nil
		}
		return utils.BadRequest("This %s role is not defined yet.", p.Role)
	}

	var allowed bool
	switch p.Role {
	case models.RoleAdmin:
		allowed = true
	case models.RoleCustomer:
		allowed = action == ActionRead && o.User == p.ID
	case models.RoleCook:
		allowed = o.CookID == p.ID
	}
	if !allowed {
		return utils.NotFound("Not found!")
	}
	return nil
}

// listFilter scopes an order listing to what p may see.
func listFilter(p Principal) store.OrderFilter {
	switch p.Role {
	case models.RoleCustomer:
		return store.OrderFilter{User: p.ID}
	case models.RoleCook:
		return store.OrderFilter{CookID: p.ID}
	}
	return store.OrderFilter{}
}
