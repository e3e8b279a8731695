package orders

import (
	"net/http"
	"testing"

	"homecook/models"
	"homecook/utils"

	"github.com/stretchr/testify/assert"
)

func TestAuthorizeMatrix(t *testing.T) {
	order := &models.Order{User: "cust", CookID: "cook"}

	tests := []struct {
		name    string
		p       Principal
		action  Action
		allowed bool
	}{
		{"admin reads", Principal{"root", models.RoleAdmin}, ActionRead, true},
		{"admin updates", Principal{"root", models.RoleAdmin}, ActionUpdateStatus, true},
		{"owner reads", Principal{"cust", models.RoleCustomer}, ActionRead, true},
		{"owner cannot update", Principal{"cust", models.RoleCustomer}, ActionUpdateStatus, false},
		{"other customer", Principal{"eve", models.RoleCustomer}, ActionRead, false},
		{"order cook reads", Principal{"cook", models.RoleCook}, ActionRead, true},
		{"order cook updates", Principal{"cook", models.RoleCook}, ActionUpdateStatus, true},
		{"other cook", Principal{"chef2", models.RoleCook}, ActionUpdateStatus, false},
		{"unknown role", Principal{"cust", "courier"}, ActionRead, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Authorize(tt.p, tt.action, order)
			if tt.allowed {
				assert.NoError(t, err)
				return
			}
			assert.True(t, utils.IsStatus(err, http.StatusNotFound), "want 404, got %v", err)
		})
	}
}

func TestAuthorizeListRoles(t *testing.T) {
	for _, role := range []string{models.RoleAdmin, models.RoleCook, models.RoleCustomer} {
		assert.NoError(t, Authorize(Principal{"x", role}, ActionList, nil))
	}
	err := Authorize(Principal{"x", "courier"}, ActionList, nil)
	assert.True(t, utils.IsStatus(err, http.StatusBadRequest))
	assert.Contains(t, err.Error(), "courier role is not defined")
}

func TestListFilter(t *testing.T) {
	assert.Equal(t, "c", listFilter(Principal{"c", models.RoleCustomer}).User)
	assert.Equal(t, "k", listFilter(Principal{"k", models.RoleCook}).CookID)
	assert.Zero(t, listFilter(Principal{"a", models.RoleAdmin}))
}
