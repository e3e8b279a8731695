package orders

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"homecook/globals"
	"homecook/models"

	"github.com/julienschmidt/httprouter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRouter(f *fixture) *httprouter.Router {
	h := NewHandler(f.svc)
	router := httprouter.New()
	router.POST("/api/order/:cartID", h.CreateOrder)
	router.GET("/api/order", h.GetOrders)
	router.GET("/api/order/:orderID", h.GetOrder)
	router.PUT("/api/order/:orderID", h.UpdateOrderStatus)
	router.GET("/api/order/:orderID/receipt", h.DownloadReceipt)
	return router
}

func do(router http.Handler, method, path, body, userID, role string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	ctx := context.WithValue(req.Context(), globals.UserIDKey, userID)
	ctx = context.WithValue(ctx, globals.RoleKey, role)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req.WithContext(ctx))
	return rec
}

func TestOrderHTTPFlow(t *testing.T) {
	f := newFixture(t)
	router := newRouter(f)
	c := f.cart(t, "alice", models.CartItem{Dish: "dishA", Quantity: 2})

	rec := do(router, http.MethodPost, "/api/order/"+c.ID, "", "alice", models.RoleCustomer)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		Data models.Order `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, 20.0, created.Data.TotalOrderPrice)
	orderID := created.Data.ID

	rec = do(router, http.MethodGet, "/api/order", "", "alice", models.RoleCustomer)
	require.Equal(t, http.StatusOK, rec.Code)
	var list ListResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list.Orders, 1)
	assert.Equal(t, 1, list.Page)
	assert.Equal(t, 1, list.Pages)

	rec = do(router, http.MethodGet, "/api/order/"+orderID, "", "bob", models.RoleCustomer)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(router, http.MethodPut, "/api/order/"+orderID, `{"isDelivered":true}`, "cookX", models.RoleCook)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var updated struct {
		Order models.Order `json:"order"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updated))
	assert.True(t, updated.Order.IsDelivered)

	rec = do(router, http.MethodGet, "/api/order/"+orderID, "", "alice", models.RoleCustomer)
	require.Equal(t, http.StatusOK, rec.Code)
	var got struct {
		Order models.Order `json:"order"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.True(t, got.Order.IsDelivered)
	assert.False(t, got.Order.IsPaid)

	rec = do(router, http.MethodGet, "/api/order/"+orderID+"/receipt", "", "alice", models.RoleCustomer)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get("Content-Type"))
	assert.True(t, strings.HasPrefix(rec.Body.String(), "%PDF"))
}

func TestOrderHTTPErrors(t *testing.T) {
	f := newFixture(t)
	router := newRouter(f)

	rec := do(router, http.MethodPost, "/api/order/missing", "", "alice", models.RoleCustomer)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Cart not found!", body["message"])

	c := f.cart(t, "alice", models.CartItem{Dish: "dishA", Quantity: 1})
	rec = do(router, http.MethodPost, "/api/order/"+c.ID, "", "bob", models.RoleCustomer)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = do(router, http.MethodPut, "/api/order/whatever", `{"isPaid":`, "root", models.RoleAdmin)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(router, http.MethodGet, "/api/order", "", "x", "courier")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
