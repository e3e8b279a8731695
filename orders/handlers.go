package orders

import (
	"context"
	"net/http"
	"time"

	"homecook/utils"

	"github.com/julienschmidt/httprouter"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func principal(r *http.Request) Principal {
	return Principal{ID: utils.GetUserIDFromRequest(r), Role: utils.GetRoleFromRequest(r)}
}

// CreateOrder handles POST /api/order/:cartID
func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	order, err := h.svc.CreateOrder(ctx, utils.GetUserIDFromRequest(r), ps.ByName("cartID"))
	if err != nil {
		utils.RespondWithError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, utils.M{"data": order})
}

// GetOrders handles GET /api/order and GET /api/admin/orders
func (h *Handler) GetOrders(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	res, err := h.svc.ListOrders(ctx, principal(r), utils.ParsePage(r))
	if err != nil {
		utils.RespondWithError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, res)
}

// GetOrder handles GET /api/order/:orderID
func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	order, err := h.svc.GetOrder(ctx, principal(r), ps.ByName("orderID"))
	if err != nil {
		utils.RespondWithError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"order": order})
}

// UpdateOrderStatus handles PUT /api/order/:orderID
func (h *Handler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var update StatusUpdate
	if err := utils.DecodeJSON(r, &update); err != nil {
		utils.RespondWithError(w, err)
		return
	}

	order, err := h.svc.UpdateStatus(ctx, principal(r), ps.ByName("orderID"), update)
	if err != nil {
		utils.RespondWithError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"order": order})
}

// DownloadReceipt handles GET /api/order/:orderID/receipt
func (h *Handler) DownloadReceipt(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	orderID := ps.ByName("orderID")
	pdf, err := h.svc.Receipt(ctx, principal(r), orderID)
	if err != nil {
		utils.RespondWithError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", "attachment; filename=receipt-"+orderID+".pdf")
	w.WriteHeader(http.StatusOK)
	w.Write(pdf)
}
