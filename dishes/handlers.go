package dishes

import (
	"context"
	"net/http"
	"time"

	"homecook/store"
	"homecook/utils"

	"github.com/julienschmidt/httprouter"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

func viewer(r *http.Request) Viewer {
	return Viewer{UserID: utils.GetUserIDFromRequest(r), Role: utils.GetRoleFromRequest(r)}
}

// CreateDish handles POST /api/dish and POST /api/admin/dishes
func (h *Handler) CreateDish(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var in CreateInput
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.RespondWithError(w, err)
		return
	}
	dish, err := h.svc.Create(ctx, viewer(r), in)
	if err != nil {
		utils.RespondWithError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, utils.M{"data": dish})
}

// GetDishes handles GET /api/dish
func (h *Handler) GetDishes(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	q := r.URL.Query()
	f := store.DishFilter{Cook: q.Get("cook"), Category: q.Get("category")}
	res, err := h.svc.List(ctx, viewer(r), f, utils.ParsePage(r))
	if err != nil {
		utils.RespondWithError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, res)
}

// GetDish handles GET /api/dish/:dishID
func (h *Handler) GetDish(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	dish, err := h.svc.Get(ctx, ps.ByName("dishID"))
	if err != nil {
		utils.RespondWithError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"data": dish})
}

// UpdateDish handles PUT /api/dish/:dishID
func (h *Handler) UpdateDish(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var p Patch
	if err := utils.DecodeJSON(r, &p); err != nil {
		utils.RespondWithError(w, err)
		return
	}
	dish, err := h.svc.Update(ctx, viewer(r), ps.ByName("dishID"), p)
	if err != nil {
		utils.RespondWithError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"data": dish})
}

// DeleteDish handles DELETE /api/dish/:dishID
func (h *Handler) DeleteDish(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	dish, err := h.svc.Delete(ctx, viewer(r), ps.ByName("dishID"))
	if err != nil {
		utils.RespondWithError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"data": dish})
}
