package reviews

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

// GetReviews handles GET /api/dish/:dishID/reviews
func (h *Handler) GetReviews(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	res, err := h.svc.List(ctx, ps.ByName("dishID"), utils.ParsePage(r))
	if err != nil {
		utils.RespondWithError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, res)
}

// AddReview handles POST /api/dish/:dishID/reviews
func (h *Handler) AddReview(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var in Input
	if err := utils.DecodeJSON(r, &in); err != nil {
		utils.RespondWithError(w, err)
		return
	}
	review, err := h.svc.Create(ctx, utils.GetUserIDFromRequest(r), ps.ByName("dishID"), in)
	if err != nil {
		utils.RespondWithError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusCreated, utils.M{"data": review})
}

// EditReview handles PUT /api/review/:reviewID
func (h *Handler) EditReview(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	var p Patch
	if err := utils.DecodeJSON(r, &p); err != nil {
		utils.RespondWithError(w, err)
		return
	}
	review, err := h.svc.Update(ctx, utils.GetUserIDFromRequest(r), ps.ByName("reviewID"), p)
	if err != nil {
		utils.RespondWithError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"data": review})
}

// DeleteReview handles DELETE /api/review/:reviewID and
// DELETE /api/admin/review/:reviewID
func (h *Handler) DeleteReview(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	review, err := h.svc.Delete(ctx, utils.GetUserIDFromRequest(r), utils.GetRoleFromRequest(r), ps.ByName("reviewID"))
	if err != nil {
		utils.RespondWithError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"data": review})
}
