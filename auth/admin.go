package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"homecook/models"
	"homecook/store"
	"homecook/utils"

	"github.com/julienschmidt/httprouter"
)

type UserList struct {
	Users []models.User `json:"users"`
	Count int64         `json:"count"`
	Page  int           `json:"page"`
	Pages int           `json:"pages"`
}

// ListUsers pages through the accounts matching f, newest first.
func (s *Service) ListUsers(ctx context.Context, f store.UserFilter, page utils.Page) (*UserList, error) {
	users, count, err := s.users.List(ctx, f, page)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return &UserList{Users: users, Count: count, Page: page.Number, Pages: page.Pages(count)}, nil
}

func (s *Service) GetUser(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.Get(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, utils.NotFound("No user found with id %s", userID)
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

// DeleteUser removes an account and its cart. Admins can not delete
// themselves.
func (s *Service) DeleteUser(ctx context.Context, adminID, userID string) (*models.User, error) {
	if adminID == userID {
		return nil, utils.BadRequest("You can not delete your own account")
	}
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if err := s.users.Delete(ctx, userID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, utils.NotFound("No user found with id %s", userID)
		}
		return nil, fmt.Errorf("delete user: %w", err)
	}
	if err := s.carts.DeleteByUser(ctx, userID); err != nil {
		log.Printf("auth: delete cart of %s: %v", userID, err)
	}
	log.Printf("admin %s deleted %s user %s", adminID, user.Role, userID)
	return user, nil
}

// ListUsers handles GET /api/admin/users
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	q := r.URL.Query()
	f := store.UserFilter{Role: q.Get("role"), City: q.Get("city"), District: q.Get("district")}
	res, err := h.svc.ListUsers(ctx, f, utils.ParsePage(r))
	if err != nil {
		utils.RespondWithError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, res)
}

// GetUser handles GET /api/admin/users/:userID
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	user, err := h.svc.GetUser(ctx, ps.ByName("userID"))
	if err != nil {
		utils.RespondWithError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"data": user})
}

// DeleteUser handles DELETE /api/admin/users/:userID
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 10*time.Second)
	defer cancel()

	user, err := h.svc.DeleteUser(ctx, utils.GetUserIDFromRequest(r), ps.ByName("userID"))
	if err != nil {
		utils.RespondWithError(w, err)
		return
	}
	utils.RespondWithJSON(w, http.StatusOK, utils.M{"data": user})
}
