// Package reviews lets customers rate dishes they have received.
package reviews

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"homecook/models"
	"homecook/store"
	"homecook/utils"
)

type Service struct {
	st  *store.Store
	now func() time.Time
}

func NewService(st *store.Store) *Service {
	return &Service{st: st, now: time.Now}
}

type Input struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

type Patch struct {
	Rating  *int    `json:"rating"`
	Comment *string `json:"comment"`
}

func validRating(r int) error {
	if r < models.MinRating || r > models.MaxRating {
		return utils.BadRequest("Rating must be between %d and %d!", models.MinRating, models.MaxRating)
	}
	return nil
}

// Create adds the customer's review of a dish. Only customers with a
// delivered order containing the dish may review it, once.
func (s *Service) Create(ctx context.Context, userID, dishID string, in Input) (*models.Review, error) {
	if err := validRating(in.Rating); err != nil {
		return nil, err
	}
	if err := s.dishExists(ctx, dishID); err != nil {
		return nil, err
	}
	bought, err := s.st.Orders.HasDelivered(ctx, userID, dishID)
	if err != nil {
		return nil, fmt.Errorf("check delivered orders: %w", err)
	}
	if !bought {
		return nil, utils.BadRequest("You must buy this dish first!")
	}

	now := s.now()
	review := &models.Review{
		ID:        utils.GetUUID(),
		Dish:      dishID,
		User:      userID,
		Rating:    in.Rating,
		Comment:   strings.TrimSpace(in.Comment),
		CreatedAt: now,
		UpdatedAt: now,
	}
	err = s.st.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.st.Reviews.Insert(ctx, review); err != nil {
			return err
		}
		return s.refreshRatings(ctx, dishID)
	})
	if errors.Is(err, store.ErrDuplicate) {
		return nil, utils.Conflict("You have already reviewed this dish")
	}
	if err != nil {
		return nil, fmt.Errorf("insert review: %w", err)
	}
	log.Printf("review %s added to dish %s by %s", review.ID, dishID, userID)
	return review, nil
}

// Update changes the author's own review.
func (s *Service) Update(ctx context.Context, userID, reviewID string, p Patch) (*models.Review, error) {
	if p.Rating != nil {
		if err := validRating(*p.Rating); err != nil {
			return nil, err
		}
	}
	if p.Comment != nil {
		comment := strings.TrimSpace(*p.Comment)
		if comment == "" {
			return nil, utils.BadRequest("Comment is required!")
		}
		p.Comment = &comment
	}

	existing, err := s.st.Reviews.Get(ctx, reviewID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && existing.User != userID) {
		return nil, utils.BadRequest("You can not update this review!")
	}
	if err != nil {
		return nil, fmt.Errorf("load review: %w", err)
	}

	var updated *models.Review
	err = s.st.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		var err error
		updated, err = s.st.Reviews.Update(ctx, reviewID, store.ReviewUpdate{Rating: p.Rating, Comment: p.Comment})
		if err != nil {
			return err
		}
		return s.refreshRatings(ctx, existing.Dish)
	})
	if errors.Is(err, store.ErrNotFound) {
		return nil, utils.BadRequest("You can not update this review!")
	}
	if err != nil {
		return nil, fmt.Errorf("update review: %w", err)
	}
	return updated, nil
}

// Delete removes a review. Admins may delete any review, customers only
// their own.
func (s *Service) Delete(ctx context.Context, userID, role, reviewID string) (*models.Review, error) {
	existing, err := s.st.Reviews.Get(ctx, reviewID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && role != models.RoleAdmin && existing.User != userID) {
		return nil, utils.BadRequest("You can not delete this review!")
	}
	if err != nil {
		return nil, fmt.Errorf("load review: %w", err)
	}

	err = s.st.Tx.WithTransaction(ctx, func(ctx context.Context) error {
		if err := s.st.Reviews.Delete(ctx, reviewID); err != nil {
			return err
		}
		return s.refreshRatings(ctx, existing.Dish)
	})
	if errors.Is(err, store.ErrNotFound) {
		return nil, utils.BadRequest("You can not delete this review!")
	}
	if err != nil {
		return nil, fmt.Errorf("delete review: %w", err)
	}
	return existing, nil
}

type ListResult struct {
	Reviews []models.Review `json:"reviews"`
	Count   int64           `json:"count"`
	Page    int             `json:"page"`
	Pages   int             `json:"pages"`
}

func (s *Service) List(ctx context.Context, dishID string, page utils.Page) (*ListResult, error) {
	if err := s.dishExists(ctx, dishID); err != nil {
		return nil, err
	}
	items, count, err := s.st.Reviews.ListByDish(ctx, dishID, page)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	return &ListResult{Reviews: items, Count: count, Page: page.Number, Pages: page.Pages(count)}, nil
}

func (s *Service) dishExists(ctx context.Context, dishID string) error {
	_, err := s.st.Dishes.Get(ctx, dishID)
	if errors.Is(err, store.ErrNotFound) {
		return utils.NotFound("No dish found with id %s", dishID)
	}
	if err != nil {
		return fmt.Errorf("load dish: %w", err)
	}
	return nil
}

// refreshRatings recomputes the dish's average and count from its reviews.
// A dish that is gone has nothing to refresh.
func (s *Service) refreshRatings(ctx context.Context, dishID string) error {
	avg, n, err := s.st.Reviews.Ratings(ctx, dishID)
	if err != nil {
		return err
	}
	_, err = s.st.Dishes.Update(ctx, dishID, store.DishUpdate{RatingsAverage: &avg, RatingsQuantity: &n})
	if errors.Is(err, store.ErrNotFound) {
		return nil
	}
	return err
}
