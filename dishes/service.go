// Package dishes is the cook-facing dish catalog.
package dishes

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"homecook/inventory"
	"homecook/models"
	"homecook/store"
	"homecook/utils"
)

type Service struct {
	dishes    store.Dishes
	users     store.Users
	reviews   store.Reviews
	inventory *inventory.Accessor
	now       func() time.Time
}

func NewService(st *store.Store) *Service {
	return &Service{
		dishes:    st.Dishes,
		users:     st.Users,
		reviews:   st.Reviews,
		inventory: inventory.New(st.Dishes),
		now:       time.Now,
	}
}

// Viewer is the caller as seen by the catalog. An empty Role means an
// anonymous visitor.
type Viewer struct {
	UserID string
	Role   string
}

type CreateInput struct {
	Name              string   `json:"name"`
	Cook              string   `json:"cook"` // admins only
	Description       string   `json:"description"`
	Price             float64  `json:"price"`
	Quantity          int      `json:"quantity"`
	Category          string   `json:"category"`
	SpecificAllergies []string `json:"specificAllergies"`
	Images            []string `json:"images"`
}

func validCategory(c string) error {
	if c != "" && !utils.Contains(models.DishCategories, c) {
		return utils.BadRequest("Category must be one of %s", strings.Join(models.DishCategories, ", "))
	}
	return nil
}

func (in CreateInput) validate() error {
	if strings.TrimSpace(in.Name) == "" {
		return utils.BadRequest("A dish must have a name")
	}
	if in.Price < 0 {
		return utils.BadRequest("Price can not be negative")
	}
	if in.Quantity < 0 {
		return utils.BadRequest("Quantity can not be negative")
	}
	return validCategory(in.Category)
}

// Create adds a dish. A cook always creates for themself; an admin names the
// cook in the input.
func (s *Service) Create(ctx context.Context, v Viewer, in CreateInput) (*models.Dish, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}
	cookID := v.UserID
	if v.Role == models.RoleAdmin {
		if err := s.checkCook(ctx, in.Cook); err != nil {
			return nil, err
		}
		cookID = in.Cook
	}

	now := s.now()
	dish := &models.Dish{
		ID:                utils.GetUUID(),
		Name:              strings.TrimSpace(in.Name),
		Cook:              cookID,
		Description:       in.Description,
		Images:            in.Images,
		Price:             in.Price,
		Quantity:          in.Quantity,
		Category:          in.Category,
		SpecificAllergies: in.SpecificAllergies,
		SoldOut:           in.Quantity == 0,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.dishes.Insert(ctx, dish); err != nil {
		return nil, fmt.Errorf("insert dish: %w", err)
	}
	return dish, nil
}

func (s *Service) checkCook(ctx context.Context, cookID string) error {
	if cookID == "" {
		return utils.BadRequest("Cook id is required")
	}
	cook, err := s.users.Get(ctx, cookID)
	if errors.Is(err, store.ErrNotFound) || (err == nil && cook.Role != models.RoleCook) {
		return utils.BadRequest("No cook found with id %s", cookID)
	}
	if err != nil {
		return fmt.Errorf("load cook: %w", err)
	}
	return nil
}

func (s *Service) Get(ctx context.Context, dishID string) (*models.Dish, error) {
	dish, err := s.dishes.Get(ctx, dishID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, utils.NotFound("No dish found with id %s", dishID)
	}
	if err != nil {
		return nil, fmt.Errorf("load dish: %w", err)
	}
	return dish, nil
}

type ListResult struct {
	Dishes []models.Dish `json:"dishes"`
	Count  int64         `json:"count"`
	Page   int           `json:"page"`
	Pages  int           `json:"pages"`
}

// List pages through the catalog as v sees it. Cooks only see their own
// dishes. Customers see dishes of cooks in their city and district.
// Admins and anonymous visitors see everything f matches.
func (s *Service) List(ctx context.Context, v Viewer, f store.DishFilter, page utils.Page) (*ListResult, error) {
	switch v.Role {
	case models.RoleCook:
		f.Cook = v.UserID
	case models.RoleCustomer:
		cooks, err := s.nearbyCooks(ctx, v.UserID)
		if err != nil {
			return nil, err
		}
		f.Cooks = cooks
	}

	dishes, count, err := s.dishes.List(ctx, f, page)
	if err != nil {
		return nil, fmt.Errorf("list dishes: %w", err)
	}
	return &ListResult{Dishes: dishes, Count: count, Page: page.Number, Pages: page.Pages(count)}, nil
}

// nearbyCooks returns the cooks sharing the customer's city and district.
// A customer without a city has no nearby cooks.
func (s *Service) nearbyCooks(ctx context.Context, customerID string) ([]string, error) {
	customer, err := s.users.Get(ctx, customerID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, utils.Unauthorized("The user belonging to this token does no longer exist")
	}
	if err != nil {
		return nil, fmt.Errorf("load customer: %w", err)
	}
	if customer.Address.City == "" {
		return []string{}, nil
	}
	ids, err := s.users.IDs(ctx, store.UserFilter{
		Role:     models.RoleCook,
		City:     customer.Address.City,
		District: customer.Address.District,
	})
	if err != nil {
		return nil, fmt.Errorf("find nearby cooks: %w", err)
	}
	return ids, nil
}

// Patch holds the fields a cook may change after creation.
type Patch struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Category    *string  `json:"category"`
	Price       *float64 `json:"price"`
	Quantity    *int     `json:"quantity"`
}

func (p Patch) validate() error {
	if p.Name != nil && strings.TrimSpace(*p.Name) == "" {
		return utils.BadRequest("A dish must have a name")
	}
	if p.Price != nil && *p.Price < 0 {
		return utils.BadRequest("Price can not be negative")
	}
	if p.Quantity != nil && *p.Quantity < 0 {
		return utils.BadRequest("Quantity can not be negative")
	}
	if p.Category != nil {
		return validCategory(*p.Category)
	}
	return nil
}

// owned loads the dish and checks that v may change it. Anyone but its cook
// or an admin gets the same 404 as for a missing dish.
func (s *Service) owned(ctx context.Context, v Viewer, dishID string) (*models.Dish, error) {
	dish, err := s.Get(ctx, dishID)
	if err != nil {
		return nil, err
	}
	if v.Role != models.RoleAdmin && dish.Cook != v.UserID {
		return nil, utils.NotFound("No dish found with id %s", dishID)
	}
	return dish, nil
}

// Update writes only the fields set in p. Stock goes through the inventory
// so it never races a checkout decrement.
func (s *Service) Update(ctx context.Context, v Viewer, dishID string, p Patch) (*models.Dish, error) {
	dish, err := s.owned(ctx, v, dishID)
	if err != nil {
		return nil, err
	}
	if err := p.validate(); err != nil {
		return nil, err
	}
	if p.Name != nil {
		name := strings.TrimSpace(*p.Name)
		p.Name = &name
	}

	u := store.DishUpdate{Name: p.Name, Description: p.Description, Category: p.Category, Price: p.Price}
	if u != (store.DishUpdate{}) {
		dish, err = s.dishes.Update(ctx, dishID, u)
		if err != nil {
			return nil, fmt.Errorf("update dish: %w", err)
		}
	}
	if p.Quantity != nil {
		return s.inventory.SetQuantity(ctx, dishID, *p.Quantity)
	}
	return dish, nil
}

// Delete removes the dish and its reviews.
func (s *Service) Delete(ctx context.Context, v Viewer, dishID string) (*models.Dish, error) {
	if _, err := s.owned(ctx, v, dishID); err != nil {
		return nil, err
	}
	dish, err := s.dishes.Delete(ctx, dishID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, utils.NotFound("No dish found with id %s", dishID)
	}
	if err != nil {
		return nil, fmt.Errorf("delete dish: %w", err)
	}
	if err := s.reviews.DeleteByDish(ctx, dishID); err != nil {
		log.Printf("dishes: delete reviews of %s: %v", dishID, err)
	}
	return dish, nil
}
