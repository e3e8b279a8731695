package auth

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/mail"
	"strings"
	"time"

	"homecook/middleware"
	"homecook/models"
	"homecook/store"
	"homecook/utils"

	"golang.org/x/crypto/bcrypt"
)

const minPasswordLen = 6

type Service struct {
	users store.Users
	carts store.Carts
	now   func() time.Time
}

func NewService(st *store.Store) *Service {
	return &Service{users: st.Users, carts: st.Carts, now: time.Now}
}

type RegisterInput struct {
	Name     string         `json:"name"`
	Email    string         `json:"email"`
	Password string         `json:"password"`
	Role     string         `json:"role"`
	Phone    string         `json:"phone"`
	Address  models.Address `json:"address"`
}

type Session struct {
	Token string       `json:"token"`
	User  *models.User `json:"data"`
}

// Register creates a customer or cook account and logs it in.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" || in.Email == "" || in.Password == "" {
		return nil, utils.BadRequest("Missing required fields")
	}
	if _, err := mail.ParseAddress(in.Email); err != nil {
		return nil, utils.BadRequest("Please provide a valid email")
	}
	if len(in.Password) < minPasswordLen {
		return nil, utils.BadRequest("Password must be at least %d characters", minPasswordLen)
	}
	switch in.Role {
	case "":
		in.Role = models.RoleCustomer
	case models.RoleCustomer, models.RoleCook:
	default:
		return nil, utils.BadRequest("Role must be customer or cook")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	now := s.now()
	user := &models.User{
		ID:           utils.GetUUID(),
		Name:         in.Name,
		Email:        in.Email,
		PasswordHash: string(hashed),
		Role:         in.Role,
		Address:      in.Address,
		Phone:        in.Phone,
		IsActive:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Insert(ctx, user); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, utils.Conflict("User already exists")
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	log.Printf("registered %s user %s", user.Role, user.ID)
	return s.session(user)
}

// Login checks the password and issues a token.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if errors.Is(err, store.ErrNotFound) {
		return nil, utils.Unauthorized("Incorrect email or password")
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, utils.Unauthorized("Incorrect email or password")
	}
	if !user.IsActive {
		return nil, utils.Unauthorized("This account is deactivated")
	}
	return s.session(user)
}

func (s *Service) Me(ctx context.Context, userID string) (*models.User, error) {
	user, err := s.users.Get(ctx, userID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, utils.Unauthorized("The user belonging to this token does no longer exist")
	}
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}
	return user, nil
}

// UpdateAddress replaces the caller's delivery address. City is required
// because carts are matched to cooks by city.
func (s *Service) UpdateAddress(ctx context.Context, userID string, addr models.Address) (*models.User, error) {
	addr.City = strings.TrimSpace(addr.City)
	if addr.City == "" {
		return nil, utils.BadRequest("City is required")
	}
	if err := s.users.UpdateAddress(ctx, userID, addr); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, utils.Unauthorized("The user belonging to this token does no longer exist")
		}
		return nil, fmt.Errorf("update address: %w", err)
	}
	return s.Me(ctx, userID)
}

func (s *Service) session(user *models.User) (*Session, error) {
	token, err := middleware.IssueToken(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &Session{Token: token, User: user}, nil
}
