package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/shashiranjanraj/rincon/app/models"
	"github.com/shashiranjanraj/rincon/app/repositories"
	"github.com/shashiranjanraj/rincon/pkg/auth"
)

var (
	ErrUserNotFound  = errors.New("Usuario no encontrado")
	ErrWrongPassword = errors.New("Contraseña incorrecta")
	ErrAdminRequired = errors.New("Solo un administrador puede asignar el rol admin")
)

// UserStore is the store contract the auth service needs.
type UserStore interface {
	repositories.Repository[models.User]
	FindByEmail(ctx context.Context, email string) (*models.User, error)
}

// Tokens issues and checks credentials. *auth.Manager implements it.
type Tokens interface {
	GenerateToken(userID uint, role string) (string, error)
	HashPassword(plain string) (string, error)
	CheckPassword(hash, plain string) bool
}

// UserInput is the body accepted by registration and user updates.
type UserInput struct {
	Name     string `json:"nombre"`
	Email    string `json:"email"    validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,maxbytes=72"`
	Role     string `json:"rol"      validate:"nullable,in=admin|vendedor"`
}

type AuthService struct {
	users  UserStore
	tokens Tokens
}

func NewAuthService(users UserStore, tokens Tokens) *AuthService {
	return &AuthService{users: users, tokens: tokens}
}

// Register creates a user and returns its id. caller is the already
// authenticated user, or nil; only an admin may create another admin.
func (s *AuthService) Register(ctx context.Context, in UserInput, caller *auth.Claims) (uint, error) {
	user, err := s.build(in, caller)
	if err != nil {
		return 0, err
	}
	if err := s.users.Create(ctx, user); err != nil {
		return 0, err
	}
	return user.ID, nil
}

// Login checks the credentials and returns a signed token.
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if errors.Is(err, repositories.ErrNotFound) {
		return "", ErrUserNotFound
	}
	if err != nil {
		return "", err
	}

	if !s.tokens.CheckPassword(user.Password, password) {
		return "", ErrWrongPassword
	}

	return s.tokens.GenerateToken(user.ID, user.Role)
}

// Update replaces every field of user id. The password is re-hashed even
// when it did not change.
func (s *AuthService) Update(ctx context.Context, id uint, in UserInput, caller *auth.Claims) error {
	user, err := s.build(in, caller)
	if err != nil {
		return err
	}
	return s.users.Update(ctx, id, user)
}

func (s *AuthService) Delete(ctx context.Context, id uint) error {
	return s.users.Delete(ctx, id)
}

func (s *AuthService) List(ctx context.Context) ([]models.User, error) {
	return s.users.All(ctx)
}

func (s *AuthService) Find(ctx context.Context, id uint) (*models.User, error) {
	return s.users.Find(ctx, id)
}

func (s *AuthService) build(in UserInput, caller *auth.Claims) (*models.User, error) {
	role := in.Role
	if role == "" {
		role = models.RoleSeller
	}
	if role == models.RoleAdmin && (caller == nil || caller.Role != models.RoleAdmin) {
		return nil, ErrAdminRequired
	}

	hash, err := s.tokens.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("auth: hash password: %w", err)
	}

	return &models.User{
		Name:     in.Name,
		Email:    in.Email,
		Password: hash,
		Role:     role,
	}, nil
}
