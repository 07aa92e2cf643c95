package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"fooddash-backend/internal/domain"
)

type UserRepo interface {
	Put(ctx context.Context, u *domain.User) error
	Get(ctx context.Context, id string) (*domain.User, bool, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, bool, error)
}

type AuthService struct {
	Users     UserRepo
	JWTSecret string
	TokenTTL  time.Duration
}

func (s *AuthService) tokenTTL() time.Duration {
	if s.TokenTTL != 0 {
		return s.TokenTTL
	}
	return 7 * 24 * time.Hour
}

func (s *AuthService) Register(ctx context.Context, name, email, password string, role domain.Role) (string, *domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || password == "" {
		return "", nil, ValidationError("email and password are required")
	}
	if !role.Valid() {
		return "", nil, ValidationError("invalid role")
	}
	if _, ok, err := s.Users.GetByEmail(ctx, email); err != nil {
		return "", nil, err
	} else if ok {
		return "", nil, ConflictError("email is already registered")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", nil, err
	}
	now := time.Now().UTC()
	u := &domain.User{
		UserID:       uuid.NewString(),
		Email:        email,
		Name:         name,
		Role:         role,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.Users.Put(ctx, u); err != nil {
		return "", nil, err
	}

	token, err := s.sign(u)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}

func (s *AuthService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	u, ok, err := s.Users.GetByEmail(ctx, email)
	if err != nil {
		return "", nil, err
	}
	if !ok {
		return "", nil, AuthenticationError("invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", nil, AuthenticationError("invalid email or password")
	}

	token, err := s.sign(u)
	if err != nil {
		return "", nil, err
	}
	return token, u, nil
}

// Verify parses a bearer token and returns the actor's identity.
func (s *AuthService) Verify(token string) (string, domain.Role, error) {
	parsed, err := jwt.Parse(token, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, AuthenticationError("unexpected signing method")
		}
		return []byte(s.JWTSecret), nil
	})
	if err != nil || !parsed.Valid {
		return "", "", AuthenticationError("invalid or expired token")
	}
	claims, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return "", "", AuthenticationError("invalid token claims")
	}
	userID, _ := claims["user_id"].(string)
	role, _ := claims["role"].(string)
	if userID == "" || !domain.Role(role).Valid() {
		return "", "", AuthenticationError("invalid token claims")
	}
	return userID, domain.Role(role), nil
}

func (s *AuthService) sign(u *domain.User) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": u.UserID,
		"role":    string(u.Role),
		"iat":     now.Unix(),
		"exp":     now.Add(s.tokenTTL()).Unix(),
	}
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return t.SignedString([]byte(s.JWTSecret))
}
