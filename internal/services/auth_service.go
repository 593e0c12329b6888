package services

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"butik/internal/domain"
	"butik/internal/repos"
	"butik/internal/validate"
)

var ErrBadCreds = errors.New("invalid email or password")

type AuthService struct {
	Users  *repos.UserRepo
	Secret []byte
	TTL    time.Duration
}

func NewAuthService(users *repos.UserRepo, secret string, ttl time.Duration) *AuthService {
	return &AuthService{Users: users, Secret: []byte(secret), TTL: ttl}
}

type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

type RegisterInput struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

func (s *AuthService) Register(in RegisterInput) (*domain.User, error) {
	name, ok := validate.Name(in.Name)
	if !ok {
		return nil, fmt.Errorf("%w: name is required", domain.ErrInvalidInput)
	}
	email, ok := validate.Email(in.Email)
	if !ok {
		return nil, fmt.Errorf("%w: invalid email", domain.ErrInvalidInput)
	}
	phone, ok := validate.Phone(in.Phone)
	if !ok {
		return nil, fmt.Errorf("%w: invalid phone", domain.ErrInvalidInput)
	}
	if !validate.Password(in.Password) {
		return nil, fmt.Errorf("%w: password must be 8-64 chars with upper, lower and digit", domain.ErrInvalidInput)
	}
	if _, err := s.Users.ByEmail(email); err == nil {
		return nil, fmt.Errorf("%w: email already registered", domain.ErrConflict)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), 10)
	if err != nil {
		return nil, err
	}
	u := domain.User{
		ID:    uuid.NewString(),
		Name:  name,
		Email: email,
		Phone: phone,
		Hash:  string(hash),
		Role:  "user",
	}
	if err := s.Users.Create(u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Login verifies credentials and issues a signed bearer token carrying the
// user id and role.
func (s *AuthService) Login(email, password string) (string, *domain.User, error) {
	u, err := s.Users.ByEmail(email)
	if err != nil {
		return "", nil, ErrBadCreds
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Hash), []byte(password)) != nil {
		return "", nil, ErrBadCreds
	}

	now := time.Now()
	claims := Claims{
		Role: u.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   u.ID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.TTL)),
		},
	}
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.Secret)
	if err != nil {
		return "", nil, err
	}
	return tok, u, nil
}

// Verify parses and validates a bearer token.
func (s *AuthService) Verify(token string) (*Claims, error) {
	var claims Claims
	parsed, err := jwt.ParseWithClaims(token, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.Secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, fmt.Errorf("invalid or expired token")
	}
	return &claims, nil
}
