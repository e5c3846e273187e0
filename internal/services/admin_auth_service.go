package services

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/dgrijalva/jwt-go"
	"golang.org/x/crypto/bcrypt"
)

const adminSubject = "admin"

var (
	ErrAdminAuthDisabled  = errors.New("admin authentication is not configured")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// AdminAuthService guards the admin pages with a single bcrypt-hashed password.
// With no hash configured it is disabled and the admin pages stay open.
type AdminAuthService struct {
	passwordHash []byte
	jwtSecret    []byte
	tokenDurat   time.Duration // Duration for which JWT is valid
}

// NewAdminAuthService creates a new AdminAuthService.
func NewAdminAuthService(passwordHash, jwtSecret string) *AdminAuthService {
	return &AdminAuthService{
		passwordHash: []byte(passwordHash),
		jwtSecret:    []byte(jwtSecret),
		tokenDurat:   12 * time.Hour,
	}
}

// Enabled reports whether an admin password is configured.
func (s *AdminAuthService) Enabled() bool {
	return len(s.passwordHash) > 0
}

// TokenDuration is how long an issued admin token stays valid.
func (s *AdminAuthService) TokenDuration() time.Duration {
	return s.tokenDurat
}

// Login checks password and returns a signed JWT if it matches.
func (s *AdminAuthService) Login(password string) (string, error) {
	if !s.Enabled() {
		return "", ErrAdminAuthDisabled
	}
	if err := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": adminSubject,
		"exp": now.Add(s.tokenDurat).Unix(),
		"iat": now.Unix(),
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}

// ValidateToken parses and validates an admin JWT.
func (s *AdminAuthService) ValidateToken(tokenString string) error {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		log.Printf("Token validation error: %v", err)
		return fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid || claims["sub"] != adminSubject {
		return errors.New("invalid token")
	}
	return nil
}
