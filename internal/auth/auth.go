package auth

import (
	"crypto/rand"
	"crypto/subtle"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/marquee/marquee/internal/config"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrInvalidToken       = errors.New("invalid token")
)

// Service issues and validates bearer tokens. Authentication is optional:
// when no API key is configured the service reports itself disabled and the
// API is served unauthenticated.
type Service struct {
	apiKey    string
	jwtSecret []byte
	tokenTTL  time.Duration
}

// Claims represents JWT claims.
type Claims struct {
	jwt.RegisteredClaims
}

// NewService creates a new auth service.
func NewService(cfg config.AuthConfig) (*Service, error) {
	secret := []byte(cfg.JWTSecret)

	// Generate a random secret if not provided. Issued tokens then only
	// survive until the process restarts, which is fine for a single-node
	// deployment.
	if len(secret) == 0 {
		secret = make([]byte, 32)
		if _, err := rand.Read(secret); err != nil {
			return nil, fmt.Errorf("failed to generate JWT secret: %w", err)
		}
	}

	ttl := time.Duration(cfg.TokenTTLMins) * time.Minute
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	return &Service{
		apiKey:    cfg.APIKey,
		jwtSecret: secret,
		tokenTTL:  ttl,
	}, nil
}

// Enabled reports whether authentication is required.
func (s *Service) Enabled() bool {
	return s.apiKey != ""
}

// ValidateAPIKey checks a presented API key against the configured one.
func (s *Service) ValidateAPIKey(key string) error {
	if subtle.ConstantTimeCompare([]byte(key), []byte(s.apiKey)) != 1 {
		return ErrInvalidCredentials
	}
	return nil
}

// GenerateToken creates a new JWT token.
func (s *Service) GenerateToken() (string, error) {
	now := time.Now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "marquee",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// ValidateToken validates a JWT token and returns its claims.
func (s *Service) ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}

	return nil, ErrInvalidToken
}
