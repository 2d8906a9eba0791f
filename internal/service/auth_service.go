package service

import (
	"fmt"
	"time"

	"github.com/betledger/ledger/internal/config"
	"github.com/betledger/ledger/internal/domain"
	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// ownerSubject is the only principal: the ledger has a single owner.
const ownerSubject = "owner"

// LoginResponse is returned on successful login.
type LoginResponse struct {
	AccessToken string    `json:"access_token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// AppClaims extends jwt.RegisteredClaims with the token type.
type AppClaims struct {
	jwt.RegisteredClaims
	TokenType string `json:"type"`
}

// AuthService checks the owner's password and issues API tokens.
type AuthService struct {
	cfg *config.AuthConfig
}

// NewAuthService creates an AuthService.
func NewAuthService(cfg *config.AuthConfig) *AuthService {
	return &AuthService{cfg: cfg}
}

// Enabled returns true when a password hash is configured. Without one the
// API is open.
func (s *AuthService) Enabled() bool {
	return s.cfg.PasswordHash != ""
}

// Login validates the password and returns a fresh access token.
func (s *AuthService) Login(password string) (*LoginResponse, error) {
	if !s.Enabled() {
		return nil, domain.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(s.cfg.PasswordHash), []byte(password)); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	now := time.Now().UTC()
	expires := now.Add(s.cfg.TokenTTL)
	claims := AppClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   ownerSubject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		TokenType: "access",
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return nil, fmt.Errorf("auth_service.Login: sign: %w", err)
	}
	return &LoginResponse{AccessToken: token, ExpiresAt: expires}, nil
}

// ParseAccessToken validates the token signature, algorithm and expiry.
// Used by the JWT middleware and the websocket handshake.
func (s *AuthService) ParseAccessToken(tokenString string) (*AppClaims, error) {
	tok, err := jwt.ParseWithClaims(tokenString, &AppClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil || !tok.Valid {
		return nil, domain.ErrTokenInvalid
	}
	claims, ok := tok.Claims.(*AppClaims)
	if !ok || claims.TokenType != "access" || claims.Subject != ownerSubject {
		return nil, domain.ErrTokenInvalid
	}
	return claims, nil
}

// HashPassword produces the value to put in AUTH_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("auth_service.HashPassword: %w", err)
	}
	return string(hash), nil
}
