package service

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gymsite/backend/internal/models"
)

// Claims is the identity carried by an access token
type Claims struct {
	UserID string
	Email  string
	Role   models.Role
}

// TokenGenerator handles JWT token generation and validation
type TokenGenerator struct {
	secret            string
	accessTokenExpiry time.Duration
}

// NewTokenGenerator creates a new token generator
func NewTokenGenerator(secret string, accessExpiry time.Duration) *TokenGenerator {
	return &TokenGenerator{
		secret:            secret,
		accessTokenExpiry: accessExpiry,
	}
}

// GenerateAccessToken creates an access token with the account id, email and role in payload
func (tg *TokenGenerator) GenerateAccessToken(account *models.Account) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"user_id": account.ID,
		"email":   account.Email,
		"role":    string(account.Role),
		"exp":     now.Add(tg.accessTokenExpiry).Unix(),
		"iat":     now.Unix(),
		"type":    "access",
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString([]byte(tg.secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}

	return tokenString, nil
}

// ValidateAccessToken validates an access token and returns its claims
func (tg *TokenGenerator) ValidateAccessToken(tokenString string) (*Claims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		// Validate the signing method
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(tg.secret), nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return nil, fmt.Errorf("token is invalid")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, fmt.Errorf("invalid token claims")
	}

	tokenType, ok := claims["type"].(string)
	if !ok || tokenType != "access" {
		return nil, fmt.Errorf("token is not an access token")
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return nil, fmt.Errorf("user_id not found in token")
	}

	roleStr, _ := claims["role"].(string)
	role, ok := models.ParseRole(roleStr)
	if !ok {
		return nil, fmt.Errorf("role not found in token")
	}

	email, _ := claims["email"].(string)

	return &Claims{UserID: userID, Email: email, Role: role}, nil
}
