package jwtutil

import (
	"errors"
	"fmt"
	"time"

	"github.com/TatianaIng96/driverflow-service/pkg/config"
	"github.com/golang-jwt/jwt/v4"
)

// Roles carried in the token
const (
	RoleSuperAdmin = "super_admin"
	RoleOperator   = "operator"
)

// UserClaims represents the JWT claims for an authenticated user
type UserClaims struct {
	Email      string `json:"email"`
	UserID     string `json:"user_id"`
	OperatorID string `json:"operator_id,omitempty"`
	Name       string `json:"name,omitempty"`
	Role       string `json:"role"`
	jwt.RegisteredClaims
}

// Operator returns the operator the claims act for. Operators without an
// explicit operator_id act for the operator sharing their user id.
func (c *UserClaims) Operator() string {
	if c.OperatorID != "" {
		return c.OperatorID
	}
	if c.Role == RoleOperator {
		return c.UserID
	}
	return ""
}

// IsSuperAdmin reports whether the claims carry the platform role
func (c *UserClaims) IsSuperAdmin() bool {
	return c.Role == RoleSuperAdmin
}

// JWTUtil is a utility for JWT token operations
type JWTUtil struct {
	config *config.JWTConfig
	now    func() time.Time
}

// NewJWTUtil creates a new JWT utility with the given configuration
func NewJWTUtil(cfg *config.JWTConfig) *JWTUtil {
	return &JWTUtil{config: cfg, now: time.Now}
}

// GenerateToken creates a signed token for the given identity
func (j *JWTUtil) GenerateToken(userID, email, name, role, operatorID string) (string, error) {
	if j.config == nil {
		return "", errors.New("JWT configuration not provided")
	}
	if role != RoleSuperAdmin && role != RoleOperator {
		return "", fmt.Errorf("unknown role %q", role)
	}

	now := j.now()
	claims := UserClaims{
		Email:      email,
		UserID:     userID,
		OperatorID: operatorID,
		Name:       name,
		Role:       role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Duration(j.config.ExpirationHours) * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(j.config.SigningKey))
}

// ValidateToken validates and parses the JWT token
func (j *JWTUtil) ValidateToken(tokenString string) (*UserClaims, error) {
	if j.config == nil {
		return nil, errors.New("JWT configuration not provided")
	}

	token, err := jwt.ParseWithClaims(
		tokenString,
		&UserClaims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(j.config.SigningKey), nil
		},
	)
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*UserClaims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.UserID == "" || (claims.Role != RoleSuperAdmin && claims.Role != RoleOperator) {
		return nil, errors.New("token is missing identity claims")
	}
	return claims, nil
}
