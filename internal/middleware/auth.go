package middleware

import (
	"net/http"
	"strings"

	"github.com/TatianaIng96/driverflow-service/pkg/jwtutil"
	"github.com/TatianaIng96/driverflow-service/pkg/logger"
	"github.com/TatianaIng96/driverflow-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const (
	claimsKey     = "user"
	operatorIDKey = "operator_id"
)

// AuthMiddleware validates the bearer token and stores its claims in the
// context. Browsers cannot set headers on websocket upgrades, so the token
// may also come in the access_token query parameter.
func AuthMiddleware(j *jwtutil.JWTUtil) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromContext(c)

			tokenString, ok := bearerToken(c)
			if !ok {
				log.Warn("Missing or malformed Authorization header")
				prometheus.RecordAuthAttempt(false)
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
			}

			claims, err := j.ValidateToken(tokenString)
			if err != nil {
				log.Warn("Invalid JWT token", zap.Error(err))
				prometheus.RecordAuthAttempt(false)
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
			}
			prometheus.RecordAuthAttempt(true)

			c.Set(claimsKey, claims)
			c.Set("user_id", claims.UserID)
			c.Set("user_role", claims.Role)
			if op := claims.Operator(); op != "" {
				c.Set(operatorIDKey, op)
			}

			log.Debug("Request authenticated",
				zap.String("user_id", claims.UserID),
				zap.String("role", claims.Role),
				zap.String("operator_id", claims.Operator()))

			return next(c)
		}
	}
}

func bearerToken(c echo.Context) (string, bool) {
	authHeader := c.Request().Header.Get("Authorization")
	if authHeader == "" {
		if token := c.QueryParam("access_token"); token != "" {
			return token, true
		}
		return "", false
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}

// RequireRole rejects callers whose token role is not one of roles
func RequireRole(roles ...string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			claims, ok := GetClaims(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
			}
			for _, r := range roles {
				if claims.Role == r {
					return next(c)
				}
			}
			logger.FromContext(c).Warn("Role not allowed",
				zap.String("role", claims.Role),
				zap.Strings("required", roles))
			return c.JSON(http.StatusForbidden, echo.Map{"error": "insufficient permissions"})
		}
	}
}

// GetClaims retrieves the token claims stored by AuthMiddleware
func GetClaims(c echo.Context) (*jwtutil.UserClaims, bool) {
	claims, ok := c.Get(claimsKey).(*jwtutil.UserClaims)
	return claims, ok
}

// GetOperatorIDFromContext retrieves the operator the caller acts for.
// Returns "", false for super admins and unauthenticated requests.
func GetOperatorIDFromContext(c echo.Context) (string, bool) {
	id, ok := c.Get(operatorIDKey).(string)
	return id, ok && id != ""
}
