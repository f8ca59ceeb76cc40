package middleware

import (
	"net/http"

	"github.com/TatianaIng96/driverflow-service/internal/membership"
	"github.com/TatianaIng96/driverflow-service/internal/service"
	"github.com/TatianaIng96/driverflow-service/pkg/logger"
	"github.com/TatianaIng96/driverflow-service/prometheus"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// OperatorScope guards routes under /:operatorId. Super admins may address
// any operator; an operator may only address itself, and its record is created
// on first use.
func OperatorScope(svc *service.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			log := logger.FromContext(c)
			claims, ok := GetClaims(c)
			if !ok {
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
			}

			target := c.Param("operatorId")
			if claims.IsSuperAdmin() {
				return next(c)
			}

			own := claims.Operator()
			if own == "" || own != target {
				prometheus.RecordScopeDenied()
				log.Warn("Operator scope violation",
					zap.String("operator_id", own),
					zap.String("target_operator_id", target))
				return c.JSON(http.StatusForbidden, echo.Map{"error": "access to this operator is not allowed"})
			}

			if _, exists := svc.Snapshot().Operator(own); !exists {
				res, err := svc.Execute(c.Request().Context(), membership.EnsureOperator{
					ID:    own,
					Name:  claims.Name,
					Email: claims.Email,
				})
				if err != nil {
					log.Error("Failed to create operator on first login",
						zap.String("operator_id", own),
						zap.Error(err))
					return c.JSON(http.StatusInternalServerError, echo.Map{"error": "failed to initialize operator"})
				}
				log.Info("Operator created on first login",
					zap.String("operator_id", own),
					zap.String("message", res.Message))
			}

			return next(c)
		}
	}
}
