package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	mid "github.com/TatianaIng96/driverflow-service/internal/middleware"
	"github.com/TatianaIng96/driverflow-service/pkg/jwtutil"
)

// RegisterRoutes mounts every endpoint on e
func RegisterRoutes(e *echo.Echo, h *Handler, j *jwtutil.JWTUtil) {
	auth := mid.AuthMiddleware(j)

	// Metrics endpoint
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// Health check endpoint
	e.GET("/health", h.Health)

	// Platform administration
	admin := e.Group("/api/admin", auth, mid.RequireRole(jwtutil.RoleSuperAdmin))
	admin.GET("/operators", h.ListOperators)
	admin.POST("/operators", h.CreateOperator)
	admin.GET("/operators/:id", h.GetOperator)
	admin.PATCH("/operators/:id/status", h.SetOperatorStatus)
	admin.GET("/stats", h.PlatformStats)

	// Operator-scoped API
	operator := e.Group("/api/operators/:operatorId", auth, mid.OperatorScope(h.svc))
	operator.GET("", h.GetOperatorProfile)
	operator.GET("/stats", h.OperatorStats)
	operator.PATCH("/settings", h.UpdateSettings)
	operator.PUT("/whatsapp", h.UpdateWhatsAppConnection)

	operator.GET("/drivers", h.ListDrivers)
	operator.POST("/drivers", h.CreateDriver)
	operator.GET("/drivers/eligible", h.EligibleDrivers)
	operator.GET("/drivers/:id", h.GetDriver)
	operator.PATCH("/drivers/:id", h.UpdateDriver)
	operator.POST("/drivers/:id/ban", h.BanDriver)

	operator.GET("/clients", h.ListClients)
	operator.POST("/clients", h.CreateClient)
	operator.GET("/clients/:id", h.GetClient)
	operator.POST("/clients/:id/ban", h.BanClient)

	operator.GET("/groups", h.ListGroups)
	operator.GET("/groups/:id", h.GetGroup)
	operator.DELETE("/groups/:id/drivers/:driverId", h.RemoveDriverFromGroup)
	operator.DELETE("/groups/:id/clients/:clientId", h.RemoveClientFromGroup)

	operator.GET("/banned", h.ListBanned)
	operator.DELETE("/banned/:id", h.Unban)

	// Live change notifications
	e.GET("/api/events", h.Events, auth)
}
