package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/TatianaIng96/driverflow-service/internal/membership"
	"github.com/TatianaIng96/driverflow-service/internal/model"
	"github.com/TatianaIng96/driverflow-service/pkg/logger"
)

// CreateOperatorRequest is the body of POST /api/admin/operators
type CreateOperatorRequest struct {
	Name  string `json:"name" validate:"required,max=255"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone" validate:"omitempty,phone"`
}

// UpdateSettingsRequest is the body of PATCH /settings; absent fields are kept
type UpdateSettingsRequest struct {
	GroupBaseName      *string         `json:"group_base_name" validate:"omitempty,min=1,max=50"`
	GroupPhoto         *string         `json:"group_photo" validate:"omitempty,url"`
	MaxClientsPerGroup *int            `json:"max_clients_per_group" validate:"omitempty,min=1,max=1024"`
	BotRules           *model.BotRules `json:"bot_rules"`
}

// WhatsAppConnectionRequest is the body of PUT /whatsapp
type WhatsAppConnectionRequest struct {
	IsConnected bool   `json:"is_connected"`
	PhoneNumber string `json:"phone_number" validate:"omitempty,phone"`
	ProfileName string `json:"profile_name" validate:"max=255"`
	Status      string `json:"status" validate:"required,oneof=disconnected qr_ready connecting connected"`
}

// OperatorStatusRequest is the body of PATCH /api/admin/operators/:id/status
type OperatorStatusRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

// OperatorDetail is an operator with its dashboard numbers
type OperatorDetail struct {
	model.Operator
	Stats membership.OperatorStats `json:"stats"`
}

// ListOperators returns every operator (super admin)
func (h *Handler) ListOperators(c echo.Context) error {
	log := logger.FromContext(c)
	snap := h.svc.Snapshot()

	out := make([]OperatorDetail, 0, len(snap.Operators))
	for _, o := range snap.Operators {
		st, _ := snap.OperatorStats(o.ID)
		out = append(out, OperatorDetail{Operator: o, Stats: st})
	}

	log.Info("Operators retrieved successfully", zap.Int("count", len(out)))
	return c.JSON(http.StatusOK, out)
}

// GetOperator returns one operator with its stats (super admin)
func (h *Handler) GetOperator(c echo.Context) error {
	snap := h.svc.Snapshot()
	id := c.Param("id")
	o, ok := snap.Operator(id)
	if !ok {
		logger.FromContext(c).Warn("Operator not found", zap.String("operator_id", id))
		return fail(c, fmt.Errorf("%w: %s", membership.ErrOperatorNotFound, id))
	}
	st, _ := snap.OperatorStats(id)
	return c.JSON(http.StatusOK, OperatorDetail{Operator: o, Stats: st})
}

// CreateOperator registers a new operator with default settings (super admin)
func (h *Handler) CreateOperator(c echo.Context) error {
	log := logger.FromContext(c)
	log.Info("Creating new operator")

	var req CreateOperatorRequest
	if err := bindAndValidate(c, &req); err != nil {
		return fail(c, err)
	}

	return h.execute(c, membership.CreateOperator{Name: req.Name, Email: req.Email, Phone: req.Phone}, http.StatusCreated,
		func(s membership.Snapshot, res membership.Result) interface{} {
			o, _ := s.Operator(res.OperatorID)
			return o
		})
}

// SetOperatorStatus activates or deactivates an operator (super admin)
func (h *Handler) SetOperatorStatus(c echo.Context) error {
	var req OperatorStatusRequest
	if err := bindAndValidate(c, &req); err != nil {
		return fail(c, err)
	}

	return h.execute(c, membership.SetOperatorActive{OperatorID: c.Param("id"), Active: *req.IsActive}, http.StatusOK,
		func(s membership.Snapshot, res membership.Result) interface{} {
			o, _ := s.Operator(res.OperatorID)
			return o
		})
}

// PlatformStats returns platform-wide totals (super admin)
func (h *Handler) PlatformStats(c echo.Context) error {
	return c.JSON(http.StatusOK, h.svc.Snapshot().PlatformStats())
}

// OperatorStats returns the dashboard numbers of one operator
func (h *Handler) OperatorStats(c echo.Context) error {
	o, snap, err := h.operatorFromPath(c)
	if err != nil {
		return fail(c, err)
	}
	st, _ := snap.OperatorStats(o.ID)
	return c.JSON(http.StatusOK, st)
}

// GetOperatorProfile returns the operator addressed by the path, settings included
func (h *Handler) GetOperatorProfile(c echo.Context) error {
	o, _, err := h.operatorFromPath(c)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, o)
}

// UpdateSettings merges the given settings into the operator's current ones
func (h *Handler) UpdateSettings(c echo.Context) error {
	operatorID := c.Param("operatorId")
	logger.FromContext(c).Info("Updating operator settings", zap.String("operator_id", operatorID))

	var req UpdateSettingsRequest
	if err := bindAndValidate(c, &req); err != nil {
		return fail(c, err)
	}

	op := membership.UpdateOperatorSettings{
		OperatorID: operatorID,
		Patch: membership.SettingsPatch{
			GroupBaseName:      req.GroupBaseName,
			GroupPhoto:         req.GroupPhoto,
			MaxClientsPerGroup: req.MaxClientsPerGroup,
			BotRules:           req.BotRules,
		},
	}
	return h.execute(c, op, http.StatusOK, func(s membership.Snapshot, res membership.Result) interface{} {
		o, _ := s.Operator(res.OperatorID)
		return o.Settings
	})
}

// UpdateWhatsAppConnection records the bot session state reported by the client
func (h *Handler) UpdateWhatsAppConnection(c echo.Context) error {
	operatorID := c.Param("operatorId")

	var req WhatsAppConnectionRequest
	if err := bindAndValidate(c, &req); err != nil {
		return fail(c, err)
	}

	conn := model.WhatsAppConnection{
		IsConnected: req.IsConnected,
		PhoneNumber: req.PhoneNumber,
		ProfileName: req.ProfileName,
		Status:      model.ConnectionStatus(req.Status),
	}
	if req.IsConnected {
		now := time.Now().UTC()
		conn.ConnectedAt = &now
	}

	return h.execute(c, membership.UpdateWhatsAppConnection{OperatorID: operatorID, Connection: conn}, http.StatusOK,
		func(s membership.Snapshot, res membership.Result) interface{} {
			o, _ := s.Operator(res.OperatorID)
			return o.WhatsAppConnection
		})
}
