package handler

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/TatianaIng96/driverflow-service/internal/membership"
	"github.com/TatianaIng96/driverflow-service/internal/model"
	"github.com/TatianaIng96/driverflow-service/internal/service"
	"github.com/TatianaIng96/driverflow-service/pkg/events"
	"github.com/TatianaIng96/driverflow-service/pkg/logger"
)

// Handler serves the membership API on top of the command service
type Handler struct {
	svc *service.Service
	hub *events.Hub
}

// New creates a Handler. hub may be nil when live events are disabled.
func New(svc *service.Service, hub *events.Hub) *Handler {
	return &Handler{svc: svc, hub: hub}
}

// CommandResponse is the body returned by every state-changing endpoint
type CommandResponse struct {
	Success bool        `json:"success"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// statusFor maps engine and validation errors onto HTTP status codes
func statusFor(err error) int {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr), errors.Is(err, errInvalidBody):
		return http.StatusBadRequest
	case errors.Is(err, membership.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, membership.ErrDuplicatePhone), errors.Is(err, membership.ErrAlreadyBanned):
		return http.StatusConflict
	case errors.Is(err, membership.ErrOperatorNotFound), errors.Is(err, membership.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

// fail writes an error body; server errors hide their details
func fail(c echo.Context, err error) error {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		logger.FromContext(c).Error("Request failed", zap.Error(err))
		msg = "internal server error"
	}
	return c.JSON(status, echo.Map{"success": false, "error": msg})
}

var errInvalidBody = errors.New("invalid request data")

// bindAndValidate decodes the body into req and runs its validate tags
func bindAndValidate(c echo.Context, req interface{}) error {
	log := logger.FromContext(c)
	if err := c.Bind(req); err != nil {
		log.Warn("Invalid request data", zap.Error(err))
		return errInvalidBody
	}
	if err := c.Validate(req); err != nil {
		log.Warn("Request validation failed", zap.Error(err))
		return err
	}
	return nil
}

// execute runs op and writes the command response. data builds the payload
// from the post-operation snapshot and may be nil.
func (h *Handler) execute(c echo.Context, op membership.Operation, status int, data func(membership.Snapshot, membership.Result) interface{}) error {
	log := logger.FromContext(c)
	res, err := h.svc.Execute(c.Request().Context(), op)
	if err != nil {
		log.Info("Command rejected",
			zap.String("operation", op.Label()),
			zap.Error(err))
		return fail(c, err)
	}

	body := CommandResponse{Success: true, Message: res.Message}
	if data != nil {
		body.Data = data(h.svc.Snapshot(), res)
	}
	return c.JSON(status, body)
}

// operatorFromPath resolves :operatorId against the current snapshot
func (h *Handler) operatorFromPath(c echo.Context) (model.Operator, membership.Snapshot, error) {
	snap := h.svc.Snapshot()
	id := c.Param("operatorId")
	op, ok := snap.Operator(id)
	if !ok {
		return op, snap, fmt.Errorf("%w: %s", membership.ErrOperatorNotFound, id)
	}
	return op, snap, nil
}

// Health reports liveness
func (h *Handler) Health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}
