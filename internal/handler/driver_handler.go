package handler

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/TatianaIng96/driverflow-service/internal/membership"
	"github.com/TatianaIng96/driverflow-service/internal/model"
	"github.com/TatianaIng96/driverflow-service/pkg/logger"
)

// CreateDriverRequest is the body of POST /drivers
type CreateDriverRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	Phone    string `json:"phone" validate:"required,phone"`
	Document string `json:"document" validate:"max=64"`
	Photo    string `json:"photo" validate:"omitempty,url"`
}

// UpdateDriverRequest is the body of PATCH /drivers/:id
type UpdateDriverRequest struct {
	Name         *string         `json:"name" validate:"omitempty,min=1,max=255"`
	Photo        *string         `json:"photo" validate:"omitempty,url"`
	Document     *string         `json:"document" validate:"omitempty,max=64"`
	Status       *string         `json:"status" validate:"omitempty,oneof=active inactive vacation"`
	LastLocation *model.Location `json:"last_location"`
}

// BanRequest is the body of the ban endpoints
type BanRequest struct {
	Reason string `json:"reason" validate:"max=500"`
}

// ListDrivers returns the operator's drivers, optionally filtered by
// ?status= and ?banned=
func (h *Handler) ListDrivers(c echo.Context) error {
	log := logger.FromContext(c)
	o, snap, err := h.operatorFromPath(c)
	if err != nil {
		return fail(c, err)
	}

	status := c.QueryParam("status")
	banned, filterBanned := parseBoolQuery(c, "banned")

	out := []model.Driver{}
	for _, d := range snap.DriversOf(o.ID) {
		if status != "" && string(d.Status) != status {
			continue
		}
		if filterBanned && d.IsBanned != banned {
			continue
		}
		out = append(out, d)
	}

	log.Info("Drivers retrieved successfully",
		zap.String("operator_id", o.ID),
		zap.Int("count", len(out)))
	return c.JSON(http.StatusOK, out)
}

// GetDriver returns one driver of the operator
func (h *Handler) GetDriver(c echo.Context) error {
	o, snap, err := h.operatorFromPath(c)
	if err != nil {
		return fail(c, err)
	}
	id := c.Param("id")
	d, ok := snap.Driver(id)
	if !ok || d.OperatorID != o.ID {
		return fail(c, &membership.NotFoundError{Kind: "driver", ID: id})
	}
	return c.JSON(http.StatusOK, d)
}

// EligibleDrivers returns the drivers the bot may offer services to
func (h *Handler) EligibleDrivers(c echo.Context) error {
	o, snap, err := h.operatorFromPath(c)
	if err != nil {
		return fail(c, err)
	}
	return c.JSON(http.StatusOK, snap.EligibleDrivers(o.ID))
}

// CreateDriver adds a driver to the operator and all of its groups
func (h *Handler) CreateDriver(c echo.Context) error {
	log := logger.FromContext(c)
	operatorID := c.Param("operatorId")
	log.Info("Creating new driver", zap.String("operator_id", operatorID))

	var req CreateDriverRequest
	if err := bindAndValidate(c, &req); err != nil {
		return fail(c, err)
	}

	op := membership.AddDriver{
		OperatorID: operatorID,
		Phone:      req.Phone,
		Name:       req.Name,
		Document:   req.Document,
		Photo:      req.Photo,
	}
	return h.execute(c, op, http.StatusCreated, func(s membership.Snapshot, res membership.Result) interface{} {
		d, _ := s.Driver(res.EntityID)
		return d
	})
}

// UpdateDriver applies a partial update to a driver's profile
func (h *Handler) UpdateDriver(c echo.Context) error {
	var req UpdateDriverRequest
	if err := bindAndValidate(c, &req); err != nil {
		return fail(c, err)
	}

	patch := membership.DriverPatch{
		Name:         req.Name,
		Photo:        req.Photo,
		Document:     req.Document,
		LastLocation: req.LastLocation,
	}
	if req.Status != nil {
		st := model.DriverStatus(*req.Status)
		patch.Status = &st
	}

	op := membership.UpdateDriver{OperatorID: c.Param("operatorId"), DriverID: c.Param("id"), Patch: patch}
	return h.execute(c, op, http.StatusOK, func(s membership.Snapshot, res membership.Result) interface{} {
		d, _ := s.Driver(res.EntityID)
		return d
	})
}

// BanDriver bans a driver and, depending on the operator's rules, evicts it
// from every group
func (h *Handler) BanDriver(c echo.Context) error {
	var req BanRequest
	if err := bindAndValidate(c, &req); err != nil {
		return fail(c, err)
	}

	op := membership.BanDriver{OperatorID: c.Param("operatorId"), DriverID: c.Param("id"), Reason: req.Reason}
	return h.execute(c, op, http.StatusOK, func(s membership.Snapshot, res membership.Result) interface{} {
		d, _ := s.Driver(res.EntityID)
		return d
	})
}

// parseBoolQuery reads a boolean query parameter; ok is false when absent or malformed
func parseBoolQuery(c echo.Context, name string) (value bool, ok bool) {
	raw := c.QueryParam(name)
	if raw == "" {
		return false, false
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		logger.FromContext(c).Warn("Invalid boolean query parameter",
			zap.String("param", name),
			zap.String("value", raw))
		return false, false
	}
	return v, true
}
