package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/TatianaIng96/driverflow-service/internal/membership"
	"github.com/TatianaIng96/driverflow-service/internal/model"
)

// ListBanned returns the operator's ban records, optionally filtered by ?type=driver|client
func (h *Handler) ListBanned(c echo.Context) error {
	o, snap, err := h.operatorFromPath(c)
	if err != nil {
		return fail(c, err)
	}
	kind := model.EntityType(c.QueryParam("type"))

	out := []model.BannedNumber{}
	for _, b := range snap.BannedOf(o.ID) {
		if kind != "" && b.Type != kind {
			continue
		}
		out = append(out, b)
	}
	return c.JSON(http.StatusOK, out)
}

// Unban removes a ban record and clears the entity's banned flag. Lost group
// memberships are not restored.
func (h *Handler) Unban(c echo.Context) error {
	op := membership.Unban{OperatorID: c.Param("operatorId"), BannedNumberID: c.Param("id")}
	return h.execute(c, op, http.StatusOK, nil)
}
