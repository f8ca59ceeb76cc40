package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/TatianaIng96/driverflow-service/internal/membership"
	"github.com/TatianaIng96/driverflow-service/internal/model"
)

// GroupDetail is a group with its members expanded
type GroupDetail struct {
	model.Group
	Drivers   []model.Driver `json:"drivers"`
	Clients   []model.Client `json:"clients"`
	Capacity  int            `json:"capacity"`
	Available int            `json:"available"`
}

func groupDetail(s membership.Snapshot, o model.Operator, g model.Group) GroupDetail {
	d := GroupDetail{
		Group:    g,
		Drivers:  make([]model.Driver, 0, len(g.DriverIDs)),
		Clients:  make([]model.Client, 0, len(g.ClientIDs)),
		Capacity: o.Settings.MaxClientsPerGroup,
	}
	for _, id := range g.DriverIDs {
		if dr, ok := s.Driver(id); ok {
			d.Drivers = append(d.Drivers, dr)
		}
	}
	for _, id := range g.ClientIDs {
		if cl, ok := s.Client(id); ok {
			d.Clients = append(d.Clients, cl)
		}
	}
	d.Available = max(d.Capacity-len(g.ClientIDs), 0)
	return d
}

// ListGroups returns the operator's groups in sequence order
func (h *Handler) ListGroups(c echo.Context) error {
	o, snap, err := h.operatorFromPath(c)
	if err != nil {
		return fail(c, err)
	}
	out := []GroupDetail{}
	for _, g := range snap.GroupsOf(o.ID) {
		out = append(out, groupDetail(snap, o, g))
	}
	return c.JSON(http.StatusOK, out)
}

// GetGroup returns one group with its members
func (h *Handler) GetGroup(c echo.Context) error {
	o, snap, err := h.operatorFromPath(c)
	if err != nil {
		return fail(c, err)
	}
	id := c.Param("id")
	g, ok := snap.Group(id)
	if !ok || g.OperatorID != o.ID {
		return fail(c, &membership.NotFoundError{Kind: "group", ID: id})
	}
	return c.JSON(http.StatusOK, groupDetail(snap, o, g))
}

// RemoveDriverFromGroup drops one driver from one group
func (h *Handler) RemoveDriverFromGroup(c echo.Context) error {
	op := membership.RemoveDriverFromGroup{
		OperatorID: c.Param("operatorId"),
		GroupID:    c.Param("id"),
		DriverID:   c.Param("driverId"),
	}
	return h.execute(c, op, http.StatusOK, h.groupPayload)
}

// RemoveClientFromGroup drops one client from its group, leaving it unassigned
func (h *Handler) RemoveClientFromGroup(c echo.Context) error {
	op := membership.RemoveClientFromGroup{
		OperatorID: c.Param("operatorId"),
		GroupID:    c.Param("id"),
		ClientID:   c.Param("clientId"),
	}
	return h.execute(c, op, http.StatusOK, h.groupPayload)
}

func (h *Handler) groupPayload(s membership.Snapshot, res membership.Result) interface{} {
	g, _ := s.Group(res.GroupID)
	o, _ := s.Operator(g.OperatorID)
	return groupDetail(s, o, g)
}
