package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/TatianaIng96/driverflow-service/internal/membership"
	"github.com/TatianaIng96/driverflow-service/internal/model"
	"github.com/TatianaIng96/driverflow-service/pkg/logger"
)

// CreateClientRequest is the body of POST /clients
type CreateClientRequest struct {
	Name  string `json:"name" validate:"required,max=255"`
	Phone string `json:"phone" validate:"required,phone"`
}

// ClientView is a client with its resolved group
type ClientView struct {
	model.Client
	GroupID            string `json:"group_id,omitempty"`
	GroupName          string `json:"group_name,omitempty"`
	MayRequestServices bool   `json:"may_request_services"`
}

func clientView(s membership.Snapshot, cl model.Client) ClientView {
	v := ClientView{Client: cl, MayRequestServices: s.ClientMayRequestService(cl.ID)}
	if g, ok := s.GroupOfClient(cl.ID); ok {
		v.GroupID, v.GroupName = g.ID, g.Name
	}
	return v
}

// ListClients returns the operator's clients, optionally filtered by
// ?banned= and ?unassigned=
func (h *Handler) ListClients(c echo.Context) error {
	log := logger.FromContext(c)
	o, snap, err := h.operatorFromPath(c)
	if err != nil {
		return fail(c, err)
	}

	banned, filterBanned := parseBoolQuery(c, "banned")
	unassigned, filterUnassigned := parseBoolQuery(c, "unassigned")

	out := []ClientView{}
	for _, cl := range snap.ClientsOf(o.ID) {
		v := clientView(snap, cl)
		if filterBanned && cl.IsBanned != banned {
			continue
		}
		if filterUnassigned && (v.GroupID == "") != unassigned {
			continue
		}
		out = append(out, v)
	}

	log.Info("Clients retrieved successfully",
		zap.String("operator_id", o.ID),
		zap.Int("count", len(out)))
	return c.JSON(http.StatusOK, out)
}

// GetClient returns one client of the operator
func (h *Handler) GetClient(c echo.Context) error {
	o, snap, err := h.operatorFromPath(c)
	if err != nil {
		return fail(c, err)
	}
	id := c.Param("id")
	cl, ok := snap.Client(id)
	if !ok || cl.OperatorID != o.ID {
		return fail(c, &membership.NotFoundError{Kind: "client", ID: id})
	}
	return c.JSON(http.StatusOK, clientView(snap, cl))
}

// CreateClient adds a client, placing it in the first group with room or in
// a newly created one
func (h *Handler) CreateClient(c echo.Context) error {
	log := logger.FromContext(c)
	operatorID := c.Param("operatorId")
	log.Info("Creating new client", zap.String("operator_id", operatorID))

	var req CreateClientRequest
	if err := bindAndValidate(c, &req); err != nil {
		return fail(c, err)
	}

	op := membership.AddClient{OperatorID: operatorID, Phone: req.Phone, Name: req.Name}
	return h.execute(c, op, http.StatusCreated, func(s membership.Snapshot, res membership.Result) interface{} {
		cl, _ := s.Client(res.EntityID)
		g, _ := s.Group(res.GroupID)
		return echo.Map{
			"client":        clientView(s, cl),
			"group":         g,
			"group_created": res.GroupCreated,
		}
	})
}

// BanClient bans a client and removes it from its group
func (h *Handler) BanClient(c echo.Context) error {
	var req BanRequest
	if err := bindAndValidate(c, &req); err != nil {
		return fail(c, err)
	}

	op := membership.BanClient{OperatorID: c.Param("operatorId"), ClientID: c.Param("id"), Reason: req.Reason}
	return h.execute(c, op, http.StatusOK, func(s membership.Snapshot, res membership.Result) interface{} {
		cl, _ := s.Client(res.EntityID)
		return clientView(s, cl)
	})
}
