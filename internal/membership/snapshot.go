package membership

import (
	"slices"

	"github.com/TatianaIng96/driverflow-service/internal/model"
)

// Snapshot is the full state of the platform: five collections, each kept in
// insertion order. Engine operations never modify a Snapshot in place.
type Snapshot struct {
	Operators     []model.Operator     `json:"operators"`
	Drivers       []model.Driver       `json:"drivers"`
	Clients       []model.Client       `json:"clients"`
	Groups        []model.Group        `json:"groups"`
	BannedNumbers []model.BannedNumber `json:"banned_numbers"`
}

// Clone returns a deep copy that shares no slices or pointers with s
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		Operators:     slices.Clone(s.Operators),
		Drivers:       slices.Clone(s.Drivers),
		Clients:       slices.Clone(s.Clients),
		Groups:        make([]model.Group, len(s.Groups)),
		BannedNumbers: slices.Clone(s.BannedNumbers),
	}
	for i := range out.Operators {
		if conn := out.Operators[i].WhatsAppConnection; conn != nil {
			c := *conn
			if conn.ConnectedAt != nil {
				at := *conn.ConnectedAt
				c.ConnectedAt = &at
			}
			out.Operators[i].WhatsAppConnection = &c
		}
	}
	for i := range out.Drivers {
		if loc := out.Drivers[i].LastLocation; loc != nil {
			l := *loc
			out.Drivers[i].LastLocation = &l
		}
	}
	for i, g := range s.Groups {
		g.DriverIDs = slices.Clone(g.DriverIDs)
		g.ClientIDs = slices.Clone(g.ClientIDs)
		out.Groups[i] = g
	}
	return out
}

// Operator returns the operator with the given id
func (s Snapshot) Operator(id string) (model.Operator, bool) {
	if o := s.operator(id); o != nil {
		return *o, true
	}
	return model.Operator{}, false
}

// Driver returns the driver with the given id
func (s Snapshot) Driver(id string) (model.Driver, bool) {
	if d := s.driver(id); d != nil {
		return *d, true
	}
	return model.Driver{}, false
}

// Client returns the client with the given id
func (s Snapshot) Client(id string) (model.Client, bool) {
	if c := s.client(id); c != nil {
		return *c, true
	}
	return model.Client{}, false
}

// Group returns the group with the given id
func (s Snapshot) Group(id string) (model.Group, bool) {
	if g := s.group(id); g != nil {
		return *g, true
	}
	return model.Group{}, false
}

// BannedNumber returns the ban record with the given id
func (s Snapshot) BannedNumber(id string) (model.BannedNumber, bool) {
	for _, b := range s.BannedNumbers {
		if b.ID == id {
			return b, true
		}
	}
	return model.BannedNumber{}, false
}

// GroupOfClient resolves the single group a client occupies, if any
func (s Snapshot) GroupOfClient(clientID string) (model.Group, bool) {
	for _, g := range s.Groups {
		if slices.Contains(g.ClientIDs, clientID) {
			return g, true
		}
	}
	return model.Group{}, false
}

// DriversOf lists the drivers of an operator in insertion order
func (s Snapshot) DriversOf(operatorID string) []model.Driver {
	out := []model.Driver{}
	for _, d := range s.Drivers {
		if d.OperatorID == operatorID {
			out = append(out, d)
		}
	}
	return out
}

// ClientsOf lists the clients of an operator in insertion order
func (s Snapshot) ClientsOf(operatorID string) []model.Client {
	out := []model.Client{}
	for _, c := range s.Clients {
		if c.OperatorID == operatorID {
			out = append(out, c)
		}
	}
	return out
}

// GroupsOf lists the groups of an operator in creation order
func (s Snapshot) GroupsOf(operatorID string) []model.Group {
	out := []model.Group{}
	for _, g := range s.Groups {
		if g.OperatorID == operatorID {
			out = append(out, g)
		}
	}
	return out
}

// BannedOf lists the active bans of an operator
func (s Snapshot) BannedOf(operatorID string) []model.BannedNumber {
	out := []model.BannedNumber{}
	for _, b := range s.BannedNumbers {
		if b.OperatorID == operatorID {
			out = append(out, b)
		}
	}
	return out
}

func (s *Snapshot) operator(id string) *model.Operator {
	for i := range s.Operators {
		if s.Operators[i].ID == id {
			return &s.Operators[i]
		}
	}
	return nil
}

func (s *Snapshot) driver(id string) *model.Driver {
	for i := range s.Drivers {
		if s.Drivers[i].ID == id {
			return &s.Drivers[i]
		}
	}
	return nil
}

func (s *Snapshot) client(id string) *model.Client {
	for i := range s.Clients {
		if s.Clients[i].ID == id {
			return &s.Clients[i]
		}
	}
	return nil
}

func (s *Snapshot) group(id string) *model.Group {
	for i := range s.Groups {
		if s.Groups[i].ID == id {
			return &s.Groups[i]
		}
	}
	return nil
}

func (s *Snapshot) driverByPhone(phone string) *model.Driver {
	for i := range s.Drivers {
		if s.Drivers[i].Phone == phone {
			return &s.Drivers[i]
		}
	}
	return nil
}

func (s *Snapshot) clientByPhone(phone string) *model.Client {
	for i := range s.Clients {
		if s.Clients[i].Phone == phone {
			return &s.Clients[i]
		}
	}
	return nil
}

// operatorGroups returns pointers into s.Groups, preserving order
func (s *Snapshot) operatorGroups(operatorID string) []*model.Group {
	var out []*model.Group
	for i := range s.Groups {
		if s.Groups[i].OperatorID == operatorID {
			out = append(out, &s.Groups[i])
		}
	}
	return out
}

func removeID(ids []string, id string) ([]string, bool) {
	i := slices.Index(ids, id)
	if i < 0 {
		return ids, false
	}
	return slices.Delete(ids, i, i+1), true
}
