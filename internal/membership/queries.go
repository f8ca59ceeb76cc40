package membership

import "github.com/TatianaIng96/driverflow-service/internal/model"

// OperatorStats summarises one operator for its dashboard
type OperatorStats struct {
	OperatorID        string                     `json:"operator_id"`
	Drivers           int                        `json:"drivers"`
	DriversByStatus   map[model.DriverStatus]int `json:"drivers_by_status"`
	BannedDrivers     int                        `json:"banned_drivers"`
	Clients           int                        `json:"clients"`
	UnassignedClients int                        `json:"unassigned_clients"`
	BannedClients     int                        `json:"banned_clients"`
	Groups            int                        `json:"groups"`
	GroupCapacity     int                        `json:"group_capacity"`
	Occupancy         float64                    `json:"occupancy"`
}

// OperatorStats computes dashboard counters for operatorID
func (s Snapshot) OperatorStats(operatorID string) (OperatorStats, bool) {
	operator, ok := s.Operator(operatorID)
	if !ok {
		return OperatorStats{}, false
	}
	st := OperatorStats{
		OperatorID:      operatorID,
		DriversByStatus: map[model.DriverStatus]int{},
	}
	for _, d := range s.DriversOf(operatorID) {
		st.Drivers++
		st.DriversByStatus[d.Status]++
		if d.IsBanned {
			st.BannedDrivers++
		}
	}

	assigned := map[string]bool{}
	placed := 0
	for _, g := range s.GroupsOf(operatorID) {
		st.Groups++
		placed += len(g.ClientIDs)
		for _, id := range g.ClientIDs {
			assigned[id] = true
		}
	}
	for _, c := range s.ClientsOf(operatorID) {
		st.Clients++
		if c.IsBanned {
			st.BannedClients++
		}
		if !assigned[c.ID] {
			st.UnassignedClients++
		}
	}

	st.GroupCapacity = st.Groups * operator.Settings.MaxClientsPerGroup
	if st.GroupCapacity > 0 {
		st.Occupancy = float64(placed) / float64(st.GroupCapacity)
	}
	return st, true
}

// PlatformStats is the super-admin overview across every operator
type PlatformStats struct {
	Operators       int `json:"operators"`
	ActiveOperators int `json:"active_operators"`
	Drivers         int `json:"drivers"`
	Clients         int `json:"clients"`
	Groups          int `json:"groups"`
	BannedNumbers   int `json:"banned_numbers"`
	ConnectedBots   int `json:"connected_bots"`
}

// PlatformStats counts every collection
func (s Snapshot) PlatformStats() PlatformStats {
	st := PlatformStats{
		Operators:     len(s.Operators),
		Drivers:       len(s.Drivers),
		Clients:       len(s.Clients),
		Groups:        len(s.Groups),
		BannedNumbers: len(s.BannedNumbers),
	}
	for _, o := range s.Operators {
		if o.IsActive {
			st.ActiveOperators++
		}
		if o.WhatsAppConnection != nil && o.WhatsAppConnection.IsConnected {
			st.ConnectedBots++
		}
	}
	return st
}

// EligibleDrivers lists the drivers of an operator allowed to take services
// under its bot rules
func (s Snapshot) EligibleDrivers(operatorID string) []model.Driver {
	operator, ok := s.Operator(operatorID)
	if !ok {
		return []model.Driver{}
	}
	rules := operator.Settings.BotRules
	out := []model.Driver{}
	for _, d := range s.DriversOf(operatorID) {
		if rules.BlockBannedInteraction && d.IsBanned {
			continue
		}
		if rules.OnlyActiveDriversCanTakeServices && d.Status != model.DriverActive {
			continue
		}
		out = append(out, d)
	}
	return out
}

// ClientMayRequestService reports whether a client can ask for a service
func (s Snapshot) ClientMayRequestService(clientID string) bool {
	client, ok := s.Client(clientID)
	if !ok {
		return false
	}
	operator, ok := s.Operator(client.OperatorID)
	if !ok || !operator.IsActive {
		return false
	}
	if client.IsBanned && operator.Settings.BotRules.BlockServicesForBannedClients {
		return false
	}
	return true
}
