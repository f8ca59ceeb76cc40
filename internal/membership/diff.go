package membership

import (
	"reflect"
	"slices"

	"github.com/TatianaIng96/driverflow-service/internal/model"
)

// Membership is one (group, member) row
type Membership struct {
	GroupID  string
	MemberID string
}

// Changes is everything a store needs to write to move from one snapshot to the
// next. Added memberships are listed in group order so that insertion order
// reproduces the member lists.
type Changes struct {
	Operators     []model.Operator
	Drivers       []model.Driver
	Clients       []model.Client
	Groups        []model.Group
	BannedNumbers []model.BannedNumber
	UnbannedIDs   []string

	AddedDrivers   []Membership
	RemovedDrivers []Membership
	AddedClients   []Membership
	RemovedClients []Membership
}

// Empty reports whether there is nothing to write
func (c Changes) Empty() bool {
	return len(c.Operators) == 0 && len(c.Drivers) == 0 && len(c.Clients) == 0 &&
		len(c.Groups) == 0 && len(c.BannedNumbers) == 0 && len(c.UnbannedIDs) == 0 &&
		len(c.AddedDrivers) == 0 && len(c.RemovedDrivers) == 0 &&
		len(c.AddedClients) == 0 && len(c.RemovedClients) == 0
}

// Diff compares two snapshots. Operators, drivers, clients and groups are
// never deleted by the engine, so only ban records and memberships can disappear.
func Diff(before, after Snapshot) Changes {
	var c Changes
	c.Operators = changed(before.Operators, after.Operators, func(o model.Operator) string { return o.ID })
	c.Drivers = changed(before.Drivers, after.Drivers, func(d model.Driver) string { return d.ID })
	c.Clients = changed(before.Clients, after.Clients, func(cl model.Client) string { return cl.ID })
	c.BannedNumbers = changed(before.BannedNumbers, after.BannedNumbers, func(b model.BannedNumber) string { return b.ID })

	kept := map[string]bool{}
	for _, b := range after.BannedNumbers {
		kept[b.ID] = true
	}
	for _, b := range before.BannedNumbers {
		if !kept[b.ID] {
			c.UnbannedIDs = append(c.UnbannedIDs, b.ID)
		}
	}

	old := map[string]model.Group{}
	for _, g := range before.Groups {
		old[g.ID] = g
	}
	for _, g := range after.Groups {
		prev, existed := old[g.ID]
		if !existed || !sameGroupHeader(prev, g) {
			c.Groups = append(c.Groups, g)
		}
		added, removed := memberDiff(g.ID, prev.DriverIDs, g.DriverIDs)
		c.AddedDrivers = append(c.AddedDrivers, added...)
		c.RemovedDrivers = append(c.RemovedDrivers, removed...)
		added, removed = memberDiff(g.ID, prev.ClientIDs, g.ClientIDs)
		c.AddedClients = append(c.AddedClients, added...)
		c.RemovedClients = append(c.RemovedClients, removed...)
	}
	return c
}

func changed[T any](before, after []T, key func(T) string) []T {
	old := make(map[string]T, len(before))
	for _, v := range before {
		old[key(v)] = v
	}
	var out []T
	for _, v := range after {
		prev, ok := old[key(v)]
		if !ok || !reflect.DeepEqual(prev, v) {
			out = append(out, v)
		}
	}
	return out
}

func sameGroupHeader(a, b model.Group) bool {
	return a.Name == b.Name && a.OperatorID == b.OperatorID && a.SequenceNumber == b.SequenceNumber &&
		a.Photo == b.Photo && a.CreatedAt.Equal(b.CreatedAt)
}

func memberDiff(groupID string, before, after []string) (added, removed []Membership) {
	for _, id := range after {
		if !slices.Contains(before, id) {
			added = append(added, Membership{GroupID: groupID, MemberID: id})
		}
	}
	for _, id := range before {
		if !slices.Contains(after, id) {
			removed = append(removed, Membership{GroupID: groupID, MemberID: id})
		}
	}
	return added, removed
}
