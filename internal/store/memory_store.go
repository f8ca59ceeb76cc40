package store

import (
	"context"
	"slices"
	"sync"

	"github.com/TatianaIng96/driverflow-service/internal/membership"
	"github.com/TatianaIng96/driverflow-service/internal/model"
)

// MemoryStore keeps the persisted state in process. It replays Changes the
// same way GormStore writes them, which makes it usable both as a dev backend
// and as a reference in tests.
type MemoryStore struct {
	mu   sync.Mutex
	snap membership.Snapshot
}

// NewMemoryStore starts from seed, which may be the zero Snapshot
func NewMemoryStore(seed membership.Snapshot) *MemoryStore {
	return &MemoryStore{snap: seed.Clone()}
}

// Load returns a copy of the stored state
func (m *MemoryStore) Load(context.Context) (membership.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snap.Clone(), nil
}

// Apply replays c onto the stored state
func (m *MemoryStore) Apply(_ context.Context, c membership.Changes) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := &m.snap
	s.Operators = upsertByID(s.Operators, c.Operators, func(o model.Operator) string { return o.ID })
	s.Drivers = upsertByID(s.Drivers, c.Drivers, func(d model.Driver) string { return d.ID })
	s.Clients = upsertByID(s.Clients, c.Clients, func(cl model.Client) string { return cl.ID })

	for _, g := range c.Groups {
		i := slices.IndexFunc(s.Groups, func(x model.Group) bool { return x.ID == g.ID })
		if i >= 0 {
			g.DriverIDs, g.ClientIDs = s.Groups[i].DriverIDs, s.Groups[i].ClientIDs
			s.Groups[i] = g
			continue
		}
		g.DriverIDs, g.ClientIDs = []string{}, []string{}
		s.Groups = append(s.Groups, g)
	}

	s.BannedNumbers = slices.DeleteFunc(s.BannedNumbers, func(b model.BannedNumber) bool {
		return slices.Contains(c.UnbannedIDs, b.ID)
	})
	s.BannedNumbers = upsertByID(s.BannedNumbers, c.BannedNumbers, func(b model.BannedNumber) string { return b.ID })

	for i := range s.Groups {
		g := &s.Groups[i]
		for _, r := range c.RemovedDrivers {
			if r.GroupID == g.ID {
				g.DriverIDs = slices.DeleteFunc(g.DriverIDs, func(id string) bool { return id == r.MemberID })
			}
		}
		for _, r := range c.RemovedClients {
			if r.GroupID == g.ID {
				g.ClientIDs = slices.DeleteFunc(g.ClientIDs, func(id string) bool { return id == r.MemberID })
			}
		}
		for _, a := range c.AddedDrivers {
			if a.GroupID == g.ID {
				g.DriverIDs = append(g.DriverIDs, a.MemberID)
			}
		}
		for _, a := range c.AddedClients {
			if a.GroupID == g.ID {
				g.ClientIDs = append(g.ClientIDs, a.MemberID)
			}
		}
	}
	return nil
}

func upsertByID[T any](list, changed []T, key func(T) string) []T {
	for _, v := range changed {
		i := slices.IndexFunc(list, func(x T) bool { return key(x) == key(v) })
		if i >= 0 {
			list[i] = v
		} else {
			list = append(list, v)
		}
	}
	return list
}
