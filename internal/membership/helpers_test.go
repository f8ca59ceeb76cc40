package membership

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/TatianaIng96/driverflow-service/internal/model"
)

var testNow = time.Date(2025, 3, 10, 9, 15, 0, 0, time.UTC)

type fixedClock struct{ t time.Time }

func (c fixedClock) Now() time.Time { return c.t }

// seqIDs hands out "<prefix>-1", "<prefix>-2", ... unless a scripted id is queued
type seqIDs struct {
	counters map[string]int
	queued   []string
}

func (g *seqIDs) NewID(prefix string) string {
	if len(g.queued) > 0 {
		id := g.queued[0]
		g.queued = g.queued[1:]
		return id
	}
	g.counters[prefix]++
	return fmt.Sprintf("%s-%d", prefix, g.counters[prefix])
}

func newTestEngine(queued ...string) (*Engine, *seqIDs) {
	ids := &seqIDs{counters: map[string]int{}, queued: queued}
	return NewEngine(WithIDGenerator(ids), WithClock(fixedClock{testNow})), ids
}

func testOperator(id string, maxClients int, autoRemove bool) model.Operator {
	settings := model.DefaultOperatorSettings()
	settings.MaxClientsPerGroup = maxClients
	settings.BotRules.AutoRemoveFromGroupsOnBan = autoRemove
	return model.Operator{
		ID:        id,
		Name:      "Operator " + id,
		Email:     id + "@example.com",
		CreatedAt: testNow,
		IsActive:  true,
		Settings:  settings,
	}
}

// mustApply applies op and fails the test if it did not succeed
func mustApply(t *testing.T, e *Engine, s Snapshot, op Operation) (Snapshot, Result) {
	t.Helper()
	next, res := e.Apply(s, op)
	require.True(t, res.Success, "%s failed: %v", op.Label(), res.Err)
	require.NoError(t, res.Err)
	return next, res
}
