package store

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/TatianaIng96/driverflow-service/internal/membership"
	"github.com/TatianaIng96/driverflow-service/internal/model"
)

var testNow = time.Date(2025, 3, 10, 9, 15, 0, 0, time.UTC)

type fixedClock struct{}

func (fixedClock) Now() time.Time { return testNow }

type seqIDs map[string]int

func (s seqIDs) NewID(prefix string) string {
	s[prefix]++
	return fmt.Sprintf("%s-%d", prefix, s[prefix])
}

func setupSQLite(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every connection would get its own :memory: database
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(Models()...))
	return db
}

// canonical renders a snapshot so that nil and empty collections compare equal
func canonical(t *testing.T, s membership.Snapshot) string {
	t.Helper()
	if s.Operators == nil {
		s.Operators = []model.Operator{}
	}
	if s.Drivers == nil {
		s.Drivers = []model.Driver{}
	}
	if s.Clients == nil {
		s.Clients = []model.Client{}
	}
	if s.Groups == nil {
		s.Groups = []model.Group{}
	}
	if s.BannedNumbers == nil {
		s.BannedNumbers = []model.BannedNumber{}
	}
	b, err := json.Marshal(s)
	require.NoError(t, err)
	return string(b)
}

func runScenario(t *testing.T, stores ...Store) membership.Snapshot {
	t.Helper()
	ctx := context.Background()
	e := membership.NewEngine(membership.WithIDGenerator(seqIDs{}), membership.WithClock(fixedClock{}))

	two := 2
	connectedAt := testNow.Add(time.Minute)
	steps := []membership.Operation{
		membership.EnsureOperator{ID: "op1", Name: "Transportes Norte", Email: "norte@example.com"},
		membership.EnsureOperator{ID: "op2", Name: "Taxi Sur", Email: "sur@example.com"},
		membership.UpdateOperatorSettings{OperatorID: "op1", Patch: membership.SettingsPatch{MaxClientsPerGroup: &two}},
		membership.AddDriver{OperatorID: "op1", Phone: "+5730000001", Name: "Luis", Document: "CC1"},
		membership.AddDriver{OperatorID: "op1", Phone: "+5730000002", Name: "Marta", Document: "CC2"},
		membership.AddClient{OperatorID: "op1", Phone: "+5731000001", Name: "A"},
		membership.AddClient{OperatorID: "op1", Phone: "+5731000002", Name: "B"},
		membership.AddClient{OperatorID: "op1", Phone: "+5731000003", Name: "C"},
		membership.AddDriver{OperatorID: "op1", Phone: "+5730000003", Name: "Pedro", Document: "CC3"},
		membership.BanDriver{DriverID: "d-1", Reason: "no-show"},
		membership.BanClient{ClientID: "c-1", Reason: "abuse"},
		membership.AddClient{OperatorID: "op1", Phone: "+5731000004", Name: "D"},
		membership.Unban{BannedNumberID: "ban-1"},
		membership.RemoveDriverFromGroup{GroupID: "g-2", DriverID: "d-3"},
		membership.UpdateDriver{DriverID: "d-2", Patch: membership.DriverPatch{LastLocation: &model.Location{Lat: 4.71, Lng: -74.07}}},
		membership.UpdateWhatsAppConnection{OperatorID: "op2", Connection: model.WhatsAppConnection{
			IsConnected: true, ConnectedAt: &connectedAt, PhoneNumber: "+5732000000", Status: model.ConnectionConnected,
		}},
	}

	snap := membership.Snapshot{}
	for _, op := range steps {
		next, res := e.Apply(snap, op)
		require.True(t, res.Success, "%s: %s", res.Operation, res.Message)
		changes := membership.Diff(snap, next)
		for _, s := range stores {
			require.NoError(t, s.Apply(ctx, changes), res.Operation)
		}
		snap = next
	}
	return snap
}

func TestGormStoreRoundTrip(t *testing.T) {
	db := setupSQLite(t)
	s := NewGormStore(db, zap.NewNop())

	want := runScenario(t, s)
	got, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Equal(t, canonical(t, want), canonical(t, got))

	g, ok := got.Group("g-1")
	require.True(t, ok)
	assert.Equal(t, []string{"d-2", "d-3"}, g.DriverIDs)
	assert.Equal(t, []string{"c-2", "c-4"}, g.ClientIDs)

	var banned int64
	db.Model(&BannedNumberRecord{}).Count(&banned)
	assert.Equal(t, int64(1), banned)
}

func TestMemoryStoreMatchesGormStore(t *testing.T) {
	mem := NewMemoryStore(membership.Snapshot{})
	gs := NewGormStore(setupSQLite(t), zap.NewNop())

	want := runScenario(t, mem, gs)

	fromMem, err := mem.Load(context.Background())
	require.NoError(t, err)
	fromDB, err := gs.Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, canonical(t, want), canonical(t, fromMem))
	assert.Equal(t, canonical(t, fromMem), canonical(t, fromDB))
}

func TestApplyRollsBackOnFailure(t *testing.T) {
	db := setupSQLite(t)
	s := NewGormStore(db, zap.NewNop())
	ctx := context.Background()

	require.NoError(t, s.Apply(ctx, membership.Changes{
		Groups:       []model.Group{{ID: "g-1", OperatorID: "op1", SequenceNumber: 1, Name: "Grupo 1", CreatedAt: testNow}},
		AddedClients: []membership.Membership{{GroupID: "g-1", MemberID: "c-1"}},
	}))

	err := s.Apply(ctx, membership.Changes{
		Operators:    []model.Operator{{ID: "op9", Name: "Late", CreatedAt: testNow, Settings: model.DefaultOperatorSettings()}},
		AddedClients: []membership.Membership{{GroupID: "g-2", MemberID: "c-1"}},
	})
	require.Error(t, err, "a client can only sit in one group")

	var operators int64
	db.Model(&OperatorRecord{}).Count(&operators)
	assert.Zero(t, operators)
}

func TestApplyEmptyChangesIsNoop(t *testing.T) {
	s := NewGormStore(setupSQLite(t), zap.NewNop())
	assert.NoError(t, s.Apply(context.Background(), membership.Changes{}))

	snap, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, snap.Operators)
}

func TestSettingsAndConnectionSurviveReload(t *testing.T) {
	s := NewGormStore(setupSQLite(t), zap.NewNop())
	ctx := context.Background()

	op := model.Operator{ID: "op1", Name: "N", CreatedAt: testNow, IsActive: false, Settings: model.DefaultOperatorSettings()}
	op.Settings.BotRules.AutoRemoveFromGroupsOnBan = false
	require.NoError(t, s.Apply(ctx, membership.Changes{Operators: []model.Operator{op}}))

	snap, err := s.Load(ctx)
	require.NoError(t, err)
	got, ok := snap.Operator("op1")
	require.True(t, ok)
	assert.False(t, got.IsActive)
	assert.False(t, got.Settings.BotRules.AutoRemoveFromGroupsOnBan)
	assert.True(t, got.Settings.BotRules.BlockBannedInteraction)
	assert.Nil(t, got.WhatsAppConnection)
}
