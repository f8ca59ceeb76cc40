package membership

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TatianaIng96/driverflow-service/internal/model"
)

func TestEndToEndScenario(t *testing.T) {
	e, ids := newTestEngine()
	s := Snapshot{Operators: []model.Operator{testOperator("op1", 2, true)}}

	ids.queued = []string{"c-A", "g-1"}
	s, res := mustApply(t, e, s, AddClient{OperatorID: "op1", Phone: "+1", Name: "A"})
	assert.True(t, res.GroupCreated)
	require.Len(t, s.Groups, 1)
	assert.Equal(t, "Grupo_1", s.Groups[0].Name)
	assert.Equal(t, []string{"c-A"}, s.Groups[0].ClientIDs)

	ids.queued = []string{"c-B"}
	s, res = mustApply(t, e, s, AddClient{OperatorID: "op1", Phone: "+2", Name: "B"})
	assert.False(t, res.GroupCreated)
	assert.Equal(t, "g-1", res.GroupID)
	assert.Equal(t, []string{"c-A", "c-B"}, s.Groups[0].ClientIDs)

	ids.queued = []string{"c-C", "g-2"}
	s, res = mustApply(t, e, s, AddClient{OperatorID: "op1", Phone: "+3", Name: "C"})
	assert.True(t, res.GroupCreated)
	require.Len(t, s.Groups, 2)
	assert.Equal(t, "Grupo_2", s.Groups[1].Name)
	assert.Equal(t, 2, s.Groups[1].SequenceNumber)
	assert.Equal(t, []string{"c-C"}, s.Groups[1].ClientIDs)

	s, _ = mustApply(t, e, s, BanClient{ClientID: "c-A", Reason: "spam"})
	assert.Equal(t, []string{"c-B"}, s.Groups[0].ClientIDs)
	_, inGroup := s.GroupOfClient("c-A")
	assert.False(t, inGroup)
	a, _ := s.Client("c-A")
	assert.True(t, a.IsBanned)
	require.Len(t, s.BannedNumbers, 1)
	assert.Equal(t, model.EntityClient, s.BannedNumbers[0].Type)
	assert.Equal(t, "c-A", s.BannedNumbers[0].EntityID)
	assert.Equal(t, "+1", s.BannedNumbers[0].Phone)
	assert.Equal(t, "spam", s.BannedNumbers[0].Reason)
	assert.Equal(t, "op1", s.BannedNumbers[0].OperatorID)
}

func TestPhoneUniqueness(t *testing.T) {
	e, _ := newTestEngine()
	s := Snapshot{Operators: []model.Operator{testOperator("op1", 30, true), testOperator("op2", 30, true)}}

	s, _ = mustApply(t, e, s, AddDriver{OperatorID: "op1", Phone: "+100", Name: "Driver"})
	s, _ = mustApply(t, e, s, AddClient{OperatorID: "op1", Phone: "+200", Name: "Client"})

	cases := []struct {
		name     string
		op       Operation
		existing model.EntityType
	}{
		{"driver vs driver", AddDriver{OperatorID: "op1", Phone: "+100", Name: "X"}, model.EntityDriver},
		{"driver vs client", AddDriver{OperatorID: "op1", Phone: "+200", Name: "X"}, model.EntityClient},
		{"client vs client", AddClient{OperatorID: "op1", Phone: "+200", Name: "X"}, model.EntityClient},
		{"client vs driver", AddClient{OperatorID: "op1", Phone: "+100", Name: "X"}, model.EntityDriver},
		{"cross operator", AddDriver{OperatorID: "op2", Phone: "+100", Name: "X"}, model.EntityDriver},
		{"surrounding spaces", AddClient{OperatorID: "op2", Phone: " +200 ", Name: "X"}, model.EntityClient},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			next, res := e.Apply(s, tc.op)
			assert.False(t, res.Success)
			assert.ErrorIs(t, res.Err, ErrDuplicatePhone)
			var dup *DuplicatePhoneError
			require.ErrorAs(t, res.Err, &dup)
			assert.Equal(t, tc.existing, dup.Existing)
			assert.Equal(t, s, next, "failed operation must not change the snapshot")
		})
	}
}

func TestDuplicateClientNamesItsGroup(t *testing.T) {
	e, _ := newTestEngine()
	s := Snapshot{Operators: []model.Operator{testOperator("op1", 30, false)}}
	s, _ = mustApply(t, e, s, AddClient{OperatorID: "op1", Phone: "+1", Name: "A"})

	_, res := e.Apply(s, AddClient{OperatorID: "op1", Phone: "+1", Name: "again"})
	assert.Contains(t, res.Message, "Grupo_1")

	s, _ = mustApply(t, e, s, RemoveClientFromGroup{GroupID: "g-1", ClientID: "c-1"})
	_, res = e.Apply(s, AddClient{OperatorID: "op1", Phone: "+1", Name: "again"})
	assert.Contains(t, res.Message, "unknown")
}

func TestAddDriverBackfillsOnlyOwnOperatorGroups(t *testing.T) {
	e, _ := newTestEngine()
	s := Snapshot{Operators: []model.Operator{testOperator("op1", 1, true), testOperator("op2", 1, true)}}
	s, _ = mustApply(t, e, s, AddClient{OperatorID: "op1", Phone: "+1", Name: "A"})
	s, _ = mustApply(t, e, s, AddClient{OperatorID: "op1", Phone: "+2", Name: "B"})
	s, _ = mustApply(t, e, s, AddClient{OperatorID: "op2", Phone: "+3", Name: "C"})
	require.Len(t, s.Groups, 3)
	other := s.GroupsOf("op2")[0]

	s, res := mustApply(t, e, s, AddDriver{OperatorID: "op1", Phone: "+9", Name: "D", Document: "CC 123"})
	assert.Equal(t, "d-1", res.EntityID)
	for _, g := range s.GroupsOf("op1") {
		assert.Equal(t, []string{"d-1"}, g.DriverIDs, g.Name)
	}
	assert.Equal(t, other, s.GroupsOf("op2")[0])

	d, ok := s.Driver("d-1")
	require.True(t, ok)
	assert.Equal(t, model.DriverActive, d.Status)
	assert.False(t, d.IsBanned)
	assert.Equal(t, model.DefaultDriverPhoto, d.Photo)
	assert.Equal(t, testNow, d.AddedAt)
}

func TestAddDriverUnknownOperator(t *testing.T) {
	e, _ := newTestEngine()
	next, res := e.Apply(Snapshot{}, AddDriver{OperatorID: "ghost", Phone: "+1", Name: "D"})
	assert.ErrorIs(t, res.Err, ErrOperatorNotFound)
	assert.Empty(t, next.Drivers)
}

func TestAddClientUnknownOperator(t *testing.T) {
	e, _ := newTestEngine()
	next, res := e.Apply(Snapshot{}, AddClient{OperatorID: "ghost", Phone: "+1", Name: "C"})
	assert.ErrorIs(t, res.Err, ErrOperatorNotFound)
	assert.Empty(t, next.Clients)
	assert.Empty(t, next.Groups)
}

func TestAddRequiresNameAndPhone(t *testing.T) {
	e, _ := newTestEngine()
	s := Snapshot{Operators: []model.Operator{testOperator("op1", 30, true)}}
	_, res := e.Apply(s, AddDriver{OperatorID: "op1", Phone: "  ", Name: "D"})
	assert.ErrorIs(t, res.Err, ErrInvalidInput)
	_, res = e.Apply(s, AddClient{OperatorID: "op1", Phone: "+1"})
	assert.ErrorIs(t, res.Err, ErrInvalidInput)
}

func TestClientCapacityNeverExceeded(t *testing.T) {
	e, _ := newTestEngine()
	s := Snapshot{Operators: []model.Operator{testOperator("op1", 3, true)}}
	for i := 0; i < 10; i++ {
		s, _ = mustApply(t, e, s, AddClient{OperatorID: "op1", Phone: "+57" + string(rune('0'+i)), Name: "C"})
		for _, g := range s.Groups {
			assert.LessOrEqual(t, len(g.ClientIDs), 3)
		}
	}
	assert.Len(t, s.Groups, 4)
	assert.Len(t, s.Groups[3].ClientIDs, 1)
}

func TestFirstFitPlacement(t *testing.T) {
	e, _ := newTestEngine()
	s := Snapshot{
		Operators: []model.Operator{testOperator("op1", 2, true)},
		Groups: []model.Group{
			{ID: "G1", Name: "Grupo_1", OperatorID: "op1", SequenceNumber: 1, ClientIDs: []string{"x1", "x2"}},
			{ID: "G2", Name: "Grupo_2", OperatorID: "op1", SequenceNumber: 2, ClientIDs: []string{"x3"}},
		},
	}
	s, res := mustApply(t, e, s, AddClient{OperatorID: "op1", Phone: "+1", Name: "New"})
	assert.Equal(t, "G2", res.GroupID)
	assert.False(t, res.GroupCreated)
	assert.Len(t, s.Groups, 2)
	assert.Equal(t, []string{"x3", res.EntityID}, s.Groups[1].ClientIDs)
	assert.Contains(t, res.Message, "Grupo_2")
}

func TestFirstFitPrefersEarliestGroupWithRoom(t *testing.T) {
	e, _ := newTestEngine()
	s := Snapshot{
		Operators: []model.Operator{testOperator("op1", 2, true)},
		Groups: []model.Group{
			{ID: "G1", OperatorID: "op1", SequenceNumber: 1, ClientIDs: []string{"x1"}},
			{ID: "G2", OperatorID: "op1", SequenceNumber: 2, ClientIDs: []string{}},
		},
	}
	_, res := mustApply(t, e, s, AddClient{OperatorID: "op1", Phone: "+1", Name: "New"})
	assert.Equal(t, "G1", res.GroupID)
}

func TestNewGroupCreation(t *testing.T) {
	e, _ := newTestEngine()
	op := testOperator("op1", 1, true)
	op.Settings.GroupBaseName = "Servicios TR"
	op.Settings.GroupPhoto = "photo.png"
	s := Snapshot{Operators: []model.Operator{op}}

	s, _ = mustApply(t, e, s, AddDriver{OperatorID: "op1", Phone: "+90", Name: "D1"})
	s, _ = mustApply(t, e, s, AddDriver{OperatorID: "op1", Phone: "+91", Name: "D2"})

	s, first := mustApply(t, e, s, AddClient{OperatorID: "op1", Phone: "+1", Name: "A"})
	require.Len(t, s.Groups, 1)
	g1 := s.Groups[0]
	assert.Equal(t, 1, g1.SequenceNumber)
	assert.Equal(t, "Servicios TR_1", g1.Name)
	assert.Equal(t, "photo.png", g1.Photo)
	assert.Equal(t, []string{first.EntityID}, g1.ClientIDs)
	assert.Equal(t, []string{"d-1", "d-2"}, g1.DriverIDs)
	assert.Equal(t, testNow, g1.CreatedAt)
	assert.Contains(t, first.Message, "created automatically")

	s, second := mustApply(t, e, s, AddClient{OperatorID: "op1", Phone: "+2", Name: "B"})
	require.Len(t, s.Groups, 2)
	assert.Equal(t, 2, s.Groups[1].SequenceNumber)
	assert.Equal(t, []string{second.EntityID}, s.Groups[1].ClientIDs)
}

func TestNewGroupIncludesEveryOperatorDriver(t *testing.T) {
	e, _ := newTestEngine()
	s := Snapshot{Operators: []model.Operator{testOperator("op1", 1, true), testOperator("op2", 1, true)}}
	s, _ = mustApply(t, e, s, AddDriver{OperatorID: "op1", Phone: "+90", Name: "D1"})
	s, _ = mustApply(t, e, s, AddDriver{OperatorID: "op1", Phone: "+91", Name: "D2"})
	s, _ = mustApply(t, e, s, AddDriver{OperatorID: "op2", Phone: "+92", Name: "D3"})
	s, _ = mustApply(t, e, s, BanDriver{DriverID: "d-1", Reason: "late"})

	s, res := mustApply(t, e, s, AddClient{OperatorID: "op1", Phone: "+1", Name: "A"})
	require.True(t, res.GroupCreated)
	g, ok := s.Group(res.GroupID)
	require.True(t, ok)
	assert.Equal(t, []string{"d-1", "d-2"}, g.DriverIDs, "banned drivers are not filtered out of new groups")
	eligible := s.EligibleDrivers("op1")
	require.Len(t, eligible, 1)
	assert.Equal(t, "d-2", eligible[0].ID)
}

func TestBanDriverEvictionToggle(t *testing.T) {
	for _, autoRemove := range []bool{true, false} {
		e, _ := newTestEngine()
		s := Snapshot{Operators: []model.Operator{testOperator("op1", 1, autoRemove)}}
		s, _ = mustApply(t, e, s, AddClient{OperatorID: "op1", Phone: "+1", Name: "A"})
		s, _ = mustApply(t, e, s, AddClient{OperatorID: "op1", Phone: "+2", Name: "B"})
		s, _ = mustApply(t, e, s, AddDriver{OperatorID: "op1", Phone: "+90", Name: "D"})

		s, res := mustApply(t, e, s, BanDriver{DriverID: "d-1", Reason: "no show"})
		assert.Equal(t, "op1", res.OperatorID)

		d, _ := s.Driver("d-1")
		assert.True(t, d.IsBanned)
		for _, g := range s.Groups {
			if autoRemove {
				assert.NotContains(t, g.DriverIDs, "d-1")
			} else {
				assert.Contains(t, g.DriverIDs, "d-1")
			}
		}
		require.Len(t, s.BannedNumbers, 1)
		assert.Equal(t, model.EntityDriver, s.BannedNumbers[0].Type)
	}
}

func TestBanClientAlwaysLeavesGroup(t *testing.T) {
	for _, autoRemove := range []bool{true, false} {
		e, _ := newTestEngine()
		s := Snapshot{Operators: []model.Operator{testOperator("op1", 5, autoRemove)}}
		s, _ = mustApply(t, e, s, AddClient{OperatorID: "op1", Phone: "+1", Name: "A"})

		s, _ = mustApply(t, e, s, BanClient{ClientID: "c-1", Reason: "abuse"})
		_, ok := s.GroupOfClient("c-1")
		assert.False(t, ok, "autoRemove=%v", autoRemove)
		assert.Empty(t, s.Groups[0].ClientIDs)
	}
}

func TestBanErrors(t *testing.T) {
	e, _ := newTestEngine()
	s := Snapshot{Operators: []model.Operator{testOperator("op1", 5, true), testOperator("op2", 5, true)}}
	s, _ = mustApply(t, e, s, AddDriver{OperatorID: "op1", Phone: "+90", Name: "D"})
	s, _ = mustApply(t, e, s, AddClient{OperatorID: "op1", Phone: "+1", Name: "A"})

	_, res := e.Apply(s, BanDriver{DriverID: "missing"})
	assert.ErrorIs(t, res.Err, ErrNotFound)
	_, res = e.Apply(s, BanClient{ClientID: "missing"})
	assert.ErrorIs(t, res.Err, ErrNotFound)

	_, res = e.Apply(s, BanDriver{OperatorID: "op2", DriverID: "d-1"})
	assert.ErrorIs(t, res.Err, ErrNotFound, "other operators cannot reach the driver")

	s, _ = mustApply(t, e, s, BanDriver{DriverID: "d-1"})
	next, res := e.Apply(s, BanDriver{DriverID: "d-1"})
	assert.ErrorIs(t, res.Err, ErrAlreadyBanned)
	assert.Len(t, next.BannedNumbers, 1)

	orphan := s.Clone()
	orphan.Operators = orphan.Operators[1:]
	_, res = e.Apply(orphan, BanClient{ClientID: "c-1"})
	assert.ErrorIs(t, res.Err, ErrOperatorNotFound)
}

func TestUnbanDoesNotRestoreMembership(t *testing.T) {
	e, _ := newTestEngine()
	s := Snapshot{Operators: []model.Operator{testOperator("op1", 5, true)}}
	s, _ = mustApply(t, e, s, AddClient{OperatorID: "op1", Phone: "+1", Name: "A"})
	s, _ = mustApply(t, e, s, AddDriver{OperatorID: "op1", Phone: "+90", Name: "D"})
	s, _ = mustApply(t, e, s, BanDriver{DriverID: "d-1"})
	assert.Empty(t, s.Groups[0].DriverIDs)

	s, res := mustApply(t, e, s, Unban{BannedNumberID: "ban-1"})
	assert.Equal(t, "d-1", res.EntityID)
	d, _ := s.Driver("d-1")
	assert.False(t, d.IsBanned)
	assert.Empty(t, s.Groups[0].DriverIDs)
	assert.Empty(t, s.BannedNumbers)
}

func TestBanUnbanRoundTrip(t *testing.T) {
	e, _ := newTestEngine()
	s := Snapshot{Operators: []model.Operator{testOperator("op1", 5, false)}}
	s, _ = mustApply(t, e, s, AddDriver{OperatorID: "op1", Phone: "+90", Name: "D"})
	s, _ = mustApply(t, e, s, AddClient{OperatorID: "op1", Phone: "+1", Name: "A"})
	s, _ = mustApply(t, e, s, BanClient{ClientID: "c-1", Reason: "first"})
	before := s.Clone()

	banned, _ := mustApply(t, e, s, BanDriver{DriverID: "d-1", Reason: "x"})
	require.Len(t, banned.BannedNumbers, 2)
	restored, _ := mustApply(t, e, banned, Unban{BannedNumberID: banned.BannedNumbers[1].ID})

	assert.Equal(t, before, restored)
}

func TestUnbanErrors(t *testing.T) {
	e, _ := newTestEngine()
	s := Snapshot{Operators: []model.Operator{testOperator("op1", 5, true), testOperator("op2", 5, true)}}
	s, _ = mustApply(t, e, s, AddClient{OperatorID: "op1", Phone: "+1", Name: "A"})
	s, _ = mustApply(t, e, s, BanClient{ClientID: "c-1"})

	_, res := e.Apply(s, Unban{BannedNumberID: "nope"})
	assert.ErrorIs(t, res.Err, ErrNotFound)
	_, res = e.Apply(s, Unban{OperatorID: "op2", BannedNumberID: "ban-1"})
	assert.ErrorIs(t, res.Err, ErrNotFound)

	s, _ = mustApply(t, e, s, Unban{OperatorID: "op1", BannedNumberID: "ban-1"})
	c, _ := s.Client("c-1")
	assert.False(t, c.IsBanned)
	_, ok := s.GroupOfClient("c-1")
	assert.False(t, ok)
}

func TestUpdateOperatorSettings(t *testing.T) {
	e, _ := newTestEngine()
	s := Snapshot{Operators: []model.Operator{testOperator("op1", 5, true)}}

	name := "Express"
	s, _ = mustApply(t, e, s, UpdateOperatorSettings{OperatorID: "op1", Patch: SettingsPatch{GroupBaseName: &name}})
	op, _ := s.Operator("op1")
	assert.Equal(t, "Express", op.Settings.GroupBaseName)
	assert.Equal(t, 5, op.Settings.MaxClientsPerGroup)
	assert.True(t, op.Settings.BotRules.AutoRemoveFromGroupsOnBan)

	rules := model.BotRules{BlockBannedInteraction: true}
	s, _ = mustApply(t, e, s, UpdateOperatorSettings{OperatorID: "op1", Patch: SettingsPatch{BotRules: &rules}})
	op, _ = s.Operator("op1")
	assert.Equal(t, rules, op.Settings.BotRules)
	assert.Equal(t, "Express", op.Settings.GroupBaseName)

	_, res := e.Apply(s, UpdateOperatorSettings{OperatorID: "ghost"})
	assert.ErrorIs(t, res.Err, ErrOperatorNotFound)

	zero := 0
	_, res = e.Apply(s, UpdateOperatorSettings{OperatorID: "op1", Patch: SettingsPatch{MaxClientsPerGroup: &zero}})
	assert.ErrorIs(t, res.Err, ErrInvalidInput)
}

func TestSettingsCannotShrinkBelowOccupancy(t *testing.T) {
	e, _ := newTestEngine()
	s := Snapshot{Operators: []model.Operator{testOperator("op1", 3, true)}}
	for _, phone := range []string{"+1", "+2", "+3"} {
		s, _ = mustApply(t, e, s, AddClient{OperatorID: "op1", Phone: phone, Name: "C"})
	}
	two := 2
	_, res := e.Apply(s, UpdateOperatorSettings{OperatorID: "op1", Patch: SettingsPatch{MaxClientsPerGroup: &two}})
	assert.ErrorIs(t, res.Err, ErrInvalidInput)

	four := 4
	s, _ = mustApply(t, e, s, UpdateOperatorSettings{OperatorID: "op1", Patch: SettingsPatch{MaxClientsPerGroup: &four}})
	_, res = mustApply(t, e, s, AddClient{OperatorID: "op1", Phone: "+4", Name: "D"})
	assert.False(t, res.GroupCreated)
}

func TestRemoveFromGroup(t *testing.T) {
	e, _ := newTestEngine()
	s := Snapshot{Operators: []model.Operator{testOperator("op1", 1, true)}}
	s, _ = mustApply(t, e, s, AddClient{OperatorID: "op1", Phone: "+1", Name: "A"})
	s, _ = mustApply(t, e, s, AddClient{OperatorID: "op1", Phone: "+2", Name: "B"})
	s, _ = mustApply(t, e, s, AddDriver{OperatorID: "op1", Phone: "+90", Name: "D"})

	s, _ = mustApply(t, e, s, RemoveDriverFromGroup{GroupID: "g-1", DriverID: "d-1"})
	assert.Empty(t, s.Groups[0].DriverIDs)
	assert.Equal(t, []string{"d-1"}, s.Groups[1].DriverIDs)

	s, _ = mustApply(t, e, s, RemoveClientFromGroup{OperatorID: "op1", GroupID: "g-1", ClientID: "c-1"})
	_, ok := s.GroupOfClient("c-1")
	assert.False(t, ok)
	assert.Equal(t, []string{"c-2"}, s.Groups[1].ClientIDs, "no rebalancing")

	_, res := e.Apply(s, RemoveDriverFromGroup{GroupID: "g-9", DriverID: "d-1"})
	assert.ErrorIs(t, res.Err, ErrNotFound)
	_, res = e.Apply(s, RemoveClientFromGroup{GroupID: "g-1", ClientID: "c-1"})
	assert.ErrorIs(t, res.Err, ErrNotFound)
	_, res = e.Apply(s, RemoveClientFromGroup{OperatorID: "op2", GroupID: "g-2", ClientID: "c-2"})
	assert.ErrorIs(t, res.Err, ErrNotFound)
}

func TestCreateOperatorDefaults(t *testing.T) {
	e, _ := newTestEngine()
	s, res := mustApply(t, e, Snapshot{}, CreateOperator{Name: "Logística Express", Email: "admin@example.com", Phone: "+57 310"})
	assert.Equal(t, "op-1", res.OperatorID)

	op, ok := s.Operator("op-1")
	require.True(t, ok)
	assert.True(t, op.IsActive)
	assert.Equal(t, testNow, op.CreatedAt)
	assert.Equal(t, model.DefaultOperatorSettings(), op.Settings)
	assert.Equal(t, "Grupo", op.Settings.GroupBaseName)
	assert.Equal(t, 30, op.Settings.MaxClientsPerGroup)

	s, _ = mustApply(t, e, s, CreateOperator{Name: "Logística Express", Email: "admin@example.com"})
	assert.Len(t, s.Operators, 2, "duplicates are accepted")
}

func TestEnsureOperator(t *testing.T) {
	e, _ := newTestEngine()
	s, res := mustApply(t, e, Snapshot{}, EnsureOperator{ID: "user-7", Email: "ops@example.com"})
	assert.Contains(t, res.Message, "created")
	require.Len(t, s.Operators, 1)

	again, res := mustApply(t, e, s, EnsureOperator{ID: "user-7"})
	assert.Equal(t, "operator already exists", res.Message)
	assert.Equal(t, s, again)

	_, res = e.Apply(s, EnsureOperator{})
	assert.ErrorIs(t, res.Err, ErrInvalidInput)
}

func TestUpdateDriver(t *testing.T) {
	e, _ := newTestEngine()
	s := Snapshot{Operators: []model.Operator{testOperator("op1", 5, true)}}
	s, _ = mustApply(t, e, s, AddDriver{OperatorID: "op1", Phone: "+90", Name: "D"})

	status := model.DriverVacation
	s, _ = mustApply(t, e, s, UpdateDriver{DriverID: "d-1", Patch: DriverPatch{
		Status:       &status,
		LastLocation: &model.Location{Lat: 4.6, Lng: -74.08},
	}})
	d, _ := s.Driver("d-1")
	assert.Equal(t, model.DriverVacation, d.Status)
	require.NotNil(t, d.LastLocation)
	assert.Equal(t, 4.6, d.LastLocation.Lat)
	assert.Equal(t, "D", d.Name)

	bad := model.DriverStatus("sleeping")
	_, res := e.Apply(s, UpdateDriver{DriverID: "d-1", Patch: DriverPatch{Status: &bad}})
	assert.ErrorIs(t, res.Err, ErrInvalidInput)

	_, res = e.Apply(s, UpdateDriver{OperatorID: "op2", DriverID: "d-1"})
	assert.ErrorIs(t, res.Err, ErrNotFound)
}

func TestUpdateWhatsAppConnection(t *testing.T) {
	e, _ := newTestEngine()
	s := Snapshot{Operators: []model.Operator{testOperator("op1", 5, true)}}
	conn := model.WhatsAppConnection{IsConnected: true, Status: model.ConnectionConnected, PhoneNumber: "+57 300"}

	s, _ = mustApply(t, e, s, UpdateWhatsAppConnection{OperatorID: "op1", Connection: conn})
	op, _ := s.Operator("op1")
	require.NotNil(t, op.WhatsAppConnection)
	assert.Equal(t, conn, *op.WhatsAppConnection)

	_, res := e.Apply(s, UpdateWhatsAppConnection{OperatorID: "op1", Connection: model.WhatsAppConnection{Status: "paired"}})
	assert.ErrorIs(t, res.Err, ErrInvalidInput)
	_, res = e.Apply(s, UpdateWhatsAppConnection{OperatorID: "ghost", Connection: conn})
	assert.ErrorIs(t, res.Err, ErrOperatorNotFound)
}

func TestSetOperatorActive(t *testing.T) {
	e, _ := newTestEngine()
	s := Snapshot{Operators: []model.Operator{testOperator("op1", 5, true)}}
	s, _ = mustApply(t, e, s, AddClient{OperatorID: "op1", Phone: "+1", Name: "A"})

	s, res := mustApply(t, e, s, SetOperatorActive{OperatorID: "op1"})
	assert.Contains(t, res.Message, "deactivated")
	op, _ := s.Operator("op1")
	assert.False(t, op.IsActive)
	assert.False(t, s.ClientMayRequestService("c-1"))
	assert.Equal(t, 0, s.PlatformStats().ActiveOperators)

	s, _ = mustApply(t, e, s, SetOperatorActive{OperatorID: "op1", Active: true})
	assert.True(t, s.ClientMayRequestService("c-1"))

	_, res = e.Apply(s, SetOperatorActive{OperatorID: "ghost"})
	assert.ErrorIs(t, res.Err, ErrOperatorNotFound)
}

func TestCloneSharesNoPointers(t *testing.T) {
	at := testNow
	op := testOperator("op1", 5, true)
	op.WhatsAppConnection = &model.WhatsAppConnection{IsConnected: true, ConnectedAt: &at, Status: model.ConnectionConnected}
	s := Snapshot{
		Operators: []model.Operator{op},
		Drivers:   []model.Driver{{ID: "d-1", OperatorID: "op1", LastLocation: &model.Location{Lat: 1, Lng: 2}}},
		Groups:    []model.Group{{ID: "g-1", OperatorID: "op1", DriverIDs: []string{"d-1"}, ClientIDs: []string{}}},
	}

	c := s.Clone()
	*c.Operators[0].WhatsAppConnection.ConnectedAt = testNow.Add(time.Hour)
	c.Operators[0].WhatsAppConnection.ProfileName = "changed"
	c.Drivers[0].LastLocation.Lat = 9
	c.Groups[0].DriverIDs[0] = "d-9"

	assert.Equal(t, testNow, *s.Operators[0].WhatsAppConnection.ConnectedAt)
	assert.Empty(t, s.Operators[0].WhatsAppConnection.ProfileName)
	assert.Equal(t, 1.0, s.Drivers[0].LastLocation.Lat)
	assert.Equal(t, []string{"d-1"}, s.Groups[0].DriverIDs)
}

func TestApplyLeavesInputUntouched(t *testing.T) {
	e, _ := newTestEngine()
	s := Snapshot{Operators: []model.Operator{testOperator("op1", 2, true)}}
	s, _ = mustApply(t, e, s, AddClient{OperatorID: "op1", Phone: "+1", Name: "A"})
	frozen := s.Clone()

	_, _ = mustApply(t, e, s, AddClient{OperatorID: "op1", Phone: "+2", Name: "B"})
	_, _ = mustApply(t, e, s, AddDriver{OperatorID: "op1", Phone: "+3", Name: "D"})
	_, _ = mustApply(t, e, s, BanClient{ClientID: "c-1"})

	assert.Equal(t, frozen, s)
}
