package membership

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/TatianaIng96/driverflow-service/internal/model"
)

// AddDriver registers a driver and back-fills it into every existing group of its operator
type AddDriver struct {
	OperatorID string
	Phone      string
	Name       string
	Document   string
	Photo      string
}

func (AddDriver) Label() string { return "add_driver" }

func (op AddDriver) apply(e *Engine, s *Snapshot) (Result, error) {
	res := Result{OperatorID: op.OperatorID}
	phone := strings.TrimSpace(op.Phone)
	if phone == "" || strings.TrimSpace(op.Name) == "" {
		return res, invalid("driver name and phone are required")
	}
	if s.operator(op.OperatorID) == nil {
		return res, operatorNotFound(op.OperatorID)
	}
	if s.driverByPhone(phone) != nil {
		return res, &DuplicatePhoneError{Phone: phone, Incoming: model.EntityDriver, Existing: model.EntityDriver}
	}
	if s.clientByPhone(phone) != nil {
		return res, &DuplicatePhoneError{Phone: phone, Incoming: model.EntityDriver, Existing: model.EntityClient}
	}

	photo := op.Photo
	if photo == "" {
		photo = model.DefaultDriverPhoto
	}
	driver := model.Driver{
		ID:         e.ids.NewID("d"),
		Name:       strings.TrimSpace(op.Name),
		Phone:      phone,
		Photo:      photo,
		Document:   op.Document,
		Status:     model.DriverActive,
		OperatorID: op.OperatorID,
		AddedAt:    e.now(),
	}
	s.Drivers = append(s.Drivers, driver)

	groups := s.operatorGroups(op.OperatorID)
	for _, g := range groups {
		if !slices.Contains(g.DriverIDs, driver.ID) {
			g.DriverIDs = append(g.DriverIDs, driver.ID)
		}
	}

	res.EntityID = driver.ID
	res.Message = fmt.Sprintf("driver added to %d group(s)", len(groups))
	return res, nil
}

// AddClient registers a client and places it in the first group with room,
// creating a new group when every existing one is full
type AddClient struct {
	OperatorID string
	Phone      string
	Name       string
}

func (AddClient) Label() string { return "add_client" }

func (op AddClient) apply(e *Engine, s *Snapshot) (Result, error) {
	res := Result{OperatorID: op.OperatorID}
	phone := strings.TrimSpace(op.Phone)
	if phone == "" || strings.TrimSpace(op.Name) == "" {
		return res, invalid("client name and phone are required")
	}
	if existing := s.clientByPhone(phone); existing != nil {
		groupName := "unknown"
		if g, ok := s.GroupOfClient(existing.ID); ok {
			groupName = g.Name
		}
		return res, &DuplicatePhoneError{Phone: phone, Incoming: model.EntityClient, Existing: model.EntityClient, GroupName: groupName}
	}
	if s.driverByPhone(phone) != nil {
		return res, &DuplicatePhoneError{Phone: phone, Incoming: model.EntityClient, Existing: model.EntityDriver}
	}
	operator := s.operator(op.OperatorID)
	if operator == nil {
		return res, operatorNotFound(op.OperatorID)
	}

	client := model.Client{
		ID:         e.ids.NewID("c"),
		Name:       strings.TrimSpace(op.Name),
		Phone:      phone,
		OperatorID: op.OperatorID,
		AddedAt:    e.now(),
	}
	s.Clients = append(s.Clients, client)
	res.EntityID = client.ID

	groups := s.operatorGroups(op.OperatorID)
	maxClients := operator.Settings.MaxClientsPerGroup
	for _, g := range groups {
		if len(g.ClientIDs) < maxClients {
			g.ClientIDs = append(g.ClientIDs, client.ID)
			res.GroupID = g.ID
			res.Message = fmt.Sprintf("client added to group %s", g.Name)
			return res, nil
		}
	}

	seq := len(groups) + 1
	group := model.Group{
		ID:             e.ids.NewID("g"),
		Name:           fmt.Sprintf("%s_%d", operator.Settings.GroupBaseName, seq),
		OperatorID:     op.OperatorID,
		SequenceNumber: seq,
		Photo:          operator.Settings.GroupPhoto,
		DriverIDs:      groupDrivers(s, operator.ID),
		ClientIDs:      []string{client.ID},
		CreatedAt:      e.now(),
	}
	s.Groups = append(s.Groups, group)

	res.GroupID = group.ID
	res.GroupCreated = true
	res.Message = fmt.Sprintf("client added; group %s created automatically", group.Name)
	return res, nil
}

// groupDrivers is the driver roster a freshly created group starts with:
// every driver of the operator, banned or not.
func groupDrivers(s *Snapshot, operatorID string) []string {
	ids := []string{}
	for _, d := range s.Drivers {
		if d.OperatorID == operatorID {
			ids = append(ids, d.ID)
		}
	}
	return ids
}

// BanDriver bans a driver. OperatorID, when set, scopes the lookup.
type BanDriver struct {
	OperatorID string
	DriverID   string
	Reason     string
}

func (BanDriver) Label() string { return "ban_driver" }

func (op BanDriver) apply(e *Engine, s *Snapshot) (Result, error) {
	res := Result{OperatorID: op.OperatorID, EntityID: op.DriverID}
	driver := s.driver(op.DriverID)
	if driver == nil || (op.OperatorID != "" && driver.OperatorID != op.OperatorID) {
		return res, notFound("driver", op.DriverID)
	}
	res.OperatorID = driver.OperatorID
	operator := s.operator(driver.OperatorID)
	if operator == nil {
		return res, operatorNotFound(driver.OperatorID)
	}
	if driver.IsBanned {
		return res, fmt.Errorf("driver %s: %w", driver.ID, ErrAlreadyBanned)
	}

	ban := e.newBan(model.EntityDriver, driver.ID, driver.Phone, driver.Name, driver.OperatorID, op.Reason)
	s.BannedNumbers = append(s.BannedNumbers, ban)
	driver.IsBanned = true

	evicted := 0
	if operator.Settings.BotRules.AutoRemoveFromGroupsOnBan {
		for _, g := range s.operatorGroups(operator.ID) {
			var removed bool
			if g.DriverIDs, removed = removeID(g.DriverIDs, driver.ID); removed {
				evicted++
			}
		}
	}

	res.Message = fmt.Sprintf("driver %s banned, removed from %d group(s)", driver.Name, evicted)
	return res, nil
}

// BanClient bans a client. The client always leaves its group, whatever the
// operator's auto-remove rule says.
type BanClient struct {
	OperatorID string
	ClientID   string
	Reason     string
}

func (BanClient) Label() string { return "ban_client" }

func (op BanClient) apply(e *Engine, s *Snapshot) (Result, error) {
	res := Result{OperatorID: op.OperatorID, EntityID: op.ClientID}
	client := s.client(op.ClientID)
	if client == nil || (op.OperatorID != "" && client.OperatorID != op.OperatorID) {
		return res, notFound("client", op.ClientID)
	}
	res.OperatorID = client.OperatorID
	if s.operator(client.OperatorID) == nil {
		return res, operatorNotFound(client.OperatorID)
	}
	if client.IsBanned {
		return res, fmt.Errorf("client %s: %w", client.ID, ErrAlreadyBanned)
	}

	ban := e.newBan(model.EntityClient, client.ID, client.Phone, client.Name, client.OperatorID, op.Reason)
	s.BannedNumbers = append(s.BannedNumbers, ban)
	client.IsBanned = true

	for _, g := range s.operatorGroups(client.OperatorID) {
		g.ClientIDs, _ = removeID(g.ClientIDs, client.ID)
	}

	res.Message = fmt.Sprintf("client %s banned", client.Name)
	return res, nil
}

func (e *Engine) newBan(kind model.EntityType, entityID, phone, name, operatorID, reason string) model.BannedNumber {
	return model.BannedNumber{
		ID:         e.ids.NewID("ban"),
		Phone:      phone,
		Type:       kind,
		Name:       name,
		Reason:     reason,
		Date:       e.now(),
		EntityID:   entityID,
		OperatorID: operatorID,
	}
}

// Unban lifts a ban. Group memberships lost to the ban are not restored.
type Unban struct {
	OperatorID     string
	BannedNumberID string
}

func (Unban) Label() string { return "unban" }

func (op Unban) apply(_ *Engine, s *Snapshot) (Result, error) {
	res := Result{OperatorID: op.OperatorID}
	idx := slices.IndexFunc(s.BannedNumbers, func(b model.BannedNumber) bool {
		return b.ID == op.BannedNumberID
	})
	if idx < 0 || (op.OperatorID != "" && s.BannedNumbers[idx].OperatorID != op.OperatorID) {
		return res, notFound("banned number", op.BannedNumberID)
	}
	ban := s.BannedNumbers[idx]
	res.OperatorID = ban.OperatorID
	res.EntityID = ban.EntityID

	switch ban.Type {
	case model.EntityDriver:
		if d := s.driver(ban.EntityID); d != nil {
			d.IsBanned = false
		}
	case model.EntityClient:
		if c := s.client(ban.EntityID); c != nil {
			c.IsBanned = false
		}
	}
	s.BannedNumbers = slices.Delete(s.BannedNumbers, idx, idx+1)

	res.Message = fmt.Sprintf("%s %s unbanned", ban.Type, ban.Phone)
	return res, nil
}

// SettingsPatch carries the settings fields to overwrite; nil fields are kept.
// BotRules is replaced as a whole.
type SettingsPatch struct {
	GroupBaseName      *string         `json:"group_base_name,omitempty"`
	GroupPhoto         *string         `json:"group_photo,omitempty"`
	MaxClientsPerGroup *int            `json:"max_clients_per_group,omitempty"`
	BotRules           *model.BotRules `json:"bot_rules,omitempty"`
}

// UpdateOperatorSettings shallow-merges a patch into an operator's settings
type UpdateOperatorSettings struct {
	OperatorID string
	Patch      SettingsPatch
}

func (UpdateOperatorSettings) Label() string { return "update_operator_settings" }

func (op UpdateOperatorSettings) apply(_ *Engine, s *Snapshot) (Result, error) {
	res := Result{OperatorID: op.OperatorID, EntityID: op.OperatorID}
	operator := s.operator(op.OperatorID)
	if operator == nil {
		return res, operatorNotFound(op.OperatorID)
	}

	settings := operator.Settings
	if p := op.Patch.GroupBaseName; p != nil {
		if strings.TrimSpace(*p) == "" {
			return res, invalid("group base name cannot be empty")
		}
		settings.GroupBaseName = *p
	}
	if p := op.Patch.GroupPhoto; p != nil {
		settings.GroupPhoto = *p
	}
	if p := op.Patch.MaxClientsPerGroup; p != nil {
		if *p < 1 {
			return res, invalid("max clients per group must be at least 1")
		}
		for _, g := range s.operatorGroups(op.OperatorID) {
			if len(g.ClientIDs) > *p {
				return res, invalid("group %s already holds %d clients", g.Name, len(g.ClientIDs))
			}
		}
		settings.MaxClientsPerGroup = *p
	}
	if p := op.Patch.BotRules; p != nil {
		settings.BotRules = *p
	}
	operator.Settings = settings

	res.Message = "operator settings updated"
	return res, nil
}

// RemoveDriverFromGroup drops a driver from one group; no other group is touched
type RemoveDriverFromGroup struct {
	OperatorID string
	GroupID    string
	DriverID   string
}

func (RemoveDriverFromGroup) Label() string { return "remove_driver_from_group" }

func (op RemoveDriverFromGroup) apply(_ *Engine, s *Snapshot) (Result, error) {
	res := Result{OperatorID: op.OperatorID, EntityID: op.DriverID, GroupID: op.GroupID}
	g := s.group(op.GroupID)
	if g == nil || (op.OperatorID != "" && g.OperatorID != op.OperatorID) {
		return res, notFound("group", op.GroupID)
	}
	res.OperatorID = g.OperatorID
	var removed bool
	if g.DriverIDs, removed = removeID(g.DriverIDs, op.DriverID); !removed {
		return res, notFound("driver in group "+g.Name, op.DriverID)
	}
	res.Message = fmt.Sprintf("driver removed from group %s", g.Name)
	return res, nil
}

// RemoveClientFromGroup drops a client from its group, leaving it unassigned
type RemoveClientFromGroup struct {
	OperatorID string
	GroupID    string
	ClientID   string
}

func (RemoveClientFromGroup) Label() string { return "remove_client_from_group" }

func (op RemoveClientFromGroup) apply(_ *Engine, s *Snapshot) (Result, error) {
	res := Result{OperatorID: op.OperatorID, EntityID: op.ClientID, GroupID: op.GroupID}
	g := s.group(op.GroupID)
	if g == nil || (op.OperatorID != "" && g.OperatorID != op.OperatorID) {
		return res, notFound("group", op.GroupID)
	}
	res.OperatorID = g.OperatorID
	var removed bool
	if g.ClientIDs, removed = removeID(g.ClientIDs, op.ClientID); !removed {
		return res, notFound("client in group "+g.Name, op.ClientID)
	}
	res.Message = fmt.Sprintf("client removed from group %s", g.Name)
	return res, nil
}

// CreateOperator adds a new tenant with default settings
type CreateOperator struct {
	Name  string
	Email string
	Phone string
}

func (CreateOperator) Label() string { return "create_operator" }

func (op CreateOperator) apply(e *Engine, s *Snapshot) (Result, error) {
	operator := newOperator(e.ids.NewID("op"), op.Name, op.Email, op.Phone, e.now())
	s.Operators = append(s.Operators, operator)
	return Result{
		OperatorID: operator.ID,
		EntityID:   operator.ID,
		Message:    fmt.Sprintf("operator %s created", operator.Name),
	}, nil
}

// EnsureOperator creates an operator under a caller-chosen id if it does not
// exist yet. Used for lazy creation on an operator's first login.
type EnsureOperator struct {
	ID    string
	Name  string
	Email string
	Phone string
}

func (EnsureOperator) Label() string { return "ensure_operator" }

func (op EnsureOperator) apply(e *Engine, s *Snapshot) (Result, error) {
	res := Result{OperatorID: op.ID, EntityID: op.ID}
	if strings.TrimSpace(op.ID) == "" {
		return res, invalid("operator id is required")
	}
	if s.operator(op.ID) != nil {
		res.Message = "operator already exists"
		return res, nil
	}
	s.Operators = append(s.Operators, newOperator(op.ID, op.Name, op.Email, op.Phone, e.now()))
	res.Message = fmt.Sprintf("operator %s created", op.ID)
	return res, nil
}

func newOperator(id, name, email, phone string, now time.Time) model.Operator {
	return model.Operator{
		ID:        id,
		Name:      name,
		Email:     email,
		Phone:     phone,
		CreatedAt: now,
		IsActive:  true,
		Settings:  model.DefaultOperatorSettings(),
	}
}

// DriverPatch carries the driver fields to overwrite; nil fields are kept
type DriverPatch struct {
	Name         *string             `json:"name,omitempty"`
	Photo        *string             `json:"photo,omitempty"`
	Document     *string             `json:"document,omitempty"`
	Status       *model.DriverStatus `json:"status,omitempty"`
	LastLocation *model.Location     `json:"last_location,omitempty"`
}

// UpdateDriver applies a partial update to a driver's profile
type UpdateDriver struct {
	OperatorID string
	DriverID   string
	Patch      DriverPatch
}

func (UpdateDriver) Label() string { return "update_driver" }

func (op UpdateDriver) apply(_ *Engine, s *Snapshot) (Result, error) {
	res := Result{OperatorID: op.OperatorID, EntityID: op.DriverID}
	driver := s.driver(op.DriverID)
	if driver == nil || (op.OperatorID != "" && driver.OperatorID != op.OperatorID) {
		return res, notFound("driver", op.DriverID)
	}
	res.OperatorID = driver.OperatorID

	updated := *driver
	if p := op.Patch.Name; p != nil {
		if strings.TrimSpace(*p) == "" {
			return res, invalid("driver name cannot be empty")
		}
		updated.Name = strings.TrimSpace(*p)
	}
	if p := op.Patch.Photo; p != nil {
		updated.Photo = *p
	}
	if p := op.Patch.Document; p != nil {
		updated.Document = *p
	}
	if p := op.Patch.Status; p != nil {
		if !p.Valid() {
			return res, invalid("unknown driver status %q", *p)
		}
		updated.Status = *p
	}
	if p := op.Patch.LastLocation; p != nil {
		loc := *p
		updated.LastLocation = &loc
	}
	*driver = updated

	res.Message = fmt.Sprintf("driver %s updated", driver.Name)
	return res, nil
}

// UpdateWhatsAppConnection stores the latest bot session state of an operator
type UpdateWhatsAppConnection struct {
	OperatorID string
	Connection model.WhatsAppConnection
}

func (UpdateWhatsAppConnection) Label() string { return "update_whatsapp_connection" }

func (op UpdateWhatsAppConnection) apply(_ *Engine, s *Snapshot) (Result, error) {
	res := Result{OperatorID: op.OperatorID, EntityID: op.OperatorID}
	operator := s.operator(op.OperatorID)
	if operator == nil {
		return res, operatorNotFound(op.OperatorID)
	}
	if !op.Connection.Status.Valid() {
		return res, invalid("unknown connection status %q", op.Connection.Status)
	}
	conn := op.Connection
	operator.WhatsAppConnection = &conn
	res.Message = fmt.Sprintf("whatsapp connection %s", conn.Status)
	return res, nil
}

// SetOperatorActive enables or disables an operator. Inactive operators keep
// their data, but their clients may not request services.
type SetOperatorActive struct {
	OperatorID string
	Active     bool
}

func (SetOperatorActive) Label() string { return "set_operator_active" }

func (op SetOperatorActive) apply(_ *Engine, s *Snapshot) (Result, error) {
	res := Result{OperatorID: op.OperatorID, EntityID: op.OperatorID}
	operator := s.operator(op.OperatorID)
	if operator == nil {
		return res, operatorNotFound(op.OperatorID)
	}
	operator.IsActive = op.Active
	if op.Active {
		res.Message = fmt.Sprintf("operator %s activated", operator.Name)
	} else {
		res.Message = fmt.Sprintf("operator %s deactivated", operator.Name)
	}
	return res, nil
}
