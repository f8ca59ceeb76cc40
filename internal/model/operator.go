package model

import "time"

// Default values applied to operators created without explicit settings
const (
	DefaultGroupBaseName      = "Grupo"
	DefaultMaxClientsPerGroup = 30
	DefaultGroupPhoto         = "https://images.unsplash.com/photo-1557804506-669a67965ba0?w=400&h=400&fit=crop"
)

// Operator is the root tenant; drivers, clients, groups and bans hang off its ID
type Operator struct {
	ID                 string              `json:"id"`
	Name               string              `json:"name"`
	Email              string              `json:"email"`
	Phone              string              `json:"phone"`
	CreatedAt          time.Time           `json:"created_at"`
	IsActive           bool                `json:"is_active"`
	Settings           OperatorSettings    `json:"settings"`
	WhatsAppConnection *WhatsAppConnection `json:"whatsapp_connection,omitempty"`
}

// OperatorSettings controls group naming, capacity and bot behaviour
type OperatorSettings struct {
	GroupBaseName      string   `json:"group_base_name"`
	GroupPhoto         string   `json:"group_photo"`
	MaxClientsPerGroup int      `json:"max_clients_per_group"`
	BotRules           BotRules `json:"bot_rules"`
}

// BotRules are the behaviour toggles read by the ban handler and eligibility queries
type BotRules struct {
	OnlyActiveDriversCanTakeServices bool `json:"only_active_drivers_can_take_services"`
	BlockBannedInteraction           bool `json:"block_banned_interaction"`
	AutoRemoveFromGroupsOnBan        bool `json:"auto_remove_from_groups_on_ban"`
	BlockServicesForBannedClients    bool `json:"block_services_for_banned_clients"`
}

// DefaultOperatorSettings returns the settings given to every new operator
func DefaultOperatorSettings() OperatorSettings {
	return OperatorSettings{
		GroupBaseName:      DefaultGroupBaseName,
		GroupPhoto:         DefaultGroupPhoto,
		MaxClientsPerGroup: DefaultMaxClientsPerGroup,
		BotRules: BotRules{
			OnlyActiveDriversCanTakeServices: true,
			BlockBannedInteraction:           true,
			AutoRemoveFromGroupsOnBan:        true,
			BlockServicesForBannedClients:    true,
		},
	}
}

// ConnectionStatus is the pairing state of an operator's WhatsApp session
type ConnectionStatus string

const (
	ConnectionDisconnected ConnectionStatus = "disconnected"
	ConnectionQRReady      ConnectionStatus = "qr_ready"
	ConnectionConnecting   ConnectionStatus = "connecting"
	ConnectionConnected    ConnectionStatus = "connected"
)

// Valid reports whether s is one of the known connection states
func (s ConnectionStatus) Valid() bool {
	switch s {
	case ConnectionDisconnected, ConnectionQRReady, ConnectionConnecting, ConnectionConnected:
		return true
	}
	return false
}

// WhatsAppConnection records the last known state of the operator's bot session
type WhatsAppConnection struct {
	IsConnected bool             `json:"is_connected"`
	ConnectedAt *time.Time       `json:"connected_at,omitempty"`
	PhoneNumber string           `json:"phone_number,omitempty"`
	ProfileName string           `json:"profile_name,omitempty"`
	Status      ConnectionStatus `json:"status"`
}
