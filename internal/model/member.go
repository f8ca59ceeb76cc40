package model

import "time"

// DefaultDriverPhoto is used when a driver is added without a photo
const DefaultDriverPhoto = "https://images.unsplash.com/photo-1507003211169-0a1dd7228f2d?w=150&h=150&fit=crop"

// DriverStatus is the availability of a driver
type DriverStatus string

const (
	DriverActive   DriverStatus = "active"
	DriverInactive DriverStatus = "inactive"
	DriverVacation DriverStatus = "vacation"
)

// Valid reports whether s is a known driver status
func (s DriverStatus) Valid() bool {
	switch s {
	case DriverActive, DriverInactive, DriverVacation:
		return true
	}
	return false
}

// EntityType distinguishes the two kinds of phone-bearing members
type EntityType string

const (
	EntityDriver EntityType = "driver"
	EntityClient EntityType = "client"
)

// Valid reports whether t is driver or client
func (t EntityType) Valid() bool {
	return t == EntityDriver || t == EntityClient
}

// Location is a last-known GPS fix
type Location struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Driver belongs to every group of its operator
type Driver struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	Phone        string       `json:"phone"`
	Photo        string       `json:"photo"`
	Document     string       `json:"document"`
	Status       DriverStatus `json:"status"`
	IsBanned     bool         `json:"is_banned"`
	OperatorID   string       `json:"operator_id"`
	LastLocation *Location    `json:"last_location,omitempty"`
	AddedAt      time.Time    `json:"added_at"`
}

// Client belongs to at most one group. Membership is owned by Group.ClientIDs;
// use Snapshot.GroupOfClient to resolve it.
type Client struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	Phone      string    `json:"phone"`
	IsBanned   bool      `json:"is_banned"`
	OperatorID string    `json:"operator_id"`
	AddedAt    time.Time `json:"added_at"`
}

// Group is an auto-created WhatsApp group
type Group struct {
	ID             string    `json:"id"`
	Name           string    `json:"name"`
	OperatorID     string    `json:"operator_id"`
	SequenceNumber int       `json:"sequence_number"`
	Photo          string    `json:"photo"`
	DriverIDs      []string  `json:"driver_ids"`
	ClientIDs      []string  `json:"client_ids"`
	CreatedAt      time.Time `json:"created_at"`
}

// BannedNumber is the record created by a ban and removed by the matching unban
type BannedNumber struct {
	ID         string     `json:"id"`
	Phone      string     `json:"phone"`
	Type       EntityType `json:"type"`
	Name       string     `json:"name"`
	Reason     string     `json:"reason"`
	Date       time.Time  `json:"date"`
	EntityID   string     `json:"entity_id"`
	OperatorID string     `json:"operator_id"`
}
