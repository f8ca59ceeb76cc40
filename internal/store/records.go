package store

import (
	"time"

	"github.com/TatianaIng96/driverflow-service/internal/model"
)

// OperatorRecord is the operators table
type OperatorRecord struct {
	ID                 string                    `gorm:"primaryKey;size:64"`
	Name               string                    `gorm:"size:255;not null"`
	Email              string                    `gorm:"size:255;index"`
	Phone              string                    `gorm:"size:32"`
	CreatedAt          time.Time                 `gorm:"not null"`
	IsActive           bool                      `gorm:"not null"`
	Settings           model.OperatorSettings    `gorm:"serializer:json;type:text"`
	WhatsAppConnection *model.WhatsAppConnection `gorm:"serializer:json;type:text"`
}

func (OperatorRecord) TableName() string { return "operators" }

// DriverRecord is the drivers table
type DriverRecord struct {
	ID           string          `gorm:"primaryKey;size:64"`
	OperatorID   string          `gorm:"size:64;index;not null"`
	Name         string          `gorm:"size:255;not null"`
	Phone        string          `gorm:"size:32;uniqueIndex;not null"`
	Photo        string          `gorm:"size:512"`
	Document     string          `gorm:"size:64"`
	Status       string          `gorm:"size:16;not null"`
	IsBanned     bool            `gorm:"not null"`
	LastLocation *model.Location `gorm:"serializer:json;type:text"`
	AddedAt      time.Time       `gorm:"not null"`
}

func (DriverRecord) TableName() string { return "drivers" }

// ClientRecord is the clients table
type ClientRecord struct {
	ID         string    `gorm:"primaryKey;size:64"`
	OperatorID string    `gorm:"size:64;index;not null"`
	Name       string    `gorm:"size:255;not null"`
	Phone      string    `gorm:"size:32;uniqueIndex;not null"`
	IsBanned   bool      `gorm:"not null"`
	AddedAt    time.Time `gorm:"not null"`
}

func (ClientRecord) TableName() string { return "clients" }

// GroupRecord is the group header; members live in the join tables
type GroupRecord struct {
	ID             string    `gorm:"primaryKey;size:64"`
	OperatorID     string    `gorm:"size:64;index:idx_group_operator_seq,priority:1;not null"`
	SequenceNumber int       `gorm:"index:idx_group_operator_seq,priority:2;not null"`
	Name           string    `gorm:"size:255;not null"`
	Photo          string    `gorm:"size:512"`
	CreatedAt      time.Time `gorm:"not null"`
}

func (GroupRecord) TableName() string { return "whatsapp_groups" }

// GroupDriverRecord links a driver to a group. Row ids keep member order.
type GroupDriverRecord struct {
	ID       uint   `gorm:"primaryKey;autoIncrement"`
	GroupID  string `gorm:"size:64;uniqueIndex:idx_group_driver,priority:1;not null"`
	DriverID string `gorm:"size:64;uniqueIndex:idx_group_driver,priority:2;index;not null"`
}

func (GroupDriverRecord) TableName() string { return "group_drivers" }

// GroupClientRecord links a client to its only group
type GroupClientRecord struct {
	ID       uint   `gorm:"primaryKey;autoIncrement"`
	GroupID  string `gorm:"size:64;index;not null"`
	ClientID string `gorm:"size:64;uniqueIndex;not null"`
}

func (GroupClientRecord) TableName() string { return "group_clients" }

// BannedNumberRecord is the banned_numbers table
type BannedNumberRecord struct {
	ID         string    `gorm:"primaryKey;size:64"`
	OperatorID string    `gorm:"size:64;index;not null"`
	EntityID   string    `gorm:"size:64;index;not null"`
	Type       string    `gorm:"size:16;not null"`
	Phone      string    `gorm:"size:32;not null"`
	Name       string    `gorm:"size:255"`
	Reason     string    `gorm:"type:text"`
	Date       time.Time `gorm:"not null"`
}

func (BannedNumberRecord) TableName() string { return "banned_numbers" }

// Models lists every table for migrations
func Models() []interface{} {
	return []interface{}{
		&OperatorRecord{},
		&DriverRecord{},
		&ClientRecord{},
		&GroupRecord{},
		&GroupDriverRecord{},
		&GroupClientRecord{},
		&BannedNumberRecord{},
	}
}

func operatorRecord(o model.Operator) OperatorRecord {
	return OperatorRecord{
		ID:                 o.ID,
		Name:               o.Name,
		Email:              o.Email,
		Phone:              o.Phone,
		CreatedAt:          o.CreatedAt,
		IsActive:           o.IsActive,
		Settings:           o.Settings,
		WhatsAppConnection: o.WhatsAppConnection,
	}
}

func (r OperatorRecord) toModel() model.Operator {
	return model.Operator{
		ID:                 r.ID,
		Name:               r.Name,
		Email:              r.Email,
		Phone:              r.Phone,
		CreatedAt:          r.CreatedAt,
		IsActive:           r.IsActive,
		Settings:           r.Settings,
		WhatsAppConnection: r.WhatsAppConnection,
	}
}

func driverRecord(d model.Driver) DriverRecord {
	return DriverRecord{
		ID:           d.ID,
		OperatorID:   d.OperatorID,
		Name:         d.Name,
		Phone:        d.Phone,
		Photo:        d.Photo,
		Document:     d.Document,
		Status:       string(d.Status),
		IsBanned:     d.IsBanned,
		LastLocation: d.LastLocation,
		AddedAt:      d.AddedAt,
	}
}

func (r DriverRecord) toModel() model.Driver {
	return model.Driver{
		ID:           r.ID,
		Name:         r.Name,
		Phone:        r.Phone,
		Photo:        r.Photo,
		Document:     r.Document,
		Status:       model.DriverStatus(r.Status),
		IsBanned:     r.IsBanned,
		OperatorID:   r.OperatorID,
		LastLocation: r.LastLocation,
		AddedAt:      r.AddedAt,
	}
}

func clientRecord(c model.Client) ClientRecord {
	return ClientRecord{
		ID:         c.ID,
		OperatorID: c.OperatorID,
		Name:       c.Name,
		Phone:      c.Phone,
		IsBanned:   c.IsBanned,
		AddedAt:    c.AddedAt,
	}
}

func (r ClientRecord) toModel() model.Client {
	return model.Client{
		ID:         r.ID,
		Name:       r.Name,
		Phone:      r.Phone,
		IsBanned:   r.IsBanned,
		OperatorID: r.OperatorID,
		AddedAt:    r.AddedAt,
	}
}

func groupRecord(g model.Group) GroupRecord {
	return GroupRecord{
		ID:             g.ID,
		OperatorID:     g.OperatorID,
		SequenceNumber: g.SequenceNumber,
		Name:           g.Name,
		Photo:          g.Photo,
		CreatedAt:      g.CreatedAt,
	}
}

func (r GroupRecord) toModel() model.Group {
	return model.Group{
		ID:             r.ID,
		Name:           r.Name,
		OperatorID:     r.OperatorID,
		SequenceNumber: r.SequenceNumber,
		Photo:          r.Photo,
		DriverIDs:      []string{},
		ClientIDs:      []string{},
		CreatedAt:      r.CreatedAt,
	}
}

func bannedRecord(b model.BannedNumber) BannedNumberRecord {
	return BannedNumberRecord{
		ID:         b.ID,
		OperatorID: b.OperatorID,
		EntityID:   b.EntityID,
		Type:       string(b.Type),
		Phone:      b.Phone,
		Name:       b.Name,
		Reason:     b.Reason,
		Date:       b.Date,
	}
}

func (r BannedNumberRecord) toModel() model.BannedNumber {
	return model.BannedNumber{
		ID:         r.ID,
		Phone:      r.Phone,
		Type:       model.EntityType(r.Type),
		Name:       r.Name,
		Reason:     r.Reason,
		Date:       r.Date,
		EntityID:   r.EntityID,
		OperatorID: r.OperatorID,
	}
}
