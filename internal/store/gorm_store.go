package store

import (
	"context"
	"fmt"
	"time"

	"github.com/TatianaIng96/driverflow-service/internal/membership"
	"github.com/TatianaIng96/driverflow-service/prometheus"
	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore persists snapshots in a relational database through gorm
type GormStore struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewGormStore wraps an open gorm connection
func NewGormStore(db *gorm.DB, log *zap.Logger) *GormStore {
	return &GormStore{db: db, log: log}
}

// Load reads every table and rebuilds the snapshot
func (s *GormStore) Load(ctx context.Context) (membership.Snapshot, error) {
	defer prometheus.TrackDBOperation("load")(time.Now())

	db := s.db.WithContext(ctx)
	var (
		operators []OperatorRecord
		drivers   []DriverRecord
		clients   []ClientRecord
		groups    []GroupRecord
		gDrivers  []GroupDriverRecord
		gClients  []GroupClientRecord
		banned    []BannedNumberRecord
	)

	queries := []struct {
		name  string
		order string
		dest  interface{}
	}{
		{"operators", "created_at, id", &operators},
		{"drivers", "added_at, id", &drivers},
		{"clients", "added_at, id", &clients},
		{"groups", "operator_id, sequence_number", &groups},
		{"group drivers", "id", &gDrivers},
		{"group clients", "id", &gClients},
		{"banned numbers", "date, id", &banned},
	}
	for _, q := range queries {
		if err := db.Order(q.order).Find(q.dest).Error; err != nil {
			s.log.Error("Failed to load table", zap.String("table", q.name), zap.Error(err))
			return membership.Snapshot{}, fmt.Errorf("failed to load %s: %w", q.name, err)
		}
	}

	snap := membership.Snapshot{}
	for _, r := range operators {
		snap.Operators = append(snap.Operators, r.toModel())
	}
	for _, r := range drivers {
		snap.Drivers = append(snap.Drivers, r.toModel())
	}
	for _, r := range clients {
		snap.Clients = append(snap.Clients, r.toModel())
	}

	index := make(map[string]int, len(groups))
	for i, r := range groups {
		index[r.ID] = i
		snap.Groups = append(snap.Groups, r.toModel())
	}
	for _, m := range gDrivers {
		if i, ok := index[m.GroupID]; ok {
			snap.Groups[i].DriverIDs = append(snap.Groups[i].DriverIDs, m.DriverID)
		}
	}
	for _, m := range gClients {
		if i, ok := index[m.GroupID]; ok {
			snap.Groups[i].ClientIDs = append(snap.Groups[i].ClientIDs, m.ClientID)
		}
	}
	for _, r := range banned {
		snap.BannedNumbers = append(snap.BannedNumbers, r.toModel())
	}

	s.log.Info("Snapshot loaded",
		zap.Int("operators", len(snap.Operators)),
		zap.Int("drivers", len(snap.Drivers)),
		zap.Int("clients", len(snap.Clients)),
		zap.Int("groups", len(snap.Groups)),
		zap.Int("banned_numbers", len(snap.BannedNumbers)))
	return snap, nil
}

// Apply writes one transition in a single transaction. Memberships are
// removed before new ones are inserted.
func (s *GormStore) Apply(ctx context.Context, c membership.Changes) error {
	if c.Empty() {
		return nil
	}
	defer prometheus.TrackDBOperation("apply")(time.Now())

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if len(c.Operators) > 0 {
			recs := make([]OperatorRecord, 0, len(c.Operators))
			for _, o := range c.Operators {
				recs = append(recs, operatorRecord(o))
			}
			if err := upsert(tx, &recs); err != nil {
				return fmt.Errorf("upsert operators: %w", err)
			}
		}
		if len(c.Drivers) > 0 {
			recs := make([]DriverRecord, 0, len(c.Drivers))
			for _, d := range c.Drivers {
				recs = append(recs, driverRecord(d))
			}
			if err := upsert(tx, &recs); err != nil {
				return fmt.Errorf("upsert drivers: %w", err)
			}
		}
		if len(c.Clients) > 0 {
			recs := make([]ClientRecord, 0, len(c.Clients))
			for _, cl := range c.Clients {
				recs = append(recs, clientRecord(cl))
			}
			if err := upsert(tx, &recs); err != nil {
				return fmt.Errorf("upsert clients: %w", err)
			}
		}
		if len(c.Groups) > 0 {
			recs := make([]GroupRecord, 0, len(c.Groups))
			for _, g := range c.Groups {
				recs = append(recs, groupRecord(g))
			}
			if err := upsert(tx, &recs); err != nil {
				return fmt.Errorf("upsert groups: %w", err)
			}
		}

		if len(c.UnbannedIDs) > 0 {
			if err := tx.Where("id IN ?", c.UnbannedIDs).Delete(&BannedNumberRecord{}).Error; err != nil {
				return fmt.Errorf("delete banned numbers: %w", err)
			}
		}
		if len(c.BannedNumbers) > 0 {
			recs := make([]BannedNumberRecord, 0, len(c.BannedNumbers))
			for _, b := range c.BannedNumbers {
				recs = append(recs, bannedRecord(b))
			}
			if err := upsert(tx, &recs); err != nil {
				return fmt.Errorf("upsert banned numbers: %w", err)
			}
		}

		for _, m := range c.RemovedDrivers {
			if err := tx.Where("group_id = ? AND driver_id = ?", m.GroupID, m.MemberID).
				Delete(&GroupDriverRecord{}).Error; err != nil {
				return fmt.Errorf("remove driver %s from group %s: %w", m.MemberID, m.GroupID, err)
			}
		}
		for _, m := range c.RemovedClients {
			if err := tx.Where("group_id = ? AND client_id = ?", m.GroupID, m.MemberID).
				Delete(&GroupClientRecord{}).Error; err != nil {
				return fmt.Errorf("remove client %s from group %s: %w", m.MemberID, m.GroupID, err)
			}
		}

		// one row at a time so autoincrement ids follow list order
		for _, m := range c.AddedDrivers {
			if err := tx.Create(&GroupDriverRecord{GroupID: m.GroupID, DriverID: m.MemberID}).Error; err != nil {
				return fmt.Errorf("add driver %s to group %s: %w", m.MemberID, m.GroupID, err)
			}
		}
		for _, m := range c.AddedClients {
			if err := tx.Create(&GroupClientRecord{GroupID: m.GroupID, ClientID: m.MemberID}).Error; err != nil {
				return fmt.Errorf("add client %s to group %s: %w", m.MemberID, m.GroupID, err)
			}
		}
		return nil
	})
	if err != nil {
		s.log.Error("Failed to persist changes", zap.Error(err))
		return err
	}
	return nil
}

func upsert(tx *gorm.DB, records interface{}) error {
	return tx.Clauses(clause.OnConflict{UpdateAll: true}).Create(records).Error
}
