package seed

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/TatianaIng96/driverflow-service/internal/membership"
	"github.com/TatianaIng96/driverflow-service/internal/model"
)

// Executor is the write side of the service
type Executor interface {
	Snapshot() membership.Snapshot
	Execute(ctx context.Context, op membership.Operation) (membership.Result, error)
}

// DemoOperator describes one operator of the demo data set
type DemoOperator struct {
	ID       string
	Name     string
	Email    string
	Phone    string
	Active   bool
	Settings model.OperatorSettings
}

const photoURL = "https://images.unsplash.com/%s?w=400&h=400&fit=crop"

// DemoOperators returns the three operators used by local and demo deployments
func DemoOperators() []DemoOperator {
	allRules := model.BotRules{
		OnlyActiveDriversCanTakeServices: true,
		BlockBannedInteraction:           true,
		AutoRemoveFromGroupsOnBan:        true,
		BlockServicesForBannedClients:    true,
	}

	express := allRules
	express.AutoRemoveFromGroupsOnBan = false

	norte := allRules
	norte.OnlyActiveDriversCanTakeServices = false
	norte.BlockServicesForBannedClients = false

	return []DemoOperator{
		{
			ID:     "op1",
			Name:   "Transportes Rápidos SA",
			Email:  "contacto@transportesrapidos.com",
			Phone:  "+57 300 123 4567",
			Active: true,
			Settings: model.OperatorSettings{
				GroupBaseName:      "Servicios TR",
				GroupPhoto:         fmt.Sprintf(photoURL, "photo-1557804506-669a67965ba0"),
				MaxClientsPerGroup: 30,
				BotRules:           allRules,
			},
		},
		{
			ID:     "op2",
			Name:   "Logística Express",
			Email:  "admin@logisticaexpress.com",
			Phone:  "+57 310 987 6543",
			Active: true,
			Settings: model.OperatorSettings{
				GroupBaseName:      "Express",
				GroupPhoto:         fmt.Sprintf(photoURL, "photo-1566492031773-4f4e44671857"),
				MaxClientsPerGroup: 30,
				BotRules:           express,
			},
		},
		{
			ID:     "op3",
			Name:   "Servicios del Norte",
			Email:  "info@serviciosdelnorte.com",
			Phone:  "+57 320 555 8888",
			Active: false,
			Settings: model.OperatorSettings{
				GroupBaseName:      "Norte",
				GroupPhoto:         fmt.Sprintf(photoURL, "photo-1486406146926-c627a92ad1ab"),
				MaxClientsPerGroup: 30,
				BotRules:           norte,
			},
		},
	}
}

// Run creates the demo operators that do not exist yet. Existing operators are
// left untouched so a restart never overwrites edited settings. It returns the
// number of operators created.
func Run(ctx context.Context, svc Executor, log *zap.Logger) (int, error) {
	created := 0
	for _, demo := range DemoOperators() {
		if _, ok := svc.Snapshot().Operator(demo.ID); ok {
			log.Debug("Demo operator already present", zap.String("operator_id", demo.ID))
			continue
		}
		if err := create(ctx, svc, demo); err != nil {
			return created, fmt.Errorf("seed operator %s: %w", demo.ID, err)
		}
		created++
		log.Info("Demo operator created",
			zap.String("operator_id", demo.ID),
			zap.String("name", demo.Name))
	}
	return created, nil
}

func create(ctx context.Context, svc Executor, demo DemoOperator) error {
	settings := demo.Settings
	ops := []membership.Operation{
		membership.EnsureOperator{ID: demo.ID, Name: demo.Name, Email: demo.Email, Phone: demo.Phone},
		membership.UpdateOperatorSettings{OperatorID: demo.ID, Patch: membership.SettingsPatch{
			GroupBaseName:      &settings.GroupBaseName,
			GroupPhoto:         &settings.GroupPhoto,
			MaxClientsPerGroup: &settings.MaxClientsPerGroup,
			BotRules:           &settings.BotRules,
		}},
	}
	if !demo.Active {
		ops = append(ops, membership.SetOperatorActive{OperatorID: demo.ID, Active: false})
	}
	for _, op := range ops {
		if _, err := svc.Execute(ctx, op); err != nil {
			return err
		}
	}
	return nil
}
