package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/TatianaIng96/driverflow-service/internal/membership"
	"github.com/TatianaIng96/driverflow-service/internal/seed"
	"github.com/TatianaIng96/driverflow-service/internal/service"
	"github.com/TatianaIng96/driverflow-service/internal/store"
	"github.com/TatianaIng96/driverflow-service/pkg/config"
	"github.com/TatianaIng96/driverflow-service/pkg/jwtutil"
	"github.com/TatianaIng96/driverflow-service/pkg/logger"
)

// cli carries what every subcommand needs once the root has loaded config
type cli struct {
	cfg *config.Config
	log *zap.Logger
}

func newRootCmd() *cobra.Command {
	c := &cli{}
	root := &cobra.Command{
		Use:           "driverflowctl",
		Short:         "Administrative tasks for the driverflow service",
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			logger.InitLogger(cfg)
			c.cfg = cfg
			c.log = logger.GetLogger()
			return nil
		},
	}

	root.AddCommand(c.migrateCmd(), c.seedCmd(), c.tokenCmd(), c.snapshotCmd())
	return root
}

func (c *cli) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.cfg.DB.Driver == "memory" {
				return errors.New("DB_DRIVER=memory has no schema to migrate")
			}
			if _, err := store.Open(c.cfg, c.log); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema up to date")
			return nil
		},
	}
}

func (c *cli) seedCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "Create the demo operators that are missing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.service(cmd.Context())
			if err != nil {
				return err
			}
			n, err := seed.Run(cmd.Context(), svc, c.log)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %d demo operators\n", n)
			return nil
		},
	}
}

func (c *cli) tokenCmd() *cobra.Command {
	var userID, role, operatorID, email, name string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Issue a signed access token for local testing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			token, err := jwtutil.NewJWTUtil(&c.cfg.JWT).GenerateToken(userID, email, name, role, operatorID)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			return nil
		},
	}
	cmd.Flags().StringVar(&userID, "user", "", "User id (sub claim)")
	cmd.Flags().StringVar(&role, "role", jwtutil.RoleOperator, "Role: super_admin or operator")
	cmd.Flags().StringVar(&operatorID, "operator", "", "Operator id; defaults to the user id for operators")
	cmd.Flags().StringVar(&email, "email", "", "Email claim")
	cmd.Flags().StringVar(&name, "name", "", "Display name claim")
	_ = cmd.MarkFlagRequired("user")
	return cmd
}

// operatorSummary is one line of `snapshot --stats`
type operatorSummary struct {
	ID       string                   `json:"id"`
	Name     string                   `json:"name"`
	IsActive bool                     `json:"is_active"`
	Stats    membership.OperatorStats `json:"stats"`
}

func (c *cli) snapshotCmd() *cobra.Command {
	var statsOnly bool
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Print the persisted state as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			svc, err := c.service(cmd.Context())
			if err != nil {
				return err
			}
			snap := svc.Snapshot()
			if !statsOnly {
				return writeJSON(cmd.OutOrStdout(), snap)
			}

			out := struct {
				Platform  membership.PlatformStats `json:"platform"`
				Operators []operatorSummary        `json:"operators"`
			}{Platform: snap.PlatformStats(), Operators: []operatorSummary{}}
			for _, o := range snap.Operators {
				st, _ := snap.OperatorStats(o.ID)
				out.Operators = append(out.Operators, operatorSummary{ID: o.ID, Name: o.Name, IsActive: o.IsActive, Stats: st})
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().BoolVar(&statsOnly, "stats", false, "Print platform and per-operator statistics only")
	return cmd
}

func (c *cli) service(ctx context.Context) (*service.Service, error) {
	st, err := store.Open(c.cfg, c.log)
	if err != nil {
		return nil, err
	}
	svc := service.New(membership.NewEngine(), st, nil, c.log)
	if err := svc.Load(ctx); err != nil {
		return nil, err
	}
	return svc, nil
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
