package app

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/BearBump/RetailDesk/internal/storage/pgstore"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newMigrateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Database migration tool",
		Long:  `Manage the RetailDesk schema version. Use with 'up', 'down' or 'status'.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Usage()
		},
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "up",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd, func(ctx context.Context, st *pgstore.Storage, log *zap.Logger) error {
				v, err := st.MigrateUp(ctx)
				if err != nil {
					return err
				}
				log.Info("migrations applied", zap.Int64("version", v))
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "schema at version %d\n", v)
				return err
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "down",
		Short: "Roll back the most recent migration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd, func(ctx context.Context, st *pgstore.Storage, log *zap.Logger) error {
				v, err := st.MigrateDown(ctx)
				if err != nil {
					return err
				}
				log.Info("migration rolled back", zap.Int64("version", v))
				_, err = fmt.Fprintf(cmd.OutOrStdout(), "schema at version %d\n", v)
				return err
			})
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show applied and pending migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(cmd, func(ctx context.Context, st *pgstore.Storage, _ *zap.Logger) error {
				list, err := st.MigrationStatus(ctx)
				if err != nil {
					return err
				}
				return printMigrationStatus(cmd, list)
			})
		},
	})
	return cmd
}

func printMigrationStatus(cmd *cobra.Command, list []pgstore.MigrationStatus) error {
	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "VERSION\tSTATE\tFILE")
	for _, m := range list {
		state := "pending"
		if m.Applied {
			state = "applied"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\n", m.Version, state, m.Path)
	}
	return tw.Flush()
}

// withStore opens the store without auto-migrating so migrate commands stay
// in control of the schema version.
func withStore(cmd *cobra.Command, fn func(ctx context.Context, st *pgstore.Storage, log *zap.Logger) error) error {
	cfg, log, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	st, err := pgstore.New(ctx, cfg.Database.DSN(), pgstore.WithoutMigrations())
	if err != nil {
		return err
	}
	defer st.Close()
	return fn(ctx, st, log)
}
