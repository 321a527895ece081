package app

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/BearBump/RetailDesk/internal/broker/kafka"
	"github.com/BearBump/RetailDesk/internal/integrations/carrier/provider"
	"github.com/BearBump/RetailDesk/internal/services/shipments"
	"github.com/BearBump/RetailDesk/internal/storage/pgstore"
	"github.com/spf13/cobra"
)

func newSweepCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Refresh every stale undelivered shipment once",
		RunE: func(cmd *cobra.Command, _ []string) error {
			staleness, _ := cmd.Flags().GetDuration("staleness")

			cfg, log, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()
			if staleness <= 0 {
				staleness = time.Duration(cfg.RetailDesk.SweepStalenessHours) * time.Hour
			}

			ctx := cmd.Context()
			st, err := pgstore.New(ctx, cfg.Database.DSN())
			if err != nil {
				return err
			}
			defer st.Close()

			svc := shipments.New(st, provider.New(cfg.Carrier), log.Named("shipments"))
			if cfg.Kafka.Enabled() {
				p := kafka.NewProducer([]string{fmt.Sprintf("%s:%d", cfg.Kafka.Host, cfg.Kafka.Port)})
				defer func() { _ = p.Close() }()
				svc.WithPublisher(p, cfg.Kafka.ShipmentUpdatedTopicName)
			}

			rep, err := svc.SweepStaleShipments(ctx, staleness)
			if err != nil {
				return err
			}
			return printSweepReport(cmd, rep)
		},
	}
	cmd.Flags().Duration("staleness", 0, "Minimum age of the last check (default from config)")
	return cmd
}

func printSweepReport(cmd *cobra.Command, rep *shipments.SweepReport) error {
	out := map[string]any{"success": true}
	if rep.NothingToDo {
		out["message"] = rep.Message
	} else {
		out["results"] = rep.Results
		out["updated"] = rep.Count(shipments.OutcomeUpdated)
		out["failed"] = rep.Count(shipments.OutcomeFailed)
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}
