// Package app holds the retailctl command tree.
package app

import (
	"encoding/json"
	"fmt"
	"runtime"

	"github.com/BearBump/RetailDesk/config"
	"github.com/BearBump/RetailDesk/internal/logger"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// Set with -ldflags "-X github.com/BearBump/RetailDesk/cmd/retailctl/app.Version=...".
var (
	Version = "dev"
	Commit  = "unknown"
)

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "retailctl",
		Short:        "RetailDesk operations tool",
		Long:         `retailctl runs database migrations and one-off shipment sweeps against a RetailDesk deployment.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
	}
	root.PersistentFlags().String("config", "", "Path to configuration file (YAML format)")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newMigrateCmd())
	root.AddCommand(newSweepCmd())
	return root
}

func newVersionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		RunE: func(cmd *cobra.Command, _ []string) error {
			info := map[string]string{
				"version":  Version,
				"commit":   Commit,
				"go":       runtime.Version(),
				"platform": runtime.GOOS + "/" + runtime.GOARCH,
			}
			format, _ := cmd.Flags().GetString("format")
			if format == "json" {
				out, err := json.MarshalIndent(info, "", "  ")
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), string(out))
				return err
			}
			_, err := fmt.Fprintf(cmd.OutOrStdout(), "retailctl %s (%s) %s %s\n",
				info["version"], info["commit"], info["go"], info["platform"])
			return err
		},
	}
	cmd.Flags().String("format", "", "Output format (json)")
	return cmd
}

// loadConfig reads --config, falling back to the configPath env var the
// services use.
func loadConfig(cmd *cobra.Command) (*config.Config, *zap.Logger, error) {
	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		path = envConfigPath()
	}
	if path == "" {
		return nil, nil, fmt.Errorf("--config or configPath env var is required")
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return nil, nil, err
	}
	log, err := logger.New(cfg.Log, "retailctl")
	if err != nil {
		return nil, nil, err
	}
	return cfg, log, nil
}
