package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/desktopdye/desktopdye/internal/config"
	"github.com/desktopdye/desktopdye/internal/homeassistant"
)

var (
	// Config check flags
	configCheckOffline bool
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage the configuration file",
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the default configuration file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, err := configPath()
		if err != nil {
			return err
		}
		if err := config.CreateDefault(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created default config file at %s\n", path)
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the configuration file path",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		path, err := configPath()
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), path)
		return nil
	},
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate the configuration and test the Home Assistant connection",
	Args:  cobra.NoArgs,
	RunE:  runConfigCheck,
}

func init() {
	configCheckCmd.Flags().BoolVar(&configCheckOffline, "offline", false, "only validate the file, do not contact Home Assistant")

	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)
	configCmd.AddCommand(configCheckCmd)
}

// runConfigCheck executes the config check command.
func runConfigCheck(cmd *cobra.Command, _ []string) error {
	logger := newLogger(cmd.ErrOrStderr())
	out := cmd.OutOrStdout()

	path, err := configPath()
	if err != nil {
		return err
	}

	cfg, err := config.Load(path)
	if err != nil {
		if errors.Is(err, config.ErrNotFound) {
			return fmt.Errorf("%w; create one with 'desktopdye config init'", err)
		}
		return err
	}
	fmt.Fprintf(out, "Config file %s is valid\n", path)

	if configCheckOffline {
		return nil
	}

	client := homeassistant.NewClient(cfg.HomeAssistant(), logger)
	status, err := client.Status(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to connect to Home Assistant: %w", err)
	}
	if status != homeassistant.StatusOK {
		return fmt.Errorf("home assistant status: %s", status)
	}
	fmt.Fprintf(out, "Home Assistant at %s: %s\n", cfg.HAEndpoint, status)

	if info, err := client.Config(cmd.Context()); err == nil {
		if v, ok := info["version"].(string); ok {
			fmt.Fprintf(out, "Home Assistant version: %s\n", v)
		}
	} else {
		logger.Debug("failed to read instance config", "error", err)
	}

	if err := checkDomain(cmd.Context(), client, cfg.HATargetEntityID); err != nil {
		fmt.Fprintf(out, "Warning: %v\n", err)
	}

	state, err := client.State(cmd.Context(), cfg.HATargetEntityID)
	if err != nil {
		fmt.Fprintf(out, "Target entity %s not found yet; it will be created on the first update\n", cfg.HATargetEntityID)
		return nil
	}
	fmt.Fprintf(out, "Target entity %s: %q\n", state.EntityID, state.State)
	return nil
}

// checkDomain reports an error when no service domain matches the domain of
// entityID. States of such entities are still accepted by Home Assistant but
// cannot be changed from its UI or automations.
func checkDomain(ctx context.Context, client *homeassistant.Client, entityID string) error {
	domain, _, _ := strings.Cut(entityID, ".")

	services, err := client.Services(ctx)
	if err != nil {
		return err
	}
	for _, s := range services {
		if s.Domain == domain {
			return nil
		}
	}
	return fmt.Errorf("no %q integration is loaded for %s", domain, entityID)
}
