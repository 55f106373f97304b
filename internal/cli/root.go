// Package cli provides the command-line interface for desktopdye.
package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/desktopdye/desktopdye/internal/colour"
	"github.com/desktopdye/desktopdye/internal/config"
	"github.com/desktopdye/desktopdye/internal/version"
)

var (
	// Global flags
	globalVerbose bool
	globalQuiet   bool
	globalConfig  string
	globalNoColor bool

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:   "desktopdye",
		Short: "Sync smart lights with the colours on your screen",
		Long: `DesktopDye captures your screen, extracts its dominant colours and sends
them to Home Assistant so your lights follow what you are looking at.

Run 'desktopdye config init' to create a configuration file, fill in your
Home Assistant endpoint, token and target entity, then start the loop with
'desktopdye run'.`,
		Version:      version.Short(),
		SilenceUsage: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			colour.DisableColourOutput = globalNoColor
		},
	}
)

// NewRootCmd returns the root command with every subcommand attached.
func NewRootCmd() *cobra.Command {
	return rootCmd
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&globalVerbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVarP(&globalQuiet, "quiet", "q", false, "suppress non-error output")
	rootCmd.PersistentFlags().BoolVar(&globalNoColor, "no-color", false, "disable colour swatches")
	rootCmd.PersistentFlags().StringVar(&globalConfig, "config", "", "config file (default ~/.desktop_dye/config.yaml)")

	rootCmd.SetVersionTemplate(version.String() + "\n")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(extractCmd)
	rootCmd.AddCommand(replayCmd)
	rootCmd.AddCommand(captureCmd)
	rootCmd.AddCommand(screensCmd)
	rootCmd.AddCommand(configCmd)
}

// newLogger builds the application logger from the global flags.
func newLogger(stderr io.Writer) hclog.Logger {
	level := hclog.Info
	switch {
	case globalVerbose:
		level = hclog.Debug
	case globalQuiet:
		level = hclog.Error
	}

	return hclog.New(&hclog.LoggerOptions{
		Name:   "desktopdye",
		Output: stderr,
		Level:  level,
	})
}

// configPath resolves the --config flag or the default location.
func configPath() (string, error) {
	if globalConfig != "" {
		return globalConfig, nil
	}
	return config.DefaultPath()
}

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Long:  `Print detailed version information including build date, commit hash, and Go version.`,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), version.String())
	},
}
