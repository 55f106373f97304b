package cli

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/desktopdye/desktopdye/internal/broadcast"
	"github.com/desktopdye/desktopdye/internal/capture"
	"github.com/desktopdye/desktopdye/internal/config"
	"github.com/desktopdye/desktopdye/internal/homeassistant"
	"github.com/desktopdye/desktopdye/internal/pipeline"
	"github.com/desktopdye/desktopdye/internal/runner"
)

var (
	// Run command flags
	runOnce          bool
	runAllowMultiple bool
	runPreview       bool
)

// runCmd represents the run command
var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Capture the screen and update Home Assistant continuously",
	Long: `Capture the configured display every capture_interval seconds, extract its
dominant colours and set them as the state of the target Home Assistant
entity. Unchanged colours are not resubmitted.

The loop stops after three consecutive failed cycles, or on Ctrl-C.`,
	Args: cobra.NoArgs,
	RunE: runRun,
}

func init() {
	runCmd.Flags().BoolVar(&runOnce, "once", false, "run a single cycle and exit")
	runCmd.Flags().BoolVar(&runAllowMultiple, "allow-multiple", false, "start even if another instance is running")
	runCmd.Flags().BoolVar(&runPreview, "preview", true, "show colour swatches in the terminal")
}

// runRun executes the run command.
func runRun(cmd *cobra.Command, _ []string) error {
	logger := newLogger(cmd.ErrOrStderr())

	path, err := configPath()
	if err != nil {
		return err
	}

	if !config.Exists(path) {
		if err := config.CreateDefault(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "No config file found. Created default config file at %s\n", path)
		return fmt.Errorf("desktopdye cannot run without editing the config file. Please edit %s and rerun", path)
	}

	cfg, err := config.Load(path)
	if err != nil {
		return fmt.Errorf("failed to load config at %s: %w", path, err)
	}
	logger.Info("config loaded", "path", path, "mode", cfg.Mode.String(), "format", cfg.ColorFormat.String())

	if !runAllowMultiple {
		if err := runner.CheckSingleInstance(); err != nil {
			return err
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client := homeassistant.NewClient(cfg.HomeAssistant(), logger)
	status, err := client.Status(ctx)
	if err != nil {
		return fmt.Errorf("failed to connect to Home Assistant: %w", err)
	}
	if status != homeassistant.StatusOK {
		return fmt.Errorf("home assistant status: %s", status)
	}
	logger.Info("connected to Home Assistant", "endpoint", cfg.HAEndpoint)

	capturer, err := capture.NewScreenCapturer(cfg.Display(), cfg.DownscaleWidth, logger)
	if err != nil {
		return err
	}
	logger.Info("capturing display", "display", cfg.Display(), "primary", cfg.ScreenID == nil)

	p, err := pipeline.New(cfg.PipelineConfig(), pipeline.WithLogger(logger))
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	opts := []runner.Option{
		runner.WithLogger(logger),
		runner.WithSubmitters(runner.NewHomeAssistantSubmitter(client, cfg.HATargetEntityID)),
		runner.WithObserver(func(result *pipeline.Result) {
			if result.Changed && !globalQuiet {
				printResult(out, result, cfg.ColorFormat, runPreview)
			}
		}),
	}

	var wg sync.WaitGroup
	serverErr := make(chan error, 1)

	if cfg.BroadcastAddr != "" && !runOnce {
		hub := broadcast.NewHub(logger)
		server := broadcast.NewServer(ctx, hub, logger)
		opts = append(opts, runner.WithSubmitters(hub))

		wg.Add(2)
		go func() {
			defer wg.Done()
			hub.Run(ctx)
		}()
		go func() {
			defer wg.Done()
			if err := server.ListenAndServe(ctx, cfg.BroadcastAddr); err != nil {
				serverErr <- err
				// A dead broadcast server ends the run.
				stop()
			}
		}()
	}

	loop := runner.NewLoop(capturer, p, cfg.Interval(), opts...)

	var loopErr error
	if runOnce {
		_, loopErr = loop.RunOnce(ctx)
	} else {
		loopErr = loop.Run(ctx)
	}

	stop()
	wg.Wait()

	select {
	case err := <-serverErr:
		return fmt.Errorf("broadcast server: %w", err)
	default:
	}

	if loopErr != nil && !errors.Is(loopErr, context.Canceled) {
		return loopErr
	}
	return nil
}
