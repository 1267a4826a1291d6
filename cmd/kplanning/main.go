package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"kplanning/internal/config"
	appLog "kplanning/internal/log"
	"kplanning/internal/store"
)

const version = "0.3.0"

func main() {
	// .env is optional.
	_ = godotenv.Load()

	if err := newApp().Run(os.Args); err != nil {
		appLog.Error("kplanning failed", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:    "kplanning",
		Usage:   "Personal scheduling board: day/week timeline, ideas and categories.",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Value:   "./kplanning.yaml",
				Usage:   "Path to the YAML config file (created on first run)",
				EnvVars: []string{config.EnvConfigPath},
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			agendaCommand(),
			exportCommand(),
			importCommand(),
			captureCommand(),
		},
	}
}

// loadConfig reads the config file, applies env overrides and the log
// level.
func loadConfig(c *cli.Context) (*config.Config, error) {
	path := c.String("config")
	cfg, err := config.Load(path)
	if err != nil {
		if cfg == nil {
			return nil, err
		}
		// The default config could not be written; keep going with it.
		appLog.Error("failed to write default config", err, "config_path", path)
	}
	cfg.ApplyEnv()
	appLog.SetLevel(appLog.ParseLevel(cfg.LogLevel))
	return cfg, nil
}

// openStore loads the board snapshot named by the config.
func openStore(cfg *config.Config) (*store.Store, error) {
	st := store.New()
	if err := st.Load(cfg.DataFile); err != nil {
		return nil, err
	}
	return st, nil
}

// signalContext is cancelled on SIGINT/SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case sig := <-sigCh:
			appLog.Info("signal received, shutting down", "signal", sig.String())
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}
