// Package cli implements petstopctl, the operator command line.
package cli

import (
	"context"
	"errors"
	"io"
	"os"

	"petstop/backend/pkg/config"
	"petstop/backend/pkg/logger"

	"github.com/spf13/cobra"
)

// Config configures the root command
type Config struct {
	OutputWriter io.Writer
	// LoadConfig reads application configuration. Defaults to config.Load.
	LoadConfig func() (*config.Config, error)
}

type runtimeState struct {
	cfg    *config.Config
	log    *logger.Logger
	writer io.Writer
}

type runtimeKey struct{}

// DefaultConfig returns the configuration used by the binary
func DefaultConfig() Config {
	return Config{
		OutputWriter: os.Stdout,
		LoadConfig:   config.Load,
	}
}

// NewRootCommand builds the petstopctl command tree
func NewRootCommand(cfg Config) *cobra.Command {
	if cfg.LoadConfig == nil {
		cfg.LoadConfig = config.Load
	}
	rt := &runtimeState{writer: cfg.OutputWriter}

	root := &cobra.Command{
		Use:           "petstopctl",
		Short:         "PetStop backend operator tool",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if rt.writer == nil {
				rt.writer = os.Stdout
			}

			appCfg, err := cfg.LoadConfig()
			if err != nil {
				return err
			}
			rt.cfg = appCfg

			logConfig := logger.DefaultConfig()
			logConfig.Level = appCfg.Logging.Level
			logConfig.JSON = appCfg.Logging.Format != "text"
			logConfig.Output = cmd.ErrOrStderr()
			rt.log = logger.New(logConfig)
			return nil
		},
	}

	root.SetOut(cfg.OutputWriter)
	root.SetContext(context.WithValue(context.Background(), runtimeKey{}, rt))

	root.AddCommand(
		NewMigrateCommand(),
		NewTokenCommand(),
		NewRateLimitCommand(),
	)

	return root
}

func getRuntime(cmd *cobra.Command) (*runtimeState, error) {
	rt, ok := cmd.Context().Value(runtimeKey{}).(*runtimeState)
	if !ok || rt == nil {
		return nil, errors.New("runtime not initialized")
	}
	return rt, nil
}
