package main

import (
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"scribe/internal/config"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		if err := cfg.EnsureDirectories(); err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func newRootCommand() *cobra.Command {
	var configFlag string

	root := &cobra.Command{
		Use:           "scribe",
		Short:         "Batch caption track fetcher",
		Long:          "Scribe batch-fetches caption tracks for video collections, resuming across runs and slowing down when the remote service pushes back.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&configFlag, "config", "", "Path to the configuration file")

	ctx := newCommandContext(&configFlag)

	root.AddCommand(newRunCommand(ctx))
	root.AddCommand(newConfigCommand(ctx))
	root.AddCommand(newLedgerCommand(ctx))
	root.AddCommand(newReportCommand(ctx))
	root.AddCommand(newDoctorCommand(ctx))

	return root
}
