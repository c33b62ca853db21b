// Package cli implements the annobot command tree.
package cli

import (
	"github.com/soyeahso/annobot/internal/config"
	"github.com/soyeahso/annobot/internal/logging"
	"github.com/spf13/cobra"
)

var (
	cfgFile  string
	logLevel string

	// resolved in PersistentPreRunE
	paths config.Paths
	cfg   config.Config
	base  *logging.Logger // handed to components, which add their own subsystem
	log   *logging.Logger
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "annobot",
		Short: "annobot: conversational assistant for video annotation tasks",
		Long: "annobot turns free-text instructions like \"find all dogs\" into annotation requests\n" +
			"for the current labeling task, in a terminal chat or over the WebSocket gateway.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			paths, err = config.ResolvePaths()
			if err != nil {
				return err
			}
			if cfgFile != "" {
				paths.Config = cfgFile
			}

			cfg, err = config.Load(paths.Config)
			if err != nil {
				return err
			}
			if logLevel != "" {
				cfg.Logging.Level = logLevel
			}
			base = logging.NewStyled(cmd.ErrOrStderr(), cfg.Logging.Level, cfg.Logging.Style)
			log = base.Sub("cli")
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default ~/.annobot/config.yaml)")
	cmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error, fatal, silent)")

	cmd.AddCommand(
		newVersionCmd(),
		newChatCmd(),
		newAskCmd(),
		newServeCmd(),
		newJobsCmd(),
		newConfigCmd(),
		newStatusCmd(),
	)
	return cmd
}

// Execute runs the root command.
func Execute() error {
	return newRootCmd().Execute()
}
