package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/soyeahso/annobot/internal/config"
	"github.com/soyeahso/annobot/internal/gateway"
	"github.com/soyeahso/annobot/internal/hooks"
	"github.com/spf13/cobra"
)

func newServeCmd() *cobra.Command {
	var (
		port      int
		bind      string
		noCatalog bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the WebSocket gateway",
		Long:  "Start the gateway. Every WebSocket connection gets its own assistant session.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if port != 0 {
				cfg.Gateway.Port = port
			}
			if bind != "" {
				cfg.Gateway.Bind = bind
			}

			if issues := config.Validate(&cfg); len(issues) > 0 {
				for _, issue := range issues {
					log.Error().Str("path", issue.Path).Msg(issue.Message)
				}
				return fmt.Errorf("config validation failed with %d issue(s)", len(issues))
			}

			hookMgr := hooks.NewManager(base)
			sessOpts, err := sessionOptions(cfg, hookMgr)
			if err != nil {
				return err
			}

			opts := []gateway.ServerOption{
				gateway.WithHooks(hookMgr),
				gateway.WithSessionOptions(sessOpts),
			}
			if !noCatalog {
				db, err := openCatalog()
				if err != nil {
					return err
				}
				defer db.Close()
				opts = append(opts, gateway.WithCatalog(db))
				log.Info().Str("path", paths.CatalogPath(cfg)).Msg("job catalog ready")
			}

			// Block until SIGINT/SIGTERM
			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			plugins, err := startPlugins(ctx, hookMgr)
			if err != nil {
				return err
			}
			defer plugins.CloseAll()

			return gateway.New(cfg, base, opts...).Start(ctx)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "override gateway port")
	cmd.Flags().StringVar(&bind, "bind", "", "override bind mode (auto, lan, loopback, custom)")
	cmd.Flags().BoolVar(&noCatalog, "no-catalog", false, "serve without the job catalog (job.bind accepts inline jobs only)")
	return cmd
}
