package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/soyeahso/annobot/internal/config"
	"github.com/soyeahso/annobot/internal/store"
	"github.com/soyeahso/annobot/internal/version"
	"github.com/spf13/cobra"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show paths, effective configuration and catalog size",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			b := version.Current()
			fmt.Fprintf(out, "annobot %s (commit %s)\n\n", b.Version, b.Commit)

			configState := ""
			if _, err := os.Stat(paths.Config); errors.Is(err, fs.ErrNotExist) {
				configState = " (not found, using defaults)"
			}
			fmt.Fprintf(out, "Config:    %s%s\n", paths.Config, configState)
			fmt.Fprintf(out, "Logs:      %s\n", paths.Logs)
			fmt.Fprintln(out)

			g := cfg.Gateway
			fmt.Fprintf(out, "Gateway:   port=%d bind=%s auth=%s tls=%v\n", g.Port, g.Bind, g.Auth.Mode, g.TLS.Enabled)

			lo, hi := cfg.Assistant.Latency()
			timeout := "none"
			if t := cfg.Assistant.Timeout(); t > 0 {
				timeout = t.String()
			}
			fmt.Fprintf(out, "Assistant: latency=%s-%s timeout=%s annotations=%s\n", lo, hi, timeout, cfg.Assistant.Annotations)

			t := cfg.Task
			fmt.Fprintf(out, "Task:      type=%s frames=%d-%d tracking=%v\n", t.AnnotationType, t.FrameStart, t.FrameEnd, t.Tracking)

			catalog := paths.CatalogPath(cfg)
			if _, err := os.Stat(catalog); err != nil {
				fmt.Fprintf(out, "Catalog:   %s (not created)\n", catalog)
			} else if db, err := store.Open(catalog, base); err != nil {
				fmt.Fprintf(out, "Catalog:   %s (error: %v)\n", catalog, err)
			} else {
				jobs, err := db.ListJobs()
				db.Close()
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Catalog:   %s (%d jobs)\n", catalog, len(jobs))
			}

			if issues := config.Validate(&cfg); len(issues) > 0 {
				fmt.Fprintf(out, "\nValidation issues (%d):\n", len(issues))
				for _, issue := range issues {
					fmt.Fprintf(out, "  - %s\n", issue)
				}
			}
			return nil
		},
	}
}
