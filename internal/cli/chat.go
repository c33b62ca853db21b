package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os/signal"
	"strings"
	"syscall"

	"github.com/soyeahso/annobot/internal/assistant"
	"github.com/soyeahso/annobot/internal/hooks"
	"github.com/spf13/cobra"
)

func newChatCmd() *cobra.Command {
	var (
		jobID   string
		instant bool
		plain   bool
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Chat with the annotation assistant",
		Long:  "Start an interactive session. Lines starting with / are commands; /help lists them.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			hookMgr := hooks.NewManager(base)
			opts, err := sessionOptions(cfg, hookMgr)
			if err != nil {
				return err
			}
			if instant {
				opts.LatencyMin, opts.LatencyMax = 0, 0
			}
			plugins, err := startPlugins(ctx, hookMgr)
			if err != nil {
				return err
			}
			defer plugins.CloseAll()

			sess := assistant.New(opts, base)
			defer sess.Close()

			con := newConsole(sess, hookMgr, cmd.OutOrStdout(), plain)
			for _, msg := range sess.Messages() {
				con.printMessage(msg)
			}
			if jobID != "" {
				db, err := openCatalog()
				if err != nil {
					return err
				}
				defer db.Close()
				if err := con.bindJob(ctx, db, jobID); err != nil {
					return fmt.Errorf("binding job %s: %w", jobID, err)
				}
			}

			return chatLoop(ctx, con, bufio.NewScanner(cmd.InOrStdin()))
		},
	}

	cmd.Flags().StringVar(&jobID, "job", "", "bind the session to a catalog job")
	cmd.Flags().BoolVar(&instant, "instant", false, "skip the simulated backend latency")
	cmd.Flags().BoolVar(&plain, "plain", false, "print replies without styling")
	return cmd
}

func chatLoop(ctx context.Context, con *console, in *bufio.Scanner) error {
	for {
		fmt.Fprint(con.out, "> ")
		if !in.Scan() {
			fmt.Fprintln(con.out)
			return in.Err()
		}

		line := strings.TrimSpace(in.Text())
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, "/"):
			if con.command(line) {
				return nil
			}
			continue
		}

		con.note("thinking...")
		err := con.send(ctx, line)
		switch {
		case errors.Is(err, context.Canceled):
			return nil
		case err != nil:
			log.Debug().Err(err).Msg("turn did not succeed")
		}
	}
}
