package cli

import (
	"errors"
	"strings"

	"github.com/soyeahso/annobot/internal/assistant"
	"github.com/soyeahso/annobot/internal/domain"
	"github.com/soyeahso/annobot/internal/hooks"
	"github.com/soyeahso/annobot/internal/task"
	"github.com/spf13/cobra"
)

func newAskCmd() *cobra.Command {
	var (
		annotationType string
		from, to       int
		track          bool
		labels         []string
		jobID          string
		instant        bool
		plain          bool
	)

	cmd := &cobra.Command{
		Use:   "ask <instruction>",
		Short: "Send one instruction and print the reply",
		Example: `  annobot ask "Detect and segment all cats" --type polygon --from 10 --to 50 --track
  annobot ask "how does tracking work?" --instant`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			hookMgr := hooks.NewManager(base)
			opts, err := sessionOptions(cfg, hookMgr)
			if err != nil {
				return err
			}
			if instant {
				opts.LatencyMin, opts.LatencyMax = 0, 0
			}
			sess := assistant.New(opts, base)
			defer sess.Close()

			con := newConsole(sess, hookMgr, cmd.OutOrStdout(), plain)
			if jobID != "" {
				db, err := openCatalog()
				if err != nil {
					return err
				}
				defer db.Close()
				if err := con.bindJob(ctx, db, jobID); err != nil {
					return err
				}
			}

			// Flags are applied after the job so they override its bounds.
			var p task.Patch
			flags := cmd.Flags()
			if flags.Changed("type") {
				t, err := domain.ParseAnnotationType(annotationType)
				if err != nil {
					return err
				}
				p.AnnotationType = &t
			}
			if flags.Changed("from") {
				p.FrameStart = &from
			}
			if flags.Changed("to") {
				p.FrameEnd = &to
			}
			if flags.Changed("track") {
				p.EnableTracking = &track
			}
			if flags.Changed("labels") {
				ids := resolveLabels(sess.Labels(), labels)
				p.SelectedLabels = &ids
			}
			if !p.Empty() {
				if _, err := sess.UpdateConfig(p); err != nil {
					return err
				}
			}

			err = con.send(ctx, strings.Join(args, " "))
			if errors.Is(err, assistant.ErrEmptySubmission) {
				return errors.New("instruction is empty")
			}
			return err
		},
	}

	cmd.Flags().StringVar(&annotationType, "type", "", "annotation type")
	cmd.Flags().IntVar(&from, "from", 0, "first frame")
	cmd.Flags().IntVar(&to, "to", 0, "last frame")
	cmd.Flags().BoolVar(&track, "track", false, "enable object tracking")
	cmd.Flags().StringSliceVar(&labels, "labels", nil, "restrict to these label ids or names")
	cmd.Flags().StringVar(&jobID, "job", "", "bind to a catalog job first")
	cmd.Flags().BoolVar(&instant, "instant", false, "skip the simulated backend latency")
	cmd.Flags().BoolVar(&plain, "plain", false, "print the reply without styling")
	return cmd
}
