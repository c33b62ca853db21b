package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/soyeahso/annobot/internal/domain"
	"github.com/spf13/cobra"
)

func newJobsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "jobs",
		Short: "Manage the job and label catalog",
	}

	cmd.AddCommand(newJobsAddCmd())
	cmd.AddCommand(newJobsListCmd())
	cmd.AddCommand(newJobsRemoveCmd())
	cmd.AddCommand(newJobsLabelsCmd())
	cmd.AddCommand(newJobsLabelAddCmd())
	return cmd
}

func newJobsAddCmd() *cobra.Command {
	var (
		id         string
		start, end int
	)

	cmd := &cobra.Command{
		Use:   "add <name>",
		Short: "Add or update a job",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			job := domain.Job{ID: id, Name: args[0]}
			if cmd.Flags().Changed("start") {
				job.StartFrame = &start
			}
			if cmd.Flags().Changed("stop") {
				job.StopFrame = &end
			}

			db, err := openCatalog()
			if err != nil {
				return err
			}
			defer db.Close()

			job, err = db.AddJob(job)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Added job %s (%s)\n", job.ID, job.Name)
			return nil
		},
	}

	cmd.Flags().StringVar(&id, "id", "", "job id (generated when empty)")
	cmd.Flags().IntVar(&start, "start", 0, "first frame of the job")
	cmd.Flags().IntVar(&end, "stop", 0, "last frame of the job")
	return cmd
}

func newJobsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List catalog jobs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openCatalog()
			if err != nil {
				return err
			}
			defer db.Close()

			jobs, err := db.ListJobs()
			if err != nil {
				return err
			}
			if len(jobs) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No jobs.")
				return nil
			}

			t := table.New().
				Border(lipgloss.NormalBorder()).
				Headers("ID", "NAME", "START", "STOP")
			for _, j := range jobs {
				t.Row(j.ID, j.Name, bound(j.StartFrame), bound(j.StopFrame))
			}
			fmt.Fprintln(cmd.OutOrStdout(), t.Render())
			return nil
		},
	}
}

func newJobsRemoveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "remove <job-id>",
		Short: "Remove a job and its labels",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openCatalog()
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.DeleteJob(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed job %s\n", args[0])
			return nil
		},
	}
}

func newJobsLabelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "labels <job-id>",
		Short: "List a job's labels",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openCatalog()
			if err != nil {
				return err
			}
			defer db.Close()

			if _, err := db.GetJob(args[0]); err != nil {
				return err
			}
			labels, err := db.Labels(args[0])
			if err != nil {
				return err
			}
			for _, l := range labels {
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", l.ID, l.Name)
			}
			return nil
		},
	}
}

func newJobsLabelAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "label-add <job-id> <name>...",
		Short: "Add labels to a job",
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			db, err := openCatalog()
			if err != nil {
				return err
			}
			defer db.Close()

			for _, name := range args[1:] {
				l, err := db.AddLabel(args[0], name)
				if err != nil {
					return fmt.Errorf("adding label %q: %w", name, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Added label %s (%s)\n", l.ID, l.Name)
			}
			return nil
		},
	}
}

func bound(v *int) string {
	if v == nil {
		return "-"
	}
	return fmt.Sprint(*v)
}
