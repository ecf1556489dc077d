package main

import (
	"fmt"
	"strconv"
	"strings"

	"timetracker/internal"
	"timetracker/internal/task"
	"timetracker/internal/tracker"

	"github.com/spf13/cobra"
)

func newListCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List all tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTracker(cmd, opts, false, func(tr *tracker.Tracker) error {
				out := cmd.OutOrStdout()
				if tr.Len() == 0 {
					fmt.Fprintln(out, "No tasks found.")
					return nil
				}
				for _, t := range tr.Tasks() {
					printTask(cmd, t)
				}
				return nil
			})
		},
	}
}

func newAddCmd(opts *options) *cobra.Command {
	var start bool

	cmd := &cobra.Command{
		Use:   "add [NAME...]",
		Short: "Add a task",
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTracker(cmd, opts, true, func(tr *tracker.Tracker) error {
				t := tr.AddTask(strings.Join(args, " "))
				if start {
					if err := tr.Toggle(t); err != nil {
						return err
					}
				}
				printTask(cmd, t)
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&start, "start", "s", false, "start the task right away")
	return cmd
}

func newToggleCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "toggle ID",
		Short: "Start a paused task or pause a running one",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTracker(cmd, opts, true, func(tr *tracker.Tracker) error {
				t, err := findArg(tr, args[0])
				if err != nil {
					return err
				}
				if err := tr.Toggle(t); err != nil {
					return err
				}
				printTask(cmd, t)
				return nil
			})
		},
	}
}

func newRmCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "rm ID",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTracker(cmd, opts, true, func(tr *tracker.Tracker) error {
				t, err := findArg(tr, args[0])
				if err != nil {
					return err
				}
				if err := tr.Delete(t); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted task %d (%s)\n", t.ID, t.Name)
				return nil
			})
		},
	}
}

func newExportCmd(opts *options) *cobra.Command {
	return &cobra.Command{
		Use:   "export",
		Short: "Print the saved tasks as JSON",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withTracker(cmd, opts, false, func(tr *tracker.Tracker) error {
				data, err := tr.Encode()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			})
		},
	}
}

// withTracker loads the saved tasks, runs fn and, for mutating commands,
// writes the result back.
func withTracker(cmd *cobra.Command, opts *options, save bool, fn func(*tracker.Tracker) error) error {
	cfg, err := loadConfig(opts)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	tr, db, err := openTracker(ctx, cfg, false)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := fn(tr); err != nil {
		return err
	}
	if save {
		return tr.Persist(ctx)
	}
	return nil
}

func findArg(tr *tracker.Tracker, arg string) (*task.Task, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid task id %q", arg)
	}
	return tr.Find(id)
}

func printTask(cmd *cobra.Command, t *task.Task) {
	status := "paused"
	if t.Running() {
		status = "running"
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%3d  %-7s  %8s  %s\n", t.ID, status, internal.FormatDuration(t.Elapsed()), t.Name)
}
