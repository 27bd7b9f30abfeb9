package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/popframe/internal/store"
	"github.com/roach88/popframe/internal/subject"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database string
	Scenario string
	Limit    int
	RunID    string
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List journalled runs",
		Long: `List the runs journalled by "popframe run --db" and
"popframe test --db", oldest first.

With --id, show one run including its controller trace.

Example:
  popframe history --db ./journal.db
  popframe history --db ./journal.db --limit 5 --format json
  popframe history --db ./journal.db --scenario pop-fails
  popframe history --db ./journal.db --id 0190b6e2-...`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().StringVar(&opts.Scenario, "scenario", "", "show only runs of this scenario")
	cmd.Flags().IntVar(&opts.Limit, "limit", 20, "show only the most recent N runs (0 for all)")
	cmd.Flags().StringVar(&opts.RunID, "id", "", "show a single run with its steps")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		_ = formatter.Error(ErrCodeDatabase, "failed to open database", err.Error())
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	if opts.RunID != "" {
		return showRun(ctx, st, opts.RunID, formatter)
	}

	runs, err := st.ListRuns(ctx, opts.Scenario, opts.Limit)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list runs", err)
	}
	formatter.VerboseLog("%d run(s) in %s", len(runs), opts.Database)

	if opts.Format == "json" {
		return formatter.Success(runs)
	}

	w := cmd.OutOrStdout()
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs journalled.")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tID\tSCENARIO\tCODE\tOUTCOME\tMESSAGE")
	for _, r := range runs {
		scenario := r.Scenario
		if scenario == "" {
			scenario = "-"
		}
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\n", r.Seq, r.ID, scenario, r.Code, r.Outcome, firstLine(r.Message))
	}
	return tw.Flush()
}

func showRun(ctx context.Context, st *store.Store, id string, formatter *OutputFormatter) error {
	run, err := st.GetRun(ctx, id)
	if errors.Is(err, store.ErrRunNotFound) {
		_ = formatter.Error(ErrCodeRunNotFound, fmt.Sprintf("run %s not found", id), nil)
		return NewExitError(ExitCommandError, "")
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read run", err)
	}

	if formatter.Format == "json" {
		return formatter.Success(run)
	}

	w := formatter.Writer
	fmt.Fprintf(w, "Run %s (seq %d)\n", run.ID, run.Seq)
	fmt.Fprintf(w, "  Code:    %s\n", run.Code)
	fmt.Fprintf(w, "  Outcome: %s\n", run.Outcome)
	if run.Message != "" {
		fmt.Fprintf(w, "  Message: %s\n", strings.ReplaceAll(run.Message, "\n", "\n           "))
	}
	if run.Joined {
		fmt.Fprintf(w, "  Entries: %d\n", run.Entries)
		fmt.Fprintln(w, "  Fields:")
		for _, name := range subject.FieldNames {
			if v, ok := run.Fields[name]; ok {
				fmt.Fprintf(w, "    %s=%s\n", name, v)
			}
		}
	}
	fmt.Fprintln(w, "  Steps:")
	for _, s := range run.Steps {
		if s.Status != "" {
			fmt.Fprintf(w, "    [%d] %s -> %s\n", s.Seq, s.Op, s.Status)
		} else {
			fmt.Fprintf(w, "    [%d] %s\n", s.Seq, s.Op)
		}
	}
	return nil
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i] + " ..."
	}
	return s
}
