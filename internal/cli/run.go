package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/popframe/internal/harness"
	"github.com/roach88/popframe/internal/store"
	"github.com/roach88/popframe/internal/verdict"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	Count              int
	Database           string
	JoinTimeout        time.Duration
	WatchNotifications bool

	// IDGenerator allows overriding the journal's run ID generator (for
	// testing). If nil, the store's UUIDv7 generator is used.
	IDGenerator store.IDGenerator
}

// RunSummary is the JSON form of one run.
type RunSummary struct {
	ID            string            `json:"id,omitempty"`
	Code          string            `json:"code"`
	Outcome       string            `json:"outcome"`
	Message       string            `json:"message,omitempty"`
	Entries       int               `json:"entries"`
	Fields        map[string]string `json:"fields,omitempty"`
	Notifications int               `json:"notifications"`
	Steps         []harness.Step    `json:"steps"`
}

// RunReport is the JSON payload of the run command.
type RunReport struct {
	Code       string       `json:"code"`
	ExitStatus int          `json:"exit_status"`
	Consistent bool         `json:"consistent"`
	Runs       []RunSummary `json:"runs"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the frame-pop check",
		Long: `Run the frame-pop check: start the subject, suspend it inside the
instrumented method, pop the frame, resume it and verify the global fields.

With --count N, N independent instances run concurrently and must agree on
their verdict and field values.

Exit codes:
  95 - PASSED
  97 - FAILED (including incomplete runs and disagreeing instances)
  2  - Command error (invalid flags, database errors)

Example:
  popframe run
  popframe run --count 4 --db ./journal.db
  popframe run --join-timeout 5s --watch-notifications --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHarness(opts, cmd)
		},
	}

	cmd.Flags().IntVar(&opts.Count, "count", 1, "number of independent runs")
	cmd.Flags().StringVar(&opts.Database, "db", "", "journal runs to this SQLite database")
	cmd.Flags().DurationVar(&opts.JoinTimeout, "join-timeout", harness.DefaultJoinTimeout, "bound on each wait for the subject")
	cmd.Flags().BoolVar(&opts.WatchNotifications, "watch-notifications", false, "fail if the pop posts a notification")

	return cmd
}

func runHarness(opts *RunOptions, cmd *cobra.Command) error {
	if opts.Count < 1 {
		return NewExitError(ExitCommandError, fmt.Sprintf("--count must be positive, got %d", opts.Count))
	}

	logger := newLogger(opts.RootOptions)
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	var st *store.Store
	if opts.Database != "" {
		logger.Info("opening journal", "path", opts.Database)
		var err error
		st, err = store.Open(opts.Database)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				logger.Error("error closing database", "error", closeErr)
			}
		}()
		if opts.IDGenerator != nil {
			st.WithIDGenerator(opts.IDGenerator)
		}
	}

	ctx, cancel := signalContext(cmd, logger)
	defer cancel()

	// A single text-mode run streams its narrative; concurrent runs are
	// buffered so their narratives do not interleave.
	stream := opts.Count == 1 && opts.Format == "text"
	outs := make([]*bytes.Buffer, opts.Count)
	results, err := harness.RunMany(ctx, opts.Count, func(i int) harness.Config {
		cfg := harness.Config{
			Logger:             logger.With("run", i),
			JoinTimeout:        opts.JoinTimeout,
			WatchNotifications: opts.WatchNotifications,
		}
		if opts.Count > 1 {
			cfg.ThreadName = fmt.Sprintf("%s #%d", harness.DefaultThreadName, i+1)
		}
		if stream {
			cfg.Out = cmd.OutOrStdout()
		} else {
			outs[i] = &bytes.Buffer{}
			cfg.Out = outs[i]
		}
		return cfg
	})
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to run harness", err)
	}

	report := RunReport{Code: verdict.Passed.String(), Consistent: true}
	worst := verdict.Passed
	for _, r := range results {
		summary := summarize(r)
		if st != nil {
			id, err := st.WriteRun(ctx, store.NewRun("", r))
			if err != nil {
				return WrapExitError(ExitCommandError, "failed to journal run", err)
			}
			logger.Info("journalled run", "id", id, "code", r.Code)
			summary.ID = id
		}
		report.Runs = append(report.Runs, summary)
		if !r.Pass() {
			worst = verdict.Failed
		}
	}

	var inconsistency error
	if opts.Count > 1 {
		if inconsistency = harness.CheckConsistent(results); inconsistency != nil {
			report.Consistent = false
			worst = verdict.Failed
		}
	}
	report.Code = worst.String()
	report.ExitStatus = worst.ExitStatus()

	if opts.Format == "json" {
		if opts.Verbose {
			writeNarratives(formatter.GetErrWriter(), outs)
		}
		var outErr error
		switch {
		case inconsistency != nil:
			outErr = formatter.Failure(ErrCodeInconsistent, inconsistency.Error(), report)
		case worst != verdict.Passed:
			outErr = formatter.Failure(ErrCodeRunFailed, "run failed", report)
		default:
			outErr = formatter.Success(report)
		}
		if outErr != nil {
			return WrapExitError(ExitCommandError, "failed to write output", outErr)
		}
		return StatusError(worst)
	}

	w := cmd.OutOrStdout()
	writeNarratives(w, outs)
	if inconsistency != nil {
		fmt.Fprintf(w, "TEST FAILED: runs disagree: %v\n", inconsistency)
	}
	fmt.Fprintf(w, "%s (exit status %d)\n", worst, worst.ExitStatus())
	return StatusError(worst)
}

func summarize(r *harness.Result) RunSummary {
	s := RunSummary{
		Code:          r.Code.String(),
		Outcome:       string(r.Outcome),
		Message:       r.Message,
		Entries:       r.Entries,
		Notifications: r.Notifications,
		Steps:         r.Steps,
	}
	if r.Joined {
		s.Fields = r.Fields.Values()
	}
	return s
}

// writeNarratives prints buffered run narratives, each under a header when
// there is more than one.
func writeNarratives(w io.Writer, outs []*bytes.Buffer) {
	for i, buf := range outs {
		if buf == nil {
			continue
		}
		if len(outs) > 1 {
			fmt.Fprintf(w, "=== run %d ===\n", i+1)
		}
		w.Write(buf.Bytes())
	}
}

// signalContext derives a context from the command's context that is
// cancelled on SIGINT or SIGTERM.
func signalContext(cmd *cobra.Command, logger *slog.Logger) (context.Context, context.CancelFunc) {
	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigChan) // Prevent signal handler leak
		select {
		case sig := <-sigChan:
			logger.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()
	return ctx, cancel
}
