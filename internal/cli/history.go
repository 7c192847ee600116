package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/narrate/internal/ir"
	"github.com/roach88/narrate/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Database     string
	RunID        string
	TemplateHash string
	Status       string
	Limit        int
}

// RunView is the printed form of a recorded run.
type RunView struct {
	ID           string            `json:"id"`
	Seq          int64             `json:"seq"`
	Status       string            `json:"status"`
	TemplateHash string            `json:"template_hash"`
	RowsHash     string            `json:"rows_hash"`
	RowCount     int               `json:"row_count"`
	ValueColumns []string          `json:"value_columns"`
	Locale       string            `json:"locale"`
	Params       map[string]string `json:"params,omitempty"`
	Finding      *string           `json:"finding"`
	Findings     []string          `json:"findings"`
	ErrorCode    string            `json:"error_code,omitempty"`
	ErrorMessage string            `json:"error_message,omitempty"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded runs",
		Long: `List runs recorded by render --db, oldest first.

Filter by template content hash or status, or show one run with --id.

Examples:
  narrate history --db ./runs.db
  narrate history --db ./runs.db --status error --limit 5
  narrate history --db ./runs.db --id 01928c4e-... --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd.Context(), opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite database (required)")
	cmd.Flags().StringVar(&opts.RunID, "id", "", "show a single run")
	cmd.Flags().StringVar(&opts.TemplateHash, "template-hash", "", "only runs of this template")
	cmd.Flags().StringVar(&opts.Status, "status", "", "only runs with this status (ok|error)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "only the latest N runs")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func runHistory(ctx context.Context, opts *HistoryOptions, cmd *cobra.Command) error {
	if ctx == nil {
		ctx = context.Background()
	}
	formatter := newFormatter(opts.RootOptions, cmd)

	status := store.Status(opts.Status)
	if status != "" && status != store.StatusOK && status != store.StatusError {
		return NewExitError(ExitCommandError, fmt.Sprintf("invalid status %q: must be ok or error", opts.Status))
	}
	if opts.Limit < 0 {
		return NewExitError(ExitCommandError, "limit must not be negative")
	}

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	var runs []store.Run
	if opts.RunID != "" {
		run, err := st.ReadRun(ctx, opts.RunID)
		if errors.Is(err, store.ErrRunNotFound) {
			_ = formatter.Error("E_NOT_FOUND", fmt.Sprintf("run %s not found", opts.RunID), nil)
			return NewExitError(ExitFailure, fmt.Sprintf("run %s not found", opts.RunID))
		}
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to read run", err)
		}
		runs = []store.Run{run}
	} else {
		runs, err = st.ListRuns(ctx, store.RunFilter{
			TemplateHash: opts.TemplateHash,
			Status:       status,
			Limit:        opts.Limit,
		})
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list runs", err)
		}
	}
	formatter.VerboseLog("Found %d run(s) in %s", len(runs), opts.Database)

	views := make([]RunView, len(runs))
	for i, r := range runs {
		views[i] = newRunView(r)
	}

	if formatter.Format == "json" {
		return formatter.Success(views)
	}
	if opts.RunID != "" {
		printRunDetail(formatter.Writer, views[0])
		return nil
	}
	return printRunTable(formatter.Writer, views)
}

func newRunView(r store.Run) RunView {
	v := RunView{
		ID:           r.ID,
		Seq:          r.Seq,
		Status:       string(r.Status),
		TemplateHash: r.TemplateHash,
		RowsHash:     r.RowsHash,
		RowCount:     r.RowCount,
		ValueColumns: r.ValueColumns,
		Locale:       r.Locale,
		Findings:     r.Findings,
		ErrorCode:    string(r.ErrorCode),
		ErrorMessage: r.ErrorMessage,
	}
	if r.HasFinding {
		finding := r.Finding
		v.Finding = &finding
	}
	if len(r.Params) > 0 {
		v.Params = make(map[string]string, len(r.Params))
		for k, p := range r.Params {
			v.Params[k] = ir.Text(p)
		}
	}
	return v
}

func printRunTable(w io.Writer, views []RunView) error {
	if len(views) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tID\tSTATUS\tTEMPLATE\tROWS\tRESULT")
	for _, v := range views {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\n", v.Seq, v.ID, v.Status, short(v.TemplateHash), v.RowCount, summary(v))
	}
	return tw.Flush()
}

func printRunDetail(w io.Writer, v RunView) {
	fmt.Fprintf(w, "Run %s (seq %d)\n", v.ID, v.Seq)
	fmt.Fprintf(w, "  status:        %s\n", v.Status)
	fmt.Fprintf(w, "  template:      %s\n", v.TemplateHash)
	fmt.Fprintf(w, "  rows:          %s (%d)\n", v.RowsHash, v.RowCount)
	fmt.Fprintf(w, "  value columns: %v\n", v.ValueColumns)
	fmt.Fprintf(w, "  locale:        %s\n", v.Locale)
	keys := make([]string, 0, len(v.Params))
	for k := range v.Params {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		fmt.Fprintf(w, "  param %s = %s\n", k, v.Params[k])
	}
	if v.Status == string(store.StatusError) {
		fmt.Fprintf(w, "  error:         %s: %s\n", v.ErrorCode, v.ErrorMessage)
		return
	}
	for i, f := range v.Findings {
		fmt.Fprintf(w, "  [%d] %s\n", i+1, f)
	}
}

func short(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}

// summary is the last column of the run table: the error code, or the
// first line of the finding cut to a readable width.
func summary(v RunView) string {
	if v.ErrorCode != "" {
		return v.ErrorCode
	}
	if v.Finding == nil {
		return "(no finding)"
	}
	s := []rune(*v.Finding)
	for i, r := range s {
		if r == '\n' {
			s = s[:i]
			break
		}
	}
	if len(s) > 60 {
		return string(s[:57]) + "..."
	}
	return string(s)
}
