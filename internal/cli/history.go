package cli

import (
	"fmt"
	"io/fs"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/hpmdl/internal/store"
)

// HistoryOptions holds flags for the history command.
type HistoryOptions struct {
	*RootOptions
	Registry string
	Source   string
	Limit    int
}

// HistoryEntry is one registry entry in command output.
type HistoryEntry struct {
	Seq        int64    `json:"seq"`
	ID         string   `json:"id"`
	Source     string   `json:"source"`
	SourceHash string   `json:"source_hash"`
	IRHash     string   `json:"ir_hash"`
	EntryPoint string   `json:"entry_point"`
	Operators  int      `json:"operators"`
	JobID      string   `json:"job_id,omitempty"`
	OutDir     string   `json:"out_dir"`
	Compiler   string   `json:"compiler_version"`
	IRVersion  string   `json:"ir_version"`
	Artifacts  []string `json:"artifacts"`
}

// HistoryResult lists entries in sequence order.
type HistoryResult struct {
	Registry     string         `json:"registry"`
	Compilations []HistoryEntry `json:"compilations"`
}

// NewHistoryCommand creates the history command.
func NewHistoryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &HistoryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded compilations",
		Long: `List compilations recorded in the registry, oldest first.

The registry is the SQLite database written by "hpmc compile --registry"
or the registry.path config setting.

Example:
  hpmc history --registry hpmc.db
  hpmc history --source models/ising.hpm --limit 5`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Registry, "registry", "", "registry database (default from config)")
	cmd.Flags().StringVar(&opts.Source, "source", "", "only entries compiled from this path")
	cmd.Flags().IntVarP(&opts.Limit, "limit", "n", 0, "show only the latest N entries (0 for all)")

	return cmd
}

func runHistory(opts *HistoryOptions, cmd *cobra.Command) error {
	s, err := newSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}

	path := s.cfg.Registry.Path
	if opts.Registry != "" {
		path = opts.Registry
	}
	if path == "" {
		return s.out.Fail(ExitCommandError, &LoadError{
			Code:    ErrCodeGeneric,
			Message: "no registry configured: pass --registry or set registry.path",
		})
	}
	if opts.Limit < 0 {
		return s.out.Fail(ExitCommandError, &LoadError{
			Code:    ErrCodeGeneric,
			Message: fmt.Sprintf("--limit must not be negative, got %d", opts.Limit),
		})
	}
	// Opening would create the database; a missing registry is an error.
	if _, err := os.Stat(path); err != nil {
		return s.out.Fail(ExitCommandError, &LoadError{
			Code:    ErrCodeNotFound,
			Message: fmt.Sprintf("registry not found: %s", path),
			Err:     fs.ErrNotExist,
		})
	}

	st, err := store.Open(path)
	if err != nil {
		return s.out.Fail(ExitCommandError, fmt.Errorf("opening registry: %w", err))
	}
	defer func() {
		if closeErr := st.Close(); closeErr != nil {
			s.logger.Error("error closing registry", "error", closeErr)
		}
	}()

	list, err := st.List(commandContext(cmd), opts.Source, opts.Limit)
	if err != nil {
		return s.out.Fail(ExitCommandError, err)
	}

	result := &HistoryResult{Registry: path, Compilations: make([]HistoryEntry, 0, len(list))}
	for _, c := range list {
		result.Compilations = append(result.Compilations, historyEntry(c))
	}
	return outputHistory(s.out, result)
}

func historyEntry(c store.Compilation) HistoryEntry {
	e := HistoryEntry{
		Seq:        c.Seq,
		ID:         c.ID,
		Source:     c.SourcePath,
		SourceHash: c.SourceHash,
		IRHash:     c.IRHash,
		EntryPoint: c.EntryPoint,
		Operators:  c.OperatorCount,
		JobID:      c.JobID,
		OutDir:     c.OutputDir,
		Compiler:   c.CompilerVersion,
		IRVersion:  c.IRVersion,
		Artifacts:  make([]string, 0, len(c.Artifacts)),
	}
	for _, a := range c.Artifacts {
		e.Artifacts = append(e.Artifacts, a.Name)
	}
	return e
}

func outputHistory(formatter *OutputFormatter, result *HistoryResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	if len(result.Compilations) == 0 {
		fmt.Fprintf(formatter.Writer, "No compilations recorded in %s\n", result.Registry)
		return nil
	}

	tw := tabwriter.NewWriter(formatter.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "SEQ\tID\tIR HASH\tOPERATORS\tSOURCE")
	for _, e := range result.Compilations {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%d\t%s\n", e.Seq, short(e.ID), short(e.IRHash), e.Operators, e.Source)
	}
	return tw.Flush()
}

// short abbreviates a hash for display.
func short(hash string) string {
	if len(hash) > 12 {
		return hash[:12]
	}
	return hash
}
