package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/hpmdl/internal/artifact"
	"github.com/roach88/hpmdl/internal/codegen"
	"github.com/roach88/hpmdl/internal/compiler"
	"github.com/roach88/hpmdl/internal/ir"
	"github.com/roach88/hpmdl/internal/store"
	"github.com/roach88/hpmdl/internal/watch"
)

// Publisher uploads a written bundle. *artifact.S3Publisher implements it.
type Publisher interface {
	Publish(ctx context.Context, dir string, m *artifact.Manifest) ([]string, error)
}

// CompileOptions holds flags for the compile command.
type CompileOptions struct {
	*RootOptions
	Output   string // IR copy path; single input only
	OutDir   string // overrides output.dir
	Catalog  bool   // overrides output.catalog when set on the command line
	Numeric  bool   // overrides output.numeric when set on the command line
	Job      bool   // overrides output.job when set on the command line
	Registry string // overrides registry.path
	Watch    bool
	Upload   bool

	// IDs overrides the job id generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	IDs codegen.IDGenerator

	// Now overrides the artifact clock (for testing).
	Now func() time.Time

	// Publisher overrides the S3 publisher built from config (for testing).
	Publisher Publisher
}

// CompileSummary describes one compiled input.
type CompileSummary struct {
	Source      string                     `json:"source"`
	IRHash      string                     `json:"ir_hash"`
	EntryPoint  string                     `json:"entry_point"`
	Operators   int                        `json:"operators"`
	JobID       string                     `json:"job_id,omitempty"`
	OutDir      string                     `json:"out_dir"`
	Artifacts   []string                   `json:"artifacts"`
	IROutput    string                     `json:"ir_output,omitempty"`
	RegistryID  string                     `json:"registry_id,omitempty"`
	Uploaded    []string                   `json:"uploaded,omitempty"`
	Diagnostics []compiler.ValidationError `json:"diagnostics,omitempty"`
}

// CompilationResult holds one summary per input, in input order.
type CompilationResult struct {
	Compilations []CompileSummary `json:"compilations"`
}

// NewCompileCommand creates the compile command.
func NewCompileCommand(rootOpts *RootOptions) *cobra.Command {
	return newCompileCommand(&CompileOptions{RootOptions: rootOpts})
}

func newCompileCommand(opts *CompileOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "compile <input...>",
		Short: "Compile HPM-DL programs to IR and runtime artifacts",
		Long: `Compile HPM-DL programs to the versioned IR and write the artifact bundle:
ir.json, catalog.json, catalog.cbor, numeric.cbor, job.json, report.json and
manifest.json.

Inputs are files or doublestar patterns. With one input the bundle goes
to the output directory; with several, each goes to a subdirectory that
mirrors the input's path below their common directory, without the
extension.

Example:
  hpmc compile models/ising.hpm
  hpmc compile 'models/**/*.hpm' --out-dir dist --registry hpmc.db
  hpmc compile models/ising.hpm --watch`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true, // Don't print usage on errors - we handle our own error output
		SilenceErrors: true, // Don't print errors - we handle our own error output
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCompile(opts, args, cmd)
		},
	}

	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "also write the IR to this file (single input only)")
	cmd.Flags().StringVar(&opts.OutDir, "out-dir", "", "artifact directory (default from config: build)")
	cmd.Flags().BoolVar(&opts.Catalog, "catalog", true, "write the operator catalog")
	cmd.Flags().BoolVar(&opts.Numeric, "numeric", true, "write the operator numeric specs")
	cmd.Flags().BoolVar(&opts.Job, "job", true, "write the job descriptor")
	cmd.Flags().StringVar(&opts.Registry, "registry", "", "record compilations in this SQLite database")
	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "recompile when inputs change")
	cmd.Flags().BoolVar(&opts.Upload, "upload", false, "upload artifacts to the configured S3 bucket")

	return cmd
}

func runCompile(opts *CompileOptions, args []string, cmd *cobra.Command) error {
	s, err := newSession(opts.RootOptions, cmd)
	if err != nil {
		return err
	}

	inputs, err := LoadInputs(args)
	if err != nil {
		return s.out.Fail(ExitCommandError, err)
	}
	if opts.Output != "" && len(inputs) > 1 {
		return s.out.Fail(ExitCommandError, &LoadError{
			Code:    ErrCodeGeneric,
			Message: fmt.Sprintf("--output needs a single input, got %d", len(inputs)),
		})
	}

	run, err := newCompileRun(opts, s, cmd, inputs)
	if err != nil {
		return s.out.Fail(ExitCommandError, err)
	}
	defer run.Close()

	ctx := commandContext(cmd)
	s.out.VerboseLog("Compiling %d input(s)", len(inputs))

	var summaries []CompileSummary
	var failure error
	for _, path := range inputs {
		summary, err := run.compile(ctx, path)
		if err != nil {
			failure = err
			break
		}
		summaries = append(summaries, *summary)
	}

	if !opts.Watch {
		if failure != nil {
			return s.out.Fail(ExitCommandError, failure)
		}
		return outputCompileSuccess(s.out, &CompilationResult{Compilations: summaries})
	}

	if failure != nil {
		_ = s.out.Fail(ExitCommandError, failure)
	} else {
		_ = outputCompileSuccess(s.out, &CompilationResult{Compilations: summaries})
	}
	return run.watch(ctx, inputs)
}

// compileRun carries what one compile invocation resolved from flags and
// config, shared by every input and every watch rebuild.
type compileRun struct {
	opts     *CompileOptions
	out      *OutputFormatter
	logger   *slog.Logger
	outDir   string
	dirs     map[string]string // bundle directory per input
	catalog  bool
	cbor     bool
	numeric  bool
	job      bool
	report   bool
	jobOpts  codegen.JobOptions
	ids      codegen.IDGenerator
	packager *artifact.Packager
	registry *store.Store
	upload   Publisher
}

func newCompileRun(opts *CompileOptions, s *session, cmd *cobra.Command, inputs []string) (*compileRun, error) {
	cfg := s.cfg
	r := &compileRun{
		opts:    opts,
		out:     s.out,
		logger:  s.logger,
		outDir:  cfg.Output.Dir,
		catalog: cfg.Output.Catalog,
		cbor:    cfg.Output.CBOR,
		numeric: cfg.Output.Numeric,
		job:     cfg.Output.Job,
		report:  cfg.Output.Report,
		jobOpts: cfg.JobOptions(),
		ids:     opts.IDs,
	}
	if opts.OutDir != "" {
		r.outDir = opts.OutDir
	}
	dirs, err := bundleDirs(r.outDir, inputs)
	if err != nil {
		return nil, err
	}
	r.dirs = dirs
	if cmd.Flags().Changed("catalog") {
		r.catalog = opts.Catalog
	}
	if cmd.Flags().Changed("numeric") {
		r.numeric = opts.Numeric
	}
	if cmd.Flags().Changed("job") {
		r.job = opts.Job
	}
	if r.ids == nil {
		r.ids = codegen.UUIDv7Generator{}
	}

	p, err := artifact.NewPackager(s.logger)
	if err != nil {
		return nil, err
	}
	if opts.Now != nil {
		p = p.WithClock(opts.Now)
	}
	r.packager = p

	if opts.Upload {
		r.upload = opts.Publisher
		if r.upload == nil {
			if cfg.Upload.Bucket == "" {
				return nil, errors.New("--upload needs upload.bucket in the config file")
			}
			pub, err := artifact.NewS3Publisher(artifact.S3Config{
				Bucket:   cfg.Upload.Bucket,
				Prefix:   cfg.Upload.Prefix,
				Region:   cfg.Upload.Region,
				Endpoint: cfg.Upload.Endpoint,
			}, s.logger)
			if err != nil {
				return nil, err
			}
			r.upload = pub
		}
	}

	registry := cfg.Registry.Path
	if opts.Registry != "" {
		registry = opts.Registry
	}
	if registry != "" {
		st, err := store.Open(registry)
		if err != nil {
			return nil, fmt.Errorf("opening registry: %w", err)
		}
		r.registry = st
		s.logger.Debug("registry open", "path", registry)
	}
	return r, nil
}

// Close releases the registry, if one is open.
func (r *compileRun) Close() {
	if r.registry == nil {
		return
	}
	if err := r.registry.Close(); err != nil {
		r.logger.Error("error closing registry", "error", err)
	}
}

// dirFor is the bundle directory for path.
func (r *compileRun) dirFor(path string) string {
	if dir, ok := r.dirs[path]; ok {
		return dir
	}
	return r.outDir
}

// bundleDirs assigns each input its bundle directory. A single input
// writes straight into outDir. Several inputs mirror their layout below
// the deepest directory containing all of them, extension dropped, so
// x/model.hpm and y/model.hpm land in outDir/x/model and outDir/y/model.
// Inputs whose bundles would share or nest inside one another are an
// error.
func bundleDirs(outDir string, inputs []string) (map[string]string, error) {
	dirs := make(map[string]string, len(inputs))
	if len(inputs) == 1 {
		dirs[inputs[0]] = outDir
		return dirs, nil
	}

	abs := make([]string, len(inputs))
	for i, in := range inputs {
		a, err := filepath.Abs(in)
		if err != nil {
			return nil, err
		}
		abs[i] = a
	}
	base := filepath.Dir(abs[0])
	for _, a := range abs[1:] {
		base = commonDir(base, filepath.Dir(a))
	}

	owner := make(map[string]string, len(inputs))
	rels := make([]string, len(inputs))
	for i, in := range inputs {
		rel, err := filepath.Rel(base, abs[i])
		if err != nil {
			return nil, err
		}
		rel = strings.TrimSuffix(rel, filepath.Ext(rel))
		if prev, ok := owner[rel]; ok {
			return nil, &LoadError{
				Code:    ErrCodeGeneric,
				Message: fmt.Sprintf("inputs %s and %s would share bundle directory %s", prev, in, filepath.Join(outDir, rel)),
			}
		}
		owner[rel] = in
		rels[i] = rel
		dirs[in] = filepath.Join(outDir, rel)
	}

	for i, rel := range rels {
		in := inputs[i]
		for parent := filepath.Dir(rel); parent != "."; parent = filepath.Dir(parent) {
			if other, ok := owner[parent]; ok {
				return nil, &LoadError{
					Code:    ErrCodeGeneric,
					Message: fmt.Sprintf("bundle for %s would nest inside the bundle for %s", in, other),
				}
			}
		}
	}
	return dirs, nil
}

// commonDir is the deepest directory containing both absolute paths.
func commonDir(a, b string) string {
	for {
		if b == a || strings.HasPrefix(b, a+string(filepath.Separator)) || a == filepath.Dir(a) {
			return a
		}
		a = filepath.Dir(a)
	}
}

// compile runs the whole pipeline for one input and writes its bundle.
func (r *compileRun) compile(ctx context.Context, path string) (*CompileSummary, error) {
	r.out.VerboseLog("Compiling %s", path)
	unit, err := CompileFile(path)
	if err != nil {
		return nil, err
	}
	prog := unit.Result.IR

	bundle := artifact.Bundle{
		Source:     path,
		SourceHash: unit.SourceHash,
		IR:         prog,
	}
	if r.catalog {
		bundle.Catalog = codegen.BuildCatalog(prog)
		bundle.CBOR = r.cbor
	}
	if r.numeric {
		specs, err := codegen.BuildNumericSpecs(unit.Result.Program, prog)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeGeneric, Message: err.Error(), Path: path, Err: err}
		}
		bundle.Numeric = specs
	}
	if r.job {
		job, err := codegen.NewJobBuilder(r.ids, r.jobOpts).Build(prog)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeGeneric, Message: err.Error(), Path: path, Err: err}
		}
		bundle.Job = job
	}
	if r.report {
		bundle.Report = &unit.Report
	}

	dir := r.dirFor(path)
	m, err := r.packager.Write(dir, bundle)
	if err != nil {
		code := ErrorCode(err)
		if code == ErrCodeGeneric {
			code = ErrCodeWriteFailed
		}
		return nil, &LoadError{Code: code, Message: err.Error(), Path: path, Err: err}
	}

	summary := &CompileSummary{
		Source:      path,
		IRHash:      m.IRHash,
		EntryPoint:  prog.EntryPoint,
		Operators:   operatorCount(prog),
		OutDir:      dir,
		Diagnostics: unit.Result.Diagnostics,
	}
	if bundle.Job != nil {
		summary.JobID = bundle.Job.JobID
	}
	for _, e := range m.Artifacts {
		summary.Artifacts = append(summary.Artifacts, e.Name)
	}

	if r.opts.Output != "" {
		if err := writeIRToFile(prog, r.opts.Output); err != nil {
			return nil, &LoadError{Code: ErrCodeWriteFailed, Message: fmt.Sprintf("writing output file: %v", err), Path: path, Err: err}
		}
		summary.IROutput = r.opts.Output
	}

	if r.registry != nil {
		c, created, err := r.registry.Record(ctx, registryEntry(summary, unit, m))
		if err != nil {
			return nil, &LoadError{Code: ErrCodeWriteFailed, Message: err.Error(), Path: path, Err: err}
		}
		summary.RegistryID = c.ID
		r.logger.Debug("registry entry", "id", c.ID, "seq", c.Seq, "created", created)
	}

	if r.upload != nil {
		keys, err := r.upload.Publish(ctx, dir, m)
		if err != nil {
			return nil, &LoadError{Code: ErrCodeWriteFailed, Message: err.Error(), Path: path, Err: err}
		}
		summary.Uploaded = keys
	}
	return summary, nil
}

// watch recompiles changed inputs until interrupted.
func (r *compileRun) watch(ctx context.Context, inputs []string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	w, err := watch.New(watch.Config{Paths: inputs, Logger: r.logger})
	if err != nil {
		return r.out.Fail(ExitCommandError, err)
	}
	defer w.Close()

	fmt.Fprintf(r.out.GetErrWriter(), "Watching %d file(s). Press Ctrl-C to stop.\n", len(inputs))

	// Watch paths are absolute; compile under the name the user gave.
	names := make(map[string]string, len(inputs))
	for _, p := range inputs {
		if abs, err := filepath.Abs(p); err == nil {
			names[abs] = p
		}
	}

	err = w.Run(ctx, func(changed []string) {
		for _, abs := range changed {
			path := names[abs]
			if path == "" {
				path = abs
			}
			summary, err := r.compile(ctx, path)
			if err != nil {
				_ = r.out.Fail(ExitCommandError, err)
				continue
			}
			_ = outputCompileSuccess(r.out, &CompilationResult{Compilations: []CompileSummary{*summary}})
		}
	})
	if err != nil && !errors.Is(err, context.Canceled) {
		return r.out.Fail(ExitCommandError, err)
	}
	r.logger.Info("watch stopped")
	return nil
}

func operatorCount(prog *ir.Program) int {
	if mod := prog.Entry(); mod != nil {
		return len(mod.Operators)
	}
	return 0
}

// registryEntry converts a written bundle to a registry record.
func registryEntry(s *CompileSummary, unit *Unit, m *artifact.Manifest) store.Compilation {
	c := store.Compilation{
		SourcePath:      s.Source,
		SourceHash:      unit.SourceHash,
		IRHash:          m.IRHash,
		EntryPoint:      s.EntryPoint,
		OperatorCount:   s.Operators,
		JobID:           s.JobID,
		OutputDir:       s.OutDir,
		CompilerVersion: m.CompilerVersion,
		IRVersion:       m.IRVersion,
	}
	for _, e := range m.Artifacts {
		c.Artifacts = append(c.Artifacts, store.Artifact{
			Name:     e.Name,
			Format:   string(e.Format),
			Size:     e.Size,
			Checksum: m.Checksums[e.Name],
		})
	}
	return c
}

// outputCompileSuccess outputs successful compilation results.
func outputCompileSuccess(formatter *OutputFormatter, result *CompilationResult) error {
	if formatter.Format == "json" {
		return formatter.Success(result)
	}

	// Human-readable text output
	for _, c := range result.Compilations {
		fmt.Fprintf(formatter.Writer, "✓ Compiled %s: %d operator(s), entry %s\n", c.Source, c.Operators, c.EntryPoint)
		fmt.Fprintf(formatter.Writer, "  IR hash: %s\n", c.IRHash)
		if c.JobID != "" {
			fmt.Fprintf(formatter.Writer, "  Job: %s\n", c.JobID)
		}
		fmt.Fprintf(formatter.Writer, "  Wrote %s: %s\n", c.OutDir, strings.Join(c.Artifacts, ", "))
		if c.IROutput != "" {
			fmt.Fprintf(formatter.Writer, "  Wrote IR to %s\n", c.IROutput)
		}
		if c.RegistryID != "" {
			fmt.Fprintf(formatter.Writer, "  Registered %s\n", c.RegistryID)
		}
		for _, key := range c.Uploaded {
			fmt.Fprintf(formatter.Writer, "  Uploaded %s\n", key)
		}
		for _, d := range c.Diagnostics {
			fmt.Fprintf(formatter.Writer, "  warning %s\n", d.Error())
		}
	}
	return nil
}

// writeIRToFile writes the program as indented JSON, the same encoding as
// ir.json.
func writeIRToFile(prog *ir.Program, filename string) error {
	data, err := json.MarshalIndent(prog, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling IR: %w", err)
	}

	if err := os.WriteFile(filename, data, 0o644); err != nil {
		return fmt.Errorf("writing file: %w", err)
	}

	return nil
}
