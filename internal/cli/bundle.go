package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5/util"
	"github.com/spf13/cobra"

	"github.com/reoring/refbundle"
	"github.com/reoring/refbundle/diag"
	"github.com/reoring/refbundle/document"
	"github.com/reoring/refbundle/internal/config"
	"github.com/reoring/refbundle/internal/logger"
	"github.com/reoring/refbundle/ref"
)

// bundleFlags holds the flags shared by bundle and watch.
type bundleFlags struct {
	base       string
	types      []string
	strict     bool
	policy     string
	prefix     string
	outDir     string
	suffix     string
	sel        string
	unresolved string
	maxDepth   int
	workers    int
}

func (f *bundleFlags) register(cmd *cobra.Command) {
	d := config.Defaults()
	fl := cmd.Flags()
	fl.StringVar(&f.base, "base", "", "root directory references may not leave (default: working directory)")
	fl.StringSliceVarP(&f.types, "type", "t", nil, "root type to bundle; repeatable. Without it the whole document is bundled")
	fl.BoolVar(&f.strict, "strict", false, "fail without writing output when a reference cannot be resolved")
	fl.StringVar(&f.policy, "policy", d.Policy, "addressing policy: local, namespaced or path")
	fl.StringVar(&f.prefix, "prefix", d.Prefix, "namespace container for --policy namespaced")
	fl.StringVar(&f.outDir, "out-dir", d.OutDir, "output directory, relative to each root document")
	fl.StringVar(&f.suffix, "suffix", d.Suffix, "suffix appended to the output file stem")
	fl.StringVar(&f.sel, "select", d.Select, "which cross-document references to inline: all, allof or complex")
	fl.StringVar(&f.unresolved, "unresolved", d.Unresolved, "unresolved references: keep or opaque")
	fl.IntVar(&f.maxDepth, "max-depth", d.MaxDepth, "maximum reference hops from a root")
	fl.IntVar(&f.workers, "workers", d.Workers, "documents bundled in parallel")
}

// apply copies the flags set on the command line over cfg.
func (f *bundleFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	fl := cmd.Flags()
	set := func(name string, fn func()) {
		if fl.Changed(name) {
			fn()
		}
	}
	set("base", func() { cfg.Base = f.base })
	set("type", func() { cfg.Types = append([]string(nil), f.types...) })
	set("strict", func() { cfg.Strict = f.strict })
	set("policy", func() { cfg.Policy = f.policy })
	set("prefix", func() { cfg.Prefix = f.prefix })
	set("out-dir", func() { cfg.OutDir = f.outDir })
	set("suffix", func() { cfg.Suffix = f.suffix })
	set("select", func() { cfg.Select = f.sel })
	set("unresolved", func() { cfg.Unresolved = f.unresolved })
	set("max-depth", func() { cfg.MaxDepth = f.maxDepth })
	set("workers", func() { cfg.Workers = f.workers })
	set("verbose", func() { cfg.Verbose = verbose })
}

var bundleOpts bundleFlags

var bundleCmd = &cobra.Command{
	Use:   "bundle <file-or-dir>",
	Short: "Bundle a document, or every document in a directory",
	Long: `Resolves the references of a root document and writes the bundle to
<dir>/<out-dir>/<stem><suffix><ext>. When given a directory, every .yaml,
.yml and .json file directly inside it is bundled; previous outputs are
skipped. Unresolvable references are reported as warnings unless --strict
is set.`,
	Args: cobra.ExactArgs(1),
	RunE: runBundle,
}

func init() {
	bundleOpts.register(bundleCmd)
	rootCmd.AddCommand(bundleCmd)
}

func runBundle(cmd *cobra.Command, args []string) error {
	r, err := newRunner(cmd, &bundleOpts)
	if err != nil {
		return err
	}
	return r.run(cmd.Context(), args[0])
}

// runner bundles one file or directory with a resolved configuration.
type runner struct {
	cfg    config.Config
	opts   refbundle.Options
	base   string
	log    *slog.Logger
	out    io.Writer
	errOut io.Writer

	// loaded lists every document the last run read.
	loaded []document.DocID
}

func newRunner(cmd *cobra.Command, f *bundleFlags) (*runner, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	f.apply(cmd, &cfg)

	opts, err := cfg.Options()
	if err != nil {
		return nil, err
	}
	base := cfg.Base
	if base == "" {
		if base, err = os.Getwd(); err != nil {
			return nil, err
		}
	}
	if base, err = filepath.Abs(base); err != nil {
		return nil, err
	}
	log := logger.New(cmd.ErrOrStderr(), cfg.Verbose)
	opts.Logger = log
	opts.Classifier = ref.NewClassifier(0)
	return &runner{
		cfg:    cfg,
		opts:   opts,
		base:   base,
		log:    log,
		out:    cmd.OutOrStdout(),
		errOut: cmd.ErrOrStderr(),
	}, nil
}

// rel converts a command-line path into a store path.
func (r *runner) rel(p string) (string, error) {
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", err
	}
	rel, err := filepath.Rel(r.base, abs)
	if err != nil {
		return "", err
	}
	rel = filepath.ToSlash(rel)
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("%s is outside the base directory %s", p, r.base)
	}
	return rel, nil
}

// jobs lists the roots under target.
func (r *runner) jobs(store *document.Store, target string) ([]refbundle.Job, error) {
	rel, err := r.rel(target)
	if err != nil {
		return nil, err
	}
	fi, err := store.Filesystem().Stat(rel)
	if err != nil {
		return nil, err
	}
	if !fi.IsDir() {
		return []refbundle.Job{{Root: rel, Output: r.cfg.OutputPath(rel)}}, nil
	}
	entries, err := store.Filesystem().ReadDir(rel)
	if err != nil {
		return nil, err
	}
	var jobs []refbundle.Job
	for _, e := range entries {
		if e.IsDir() || !r.isSource(e.Name()) {
			continue
		}
		root := path.Join(rel, e.Name())
		jobs = append(jobs, refbundle.Job{Root: root, Output: r.cfg.OutputPath(root)})
	}
	sort.Slice(jobs, func(i, k int) bool { return jobs[i].Root < jobs[k].Root })
	if len(jobs) == 0 {
		return nil, fmt.Errorf("no .yaml, .yml or .json documents in %s", target)
	}
	return jobs, nil
}

func (r *runner) isSource(name string) bool {
	switch strings.ToLower(path.Ext(name)) {
	case ".yaml", ".yml", ".json":
		return !r.cfg.IsOutput(name)
	}
	return false
}

// run bundles target and writes every successful result. It fails when any
// root failed; the others are still written.
func (r *runner) run(ctx context.Context, target string) error {
	if ctx == nil {
		ctx = context.Background()
	}
	store := document.NewOSStore(r.base)
	jobs, err := r.jobs(store, target)
	if err != nil {
		return err
	}

	defer func() { r.loaded = store.Loaded() }()

	var total diag.Report
	failed := 0
	for _, o := range refbundle.BundleAll(ctx, store, jobs, r.opts, r.cfg.Workers) {
		if o.Err != nil {
			failed++
			fmt.Fprintf(r.errOut, "error: %s: %v\n", o.Job.Root, o.Err)
			continue
		}
		if err := write(store, o.Result); err != nil {
			failed++
			fmt.Fprintf(r.errOut, "error: %s: %v\n", o.Job.Root, err)
			continue
		}
		for _, w := range o.Result.Report.Warnings() {
			fmt.Fprintf(r.errOut, "warning: %v\n", w)
		}
		for _, n := range o.Result.Report.Notes() {
			fmt.Fprintf(r.errOut, "note: %s\n", n)
		}
		fmt.Fprintf(r.out, "bundled %s -> %s (%d types, %d inlined, %d warnings)\n",
			o.Job.Root, o.Result.Output, len(o.Result.Types), len(o.Result.Inlined), len(o.Result.Report.Warnings()))
		total.Merge(o.Result.Report)
	}
	if len(jobs) > 1 {
		fmt.Fprintf(r.out, "%d of %d documents bundled, %d warnings, %d notes\n",
			len(jobs)-failed, len(jobs), len(total.Warnings()), len(total.Notes()))
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d documents failed", failed, len(jobs))
	}
	return nil
}

func write(store *document.Store, res *refbundle.Result) error {
	data, err := res.Encode()
	if err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	fs := store.Filesystem()
	if err := fs.MkdirAll(path.Dir(string(res.Output)), 0o755); err != nil {
		return err
	}
	return util.WriteFile(fs, string(res.Output), data, 0o644)
}
