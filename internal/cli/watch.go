package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"
)

// debounce groups the burst of events an editor save produces.
const debounce = 200 * time.Millisecond

var watchOpts bundleFlags

var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Re-bundle a directory whenever its documents change",
	Long: `Bundles every document in the directory once, then again after any
.yaml, .yml or .json file in it changes. Writes to the output directory and
to previous outputs are ignored. Stop with Ctrl-C.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchOpts.register(watchCmd)
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	r, err := newRunner(cmd, &watchOpts)
	if err != nil {
		return err
	}
	dir := args[0]
	fi, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !fi.IsDir() {
		return fmt.Errorf("%s is not a directory", dir)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()
	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}
	return r.watch(ctx, w, dir)
}

// watch runs once, then after each quiet period following a relevant event.
// Run failures are reported and watching continues.
func (r *runner) watch(ctx context.Context, w *fsnotify.Watcher, dir string) error {
	watched := map[string]bool{}
	if abs, err := filepath.Abs(dir); err == nil {
		watched[abs] = true
	}
	r.runReported(ctx, dir)
	r.follow(w, watched)

	timer := time.NewTimer(debounce)
	timer.Stop()
	pending := false
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !r.relevant(ev) {
				continue
			}
			r.log.Debug("change", "file", ev.Name, "op", ev.Op.String())
			pending = true
			timer.Reset(debounce)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			r.log.Warn("watch error", "err", err)
		case <-timer.C:
			if pending {
				pending = false
				r.runReported(ctx, dir)
				r.follow(w, watched)
			}
		}
	}
}

func (r *runner) runReported(ctx context.Context, dir string) {
	if err := r.run(ctx, dir); err != nil {
		fmt.Fprintf(r.errOut, "error: %v\n", err)
	}
}

// follow watches the directory of every document the last run read, so
// edits to referenced documents outside the watched directory trigger a run.
func (r *runner) follow(w *fsnotify.Watcher, watched map[string]bool) {
	for _, id := range r.loaded {
		dir := filepath.Join(r.base, filepath.FromSlash(id.Dir()))
		if watched[dir] {
			continue
		}
		if err := w.Add(dir); err != nil {
			r.log.Warn("watch failed", "dir", dir, "err", err)
			continue
		}
		watched[dir] = true
		r.log.Debug("watching", "dir", dir)
	}
}

// relevant reports whether ev concerns a source document.
func (r *runner) relevant(ev fsnotify.Event) bool {
	if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
		return false
	}
	name := filepath.Base(ev.Name)
	if name == r.cfg.OutDir {
		return false
	}
	return r.isSource(name)
}
