package refbundle

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/reoring/refbundle/document"
	"github.com/reoring/refbundle/ref"
)

// Job is one root to bundle in a batch.
type Job struct {
	Root   string
	Output string
}

// Outcome is the result of one Job. Exactly one of Result and Err is set.
type Outcome struct {
	Job    Job
	Result *Result
	Err    error
}

// BundleAll bundles every job against the shared store using up to workers
// goroutines (1 when workers <= 0). A failing root does not stop the others;
// outcomes are returned in job order. Jobs not yet started when ctx is done
// report ctx.Err().
func BundleAll(ctx context.Context, store *document.Store, jobs []Job, opts Options, workers int) []Outcome {
	if workers <= 0 {
		workers = 1
	}
	if opts.Classifier == nil {
		opts.Classifier = ref.NewClassifier(0)
	}
	out := make([]Outcome, len(jobs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, job := range jobs {
		g.Go(func() error {
			out[i].Job = job
			if err := gctx.Err(); err != nil {
				out[i].Err = err
				return nil
			}
			o := opts
			o.Output = job.Output
			o.Types = append([]string(nil), opts.Types...)
			out[i].Result, out[i].Err = Bundle(store, job.Root, o)
			return nil
		})
	}
	_ = g.Wait()
	return out
}
