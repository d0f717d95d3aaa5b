package pipeline

import (
	"context"

	"github.com/KaramelBytes/tally-cli/internal/recipe"
	"github.com/sourcegraph/conc/pool"
)

// Outcome pairs a recipe with its run result or failure.
type Outcome struct {
	Recipe *recipe.Recipe
	Result *Result
	Err    error
}

// RunAll runs each recipe independently with at most workers concurrent
// runs. Outcomes are returned in input order; one failing recipe does not
// cancel the others. The returned error is non-nil only if ctx ends first.
func RunAll(ctx context.Context, recipes []*recipe.Recipe, opts Options, workers int) ([]Outcome, error) {
	if workers <= 0 {
		workers = 4
	}
	out := make([]Outcome, len(recipes))
	p := pool.New().WithContext(ctx).WithMaxGoroutines(workers)
	for i, rc := range recipes {
		i, rc := i, rc
		p.Go(func(ctx context.Context) error {
			res, err := Run(ctx, rc, opts)
			out[i] = Outcome{Recipe: rc, Result: res, Err: err}
			return nil
		})
	}
	_ = p.Wait()
	if err := ctx.Err(); err != nil {
		return out, err
	}
	return out, nil
}
