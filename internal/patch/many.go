package patch

import (
	"context"

	"github.com/unbound-force/tstpatch/internal/testcase"
	"golang.org/x/sync/errgroup"
)

// PatchMany patches each case, preserving order. Cases are
// independent, so up to Options.Workers run at once.
func (p *Patcher) PatchMany(ctx context.Context, cases []testcase.TestCase) ([]testcase.TestCase, error) {
	results, err := p.ExplainMany(ctx, cases)
	if err != nil {
		return nil, err
	}
	out := make([]testcase.TestCase, len(results))
	for i, r := range results {
		out[i] = r.Patched
	}
	return out, nil
}

// ExplainMany is PatchMany returning the per-case Results.
func (p *Patcher) ExplainMany(ctx context.Context, cases []testcase.TestCase) ([]Result, error) {
	results := make([]Result, len(cases))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i := range cases {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := p.Explain(cases[i])
			if err != nil {
				return err
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
