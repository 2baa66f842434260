package pipeline

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/txreport/txreport/internal/collect"
	"github.com/txreport/txreport/internal/logger"
	"github.com/txreport/txreport/internal/metrics"
	"github.com/txreport/txreport/internal/model"
	"github.com/txreport/txreport/internal/month"
	"github.com/txreport/txreport/internal/normalize"
)

// DefaultWorkers is used when Options.Workers is not positive.
const DefaultWorkers = 4

// minChunk keeps small inputs on a single goroutine.
const minChunk = 256

// Options tunes a Run.
type Options struct {
	Workers     int
	DateLayouts []string
}

// Result is the canonical output of a Run: the ordered collection with its
// row counts, plus the aggregated metrics.
type Result struct {
	Month month.Month
	collect.Collection
	Metrics metrics.RunMetrics
}

// Run normalizes rows for month m, drops duplicates and aggregates. Rows are
// normalized concurrently but outcomes keep their input slots, so the
// collector always sees the original order.
func Run(ctx context.Context, rows []model.RawRow, m month.Month, opts Options) (Result, error) {
	log := logger.FromContext(ctx)
	n := normalize.New(opts.DateLayouts)
	workers := opts.Workers
	if workers < 1 {
		workers = DefaultWorkers
	}

	outcomes := make([]collect.Outcome, len(rows))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for _, sp := range chunks(len(rows), workers) {
		g.Go(func() error {
			for i := sp.lo; i < sp.hi; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				tx, err := n.Record(rows[i], m)
				outcomes[i] = collect.Outcome{Transaction: tx, Err: err}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Result{}, err
	}

	c := collect.Collect(outcomes)
	for _, rej := range c.Rejections {
		log.Debug().Int("line", rej.Line).Str("reason", string(rej.Reason)).Str("detail", rej.Detail).Msg("row rejected")
	}

	rm, err := aggregate(ctx, c.Transactions, workers)
	if err != nil {
		return Result{}, err
	}

	log.Debug().
		Str("month", m.String()).
		Int("rows_in", c.RowsIn).
		Int("rows_out", c.RowsOut()).
		Int("duplicates", c.Duplicates).
		Int("rejected", c.RejectedTotal()).
		Msg("pipeline finished")

	return Result{Month: m, Collection: c, Metrics: rm}, nil
}

// aggregate folds txns into RunMetrics, splitting large collections across
// workers and merging the partial results.
func aggregate(ctx context.Context, txns []model.Transaction, workers int) (metrics.RunMetrics, error) {
	spans := chunks(len(txns), workers)
	if len(spans) <= 1 {
		return metrics.Aggregate(txns), nil
	}

	parts := make([]metrics.RunMetrics, len(spans))
	g, gctx := errgroup.WithContext(ctx)
	for i, sp := range spans {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			parts[i] = metrics.Aggregate(txns[sp.lo:sp.hi])
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return metrics.RunMetrics{}, err
	}

	total := metrics.New()
	for _, p := range parts {
		total = metrics.Merge(total, p)
	}
	return total, nil
}

type span struct{ lo, hi int }

// chunks splits [0,n) into at most workers contiguous spans of at least
// minChunk items.
func chunks(n, workers int) []span {
	if n == 0 {
		return nil
	}
	size := max((n+workers-1)/workers, minChunk)
	var out []span
	for lo := 0; lo < n; lo += size {
		out = append(out, span{lo: lo, hi: min(lo+size, n)})
	}
	return out
}
