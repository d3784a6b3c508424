package reconcile

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ureshvahalia/bridge-deals-ingest/dedupe"
	"github.com/ureshvahalia/bridge-deals-ingest/engine"
	"github.com/ureshvahalia/bridge-deals-ingest/oracle"
)

// BatchOptions configures one reconciliation run.
type BatchOptions struct {
	Workers int             // parallel board workers, default 4
	Oracle  oracle.Solver   // optional double-dummy lookup, nil to skip
	Dedupe  *dedupe.Matcher // optional event-name clustering, nil to skip
	Logger  *zap.Logger
}

// ReconcileBatch reconciles every raw record across a worker pool, then
// runs the cross-record steps that need the whole batch: event-name
// deduplication. Board order is preserved. Reconciliation itself never
// fails per record; the only error out of here is context cancellation.
func ReconcileBatch(ctx context.Context, raws []*RawBoard, opts BatchOptions) ([]*CanonicalBoard, error) {
	if opts.Workers <= 0 {
		opts.Workers = 4
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	boards := make([]*CanonicalBoard, len(raws))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.Workers)
	for i, raw := range raws {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			b := Reconcile(raw)
			b.ID = uuid.NewString()
			if opts.Oracle != nil && b.Deal != nil {
				attachDD(ctx, opts.Oracle, b, log)
			}
			if b.Summary != Match {
				log.Debug("degraded board",
					zap.String("source", b.Source),
					zap.Int("board", b.Board),
					zap.String("summary", string(b.Summary)),
					zap.Strings("diagnostics", b.Diagnostics))
			}
			boards[i] = b
			return nil
		})
	}
	// Barrier: pairing and dedup read the whole batch, so nothing
	// cross-record runs until every board is reconciled.
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if opts.Dedupe != nil {
		canonicalizeEvents(boards, opts.Dedupe)
	}
	return boards, nil
}

// attachDD asks the double-dummy oracle for the deal's trick table. A
// failed lookup degrades the field, never the batch.
func attachDD(ctx context.Context, solver oracle.Solver, b *CanonicalBoard, log *zap.Logger) {
	table, err := solver.Solve(ctx, b.Deal)
	if err != nil {
		b.note("dd: %v", err)
		b.DD = Field[oracle.Table]{Status: Missing}
		log.Warn("double-dummy lookup failed",
			zap.String("deal", string(b.DealKey)), zap.Error(err))
		return
	}
	b.DD = Field[oracle.Table]{Status: DerivedOnly, Value: &table}
	attachDDReference(b, table)
}

// attachDDReference records the best-play tricks and score for the board's
// canonical contract, the baseline the played result is judged against.
func attachDDReference(b *CanonicalBoard, table oracle.Table) {
	c, ok := canonicalContract(b)
	if !ok || c.PassedOut() {
		return
	}
	vul, ok := b.Vul.Get()
	if !ok {
		return
	}
	tricks := table.Tricks(c.Declarer, c.Strain)
	b.DDTricks = &tricks
	if score, err := engine.ScoreNS(c, tricks, vul); err == nil {
		b.DDScore = &score
	}
}

func canonicalizeEvents(boards []*CanonicalBoard, m *dedupe.Matcher) {
	var names []string
	for _, b := range boards {
		if b.Event != "" {
			names = append(names, b.Event)
		}
	}
	if len(names) == 0 {
		return
	}
	canonical := m.Canonicalize(names)
	for _, b := range boards {
		if c, ok := canonical[strings.TrimSpace(b.Event)]; ok {
			b.Event = c
		}
	}
}
