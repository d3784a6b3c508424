package reconcile

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ureshvahalia/bridge-deals-ingest/dedupe"
	"github.com/ureshvahalia/bridge-deals-ingest/engine"
	"github.com/ureshvahalia/bridge-deals-ingest/oracle"
)

type fakeSolver struct {
	calls atomic.Int64
	table oracle.Table
	err   error
}

func (s *fakeSolver) Solve(ctx context.Context, deal *engine.Deal) (oracle.Table, error) {
	s.calls.Add(1)
	return s.table, s.err
}

func TestReconcileBatchPreservesOrder(t *testing.T) {
	raws := make([]*RawBoard, 20)
	for i := range raws {
		raw := fullRaw()
		raw.Board = i + 1
		raw.Dealer = nil
		raw.Vul = nil
		raws[i] = raw
	}
	boards, err := ReconcileBatch(context.Background(), raws, BatchOptions{Workers: 8})
	require.NoError(t, err)
	require.Len(t, boards, 20)
	for i, b := range boards {
		assert.Equal(t, i+1, b.Board)
		assert.NotEmpty(t, b.ID)
	}
	// Per-run IDs are unique.
	assert.NotEqual(t, boards[0].ID, boards[1].ID)
}

func TestReconcileBatchAttachesDD(t *testing.T) {
	var table oracle.Table
	table[engine.North][engine.NoTrump] = 9
	solver := &fakeSolver{table: table}

	boards, err := ReconcileBatch(context.Background(), []*RawBoard{fullRaw()}, BatchOptions{
		Oracle: oracle.NewCache(solver),
	})
	require.NoError(t, err)
	b := boards[0]
	assert.Equal(t, DerivedOnly, b.DD.Status)
	dd, ok := b.DD.Get()
	require.True(t, ok)
	assert.Equal(t, 9, dd.Tricks(engine.North, engine.NoTrump))
	// Best-play reference for the canonical contract (3NT by North).
	require.NotNil(t, b.DDTricks)
	assert.Equal(t, 9, *b.DDTricks)
	require.NotNil(t, b.DDScore)
	assert.Equal(t, 400, *b.DDScore)
}

func TestReconcileBatchOracleSolvesOncePerDeal(t *testing.T) {
	solver := &fakeSolver{}
	// Same deal from both tables.
	a, b := fullRaw(), fullRaw()
	b.Table = "closed"
	_, err := ReconcileBatch(context.Background(), []*RawBoard{a, b}, BatchOptions{
		Oracle: oracle.NewCache(solver),
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), solver.calls.Load())
}

func TestReconcileBatchOracleFailureDegradesField(t *testing.T) {
	solver := &fakeSolver{err: errors.Join(oracle.ErrUnavailable, errors.New("timeout"))}
	boards, err := ReconcileBatch(context.Background(), []*RawBoard{fullRaw()}, BatchOptions{
		Oracle: solver,
	})
	require.NoError(t, err) // the batch survives
	b := boards[0]
	assert.Equal(t, Missing, b.DD.Status)
	assert.NotEmpty(t, b.Diagnostics)
}

func TestReconcileBatchSkipsOracleWithoutDeal(t *testing.T) {
	solver := &fakeSolver{}
	raw := fullRaw()
	raw.Hands[0] = nil
	_, err := ReconcileBatch(context.Background(), []*RawBoard{raw}, BatchOptions{Oracle: solver})
	require.NoError(t, err)
	assert.Equal(t, int64(0), solver.calls.Load())
}

func TestReconcileBatchDedupesEvents(t *testing.T) {
	a, b := fullRaw(), fullRaw()
	a.Event = "Spring Nationals 2024"
	b.Event = "Spring Nationals  2024 "
	b.Table = "closed"
	boards, err := ReconcileBatch(context.Background(), []*RawBoard{a, b, a}, BatchOptions{
		Dedupe: dedupe.New(0),
	})
	require.NoError(t, err)
	assert.Equal(t, boards[0].Event, boards[1].Event)
	assert.Equal(t, "Spring Nationals 2024", boards[1].Event)
}

func TestReconcileBatchCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := ReconcileBatch(ctx, []*RawBoard{fullRaw(), fullRaw()}, BatchOptions{Workers: 1})
	assert.ErrorIs(t, err, context.Canceled)
}
