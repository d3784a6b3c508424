package oracle

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ureshvahalia/bridge-deals-ingest/engine"
)

func testDeal(t *testing.T) *engine.Deal {
	t.Helper()
	hands := [4]string{
		"AKJ62.K7.Q98.KT3",
		"T97.QJT2.AJT.876",
		"Q85.A96.K42.AQJ5",
		"43.8543.7653.942",
	}
	d := &engine.Deal{Board: 1, Dealer: engine.North, Vul: engine.VulNone}
	for i, s := range hands {
		h, err := engine.ParseHand(s)
		require.NoError(t, err)
		d.Hands[i] = h
	}
	return d
}

func TestClientSolve(t *testing.T) {
	var table Table
	table[engine.North][engine.NoTrump] = 9
	table[engine.South][engine.NoTrump] = 9

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/solve", r.URL.Path)
		var req solveRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "AKJ62.K7.Q98.KT3", req.Hands[0])
		assert.Equal(t, "N", req.Dealer)
		json.NewEncoder(w).Encode(solveResponse{Tricks: table})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	got, err := c.Solve(context.Background(), testDeal(t))
	require.NoError(t, err)
	assert.Equal(t, table, got)
	assert.Equal(t, 9, got.Tricks(engine.North, engine.NoTrump))
	assert.Equal(t, engine.NorthSouth, got.BestContractSide(engine.NoTrump))
}

func TestClientSolveFailures(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "solver crashed", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	_, err := c.Solve(context.Background(), testDeal(t))
	assert.ErrorIs(t, err, ErrUnavailable)

	// Unreachable endpoint.
	c = NewClient("http://127.0.0.1:1", 200*time.Millisecond)
	_, err = c.Solve(context.Background(), testDeal(t))
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestClientSolveRejectsBadTable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var resp solveResponse
		resp.Tricks[0][0] = 14
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second)
	_, err := c.Solve(context.Background(), testDeal(t))
	assert.ErrorIs(t, err, ErrUnavailable)
}

type countingSolver struct {
	calls atomic.Int64
	err   error
}

func (s *countingSolver) Solve(ctx context.Context, deal *engine.Deal) (Table, error) {
	s.calls.Add(1)
	return Table{}, s.err
}

func TestCacheSolvesOncePerDeal(t *testing.T) {
	inner := &countingSolver{}
	cache := NewCache(inner)
	deal := testDeal(t)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := cache.Solve(context.Background(), deal)
			assert.NoError(t, err)
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(1), inner.calls.Load())
	assert.Equal(t, 1, cache.Len())
}

func TestCacheKeepsFailures(t *testing.T) {
	inner := &countingSolver{err: errors.Join(ErrUnavailable, errors.New("timeout"))}
	cache := NewCache(inner)
	deal := testDeal(t)

	for i := 0; i < 3; i++ {
		_, err := cache.Solve(context.Background(), deal)
		assert.ErrorIs(t, err, ErrUnavailable)
	}
	assert.Equal(t, int64(1), inner.calls.Load())
}
