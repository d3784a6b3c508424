// Package oracle talks to the external double-dummy solver: given a deal it
// returns the maximum tricks each seat can take in each strain with perfect
// play. The solver is slow and fallible; callers treat a failed lookup as a
// degraded field, never a fatal error.
package oracle

import (
	"context"
	"errors"

	"github.com/ureshvahalia/bridge-deals-ingest/engine"
)

// ErrUnavailable wraps every solver failure: connection refused, timeout,
// non-200 response, or a malformed table.
var ErrUnavailable = errors.New("double-dummy oracle unavailable")

// Table holds maximum tricks by declarer seat and strain.
type Table [4][5]int

func (t Table) Tricks(seat engine.Seat, strain engine.Strain) int {
	return t[seat][strain]
}

// BestContractSide returns the side that can take more tricks in the given
// strain, for quick par-direction checks.
func (t Table) BestContractSide(strain engine.Strain) engine.Side {
	ns := t[engine.North][strain] + t[engine.South][strain]
	ew := t[engine.East][strain] + t[engine.West][strain]
	if ew > ns {
		return engine.EastWest
	}
	return engine.NorthSouth
}

// Solver resolves one deal to its double-dummy table.
type Solver interface {
	Solve(ctx context.Context, deal *engine.Deal) (Table, error)
}
