package reconcile

import (
	"github.com/ureshvahalia/bridge-deals-ingest/engine"
	"github.com/ureshvahalia/bridge-deals-ingest/oracle"
)

// RawBoard is one table-instance record as delivered by a format parser.
// Every reconcilable field is a pointer: nil means "not provided", which is
// different from present-but-invalid text. Card, call, contract, and seat
// fields use the engine's compact text forms.
type RawBoard struct {
	Source string `json:"source,omitempty"` // file or feed the record came from
	Event  string `json:"event,omitempty"`
	Match  string `json:"match,omitempty"`
	Table  string `json:"table,omitempty"`
	Board  int    `json:"board,omitempty"`

	Hands    [4]*string `json:"hands"` // N, E, S, W in holdings form
	Dealer   *string    `json:"dealer,omitempty"`
	Vul      *string    `json:"vul,omitempty"`
	Calls    *string    `json:"calls,omitempty"`    // dash-joined, e.g. "1N-P-3N-P-P-P"
	Contract *string    `json:"contract,omitempty"` // e.g. "4SX"
	Declarer *string    `json:"declarer,omitempty"`
	Lead     *string    `json:"lead,omitempty"` // suit-then-rank, e.g. "H7"
	Play     *string    `json:"play,omitempty"` // card tokens in play order, e.g. "HQ H7 H2 HA ..."
	Tricks   *int       `json:"tricks,omitempty"`
	Score    *int       `json:"score,omitempty"` // north-south sign convention
}

// Field carries one reconciled value with its trust tag. Value is the
// canonical value (nil when Missing); Derived keeps the recomputed value for
// audit when it lost a Mismatch.
type Field[T any] struct {
	Status  Status `json:"status"`
	Value   *T     `json:"value,omitempty"`
	Derived *T     `json:"derived,omitempty"`
}

// Get returns the canonical value and whether one is present.
func (f Field[T]) Get() (T, bool) {
	if f.Value == nil {
		var zero T
		return zero, false
	}
	return *f.Value, true
}

// CanonicalBoard is the reconciled form of one RawBoard. It is created once
// per raw record and never mutated afterwards; comparison reads pairs of
// them without touching either.
type CanonicalBoard struct {
	ID     string `json:"id"` // assigned per batch run
	Source string `json:"source,omitempty"`
	Event  string `json:"event,omitempty"`
	Match  string `json:"match,omitempty"`
	Table  string `json:"table,omitempty"`
	Board  int    `json:"board,omitempty"`

	// Deal is shared across tables that played the same board; boards
	// reference it by key.
	DealKey engine.DealKey `json:"deal_key,omitempty"`
	Deal    *engine.Deal   `json:"deal,omitempty"`

	Dealer   Field[engine.Seat]          `json:"dealer"`
	Vul      Field[engine.Vulnerability] `json:"vul"`
	Auction  Field[[]engine.Call]        `json:"auction"`
	Contract Field[engine.Contract]      `json:"contract"`
	Declarer Field[engine.Seat]          `json:"declarer"`
	Lead     Field[engine.Card]          `json:"lead"`
	Tricks   Field[int]                  `json:"tricks"`
	Score    Field[int]                  `json:"score"` // north-south sign

	// Derived extras, populated when their inputs are trustworthy.
	Facts    *engine.Facts              `json:"facts,omitempty"`
	Features map[string]engine.Features `json:"features,omitempty"` // by seat
	LeadType engine.LeadType            `json:"lead_type,omitempty"`

	// Double-dummy reference: the full table, plus the best-play tricks
	// and score for the canonical contract when one is known.
	DD       Field[oracle.Table] `json:"dd"`
	DDTricks *int                `json:"dd_tricks,omitempty"`
	DDScore  *int                `json:"dd_score,omitempty"`

	Summary     Status   `json:"summary"`
	Diagnostics []string `json:"diagnostics,omitempty"`
}

// mandatoryFields are the statuses folded into the board summary. A
// passed-out board has no declarer by construction, so that field is not
// held against it.
func (b *CanonicalBoard) mandatoryFields() []Status {
	s := []Status{
		b.Dealer.Status, b.Vul.Status, b.Auction.Status,
		b.Contract.Status, b.Tricks.Status, b.Score.Status,
	}
	if c, ok := b.Contract.Get(); !ok || !c.PassedOut() {
		s = append(s, b.Declarer.Status)
	}
	return s
}

func (b *CanonicalBoard) summarize() {
	s := Match
	for _, f := range b.mandatoryFields() {
		s = Worst(s, f)
	}
	b.Summary = s
}
