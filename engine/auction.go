package engine

import (
	"fmt"
	"strconv"
	"strings"
)

// Strain in bidding order: clubs lowest, notrump highest.
type Strain int

const (
	StrainClubs Strain = iota
	StrainDiamonds
	StrainHearts
	StrainSpades
	NoTrump
)

func (s Strain) String() string { return "CDHSN"[s : s+1] }

// Suit converts a trump strain to its hand-diagram suit. Not meaningful for
// notrump.
func (s Strain) Suit() Suit { return Suit(3 - int(s)) }

func ParseStrain(b byte) (Strain, error) {
	switch b {
	case 'C', 'c':
		return StrainClubs, nil
	case 'D', 'd':
		return StrainDiamonds, nil
	case 'H', 'h':
		return StrainHearts, nil
	case 'S', 's':
		return StrainSpades, nil
	case 'N', 'n':
		return NoTrump, nil
	}
	return 0, fmt.Errorf("bad strain %q", b)
}

// CallKind discriminates the four bidding actions.
type CallKind int

const (
	CallBid CallKind = iota
	CallPass
	CallDouble
	CallRedouble
)

// Call is one action in an auction. Level and Strain are meaningful only for
// CallBid.
type Call struct {
	Kind   CallKind
	Level  int
	Strain Strain
}

func Bid(level int, strain Strain) Call { return Call{Kind: CallBid, Level: level, Strain: strain} }

var (
	Pass     = Call{Kind: CallPass}
	Double   = Call{Kind: CallDouble}
	Redouble = Call{Kind: CallRedouble}
)

// WellFormed reports whether the call is a value the state machine can even
// consider: bids need a level in 1..7.
func (c Call) WellFormed() bool {
	return c.Kind != CallBid || (c.Level >= 1 && c.Level <= 7)
}

// Dominates orders contract bids: higher level wins, then strain rank.
func (c Call) Dominates(o Call) bool {
	if c.Level != o.Level {
		return c.Level > o.Level
	}
	return c.Strain > o.Strain
}

func (c Call) String() string {
	switch c.Kind {
	case CallPass:
		return "P"
	case CallDouble:
		return "X"
	case CallRedouble:
		return "XX"
	}
	return strconv.Itoa(c.Level) + c.Strain.String()
}

// ParseCall reads the compact call form: "1C".."7N", "P", "X", "XX".
func ParseCall(s string) (Call, error) {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "P", "PASS":
		return Pass, nil
	case "X", "DBL":
		return Double, nil
	case "XX", "RDBL":
		return Redouble, nil
	}
	if len(s) == 2 && s[0] >= '1' && s[0] <= '7' {
		strain, err := ParseStrain(s[1])
		if err == nil {
			return Bid(int(s[0]-'0'), strain), nil
		}
	}
	return Call{}, fmt.Errorf("bad call %q", s)
}

func (c Call) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Call) UnmarshalText(b []byte) error {
	parsed, err := ParseCall(string(b))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// FormatCalls renders a call sequence as "1N-P-3N-P-P-P".
func FormatCalls(calls []Call) string {
	parts := make([]string, len(calls))
	for i, c := range calls {
		parts[i] = c.String()
	}
	return strings.Join(parts, "-")
}

// ParseCalls reads the dash-joined sequence form produced by FormatCalls.
func ParseCalls(s string) ([]Call, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, "-")
	calls := make([]Call, len(parts))
	for i, p := range parts {
		c, err := ParseCall(p)
		if err != nil {
			return nil, err
		}
		calls[i] = c
	}
	return calls, nil
}

// Doubling is the premium state of a contract.
type Doubling int

const (
	Undoubled Doubling = iota
	Doubled
	Redoubled
)

func (d Doubling) String() string {
	switch d {
	case Doubled:
		return "X"
	case Redoubled:
		return "XX"
	}
	return ""
}

// Contract is the outcome of a completed auction. Level 0 means the deal was
// passed out: no strain, no doubling, no declarer.
type Contract struct {
	Level    int
	Strain   Strain
	Doubling Doubling
	Declarer Seat
}

func (c Contract) PassedOut() bool { return c.Level == 0 }

func (c Contract) String() string {
	if c.PassedOut() {
		return "AP"
	}
	return fmt.Sprintf("%d%s%s %s", c.Level, c.Strain, c.Doubling, c.Declarer)
}

// ParseContract reads the compact contract form: "3N", "4SX", "2HXX",
// optionally followed by the declarer seat ("4SX N"). "AP", "P", and "PASS"
// name a passed-out deal.
func ParseContract(s string) (Contract, error) {
	t := strings.ToUpper(strings.TrimSpace(s))
	switch t {
	case "AP", "P", "PASS":
		return Contract{}, nil
	}
	var c Contract
	if i := strings.IndexByte(t, ' '); i >= 0 {
		seat, err := ParseSeat(t[i+1:])
		if err != nil {
			return Contract{}, fmt.Errorf("contract %q: %w", s, err)
		}
		c.Declarer = seat
		t = strings.TrimSpace(t[:i])
	}
	t = strings.Replace(t, "NT", "N", 1)
	if len(t) < 2 || t[0] < '1' || t[0] > '7' {
		return Contract{}, fmt.Errorf("bad contract %q", s)
	}
	c.Level = int(t[0] - '0')
	strain, err := ParseStrain(t[1])
	if err != nil {
		return Contract{}, fmt.Errorf("contract %q: %w", s, err)
	}
	c.Strain = strain
	switch t[2:] {
	case "":
	case "X":
		c.Doubling = Doubled
	case "XX":
		c.Doubling = Redoubled
	default:
		return Contract{}, fmt.Errorf("bad contract %q", s)
	}
	return c, nil
}

// CallReason names the rule an illegal call broke.
type CallReason string

const (
	ReasonBidDoesNotDominate    CallReason = "bid-does-not-dominate"
	ReasonDoubleWithoutBid      CallReason = "double-without-opposing-bid"
	ReasonDoubleAlreadyDoubled  CallReason = "double-already-doubled"
	ReasonRedoubleWithoutDouble CallReason = "redouble-without-opposing-double"
	ReasonAuctionClosed         CallReason = "call-after-auction-closed"
	ReasonMalformedCall         CallReason = "malformed-call"
)

// IllegalCall reports a rejected call with its zero-based position in the
// sequence.
type IllegalCall struct {
	Position int
	Seat     Seat
	Call     Call
	Reason   CallReason
}

func (e *IllegalCall) Error() string {
	return fmt.Sprintf("illegal call %s by %s at %d: %s", e.Call, e.Seat, e.Position, e.Reason)
}

// Auction replays a bidding sequence one call at a time, enforcing legality
// and tracking everything needed to derive the contract and auction facts.
type Auction struct {
	dealer Seat
	toAct  Seat
	calls  []Call

	lastBid     Call // zero Call when no contract bid yet
	haveBid     bool
	lastBidSeat Seat
	doubling    Doubling
	passes      int
	closed      bool

	// first seat of each side to name each strain, for declarer derivation
	firstNamed [2]map[Strain]Seat

	facts Facts
}

// Facts are the positional attributes of an auction beyond its contract:
// who opened, who intervened, and with what.
type Facts struct {
	Opener       *Seat
	Opening      Call
	OpenSeat     int // 1-based position of the opening bid, 0 if passed out
	Intervener   *Seat
	Intervention Call
}

// Responder is the opener's partner, if anyone opened.
func (f Facts) Responder() *Seat {
	if f.Opener == nil {
		return nil
	}
	p := f.Opener.Partner()
	return &p
}

// Advancer is the intervener's partner, if anyone intervened.
func (f Facts) Advancer() *Seat {
	if f.Intervener == nil {
		return nil
	}
	p := f.Intervener.Partner()
	return &p
}

func NewAuction(dealer Seat) *Auction {
	return &Auction{
		dealer:     dealer,
		toAct:      dealer,
		firstNamed: [2]map[Strain]Seat{{}, {}},
	}
}

func (a *Auction) Dealer() Seat  { return a.dealer }
func (a *Auction) ToAct() Seat   { return a.toAct }
func (a *Auction) Calls() []Call { return a.calls }
func (a *Auction) Closed() bool  { return a.closed }
func (a *Auction) Facts() Facts  { return a.facts }

func (a *Auction) reject(c Call, reason CallReason) error {
	return &IllegalCall{Position: len(a.calls), Seat: a.toAct, Call: c, Reason: reason}
}

// Apply validates one call and advances the state machine. On rejection the
// state is unchanged and the error is an *IllegalCall.
func (a *Auction) Apply(c Call) error {
	if a.closed {
		return a.reject(c, ReasonAuctionClosed)
	}
	if !c.WellFormed() {
		return a.reject(c, ReasonMalformedCall)
	}
	seat := a.toAct
	side := seat.Side()

	switch c.Kind {
	case CallPass:
		a.passes++
		if a.passes >= 3 && a.haveBid {
			a.closed = true
		} else if a.passes == 4 {
			a.closed = true // passed out
		}

	case CallDouble:
		if !a.haveBid {
			return a.reject(c, ReasonDoubleWithoutBid)
		}
		if a.lastBidSeat.Side() == side {
			return a.reject(c, ReasonDoubleWithoutBid)
		}
		if a.doubling != Undoubled {
			return a.reject(c, ReasonDoubleAlreadyDoubled)
		}
		a.doubling = Doubled
		a.passes = 0

	case CallRedouble:
		if a.doubling != Doubled || a.lastBidSeat.Side() != side {
			return a.reject(c, ReasonRedoubleWithoutDouble)
		}
		a.doubling = Redoubled
		a.passes = 0

	case CallBid:
		if a.haveBid && !c.Dominates(a.lastBid) {
			return a.reject(c, ReasonBidDoesNotDominate)
		}
		a.lastBid = c
		a.haveBid = true
		a.lastBidSeat = seat
		a.doubling = Undoubled
		a.passes = 0
		if _, named := a.firstNamed[side][c.Strain]; !named {
			a.firstNamed[side][c.Strain] = seat
		}
		if a.facts.Opener == nil {
			s := seat
			a.facts.Opener = &s
			a.facts.Opening = c
			a.facts.OpenSeat = len(a.calls) + 1
		}
	}

	// Intervention: first call, other than a pass, by the non-opening side.
	if c.Kind != CallPass && a.facts.Opener != nil && a.facts.Intervener == nil &&
		side != a.facts.Opener.Side() {
		s := seat
		a.facts.Intervener = &s
		a.facts.Intervention = c
	}

	a.calls = append(a.calls, c)
	a.toAct = a.toAct.Next()
	return nil
}

// Contract derives the final contract of a closed auction. The declarer is
// the first member of the winning side to name the winning strain. ok is
// false while the auction is still open.
func (a *Auction) Contract() (Contract, bool) {
	if !a.closed {
		return Contract{}, false
	}
	if !a.haveBid {
		return Contract{}, true // passed out
	}
	side := a.lastBidSeat.Side()
	return Contract{
		Level:    a.lastBid.Level,
		Strain:   a.lastBid.Strain,
		Doubling: a.doubling,
		Declarer: a.firstNamed[side][a.lastBid.Strain],
	}, true
}

// Run replays a full sequence and derives its contract. The sequence must be
// legal and closed.
func Run(dealer Seat, calls []Call) (Contract, error) {
	a := NewAuction(dealer)
	for _, c := range calls {
		if err := a.Apply(c); err != nil {
			return Contract{}, err
		}
	}
	contract, ok := a.Contract()
	if !ok {
		return Contract{}, fmt.Errorf("auction not closed after %d calls", len(calls))
	}
	return contract, nil
}

// Repair replays a recorded, possibly malformed sequence and keeps the
// longest legal prefix. It reports where legality broke so callers can grade
// the recorded auction as fully trusted, partially trusted, or unusable.
type Repair struct {
	Prefix   []Call       // longest legal prefix
	Broken   *IllegalCall // nil when the whole sequence is legal
	Contract *Contract    // derived contract, nil unless the prefix closes
	Facts    Facts
}

// Complete reports whether the entire recorded sequence was legal and
// reached a terminal state.
func (r Repair) Complete() bool { return r.Broken == nil && r.Contract != nil }

func RepairAuction(dealer Seat, calls []Call) Repair {
	a := NewAuction(dealer)
	var rep Repair
	for _, c := range calls {
		if err := a.Apply(c); err != nil {
			rep.Broken = err.(*IllegalCall)
			break
		}
	}
	rep.Prefix = a.Calls()
	rep.Facts = a.Facts()
	if contract, ok := a.Contract(); ok {
		rep.Contract = &contract
	}
	return rep
}
