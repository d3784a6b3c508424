package engine

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustCalls(t *testing.T, s string) []Call {
	t.Helper()
	calls, err := ParseCalls(s)
	require.NoError(t, err)
	return calls
}

func TestRunSimpleAuction(t *testing.T) {
	c, err := Run(North, mustCalls(t, "1C-P-1H-P-1N-P-P-P"))
	require.NoError(t, err)
	assert.Equal(t, 1, c.Level)
	assert.Equal(t, NoTrump, c.Strain)
	assert.Equal(t, Undoubled, c.Doubling)
	assert.Equal(t, North, c.Declarer)
}

func TestRunPassedOut(t *testing.T) {
	c, err := Run(West, mustCalls(t, "P-P-P-P"))
	require.NoError(t, err)
	assert.True(t, c.PassedOut())
}

func TestDeclarerIsFirstToNameStrain(t *testing.T) {
	// North bids notrump first; South plays it even though South made the
	// final bid. Intervening passes must not matter.
	c, err := Run(North, mustCalls(t, "1N-P-3N-P-P-P"))
	require.NoError(t, err)
	assert.Equal(t, North, c.Declarer)

	// East-West win the contract in spades; West named spades first.
	c, err = Run(North, mustCalls(t, "1C-1S-P-P-2C-2S-P-P-P"))
	require.NoError(t, err)
	assert.Equal(t, East, c.Declarer)
}

func TestDoubledAndRedoubled(t *testing.T) {
	c, err := Run(North, mustCalls(t, "1S-P-P-X-P-P-P"))
	require.NoError(t, err)
	assert.Equal(t, Doubled, c.Doubling)
	assert.Equal(t, North, c.Declarer)

	c, err = Run(North, mustCalls(t, "1D-X-XX-P-P-P"))
	require.NoError(t, err)
	assert.Equal(t, Redoubled, c.Doubling)
}

func TestIllegalCalls(t *testing.T) {
	cases := []struct {
		name   string
		dealer Seat
		calls  string
		pos    int
		reason CallReason
	}{
		{"double own side", North, "1C-P-X", 2, ReasonDoubleWithoutBid},
		{"double before any bid", North, "P-X", 1, ReasonDoubleWithoutBid},
		{"double a double", North, "1C-X-P-X", 3, ReasonDoubleAlreadyDoubled},
		{"redouble without double", North, "1C-XX", 1, ReasonRedoubleWithoutDouble},
		{"redouble by the doubling side", North, "1C-X-P-XX", 3, ReasonRedoubleWithoutDouble},
		{"insufficient bid", North, "1C-1C", 1, ReasonBidDoesNotDominate},
		{"lower strain same level", North, "1S-P-1H", 2, ReasonBidDoesNotDominate},
		{"call after close", North, "1C-P-P-P-1D", 4, ReasonAuctionClosed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Run(tc.dealer, mustCalls(t, tc.calls))
			var ill *IllegalCall
			require.ErrorAs(t, err, &ill)
			assert.Equal(t, tc.pos, ill.Position)
			assert.Equal(t, tc.reason, ill.Reason)
		})
	}
}

func TestDoubleAfterTwoPassesIsLegal(t *testing.T) {
	// Balancing double: the bid is still the last non-pass call and belongs
	// to the opponents.
	_, err := Run(North, mustCalls(t, "1S-P-P-X-P-P-P"))
	assert.NoError(t, err)
}

func TestMalformedBidLevel(t *testing.T) {
	a := NewAuction(North)
	err := a.Apply(Call{Kind: CallBid, Level: 8, Strain: StrainClubs})
	var ill *IllegalCall
	require.ErrorAs(t, err, &ill)
	assert.Equal(t, ReasonMalformedCall, ill.Reason)
}

func TestAuctionFacts(t *testing.T) {
	a := NewAuction(East)
	for _, c := range mustCalls(t, "P-1C-1S-2C-2S-P-P-P") {
		require.NoError(t, a.Apply(c))
	}
	f := a.Facts()
	require.NotNil(t, f.Opener)
	assert.Equal(t, South, *f.Opener)
	assert.Equal(t, Bid(1, StrainClubs), f.Opening)
	assert.Equal(t, 2, f.OpenSeat)
	require.NotNil(t, f.Intervener)
	assert.Equal(t, West, *f.Intervener)
	assert.Equal(t, Bid(1, StrainSpades), f.Intervention)
	assert.Equal(t, North, *f.Responder())
	assert.Equal(t, East, *f.Advancer())

	contract, ok := a.Contract()
	require.True(t, ok)
	assert.Equal(t, West, contract.Declarer)
	assert.Equal(t, StrainSpades, contract.Strain)
}

func TestRepairKeepsLongestLegalPrefix(t *testing.T) {
	calls := mustCalls(t, "1N-P-2N-2C-P-P-P")
	rep := RepairAuction(North, calls)
	require.NotNil(t, rep.Broken)
	assert.Equal(t, 3, rep.Broken.Position)
	assert.Equal(t, ReasonBidDoesNotDominate, rep.Broken.Reason)
	assert.Len(t, rep.Prefix, 3)
	assert.Nil(t, rep.Contract)
	assert.False(t, rep.Complete())
}

func TestRepairCompleteSequence(t *testing.T) {
	rep := RepairAuction(North, mustCalls(t, "1N-P-3N-P-P-P"))
	require.True(t, rep.Complete())
	require.NotNil(t, rep.Contract)
	assert.Equal(t, 3, rep.Contract.Level)
	assert.Equal(t, NoTrump, rep.Contract.Strain)
	assert.Equal(t, North, rep.Contract.Declarer)
}

func TestRepairOpenSequence(t *testing.T) {
	rep := RepairAuction(North, mustCalls(t, "1N-P"))
	assert.Nil(t, rep.Broken)
	assert.Nil(t, rep.Contract)
	assert.False(t, rep.Complete())
}

func TestCallRoundTrip(t *testing.T) {
	for _, s := range []string{"1C", "3N", "7S", "P", "X", "XX"} {
		c, err := ParseCall(s)
		require.NoError(t, err)
		assert.Equal(t, s, c.String())
	}
	_, err := ParseCall("8C")
	assert.Error(t, err)
	_, err = ParseCall("1F")
	assert.Error(t, err)
}

func TestParseContract(t *testing.T) {
	cases := []struct {
		in   string
		want Contract
	}{
		{"3N", contractOf(3, NoTrump, Undoubled, North)},
		{"3NT", contractOf(3, NoTrump, Undoubled, North)},
		{"4SX", contractOf(4, StrainSpades, Doubled, North)},
		{"2HXX", contractOf(2, StrainHearts, Redoubled, North)},
		{"4SX E", contractOf(4, StrainSpades, Doubled, East)},
		{"AP", Contract{}},
		{"PASS", Contract{}},
	}
	for _, tc := range cases {
		got, err := ParseContract(tc.in)
		require.NoError(t, err, tc.in)
		assert.Equal(t, tc.want, got, tc.in)
	}
	for _, bad := range []string{"8S", "4Z", "4SXXX", "X"} {
		_, err := ParseContract(bad)
		assert.Error(t, err, bad)
	}
}

func contractOf(level int, strain Strain, d Doubling, declarer Seat) Contract {
	return Contract{Level: level, Strain: strain, Doubling: d, Declarer: declarer}
}

func TestErrorsIsIllegalCall(t *testing.T) {
	_, err := Run(North, mustCalls(t, "1C-1C"))
	require.Error(t, err)
	assert.True(t, errors.As(err, new(*IllegalCall)))
}
