package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustHand(t *testing.T, s string) Hand {
	t.Helper()
	h, err := ParseHand(s)
	require.NoError(t, err)
	return h
}

func TestHandRoundTrip(t *testing.T) {
	const s = "AKJ62.K7.Q98.KT3"
	h := mustHand(t, s)
	assert.Len(t, h, 13)
	assert.Equal(t, s, h.String())
}

func TestHandStringCanonical(t *testing.T) {
	// Unsorted input renders sorted ace-first.
	a := mustHand(t, "26JKA.7K.89Q.3TK")
	b := mustHand(t, "AKJ62.K7.Q98.KT3")
	assert.Equal(t, b.String(), a.String())
}

func TestParseHandVoidSuit(t *testing.T) {
	h := mustHand(t, "AKQJT98765432...")
	assert.Len(t, h, 13)
	assert.Equal(t, "AKQJT98765432...", h.String())
}

func TestParseHandErrors(t *testing.T) {
	_, err := ParseHand("AK.QJ.T9")
	assert.Error(t, err)
	_, err = ParseHand("AKX62.K7.Q98.KT3")
	assert.Error(t, err)
}

func TestDeriveFeatures(t *testing.T) {
	h := mustHand(t, "AKJ62.K7.Q98.KT3")
	f, err := DeriveFeatures(h)
	require.NoError(t, err)
	assert.Equal(t, 16, f.HCP)
	assert.Equal(t, [4]int{8, 3, 2, 3}, f.SuitHCP)
	assert.Equal(t, [4]int{5, 2, 3, 3}, f.SuitLength)
	assert.Equal(t, 5, f.Controls)
	assert.Equal(t, "5-2-3-3", f.Pattern)
	assert.Equal(t, "5.3.3.2", f.Shape)
	assert.True(t, f.Balanced)
}

func TestDeriveFeaturesUnbalanced(t *testing.T) {
	f, err := DeriveFeatures(mustHand(t, "AKQJT.9876.54.32"))
	require.NoError(t, err)
	assert.Equal(t, "5-4-2-2", f.Pattern)
	assert.False(t, f.Balanced)

	f, err = DeriveFeatures(mustHand(t, "AKQJT9876.5432.."))
	require.NoError(t, err)
	assert.Equal(t, "9.4.0.0", f.Shape)
	assert.False(t, f.Balanced)
}

func TestDeriveFeaturesIncomplete(t *testing.T) {
	_, err := DeriveFeatures(mustHand(t, "AK.QJ.T9.87"))
	assert.ErrorIs(t, err, ErrIncomplete)

	h := mustHand(t, "AAKQJ.T98.765.43")
	_, err = DeriveFeatures(h)
	assert.ErrorIs(t, err, ErrIncomplete)
}

func TestHolding(t *testing.T) {
	h := mustHand(t, "AKJ62.K7.Q98.KT3")
	assert.Equal(t, []Rank{Ace, King, Jack, 6, 2}, h.Holding(Spades))
	assert.Equal(t, []Rank{King, 7}, h.Holding(Hearts))
}

func TestClassifyLead(t *testing.T) {
	cases := []struct {
		name    string
		holding []Rank
		lead    Rank
		want    LeadType
	}{
		{"singleton", []Rank{7}, 7, LeadSingleton},
		{"king from KQ", []Rank{King, Queen, 5}, King, LeadTouching},
		{"queen from QJ", []Rank{Queen, Jack, 4}, Queen, LeadTouching},
		{"bare king", []Rank{King, 7, 2}, King, LeadBareHonor},
		{"ten from JT", []Rank{Jack, Ten, 3}, Ten, LeadTouching},
		{"ten from T9", []Rank{Ten, 9, 3}, Ten, LeadTouching},
		{"top of doubleton", []Rank{8, 3}, 8, LeadTopOfDblt},
		{"low from doubleton", []Rank{8, 3}, 3, LeadLowOfDblt},
		{"fourth best", []Rank{King, 9, 7, 5, 2}, 5, "4th-best"},
		{"second best", []Rank{9, 7, 5, 2}, 7, "2nd-best"},
		{"not in holding", []Rank{King, 9, 7}, Queen, LeadUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ClassifyLead(tc.holding, tc.lead))
		})
	}
}
