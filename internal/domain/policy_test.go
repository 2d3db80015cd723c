package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignalSet_KeyIsOrderIndependent(t *testing.T) {
	a := NewSignalSet("ADX", "120_ma", "tempeture_index")
	b := NewSignalSet("tempeture_index", "ADX", "120_ma")
	assert.Equal(t, a.Key(), b.Key())
	assert.Equal(t, "120_ma|ADX|tempeture_index", a.Key())
	assert.Equal(t, "", NewSignalSet().Key())
}

func TestSignalSet_AddRemoveIdempotent(t *testing.T) {
	s := NewSignalSet()
	s.Add("ADX")
	s.Add("ADX")
	assert.Len(t, s, 1)
	s.Remove("ADX")
	s.Remove("ADX") // no-op si no está
	assert.Len(t, s, 0)
}

func TestPolicy_LookupMissIsNotAnError(t *testing.T) {
	policy := DefaultPolicy()
	_, ok := policy.Lookup(NewSignalSet("something_else"))
	assert.False(t, ok)

	entry, ok := policy.Lookup(NewSignalSet("ADX", "tempeture_index"))
	require.True(t, ok)
	assert.Equal(t, PositionLong1x, entry.Position)
}

func TestPolicy_ValidateRejectsUnknownPosition(t *testing.T) {
	policy := Policy{"ADX": {Position: "margin_10x", Ratio: 1}}
	err := policy.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "margin_10x")
}

func TestPolicy_ValidateRejectsBadRatio(t *testing.T) {
	policy := Policy{"ADX": {Position: PositionSpot, Ratio: -0.1}}
	require.Error(t, policy.Validate())
	policy = Policy{"ADX": {Position: PositionSpot, Ratio: 1.01}}
	require.Error(t, policy.Validate())
}

func TestDefaultPolicy_CoversAllCombinations(t *testing.T) {
	policy := DefaultPolicy()
	require.NoError(t, policy.Validate())
	assert.Len(t, policy, 8)

	entry, ok := policy.Lookup(NewSignalSet())
	require.True(t, ok)
	assert.Equal(t, PositionFlat, entry.Position)

	entry, ok = policy.Lookup(NewSignalSet("tempeture_index", "120_ma", "ADX"))
	require.True(t, ok)
	assert.Equal(t, PositionLong2x, entry.Position)
}

func TestParsePolicyJSON(t *testing.T) {
	text := `{
		"": {"position": "flat"},
		"ADX|tempeture_index": {"position": "long_1x", "ratio": 0.5},
		"120_ma": {"position": "现货"}
	}`

	policy, err := ParsePolicyJSON(text, NewNormalizer())
	require.NoError(t, err)
	require.Len(t, policy, 3)

	entry, ok := policy.Lookup(NewSignalSet("tempeture_index", "ADX"))
	require.True(t, ok)
	assert.Equal(t, PositionLong1x, entry.Position)
	assert.Equal(t, 0.5, entry.Ratio)

	// Alias legacy y ratio por defecto 1.
	entry, ok = policy.Lookup(NewSignalSet("120_ma"))
	require.True(t, ok)
	assert.Equal(t, PositionSpot, entry.Position)
	assert.Equal(t, 1.0, entry.Ratio)
}

func TestParsePolicyJSON_NormalizesKeys(t *testing.T) {
	// Las claves escritas con texto extra caen en el mismo vocabulario que
	// las señales de los eventos.
	text := `{"ADX above 25|tempeture_index hot": {"position": "spot"}}`
	policy, err := ParsePolicyJSON(text, NewNormalizer())
	require.NoError(t, err)

	_, ok := policy.Lookup(NewSignalSet("ADX", "tempeture_index"))
	assert.True(t, ok)
}

func TestParsePolicyJSON_Errors(t *testing.T) {
	_, err := ParsePolicyJSON(`not json`, NewNormalizer())
	require.Error(t, err)

	_, err = ParsePolicyJSON(`{"ADX": {"position": "teleport"}}`, NewNormalizer())
	require.Error(t, err)

	_, err = ParsePolicyJSON(`{"ADX": {"position": "spot", "ratio": 2}}`, NewNormalizer())
	require.Error(t, err)
}
