package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize_SubstringMatch(t *testing.T) {
	norm := NewNormalizer()

	tests := []struct {
		raw  string
		want string
	}{
		{"tempeture_index", "tempeture_index"},
		{"tempeture_index > 0.8 (overheated)", "tempeture_index"},
		{"price crossed 120_ma upwards", "120_ma"},
		{"ADX", "ADX"},
		{"strong trend: ADX above 25", "ADX"},
		{"  unknown_signal  ", "unknown_signal"}, // vía de escape: trim y passthrough
		{"", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, norm.Normalize(tt.raw), "raw=%q", tt.raw)
	}
}

func TestNormalize_Idempotent(t *testing.T) {
	norm := NewNormalizer()
	for _, canonical := range DefaultSignals {
		assert.Equal(t, canonical, norm.Normalize(canonical))
		assert.Equal(t, canonical, norm.Normalize(norm.Normalize(canonical)))
	}
}

func TestNormalize_PriorityOrder(t *testing.T) {
	// Cuando una etiqueta contiene dos canónicas, gana la primera del
	// vocabulario.
	norm := NewNormalizer()
	assert.Equal(t, "tempeture_index", norm.Normalize("tempeture_index and 120_ma both fired"))

	custom := NewNormalizer("120_ma", "tempeture_index")
	assert.Equal(t, "120_ma", custom.Normalize("tempeture_index and 120_ma both fired"))
}
