package gauges

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		count int64
		want  Tier
	}{
		{0, TierNone},
		{4, TierNone},
		{5, TierMedium},
		{12, TierMedium},
		{20, TierMedium},
		{21, TierActive},
		{500, TierActive},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.count), "count %d", tt.count)
	}
}

func TestTier_SelectorScript(t *testing.T) {
	assert.Equal(t, "params.count >= 21", TierActive.selectorScript())
	assert.Equal(t, "params.count >= 5 && params.count <= 20", TierMedium.selectorScript())
}

func TestTier_String(t *testing.T) {
	assert.Equal(t, "active", TierActive.String())
	assert.Equal(t, "medium", TierMedium.String())
	assert.Equal(t, "none", TierNone.String())
}
