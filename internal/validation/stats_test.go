package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fs(vals ...interface{}) []*float64 {
	out := make([]*float64, len(vals))
	for i, v := range vals {
		if f, ok := v.(float64); ok {
			out[i] = &f
		}
	}
	return out
}

func TestCompare(t *testing.T) {
	st := compare(fs(1.0, 2.0, nil, 4.0), fs(1.5, 1.0, 3.0, nil))
	assert.Equal(t, 2, st.Compared)
	require.NotNil(t, st.MAE)
	assert.InDelta(t, 0.75, *st.MAE, 1e-12)
	assert.InDelta(t, 1.0, *st.MaxAbsError, 1e-12)
}

func TestCompare_NothingToCompare(t *testing.T) {
	st := compare(fs(nil, 1.0), fs(2.0, nil))
	assert.Equal(t, 0, st.Compared)
	assert.Nil(t, st.MAE)
	assert.Nil(t, st.MaxAbsError)
}

func TestDiffs(t *testing.T) {
	d := diffs(fs(1.0, nil, 3.0), fs(0.5, 1.0, 4.0))
	require.NotNil(t, d[0])
	assert.Equal(t, 0.5, *d[0])
	assert.Nil(t, d[1])
	assert.Equal(t, -1.0, *d[2])
}

func TestNearThreshold(t *testing.T) {
	assert.True(t, nearThreshold(1.05))
	assert.True(t, nearThreshold(1.55))
	assert.True(t, nearThreshold(2.4))
	assert.True(t, nearThreshold(2.9))
	assert.False(t, nearThreshold(0.9))
	assert.False(t, nearThreshold(2.0))
	assert.False(t, nearThreshold(3.5))
}

func TestCompareCategories(t *testing.T) {
	// 1.29 vs 1.31 straddles the low cut-off; 0.5/0.6 and 3.5/3.4 agree.
	st := compareCategories(fs(1.29, 0.5, 3.5, nil), fs(1.31, 0.6, 3.4, 2.0))
	assert.Equal(t, 3, st.Compared)
	assert.Equal(t, 1, st.Discordant)
	require.NotNil(t, st.Agreement)
	assert.InDelta(t, 2.0/3.0, *st.Agreement, 1e-12)
	assert.Equal(t, 1, st.NearThreshold)
	require.NotNil(t, st.NearAgreement)
	assert.Equal(t, 0.0, *st.NearAgreement)
}

func TestCountDefined(t *testing.T) {
	assert.Equal(t, 2, countDefined(fs(1.0, nil, 0.0)))
}
