package terraform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	giants    = Policy{Resource: Workers, FlatCost: 2, FlatSpades: 2, Target: Mountains, Restricted: true}
	darklings = Policy{Resource: Priests}
)

func TestDistanceWrapsAroundWheel(t *testing.T) {
	tests := []struct {
		from, to Terrain
		want     int
	}{
		{Plains, Plains, 0},
		{Plains, Swamp, 1},
		{Plains, Forest, 3},
		{Plains, Mountains, 3},
		{Plains, Desert, 1},
		{Swamp, Wasteland, 3},
		{Lakes, Desert, 3},
		{Forest, River, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Distance(tt.from, tt.to), "%s -> %s", tt.from, tt.to)
		assert.Equal(t, tt.want, Distance(tt.to, tt.from), "%s -> %s", tt.to, tt.from)
	}
}

func TestWorkerCostByExchangeLevel(t *testing.T) {
	for level, perSpade := range []int{3, 2, 1} {
		cost, ok := Cost(Plains, Forest, level, DefaultPolicy)
		require.True(t, ok)
		assert.Equal(t, perSpade*3, cost, "level %d", level)
	}

	cost, ok := Cost(Plains, Swamp, 7, DefaultPolicy)
	require.True(t, ok)
	assert.Equal(t, 3, cost, "unknown levels fall back to the base rate")
}

func TestFlatPolicyOnlyTargetsOneTerrain(t *testing.T) {
	cost, ok := Cost(Plains, Mountains, 0, giants)
	require.True(t, ok)
	assert.Equal(t, 2, cost)
	assert.Equal(t, 2, SpadesNeeded(Lakes, Mountains, giants))

	cost, ok = Cost(Desert, Mountains, 2, giants)
	require.True(t, ok)
	assert.Equal(t, 2, cost, "flat cost ignores exchange level and distance")

	_, ok = Cost(Plains, Swamp, 0, giants)
	assert.False(t, ok)
}

func TestPriestPolicyPaysPerSpade(t *testing.T) {
	cost, ok := Cost(Plains, Forest, 0, darklings)
	require.True(t, ok)
	assert.Equal(t, 3, cost)

	assert.True(t, CanTransform(Request{From: Plains, To: Forest, Connected: true, Workers: 0, Priests: 3}, darklings))
	assert.False(t, CanTransform(Request{From: Plains, To: Forest, Connected: true, Workers: 20, Priests: 2}, darklings))
}

func TestCanTransform(t *testing.T) {
	base := Request{From: Plains, To: Lakes, Connected: true, Workers: 6}

	assert.True(t, CanTransform(base, DefaultPolicy))

	short := base
	short.Workers = 5
	assert.False(t, CanTransform(short, DefaultPolicy))

	far := base
	far.Connected = false
	assert.False(t, CanTransform(far, DefaultPolicy))

	river := base
	river.To = River
	assert.False(t, CanTransform(river, DefaultPolicy))

	fromRiver := base
	fromRiver.From = River
	assert.False(t, CanTransform(fromRiver, DefaultPolicy))

	same := base
	same.To = Plains
	assert.False(t, CanTransform(same, DefaultPolicy))
}

func TestCostForSpades(t *testing.T) {
	assert.Equal(t, 0, CostForSpades(0, 0, DefaultPolicy))
	assert.Equal(t, 6, CostForSpades(2, 0, DefaultPolicy))
	assert.Equal(t, 4, CostForSpades(2, 1, DefaultPolicy))
	assert.Equal(t, 1, CostForSpades(1, 0, giants))
	assert.Equal(t, 2, CostForSpades(2, 0, giants))
	assert.Equal(t, 2, CostForSpades(5, 0, giants))
	assert.Equal(t, 2, CostForSpades(2, 0, darklings))
}

func TestParseTerrain(t *testing.T) {
	tr, err := ParseTerrain("m")
	require.NoError(t, err)
	assert.Equal(t, Mountains, tr)

	tr, err = ParseTerrain("wasteland")
	require.NoError(t, err)
	assert.Equal(t, Wasteland, tr)

	_, err = ParseTerrain("X")
	assert.Error(t, err)
}
