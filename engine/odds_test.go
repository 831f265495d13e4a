package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeOdds(t *testing.T) {
	tests := []struct {
		name           string
		distances      []int
		finishDistance int
		want           []OddsPair
	}{
		{
			name:           "empty field",
			distances:      []int{},
			finishDistance: 12,
			want:           []OddsPair{},
		},
		{
			name:           "single team is priced as furthest back",
			distances:      []int{5},
			finishDistance: 10,
			want:           []OddsPair{{Odd1: 31, Odd2: 22}},
		},
		{
			name:           "all tied defaults with last position zeroed",
			distances:      []int{3, 3, 3},
			finishDistance: 12,
			want: []OddsPair{
				{Odd1: 2, Odd2: 1},
				{Odd1: 2, Odd2: 1},
				{Odd1: 0, Odd2: 0},
			},
		},
		{
			name:           "leader is not bettable",
			distances:      []int{0, 5, 10},
			finishDistance: 12,
			want: []OddsPair{
				{Odd1: 31, Odd2: 22},
				{Odd1: 10, Odd2: 7},
				{Odd1: 0, Odd2: 0},
			},
		},
		{
			name:           "two team field",
			distances:      []int{4, 7},
			finishDistance: 12,
			want: []OddsPair{
				{Odd1: 31, Odd2: 22},
				{Odd1: 0, Odd2: 0},
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeOdds(tt.distances, tt.finishDistance)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestComputeOddsNeverNegative(t *testing.T) {
	fields := [][]int{
		{0, 1, 2, 3, 4, 5},
		{10, 10, 10, 0},
		{7},
		{2, 2},
	}
	for _, distances := range fields {
		pairs := ComputeOdds(distances, 12)
		require.Len(t, pairs, len(distances))
		for i, pair := range pairs {
			assert.GreaterOrEqual(t, pair.Odd1, 0.0, "odd1 for position %d", i)
			assert.GreaterOrEqual(t, pair.Odd2, 0.0, "odd2 for position %d", i)
			assert.LessOrEqual(t, pair.Odd2, pair.Odd1, "odd2 must not exceed odd1 at position %d", i)
		}
	}
}

func TestSmoothNormalizedOddsFloorsAtOne(t *testing.T) {
	strategy := NewSmoothNormalizedOdds()
	pairs := strategy.Compute([]int{0, 6, 12}, 12)
	require.Len(t, pairs, 3)
	for i, pair := range pairs {
		assert.GreaterOrEqual(t, pair.Odd1, 1.0, "odd1 at position %d", i)
		assert.GreaterOrEqual(t, pair.Odd2, 1.0, "odd2 at position %d", i)
	}
	// The team at the start pays out the most.
	assert.Greater(t, pairs[0].Odd1, pairs[2].Odd1)
}
