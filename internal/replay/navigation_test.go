package replay

import (
	"fmt"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestActionAt(t *testing.T) {
	rep := buildFixture(t, [][]int{{2, 1}, {1}})

	tests := []struct {
		index  int
		coords Coordinates
	}{
		{0, Coordinates{Round: 0, Turn: 0, Action: 0}},
		{1, Coordinates{Round: 0, Turn: 0, Action: 1}},
		{2, Coordinates{Round: 0, Turn: 1, Action: 0}},
		{3, Coordinates{Round: 1, Turn: 0, Action: 0}},
	}
	for _, tt := range tests {
		action, coords, ok := rep.ActionAt(tt.index)
		require.True(t, ok, "index %d", tt.index)
		assert.Equal(t, tt.coords, coords, "index %d", tt.index)
		assert.Same(t, &rep.Rounds[coords.Round].Turns[coords.Turn].Actions[coords.Action].SubEvents[0],
			&action.SubEvents[0], "index %d resolves to the stored action", tt.index)
	}
}

func TestActionAtOutOfRange(t *testing.T) {
	rep := buildFixture(t, [][]int{{2, 1}, {1}})

	for _, i := range []int{-100, -1, 4, 5, 1000} {
		_, _, ok := rep.ActionAt(i)
		assert.False(t, ok, "index %d", i)
	}

	empty := NewBuilder(nil).Build("empty", nil)
	_, _, ok := empty.ActionAt(0)
	assert.False(t, ok)
}

func TestActionAtSkipsZeroActionRounds(t *testing.T) {
	// Rounds owning no actions share an offset with their successor; the
	// lookup must land on the round that actually owns the index.
	rep := buildFixture(t, [][]int{{1}, {}, {0, 0}, {2}})

	_, coords, ok := rep.ActionAt(1)
	require.True(t, ok)
	assert.Equal(t, Coordinates{Round: 3, Turn: 0, Action: 0}, coords)

	_, coords, ok = rep.ActionAt(0)
	require.True(t, ok)
	assert.Equal(t, Coordinates{Round: 0, Turn: 0, Action: 0}, coords)
}

func TestNextPrevAction(t *testing.T) {
	rep := buildFixture(t, [][]int{{2, 1}, {1}})

	_, coords, ok := rep.NextAction(0)
	require.True(t, ok)
	assert.Equal(t, Coordinates{Round: 0, Turn: 0, Action: 1}, coords)

	_, coords, ok = rep.PrevAction(3)
	require.True(t, ok)
	assert.Equal(t, Coordinates{Round: 0, Turn: 1, Action: 0}, coords)

	// No wrap-around at either end.
	_, _, ok = rep.NextAction(3)
	assert.False(t, ok)
	_, _, ok = rep.PrevAction(0)
	assert.False(t, ok)

	// Out-of-range input is not a neighbor of anything.
	_, _, ok = rep.NextAction(-1)
	assert.False(t, ok)
	_, _, ok = rep.PrevAction(4)
	assert.False(t, ok)
}

func TestNextPrevRoundTrip(t *testing.T) {
	rep := buildFixture(t, [][]int{{2, 1}, {3}, {1, 1}})

	// next(prev(x)) lands back on x for every interior index.
	for i := 1; i < rep.Metadata.TotalActions-1; i++ {
		_, prev, ok := rep.PrevAction(i)
		require.True(t, ok)
		prevFlat := rep.FlatIndex(prev.Round, prev.Turn, prev.Action)
		require.Equal(t, i-1, prevFlat, "index %d", i)

		_, next, ok := rep.NextAction(prevFlat)
		require.True(t, ok)
		assert.Equal(t, i, rep.FlatIndex(next.Round, next.Turn, next.Action), "index %d", i)
	}
}

func TestActionsForRound(t *testing.T) {
	rep := buildFixture(t, [][]int{{2, 1}, {1}})

	actions := rep.ActionsForRound(0)
	require.Len(t, actions, 3)

	actions = rep.ActionsForRound(1)
	require.Len(t, actions, 1)

	assert.Empty(t, rep.ActionsForRound(-1))
	assert.Empty(t, rep.ActionsForRound(2))
}

func TestActionRangeForRound(t *testing.T) {
	rep := buildFixture(t, [][]int{{2, 1}, {}, {1}})

	start, end, ok := rep.ActionRangeForRound(0)
	require.True(t, ok)
	assert.Equal(t, 0, start)
	assert.Equal(t, 2, end)

	start, end, ok = rep.ActionRangeForRound(2)
	require.True(t, ok)
	assert.Equal(t, 3, start)
	assert.Equal(t, 3, end)

	// Zero-action round and out-of-range rounds have no span.
	_, _, ok = rep.ActionRangeForRound(1)
	assert.False(t, ok)
	_, _, ok = rep.ActionRangeForRound(-1)
	assert.False(t, ok)
	_, _, ok = rep.ActionRangeForRound(3)
	assert.False(t, ok)
}

func TestFirstLastActionIndexForRound(t *testing.T) {
	rep := buildFixture(t, [][]int{{2, 1}, {}, {1}})

	assert.Equal(t, 0, rep.FirstActionIndexForRound(0))
	assert.Equal(t, 2, rep.LastActionIndexForRound(0))
	assert.Equal(t, 3, rep.FirstActionIndexForRound(2))
	assert.Equal(t, 3, rep.LastActionIndexForRound(2))

	// Zero-action round reports the sentinel, same as out of range.
	assert.Equal(t, NoIndex, rep.FirstActionIndexForRound(1))
	assert.Equal(t, NoIndex, rep.LastActionIndexForRound(1))
	assert.Equal(t, NoIndex, rep.FirstActionIndexForRound(99))
	assert.Equal(t, NoIndex, rep.LastActionIndexForRound(-1))
}

func TestFlatIndexBounds(t *testing.T) {
	rep := buildFixture(t, [][]int{{2, 1}, {1}})

	assert.Equal(t, 0, rep.FlatIndex(0, 0, 0))
	assert.Equal(t, 2, rep.FlatIndex(0, 1, 0))
	assert.Equal(t, 3, rep.FlatIndex(1, 0, 0))

	assert.Equal(t, NoIndex, rep.FlatIndex(-1, 0, 0))
	assert.Equal(t, NoIndex, rep.FlatIndex(2, 0, 0))
	assert.Equal(t, NoIndex, rep.FlatIndex(0, 2, 0))
	assert.Equal(t, NoIndex, rep.FlatIndex(0, 0, 2))
	assert.Equal(t, NoIndex, rep.FlatIndex(0, 1, 1))
}

func TestCoordinateRoundTrip(t *testing.T) {
	rep := buildFixture(t, [][]int{{2, 1}, {}, {3, 1, 2}, {1}})

	for i := 0; i < rep.Metadata.TotalActions; i++ {
		coords, ok := rep.CoordinatesAt(i)
		require.True(t, ok, "index %d", i)
		assert.Equal(t, i, rep.FlatIndex(coords.Round, coords.Turn, coords.Action), "index %d", i)
	}

	for r, round := range rep.Rounds {
		for ti, turn := range round.Turns {
			for a := range turn.Actions {
				flat := rep.FlatIndex(r, ti, a)
				require.NotEqual(t, NoIndex, flat)
				coords, ok := rep.CoordinatesAt(flat)
				require.True(t, ok)
				assert.Equal(t, Coordinates{Round: r, Turn: ti, Action: a}, coords)
			}
		}
	}
}

func TestNavigationProperties(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 100
	properties := gopter.NewProperties(parameters)

	shapeGen := gen.SliceOf(gen.SliceOf(gen.IntRange(0, 4)))

	properties.Property("flat and hierarchical coordinates are a bijection", prop.ForAll(
		func(shape [][]int) bool {
			rep := NewBuilder(nil).Build("prop", eventsForShape(shape))
			for i := 0; i < rep.Metadata.TotalActions; i++ {
				coords, ok := rep.CoordinatesAt(i)
				if !ok {
					return false
				}
				if rep.FlatIndex(coords.Round, coords.Turn, coords.Action) != i {
					return false
				}
			}
			_, ok := rep.CoordinatesAt(rep.Metadata.TotalActions)
			return !ok
		},
		shapeGen,
	))

	properties.Property("round counts reconcile with the walked hierarchy", prop.ForAll(
		func(shape [][]int) bool {
			rep := NewBuilder(nil).Build("prop", eventsForShape(shape))
			sum := 0
			for _, c := range rep.Metadata.RoundActionCounts {
				sum += c
			}
			walked := 0
			for _, round := range rep.Rounds {
				for _, turn := range round.Turns {
					walked += len(turn.Actions)
				}
			}
			return sum == rep.Metadata.TotalActions && walked == rep.Metadata.TotalActions
		},
		shapeGen,
	))

	properties.Property("round slices concatenate to the flat order", prop.ForAll(
		func(shape [][]int) bool {
			rep := NewBuilder(nil).Build("prop", eventsForShape(shape))
			flat := 0
			for r := range rep.Rounds {
				for range rep.ActionsForRound(r) {
					if idx := rep.FirstActionIndexForRound(r); idx > flat {
						return false
					}
					flat++
				}
			}
			return flat == rep.Metadata.TotalActions
		},
		shapeGen,
	))

	properties.TestingRun(t)
}

// TestLargeReplayLookup exercises lookups across a synthetic 1000+ action
// replay: every index resolves and out-of-range probes stay clean.
func TestLargeReplayLookup(t *testing.T) {
	shape := make([][]int, 100)
	for r := range shape {
		shape[r] = []int{3, 4, 5} // 12 actions per round
	}
	rep := buildFixture(t, shape)
	require.Equal(t, 1200, rep.Metadata.TotalActions)

	for i := 0; i < rep.Metadata.TotalActions; i++ {
		_, coords, ok := rep.ActionAt(i)
		require.True(t, ok, "index %d", i)
		require.Equal(t, i, rep.FlatIndex(coords.Round, coords.Turn, coords.Action))
	}

	for _, i := range []int{-1, 1200, 99999} {
		_, _, ok := rep.ActionAt(i)
		assert.False(t, ok)
	}
}

// BenchmarkActionAt pins the logarithmic lookup contract: cost per lookup
// should stay flat as the replay grows, not scale with round count.
func BenchmarkActionAt(b *testing.B) {
	for _, rounds := range []int{10, 100, 1000} {
		shape := make([][]int, rounds)
		for r := range shape {
			shape[r] = []int{2, 2}
		}
		rep := NewBuilder(nil).Build("bench", eventsForShape(shape))

		b.Run(fmt.Sprintf("rounds_%d", rounds), func(b *testing.B) {
			total := rep.Metadata.TotalActions
			for i := 0; i < b.N; i++ {
				if _, _, ok := rep.ActionAt(i % total); !ok {
					b.Fatal("lookup failed")
				}
			}
		})
	}
}
