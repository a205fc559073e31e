package replay

import "sort"

// NoIndex is the sentinel returned by index-valued queries when the
// requested position does not exist. Out-of-range input is ordinary control
// flow for playback surfaces probing boundaries, so navigation never panics
// and never returns an error.
const NoIndex = -1

// ActionAt returns the action at the given flat index together with its
// hierarchical coordinates. ok is false when i is outside
// [0, TotalActions).
func (r *Replay) ActionAt(i int) (Action, Coordinates, bool) {
	coords, ok := r.CoordinatesAt(i)
	if !ok {
		return Action{}, Coordinates{}, false
	}
	return r.Rounds[coords.Round].Turns[coords.Turn].Actions[coords.Action], coords, true
}

// NextAction returns the action following flat index i. ok is false when i
// is out of range or already the last action; it never wraps around.
func (r *Replay) NextAction(i int) (Action, Coordinates, bool) {
	if i < 0 || i >= r.Metadata.TotalActions {
		return Action{}, Coordinates{}, false
	}
	return r.ActionAt(i + 1)
}

// PrevAction returns the action preceding flat index i. ok is false when i
// is out of range or already the first action; it never wraps around.
func (r *Replay) PrevAction(i int) (Action, Coordinates, bool) {
	if i < 0 || i >= r.Metadata.TotalActions {
		return Action{}, Coordinates{}, false
	}
	return r.ActionAt(i - 1)
}

// ActionsForRound returns every action of the given round across all of its
// turns, in order. An out-of-range round yields an empty slice, not an
// error. The returned slice is freshly allocated; callers may not reach the
// replay's internal storage through it.
func (r *Replay) ActionsForRound(round int) []Action {
	if round < 0 || round >= len(r.Rounds) {
		return nil
	}
	actions := make([]Action, 0, r.Metadata.RoundActionCounts[round])
	for _, turn := range r.Rounds[round].Turns {
		actions = append(actions, turn.Actions...)
	}
	return actions
}

// ActionRangeForRound returns the inclusive flat-index span [start, end]
// owned by the given round. ok is false when the round is out of range or
// owns no actions.
func (r *Replay) ActionRangeForRound(round int) (start, end int, ok bool) {
	if round < 0 || round >= len(r.Rounds) {
		return 0, 0, false
	}
	count := r.Metadata.RoundActionCounts[round]
	if count == 0 {
		return 0, 0, false
	}
	start = r.Metadata.RoundOffsets[round]
	return start, start + count - 1, true
}

// FirstActionIndexForRound returns the flat index of the round's first
// action, or NoIndex for an out-of-range or zero-action round.
func (r *Replay) FirstActionIndexForRound(round int) int {
	start, _, ok := r.ActionRangeForRound(round)
	if !ok {
		return NoIndex
	}
	return start
}

// LastActionIndexForRound returns the flat index of the round's last
// action, or NoIndex for an out-of-range or zero-action round.
func (r *Replay) LastActionIndexForRound(round int) int {
	_, end, ok := r.ActionRangeForRound(round)
	if !ok {
		return NoIndex
	}
	return end
}

// FlatIndex converts hierarchical coordinates to a flat index, or NoIndex
// when any of the three coordinates is out of range.
func (r *Replay) FlatIndex(round, turn, action int) int {
	md := r.Metadata
	if round < 0 || round >= len(r.Rounds) {
		return NoIndex
	}
	if turn < 0 || turn >= len(r.Rounds[round].Turns) {
		return NoIndex
	}
	if action < 0 || action >= md.TurnActionCounts[round][turn] {
		return NoIndex
	}
	return md.RoundOffsets[round] + md.TurnOffsets[round][turn] + action
}

// CoordinatesAt converts a flat index to hierarchical coordinates, the
// exact inverse of FlatIndex. ok is false when i is out of range.
//
// The owning round is the last one whose offset does not exceed i; because
// round offsets are monotonically non-decreasing this is a binary search,
// not a scan, so lookup cost stays logarithmic in the number of rounds.
// The owning turn is found the same way within the round.
func (r *Replay) CoordinatesAt(i int) (Coordinates, bool) {
	md := r.Metadata
	if i < 0 || i >= md.TotalActions {
		return Coordinates{}, false
	}

	round := sort.Search(len(md.RoundOffsets), func(j int) bool {
		return md.RoundOffsets[j] > i
	}) - 1

	within := i - md.RoundOffsets[round]
	turnOffsets := md.TurnOffsets[round]
	turn := sort.Search(len(turnOffsets), func(j int) bool {
		return turnOffsets[j] > within
	}) - 1

	return Coordinates{
		Round:  round,
		Turn:   turn,
		Action: within - turnOffsets[turn],
	}, true
}
