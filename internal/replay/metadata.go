package replay

// computeMetadata performs the second pass over the completed hierarchy,
// producing the offset and count tables navigation relies on. Every slice
// is index-aligned with the rounds slice (and each round's turns slice):
// metadata for rounds[r].Turns[t] is always at [r][t], never in a
// separately numbered space that could drift.
func computeMetadata(rounds []Round) Metadata {
	md := Metadata{
		RoundOffsets:      make([]int, len(rounds)),
		RoundActionCounts: make([]int, len(rounds)),
		TurnOffsets:       make([][]int, len(rounds)),
		TurnActionCounts:  make([][]int, len(rounds)),
	}

	flatCursor := 0
	for r, round := range rounds {
		md.RoundOffsets[r] = flatCursor
		md.TurnOffsets[r] = make([]int, len(round.Turns))
		md.TurnActionCounts[r] = make([]int, len(round.Turns))

		roundCursor := 0
		for t, turn := range round.Turns {
			md.TurnOffsets[r][t] = roundCursor
			md.TurnActionCounts[r][t] = len(turn.Actions)
			roundCursor += len(turn.Actions)
		}

		md.RoundActionCounts[r] = roundCursor
		md.TotalTurns += len(round.Turns)
		flatCursor += roundCursor
	}
	md.TotalActions = flatCursor

	return md
}
