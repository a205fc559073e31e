// Package replay converts the flat, chronologically ordered event log of a
// combat encounter into a round/turn/action hierarchy with precomputed
// navigation metadata, so that playback surfaces can convert between a flat
// action index and its hierarchical coordinates in constant time.
package replay

import (
	"github.com/arenaforge/skirmish-server-go/internal/combat"
)

// ImplicitActionID is the reserved action identifier assigned to actions
// synthesized around sub-events that arrived inside an open turn with no
// open action. It never collides with engine-assigned action IDs.
const ImplicitActionID = "__implicit__"

// Action groups the sub-events belonging to one resolved action. For
// explicitly bounded actions the ACTION_STARTED event is the first sub-event
// and ACTION_ENDED the last; implicit actions hold exactly the events that
// arrived outside any bounded action.
type Action struct {
	ActorID   string
	ActionID  string
	SubEvents []combat.Event
}

// Implicit reports whether this action was synthesized rather than bounded
// by an ACTION_STARTED/ACTION_ENDED pair.
func (a Action) Implicit() bool {
	return a.ActionID == ImplicitActionID
}

// Turn holds one unit's actions within a round, in resolution order.
type Turn struct {
	UnitID  string
	Round   int
	Actions []Action
}

// Round holds the turns of one combat round, in initiative order.
type Round struct {
	Number int
	Turns  []Turn
}

// Metadata carries the per-round and per-turn offsets and counts that make
// flat-index navigation O(log n). All slices are index-aligned with the
// Rounds slice (and each round's Turns slice) of the replay they were
// computed for.
type Metadata struct {
	TotalActions int
	TotalTurns   int

	// RoundOffsets[r] is the flat index of the first action in round r;
	// RoundActionCounts[r] is the number of actions round r owns.
	RoundOffsets      []int
	RoundActionCounts []int

	// TurnOffsets[r][t] is the offset of turn t's first action within
	// round r; TurnActionCounts[r][t] is the number of actions in that turn.
	TurnOffsets      [][]int
	TurnActionCounts [][]int
}

// Replay is the indexed hierarchy built from one complete encounter event
// log. It is immutable once built and safe for concurrent readers.
type Replay struct {
	EncounterID  string
	Rounds       []Round
	GlobalEvents []combat.Event
	Metadata     Metadata
}

// Coordinates locates an action inside the hierarchy: the indices of its
// round, its turn within that round, and the action within that turn.
type Coordinates struct {
	Round  int
	Turn   int
	Action int
}
