package playback

import (
	"fmt"
	"strings"

	"github.com/arenaforge/skirmish-server-go/internal/replay"
)

// Summarize walks a replay top to bottom and renders a plain-text outline
// of its rounds, turns, and actions, for logs and post-encounter reports.
func Summarize(rep *replay.Replay) string {
	var b strings.Builder

	fmt.Fprintf(&b, "encounter %s: %d rounds, %d turns, %d actions, %d global events\n",
		rep.EncounterID,
		len(rep.Rounds),
		rep.Metadata.TotalTurns,
		rep.Metadata.TotalActions,
		len(rep.GlobalEvents),
	)

	for r, round := range rep.Rounds {
		fmt.Fprintf(&b, "round %d\n", round.Number)
		for t, turn := range round.Turns {
			fmt.Fprintf(&b, "  turn %s (%d actions)\n", turn.UnitID, len(turn.Actions))
			for a, action := range turn.Actions {
				flat := rep.FlatIndex(r, t, a)
				label := action.ActionID
				if action.Implicit() {
					label = "(implicit)"
				}
				fmt.Fprintf(&b, "    [%d] %s by %s, %d events\n",
					flat, label, action.ActorID, len(action.SubEvents))
			}
		}
	}

	return b.String()
}
