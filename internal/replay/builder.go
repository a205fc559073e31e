package replay

import (
	"go.uber.org/zap"

	"github.com/arenaforge/skirmish-server-go/internal/combat"
)

// Builder converts a complete, chronologically ordered event sequence into
// an indexed Replay in a single left-to-right pass. A Builder is stateless
// between calls; the parse state lives on the stack of each Build call.
//
// Malformed nesting never fails the build. The recovery policy is:
//   - opening a container force-closes any container still open at the same
//     or a lower level (a second ROUND_STARTED closes the open action, turn,
//     and round before opening the new round);
//   - opening a container with no open parent synthesizes the parent (a
//     TURN_STARTED outside any round opens a round for it, an ACTION_STARTED
//     outside any turn opens a turn for its actor);
//   - a stray *_ENDED with no matching open container is dropped;
//   - containers still open at end of input are flushed, not discarded.
//
// Every recovery is logged at Warn when a logger is configured.
type Builder struct {
	logger *zap.Logger
}

// NewBuilder creates a builder. The logger may be nil.
func NewBuilder(logger *zap.Logger) *Builder {
	return &Builder{logger: logger}
}

// parseState holds the currently open containers during one Build pass.
type parseState struct {
	replay *Replay
	round  *Round
	turn   *Turn
	action *Action
}

// Build consumes the event sequence and returns the indexed replay. It
// never fails: any sequence, including an empty one, produces a replay.
func (b *Builder) Build(encounterID string, events []combat.Event) *Replay {
	st := &parseState{
		replay: &Replay{EncounterID: encounterID},
	}

	for _, ev := range events {
		switch ev.Type {
		case combat.EventRoundStarted:
			if st.round != nil {
				b.warn("round started while previous round still open",
					zap.Int("open_round", st.round.Number),
					zap.Int("new_round", ev.Round))
				b.closeRound(st)
			}
			st.round = &Round{Number: ev.Round}

		case combat.EventRoundEnded:
			if st.round == nil {
				b.warn("round ended with no open round")
				continue
			}
			b.closeRound(st)

		case combat.EventTurnStarted:
			if st.round == nil {
				b.warn("turn started outside any round",
					zap.String("unit_id", ev.ActorID),
					zap.Int("round", ev.Round))
				st.round = &Round{Number: ev.Round}
			}
			if st.turn != nil {
				b.warn("turn started while previous turn still open",
					zap.String("open_unit_id", st.turn.UnitID),
					zap.String("new_unit_id", ev.ActorID))
				b.closeTurn(st)
			}
			st.turn = &Turn{UnitID: ev.ActorID, Round: ev.Round}

		case combat.EventTurnEnded:
			if st.turn == nil {
				b.warn("turn ended with no open turn")
				continue
			}
			b.closeTurn(st)

		case combat.EventActionStarted:
			if st.turn == nil {
				b.warn("action started outside any turn",
					zap.String("actor_id", ev.ActorID),
					zap.String("action_id", ev.ActionID))
				if st.round == nil {
					st.round = &Round{Number: ev.Round}
				}
				st.turn = &Turn{UnitID: ev.ActorID, Round: ev.Round}
			}
			if st.action != nil {
				b.warn("action started while previous action still open",
					zap.String("open_action_id", st.action.ActionID),
					zap.String("new_action_id", ev.ActionID))
				b.closeAction(st)
			}
			// The framing event itself is the action's first sub-event.
			st.action = &Action{
				ActorID:   ev.ActorID,
				ActionID:  ev.ActionID,
				SubEvents: []combat.Event{ev},
			}

		case combat.EventActionEnded:
			if st.action == nil {
				b.warn("action ended with no open action")
				continue
			}
			st.action.SubEvents = append(st.action.SubEvents, ev)
			b.closeAction(st)

		default:
			switch {
			case st.action != nil:
				st.action.SubEvents = append(st.action.SubEvents, ev)
			case st.turn != nil:
				// A sub-event inside a turn but outside any bounded action
				// gets wrapped in an implicit action of its own.
				actorID := ev.ActorID
				if actorID == "" {
					actorID = st.turn.UnitID
				}
				st.turn.Actions = append(st.turn.Actions, Action{
					ActorID:   actorID,
					ActionID:  ImplicitActionID,
					SubEvents: []combat.Event{ev},
				})
			default:
				st.replay.GlobalEvents = append(st.replay.GlobalEvents, ev)
			}
		}
	}

	// Flush anything left open by a truncated sequence.
	if st.action != nil || st.turn != nil || st.round != nil {
		b.warn("input ended with open containers",
			zap.Bool("open_round", st.round != nil),
			zap.Bool("open_turn", st.turn != nil),
			zap.Bool("open_action", st.action != nil))
		b.closeRound(st)
	}

	st.replay.Metadata = computeMetadata(st.replay.Rounds)

	if b.logger != nil {
		b.logger.Debug("built replay",
			zap.String("encounter_id", encounterID),
			zap.Int("events", len(events)),
			zap.Int("rounds", len(st.replay.Rounds)),
			zap.Int("turns", st.replay.Metadata.TotalTurns),
			zap.Int("actions", st.replay.Metadata.TotalActions),
			zap.Int("global_events", len(st.replay.GlobalEvents)),
		)
	}

	return st.replay
}

// closeAction appends the open action to the open turn and clears it.
func (b *Builder) closeAction(st *parseState) {
	if st.action == nil {
		return
	}
	st.turn.Actions = append(st.turn.Actions, *st.action)
	st.action = nil
}

// closeTurn closes any open action, appends the open turn to the open
// round, and clears it.
func (b *Builder) closeTurn(st *parseState) {
	if st.turn == nil {
		return
	}
	b.closeAction(st)
	st.round.Turns = append(st.round.Turns, *st.turn)
	st.turn = nil
}

// closeRound closes any open turn and action, appends the open round to the
// replay, and clears it.
func (b *Builder) closeRound(st *parseState) {
	if st.round == nil {
		return
	}
	b.closeTurn(st)
	st.replay.Rounds = append(st.replay.Rounds, *st.round)
	st.round = nil
}

func (b *Builder) warn(msg string, fields ...zap.Field) {
	if b.logger != nil {
		b.logger.Warn(msg, fields...)
	}
}
