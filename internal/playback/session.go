// Package playback drives read-only scrubbing over indexed replays: a
// cursor over the flat action index space, stepped and sought through the
// replay's navigation queries, plus the surfaces that render it.
package playback

import (
	"sync"

	"github.com/arenaforge/skirmish-server-go/internal/combat"
	"github.com/arenaforge/skirmish-server-go/internal/replay"
)

// Frame is everything a viewer needs to render the current scrubber
// position: the action, where it sits in the hierarchy, and its sub-events.
type Frame struct {
	Index       int            `json:"index"`
	Total       int            `json:"total"`
	RoundIndex  int            `json:"round_index"`
	RoundNumber int            `json:"round_number"`
	TurnIndex   int            `json:"turn_index"`
	UnitID      string         `json:"unit_id"`
	ActorID     string         `json:"actor_id"`
	ActionID    string         `json:"action_id"`
	Implicit    bool           `json:"implicit,omitempty"`
	SubEvents   []combat.Event `json:"sub_events"`
}

// Session is one viewer's cursor over a replay. The replay itself is
// immutable and shared; only the cursor is session state.
type Session struct {
	mu     sync.Mutex
	replay *replay.Replay
	cursor int
}

// NewSession opens a session positioned on the first action. For a replay
// with no actions the session is valid but Current reports no frame.
func NewSession(rep *replay.Replay) *Session {
	return &Session{replay: rep, cursor: 0}
}

// Replay returns the replay this session scrubs over.
func (s *Session) Replay() *replay.Replay {
	return s.replay
}

// Len returns the number of actions in the replay.
func (s *Session) Len() int {
	return s.replay.Metadata.TotalActions
}

// Current returns the frame at the cursor. ok is false only for a replay
// with no actions.
func (s *Session) Current() (Frame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frameAt(s.cursor)
}

// Next advances the cursor by one action. At the last action the cursor
// stays put and ok is false; probing past the end is ordinary control flow
// for a scrubber holding the step button.
func (s *Session) Next() (Frame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, _, ok := s.replay.NextAction(s.cursor); !ok {
		return Frame{}, false
	}
	s.cursor++
	return s.frameAt(s.cursor)
}

// Prev moves the cursor back by one action, staying put at the first.
func (s *Session) Prev() (Frame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, _, ok := s.replay.PrevAction(s.cursor); !ok {
		return Frame{}, false
	}
	s.cursor--
	return s.frameAt(s.cursor)
}

// Seek jumps the cursor to the given flat index. An out-of-range index
// leaves the cursor unchanged and reports ok false.
func (s *Session) Seek(i int) (Frame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, _, ok := s.replay.ActionAt(i); !ok {
		return Frame{}, false
	}
	s.cursor = i
	return s.frameAt(i)
}

// SeekRound jumps to the first action of the given round. Rounds owning no
// actions (and out-of-range rounds) leave the cursor unchanged.
func (s *Session) SeekRound(round int) (Frame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	first := s.replay.FirstActionIndexForRound(round)
	if first == replay.NoIndex {
		return Frame{}, false
	}
	s.cursor = first
	return s.frameAt(first)
}

func (s *Session) frameAt(i int) (Frame, bool) {
	action, coords, ok := s.replay.ActionAt(i)
	if !ok {
		return Frame{}, false
	}
	round := s.replay.Rounds[coords.Round]
	turn := round.Turns[coords.Turn]
	return Frame{
		Index:       i,
		Total:       s.replay.Metadata.TotalActions,
		RoundIndex:  coords.Round,
		RoundNumber: round.Number,
		TurnIndex:   coords.Turn,
		UnitID:      turn.UnitID,
		ActorID:     action.ActorID,
		ActionID:    action.ActionID,
		Implicit:    action.Implicit(),
		SubEvents:   action.SubEvents,
	}, true
}
