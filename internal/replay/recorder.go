package replay

import (
	"sync"

	"go.uber.org/zap"

	"github.com/arenaforge/skirmish-server-go/internal/combat"
)

// Recorder accumulates the raw event log of live encounters. The indexer
// itself only operates on complete sequences, so the recorder never hands
// out a Replay mid-parse: BuildReplay snapshots the log accumulated so far
// and indexes the snapshot, which the builder always flushes into a
// structurally complete hierarchy. Callers should invoke it at quiescent
// points (round boundaries, encounter end).
type Recorder struct {
	logger  *zap.Logger
	builder *Builder
	mu      sync.RWMutex
	logs    map[string][]combat.Event // encounterID -> ordered event log
	enabled map[string]bool           // encounterID -> whether recording is enabled
}

// NewRecorder creates a recorder. The logger may be nil.
func NewRecorder(builder *Builder, logger *zap.Logger) *Recorder {
	return &Recorder{
		logger:  logger,
		builder: builder,
		logs:    make(map[string][]combat.Event),
		enabled: make(map[string]bool),
	}
}

// StartRecording begins recording an encounter.
func (rr *Recorder) StartRecording(encounterID string) {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	rr.logs[encounterID] = nil
	rr.enabled[encounterID] = true

	if rr.logger != nil {
		rr.logger.Info("started encounter recording",
			zap.String("encounter_id", encounterID),
		)
	}
}

// StopRecording stops recording an encounter. The accumulated log is kept
// until Clear.
func (rr *Recorder) StopRecording(encounterID string) {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	rr.enabled[encounterID] = false

	if rr.logger != nil {
		rr.logger.Info("stopped encounter recording",
			zap.String("encounter_id", encounterID),
		)
	}
}

// Record appends an event to an encounter's log if recording is enabled.
func (rr *Recorder) Record(encounterID string, ev combat.Event) {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	if !rr.enabled[encounterID] {
		return
	}
	rr.logs[encounterID] = append(rr.logs[encounterID], ev)
}

// Attach subscribes the recorder to a combat event bus for one encounter
// and returns the subscription handle.
func (rr *Recorder) Attach(bus *combat.EventBus, encounterID string) int {
	return bus.Subscribe(func(ev combat.Event) {
		rr.Record(encounterID, ev)
	})
}

// Events returns a copy of the log accumulated so far for an encounter.
func (rr *Recorder) Events(encounterID string) ([]combat.Event, bool) {
	rr.mu.RLock()
	defer rr.mu.RUnlock()

	log, exists := rr.logs[encounterID]
	if !exists {
		return nil, false
	}
	out := make([]combat.Event, len(log))
	copy(out, log)
	return out, true
}

// BuildReplay indexes the log accumulated so far. The returned replay is a
// self-contained snapshot; later events do not affect it.
func (rr *Recorder) BuildReplay(encounterID string) (*Replay, bool) {
	events, exists := rr.Events(encounterID)
	if !exists {
		return nil, false
	}
	return rr.builder.Build(encounterID, events), true
}

// Clear removes an encounter's log from memory.
func (rr *Recorder) Clear(encounterID string) {
	rr.mu.Lock()
	defer rr.mu.Unlock()

	delete(rr.logs, encounterID)
	delete(rr.enabled, encounterID)

	if rr.logger != nil {
		rr.logger.Debug("cleared encounter recording",
			zap.String("encounter_id", encounterID),
		)
	}
}

// IsRecording returns whether recording is enabled for an encounter.
func (rr *Recorder) IsRecording(encounterID string) bool {
	rr.mu.RLock()
	defer rr.mu.RUnlock()

	return rr.enabled[encounterID]
}
