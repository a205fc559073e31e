package combat

import (
	"sync"
	"time"
)

// EventType indicates the category of a combat log event.
type EventType string

const (
	// Structural events. These six delimit the round/turn/action hierarchy;
	// everything else is opaque payload carried along with the action (or
	// turn, or encounter) it occurred in.
	EventRoundStarted  EventType = "ROUND_STARTED"
	EventRoundEnded    EventType = "ROUND_ENDED"
	EventTurnStarted   EventType = "TURN_STARTED"
	EventTurnEnded     EventType = "TURN_ENDED"
	EventActionStarted EventType = "ACTION_STARTED"
	EventActionEnded   EventType = "ACTION_ENDED"

	// Encounter bookkeeping
	EventEncounterStarted EventType = "ENCOUNTER_STARTED"
	EventEncounterEnded   EventType = "ENCOUNTER_ENDED"
	EventUnitSpawned      EventType = "UNIT_SPAWNED"
	EventUnitDefeated     EventType = "UNIT_DEFEATED"
	EventInitiativeRolled EventType = "INITIATIVE_ROLLED"

	// Attack resolution
	EventAttackDeclared EventType = "ATTACK_DECLARED"
	EventAttackRolled   EventType = "ATTACK_ROLLED"
	EventAttackHit      EventType = "ATTACK_HIT"
	EventAttackMissed   EventType = "ATTACK_MISSED"
	EventCriticalHit    EventType = "CRITICAL_HIT"
	EventDamageRolled   EventType = "DAMAGE_ROLLED"
	EventDamageDealt    EventType = "DAMAGE_DEALT"
	EventDamageReduced  EventType = "DAMAGE_REDUCED"

	// Healing and life changes
	EventHealApplied    EventType = "HEAL_APPLIED"
	EventLifeChanged    EventType = "LIFE_CHANGED"
	EventUnitDowned     EventType = "UNIT_DOWNED"
	EventUnitStabilized EventType = "UNIT_STABILIZED"

	// Buffs, debuffs, conditions
	EventBuffApplied      EventType = "BUFF_APPLIED"
	EventBuffExpired      EventType = "BUFF_EXPIRED"
	EventConditionApplied EventType = "CONDITION_APPLIED"
	EventConditionRemoved EventType = "CONDITION_REMOVED"
	EventSaveRolled       EventType = "SAVE_ROLLED"

	// Movement and positioning
	EventUnitMoved         EventType = "UNIT_MOVED"
	EventOpportunityAttack EventType = "OPPORTUNITY_ATTACK"
	EventZoneEntered       EventType = "ZONE_ENTERED"
	EventZoneLeft          EventType = "ZONE_LEFT"

	// Resource usage
	EventResourceSpent    EventType = "RESOURCE_SPENT"
	EventResourceRestored EventType = "RESOURCE_RESTORED"
	EventAbilityUsed      EventType = "ABILITY_USED"
	EventItemUsed         EventType = "ITEM_USED"
)

// structuralEvents is the fixed subset of event types that define the
// round/turn/action hierarchy of a replay.
var structuralEvents = map[EventType]bool{
	EventRoundStarted:  true,
	EventRoundEnded:    true,
	EventTurnStarted:   true,
	EventTurnEnded:     true,
	EventActionStarted: true,
	EventActionEnded:   true,
}

// IsStructural returns true if this event type delimits a round, turn, or
// action boundary rather than carrying combat payload.
func (et EventType) IsStructural() bool {
	return structuralEvents[et]
}

// Event represents a single immutable fact emitted, in order, by the combat
// engine. The replay indexer recognizes only the structural subset by type;
// all other fields pass through untouched.
type Event struct {
	Type        EventType
	ID          string            // Unique event ID
	ActorID     string            // Unit performing or causing the event
	TargetID    string            // Unit the event is directed at, if any
	ActionID    string            // Action identifier (for ACTION_STARTED and payload events)
	Round       int               // Round number (for ROUND_STARTED / TURN_STARTED)
	Amount      int               // Numeric value (damage, healing, roll result)
	Data        map[string]string // Additional kind-specific payload
	Description string            // Human-readable description
	Timestamp   time.Time         // When the event occurred
}

// Listener defines a callback that reacts to incoming events.
type Listener func(Event)

// EventBus provides a synchronous publish/subscribe implementation. The
// combat engine publishes every event it resolves; the replay recorder and
// other log consumers subscribe.
type EventBus struct {
	mu         sync.RWMutex
	listeners  map[int]Listener
	nextHandle int
}

// NewEventBus constructs a fresh event bus instance.
func NewEventBus() *EventBus {
	return &EventBus{
		listeners: make(map[int]Listener),
	}
}

// Subscribe registers a listener for all events and returns a handle.
func (bus *EventBus) Subscribe(listener Listener) int {
	if listener == nil {
		return -1
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()
	handle := bus.nextHandle
	bus.nextHandle++
	bus.listeners[handle] = listener
	return handle
}

// Unsubscribe removes the listener identified by the provided handle.
func (bus *EventBus) Unsubscribe(handle int) {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	delete(bus.listeners, handle)
}

// Publish delivers the event to all registered listeners synchronously.
// Listeners observe events in publish order; delivery order across
// listeners for a single event is unspecified.
func (bus *EventBus) Publish(event Event) {
	bus.mu.RLock()
	defer bus.mu.RUnlock()
	for _, listener := range bus.listeners {
		listener(event)
	}
}
