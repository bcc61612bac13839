// Package queue buffers LocationChecks, LocationScouts, and UpdateHint
// intents issued by the application before the slot has joined, and
// drains them once SlotConnected.
package queue

import "apclient/internal/protocol"

// HintUpdate is one queued UpdateHint intent, replayed in submission
// order on drain.
type HintUpdate struct {
	Player   int
	Location int64
	Status   protocol.HintStatus
}

// IntentQueue holds everything an application attempted to send while
// the client had not yet reached SlotConnected.
type IntentQueue struct {
	checks  map[int64]struct{}
	scouts  map[int]map[int64]struct{} // create_as_hint policy -> location ids
	hints   []HintUpdate
	status  protocol.ClientStatus
	hasStatus bool
}

// New returns an empty IntentQueue.
func New() *IntentQueue {
	return &IntentQueue{
		checks: make(map[int64]struct{}),
		scouts: make(map[int]map[int64]struct{}),
	}
}

// QueueChecks unions locations into PendingCheckSet.
func (q *IntentQueue) QueueChecks(locations []int64) {
	for _, loc := range locations {
		q.checks[loc] = struct{}{}
	}
}

// QueueScouts unions locations into PendingScoutMap[policy].
func (q *IntentQueue) QueueScouts(policy int, locations []int64) {
	set, ok := q.scouts[policy]
	if !ok {
		set = make(map[int64]struct{})
		q.scouts[policy] = set
	}
	for _, loc := range locations {
		set[loc] = struct{}{}
	}
}

// QueueHintUpdate appends to PendingHintUpdates, preserving order.
func (q *IntentQueue) QueueHintUpdate(player int, location int64, status protocol.HintStatus) {
	q.hints = append(q.hints, HintUpdate{Player: player, Location: location, Status: status})
}

// DeferStatus records the last requested ClientStatus while not yet
// SlotConnected. It is held passively: Drain never sends it.
func (q *IntentQueue) DeferStatus(status protocol.ClientStatus) {
	q.status = status
	q.hasStatus = true
}

// DeferredStatus returns the last deferred ClientStatus, if any.
func (q *IntentQueue) DeferredStatus() (protocol.ClientStatus, bool) {
	return q.status, q.hasStatus
}

// Drain produces the commands to send on reaching SlotConnected, in
// the fixed order: one LocationChecks union, one LocationScouts per
// policy, then the ordered UpdateHint replay. DeferredClientStatus is
// intentionally excluded; callers that want to send it read
// DeferredStatus separately. Draining clears all pending state.
func (q *IntentQueue) Drain() (checks *protocol.LocationChecksCmd, scouts []protocol.LocationScoutsCmd, hints []HintUpdate) {
	if len(q.checks) > 0 {
		locs := make([]int64, 0, len(q.checks))
		for loc := range q.checks {
			locs = append(locs, loc)
		}
		checks = &protocol.LocationChecksCmd{Cmd: protocol.CmdLocationChecks, Locations: locs}
		q.checks = make(map[int64]struct{})
	}

	for policy, set := range q.scouts {
		locs := make([]int64, 0, len(set))
		for loc := range set {
			locs = append(locs, loc)
		}
		scouts = append(scouts, protocol.LocationScoutsCmd{
			Cmd:          protocol.CmdLocationScouts,
			Locations:    locs,
			CreateAsHint: policy,
		})
	}
	q.scouts = make(map[int]map[int64]struct{})

	hints = q.hints
	q.hints = nil

	return checks, scouts, hints
}

// Empty reports whether there is nothing buffered at all. The
// deferred ClientStatus is not counted.
func (q *IntentQueue) Empty() bool {
	return len(q.checks) == 0 && len(q.scouts) == 0 && len(q.hints) == 0
}
