package domain

import (
	"fmt"
	"time"
)

// AllowTransition is the delivery status graph. Terminal states have no
// outgoing edges. Cancellation from active states is allowed here; whether the
// caller may take that edge (admin override) is enforced by the lifecycle
// service, not the graph.
var AllowTransition = map[Status][]Status{
	StatusPending:   {StatusAssigned, StatusCancelled},
	StatusAssigned:  {StatusPickedUp, StatusCancelled},
	StatusPickedUp:  {StatusInTransit, StatusCancelled},
	StatusInTransit: {StatusDelivered, StatusCancelled},
	StatusDelivered: {},
	StatusCancelled: {},
}

// CanTransition reports whether from -> to is a legal edge. A same-state
// transition is legal and treated as a no-op by callers.
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	allowed, ok := AllowTransition[from]
	if !ok {
		return false
	}
	for _, s := range allowed {
		if s == to {
			return true
		}
	}
	return false
}

// RequiredEvidence returns the evidence slot that must be filled before
// entering a status, if any.
func RequiredEvidence(to Status) (EvidenceSlot, bool) {
	switch to {
	case StatusInTransit:
		return SlotPickup, true
	case StatusDelivered:
		return SlotDropoff, true
	}
	return "", false
}

// ApplyTransition moves the order to the target status and stamps the
// matching timeline field with the server-observed time. Call only after
// CanTransition and the evidence guards have passed; a same-state target is a
// no-op.
func ApplyTransition(o *Order, to Status, now time.Time) error {
	if o == nil {
		return fmt.Errorf("order is nil")
	}
	from := o.Status
	if from == to {
		return nil
	}
	if !CanTransition(from, to) {
		return fmt.Errorf("invalid status transition: %s -> %s", from, to)
	}

	o.Status = to

	switch to {
	case StatusAssigned:
		if o.Timeline.AssignedAt == nil {
			t := now
			o.Timeline.AssignedAt = &t
		}
	case StatusPickedUp:
		if o.Timeline.PickedUpAt == nil {
			t := now
			o.Timeline.PickedUpAt = &t
		}
	case StatusInTransit:
		if o.Timeline.InTransitAt == nil {
			t := now
			o.Timeline.InTransitAt = &t
		}
	case StatusDelivered:
		if o.Timeline.DeliveredAt == nil {
			t := now
			o.Timeline.DeliveredAt = &t
		}
	case StatusCancelled:
		if o.Timeline.CancelledAt == nil {
			t := now
			o.Timeline.CancelledAt = &t
		}
	}
	return nil
}
