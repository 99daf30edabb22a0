package tracking

import (
	"fmt"
	"time"
)

// acceptedEventSource is the slice of the event log the debouncer reads.
type acceptedEventSource interface {
	LatestAcceptedEventAt(siteID string) (int64, error)
}

// Debouncer rejects transitions arriving within the cooldown window of
// the previously accepted event for the same site, regardless of type.
// The accepted-event timeline lives in the event log, so debounce state
// survives restarts for free.
type Debouncer struct {
	events   acceptedEventSource
	cooldown time.Duration
}

// NewDebouncer creates a debouncer over the given accepted-event source.
func NewDebouncer(events acceptedEventSource, cooldown time.Duration) *Debouncer {
	return &Debouncer{
		events:   events,
		cooldown: cooldown,
	}
}

// ShouldAccept reports whether an event at occurredAt clears the cooldown
// window for its site. Out-of-order events (occurredAt before the last
// accepted event) never clear it.
func (d *Debouncer) ShouldAccept(siteID string, occurredAt int64) (bool, error) {
	last, err := d.events.LatestAcceptedEventAt(siteID)
	if err != nil {
		return false, fmt.Errorf("failed to load last accepted event: %w", err)
	}
	if last == 0 {
		return true, nil
	}
	return occurredAt-last >= d.cooldown.Milliseconds(), nil
}
