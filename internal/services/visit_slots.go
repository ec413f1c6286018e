package services

import (
	"fmt"
	"slices"
	"time"
)

const (
	dateLayout = "2006-01-02"
	slotLayout = "15:04"
)

// DailySlots lists the HH:MM slot starts from start (inclusive) to end
// (exclusive) every step.
func DailySlots(start, end string, step time.Duration) ([]string, error) {
	from, err := time.Parse(slotLayout, start)
	if err != nil {
		return nil, fmt.Errorf("invalid slot day start %q: %w", start, err)
	}
	to, err := time.Parse(slotLayout, end)
	if err != nil {
		return nil, fmt.Errorf("invalid slot day end %q: %w", end, err)
	}
	if step <= 0 {
		return nil, fmt.Errorf("slot step must be positive, got %s", step)
	}
	if !from.Before(to) {
		return nil, fmt.Errorf("slot day start %s must be before end %s", start, end)
	}

	var slots []string
	for t := from; t.Before(to); t = t.Add(step) {
		slots = append(slots, t.Format(slotLayout))
	}
	return slots, nil
}

// slotTemplate is the fixed ordered list of visit times offered each day.
type slotTemplate []string

func (t slotTemplate) contains(slot string) bool {
	return slices.Contains(t, slot)
}
