package bookings

import (
	"fmt"
	"time"
)

// Window is the operating window for a working day, as "HH:MM" times of day.
// The start is inclusive, the end exclusive.
type Window struct {
	Start string
	End   string
}

// DefaultWindow is the standard UK agency working day.
var DefaultWindow = Window{Start: "09:00", End: "18:00"}

func parseClock(s string) (int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("bookings: bad clock time %q: %w", s, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

func formatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// slotBounds converts a booking's interval into minutes-from-midnight of the
// given day. Intervals entirely outside the day fall outside the window and
// never mark anything.
func slotBounds(dayStart time.Time, b *Booking) (startMin, endMin int) {
	startMin = int(b.ScheduledAt.Sub(dayStart) / time.Minute)
	endMin = int(b.EndAt.Sub(dayStart) / time.Minute)
	return startMin, endMin
}

// ComputeSlots partitions a day's candidate slots into free and occupied.
// Candidates run from the window start (inclusive) to the window end
// (exclusive) at the given granularity. A slot is occupied when any active
// booking's [start, end) interval overlaps the slot's own interval, so a
// booking whose duration is not a multiple of the granularity still claims
// every slot it touches. The two returned sequences are disjoint and
// together cover every candidate, both in chronological order.
func ComputeSlots(date time.Time, existing []*Booking, w Window, granularityMinutes int) (free, occupied []string, err error) {
	if granularityMinutes <= 0 {
		return nil, nil, fmt.Errorf("bookings: granularity must be positive, got %d", granularityMinutes)
	}
	startMin, err := parseClock(w.Start)
	if err != nil {
		return nil, nil, err
	}
	endMin, err := parseClock(w.End)
	if err != nil {
		return nil, nil, err
	}
	if endMin <= startMin {
		return nil, nil, fmt.Errorf("bookings: window end %q not after start %q", w.End, w.Start)
	}

	dayStart := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())

	type bounds struct{ start, end int }
	var active []bounds
	for _, b := range existing {
		if b == nil || !b.Active() || b.DeletedAt != nil {
			continue
		}
		s, e := slotBounds(dayStart, b)
		if e > s {
			active = append(active, bounds{s, e})
		}
	}

	free = []string{}
	occupied = []string{}
	for m := startMin; m < endMin; m += granularityMinutes {
		taken := false
		for _, b := range active {
			if b.start < m+granularityMinutes && m < b.end {
				taken = true
				break
			}
		}
		slot := formatClock(m)
		if taken {
			occupied = append(occupied, slot)
		} else {
			free = append(free, slot)
		}
	}
	return free, occupied, nil
}

// AvailableSlots returns only the free slots for a date.
func AvailableSlots(date time.Time, existing []*Booking, w Window, granularityMinutes int) ([]string, error) {
	free, _, err := ComputeSlots(date, existing, w, granularityMinutes)
	return free, err
}
