package bookings

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(t *testing.T) time.Time {
	t.Helper()
	return time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)
}

func bookingAt(t *testing.T, clock string, durationMinutes int, status string) *Booking {
	t.Helper()
	parsed, err := time.Parse("15:04", clock)
	require.NoError(t, err)

	b := &Booking{
		ID:              "b-" + clock,
		AgentID:         "agent-1",
		ScheduledAt:     day(t).Add(time.Duration(parsed.Hour())*time.Hour + time.Duration(parsed.Minute())*time.Minute),
		DurationMinutes: durationMinutes,
		Status:          status,
	}
	b.DeriveEnd()
	return b
}

func TestComputeSlots_EmptyDay(t *testing.T) {
	// 09:00-18:00 at 30 minutes is 18 candidate slots, all free.
	free, occupied, err := ComputeSlots(day(t), nil, DefaultWindow, 30)
	require.NoError(t, err)

	assert.Len(t, free, 18)
	assert.Empty(t, occupied)
	assert.Equal(t, "09:00", free[0])
	assert.Equal(t, "17:30", free[len(free)-1])
}

func TestComputeSlots_BookingClaimsItsSlots(t *testing.T) {
	existing := []*Booking{bookingAt(t, "10:00", 30, StatusPending)}

	free, occupied, err := ComputeSlots(day(t), existing, DefaultWindow, 30)
	require.NoError(t, err)

	assert.Equal(t, []string{"10:00"}, occupied)
	assert.Len(t, free, 17)
	assert.NotContains(t, free, "10:00")
}

func TestComputeSlots_OddDurationRoundsTowardOccupied(t *testing.T) {
	// 10:15-10:55 touches both the 10:00 and 10:30 slots.
	existing := []*Booking{bookingAt(t, "10:15", 40, StatusConfirmed)}

	_, occupied, err := ComputeSlots(day(t), existing, DefaultWindow, 30)
	require.NoError(t, err)

	assert.Equal(t, []string{"10:00", "10:30"}, occupied)
}

func TestComputeSlots_InactiveBookingsNeverBlock(t *testing.T) {
	deleted := bookingAt(t, "11:00", 30, StatusPending)
	now := time.Now()
	deleted.DeletedAt = &now

	existing := []*Booking{
		bookingAt(t, "09:00", 30, StatusCancelled),
		bookingAt(t, "09:30", 30, StatusCompleted),
		bookingAt(t, "10:00", 30, StatusNoShow),
		deleted,
	}

	free, occupied, err := ComputeSlots(day(t), existing, DefaultWindow, 30)
	require.NoError(t, err)
	assert.Empty(t, occupied)
	assert.Len(t, free, 18)
}

func TestComputeSlots_CompletenessAndDisjointness(t *testing.T) {
	existing := []*Booking{
		bookingAt(t, "09:00", 45, StatusPending),
		bookingAt(t, "12:00", 30, StatusConfirmed),
		bookingAt(t, "16:50", 90, StatusPending),
	}

	free, occupied, err := ComputeSlots(day(t), existing, DefaultWindow, 30)
	require.NoError(t, err)

	seen := map[string]int{}
	for _, s := range free {
		seen[s]++
	}
	for _, s := range occupied {
		seen[s]++
	}

	assert.Len(t, seen, 18, "free and occupied must cover every candidate")
	for slot, n := range seen {
		assert.Equal(t, 1, n, "slot %s appears in both sets", slot)
	}
}

func TestComputeSlots_CustomWindowAndGranularity(t *testing.T) {
	free, occupied, err := ComputeSlots(day(t), nil, Window{Start: "08:00", End: "12:00"}, 60)
	require.NoError(t, err)
	assert.Empty(t, occupied)
	assert.Equal(t, []string{"08:00", "09:00", "10:00", "11:00"}, free)
}

func TestComputeSlots_RejectsBadInputs(t *testing.T) {
	_, _, err := ComputeSlots(day(t), nil, DefaultWindow, 0)
	assert.Error(t, err)

	_, _, err = ComputeSlots(day(t), nil, Window{Start: "18:00", End: "09:00"}, 30)
	assert.Error(t, err)

	_, _, err = ComputeSlots(day(t), nil, Window{Start: "nine", End: "18:00"}, 30)
	assert.Error(t, err)
}

func TestBookingOverlaps_Symmetry(t *testing.T) {
	a := bookingAt(t, "10:00", 30, StatusPending)
	b := bookingAt(t, "10:15", 30, StatusPending)
	c := bookingAt(t, "11:00", 30, StatusPending)

	assert.True(t, a.Overlaps(b.ScheduledAt, b.EndAt))
	assert.True(t, b.Overlaps(a.ScheduledAt, a.EndAt))

	assert.False(t, a.Overlaps(c.ScheduledAt, c.EndAt))
	assert.False(t, c.Overlaps(a.ScheduledAt, a.EndAt))

	// Half-open: back-to-back bookings do not overlap.
	next := bookingAt(t, "10:30", 30, StatusPending)
	assert.False(t, a.Overlaps(next.ScheduledAt, next.EndAt))
}

func TestDeriveEnd(t *testing.T) {
	b := bookingAt(t, "10:00", 30, StatusPending)
	assert.Equal(t, b.ScheduledAt.Add(30*time.Minute), b.EndAt)

	b.DurationMinutes = 45
	b.DeriveEnd()
	assert.Equal(t, b.ScheduledAt.Add(45*time.Minute), b.EndAt)

	b.ScheduledAt = b.ScheduledAt.Add(time.Hour)
	b.DeriveEnd()
	assert.Equal(t, b.ScheduledAt.Add(45*time.Minute), b.EndAt)
}
