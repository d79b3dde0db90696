package ics

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"groupsched/internal/model"
)

func icsBody(events ...string) []byte {
	lines := []string{"BEGIN:VCALENDAR", "VERSION:2.0", "PRODID:-//test//EN"}
	lines = append(lines, events...)
	lines = append(lines, "END:VCALENDAR", "")
	return []byte(strings.Join(lines, "\r\n"))
}

func TestParseBusyCalendar(t *testing.T) {
	body := icsBody(
		"BEGIN:VEVENT",
		"UID:standup",
		"DTSTART:20260106T100000Z",
		"DTEND:20260106T113000Z",
		"SUMMARY:Standup",
		"RRULE:FREQ=WEEKLY",
		"EXDATE:20260113T100000Z",
		"END:VEVENT",
	)

	events, err := ParseBusyCalendar(body)
	require.NoError(t, err)
	require.Len(t, events, 1)

	ev := events[0]
	assert.Equal(t, "standup", ev.UID)
	assert.Equal(t, "Standup", ev.Summary)
	assert.Equal(t, "FREQ=WEEKLY", ev.RawRRule)
	assert.False(t, ev.AllDay)
	require.Len(t, ev.ExDates, 1)
	assert.Equal(t, time.Date(2026, 1, 13, 10, 0, 0, 0, time.UTC), ev.ExDates[0])
	assert.Equal(t, 90*time.Minute, ev.End.Sub(ev.Start))
}

func TestParseBusyCalendarSkipsBrokenEvents(t *testing.T) {
	body := icsBody(
		"BEGIN:VEVENT",
		"DTSTART:20260106T100000Z",
		"DTEND:20260106T110000Z",
		"SUMMARY:No UID",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:ok",
		"DTSTART:20260106T120000Z",
		"DTEND:20260106T130000Z",
		"END:VEVENT",
	)

	events, err := ParseBusyCalendar(body)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "ok", events[0].UID)
}

func TestParseBusyCalendarEmpty(t *testing.T) {
	_, err := ParseBusyCalendar(nil)
	assert.Error(t, err)
}

func TestNextWeekStart(t *testing.T) {
	loc := time.UTC

	// Sunday rolls to the very next day.
	sunday := time.Date(2026, 1, 4, 18, 0, 0, 0, loc)
	assert.Equal(t, time.Date(2026, 1, 5, 0, 0, 0, 0, loc), NextWeekStart(sunday, loc))

	// A Monday always yields the Monday one week out.
	monday := time.Date(2026, 1, 5, 0, 0, 0, 0, loc)
	assert.Equal(t, time.Date(2026, 1, 12, 0, 0, 0, 0, loc), NextWeekStart(monday, loc))
}

func TestAvailabilityFromBusyRecurring(t *testing.T) {
	events := []BusyEvent{{
		UID:      "standup",
		Start:    time.Date(2026, 1, 6, 10, 0, 0, 0, time.UTC), // Tuesday 10:00
		End:      time.Date(2026, 1, 6, 11, 30, 0, 0, time.UTC),
		RawRRule: "FREQ=WEEKLY",
	}}

	grid, err := AvailabilityFromBusy(events, ImportConfig{
		Location:  time.UTC,
		WeekStart: time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC), // Monday
		Window:    model.DefaultWindow,
	})
	require.NoError(t, err)

	// 10:00-11:30 intersects the 10 and 11 o'clock slots on Tuesday.
	assert.False(t, grid.Contains(model.Slot{Day: model.Tuesday, Hour: 10}))
	assert.False(t, grid.Contains(model.Slot{Day: model.Tuesday, Hour: 11}))
	assert.True(t, grid.Contains(model.Slot{Day: model.Tuesday, Hour: 9}))
	assert.True(t, grid.Contains(model.Slot{Day: model.Tuesday, Hour: 12}))
	assert.Equal(t, 7*11-2, grid.Count())
}

func TestAvailabilityFromBusyExDate(t *testing.T) {
	events := []BusyEvent{{
		UID:      "standup",
		Start:    time.Date(2026, 1, 6, 10, 0, 0, 0, time.UTC), // Tuesday 10:00
		End:      time.Date(2026, 1, 6, 11, 0, 0, 0, time.UTC),
		RawRRule: "FREQ=WEEKLY",
		ExDates:  []time.Time{time.Date(2026, 1, 13, 10, 0, 0, 0, time.UTC)},
	}}

	grid, err := AvailabilityFromBusy(events, ImportConfig{
		Location:  time.UTC,
		WeekStart: time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC),
		Window:    model.DefaultWindow,
	})
	require.NoError(t, err)

	// The only occurrence inside the week is excluded; nothing is busy.
	assert.Equal(t, 7*11, grid.Count())
}

func TestAvailabilityFromBusyAllDay(t *testing.T) {
	events := []BusyEvent{{
		UID:    "offsite",
		Start:  time.Date(2026, 1, 14, 0, 0, 0, 0, time.UTC), // Wednesday
		AllDay: true,
	}}

	grid, err := AvailabilityFromBusy(events, ImportConfig{
		Location:  time.UTC,
		WeekStart: time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC),
		Window:    model.DefaultWindow,
	})
	require.NoError(t, err)

	for hour := 9; hour < 20; hour++ {
		assert.False(t, grid.Contains(model.Slot{Day: model.Wednesday, Hour: hour}), "hour %d", hour)
	}
	assert.Equal(t, 6*11, grid.Count())
}

func TestAvailabilityFromBusyIgnoresOtherWeeks(t *testing.T) {
	events := []BusyEvent{{
		UID:   "past",
		Start: time.Date(2026, 1, 6, 10, 0, 0, 0, time.UTC),
		End:   time.Date(2026, 1, 6, 11, 0, 0, 0, time.UTC),
	}}

	grid, err := AvailabilityFromBusy(events, ImportConfig{
		Location:  time.UTC,
		WeekStart: time.Date(2026, 1, 12, 0, 0, 0, 0, time.UTC),
		Window:    model.DefaultWindow,
	})
	require.NoError(t, err)
	assert.Equal(t, 7*11, grid.Count())
}

func TestAvailabilityFromBusyRequiresWeekStart(t *testing.T) {
	_, err := AvailabilityFromBusy(nil, ImportConfig{Location: time.UTC, Window: model.DefaultWindow})
	assert.Error(t, err)
}
