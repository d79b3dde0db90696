package ics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"groupsched/internal/model"
)

// Monday 2026-01-05 09:00 UTC, a fixed anchor for deterministic output.
var inviteNow = time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)

func TestBuildInviteWeeklyWednesday(t *testing.T) {
	sel := model.Selection{{Day: model.Wednesday, Hour: 14}}

	cal, err := BuildInvite(sel, model.DefaultWindow, InviteOptions{
		Title:    "Team sync",
		Location: time.UTC,
		Weekly:   true,
		Now:      inviteNow,
	})
	require.NoError(t, err)

	serialized := cal.Serialize()
	assert.Equal(t, 1, strings.Count(serialized, "BEGIN:VEVENT"))
	assert.Contains(t, serialized, "RRULE:FREQ=WEEKLY")
	assert.Contains(t, serialized, "SUMMARY:Team sync")

	parsed, err := ical.ParseCalendar(strings.NewReader(serialized))
	require.NoError(t, err)
	events := parsed.Events()
	require.Len(t, events, 1)

	start, err := events[0].GetStartAt()
	require.NoError(t, err)
	start = start.In(time.UTC)
	assert.Equal(t, time.Wednesday, start.Weekday())
	assert.Equal(t, 14, start.Hour())
	// The next Wednesday after Monday Jan 5 is Jan 7.
	assert.Equal(t, 7, start.Day())

	end, err := events[0].GetEndAt()
	require.NoError(t, err)
	assert.Equal(t, time.Hour, end.Sub(start))
}

func TestBuildInviteSingleOccurrence(t *testing.T) {
	sel := model.Selection{{Day: model.Monday, Hour: 9}}

	cal, err := BuildInvite(sel, model.DefaultWindow, InviteOptions{
		Location: time.UTC,
		Duration: 30 * time.Minute,
		Now:      inviteNow,
	})
	require.NoError(t, err)

	serialized := cal.Serialize()
	assert.NotContains(t, serialized, "RRULE")

	parsed, err := ical.ParseCalendar(strings.NewReader(serialized))
	require.NoError(t, err)
	start, err := parsed.Events()[0].GetStartAt()
	require.NoError(t, err)
	// Monday 09:00 is not after "now" (Monday 09:00), so the anchor moves a
	// full week out.
	assert.Equal(t, 12, start.In(time.UTC).Day())
}

func TestBuildInviteMultipleSlots(t *testing.T) {
	sel := model.Selection{
		{Day: model.Friday, Hour: 16},
		{Day: model.Tuesday, Hour: 10},
	}

	cal, err := BuildInvite(sel, model.DefaultWindow, InviteOptions{
		Location: time.UTC,
		Weekly:   true,
		Now:      inviteNow,
	})
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(cal.Serialize(), "BEGIN:VEVENT"))
}

func TestBuildInviteRejectsOutOfWindow(t *testing.T) {
	sel := model.Selection{
		{Day: model.Wednesday, Hour: 14},
		{Day: model.Wednesday, Hour: 21}, // outside 9..19
	}

	_, err := BuildInvite(sel, model.DefaultWindow, InviteOptions{Location: time.UTC, Now: inviteNow})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "window")

	_, err = BuildInvite(model.Selection{}, model.DefaultWindow, InviteOptions{Location: time.UTC})
	assert.Error(t, err)
}

func TestWriteInvite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "meeting.ics")
	sel := model.Selection{{Day: model.Wednesday, Hour: 14}}

	err := WriteInvite(path, sel, model.DefaultWindow, InviteOptions{
		Location: time.UTC,
		Weekly:   true,
		Now:      inviteNow,
	})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "BEGIN:VCALENDAR")
}

func TestNextOccurrence(t *testing.T) {
	loc := time.UTC
	// Wednesday slot from a Monday anchor.
	got := nextOccurrence(inviteNow, model.Slot{Day: model.Wednesday, Hour: 14}, loc)
	assert.Equal(t, time.Date(2026, 1, 7, 14, 0, 0, 0, loc), got)

	// Same-day later hour stays on the same day.
	got = nextOccurrence(inviteNow, model.Slot{Day: model.Monday, Hour: 15}, loc)
	assert.Equal(t, time.Date(2026, 1, 5, 15, 0, 0, 0, loc), got)

	// Same-day earlier hour rolls a week ahead.
	got = nextOccurrence(inviteNow, model.Slot{Day: model.Monday, Hour: 9}, loc)
	assert.Equal(t, time.Date(2026, 1, 12, 9, 0, 0, 0, loc), got)
}
