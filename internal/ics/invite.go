// Package ics converts between availability grids and iCalendar data: it
// exports chosen meeting slots as (optionally weekly-recurring) VEVENTs and
// imports a personal busy calendar into an availability grid.
package ics

import (
	"errors"
	"fmt"
	"os"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/google/uuid"

	appLog "groupsched/internal/log"
	"groupsched/internal/model"
)

// InviteOptions controls how a meeting selection is turned into VEVENTs.
type InviteOptions struct {
	// Title is the event summary. Empty defaults to "Group meeting".
	Title string

	// Location is the timezone the slots are anchored in. If nil, time.Local
	// is used.
	Location *time.Location

	// Duration of each event. Zero defaults to one hour.
	Duration time.Duration

	// Weekly adds RRULE:FREQ=WEEKLY to every event.
	Weekly bool

	// Now is the reference time for anchoring; each event starts at the next
	// occurrence of its slot's weekday/hour strictly after Now. Zero means
	// time.Now().
	Now time.Time
}

// BuildInvite converts a selection into a calendar with one VEVENT per slot.
// Slots outside the window fail the whole export; nothing is silently
// dropped.
func BuildInvite(sel model.Selection, window model.Window, opts InviteOptions) (*ical.Calendar, error) {
	if err := sel.Validate(window); err != nil {
		return nil, err
	}

	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.Duration <= 0 {
		opts.Duration = time.Hour
	}
	if opts.Title == "" {
		opts.Title = "Group meeting"
	}
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}
	now = now.In(opts.Location)

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodRequest)
	cal.SetProductId("-//groupsched//EN")

	for _, s := range sel.Sorted() {
		start := nextOccurrence(now, s, opts.Location)

		ev := cal.AddEvent(uuid.NewString())
		ev.SetCreatedTime(now)
		ev.SetDtStampTime(now)
		ev.SetStartAt(start)
		ev.SetEndAt(start.Add(opts.Duration))
		ev.SetSummary(opts.Title)
		ev.SetDescription(fmt.Sprintf("Recurring group meeting slot: %s", s))
		if opts.Weekly {
			ev.AddRrule("FREQ=WEEKLY")
		}
	}

	appLog.Info("invite built", "slots", len(sel), "weekly", opts.Weekly, "duration", opts.Duration.String())
	return cal, nil
}

// WriteInvite serializes the invite calendar to path.
func WriteInvite(path string, sel model.Selection, window model.Window, opts InviteOptions) error {
	if path == "" {
		return errors.New("output path is empty")
	}
	cal, err := BuildInvite(sel, window, opts)
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(cal.Serialize()), 0o600)
}

// nextOccurrence returns the first time strictly after now that falls on the
// slot's weekday at the slot's hour, in loc.
func nextOccurrence(now time.Time, s model.Slot, loc *time.Location) time.Time {
	now = now.In(loc)
	daysAhead := (int(s.Day.Weekday()) - int(now.Weekday()) + 7) % 7
	candidate := time.Date(now.Year(), now.Month(), now.Day()+daysAhead, s.Hour, 0, 0, 0, loc)
	if !candidate.After(now) {
		candidate = candidate.AddDate(0, 0, 7)
	}
	return candidate
}
