package ics

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/teambition/rrule-go"

	appLog "groupsched/internal/log"
	"groupsched/internal/model"
)

const defaultMaxOccurrencesPerEvent = 1000

// BusyEvent is the normalized representation of a VEVENT from an imported
// personal calendar. Recurrence expansion operates on this type.
type BusyEvent struct {
	UID     string
	Summary string

	Start  time.Time
	End    time.Time
	AllDay bool

	RawRRule string
	ExDates  []time.Time
}

// ParseBusyCalendar parses an ICS payload into a list of BusyEvent.
//
//   - It relies on the underlying library's VTIMEZONE/TZID handling to
//     construct proper time.Time values (with Location set).
//   - It detects all-day events by inspecting the DTSTART value format.
//   - It records RRULE/EXDATE but does not expand recurrences; expansion
//     happens in AvailabilityFromBusy.
//
// Events that fail to parse are logged and skipped so one bad VEVENT does
// not invalidate the whole calendar.
func ParseBusyCalendar(body []byte) ([]BusyEvent, error) {
	if len(body) == 0 {
		return nil, errors.New("empty ICS body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	events := make([]BusyEvent, 0)
	for _, comp := range cal.Events() {
		ev, perr := parseVEvent(comp)
		if perr != nil {
			appLog.Error("ics vevent parse failed", perr, "uid", ev.UID)
			continue
		}
		events = append(events, ev)
	}

	appLog.Info("ics parse completed", "event_count", len(events))
	return events, nil
}

// ParseBusyFile reads and parses an ICS file from disk.
func ParseBusyFile(path string) ([]BusyEvent, error) {
	body, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseBusyCalendar(body)
}

func parseVEvent(ve *ical.VEvent) (BusyEvent, error) {
	var out BusyEvent

	uidProp := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uidProp == nil || uidProp.Value == "" {
		return out, errors.New("missing UID")
	}
	out.UID = uidProp.Value

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Summary = p.Value
	}

	// DTSTART / DTEND via the library's timezone-aware helpers.
	start, _ := ve.GetStartAt()
	end, _ := ve.GetEndAt()
	out.Start = start
	out.End = end

	// Detect all-day: VALUE=DATE or a DTSTART value without a time part.
	if dtStartProp := ve.GetProperty(ical.ComponentPropertyDtStart); dtStartProp != nil {
		if params := dtStartProp.ICalParameters; params != nil {
			if vs, ok := params["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
				out.AllDay = true
			}
		}
		if !strings.Contains(dtStartProp.Value, "T") {
			out.AllDay = true
		}
	}

	if rruleProp := ve.GetProperty(ical.ComponentPropertyRrule); rruleProp != nil {
		out.RawRRule = rruleProp.Value
	}

	// EXDATE (can appear multiple times, each with a comma-separated list).
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			if t, err := parseICSTime(part); err == nil {
				out.ExDates = append(out.ExDates, t)
			}
		}
	}

	return out, nil
}

// parseICSTime parses a basic ICS date/date-time string. EXDATE values here
// lack full parameter context, so only the common DATE / DATE-TIME / UTC
// forms are handled.
func parseICSTime(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, errors.New("empty time value")
	}

	// UTC form, e.g. 20250101T090000Z
	if strings.HasSuffix(v, "Z") {
		const layout = "20060102T150405Z"
		return time.Parse(layout, v)
	}

	// Local date-time, e.g. 20250101T090000
	if strings.Contains(v, "T") {
		const layout = "20060102T150405"
		return time.ParseInLocation(layout, v, time.Local)
	}

	// Date-only (all-day), e.g. 20250101
	const layoutDate = "20060102"
	return time.ParseInLocation(layoutDate, v, time.Local)
}

// ImportConfig controls how busy events become an availability grid.
type ImportConfig struct {
	// Location is the timezone the grid is interpreted in. If nil,
	// time.Local is used.
	Location *time.Location

	// WeekStart is the Monday 00:00 that anchors the target week.
	WeekStart time.Time

	// Window is the daily slot window of the resulting grid.
	Window model.Window

	// MaxOccurrencesPerEvent is a safety cap against pathological RRULEs.
	// If zero, defaultMaxOccurrencesPerEvent is used.
	MaxOccurrencesPerEvent int
}

// NextWeekStart returns the upcoming Monday 00:00 strictly after now in loc.
// When now already is a Monday, the Monday one week out is returned, so the
// derived grid always describes a full future week.
func NextWeekStart(now time.Time, loc *time.Location) time.Time {
	now = now.In(loc)
	daysAhead := (int(time.Monday) - int(now.Weekday()) + 7) % 7
	if daysAhead == 0 {
		daysAhead = 7
	}
	return time.Date(now.Year(), now.Month(), now.Day()+daysAhead, 0, 0, 0, 0, loc)
}

// AvailabilityFromBusy derives an availability grid for one week: every slot
// in the window starts available, and any slot intersecting a busy
// occurrence is cleared. All-day events clear the whole day.
//
// Recurrences are expanded with the event's RRULE and EXDATEs over the
// target week only, so unbounded rules stay cheap.
func AvailabilityFromBusy(events []BusyEvent, cfg ImportConfig) (*model.Grid, error) {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.WeekStart.IsZero() {
		return nil, errors.New("import: WeekStart is not set")
	}
	if cfg.MaxOccurrencesPerEvent <= 0 {
		cfg.MaxOccurrencesPerEvent = defaultMaxOccurrencesPerEvent
	}

	weekStart := cfg.WeekStart.In(cfg.Location)
	weekEnd := weekStart.AddDate(0, 0, model.DayCount)

	grid := model.NewGrid(cfg.Window)
	grid.Fill()
	window := grid.Window()

	for _, ev := range events {
		for _, occ := range expandBusy(ev, weekStart, weekEnd, cfg.MaxOccurrencesPerEvent) {
			clearBusySlots(grid, window, weekStart, occ, cfg.Location)
		}
	}

	appLog.Info("availability derived from busy calendar",
		"events", len(events),
		"week_start", weekStart.Format(time.RFC3339),
		"free_slots", grid.Count(),
	)
	return grid, nil
}

// busyOccurrence is one concrete busy interval inside the target week.
type busyOccurrence struct {
	Start  time.Time
	End    time.Time
	AllDay bool
}

func expandBusy(ev BusyEvent, weekStart, weekEnd time.Time, maxOccurrences int) []busyOccurrence {
	// Single non-recurring event.
	if ev.RawRRule == "" {
		start, end := ev.Start, ev.End
		if ev.AllDay {
			// All-day: [date 00:00, next day 00:00) in the event's timezone,
			// also covering calendars that omit DTEND for date values.
			date := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
			start = date
			if !end.After(start) {
				end = date.Add(24 * time.Hour)
			}
		}
		if !timeRangesOverlap(start, end, weekStart, weekEnd) {
			return nil
		}
		return []busyOccurrence{{Start: start, End: end, AllDay: ev.AllDay}}
	}

	r, err := rrule.StrToRRule(ev.RawRRule)
	if err != nil {
		appLog.Error("import: failed to parse RRULE", err, "uid", ev.UID, "rrule", ev.RawRRule)
		return nil
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		// Best effort: align EXDATE location with the event's start.
		set.ExDate(ex.In(ev.Start.Location()))
	}

	// Adjust the week range into the event's original location for Between().
	rangeStart := weekStart.In(ev.Start.Location())
	rangeEnd := weekEnd.In(ev.Start.Location())

	occTimes := set.Between(rangeStart, rangeEnd, true)
	if len(occTimes) > maxOccurrences {
		occTimes = occTimes[:maxOccurrences]
		appLog.Error("import: truncated occurrences for UID due to cap",
			errors.New("max occurrences reached"),
			"uid", ev.UID,
			"cap", maxOccurrences,
		)
	}

	dur := ev.End.Sub(ev.Start)
	out := make([]busyOccurrence, 0, len(occTimes))
	for _, occStart := range occTimes {
		if ev.AllDay {
			date := time.Date(occStart.Year(), occStart.Month(), occStart.Day(), 0, 0, 0, 0, occStart.Location())
			out = append(out, busyOccurrence{Start: date, End: date.Add(24 * time.Hour), AllDay: true})
			continue
		}
		out = append(out, busyOccurrence{Start: occStart, End: occStart.Add(dur)})
	}
	return out
}

// clearBusySlots clears every grid slot whose hour block intersects the busy
// occurrence. Slot boundaries are computed with time.Date so DST transitions
// inside the week do not skew later days.
func clearBusySlots(grid *model.Grid, window model.Window, weekStart time.Time, occ busyOccurrence, loc *time.Location) {
	start := occ.Start.In(loc)
	end := occ.End.In(loc)

	for day := model.Monday; day <= model.Sunday; day++ {
		for hour := window.StartHour; hour < window.EndHour; hour++ {
			slotStart := time.Date(weekStart.Year(), weekStart.Month(), weekStart.Day()+int(day), hour, 0, 0, 0, loc)
			slotEnd := slotStart.Add(time.Hour)
			if start.Before(slotEnd) && end.After(slotStart) {
				// checkSlot cannot fail here; the loop stays inside the window.
				_ = grid.Clear(model.Slot{Day: day, Hour: hour})
			}
		}
	}
}

func timeRangesOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	if aEnd.Before(bStart) {
		return false
	}
	if bEnd.Before(aStart) {
		return false
	}
	return true
}
