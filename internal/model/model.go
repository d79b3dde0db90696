package model

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"
)

// Day is a weekday index as used in schedule files: Monday is 0, Sunday is 6.
// This differs from time.Weekday (Sunday 0); use Weekday() to convert.
type Day int

const (
	Monday Day = iota
	Tuesday
	Wednesday
	Thursday
	Friday
	Saturday
	Sunday
)

// DayCount is the number of days in a grid week.
const DayCount = 7

var dayNames = [DayCount]string{
	"Monday", "Tuesday", "Wednesday", "Thursday", "Friday", "Saturday", "Sunday",
}

func (d Day) Valid() bool {
	return d >= Monday && d <= Sunday
}

func (d Day) String() string {
	if !d.Valid() {
		return fmt.Sprintf("Day(%d)", int(d))
	}
	return dayNames[d]
}

// Short returns the three-letter abbreviation ("Mon".."Sun").
func (d Day) Short() string {
	return d.String()[:3]
}

// Weekday converts to time.Weekday (Sunday-indexed).
func (d Day) Weekday() time.Weekday {
	return time.Weekday((int(d) + 1) % 7)
}

// DayFromWeekday converts a time.Weekday into the Monday-indexed Day.
func DayFromWeekday(w time.Weekday) Day {
	return Day((int(w) + 6) % 7)
}

// ParseDay accepts a full weekday name or any unambiguous prefix of at least
// three letters, case-insensitive ("mon", "Wednes", "SUNDAY").
func ParseDay(s string) (Day, error) {
	needle := strings.ToLower(strings.TrimSpace(s))
	if len(needle) < 3 {
		return 0, fmt.Errorf("unknown day %q", s)
	}
	for i, name := range dayNames {
		if strings.HasPrefix(strings.ToLower(name), needle) {
			return Day(i), nil
		}
	}
	return 0, fmt.Errorf("unknown day %q", s)
}

// Window is the daily range of hour slots a grid covers. StartHour is the
// first slot; EndHour is exclusive, so the last slot is EndHour-1. The
// default working window is 09:00..20:00 (last slot 19:00-20:00).
type Window struct {
	StartHour int
	EndHour   int
}

// DefaultWindow covers the usual 9 AM - 7 PM meeting hours.
var DefaultWindow = Window{StartHour: 9, EndHour: 20}

func (w Window) Valid() bool {
	return w.StartHour >= 0 && w.EndHour <= 24 && w.StartHour < w.EndHour
}

// Contains reports whether hour is a slot inside the window.
func (w Window) Contains(hour int) bool {
	return hour >= w.StartHour && hour < w.EndHour
}

// Hours is the number of slots per day.
func (w Window) Hours() int {
	return w.EndHour - w.StartHour
}

// Slot identifies one grid cell: a weekday plus the starting hour of a
// one-hour block.
type Slot struct {
	Day  Day
	Hour int
}

// Before orders slots chronologically within the week.
func (s Slot) Before(o Slot) bool {
	if s.Day != o.Day {
		return s.Day < o.Day
	}
	return s.Hour < o.Hour
}

func (s Slot) String() string {
	return fmt.Sprintf("%s %02d:00", s.Day, s.Hour)
}

// Grid is one participant's weekly availability: a set of selected slots
// within a fixed window. Mutable while editing; aggregation and export
// only read it.
type Grid struct {
	window Window
	cells  map[Slot]struct{}
}

// NewGrid creates an empty grid over the given window. A zero window is
// replaced by DefaultWindow.
func NewGrid(w Window) *Grid {
	if !w.Valid() {
		w = DefaultWindow
	}
	return &Grid{
		window: w,
		cells:  make(map[Slot]struct{}),
	}
}

func (g *Grid) Window() Window {
	return g.window
}

// checkSlot validates that the slot lies inside the grid.
func (g *Grid) checkSlot(s Slot) error {
	if !s.Day.Valid() {
		return fmt.Errorf("day %d out of range 0..6", int(s.Day))
	}
	if !g.window.Contains(s.Hour) {
		return fmt.Errorf("hour %d outside window %02d:00..%02d:00",
			s.Hour, g.window.StartHour, g.window.EndHour)
	}
	return nil
}

// Set marks a slot available.
func (g *Grid) Set(s Slot) error {
	if err := g.checkSlot(s); err != nil {
		return err
	}
	g.cells[s] = struct{}{}
	return nil
}

// Clear marks a slot unavailable. Clearing an unset slot is a no-op.
func (g *Grid) Clear(s Slot) error {
	if err := g.checkSlot(s); err != nil {
		return err
	}
	delete(g.cells, s)
	return nil
}

// Toggle flips a slot and reports its new state.
func (g *Grid) Toggle(s Slot) (bool, error) {
	if err := g.checkSlot(s); err != nil {
		return false, err
	}
	if _, ok := g.cells[s]; ok {
		delete(g.cells, s)
		return false, nil
	}
	g.cells[s] = struct{}{}
	return true, nil
}

// SetRange marks a contiguous same-day range, fromHour..toHour inclusive.
// Reversed bounds are accepted and normalized.
func (g *Grid) SetRange(day Day, fromHour, toHour int) error {
	if fromHour > toHour {
		fromHour, toHour = toHour, fromHour
	}
	for hour := fromHour; hour <= toHour; hour++ {
		if err := g.Set(Slot{Day: day, Hour: hour}); err != nil {
			return err
		}
	}
	return nil
}

// ClearRange unmarks a contiguous same-day range, fromHour..toHour inclusive.
func (g *Grid) ClearRange(day Day, fromHour, toHour int) error {
	if fromHour > toHour {
		fromHour, toHour = toHour, fromHour
	}
	for hour := fromHour; hour <= toHour; hour++ {
		if err := g.Clear(Slot{Day: day, Hour: hour}); err != nil {
			return err
		}
	}
	return nil
}

// Contains reports whether the slot is marked available.
func (g *Grid) Contains(s Slot) bool {
	_, ok := g.cells[s]
	return ok
}

// Count is the number of selected slots.
func (g *Grid) Count() int {
	return len(g.cells)
}

// Slots returns all selected slots in chronological order. The ordering is
// what keeps file export deterministic and round-trips byte-identical.
func (g *Grid) Slots() []Slot {
	out := make([]Slot, 0, len(g.cells))
	for s := range g.cells {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}

// Fill marks every slot in the window available.
func (g *Grid) Fill() {
	for day := Monday; day <= Sunday; day++ {
		for hour := g.window.StartHour; hour < g.window.EndHour; hour++ {
			g.cells[Slot{Day: day, Hour: hour}] = struct{}{}
		}
	}
}

// Clone returns an independent copy of the grid.
func (g *Grid) Clone() *Grid {
	c := NewGrid(g.window)
	for s := range g.cells {
		c.cells[s] = struct{}{}
	}
	return c
}

// ParticipantSchedule is a named availability grid as loaded from one
// exported schedule file.
type ParticipantSchedule struct {
	Name string
	Grid *Grid
}

// Selection is the set of slots an organizer picked for calendar export.
// It only exists for the duration of an export.
type Selection []Slot

// Validate checks that every selected slot lies inside the window and that
// the selection is non-empty.
func (sel Selection) Validate(w Window) error {
	if len(sel) == 0 {
		return errors.New("empty selection")
	}
	for _, s := range sel {
		if !s.Day.Valid() {
			return fmt.Errorf("selection: day %d out of range 0..6", int(s.Day))
		}
		if !w.Contains(s.Hour) {
			return fmt.Errorf("selection: %s outside window %02d:00..%02d:00",
				s, w.StartHour, w.EndHour)
		}
	}
	return nil
}

// Sorted returns the selection in chronological order without modifying
// the receiver.
func (sel Selection) Sorted() Selection {
	out := make(Selection, len(sel))
	copy(out, sel)
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}
