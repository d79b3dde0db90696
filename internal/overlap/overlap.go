// Package overlap computes group availability from a set of participant
// schedules: per-slot counts, a ranked list of candidate meeting times, and
// the perfect-match slots where everyone is free.
package overlap

import (
	"sort"

	"groupsched/internal/model"
)

// CellStat describes one heatmap cell: who is available at that slot.
type CellStat struct {
	Slot         model.Slot
	Count        int
	Participants []string
}

// Level buckets a cell's availability ratio for display. The web UI maps
// each bucket to one heatmap color.
type Level int

const (
	LevelNone    Level = iota // nobody available
	LevelLow                  // below 25%
	LevelQuarter              // at least 25%
	LevelHalf                 // at least 50%
	LevelMost                 // at least 75%
	LevelAll                  // everyone available
)

// Heatmap is the aggregate availability over all loaded schedules. It is
// derived data: rebuild it whenever the schedule set changes.
type Heatmap struct {
	window model.Window
	total  int
	cells  map[model.Slot]*CellStat
}

// Aggregate builds a heatmap from the given schedules. Participant lists per
// cell are sorted by name so output is deterministic.
func Aggregate(scheds []model.ParticipantSchedule, window model.Window) *Heatmap {
	h := &Heatmap{
		window: window,
		total:  len(scheds),
		cells:  make(map[model.Slot]*CellStat),
	}

	for _, sched := range scheds {
		if sched.Grid == nil {
			continue
		}
		for _, s := range sched.Grid.Slots() {
			cell, ok := h.cells[s]
			if !ok {
				cell = &CellStat{Slot: s}
				h.cells[s] = cell
			}
			cell.Count++
			cell.Participants = append(cell.Participants, sched.Name)
		}
	}

	for _, cell := range h.cells {
		sort.Strings(cell.Participants)
	}
	return h
}

// Window returns the slot window the heatmap covers.
func (h *Heatmap) Window() model.Window {
	return h.window
}

// Total is the number of aggregated participants.
func (h *Heatmap) Total() int {
	return h.total
}

// Count returns how many participants are available at the slot.
func (h *Heatmap) Count(s model.Slot) int {
	if cell, ok := h.cells[s]; ok {
		return cell.Count
	}
	return 0
}

// Cell returns the full stat for a slot. Unmarked slots yield a zero-count
// stat so callers can iterate the whole grid uniformly.
func (h *Heatmap) Cell(s model.Slot) CellStat {
	if cell, ok := h.cells[s]; ok {
		return *cell
	}
	return CellStat{Slot: s}
}

// Level buckets the slot's availability ratio.
func (h *Heatmap) Level(s model.Slot) Level {
	count := h.Count(s)
	if count == 0 || h.total == 0 {
		return LevelNone
	}
	ratio := float64(count) / float64(h.total)
	switch {
	case ratio >= 1.0:
		return LevelAll
	case ratio >= 0.75:
		return LevelMost
	case ratio >= 0.5:
		return LevelHalf
	case ratio >= 0.25:
		return LevelQuarter
	default:
		return LevelLow
	}
}

// Rank returns all slots with at least one available participant, sorted by
// count descending. Ties break chronologically (day, then hour) so repeated
// runs over the same inputs produce identical output.
func (h *Heatmap) Rank() []CellStat {
	out := make([]CellStat, 0, len(h.cells))
	for _, cell := range h.cells {
		out = append(out, *cell)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Slot.Before(out[j].Slot)
	})
	return out
}

// PerfectMatches returns the slots where every participant is available,
// in chronological order. Empty input has no perfect matches.
func (h *Heatmap) PerfectMatches() []model.Slot {
	if h.total == 0 {
		return nil
	}
	var out []model.Slot
	for s, cell := range h.cells {
		if cell.Count == h.total {
			out = append(out, s)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Before(out[j]) })
	return out
}
