// Package schedule implements the delimited schedule file format used to
// exchange availability between participants and the organizer.
//
// The format is one row per selected slot:
//
//	username	day	day_name	hour
//	John	0	Monday	10
//	John	0	Monday	11
//
// Rows are sorted by (day, hour) so that exporting a loaded file reproduces
// it byte-for-byte. Files ending in ".tsv" are tab-separated; anything else
// is treated as comma-separated.
package schedule

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	appLog "groupsched/internal/log"
	"groupsched/internal/model"
)

// Header columns, in export order. Loading only requires "day" and "hour";
// "username" is optional and falls back to the file basename.
var header = []string{"username", "day", "day_name", "hour"}

// DelimiterForPath returns the cell delimiter implied by the file extension.
func DelimiterForPath(path string) rune {
	if strings.EqualFold(filepath.Ext(path), ".tsv") {
		return '\t'
	}
	return ','
}

// Export writes the schedule to w using the given delimiter.
// An empty grid or blank participant name is an error.
func Export(w io.Writer, sched model.ParticipantSchedule, delim rune) error {
	name := strings.TrimSpace(sched.Name)
	if name == "" {
		return errors.New("participant name is empty")
	}
	if sched.Grid == nil || sched.Grid.Count() == 0 {
		return errors.New("schedule is empty")
	}

	cw := csv.NewWriter(w)
	cw.Comma = delim

	if err := cw.Write(header); err != nil {
		return err
	}
	for _, s := range sched.Grid.Slots() {
		row := []string{
			name,
			strconv.Itoa(int(s.Day)),
			s.Day.String(),
			strconv.Itoa(s.Hour),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// ExportFile writes the schedule to path, picking the delimiter from the
// file extension.
func ExportFile(path string, sched model.ParticipantSchedule) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Export(f, sched, DelimiterForPath(path)); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// Read parses one schedule from r. fallbackName is used when the file has no
// username column (typically the file basename). Slots outside the window
// are a dimension mismatch and fail the whole file.
func Read(r io.Reader, delim rune, fallbackName string, window model.Window) (model.ParticipantSchedule, error) {
	var out model.ParticipantSchedule

	cr := csv.NewReader(r)
	cr.Comma = delim

	head, err := cr.Read()
	if err != nil {
		if err == io.EOF {
			return out, errors.New("file is empty")
		}
		return out, fmt.Errorf("read header: %w", err)
	}

	cols := make(map[string]int, len(head))
	for i, h := range head {
		cols[strings.ToLower(strings.TrimSpace(h))] = i
	}
	dayIdx, ok := cols["day"]
	if !ok {
		return out, errors.New("header has no \"day\" column")
	}
	hourIdx, ok := cols["hour"]
	if !ok {
		return out, errors.New("header has no \"hour\" column")
	}
	nameIdx, hasName := cols["username"]

	grid := model.NewGrid(window)
	name := ""
	rowNum := 1

	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		rowNum++
		if err != nil {
			// Includes rows with a mismatched column count.
			return out, fmt.Errorf("row %d: %w", rowNum, err)
		}

		if name == "" && hasName {
			name = strings.TrimSpace(row[nameIdx])
		}

		day, err := strconv.Atoi(strings.TrimSpace(row[dayIdx]))
		if err != nil {
			return out, fmt.Errorf("row %d: bad day value %q", rowNum, row[dayIdx])
		}
		hour, err := strconv.Atoi(strings.TrimSpace(row[hourIdx]))
		if err != nil {
			return out, fmt.Errorf("row %d: bad hour value %q", rowNum, row[hourIdx])
		}

		if err := grid.Set(model.Slot{Day: model.Day(day), Hour: hour}); err != nil {
			return out, fmt.Errorf("row %d: %w", rowNum, err)
		}
	}

	if grid.Count() == 0 {
		return out, errors.New("schedule has no slots")
	}
	if name == "" {
		name = fallbackName
	}
	if name == "" {
		return out, errors.New("schedule has no participant name")
	}

	out.Name = name
	out.Grid = grid
	return out, nil
}

// Load reads one schedule file. The participant name falls back to the file
// basename (without extension) when the username column is absent or blank.
func Load(path string, window model.Window) (model.ParticipantSchedule, error) {
	f, err := os.Open(path)
	if err != nil {
		return model.ParticipantSchedule{}, err
	}
	defer f.Close()

	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	sched, err := Read(f, DelimiterForPath(path), base, window)
	if err != nil {
		return model.ParticipantSchedule{}, fmt.Errorf("%s: %w", path, err)
	}
	return sched, nil
}

// LoadAll loads every given file and returns the successfully parsed subset
// plus one error per failed file. Duplicate participant names across files
// are disambiguated with "_1", "_2"... suffixes so no schedule silently
// replaces another.
func LoadAll(paths []string, window model.Window) ([]model.ParticipantSchedule, []error) {
	scheds := make([]model.ParticipantSchedule, 0, len(paths))
	errs := make([]error, 0)
	taken := make(map[string]bool)

	for _, path := range paths {
		sched, err := Load(path, window)
		if err != nil {
			errs = append(errs, err)
			appLog.Error("schedule load failed", err, "path", path)
			continue
		}
		sched.Name = uniqueName(sched.Name, taken)
		taken[sched.Name] = true
		scheds = append(scheds, sched)
		appLog.Info("schedule loaded", "path", path, "participant", sched.Name, "slots", sched.Grid.Count())
	}

	return scheds, errs
}

// uniqueName appends _1, _2, ... until the name is unused.
func uniqueName(name string, taken map[string]bool) string {
	if !taken[name] {
		return name
	}
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s_%d", name, i)
		if !taken[candidate] {
			return candidate
		}
	}
}
