// Package store persists the organizer's workspace: the set of loaded
// participant schedules, kept in a local SQLite database so load and
// aggregation can happen in separate CLI invocations.
package store

import (
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	_ "github.com/mattn/go-sqlite3"

	appLog "groupsched/internal/log"
	"groupsched/internal/model"
)

const schema = `CREATE TABLE IF NOT EXISTS schedules (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	participant TEXT NOT NULL,
	day INTEGER NOT NULL,
	hour INTEGER NOT NULL,
	UNIQUE(participant, day, hour)
)`

// Store wraps the workspace database.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) the workspace database at path, creating parent
// directories as needed.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("workspace path is empty")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Add stores one schedule and returns the name it was stored under. A name
// already present in the workspace gets a "_1", "_2"... suffix, mirroring
// how duplicate files are disambiguated at load time.
func (s *Store) Add(sched model.ParticipantSchedule) (string, error) {
	if sched.Grid == nil || sched.Grid.Count() == 0 {
		return "", errors.New("schedule is empty")
	}

	names, err := s.participantSet()
	if err != nil {
		return "", err
	}
	name := sched.Name
	for i := 1; names[name]; i++ {
		name = fmt.Sprintf("%s_%d", sched.Name, i)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return "", err
	}
	stmt, err := tx.Prepare("INSERT INTO schedules (participant, day, hour) VALUES (?, ?, ?)")
	if err != nil {
		tx.Rollback()
		return "", err
	}
	defer stmt.Close()

	for _, slot := range sched.Grid.Slots() {
		if _, err := stmt.Exec(name, int(slot.Day), slot.Hour); err != nil {
			tx.Rollback()
			return "", err
		}
	}
	if err := tx.Commit(); err != nil {
		return "", err
	}

	appLog.Info("schedule stored", "participant", name, "slots", sched.Grid.Count())
	return name, nil
}

// ParticipantInfo summarizes one stored schedule.
type ParticipantInfo struct {
	Name  string
	Slots int
}

// Participants lists stored schedules sorted by name.
func (s *Store) Participants() ([]ParticipantInfo, error) {
	rows, err := s.db.Query("SELECT participant, COUNT(*) FROM schedules GROUP BY participant ORDER BY participant")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ParticipantInfo
	for rows.Next() {
		var info ParticipantInfo
		if err := rows.Scan(&info.Name, &info.Slots); err != nil {
			return nil, err
		}
		out = append(out, info)
	}
	return out, rows.Err()
}

// Schedules reconstructs every stored schedule over the given window. Rows
// outside the window fail the whole read; the workspace should never hold
// them unless the window shrank after storing.
func (s *Store) Schedules(window model.Window) ([]model.ParticipantSchedule, error) {
	rows, err := s.db.Query("SELECT participant, day, hour FROM schedules ORDER BY participant, day, hour")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	grids := make(map[string]*model.Grid)
	for rows.Next() {
		var name string
		var day, hour int
		if err := rows.Scan(&name, &day, &hour); err != nil {
			return nil, err
		}
		grid, ok := grids[name]
		if !ok {
			grid = model.NewGrid(window)
			grids[name] = grid
		}
		if err := grid.Set(model.Slot{Day: model.Day(day), Hour: hour}); err != nil {
			return nil, fmt.Errorf("stored schedule %q: %w", name, err)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	names := make([]string, 0, len(grids))
	for name := range grids {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]model.ParticipantSchedule, 0, len(names))
	for _, name := range names {
		out = append(out, model.ParticipantSchedule{Name: name, Grid: grids[name]})
	}
	return out, nil
}

// Remove deletes one participant's schedule and reports whether it existed.
func (s *Store) Remove(name string) (bool, error) {
	res, err := s.db.Exec("DELETE FROM schedules WHERE participant = ?", name)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Clear deletes every stored schedule.
func (s *Store) Clear() error {
	_, err := s.db.Exec("DELETE FROM schedules")
	return err
}

// ReplaceAll atomically swaps the workspace contents for the given set, used
// by the serve-mode watch directory rescan. Duplicate names within one batch
// get numeric suffixes.
func (s *Store) ReplaceAll(scheds []model.ParticipantSchedule) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM schedules"); err != nil {
		tx.Rollback()
		return err
	}

	stmt, err := tx.Prepare("INSERT INTO schedules (participant, day, hour) VALUES (?, ?, ?)")
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	taken := make(map[string]bool)
	for _, sched := range scheds {
		if sched.Grid == nil || sched.Grid.Count() == 0 {
			continue
		}
		name := sched.Name
		for i := 1; taken[name]; i++ {
			name = fmt.Sprintf("%s_%d", sched.Name, i)
		}
		taken[name] = true

		for _, slot := range sched.Grid.Slots() {
			if _, err := stmt.Exec(name, int(slot.Day), slot.Hour); err != nil {
				tx.Rollback()
				return err
			}
		}
	}
	return tx.Commit()
}

func (s *Store) participantSet() (map[string]bool, error) {
	rows, err := s.db.Query("SELECT DISTINCT participant FROM schedules")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out[name] = true
	}
	return out, rows.Err()
}
