// Package session persists the CLI's task collection between invocations.
package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"

	"taskgrid/internal/service"
)

// Store keeps one session collection in a SQLite file.
type Store struct {
	db *sql.DB
}

// Open opens (creating if needed) the session database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, err
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate session db: %w", err)
	}
	return s, nil
}

func (s *Store) migrate() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS session_tasks (
			position INTEGER PRIMARY KEY,
			id TEXT NOT NULL,
			state TEXT NOT NULL,
			data TEXT NOT NULL
		);
	`)
	return err
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Load returns the stored tasks in collection order.
func (s *Store) Load(ctx context.Context) ([]service.Task, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, state, data FROM session_tasks ORDER BY position ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tasks []service.Task
	for rows.Next() {
		var id, state, data string
		if err := rows.Scan(&id, &state, &data); err != nil {
			return nil, err
		}

		var t service.Task
		if err := json.Unmarshal([]byte(data), &t); err != nil {
			return nil, fmt.Errorf("corrupt session row %s: %w", id, err)
		}
		t.ID = id
		if t.State, err = service.ParseState(state); err != nil {
			return nil, fmt.Errorf("corrupt session row %s: %w", id, err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// Save replaces the stored session with tasks.
func (s *Store) Save(ctx context.Context, tasks []service.Task) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM session_tasks`); err != nil {
		return err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO session_tasks (position, id, state, data) VALUES (?, ?, ?, ?)
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, t := range tasks {
		data, err := json.Marshal(t)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, i, t.ID, t.State.String(), string(data)); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Clear discards the stored session.
func (s *Store) Clear(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM session_tasks`)
	return err
}
