package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"

	"github.com/Joseda-hg/todolist/internal/model"
)

// Backend keeps the task list in a SQLite file, one row per task keyed by
// its position. The connection is opened on first use so a damaged file
// surfaces through Load rather than at startup.
type Backend struct {
	path string
	db   *sql.DB
}

func NewBackend(path string) *Backend {
	return &Backend{path: path}
}

func (b *Backend) Path() string {
	return b.path
}

func (b *Backend) Load(ctx context.Context) ([]model.Task, error) {
	if _, err := os.Stat(b.path); err != nil {
		return nil, err
	}
	conn, err := b.conn()
	if err != nil {
		return nil, err
	}

	rows, err := conn.QueryContext(ctx, "SELECT task, completed FROM tasks ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := []model.Task{}
	for rows.Next() {
		var task model.Task
		if err := rows.Scan(&task.Text, &task.Completed); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// Save replaces every stored row with tasks in a single transaction.
func (b *Backend) Save(ctx context.Context, tasks []model.Task) error {
	conn, err := b.conn()
	if err != nil {
		return err
	}

	tx, err := conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM tasks"); err != nil {
		return fmt.Errorf("clear tasks: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, "INSERT INTO tasks (position, task, completed) VALUES (?, ?, ?)")
	if err != nil {
		return fmt.Errorf("prepare insert: %w", err)
	}
	defer stmt.Close()

	for i, task := range tasks {
		if _, err := stmt.ExecContext(ctx, i, task.Text, task.Completed); err != nil {
			return fmt.Errorf("insert task %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit save: %w", err)
	}
	return nil
}

func (b *Backend) Close() error {
	if b.db == nil {
		return nil
	}
	err := b.db.Close()
	b.db = nil
	return err
}

func (b *Backend) conn() (*sql.DB, error) {
	if b.db != nil {
		return b.db, nil
	}
	db, err := Open(b.path)
	if err != nil {
		return nil, err
	}
	b.db = db
	return db, nil
}
