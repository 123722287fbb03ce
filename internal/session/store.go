// Package session persists the ordered instance set of an ingest run
// between the create phase and a later publish phase. Sessions live in a
// SQLite database guarded by a file lock so only one sprocket process
// writes at a time.
package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite"

	"sprocket/internal/config"
	"sprocket/internal/instance"
)

// Store manages session persistence backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
	lock *flock.Flock
}

// Session is one recorded ingest run.
type Session struct {
	ID            int64
	Project       string
	SourceKind    string
	SourcePath    string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	InstanceCount int
}

// Open initializes or connects to the session database, takes the writer
// lock, and applies migrations.
func Open(cfg *config.Config) (*Store, error) {
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	lock := flock.New(filepath.Join(cfg.Paths.SessionDir, "sessions.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire session lock: %w", err)
	}
	if !locked {
		return nil, fmt.Errorf("session store is locked by another sprocket process")
	}

	dbPath := filepath.Join(cfg.Paths.SessionDir, "sessions.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			_ = lock.Unlock()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath, lock: lock}
	if err := store.applyMigrations(context.Background()); err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return nil, err
	}
	return store, nil
}

// Close releases the database and the writer lock.
func (s *Store) Close() error {
	if s == nil {
		return nil
	}
	var err error
	if s.db != nil {
		err = s.db.Close()
	}
	if s.lock != nil {
		if unlockErr := s.lock.Unlock(); unlockErr != nil && err == nil {
			err = unlockErr
		}
	}
	return err
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// CreateSession records an ingest run and its instances in one
// transaction. Either the whole session lands or nothing does.
func (s *Store) CreateSession(ctx context.Context, project, sourceKind, sourcePath string, instances []*instance.Instance) (*Session, error) {
	timestamp := time.Now().UTC().Format(time.RFC3339Nano)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin session tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	res, err := tx.ExecContext(
		ctx,
		`INSERT INTO sessions (project, source_kind, source_path, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?)`,
		project, sourceKind, sourcePath, timestamp, timestamp,
	)
	if err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	sessionID, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	for position, inst := range instances {
		payload, err := json.Marshal(inst)
		if err != nil {
			return nil, fmt.Errorf("marshal instance %s: %w", inst.ProductName, err)
		}
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO instances (id, session_id, position, product_name, folder_path, payload_json)
             VALUES (?, ?, ?, ?, ?, ?)`,
			inst.ID, sessionID, position, inst.ProductName, inst.FolderPath, string(payload),
		); err != nil {
			return nil, fmt.Errorf("insert instance %s: %w", inst.ProductName, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit session: %w", err)
	}
	return s.GetSession(ctx, sessionID)
}

// GetSession fetches one session by id, or nil when absent.
func (s *Store) GetSession(ctx context.Context, id int64) (*Session, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT s.id, s.project, s.source_kind, s.source_path, s.created_at, s.updated_at,
                (SELECT COUNT(1) FROM instances i WHERE i.session_id = s.id)
         FROM sessions s WHERE s.id = ?`,
		id,
	)
	session, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return session, err
}

// ListSessions returns every session, newest first.
func (s *Store) ListSessions(ctx context.Context) ([]*Session, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT s.id, s.project, s.source_kind, s.source_path, s.created_at, s.updated_at,
                (SELECT COUNT(1) FROM instances i WHERE i.session_id = s.id)
         FROM sessions s ORDER BY s.id DESC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*Session
	for rows.Next() {
		session, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

// Instances loads a session's instances in emission order.
func (s *Store) Instances(ctx context.Context, sessionID int64) ([]*instance.Instance, error) {
	rows, err := s.db.QueryContext(
		ctx,
		`SELECT payload_json FROM instances WHERE session_id = ? ORDER BY position`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("query instances: %w", err)
	}
	defer rows.Close()

	var instances []*instance.Instance
	for rows.Next() {
		var payload string
		if err := rows.Scan(&payload); err != nil {
			return nil, fmt.Errorf("scan instance: %w", err)
		}
		var inst instance.Instance
		if err := json.Unmarshal([]byte(payload), &inst); err != nil {
			return nil, fmt.Errorf("unmarshal instance: %w", err)
		}
		instances = append(instances, &inst)
	}
	return instances, rows.Err()
}

// DeleteSession removes one session and its instances.
func (s *Store) DeleteSession(ctx context.Context, id int64) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete session %d: %w", id, err)
	}
	return nil
}

// Clear removes every session.
func (s *Store) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM sessions`); err != nil {
		return fmt.Errorf("clear sessions: %w", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*Session, error) {
	var session Session
	var created, updated string
	if err := row.Scan(&session.ID, &session.Project, &session.SourceKind, &session.SourcePath, &created, &updated, &session.InstanceCount); err != nil {
		return nil, err
	}
	var err error
	if session.CreatedAt, err = time.Parse(time.RFC3339Nano, created); err != nil {
		return nil, fmt.Errorf("parse created_at: %w", err)
	}
	if session.UpdatedAt, err = time.Parse(time.RFC3339Nano, updated); err != nil {
		return nil, fmt.Errorf("parse updated_at: %w", err)
	}
	return &session, nil
}
