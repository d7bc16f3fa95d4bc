package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/hyperjump/glacierwatch/internal/config"
	"github.com/hyperjump/glacierwatch/internal/models"
)

// SQLiteStore implements Store using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens or creates a SQLite database at dbPath and initializes the schema.
// config.MemoryDatabase keeps everything in process memory.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath == "" {
		dbPath = config.MemoryDatabase
	}
	memory := dbPath == config.MemoryDatabase
	if !memory {
		if dir := filepath.Dir(dbPath); dir != "." {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if memory {
		// every connection to :memory: is a separate database
		db.SetMaxOpenConns(1)
	} else if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}

	if err := initSchema(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		aoi TEXT NOT NULL,
		last_velocity TEXT,
		last_climate TEXT,
		created_at TIMESTAMP NOT NULL
	);

	CREATE TABLE IF NOT EXISTS turns (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		question TEXT NOT NULL,
		answer TEXT NOT NULL,
		model TEXT,
		asked_at TIMESTAMP NOT NULL,
		FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE
	);

	CREATE INDEX IF NOT EXISTS idx_turns_session ON turns(session_id, seq);
	`
	_, err := db.Exec(schema)
	return err
}

// Create inserts a new session.
func (s *SQLiteStore) Create(ctx context.Context, sess *models.Session) error {
	aoiJSON, err := json.Marshal(sess.AOI)
	if err != nil {
		return fmt.Errorf("failed to marshal aoi: %w", err)
	}
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = time.Now()
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, aoi, created_at) VALUES (?, ?, ?)`,
		sess.ID, string(aoiJSON), sess.CreatedAt.UTC(),
	)
	return err
}

// Get returns a session with its turns.
func (s *SQLiteStore) Get(ctx context.Context, id string) (*models.Session, error) {
	sess, err := scanSession(s.db.QueryRowContext(ctx,
		`SELECT id, aoi, last_velocity, last_climate, created_at FROM sessions WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", models.ErrSessionNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	turns, err := s.turns(ctx, id)
	if err != nil {
		return nil, err
	}
	sess.Turns = turns
	return sess, nil
}

// List returns all sessions, newest first, without their turns.
func (s *SQLiteStore) List(ctx context.Context) ([]*models.Session, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, aoi, last_velocity, last_climate, created_at FROM sessions ORDER BY created_at DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*models.Session
	for rows.Next() {
		sess, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*models.Session, error) {
	var sess models.Session
	var aoiJSON string
	var velocityJSON, climateJSON sql.NullString
	if err := row.Scan(&sess.ID, &aoiJSON, &velocityJSON, &climateJSON, &sess.CreatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(aoiJSON), &sess.AOI); err != nil {
		return nil, fmt.Errorf("failed to unmarshal aoi: %w", err)
	}
	if velocityJSON.Valid && velocityJSON.String != "" {
		sess.LastVelocity = &models.VelocityField{}
		if err := json.Unmarshal([]byte(velocityJSON.String), sess.LastVelocity); err != nil {
			return nil, fmt.Errorf("failed to unmarshal velocity: %w", err)
		}
	}
	if climateJSON.Valid && climateJSON.String != "" {
		sess.LastClimate = &models.ClimateLayer{}
		if err := json.Unmarshal([]byte(climateJSON.String), sess.LastClimate); err != nil {
			return nil, fmt.Errorf("failed to unmarshal climate: %w", err)
		}
	}
	sess.Turns = []models.ConversationTurn{}
	return &sess, nil
}

// SaveVelocity replaces the session's last velocity result.
func (s *SQLiteStore) SaveVelocity(ctx context.Context, id string, v *models.VelocityField) error {
	return s.updateJSON(ctx, id, "last_velocity", v)
}

// SaveClimate replaces the session's last climate layer.
func (s *SQLiteStore) SaveClimate(ctx context.Context, id string, c *models.ClimateLayer) error {
	return s.updateJSON(ctx, id, "last_climate", c)
}

func (s *SQLiteStore) updateJSON(ctx context.Context, id, column string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", column, err)
	}
	result, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET `+column+` = ? WHERE id = ?`, string(data), id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: %s", models.ErrSessionNotFound, id)
	}
	return nil
}

// AppendTurn adds a turn at the end of the session's conversation.
func (s *SQLiteStore) AppendTurn(ctx context.Context, id string, turn models.ConversationTurn) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `SELECT 1 FROM sessions WHERE id = ?`, id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%w: %s", models.ErrSessionNotFound, id)
	}
	if err != nil {
		return err
	}
	if turn.AskedAt.IsZero() {
		turn.AskedAt = time.Now()
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO turns (session_id, question, answer, model, asked_at) VALUES (?, ?, ?, ?, ?)`,
		id, turn.Question, turn.Answer, turn.Model, turn.AskedAt.UTC(),
	); err != nil {
		return err
	}
	return tx.Commit()
}

// Turns returns the session's conversation in insertion order.
func (s *SQLiteStore) Turns(ctx context.Context, id string) ([]models.ConversationTurn, error) {
	var exists int
	err := s.db.QueryRowContext(ctx, `SELECT 1 FROM sessions WHERE id = ?`, id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", models.ErrSessionNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return s.turns(ctx, id)
}

func (s *SQLiteStore) turns(ctx context.Context, id string) ([]models.ConversationTurn, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT question, answer, model, asked_at FROM turns WHERE session_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	turns := []models.ConversationTurn{}
	for rows.Next() {
		var t models.ConversationTurn
		var model sql.NullString
		if err := rows.Scan(&t.Question, &t.Answer, &model, &t.AskedAt); err != nil {
			return nil, err
		}
		t.Model = model.String
		turns = append(turns, t)
	}
	return turns, rows.Err()
}

// Delete removes a session and its turns.
func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM turns WHERE session_id = ?`, id); err != nil {
		return err
	}
	result, err := tx.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := result.RowsAffected()
	if n == 0 {
		return fmt.Errorf("%w: %s", models.ErrSessionNotFound, id)
	}
	return tx.Commit()
}

// Count returns the number of sessions.
func (s *SQLiteStore) Count(ctx context.Context) (int64, error) {
	var count int64
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sessions`).Scan(&count)
	return count, err
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
