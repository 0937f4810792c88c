// Package sqlite stores conversations in SQLite through the pure-Go
// modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	// Register the modernc sqlite driver under the name "sqlite"
	_ "modernc.org/sqlite"

	"smallchain/internal/domain"
	"smallchain/internal/history"
)

const schema = `
CREATE TABLE IF NOT EXISTS conversation_turn (
	conversation_id TEXT    NOT NULL,
	seq             INTEGER NOT NULL,
	at              INTEGER NOT NULL,
	messages        TEXT    NOT NULL,
	meta_id         TEXT,
	meta_created    INTEGER,
	meta_model      TEXT,
	PRIMARY KEY (conversation_id, seq)
)`

type Store struct {
	db *sql.DB
}

// Open opens (or creates) the database at path and applies the schema. Use
// ":memory:" in tests.
func Open(path string) (*Store, error) {
	dsn := path + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open %q: %w", path, err)
	}
	if path == ":memory:" {
		// Every connection would get its own empty in-memory database.
		db.SetMaxOpenConns(1)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite: migrate %q: %w", path, err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error { return s.db.Close() }

// Save replaces the stored turns of c in one transaction.
func (s *Store) Save(ctx context.Context, c history.Conversation) error {
	if c.ID == "" {
		return fmt.Errorf("sqlite: empty conversation id")
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback() //nolint:errcheck
	if _, err := tx.ExecContext(ctx, `DELETE FROM conversation_turn WHERE conversation_id = ?`, c.ID); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `INSERT INTO conversation_turn
		(conversation_id, seq, at, messages, meta_id, meta_created, meta_model)
		VALUES (?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()
	for i, t := range c.Turns {
		msgs, err := json.Marshal(t.Messages)
		if err != nil {
			return err
		}
		var metaID, metaModel sql.NullString
		var metaCreated sql.NullInt64
		if t.Metadata != nil {
			metaID = sql.NullString{String: t.Metadata.ID, Valid: true}
			metaModel = sql.NullString{String: t.Metadata.Model, Valid: true}
			metaCreated = sql.NullInt64{Int64: t.Metadata.Created, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, c.ID, i, t.At.UnixNano(), string(msgs), metaID, metaCreated, metaModel); err != nil {
			return fmt.Errorf("sqlite: insert turn %d: %w", i, err)
		}
	}
	return tx.Commit()
}

func (s *Store) Load(ctx context.Context, id string) (history.Conversation, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT at, messages, meta_id, meta_created, meta_model
		FROM conversation_turn WHERE conversation_id = ? ORDER BY seq`, id)
	if err != nil {
		return history.Conversation{}, err
	}
	defer rows.Close()
	c := history.Conversation{ID: id}
	for rows.Next() {
		var (
			at          int64
			msgs        string
			metaID      sql.NullString
			metaCreated sql.NullInt64
			metaModel   sql.NullString
		)
		if err := rows.Scan(&at, &msgs, &metaID, &metaCreated, &metaModel); err != nil {
			return history.Conversation{}, err
		}
		t := history.Turn{At: time.Unix(0, at).UTC()}
		if err := json.Unmarshal([]byte(msgs), &t.Messages); err != nil {
			return history.Conversation{}, fmt.Errorf("sqlite: decode messages: %w", err)
		}
		if metaID.Valid {
			t.Metadata = &domain.Metadata{ID: metaID.String, Created: metaCreated.Int64, Model: metaModel.String}
		}
		c.Turns = append(c.Turns, t)
	}
	if err := rows.Err(); err != nil {
		return history.Conversation{}, err
	}
	if len(c.Turns) == 0 {
		return history.Conversation{}, fmt.Errorf("%w: %s", history.ErrNotFound, id)
	}
	return c, nil
}
