package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"flashdeck/internal/deck"
	"flashdeck/internal/store/migrations"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteStore keeps one row per deck. The deck itself is stored as a JSON
// document in body; owner_id and parent_id are lifted into indexed columns
// for owner scoping and child counts.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

var _ deck.Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens the database at path, applies pending migrations and
// returns the store. path can be a file path or ":memory:".
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := OpenConnection(path)
	if err != nil {
		return nil, err
	}
	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrating deck schema: %w", err)
	}
	return &SQLiteStore{db: db, path: path}, nil
}

// NewSQLiteStoreFromDB wraps an existing, already migrated connection.
func NewSQLiteStoreFromDB(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// OpenConnection opens and configures a SQLite connection.
func OpenConnection(path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// Each connection to ":memory:" is a separate database.
	if path == ":memory:" {
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}
	return db, nil
}

func (s *SQLiteStore) GetAll(ctx context.Context, ownerID string) ([]*deck.Deck, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT body FROM decks WHERE owner_id = ? ORDER BY created_at, id`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("querying decks: %w", err)
	}
	defer rows.Close()

	decks := make([]*deck.Deck, 0)
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("scanning deck: %w", err)
		}
		d, err := decodeDeck([]byte(body))
		if err != nil {
			return nil, err
		}
		decks = append(decks, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating decks: %w", err)
	}
	return decks, nil
}

func (s *SQLiteStore) GetByID(ctx context.Context, id string) (*deck.Deck, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM decks WHERE id = ?`, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, deck.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("getting deck %s: %w", id, err)
	}
	return decodeDeck([]byte(body))
}

func (s *SQLiteStore) CountByParent(ctx context.Context, ownerID, parentID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM decks WHERE owner_id = ? AND parent_id = ?`, ownerID, parentID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("counting decks: %w", err)
	}
	return n, nil
}

func (s *SQLiteStore) Save(ctx context.Context, d *deck.Deck) error {
	return s.SaveBatch(ctx, []*deck.Deck{d})
}

func (s *SQLiteStore) SaveBatch(ctx context.Context, decks []*deck.Deck) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	for _, d := range decks {
		body, err := json.Marshal(d)
		if err != nil {
			return fmt.Errorf("encoding deck %s: %w", d.ID, err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO decks (id, owner_id, parent_id, body, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				owner_id = excluded.owner_id,
				parent_id = excluded.parent_id,
				body = excluded.body,
				updated_at = excluded.updated_at`,
			d.ID, d.OwnerID, d.ParentID, string(body), d.CreatedAt, d.UpdatedAt)
		if err != nil {
			return fmt.Errorf("upserting deck %s: %w", d.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM decks WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting deck %s: %w", id, err)
	}
	return nil
}

func (s *SQLiteStore) DeleteBatch(ctx context.Context, ids []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `DELETE FROM decks WHERE id = ?`)
	if err != nil {
		return fmt.Errorf("preparing delete: %w", err)
	}
	defer stmt.Close()

	for _, id := range ids {
		if _, err := stmt.ExecContext(ctx, id); err != nil {
			return fmt.Errorf("deleting deck %s: %w", id, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}

// DB exposes the underlying connection for migration checks.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func decodeDeck(body []byte) (*deck.Deck, error) {
	var d deck.Deck
	if err := json.Unmarshal(body, &d); err != nil {
		return nil, fmt.Errorf("decoding deck: %w", err)
	}
	if d.Cards == nil {
		d.Cards = []deck.Card{}
	}
	return &d, nil
}
