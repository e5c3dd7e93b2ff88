package infra

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	// Ensure sqlcipher driver is registered.
	_ "github.com/mutecomm/go-sqlcipher/v4"

	"github.com/eliteGoblin/focusd/tracklog/internal/domain"
)

const archiveDBName = "timeline.db"

// IntervalArchive implements domain.IntervalStore using a SQLCipher
// encrypted SQLite database.
type IntervalArchive struct {
	db     *sql.DB
	dbPath string
}

// NewIntervalArchive opens (or creates) the encrypted archive in dataDir.
// The key is handed to SQLCipher as a raw key via PRAGMA key.
func NewIntervalArchive(dataDir string, key []byte) (*IntervalArchive, error) {
	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create archive directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, archiveDBName)
	dsn := fmt.Sprintf("%s?_pragma_key=%s&_pragma_cipher_page_size=4096", dbPath, rawKeyPragma(key))
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive: %w", err)
	}

	// A wrong key only surfaces on first access.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to archive: %w", err)
	}

	a := &IntervalArchive{db: db, dbPath: dbPath}
	if err := a.createTables(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create tables: %w", err)
	}
	return a, nil
}

func (a *IntervalArchive) createTables() error {
	schema := `
	CREATE TABLE IF NOT EXISTS intervals (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		source TEXT NOT NULL,
		seq INTEGER NOT NULL,
		domain TEXT NOT NULL,
		label TEXT,
		start_at INTEGER NOT NULL,
		end_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS intervals_source ON intervals (source, seq);

	CREATE TABLE IF NOT EXISTS sources (
		source TEXT PRIMARY KEY,
		archived_at INTEGER NOT NULL,
		count INTEGER NOT NULL
	);
	`
	_, err := a.db.Exec(schema)
	return err
}

// Save replaces the intervals stored for source.
func (a *IntervalArchive) Save(ctx context.Context, source string, intervals []domain.Interval) error {
	tx, err := a.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM intervals WHERE source = ?`, source); err != nil {
		return err
	}
	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO intervals (source, seq, domain, label, start_at, end_at)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, iv := range intervals {
		label := sql.NullString{}
		if iv.Label != nil {
			label = sql.NullString{String: *iv.Label, Valid: true}
		}
		if _, err := stmt.ExecContext(ctx, source, i, iv.Domain.String(), label,
			iv.Start.Unix(), iv.End.Unix()); err != nil {
			return fmt.Errorf("failed to insert interval %d: %w", i, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT OR REPLACE INTO sources (source, archived_at, count) VALUES (?, ?, ?)`,
		source, time.Now().Unix(), len(intervals)); err != nil {
		return err
	}
	return tx.Commit()
}

// Load returns the intervals stored for source in insertion order.
func (a *IntervalArchive) Load(ctx context.Context, source string) ([]domain.Interval, error) {
	rows, err := a.db.QueryContext(ctx, `
		SELECT domain, label, start_at, end_at FROM intervals
		WHERE source = ? ORDER BY seq`, source)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Interval
	for rows.Next() {
		var (
			kind       string
			label      sql.NullString
			start, end int64
		)
		if err := rows.Scan(&kind, &label, &start, &end); err != nil {
			return nil, err
		}
		iv := domain.Interval{
			Domain: domain.ParseKind(kind),
			Start:  time.Unix(start, 0).UTC(),
			End:    time.Unix(end, 0).UTC(),
		}
		if label.Valid {
			iv.Label = domain.Label(label.String)
		}
		out = append(out, iv)
	}
	return out, rows.Err()
}

// Sources lists archived sources.
func (a *IntervalArchive) Sources(ctx context.Context) ([]string, error) {
	rows, err := a.db.QueryContext(ctx, `SELECT source FROM sources ORDER BY source`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var s string
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// Path returns the database file path.
func (a *IntervalArchive) Path() string {
	return a.dbPath
}

// Close releases the database connection.
func (a *IntervalArchive) Close() error {
	if a.db != nil {
		return a.db.Close()
	}
	return nil
}

// OpenArchive opens the archive in dir using the key stored there,
// generating a key on first use.
func OpenArchive(dir string) (*IntervalArchive, error) {
	key, err := EnsureKey(NewFileKeyProvider(dir))
	if err != nil {
		return nil, err
	}
	return NewIntervalArchive(dir, key)
}

// Ensure IntervalArchive implements domain.IntervalStore.
var _ domain.IntervalStore = (*IntervalArchive)(nil)
