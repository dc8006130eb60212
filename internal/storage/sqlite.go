package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
	"github.com/svipsc/ranking/internal/models"
	"github.com/svipsc/ranking/internal/rankings"
)

// Store is a read-only SQLite mirror of published ranking files.
// Each import creates a new snapshot; reads always use the newest one.
type Store struct {
	db *sql.DB
}

// Snapshot describes one imported set of ranking files
type Snapshot struct {
	ID        string
	CreatedAt time.Time
	Metadata  *models.Metadata
}

// New creates a new Store with SQLite
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// Close closes the database connection
func (s *Store) Close() error {
	return s.db.Close()
}

// migrate runs database migrations
func (s *Store) migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS snapshots (
			id TEXT PRIMARY KEY,
			created_at DATETIME NOT NULL,
			last_updated TEXT,
			update_date TEXT,
			update_time TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS snapshot_divisions (
			snapshot_id TEXT NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
			division TEXT NOT NULL,
			player_count INTEGER NOT NULL,
			PRIMARY KEY (snapshot_id, division)
		)`,
		`CREATE TABLE IF NOT EXISTS ranking_entries (
			snapshot_id TEXT NOT NULL REFERENCES snapshots(id) ON DELETE CASCADE,
			division TEXT NOT NULL,
			position INTEGER NOT NULL,
			rank INTEGER NOT NULL,
			first_name TEXT NOT NULL,
			last_name TEXT NOT NULL,
			alias TEXT,
			region TEXT NOT NULL,
			conservative_rating REAL NOT NULL,
			percentage_of_best REAL NOT NULL,
			matches_played INTEGER NOT NULL,
			mu REAL NOT NULL,
			sigma REAL NOT NULL,
			PRIMARY KEY (snapshot_id, division, position)
		)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_created ON snapshots(created_at)`,
	}

	for _, m := range migrations {
		if _, err := s.db.Exec(m); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}

	return nil
}

// --- Snapshots ---

// ImportSnapshot stores a full set of division datasets in one transaction
// and returns the new snapshot id
func (s *Store) ImportSnapshot(ctx context.Context, datasets map[string][]models.PlayerRankingEntry, meta *models.Metadata) (string, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	id := uuid.New().String()
	var lastUpdated, updateDate, updateTime sql.NullString
	if meta != nil {
		lastUpdated = sql.NullString{String: meta.LastUpdated, Valid: true}
		updateDate = sql.NullString{String: meta.UpdateDate, Valid: true}
		updateTime = sql.NullString{String: meta.UpdateTime, Valid: true}
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO snapshots (id, created_at, last_updated, update_date, update_time)
		VALUES (?, ?, ?, ?, ?)
	`, id, time.Now().UTC(), lastUpdated, updateDate, updateTime)
	if err != nil {
		return "", fmt.Errorf("failed to create snapshot: %w", err)
	}

	divStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO snapshot_divisions (snapshot_id, division, player_count) VALUES (?, ?, ?)
	`)
	if err != nil {
		return "", err
	}
	defer divStmt.Close()

	entryStmt, err := tx.PrepareContext(ctx, `
		INSERT INTO ranking_entries (snapshot_id, division, position, rank, first_name, last_name,
			alias, region, conservative_rating, percentage_of_best, matches_played, mu, sigma)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return "", err
	}
	defer entryStmt.Close()

	for division, entries := range datasets {
		if _, err := divStmt.ExecContext(ctx, id, division, len(entries)); err != nil {
			return "", fmt.Errorf("failed to store division %s: %w", division, err)
		}
		for i, e := range entries {
			_, err := entryStmt.ExecContext(ctx, id, division, i, e.Rank, e.FirstName, e.LastName,
				e.Alias, e.Region, e.ConservativeRating, e.PercentageOfBest, e.MatchesPlayed, e.Mu, e.Sigma)
			if err != nil {
				return "", fmt.Errorf("failed to store %s entry %d: %w", division, i, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return id, nil
}

// LatestSnapshot returns the newest snapshot, or nil if nothing was imported
func (s *Store) LatestSnapshot(ctx context.Context) (*Snapshot, error) {
	var snap Snapshot
	var lastUpdated, updateDate, updateTime sql.NullString
	err := s.db.QueryRowContext(ctx, `
		SELECT id, created_at, last_updated, update_date, update_time
		FROM snapshots ORDER BY created_at DESC, rowid DESC LIMIT 1
	`).Scan(&snap.ID, &snap.CreatedAt, &lastUpdated, &updateDate, &updateTime)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if lastUpdated.Valid || updateDate.Valid {
		snap.Metadata = &models.Metadata{
			LastUpdated: lastUpdated.String,
			UpdateDate:  updateDate.String,
			UpdateTime:  updateTime.String,
		}
	}
	return &snap, nil
}

// PruneSnapshots deletes all but the newest keep snapshots
func (s *Store) PruneSnapshots(ctx context.Context, keep int) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
		DELETE FROM snapshots WHERE id NOT IN (
			SELECT id FROM snapshots ORDER BY created_at DESC, rowid DESC LIMIT ?
		)
	`, keep)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// --- Rankings ---

// Load returns a division's entries from the newest snapshot, in rank order.
// It implements rankings.Source.
func (s *Store) Load(ctx context.Context, division string) ([]models.PlayerRankingEntry, error) {
	snap, err := s.LatestSnapshot(ctx)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, fmt.Errorf("no snapshot imported: %w", rankings.ErrNotFound)
	}

	var count int
	err = s.db.QueryRowContext(ctx, `
		SELECT player_count FROM snapshot_divisions WHERE snapshot_id = ? AND division = ?
	`, snap.ID, division).Scan(&count)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("division %q: %w", division, rankings.ErrNotFound)
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT rank, first_name, last_name, alias, region, conservative_rating,
			percentage_of_best, matches_played, mu, sigma
		FROM ranking_entries WHERE snapshot_id = ? AND division = ? ORDER BY position
	`, snap.ID, division)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	entries := make([]models.PlayerRankingEntry, 0, count)
	for rows.Next() {
		var e models.PlayerRankingEntry
		var alias sql.NullString
		err := rows.Scan(&e.Rank, &e.FirstName, &e.LastName, &alias, &e.Region,
			&e.ConservativeRating, &e.PercentageOfBest, &e.MatchesPlayed, &e.Mu, &e.Sigma)
		if err != nil {
			return nil, err
		}
		e.Alias = alias.String
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// Metadata implements rankings.MetadataSource
func (s *Store) Metadata(ctx context.Context) (*models.Metadata, error) {
	snap, err := s.LatestSnapshot(ctx)
	if err != nil || snap == nil {
		return nil, err
	}
	return snap.Metadata, nil
}

// Divisions returns the division keys of the newest snapshot, sorted
func (s *Store) Divisions(ctx context.Context) ([]string, error) {
	counts, err := s.Counts(ctx)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Counts returns the player count per division of the newest snapshot
func (s *Store) Counts(ctx context.Context) (map[string]int, error) {
	counts := make(map[string]int)
	snap, err := s.LatestSnapshot(ctx)
	if err != nil || snap == nil {
		return counts, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT division, player_count FROM snapshot_divisions WHERE snapshot_id = ?
	`, snap.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var division string
		var n int
		if err := rows.Scan(&division, &n); err != nil {
			return nil, err
		}
		counts[division] = n
	}
	return counts, rows.Err()
}
