package db

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS scans (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    address TEXT NOT NULL,
    chain TEXT NOT NULL,
    token_score INTEGER NOT NULL,
    result TEXT NOT NULL,
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_scan_addr ON scans(address, created_at);
CREATE INDEX IF NOT EXISTS idx_scan_time ON scans(created_at);
`

// Store is the scan cache. Inserts are append-only; reads always return the
// latest row per address, so a refresh supersedes without deleting history.
type Store struct {
	db *sql.DB
}

func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Insert(result *ScanResult) error {
	blob, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal scan result: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO scans (address, chain, token_score, result, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		result.Evidence.Address, string(result.Evidence.Chain), result.Evidence.TokenScore,
		string(blob), result.CreatedAt)
	return err
}

// Latest returns the newest cached scan for an address, or nil when the
// address has never been scanned.
func (s *Store) Latest(address string) (*ScanResult, error) {
	var blob string
	err := s.db.QueryRow(
		"SELECT result FROM scans WHERE address = ? ORDER BY created_at DESC, id DESC LIMIT 1",
		address).Scan(&blob)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	var result ScanResult
	if err := json.Unmarshal([]byte(blob), &result); err != nil {
		return nil, fmt.Errorf("unmarshal scan result: %w", err)
	}
	return &result, nil
}

// Recent returns the latest scan per address, newest first.
func (s *Store) Recent(limit int) ([]*ScanResult, error) {
	rows, err := s.db.Query(`
		SELECT result FROM scans
		WHERE id IN (SELECT MAX(id) FROM scans GROUP BY address)
		ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []*ScanResult
	for rows.Next() {
		var blob string
		if err := rows.Scan(&blob); err != nil {
			return nil, err
		}
		var result ScanResult
		if err := json.Unmarshal([]byte(blob), &result); err != nil {
			continue
		}
		results = append(results, &result)
	}
	return results, rows.Err()
}

// RecentAddresses lists distinct addresses by most recent scan, for the
// periodic refresh job.
func (s *Store) RecentAddresses(limit int) ([]string, error) {
	rows, err := s.db.Query(`
		SELECT address FROM scans
		GROUP BY address ORDER BY MAX(created_at) DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var addrs []string
	for rows.Next() {
		var addr string
		if err := rows.Scan(&addr); err != nil {
			return nil, err
		}
		addrs = append(addrs, addr)
	}
	return addrs, rows.Err()
}

func (s *Store) GetStats() (*Stats, error) {
	stats := &Stats{}
	err := s.db.QueryRow(`
		SELECT COUNT(*), COUNT(DISTINCT address), COALESCE(AVG(token_score), 0)
		FROM scans`).Scan(&stats.TotalScans, &stats.UniqueAddresses, &stats.AvgTokenScore)
	if err != nil {
		return nil, err
	}
	return stats, nil
}

// PruneOlderThan drops superseded rows past the retention window, keeping at
// least the latest row per address.
func (s *Store) PruneOlderThan(cutoff time.Time) (int64, error) {
	res, err := s.db.Exec(`
		DELETE FROM scans
		WHERE created_at < ? AND id NOT IN (SELECT MAX(id) FROM scans GROUP BY address)`,
		cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
