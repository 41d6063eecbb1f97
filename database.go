package main

import (
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	_ "modernc.org/sqlite"
)

// DB wraps the SQLite database connection
type DB struct {
	conn *sql.DB
}

// PlayerRow represents an account record in the database
type PlayerRow struct {
	ID        int64
	Username  string
	PassHash  string
	CreatedAt time.Time
}

// StatsRow represents an account's lifetime run stats
type StatsRow struct {
	PlayerID  int64
	Runs      int
	Kills     int
	BestLevel int
	BestTime  float64 // seconds survived in the longest run
	Playtime  float64 // seconds
}

// RunRecord is one finished run of a session
type RunRecord struct {
	SessionID string
	Outcome   string
	Duration  float64
	Level     int
	Players   int
	Kills     int
	Results   []RunResult
}

// RunResult is one account's share of a run
type RunResult struct {
	AccountID int64
	Kills     int
	Coins     int
}

// OpenDB opens (or creates) the SQLite database
func OpenDB(path string) (*DB, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", path, err)
	}

	// WAL lets the analytics writer and request handlers overlap
	if _, err := conn.Exec("PRAGMA journal_mode=WAL"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable WAL: %w", err)
	}
	if _, err := conn.Exec("PRAGMA foreign_keys=ON"); err != nil {
		conn.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}

	db := &DB{conn: conn}
	if err := db.migrate(); err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate creates tables if they don't exist
func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS players (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		username TEXT NOT NULL UNIQUE,
		pass_hash TEXT NOT NULL DEFAULT '',
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS stats (
		player_id INTEGER PRIMARY KEY REFERENCES players(id),
		runs INTEGER NOT NULL DEFAULT 0,
		kills INTEGER NOT NULL DEFAULT 0,
		best_level INTEGER NOT NULL DEFAULT 0,
		best_time REAL NOT NULL DEFAULT 0,
		playtime REAL NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS wallets (
		player_id INTEGER PRIMARY KEY REFERENCES players(id),
		coins INTEGER NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS runs (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL DEFAULT '',
		outcome TEXT NOT NULL DEFAULT '',
		duration REAL NOT NULL DEFAULT 0,
		level INTEGER NOT NULL DEFAULT 1,
		players INTEGER NOT NULL DEFAULT 0,
		kills INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS settings (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL DEFAULT ''
	);

	CREATE TABLE IF NOT EXISTS analytics_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		event_type TEXT NOT NULL,
		player_id INTEGER,
		session_id TEXT,
		data TEXT,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_players_username ON players(username);
	CREATE INDEX IF NOT EXISTS idx_events_type_time ON analytics_events(event_type, created_at);
	`
	if _, err := db.conn.Exec(schema); err != nil {
		log.Printf("DB migration error: %v", err)
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// CreatePlayer creates a new account with empty stats and wallet
func (db *DB) CreatePlayer(username, passHash string) (int64, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.Exec("INSERT INTO players (username, pass_hash) VALUES (?, ?)", username, passHash)
	if err != nil {
		return 0, fmt.Errorf("insert player: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	if _, err := tx.Exec("INSERT INTO stats (player_id) VALUES (?)", id); err != nil {
		return 0, fmt.Errorf("insert stats: %w", err)
	}
	if _, err := tx.Exec("INSERT INTO wallets (player_id) VALUES (?)", id); err != nil {
		return 0, fmt.Errorf("insert wallet: %w", err)
	}
	return id, tx.Commit()
}

// GetPlayerByUsername returns an account by username, nil if none
func (db *DB) GetPlayerByUsername(username string) (*PlayerRow, error) {
	row := db.conn.QueryRow(
		"SELECT id, username, pass_hash, created_at FROM players WHERE username = ?",
		username,
	)
	p := &PlayerRow{}
	err := row.Scan(&p.ID, &p.Username, &p.PassHash, &p.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return p, err
}

// UsernameExists checks if a username is taken
func (db *DB) UsernameExists(username string) (bool, error) {
	var count int
	err := db.conn.QueryRow("SELECT COUNT(*) FROM players WHERE username = ?", username).Scan(&count)
	return count > 0, err
}

// GetStats returns an account's stats, nil if none
func (db *DB) GetStats(playerID int64) (*StatsRow, error) {
	row := db.conn.QueryRow(
		"SELECT player_id, runs, kills, best_level, best_time, playtime FROM stats WHERE player_id = ?",
		playerID,
	)
	s := &StatsRow{}
	err := row.Scan(&s.PlayerID, &s.Runs, &s.Kills, &s.BestLevel, &s.BestTime, &s.Playtime)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	return s, err
}

// RecordRun stores a finished run and folds it into each account's stats
func (db *DB) RecordRun(run RunRecord) (int64, error) {
	tx, err := db.conn.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		"INSERT INTO runs (session_id, outcome, duration, level, players, kills) VALUES (?, ?, ?, ?, ?, ?)",
		run.SessionID, run.Outcome, run.Duration, run.Level, run.Players, run.Kills,
	)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for _, r := range run.Results {
		if r.AccountID <= 0 {
			continue
		}
		_, err := tx.Exec(`
			UPDATE stats SET
				runs = runs + 1,
				kills = kills + ?,
				best_level = MAX(best_level, ?),
				best_time = MAX(best_time, ?),
				playtime = playtime + ?
			WHERE player_id = ?`,
			r.Kills, run.Level, run.Duration, run.Duration, r.AccountID,
		)
		if err != nil {
			return 0, fmt.Errorf("update stats for %d: %w", r.AccountID, err)
		}
	}
	return id, tx.Commit()
}

// Credit adds coins to an account's wallet and returns the new balance
func (db *DB) Credit(accountID int64, amount int) (int, error) {
	if amount < 0 {
		return 0, fmt.Errorf("credit: negative amount %d", amount)
	}
	_, err := db.conn.Exec(`
		INSERT INTO wallets (player_id, coins) VALUES (?, ?)
		ON CONFLICT(player_id) DO UPDATE SET coins = coins + excluded.coins`,
		accountID, amount,
	)
	if err != nil {
		return 0, fmt.Errorf("credit wallet %d: %w", accountID, err)
	}
	return db.Balance(accountID)
}

// Balance returns an account's coins, 0 without a wallet
func (db *DB) Balance(accountID int64) (int, error) {
	var coins int
	err := db.conn.QueryRow("SELECT coins FROM wallets WHERE player_id = ?", accountID).Scan(&coins)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	return coins, err
}

// LeaderboardEntry represents one row in the leaderboard
type LeaderboardEntry struct {
	Rank      int     `json:"rank"`
	Username  string  `json:"username"`
	Runs      int     `json:"runs"`
	Kills     int     `json:"kills"`
	BestLevel int     `json:"best_level"`
	BestTime  float64 `json:"best_time"`
}

// GetLeaderboard returns top accounts sorted by the given field
func (db *DB) GetLeaderboard(orderBy string, limit int) ([]LeaderboardEntry, error) {
	// Whitelist valid order columns
	validCols := map[string]string{
		"kills": "s.kills", "level": "s.best_level", "time": "s.best_time", "runs": "s.runs",
	}
	col, ok := validCols[orderBy]
	if !ok {
		col = "s.best_time"
	}

	query := `SELECT p.username, s.runs, s.kills, s.best_level, s.best_time
		FROM stats s JOIN players p ON p.id = s.player_id
		ORDER BY ` + col + ` DESC LIMIT ?`

	rows, err := db.conn.Query(query, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []LeaderboardEntry
	rank := 1
	for rows.Next() {
		var e LeaderboardEntry
		if err := rows.Scan(&e.Username, &e.Runs, &e.Kills, &e.BestLevel, &e.BestTime); err != nil {
			return nil, err
		}
		e.Rank = rank
		rank++
		result = append(result, e)
	}
	return result, rows.Err()
}

// GetSetting returns a stored setting, "" if missing
func (db *DB) GetSetting(key string) string {
	var v string
	if err := db.conn.QueryRow("SELECT value FROM settings WHERE key = ?", key).Scan(&v); err != nil {
		return ""
	}
	return v
}

// SetSetting stores a setting, replacing any previous value
func (db *DB) SetSetting(key, value string) error {
	_, err := db.conn.Exec(
		"INSERT INTO settings (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value",
		key, value,
	)
	return err
}
