package main

import (
	"database/sql"
	"encoding/json"
	"log"
	"sync"
	"time"
)

// Event types for analytics tracking
const (
	EvtSessionStart = "session_start"
	EvtSessionEnd   = "session_end"
	EvtPlayerJoin   = "player_join"
	EvtLevelUp      = "level_up"
	EvtRoundOpen    = "round_open"
	EvtRoundClose   = "round_close"
	EvtReroll       = "reroll"
	EvtUpgrade      = "upgrade"
	EvtRunEnd       = "run_end"
)

// AnalyticsEvent represents a single trackable event
type AnalyticsEvent struct {
	Type      string
	PlayerID  int64
	SessionID string
	Data      string // JSON metadata (optional)
	Timestamp time.Time
}

// Analytics handles event tracking with batched background writes.
// A nil *Analytics is valid and drops everything.
type Analytics struct {
	db     *DB
	events chan AnalyticsEvent
	stop   chan struct{}
	wg     sync.WaitGroup

	mu             sync.RWMutex
	activeSessions int
	livePlayers    int
}

// NewAnalytics creates and starts the analytics background writer
func NewAnalytics(db *DB) *Analytics {
	a := &Analytics{
		db:     db,
		events: make(chan AnalyticsEvent, 1024),
		stop:   make(chan struct{}),
	}
	a.wg.Add(1)
	go a.writer()
	return a
}

// Track enqueues an event for async persistence (non-blocking)
func (a *Analytics) Track(evtType string, playerID int64, sessionID string, data string) {
	if a == nil {
		return
	}
	select {
	case a.events <- AnalyticsEvent{
		Type:      evtType,
		PlayerID:  playerID,
		SessionID: sessionID,
		Data:      data,
		Timestamp: time.Now().UTC(),
	}:
	default:
		// channel full, drop rather than block the game loop
	}
}

// TrackJSON is Track with metadata marshaled from v
func (a *Analytics) TrackJSON(evtType string, playerID int64, sessionID string, v interface{}) {
	if a == nil {
		return
	}
	raw, err := json.Marshal(v)
	if err != nil {
		log.Printf("analytics: marshal %s: %v", evtType, err)
		return
	}
	a.Track(evtType, playerID, sessionID, string(raw))
}

// SetLive updates the live gauges
func (a *Analytics) SetLive(sessions, players int) {
	if a == nil {
		return
	}
	a.mu.Lock()
	a.activeSessions = sessions
	a.livePlayers = players
	a.mu.Unlock()
}

// GetLiveMetrics returns (active sessions, live players)
func (a *Analytics) GetLiveMetrics() (int, int) {
	if a == nil {
		return 0, 0
	}
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.activeSessions, a.livePlayers
}

// Stop gracefully shuts down the analytics writer
func (a *Analytics) Stop() {
	if a == nil {
		return
	}
	close(a.stop)
	a.wg.Wait()
}

// writer is the background goroutine that batches and writes events to DB
func (a *Analytics) writer() {
	defer a.wg.Done()

	batch := make([]AnalyticsEvent, 0, 64)
	ticker := time.NewTicker(5 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case evt := <-a.events:
			batch = append(batch, evt)
			if len(batch) >= 50 {
				a.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				a.flush(batch)
				batch = batch[:0]
			}
		case <-a.stop:
			// drain what is already queued
			for {
				select {
				case evt := <-a.events:
					batch = append(batch, evt)
				default:
					a.flush(batch)
					return
				}
			}
		}
	}
}

// flush writes a batch of events to the database
func (a *Analytics) flush(events []AnalyticsEvent) {
	if a.db == nil || len(events) == 0 {
		return
	}
	tx, err := a.db.conn.Begin()
	if err != nil {
		log.Printf("analytics: begin tx error: %v", err)
		return
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO analytics_events (event_type, player_id, session_id, data, created_at) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		log.Printf("analytics: prepare error: %v", err)
		return
	}
	defer stmt.Close()

	for _, evt := range events {
		pid := sql.NullInt64{Int64: evt.PlayerID, Valid: evt.PlayerID > 0}
		sid := sql.NullString{String: evt.SessionID, Valid: evt.SessionID != ""}
		data := sql.NullString{String: evt.Data, Valid: evt.Data != ""}
		if _, err := stmt.Exec(evt.Type, pid, sid, data, evt.Timestamp.Format(time.RFC3339)); err != nil {
			log.Printf("analytics: insert error: %v", err)
		}
	}
	if err := tx.Commit(); err != nil {
		log.Printf("analytics: commit error: %v", err)
	}
}

// --- Query methods for the API ---

// EventCounts returns counts of each event type for the last N days
func (a *Analytics) EventCounts(days int) (map[string]int, error) {
	if a == nil || a.db == nil {
		return map[string]int{}, nil
	}
	rows, err := a.db.conn.Query(`
		SELECT event_type, COUNT(*) FROM analytics_events
		WHERE created_at >= date('now', '-' || ? || ' days')
		GROUP BY event_type ORDER BY COUNT(*) DESC
	`, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	result := make(map[string]int)
	for rows.Next() {
		var evtType string
		var count int
		if err := rows.Scan(&evtType, &count); err != nil {
			continue
		}
		result[evtType] = count
	}
	return result, rows.Err()
}

// RunStats aggregates finished runs by outcome for the last N days
func (a *Analytics) RunStats(days int) ([]RunAnalytics, error) {
	if a == nil || a.db == nil {
		return nil, nil
	}
	rows, err := a.db.conn.Query(`
		SELECT COALESCE(json_extract(data, '$.outcome'), 'unknown') AS outcome, COUNT(*),
			AVG(json_extract(data, '$.duration')), AVG(json_extract(data, '$.level'))
		FROM analytics_events
		WHERE event_type = ? AND json_valid(data) AND created_at >= date('now', '-' || ? || ' days')
		GROUP BY outcome ORDER BY COUNT(*) DESC
	`, EvtRunEnd, days)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []RunAnalytics
	for rows.Next() {
		var r RunAnalytics
		var avgDur, avgLvl sql.NullFloat64
		if err := rows.Scan(&r.Outcome, &r.Count, &avgDur, &avgLvl); err != nil {
			continue
		}
		r.AvgDuration = avgDur.Float64
		r.AvgLevel = avgLvl.Float64
		result = append(result, r)
	}
	return result, rows.Err()
}

// UpgradePicks returns how often each option key was applied in the last N days
func (a *Analytics) UpgradePicks(days, limit int) ([]PickAnalytics, error) {
	if a == nil || a.db == nil {
		return nil, nil
	}
	rows, err := a.db.conn.Query(`
		SELECT COALESCE(json_extract(data, '$.key'), 'unknown') AS key, COUNT(*) AS cnt
		FROM analytics_events
		WHERE event_type = ? AND json_valid(data) AND created_at >= date('now', '-' || ? || ' days')
		GROUP BY key ORDER BY cnt DESC LIMIT ?
	`, EvtUpgrade, days, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []PickAnalytics
	for rows.Next() {
		var p PickAnalytics
		if err := rows.Scan(&p.Key, &p.Count); err != nil {
			continue
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// RunAnalytics holds aggregated run statistics
type RunAnalytics struct {
	Outcome     string  `json:"outcome"`
	Count       int     `json:"count"`
	AvgDuration float64 `json:"avg_duration"`
	AvgLevel    float64 `json:"avg_level"`
}

// PickAnalytics holds the pick count of one upgrade option
type PickAnalytics struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}
