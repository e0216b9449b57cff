// Package sqlitestore implements relational.Store on modernc.org/sqlite, a
// pure-Go (cgo-free) driver grounded on Heikkila-Pty-Ltd-cortex's relational
// layer. Append-only log tables, no read-modify-write, per the Concurrency
// & Resource Model's "relational log table is written append-only" rule.
package sqlitestore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/arborix/tot/internal/relational"
)

// Store is a relational.Store backed by an on-disk (or in-memory) SQLite file.
type Store struct {
	db *sql.DB
}

// Open opens (creating if necessary) the SQLite database at dsn and ensures
// the core's tables exist.
func Open(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlitestore: open: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(context.Background()); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate(ctx context.Context) error {
	const schema = `
CREATE TABLE IF NOT EXISTS material_generations (
	id TEXT PRIMARY KEY,
	session_id TEXT NOT NULL,
	user_id TEXT NOT NULL,
	query TEXT NOT NULL,
	user_level TEXT NOT NULL,
	final_completeness REAL NOT NULL,
	iterations INTEGER NOT NULL,
	tools_used TEXT NOT NULL,
	wall_time_ms REAL NOT NULL,
	created_at DATETIME NOT NULL
);
CREATE TABLE IF NOT EXISTS tot_node_logs (
	search_id TEXT NOT NULL,
	node_id TEXT NOT NULL,
	parent_id TEXT,
	depth INTEGER NOT NULL,
	thought TEXT,
	status TEXT NOT NULL,
	promise REAL NOT NULL,
	completeness REAL NOT NULL,
	relevance REAL NOT NULL,
	quality REAL NOT NULL,
	created_at DATETIME NOT NULL
);
CREATE TABLE IF NOT EXISTS tool_usage_stats (
	tool TEXT NOT NULL,
	day TEXT NOT NULL,
	calls INTEGER NOT NULL,
	PRIMARY KEY (tool, day)
);
CREATE TABLE IF NOT EXISTS content_guard_logs (
	search_id TEXT NOT NULL,
	node_id TEXT NOT NULL,
	total_checked INTEGER NOT NULL,
	passed INTEGER NOT NULL,
	filtered_by_toxicity INTEGER NOT NULL,
	filtered_by_policy INTEGER NOT NULL,
	filtered_by_quality INTEGER NOT NULL,
	average_toxicity REAL NOT NULL,
	processing_time_ms REAL NOT NULL,
	created_at DATETIME NOT NULL
);
CREATE TABLE IF NOT EXISTS procedural_patterns (
	pattern_id TEXT PRIMARY KEY,
	category TEXT NOT NULL,
	user_level TEXT NOT NULL,
	tool_sequence TEXT NOT NULL,
	avg_iterations REAL NOT NULL,
	success_score REAL NOT NULL,
	usage_count INTEGER NOT NULL,
	reasoning_text TEXT,
	created_at DATETIME NOT NULL,
	last_used_at DATETIME NOT NULL
);`
	_, err := s.db.ExecContext(ctx, schema)
	return err
}

func (s *Store) InsertMaterialGeneration(ctx context.Context, row relational.MaterialGeneration) error {
	tools, _ := json.Marshal(row.ToolsUsed)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO material_generations
		(id, session_id, user_id, query, user_level, final_completeness, iterations, tools_used, wall_time_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		row.ID, row.SessionID, row.UserID, row.Query, row.UserLevel,
		row.FinalCompleteness, row.Iterations, string(tools), row.WallTimeMS, row.CreatedAt)
	return err
}

func (s *Store) InsertToTNodeLogs(ctx context.Context, rows []relational.ToTNodeLog) error {
	if len(rows) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO tot_node_logs
		(search_id, node_id, parent_id, depth, thought, status, promise, completeness, relevance, quality, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, r := range rows {
		if _, err := stmt.ExecContext(ctx, r.SearchID, r.NodeID, r.ParentID, r.Depth, r.Thought,
			r.Status, r.Promise, r.Completeness, r.Relevance, r.Quality, r.CreatedAt); err != nil {
			return err
		}
	}
	return tx.Commit()
}

func (s *Store) BumpToolUsage(ctx context.Context, tool string, day string, delta int) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO tool_usage_stats (tool, day, calls) VALUES (?, ?, ?)
		ON CONFLICT(tool, day) DO UPDATE SET calls = calls + excluded.calls`,
		tool, day, delta)
	return err
}

func (s *Store) InsertContentGuardLog(ctx context.Context, row relational.ContentGuardLog) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO content_guard_logs
		(search_id, node_id, total_checked, passed, filtered_by_toxicity, filtered_by_policy, filtered_by_quality, average_toxicity, processing_time_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		row.SearchID, row.NodeID, row.TotalChecked, row.Passed, row.FilteredByToxicity,
		row.FilteredByPolicy, row.FilteredByQuality, row.AverageToxicity, row.ProcessingTimeMS, row.CreatedAt)
	return err
}

func (s *Store) BumpProceduralUsage(ctx context.Context, patternID string, lastUsedAt time.Time) error {
	_, err := s.db.ExecContext(ctx, `
		UPDATE procedural_patterns SET usage_count = usage_count + 1, last_used_at = ?
		WHERE pattern_id = ?`, lastUsedAt, patternID)
	return err
}

func (s *Store) UpsertProceduralPatternRow(ctx context.Context, row relational.ProceduralPatternRow) error {
	sequence, _ := json.Marshal(row.ToolSequence)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO procedural_patterns
		(pattern_id, category, user_level, tool_sequence, avg_iterations, success_score, usage_count, reasoning_text, created_at, last_used_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(pattern_id) DO UPDATE SET
			usage_count = excluded.usage_count,
			last_used_at = excluded.last_used_at`,
		row.PatternID, row.Category, row.UserLevel, string(sequence), row.AvgIterations,
		row.SuccessScore, row.UsageCount, row.ReasoningText, row.CreatedAt, row.LastUsedAt)
	return err
}
