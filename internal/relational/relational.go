// Package relational abstracts the write-through relational store of §6:
// material_generations, tot_node_logs, tool_usage_stats, content_guard_logs,
// and procedural_patterns (a backup table mirroring procedural memory).
package relational

import (
	"context"
	"time"
)

// MaterialGeneration is one row per search.
type MaterialGeneration struct {
	ID                string
	SessionID         string
	UserID            string
	Query             string
	UserLevel         string
	FinalCompleteness float64
	Iterations        int
	ToolsUsed         []string
	WallTimeMS        float64
	CreatedAt         time.Time
}

// ToTNodeLog is one row per explored node.
type ToTNodeLog struct {
	SearchID   string
	NodeID     string
	ParentID   string
	Depth      int
	Thought    string
	Status     string
	Promise    float64
	Completeness float64
	Relevance  float64
	Quality    float64
	CreatedAt  time.Time
}

// ToolUsageStat is a rolled-up per-tool/day counter.
type ToolUsageStat struct {
	Tool  string
	Day   string
	Calls int
}

// ContentGuardLog is one row per content guard run over a tool result.
type ContentGuardLog struct {
	SearchID           string
	NodeID             string
	TotalChecked        int
	Passed               int
	FilteredByToxicity   int
	FilteredByPolicy     int
	FilteredByQuality    int
	AverageToxicity      float64
	ProcessingTimeMS     float64
	CreatedAt            time.Time
}

// ProceduralPatternRow mirrors a saved ProceduralPattern into the backup table.
type ProceduralPatternRow struct {
	PatternID      string
	Category       string
	UserLevel      string
	ToolSequence   []string
	AvgIterations  float64
	SuccessScore   float64
	UsageCount     int
	ReasoningText  string
	CreatedAt      time.Time
	LastUsedAt     time.Time
}

// Store is the write-through relational store contract.
type Store interface {
	InsertMaterialGeneration(ctx context.Context, row MaterialGeneration) error
	InsertToTNodeLogs(ctx context.Context, rows []ToTNodeLog) error
	BumpToolUsage(ctx context.Context, tool string, day string, delta int) error
	InsertContentGuardLog(ctx context.Context, row ContentGuardLog) error
	UpsertProceduralPatternRow(ctx context.Context, row ProceduralPatternRow) error
	BumpProceduralUsage(ctx context.Context, patternID string, lastUsedAt time.Time) error
}
