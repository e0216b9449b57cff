// Package orchestrator implements the ToT Orchestrator (§4.5): the
// depth-first, best-first search loop that ties the Reasoning Chain,
// Evaluation Chain, Tool Registry, Content Guard, and Memory Manager
// together into one search(query) -> ToTResult operation.
package orchestrator

import (
	"time"

	"github.com/arborix/tot/internal/config"
	"github.com/arborix/tot/internal/document"
)

// Status is one of a TreeNode's lifecycle states.
type Status string

const (
	StatusPending     Status = "PENDING"
	StatusExecuting   Status = "EXECUTING"
	StatusExecuted    Status = "EXECUTED"
	StatusPromising   Status = "PROMISING"
	StatusDeadEnd     Status = "DEAD_END"
	StatusGoalReached Status = "GOAL_REACHED"
)

// TreeNode is one node in the reasoning tree (§3).
type TreeNode struct {
	ID       string
	ParentID string
	Depth    int

	Thought    string
	Reasoning  string
	ToolName   string
	ToolParams map[string]any

	ActionSuccess    bool
	ActionError      string
	ActionMetadata   map[string]any
	CollectedDocs    []*document.Document

	Promise      float64
	Completeness float64
	Relevance    float64
	Quality      float64

	Status   Status
	Children []string
	Visited  bool

	CreatedAt       time.Time
	ExecutionTimeMS float64
	ModelCalls      map[config.Tier]int
}

// ToTResult is the search outcome (§3).
type ToTResult struct {
	BestPath           []*TreeNode
	ExploredNodes      []*TreeNode
	CollectedDocuments []*document.Document
	FinalCompleteness  float64
	Iterations         int
	ToolsUsed          []string
	WallTime           time.Duration
	ModelCallCounts    map[config.Tier]int
}
