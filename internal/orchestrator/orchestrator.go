package orchestrator

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/arborix/tot/internal/config"
	"github.com/arborix/tot/internal/contentguard"
	"github.com/arborix/tot/internal/coreerrors"
	"github.com/arborix/tot/internal/document"
	"github.com/arborix/tot/internal/evaluation"
	"github.com/arborix/tot/internal/llm"
	"github.com/arborix/tot/internal/memory"
	"github.com/arborix/tot/internal/reasoning"
	"github.com/arborix/tot/internal/relational"
	"github.com/arborix/tot/internal/tools"
	"github.com/arborix/tot/pkg/safe"
)

// Orchestrator wires the Reasoning Chain, Evaluation Chain, Tool Registry,
// Content Guard, and Memory Manager into one search operation.
type Orchestrator struct {
	cfg     config.ToTConfig
	router  *llm.Router
	reason  *reasoning.Chain
	eval    *evaluation.Chain
	registry *tools.Registry
	guard   *contentguard.Guard
	mem     *memory.Manager
	rel     relational.Store // may be nil
	catalog []reasoning.ToolDescriptor
	log     *zap.Logger
}

func New(cfg config.ToTConfig, router *llm.Router, reason *reasoning.Chain, eval *evaluation.Chain, registry *tools.Registry, guard *contentguard.Guard, mem *memory.Manager, rel relational.Store, catalog []reasoning.ToolDescriptor, log *zap.Logger) *Orchestrator {
	return &Orchestrator{
		cfg: cfg, router: router, reason: reason, eval: eval,
		registry: registry, guard: guard, mem: mem, rel: rel, catalog: catalog, log: log,
	}
}

// Search runs the DFS/best-first loop of §4.5 and returns the search outcome.
// Only a completely unavailable Expensive model combined with a failing
// rule-based fallback surfaces a SearchFailed error; every other in-loop
// failure demotes the affected candidate instead.
func (o *Orchestrator) Search(ctx context.Context, sessionID, query, userLevel string, memCtx *memory.MemoryContext) (*ToTResult, error) {
	start := time.Now()
	o.router.Reset()

	root := &TreeNode{
		ID:        uuid.NewString(),
		Depth:     0,
		Status:    StatusPending,
		CreatedAt: start,
	}
	nodeIndex := map[string]*TreeNode{root.ID: root}
	stack := []*TreeNode{root}
	var explored []*TreeNode
	toolsUsed := map[string]struct{}{}

	maxIterations := o.cfg.MaxIterations()
	var bestSolution *TreeNode
	bestScore := -1.0
	goalReached := false
	iteration := 0

	// At least one pop always happens, even with max_iterations == 0 (the
	// max_depth=0 edge case): the root must still be explored once so
	// explored_nodes is never empty.
	for len(stack) > 0 && (iteration == 0 || iteration < maxIterations) {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		explored = append(explored, current)
		iteration++

		if current.Completeness >= o.cfg.CompletenessThreshold {
			current.Status = StatusGoalReached
			bestSolution = current
			goalReached = true
			break
		}
		if current.Depth >= o.cfg.MaxDepth {
			if current.Completeness > bestScore {
				bestScore = current.Completeness
				bestSolution = current
			}
			continue
		}
		if current.Status == StatusDeadEnd {
			continue
		}

		thoughts, err := o.generateCandidates(ctx, query, userLevel, current, memCtx)
		if err != nil {
			return nil, coreerrors.Wrap(coreerrors.KindSearchFailed, "reasoning chain and rule-based fallback both failed", err)
		}

		children := materializeChildren(current, thoughts, nodeIndex)
		survivors := o.scorePromise(ctx, children, current, query)

		if len(survivors) == 0 {
			current.Status = StatusDeadEnd
			continue
		}

		sort.SliceStable(survivors, func(i, j int) bool { return survivors[i].Promise > survivors[j].Promise })
		for i := len(survivors) - 1; i >= 0; i-- {
			stack = append(stack, survivors[i])
		}

		bestChild := stack[len(stack)-1]
		o.executeAndGuard(ctx, bestChild, memCtx, toolsUsed)

		nodeEval := o.eval.EvaluateNode(ctx, bestChild.CollectedDocs, query)
		bestChild.Completeness = nodeEval.Completeness
		bestChild.Relevance = nodeEval.Relevance
		bestChild.Quality = nodeEval.Quality

		switch {
		case nodeEval.Relevance < o.cfg.DeadEndRelevance || nodeEval.Quality < o.cfg.DeadEndQuality:
			bestChild.Status = StatusDeadEnd
		case nodeEval.Completeness >= o.cfg.CompletenessThreshold:
			bestChild.Status = StatusGoalReached
			bestSolution = bestChild
			goalReached = true
		default:
			bestChild.Status = StatusPromising
			if nodeEval.Completeness > bestScore {
				bestScore = nodeEval.Completeness
				bestSolution = bestChild
			}
		}

		o.mem.RecordStep(ctx, memory.WorkingMemoryEntry{
			SessionID:    sessionID,
			Iteration:    iteration,
			NodeID:       bestChild.ID,
			Depth:        bestChild.Depth,
			Thought:      bestChild.Thought,
			ToolUsed:     bestChild.ToolName,
			ToolParams:   bestChild.ToolParams,
			Observation:  summarizeObservation(bestChild),
			Completeness: bestChild.Completeness,
			Timestamp:    time.Now(),
		})

		if goalReached {
			break
		}
	}

	if !goalReached && bestSolution == nil {
		bestSolution = root
	}

	bestPath := tracePath(bestSolution, nodeIndex)
	result := &ToTResult{
		BestPath:           bestPath,
		ExploredNodes:      explored,
		CollectedDocuments: bestSolution.CollectedDocs,
		FinalCompleteness:  bestSolution.Completeness,
		Iterations:         iteration,
		ToolsUsed:          keysOf(toolsUsed),
		WallTime:           time.Since(start),
		ModelCallCounts:    o.router.CallCounts(),
	}

	o.persist(ctx, sessionID, query, userLevel, memCtx, result)
	return result, nil
}

func (o *Orchestrator) generateCandidates(ctx context.Context, query, userLevel string, current *TreeNode, memCtx *memory.MemoryContext) ([]reasoning.Thought, error) {
	state := reasoning.NodeState{Depth: current.Depth, Completeness: current.Completeness, CollectedDocs: current.CollectedDocs}
	hints := ""
	if memCtx != nil {
		hints = memCtx.ProceduralHints
	}
	thoughts, err := o.reason.Generate(ctx, query, userLevel, state, hints, o.cfg.BranchingFactor, o.catalog)
	if err == nil {
		return thoughts, nil
	}
	if o.log != nil {
		o.log.Warn("reasoning chain unavailable, using rule-based fallback", zap.Error(err))
	}
	fallback := reasoning.Fallback(current.Depth, query)
	if fallback.ToolName == "" {
		return nil, fmt.Errorf("rule-based fallback produced no candidate: %w", err)
	}
	return []reasoning.Thought{fallback}, nil
}

func materializeChildren(parent *TreeNode, thoughts []reasoning.Thought, nodeIndex map[string]*TreeNode) []*TreeNode {
	children := make([]*TreeNode, 0, len(thoughts))
	for _, th := range thoughts {
		child := &TreeNode{
			ID:            uuid.NewString(),
			ParentID:      parent.ID,
			Depth:         parent.Depth + 1,
			Thought:       th.Reasoning,
			Reasoning:     th.Reasoning,
			ToolName:      th.ToolName,
			ToolParams:    th.ToolParams,
			CollectedDocs: document.CloneAll(parent.CollectedDocs),
			Status:        StatusPending,
			CreatedAt:     time.Now(),
		}
		nodeIndex[child.ID] = child
		parent.Children = append(parent.Children, child.ID)
		children = append(children, child)
	}
	return children
}

// scorePromise scores every candidate's promise concurrently (bounded by the
// candidate count, per §5's "Promise evaluation... MAY be issued
// concurrently, bounded by B") and returns the ones clearing PromiseThreshold.
func (o *Orchestrator) scorePromise(ctx context.Context, children []*TreeNode, current *TreeNode, query string) []*TreeNode {
	state := reasoning.NodeState{Depth: current.Depth, Completeness: current.Completeness, CollectedDocs: current.CollectedDocs}
	g, gctx := errgroup.WithContext(ctx)
	var mu sync.Mutex
	for _, child := range children {
		child := child
		g.Go(func() error {
			thought := reasoning.Thought{Reasoning: child.Reasoning, ToolName: child.ToolName, ToolParams: child.ToolParams}
			p := o.eval.Promise(gctx, thought, state, query)
			mu.Lock()
			child.Promise = p
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	survivors := make([]*TreeNode, 0, len(children))
	for _, c := range children {
		if c.Promise >= o.cfg.PromiseThreshold {
			survivors = append(survivors, c)
		}
	}
	return survivors
}

// executeAndGuard runs the candidate's planned tool action, then runs its
// documents through the Content Guard and extends the node's collected set
// with the survivors.
func (o *Orchestrator) executeAndGuard(ctx context.Context, node *TreeNode, memCtx *memory.MemoryContext, toolsUsed map[string]struct{}) {
	node.Status = StatusExecuting
	start := time.Now()

	tool, ok := o.registry.Get(node.ToolName)
	if !ok {
		node.Status = StatusExecuted
		node.ActionSuccess = false
		node.ActionError = "unknown tool: " + node.ToolName
		node.ExecutionTimeMS = float64(time.Since(start).Milliseconds())
		return
	}

	params := injectDefaults(node.ToolName, node.ToolParams, node.CollectedDocs, memCtx)
	toolsUsed[node.ToolName] = struct{}{}
	result := tool.Execute(ctx, params)

	node.ActionSuccess = result.Success
	node.ActionError = result.Error
	node.ActionMetadata = result.Metadata
	node.ExecutionTimeMS = float64(time.Since(start).Milliseconds())
	node.Status = StatusExecuted

	if !result.Success {
		return
	}

	survivors, report := o.guard.Check(ctx, result.Documents)
	node.CollectedDocs = append(node.CollectedDocs, survivors...)

	if o.rel != nil {
		log := relational.ContentGuardLog{
			NodeID:             node.ID,
			TotalChecked:       report.TotalChecked,
			Passed:             report.Passed,
			FilteredByToxicity: report.FilteredByToxicity,
			FilteredByPolicy:   report.FilteredByPolicy,
			FilteredByQuality:  report.FilteredByQuality,
			AverageToxicity:    report.AverageToxicity,
			ProcessingTimeMS:   float64(report.ProcessingTime.Milliseconds()),
			CreatedAt:          time.Now(),
		}
		safe.Go(func() {
			_ = o.rel.InsertContentGuardLog(context.Background(), log)
		}, o.logPanic)
	}
}

// injectDefaults supplies parameters the planner cannot be expected to fill
// in itself: the in-flight collected documents for corrective_rag_filter,
// and the session id for memory_retrieval.
func injectDefaults(toolName string, params map[string]any, collected []*document.Document, memCtx *memory.MemoryContext) tools.Params {
	out := tools.Params{}
	for k, v := range params {
		out[k] = v
	}
	switch toolName {
	case "corrective_rag_filter":
		if _, ok := out["documents"]; !ok {
			out["documents"] = collected
		}
	case "memory_retrieval":
		if _, ok := out["session_id"]; !ok && memCtx != nil {
			out["session_id"] = memCtx.SessionID
		}
	}
	return out
}

func summarizeObservation(node *TreeNode) string {
	if !node.ActionSuccess {
		return "tool failed: " + node.ActionError
	}
	return fmt.Sprintf("collected %d documents", len(node.CollectedDocs))
}

// tracePath walks parent back-references from solution to the root,
// returning the path root-first. Every node consulted here was inserted
// into nodeIndex at creation time, not at pop time, so a solution that was
// only peeked (never popped) still traces correctly. A visited set stops
// the walk if the parent chain loops back on itself.
func tracePath(solution *TreeNode, nodeIndex map[string]*TreeNode) []*TreeNode {
	var reversed []*TreeNode
	visited := make(map[*TreeNode]struct{})
	for n := solution; n != nil; {
		if _, seen := visited[n]; seen {
			break
		}
		visited[n] = struct{}{}
		reversed = append(reversed, n)
		if n.ParentID == "" {
			break
		}
		parent, ok := nodeIndex[n.ParentID]
		if !ok {
			break
		}
		n = parent
	}
	path := make([]*TreeNode, len(reversed))
	for i, n := range reversed {
		path[len(reversed)-1-i] = n
	}
	return path
}

func keysOf(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}

// persist writes the search's audit trail to the relational store. The
// caller's context is typically torn down the moment Search returns, so the
// writes run detached (background context, panic-recovering) rather than
// block the response on the store's latency.
func (o *Orchestrator) persist(ctx context.Context, sessionID, query, userLevel string, memCtx *memory.MemoryContext, result *ToTResult) {
	if o.rel == nil {
		return
	}
	userID := ""
	if memCtx != nil {
		userID = memCtx.UserID
	}
	searchID := uuid.NewString()

	safe.Go(func() {
		bg := context.Background()
		_ = o.rel.InsertMaterialGeneration(bg, relational.MaterialGeneration{
			ID:                searchID,
			SessionID:         sessionID,
			UserID:            userID,
			Query:             query,
			UserLevel:         userLevel,
			FinalCompleteness: result.FinalCompleteness,
			Iterations:        result.Iterations,
			ToolsUsed:         result.ToolsUsed,
			WallTimeMS:        float64(result.WallTime.Milliseconds()),
			CreatedAt:         time.Now(),
		})

		rows := make([]relational.ToTNodeLog, 0, len(result.ExploredNodes))
		for _, n := range result.ExploredNodes {
			rows = append(rows, relational.ToTNodeLog{
				SearchID:     searchID,
				NodeID:       n.ID,
				ParentID:     n.ParentID,
				Depth:        n.Depth,
				Thought:      n.Thought,
				Status:       string(n.Status),
				Promise:      n.Promise,
				Completeness: n.Completeness,
				Relevance:    n.Relevance,
				Quality:      n.Quality,
				CreatedAt:    n.CreatedAt,
			})
		}
		_ = o.rel.InsertToTNodeLogs(bg, rows)

		for _, tool := range result.ToolsUsed {
			_ = o.rel.BumpToolUsage(bg, tool, time.Now().Format("2006-01-02"), 1)
		}
	}, o.logPanic)
}

// logPanic reports a recovered panic from a detached background write; audit
// logging must never take the search down with it.
func (o *Orchestrator) logPanic(err error) {
	if o.log != nil {
		o.log.Error("panic in detached relational write", zap.Error(err))
	}
}
