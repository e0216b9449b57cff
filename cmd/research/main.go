// Command research is the CLI entrypoint for the Tree-of-Thoughts research
// core: it wires config, logging, the model router, the tool registry, the
// memory manager, and the orchestrator, then runs one search per invocation.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/arborix/tot/internal/config"
	"github.com/arborix/tot/internal/contentguard"
	"github.com/arborix/tot/internal/evaluation"
	"github.com/arborix/tot/internal/llm"
	"github.com/arborix/tot/internal/memory"
	"github.com/arborix/tot/internal/metrics"
	"github.com/arborix/tot/internal/orchestrator"
	"github.com/arborix/tot/internal/reasoning"
	"github.com/arborix/tot/internal/relational"
	"github.com/arborix/tot/internal/relational/sqlitestore"
	"github.com/arborix/tot/internal/tools"
	"github.com/arborix/tot/internal/tools/adaptiverag"
	"github.com/arborix/tot/internal/tools/conceptextractor"
	"github.com/arborix/tot/internal/tools/correctiverag"
	"github.com/arborix/tot/internal/tools/memoryretrieval"
	"github.com/arborix/tot/internal/tools/webscraper"
	"github.com/arborix/tot/internal/tools/websearch"
	"github.com/arborix/tot/internal/validation"
)

var (
	cfgFile   string
	userLevel string
	userID    string
)

var rootCmd = &cobra.Command{
	Use:   "research [query]",
	Short: "Answer an educational query via Tree-of-Thoughts search",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context(), args[0])
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to a config file (yaml/json/toml)")
	rootCmd.Flags().StringVar(&userLevel, "level", "intermediate", "learner level (beginner, intermediate, advanced)")
	rootCmd.Flags().StringVar(&userID, "user", "anonymous", "user identifier for procedural memory scoping")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(ctx context.Context, query string) error {
	log, err := zap.NewProduction()
	if err != nil {
		return fmt.Errorf("research: logger: %w", err)
	}
	defer log.Sync() //nolint:errcheck

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("research: config: %w", err)
	}

	mc := metrics.New(nil)
	router := llm.NewRouterFromConfig(cfg, log, mc)

	validator := validation.New(cfg.Validation, router)
	if err := validator.Validate(ctx, query); err != nil {
		return fmt.Errorf("research: query rejected: %w", err)
	}

	var relStore relational.Store
	sqlStore, err := sqlitestore.Open(cfg.RelationalDSN)
	if err != nil {
		log.Warn("relational store unavailable, continuing without persistence", zap.Error(err))
	} else {
		relStore = sqlStore
	}

	guard := contentguard.New(cfg.ContentGuard, router, mc)

	// No vector store is configured for this standalone CLI invocation: the
	// Memory Manager degrades to its in-process working-memory cache and
	// skip-writes for procedural memory, per §4.6's availability rule.
	memManager := memory.NewManager(nil, relStore, cfg.Memory)
	registry := buildRegistry(cfg, router, memManager)
	sessionID := uuid.NewString()
	memCtx := memManager.LoadContext(ctx, sessionID, userID, query, userLevel)

	reasonChain := reasoning.New(router)
	evalChain := evaluation.New(router)
	orch := orchestrator.New(cfg.ToT, router, reasonChain, evalChain, registry, guard, memManager, relStore, toolCatalog(), log)

	result, err := orch.Search(ctx, sessionID, query, userLevel, memCtx)
	if err != nil {
		return fmt.Errorf("research: search failed: %w", err)
	}

	if err := memManager.SaveSuccessfulGeneration(ctx, query, userLevel, memory.SuccessfulGeneration{
		FinalCompleteness: result.FinalCompleteness,
		ToolSequence:      result.ToolsUsed,
		Iterations:        result.Iterations,
		Thoughts:          thoughtsAlong(result),
	}); err != nil {
		log.Warn("failed to save procedural pattern", zap.Error(err))
	}

	printResult(query, result)
	return nil
}

func toolCatalog() []reasoning.ToolDescriptor {
	return []reasoning.ToolDescriptor{
		{Name: adaptiverag.Name, Description: "Retrieve from the indexed corpus; auto-selects tf-idf, semantic, or hybrid strategy."},
		{Name: correctiverag.Name, Description: "Filter already-collected documents by LLM-judged relevance."},
		{Name: websearch.Name, Description: "Search the open web via a metasearch endpoint."},
		{Name: webscraper.Name, Description: "Fetch and extract readable text from a list of URLs."},
		{Name: conceptextractor.Name, Description: "Extract key phrases/concepts from a block of text."},
		{Name: memoryretrieval.Name, Description: "Retrieve prior working-memory steps or procedural patterns."},
	}
}

func buildRegistry(cfg *config.Config, router *llm.Router, memManager *memory.Manager) *tools.Registry {
	reg := tools.NewRegistry(6)
	reg.Register(adaptiverag.Name, func() tools.Tool {
		index, _ := adaptiverag.LoadIndex("") // empty path: falls back to semantic-only per the "index missing" rule
		return adaptiverag.New(nil, index, cfg.AdaptiveRAG)
	})
	reg.Register(correctiverag.Name, func() tools.Tool {
		return correctiverag.New(router, cfg.CorrectiveRAG)
	})
	reg.Register(webscraper.Name, func() tools.Tool {
		return webscraper.New(nil, cfg.WebScraper)
	})
	reg.Register(websearch.Name, func() tools.Tool {
		return websearch.New(nil, webscraper.New(nil, cfg.WebScraper), cfg.WebSearch)
	})
	reg.Register(conceptextractor.Name, func() tools.Tool {
		return conceptextractor.New(router)
	})
	reg.Register(memoryretrieval.Name, func() tools.Tool {
		return memoryretrieval.New(memManager)
	})
	return reg
}

func thoughtsAlong(result *orchestrator.ToTResult) []string {
	out := make([]string, 0, len(result.BestPath))
	for _, n := range result.BestPath {
		if n.Thought != "" {
			out = append(out, n.Thought)
		}
	}
	return out
}

func printResult(query string, result *orchestrator.ToTResult) {
	fmt.Printf("Query: %s\n", query)
	fmt.Printf("Final completeness: %.2f over %d iterations\n", result.FinalCompleteness, result.Iterations)
	fmt.Printf("Tools used: %v\n", result.ToolsUsed)
	fmt.Printf("Collected documents: %d\n", len(result.CollectedDocuments))
	for i, d := range result.CollectedDocuments {
		fmt.Printf("[%d] (%s) %.160s\n", i+1, d.Source, d.Content)
	}
}
