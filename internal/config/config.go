// Package config binds the core's recognized configuration options (§6 of
// the design) from file, environment, and flags via viper into a typed
// Config, the way Tangerg/lynx's pipeline configs validate-then-default.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Tier is one of the two model endpoints the Model Router partitions tasks across.
type Tier string

const (
	TierExpensive Tier = "expensive"
	TierCheap     Tier = "cheap"
)

// Task is a named use of a model call.
type Task string

const (
	TaskThoughtGeneration        Task = "thought_generation"
	TaskPromiseEvaluation        Task = "promise_evaluation"
	TaskPostExecutionEvaluation  Task = "post_execution_evaluation"
	TaskRelevanceScoring         Task = "relevance_scoring"
	TaskPolicyCheck              Task = "policy_check"
	TaskToxicityCheck            Task = "toxicity_check"
	TaskInputValidation          Task = "input_validation"
	TaskFinalSynthesis           Task = "final_synthesis"
)

// ModelEndpoint holds the credentials/transport for one logical model tier.
type ModelEndpoint struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float64
	Timeout     time.Duration
}

// ToTConfig holds the Orchestrator's tunables (§6 tot.*).
type ToTConfig struct {
	MaxDepth               int
	BranchingFactor        int
	CompletenessThreshold  float64
	PromiseThreshold       float64
	DeadEndRelevance       float64
	DeadEndQuality         float64
}

func (c ToTConfig) MaxIterations() int { return c.MaxDepth * c.BranchingFactor }

// AdaptiveRAGConfig holds adaptive_rag.* tunables.
type AdaptiveRAGConfig struct {
	SimpleThresholdChars  int
	SimpleThresholdWords  int
	ComplexThresholdChars int
	RRFKConstant          float64
	DefaultK              int
}

// CorrectiveRAGConfig holds corrective_rag.* tunables.
type CorrectiveRAGConfig struct {
	MinRelevance float64
	BatchSize    int
	Timeout      time.Duration
}

// WebSearchConfig holds web_search.* tunables.
type WebSearchConfig struct {
	BaseURL      string
	FallbackURLs []string
	Timeout      time.Duration
	RetryCount   int
	ResultsLimit int
	Blacklist    []string
}

// WebScraperConfig holds web_scraper.* tunables.
type WebScraperConfig struct {
	Timeout         time.Duration
	ExtendedTimeout time.Duration
	BatchSize       int
	MaxLength       int
	UserAgents      []string
	RemoveTags      []string
	ContentSelectors []string
}

// ContentGuardConfig holds content_guard.* tunables.
type ContentGuardConfig struct {
	Enabled            bool
	ToxicityThreshold  float64
	ToxicityBatchSize  int
	PolicyCheckEnabled bool
	SanitizeMaxLength  int
	MinLength          int
	MaxLength          int
	MinSentences       int
	MaxURLRatio        float64
	BlacklistWords     []string
}

// MemoryConfig holds memory.* tunables.
type MemoryConfig struct {
	WorkingTTL               time.Duration
	ProceduralMinSuccessScore float64
	ProceduralMaxPatterns    int
	ProceduralSaveThreshold  float64
}

// ValidationConfig holds validation.* tunables.
type ValidationConfig struct {
	Enabled           bool
	MinInputLength    int
	MaxInputLength    int
	Timeout           time.Duration
	InjectionPatterns []string
}

// Config is the fully bound, validated application configuration.
type Config struct {
	ModelRouting map[Task]Tier
	Expensive    ModelEndpoint
	Cheap        ModelEndpoint

	ToT           ToTConfig
	AdaptiveRAG   AdaptiveRAGConfig
	CorrectiveRAG CorrectiveRAGConfig
	WebSearch     WebSearchConfig
	WebScraper    WebScraperConfig
	ContentGuard  ContentGuardConfig
	Memory        MemoryConfig
	Validation    ValidationConfig

	VectorStoreAddr string
	RelationalDSN   string
}

func defaultRouting() map[Task]Tier {
	return map[Task]Tier{
		TaskThoughtGeneration:       TierExpensive,
		TaskFinalSynthesis:          TierExpensive,
		TaskPromiseEvaluation:       TierCheap,
		TaskPostExecutionEvaluation: TierCheap,
		TaskRelevanceScoring:        TierCheap,
		TaskPolicyCheck:             TierCheap,
		TaskToxicityCheck:           TierCheap,
		TaskInputValidation:         TierCheap,
	}
}

// Default returns a Config populated with the documented defaults.
func Default() *Config {
	return &Config{
		ModelRouting: defaultRouting(),
		Expensive: ModelEndpoint{
			Temperature: 0.7,
			Timeout:     60 * time.Second,
		},
		Cheap: ModelEndpoint{
			Temperature: 0.3,
			Timeout:     5 * time.Second,
		},
		ToT: ToTConfig{
			MaxDepth:              5,
			BranchingFactor:       3,
			CompletenessThreshold: 0.85,
			PromiseThreshold:      0.4,
			DeadEndRelevance:      0.3,
			DeadEndQuality:        0.3,
		},
		AdaptiveRAG: AdaptiveRAGConfig{
			SimpleThresholdWords:  12,
			SimpleThresholdChars:  60,
			ComplexThresholdChars: 200,
			RRFKConstant:          60,
			DefaultK:              5,
		},
		CorrectiveRAG: CorrectiveRAGConfig{
			MinRelevance: 0.6,
			BatchSize:    10,
			Timeout:      10 * time.Second,
		},
		WebSearch: WebSearchConfig{
			BaseURL:      "https://4get.example.org",
			FallbackURLs: nil,
			Timeout:      8 * time.Second,
			RetryCount:   2,
			ResultsLimit: 10,
		},
		WebScraper: WebScraperConfig{
			Timeout:         6 * time.Second,
			ExtendedTimeout: 15 * time.Second,
			BatchSize:       5,
			MaxLength:       8000,
			UserAgents: []string{
				"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36",
				"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/605.1.15",
				"Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36",
			},
			RemoveTags:       []string{"script", "style", "nav", "header", "footer", "aside", "iframe", "noscript"},
			ContentSelectors: []string{"article", "main", ".content", "#content", ".post", ".article-body"},
		},
		ContentGuard: ContentGuardConfig{
			Enabled:            true,
			ToxicityThreshold:  0.7,
			ToxicityBatchSize:  10,
			PolicyCheckEnabled: true,
			SanitizeMaxLength:  5000,
			MinLength:          20,
			MaxLength:          10000,
			MinSentences:       1,
			MaxURLRatio:        0.3,
		},
		Memory: MemoryConfig{
			WorkingTTL:                24 * time.Hour,
			ProceduralMinSuccessScore: 0.7,
			ProceduralMaxPatterns:     5,
			ProceduralSaveThreshold:   0.80,
		},
		Validation: ValidationConfig{
			Enabled:        true,
			MinInputLength: 3,
			MaxInputLength: 2000,
			Timeout:        5 * time.Second,
			InjectionPatterns: []string{
				"ignore previous",
				"ignore all previous",
				"disregard previous",
				"reveal system prompt",
				"you are now",
				"pretend you are",
				"забудь предыдущие",
				"игнорируй предыдущие",
			},
		},
	}
}

// Load reads configuration from the given file path (if non-empty), then
// environment variables prefixed TOT_, then defaults, validating the result.
func Load(path string) (*Config, error) {
	cfg := Default()

	v := viper.New()
	v.SetEnvPrefix("TOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("config: read %s: %w", path, err)
		}
	}

	bindOverrides(v, cfg)

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: invalid: %w", err)
	}
	return cfg, nil
}

func bindOverrides(v *viper.Viper, cfg *Config) {
	if v.IsSet("tot.max_depth") {
		cfg.ToT.MaxDepth = v.GetInt("tot.max_depth")
	}
	if v.IsSet("tot.branching_factor") {
		cfg.ToT.BranchingFactor = v.GetInt("tot.branching_factor")
	}
	if v.IsSet("tot.completeness_threshold") {
		cfg.ToT.CompletenessThreshold = v.GetFloat64("tot.completeness_threshold")
	}
	if v.IsSet("tot.promise_threshold") {
		cfg.ToT.PromiseThreshold = v.GetFloat64("tot.promise_threshold")
	}
	if v.IsSet("tot.dead_end_relevance") {
		cfg.ToT.DeadEndRelevance = v.GetFloat64("tot.dead_end_relevance")
	}
	if v.IsSet("tot.dead_end_quality") {
		cfg.ToT.DeadEndQuality = v.GetFloat64("tot.dead_end_quality")
	}
	if v.IsSet("adaptive_rag.rrf_k_constant") {
		cfg.AdaptiveRAG.RRFKConstant = v.GetFloat64("adaptive_rag.rrf_k_constant")
	}
	if v.IsSet("web_search.base_url") {
		cfg.WebSearch.BaseURL = v.GetString("web_search.base_url")
	}
	if v.IsSet("web_search.fallback_urls") {
		cfg.WebSearch.FallbackURLs = v.GetStringSlice("web_search.fallback_urls")
	}
	if v.IsSet("expensive.base_url") {
		cfg.Expensive.BaseURL = v.GetString("expensive.base_url")
	}
	if v.IsSet("expensive.api_key") {
		cfg.Expensive.APIKey = v.GetString("expensive.api_key")
	}
	if v.IsSet("expensive.model") {
		cfg.Expensive.Model = v.GetString("expensive.model")
	}
	if v.IsSet("cheap.base_url") {
		cfg.Cheap.BaseURL = v.GetString("cheap.base_url")
	}
	if v.IsSet("cheap.api_key") {
		cfg.Cheap.APIKey = v.GetString("cheap.api_key")
	}
	if v.IsSet("cheap.model") {
		cfg.Cheap.Model = v.GetString("cheap.model")
	}
	if v.IsSet("vector_store.addr") {
		cfg.VectorStoreAddr = v.GetString("vector_store.addr")
	}
	if v.IsSet("relational.dsn") {
		cfg.RelationalDSN = v.GetString("relational.dsn")
	}
}

func (c *Config) validate() error {
	if c.ToT.MaxDepth < 0 {
		return fmt.Errorf("tot.max_depth must be >= 0")
	}
	if c.ToT.BranchingFactor < 1 {
		return fmt.Errorf("tot.branching_factor must be >= 1")
	}
	if c.ToT.CompletenessThreshold < 0 || c.ToT.CompletenessThreshold > 1 {
		return fmt.Errorf("tot.completeness_threshold must be in [0,1]")
	}
	for task, tier := range c.ModelRouting {
		if task == TaskThoughtGeneration || task == TaskFinalSynthesis {
			if tier != TierExpensive {
				return fmt.Errorf("%s must map to the expensive tier", task)
			}
		} else if tier != TierCheap {
			return fmt.Errorf("%s must map to the cheap tier", task)
		}
	}
	if c.RelationalDSN == "" {
		c.RelationalDSN = "file:tot.db?cache=shared&_pragma=busy_timeout(5000)"
	}
	return nil
}
