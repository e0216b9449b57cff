package memoryretrieval

import (
	"strings"

	"github.com/arborix/tot/internal/coreerrors"
	"github.com/arborix/tot/internal/tools"
)

// MemoryType scopes a memory_retrieval call to one or both stores.
type MemoryType string

const (
	TypeWorking    MemoryType = "working"
	TypeProcedural MemoryType = "procedural"
	TypeAll        MemoryType = "all"
)

// Params is the parsed parameter set for one memory_retrieval call.
type Params struct {
	Query          string
	MemoryType     MemoryType
	Limit          int
	MinSuccessScore float64
}

func ParseParams(p tools.Params, defaultLimit int, defaultMinSuccess float64) (*Params, error) {
	query := p.GetReply("query").String()
	if strings.TrimSpace(query) == "" {
		return nil, coreerrors.New(coreerrors.KindToolExecution, "memory_retrieval: query is required")
	}

	memType := MemoryType(TypeAll)
	if _, ok := p.Value("memory_type"); ok {
		memType = MemoryType(strings.ToLower(p.GetReply("memory_type").String()))
	}
	switch memType {
	case TypeWorking, TypeProcedural, TypeAll:
	default:
		return nil, coreerrors.New(coreerrors.KindToolExecution, "memory_retrieval: unknown memory_type "+string(memType))
	}

	limit := defaultLimit
	if _, ok := p.Value("limit"); ok {
		limit = p.GetReply("limit").Int()
	}
	if limit <= 0 {
		limit = defaultLimit
	}

	minSuccess := defaultMinSuccess
	if _, ok := p.Value("min_success_score"); ok {
		minSuccess = p.GetReply("min_success_score").Float64()
	}

	return &Params{Query: query, MemoryType: memType, Limit: limit, MinSuccessScore: minSuccess}, nil
}
