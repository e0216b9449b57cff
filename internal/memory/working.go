package memory

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/arborix/tot/internal/cache"
	"github.com/arborix/tot/internal/document"
	"github.com/arborix/tot/internal/vectorstore"
)

// WorkingStore holds the append-only per-session trace in an in-process TTL
// cache. When a vector store is configured, each appended entry is also
// written to it (write errors are ignored), but Load reads only the
// in-process cache: the vector-store copy is never read back, so a trace
// does not survive a process restart.
type WorkingStore struct {
	vs    vectorstore.Store // may be nil
	ttl   *cache.TTLCache[[]WorkingMemoryEntry]
	mu    sync.Mutex
}

func NewWorkingStore(vs vectorstore.Store, ttl time.Duration) *WorkingStore {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &WorkingStore{vs: vs, ttl: cache.New[[]WorkingMemoryEntry](ttl)}
}

// Append adds one entry to a session's trace. It never returns an error to
// the caller's critical path: vector-store failures fall back to the
// in-process cache silently.
func (s *WorkingStore) Append(ctx context.Context, entry WorkingMemoryEntry) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, _ := s.ttl.Get(entry.SessionID)
	existing = append(existing, entry)
	s.ttl.Set(entry.SessionID, existing)

	if s.vs == nil {
		return
	}
	doc := entryToDocument(entry)
	_ = s.vs.AddDocuments(ctx, vectorstore.CollectionWorkingMemory, []*document.Document{doc})
}

func entryToDocument(entry WorkingMemoryEntry) *document.Document {
	d := document.New(entry.Thought, "working_memory:"+entry.SessionID)
	paramsJSON, _ := json.Marshal(entry.ToolParams)
	d.Metadata = map[string]any{
		"session_id":   entry.SessionID,
		"iteration":    entry.Iteration,
		"node_id":      entry.NodeID,
		"depth":        entry.Depth,
		"tool_used":    entry.ToolUsed,
		"tool_params":  string(paramsJSON),
		"observation":  entry.Observation,
		"completeness": entry.Completeness,
		"timestamp":    entry.Timestamp,
	}
	return d
}

// Load returns the trace for a session, newest-entry-last. Typically empty
// for a brand-new session, per spec.
func (s *WorkingStore) Load(sessionID string) []WorkingMemoryEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	entries, _ := s.ttl.Get(sessionID)
	out := make([]WorkingMemoryEntry, len(entries))
	copy(out, entries)
	return out
}
