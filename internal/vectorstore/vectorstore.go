// Package vectorstore abstracts the three named collections of §6: the RAG
// corpus, per-session working memory, and procedural memory, all backed by
// one physical store (internal/vectorstore/qdrant), grounded on the
// teacher's ai/vectorstore similarity-search contract.
package vectorstore

import (
	"context"

	"github.com/arborix/tot/internal/document"
)

// Collection names the three logical collections sharing one backend.
type Collection string

const (
	CollectionRAGCorpus        Collection = "rag_corpus"
	CollectionWorkingMemory    Collection = "working_memory"
	CollectionProceduralMemory Collection = "procedural_memory"
)

// Filter is an opaque equality filter applied to metadata during search/get/delete.
type Filter map[string]any

// GetResult mirrors the {documents, metadatas, ids} shape of §6.
type GetResult struct {
	IDs       []string
	Documents []*document.Document
}

// Store is the vector-store contract every core component depends on.
type Store interface {
	SimilaritySearch(ctx context.Context, collection Collection, query string, k int, filter Filter) ([]*document.Document, error)
	AddDocuments(ctx context.Context, collection Collection, docs []*document.Document) error
	Get(ctx context.Context, collection Collection, filter Filter) (GetResult, error)
	Upsert(ctx context.Context, collection Collection, id string, doc *document.Document) error
	Delete(ctx context.Context, collection Collection, filter Filter) error
}

// ErrUnavailable is returned by a Store when the backend cannot be reached;
// callers degrade per their own fallback policy (coreerrors.KindMemoryDegraded
// for memory operations, "index missing"-style fallback for RAG).
type ErrUnavailable struct{ Cause error }

func (e *ErrUnavailable) Error() string { return "vector store unavailable: " + e.Cause.Error() }
func (e *ErrUnavailable) Unwrap() error { return e.Cause }
