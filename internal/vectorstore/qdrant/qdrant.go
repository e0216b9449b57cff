// Package qdrant is the concrete vectorstore.Store backed by Qdrant,
// hosting all three named collections (§6) as three Qdrant collections on
// one client, grounded on Tangerg-lynx's providers/vectorstores Qdrant
// wiring (go-client direct dependency).
package qdrant

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	qdrantclient "github.com/qdrant/go-client/qdrant"

	"github.com/arborix/tot/internal/document"
	"github.com/arborix/tot/internal/vectorstore"
)

// Embedder produces a vector embedding for a piece of text. The core does
// not implement embeddings itself (Non-goals); this is an injected adapter.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Store is a vectorstore.Store implementation backed by a Qdrant instance.
type Store struct {
	client   *qdrantclient.Client
	embedder Embedder
	vectorSize uint64
}

// New dials addr and returns a Store. Collections are created lazily by
// EnsureCollection, not here, so construction never fails on a cold cluster.
func New(addr string, embedder Embedder, vectorSize uint64) (*Store, error) {
	client, err := qdrantclient.NewClient(&qdrantclient.Config{
		Host: addr,
	})
	if err != nil {
		return nil, &vectorstore.ErrUnavailable{Cause: err}
	}
	return &Store{client: client, embedder: embedder, vectorSize: vectorSize}, nil
}

// EnsureCollection creates the named collection if it does not already exist.
func (s *Store) EnsureCollection(ctx context.Context, collection vectorstore.Collection) error {
	exists, err := s.client.CollectionExists(ctx, string(collection))
	if err != nil {
		return &vectorstore.ErrUnavailable{Cause: err}
	}
	if exists {
		return nil
	}
	return s.client.CreateCollection(ctx, &qdrantclient.CreateCollection{
		CollectionName: string(collection),
		VectorsConfig: qdrantclient.NewVectorsConfig(&qdrantclient.VectorParams{
			Size:     s.vectorSize,
			Distance: qdrantclient.Distance_Cosine,
		}),
	})
}

func (s *Store) SimilaritySearch(ctx context.Context, collection vectorstore.Collection, query string, k int, filter vectorstore.Filter) ([]*document.Document, error) {
	vec, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, &vectorstore.ErrUnavailable{Cause: err}
	}
	limit := uint64(k)
	points, err := s.client.Query(ctx, &qdrantclient.QueryPoints{
		CollectionName: string(collection),
		Query:          qdrantclient.NewQuery(vec...),
		Limit:          &limit,
		Filter:         toQdrantFilter(filter),
		WithPayload:    qdrantclient.NewWithPayload(true),
	})
	if err != nil {
		return nil, &vectorstore.ErrUnavailable{Cause: err}
	}
	out := make([]*document.Document, 0, len(points))
	for _, p := range points {
		out = append(out, payloadToDocument(p.GetPayload(), float64(p.GetScore())))
	}
	return out, nil
}

func (s *Store) AddDocuments(ctx context.Context, collection vectorstore.Collection, docs []*document.Document) error {
	points := make([]*qdrantclient.PointStruct, 0, len(docs))
	for _, d := range docs {
		vec, err := s.embedder.Embed(ctx, d.Content)
		if err != nil {
			return &vectorstore.ErrUnavailable{Cause: err}
		}
		points = append(points, &qdrantclient.PointStruct{
			Id:      qdrantclient.NewIDUUID(uuid.NewString()),
			Vectors: qdrantclient.NewVectors(vec...),
			Payload: documentToPayload(d),
		})
	}
	_, err := s.client.Upsert(ctx, &qdrantclient.UpsertPoints{
		CollectionName: string(collection),
		Points:         points,
	})
	if err != nil {
		return &vectorstore.ErrUnavailable{Cause: err}
	}
	return nil
}

func (s *Store) Get(ctx context.Context, collection vectorstore.Collection, filter vectorstore.Filter) (vectorstore.GetResult, error) {
	points, err := s.client.Scroll(ctx, &qdrantclient.ScrollPoints{
		CollectionName: string(collection),
		Filter:         toQdrantFilter(filter),
		WithPayload:    qdrantclient.NewWithPayload(true),
	})
	if err != nil {
		return vectorstore.GetResult{}, &vectorstore.ErrUnavailable{Cause: err}
	}
	res := vectorstore.GetResult{}
	for _, p := range points {
		res.IDs = append(res.IDs, fmt.Sprint(p.GetId()))
		res.Documents = append(res.Documents, payloadToDocument(p.GetPayload(), 0))
	}
	return res, nil
}

func (s *Store) Upsert(ctx context.Context, collection vectorstore.Collection, id string, doc *document.Document) error {
	vec, err := s.embedder.Embed(ctx, doc.Content)
	if err != nil {
		return &vectorstore.ErrUnavailable{Cause: err}
	}
	_, err = s.client.Upsert(ctx, &qdrantclient.UpsertPoints{
		CollectionName: string(collection),
		Points: []*qdrantclient.PointStruct{{
			Id:      qdrantclient.NewIDUUID(id),
			Vectors: qdrantclient.NewVectors(vec...),
			Payload: documentToPayload(doc),
		}},
	})
	if err != nil {
		return &vectorstore.ErrUnavailable{Cause: err}
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, collection vectorstore.Collection, filter vectorstore.Filter) error {
	_, err := s.client.Delete(ctx, &qdrantclient.DeletePoints{
		CollectionName: string(collection),
		Points:         qdrantclient.NewPointsSelectorFilter(toQdrantFilter(filter)),
	})
	if err != nil {
		return &vectorstore.ErrUnavailable{Cause: err}
	}
	return nil
}

func toQdrantFilter(f vectorstore.Filter) *qdrantclient.Filter {
	if len(f) == 0 {
		return nil
	}
	conditions := make([]*qdrantclient.Condition, 0, len(f))
	for k, v := range f {
		conditions = append(conditions, qdrantclient.NewMatch(k, fmt.Sprint(v)))
	}
	return &qdrantclient.Filter{Must: conditions}
}

func documentToPayload(d *document.Document) map[string]*qdrantclient.Value {
	payload := qdrantclient.NewValueMap(map[string]any{
		"content": d.Content,
		"source":  d.Source,
	})
	for k, v := range d.Metadata {
		payload[k] = qdrantclient.NewValue(v)
	}
	return payload
}

func payloadToDocument(payload map[string]*qdrantclient.Value, score float64) *document.Document {
	d := document.New("", "")
	d.Score = score
	for k, v := range payload {
		switch k {
		case "content":
			d.Content = v.GetStringValue()
		case "source":
			d.Source = v.GetStringValue()
		default:
			d.Metadata[k] = v
		}
	}
	return d
}
