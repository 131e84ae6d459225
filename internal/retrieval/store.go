package retrieval

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"runtime"
	"sync"
)

// Document is a text blob with a stable identifier.
type Document struct {
	ID   string
	Text string
}

// Hit is one search result.
type Hit struct {
	DocID string  `json:"doc_id"`
	Text  string  `json:"text"`
	Score float64 `json:"score"`
}

// Options configure a Store.
type Options struct {
	Dim int
	// Accelerated requests the parallel index. The store falls back to a
	// brute-force scan when the host cannot run it.
	Accelerated bool
	// Workers caps search parallelism; 0 means runtime.NumCPU().
	Workers int
}

// Store indexes documents as vectors and answers nearest-neighbour queries.
// Documents and vectors are kept in parallel, insertion-ordered slices.
// Safe for concurrent use.
type Store struct {
	mu   sync.RWMutex
	dim  int
	docs []Document
	idx  index
}

// NewStore creates an empty store, selecting the index strategy once.
func NewStore(opts Options) *Store {
	dim := opts.Dim
	if dim <= 0 {
		dim = DefaultDim
	}
	return &Store{dim: dim, idx: selectIndex(opts)}
}

// selectIndex checks the runtime and picks the search strategy.
func selectIndex(opts Options) index {
	if !opts.Accelerated {
		return &flatIndex{}
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	if workers < 2 {
		log.Printf("[retrieval] accelerated index unavailable (workers=%d), falling back to flat scan", workers)
		return &flatIndex{}
	}
	return &parallelIndex{workers: workers}
}

// Backend names the active index strategy ("flat" or "parallel").
func (s *Store) Backend() string { return s.idx.name() }

// Dim returns the embedding width.
func (s *Store) Dim() int { return s.dim }

// Len returns the number of indexed documents.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

// Ingest embeds and appends documents.
func (s *Store) Ingest(docs ...Document) {
	if len(docs) == 0 {
		return
	}
	vecs := make([][]float32, len(docs))
	for i, d := range docs {
		vecs[i] = Embed(d.Text, s.dim)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs = append(s.docs, docs...)
	s.idx.add(vecs...)
}

// Search returns up to topK documents ranked by inner-product similarity
// to query, highest first. Equal scores keep insertion order.
func (s *Store) Search(query string, topK int) []Hit {
	// A background context is never cancelled, so no error is possible.
	hits, _ := s.SearchContext(context.Background(), query, topK)
	return hits
}

// SearchContext is Search bounded by ctx. It returns ctx's error when the
// context ends before the scan completes.
func (s *Store) SearchContext(ctx context.Context, query string, topK int) ([]Hit, error) {
	if topK <= 0 {
		return nil, nil
	}
	q := Embed(query, s.dim)

	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.docs) == 0 {
		return nil, nil
	}

	ranked, err := s.idx.search(ctx, q, topK)
	if err != nil {
		return nil, fmt.Errorf("retrieval: search: %w", err)
	}
	hits := make([]Hit, len(ranked))
	for i, h := range ranked {
		doc := s.docs[h.pos]
		hits[i] = Hit{DocID: doc.ID, Text: doc.Text, Score: float64(h.score)}
	}
	return hits, nil
}

// LoadDir ingests every file in dir matching glob, using the file name as
// the document id. A missing directory is not an error.
func (s *Store) LoadDir(dir, glob string) (int, error) {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		log.Printf("[retrieval] path %s does not exist, skipping", dir)
		return 0, nil
	}
	if glob == "" {
		glob = "*.txt"
	}

	paths, err := filepath.Glob(filepath.Join(dir, glob))
	if err != nil {
		return 0, fmt.Errorf("retrieval: glob %s: %w", glob, err)
	}

	var docs []Document
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		b, err := os.ReadFile(p)
		if err != nil {
			return 0, fmt.Errorf("retrieval: read %s: %w", p, err)
		}
		docs = append(docs, Document{ID: filepath.Base(p), Text: string(b)})
	}

	s.Ingest(docs...)
	if len(docs) > 0 {
		log.Printf("[retrieval] indexed %d documents from %s (%s index)", len(docs), dir, s.Backend())
	}
	return len(docs), nil
}
