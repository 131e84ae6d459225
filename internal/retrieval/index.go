package retrieval

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"
)

// hit is a scored position into the store's insertion order.
type hit struct {
	pos   int
	score float32
}

// index is the vector search strategy behind a Store. Implementations must
// return identical results for identical input; only latency may differ.
type index interface {
	add(vecs ...[]float32)
	search(ctx context.Context, q []float32, k int) ([]hit, error)
	size() int
	name() string
}

// rankHits orders by score descending, then insertion order, and keeps k.
func rankHits(hits []hit, k int) []hit {
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].score != hits[j].score {
			return hits[i].score > hits[j].score
		}
		return hits[i].pos < hits[j].pos
	})
	if len(hits) > k {
		hits = hits[:k]
	}
	return hits
}

// ─── Brute force ────────────────────────────────────────────

// flatIndex scans every stored vector on each query.
type flatIndex struct {
	vecs [][]float32
}

func (f *flatIndex) add(vecs ...[]float32) { f.vecs = append(f.vecs, vecs...) }
func (f *flatIndex) size() int             { return len(f.vecs) }
func (f *flatIndex) name() string          { return "flat" }

func (f *flatIndex) search(ctx context.Context, q []float32, k int) ([]hit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return scan(f.vecs, 0, q, k), nil
}

// scan scores vecs (whose first element sits at offset in the store) and
// returns the local top k.
func scan(vecs [][]float32, offset int, q []float32, k int) []hit {
	hits := make([]hit, len(vecs))
	for i, v := range vecs {
		hits[i] = hit{pos: offset + i, score: dot(v, q)}
	}
	return rankHits(hits, k)
}

// ─── Accelerated ────────────────────────────────────────────

// parallelIndex splits the scan into contiguous shards searched
// concurrently, then merges the per-shard top k.
type parallelIndex struct {
	vecs    [][]float32
	workers int
}

// minShard keeps tiny stores on a single goroutine.
const minShard = 64

func (p *parallelIndex) add(vecs ...[]float32) { p.vecs = append(p.vecs, vecs...) }
func (p *parallelIndex) size() int             { return len(p.vecs) }
func (p *parallelIndex) name() string          { return "parallel" }

// search stops scheduling shard scans once ctx is done and returns its error.
func (p *parallelIndex) search(ctx context.Context, q []float32, k int) ([]hit, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n := len(p.vecs)
	shard := (n + p.workers - 1) / p.workers
	if shard < minShard {
		shard = minShard
	}
	if shard >= n {
		return scan(p.vecs, 0, q, k), nil
	}

	shards := (n + shard - 1) / shard
	partial := make([][]hit, shards)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for s := 0; s < shards; s++ {
		lo := s * shard
		hi := lo + shard
		if hi > n {
			hi = n
		}
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			partial[s] = scan(p.vecs[lo:hi], lo, q, k)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged := make([]hit, 0, shards*k)
	for _, h := range partial {
		merged = append(merged, h...)
	}
	return rankHits(merged, k), nil
}
