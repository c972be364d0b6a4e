package engine

import (
	"context"

	"github.com/Jeffail/tunny"

	"github.com/cyraxred/bleanser/relation"
)

// chunkResult is what a single worker produces: its chunk's relations,
// materialised (spec §4.3.2: "forcing materialisation is mandatory;
// handing back a lazy iterator would re-serialise the work"), plus the
// chunk's first and last input paths so the engine can stitch chunks
// together afterwards.
type chunkResult struct {
	relations []relation.Relation
	first     string
	last      string
	err       error
}

// chunkWorker adapts Engine.runChunk to tunny's Worker interface - the
// same shape the teacher's internal/plumbing/uast.worker implements.
type chunkWorker struct {
	ctx context.Context
	e   *Engine
}

func (w chunkWorker) Process(data interface{}) interface{} {
	return w.e.runChunk(w.ctx, data.([]string))
}
func (w chunkWorker) BlockUntilReady() {}
func (w chunkWorker) Interrupt()       {}
func (w chunkWorker) Terminate()       {}

// runParallel implements spec.md §4.3.2: inputs are split into `workers`
// contiguous chunks, each run through the serial algorithm on its own
// tunny.Pool task, then reassembled in chunk order with a synthetic
// DIFFERENT stitch relation between adjacent chunks.
func (e *Engine) runParallel(ctx context.Context, inputs []string, workers int, out chan<- relation.Relation, fatal chan<- error) {
	defer close(out)
	defer close(fatal)

	chunks := splitChunks(inputs, workers)

	pool := tunny.New(workers, func() tunny.Worker {
		return chunkWorker{ctx: ctx, e: e}
	})
	defer pool.Close()

	results := make([]chunkResult, len(chunks))
	done := make(chan int, len(chunks))
	for i, chunk := range chunks {
		i, chunk := i, chunk
		go func() {
			results[i] = pool.Process(chunk).(chunkResult)
			done <- i
		}()
	}
	for range chunks {
		<-done
	}

	var total int
	for i, res := range results {
		if res.err != nil {
			select {
			case fatal <- res.err:
			default:
			}
			return
		}
		for _, rel := range res.relations {
			select {
			case out <- rel:
			case <-ctx.Done():
				return
			}
			total++
		}
		if i+1 < len(results) {
			select {
			case out <- relation.Relation{
				Before: res.last,
				After:  results[i+1].first,
				Diff:   relation.Diff{Cmp: relation.DIFFERENT},
			}:
			case <-ctx.Done():
				return
			}
			total++
		}
	}
}

// runChunk runs the serial algorithm (own scope, own scratch directory)
// over a single chunk and materialises its relations.
func (e *Engine) runChunk(ctx context.Context, chunk []string) chunkResult {
	res := chunkResult{first: chunk[0], last: chunk[len(chunk)-1]}
	if len(chunk) < 2 {
		return res
	}

	serialOut, serialFatal := make(chan relation.Relation), make(chan error, 1)
	go e.runSerial(ctx, chunk, serialOut, serialFatal)

	for rel := range serialOut {
		res.relations = append(res.relations, rel)
	}
	if err := <-serialFatal; err != nil {
		res.err = err
	}
	return res
}

// splitChunks partitions inputs into n contiguous, near-equal chunks. n
// is assumed already capped at len(inputs) by Config.resolvedWorkers.
func splitChunks(inputs []string, n int) [][]string {
	if n <= 1 {
		return [][]string{inputs}
	}
	chunks := make([][]string, 0, n)
	base := len(inputs) / n
	rem := len(inputs) % n
	start := 0
	for i := 0; i < n; i++ {
		size := base
		if i < rem {
			size++
		}
		if size == 0 {
			continue
		}
		chunks = append(chunks, inputs[start:start+size])
		start += size
	}
	return chunks
}
