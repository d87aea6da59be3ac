// Package fileproc provides concurrent file processing utilities.
package fileproc

import (
	"context"
	"runtime"

	"github.com/sourcegraph/conc/pool"
)

// DefaultWorkerMultiplier is the multiplier applied to NumCPU for worker count.
// 2x is optimal for mixed I/O and CGO workloads.
const DefaultWorkerMultiplier = 2

// DefaultChunkSize is the number of files processed between checkpoints.
const DefaultChunkSize = 50

// DoneFunc is called after each file is processed successfully.
// It runs on the worker goroutine and must not block.
type DoneFunc func(path string)

// ChunkOptions controls MapChunked.
type ChunkOptions struct {
	// ChunkSize bounds the number of files in flight between checkpoints.
	// Defaults to DefaultChunkSize when <= 0.
	ChunkSize int
	// Workers bounds concurrency within a chunk. Defaults to 2x NumCPU when <= 0.
	Workers int
	// Checkpoint runs after every chunk except the last.
	Checkpoint func()
}

func (o ChunkOptions) withDefaults() ChunkOptions {
	if o.ChunkSize <= 0 {
		o.ChunkSize = DefaultChunkSize
	}
	if o.Workers <= 0 {
		o.Workers = runtime.NumCPU() * DefaultWorkerMultiplier
	}
	return o
}

// Chunks splits files into consecutive slices of at most size elements.
func Chunks(files []string, size int) [][]string {
	if size <= 0 {
		size = DefaultChunkSize
	}
	out := make([][]string, 0, (len(files)+size-1)/size)
	for start := 0; start < len(files); start += size {
		out = append(out, files[start:min(start+size, len(files))])
	}
	return out
}

// MapChunked processes files chunk by chunk, running fn concurrently within
// each chunk. Results are returned in input order. The first error cancels
// the remaining work and is returned unchanged; no partial results are
// returned on error.
func MapChunked[T any](ctx context.Context, files []string, opts ChunkOptions, fn func(context.Context, string) (T, error), onDone DoneFunc) ([]T, error) {
	if len(files) == 0 {
		return nil, nil
	}
	opts = opts.withDefaults()

	results := make([]T, len(files))
	offset := 0
	chunks := Chunks(files, opts.ChunkSize)
	for n, chunk := range chunks {
		p := pool.New().
			WithMaxGoroutines(opts.Workers).
			WithContext(ctx).
			WithCancelOnError().
			WithFirstError()

		for i, path := range chunk {
			idx := offset + i
			p.Go(func(ctx context.Context) error {
				if err := ctx.Err(); err != nil {
					return err
				}
				result, err := fn(ctx, path)
				if err != nil {
					return err
				}
				results[idx] = result
				if onDone != nil {
					onDone(path)
				}
				return nil
			})
		}
		if err := p.Wait(); err != nil {
			return nil, err
		}

		offset += len(chunk)
		if n < len(chunks)-1 && opts.Checkpoint != nil {
			opts.Checkpoint()
		}
	}
	return results, nil
}
