package stt

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"
)

// DefaultBatchSize is used when a caller passes a non-positive batch size.
const DefaultBatchSize = 4

func checkInputs(inputs []Input, languages []string) error {
	if len(inputs) != len(languages) {
		return fmt.Errorf("got %d inputs but %d languages", len(inputs), len(languages))
	}
	return nil
}

// transcribeEach runs fn for every input with at most batchSize calls in
// flight and stores each text at its input's index.
func transcribeEach(ctx context.Context, inputs []Input, languages []string, batchSize int,
	fn func(ctx context.Context, in Input, language string) (string, error)) ([]string, error) {
	if err := checkInputs(inputs, languages); err != nil {
		return nil, err
	}
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	out := make([]string, len(inputs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(batchSize)
	for i := range inputs {
		g.Go(func() error {
			text, err := fn(gctx, inputs[i], languages[i])
			if err != nil {
				return fmt.Errorf("input %d (%s): %w", i, inputs[i].Name, err)
			}
			out[i] = text
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// batches splits n items into consecutive [start, end) ranges of at most size.
func batches(n, size int) [][2]int {
	if size <= 0 {
		size = DefaultBatchSize
	}
	var out [][2]int
	for start := 0; start < n; start += size {
		out = append(out, [2]int{start, min(start+size, n)})
	}
	return out
}
