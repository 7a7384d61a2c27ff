package convert

import "context"

// Pool bounds the number of conversions running at once. Office suites are
// heavyweight processes, so concurrent view requests queue on a semaphore
// instead of forking an unbounded number of them.
type Pool struct {
	conv Converter
	sem  chan struct{}
}

func NewPool(conv Converter, workers int) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{conv: conv, sem: make(chan struct{}, workers)}
}

func (p *Pool) Convert(ctx context.Context, src string, outdir string) (string, error) {
	select {
	case p.sem <- struct{}{}:
	case <-ctx.Done():
		return "", ctx.Err()
	}
	defer func() { <-p.sem }()

	return p.conv.Convert(ctx, src, outdir)
}
