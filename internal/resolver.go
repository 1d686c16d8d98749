package internal

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand/v2"
)

// Resolver maps a Request to the generator for its mode. It only holds
// values handed to it, so tests can run it without touching the filesystem.
type Resolver struct {
	catalog  Catalog
	memos    map[string]string
	selector Selector
	rng      *rand.Rand
}

// NewResolver builds a resolver. selector may be nil when no AI mode is used;
// rng defaults to a randomly seeded PCG source.
func NewResolver(catalog Catalog, memos map[string]string, selector Selector, rng *rand.Rand) *Resolver {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	if memos == nil {
		memos = map[string]string{}
	}
	return &Resolver{
		catalog:  catalog,
		memos:    memos,
		selector: selector,
		rng:      rng,
	}
}

func (r *Resolver) Generator(mode Mode) (Generator, error) {
	switch mode {
	case ModeAI:
		if r.selector == nil {
			return nil, fmt.Errorf("%w: no model configured", ErrModelUnavailable)
		}
		return &AIGenerator{Selector: r.selector}, nil
	case ModeAISentence:
		if r.selector == nil {
			return nil, fmt.Errorf("%w: no model configured", ErrModelUnavailable)
		}
		return &SentenceGenerator{Selector: r.selector}, nil
	case ModeRandom:
		return &RandomGenerator{Catalog: r.catalog, Rand: r.rng}, nil
	case ModeDefine:
		return &DefineGenerator{Catalog: r.catalog}, nil
	case ModeSearch:
		return &CompositeGenerator{
			Memo:   &MemoGenerator{Memos: r.memos, Catalog: r.catalog},
			Search: &SearchGenerator{Searcher: r.catalog},
		}, nil
	default:
		return nil, fmt.Errorf("unknown mode %q", mode)
	}
}

func (r *Resolver) Resolve(ctx context.Context, req Request) (*Result, error) {
	gen, err := r.Generator(req.Mode)
	if err != nil {
		return nil, err
	}

	slog.Debug("resolving request", "mode", req.Mode, "query", req.Query, "count", req.Count)

	res, err := gen.Generate(ctx, req)
	if err != nil {
		return nil, err
	}

	if res.Shortfall > 0 {
		slog.Debug("short result", "mode", req.Mode, "requested", res.Requested, "shortfall", res.Shortfall)
	}

	return res, nil
}
