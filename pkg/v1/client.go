package v1

import (
	"context"
	"fmt"
	"math/rand/v2"
	"path/filepath"

	"github.com/4thel00z/emo/internal"
)

// Client provides programmatic access to emoji lookup and saved memos.
type Client struct {
	configPath string
	dataset    *internal.Dataset
	rng        *rand.Rand
}

// New creates a new Client with the given options.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{}
	for _, opt := range opts {
		opt(cfg)
	}

	configPath := filepath.Join(cfg.configDir, "config.json")
	if cfg.configDir == "" {
		paths, err := internal.ResolvePaths()
		if err != nil {
			return nil, err
		}
		configPath = paths.ConfigPath()
	}

	dataset, err := internal.LoadDataset()
	if err != nil {
		return nil, err
	}

	var rng *rand.Rand
	if cfg.seed != nil {
		rng = rand.New(rand.NewPCG(*cfg.seed, *cfg.seed))
	}

	return &Client{
		configPath: configPath,
		dataset:    dataset,
		rng:        rng,
	}, nil
}

// Search returns up to count emoji for term. A saved memo for term comes first.
func (c *Client) Search(ctx context.Context, term string, count int) ([]Emoji, error) {
	return c.resolve(ctx, internal.Flags{Query: term, Count: count})
}

// Define describes the emoji at the start of query, or the best match for it.
func (c *Client) Define(ctx context.Context, query string) (Emoji, error) {
	out, err := c.resolve(ctx, internal.Flags{Query: query, Define: true})
	if err != nil {
		return Emoji{}, err
	}
	return out[0], nil
}

// Random draws count emoji uniformly; duplicates are possible.
func (c *Client) Random(ctx context.Context, count int) ([]Emoji, error) {
	return c.resolve(ctx, internal.Flags{Count: count, Random: true})
}

// SaveMemo maps term to ref, which is either an emoji or a 1-based index
// into the search results for term.
func (c *Client) SaveMemo(ctx context.Context, term, ref string) (Memo, error) {
	cfg, err := internal.LoadConfig(c.configPath)
	if err != nil {
		return Memo{}, err
	}

	m, err := internal.NewMemoService(c.configPath, c.dataset).Save(cfg, term, ref)
	if err != nil {
		return Memo{}, fmt.Errorf("save memo: %w", err)
	}
	return Memo{Term: m.Term, Glyph: m.Glyph}, nil
}

// EraseMemo removes the memo for term.
func (c *Client) EraseMemo(ctx context.Context, term string) error {
	cfg, err := internal.LoadConfig(c.configPath)
	if err != nil {
		return err
	}

	if err := internal.NewMemoService(c.configPath, c.dataset).Erase(cfg, term); err != nil {
		return fmt.Errorf("erase memo: %w", err)
	}
	return nil
}

// Memos returns all saved memos sorted by term.
func (c *Client) Memos(ctx context.Context) ([]Memo, error) {
	cfg, err := internal.LoadConfig(c.configPath)
	if err != nil {
		return nil, err
	}

	memos := cfg.Memos()
	out := make([]Memo, 0, len(memos))
	for _, m := range memos {
		out = append(out, Memo{Term: m.Term, Glyph: m.Glyph})
	}
	return out, nil
}

// Close releases any resources held by the client.
func (c *Client) Close() error {
	return nil
}

func (c *Client) resolve(ctx context.Context, flags internal.Flags) ([]Emoji, error) {
	cfg, err := internal.LoadConfig(c.configPath)
	if err != nil {
		return nil, err
	}

	req := internal.NewRequest(flags)
	res, err := internal.NewResolver(c.dataset, cfg.Mappings, nil, c.rng).Resolve(ctx, req)
	if err != nil {
		return nil, err
	}

	out := make([]Emoji, 0, len(res.Candidates))
	for _, cand := range res.Candidates {
		out = append(out, Emoji{
			Glyph:      cand.Glyph,
			Name:       cand.Name,
			Definition: cand.Definition,
			Rank:       cand.Rank,
			Source:     string(cand.Source),
		})
	}
	return out, nil
}
