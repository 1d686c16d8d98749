package internal

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
)

type Source string

const (
	SourceSearch Source = "search"
	SourceMemo   Source = "memo"
	SourceRandom Source = "random"
	SourceAI     Source = "ai"
)

// Candidate is one emoji produced by any selection source.
type Candidate struct {
	Glyph      string
	Name       string
	Definition string
	Rank       int
	Source     Source
}

type Mode string

const (
	ModeSearch     Mode = "search"
	ModeAI         Mode = "ai"
	ModeAISentence Mode = "ai-sentence"
	ModeRandom     Mode = "random"
	ModeDefine     Mode = "define"
)

// Flags are the selection related command line switches of one invocation.
type Flags struct {
	Query       string
	Count       int
	Sentence    int
	SentenceSet bool
	AI          bool
	Model       string
	Random      bool
	Define      bool
}

// Request is the resolved, immutable selection request.
type Request struct {
	Mode           Mode
	Query          string
	Count          int
	SentenceLength int
}

// NewRequest applies the mode precedence: ai, random, define, search.
// Choosing a model implies ai.
func NewRequest(f Flags) Request {
	req := Request{
		Mode:  ModeSearch,
		Query: strings.TrimSpace(f.Query),
		Count: f.Count,
	}
	if req.Count < 1 {
		req.Count = 1
	}

	switch {
	case f.AI || f.Model != "":
		req.Mode = ModeAI
		if f.SentenceSet {
			req.Mode = ModeAISentence
			req.SentenceLength = f.Sentence
		}
	case f.Random:
		req.Mode = ModeRandom
	case f.Define:
		req.Mode = ModeDefine
		req.Count = 1
	}

	return req
}

type Result struct {
	Candidates []Candidate
	Sentences  [][]Candidate
	Requested  int
	Shortfall  int
	Warnings   []string
}

func (r *Result) Glyphs() []string {
	glyphs := make([]string, len(r.Candidates))
	for i, c := range r.Candidates {
		glyphs[i] = c.Glyph
	}
	return glyphs
}

type Generator interface {
	Generate(ctx context.Context, req Request) (*Result, error)
}

type Searcher interface {
	Search(term string, limit int) []Candidate
}

// Catalog is the read side of the emoji dataset.
type Catalog interface {
	Searcher
	Find(glyph string) (Candidate, bool)
	Pick(rng *rand.Rand) (Candidate, bool)
}

// Selector picks emoji with a language model.
type Selector interface {
	Select(ctx context.Context, text string, exclusions []string) (Candidate, error)
	Sentence(ctx context.Context, text string, length int) ([]Candidate, error)
}

type SearchGenerator struct {
	Searcher Searcher
}

func (g *SearchGenerator) Generate(_ context.Context, req Request) (*Result, error) {
	if req.Query == "" {
		return nil, ErrEmptyQuery
	}

	found := g.Searcher.Search(req.Query, req.Count)
	if len(found) == 0 {
		return nil, fmt.Errorf("%w: '%s'", ErrNoMatch, req.Query)
	}

	return newResult(req.Count, rerank(found)), nil
}

type MemoGenerator struct {
	Memos   map[string]string
	Catalog Catalog
}

func (g *MemoGenerator) Lookup(term string) (Candidate, bool) {
	glyph, ok := g.Memos[term]
	if !ok || glyph == "" {
		return Candidate{}, false
	}

	c := Candidate{Glyph: glyph}
	if g.Catalog != nil {
		if known, found := g.Catalog.Find(glyph); found {
			c = known
			c.Glyph = glyph
		}
	}
	c.Rank = 1
	c.Source = SourceMemo
	return c, true
}

func (g *MemoGenerator) Generate(_ context.Context, req Request) (*Result, error) {
	if req.Query == "" {
		return nil, ErrEmptyQuery
	}

	c, ok := g.Lookup(req.Query)
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", ErrMemoNotFound, req.Query)
	}

	return newResult(1, []Candidate{c}), nil
}

// CompositeGenerator puts a saved memo in slot 1 and fills the remaining
// slots from search, never repeating the memo glyph.
type CompositeGenerator struct {
	Memo   *MemoGenerator
	Search *SearchGenerator
}

func (g *CompositeGenerator) Generate(ctx context.Context, req Request) (*Result, error) {
	if req.Query == "" {
		return nil, ErrEmptyQuery
	}

	memo, ok := g.Memo.Lookup(req.Query)
	if !ok {
		return g.Search.Generate(ctx, req)
	}

	out := []Candidate{memo}
	if req.Count > 1 {
		for _, c := range g.Search.Searcher.Search(req.Query, req.Count) {
			if sameGlyph(c.Glyph, memo.Glyph) {
				continue
			}
			out = append(out, c)
			if len(out) == req.Count {
				break
			}
		}
	}

	return newResult(req.Count, rerank(out)), nil
}

type RandomGenerator struct {
	Catalog Catalog
	Rand    *rand.Rand
}

func (g *RandomGenerator) Generate(_ context.Context, req Request) (*Result, error) {
	out := make([]Candidate, 0, req.Count)
	for range req.Count {
		c, ok := g.Catalog.Pick(g.Rand)
		if !ok {
			break
		}
		out = append(out, c)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: emoji table is empty", ErrNoMatch)
	}

	return newResult(req.Count, rerank(out)), nil
}

// DefineGenerator resolves the query itself when it starts with a known
// emoji, otherwise the first search hit.
type DefineGenerator struct {
	Catalog Catalog
}

func (g *DefineGenerator) Generate(_ context.Context, req Request) (*Result, error) {
	if req.Query == "" {
		return nil, ErrEmptyQuery
	}

	if c, ok := g.Catalog.Find(FirstGrapheme(req.Query)); ok {
		c.Rank = 1
		return newResult(1, []Candidate{c}), nil
	}

	found := g.Catalog.Search(req.Query, 1)
	if len(found) == 0 {
		return nil, fmt.Errorf("%w: '%s'", ErrNoMatch, req.Query)
	}

	return newResult(1, rerank(found)), nil
}

const defaultAIAttempts = 3

// AIGenerator asks the selector once per slot, excluding everything already
// chosen in the batch.
type AIGenerator struct {
	Selector    Selector
	MaxAttempts int
}

func (g *AIGenerator) Generate(ctx context.Context, req Request) (*Result, error) {
	if req.Query == "" {
		return nil, ErrEmptyQuery
	}

	attempts := g.MaxAttempts
	if attempts < 1 {
		attempts = defaultAIAttempts
	}

	res := &Result{Requested: req.Count}
	exclusions := make([]string, 0, req.Count)

	for slot := range req.Count {
		var picked Candidate
		for attempt := 1; ; attempt++ {
			c, err := g.Selector.Select(ctx, req.Query, exclusions)
			if err != nil {
				return nil, fmt.Errorf("select emoji %d of %d: %w", slot+1, req.Count, err)
			}
			if !containsGlyph(exclusions, c.Glyph) {
				picked = c
				break
			}
			if attempt >= attempts {
				res.Warnings = append(res.Warnings,
					fmt.Sprintf("model repeated %s after %d attempts; keeping the duplicate", c.Glyph, attempts))
				picked = c
				break
			}
		}

		picked.Rank = slot + 1
		picked.Source = SourceAI
		res.Candidates = append(res.Candidates, picked)
		exclusions = append(exclusions, picked.Glyph)
	}

	return res, nil
}

// SentenceGenerator produces Count independent sentences. Exclusions never
// carry over from one sentence to the next.
type SentenceGenerator struct {
	Selector Selector
}

func (g *SentenceGenerator) Generate(ctx context.Context, req Request) (*Result, error) {
	if req.Query == "" {
		return nil, ErrEmptyQuery
	}
	if req.SentenceLength <= 0 {
		return nil, ErrInvalidLength
	}

	res := &Result{Requested: req.Count}
	for i := range req.Count {
		sentence, err := g.Selector.Sentence(ctx, req.Query, req.SentenceLength)
		if err != nil {
			return nil, fmt.Errorf("sentence %d of %d: %w", i+1, req.Count, err)
		}
		if len(sentence) != req.SentenceLength {
			return nil, fmt.Errorf("sentence %d of %d: got %d emoji, want %d", i+1, req.Count, len(sentence), req.SentenceLength)
		}
		res.Sentences = append(res.Sentences, sentence)
	}

	return res, nil
}

func newResult(requested int, candidates []Candidate) *Result {
	res := &Result{
		Candidates: candidates,
		Requested:  requested,
	}
	if len(candidates) < requested {
		res.Shortfall = requested - len(candidates)
	}
	return res
}

func rerank(cs []Candidate) []Candidate {
	for i := range cs {
		cs[i].Rank = i + 1
	}
	return cs
}

func sameGlyph(a, b string) bool {
	return strings.ReplaceAll(a, variationSelector, "") == strings.ReplaceAll(b, variationSelector, "")
}

func containsGlyph(glyphs []string, glyph string) bool {
	for _, g := range glyphs {
		if sameGlyph(g, glyph) {
			return true
		}
	}
	return false
}
