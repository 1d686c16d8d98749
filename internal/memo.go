package internal

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/rivo/uniseg"
)

type Memo struct {
	Term  string
	Glyph string
}

// Memo returns the glyph saved for term.
func (c *Config) Memo(term string) (string, bool) {
	glyph, ok := c.Mappings[term]
	return glyph, ok && glyph != ""
}

// Memos returns all saved memos sorted by term.
func (c *Config) Memos() []Memo {
	memos := make([]Memo, 0, len(c.Mappings))
	for term, glyph := range c.Mappings {
		memos = append(memos, Memo{Term: term, Glyph: glyph})
	}
	sort.Slice(memos, func(i, j int) bool { return memos[i].Term < memos[j].Term })
	return memos
}

// MemoService saves and erases memos on an already loaded Config and
// persists the result.
type MemoService struct {
	configPath string
	searcher   Searcher
}

func NewMemoService(configPath string, searcher Searcher) *MemoService {
	return &MemoService{
		configPath: configPath,
		searcher:   searcher,
	}
}

// Save maps term to ref. A numeric ref selects the n-th (1-based) search
// result for term; anything else is taken as the emoji itself.
func (s *MemoService) Save(cfg *Config, term, ref string) (Memo, error) {
	term = strings.TrimSpace(term)
	ref = strings.TrimSpace(ref)
	if term == "" || ref == "" {
		return Memo{}, fmt.Errorf("%w: cannot save mapping for empty search term or emoji", ErrEmptyQuery)
	}

	glyph, err := s.resolveRef(term, ref)
	if err != nil {
		return Memo{}, err
	}

	cfg.Mappings[term] = glyph
	if err := SaveConfig(s.configPath, cfg); err != nil {
		return Memo{}, fmt.Errorf("save memo: %w", err)
	}

	return Memo{Term: term, Glyph: glyph}, nil
}

// Erase removes the memo for term. A missing memo leaves the file untouched.
func (s *MemoService) Erase(cfg *Config, term string) error {
	term = strings.TrimSpace(term)
	if term == "" {
		return fmt.Errorf("%w: cannot erase mapping for empty search term", ErrEmptyQuery)
	}

	if _, ok := cfg.Mappings[term]; !ok {
		return fmt.Errorf("%w: no mapping found for '%s'", ErrMemoNotFound, term)
	}

	delete(cfg.Mappings, term)
	if err := SaveConfig(s.configPath, cfg); err != nil {
		return fmt.Errorf("erase memo: %w", err)
	}

	return nil
}

func (s *MemoService) resolveRef(term, ref string) (string, error) {
	index, err := strconv.Atoi(ref)
	if err != nil {
		return FirstGrapheme(ref), nil
	}

	if index <= 0 {
		return "", fmt.Errorf("%w: index must be greater than 0", ErrInvalidIndex)
	}

	results := s.searcher.Search(term, index)
	if len(results) < index {
		return "", fmt.Errorf("%w: only %d results found, cannot select index %d", ErrInvalidIndex, len(results), index)
	}

	return results[index-1].Glyph, nil
}

// FirstGrapheme returns the first user-perceived character of s, keeping
// multi-rune emoji (ZWJ sequences, variation selectors) intact.
func FirstGrapheme(s string) string {
	cluster, _, _, _ := uniseg.FirstGraphemeClusterInString(s, -1)
	return cluster
}
