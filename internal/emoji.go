package internal

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"sort"
	"strconv"
	"strings"
	"unicode"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"golang.org/x/text/cases"
)

//go:embed emojis.json
var emojiJSON []byte

const variationSelector = "\ufe0f"

type Record struct {
	Keywords   []string `json:"keywords"`
	Unicode    string   `json:"unicode"`
	Name       string   `json:"name"`
	Shortcode  string   `json:"shortcode,omitempty"`
	Definition string   `json:"definition,omitempty"`
}

// Glyph decodes the space separated U+XXXX code points of the record.
func (r Record) Glyph() (string, error) {
	var sb strings.Builder
	for _, part := range strings.Fields(r.Unicode) {
		cp, err := strconv.ParseUint(strings.TrimPrefix(part, "U+"), 16, 32)
		if err != nil {
			return "", fmt.Errorf("invalid code point %q: %w", part, err)
		}
		if cp > unicode.MaxRune {
			return "", fmt.Errorf("code point out of range: %q", part)
		}
		sb.WriteRune(rune(cp))
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("empty unicode for %q", r.Name)
	}
	return sb.String(), nil
}

type entry struct {
	record   Record
	glyph    string
	name     string   // folded
	words    []string // folded name words
	keywords []string // folded
	defn     string   // folded
}

// Dataset is the static emoji table. Lookups are deterministic.
type Dataset struct {
	entries []entry
	names   []string
	byGlyph map[string]int
	fold    cases.Caser
}

// LoadDataset parses the embedded emoji table.
func LoadDataset() (*Dataset, error) {
	var records []Record
	if err := json.Unmarshal(emojiJSON, &records); err != nil {
		return nil, fmt.Errorf("parse emoji data: %w", err)
	}
	return NewDataset(records), nil
}

// NewDataset indexes records, skipping those whose code points do not decode.
func NewDataset(records []Record) *Dataset {
	d := &Dataset{
		byGlyph: make(map[string]int, len(records)),
		fold:    cases.Fold(),
	}

	for _, r := range records {
		glyph, err := r.Glyph()
		if err != nil {
			continue
		}
		key := strings.ReplaceAll(glyph, variationSelector, "")
		if _, dup := d.byGlyph[key]; dup {
			continue
		}

		e := entry{
			record: r,
			glyph:  glyph,
			name:   d.fold.String(r.Name),
			defn:   d.fold.String(r.Definition),
		}
		e.words = splitWords(e.name)
		for _, k := range r.Keywords {
			e.keywords = append(e.keywords, d.fold.String(k))
		}

		d.byGlyph[key] = len(d.entries)
		d.entries = append(d.entries, e)
		d.names = append(d.names, e.name)
	}

	return d
}

func (d *Dataset) Len() int {
	return len(d.entries)
}

// Find returns the candidate for glyph; variation selectors are ignored.
func (d *Dataset) Find(glyph string) (Candidate, bool) {
	i, ok := d.byGlyph[strings.ReplaceAll(glyph, variationSelector, "")]
	if !ok {
		return Candidate{}, false
	}
	return d.entries[i].candidate(0, SourceSearch), true
}

// Pick draws one record uniformly.
func (d *Dataset) Pick(rng *rand.Rand) (Candidate, bool) {
	if len(d.entries) == 0 {
		return Candidate{}, false
	}
	return d.entries[rng.IntN(len(d.entries))].candidate(0, SourceRandom), true
}

// Search returns up to limit candidates ranked by match tier. Within a tier
// the table order is kept and a glyph is never returned twice.
func (d *Dataset) Search(term string, limit int) []Candidate {
	folded := d.fold.String(strings.TrimSpace(term))
	words := strings.Fields(folded)
	if len(words) == 0 || limit <= 0 {
		return nil
	}

	tiers := []func(e *entry) bool{
		func(e *entry) bool { return e.name == strings.Join(words, " ") },
		func(e *entry) bool { return containsAllWords(e.words, words) },
		func(e *entry) bool {
			for _, k := range e.keywords {
				if containsAllWords(splitWords(k), words) {
					return true
				}
			}
			return false
		},
		func(e *entry) bool { return containsAll(e.name, words) },
		func(e *entry) bool {
			for _, k := range e.keywords {
				if containsAll(k, words) {
					return true
				}
			}
			return false
		},
		func(e *entry) bool { return e.defn != "" && containsAll(e.defn, words) },
	}

	results := make([]Candidate, 0, limit)
	seen := make(map[int]bool)

	add := func(i int) bool {
		if seen[i] {
			return false
		}
		seen[i] = true
		results = append(results, d.entries[i].candidate(len(results)+1, SourceSearch))
		return len(results) >= limit
	}

	for _, match := range tiers {
		for i := range d.entries {
			if !match(&d.entries[i]) {
				continue
			}
			if add(i) {
				return results
			}
		}
	}

	ranks := fuzzy.RankFindFold(strings.Join(words, " "), d.names)
	sort.Stable(ranks)
	for _, r := range ranks {
		if add(r.OriginalIndex) {
			return results
		}
	}

	return results
}

func (e *entry) candidate(rank int, source Source) Candidate {
	return Candidate{
		Glyph:      e.glyph,
		Name:       e.record.Name,
		Definition: e.record.Definition,
		Rank:       rank,
		Source:     source,
	}
}

func splitWords(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func containsAllWords(have, want []string) bool {
	for _, w := range want {
		found := false
		for _, h := range have {
			if h == w {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func containsAll(text string, words []string) bool {
	for _, w := range words {
		if !strings.Contains(text, w) {
			return false
		}
	}
	return true
}
