package internal

import (
	"context"
	"errors"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeCatalog returns fixed search results and counts calls.
type fakeCatalog struct {
	results  map[string][]string
	known    map[string]string
	picks    []string
	searches int
	next     int
}

func (f *fakeCatalog) Search(term string, limit int) []Candidate {
	f.searches++
	var out []Candidate
	for i, g := range f.results[term] {
		if i == limit {
			break
		}
		out = append(out, Candidate{Glyph: g, Name: f.known[g], Rank: i + 1, Source: SourceSearch})
	}
	return out
}

func (f *fakeCatalog) Find(glyph string) (Candidate, bool) {
	name, ok := f.known[glyph]
	if !ok {
		return Candidate{}, false
	}
	return Candidate{Glyph: glyph, Name: name, Definition: name + " definition", Source: SourceSearch}, true
}

func (f *fakeCatalog) Pick(_ *rand.Rand) (Candidate, bool) {
	if len(f.picks) == 0 {
		return Candidate{}, false
	}
	g := f.picks[f.next%len(f.picks)]
	f.next++
	return Candidate{Glyph: g, Name: f.known[g], Source: SourceRandom}, true
}

// fakeSelector replays scripted answers for Select.
type fakeSelector struct {
	answers    []string
	calls      int
	exclusions [][]string
	sentences  int
}

func (f *fakeSelector) Select(_ context.Context, _ string, exclusions []string) (Candidate, error) {
	if f.calls >= len(f.answers) {
		return Candidate{}, ErrNoEmoji
	}
	f.exclusions = append(f.exclusions, append([]string(nil), exclusions...))
	g := f.answers[f.calls]
	f.calls++
	return Candidate{Glyph: g, Source: SourceAI}, nil
}

func (f *fakeSelector) Sentence(ctx context.Context, text string, length int) ([]Candidate, error) {
	f.sentences++
	var out []Candidate
	var exclusions []string
	for range length {
		c, err := f.Select(ctx, text, exclusions)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
		exclusions = append(exclusions, c.Glyph)
	}
	return out, nil
}

type providerFunc func(ctx context.Context, prompt string) (string, error)

func (p providerFunc) Complete(ctx context.Context, prompt string) (string, error) {
	return p(ctx, prompt)
}

func newDeployCatalog() *fakeCatalog {
	return &fakeCatalog{
		results: map[string][]string{
			"deploy": {"📦", "🚀", "🚢"},
			"fire":   {"🔥", "🧯"},
		},
		known: map[string]string{
			"📦": "package", "🚀": "rocket", "🚢": "ship", "🔥": "fire", "🧯": "fire extinguisher",
		},
		picks: []string{"🔥", "🔥", "🚀"},
	}
}

func TestNewRequestPrecedence(t *testing.T) {
	tests := []struct {
		name  string
		flags Flags
		want  Mode
	}{
		{"default", Flags{Query: "fire"}, ModeSearch},
		{"ai", Flags{Query: "x", AI: true, Random: true, Define: true}, ModeAI},
		{"model implies ai", Flags{Query: "x", Model: "phi-2"}, ModeAI},
		{"sentence", Flags{Query: "x", AI: true, SentenceSet: true, Sentence: 5}, ModeAISentence},
		{"sentence without ai", Flags{Query: "x", SentenceSet: true, Sentence: 5}, ModeSearch},
		{"random over define", Flags{Random: true, Define: true}, ModeRandom},
		{"define", Flags{Query: "🔥", Define: true, Count: 4}, ModeDefine},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewRequest(tt.flags).Mode)
		})
	}
}

func TestNewRequestNormalizes(t *testing.T) {
	req := NewRequest(Flags{Query: "  monday morning ", Count: 0})
	assert.Equal(t, "monday morning", req.Query)
	assert.Equal(t, 1, req.Count)

	req = NewRequest(Flags{Query: "x", Define: true, Count: 3})
	assert.Equal(t, 1, req.Count)
}

func TestCompositeMemoFirstThenSearch(t *testing.T) {
	cat := newDeployCatalog()
	r := NewResolver(cat, map[string]string{"deploy": "🚀"}, nil, nil)

	res, err := r.Resolve(context.Background(), NewRequest(Flags{Query: "deploy", Count: 3}))
	require.NoError(t, err)
	assert.Equal(t, []string{"🚀", "📦", "🚢"}, res.Glyphs())
	assert.Equal(t, SourceMemo, res.Candidates[0].Source)
	assert.Equal(t, "rocket", res.Candidates[0].Name)
	assert.Equal(t, 0, res.Shortfall)
	for i, c := range res.Candidates {
		assert.Equal(t, i+1, c.Rank)
	}
}

func TestCompositeMemoOnlyWithCountOne(t *testing.T) {
	cat := newDeployCatalog()
	r := NewResolver(cat, map[string]string{"deploy": "🚀"}, nil, nil)

	res, err := r.Resolve(context.Background(), NewRequest(Flags{Query: "deploy", Count: 1}))
	require.NoError(t, err)
	assert.Equal(t, []string{"🚀"}, res.Glyphs())
	assert.Equal(t, 0, cat.searches)
}

func TestCompositeMemoShortfall(t *testing.T) {
	cat := newDeployCatalog()
	r := NewResolver(cat, map[string]string{"fire": "🔥"}, nil, nil)

	res, err := r.Resolve(context.Background(), NewRequest(Flags{Query: "fire", Count: 5}))
	require.NoError(t, err)
	assert.Equal(t, []string{"🔥", "🧯"}, res.Glyphs())
	assert.Equal(t, 3, res.Shortfall)
	assert.Equal(t, 5, res.Requested)
}

func TestMemoWithoutSearchMatches(t *testing.T) {
	cat := newDeployCatalog()
	r := NewResolver(cat, map[string]string{"yolo": "🎉"}, nil, nil)

	res, err := r.Resolve(context.Background(), NewRequest(Flags{Query: "yolo", Count: 2}))
	require.NoError(t, err)
	assert.Equal(t, []string{"🎉"}, res.Glyphs())
	assert.Equal(t, 1, res.Shortfall)
}

func TestMemoGeneratorLookup(t *testing.T) {
	gen := &MemoGenerator{
		Memos:   map[string]string{"deploy": "🚀", "blank": ""},
		Catalog: newDeployCatalog(),
	}
	ctx := context.Background()

	res, err := gen.Generate(ctx, Request{Mode: ModeSearch, Query: "deploy", Count: 3})
	require.NoError(t, err)
	require.Len(t, res.Candidates, 1)
	assert.Equal(t, "🚀", res.Candidates[0].Glyph)
	assert.Equal(t, "rocket", res.Candidates[0].Name)
	assert.Equal(t, SourceMemo, res.Candidates[0].Source)
	assert.Equal(t, 1, res.Requested)

	_, err = gen.Generate(ctx, Request{Mode: ModeSearch, Query: "ship", Count: 1})
	assert.True(t, errors.Is(err, ErrMemoNotFound), "got %v", err)

	_, err = gen.Generate(ctx, Request{Mode: ModeSearch, Query: "blank", Count: 1})
	assert.True(t, errors.Is(err, ErrMemoNotFound), "got %v", err)

	_, err = gen.Generate(ctx, Request{Mode: ModeSearch, Count: 1})
	assert.True(t, errors.Is(err, ErrEmptyQuery), "got %v", err)
}

func TestSearchWithoutMemoMatchesSearch(t *testing.T) {
	cat := newDeployCatalog()
	r := NewResolver(cat, nil, nil, nil)

	for range 3 {
		res, err := r.Resolve(context.Background(), NewRequest(Flags{Query: "deploy", Count: 2}))
		require.NoError(t, err)
		assert.Equal(t, []string{"📦", "🚀"}, res.Glyphs())
	}
}

func TestSearchNoMatchAndEmpty(t *testing.T) {
	r := NewResolver(newDeployCatalog(), nil, nil, nil)

	_, err := r.Resolve(context.Background(), NewRequest(Flags{Query: "nothing"}))
	assert.True(t, errors.Is(err, ErrNoMatch), "got %v", err)

	_, err = r.Resolve(context.Background(), NewRequest(Flags{Query: "  "}))
	assert.True(t, errors.Is(err, ErrEmptyQuery), "got %v", err)
}

func TestRandomIgnoresMemosAndSearch(t *testing.T) {
	cat := newDeployCatalog()
	r := NewResolver(cat, map[string]string{"deploy": "🚀"}, nil, nil)

	res, err := r.Resolve(context.Background(), NewRequest(Flags{Query: "deploy", Count: 3, Random: true}))
	require.NoError(t, err)
	assert.Equal(t, []string{"🔥", "🔥", "🚀"}, res.Glyphs())
	assert.Equal(t, 0, cat.searches)
	for _, c := range res.Candidates {
		assert.Equal(t, SourceRandom, c.Source)
	}
}

func TestRandomWithRealDataset(t *testing.T) {
	d := loadTestDataset(t)
	r := NewResolver(d, nil, nil, rand.New(rand.NewPCG(7, 7)))

	res, err := r.Resolve(context.Background(), NewRequest(Flags{Random: true, Count: 4}))
	require.NoError(t, err)
	assert.Len(t, res.Candidates, 4)
}

func TestDefineByGlyph(t *testing.T) {
	cat := newDeployCatalog()
	r := NewResolver(cat, nil, nil, nil)

	res, err := r.Resolve(context.Background(), NewRequest(Flags{Query: "🚢 ahoy", Define: true}))
	require.NoError(t, err)
	require.Len(t, res.Candidates, 1)
	assert.Equal(t, "ship", res.Candidates[0].Name)
	assert.Equal(t, "ship definition", res.Candidates[0].Definition)
	assert.Equal(t, 0, cat.searches)
}

func TestDefineFallsBackToSearch(t *testing.T) {
	r := NewResolver(newDeployCatalog(), nil, nil, nil)

	res, err := r.Resolve(context.Background(), NewRequest(Flags{Query: "deploy", Define: true, Count: 3}))
	require.NoError(t, err)
	assert.Equal(t, []string{"📦"}, res.Glyphs())

	_, err = r.Resolve(context.Background(), NewRequest(Flags{Query: "nothing", Define: true}))
	assert.True(t, errors.Is(err, ErrNoMatch))
}

func TestAIIgnoresMemosAndExcludesPrevious(t *testing.T) {
	sel := &fakeSelector{answers: []string{"😴", "☕", "😩"}}
	r := NewResolver(newDeployCatalog(), map[string]string{"monday morning": "🔥"}, sel, nil)

	res, err := r.Resolve(context.Background(), NewRequest(Flags{Query: "monday morning", AI: true, Count: 3}))
	require.NoError(t, err)
	assert.Equal(t, []string{"😴", "☕", "😩"}, res.Glyphs())
	assert.Empty(t, res.Warnings)
	assert.Equal(t, [][]string{nil, {"😴"}, {"😴", "☕"}}, normalizeExclusions(sel.exclusions))
}

func TestAIRetriesDuplicates(t *testing.T) {
	sel := &fakeSelector{answers: []string{"🔥", "🔥", "🚀"}}
	r := NewResolver(newDeployCatalog(), nil, sel, nil)

	res, err := r.Resolve(context.Background(), NewRequest(Flags{Query: "launch", AI: true, Count: 2}))
	require.NoError(t, err)
	assert.Equal(t, []string{"🔥", "🚀"}, res.Glyphs())
	assert.Empty(t, res.Warnings)
	assert.Equal(t, 3, sel.calls)
}

func TestAIAcceptsDuplicateWithWarning(t *testing.T) {
	sel := &fakeSelector{answers: []string{"🔥", "🔥", "🔥", "🔥"}}
	r := NewResolver(newDeployCatalog(), nil, sel, nil)

	res, err := r.Resolve(context.Background(), NewRequest(Flags{Query: "hot", AI: true, Count: 2}))
	require.NoError(t, err)
	assert.Equal(t, []string{"🔥", "🔥"}, res.Glyphs())
	require.Len(t, res.Warnings, 1)
	assert.Contains(t, res.Warnings[0], "🔥")
	assert.Equal(t, 1+defaultAIAttempts, sel.calls)
}

func TestAISelectorErrorIsFatal(t *testing.T) {
	sel := &fakeSelector{answers: []string{"🔥"}}
	r := NewResolver(newDeployCatalog(), nil, sel, nil)

	_, err := r.Resolve(context.Background(), NewRequest(Flags{Query: "hot", AI: true, Count: 2}))
	assert.True(t, errors.Is(err, ErrNoEmoji), "got %v", err)
}

func TestAIWithoutSelector(t *testing.T) {
	r := NewResolver(newDeployCatalog(), nil, nil, nil)

	_, err := r.Resolve(context.Background(), NewRequest(Flags{Query: "x", AI: true}))
	assert.True(t, errors.Is(err, ErrModelUnavailable))
}

func TestSentenceExactLengthRegardlessOfMemo(t *testing.T) {
	sel := &fakeSelector{answers: []string{"😴", "☕", "😩", "💼", "🚌"}}
	r := NewResolver(newDeployCatalog(), map[string]string{"monday morning": "🔥"}, sel, nil)

	req := NewRequest(Flags{Query: "monday morning", AI: true, SentenceSet: true, Sentence: 5, Count: 1})
	res, err := r.Resolve(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, res.Sentences, 1)
	assert.Len(t, res.Sentences[0], 5)
	assert.Equal(t, "😴", res.Sentences[0][0].Glyph)
}

func TestSentenceCountProducesIndependentSentences(t *testing.T) {
	sel := &fakeSelector{answers: []string{"🔥", "🚀", "🔥", "🚀"}}
	r := NewResolver(newDeployCatalog(), nil, sel, nil)

	req := NewRequest(Flags{Query: "launch", AI: true, SentenceSet: true, Sentence: 2, Count: 2})
	res, err := r.Resolve(context.Background(), req)
	require.NoError(t, err)
	require.Len(t, res.Sentences, 2)
	assert.Equal(t, 2, sel.sentences)
	assert.Equal(t, res.Sentences[0][0].Glyph, res.Sentences[1][0].Glyph)
}

func TestSentenceZeroLength(t *testing.T) {
	sel := &fakeSelector{answers: []string{"🔥"}}
	r := NewResolver(newDeployCatalog(), nil, sel, nil)

	req := NewRequest(Flags{Query: "x", AI: true, SentenceSet: true, Sentence: 0})
	_, err := r.Resolve(context.Background(), req)
	assert.True(t, errors.Is(err, ErrInvalidLength))
	assert.Equal(t, 0, sel.calls)
}

func normalizeExclusions(in [][]string) [][]string {
	out := make([][]string, len(in))
	for i, e := range in {
		if len(e) > 0 {
			out[i] = e
		}
	}
	return out
}
