package internal

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadTestDataset(t *testing.T) *Dataset {
	t.Helper()
	d, err := LoadDataset()
	require.NoError(t, err)
	require.Greater(t, d.Len(), 100)
	return d
}

func glyphsOf(cs []Candidate) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Glyph
	}
	return out
}

func TestRecordGlyph(t *testing.T) {
	tests := []struct {
		unicode string
		want    string
		wantErr bool
	}{
		{"U+1F525", "🔥", false},
		{"U+2764 U+FE0F", "❤️", false},
		{"U+1F468 U+200D U+1F4BB", "👨‍💻", false},
		{"U+ZZZZ", "", true},
		{"", "", true},
	}

	for _, tt := range tests {
		got, err := Record{Name: "x", Unicode: tt.unicode}.Glyph()
		if tt.wantErr {
			assert.Error(t, err, tt.unicode)
			continue
		}
		require.NoError(t, err, tt.unicode)
		assert.Equal(t, tt.want, got)
	}
}

func TestSearchExactNameFirst(t *testing.T) {
	d := loadTestDataset(t)

	got := d.Search("fire", 3)
	require.NotEmpty(t, got)
	assert.Equal(t, "🔥", got[0].Glyph)
	assert.Equal(t, 1, got[0].Rank)
	assert.Equal(t, SourceSearch, got[0].Source)
}

func TestSearchCaseInsensitive(t *testing.T) {
	d := loadTestDataset(t)
	assert.Equal(t, glyphsOf(d.Search("fire", 2)), glyphsOf(d.Search("FiRe", 2)))
}

func TestSearchKeywordTableOrder(t *testing.T) {
	d := loadTestDataset(t)
	assert.Equal(t, []string{"🚀", "🚢", "📦"}, glyphsOf(d.Search("deploy", 3)))
}

func TestSearchDeterministic(t *testing.T) {
	d := loadTestDataset(t)

	first := d.Search("happy", 10)
	for range 5 {
		assert.Equal(t, first, d.Search("happy", 10))
	}
}

func TestSearchLimitAndUnique(t *testing.T) {
	d := loadTestDataset(t)

	got := d.Search("heart", 5)
	assert.Len(t, got, 5)

	seen := map[string]bool{}
	for i, c := range got {
		assert.False(t, seen[c.Glyph], "duplicate %s", c.Glyph)
		seen[c.Glyph] = true
		assert.Equal(t, i+1, c.Rank)
	}
}

func TestSearchEmpty(t *testing.T) {
	d := loadTestDataset(t)
	assert.Empty(t, d.Search("", 5))
	assert.Empty(t, d.Search("   ", 5))
	assert.Empty(t, d.Search("fire", 0))
}

func TestSearchNoMatch(t *testing.T) {
	d := loadTestDataset(t)
	assert.Empty(t, d.Search("qqqqqqqqqq", 5))
}

func TestSearchFuzzyTier(t *testing.T) {
	d := NewDataset([]Record{
		{Name: "rocket", Unicode: "U+1F680"},
		{Name: "fire", Unicode: "U+1F525"},
	})

	got := d.Search("rckt", 1)
	require.Len(t, got, 1)
	assert.Equal(t, "🚀", got[0].Glyph)
}

func TestFindIgnoresVariationSelector(t *testing.T) {
	d := loadTestDataset(t)

	c, ok := d.Find("❤")
	require.True(t, ok)
	assert.Equal(t, "red heart", c.Name)
	assert.Equal(t, "❤️", c.Glyph)

	_, ok = d.Find("not an emoji")
	assert.False(t, ok)
}

func TestPickSeeded(t *testing.T) {
	d := loadTestDataset(t)

	a, ok := d.Pick(rand.New(rand.NewPCG(1, 2)))
	require.True(t, ok)
	b, _ := d.Pick(rand.New(rand.NewPCG(1, 2)))
	assert.Equal(t, a, b)
	assert.Equal(t, SourceRandom, a.Source)
}

func TestPickEmpty(t *testing.T) {
	d := NewDataset(nil)
	_, ok := d.Pick(rand.New(rand.NewPCG(1, 2)))
	assert.False(t, ok)
}

func TestNewDatasetSkipsBadAndDuplicate(t *testing.T) {
	d := NewDataset([]Record{
		{Name: "red heart", Unicode: "U+2764 U+FE0F"},
		{Name: "heavy heart", Unicode: "U+2764"},
		{Name: "broken", Unicode: "U+XYZ"},
		{Name: "fire", Unicode: "U+1F525"},
	})

	assert.Equal(t, 2, d.Len())
	c, ok := d.Find("❤️")
	require.True(t, ok)
	assert.Equal(t, "red heart", c.Name)
}
