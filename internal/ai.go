package internal

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/rivo/uniseg"
)

var _ Selector = (*LLMSelector)(nil)

// LLMSelector asks a Provider for a single emoji per call.
type LLMSelector struct {
	provider Provider
	catalog  Catalog
}

// NewLLMSelector wraps provider. catalog is optional and only used to attach
// names to the returned glyphs.
func NewLLMSelector(provider Provider, catalog Catalog) *LLMSelector {
	return &LLMSelector{provider: provider, catalog: catalog}
}

func (s *LLMSelector) Select(ctx context.Context, text string, exclusions []string) (Candidate, error) {
	prompt := selectPrompt(text, exclusions)

	out, err := s.provider.Complete(ctx, prompt)
	if err != nil {
		return Candidate{}, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}

	glyph, ok := firstEmoji(out)
	if !ok {
		return Candidate{}, fmt.Errorf("%w: generated text: '%s'", ErrNoEmoji, strings.TrimSpace(out))
	}

	c := Candidate{Glyph: glyph}
	if s.catalog != nil {
		if known, found := s.catalog.Find(glyph); found {
			c = known
			c.Glyph = glyph
		}
	}
	c.Source = SourceAI
	return c, nil
}

// Sentence returns exactly length glyphs, excluding earlier glyphs of the
// same sentence from every later call.
func (s *LLMSelector) Sentence(ctx context.Context, text string, length int) ([]Candidate, error) {
	if length <= 0 {
		return nil, ErrInvalidLength
	}

	out := make([]Candidate, 0, length)
	exclusions := make([]string, 0, length)
	for i := range length {
		c, err := s.Select(ctx, text, exclusions)
		if err != nil {
			return nil, err
		}
		c.Rank = i + 1
		out = append(out, c)
		exclusions = append(exclusions, c.Glyph)
	}
	return out, nil
}

// Close releases the provider when it holds native resources.
func (s *LLMSelector) Close() error {
	if c, ok := s.provider.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func selectPrompt(text string, exclusions []string) string {
	if len(exclusions) == 0 {
		return fmt.Sprintf("Task: Select ONE emoji that best represents: %s. Reply with only the emoji, nothing else.\nEmoji:", text)
	}
	return fmt.Sprintf("Task: Select ONE emoji that best represents: %s. Do not use: %s. Reply with only the emoji.\nEmoji:",
		text, strings.Join(exclusions, ", "))
}

// firstEmoji returns the first grapheme cluster of s that starts with a
// pictographic code point.
func firstEmoji(s string) (string, bool) {
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		runes := g.Runes()
		if len(runes) > 0 && isEmojiRune(runes[0]) {
			return g.Str(), true
		}
	}
	return "", false
}

func isEmojiRune(r rune) bool {
	switch {
	case r >= 0x1F300 && r <= 0x1F9FF:
	case r >= 0x2600 && r <= 0x26FF:
	case r >= 0x2700 && r <= 0x27BF:
	case r >= 0x1F000 && r <= 0x1F02F:
	case r >= 0x1FA70 && r <= 0x1FAFF:
	default:
		return false
	}
	return true
}

// SelectorFactory builds the Selector for an AI request, downloading a model
// on first use.
type SelectorFactory struct {
	ConfigPath string
	Registry   *Registry
	Downloader *Downloader
	Catalog    Catalog
	Debug      bool

	// OnProgress receives download progress; may be nil.
	OnProgress func(model ModelInfo, written, total int64)

	// NewLocal loads a GGUF file. Defaults to NewLocalLLM.
	NewLocal func(path string) (Provider, error)
}

// OpenedSelector is a Selector holding a model that must be closed.
type OpenedSelector interface {
	Selector
	io.Closer
}

// Open returns a selector for cfg. A configured remote provider wins;
// otherwise the model named by override, the config or the catalog default
// is downloaded once, and its id is persisted only after the download
// succeeded.
func (f *SelectorFactory) Open(ctx context.Context, cfg *Config, override string) (OpenedSelector, error) {
	if cfg.Provider != nil && cfg.Provider.Name != "" {
		p, err := NewFantasyProvider(ctx, *cfg.Provider)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
		}
		slog.Debug("using remote provider", "provider", cfg.Provider.Name, "model", cfg.Provider.Model)
		return NewLLMSelector(p, f.Catalog), nil
	}

	id := override
	if id == "" {
		id = cfg.ModelID()
	}

	model, err := f.Registry.Resolve(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	slog.Debug("resolved model", "id", model.ID, "repo", model.Repo, "file", model.File)

	var progress func(written, total int64)
	if f.OnProgress != nil {
		progress = func(written, total int64) { f.OnProgress(model, written, total) }
	}

	path, err := f.Downloader.EnsureModel(ctx, model, progress)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}

	if cfg.ModelID() != model.ID {
		cfg.SetModel(model.ID)
		if err := SaveConfig(f.ConfigPath, cfg); err != nil {
			return nil, err
		}
	}

	newLocal := f.NewLocal
	if newLocal == nil {
		newLocal = func(path string) (Provider, error) {
			return NewLocalLLM(path, WithDebug(f.Debug))
		}
	}

	p, err := newLocal(path)
	if err != nil {
		return nil, fmt.Errorf("%w: load %s: %v", ErrModelUnavailable, model.ID, err)
	}

	return NewLLMSelector(p, f.Catalog), nil
}
