package v1

// Emoji is one lookup result.
type Emoji struct {
	Glyph      string `json:"glyph"`
	Name       string `json:"name"`
	Definition string `json:"definition,omitempty"`
	Rank       int    `json:"rank"`
	Source     string `json:"source"`
}

// Memo is a saved shortcut from a term to an emoji.
type Memo struct {
	Term  string `json:"term"`
	Glyph string `json:"glyph"`
}
