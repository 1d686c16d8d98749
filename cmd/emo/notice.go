package main

import (
	"fmt"
	"io"
	"time"

	"github.com/4thel00z/emo/internal"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

var (
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	infoStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

func warnf(w io.Writer, format string, args ...any) {
	fmt.Fprintln(w, warnStyle.Render("⚠ "+fmt.Sprintf(format, args...)))
}

// progressPrinter renders model download progress on a single stderr line.
type progressPrinter struct {
	w       io.Writer
	started bool
	last    time.Time
}

func newProgressPrinter(w io.Writer) *progressPrinter {
	return &progressPrinter{w: w}
}

func (p *progressPrinter) Update(m internal.ModelInfo, written, total int64) {
	if !p.started {
		p.started = true
		fmt.Fprintln(p.w, infoStyle.Render(fmt.Sprintf("📥 Downloading %s model (%s)...", m.Name, m.ID)))
		fmt.Fprintln(p.w, infoStyle.Render("This is a one-time download for AI-powered emoji selection."))
	}

	now := time.Now()
	if now.Sub(p.last) < 200*time.Millisecond && written != total {
		return
	}
	p.last = now

	if total > 0 {
		pct := float64(written) / float64(total) * 100
		fmt.Fprintf(p.w, "\r  %s / %s (%.0f%%)", humanize.Bytes(uint64(written)), humanize.Bytes(uint64(total)), pct)
		return
	}
	fmt.Fprintf(p.w, "\r  %s", humanize.Bytes(uint64(written)))
}

func (p *progressPrinter) Done() {
	if p.started {
		fmt.Fprintln(p.w)
	}
}
