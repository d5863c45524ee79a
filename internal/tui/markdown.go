package tui

import (
	"sync"

	"github.com/charmbracelet/glamour"
)

var (
	markdownRenderer     *glamour.TermRenderer //nolint:gochecknoglobals // cached renderer for performance
	markdownRendererOnce sync.Once             //nolint:gochecknoglobals // sync.Once for renderer initialization
)

// getMarkdownRenderer returns a cached glamour renderer.
// The renderer is initialized once and reused across all calls.
func getMarkdownRenderer() *glamour.TermRenderer {
	markdownRendererOnce.Do(func() {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(80),
		)
		if err == nil {
			markdownRenderer = r
		}
	})
	return markdownRenderer
}

// RenderMarkdown renders markdown for terminal display. Falls back to the
// raw text when the renderer is unavailable or colors are disabled.
func RenderMarkdown(markdown string) string {
	if !HasColorSupport() {
		return markdown
	}
	r := getMarkdownRenderer()
	if r == nil {
		return markdown
	}
	out, err := r.Render(markdown)
	if err != nil {
		return markdown
	}
	return out
}
