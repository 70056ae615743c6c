package tui

import (
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/glamour/ansi"
	"github.com/charmbracelet/glamour/styles"
	"github.com/charmbracelet/lipgloss"

	"pairing-gallery/internal/model"
)

var (
	mdRendererMu sync.Mutex
	// Renderers are cached by style + wrap width. WithAutoStyle can block on
	// terminal background queries, so a fixed style is always used.
	mdRenderers = map[string]*glamour.TermRenderer{}
)

func renderMarkdown(md string, width int) string {
	md = strings.TrimSpace(md)
	if md == "" {
		return ""
	}
	if width < 10 {
		width = 10
	}

	mdRendererMu.Lock()
	styleName := markdownStyle()
	key := styleName + ":" + strconv.Itoa(width)
	r := mdRenderers[key]
	mdRendererMu.Unlock()

	if r == nil {
		rr, err := glamour.NewTermRenderer(
			glamour.WithStyles(markdownStyleConfig(styleName)),
			glamour.WithWordWrap(width),
			glamour.WithPreservedNewLines(),
		)
		if err != nil {
			return md
		}
		mdRendererMu.Lock()
		if existing := mdRenderers[key]; existing != nil {
			r = existing
		} else {
			mdRenderers[key] = rr
			r = rr
		}
		mdRendererMu.Unlock()
	}

	out, err := r.Render(md)
	if err != nil {
		return md
	}
	return strings.TrimRight(out, "\n")
}

// poemMarkdown turns a poem into markdown, keeping its line breaks.
func poemMarkdown(p model.Poem) string {
	var b strings.Builder
	if t := strings.TrimSpace(p.Title); t != "" {
		b.WriteString("## " + escapeMarkdown(t) + "\n\n")
	}
	if a := strings.TrimSpace(p.Author); a != "" {
		b.WriteString("*" + escapeMarkdown(a) + "*\n\n")
	}
	body := strings.TrimSpace(strings.ReplaceAll(p.Content, "\r\n", "\n"))
	if body == "" {
		b.WriteString("_Poem text unavailable._\n")
		return b.String()
	}
	for _, stanza := range strings.Split(body, "\n\n") {
		lines := strings.Split(strings.TrimSpace(stanza), "\n")
		for i, ln := range lines {
			lines[i] = escapeMarkdown(strings.TrimSpace(ln))
		}
		// Backslash hard breaks; the renderer keeps newlines inside paragraphs.
		b.WriteString(strings.Join(lines, "\\\n"))
		b.WriteString("\n\n")
	}
	return b.String()
}

var mdEscaper = strings.NewReplacer(
	`\`, `\\`, "*", `\*`, "_", `\_`, "`", "\\`", "#", `\#`, "[", `\[`, "]", `\]`, "<", `\<`,
)

func escapeMarkdown(s string) string { return mdEscaper.Replace(s) }

func markdownStyleConfig(styleName string) ansi.StyleConfig {
	if strings.EqualFold(strings.TrimSpace(styleName), "light") {
		cfg := styles.LightStyleConfig
		applyGalleryMarkdownPalette(&cfg, "light")
		return cfg
	}
	cfg := styles.DarkStyleConfig
	applyGalleryMarkdownPalette(&cfg, "dark")
	return cfg
}

func markdownStyle() string {
	switch strings.ToLower(strings.TrimSpace(os.Getenv("GALLERY_TUI_MD_STYLE"))) {
	case "light":
		return "light"
	case "dark":
		return "dark"
	}
	// Follow the TUI theme so poems never render dark-on-dark.
	switch strings.ToLower(strings.TrimSpace(os.Getenv("GALLERY_TUI_THEME"))) {
	case "light":
		return "light"
	case "dark":
		return "dark"
	}
	if v := strings.TrimSpace(os.Getenv("COLORFGBG")); v != "" {
		parts := strings.Split(v, ";")
		if bg, err := strconv.Atoi(strings.TrimSpace(parts[len(parts)-1])); err == nil {
			// xterm palette: 0-6 dark, 7-15 light.
			if bg >= 7 {
				return "light"
			}
			return "dark"
		}
	}
	if lipgloss.HasDarkBackground() {
		return "dark"
	}
	return "light"
}

func applyGalleryMarkdownPalette(cfg *ansi.StyleConfig, styleName string) {
	if cfg == nil {
		return
	}

	headingColor := mdColor(colorSurfaceFg, styleName)
	cfg.Heading.Color = headingColor
	cfg.H1.Color = headingColor
	cfg.H2.Color = headingColor
	cfg.H3.Color = headingColor

	linkColor := mdColor(colorAccent, styleName)
	cfg.Link.Color = linkColor
	cfg.Link.Underline = mdBoolPtr(true)
	cfg.LinkText.Color = linkColor

	cfg.Text.Color = mdColor(colorSurfaceFg, styleName)
	cfg.Emph.Color = mdColor(colorMuted, styleName)
	cfg.Strong.Color = nil
	cfg.BlockQuote.Faint = mdBoolPtr(false)
}

func mdColor(c lipgloss.AdaptiveColor, styleName string) *string {
	if strings.EqualFold(strings.TrimSpace(styleName), "light") {
		return mdStrPtr(c.Light)
	}
	return mdStrPtr(c.Dark)
}

func mdStrPtr(s string) *string { return &s }
func mdBoolPtr(b bool) *bool    { return &b }
