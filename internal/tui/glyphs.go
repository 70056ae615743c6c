package tui

import (
	"os"
	"strings"
	"sync"
)

// Some fonts render arrows and ellipses poorly, so an ASCII glyph set is available.

type glyphSet int

const (
	glyphSetUnicode glyphSet = iota
	glyphSetASCII
)

var (
	glyphsMu      sync.RWMutex
	currentGlyphs = glyphSetUnicode
)

// applyGlyphPreference picks the glyph set from GALLERY_TUI_GLYPHS, then configured.
// Unknown values are ignored.
func applyGlyphPreference(configured string) {
	for _, v := range []string{os.Getenv("GALLERY_TUI_GLYPHS"), configured} {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "unicode", "utf8":
			setGlyphs(glyphSetUnicode)
			return
		case "ascii":
			setGlyphs(glyphSetASCII)
			return
		}
	}
}

func setGlyphs(gs glyphSet) {
	glyphsMu.Lock()
	currentGlyphs = gs
	glyphsMu.Unlock()
}

func glyphs() glyphSet {
	glyphsMu.RLock()
	gs := currentGlyphs
	glyphsMu.RUnlock()
	return gs
}

func pick(unicode, ascii string) string {
	if glyphs() == glyphSetASCII {
		return ascii
	}
	return unicode
}

func glyphCursor() string   { return pick("▸", ">") }
func glyphLeft() string     { return pick("←", "<") }
func glyphRight() string    { return pick("→", ">") }
func glyphEllipsis() string { return pick("…", "...") }
func glyphDot() string      { return pick("·", "-") }
