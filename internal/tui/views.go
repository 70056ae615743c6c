package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"

	"pairing-gallery/internal/gallery"
	"pairing-gallery/internal/model"
)

const appTitle = "THE PAIRING GALLERY"

func (m appModel) View() string {
	var body string
	switch m.session.View() {
	case gallery.ViewStart:
		return m.viewStart()
	case gallery.ViewGallery:
		body = m.viewGallery()
	case gallery.ViewPaintingDetail:
		body = m.viewPaintingDetail()
	case gallery.ViewPairingDetail:
		body = m.viewPairingDetail()
	}
	header := styleBanner().Render(appTitle) + "  " + styleMuted().Render(m.breadcrumb())
	return lipgloss.JoinVertical(lipgloss.Left, header, "", body, "", m.footer())
}

func (m appModel) breadcrumb() string {
	sep := " " + glyphRight() + " "
	parts := []string{"Gallery"}
	if d, ok := m.session.Detail(); ok {
		parts = append(parts, d.Title)
	} else if m.session.View() == gallery.ViewPaintingDetail {
		parts = append(parts, "Painting")
	}
	if pr, ok := m.session.Pairing(); ok && m.session.View() == gallery.ViewPairingDetail {
		parts = append(parts, pr.Basis)
	}
	return strings.Join(parts, sep)
}

func (m appModel) footer() string {
	if m.statusText != "" {
		if m.statusError {
			return styleError().Render(m.statusText)
		}
		return styleMuted().Render(m.statusText)
	}
	return m.help.View(viewKeys{km: m.keys, view: m.session.View()})
}

func (m appModel) viewStart() string {
	splash := lipgloss.JoinVertical(lipgloss.Center,
		styleBanner().Render(appTitle),
		"",
		styleMuted().Render("Paintings paired with poems"),
		"",
		styleTitle().Render("Press enter to begin"),
		styleMuted().Render("q to quit"),
	)
	if m.width <= 0 || m.height <= 0 {
		return splash
	}
	return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, splash)
}

func (m appModel) cardWidth() int {
	w := 30
	if m.width > 0 {
		if avail := (m.width - 8) / 3; avail < w {
			w = avail
		}
	}
	if w < 14 {
		w = 14
	}
	return w
}

func (m appModel) viewGallery() string {
	s := m.session
	if s.IndexLoading() {
		return m.spinner.View() + " Loading paintings" + glyphEllipsis()
	}
	if s.Len() == 0 {
		msg := "No paintings available"
		if n := len(s.FailedPages()); n > 0 {
			msg += styleMuted().Render(fmt.Sprintf(" (%d page%s failed to load)", n, plural(n)))
		}
		return msg
	}

	w := m.cardWidth()
	left := blankCard(w)
	if p, ok := s.At(s.Index() - 1); ok {
		left = renderCard(p, false, w)
	}
	cur, _ := s.Current()
	center := renderCard(cur, true, w)
	right := blankCard(w)
	if p, ok := s.At(s.Index() + 1); ok {
		right = renderCard(p, false, w)
	}
	cards := lipgloss.JoinHorizontal(lipgloss.Center, left, " ", center, " ", right)

	nav := ""
	if s.HasPrevious() {
		nav += glyphLeft() + " "
	}
	nav += strconv.Itoa(s.Index()+1) + " / " + strconv.Itoa(s.Len())
	if s.HasNext() {
		nav += " " + glyphRight()
	}
	if s.Populating() {
		nav += "  " + m.spinner.View() + styleMuted().Render(" loading more")
	} else if n := len(s.FailedPages()); n > 0 {
		nav += styleMuted().Render(fmt.Sprintf("  %d page%s failed to load", n, plural(n)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, cards, "", nav)
}

func renderCard(p model.Painting, selected bool, width int) string {
	inner := width - 4
	lines := []string{
		styleTitle().Render(ansi.Truncate(p.Title, inner, glyphEllipsis())),
		ansi.Truncate(p.Author, inner, glyphEllipsis()),
	}
	meta := paintingMeta(p)
	lines = append(lines, lipgloss.NewStyle().Foreground(colorCardMetaFg).Render(ansi.Truncate(meta, inner, glyphEllipsis())))
	if p.ImageURL == "" {
		lines = append(lines, styleMuted().Render("no image"))
	} else {
		lines = append(lines, styleMuted().Render("image "+glyphDot()+" o to open"))
	}
	return styleCard(selected, width-2).Render(strings.Join(lines, "\n"))
}

func blankCard(width int) string {
	return lipgloss.NewStyle().Width(width).Render("")
}

func paintingMeta(p model.Painting) string {
	var parts []string
	if p.Year != 0 {
		parts = append(parts, strconv.Itoa(p.Year))
	}
	if c := strings.TrimSpace(p.Category); c != "" {
		parts = append(parts, c)
	}
	return strings.Join(parts, " "+glyphDot()+" ")
}

func (m appModel) viewPaintingDetail() string {
	s := m.session
	switch s.DetailStatus() {
	case gallery.DetailLoading:
		return m.spinner.View() + " Loading painting" + glyphEllipsis()
	case gallery.DetailNotFound:
		return styleError().Render("Painting not found") + "\n\n" + styleMuted().Render("esc to return to the gallery")
	}
	d, ok := s.Detail()
	if !ok {
		return ""
	}

	var b strings.Builder
	b.WriteString(styleTitle().Render(d.Title) + "\n")
	byline := d.Author
	if meta := paintingMeta(d); meta != "" {
		byline += " " + glyphDot() + " " + meta
	}
	b.WriteString(byline + "\n\n")
	if d.InfoURL != "" {
		b.WriteString(styleMuted().Render("Info:  ") + d.InfoURL + "\n")
	}
	if url := s.ImageURL(); url != "" {
		b.WriteString(styleMuted().Render("Image: ") + url + "\n")
	} else {
		b.WriteString(styleMuted().Render("No image available") + "\n")
	}
	b.WriteString("\n")

	groups := s.Groups()
	if len(groups) == 0 {
		b.WriteString(styleMuted().Render("No poem pairings available"))
		return b.String()
	}
	b.WriteString(styleTitle().Render("Poem pairings") + "\n")
	for i, g := range groups {
		prefix := "  "
		label := g.Basis
		if len(g.Pairings) > 1 {
			label += styleMuted().Render(fmt.Sprintf(" (%d)", len(g.Pairings)))
		}
		if i == m.basisCursor {
			prefix = glyphCursor() + " "
			label = lipgloss.NewStyle().Bold(true).Render(g.Basis) + strings.TrimPrefix(label, g.Basis)
		}
		b.WriteString(prefix + label + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m appModel) viewPairingDetail() string {
	pr, ok := m.session.Pairing()
	if !ok {
		return ""
	}
	caption := ""
	if d, ok := m.session.Detail(); ok {
		caption = styleTitle().Render(d.Title)
		if d.Author != "" {
			caption += " by " + d.Author
		}
	}
	sub := styleMuted().Render(pr.Basis + " pairing")
	return lipgloss.JoinVertical(lipgloss.Left, caption, sub, "", m.poem.View())
}

// poemPlainText is what "copy poem" puts on the clipboard.
func poemPlainText(p model.Poem) string {
	var parts []string
	if t := strings.TrimSpace(p.Title); t != "" {
		parts = append(parts, t)
	}
	if a := strings.TrimSpace(p.Author); a != "" {
		parts = append(parts, a)
	}
	if c := strings.TrimSpace(p.Content); c != "" {
		parts = append(parts, c)
	}
	return strings.Join(parts, "\n\n")
}

func plural(n int) string {
	if n == 1 {
		return ""
	}
	return "s"
}
