package tui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"pairing-gallery/internal/gallery"
	"pairing-gallery/internal/model"
)

const statusClearAfter = 3 * time.Second

type Options struct {
	Gallery gallery.Options
	// Logger must not write to the terminal; nil discards.
	Logger *slog.Logger
	Theme  string
	Glyphs string
}

type appModel struct {
	ctx     context.Context
	api     gallery.Fetcher
	log     *slog.Logger
	session *gallery.Session

	width  int
	height int

	keys    keyMap
	help    help.Model
	spinner spinner.Model
	poem    viewport.Model

	// basisCursor indexes session.Groups() in the painting detail view.
	basisCursor int

	statusText  string
	statusError bool
	statusSeq   int

	openURL func(string) error
	copy    func(string) error
}

func newAppModel(ctx context.Context, api gallery.Fetcher, opts Options) appModel {
	log := opts.Logger
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	s := gallery.NewSession(opts.Gallery)
	sp := spinner.New(spinner.WithSpinner(spinner.Dot))
	return appModel{
		ctx:     ctx,
		api:     api,
		log:     log.With("session", s.ID()),
		session: s,
		keys:    defaultKeyMap(),
		help:    help.New(),
		spinner: sp,
		poem:    viewport.New(0, 0),
		openURL: openURLInBrowser,
		copy:    copyToClipboard,
	}
}

// Run starts the gallery TUI in the alternate screen and blocks until the user quits or ctx ends.
func Run(ctx context.Context, api gallery.Fetcher, opts Options) error {
	applyColorProfilePreference()
	applyThemePreference(opts.Theme)
	applyGlyphPreference(opts.Glyphs)

	m := newAppModel(ctx, api, opts)
	m.log.Info("tui start", "pageSize", m.session.Options().PageSize, "cacheCap", m.session.Options().CacheCap)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	_, err := p.Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

type indexPageMsg struct {
	page int
	res  model.IndexPage
	err  error
}

type detailMsg struct {
	seq uint64
	res model.PaintingDetail
	err error
}

type statusMsg struct {
	text  string
	isErr bool
}

type statusClearMsg struct{ seq int }

func (m appModel) Init() tea.Cmd { return m.spinner.Tick }

func (m appModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		m.layoutPoem()
		return m, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case indexPageMsg:
		if msg.err != nil {
			m.log.Warn("index page failed", "page", msg.page, "err", msg.err)
		} else {
			m.log.Debug("index page loaded", "page", msg.page, "paintings", len(msg.res.Paintings))
		}
		return m, m.exec(m.session.IndexPageLoaded(msg.page, msg.res, msg.err))

	case detailMsg:
		if !m.session.DetailLoaded(msg.seq, msg.res, msg.err) {
			m.log.Debug("stale detail result dropped", "seq", msg.seq)
			return m, nil
		}
		if msg.err != nil {
			m.log.Warn("painting detail failed", "id", m.session.DetailID(), "err", msg.err)
		}
		m.basisCursor = 0
		return m, nil

	case statusMsg:
		cmd := m.setStatus(msg.text, msg.isErr)
		return m, cmd

	case statusClearMsg:
		if msg.seq == m.statusSeq {
			m.statusText = ""
			m.statusError = false
		}
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m appModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.Quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.layoutPoem()
		return m, nil
	}

	switch m.session.View() {
	case gallery.ViewStart:
		if key.Matches(msg, m.keys.Enter) {
			cmds, err := m.session.EnterGallery()
			if err != nil {
				return m, m.precondition(err)
			}
			return m, m.exec(cmds)
		}

	case gallery.ViewGallery:
		switch {
		case key.Matches(msg, m.keys.Prev):
			_, err := m.session.Previous()
			return m, m.precondition(err)
		case key.Matches(msg, m.keys.Next):
			_, err := m.session.Next()
			return m, m.precondition(err)
		case key.Matches(msg, m.keys.Enter):
			if _, ok := m.session.Current(); !ok {
				cmd := m.setStatus("Nothing to select yet", false)
				return m, cmd
			}
			cmds, err := m.session.SelectCurrent()
			if err != nil {
				return m, m.precondition(err)
			}
			m.basisCursor = 0
			return m, m.exec(cmds)
		case key.Matches(msg, m.keys.OpenImage):
			p, _ := m.session.Current()
			return m, m.openCmd(p.ImageURL, "No image available")
		}

	case gallery.ViewPaintingDetail:
		groups := m.session.Groups()
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, m.precondition(m.session.BackToGallery())
		case key.Matches(msg, m.keys.Up):
			if m.basisCursor > 0 {
				m.basisCursor--
			}
		case key.Matches(msg, m.keys.Down):
			if m.basisCursor < len(groups)-1 {
				m.basisCursor++
			}
		case key.Matches(msg, m.keys.Enter):
			if m.basisCursor >= len(groups) {
				return m, nil
			}
			if err := m.session.SelectBasis(groups[m.basisCursor].Basis); err != nil {
				return m, m.precondition(err)
			}
			m.layoutPoem()
			m.poem.GotoTop()
		case key.Matches(msg, m.keys.OpenImage):
			return m, m.openCmd(m.session.ImageURL(), "No image available")
		case key.Matches(msg, m.keys.OpenInfo):
			d, _ := m.session.Detail()
			return m, m.openCmd(d.InfoURL, "No painting info link")
		}

	case gallery.ViewPairingDetail:
		switch {
		case key.Matches(msg, m.keys.Back):
			return m, m.precondition(m.session.BackToPainting())
		case key.Matches(msg, m.keys.CopyPoem):
			pr, _ := m.session.Pairing()
			return m, m.copyCmd(poemPlainText(pr.Poem))
		case key.Matches(msg, m.keys.OpenImage):
			return m, m.openCmd(m.session.ImageURL(), "No image available")
		case key.Matches(msg, m.keys.OpenInfo):
			d, _ := m.session.Detail()
			return m, m.openCmd(d.InfoURL, "No painting info link")
		default:
			var cmd tea.Cmd
			m.poem, cmd = m.poem.Update(msg)
			return m, cmd
		}
	}
	return m, nil
}

// exec turns session commands into tea commands. Results come back as messages
// tagged with the page number or detail sequence so the session can drop stale ones.
func (m appModel) exec(cmds []gallery.Command) tea.Cmd {
	var out []tea.Cmd
	for _, c := range cmds {
		out = append(out, m.commandFor(c))
	}
	switch len(out) {
	case 0:
		return nil
	case 1:
		return out[0]
	}
	return tea.Batch(out...)
}

func (m appModel) commandFor(c gallery.Command) tea.Cmd {
	ctx, api := m.ctx, m.api
	switch c := c.(type) {
	case gallery.FetchIndexPage:
		return func() tea.Msg {
			res, err := api.FetchIndex(ctx, c.Page, c.Limit)
			return indexPageMsg{page: c.Page, res: res, err: err}
		}
	case gallery.FetchDetail:
		return func() tea.Msg {
			res, err := api.FetchPaintingDetail(ctx, c.ID)
			return detailMsg{seq: c.Seq, res: res, err: err}
		}
	}
	return nil
}

// precondition logs a rejected transition; key handling only offers valid ones.
func (m appModel) precondition(err error) tea.Cmd {
	if err != nil {
		m.log.Debug("transition rejected", "view", m.session.View().String(), "err", err)
	}
	return nil
}

func (m *appModel) setStatus(text string, isErr bool) tea.Cmd {
	m.statusSeq++
	m.statusText = text
	m.statusError = isErr
	seq := m.statusSeq
	return tea.Tick(statusClearAfter, func(time.Time) tea.Msg { return statusClearMsg{seq: seq} })
}

func (m appModel) openCmd(url, missing string) tea.Cmd {
	if url == "" {
		return func() tea.Msg { return statusMsg{text: missing} }
	}
	openFn, copyFn := m.openURL, m.copy
	return func() tea.Msg {
		if err := openFn(url); err == nil {
			return statusMsg{text: "Opened " + url}
		}
		if err := copyFn(url); err == nil {
			return statusMsg{text: "Could not open browser, URL copied to clipboard"}
		}
		return statusMsg{text: "Could not open URL or copy to clipboard", isErr: true}
	}
}

func (m appModel) copyCmd(text string) tea.Cmd {
	copyFn := m.copy
	return func() tea.Msg {
		if err := copyFn(text); err != nil {
			return statusMsg{text: fmt.Sprintf("Copy failed: %v", err), isErr: true}
		}
		return statusMsg{text: "Poem copied to clipboard"}
	}
}

// layoutPoem sizes the poem viewport and re-renders the selected poem at the new width.
func (m *appModel) layoutPoem() {
	w := m.width - 4
	if w < 20 {
		w = 20
	}
	// banner + blank + caption (2) + blank + footer
	h := m.height - 7
	if m.help.ShowAll {
		h -= 2
	}
	if h < 3 {
		h = 3
	}
	m.poem.Width = w
	m.poem.Height = h
	if pr, ok := m.session.Pairing(); ok {
		m.poem.SetContent(renderMarkdown(poemMarkdown(pr.Poem), w))
	}
}
