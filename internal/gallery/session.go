package gallery

import (
	"errors"
	"fmt"

	"pairing-gallery/internal/model"

	"github.com/oklog/ulid/v2"
)

type View int

const (
	ViewStart View = iota
	ViewGallery
	ViewPaintingDetail
	ViewPairingDetail
)

func (v View) String() string {
	switch v {
	case ViewStart:
		return "start"
	case ViewGallery:
		return "gallery"
	case ViewPaintingDetail:
		return "painting"
	case ViewPairingDetail:
		return "pairing"
	default:
		return fmt.Sprintf("view(%d)", int(v))
	}
}

type DetailStatus int

const (
	DetailIdle DetailStatus = iota
	DetailLoading
	DetailLoaded
	DetailNotFound
)

func (s DetailStatus) String() string {
	switch s {
	case DetailIdle:
		return "idle"
	case DetailLoading:
		return "loading"
	case DetailLoaded:
		return "loaded"
	case DetailNotFound:
		return "not-found"
	default:
		return fmt.Sprintf("detail(%d)", int(s))
	}
}

const (
	DefaultPageSize = 20
	DefaultCacheCap = 100
)

// ErrPrecondition is wrapped by every error returned for an operation that the
// current view does not support. State is never modified when it is returned.
var ErrPrecondition = errors.New("gallery: precondition violated")

type PreconditionError struct {
	Op   string
	View View
	Why  string
}

func (e *PreconditionError) Error() string {
	if e.Why != "" {
		return fmt.Sprintf("gallery: %s not allowed in %s view: %s", e.Op, e.View, e.Why)
	}
	return fmt.Sprintf("gallery: %s not allowed in %s view", e.Op, e.View)
}

func (e *PreconditionError) Unwrap() error { return ErrPrecondition }

// Command is a side effect requested by a transition. Session never performs I/O;
// the runner (Controller or the TUI) executes commands and feeds results back.
type Command interface{ command() }

type FetchIndexPage struct {
	Page  int
	Limit int
}

type FetchDetail struct {
	ID  int
	Seq uint64
}

func (FetchIndexPage) command() {}
func (FetchDetail) command()    {}

type Options struct {
	PageSize int
	CacheCap int
}

func (o Options) withDefaults() Options {
	if o.PageSize <= 0 {
		o.PageSize = DefaultPageSize
	}
	if o.CacheCap <= 0 {
		o.CacheCap = DefaultCacheCap
	}
	return o
}

// TotalPages is the number of index pages requested during population.
func (o Options) TotalPages() int {
	o = o.withDefaults()
	return (o.CacheCap + o.PageSize - 1) / o.PageSize
}

type Session struct {
	id   string
	opts Options

	view View

	// Carousel cache. Append-only; position defines carousel order.
	cache       []model.Painting
	index       int
	populating  bool
	ready       bool
	complete    bool
	pendingPage int
	failedPages []int

	detailSeq    uint64
	detailID     int
	detailStatus DetailStatus
	detail       *model.Painting
	imageURL     string

	pairing *model.Pairing
}

func NewSession(opts Options) *Session {
	return &Session{
		id:   ulid.Make().String(),
		opts: opts.withDefaults(),
		view: ViewStart,
	}
}

func (s *Session) ID() string       { return s.id }
func (s *Session) Options() Options { return s.opts }
func (s *Session) View() View       { return s.view }
func (s *Session) Index() int       { return s.index }
func (s *Session) Len() int         { return len(s.cache) }

// Current is the painting under the carousel cursor.
func (s *Session) Current() (model.Painting, bool) {
	if !s.ready || s.index < 0 || s.index >= len(s.cache) {
		return model.Painting{}, false
	}
	return s.cache[s.index], true
}

// At returns the cached painting at position i.
func (s *Session) At(i int) (model.Painting, bool) {
	if i < 0 || i >= len(s.cache) {
		return model.Painting{}, false
	}
	return s.cache[i], true
}

func (s *Session) Cache() []model.Painting {
	out := make([]model.Painting, len(s.cache))
	copy(out, s.cache)
	return out
}

func (s *Session) HasNext() bool     { return s.ready && s.index < len(s.cache)-1 }
func (s *Session) HasPrevious() bool { return s.ready && s.index > 0 }

// IndexLoading reports that population has started but nothing is displayable yet.
func (s *Session) IndexLoading() bool { return s.populating && !s.ready }
func (s *Session) Populating() bool   { return s.populating }
func (s *Session) CacheReady() bool   { return s.ready }
func (s *Session) CacheComplete() bool {
	return s.complete
}

func (s *Session) FailedPages() []int {
	out := make([]int, len(s.failedPages))
	copy(out, s.failedPages)
	return out
}

func (s *Session) DetailStatus() DetailStatus { return s.detailStatus }
func (s *Session) DetailLoading() bool        { return s.detailStatus == DetailLoading }
func (s *Session) DetailID() int              { return s.detailID }
func (s *Session) DetailSeq() uint64          { return s.detailSeq }

func (s *Session) Detail() (model.Painting, bool) {
	if s.detail == nil {
		return model.Painting{}, false
	}
	return *s.detail, true
}

func (s *Session) ImageURL() string { return s.imageURL }

func (s *Session) Pairing() (model.Pairing, bool) {
	if s.pairing == nil {
		return model.Pairing{}, false
	}
	return *s.pairing, true
}

// Groups is recomputed on every call; detail is immutable once loaded.
func (s *Session) Groups() []model.BasisGroup {
	if s.detail == nil {
		return nil
	}
	return s.detail.PairingGroups()
}

func (s *Session) precondition(op, why string) error {
	return &PreconditionError{Op: op, View: s.view, Why: why}
}

// EnterGallery switches to the carousel and starts population the first time.
func (s *Session) EnterGallery() ([]Command, error) {
	if s.view != ViewStart && s.view != ViewGallery {
		return nil, s.precondition("enterGallery", "")
	}
	s.view = ViewGallery
	if s.populating || s.complete || len(s.cache) > 0 {
		return nil, nil
	}
	s.populating = true
	s.pendingPage = 1
	return []Command{FetchIndexPage{Page: 1, Limit: s.opts.PageSize}}, nil
}

// IndexPageLoaded appends a page result and returns the next page request, if any.
// A failed page is recorded and skipped; it never aborts population.
func (s *Session) IndexPageLoaded(page int, res model.IndexPage, err error) []Command {
	if !s.populating || page != s.pendingPage {
		return nil
	}

	if err != nil {
		s.failedPages = append(s.failedPages, page)
	} else {
		s.cache = append(s.cache, res.Paintings...)
		if !s.ready && len(s.cache) > 0 {
			s.ready = true
			s.index = 0
		}
	}

	// Every page up to the cap is requested, whatever has_next says.
	if page >= s.opts.TotalPages() {
		s.populating = false
		s.complete = true
		s.pendingPage = 0
		// Nothing arrived at all: stop spinning and show the empty gallery.
		s.ready = true
		return nil
	}
	s.pendingPage = page + 1
	return []Command{FetchIndexPage{Page: s.pendingPage, Limit: s.opts.PageSize}}
}

// SelectPainting opens the detail view for id and supersedes any pending selection.
func (s *Session) SelectPainting(id int) ([]Command, error) {
	if s.view == ViewStart {
		return nil, s.precondition("selectPainting", "enter the gallery first")
	}
	s.view = ViewPaintingDetail
	s.detailSeq++
	s.detailID = id
	s.detailStatus = DetailLoading
	s.detail = nil
	s.imageURL = ""
	s.pairing = nil
	return []Command{FetchDetail{ID: id, Seq: s.detailSeq}}, nil
}

// SelectCurrent selects the painting under the carousel cursor.
func (s *Session) SelectCurrent() ([]Command, error) {
	if s.view != ViewGallery {
		return nil, s.precondition("selectCurrent", "")
	}
	p, ok := s.Current()
	if !ok {
		return nil, s.precondition("selectCurrent", "no painting displayed")
	}
	return s.SelectPainting(p.ID)
}

// DetailLoaded applies a detail fetch result. It reports false when the result
// is stale (a newer selection or a back navigation happened since it was issued).
func (s *Session) DetailLoaded(seq uint64, res model.PaintingDetail, err error) bool {
	if seq != s.detailSeq || s.detailStatus != DetailLoading {
		return false
	}
	if err != nil {
		s.detailStatus = DetailNotFound
		s.detail = nil
		s.imageURL = ""
		return true
	}
	p := res.Painting
	s.detail = &p
	s.imageURL = res.ImageURL
	s.detailStatus = DetailLoaded
	return true
}

func (s *Session) SelectPairing(p model.Pairing) error {
	if s.view != ViewPaintingDetail {
		return s.precondition("selectPairing", "")
	}
	if s.detail == nil {
		return s.precondition("selectPairing", "no painting loaded")
	}
	pr, ok := s.detail.PairingByID(p.ID)
	if !ok {
		return s.precondition("selectPairing", fmt.Sprintf("pairing %d does not belong to painting %d", p.ID, s.detail.ID))
	}
	s.pairing = &pr
	s.view = ViewPairingDetail
	return nil
}

// SelectBasis opens the representative pairing for basis.
func (s *Session) SelectBasis(basis string) error {
	if s.view != ViewPaintingDetail {
		return s.precondition("selectBasis", "")
	}
	if s.detail == nil {
		return s.precondition("selectBasis", "no painting loaded")
	}
	p, ok := s.detail.RepresentativeFor(basis)
	if !ok {
		return s.precondition("selectBasis", fmt.Sprintf("no %q pairing", basis))
	}
	return s.SelectPairing(p)
}

// Next moves the carousel forward. It reports whether the index changed.
func (s *Session) Next() (bool, error) {
	if s.view != ViewGallery {
		return false, s.precondition("next", "")
	}
	if !s.HasNext() {
		return false, nil
	}
	s.index++
	return true, nil
}

func (s *Session) Previous() (bool, error) {
	if s.view != ViewGallery {
		return false, s.precondition("previous", "")
	}
	if !s.HasPrevious() {
		return false, nil
	}
	s.index--
	return true, nil
}

// BackToGallery discards detail state. The carousel index is untouched.
func (s *Session) BackToGallery() error {
	if s.view != ViewPaintingDetail {
		return s.precondition("backToGallery", "")
	}
	s.view = ViewGallery
	// Invalidate any in-flight detail fetch.
	s.detailSeq++
	s.detailID = 0
	s.detailStatus = DetailIdle
	s.detail = nil
	s.imageURL = ""
	s.pairing = nil
	return nil
}

func (s *Session) BackToPainting() error {
	if s.view != ViewPairingDetail {
		return s.precondition("backToPainting", "")
	}
	s.view = ViewPaintingDetail
	return nil
}

// Back performs whichever back transition the current view supports.
func (s *Session) Back() error {
	switch s.view {
	case ViewPaintingDetail:
		return s.BackToGallery()
	case ViewPairingDetail:
		return s.BackToPainting()
	default:
		return s.precondition("back", "")
	}
}
