package gallery

import (
	"context"
	"log/slog"
	"sync"

	"pairing-gallery/internal/model"
)

// Fetcher is the painting API as seen by the controller.
type Fetcher interface {
	FetchIndex(ctx context.Context, page, limit int) (model.IndexPage, error)
	FetchPaintingDetail(ctx context.Context, id int) (model.PaintingDetail, error)
}

type ControllerConfig struct {
	Options Options
	Logger  *slog.Logger
	// OnChange, when set, is called with a fresh snapshot after every settled
	// transition or fetch result. Calls are serialized and never go backwards:
	// a snapshot older than one already delivered is dropped. It runs outside
	// the session lock but must not call back into the Controller.
	OnChange func(Snapshot)
}

// Controller runs a Session for callers that live on more than one goroutine.
// Every session access happens under mu; fetches run on their own goroutines.
type Controller struct {
	mu       sync.Mutex
	s        *Session
	api      Fetcher
	log      *slog.Logger
	onChange func(Snapshot)

	ctx    context.Context
	cancel context.CancelFunc
	closed bool

	// inflight counts running fetch goroutines; idle is signalled when it drops to zero.
	inflight int
	idle     *sync.Cond
	// version numbers snapshots in the order they were taken under mu.
	version uint64

	notifyMu  sync.Mutex
	delivered uint64
}

func NewController(ctx context.Context, api Fetcher, cfg ControllerConfig) *Controller {
	if ctx == nil {
		ctx = context.Background()
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}
	s := NewSession(cfg.Options)
	cctx, cancel := context.WithCancel(ctx)
	c := &Controller{
		s:        s,
		api:      api,
		log:      log.With("session", s.ID()),
		onChange: cfg.OnChange,
		ctx:      cctx,
		cancel:   cancel,
	}
	c.idle = sync.NewCond(&c.mu)
	return c
}

func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.s.Snapshot()
}

func (c *Controller) EnterGallery() error {
	return c.apply(func(s *Session) ([]Command, error) { return s.EnterGallery() })
}

func (c *Controller) SelectPainting(id int) error {
	return c.apply(func(s *Session) ([]Command, error) { return s.SelectPainting(id) })
}

func (c *Controller) SelectCurrent() error {
	return c.apply(func(s *Session) ([]Command, error) { return s.SelectCurrent() })
}

func (c *Controller) SelectPairing(p model.Pairing) error {
	return c.apply(func(s *Session) ([]Command, error) { return nil, s.SelectPairing(p) })
}

func (c *Controller) SelectBasis(basis string) error {
	return c.apply(func(s *Session) ([]Command, error) { return nil, s.SelectBasis(basis) })
}

func (c *Controller) Next() (bool, error) {
	var moved bool
	err := c.apply(func(s *Session) ([]Command, error) {
		var err error
		moved, err = s.Next()
		return nil, err
	})
	return moved, err
}

func (c *Controller) Previous() (bool, error) {
	var moved bool
	err := c.apply(func(s *Session) ([]Command, error) {
		var err error
		moved, err = s.Previous()
		return nil, err
	})
	return moved, err
}

func (c *Controller) BackToGallery() error {
	return c.apply(func(s *Session) ([]Command, error) { return nil, s.BackToGallery() })
}

func (c *Controller) BackToPainting() error {
	return c.apply(func(s *Session) ([]Command, error) { return nil, s.BackToPainting() })
}

func (c *Controller) Back() error {
	return c.apply(func(s *Session) ([]Command, error) { return nil, s.Back() })
}

// Wait blocks until no fetch is running, including any started by results
// that arrive while waiting. It is safe to call alongside other operations.
func (c *Controller) Wait() {
	c.mu.Lock()
	for c.inflight > 0 {
		c.idle.Wait()
	}
	c.mu.Unlock()
}

// Close abandons in-flight fetches. Results that arrive afterwards are dropped.
func (c *Controller) Close() {
	c.mu.Lock()
	c.closed = true
	c.mu.Unlock()
	c.cancel()
	c.Wait()
}

func (c *Controller) apply(fn func(s *Session) ([]Command, error)) error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return context.Canceled
	}
	cmds, err := fn(c.s)
	if err != nil {
		c.mu.Unlock()
		c.log.Debug("transition rejected", "err", err)
		return err
	}
	c.start(cmds)
	v, snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(v, snap)
	return nil
}

// start must be called with mu held.
func (c *Controller) start(cmds []Command) {
	for _, cmd := range cmds {
		switch cmd := cmd.(type) {
		case FetchIndexPage:
			c.inflight++
			go c.populate(cmd)
		case FetchDetail:
			c.inflight++
			go c.fetchDetail(cmd)
		}
	}
}

func (c *Controller) finish() {
	c.mu.Lock()
	c.inflight--
	if c.inflight == 0 {
		c.idle.Broadcast()
	}
	c.mu.Unlock()
}

// snapshotLocked must be called with mu held.
func (c *Controller) snapshotLocked() (uint64, Snapshot) {
	c.version++
	return c.version, c.s.Snapshot()
}

// populate requests index pages one at a time. The next page is only issued
// after the previous result has been applied, so cache order equals page order.
func (c *Controller) populate(first FetchIndexPage) {
	defer c.finish()

	next := &first
	for next != nil {
		req := *next
		next = nil

		res, err := c.api.FetchIndex(c.ctx, req.Page, req.Limit)
		if err != nil {
			c.log.Warn("index page fetch failed; skipping", "page", req.Page, "limit", req.Limit, "err", err)
		}

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return
		}
		for _, cmd := range c.s.IndexPageLoaded(req.Page, res, err) {
			if fp, ok := cmd.(FetchIndexPage); ok {
				next = &fp
			}
		}
		v, snap := c.snapshotLocked()
		c.mu.Unlock()

		if err == nil {
			c.log.Debug("index page loaded", "page", req.Page, "count", len(res.Paintings), "cached", snap.Length)
		}
		c.notify(v, snap)
	}
	c.log.Info("gallery cache populated", "cached", c.Snapshot().Length)
}

func (c *Controller) fetchDetail(cmd FetchDetail) {
	defer c.finish()

	res, err := c.api.FetchPaintingDetail(c.ctx, cmd.ID)
	if err != nil {
		c.log.Info("painting detail unavailable", "id", cmd.ID, "err", err)
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	if !c.s.DetailLoaded(cmd.Seq, res, err) {
		c.mu.Unlock()
		c.log.Debug("discarding stale painting detail", "id", cmd.ID, "seq", cmd.Seq)
		return
	}
	v, snap := c.snapshotLocked()
	c.mu.Unlock()

	c.notify(v, snap)
}

// notify delivers snapshots one at a time, skipping any taken before the last one delivered.
func (c *Controller) notify(v uint64, snap Snapshot) {
	if c.onChange == nil {
		return
	}
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	if v <= c.delivered {
		return
	}
	c.delivered = v
	c.onChange(snap)
}
