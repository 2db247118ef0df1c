package app

import (
	"errors"
	"sync"
	"time"

	"github.com/pders01/kiroku/internal/api"
	"github.com/pders01/kiroku/internal/config"
	"github.com/pders01/kiroku/internal/debuglog"
	"github.com/pders01/kiroku/internal/nav"
)

// ErrQueueFull is reported when the request channel has no room left.
var ErrQueueFull = errors.New("request queue is full")

// Outcome tells the caller what Activate did.
type Outcome int

const (
	// OutcomeCurrent: the current route already shows the data.
	OutcomeCurrent Outcome = iota
	// OutcomeForward: the data was one step ahead and the cursor moved there.
	OutcomeForward
	// OutcomeReused: a cached route was pushed again.
	OutcomeReused
	// OutcomeFetching: a request was queued.
	OutcomeFetching
	// OutcomeInFlight: an identical request is already queued.
	OutcomeInFlight
	// OutcomeFailed: nothing could be queued; the live view shows the error.
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCurrent:
		return "current"
	case OutcomeForward:
		return "forward"
	case OutcomeReused:
		return "reused"
	case OutcomeFetching:
		return "fetching"
	case OutcomeInFlight:
		return "in flight"
	default:
		return "failed"
	}
}

// Request is one unit of work for the network workers. Update is set for
// list mutations and nil for fetches.
type Request struct {
	Seq      uint64
	Category Category
	Params   Params
	Update   *ListUpdate
}

// Listener is told about every route built from a completed fetch.
type Listener interface {
	OnRouteAdded(r nav.Route)
}

// State is the live view the renderer reads. Snapshot returns a copy.
type State struct {
	View      nav.ViewKind
	Title     string
	Data      nav.Data
	Thumbnail *nav.Thumbnail
	RouteID   nav.RouteID
	Cursor    int
	Depth     int
	Busy      bool
	// Message is the error text shown in the error view.
	Message string
	// Notice is a one-line status, cleared on the next navigation.
	Notice   string
	Popup    Popup
	Revision uint64
}

// Controller owns the navigator and the live view state. All methods are
// safe for concurrent use; the UI and the network workers both call in.
type Controller struct {
	mu        sync.Mutex
	nav       *nav.Navigator
	live      State
	inflight  map[Category]Request
	updates   int
	stale     map[mediaKey]struct{}
	pending   bool
	seq       uint64
	requests  chan Request
	listeners []Listener
	onChange  func()
	english   bool
	now       func() time.Time
}

func NewController(cfg *config.Config) *Controller {
	c := &Controller{
		nav:      nav.New(cfg.Navigation.StackLimit),
		inflight: make(map[Category]Request),
		stale:    make(map[mediaKey]struct{}),
		requests: make(chan Request, cfg.Navigation.QueueSize),
		english:  cfg.API.EnglishTitles(),
		now:      time.Now,
	}
	c.project(nav.Home())
	return c
}

// Requests is consumed by the worker pool.
func (c *Controller) Requests() <-chan Request {
	return c.requests
}

func (c *Controller) AddListener(l Listener) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.listeners = append(c.listeners, l)
}

// SetOnChange registers fn to run, outside the lock, after every state change.
func (c *Controller) SetOnChange(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onChange = fn
}

func (c *Controller) notify() {
	c.mu.Lock()
	fn := c.onChange
	c.mu.Unlock()
	if fn != nil {
		fn()
	}
}

// Snapshot returns a copy of the live view state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.live
}

// History returns the history ids and the cursor.
func (c *Controller) History() ([]nav.RouteID, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.nav.History(), c.nav.Cursor()
}

// Activate shows the data described by (cat, p), reusing history when it can
// and queueing a fetch when it cannot.
func (c *Controller) Activate(cat Category, p Params) Outcome {
	defer c.notify()
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.activate(cat, p)
}

func (c *Controller) activate(cat Category, p Params) Outcome {
	p = normalize(cat, p)
	defer c.touch()
	reusable := func(r nav.Route) bool { return matches(cat, p, r) && !c.isStale(cat, p) }

	if cur, ok := c.nav.Current(); ok && reusable(cur) {
		if c.live.View.Transient() {
			c.project(cur)
		}
		return OutcomeCurrent
	}

	if m, ok := c.nav.Find(reusable); ok {
		if m.Index == c.nav.Cursor()+1 {
			if r, moved := c.nav.Forward(); moved {
				c.project(r)
				return OutcomeForward
			}
		}
		if err := c.nav.PushExisting(m.ID); err != nil {
			debuglog.Warnf("reusing %s route %d: %v", cat, m.ID, err)
			c.restore()
			return OutcomeFailed
		}
		c.restore()
		debuglog.Debugf("reused cached %s route %d", cat, m.ID)
		return OutcomeReused
	}

	if req, ok := c.inflight[cat]; ok && sameParams(req.Params, p) {
		c.showLoading()
		return OutcomeInFlight
	}

	c.seq++
	req := Request{Seq: c.seq, Category: cat, Params: p}
	if err := c.enqueue(req); err != nil {
		c.showError(err.Error())
		return OutcomeFailed
	}
	c.inflight[cat] = req
	c.showLoading()
	return OutcomeFetching
}

func (c *Controller) enqueue(req Request) error {
	select {
	case c.requests <- req:
		return nil
	default:
		debuglog.WithFields(map[string]any{"category": req.Category, "seq": req.Seq}).Warnf("request queue full")
		return ErrQueueFull
	}
}

// Complete applies a successful fetch: the payload becomes a new route that
// is pushed and shown. While a popup is open the route is only pushed and
// the view catches up when the popup closes. Results of superseded requests are dropped and
// Complete reports false.
func (c *Controller) Complete(req Request, data nav.Data) bool {
	c.mu.Lock()
	if !c.isLatest(req) {
		c.mu.Unlock()
		debuglog.Debugf("dropping superseded %s result seq=%d", req.Category, req.Seq)
		return false
	}
	delete(c.inflight, req.Category)

	route := nav.Route{
		Data:      data,
		View:      req.Category.View(),
		Title:     title(req.Category, req.Params, data, c.english),
		Thumbnail: thumbnail(data),
	}
	route.ID = c.nav.Push(route)
	if key, ok := detailKey(req.Category, req.Params); ok {
		delete(c.stale, key)
	}
	if c.live.Popup.Kind != PopupNone {
		// shown once the popup closes
		c.pending = true
	} else {
		c.project(route)
	}
	c.touch()
	listeners := append([]Listener(nil), c.listeners...)
	c.mu.Unlock()

	for _, l := range listeners {
		l.OnRouteAdded(route)
	}
	c.notify()
	return true
}

// Fail shows the error view for a failed fetch. History is not touched.
func (c *Controller) Fail(req Request, err error) bool {
	defer c.notify()
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.isLatest(req) {
		debuglog.Debugf("dropping superseded %s failure seq=%d: %v", req.Category, req.Seq, err)
		return false
	}
	delete(c.inflight, req.Category)
	debuglog.WithFields(map[string]any{"category": req.Category, "kind": api.KindOf(err)}).Warnf("fetch failed: %v", err)
	c.showError(api.Message(err))
	c.touch()
	return true
}

func (c *Controller) isLatest(req Request) bool {
	cur, ok := c.inflight[req.Category]
	return ok && cur.Seq == req.Seq
}

// GoBack closes an open popup, dismisses an overlay or steps back in history.
func (c *Controller) GoBack() bool {
	defer c.notify()
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.touch()

	if c.live.Popup.Kind != PopupNone {
		c.closePopup()
		return true
	}
	if c.live.View.Transient() && c.nav.Cursor() != 1 {
		c.restore()
		return true
	}
	r, ok := c.nav.Back()
	if !ok {
		return false
	}
	c.project(r)
	return true
}

// GoForward steps forward in history. It does nothing while a popup is open.
func (c *Controller) GoForward() bool {
	defer c.notify()
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.touch()

	if c.live.Popup.Kind != PopupNone {
		return false
	}
	r, ok := c.nav.Forward()
	if !ok {
		return false
	}
	c.project(r)
	return true
}

// ShowHelp toggles the help overlay.
func (c *Controller) ShowHelp() {
	defer c.notify()
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.touch()

	if c.live.View == nav.ViewHelp {
		c.restore()
		return
	}
	c.live.Popup = Popup{}
	c.live.View = nav.ViewHelp
	c.live.Title = "Help"
}

// CycleRanking switches the shown ranking to the next (step > 0) or
// previous ranking type.
func (c *Controller) CycleRanking(step int) (Outcome, bool) {
	defer c.notify()
	c.mu.Lock()
	defer c.mu.Unlock()

	switch d := c.live.Data.(type) {
	case nav.AnimeRankingPage:
		if req, ok := c.loading(CategoryAnimeRanking); ok {
			d.Type = req.Params.AnimeRanking
		}
		next := d.Type.Next()
		if step < 0 {
			next = d.Type.Previous()
		}
		return c.activate(CategoryAnimeRanking, Params{AnimeRanking: next}), true
	case nav.MangaRankingPage:
		if req, ok := c.loading(CategoryMangaRanking); ok {
			d.Type = req.Params.MangaRanking
		}
		next := d.Type.Next()
		if step < 0 {
			next = d.Type.Previous()
		}
		return c.activate(CategoryMangaRanking, Params{MangaRanking: next}), true
	}
	return OutcomeCurrent, false
}

// CycleListStatus switches the shown user list to the next or previous
// status filter.
func (c *Controller) CycleListStatus(step int) (Outcome, bool) {
	defer c.notify()
	c.mu.Lock()
	defer c.mu.Unlock()

	switch d := c.live.Data.(type) {
	case nav.UserAnimeListPage:
		if req, ok := c.loading(CategoryUserAnimeList); ok {
			d.Status = req.Params.WatchStatus
		}
		next := d.Status.Next()
		if step < 0 {
			next = d.Status.Previous()
		}
		return c.activate(CategoryUserAnimeList, Params{WatchStatus: next}), true
	case nav.UserMangaListPage:
		if req, ok := c.loading(CategoryUserMangaList); ok {
			d.Status = req.Params.ReadStatus
		}
		next := d.Status.Next()
		if step < 0 {
			next = d.Status.Previous()
		}
		return c.activate(CategoryUserMangaList, Params{ReadStatus: next}), true
	}
	return OutcomeCurrent, false
}

// loading returns the request the loading view is waiting on for cat.
func (c *Controller) loading(cat Category) (Request, bool) {
	if c.live.View != nav.ViewLoading {
		return Request{}, false
	}
	req, ok := c.inflight[cat]
	return req, ok
}

// project copies r into the live view and clears overlay state.
func (c *Controller) project(r nav.Route) {
	c.pending = false
	c.live.View = r.View
	c.live.Title = r.Title
	c.live.Data = r.Data
	c.live.Thumbnail = r.Thumbnail
	c.live.RouteID = r.ID
	c.live.Message = ""
	c.live.Notice = ""
	c.live.Popup = Popup{}
}

// restore re-projects the route under the cursor.
func (c *Controller) restore() {
	r, ok := c.nav.Current()
	if !ok {
		r = nav.Home()
	}
	c.project(r)
}

func (c *Controller) showLoading() {
	c.live.View = nav.ViewLoading
	c.live.Title = "Loading"
	c.live.Message = ""
}

func (c *Controller) showError(msg string) {
	c.live.View = nav.ViewError
	c.live.Title = "Error"
	c.live.Message = msg
}

func (c *Controller) touch() {
	c.live.Cursor = c.nav.Cursor()
	c.live.Depth = c.nav.Len()
	c.live.Busy = len(c.inflight) > 0 || c.updates > 0
	c.live.Revision++
}
