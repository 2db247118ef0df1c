package app

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/pders01/kiroku/internal/api"
	"github.com/pders01/kiroku/internal/debuglog"
	"github.com/pders01/kiroku/internal/nav"
)

// PopupKind identifies the modal editor shown over the current view.
type PopupKind int

const (
	PopupNone PopupKind = iota
	PopupAddToList
	PopupRate
	PopupProgress
	PopupSeason
)

func (k PopupKind) String() string {
	switch k {
	case PopupAddToList:
		return "add to list"
	case PopupRate:
		return "rate"
	case PopupProgress:
		return "progress"
	case PopupSeason:
		return "season"
	}
	return "none"
}

type MediaKind int

const (
	MediaAnime MediaKind = iota
	MediaManga
)

func (m MediaKind) String() string {
	if m == MediaManga {
		return "manga"
	}
	return "anime"
}

// earliest year the seasonal endpoint has data for
const firstSeasonYear = 1917

// Popup is the state of an open modal editor. Selected is the status index
// for PopupAddToList, the score for PopupRate and the episode or chapter
// count for PopupProgress.
type Popup struct {
	Kind     PopupKind
	Media    MediaKind
	ID       int
	Title    string
	Selected int
	// Max bounds PopupProgress; 0 means the total is not known.
	Max    int
	Season api.AnimeSeason
}

// Options lists the choices of a list popup.
func (p Popup) Options() []string {
	switch p.Kind {
	case PopupAddToList:
		if p.Media == MediaManga {
			out := make([]string, len(api.ReadStatuses))
			for i, s := range api.ReadStatuses {
				out[i] = s.Label()
			}
			return out
		}
		out := make([]string, len(api.WatchStatuses))
		for i, s := range api.WatchStatuses {
			out[i] = s.Label()
		}
		return out
	case PopupRate:
		return api.RatingLabels[:]
	}
	return nil
}

// Value renders the current selection.
func (p Popup) Value() string {
	switch p.Kind {
	case PopupAddToList, PopupRate:
		opts := p.Options()
		if p.Selected >= 0 && p.Selected < len(opts) {
			return opts[p.Selected]
		}
	case PopupProgress:
		if p.Max > 0 {
			return fmt.Sprintf("%d / %d", p.Selected, p.Max)
		}
		return strconv.Itoa(p.Selected)
	case PopupSeason:
		return p.Season.String()
	}
	return ""
}

// ListUpdate is a change to one entry of the user's list. Nil fields are
// left untouched.
type ListUpdate struct {
	Media       MediaKind
	ID          int
	Title       string
	WatchStatus *api.WatchStatus
	ReadStatus  *api.ReadStatus
	Score       *int
	// Progress is episodes watched for anime and chapters read for manga.
	Progress *int
	Delete   bool
}

// ListResult is what the catalog answered to a ListUpdate. Both fields are
// nil after a delete.
type ListResult struct {
	Anime *api.AnimeListStatus
	Manga *api.MangaListStatus
}

// OpenPopup opens kind over the current view. List popups need a detail
// view; the season picker opens anywhere a route is shown.
func (c *Controller) OpenPopup(kind PopupKind) bool {
	defer c.notify()
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.live.View.Transient() {
		return false
	}
	var p Popup
	var ok bool
	if kind == PopupSeason {
		p, ok = c.seasonPopup(), true
	} else {
		p, ok = c.listPopup(kind)
	}
	if !ok {
		return false
	}
	c.live.Popup = p
	c.touch()
	return true
}

func (c *Controller) seasonPopup() Popup {
	season := api.AnimeSeason{Year: c.now().Year(), Season: api.SeasonOf(c.now().Month())}
	if d, ok := c.live.Data.(nav.SearchResults); ok && d.Season != nil {
		season = *d.Season
	}
	return Popup{Kind: PopupSeason, Season: season}
}

func (c *Controller) listPopup(kind PopupKind) (Popup, bool) {
	p := Popup{Kind: kind}
	switch d := c.live.Data.(type) {
	case nav.AnimeDetail:
		p.Media, p.ID, p.Title = MediaAnime, d.Anime.ID, d.Anime.DisplayTitle(c.english)
		p.Max = d.Anime.NumEpisodes
		if st := d.Anime.MyListStatus; st != nil {
			switch kind {
			case PopupAddToList:
				p.Selected = max(slices.Index(api.WatchStatuses, st.Status), 0)
			case PopupRate:
				p.Selected = st.Score
			case PopupProgress:
				p.Selected = st.NumEpisodesWatched
			}
		}
	case nav.MangaDetail:
		p.Media, p.ID, p.Title = MediaManga, d.Manga.ID, d.Manga.DisplayTitle(c.english)
		p.Max = d.Manga.NumChapters
		if st := d.Manga.MyListStatus; st != nil {
			switch kind {
			case PopupAddToList:
				p.Selected = max(slices.Index(api.ReadStatuses, st.Status), 0)
			case PopupRate:
				p.Selected = st.Score
			case PopupProgress:
				p.Selected = st.NumChaptersRead
			}
		}
	default:
		return Popup{}, false
	}
	return p, kind == PopupAddToList || kind == PopupRate || kind == PopupProgress
}

// MovePopupSelection moves the selection of the open popup. dy steps
// through options or values; in the season picker dx changes the season
// and dy the year.
func (c *Controller) MovePopupSelection(dx, dy int) {
	defer c.notify()
	c.mu.Lock()
	defer c.mu.Unlock()

	p := &c.live.Popup
	switch p.Kind {
	case PopupNone:
		return
	case PopupAddToList:
		n := len(p.Options())
		p.Selected = ((p.Selected+dx+dy)%n + n) % n
	case PopupRate:
		p.Selected = clamp(p.Selected+dx+dy, 0, len(api.RatingLabels)-1)
	case PopupProgress:
		upper := p.Max
		if upper <= 0 {
			upper = int(^uint(0) >> 1)
		}
		p.Selected = clamp(p.Selected+dx+dy, 0, upper)
	case PopupSeason:
		p.Season = shiftSeason(p.Season, dx, dy, c.now().Year()+1)
	}
	c.touch()
}

// shiftSeason moves s by dx seasons and dy years, carrying across year
// boundaries and keeping the year within the seasonal archive.
func shiftSeason(s api.AnimeSeason, dx, dy, lastYear int) api.AnimeSeason {
	n := len(api.Seasons)
	i := slices.Index(api.Seasons, s.Season)
	if i < 0 {
		i = 0
	}
	i += dx
	year := s.Year + dy + floorDiv(i, n)
	i = ((i % n) + n) % n
	return api.AnimeSeason{Year: clamp(year, firstSeasonYear, lastYear), Season: api.Seasons[i]}
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && a < 0 {
		q--
	}
	return q
}

func clamp(v, lo, hi int) int {
	return min(max(v, lo), hi)
}

// ClosePopup discards the open popup without applying it.
func (c *Controller) ClosePopup() {
	defer c.notify()
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closePopup()
	c.touch()
}

// closePopup drops the popup and shows a route that completed while it
// was open.
func (c *Controller) closePopup() {
	c.live.Popup = Popup{}
	if c.pending {
		c.restore()
	}
}

// SubmitPopup applies the open popup: the season picker activates the
// chosen season and list popups queue an update. It reports false when no
// popup is open.
func (c *Controller) SubmitPopup() (Outcome, bool) {
	defer c.notify()
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.live.Popup
	if p.Kind == PopupNone {
		return OutcomeCurrent, false
	}
	c.closePopup()
	if p.Kind == PopupSeason {
		return c.activate(CategorySeasonal, Params{Season: p.Season}), true
	}

	u := ListUpdate{Media: p.Media, ID: p.ID, Title: p.Title}
	switch p.Kind {
	case PopupAddToList:
		if p.Media == MediaManga {
			s := api.ReadStatuses[p.Selected]
			u.ReadStatus = &s
		} else {
			s := api.WatchStatuses[p.Selected]
			u.WatchStatus = &s
		}
	case PopupRate:
		score := p.Selected
		u.Score = &score
	case PopupProgress:
		progress := p.Selected
		u.Progress = &progress
	}
	return c.queueUpdate(u), true
}

// DeleteFromList queues removal of the shown media from the user's list.
// It reports false when the current view is not a detail of a listed entry.
func (c *Controller) DeleteFromList() (Outcome, bool) {
	defer c.notify()
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.live.View.Transient() || c.live.Popup.Kind != PopupNone {
		return OutcomeCurrent, false
	}
	u := ListUpdate{Delete: true}
	switch d := c.live.Data.(type) {
	case nav.AnimeDetail:
		if d.Anime.MyListStatus == nil {
			return OutcomeCurrent, false
		}
		u.Media, u.ID, u.Title = MediaAnime, d.Anime.ID, d.Anime.DisplayTitle(c.english)
	case nav.MangaDetail:
		if d.Manga.MyListStatus == nil {
			return OutcomeCurrent, false
		}
		u.Media, u.ID, u.Title = MediaManga, d.Manga.ID, d.Manga.DisplayTitle(c.english)
	default:
		return OutcomeCurrent, false
	}
	return c.queueUpdate(u), true
}

func (c *Controller) queueUpdate(u ListUpdate) Outcome {
	defer c.touch()
	cat := CategoryAnimeDetails
	if u.Media == MediaManga {
		cat = CategoryMangaDetails
	}
	c.seq++
	req := Request{Seq: c.seq, Category: cat, Params: Params{ID: u.ID}, Update: &u}
	if err := c.enqueue(req); err != nil {
		c.live.Notice = "Update failed: " + err.Error()
		return OutcomeFailed
	}
	c.updates++
	c.live.Notice = "Saving " + u.Title + "..."
	return OutcomeFetching
}

// CompleteUpdate applies the catalog's answer to the live copy of the
// detail it targets. Routes in history keep the data they were fetched with,
// so the next activation of that detail fetches it again.
func (c *Controller) CompleteUpdate(req Request, res ListResult) {
	defer c.notify()
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.touch()

	c.updates = max(c.updates-1, 0)
	u := req.Update
	if u == nil {
		return
	}
	c.stale[mediaKey{media: u.Media, id: u.ID}] = struct{}{}
	switch d := c.live.Data.(type) {
	case nav.AnimeDetail:
		if u.Media == MediaAnime && d.Anime.ID == u.ID {
			d.Anime.MyListStatus = res.Anime
			c.live.Data = d
		}
	case nav.MangaDetail:
		if u.Media == MediaManga && d.Manga.ID == u.ID {
			d.Manga.MyListStatus = res.Manga
			c.live.Data = d
		}
	}
	if u.Delete {
		c.live.Notice = "Removed " + u.Title + " from your list"
	} else {
		c.live.Notice = "Updated " + u.Title
	}
	debuglog.WithFields(map[string]any{"media": u.Media, "id": u.ID, "delete": u.Delete}).Infof("list entry saved")
}

// FailUpdate reports a failed list update as a notice; the view stays.
func (c *Controller) FailUpdate(req Request, err error) {
	defer c.notify()
	c.mu.Lock()
	defer c.mu.Unlock()
	defer c.touch()

	c.updates = max(c.updates-1, 0)
	debuglog.WithFields(map[string]any{"seq": req.Seq, "kind": api.KindOf(err)}).Warnf("list update failed: %v", err)
	c.live.Notice = "Update failed: " + api.Message(err)
}

type mediaKey struct {
	media MediaKind
	id    int
}

func detailKey(cat Category, p Params) (mediaKey, bool) {
	switch cat {
	case CategoryAnimeDetails:
		return mediaKey{media: MediaAnime, id: p.ID}, true
	case CategoryMangaDetails:
		return mediaKey{media: MediaManga, id: p.ID}, true
	}
	return mediaKey{}, false
}

// isStale reports whether a list update has landed for the detail (cat, p)
// since it was last fetched.
func (c *Controller) isStale(cat Category, p Params) bool {
	key, ok := detailKey(cat, p)
	if !ok {
		return false
	}
	_, stale := c.stale[key]
	return stale
}
