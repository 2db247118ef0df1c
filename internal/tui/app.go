package tui

import (
	"maps"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/kiroku/internal/api"
	"github.com/pders01/kiroku/internal/app"
	"github.com/pders01/kiroku/internal/config"
	"github.com/pders01/kiroku/internal/debuglog"
	"github.com/pders01/kiroku/internal/feed"
	"github.com/pders01/kiroku/internal/nav"
	"github.com/pders01/kiroku/internal/opener"
	"github.com/pders01/kiroku/internal/search"
	"github.com/pders01/kiroku/internal/storage"
)

// Services are the optional collaborators of the UI. Any of them may be nil.
type Services struct {
	Store    *storage.Store
	News     *feed.Manager
	Finder   search.Finder
	Launcher *opener.Launcher
}

type inputMode int

const (
	modeBrowse inputMode = iota
	modeSearch
	modeFind
)

// shown identifies what the list or viewport currently holds.
type shown struct {
	view     nav.ViewKind
	route    nav.RouteID
	revision uint64
}

type App struct {
	config   *config.Config
	ctrl     *app.Controller
	svc      Services
	theme    Theme
	keys     keyMap
	list     list.Model
	findList list.Model
	viewport viewport.Model
	input    textinput.Model
	help     help.Model
	spinner  spinner.Model
	mode     inputMode
	state    app.State
	shown    shown
	// positions remembers the list selection per route.
	positions map[nav.RouteID]int
	recent    []*storage.RecentSearch
	headlines []*storage.Headline
	status    string
	statusKnd StatusKind
	findSeq   int
	spinning  bool
	english   bool
	width     int
	height    int

	renderer      *glamour.TermRenderer
	rendererWidth int
	now           func() time.Time
}

func NewApp(cfg *config.Config, ctrl *app.Controller, svc Services) *App {
	theme := NewTheme(cfg.UI.Colors)

	delegate := list.NewDefaultDelegate()
	delegate.Styles.SelectedTitle = delegate.Styles.SelectedTitle.Foreground(theme.Accent).BorderLeftForeground(theme.Accent)
	delegate.Styles.SelectedDesc = delegate.Styles.SelectedDesc.Foreground(theme.Secondary).BorderLeftForeground(theme.Accent)

	l := list.New([]list.Item{}, delegate, 0, 0)
	l.SetShowTitle(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(false)
	l.SetShowHelp(false)

	fl := list.New([]list.Item{}, delegate, 0, 0)
	fl.SetShowTitle(false)
	fl.SetShowStatusBar(false)
	fl.SetFilteringEnabled(false)
	fl.SetShowHelp(false)

	ti := textinput.New()
	ti.CharLimit = 256

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Accent)

	a := &App{
		config:    cfg,
		ctrl:      ctrl,
		svc:       svc,
		theme:     theme,
		keys:      newKeyMap(cfg.Keys),
		list:      l,
		findList:  fl,
		viewport:  viewport.New(0, 0),
		input:     ti,
		help:      help.New(),
		spinner:   sp,
		positions: make(map[nav.RouteID]int),
		english:   cfg.API.EnglishTitles(),
		now:       time.Now,
	}
	a.shown.view = -1
	return a
}

// Run starts the program and forwards controller changes into it until the
// program exits.
func Run(a *App) error {
	p := tea.NewProgram(a, tea.WithAltScreen())
	detach := a.Attach(p)
	defer detach()
	_, err := p.Run()
	return err
}

// Attach routes controller change notifications to p. Notifications are
// coalesced so that the controller never blocks on the event loop.
func (a *App) Attach(p *tea.Program) (detach func()) {
	signal := make(chan struct{}, 1)
	done := make(chan struct{})
	a.ctrl.SetOnChange(func() {
		select {
		case signal <- struct{}{}:
		default:
		}
	})
	go func() {
		for {
			select {
			case <-done:
				return
			case <-signal:
				p.Send(stateChangedMsg{})
			}
		}
	}()
	return func() {
		a.ctrl.SetOnChange(nil)
		close(done)
	}
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.loadHome(), a.refreshNews(false), a.sync())
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.resize(msg.Width, msg.Height)
		a.shown.revision = 0
		return a, a.sync()

	case tea.KeyMsg:
		return a.handleKey(msg)

	case stateChangedMsg:
		return a, a.sync()

	case spinner.TickMsg:
		if !a.state.Busy {
			a.spinning = false
			return a, nil
		}
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case homeLoadedMsg:
		a.recent = msg.recent
		a.headlines = msg.headlines
		if a.shown.view == nav.ViewEmpty {
			a.showHome()
		}
		return a, nil

	case newsRefreshedMsg:
		if msg.err != nil {
			debuglog.Warnf("news refresh: %v", msg.err)
			a.setStatus("News: "+msg.err.Error(), StatusWarn)
			return a, nil
		}
		if msg.updated {
			a.headlines = msg.headlines
			if a.shown.view == nav.ViewEmpty {
				a.showHome()
			}
			a.setStatus(MsgNewsRefreshed(len(msg.headlines)), StatusSuccess)
		}
		return a, nil

	case recentChangedMsg:
		if msg.cleared {
			a.setStatus(MsgHistoryCleared, StatusSuccess)
		}
		return a, a.loadHome()

	case findFireMsg:
		if msg.seq != a.findSeq || a.mode != modeFind {
			return a, nil
		}
		return a, a.runFind(msg.seq, msg.query)

	case findResultsMsg:
		if msg.seq != a.findSeq || a.mode != modeFind {
			return a, nil
		}
		if msg.err != nil {
			a.setStatus(msg.err.Error(), StatusError)
			return a, nil
		}
		items := make([]list.Item, len(msg.results))
		for i, r := range msg.results {
			items[i] = findItem{result: r}
		}
		a.findList.SetItems(items)
		a.findList.Select(0)
		if len(items) == 0 {
			a.setStatus(MsgNoResults, StatusInfo)
		} else {
			a.setStatus(MsgResultsCount(len(items)), StatusInfo)
		}
		return a, nil

	case statusMsg:
		a.setStatus(msg.text, msg.kind)
		return a, nil
	}

	return a, nil
}

// sync pulls a fresh snapshot and rebuilds whatever it invalidates.
func (a *App) sync() tea.Cmd {
	a.state = a.ctrl.Snapshot()
	st := a.state

	if !st.View.Transient() {
		key := shown{view: st.View, route: st.RouteID, revision: st.Revision}
		switch {
		case key.view != a.shown.view || key.route != a.shown.route:
			a.rememberPosition()
			a.rebuild(key)
		case isDocument(st.View) && key.revision != a.shown.revision:
			a.rebuild(key)
		}
	}

	if st.Busy && !a.spinning {
		a.spinning = true
		return a.spinner.Tick
	}
	return nil
}

func isDocument(v nav.ViewKind) bool {
	return v == nav.ViewAnimeDetails || v == nav.ViewMangaDetails || v == nav.ViewUserInfo
}

func (a *App) rememberPosition() {
	if a.shown.view >= 0 && !isDocument(a.shown.view) {
		a.positions[a.shown.route] = a.list.Index()
	}
	ids, _ := a.ctrl.History()
	maps.DeleteFunc(a.positions, func(id nav.RouteID, _ int) bool {
		return !slices.Contains(ids, id)
	})
}

func (a *App) rebuild(key shown) {
	sameDoc := key.view == a.shown.view && key.route == a.shown.route
	a.shown = key

	switch {
	case key.view == nav.ViewEmpty:
		a.showHome()
	case isDocument(key.view):
		offset := a.viewport.YOffset
		a.viewport.SetContent(a.renderMarkdown(detailMarkdown(a.state.Data, a.english)))
		if sameDoc {
			a.viewport.SetYOffset(offset)
		} else {
			a.viewport.GotoTop()
		}
	default:
		a.list.SetItems(mediaItems(a.state.Data, a.english))
		a.list.Select(a.positions[key.route])
	}
}

func (a *App) showHome() {
	a.list.SetItems(homeItems(a.currentSeason(), a.recent, a.headlines))
	a.list.Select(a.positions[nav.HomeID])
}

func (a *App) currentSeason() api.AnimeSeason {
	now := a.now()
	return api.AnimeSeason{Year: now.Year(), Season: api.SeasonOf(now.Month())}
}

func (a *App) setStatus(text string, kind StatusKind) {
	a.status = text
	a.statusKnd = kind
}

func (a *App) resize(width, height int) {
	a.width = width
	a.height = height
	bodyHeight := max(height-4, 3)

	a.list.SetSize(width, bodyHeight)
	a.findList.SetSize(width, max(bodyHeight-4, 3))
	a.viewport.Width = width
	a.viewport.Height = bodyHeight
	a.input.Width = max(width-8, 10)
	a.help.Width = width
}

func (a *App) getRenderer() (*glamour.TermRenderer, error) {
	ui := a.config.UI
	wrap := (a.width * 9) / 10
	wrap = min(wrap, ui.WordWrapMaxWidth)
	wrap = max(wrap, ui.WordWrapMinWidth)
	if a.width > 0 && a.width < 50 {
		wrap = max(a.width-4, 20)
	}

	if a.renderer == nil || abs(a.rendererWidth-wrap) > 10 {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(wrap),
		)
		if err != nil {
			return nil, err
		}
		a.renderer = r
		a.rendererWidth = wrap
	}
	return a.renderer, nil
}

func (a *App) renderMarkdown(md string) string {
	r, err := a.getRenderer()
	if err != nil {
		debuglog.Errorf("markdown renderer: %v", err)
		return md
	}
	out, err := r.Render(md)
	if err != nil {
		debuglog.Errorf("rendering markdown: %v", err)
		return md
	}
	return out
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}

func (a *App) View() string {
	if a.width == 0 {
		return ""
	}
	bodyHeight := max(a.height-4, 3)
	st := a.state

	var body string
	switch {
	case st.View == nav.ViewLoading:
		body = renderCentered(a.width, bodyHeight, a.spinner.View()+" "+a.theme.MutedText.Render("Loading…"))
	case st.View == nav.ViewError:
		body = renderCentered(a.width, bodyHeight, lipgloss.JoinVertical(lipgloss.Center,
			a.theme.StatusError.Render("✗ "+st.Message),
			"",
			a.theme.Help.Render(a.keys.Back.Help().Key+": back"),
		))
	case st.View == nav.ViewHelp:
		body = renderCentered(a.width, bodyHeight, a.help.FullHelpView(a.keys.FullHelp()))
	case isDocument(st.View):
		body = a.viewport.View()
	case st.View == nav.ViewEmpty && len(a.list.Items()) == 0:
		body = renderCentered(a.width, bodyHeight, a.theme.Banner("Press "+a.keys.Search.Help().Key+" to search"))
	default:
		body = a.list.View()
	}

	switch a.mode {
	case modeSearch:
		body = lipgloss.JoinVertical(lipgloss.Left,
			a.theme.renderInputFrame(a.input.View(), true, a.input.Width),
			body,
		)
	case modeFind:
		body = lipgloss.JoinVertical(lipgloss.Left,
			a.theme.renderInputFrame(a.input.View(), true, a.input.Width),
			a.findList.View(),
		)
	}

	if st.Popup.Kind != app.PopupNone {
		body = lipgloss.Place(a.width, bodyHeight, lipgloss.Center, lipgloss.Center, a.theme.renderPopup(st.Popup, a.width))
	}

	body = lipgloss.NewStyle().Height(bodyHeight).MaxHeight(bodyHeight).Render(body)
	return lipgloss.JoinVertical(lipgloss.Left, a.renderTitleBar(), body, a.renderStatusBar())
}

func (a *App) renderTitleBar() string {
	st := a.state
	crumb := ""
	if st.Depth > 0 {
		crumb = strings.Repeat("‹", min(st.Cursor, 5))
	}
	left := a.theme.Title.Render(CompactLogo)
	title := st.Title
	if a.mode == modeFind {
		title = "Find in browsed titles"
	}
	right := a.theme.renderHeader(title, "", max(a.width-lipgloss.Width(left)-lipgloss.Width(crumb)-3, 10))
	return lipgloss.JoinHorizontal(lipgloss.Center, left, " ", a.theme.MutedText.Render(crumb), " ", right)
}

func (a *App) renderStatusBar() string {
	separator := a.theme.Separator.Render(strings.Repeat("─", max(a.width, 0)))

	var line string
	switch {
	case a.state.Notice != "":
		line = a.theme.Status(noticeKind(a.state.Notice)).Render(a.state.Notice)
	case a.status != "":
		line = a.theme.Status(a.statusKnd).Render(a.status)
	case a.state.Popup.Kind != app.PopupNone:
		line = a.help.ShortHelpView(a.keys.popupHelp())
	default:
		line = a.help.ShortHelpView(a.keys.ShortHelp())
	}
	if a.state.Busy && a.state.View != nav.ViewLoading {
		line = a.spinner.View() + " " + line
	}
	return lipgloss.JoinVertical(lipgloss.Left, separator, a.theme.StatusBar.Width(a.width).Render(line))
}
