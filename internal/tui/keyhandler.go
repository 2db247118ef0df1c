package tui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/kiroku/internal/app"
	"github.com/pders01/kiroku/internal/nav"
	"github.com/pders01/kiroku/internal/opener"
	"github.com/pders01/kiroku/internal/search"
	"github.com/pders01/kiroku/internal/validation"
)

// handleKey routes a key press. Input modes take precedence, then an open
// popup, then the browse bindings. Keys nobody claims go to the list or
// viewport.
func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return a, tea.Quit
	}
	a.status = ""

	switch a.mode {
	case modeSearch:
		return a.handleSearchKey(msg)
	case modeFind:
		return a.handleFindKey(msg)
	}

	if a.state.Popup.Kind != app.PopupNone {
		return a.handlePopupKey(msg)
	}

	if model, cmd, handled := a.handleBrowseKey(msg); handled {
		return model, cmd
	}
	return a.delegate(msg)
}

func (a *App) handleSearchKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		a.leaveInput()
		return a, nil
	case tea.KeyEnter:
		query := validation.SanitizeQuery(a.input.Value())
		a.leaveInput()
		if query == "" {
			return a, nil
		}
		a.report(a.ctrl.Activate(app.CategorySearch, app.Params{Query: query}))
		return a, tea.Batch(a.recordSearch(query), a.sync())
	}
	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a *App) handleFindKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.Type {
	case tea.KeyEsc:
		a.leaveInput()
		a.findSeq++
		return a, nil
	case tea.KeyEnter:
		item, ok := a.findList.SelectedItem().(findItem)
		if !ok {
			return a, nil
		}
		a.leaveInput()
		a.findSeq++
		return a, a.activate(item)
	case tea.KeyUp, tea.KeyDown, tea.KeyPgUp, tea.KeyPgDown:
		var cmd tea.Cmd
		a.findList, cmd = a.findList.Update(msg)
		return a, cmd
	}

	before := a.input.Value()
	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	if a.input.Value() == before {
		return a, cmd
	}
	return a, tea.Batch(cmd, a.scheduleFind(a.input.Value()))
}

func (a *App) handlePopupKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, a.keys.Back):
		a.ctrl.GoBack()
	case key.Matches(msg, a.keys.Select):
		outcome, ok := a.ctrl.SubmitPopup()
		if ok {
			a.report(outcome)
		}
	case key.Matches(msg, a.keys.Up):
		a.ctrl.MovePopupSelection(0, -1)
	case key.Matches(msg, a.keys.Down):
		a.ctrl.MovePopupSelection(0, 1)
	case key.Matches(msg, a.keys.Left):
		a.ctrl.MovePopupSelection(-1, 0)
	case key.Matches(msg, a.keys.Right):
		a.ctrl.MovePopupSelection(1, 0)
	case key.Matches(msg, a.keys.Quit):
		return a, tea.Quit
	default:
		return a, nil
	}
	return a, a.sync()
}

func (a *App) handleBrowseKey(msg tea.KeyMsg) (tea.Model, tea.Cmd, bool) {
	k := a.keys
	switch {
	case key.Matches(msg, k.Quit):
		return a, tea.Quit, true
	case key.Matches(msg, k.Search):
		return a, a.enterInput(modeSearch, "Search anime and manga…"), true
	case key.Matches(msg, k.Find):
		return a, a.enterFind(), true
	case key.Matches(msg, k.Back):
		a.ctrl.GoBack()
	case key.Matches(msg, k.Forward):
		a.ctrl.GoForward()
	case key.Matches(msg, k.Help):
		a.ctrl.ShowHelp()
	case key.Matches(msg, k.AddToList):
		a.openPopup(app.PopupAddToList)
	case key.Matches(msg, k.Rate):
		a.openPopup(app.PopupRate)
	case key.Matches(msg, k.Progress):
		a.openPopup(app.PopupProgress)
	case key.Matches(msg, k.Season):
		a.openPopup(app.PopupSeason)
	case key.Matches(msg, k.Delete):
		return a, a.deleteSelected(), true
	case key.Matches(msg, k.NextStatus):
		a.cycle(a.ctrl.CycleListStatus(1))
	case key.Matches(msg, k.PrevStatus):
		a.cycle(a.ctrl.CycleListStatus(-1))
	case key.Matches(msg, k.NextRanking):
		a.cycle(a.ctrl.CycleRanking(1))
	case key.Matches(msg, k.PrevRanking):
		a.cycle(a.ctrl.CycleRanking(-1))
	case key.Matches(msg, k.Seasonal):
		a.report(a.ctrl.Activate(app.CategorySeasonal, app.Params{Season: a.currentSeason()}))
	case key.Matches(msg, k.Suggestions):
		a.report(a.ctrl.Activate(app.CategorySuggestions, app.Params{}))
	case key.Matches(msg, k.TopAnime):
		a.report(a.ctrl.Activate(app.CategoryAnimeRanking, app.Params{}))
	case key.Matches(msg, k.TopManga):
		a.report(a.ctrl.Activate(app.CategoryMangaRanking, app.Params{}))
	case key.Matches(msg, k.AnimeList):
		a.report(a.ctrl.Activate(app.CategoryUserAnimeList, app.Params{}))
	case key.Matches(msg, k.MangaList):
		a.report(a.ctrl.Activate(app.CategoryUserMangaList, app.Params{}))
	case key.Matches(msg, k.Profile):
		a.report(a.ctrl.Activate(app.CategoryProfile, app.Params{}))
	case key.Matches(msg, k.RefreshNews):
		if a.svc.News == nil {
			return a, nil, true
		}
		a.setStatus(MsgRefreshingNews, StatusInfo)
		return a, a.refreshNews(true), true
	case key.Matches(msg, k.Open):
		return a, a.openCurrent(), true
	case key.Matches(msg, k.Select):
		if a.state.View.Transient() || isDocument(a.state.View) {
			return a, nil, false
		}
		return a, a.activate(a.list.SelectedItem()), true
	default:
		return a, nil, false
	}
	return a, a.sync(), true
}

func (a *App) delegate(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if a.state.View.Transient() {
		return a, nil
	}
	var cmd tea.Cmd
	if isDocument(a.state.View) {
		a.viewport, cmd = a.viewport.Update(msg)
		return a, cmd
	}
	a.list, cmd = a.list.Update(msg)
	return a, cmd
}

func (a *App) enterInput(m inputMode, placeholder string) tea.Cmd {
	a.mode = m
	a.input.Reset()
	a.input.Placeholder = placeholder
	return a.input.Focus()
}

func (a *App) enterFind() tea.Cmd {
	if a.svc.Finder == nil {
		a.setStatus("Find is disabled", StatusWarn)
		return nil
	}
	if s, ok := a.svc.Finder.(search.DebugStatser); ok {
		if n, err := s.DocCount(); err == nil && n == 0 {
			a.setStatus(MsgFindEmpty, StatusInfo)
			return nil
		}
	}
	a.findList.SetItems([]list.Item{})
	return a.enterInput(modeFind, "Find a title you have seen…")
}

func (a *App) leaveInput() {
	a.mode = modeBrowse
	a.input.Blur()
	a.input.Reset()
}

// activate follows a selected item. Headlines open in the browser.
func (a *App) activate(item list.Item) tea.Cmd {
	switch it := item.(type) {
	case activator:
		cat, params := it.target()
		a.report(a.ctrl.Activate(cat, params))
		if r, ok := it.(recentItem); ok {
			return tea.Batch(a.recordSearch(r.search.Query), a.sync())
		}
		return a.sync()
	case headlineItem:
		return a.openURL(it.headline.URL)
	}
	return nil
}

func (a *App) openPopup(kind app.PopupKind) {
	if !a.ctrl.OpenPopup(kind) && kind != app.PopupSeason {
		a.setStatus(MsgNotOnDetail, StatusWarn)
	}
}

func (a *App) cycle(outcome app.Outcome, ok bool) {
	if ok {
		a.report(outcome)
	}
}

// deleteSelected removes the shown media from the user's list, or clears
// recent searches on the home view.
func (a *App) deleteSelected() tea.Cmd {
	if a.state.View == nav.ViewEmpty {
		if _, ok := a.list.SelectedItem().(recentItem); ok && a.svc.Store != nil {
			store := a.svc.Store
			return func() tea.Msg {
				if err := store.ClearRecentSearches(); err != nil {
					return statusMsg{text: err.Error(), kind: StatusError}
				}
				return recentChangedMsg{cleared: true}
			}
		}
		return nil
	}
	outcome, ok := a.ctrl.DeleteFromList()
	if !ok {
		a.setStatus(MsgNotOnDetail, StatusWarn)
		return nil
	}
	a.report(outcome)
	return a.sync()
}

// openCurrent opens the page of the shown detail, or of the selected item.
func (a *App) openCurrent() tea.Cmd {
	switch d := a.state.Data.(type) {
	case nav.AnimeDetail:
		return a.openURL(opener.AnimePageURL(d.Anime.ID))
	case nav.MangaDetail:
		return a.openURL(opener.MangaPageURL(d.Manga.ID))
	}
	if a.state.View.Transient() || isDocument(a.state.View) {
		a.setStatus(MsgNothingToOpen, StatusWarn)
		return nil
	}
	switch it := a.list.SelectedItem().(type) {
	case animeItem:
		return a.openURL(opener.AnimePageURL(it.anime.ID))
	case mangaItem:
		return a.openURL(opener.MangaPageURL(it.manga.ID))
	case headlineItem:
		return a.openURL(it.headline.URL)
	}
	a.setStatus(MsgNothingToOpen, StatusWarn)
	return nil
}

// report turns activation outcomes that leave the view unchanged into a
// status line.
func (a *App) report(o app.Outcome) {
	switch o {
	case app.OutcomeInFlight:
		a.setStatus("Already loading", StatusInfo)
	case app.OutcomeCurrent:
		if a.state.View == nav.ViewEmpty {
			return
		}
		a.setStatus("Already showing "+a.state.Title, StatusInfo)
	}
}
