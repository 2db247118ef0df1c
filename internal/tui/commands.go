package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/kiroku/internal/debuglog"
	"github.com/pders01/kiroku/internal/search"
	"github.com/pders01/kiroku/internal/storage"
)

const (
	recentOnHome   = 5
	findLimit      = 20
	findDebounce   = 150 * time.Millisecond
	newsRefreshCap = 30 * time.Second
)

// stateChangedMsg is sent whenever the controller reports a change.
type stateChangedMsg struct{}

type homeLoadedMsg struct {
	recent    []*storage.RecentSearch
	headlines []*storage.Headline
}

type newsRefreshedMsg struct {
	updated   bool
	headlines []*storage.Headline
	err       error
}

type recentChangedMsg struct {
	cleared bool
}

type findFireMsg struct {
	seq   int
	query string
}

type findResultsMsg struct {
	seq     int
	results []*search.Result
	err     error
}

type statusMsg struct {
	text string
	kind StatusKind
}

func (a *App) loadHome() tea.Cmd {
	return func() tea.Msg {
		var msg homeLoadedMsg
		if a.svc.Store != nil {
			recent, err := a.svc.Store.RecentSearches(recentOnHome)
			if err != nil {
				debuglog.Warnf("loading recent searches: %v", err)
			}
			msg.recent = recent
		}
		if a.svc.News != nil {
			headlines, err := a.svc.News.Headlines()
			if err != nil {
				debuglog.Warnf("loading headlines: %v", err)
			}
			msg.headlines = headlines
		}
		return msg
	}
}

func (a *App) refreshNews(force bool) tea.Cmd {
	if a.svc.News == nil {
		return nil
	}
	news := a.svc.News
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), newsRefreshCap)
		defer cancel()
		news.SetForceRefresh(force)
		defer news.SetForceRefresh(false)
		updated, err := news.Refresh(ctx)
		if err != nil || !updated {
			return newsRefreshedMsg{updated: updated, err: err}
		}
		headlines, err := news.Headlines()
		return newsRefreshedMsg{updated: true, headlines: headlines, err: err}
	}
}

func (a *App) recordSearch(query string) tea.Cmd {
	if a.svc.Store == nil || query == "" {
		return nil
	}
	store := a.svc.Store
	at := a.now()
	return func() tea.Msg {
		if err := store.AddRecentSearch(query, at); err != nil {
			debuglog.Warnf("recording search %q: %v", query, err)
			return nil
		}
		return recentChangedMsg{}
	}
}

func (a *App) scheduleFind(query string) tea.Cmd {
	a.findSeq++
	seq := a.findSeq
	return tea.Tick(findDebounce, func(time.Time) tea.Msg {
		return findFireMsg{seq: seq, query: query}
	})
}

func (a *App) runFind(seq int, query string) tea.Cmd {
	finder := a.svc.Finder
	return func() tea.Msg {
		results, err := finder.Find(query, findLimit)
		return findResultsMsg{seq: seq, results: results, err: err}
	}
}

func (a *App) openURL(url string) tea.Cmd {
	launcher := a.svc.Launcher
	if launcher == nil {
		return func() tea.Msg { return statusMsg{text: MsgNothingToOpen, kind: StatusWarn} }
	}
	return func() tea.Msg {
		if err := launcher.Open(url); err != nil {
			return statusMsg{text: fmt.Sprintf("Failed to open %s: %v", url, err), kind: StatusError}
		}
		return statusMsg{text: MsgOpened(url), kind: StatusSuccess}
	}
}
