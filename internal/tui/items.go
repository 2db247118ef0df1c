package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"

	"github.com/pders01/kiroku/internal/api"
	"github.com/pders01/kiroku/internal/app"
	"github.com/pders01/kiroku/internal/nav"
	"github.com/pders01/kiroku/internal/search"
	"github.com/pders01/kiroku/internal/storage"
)

// activator is an item that navigates somewhere when selected.
type activator interface {
	target() (app.Category, app.Params)
}

type animeItem struct {
	anime   api.Anime
	rank    int
	english bool
}

func (i animeItem) Title() string {
	t := i.anime.DisplayTitle(i.english)
	if i.rank > 0 {
		t = fmt.Sprintf("#%d %s", i.rank, t)
	}
	return t
}

func (i animeItem) Description() string {
	a := i.anime
	var parts []string
	if a.MediaType != "" {
		parts = append(parts, a.MediaType.Label())
	}
	if a.NumEpisodes > 0 {
		parts = append(parts, plural(a.NumEpisodes, "ep"))
	}
	if a.StartSeason != nil && a.StartSeason.Year > 0 {
		parts = append(parts, a.StartSeason.String())
	}
	if a.Mean > 0 {
		parts = append(parts, fmt.Sprintf("★ %.2f", a.Mean))
	}
	if s := a.MyListStatus; s != nil && s.Status != "" {
		parts = append(parts, listProgress(s.Status.Label(), s.NumEpisodesWatched, a.NumEpisodes))
	}
	return strings.Join(parts, " • ")
}

func (i animeItem) FilterValue() string { return i.anime.Title }

func (i animeItem) target() (app.Category, app.Params) {
	return app.CategoryAnimeDetails, app.Params{ID: i.anime.ID}
}

type mangaItem struct {
	manga   api.Manga
	rank    int
	english bool
}

func (i mangaItem) Title() string {
	t := i.manga.DisplayTitle(i.english)
	if i.rank > 0 {
		t = fmt.Sprintf("#%d %s", i.rank, t)
	}
	return t
}

func (i mangaItem) Description() string {
	m := i.manga
	var parts []string
	if m.MediaType != "" {
		parts = append(parts, m.MediaType.Label())
	}
	if m.NumChapters > 0 {
		parts = append(parts, plural(m.NumChapters, "ch"))
	}
	if m.Mean > 0 {
		parts = append(parts, fmt.Sprintf("★ %.2f", m.Mean))
	}
	if s := m.MyListStatus; s != nil && s.Status != "" {
		parts = append(parts, listProgress(s.Status.Label(), s.NumChaptersRead, m.NumChapters))
	}
	return strings.Join(parts, " • ")
}

func (i mangaItem) FilterValue() string { return i.manga.Title }

func (i mangaItem) target() (app.Category, app.Params) {
	return app.CategoryMangaDetails, app.Params{ID: i.manga.ID}
}

// menuItem is a home view shortcut.
type menuItem struct {
	label    string
	desc     string
	category app.Category
	params   app.Params
}

func (i menuItem) Title() string       { return "› " + i.label }
func (i menuItem) Description() string { return i.desc }
func (i menuItem) FilterValue() string { return i.label }

func (i menuItem) target() (app.Category, app.Params) { return i.category, i.params }

type recentItem struct {
	search *storage.RecentSearch
}

func (i recentItem) Title() string { return "⌕ " + i.search.Query }
func (i recentItem) Description() string {
	return fmt.Sprintf("searched %s • %s", plural(i.search.Count, "time"), i.search.SearchedAt.Format("Jan 2, 15:04"))
}
func (i recentItem) FilterValue() string { return i.search.Query }

func (i recentItem) target() (app.Category, app.Params) {
	return app.CategorySearch, app.Params{Query: i.search.Query}
}

type headlineItem struct {
	headline *storage.Headline
}

func (i headlineItem) Title() string { return "✎ " + i.headline.Title }
func (i headlineItem) Description() string {
	desc := i.headline.Summary
	if !i.headline.Published.IsZero() {
		desc = i.headline.Published.Format("Jan 2") + " • " + desc
	}
	return desc
}
func (i headlineItem) FilterValue() string { return i.headline.Title }

type findItem struct {
	result *search.Result
}

func (i findItem) Title() string {
	return fmt.Sprintf("[%s] %s", i.result.Kind, i.result.Title)
}

func (i findItem) Description() string {
	if i.result.AltTitle != "" && i.result.AltTitle != i.result.Title {
		return i.result.AltTitle
	}
	return i.result.Snippet
}

func (i findItem) FilterValue() string { return i.result.Title }

func (i findItem) target() (app.Category, app.Params) {
	if i.result.Kind == search.KindManga {
		return app.CategoryMangaDetails, app.Params{ID: i.result.ID}
	}
	return app.CategoryAnimeDetails, app.Params{ID: i.result.ID}
}

// mediaItems lists the anime and manga carried by route data.
func mediaItems(data nav.Data, english bool) []list.Item {
	var items []list.Item
	switch d := data.(type) {
	case nav.AnimeRankingPage:
		for _, e := range d.Entries {
			items = append(items, animeItem{anime: e.Node, rank: e.Ranking.Rank, english: english})
		}
		return items
	case nav.MangaRankingPage:
		for _, e := range d.Entries {
			items = append(items, mangaItem{manga: e.Node, rank: e.Ranking.Rank, english: english})
		}
		return items
	}

	anime, manga := nav.Media(data)
	for _, a := range anime {
		items = append(items, animeItem{anime: a, english: english})
	}
	for _, m := range manga {
		items = append(items, mangaItem{manga: m, english: english})
	}
	return items
}

// homeItems builds the home view: shortcuts, recent searches, then news.
func homeItems(season api.AnimeSeason, recent []*storage.RecentSearch, headlines []*storage.Headline) []list.Item {
	items := []list.Item{
		menuItem{label: "This season", desc: season.String(), category: app.CategorySeasonal, params: app.Params{Season: season}},
		menuItem{label: "Suggestions", desc: "Picked from your list", category: app.CategorySuggestions},
		menuItem{label: "Top anime", desc: "All-time ranking", category: app.CategoryAnimeRanking},
		menuItem{label: "Top manga", desc: "All-time ranking", category: app.CategoryMangaRanking},
		menuItem{label: "My anime list", desc: "Everything you track", category: app.CategoryUserAnimeList},
		menuItem{label: "My manga list", desc: "Everything you read", category: app.CategoryUserMangaList},
		menuItem{label: "Profile", desc: "Your statistics", category: app.CategoryProfile},
	}
	for _, r := range recent {
		items = append(items, recentItem{search: r})
	}
	for _, h := range headlines {
		items = append(items, headlineItem{headline: h})
	}
	return items
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

func listProgress(status string, done, total int) string {
	switch {
	case total > 0:
		status = fmt.Sprintf("%s %d/%d", status, done, total)
	case done > 0:
		status = fmt.Sprintf("%s %d", status, done)
	}
	return strings.TrimSpace(status)
}
