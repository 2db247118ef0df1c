package app

import (
	"fmt"
	"strings"

	"github.com/pders01/kiroku/internal/api"
	"github.com/pders01/kiroku/internal/nav"
	"github.com/pders01/kiroku/internal/validation"
)

// Category is a fetchable kind of view.
type Category int

const (
	CategorySearch Category = iota
	CategorySeasonal
	CategorySuggestions
	CategoryAnimeRanking
	CategoryMangaRanking
	CategoryUserAnimeList
	CategoryUserMangaList
	CategoryProfile
	CategoryAnimeDetails
	CategoryMangaDetails
)

var categoryNames = [...]string{
	CategorySearch:        "search",
	CategorySeasonal:      "seasonal",
	CategorySuggestions:   "suggestions",
	CategoryAnimeRanking:  "anime ranking",
	CategoryMangaRanking:  "manga ranking",
	CategoryUserAnimeList: "anime list",
	CategoryUserMangaList: "manga list",
	CategoryProfile:       "profile",
	CategoryAnimeDetails:  "anime details",
	CategoryMangaDetails:  "manga details",
}

func (c Category) String() string {
	if c < 0 || int(c) >= len(categoryNames) {
		return "unknown"
	}
	return categoryNames[c]
}

// View is the view kind routes of this category are stored under.
func (c Category) View() nav.ViewKind {
	switch c {
	case CategorySearch:
		return nav.ViewSearchResults
	case CategorySeasonal:
		return nav.ViewSeasonal
	case CategorySuggestions:
		return nav.ViewSuggestions
	case CategoryAnimeRanking:
		return nav.ViewAnimeRanking
	case CategoryMangaRanking:
		return nav.ViewMangaRanking
	case CategoryUserAnimeList:
		return nav.ViewUserAnimeList
	case CategoryUserMangaList:
		return nav.ViewUserMangaList
	case CategoryProfile:
		return nav.ViewUserInfo
	case CategoryAnimeDetails:
		return nav.ViewAnimeDetails
	case CategoryMangaDetails:
		return nav.ViewMangaDetails
	}
	return nav.ViewEmpty
}

// Params selects which data of a category is wanted. Only the fields the
// category uses are compared.
type Params struct {
	Query        string
	Season       api.AnimeSeason
	AnimeRanking api.AnimeRankingType
	MangaRanking api.MangaRankingType
	WatchStatus  api.WatchStatus
	ReadStatus   api.ReadStatus
	ID           int
}

// normalize zeroes the fields c ignores and fills defaults, so that two
// Params asking for the same data compare equal.
func normalize(c Category, p Params) Params {
	out := Params{}
	switch c {
	case CategorySearch:
		out.Query = validation.SanitizeQuery(p.Query)
	case CategorySeasonal:
		out.Season = p.Season
	case CategoryAnimeRanking:
		out.AnimeRanking = p.AnimeRanking
		if out.AnimeRanking == "" {
			out.AnimeRanking = api.AnimeRankAll
		}
	case CategoryMangaRanking:
		out.MangaRanking = p.MangaRanking
		if out.MangaRanking == "" {
			out.MangaRanking = api.MangaRankAll
		}
	case CategoryUserAnimeList:
		out.WatchStatus = p.WatchStatus
	case CategoryUserMangaList:
		out.ReadStatus = p.ReadStatus
	case CategoryAnimeDetails, CategoryMangaDetails:
		out.ID = p.ID
	}
	return out
}

// sameParams compares normalized params; queries ignore case.
func sameParams(a, b Params) bool {
	if !strings.EqualFold(a.Query, b.Query) {
		return false
	}
	a.Query, b.Query = "", ""
	return a == b
}

// matches reports whether r already holds the data (c, p) asks for.
// p must be normalized.
func matches(c Category, p Params, r nav.Route) bool {
	if r.View != c.View() || r.Data == nil {
		return false
	}
	switch d := r.Data.(type) {
	case nav.SearchResults:
		if c == CategorySeasonal {
			return d.Season != nil && *d.Season == p.Season
		}
		return d.Season == nil && strings.EqualFold(d.Query, p.Query)
	case nav.Suggestions, nav.UserProfile:
		return true
	case nav.AnimeRankingPage:
		return d.Type == p.AnimeRanking
	case nav.MangaRankingPage:
		return d.Type == p.MangaRanking
	case nav.UserAnimeListPage:
		return d.Status == p.WatchStatus
	case nav.UserMangaListPage:
		return d.Status == p.ReadStatus
	case nav.AnimeDetail:
		return d.Anime.ID == p.ID
	case nav.MangaDetail:
		return d.Manga.ID == p.ID
	}
	return false
}

// title derives the heading of a freshly fetched route.
func title(c Category, p Params, data nav.Data, english bool) string {
	switch c {
	case CategorySearch:
		return "Search Results: " + p.Query
	case CategorySeasonal:
		return "Seasonal Anime: " + p.Season.String()
	case CategorySuggestions:
		return "Suggested Anime"
	case CategoryAnimeRanking:
		return "Top Anime: " + p.AnimeRanking.Label()
	case CategoryMangaRanking:
		return "Top Manga: " + p.MangaRanking.Label()
	case CategoryUserAnimeList:
		return "My Anime List: " + statusLabel(p.WatchStatus.Label())
	case CategoryUserMangaList:
		return "My Manga List: " + statusLabel(p.ReadStatus.Label())
	case CategoryProfile:
		if d, ok := data.(nav.UserProfile); ok {
			return "Profile: " + d.User.Name
		}
		return "Profile"
	case CategoryAnimeDetails:
		if d, ok := data.(nav.AnimeDetail); ok {
			return d.Anime.DisplayTitle(english)
		}
	case CategoryMangaDetails:
		if d, ok := data.(nav.MangaDetail); ok {
			return d.Manga.DisplayTitle(english)
		}
	}
	return fmt.Sprintf("%s %d", c, p.ID)
}

func statusLabel(label string) string {
	if label == "" {
		return "All"
	}
	return label
}

// thumbnail picks the cover of a detail payload.
func thumbnail(data nav.Data) *nav.Thumbnail {
	var pic *api.Picture
	var file string
	switch d := data.(type) {
	case nav.AnimeDetail:
		pic, file = d.Anime.MainPicture, fmt.Sprintf("anime-%d.jpg", d.Anime.ID)
	case nav.MangaDetail:
		pic, file = d.Manga.MainPicture, fmt.Sprintf("manga-%d.jpg", d.Manga.ID)
	}
	if pic == nil {
		return nil
	}
	url := pic.Medium
	if url == "" {
		url = pic.Large
	}
	if url == "" {
		return nil
	}
	return &nav.Thumbnail{URL: url, File: file}
}
