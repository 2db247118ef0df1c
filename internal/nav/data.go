package nav

import "github.com/pders01/kiroku/internal/api"

// Data is the payload a route carries. The set of implementations is closed;
// each one holds enough to redraw its view without refetching.
type Data interface {
	routeData()
}

// SearchResults holds a title search or, when Season is set, a seasonal
// listing.
type SearchResults struct {
	Query  string
	Season *api.AnimeSeason
	Anime  []api.Anime
	Manga  []api.Manga
}

type Suggestions struct {
	Anime []api.Anime
}

type UserProfile struct {
	User api.UserInfo
}

type AnimeDetail struct {
	Anime api.Anime
}

type MangaDetail struct {
	Manga api.Manga
}

// UserAnimeListPage is the signed-in user's anime list filtered by Status.
// An empty Status means every entry.
type UserAnimeListPage struct {
	Status api.WatchStatus
	Anime  []api.Anime
}

type UserMangaListPage struct {
	Status api.ReadStatus
	Manga  []api.Manga
}

type AnimeRankingPage struct {
	Type    api.AnimeRankingType
	Entries []api.Ranked[api.Anime]
}

type MangaRankingPage struct {
	Type    api.MangaRankingType
	Entries []api.Ranked[api.Manga]
}

func (SearchResults) routeData()     {}
func (Suggestions) routeData()       {}
func (UserProfile) routeData()       {}
func (AnimeDetail) routeData()       {}
func (MangaDetail) routeData()       {}
func (UserAnimeListPage) routeData() {}
func (UserMangaListPage) routeData() {}
func (AnimeRankingPage) routeData()  {}
func (MangaRankingPage) routeData()  {}

// Media returns every anime and manga carried by d, in display order.
func Media(d Data) ([]api.Anime, []api.Manga) {
	switch v := d.(type) {
	case SearchResults:
		return v.Anime, v.Manga
	case Suggestions:
		return v.Anime, nil
	case AnimeDetail:
		return []api.Anime{v.Anime}, nil
	case MangaDetail:
		return nil, []api.Manga{v.Manga}
	case UserAnimeListPage:
		return v.Anime, nil
	case UserMangaListPage:
		return nil, v.Manga
	case AnimeRankingPage:
		anime := make([]api.Anime, len(v.Entries))
		for i, e := range v.Entries {
			anime[i] = e.Node
		}
		return anime, nil
	case MangaRankingPage:
		manga := make([]api.Manga, len(v.Entries))
		for i, e := range v.Entries {
			manga[i] = e.Node
		}
		return nil, manga
	}
	return nil, nil
}
