package nav

// RouteID identifies one history entry. IDs grow monotonically and are never
// reused within a process; HomeID is reserved for the permanent home route.
type RouteID uint32

const HomeID RouteID = 0

// ViewKind is the display surface a route (or the live view) shows.
type ViewKind int

const (
	ViewEmpty ViewKind = iota
	ViewLoading
	ViewError
	ViewHelp
	ViewSearchResults
	ViewSuggestions
	ViewSeasonal
	ViewAnimeRanking
	ViewMangaRanking
	ViewUserInfo
	ViewUserAnimeList
	ViewUserMangaList
	ViewAnimeDetails
	ViewMangaDetails
)

var viewNames = [...]string{
	ViewEmpty:         "empty",
	ViewLoading:       "loading",
	ViewError:         "error",
	ViewHelp:          "help",
	ViewSearchResults: "search results",
	ViewSuggestions:   "suggestions",
	ViewSeasonal:      "seasonal",
	ViewAnimeRanking:  "anime ranking",
	ViewMangaRanking:  "manga ranking",
	ViewUserInfo:      "user info",
	ViewUserAnimeList: "anime list",
	ViewUserMangaList: "manga list",
	ViewAnimeDetails:  "anime details",
	ViewMangaDetails:  "manga details",
}

func (v ViewKind) String() string {
	if v < 0 || int(v) >= len(viewNames) {
		return "unknown"
	}
	return viewNames[v]
}

// Transient reports whether v is an overlay drawn over the current route
// rather than a route of its own.
func (v ViewKind) Transient() bool {
	return v == ViewLoading || v == ViewError || v == ViewHelp
}

// Thumbnail references a cover image; the image itself is cached elsewhere.
type Thumbnail struct {
	URL  string
	File string
}

// Route is one entry in the navigation history. Routes are treated as
// immutable once pushed; readers get copies.
type Route struct {
	ID        RouteID
	Data      Data
	View      ViewKind
	Title     string
	Thumbnail *Thumbnail
}

// Home is the permanent first history entry.
func Home() Route {
	return Route{ID: HomeID, View: ViewEmpty, Title: "Home"}
}
