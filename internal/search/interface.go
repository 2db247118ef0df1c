package search

import "github.com/pders01/kiroku/internal/nav"

// Finder looks up titles among media the user has already browsed.
type Finder interface {
	Find(query string, limit int) ([]*Result, error)
}

// RouteListener is notified about every route the controller builds from
// fetched data.
type RouteListener interface {
	OnRouteAdded(r nav.Route)
}

// DebugStatser provides lightweight stats for visibility/debugging.
type DebugStatser interface {
	DocCount() (int, error)
}

type Kind string

const (
	KindAnime Kind = "anime"
	KindManga Kind = "manga"
)

// Result is one matching title.
type Result struct {
	Kind     Kind
	ID       int
	Title    string
	AltTitle string
	Snippet  string
	Score    float64
}
