package nav

import (
	"maps"
	"slices"
)

// Store maps route ids to routes. It never frees anything on its own;
// the navigator calls Retain after every history change.
type Store struct {
	routes map[RouteID]Route
	nextID RouteID
}

// NewStore returns a store holding only the home route.
func NewStore() *Store {
	return &Store{routes: map[RouteID]Route{HomeID: Home()}}
}

// AllocateID returns a fresh id. It never returns HomeID.
func (s *Store) AllocateID() RouteID {
	s.nextID++
	return s.nextID
}

func (s *Store) Insert(r Route) {
	s.routes[r.ID] = r
}

func (s *Store) Get(id RouteID) (Route, bool) {
	r, ok := s.routes[id]
	return r, ok
}

func (s *Store) Contains(id RouteID) bool {
	_, ok := s.routes[id]
	return ok
}

// Retain drops every route for which keep returns false. The home route is
// always kept.
func (s *Store) Retain(keep func(RouteID) bool) {
	for id := range s.routes {
		if id != HomeID && !keep(id) {
			delete(s.routes, id)
		}
	}
}

func (s *Store) Len() int {
	return len(s.routes)
}

// IDs returns the stored ids in ascending order.
func (s *Store) IDs() []RouteID {
	return slices.Sorted(maps.Keys(s.routes))
}
