package nav

import (
	"errors"
	"fmt"
	"slices"

	"github.com/pders01/kiroku/internal/debuglog"
)

var (
	ErrUnknownRoute = errors.New("nav: unknown route")
	ErrOutOfRange   = errors.New("nav: history index out of range")
	ErrInvalidState = errors.New("nav: invalid navigation state")
)

// Navigator is a linear browsing history over routes held in a Store.
//
// After every exported method returns:
//   - history is non-empty and starts with HomeID
//   - cursor indexes into history
//   - every id in history is in the store, and every stored id is in history
//   - no id appears twice in a row
//
// Navigator is not safe for concurrent use; the controller serializes access.
type Navigator struct {
	store   *Store
	history []RouteID
	cursor  int
	limit   int
}

// New returns a navigator positioned at the home route. limit caps the
// number of entries behind home; New panics if it is below 1.
func New(limit int) *Navigator {
	if limit < 1 {
		panic(fmt.Sprintf("nav: stack limit must be at least 1, got %d", limit))
	}
	return &Navigator{
		store:   NewStore(),
		history: []RouteID{HomeID},
		limit:   limit,
	}
}

// Push drops any forward history, appends r under a newly allocated id and
// moves the cursor to it. The id r carries on input is ignored.
func (n *Navigator) Push(r Route) RouteID {
	n.truncateForward()
	r.ID = n.store.AllocateID()
	n.store.Insert(r)
	n.history = append(n.history, r.ID)
	n.cursor = len(n.history) - 1
	n.Compact()
	n.TrimToCapacity()
	return r.ID
}

// PushExisting drops any forward history and appends an already stored
// route. An id the store does not know resets the cursor to home.
func (n *Navigator) PushExisting(id RouteID) error {
	if !n.store.Contains(id) {
		debuglog.WithFields(map[string]any{"route": id}).Warnf("push of unknown route, returning home")
		n.cursor = 0
		return fmt.Errorf("%w: %d", ErrUnknownRoute, id)
	}
	// compaction runs after the append: id may live only in the part
	// being truncated
	n.truncateForward()
	if n.history[n.cursor] != id {
		n.history = append(n.history, id)
	}
	n.cursor = len(n.history) - 1
	n.Compact()
	n.TrimToCapacity()
	return nil
}

// Back moves one entry back. From the first entry after home it always
// lands on home. It reports false when already at home.
func (n *Navigator) Back() (Route, bool) {
	if n.cursor <= 0 {
		return Route{}, false
	}
	target := n.cursor - 1
	if n.cursor == 1 {
		target = 0
	}
	r, err := n.Load(target)
	if errors.Is(err, ErrOutOfRange) {
		return Route{}, false
	}
	return r, true
}

// Forward moves one entry forward. It reports false at the newest entry.
func (n *Navigator) Forward() (Route, bool) {
	if n.cursor >= len(n.history) {
		debuglog.Warnf("cursor %d past history of %d entries, clamping", n.cursor, len(n.history))
		n.cursor = max(len(n.history)-2, 0)
	}
	if n.cursor >= len(n.history)-1 {
		return Route{}, false
	}
	r, err := n.Load(n.cursor + 1)
	if errors.Is(err, ErrOutOfRange) {
		return Route{}, false
	}
	return r, true
}

// Load moves the cursor to index and returns the route there. If the
// navigator is found inconsistent it is repaired, left at home, and the
// home route is returned along with ErrInvalidState.
func (n *Navigator) Load(index int) (Route, error) {
	if err := n.Validate(); err != nil {
		debuglog.Errorf("repairing navigation state: %v", err)
		n.repair()
		return n.home(), err
	}
	if index < 0 || index >= len(n.history) {
		return Route{}, fmt.Errorf("%w: %d of %d", ErrOutOfRange, index, len(n.history))
	}
	r, ok := n.store.Get(n.history[index])
	if !ok {
		// Validate covers this; kept so a bad lookup can never index nil data
		n.repair()
		return n.home(), fmt.Errorf("%w: dangling route %d", ErrInvalidState, n.history[index])
	}
	n.cursor = index
	return r, nil
}

// TrimToCapacity drops the oldest entries after home until at most limit
// remain behind it. The cursor keeps pointing at the same entry.
func (n *Navigator) TrimToCapacity() {
	trimmed := false
	for len(n.history)-1 > n.limit {
		n.removeAt(1)
		// removing history[1] can leave home next to a re-pushed home
		if len(n.history) > 1 && n.history[1] == n.history[0] {
			n.removeAt(1)
		}
		trimmed = true
	}
	if trimmed {
		n.Compact()
	}
}

// Compact removes every stored route that history no longer references.
func (n *Navigator) Compact() {
	reachable := make(map[RouteID]struct{}, len(n.history))
	for _, id := range n.history {
		reachable[id] = struct{}{}
	}
	n.store.Retain(func(id RouteID) bool {
		_, ok := reachable[id]
		return ok
	})
}

// Validate checks the navigator's invariants and returns an error wrapping
// ErrInvalidState for the first violation found.
func (n *Navigator) Validate() error {
	if len(n.history) == 0 || n.history[0] != HomeID {
		return fmt.Errorf("%w: history does not start at home", ErrInvalidState)
	}
	if n.cursor < 0 || n.cursor >= len(n.history) {
		return fmt.Errorf("%w: cursor %d outside history of %d", ErrInvalidState, n.cursor, len(n.history))
	}
	reachable := make(map[RouteID]struct{}, len(n.history))
	for i, id := range n.history {
		if !n.store.Contains(id) {
			return fmt.Errorf("%w: dangling route %d at %d", ErrInvalidState, id, i)
		}
		if i > 0 && n.history[i-1] == id {
			return fmt.Errorf("%w: route %d repeated at %d", ErrInvalidState, id, i)
		}
		reachable[id] = struct{}{}
	}
	if n.store.Len() != len(reachable) {
		return fmt.Errorf("%w: %d unreachable routes in store", ErrInvalidState, n.store.Len()-len(reachable))
	}
	return nil
}

// Current returns the route under the cursor.
func (n *Navigator) Current() (Route, bool) {
	if n.cursor < 0 || n.cursor >= len(n.history) {
		return Route{}, false
	}
	return n.store.Get(n.history[n.cursor])
}

// Match locates a history entry returned by Find.
type Match struct {
	ID    RouteID
	Index int
}

// Find looks for a route satisfying pred anywhere in history except under
// the cursor. The entry just after the cursor wins, so callers can replay a
// forward step; next comes the newest entry behind the cursor, then the
// nearest one ahead of it.
func (n *Navigator) Find(pred func(Route) bool) (Match, bool) {
	test := func(i int) bool {
		r, ok := n.store.Get(n.history[i])
		return ok && pred(r)
	}
	if next := n.cursor + 1; next < len(n.history) && test(next) {
		return Match{ID: n.history[next], Index: next}, true
	}
	for i := n.cursor - 1; i >= 0; i-- {
		if test(i) {
			return Match{ID: n.history[i], Index: i}, true
		}
	}
	for i := n.cursor + 2; i < len(n.history); i++ {
		if test(i) {
			return Match{ID: n.history[i], Index: i}, true
		}
	}
	return Match{}, false
}

func (n *Navigator) Cursor() int { return n.cursor }
func (n *Navigator) Len() int    { return len(n.history) }
func (n *Navigator) Limit() int  { return n.limit }

// History returns a copy of the history ids.
func (n *Navigator) History() []RouteID {
	return slices.Clone(n.history)
}

// Store exposes the backing store for read access.
func (n *Navigator) Store() *Store { return n.store }

func (n *Navigator) truncateForward() {
	n.history = n.history[:n.cursor+1]
}

func (n *Navigator) removeAt(i int) {
	n.history = slices.Delete(n.history, i, i+1)
	if n.cursor >= i && n.cursor > 0 {
		n.cursor--
	}
}

// repair restores the invariants: dangling ids are excised, home is put
// back in front, repeats are collapsed, orphans are compacted and the
// cursor returns home.
func (n *Navigator) repair() {
	if !n.store.Contains(HomeID) {
		n.store.Insert(Home())
	}
	fixed := make([]RouteID, 0, len(n.history)+1)
	fixed = append(fixed, HomeID)
	for i, id := range n.history {
		if i == 0 && id == HomeID {
			continue
		}
		if !n.store.Contains(id) {
			debuglog.WithFields(map[string]any{"route": id}).Warnf("dropping dangling history entry")
			continue
		}
		if fixed[len(fixed)-1] == id {
			continue
		}
		fixed = append(fixed, id)
	}
	n.history = fixed
	n.cursor = 0
	n.Compact()
}

func (n *Navigator) home() Route {
	r, ok := n.store.Get(HomeID)
	if !ok {
		return Home()
	}
	return r
}
