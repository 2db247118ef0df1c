package nav

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/kiroku/internal/api"
)

func titled(title string) Route {
	return Route{View: ViewSearchResults, Title: title, Data: SearchResults{Query: title}}
}

func pushN(t *testing.T, n *Navigator, count int) []RouteID {
	t.Helper()
	ids := make([]RouteID, count)
	for i := range ids {
		ids[i] = n.Push(Route{View: ViewEmpty, Title: "Home"})
	}
	return ids
}

func assertConsistent(t *testing.T, n *Navigator) {
	t.Helper()
	require.NoError(t, n.Validate())
}

func TestNewPanicsOnInvalidLimit(t *testing.T) {
	assert.Panics(t, func() { New(0) })
	assert.Panics(t, func() { New(-3) })
	assert.NotPanics(t, func() { New(1) })
}

func TestNewStartsAtHome(t *testing.T) {
	n := New(5)
	assert.Equal(t, []RouteID{HomeID}, n.History())
	assert.Equal(t, 0, n.Cursor())

	r, ok := n.Current()
	require.True(t, ok)
	assert.Equal(t, Home(), r)
	assertConsistent(t, n)
}

func TestPushAllocatesMonotonicIDs(t *testing.T) {
	n := New(3)
	seen := map[RouteID]bool{HomeID: true}
	last := HomeID
	for i := range 50 {
		if i%4 == 3 {
			n.Back()
		}
		id := n.Push(titled("x"))
		assert.False(t, seen[id], "id %d reused", id)
		assert.Greater(t, id, last)
		seen[id] = true
		last = id
		assertConsistent(t, n)
	}
}

func TestBackStepsDownToHome(t *testing.T) {
	n := New(15)
	pushN(t, n, 4)
	require.Equal(t, 5, n.Len())
	require.Equal(t, 4, n.Cursor())

	for want := 3; want >= 0; want-- {
		_, ok := n.Back()
		require.True(t, ok)
		assert.Equal(t, want, n.Cursor())
		assertConsistent(t, n)
	}

	_, ok := n.Back()
	assert.False(t, ok, "back from home is a no-op")
	assert.Equal(t, 0, n.Cursor())
}

func TestForwardStepsUpToNewest(t *testing.T) {
	n := New(15)
	pushN(t, n, 4)
	for range 4 {
		n.Back()
	}
	require.Equal(t, 0, n.Cursor())

	for want := 1; want <= 4; want++ {
		_, ok := n.Forward()
		require.True(t, ok)
		assert.Equal(t, want, n.Cursor())
	}

	_, ok := n.Forward()
	assert.False(t, ok, "forward at the newest entry is a no-op")
	assert.Equal(t, 4, n.Cursor())
	assert.Equal(t, 5, n.Len())
}

func TestPushTruncatesForwardHistory(t *testing.T) {
	n := New(15)
	ids := pushN(t, n, 4)
	n.Back()
	n.Back()
	require.Equal(t, 2, n.Cursor())

	r := n.Push(titled("branch"))

	assert.Equal(t, []RouteID{HomeID, ids[0], ids[1], r}, n.History())
	assert.Equal(t, 3, n.Cursor())
	assert.False(t, n.Store().Contains(ids[2]))
	assert.False(t, n.Store().Contains(ids[3]))
	assert.Equal(t, 4, n.Store().Len())
	assertConsistent(t, n)
}

func TestBackFromFirstEntryCollapsesHome(t *testing.T) {
	n := New(15)
	n.Push(Route{View: ViewAnimeDetails, Title: "Detail", Data: AnimeDetail{Anime: api.Anime{ID: 1}}})
	n.Push(titled("second"))
	n.Back()
	require.Equal(t, 1, n.Cursor())

	r, ok := n.Back()
	require.True(t, ok)
	assert.Equal(t, 0, n.Cursor())
	assert.Equal(t, HomeID, r.ID)
	assert.Equal(t, "Home", r.Title)
}

func TestPushExistingReusesRoute(t *testing.T) {
	n := New(15)
	first := n.Push(titled("a"))
	n.Push(titled("b"))
	storeBefore := n.Store().Len()

	require.NoError(t, n.PushExisting(first))

	assert.Equal(t, []RouteID{HomeID, first, 2, first}, n.History())
	assert.Equal(t, 3, n.Cursor())
	assert.Equal(t, storeBefore, n.Store().Len(), "no route allocated")
	cur, _ := n.Current()
	assert.Equal(t, first, cur.ID)
	assertConsistent(t, n)
}

func TestPushExistingKeepsRouteOnlyReachableAhead(t *testing.T) {
	n := New(15)
	a := n.Push(titled("a"))
	b := n.Push(titled("b"))
	c := n.Push(titled("c"))
	n.Back()
	n.Back()
	require.Equal(t, 1, n.Cursor())

	require.NoError(t, n.PushExisting(c))

	assert.Equal(t, []RouteID{HomeID, a, c}, n.History())
	assert.True(t, n.Store().Contains(c))
	assert.False(t, n.Store().Contains(b))
	assertConsistent(t, n)
}

func TestPushExistingCurrentDoesNotDuplicate(t *testing.T) {
	n := New(15)
	a := n.Push(titled("a"))
	require.NoError(t, n.PushExisting(a))
	assert.Equal(t, []RouteID{HomeID, a}, n.History())
	assertConsistent(t, n)
}

func TestPushExistingUnknownReturnsHome(t *testing.T) {
	n := New(15)
	pushN(t, n, 2)

	err := n.PushExisting(99)
	require.ErrorIs(t, err, ErrUnknownRoute)
	assert.Equal(t, 0, n.Cursor())
	assert.Equal(t, 3, n.Len(), "history untouched")
	assertConsistent(t, n)
}

func TestTrimToCapacityKeepsHome(t *testing.T) {
	const limit = 3
	n := New(limit)
	for i := range 20 {
		id := n.Push(titled("x"))
		assert.LessOrEqual(t, n.Len()-1, limit)
		assert.Equal(t, HomeID, n.History()[0])
		assert.Equal(t, n.Len()-1, n.Cursor())
		cur, _ := n.Current()
		assert.Equal(t, id, cur.ID, "push %d", i)
		assertConsistent(t, n)
	}
	assert.Equal(t, limit+1, n.Store().Len())
}

func TestTrimToCapacityCollapsesRepeatedHome(t *testing.T) {
	n := New(2)
	n.Push(titled("a"))
	require.NoError(t, n.PushExisting(HomeID))
	require.Equal(t, []RouteID{HomeID, 1, HomeID}, n.History())

	b := n.Push(titled("b"))

	assert.Equal(t, []RouteID{HomeID, b}, n.History())
	assert.Equal(t, 1, n.Cursor())
	assertConsistent(t, n)
}

func TestRandomOperationsNeverOrphan(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	n := New(6)
	for range 2000 {
		switch rng.IntN(5) {
		case 0, 1:
			n.Push(titled("r"))
		case 2:
			hist := n.History()
			_ = n.PushExisting(hist[rng.IntN(len(hist))])
		case 3:
			n.Back()
		case 4:
			n.Forward()
		}
		require.NoError(t, n.Validate())
		for _, id := range n.Store().IDs() {
			assert.Contains(t, n.History(), id)
		}
	}
}

func TestForwardClampsCorruptCursor(t *testing.T) {
	n := New(15)
	ids := pushN(t, n, 4)
	n.cursor = 10

	r, ok := n.Forward()
	require.True(t, ok)
	assert.Equal(t, 4, n.Cursor())
	assert.Equal(t, ids[3], r.ID)
}

func TestLoadOutOfRange(t *testing.T) {
	n := New(15)
	pushN(t, n, 2)

	_, err := n.Load(7)
	assert.ErrorIs(t, err, ErrOutOfRange)
	_, err = n.Load(-1)
	assert.ErrorIs(t, err, ErrOutOfRange)
	assert.Equal(t, 2, n.Cursor())
}

func TestLoadRepairsDanglingEntry(t *testing.T) {
	n := New(15)
	a := n.Push(titled("a"))
	b := n.Push(titled("b"))
	delete(n.store.routes, a)

	r, err := n.Load(2)

	require.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, HomeID, r.ID)
	assert.Equal(t, 0, n.Cursor())
	assert.Equal(t, []RouteID{HomeID, b}, n.History())
	assertConsistent(t, n)
}

func TestLoadRepairsMissingHomeAndOrphans(t *testing.T) {
	n := New(15)
	a := n.Push(titled("a"))
	n.history = []RouteID{a, a}
	n.store.Insert(Route{ID: 42, Title: "orphan"})

	_, err := n.Load(0)

	require.ErrorIs(t, err, ErrInvalidState)
	assert.Equal(t, []RouteID{HomeID, a}, n.History())
	assert.False(t, n.Store().Contains(42))
	assertConsistent(t, n)
}

func TestFindPrefersForwardReplay(t *testing.T) {
	n := New(15)
	a := n.Push(titled("same"))
	n.Push(titled("other"))
	c := n.Push(titled("same"))
	n.Back()
	require.Equal(t, 2, n.Cursor())

	m, ok := n.Find(func(r Route) bool { return r.Title == "same" })
	require.True(t, ok)
	assert.Equal(t, Match{ID: c, Index: 3}, m)

	n.Forward()
	m, ok = n.Find(func(r Route) bool { return r.Title == "same" })
	require.True(t, ok)
	assert.Equal(t, Match{ID: a, Index: 1}, m, "current entry is skipped")
}

func TestFindLooksAheadLast(t *testing.T) {
	n := New(15)
	n.Push(titled("a"))
	n.Push(titled("b"))
	c := n.Push(titled("c"))
	for range 3 {
		n.Back()
	}

	m, ok := n.Find(func(r Route) bool { return r.Title == "c" })
	require.True(t, ok)
	assert.Equal(t, Match{ID: c, Index: 3}, m)

	_, ok = n.Find(func(r Route) bool { return r.Title == "missing" })
	assert.False(t, ok)
}

func TestViewKind(t *testing.T) {
	for _, v := range []ViewKind{ViewLoading, ViewError, ViewHelp} {
		assert.True(t, v.Transient(), v.String())
	}
	for _, v := range []ViewKind{ViewEmpty, ViewSearchResults, ViewAnimeRanking, ViewMangaDetails} {
		assert.False(t, v.Transient(), v.String())
	}
	assert.Equal(t, "anime ranking", ViewAnimeRanking.String())
	assert.Equal(t, "unknown", ViewKind(99).String())
}

func TestMedia(t *testing.T) {
	anime, manga := Media(AnimeRankingPage{
		Type:    api.AnimeRankAll,
		Entries: []api.Ranked[api.Anime]{{Node: api.Anime{ID: 1}}, {Node: api.Anime{ID: 2}}},
	})
	assert.Len(t, anime, 2)
	assert.Nil(t, manga)

	anime, manga = Media(SearchResults{Anime: []api.Anime{{ID: 3}}, Manga: []api.Manga{{ID: 4}}})
	assert.Len(t, anime, 1)
	assert.Len(t, manga, 1)

	anime, manga = Media(UserProfile{})
	assert.Nil(t, anime)
	assert.Nil(t, manga)
}
