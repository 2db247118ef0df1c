package app

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/kiroku/internal/api"
	"github.com/pders01/kiroku/internal/config"
	"github.com/pders01/kiroku/internal/nav"
)

type fakeCatalog struct {
	mu      sync.Mutex
	calls   []string
	err     error
	updates []api.AnimeListUpdate
}

func (f *fakeCatalog) record(call string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, call)
	return f.err
}

func (f *fakeCatalog) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func animePage(titles ...string) api.Page[api.Anime] {
	var p api.Page[api.Anime]
	for i, title := range titles {
		p.Data = append(p.Data, api.Node[api.Anime]{Node: api.Anime{ID: i + 1, Title: title}})
	}
	return p
}

func (f *fakeCatalog) SearchAnime(_ context.Context, q string, _ int) (api.Page[api.Anime], error) {
	return animePage(q + " anime"), f.record("search anime " + q)
}

func (f *fakeCatalog) SearchManga(_ context.Context, q string, _ int) (api.Page[api.Manga], error) {
	return api.Page[api.Manga]{Data: []api.Node[api.Manga]{{Node: api.Manga{ID: 1, Title: q + " manga"}}}},
		f.record("search manga " + q)
}

func (f *fakeCatalog) AnimeDetails(_ context.Context, id int) (api.Anime, error) {
	return api.Anime{ID: id, Title: "Anime"}, f.record("anime details")
}

func (f *fakeCatalog) MangaDetails(_ context.Context, id int) (api.Manga, error) {
	return api.Manga{ID: id, Title: "Manga"}, f.record("manga details")
}

func (f *fakeCatalog) AnimeRanking(_ context.Context, rt api.AnimeRankingType, _ int) (api.Ranking[api.Anime], error) {
	return api.Ranking[api.Anime]{Data: []api.Ranked[api.Anime]{{Node: api.Anime{ID: 1}, Ranking: api.RankingInfo{Rank: 1}}}},
		f.record("anime ranking " + string(rt))
}

func (f *fakeCatalog) MangaRanking(_ context.Context, rt api.MangaRankingType, _ int) (api.Ranking[api.Manga], error) {
	return api.Ranking[api.Manga]{}, f.record("manga ranking " + string(rt))
}

func (f *fakeCatalog) SeasonalAnime(_ context.Context, s api.AnimeSeason, _ int) (api.SeasonalPage, error) {
	return api.SeasonalPage{Page: animePage("Seasonal"), Season: s}, f.record("seasonal " + s.String())
}

func (f *fakeCatalog) SuggestedAnime(context.Context, int) (api.Page[api.Anime], error) {
	return animePage("Suggested"), f.record("suggestions")
}

func (f *fakeCatalog) UserAnimeList(_ context.Context, s api.WatchStatus, _ int) (api.Page[api.Anime], error) {
	return animePage("Listed"), f.record("anime list " + string(s))
}

func (f *fakeCatalog) UserMangaList(_ context.Context, s api.ReadStatus, _ int) (api.Page[api.Manga], error) {
	return api.Page[api.Manga]{}, f.record("manga list " + string(s))
}

func (f *fakeCatalog) Me(context.Context) (api.UserInfo, error) {
	return api.UserInfo{ID: 1, Name: "kiroku"}, f.record("me")
}

func (f *fakeCatalog) UpdateAnimeListStatus(_ context.Context, _ int, u api.AnimeListUpdate) (api.AnimeListStatus, error) {
	f.mu.Lock()
	f.updates = append(f.updates, u)
	f.mu.Unlock()
	st := api.AnimeListStatus{Status: api.WatchWatching}
	if u.Score != nil {
		st.Score = *u.Score
	}
	return st, f.record("update anime")
}

func (f *fakeCatalog) UpdateMangaListStatus(context.Context, int, api.MangaListUpdate) (api.MangaListStatus, error) {
	return api.MangaListStatus{}, f.record("update manga")
}

func (f *fakeCatalog) DeleteAnimeListItem(context.Context, int) error {
	return f.record("delete anime")
}

func (f *fakeCatalog) DeleteMangaListItem(context.Context, int) error {
	return f.record("delete manga")
}

func TestFetchBuildsDataPerCategory(t *testing.T) {
	winter := api.AnimeSeason{Year: 2024, Season: api.SeasonWinter}
	tests := []struct {
		cat    Category
		params Params
		want   nav.Data
		calls  []string
	}{
		{CategorySeasonal, Params{Season: winter},
			nav.SearchResults{Season: &winter, Anime: []api.Anime{{ID: 1, Title: "Seasonal"}}},
			[]string{"seasonal Winter 2024"}},
		{CategorySuggestions, Params{},
			nav.Suggestions{Anime: []api.Anime{{ID: 1, Title: "Suggested"}}},
			[]string{"suggestions"}},
		{CategoryUserAnimeList, Params{WatchStatus: api.WatchOnHold},
			nav.UserAnimeListPage{Status: api.WatchOnHold, Anime: []api.Anime{{ID: 1, Title: "Listed"}}},
			[]string{"anime list on_hold"}},
		{CategoryProfile, Params{},
			nav.UserProfile{User: api.UserInfo{ID: 1, Name: "kiroku"}},
			[]string{"me"}},
		{CategoryMangaDetails, Params{ID: 12},
			nav.MangaDetail{Manga: api.Manga{ID: 12, Title: "Manga"}},
			[]string{"manga details"}},
		{CategorySearch, Params{Query: "mob"},
			nav.SearchResults{Query: "mob", Anime: []api.Anime{{ID: 1, Title: "mob anime"}}, Manga: []api.Manga{{ID: 1, Title: "mob manga"}}},
			[]string{"search anime mob", "search manga mob"}},
	}
	for _, tt := range tests {
		t.Run(tt.cat.String(), func(t *testing.T) {
			catalog := &fakeCatalog{}
			pool := NewPool(newController(t), catalog, config.TestConfig())

			data, err := pool.Fetch(context.Background(), tt.cat, tt.params)

			require.NoError(t, err)
			assert.Equal(t, tt.want, data)
			assert.Equal(t, tt.calls, catalog.Calls())
		})
	}
}

func TestFetchWrapsCatalogErrors(t *testing.T) {
	catalog := &fakeCatalog{err: &api.Error{Kind: api.KindHTTPStatus, Status: 404}}
	pool := NewPool(newController(t), catalog, config.TestConfig())

	_, err := pool.Fetch(context.Background(), CategoryAnimeDetails, Params{ID: 3})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "fetching anime 3")
	assert.Equal(t, api.KindHTTPStatus, api.KindOf(err))
	assert.Equal(t, "HTTP error: 404", api.Message(err))
}

func TestFetchUnknownCategory(t *testing.T) {
	pool := NewPool(newController(t), &fakeCatalog{}, config.TestConfig())
	_, err := pool.Fetch(context.Background(), Category(99), Params{})
	assert.ErrorIs(t, err, errUnknownCategory)
}

func startPool(t *testing.T, c *Controller, catalog Catalog) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	pool := NewPool(c, catalog, config.TestConfig())
	pool.Start(ctx)
	t.Cleanup(func() {
		cancel()
		pool.Wait()
	})
}

func waitForView(t *testing.T, c *Controller, view nav.ViewKind) State {
	t.Helper()
	require.Eventually(t, func() bool {
		s := c.Snapshot()
		return s.View == view && !s.Busy
	}, 2*time.Second, 5*time.Millisecond)
	return c.Snapshot()
}

func TestPoolCompletesRequests(t *testing.T) {
	c := newController(t)
	catalog := &fakeCatalog{}
	startPool(t, c, catalog)

	require.Equal(t, OutcomeFetching, c.Activate(CategoryAnimeRanking, Params{AnimeRanking: api.AnimeRankTV}))

	s := waitForView(t, c, nav.ViewAnimeRanking)
	assert.Equal(t, "Top Anime: TV", s.Title)
	assert.Equal(t, []string{"anime ranking tv"}, catalog.Calls())
}

func TestPoolReportsFailures(t *testing.T) {
	c := newController(t)
	startPool(t, c, &fakeCatalog{err: api.ErrUnauthenticated})

	require.Equal(t, OutcomeFetching, c.Activate(CategoryProfile, Params{}))

	s := waitForView(t, c, nav.ViewError)
	assert.Equal(t, "Auth error, please log in again", s.Message)
	assert.Equal(t, 1, s.Depth)
}

func TestPoolAppliesListUpdates(t *testing.T) {
	c := newController(t)
	catalog := &fakeCatalog{}
	startPool(t, c, catalog)

	require.Equal(t, OutcomeFetching, c.Activate(CategoryAnimeDetails, Params{ID: 21}))
	waitForView(t, c, nav.ViewAnimeDetails)

	require.True(t, c.OpenPopup(PopupRate))
	c.MovePopupSelection(0, 8)
	_, ok := c.SubmitPopup()
	require.True(t, ok)

	require.Eventually(t, func() bool { return c.Snapshot().Notice == "Updated Anime" }, 2*time.Second, 5*time.Millisecond)
	d := c.Snapshot().Data.(nav.AnimeDetail)
	require.NotNil(t, d.Anime.MyListStatus)
	assert.Equal(t, 8, d.Anime.MyListStatus.Score)

	catalog.mu.Lock()
	defer catalog.mu.Unlock()
	require.Len(t, catalog.updates, 1)
	assert.Equal(t, 8, *catalog.updates[0].Score)
}
