package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pders01/kiroku/internal/config"
)

type staticSession string

func (s staticSession) AccessToken(context.Context) (string, error) {
	return string(s), nil
}

type failingSession struct{}

func (failingSession) AccessToken(context.Context) (string, error) {
	return "", errors.New("no token stored")
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	cfg := config.TestConfig()
	cfg.API.BaseURL = srv.URL
	return NewClient(cfg, staticSession("token-123"))
}

func TestSearchAnimeSendsQuery(t *testing.T) {
	var got *http.Request
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		got = r
		fmt.Fprint(w, `{"data":[{"node":{"id":5114,"title":"Fullmetal Alchemist: Brotherhood","media_type":"tv","status":"finished_airing"}}],"paging":{"next":"https://x/next"}}`)
	})

	page, err := client.SearchAnime(context.Background(), "  fullmetal   alchemist ", 10)

	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "/anime", got.URL.Path)
	assert.Equal(t, "fullmetal alchemist", got.URL.Query().Get("q"))
	assert.Equal(t, "10", got.URL.Query().Get("limit"))
	assert.Equal(t, "false", got.URL.Query().Get("nsfw"))
	assert.Equal(t, MediaFields, got.URL.Query().Get("fields"))
	assert.Equal(t, "Bearer token-123", got.Header.Get("Authorization"))
	assert.Equal(t, "kiroku-test/1.0", got.Header.Get("User-Agent"))

	items := page.Items()
	require.Len(t, items, 1)
	assert.Equal(t, 5114, items[0].ID)
	assert.Equal(t, AnimeMediaTV, items[0].MediaType)
	assert.True(t, items[0].Status.Known())
	assert.Equal(t, "https://x/next", page.Paging.Next)
}

func TestSearchRejectsEmptyQuery(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	_, err := client.SearchManga(context.Background(), " \t ", 5)

	assert.Equal(t, KindQueryEncoding, KindOf(err))
}

func TestDetailsDecodeNestedFields(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/manga/2", r.URL.Path)
		fmt.Fprint(w, `{"id":2,"title":"Berserk","alternative_titles":{"en":"Berserk","ja":"ベルセルク"},
			"media_type":"manga","status":"currently_publishing","num_chapters":0,
			"authors":[{"node":{"id":1868,"first_name":"Kentarou","last_name":"Miura"},"role":"Story & Art"}],
			"my_list_status":{"status":"reading","score":9,"num_chapters_read":364},
			"media_type_future":"whatever"}`)
	})

	manga, err := client.MangaDetails(context.Background(), 2)

	require.NoError(t, err)
	assert.Equal(t, "Berserk", manga.DisplayTitle(true))
	require.Len(t, manga.Authors, 1)
	assert.Equal(t, "Miura", manga.Authors[0].Node.LastName)
	require.NotNil(t, manga.MyListStatus)
	assert.Equal(t, ReadReading, manga.MyListStatus.Status)
	assert.Equal(t, 364, manga.MyListStatus.NumChaptersRead)
}

func TestUnknownEnumValuesSurvive(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id":1,"title":"x","media_type":"hologram","status":"paused_forever","nsfw":"white"}`)
	})

	anime, err := client.AnimeDetails(context.Background(), 1)

	require.NoError(t, err)
	assert.Equal(t, AnimeMediaType("hologram"), anime.MediaType)
	assert.False(t, anime.MediaType.Known())
	assert.False(t, anime.Status.Known())
	assert.True(t, anime.NSFW.Known())
}

func TestRankingAndSeasonalPaths(t *testing.T) {
	var paths []string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path+"?"+r.URL.Query().Get("ranking_type")+r.URL.Query().Get("sort"))
		switch r.URL.Path {
		case "/anime/ranking":
			fmt.Fprint(w, `{"data":[{"node":{"id":1,"title":"a"},"ranking":{"rank":1}},{"node":{"id":2,"title":"b"},"ranking":{"rank":2}}]}`)
		default:
			fmt.Fprint(w, `{"data":[{"node":{"id":3,"title":"c"}}]}`)
		}
	})
	ctx := context.Background()

	ranking, err := client.AnimeRanking(ctx, AnimeRankAiring, 0)
	require.NoError(t, err)
	require.Len(t, ranking.Data, 2)
	assert.Equal(t, 2, ranking.Data[1].Ranking.Rank)

	season := AnimeSeason{Year: 2024, Season: SeasonSpring}
	page, err := client.SeasonalAnime(ctx, season, 0)
	require.NoError(t, err)
	assert.Equal(t, season, page.Season, "filled in when the response omits it")
	assert.Len(t, page.Items(), 1)

	assert.Equal(t, []string{"/anime/ranking?airing", "/anime/season/2024/spring?anime_score"}, paths)
}

func TestSeasonalRejectsInvalidSeason(t *testing.T) {
	client := newTestClient(t, func(http.ResponseWriter, *http.Request) {})
	_, err := client.SeasonalAnime(context.Background(), AnimeSeason{Year: 2024, Season: "monsoon"}, 0)
	assert.Equal(t, KindQueryEncoding, KindOf(err))
}

func TestUserListUsesStatusFilter(t *testing.T) {
	var query url.Values
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/users/@me/animelist", r.URL.Path)
		query = r.URL.Query()
		fmt.Fprint(w, `{"data":[]}`)
	})

	_, err := client.UserAnimeList(context.Background(), WatchOnHold, 50)
	require.NoError(t, err)
	assert.Equal(t, "on_hold", query.Get("status"))
	assert.Equal(t, "list_updated_at", query.Get("sort"))

	_, err = client.UserAnimeList(context.Background(), "", 50)
	require.NoError(t, err)
	assert.False(t, query.Has("status"), "empty status lists everything")
}

func TestUpdateAnimeListStatusSendsForm(t *testing.T) {
	var form url.Values
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/anime/30/my_list_status", r.URL.Path)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))
		require.NoError(t, r.ParseForm())
		form = r.PostForm
		fmt.Fprint(w, `{"status":"completed","score":8,"num_episodes_watched":26}`)
	})
	status := WatchCompleted
	score := 8

	st, err := client.UpdateAnimeListStatus(context.Background(), 30, AnimeListUpdate{Status: &status, Score: &score})

	require.NoError(t, err)
	assert.Equal(t, "completed", form.Get("status"))
	assert.Equal(t, "8", form.Get("score"))
	assert.False(t, form.Has("num_watched_episodes"))
	assert.Equal(t, 26, st.NumEpisodesWatched)
}

func TestUpdateRejectsScoreOutOfRange(t *testing.T) {
	client := newTestClient(t, func(http.ResponseWriter, *http.Request) {
		t.Error("no request expected")
	})
	score := 11
	_, err := client.UpdateMangaListStatus(context.Background(), 1, MangaListUpdate{Score: &score})
	assert.Equal(t, KindQueryEncoding, KindOf(err))
}

func TestDeleteListItem(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodDelete, r.Method)
		assert.Equal(t, "/manga/4/my_list_status", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	})
	assert.NoError(t, client.DeleteMangaListItem(context.Background(), 4))
}

func TestResponseErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		kind    Kind
		message string
	}{
		{"unauthorized", http.StatusUnauthorized, `{"error":"invalid_token"}`, KindUnauthenticated, "Auth error, please log in again"},
		{"not found", http.StatusNotFound, `{"error":"not_found"}`, KindHTTPStatus, "HTTP error: 404"},
		{"server error", http.StatusBadGateway, ``, KindHTTPStatus, "HTTP error: 502"},
		{"empty body", http.StatusOK, "  \n", KindEmptyBody, "Empty response body"},
		{"bad json", http.StatusOK, `{"id":`, KindParseFailure, "Parse error: unexpected end of JSON input"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			})

			_, err := client.Me(context.Background())

			require.Error(t, err)
			assert.Equal(t, tt.kind, KindOf(err))
			assert.Equal(t, tt.message, Message(err))
		})
	}
}

func TestMissingSessionIsUnauthenticated(t *testing.T) {
	cfg := config.TestConfig()
	_, err := NewClient(cfg, nil).Me(context.Background())
	assert.Equal(t, KindUnauthenticated, KindOf(err))

	_, err = NewClient(cfg, failingSession{}).Me(context.Background())
	assert.Equal(t, KindUnauthenticated, KindOf(err))
	assert.ErrorContains(t, err, "no token stored")
}

func TestTimeoutIsClassified(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(func() {
		close(release)
		srv.Close()
	})
	cfg := config.TestConfig()
	cfg.API.BaseURL = srv.URL
	cfg.API.HTTPTimeout = 50 * time.Millisecond

	_, err := NewClient(cfg, staticSession("t")).SuggestedAnime(context.Background(), 5)

	assert.Equal(t, KindTimeout, KindOf(err))
	assert.Equal(t, "Connection timed out, please try again", Message(err))
}

func TestConnectionRefusedIsUnknown(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()
	cfg := config.TestConfig()
	cfg.API.BaseURL = base

	_, err := NewClient(cfg, staticSession("t")).Me(context.Background())

	assert.Equal(t, KindUnknown, KindOf(err))
	assert.Equal(t, "Check your internet connection", Message(err))
}
