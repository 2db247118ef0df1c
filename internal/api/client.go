package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pders01/kiroku/internal/config"
	"github.com/pders01/kiroku/internal/debuglog"
	"github.com/pders01/kiroku/internal/validation"
)

const (
	defaultUserAgent = "kiroku/1.0 (anime list client; github.com/pders01/kiroku)"
	defaultTimeout   = 20 * time.Second
	maxBodyBytes     = 8 << 20
)

// Session supplies a bearer token for each request.
type Session interface {
	AccessToken(ctx context.Context) (string, error)
}

type Client struct {
	http      *http.Client
	baseURL   string
	userAgent string
	nsfw      bool
	session   Session
}

func NewClient(cfg *config.Config, session Session) *Client {
	ua := cfg.API.UserAgent
	if ua == "" {
		ua = defaultUserAgent
	}
	timeout := cfg.API.HTTPTimeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Client{
		http:      &http.Client{Timeout: timeout},
		baseURL:   strings.TrimRight(cfg.API.BaseURL, "/"),
		userAgent: ua,
		nsfw:      cfg.API.NSFW,
		session:   session,
	}
}

func (c *Client) SearchAnime(ctx context.Context, q string, limit int) (Page[Anime], error) {
	var page Page[Anime]
	query, err := c.searchQuery(q, limit)
	if err != nil {
		return page, err
	}
	err = c.get(ctx, "/anime", query, &page)
	return page, err
}

func (c *Client) SearchManga(ctx context.Context, q string, limit int) (Page[Manga], error) {
	var page Page[Manga]
	query, err := c.searchQuery(q, limit)
	if err != nil {
		return page, err
	}
	err = c.get(ctx, "/manga", query, &page)
	return page, err
}

func (c *Client) AnimeDetails(ctx context.Context, id int) (Anime, error) {
	var anime Anime
	if id <= 0 {
		return anime, &Error{Kind: KindQueryEncoding, Detail: fmt.Sprintf("invalid anime id %d", id)}
	}
	err := c.get(ctx, "/anime/"+strconv.Itoa(id), url.Values{"fields": {MediaFields}}, &anime)
	return anime, err
}

func (c *Client) MangaDetails(ctx context.Context, id int) (Manga, error) {
	var manga Manga
	if id <= 0 {
		return manga, &Error{Kind: KindQueryEncoding, Detail: fmt.Sprintf("invalid manga id %d", id)}
	}
	err := c.get(ctx, "/manga/"+strconv.Itoa(id), url.Values{"fields": {MediaFields}}, &manga)
	return manga, err
}

func (c *Client) AnimeRanking(ctx context.Context, rt AnimeRankingType, limit int) (Ranking[Anime], error) {
	var ranking Ranking[Anime]
	if rt == "" {
		return ranking, &Error{Kind: KindQueryEncoding, Detail: "empty ranking type"}
	}
	query := c.listQuery(limit)
	query.Set("ranking_type", string(rt))
	err := c.get(ctx, "/anime/ranking", query, &ranking)
	return ranking, err
}

func (c *Client) MangaRanking(ctx context.Context, rt MangaRankingType, limit int) (Ranking[Manga], error) {
	var ranking Ranking[Manga]
	if rt == "" {
		return ranking, &Error{Kind: KindQueryEncoding, Detail: "empty ranking type"}
	}
	query := c.listQuery(limit)
	query.Set("ranking_type", string(rt))
	err := c.get(ctx, "/manga/ranking", query, &ranking)
	return ranking, err
}

func (c *Client) SeasonalAnime(ctx context.Context, season AnimeSeason, limit int) (SeasonalPage, error) {
	var page SeasonalPage
	if season.Year <= 0 || !season.Season.Known() {
		return page, &Error{Kind: KindQueryEncoding, Detail: fmt.Sprintf("invalid season %q %d", season.Season, season.Year)}
	}
	query := c.listQuery(limit)
	query.Set("sort", "anime_score")
	path := fmt.Sprintf("/anime/season/%d/%s", season.Year, season.Season)
	err := c.get(ctx, path, query, &page)
	if err == nil && page.Season.Year == 0 {
		page.Season = season
	}
	return page, err
}

func (c *Client) SuggestedAnime(ctx context.Context, limit int) (Page[Anime], error) {
	var page Page[Anime]
	err := c.get(ctx, "/anime/suggestions", c.listQuery(limit), &page)
	return page, err
}

// UserAnimeList returns the signed-in user's anime list. An empty status
// returns every entry.
func (c *Client) UserAnimeList(ctx context.Context, status WatchStatus, limit int) (Page[Anime], error) {
	var page Page[Anime]
	query := c.listQuery(limit)
	query.Set("sort", string(SortListUpdatedAt))
	if status != "" {
		query.Set("status", string(status))
	}
	err := c.get(ctx, "/users/@me/animelist", query, &page)
	return page, err
}

func (c *Client) UserMangaList(ctx context.Context, status ReadStatus, limit int) (Page[Manga], error) {
	var page Page[Manga]
	query := c.listQuery(limit)
	query.Set("sort", string(SortListUpdatedAt))
	if status != "" {
		query.Set("status", string(status))
	}
	err := c.get(ctx, "/users/@me/mangalist", query, &page)
	return page, err
}

func (c *Client) Me(ctx context.Context) (UserInfo, error) {
	var user UserInfo
	err := c.get(ctx, "/users/@me", url.Values{"fields": {UserFields}}, &user)
	return user, err
}

// AnimeListUpdate holds the fields to change; nil fields are left untouched.
type AnimeListUpdate struct {
	Status             *WatchStatus
	Score              *int
	NumEpisodesWatched *int
}

func (u AnimeListUpdate) values() (url.Values, error) {
	form := url.Values{}
	if u.Status != nil {
		form.Set("status", string(*u.Status))
	}
	if u.Score != nil {
		if *u.Score < 0 || *u.Score > 10 {
			return nil, &Error{Kind: KindQueryEncoding, Detail: fmt.Sprintf("score %d out of range", *u.Score)}
		}
		form.Set("score", strconv.Itoa(*u.Score))
	}
	if u.NumEpisodesWatched != nil {
		if *u.NumEpisodesWatched < 0 {
			return nil, &Error{Kind: KindQueryEncoding, Detail: "negative episode count"}
		}
		form.Set("num_watched_episodes", strconv.Itoa(*u.NumEpisodesWatched))
	}
	return form, nil
}

type MangaListUpdate struct {
	Status          *ReadStatus
	Score           *int
	NumChaptersRead *int
	NumVolumesRead  *int
}

func (u MangaListUpdate) values() (url.Values, error) {
	form := url.Values{}
	if u.Status != nil {
		form.Set("status", string(*u.Status))
	}
	if u.Score != nil {
		if *u.Score < 0 || *u.Score > 10 {
			return nil, &Error{Kind: KindQueryEncoding, Detail: fmt.Sprintf("score %d out of range", *u.Score)}
		}
		form.Set("score", strconv.Itoa(*u.Score))
	}
	if u.NumChaptersRead != nil {
		if *u.NumChaptersRead < 0 {
			return nil, &Error{Kind: KindQueryEncoding, Detail: "negative chapter count"}
		}
		form.Set("num_chapters_read", strconv.Itoa(*u.NumChaptersRead))
	}
	if u.NumVolumesRead != nil {
		if *u.NumVolumesRead < 0 {
			return nil, &Error{Kind: KindQueryEncoding, Detail: "negative volume count"}
		}
		form.Set("num_volumes_read", strconv.Itoa(*u.NumVolumesRead))
	}
	return form, nil
}

func (c *Client) UpdateAnimeListStatus(ctx context.Context, id int, update AnimeListUpdate) (AnimeListStatus, error) {
	var status AnimeListStatus
	form, err := update.values()
	if err != nil {
		return status, err
	}
	err = c.do(ctx, http.MethodPatch, fmt.Sprintf("/anime/%d/my_list_status", id), form, &status)
	return status, err
}

func (c *Client) UpdateMangaListStatus(ctx context.Context, id int, update MangaListUpdate) (MangaListStatus, error) {
	var status MangaListStatus
	form, err := update.values()
	if err != nil {
		return status, err
	}
	err = c.do(ctx, http.MethodPatch, fmt.Sprintf("/manga/%d/my_list_status", id), form, &status)
	return status, err
}

func (c *Client) DeleteAnimeListItem(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/anime/%d/my_list_status", id), nil, nil)
}

func (c *Client) DeleteMangaListItem(ctx context.Context, id int) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/manga/%d/my_list_status", id), nil, nil)
}

func (c *Client) searchQuery(q string, limit int) (url.Values, error) {
	clean := validation.SanitizeQuery(q)
	if clean == "" {
		return nil, &Error{Kind: KindQueryEncoding, Detail: "empty search query"}
	}
	query := c.listQuery(limit)
	query.Set("q", clean)
	return query, nil
}

func (c *Client) listQuery(limit int) url.Values {
	query := url.Values{"fields": {MediaFields}}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	query.Set("nsfw", strconv.FormatBool(c.nsfw))
	return query
}

func (c *Client) get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path+"?"+query.Encode(), nil, out)
}

// do sends one request and decodes the JSON body into out when out is non-nil.
func (c *Client) do(ctx context.Context, method, path string, form url.Values, out any) error {
	if c.session == nil {
		return ErrUnauthenticated
	}
	token, err := c.session.AccessToken(ctx)
	if err != nil || token == "" {
		return &Error{Kind: KindUnauthenticated, Err: err}
	}

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &Error{Kind: KindQueryEncoding, Detail: err.Error(), Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		debuglog.WithFields(map[string]any{"method": method, "path": path}).Warnf("request failed: %v", err)
		return transportError(err)
	}
	defer resp.Body.Close()
	debuglog.Debugf("%s %s -> %d in %s", method, path, resp.StatusCode, time.Since(start).Round(time.Millisecond))

	return decodeResponse(resp, out)
}

func decodeResponse(resp *http.Response, out any) error {
	if resp.StatusCode == http.StatusUnauthorized {
		return &Error{Kind: KindUnauthenticated, Status: resp.StatusCode}
	}
	if resp.StatusCode >= 400 {
		return &Error{Kind: KindHTTPStatus, Status: resp.StatusCode}
	}
	if out == nil {
		return nil
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return transportError(err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return &Error{Kind: KindEmptyBody, Status: resp.StatusCode}
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &Error{Kind: KindParseFailure, Detail: err.Error(), Err: err}
	}
	return nil
}
