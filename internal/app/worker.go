package app

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/pders01/kiroku/internal/api"
	"github.com/pders01/kiroku/internal/config"
	"github.com/pders01/kiroku/internal/debuglog"
	"github.com/pders01/kiroku/internal/nav"
)

var errUnknownCategory = errors.New("unknown category")

// Catalog is the part of the API client the workers need.
type Catalog interface {
	SearchAnime(ctx context.Context, q string, limit int) (api.Page[api.Anime], error)
	SearchManga(ctx context.Context, q string, limit int) (api.Page[api.Manga], error)
	AnimeDetails(ctx context.Context, id int) (api.Anime, error)
	MangaDetails(ctx context.Context, id int) (api.Manga, error)
	AnimeRanking(ctx context.Context, rt api.AnimeRankingType, limit int) (api.Ranking[api.Anime], error)
	MangaRanking(ctx context.Context, rt api.MangaRankingType, limit int) (api.Ranking[api.Manga], error)
	SeasonalAnime(ctx context.Context, season api.AnimeSeason, limit int) (api.SeasonalPage, error)
	SuggestedAnime(ctx context.Context, limit int) (api.Page[api.Anime], error)
	UserAnimeList(ctx context.Context, status api.WatchStatus, limit int) (api.Page[api.Anime], error)
	UserMangaList(ctx context.Context, status api.ReadStatus, limit int) (api.Page[api.Manga], error)
	Me(ctx context.Context) (api.UserInfo, error)
	UpdateAnimeListStatus(ctx context.Context, id int, update api.AnimeListUpdate) (api.AnimeListStatus, error)
	UpdateMangaListStatus(ctx context.Context, id int, update api.MangaListUpdate) (api.MangaListStatus, error)
	DeleteAnimeListItem(ctx context.Context, id int) error
	DeleteMangaListItem(ctx context.Context, id int) error
}

var _ Catalog = (*api.Client)(nil)

// Pool runs requests from a Controller against a Catalog.
type Pool struct {
	ctrl        *Controller
	catalog     Catalog
	workers     int
	searchLimit int
	listLimit   int
	wg          sync.WaitGroup
}

func NewPool(ctrl *Controller, catalog Catalog, cfg *config.Config) *Pool {
	return &Pool{
		ctrl:        ctrl,
		catalog:     catalog,
		workers:     max(cfg.Navigation.Workers, 1),
		searchLimit: cfg.API.SearchLimit,
		listLimit:   cfg.API.ListLimit,
	}
}

// Start launches the workers. They exit when ctx is cancelled; Wait blocks
// until they have.
func (p *Pool) Start(ctx context.Context) {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func(id int) {
			defer p.wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case req := <-p.ctrl.Requests():
					p.handle(ctx, id, req)
				}
			}
		}(i)
	}
}

func (p *Pool) Wait() {
	p.wg.Wait()
}

func (p *Pool) handle(ctx context.Context, worker int, req Request) {
	start := time.Now()
	log := debuglog.WithFields(map[string]any{"worker": worker, "category": req.Category, "seq": req.Seq})

	if req.Update != nil {
		res, err := p.applyUpdate(ctx, *req.Update)
		if err != nil {
			p.ctrl.FailUpdate(req, err)
			return
		}
		log.Debugf("list update done in %s", time.Since(start))
		p.ctrl.CompleteUpdate(req, res)
		return
	}

	data, err := p.Fetch(ctx, req.Category, req.Params)
	if err != nil {
		p.ctrl.Fail(req, err)
		return
	}
	log.Debugf("fetched in %s", time.Since(start))
	p.ctrl.Complete(req, data)
}

// Fetch runs the catalog queries for one category and wraps the answer in
// the matching Data variant.
func (p *Pool) Fetch(ctx context.Context, cat Category, params Params) (nav.Data, error) {
	switch cat {
	case CategorySearch:
		anime, err := p.catalog.SearchAnime(ctx, params.Query, p.searchLimit)
		if err != nil {
			return nil, fmt.Errorf("searching anime: %w", err)
		}
		manga, err := p.catalog.SearchManga(ctx, params.Query, p.searchLimit)
		if err != nil {
			return nil, fmt.Errorf("searching manga: %w", err)
		}
		return nav.SearchResults{Query: params.Query, Anime: anime.Items(), Manga: manga.Items()}, nil
	case CategorySeasonal:
		page, err := p.catalog.SeasonalAnime(ctx, params.Season, p.listLimit)
		if err != nil {
			return nil, fmt.Errorf("fetching seasonal anime: %w", err)
		}
		season := params.Season
		return nav.SearchResults{Season: &season, Anime: page.Items()}, nil
	case CategorySuggestions:
		page, err := p.catalog.SuggestedAnime(ctx, p.listLimit)
		if err != nil {
			return nil, fmt.Errorf("fetching suggestions: %w", err)
		}
		return nav.Suggestions{Anime: page.Items()}, nil
	case CategoryAnimeRanking:
		ranking, err := p.catalog.AnimeRanking(ctx, params.AnimeRanking, p.listLimit)
		if err != nil {
			return nil, fmt.Errorf("fetching anime ranking: %w", err)
		}
		return nav.AnimeRankingPage{Type: params.AnimeRanking, Entries: ranking.Data}, nil
	case CategoryMangaRanking:
		ranking, err := p.catalog.MangaRanking(ctx, params.MangaRanking, p.listLimit)
		if err != nil {
			return nil, fmt.Errorf("fetching manga ranking: %w", err)
		}
		return nav.MangaRankingPage{Type: params.MangaRanking, Entries: ranking.Data}, nil
	case CategoryUserAnimeList:
		page, err := p.catalog.UserAnimeList(ctx, params.WatchStatus, p.listLimit)
		if err != nil {
			return nil, fmt.Errorf("fetching anime list: %w", err)
		}
		return nav.UserAnimeListPage{Status: params.WatchStatus, Anime: page.Items()}, nil
	case CategoryUserMangaList:
		page, err := p.catalog.UserMangaList(ctx, params.ReadStatus, p.listLimit)
		if err != nil {
			return nil, fmt.Errorf("fetching manga list: %w", err)
		}
		return nav.UserMangaListPage{Status: params.ReadStatus, Manga: page.Items()}, nil
	case CategoryProfile:
		user, err := p.catalog.Me(ctx)
		if err != nil {
			return nil, fmt.Errorf("fetching profile: %w", err)
		}
		return nav.UserProfile{User: user}, nil
	case CategoryAnimeDetails:
		anime, err := p.catalog.AnimeDetails(ctx, params.ID)
		if err != nil {
			return nil, fmt.Errorf("fetching anime %d: %w", params.ID, err)
		}
		return nav.AnimeDetail{Anime: anime}, nil
	case CategoryMangaDetails:
		manga, err := p.catalog.MangaDetails(ctx, params.ID)
		if err != nil {
			return nil, fmt.Errorf("fetching manga %d: %w", params.ID, err)
		}
		return nav.MangaDetail{Manga: manga}, nil
	}
	return nil, fmt.Errorf("%w: %d", errUnknownCategory, cat)
}

func (p *Pool) applyUpdate(ctx context.Context, u ListUpdate) (ListResult, error) {
	if u.Media == MediaManga {
		if u.Delete {
			return ListResult{}, p.catalog.DeleteMangaListItem(ctx, u.ID)
		}
		st, err := p.catalog.UpdateMangaListStatus(ctx, u.ID, api.MangaListUpdate{
			Status:          u.ReadStatus,
			Score:           u.Score,
			NumChaptersRead: u.Progress,
		})
		if err != nil {
			return ListResult{}, fmt.Errorf("updating manga %d: %w", u.ID, err)
		}
		return ListResult{Manga: &st}, nil
	}
	if u.Delete {
		return ListResult{}, p.catalog.DeleteAnimeListItem(ctx, u.ID)
	}
	st, err := p.catalog.UpdateAnimeListStatus(ctx, u.ID, api.AnimeListUpdate{
		Status:             u.WatchStatus,
		Score:              u.Score,
		NumEpisodesWatched: u.Progress,
	})
	if err != nil {
		return ListResult{}, fmt.Errorf("updating anime %d: %w", u.ID, err)
	}
	return ListResult{Anime: &st}, nil
}
