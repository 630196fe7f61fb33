package services

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/rs/zerolog"

	"popstack/internal/cache"
	"popstack/internal/types"
)

// CatalogProvider is an external read-only catalog for one or more media
// kinds.
type CatalogProvider interface {
	Search(ctx context.Context, kind types.MediaKind, query string, page int) (*types.CatalogPage, error)
	List(ctx context.Context, kind types.MediaKind, list types.CatalogList, page int, window string) (*types.CatalogPage, error)
	Details(ctx context.Context, kind types.MediaKind, id int) (*types.CatalogDetails, error)
	Genres(ctx context.Context, kind types.MediaKind) ([]types.Genre, error)
	Discover(ctx context.Context, kind types.MediaKind, filter types.DiscoverFilter) (*types.CatalogPage, error)
}

// CatalogService routes catalog reads to the provider for each kind and
// caches the results for every user alike.
type CatalogService struct {
	cache     *cache.Cache
	providers map[types.MediaKind]CatalogProvider
	logger    zerolog.Logger
}

func NewCatalogService(c *cache.Cache, providers map[types.MediaKind]CatalogProvider, logger zerolog.Logger) *CatalogService {
	return &CatalogService{cache: c, providers: providers, logger: logger}
}

func (s *CatalogService) provider(kind types.MediaKind) (CatalogProvider, error) {
	if !kind.Valid() {
		return nil, invalid("unknown media kind %q", kind)
	}
	p, ok := s.providers[kind]
	if !ok || p == nil {
		return nil, fmt.Errorf("%w: no provider configured for %s", ErrCatalogUnavailable, kind)
	}
	return p, nil
}

func normalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

func normalizeWindow(window string) string {
	if window != "day" {
		return "week"
	}
	return window
}

func emptyPage(page int) *types.CatalogPage {
	return &types.CatalogPage{Page: page, Results: []types.CatalogItem{}}
}

// copyPage hands every caller its own results slice.
func copyPage(p types.CatalogPage) *types.CatalogPage {
	p.Results = slices.Clone(p.Results)
	if p.Results == nil {
		p.Results = []types.CatalogItem{}
	}
	return &p
}

func (s *CatalogService) Search(ctx context.Context, kind types.MediaKind, query string, page int) (*types.CatalogPage, error) {
	p, err := s.provider(kind)
	if err != nil {
		return nil, err
	}
	page = normalizePage(page)
	query = strings.TrimSpace(query)
	if query == "" {
		return emptyPage(page), nil
	}

	key := cache.NewKey(cache.ClassCatalogSearch, "", kind, strings.ToLower(query), page)
	res, err := cache.Fetch(ctx, s.cache, key, func(ctx context.Context) (types.CatalogPage, error) {
		r, err := p.Search(ctx, kind, query, page)
		if err != nil {
			return types.CatalogPage{}, err
		}
		return *r, nil
	})
	if err != nil {
		return nil, err
	}
	return copyPage(res), nil
}

func (s *CatalogService) List(ctx context.Context, kind types.MediaKind, list types.CatalogList, page int, window string) (*types.CatalogPage, error) {
	p, err := s.provider(kind)
	if err != nil {
		return nil, err
	}
	if !list.Valid() {
		return nil, invalid("unknown catalog list %q", list)
	}
	page = normalizePage(page)
	window = normalizeWindow(window)

	key := cache.NewKey(cache.ClassCatalogList, "", kind, list, page, window)
	res, err := cache.Fetch(ctx, s.cache, key, func(ctx context.Context) (types.CatalogPage, error) {
		r, err := p.List(ctx, kind, list, page, window)
		if err != nil {
			return types.CatalogPage{}, err
		}
		return *r, nil
	})
	if err != nil {
		return nil, err
	}
	return copyPage(res), nil
}

func (s *CatalogService) Details(ctx context.Context, kind types.MediaKind, id int) (*types.CatalogDetails, error) {
	p, err := s.provider(kind)
	if err != nil {
		return nil, err
	}
	if id <= 0 {
		return nil, invalid("catalog id must be positive")
	}

	res, err := cache.Fetch(ctx, s.cache, cache.NewKey(cache.ClassCatalogDetails, "", kind, id), func(ctx context.Context) (types.CatalogDetails, error) {
		d, err := p.Details(ctx, kind, id)
		if err != nil {
			return types.CatalogDetails{}, err
		}
		return *d, nil
	})
	if err != nil {
		return nil, err
	}
	res.Genres = slices.Clone(res.Genres)
	res.Cast = slices.Clone(res.Cast)
	res.Developers = slices.Clone(res.Developers)
	res.GenreIDs = slices.Clone(res.GenreIDs)
	res.Platforms = slices.Clone(res.Platforms)
	return &res, nil
}

func (s *CatalogService) Genres(ctx context.Context, kind types.MediaKind) ([]types.Genre, error) {
	p, err := s.provider(kind)
	if err != nil {
		return nil, err
	}
	return cache.FetchSlice(ctx, s.cache, cache.NewKey(cache.ClassCatalogGenres, "", kind), func(ctx context.Context) ([]types.Genre, error) {
		return p.Genres(ctx, kind)
	})
}

func (s *CatalogService) Discover(ctx context.Context, kind types.MediaKind, filter types.DiscoverFilter) (*types.CatalogPage, error) {
	p, err := s.provider(kind)
	if err != nil {
		return nil, err
	}
	filter.Page = normalizePage(filter.Page)

	key := cache.NewKey(cache.ClassCatalogSearch, "", kind, "discover", filter)
	res, err := cache.Fetch(ctx, s.cache, key, func(ctx context.Context) (types.CatalogPage, error) {
		r, err := p.Discover(ctx, kind, filter)
		if err != nil {
			return types.CatalogPage{}, err
		}
		return *r, nil
	})
	if err != nil {
		return nil, err
	}
	return copyPage(res), nil
}
