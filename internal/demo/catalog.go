package demo

import (
	"context"
	"slices"
	"strconv"
	"strings"

	"popstack/internal/services"
	"popstack/internal/types"
)

const baldursGate3ID = 324997

func image(u string) *string { return &u }

func year(y int) *int { return &y }

var catalogItems = []types.CatalogDetails{
	{
		CatalogItem: types.CatalogItem{ID: 550, Kind: types.MediaMovie, Title: "Fight Club", ReleaseDate: "1999-10-15", Year: year(1999), Rating: 8.4, VoteCount: 30000, GenreIDs: []int{18}},
		Tagline:     "Mischief. Mayhem. Soap.", Status: "Released", Genres: []types.Genre{{ID: 18, Name: "Drama"}},
	},
	{
		CatalogItem: types.CatalogItem{ID: 693134, Kind: types.MediaMovie, Title: "Dune: Part Two", ReleaseDate: "2024-02-27", Year: year(2024), Rating: 8.9, VoteCount: 6000, GenreIDs: []int{878, 12},
			PosterURL: image("https://images.unsplash.com/photo-1534809027769-b00d750a6bac?w=400&h=600&fit=crop")},
		Status: "Released", Genres: []types.Genre{{ID: 878, Name: "Science Fiction"}, {ID: 12, Name: "Adventure"}},
	},
	{
		CatalogItem: types.CatalogItem{ID: 872585, Kind: types.MediaMovie, Title: "Oppenheimer", ReleaseDate: "2023-07-19", Year: year(2023), Rating: 8.8, VoteCount: 9000, GenreIDs: []int{18, 36},
			PosterURL: image("https://images.unsplash.com/photo-1506157786151-b8491531f063?w=400&h=600&fit=crop")},
		Status: "Released", Genres: []types.Genre{{ID: 18, Name: "Drama"}, {ID: 36, Name: "History"}},
	},
	{
		CatalogItem: types.CatalogItem{ID: 126308, Kind: types.MediaSeries, Title: "Shogun", ReleaseDate: "2024-02-27", Year: year(2024), Rating: 8.9, VoteCount: 1500, GenreIDs: []int{18, 10759},
			PosterURL: image("https://images.unsplash.com/photo-1528127269322-539801943592?w=400&h=600&fit=crop")},
		Status: "Returning Series", Genres: []types.Genre{{ID: 18, Name: "Drama"}, {ID: 10759, Name: "Action & Adventure"}},
	},
	{
		CatalogItem: types.CatalogItem{ID: 136315, Kind: types.MediaSeries, Title: "The Bear", ReleaseDate: "2022-06-23", Year: year(2022), Rating: 8.7, VoteCount: 1200, GenreIDs: []int{35, 18},
			PosterURL: image("https://images.unsplash.com/photo-1485518882345-15568b007407?w=400&h=600&fit=crop")},
		Status: "Returning Series", Genres: []types.Genre{{ID: 35, Name: "Comedy"}, {ID: 18, Name: "Drama"}},
	},
	{
		CatalogItem: types.CatalogItem{ID: 326243, Kind: types.MediaGame, Title: "Elden Ring", ReleaseDate: "2022-02-25", Year: year(2022), Rating: 9.2, VoteCount: 5000, GenreIDs: []int{4, 5}, Platforms: []string{"PC", "PlayStation 5", "Xbox Series S/X"},
			PosterURL: image("https://images.unsplash.com/photo-1538481199705-c710c4e965fc?w=400&h=600&fit=crop")},
		Genres: []types.Genre{{ID: 4, Name: "Action"}, {ID: 5, Name: "RPG"}}, Developers: []string{"FromSoftware"},
	},
	{
		CatalogItem: types.CatalogItem{ID: baldursGate3ID, Kind: types.MediaGame, Title: "Baldur's Gate 3", ReleaseDate: "2023-08-03", Year: year(2023), Rating: 9.4, VoteCount: 4000, GenreIDs: []int{5}, Platforms: []string{"PC", "PlayStation 5"},
			PosterURL: image("https://images.unsplash.com/photo-1550745165-9bc0b252726f?w=400&h=600&fit=crop")},
		Genres: []types.Genre{{ID: 5, Name: "RPG"}}, Developers: []string{"Larian Studios"},
	},
}

// Catalog is a static catalog over the fixture items. It serves every
// media kind.
type Catalog struct{}

var _ services.CatalogProvider = Catalog{}

func (Catalog) items(kind types.MediaKind) []types.CatalogItem {
	var out []types.CatalogItem
	for _, d := range catalogItems {
		if d.Kind == kind {
			out = append(out, d.CatalogItem)
		}
	}
	return out
}

func single(items []types.CatalogItem, page int) *types.CatalogPage {
	if page > 1 {
		return &types.CatalogPage{Page: page, TotalPages: 1, TotalResults: len(items), Results: []types.CatalogItem{}}
	}
	if items == nil {
		items = []types.CatalogItem{}
	}
	return &types.CatalogPage{Page: 1, TotalPages: 1, TotalResults: len(items), Results: items}
}

func (c Catalog) Search(_ context.Context, kind types.MediaKind, query string, page int) (*types.CatalogPage, error) {
	q := strings.ToLower(query)
	var hits []types.CatalogItem
	for _, it := range c.items(kind) {
		if strings.Contains(strings.ToLower(it.Title), q) {
			hits = append(hits, it)
		}
	}
	return single(hits, page), nil
}

func (c Catalog) List(_ context.Context, kind types.MediaKind, list types.CatalogList, page int, _ string) (*types.CatalogPage, error) {
	items := c.items(kind)
	switch list {
	case types.ListTopRated:
		slices.SortStableFunc(items, func(a, b types.CatalogItem) int {
			switch {
			case a.Rating > b.Rating:
				return -1
			case a.Rating < b.Rating:
				return 1
			}
			return 0
		})
	case types.ListUpcoming:
		items = nil
	}
	return single(items, page), nil
}

func (Catalog) Details(_ context.Context, kind types.MediaKind, id int) (*types.CatalogDetails, error) {
	for _, d := range catalogItems {
		if d.Kind == kind && d.ID == id {
			out := d
			return &out, nil
		}
	}
	return nil, services.ErrNotFound
}

func (Catalog) Genres(_ context.Context, kind types.MediaKind) ([]types.Genre, error) {
	seen := map[int]bool{}
	out := []types.Genre{}
	for _, d := range catalogItems {
		if d.Kind != kind {
			continue
		}
		for _, g := range d.Genres {
			if !seen[g.ID] {
				seen[g.ID] = true
				out = append(out, g)
			}
		}
	}
	return out, nil
}

func (c Catalog) Discover(_ context.Context, kind types.MediaKind, f types.DiscoverFilter) (*types.CatalogPage, error) {
	var hits []types.CatalogItem
	for _, it := range c.items(kind) {
		if f.MinRating > 0 && it.Rating < f.MinRating {
			continue
		}
		if f.Genres != "" && !hasGenre(it, f.Genres) {
			continue
		}
		hits = append(hits, it)
	}
	return single(hits, f.Page), nil
}

// hasGenre matches a comma separated list of genre ids.
func hasGenre(it types.CatalogItem, genres string) bool {
	for _, g := range strings.Split(genres, ",") {
		for _, id := range it.GenreIDs {
			if strings.TrimSpace(g) == strconv.Itoa(id) {
				return true
			}
		}
	}
	return false
}
