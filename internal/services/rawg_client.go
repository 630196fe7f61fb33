package services

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"popstack/internal/types"
)

const rawgPageSize = 20

// RAWGClient serves games from the RAWG database. RAWG rates on a five
// point scale; ratings are doubled to match the rest of the catalog.
type RAWGClient struct {
	APIKey  string
	BaseURL string
	http    *catalogHTTP
	now     func() time.Time
}

type RAWGOptions struct {
	APIKey     string
	BaseURL    string
	HTTPClient *http.Client
}

func NewRAWGClient(opts RAWGOptions, logger zerolog.Logger) *RAWGClient {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.rawg.io/api"
	}
	return &RAWGClient{
		APIKey:  opts.APIKey,
		BaseURL: strings.TrimRight(opts.BaseURL, "/"),
		http:    newCatalogHTTP("rawg", catalogHTTPOptions{Client: opts.HTTPClient}, logger),
		now:     time.Now,
	}
}

type rawgGame struct {
	ID              int     `json:"id"`
	Name            string  `json:"name"`
	Released        string  `json:"released"`
	BackgroundImage *string `json:"background_image"`
	Rating          float64 `json:"rating"`
	RatingsCount    int     `json:"ratings_count"`
	Genres          []struct {
		ID   int    `json:"id"`
		Name string `json:"name"`
	} `json:"genres"`
	Platforms []struct {
		Platform struct {
			Name string `json:"name"`
		} `json:"platform"`
	} `json:"platforms"`
}

type rawgPage struct {
	Count   int        `json:"count"`
	Results []rawgGame `json:"results"`
}

type rawgDetails struct {
	rawgGame
	DescriptionRaw string `json:"description_raw"`
	Playtime       *int   `json:"playtime"`
	Website        string `json:"website"`
	Developers     []struct {
		Name string `json:"name"`
	} `json:"developers"`
}

func (c *RAWGClient) check(kind types.MediaKind) error {
	if kind != types.MediaGame {
		return invalid("rawg does not serve %q", kind)
	}
	return nil
}

func (c *RAWGClient) makeRequest(ctx context.Context, endpoint string, params url.Values, out any) error {
	u, err := url.Parse(c.BaseURL + endpoint)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	query := u.Query()
	for key, values := range params {
		for _, v := range values {
			query.Add(key, v)
		}
	}
	query.Set("key", c.APIKey)
	u.RawQuery = query.Encode()

	return c.http.getJSON(ctx, u.String(), nil, out)
}

func (c *RAWGClient) games(ctx context.Context, page int, params url.Values) (*types.CatalogPage, error) {
	if params == nil {
		params = url.Values{}
	}
	params.Set("page", strconv.Itoa(page))
	params.Set("page_size", strconv.Itoa(rawgPageSize))

	var resp rawgPage
	if err := c.makeRequest(ctx, "/games", params, &resp); err != nil {
		return nil, err
	}
	out := &types.CatalogPage{
		Page:         page,
		TotalResults: resp.Count,
		TotalPages:   (resp.Count + rawgPageSize - 1) / rawgPageSize,
		Results:      make([]types.CatalogItem, len(resp.Results)),
	}
	for i, g := range resp.Results {
		out.Results[i] = g.item()
	}
	return out, nil
}

func (g rawgGame) item() types.CatalogItem {
	item := types.CatalogItem{
		ID:          g.ID,
		Kind:        types.MediaGame,
		Title:       g.Name,
		ReleaseDate: g.Released,
		Year:        ExtractYear(g.Released),
		PosterURL:   g.BackgroundImage,
		Rating:      math.Round(g.Rating*2*10) / 10,
		VoteCount:   g.RatingsCount,
	}
	if item.PosterURL != nil && *item.PosterURL == "" {
		item.PosterURL = nil
	}
	for _, genre := range g.Genres {
		item.GenreIDs = append(item.GenreIDs, genre.ID)
	}
	for _, p := range g.Platforms {
		item.Platforms = append(item.Platforms, p.Platform.Name)
	}
	return item
}

func (c *RAWGClient) Search(ctx context.Context, kind types.MediaKind, query string, page int) (*types.CatalogPage, error) {
	if err := c.check(kind); err != nil {
		return nil, err
	}
	return c.games(ctx, page, url.Values{"search": {query}})
}

func (c *RAWGClient) List(ctx context.Context, kind types.MediaKind, list types.CatalogList, page int, window string) (*types.CatalogPage, error) {
	if err := c.check(kind); err != nil {
		return nil, err
	}
	today := c.now().UTC()
	const day = "2006-01-02"

	params := url.Values{}
	switch list {
	case types.ListTrending:
		from := today.AddDate(0, 0, -7)
		if window == "day" {
			from = today.AddDate(0, 0, -1)
		}
		params.Set("dates", from.Format(day)+","+today.Format(day))
		params.Set("ordering", "-added")
	case types.ListPopular:
		params.Set("ordering", "-added")
	case types.ListTopRated:
		params.Set("ordering", "-rating")
		params.Set("metacritic", "80,100")
	case types.ListUpcoming:
		params.Set("dates", today.AddDate(0, 0, 1).Format(day)+","+today.AddDate(1, 0, 0).Format(day))
		params.Set("ordering", "released")
	default:
		return nil, invalid("unknown catalog list %q", list)
	}
	return c.games(ctx, page, params)
}

func (c *RAWGClient) Details(ctx context.Context, kind types.MediaKind, id int) (*types.CatalogDetails, error) {
	if err := c.check(kind); err != nil {
		return nil, err
	}
	var d rawgDetails
	if err := c.makeRequest(ctx, "/games/"+strconv.Itoa(id), nil, &d); err != nil {
		return nil, err
	}

	out := &types.CatalogDetails{
		CatalogItem: d.item(),
		Playtime:    d.Playtime,
		Website:     d.Website,
		Genres:      make([]types.Genre, len(d.Genres)),
	}
	out.Overview = d.DescriptionRaw
	for i, g := range d.Genres {
		out.Genres[i] = types.Genre{ID: g.ID, Name: g.Name}
	}
	for _, dev := range d.Developers {
		out.Developers = append(out.Developers, dev.Name)
	}
	return out, nil
}

func (c *RAWGClient) Genres(ctx context.Context, kind types.MediaKind) ([]types.Genre, error) {
	if err := c.check(kind); err != nil {
		return nil, err
	}
	var resp struct {
		Results []types.Genre `json:"results"`
	}
	if err := c.makeRequest(ctx, "/genres", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Results == nil {
		resp.Results = []types.Genre{}
	}
	return resp.Results, nil
}

func (c *RAWGClient) Discover(ctx context.Context, kind types.MediaKind, f types.DiscoverFilter) (*types.CatalogPage, error) {
	if err := c.check(kind); err != nil {
		return nil, err
	}
	ordering := f.SortBy
	if ordering == "" {
		ordering = "-added"
	}
	params := url.Values{"ordering": {ordering}}
	if f.Genres != "" {
		params.Set("genres", f.Genres)
	}
	if f.Platforms != "" {
		params.Set("platforms", f.Platforms)
	}
	if f.DateFrom != "" || f.DateTo != "" {
		from, to := f.DateFrom, f.DateTo
		if from == "" {
			from = "1970-01-01"
		}
		if to == "" {
			to = c.now().UTC().AddDate(5, 0, 0).Format("2006-01-02")
		}
		params.Set("dates", from+","+to)
	}
	if f.MinRating > 0 {
		// metacritic is 0-100; the filter is on the ten point scale.
		params.Set("metacritic", strconv.Itoa(int(f.MinRating*10))+",100")
	}
	return c.games(ctx, f.Page, params)
}
