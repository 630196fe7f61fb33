package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"popstack/internal/types"
)

const (
	posterSize   = "w500"
	backdropSize = "w1280"
	profileSize  = "w185"
	maxCast      = 10
)

// TMDBClient serves movies and series from The Movie Database.
type TMDBClient struct {
	APIKey   string
	BaseURL  string
	ImageURL string
	Language string
	http     *catalogHTTP
}

type TMDBOptions struct {
	APIKey     string
	BaseURL    string
	ImageURL   string
	Language   string
	HTTPClient *http.Client
}

func NewTMDBClient(opts TMDBOptions, logger zerolog.Logger) *TMDBClient {
	if opts.BaseURL == "" {
		opts.BaseURL = "https://api.themoviedb.org/3"
	}
	if opts.ImageURL == "" {
		opts.ImageURL = "https://image.tmdb.org/t/p/"
	}
	if !strings.HasSuffix(opts.ImageURL, "/") {
		opts.ImageURL += "/"
	}
	return &TMDBClient{
		APIKey:   opts.APIKey,
		BaseURL:  strings.TrimRight(opts.BaseURL, "/"),
		ImageURL: opts.ImageURL,
		Language: opts.Language,
		http:     newCatalogHTTP("tmdb", catalogHTTPOptions{Client: opts.HTTPClient}, logger),
	}
}

type tmdbResult struct {
	ID           int     `json:"id"`
	Title        string  `json:"title"`
	Name         string  `json:"name"`
	Overview     string  `json:"overview"`
	ReleaseDate  string  `json:"release_date"`
	FirstAirDate string  `json:"first_air_date"`
	PosterPath   *string `json:"poster_path"`
	BackdropPath *string `json:"backdrop_path"`
	GenreIDs     []int   `json:"genre_ids"`
	VoteAverage  float64 `json:"vote_average"`
	VoteCount    int     `json:"vote_count"`
}

type tmdbPage struct {
	Page         int          `json:"page"`
	Results      []tmdbResult `json:"results"`
	TotalPages   int          `json:"total_pages"`
	TotalResults int          `json:"total_results"`
}

type tmdbDetails struct {
	tmdbResult
	Tagline         string        `json:"tagline"`
	Status          string        `json:"status"`
	Runtime         *int          `json:"runtime"`
	EpisodeRunTime  []int         `json:"episode_run_time"`
	NumberOfSeasons *int          `json:"number_of_seasons"`
	Homepage        string        `json:"homepage"`
	Genres          []types.Genre `json:"genres"`
	Credits         struct {
		Cast []struct {
			ID          int     `json:"id"`
			Name        string  `json:"name"`
			Character   string  `json:"character"`
			ProfilePath *string `json:"profile_path"`
		} `json:"cast"`
	} `json:"credits"`
}

// segment is the TMDB path segment for a media kind.
func (c *TMDBClient) segment(kind types.MediaKind) (string, error) {
	switch kind {
	case types.MediaMovie:
		return "movie", nil
	case types.MediaSeries:
		return "tv", nil
	}
	return "", invalid("tmdb does not serve %q", kind)
}

func (c *TMDBClient) makeRequest(ctx context.Context, endpoint string, params url.Values, out any) error {
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
	if c.Language != "" {
		query.Set("language", c.Language)
	}

	// v4 read tokens are JWTs and go in the header; v3 keys go in the query.
	header := http.Header{}
	if strings.Contains(c.APIKey, ".") {
		header.Set("Authorization", "Bearer "+c.APIKey)
	} else if c.APIKey != "" {
		query.Set("api_key", c.APIKey)
	}
	u.RawQuery = query.Encode()

	return c.http.getJSON(ctx, u.String(), header, out)
}

func (c *TMDBClient) page(ctx context.Context, kind types.MediaKind, endpoint string, params url.Values) (*types.CatalogPage, error) {
	var resp tmdbPage
	if err := c.makeRequest(ctx, endpoint, params, &resp); err != nil {
		return nil, err
	}
	out := &types.CatalogPage{
		Page:         resp.Page,
		TotalPages:   resp.TotalPages,
		TotalResults: resp.TotalResults,
		Results:      make([]types.CatalogItem, len(resp.Results)),
	}
	for i, r := range resp.Results {
		out.Results[i] = c.item(kind, r)
	}
	return out, nil
}

func (c *TMDBClient) item(kind types.MediaKind, r tmdbResult) types.CatalogItem {
	title, date := r.Title, r.ReleaseDate
	if kind == types.MediaSeries {
		title, date = r.Name, r.FirstAirDate
	}
	return types.CatalogItem{
		ID:          r.ID,
		Kind:        kind,
		Title:       title,
		Overview:    r.Overview,
		ReleaseDate: date,
		Year:        ExtractYear(date),
		PosterURL:   c.Image(r.PosterPath, posterSize),
		BackdropURL: c.Image(r.BackdropPath, backdropSize),
		Rating:      r.VoteAverage,
		VoteCount:   r.VoteCount,
		GenreIDs:    r.GenreIDs,
	}
}

func (c *TMDBClient) Search(ctx context.Context, kind types.MediaKind, query string, page int) (*types.CatalogPage, error) {
	seg, err := c.segment(kind)
	if err != nil {
		return nil, err
	}
	return c.page(ctx, kind, "/search/"+seg, url.Values{
		"query": {query},
		"page":  {strconv.Itoa(page)},
	})
}

func (c *TMDBClient) List(ctx context.Context, kind types.MediaKind, list types.CatalogList, page int, window string) (*types.CatalogPage, error) {
	seg, err := c.segment(kind)
	if err != nil {
		return nil, err
	}
	params := url.Values{"page": {strconv.Itoa(page)}}

	var endpoint string
	switch list {
	case types.ListTrending:
		endpoint = fmt.Sprintf("/trending/%s/%s", seg, window)
	case types.ListPopular:
		endpoint = "/" + seg + "/popular"
	case types.ListTopRated:
		endpoint = "/" + seg + "/top_rated"
	case types.ListUpcoming:
		endpoint = "/movie/upcoming"
		if kind == types.MediaSeries {
			endpoint = "/tv/on_the_air"
		}
	default:
		return nil, invalid("unknown catalog list %q", list)
	}
	return c.page(ctx, kind, endpoint, params)
}

func (c *TMDBClient) Details(ctx context.Context, kind types.MediaKind, id int) (*types.CatalogDetails, error) {
	seg, err := c.segment(kind)
	if err != nil {
		return nil, err
	}
	var d tmdbDetails
	endpoint := fmt.Sprintf("/%s/%d", seg, id)
	if err := c.makeRequest(ctx, endpoint, url.Values{"append_to_response": {"credits"}}, &d); err != nil {
		return nil, err
	}

	out := &types.CatalogDetails{
		CatalogItem: c.item(kind, d.tmdbResult),
		Tagline:     d.Tagline,
		Status:      d.Status,
		Runtime:     d.Runtime,
		Seasons:     d.NumberOfSeasons,
		Website:     d.Homepage,
		Genres:      d.Genres,
	}
	if out.Runtime == nil && len(d.EpisodeRunTime) > 0 {
		out.Runtime = &d.EpisodeRunTime[0]
	}
	if out.Genres == nil {
		out.Genres = []types.Genre{}
	}
	for i, m := range d.Credits.Cast {
		if i == maxCast {
			break
		}
		out.Cast = append(out.Cast, types.CastMember{
			ID:         m.ID,
			Name:       m.Name,
			Character:  m.Character,
			ProfileURL: c.Image(m.ProfilePath, profileSize),
		})
	}
	return out, nil
}

func (c *TMDBClient) Genres(ctx context.Context, kind types.MediaKind) ([]types.Genre, error) {
	seg, err := c.segment(kind)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Genres []types.Genre `json:"genres"`
	}
	if err := c.makeRequest(ctx, "/genre/"+seg+"/list", nil, &resp); err != nil {
		return nil, err
	}
	if resp.Genres == nil {
		resp.Genres = []types.Genre{}
	}
	return resp.Genres, nil
}

func (c *TMDBClient) Discover(ctx context.Context, kind types.MediaKind, f types.DiscoverFilter) (*types.CatalogPage, error) {
	seg, err := c.segment(kind)
	if err != nil {
		return nil, err
	}
	dateField := "primary_release_date"
	if kind == types.MediaSeries {
		dateField = "first_air_date"
	}

	sortBy := f.SortBy
	if sortBy == "" {
		sortBy = "popularity.desc"
	}
	params := url.Values{
		"page":    {strconv.Itoa(f.Page)},
		"sort_by": {sortBy},
	}
	if f.Genres != "" {
		params.Set("with_genres", f.Genres)
	}
	if f.DateFrom != "" {
		params.Set(dateField+".gte", f.DateFrom)
	}
	if f.DateTo != "" {
		params.Set(dateField+".lte", f.DateTo)
	}
	if f.MinRating > 0 {
		params.Set("vote_average.gte", strconv.FormatFloat(f.MinRating, 'f', -1, 64))
	}
	if f.MinVotes > 0 {
		params.Set("vote_count.gte", strconv.Itoa(f.MinVotes))
	}
	return c.page(ctx, kind, "/discover/"+seg, params)
}

// Image builds the full URL for an image path, or nil when there is none
// and the client should show its placeholder.
func (c *TMDBClient) Image(path *string, size string) *string {
	if path == nil || *path == "" {
		return nil
	}
	u := c.ImageURL + size + *path
	return &u
}

// ExtractYear returns the year of a YYYY-MM-DD date.
func ExtractYear(releaseDate string) *int {
	if releaseDate == "" {
		return nil
	}
	parts := strings.Split(releaseDate, "-")
	year, err := strconv.Atoi(parts[0])
	if err != nil {
		return nil
	}
	return &year
}
