package types

type CatalogList string

const (
	ListTrending CatalogList = "trending"
	ListPopular  CatalogList = "popular"
	ListTopRated CatalogList = "top_rated"
	ListUpcoming CatalogList = "upcoming"
)

func (l CatalogList) Valid() bool {
	switch l {
	case ListTrending, ListPopular, ListTopRated, ListUpcoming:
		return true
	}
	return false
}

type CatalogItem struct {
	ID          int       `json:"id"`
	Kind        MediaKind `json:"type"`
	Title       string    `json:"title"`
	Overview    string    `json:"overview,omitempty"`
	ReleaseDate string    `json:"release_date,omitempty"`
	Year        *int      `json:"year,omitempty"`
	PosterURL   *string   `json:"poster_url"`
	BackdropURL *string   `json:"backdrop_url,omitempty"`
	Rating      float64   `json:"rating"`
	VoteCount   int       `json:"vote_count"`
	GenreIDs    []int     `json:"genre_ids,omitempty"`
	Platforms   []string  `json:"platforms,omitempty"`
}

type CatalogPage struct {
	Page         int           `json:"page"`
	TotalPages   int           `json:"total_pages"`
	TotalResults int           `json:"total_results"`
	Results      []CatalogItem `json:"results"`
}

type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

type CastMember struct {
	ID         int     `json:"id"`
	Name       string  `json:"name"`
	Character  string  `json:"character"`
	ProfileURL *string `json:"profile_url"`
}

type CatalogDetails struct {
	CatalogItem
	Tagline    string       `json:"tagline,omitempty"`
	Status     string       `json:"status,omitempty"`
	Runtime    *int         `json:"runtime,omitempty"`
	Seasons    *int         `json:"seasons,omitempty"`
	Playtime   *int         `json:"playtime,omitempty"`
	Website    string       `json:"website,omitempty"`
	Genres     []Genre      `json:"genres"`
	Cast       []CastMember `json:"cast,omitempty"`
	Developers []string     `json:"developers,omitempty"`
}

// DiscoverFilter narrows a catalog discover query. Zero values are ignored.
type DiscoverFilter struct {
	Page      int     `json:"page"`
	SortBy    string  `json:"sort_by"`
	Genres    string  `json:"genres"`
	Platforms string  `json:"platforms"`
	DateFrom  string  `json:"date_from"`
	DateTo    string  `json:"date_to"`
	MinRating float64 `json:"min_rating"`
	MinVotes  int     `json:"min_votes"`
}
