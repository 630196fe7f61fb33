package types

import (
	"fmt"
	"time"
)

type MediaKind string

const (
	MediaMovie  MediaKind = "movie"
	MediaSeries MediaKind = "series"
	MediaGame   MediaKind = "game"
)

var MediaKinds = []MediaKind{MediaMovie, MediaSeries, MediaGame}

func (k MediaKind) Valid() bool {
	switch k {
	case MediaMovie, MediaSeries, MediaGame:
		return true
	}
	return false
}

func ParseMediaKind(s string) (MediaKind, error) {
	k := MediaKind(s)
	if s == "tv" {
		k = MediaSeries
	}
	if !k.Valid() {
		return "", fmt.Errorf("unknown media kind %q", s)
	}
	return k, nil
}

type Profile struct {
	ID        string    `json:"id"`
	Username  *string   `json:"username"`
	AvatarURL *string   `json:"avatar_url"`
	Bio       *string   `json:"bio"`
	Created   time.Time `json:"created_at"`
	Updated   time.Time `json:"updated_at"`
}

// ProfileSummary is the slice of a profile joined into friend views.
type ProfileSummary struct {
	ID        string  `json:"id"`
	Username  string  `json:"username"`
	AvatarURL *string `json:"avatar_url"`
}

type FriendshipStatus string

const (
	FriendshipPending  FriendshipStatus = "pending"
	FriendshipAccepted FriendshipStatus = "accepted"
)

// Friendship is a directed edge: UserID sent the request to FriendID.
type Friendship struct {
	ID       string           `json:"id"`
	UserID   string           `json:"user_id"`
	FriendID string           `json:"friend_id"`
	Status   FriendshipStatus `json:"status"`
	Created  time.Time        `json:"created_at"`
	Updated  time.Time        `json:"updated_at"`
}

// OtherParty returns the participant that is not me.
func (f Friendship) OtherParty(me string) string {
	if f.UserID == me {
		return f.FriendID
	}
	return f.UserID
}

type Friend struct {
	Friendship
	Profile ProfileSummary `json:"friend_profile"`
}

// FriendRequest is a pending friendship with the counterpart's profile:
// the requester for incoming requests, the recipient for outgoing ones.
type FriendRequest struct {
	Friendship
	Profile ProfileSummary `json:"profile"`
}

type Relation string

const (
	RelationEligible    Relation = "eligible"
	RelationFriend      Relation = "friend"
	RelationRequestSent Relation = "request_sent"
)

type UserSearchResult struct {
	ProfileSummary
	Relation Relation `json:"relation"`
}

type Review struct {
	ID          string    `json:"id"`
	UserID      string    `json:"user_id"`
	Kind        MediaKind `json:"type"`
	MediaID     int       `json:"media_id"`
	Title       string    `json:"title"`
	Poster      *string   `json:"poster"`
	Rating      int       `json:"rating"`
	ReviewText  *string   `json:"review_text"`
	WatchedDate *string   `json:"watched_date"`
	HoursPlayed *float64  `json:"hours_played,omitempty"`
	Platform    *string   `json:"platform,omitempty"`
	Created     time.Time `json:"created_at"`
	Updated     time.Time `json:"updated_at"`
}

type WatchlistEntry struct {
	ID      string    `json:"id"`
	UserID  string    `json:"user_id"`
	Kind    MediaKind `json:"item_type"`
	MediaID int       `json:"item_id"`
	Title   string    `json:"item_title"`
	Poster  *string   `json:"item_poster"`
	Rating  *float64  `json:"item_rating"`
	Added   time.Time `json:"added_at"`
}

type Collection struct {
	ID          string           `json:"id"`
	UserID      string           `json:"user_id"`
	Name        string           `json:"name"`
	Description *string          `json:"description"`
	IsPublic    bool             `json:"is_public"`
	ItemsCount  int              `json:"items_count"`
	Items       []CollectionItem `json:"items,omitempty"`
	Created     time.Time        `json:"created_at"`
	Updated     time.Time        `json:"updated_at"`
}

type CollectionItem struct {
	ID           string    `json:"id"`
	CollectionID string    `json:"collection_id"`
	Kind         MediaKind `json:"item_type"`
	MediaID      int       `json:"item_id"`
	Title        string    `json:"item_title"`
	Poster       *string   `json:"item_poster"`
	Added        time.Time `json:"added_at"`
}

// CollectionRef names a collection that holds a given item.
type CollectionRef struct {
	CollectionID string `json:"collection_id"`
	Name         string `json:"name"`
}

type ActivityType string

const (
	ActivityReview    ActivityType = "review"
	ActivityWatchlist ActivityType = "watchlist"
	ActivityRating    ActivityType = "rating"
)

type Activity struct {
	ID      string       `json:"id"`
	UserID  string       `json:"user_id"`
	Type    ActivityType `json:"activity_type"`
	Kind    MediaKind    `json:"item_type"`
	MediaID int          `json:"item_id"`
	Title   string       `json:"item_title"`
	Content *string      `json:"content"`
	Created time.Time    `json:"created_at"`
}

type FriendActivity struct {
	Activity
	Username  string  `json:"username"`
	AvatarURL *string `json:"avatar_url"`
}

type UserStats struct {
	TotalItems         int `json:"total_items"`
	TotalRatings       int `json:"total_ratings"`
	TotalTextReviews   int `json:"total_text_reviews"`
	WatchlistCount     int `json:"watchlist_count"`
	CollectionsCount   int `json:"collections_count"`
	TotalMoviesWatched int `json:"total_movies_watched"`
	TotalGamesPlayed   int `json:"total_games_played"`
	TotalHoursGaming   int `json:"total_hours_gaming"`
	FriendsCount       int `json:"friends_count"`
}

type FavoriteMedia struct {
	Movies []Review `json:"movies"`
	Series []Review `json:"series"`
	Games  []Review `json:"games"`
}

type Preferences struct {
	UserID   string    `json:"user_id"`
	Language string    `json:"language"`
	Theme    string    `json:"theme"`
	Updated  time.Time `json:"updated_at"`
}

// Request types

type UpdateProfileRequest struct {
	Username  *string `json:"username" validate:"omitempty,min=3,max=32"`
	Bio       *string `json:"bio" validate:"omitempty,max=500"`
	AvatarURL *string `json:"avatar_url" validate:"omitempty,url"`
}

type SendFriendRequestRequest struct {
	FriendID string `json:"friend_id" validate:"required"`
}

type SaveReviewRequest struct {
	Title       string   `json:"title" validate:"required,max=300"`
	Poster      *string  `json:"poster"`
	Rating      int      `json:"rating" validate:"min=1,max=10"`
	ReviewText  *string  `json:"review_text" validate:"omitempty,max=5000"`
	WatchedDate *string  `json:"watched_date" validate:"omitempty,datetime=2006-01-02"`
	HoursPlayed *float64 `json:"hours_played" validate:"omitempty,min=0"`
	Platform    *string  `json:"platform" validate:"omitempty,max=100"`
}

type AddToWatchlistRequest struct {
	Title  string   `json:"title" validate:"required,max=300"`
	Poster *string  `json:"poster"`
	Rating *float64 `json:"rating" validate:"omitempty,min=0,max=10"`
}

type CreateCollectionRequest struct {
	Name        string  `json:"name" validate:"required,max=100"`
	Description *string `json:"description" validate:"omitempty,max=1000"`
	IsPublic    bool    `json:"is_public"`
}

type UpdateCollectionRequest = CreateCollectionRequest

type AddCollectionItemRequest struct {
	Kind    MediaKind `json:"item_type" validate:"required,oneof=movie series game"`
	MediaID int       `json:"item_id" validate:"required,min=1"`
	Title   string    `json:"item_title" validate:"required,max=300"`
	Poster  *string   `json:"item_poster"`
}

type UpdatePreferencesRequest struct {
	Language *string `json:"language" validate:"omitempty,oneof=pl en"`
	Theme    *string `json:"theme" validate:"omitempty,oneof=light dark system"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}
