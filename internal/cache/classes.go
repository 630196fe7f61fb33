package cache

import "time"

// Class names a kind of derived data. Invalidation works on whole classes.
type Class string

const (
	ClassProfile          Class = "profile"
	ClassFriends          Class = "friends"
	ClassIncomingRequests Class = "incoming_requests"
	ClassOutgoingRequests Class = "outgoing_requests"
	ClassUserSearch       Class = "user_search"
	ClassFriendActivity   Class = "friend_activity"
	ClassReviews          Class = "reviews"
	ClassWatchlist        Class = "watchlist"
	ClassCollections      Class = "collections"
	ClassStats            Class = "stats"
	ClassPreferences      Class = "preferences"

	ClassCatalogSearch  Class = "catalog_search"
	ClassCatalogList    Class = "catalog_list"
	ClassCatalogDetails Class = "catalog_details"
	ClassCatalogGenres  Class = "catalog_genres"
)

// Policy sets how long an entry is served fresh, how long it is kept at
// all, and whether serving a stale entry also triggers a background refresh.
type Policy struct {
	Fresh      time.Duration
	Retained   time.Duration
	Revalidate bool
}

func catalogPolicy(fresh time.Duration) Policy {
	return Policy{Fresh: fresh, Retained: fresh + 5*time.Minute, Revalidate: true}
}

var ownerScoped = Policy{Fresh: time.Minute, Retained: 5 * time.Minute}

// DefaultPolicies are the freshness windows per class.
var DefaultPolicies = map[Class]Policy{
	ClassFriends:          {Fresh: 5 * time.Minute, Retained: 10 * time.Minute},
	ClassIncomingRequests: {Fresh: 2 * time.Minute, Retained: 5 * time.Minute},
	ClassOutgoingRequests: {Fresh: 5 * time.Minute, Retained: 10 * time.Minute},
	ClassUserSearch:       {Fresh: 30 * time.Second, Retained: time.Minute},
	ClassFriendActivity:   {Fresh: 2 * time.Minute, Retained: 5 * time.Minute},
	ClassProfile:          ownerScoped,
	ClassReviews:          ownerScoped,
	ClassWatchlist:        ownerScoped,
	ClassCollections:      ownerScoped,
	ClassStats:            ownerScoped,
	ClassPreferences:      ownerScoped,

	ClassCatalogSearch:  catalogPolicy(10 * time.Minute),
	ClassCatalogList:    catalogPolicy(30 * time.Minute),
	ClassCatalogDetails: catalogPolicy(time.Hour),
	ClassCatalogGenres:  catalogPolicy(24 * time.Hour),
}

// Mutation names a write whose completion invalidates derived data.
type Mutation string

const (
	MutSendFriendRequest   Mutation = "send_friend_request"
	MutAcceptFriendRequest Mutation = "accept_friend_request"
	MutRejectFriendRequest Mutation = "reject_friend_request"
	MutRemoveFriend        Mutation = "remove_friend"
	MutUpdateProfile       Mutation = "update_profile"
	MutSaveReview          Mutation = "save_review"
	MutDeleteReview        Mutation = "delete_review"
	MutChangeWatchlist     Mutation = "change_watchlist"
	MutChangeCollection    Mutation = "change_collection"
	MutRecordActivity      Mutation = "record_activity"
	MutUpdatePreferences   Mutation = "update_preferences"
)

// Invalidations is the contract between writes and derived data: after a
// mutation succeeds, every listed class is dropped.
var Invalidations = map[Mutation][]Class{
	MutSendFriendRequest:   {ClassOutgoingRequests, ClassIncomingRequests, ClassFriends, ClassUserSearch},
	MutAcceptFriendRequest: {ClassFriends, ClassIncomingRequests, ClassOutgoingRequests, ClassFriendActivity, ClassStats},
	MutRejectFriendRequest: {ClassIncomingRequests, ClassOutgoingRequests},
	MutRemoveFriend:        {ClassFriends, ClassFriendActivity, ClassStats},
	MutUpdateProfile:       {ClassProfile, ClassFriends, ClassIncomingRequests, ClassOutgoingRequests, ClassUserSearch, ClassFriendActivity},
	MutSaveReview:          {ClassReviews, ClassStats},
	MutDeleteReview:        {ClassReviews, ClassStats},
	MutChangeWatchlist:     {ClassWatchlist, ClassStats},
	MutChangeCollection:    {ClassCollections, ClassStats},
	MutRecordActivity:      {ClassFriendActivity},
	MutUpdatePreferences:   {ClassPreferences},
}
