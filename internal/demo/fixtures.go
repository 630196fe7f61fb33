// Package demo holds the fixture data served when the app runs without a
// hosted backend: a seeded in-memory store and a static catalog.
package demo

import (
	"popstack/internal/auth"
	"popstack/internal/types"
)

const (
	UserID     = "00000000-0000-4000-8000-000000000001"
	Username   = "demo"
	filmFanID  = "00000000-0000-4000-8000-000000000002"
	gamerID    = "00000000-0000-4000-8000-000000000003"
	bingerID   = "00000000-0000-4000-8000-000000000004"
	strangerID = "00000000-0000-4000-8000-000000000005"
)

// User is the identity every demo request is signed in as.
func User(email string) auth.User {
	return auth.User{ID: UserID, Email: email, Name: "Demo User"}
}

type profileFixture struct {
	id, username, bio string
}

var profiles = []profileFixture{
	{UserID, Username, "Exploring PopStack with sample data."},
	{filmFanID, "filmfan", "Cinema every Friday."},
	{gamerID, "pixelhunter", "Soulslikes and CRPGs."},
	{bingerID, "serialbinger", "One more episode."},
	{strangerID, "wanderer", ""},
}

type friendshipFixture struct {
	from, to string
	status   types.FriendshipStatus
}

var friendships = []friendshipFixture{
	{UserID, filmFanID, types.FriendshipAccepted},
	{gamerID, UserID, types.FriendshipAccepted},
	{bingerID, UserID, types.FriendshipPending},
}

type reviewFixture struct {
	user   string
	kind   types.MediaKind
	id     int
	rating int
	text   string
	hours  float64
	ageDay int
}

var reviews = []reviewFixture{
	{UserID, types.MediaMovie, 550, 9, "Still sharp after all these years.", 0, 40},
	{UserID, types.MediaMovie, 693134, 10, "Spectacle done right.", 0, 12},
	{UserID, types.MediaMovie, 872585, 8, "", 0, 30},
	{UserID, types.MediaSeries, 136315, 9, "Yes, chef.", 0, 20},
	{UserID, types.MediaGame, 326243, 10, "Worth every death.", 142.5, 60},
	{filmFanID, types.MediaMovie, 693134, 9, "Go see it on the biggest screen.", 0, 3},
	{filmFanID, types.MediaSeries, 126308, 10, "", 0, 2},
	{gamerID, types.MediaGame, baldursGate3ID, 10, "A new bar for RPGs.", 210, 1},
}

type watchlistFixture struct {
	kind types.MediaKind
	id   int
}

var watchlist = []watchlistFixture{
	{types.MediaSeries, 126308},
	{types.MediaGame, baldursGate3ID},
}

type collectionFixture struct {
	name, description string
	public            bool
	items             []watchlistFixture
}

var collections = []collectionFixture{
	{"Sci-Fi Essentials", "Big ideas, bigger screens.", true, []watchlistFixture{
		{types.MediaMovie, 693134},
		{types.MediaMovie, 872585},
	}},
	{"Comfort picks", "", false, []watchlistFixture{
		{types.MediaSeries, 136315},
		{types.MediaMovie, 550},
	}},
}
