package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"popstack/internal/cache"
	"popstack/internal/debounce"
	"popstack/internal/metrics"
	"popstack/internal/remote"
	"popstack/internal/types"
)

const (
	minSearchLength = 2
	maxSearchResult = 10
)

// FriendService owns the friendship lifecycle:
// none -> pending -> accepted, with reject and unfriend deleting the row.
type FriendService struct {
	gw        remote.Gateway
	cache     *cache.Cache
	profiles  *ProfileService
	debouncer *debounce.Debouncer
	logger    zerolog.Logger
}

func NewFriendService(gw remote.Gateway, c *cache.Cache, profiles *ProfileService, d *debounce.Debouncer, logger zerolog.Logger) *FriendService {
	return &FriendService{gw: gw, cache: c, profiles: profiles, debouncer: d, logger: logger}
}

// pairKey identifies the unordered pair {a, b}.
func pairKey(a, b string) string {
	if a > b {
		a, b = b, a
	}
	return a + ":" + b
}

// Relationship returns the friendship between a and b in either direction,
// or nil when there is none.
func (s *FriendService) Relationship(ctx context.Context, a, b string) (*types.Friendship, error) {
	rows, err := remote.SelectAll[types.Friendship](ctx, s.gw,
		remote.From("friendships").Or(
			remote.All(remote.Eq("user_id", a), remote.Eq("friend_id", b)),
			remote.All(remote.Eq("user_id", b), remote.Eq("friend_id", a)),
		))
	if err != nil {
		return nil, fmt.Errorf("failed to look up friendship: %w", err)
	}
	if len(rows) == 0 {
		return nil, nil
	}
	for i := range rows {
		if rows[i].Status == types.FriendshipAccepted {
			return &rows[i], nil
		}
	}
	return &rows[0], nil
}

// SendRequest creates a pending request from userID to friendID. A request
// from the other side that is still pending is accepted instead.
func (s *FriendService) SendRequest(ctx context.Context, userID, friendID string) (*types.Friendship, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	friendID = strings.TrimSpace(friendID)
	if friendID == "" {
		return nil, invalid("friend id is required")
	}
	if friendID == userID {
		return nil, ErrSelfFriendship
	}

	existing, err := s.Relationship(ctx, userID, friendID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return s.resolveExisting(ctx, userID, existing)
	}

	ts := now()
	row, err := s.gw.Insert(ctx, "friendships", remote.Record{
		"id":         newID(),
		"user_id":    userID,
		"friend_id":  friendID,
		"status":     string(types.FriendshipPending),
		"pair_key":   pairKey(userID, friendID),
		"created_at": ts,
		"updated_at": ts,
	})
	if remote.IsUniqueViolation(err) {
		// A concurrent request for the same pair won the insert.
		existing, lookupErr := s.Relationship(ctx, userID, friendID)
		if lookupErr != nil {
			return nil, lookupErr
		}
		if existing == nil {
			return nil, fmt.Errorf("failed to send friend request: %w", err)
		}
		return s.resolveExisting(ctx, userID, existing)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to send friend request: %w", err)
	}

	s.cache.Apply(cache.MutSendFriendRequest)
	metrics.FriendshipTransitions.WithLabelValues("request").Inc()

	return remote.DecodeOne[types.Friendship](row)
}

func (s *FriendService) resolveExisting(ctx context.Context, userID string, f *types.Friendship) (*types.Friendship, error) {
	switch {
	case f.Status == types.FriendshipAccepted:
		return nil, ErrAlreadyFriends
	case f.UserID == userID:
		return nil, ErrAlreadyRequested
	}

	accepted, err := s.Accept(ctx, userID, f.ID)
	if errors.Is(err, ErrNotFound) {
		// Accepted or withdrawn between the lookup and the update.
		return nil, ErrAlreadyRequested
	}
	if err != nil {
		return nil, err
	}
	metrics.FriendshipTransitions.WithLabelValues("implicit_accept").Inc()
	return accepted, nil
}

// Accept moves a pending request addressed to userID to accepted.
func (s *FriendService) Accept(ctx context.Context, userID, friendshipID string) (*types.Friendship, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}

	rows, err := s.gw.Update(ctx,
		remote.From("friendships").
			Eq("id", friendshipID).
			Eq("friend_id", userID).
			Eq("status", string(types.FriendshipPending)),
		remote.Record{"status": string(types.FriendshipAccepted), "updated_at": now()})
	if err != nil {
		return nil, fmt.Errorf("failed to accept friend request: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}

	s.cache.Apply(cache.MutAcceptFriendRequest)
	metrics.FriendshipTransitions.WithLabelValues("accept").Inc()

	return remote.DecodeOne[types.Friendship](rows[0])
}

// Reject deletes a pending request userID takes part in. Missing rows are
// not an error.
func (s *FriendService) Reject(ctx context.Context, userID, friendshipID string) error {
	if err := s.deleteParticipating(ctx, userID, friendshipID, types.FriendshipPending); err != nil {
		return fmt.Errorf("failed to reject friend request: %w", err)
	}
	s.cache.Apply(cache.MutRejectFriendRequest)
	metrics.FriendshipTransitions.WithLabelValues("reject").Inc()
	return nil
}

// Remove ends an accepted friendship. Missing rows are not an error.
func (s *FriendService) Remove(ctx context.Context, userID, friendshipID string) error {
	if err := s.deleteParticipating(ctx, userID, friendshipID, types.FriendshipAccepted); err != nil {
		return fmt.Errorf("failed to remove friend: %w", err)
	}
	s.cache.Apply(cache.MutRemoveFriend)
	metrics.FriendshipTransitions.WithLabelValues("remove").Inc()
	return nil
}

func (s *FriendService) deleteParticipating(ctx context.Context, userID, friendshipID string, status types.FriendshipStatus) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	_, err := s.gw.Delete(ctx,
		remote.From("friendships").
			Eq("id", friendshipID).
			Eq("status", string(status)).
			Or(remote.All(remote.Eq("user_id", userID)), remote.All(remote.Eq("friend_id", userID))))
	return err
}

// Friends lists accepted friendships with the other party's profile.
func (s *FriendService) Friends(ctx context.Context, userID string) ([]types.Friend, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	return cache.FetchSlice(ctx, s.cache, cache.NewKey(cache.ClassFriends, userID), func(ctx context.Context) ([]types.Friend, error) {
		rows, err := remote.SelectAll[types.Friendship](ctx, s.gw,
			remote.From("friendships").
				Eq("status", string(types.FriendshipAccepted)).
				Or(remote.All(remote.Eq("user_id", userID)), remote.All(remote.Eq("friend_id", userID))).
				Order("created_at", true))
		if err != nil {
			return nil, fmt.Errorf("failed to load friends: %w", err)
		}

		ids := make([]string, len(rows))
		for i, f := range rows {
			ids[i] = f.OtherParty(userID)
		}
		profiles, err := s.profiles.Summaries(ctx, ids)
		if err != nil {
			return nil, err
		}

		friends := make([]types.Friend, len(rows))
		for i, f := range rows {
			friends[i] = types.Friend{Friendship: f, Profile: profiles[ids[i]]}
		}
		return friends, nil
	})
}

// IncomingRequests lists pending requests addressed to userID with the
// requester's profile.
func (s *FriendService) IncomingRequests(ctx context.Context, userID string) ([]types.FriendRequest, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	return cache.FetchSlice(ctx, s.cache, cache.NewKey(cache.ClassIncomingRequests, userID), func(ctx context.Context) ([]types.FriendRequest, error) {
		return s.pending(ctx, userID, "friend_id", func(f types.Friendship) string { return f.UserID })
	})
}

// OutgoingRequests lists pending requests sent by userID with the
// recipient's profile.
func (s *FriendService) OutgoingRequests(ctx context.Context, userID string) ([]types.FriendRequest, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	return cache.FetchSlice(ctx, s.cache, cache.NewKey(cache.ClassOutgoingRequests, userID), func(ctx context.Context) ([]types.FriendRequest, error) {
		return s.pending(ctx, userID, "user_id", func(f types.Friendship) string { return f.FriendID })
	})
}

func (s *FriendService) pending(ctx context.Context, userID, column string, counterpart func(types.Friendship) string) ([]types.FriendRequest, error) {
	rows, err := remote.SelectAll[types.Friendship](ctx, s.gw,
		remote.From("friendships").
			Eq(column, userID).
			Eq("status", string(types.FriendshipPending)).
			Order("created_at", true))
	if err != nil {
		return nil, fmt.Errorf("failed to load friend requests: %w", err)
	}

	ids := make([]string, len(rows))
	for i, f := range rows {
		ids[i] = counterpart(f)
	}
	profiles, err := s.profiles.Summaries(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]types.FriendRequest, len(rows))
	for i, f := range rows {
		out[i] = types.FriendRequest{Friendship: f, Profile: profiles[ids[i]]}
	}
	return out, nil
}

// SearchUsers matches usernames and labels each hit against the caller's
// friends and outgoing requests. Bursts of calls from one user are
// debounced; superseded calls return debounce.ErrSuperseded.
func (s *FriendService) SearchUsers(ctx context.Context, userID, query string) ([]types.UserSearchResult, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	query = strings.TrimSpace(query)
	if len([]rune(query)) < minSearchLength {
		return []types.UserSearchResult{}, nil
	}

	if err := s.debouncer.Wait(ctx, userID); err != nil {
		return nil, err
	}

	hits, err := cache.FetchSlice(ctx, s.cache, cache.NewKey(cache.ClassUserSearch, userID, strings.ToLower(query)), func(ctx context.Context) ([]types.ProfileSummary, error) {
		return s.profiles.search(ctx, userID, query, maxSearchResult)
	})
	if err != nil {
		return nil, err
	}

	friends, err := s.Friends(ctx, userID)
	if err != nil {
		return nil, err
	}
	outgoing, err := s.OutgoingRequests(ctx, userID)
	if err != nil {
		return nil, err
	}

	relation := make(map[string]types.Relation, len(friends)+len(outgoing))
	for _, r := range outgoing {
		relation[r.FriendID] = types.RelationRequestSent
	}
	for _, f := range friends {
		relation[f.Profile.ID] = types.RelationFriend
	}

	out := make([]types.UserSearchResult, 0, len(hits))
	for _, h := range hits {
		rel, ok := relation[h.ID]
		if !ok {
			rel = types.RelationEligible
		}
		out = append(out, types.UserSearchResult{ProfileSummary: h, Relation: rel})
	}
	return out, nil
}

// CanView reports whether viewerID may see userID's profile data: the user
// themself or an accepted friend.
func (s *FriendService) CanView(ctx context.Context, viewerID, userID string) error {
	if err := requireUser(viewerID); err != nil {
		return err
	}
	if viewerID == userID {
		return nil
	}
	f, err := s.Relationship(ctx, viewerID, userID)
	if err != nil {
		return err
	}
	if f == nil || f.Status != types.FriendshipAccepted {
		return ErrForbidden
	}
	return nil
}
