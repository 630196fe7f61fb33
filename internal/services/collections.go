package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"popstack/internal/cache"
	"popstack/internal/remote"
	"popstack/internal/types"
)

type CollectionService struct {
	gw      remote.Gateway
	cache   *cache.Cache
	friends *FriendService
	logger  zerolog.Logger
}

func NewCollectionService(gw remote.Gateway, c *cache.Cache, friends *FriendService, logger zerolog.Logger) *CollectionService {
	return &CollectionService{gw: gw, cache: c, friends: friends, logger: logger}
}

// List returns userID's collections, newest first, with item counts.
func (s *CollectionService) List(ctx context.Context, userID string) ([]types.Collection, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	return cache.FetchSlice(ctx, s.cache, cache.NewKey(cache.ClassCollections, userID, "list"), func(ctx context.Context) ([]types.Collection, error) {
		return s.withCounts(ctx, remote.From("collections").Eq("user_id", userID).Order("created_at", true))
	})
}

// ListPublic returns ownerID's public collections as seen by a friend.
func (s *CollectionService) ListPublic(ctx context.Context, viewerID, ownerID string) ([]types.Collection, error) {
	if viewerID == ownerID {
		return s.List(ctx, viewerID)
	}
	if err := s.friends.CanView(ctx, viewerID, ownerID); err != nil {
		return nil, err
	}
	return cache.FetchSlice(ctx, s.cache, cache.NewKey(cache.ClassCollections, ownerID, "public"), func(ctx context.Context) ([]types.Collection, error) {
		return s.withCounts(ctx, remote.From("collections").
			Eq("user_id", ownerID).
			Eq("is_public", true).
			Order("created_at", true))
	})
}

func (s *CollectionService) withCounts(ctx context.Context, q *remote.Query) ([]types.Collection, error) {
	collections, err := remote.SelectAll[types.Collection](ctx, s.gw, q)
	if err != nil {
		return nil, fmt.Errorf("failed to load collections: %w", err)
	}
	if len(collections) == 0 {
		return collections, nil
	}

	ids := make([]string, len(collections))
	for i, c := range collections {
		ids[i] = c.ID
	}
	rows, err := s.gw.Select(ctx, remote.From("collection_items").
		Select("collection_id").
		Filter(remote.In("collection_id", ids)))
	if err != nil {
		return nil, fmt.Errorf("failed to count collection items: %w", err)
	}
	counts := make(map[string]int, len(collections))
	for _, row := range rows {
		counts[row.String("collection_id")]++
	}
	for i := range collections {
		collections[i].ItemsCount = counts[collections[i].ID]
	}
	return collections, nil
}

// Get returns one collection with its items in the order they were added.
// Private collections are visible to their owner only.
func (s *CollectionService) Get(ctx context.Context, viewerID, id string) (*types.Collection, error) {
	if err := requireUser(viewerID); err != nil {
		return nil, err
	}
	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.UserID != viewerID {
		if !c.IsPublic {
			return nil, ErrForbidden
		}
		if err := s.friends.CanView(ctx, viewerID, c.UserID); err != nil {
			return nil, err
		}
	}

	items, err := cache.FetchSlice(ctx, s.cache, cache.NewKey(cache.ClassCollections, c.UserID, "items", id), func(ctx context.Context) ([]types.CollectionItem, error) {
		items, err := remote.SelectAll[types.CollectionItem](ctx, s.gw,
			remote.From("collection_items").Eq("collection_id", id).Order("added_at", false))
		if err != nil {
			return nil, fmt.Errorf("failed to load collection items: %w", err)
		}
		return items, nil
	})
	if err != nil {
		return nil, err
	}
	c.Items = items
	c.ItemsCount = len(items)
	return c, nil
}

func (s *CollectionService) load(ctx context.Context, id string) (*types.Collection, error) {
	c, err := remote.MaybeSingle[types.Collection](ctx, s.gw, remote.From("collections").Eq("id", id))
	if err != nil {
		return nil, fmt.Errorf("failed to load collection: %w", err)
	}
	if c == nil {
		return nil, ErrNotFound
	}
	return c, nil
}

// owned loads a collection and checks that userID owns it.
func (s *CollectionService) owned(ctx context.Context, userID, id string) (*types.Collection, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	c, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if c.UserID != userID {
		return nil, ErrForbidden
	}
	return c, nil
}

func (s *CollectionService) Create(ctx context.Context, userID string, req types.CreateCollectionRequest) (*types.Collection, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, invalid("name is required")
	}

	ts := now()
	row, err := s.gw.Insert(ctx, "collections", remote.Record{
		"id":          newID(),
		"user_id":     userID,
		"name":        name,
		"description": nullable(req.Description),
		"is_public":   req.IsPublic,
		"created_at":  ts,
		"updated_at":  ts,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create collection: %w", err)
	}
	s.cache.Apply(cache.MutChangeCollection)
	return remote.DecodeOne[types.Collection](row)
}

// Update replaces the name, description and visibility of a collection.
func (s *CollectionService) Update(ctx context.Context, userID, id string, req types.UpdateCollectionRequest) (*types.Collection, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, invalid("name is required")
	}

	rows, err := s.gw.Update(ctx, remote.From("collections").Eq("id", id).Eq("user_id", userID), remote.Record{
		"name":        name,
		"description": nullable(req.Description),
		"is_public":   req.IsPublic,
		"updated_at":  now(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update collection: %w", err)
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	s.cache.Apply(cache.MutChangeCollection)
	return remote.DecodeOne[types.Collection](rows[0])
}

// Delete removes a collection; its items go with it. Missing collections
// are not an error.
func (s *CollectionService) Delete(ctx context.Context, userID, id string) error {
	if err := requireUser(userID); err != nil {
		return err
	}
	if _, err := s.gw.Delete(ctx, remote.From("collections").Eq("id", id).Eq("user_id", userID)); err != nil {
		return fmt.Errorf("failed to delete collection: %w", err)
	}
	s.cache.Apply(cache.MutChangeCollection)
	return nil
}

// AddItem puts a catalog item into a collection. Adding it twice keeps one
// row.
func (s *CollectionService) AddItem(ctx context.Context, userID, collectionID string, req types.AddCollectionItemRequest) (*types.CollectionItem, error) {
	if !req.Kind.Valid() {
		return nil, invalid("unknown media kind %q", req.Kind)
	}
	if req.MediaID <= 0 {
		return nil, invalid("media id must be positive")
	}
	if req.Title == "" {
		return nil, invalid("title is required")
	}
	if _, err := s.owned(ctx, userID, collectionID); err != nil {
		return nil, err
	}

	row, err := s.gw.Upsert(ctx, "collection_items", remote.Record{
		"id":            newID(),
		"collection_id": collectionID,
		"item_type":     string(req.Kind),
		"item_id":       req.MediaID,
		"item_title":    req.Title,
		"item_poster":   nullable(req.Poster),
		"added_at":      now(),
	}, "collection_id", "item_type", "item_id")
	if err != nil {
		return nil, fmt.Errorf("failed to add collection item: %w", err)
	}
	s.cache.Apply(cache.MutChangeCollection)
	return remote.DecodeOne[types.CollectionItem](row)
}

// RemoveItem deletes one item row from a collection owned by userID.
func (s *CollectionService) RemoveItem(ctx context.Context, userID, collectionID, itemID string) error {
	if _, err := s.owned(ctx, userID, collectionID); err != nil {
		return err
	}
	if _, err := s.gw.Delete(ctx, remote.From("collection_items").
		Eq("id", itemID).
		Eq("collection_id", collectionID)); err != nil {
		return fmt.Errorf("failed to remove collection item: %w", err)
	}
	s.cache.Apply(cache.MutChangeCollection)
	return nil
}

// Containing lists userID's collections that hold the given item.
func (s *CollectionService) Containing(ctx context.Context, userID string, kind types.MediaKind, mediaID int) ([]types.CollectionRef, error) {
	if err := requireUser(userID); err != nil {
		return nil, err
	}
	return cache.FetchSlice(ctx, s.cache, cache.NewKey(cache.ClassCollections, userID, "containing", kind, mediaID), func(ctx context.Context) ([]types.CollectionRef, error) {
		own, err := s.List(ctx, userID)
		if err != nil {
			return nil, err
		}
		if len(own) == 0 {
			return []types.CollectionRef{}, nil
		}
		names := make(map[string]string, len(own))
		ids := make([]string, len(own))
		for i, c := range own {
			ids[i] = c.ID
			names[c.ID] = c.Name
		}

		rows, err := s.gw.Select(ctx, remote.From("collection_items").
			Select("collection_id").
			Eq("item_type", string(kind)).
			Eq("item_id", mediaID).
			Filter(remote.In("collection_id", ids)))
		if err != nil {
			return nil, fmt.Errorf("failed to look up collection items: %w", err)
		}
		refs := make([]types.CollectionRef, 0, len(rows))
		for _, row := range rows {
			id := row.String("collection_id")
			refs = append(refs, types.CollectionRef{CollectionID: id, Name: names[id]})
		}
		return refs, nil
	})
}
