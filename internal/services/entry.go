package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/lifelog/apiserver/config"
	"github.com/lifelog/apiserver/internal/store"
	"github.com/lifelog/apiserver/types"
)

// EntryRepository defines persistence operations for entries.
type EntryRepository interface {
	List(ctx context.Context) ([]types.Entry, error)
	ListByUser(ctx context.Context, userID string) ([]types.Entry, error)
	Get(ctx context.Context, id string) (types.Entry, error)
	Create(ctx context.Context, entry types.Entry) (types.Entry, error)
	Delete(ctx context.Context, id string) error
}

// EntryService encapsulates entry use-cases. The read scope is explicit
// configuration: "all" exposes every entry to any authenticated user (the
// historical behavior), "owner" restricts reads to the caller's own.
type EntryService struct {
	repo       EntryRepository
	categories CategoryRepository
	events     Events
	scope      string
}

func NewEntryService(repo EntryRepository, categories CategoryRepository, events Events, scope string) *EntryService {
	if events == nil {
		events = NoopEvents{}
	}
	if scope != config.EntriesScopeOwner {
		scope = config.EntriesScopeAll
	}
	return &EntryService{repo: repo, categories: categories, events: events, scope: scope}
}

func (s *EntryService) List(ctx context.Context, principal types.Principal) ([]types.Entry, error) {
	if s.scope == config.EntriesScopeOwner && !principal.IsAdmin() {
		return s.repo.ListByUser(ctx, principal.ID)
	}
	return s.repo.List(ctx)
}

// Create stamps id, timestamp and owner server-side and appends the entry.
// Measurements are checked against the taxonomy where the referenced node
// resolves; dangling references are tolerated, matching the read side.
func (s *EntryService) Create(ctx context.Context, principal types.Principal, categoryID string, items []types.EntryItem, notes string) (types.Entry, error) {
	if categoryID == "" {
		return types.Entry{}, fmt.Errorf("%w: categoryId is required", ErrInvalid)
	}
	if len(items) == 0 {
		return types.Entry{}, fmt.Errorf("%w: at least one item is required", ErrInvalid)
	}

	category, err := s.categories.Get(ctx, categoryID)
	switch {
	case err == nil:
		for i := range items {
			if err := resolveMeasurement(&items[i], category); err != nil {
				return types.Entry{}, err
			}
		}
	case errors.Is(err, store.ErrNotFound):
		// Tolerated: the category may have been deleted concurrently,
		// and display falls back to raw ids.
	default:
		return types.Entry{}, err
	}

	entry, err := s.repo.Create(ctx, types.Entry{
		UserID:     principal.ID,
		CategoryID: categoryID,
		Items:      items,
		Notes:      notes,
	})
	if err != nil {
		return types.Entry{}, err
	}
	s.events.Publish(ctx, EventEntryCreated, entry)
	return entry, nil
}

// Delete removes an entry. Only the owner or an admin may delete; neither
// failure path writes to the store.
func (s *EntryService) Delete(ctx context.Context, principal types.Principal, id string) error {
	entry, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if entry.UserID != principal.ID && !principal.IsAdmin() {
		return ErrForbidden
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.events.Publish(ctx, EventEntryDeleted, entryDeletedEvent{ID: id, UserID: entry.UserID})
	return nil
}

// resolveMeasurement validates an entry item against the category's
// taxonomy. When the node resolves, the measurement kind must match the
// node's scale (the rating wire field also satisfies an intensity node,
// and is normalized to it) and the value must lie inside the scale domain.
// Unresolvable nodes are accepted as-is.
func resolveMeasurement(item *types.EntryItem, category types.Category) error {
	scale, ok := category.ScaleTypeFor(item.ItemID)
	if !ok {
		return nil
	}

	kind := item.Measure.Kind
	if kind == types.ScaleRating && scale == types.ScaleIntensity {
		kind = types.ScaleIntensity
	}
	if kind != scale {
		return fmt.Errorf("%w: item %s expects a %s measurement", ErrInvalid, item.ItemID, scale)
	}
	if !scale.Domain().Contains(item.Measure.Value) {
		return fmt.Errorf("%w: value %v out of range for %s", ErrInvalid, item.Measure.Value, scale)
	}
	item.Measure.Kind = kind
	return nil
}

type entryDeletedEvent struct {
	ID     string `json:"id"`
	UserID string `json:"userId"`
}
