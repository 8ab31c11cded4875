package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/lifelog/apiserver/types"
)

// CategoryRepository defines persistence operations for the taxonomy tree.
type CategoryRepository interface {
	List(ctx context.Context) ([]types.Category, error)
	Get(ctx context.Context, id string) (types.Category, error)
	CreateCategory(ctx context.Context, category types.Category) (types.Category, error)
	UpdateCategory(ctx context.Context, id string, patch types.CategoryPatch) (types.Category, error)
	DeleteCategory(ctx context.Context, id string) error
	CreateItem(ctx context.Context, categoryID string, item types.Item) (types.Item, error)
	UpdateItem(ctx context.Context, categoryID, itemID string, patch types.ItemPatch) (types.Item, error)
	DeleteItem(ctx context.Context, categoryID, itemID string) error
	CreateSubItem(ctx context.Context, categoryID, itemID string, sub types.SubItem) (types.SubItem, error)
	UpdateSubItem(ctx context.Context, categoryID, itemID, subID string, patch types.SubItemPatch) (types.SubItem, error)
	DeleteSubItem(ctx context.Context, categoryID, itemID, subID string) error
}

// TaxonomyService encapsulates taxonomy use-cases. Role enforcement for
// mutations happens at the HTTP layer; the service owns validation and
// defaulting.
type TaxonomyService struct {
	repo   CategoryRepository
	events Events
}

func NewTaxonomyService(repo CategoryRepository, events Events) *TaxonomyService {
	if events == nil {
		events = NoopEvents{}
	}
	return &TaxonomyService{repo: repo, events: events}
}

func (s *TaxonomyService) List(ctx context.Context) ([]types.Category, error) {
	return s.repo.List(ctx)
}

func (s *TaxonomyService) Get(ctx context.Context, id string) (types.Category, error) {
	return s.repo.Get(ctx, id)
}

func (s *TaxonomyService) CreateCategory(ctx context.Context, name string, categoryType types.CategoryType) (types.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return types.Category{}, fmt.Errorf("%w: category name is required", ErrInvalid)
	}
	if !categoryType.Valid() {
		return types.Category{}, fmt.Errorf("%w: unknown category type %q", ErrInvalid, categoryType)
	}

	category, err := s.repo.CreateCategory(ctx, types.Category{
		Name:         name,
		CategoryType: categoryType,
	})
	if err != nil {
		return types.Category{}, err
	}
	s.events.Publish(ctx, EventTaxonomyChanged, taxonomyEvent{Action: "create", Kind: "category", ID: category.ID})
	return category, nil
}

func (s *TaxonomyService) UpdateCategory(ctx context.Context, id string, patch types.CategoryPatch) (types.Category, error) {
	if patch.CategoryType != nil && !patch.CategoryType.Valid() {
		return types.Category{}, fmt.Errorf("%w: unknown category type %q", ErrInvalid, *patch.CategoryType)
	}
	category, err := s.repo.UpdateCategory(ctx, id, patch)
	if err != nil {
		return types.Category{}, err
	}
	s.events.Publish(ctx, EventTaxonomyChanged, taxonomyEvent{Action: "update", Kind: "category", ID: id})
	return category, nil
}

func (s *TaxonomyService) DeleteCategory(ctx context.Context, id string) error {
	if err := s.repo.DeleteCategory(ctx, id); err != nil {
		return err
	}
	s.events.Publish(ctx, EventTaxonomyChanged, taxonomyEvent{Action: "delete", Kind: "category", ID: id})
	return nil
}

// CreateItem creates an item under a category. When no scale type is
// supplied it follows the category type: weight for food categories,
// rating otherwise.
func (s *TaxonomyService) CreateItem(ctx context.Context, categoryID, name string, scaleType *types.ScaleType) (types.Item, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return types.Item{}, fmt.Errorf("%w: item name is required", ErrInvalid)
	}

	category, err := s.repo.Get(ctx, categoryID)
	if err != nil {
		return types.Item{}, err
	}

	scale := category.CategoryType.DefaultScaleType()
	if scaleType != nil {
		if !scaleType.Valid() {
			return types.Item{}, fmt.Errorf("%w: unknown scale type %q", ErrInvalid, *scaleType)
		}
		scale = *scaleType
	}

	item, err := s.repo.CreateItem(ctx, categoryID, types.Item{
		Name:      name,
		ScaleType: scale,
	})
	if err != nil {
		return types.Item{}, err
	}
	s.events.Publish(ctx, EventTaxonomyChanged, taxonomyEvent{Action: "create", Kind: "item", ID: item.ID})
	return item, nil
}

func (s *TaxonomyService) UpdateItem(ctx context.Context, categoryID, itemID string, patch types.ItemPatch) (types.Item, error) {
	if patch.ScaleType != nil && !patch.ScaleType.Valid() {
		return types.Item{}, fmt.Errorf("%w: unknown scale type %q", ErrInvalid, *patch.ScaleType)
	}
	item, err := s.repo.UpdateItem(ctx, categoryID, itemID, patch)
	if err != nil {
		return types.Item{}, err
	}
	s.events.Publish(ctx, EventTaxonomyChanged, taxonomyEvent{Action: "update", Kind: "item", ID: itemID})
	return item, nil
}

func (s *TaxonomyService) DeleteItem(ctx context.Context, categoryID, itemID string) error {
	if err := s.repo.DeleteItem(ctx, categoryID, itemID); err != nil {
		return err
	}
	s.events.Publish(ctx, EventTaxonomyChanged, taxonomyEvent{Action: "delete", Kind: "item", ID: itemID})
	return nil
}

func (s *TaxonomyService) CreateSubItem(ctx context.Context, categoryID, itemID, name string) (types.SubItem, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return types.SubItem{}, fmt.Errorf("%w: sub-item name is required", ErrInvalid)
	}

	sub, err := s.repo.CreateSubItem(ctx, categoryID, itemID, types.SubItem{Name: name})
	if err != nil {
		return types.SubItem{}, err
	}
	s.events.Publish(ctx, EventTaxonomyChanged, taxonomyEvent{Action: "create", Kind: "subitem", ID: sub.ID})
	return sub, nil
}

func (s *TaxonomyService) UpdateSubItem(ctx context.Context, categoryID, itemID, subID string, patch types.SubItemPatch) (types.SubItem, error) {
	sub, err := s.repo.UpdateSubItem(ctx, categoryID, itemID, subID, patch)
	if err != nil {
		return types.SubItem{}, err
	}
	s.events.Publish(ctx, EventTaxonomyChanged, taxonomyEvent{Action: "update", Kind: "subitem", ID: subID})
	return sub, nil
}

func (s *TaxonomyService) DeleteSubItem(ctx context.Context, categoryID, itemID, subID string) error {
	if err := s.repo.DeleteSubItem(ctx, categoryID, itemID, subID); err != nil {
		return err
	}
	s.events.Publish(ctx, EventTaxonomyChanged, taxonomyEvent{Action: "delete", Kind: "subitem", ID: subID})
	return nil
}

type taxonomyEvent struct {
	Action string `json:"action"`
	Kind   string `json:"kind"`
	ID     string `json:"id"`
}
