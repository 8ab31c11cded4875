package store

import (
	"context"
	"path/filepath"

	"github.com/rs/xid"

	"github.com/lifelog/apiserver/types"
)

// CategoryRepository handles persistence for the taxonomy tree in
// categories.json. Every mutation is a read-modify-write of the whole
// document under the document lock; a failed lookup returns ErrNotFound
// without writing.
type CategoryRepository struct {
	doc *Document[[]types.Category]
}

func NewCategoryRepository(dataDir string) *CategoryRepository {
	path := filepath.Join(dataDir, "categories.json")
	return &CategoryRepository{
		doc: NewDocument(path, func() []types.Category { return []types.Category{} }),
	}
}

func (r *CategoryRepository) List(ctx context.Context) ([]types.Category, error) {
	return r.doc.Read(ctx)
}

func (r *CategoryRepository) Get(ctx context.Context, id string) (types.Category, error) {
	categories, err := r.doc.Read(ctx)
	if err != nil {
		return types.Category{}, err
	}
	for _, category := range categories {
		if category.ID == id {
			return category, nil
		}
	}
	return types.Category{}, ErrNotFound
}

func (r *CategoryRepository) CreateCategory(ctx context.Context, category types.Category) (types.Category, error) {
	category.ID = xid.New().String()
	if category.Items == nil {
		category.Items = []types.Item{}
	}

	err := r.doc.Update(ctx, func(categories []types.Category) ([]types.Category, error) {
		return append(categories, category), nil
	})
	if err != nil {
		return types.Category{}, err
	}
	return category, nil
}

func (r *CategoryRepository) UpdateCategory(ctx context.Context, id string, patch types.CategoryPatch) (types.Category, error) {
	var updated types.Category
	err := r.doc.Update(ctx, func(categories []types.Category) ([]types.Category, error) {
		for i := range categories {
			if categories[i].ID != id {
				continue
			}
			if patch.Name != nil {
				categories[i].Name = *patch.Name
			}
			if patch.CategoryType != nil {
				categories[i].CategoryType = *patch.CategoryType
			}
			updated = categories[i]
			return categories, nil
		}
		return nil, ErrNotFound
	})
	if err != nil {
		return types.Category{}, err
	}
	return updated, nil
}

// DeleteCategory removes the category and its entire subtree. Entries
// referencing the removed nodes are left untouched.
func (r *CategoryRepository) DeleteCategory(ctx context.Context, id string) error {
	return r.doc.Update(ctx, func(categories []types.Category) ([]types.Category, error) {
		for i := range categories {
			if categories[i].ID == id {
				return append(categories[:i], categories[i+1:]...), nil
			}
		}
		return nil, ErrNotFound
	})
}

func (r *CategoryRepository) CreateItem(ctx context.Context, categoryID string, item types.Item) (types.Item, error) {
	item.ID = xid.New().String()
	if item.SubItems == nil {
		item.SubItems = []types.SubItem{}
	}

	err := r.doc.Update(ctx, func(categories []types.Category) ([]types.Category, error) {
		for i := range categories {
			if categories[i].ID == categoryID {
				categories[i].Items = append(categories[i].Items, item)
				return categories, nil
			}
		}
		return nil, ErrNotFound
	})
	if err != nil {
		return types.Item{}, err
	}
	return item, nil
}

func (r *CategoryRepository) UpdateItem(ctx context.Context, categoryID, itemID string, patch types.ItemPatch) (types.Item, error) {
	var updated types.Item
	err := r.doc.Update(ctx, func(categories []types.Category) ([]types.Category, error) {
		items, err := itemsOf(categories, categoryID)
		if err != nil {
			return nil, err
		}
		for i := range items {
			if items[i].ID != itemID {
				continue
			}
			if patch.Name != nil {
				items[i].Name = *patch.Name
			}
			if patch.ScaleType != nil {
				items[i].ScaleType = *patch.ScaleType
			}
			updated = items[i]
			return categories, nil
		}
		return nil, ErrNotFound
	})
	if err != nil {
		return types.Item{}, err
	}
	return updated, nil
}

func (r *CategoryRepository) DeleteItem(ctx context.Context, categoryID, itemID string) error {
	return r.doc.Update(ctx, func(categories []types.Category) ([]types.Category, error) {
		for c := range categories {
			if categories[c].ID != categoryID {
				continue
			}
			items := categories[c].Items
			for i := range items {
				if items[i].ID == itemID {
					categories[c].Items = append(items[:i], items[i+1:]...)
					return categories, nil
				}
			}
		}
		return nil, ErrNotFound
	})
}

func (r *CategoryRepository) CreateSubItem(ctx context.Context, categoryID, itemID string, sub types.SubItem) (types.SubItem, error) {
	sub.ID = xid.New().String()

	err := r.doc.Update(ctx, func(categories []types.Category) ([]types.Category, error) {
		items, err := itemsOf(categories, categoryID)
		if err != nil {
			return nil, err
		}
		for i := range items {
			if items[i].ID == itemID {
				items[i].SubItems = append(items[i].SubItems, sub)
				return categories, nil
			}
		}
		return nil, ErrNotFound
	})
	if err != nil {
		return types.SubItem{}, err
	}
	return sub, nil
}

func (r *CategoryRepository) UpdateSubItem(ctx context.Context, categoryID, itemID, subID string, patch types.SubItemPatch) (types.SubItem, error) {
	var updated types.SubItem
	err := r.doc.Update(ctx, func(categories []types.Category) ([]types.Category, error) {
		subs, err := subItemsOf(categories, categoryID, itemID)
		if err != nil {
			return nil, err
		}
		for i := range subs {
			if subs[i].ID != subID {
				continue
			}
			if patch.Name != nil {
				subs[i].Name = *patch.Name
			}
			updated = subs[i]
			return categories, nil
		}
		return nil, ErrNotFound
	})
	if err != nil {
		return types.SubItem{}, err
	}
	return updated, nil
}

func (r *CategoryRepository) DeleteSubItem(ctx context.Context, categoryID, itemID, subID string) error {
	return r.doc.Update(ctx, func(categories []types.Category) ([]types.Category, error) {
		subs, err := subItemsOf(categories, categoryID, itemID)
		if err != nil {
			return nil, err
		}
		for i := range subs {
			if subs[i].ID == subID {
				trimmed := append(subs[:i], subs[i+1:]...)
				setSubItems(categories, categoryID, itemID, trimmed)
				return categories, nil
			}
		}
		return nil, ErrNotFound
	})
}

func itemsOf(categories []types.Category, categoryID string) ([]types.Item, error) {
	for i := range categories {
		if categories[i].ID == categoryID {
			return categories[i].Items, nil
		}
	}
	return nil, ErrNotFound
}

func subItemsOf(categories []types.Category, categoryID, itemID string) ([]types.SubItem, error) {
	items, err := itemsOf(categories, categoryID)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if items[i].ID == itemID {
			return items[i].SubItems, nil
		}
	}
	return nil, ErrNotFound
}

func setSubItems(categories []types.Category, categoryID, itemID string, subs []types.SubItem) {
	for c := range categories {
		if categories[c].ID != categoryID {
			continue
		}
		for i := range categories[c].Items {
			if categories[c].Items[i].ID == itemID {
				categories[c].Items[i].SubItems = subs
				return
			}
		}
	}
}
