package store

import (
	"context"
	"path/filepath"
	"time"

	"github.com/rs/xid"

	"github.com/lifelog/apiserver/types"
)

// EntryRepository handles persistence for entries in entries.json.
// Entries are append-only apart from deletion; deletion preserves the
// relative order of the remaining records.
type EntryRepository struct {
	doc *Document[[]types.Entry]
}

func NewEntryRepository(dataDir string) *EntryRepository {
	path := filepath.Join(dataDir, "entries.json")
	return &EntryRepository{
		doc: NewDocument(path, func() []types.Entry { return []types.Entry{} }),
	}
}

func (r *EntryRepository) List(ctx context.Context) ([]types.Entry, error) {
	return r.doc.Read(ctx)
}

func (r *EntryRepository) ListByUser(ctx context.Context, userID string) ([]types.Entry, error) {
	entries, err := r.doc.Read(ctx)
	if err != nil {
		return nil, err
	}
	owned := make([]types.Entry, 0, len(entries))
	for _, entry := range entries {
		if entry.UserID == userID {
			owned = append(owned, entry)
		}
	}
	return owned, nil
}

func (r *EntryRepository) Get(ctx context.Context, id string) (types.Entry, error) {
	entries, err := r.doc.Read(ctx)
	if err != nil {
		return types.Entry{}, err
	}
	for _, entry := range entries {
		if entry.ID == id {
			return entry, nil
		}
	}
	return types.Entry{}, ErrNotFound
}

func (r *EntryRepository) Create(ctx context.Context, entry types.Entry) (types.Entry, error) {
	entry.ID = xid.New().String()
	entry.Timestamp = time.Now().UTC()

	err := r.doc.Update(ctx, func(entries []types.Entry) ([]types.Entry, error) {
		return append(entries, entry), nil
	})
	if err != nil {
		return types.Entry{}, err
	}
	return entry, nil
}

func (r *EntryRepository) Delete(ctx context.Context, id string) error {
	return r.doc.Update(ctx, func(entries []types.Entry) ([]types.Entry, error) {
		for i := range entries {
			if entries[i].ID == id {
				return append(entries[:i], entries[i+1:]...), nil
			}
		}
		return nil, ErrNotFound
	})
}
