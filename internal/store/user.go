package store

import (
	"context"
	"path/filepath"
	"time"

	"github.com/rs/xid"

	"github.com/lifelog/apiserver/types"
)

// userRecord is the persisted shape of a user. types.User hides the
// password hash from JSON; the store keeps it under an explicit key.
type userRecord struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Role         string    `json:"role"`
	PasswordHash string    `json:"passwordHash"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (r userRecord) toUser() types.User {
	return types.User{
		ID:           r.ID,
		Username:     r.Username,
		Role:         r.Role,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
	}
}

// UserRepository handles persistence for users in users.json.
type UserRepository struct {
	doc *Document[[]userRecord]
}

func NewUserRepository(dataDir string) *UserRepository {
	path := filepath.Join(dataDir, "users.json")
	return &UserRepository{
		doc: NewDocument(path, func() []userRecord { return []userRecord{} }),
	}
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (types.User, error) {
	records, err := r.doc.Read(ctx)
	if err != nil {
		return types.User{}, err
	}
	for _, record := range records {
		if record.ID == id {
			return record.toUser(), nil
		}
	}
	return types.User{}, ErrNotFound
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (types.User, error) {
	records, err := r.doc.Read(ctx)
	if err != nil {
		return types.User{}, err
	}
	for _, record := range records {
		if record.Username == username {
			return record.toUser(), nil
		}
	}
	return types.User{}, ErrNotFound
}

func (r *UserRepository) Create(ctx context.Context, user types.User) (types.User, error) {
	user.ID = xid.New().String()
	user.CreatedAt = time.Now().UTC()

	err := r.doc.Update(ctx, func(records []userRecord) ([]userRecord, error) {
		return append(records, userRecord{
			ID:           user.ID,
			Username:     user.Username,
			Role:         user.Role,
			PasswordHash: user.PasswordHash,
			CreatedAt:    user.CreatedAt,
		}), nil
	})
	if err != nil {
		return types.User{}, err
	}
	return user, nil
}

// Count returns the number of stored users. A zero count marks first boot.
func (r *UserRepository) Count(ctx context.Context) (int, error) {
	records, err := r.doc.Read(ctx)
	if err != nil {
		return 0, err
	}
	return len(records), nil
}
