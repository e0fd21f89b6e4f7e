package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/cerberus/pkg/domain/model"
	"github.com/secmon-lab/cerberus/pkg/domain/types"
)

type userRepository struct {
	mu    sync.RWMutex
	users map[string]*model.User
}

func newUserRepository() *userRepository {
	return &userRepository{
		users: make(map[string]*model.User),
	}
}

func copyUser(u *model.User) *model.User {
	copied := &model.User{
		ID:   u.ID,
		Name: u.Name,
	}
	if u.Roles != nil {
		copied.Roles = append([]string{}, u.Roles...)
	}
	if u.Departments != nil {
		copied.Departments = append([]string{}, u.Departments...)
	}
	if u.AccessTags != nil {
		copied.AccessTags = make(types.TagSet, len(u.AccessTags))
		copy(copied.AccessTags, u.AccessTags)
	}
	return copied
}

func (r *userRepository) Put(ctx context.Context, user *model.User) error {
	if err := user.Validate(); err != nil {
		return goerr.Wrap(err, "invalid user")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.users[user.ID] = copyUser(user)
	return nil
}

func (r *userRepository) Get(ctx context.Context, id string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	user, exists := r.users[id]
	if !exists {
		return nil, goerr.Wrap(ErrNotFound, "user not found", goerr.V("id", id))
	}

	return copyUser(user), nil
}

func (r *userRepository) List(ctx context.Context) ([]*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*model.User, 0, len(r.users))
	for _, u := range r.users {
		result = append(result, copyUser(u))
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	return result, nil
}
