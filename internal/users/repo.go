package users

import "context"

var ErrNotFound = errNotFound{}

type errNotFound struct{}

func (errNotFound) Error() string { return "user not found" }

// Repo is the durable keyed table holding credential records. Create is
// insert-only and returns ErrDuplicateUsername when the key is taken; Put
// upserts and is used for second-factor state changes on existing accounts.
type Repo interface {
	Get(ctx context.Context, username string) (User, error)
	Create(ctx context.Context, user User) error
	Put(ctx context.Context, user User) error
	Exists(ctx context.Context, username string) (bool, error)
}
