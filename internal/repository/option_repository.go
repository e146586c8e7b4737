package repository

import "context"

// OptionRepository is a string key-value configuration store.
type OptionRepository interface {
	// Get returns the stored value and whether the key exists.
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
}
