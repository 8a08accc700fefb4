package store

import "context"

// ContextStore maps a conversation context key to the last issue key
// referenced there. Get on an unknown context returns the empty string; Set
// fully replaces any prior binding. Bindings have no TTL and are never
// evicted, only overwritten.
type ContextStore interface {
	Get(ctx context.Context, contextKey string) (string, error)
	Set(ctx context.Context, contextKey, issueKey string) error
}
