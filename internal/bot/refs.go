package bot

import (
	"context"
	"errors"
	"hash/fnv"
	"sync"

	"github.com/issuebot/internal/store"
)

// PreviousIssueRef is the sentinel argument meaning "reuse the last issue
// referenced in this conversation context".
const PreviousIssueRef = "."

// ErrNoPriorReference is returned when "." is used in a context that has no
// bound issue yet.
var ErrNoPriorReference = errors.New("no previous issue found")

const refLockShards = 64

// RefResolver turns a raw issue argument into a concrete issue key,
// consulting and updating the per-context binding. Every literal reference
// becomes the new current issue for its context, including read-only
// lookups; "." reads the binding without rewriting it.
type RefResolver struct {
	contexts store.ContextStore
	locks    [refLockShards]sync.Mutex
}

// NewRefResolver creates a resolver over the given context store.
func NewRefResolver(contexts store.ContextStore) *RefResolver {
	return &RefResolver{contexts: contexts}
}

// Resolve maps raw to an issue key for the given context. The get/set pair
// for one context is serialized under a striped lock so concurrent commands
// for the same context never interleave their binding updates; distinct
// contexts (in different shards) never contend.
func (r *RefResolver) Resolve(ctx context.Context, contextKey, raw string) (string, error) {
	lock := &r.locks[shardFor(contextKey)]
	lock.Lock()
	defer lock.Unlock()

	if raw != PreviousIssueRef {
		if err := r.contexts.Set(ctx, contextKey, raw); err != nil {
			return "", err
		}
		return raw, nil
	}

	key, err := r.contexts.Get(ctx, contextKey)
	if err != nil {
		return "", err
	}
	if key == "" {
		return "", ErrNoPriorReference
	}
	return key, nil
}

func shardFor(contextKey string) int {
	h := fnv.New32a()
	h.Write([]byte(contextKey))
	return int(h.Sum32() % refLockShards)
}
