package domain

import (
	"fmt"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"

	m "stapper.dev/pkg/stapper/internal/model"
)

// DefaultCacheSize bounds the prototype cache of a run.
const DefaultCacheSize = 1024

// RunContext carries the state shared by the targets of one run. It is
// created per run and discarded with it.
type RunContext struct {
	RunID      string
	prototypes *lru.Cache[string, m.FunctionPrototype]
}

// NewRunContext creates a RunContext with a fresh run id and an empty
// prototype cache holding up to size entries.
func NewRunContext(size int) (*RunContext, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}

	cache, err := lru.New[string, m.FunctionPrototype](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create prototype cache: %w", err)
	}

	return &RunContext{RunID: uuid.NewString(), prototypes: cache}, nil
}

// Prototype returns the cached prototype for a target id.
func (rc *RunContext) Prototype(id string) (m.FunctionPrototype, bool) {
	return rc.prototypes.Get(id)
}

// StorePrototype caches proto under id unless an entry already exists.
// It reports whether proto was stored.
func (rc *RunContext) StorePrototype(id string, proto m.FunctionPrototype) bool {
	exists, _ := rc.prototypes.ContainsOrAdd(id, proto)
	return !exists
}

// CachedPrototypes returns the number of cached prototypes.
func (rc *RunContext) CachedPrototypes() int {
	return rc.prototypes.Len()
}
