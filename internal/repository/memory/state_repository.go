package memory

import (
	"time"

	"github.com/patrickmn/go-cache"
)

// StateRepository holds pending OAuth state tokens. A state is stored when
// the login URL is generated and consumed exactly once on callback; anything
// older than the TTL is a dead handshake.
type StateRepository struct {
	cache *cache.Cache
}

func NewStateRepository() *StateRepository {
	// 10 minute expiration covers the redirect round-trip; expired entries
	// are purged every 5 minutes
	c := cache.New(10*time.Minute, 5*time.Minute)
	return &StateRepository{
		cache: c,
	}
}

func (r *StateRepository) Save(state string) {
	r.cache.Set(state, struct{}{}, cache.DefaultExpiration)
}

// Consume reports whether the state was issued by us and removes it so a
// replayed callback fails.
func (r *StateRepository) Consume(state string) bool {
	if _, found := r.cache.Get(state); found {
		r.cache.Delete(state)
		return true
	}
	return false
}
