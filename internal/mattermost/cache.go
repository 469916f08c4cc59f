package mattermost

import "sync"

// userCache holds every user resolved during one export run, keyed by id.
// Entries are never evicted; staleness within a single run is acceptable.
// Safe for concurrent population (first insert wins).
type userCache struct {
	mu    sync.RWMutex
	users map[string]User
}

func newUserCache() *userCache {
	return &userCache{users: make(map[string]User)}
}

func (c *userCache) get(id string) (User, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	u, ok := c.users[id]
	return u, ok
}

// put stores the user unless an entry already exists.
func (c *userCache) put(u User) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.users[u.ID]; !ok {
		c.users[u.ID] = u
	}
}

// size returns the number of cached users.
func (c *userCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.users)
}
