// Package cache keeps local resource proxies alive between tool calls.
package cache

import (
	"context"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"github.com/usestring/rocketchat-mcp/pkg/client"
)

// GroupCache is a thread-safe LRU of Group proxies keyed by room name, so
// an id learned by one call is reused by the next instead of triggering
// another info lookup.
//
// Group is not safe for concurrent use, so the cache hands out copies and
// callers Put the copy back once an operation has taught it something.
type GroupCache struct {
	session *client.Session
	cache   *lru.Cache[string, *client.Group]
	lookups singleflight.Group
}

// NewGroupCache creates a cache holding at most maxItems groups of s.
func NewGroupCache(s *client.Session, maxItems int) (*GroupCache, error) {
	c, err := lru.New[string, *client.Group](maxItems)
	if err != nil {
		return nil, err
	}
	return &GroupCache{session: s, cache: c}, nil
}

// Get returns a copy of the cached proxy for name, or a new id-less proxy
// on a miss.
func (c *GroupCache) Get(name string) *client.Group {
	if g, ok := c.cache.Get(name); ok {
		cp := *g
		return &cp
	}
	return client.NewGroup(c.session, name)
}

// Resolve returns a copy of the proxy for name with its id known, looking
// it up on a miss. Concurrent lookups of the same name share one request,
// made with the first caller's context.
func (c *GroupCache) Resolve(ctx context.Context, name string) (*client.Group, error) {
	if g, ok := c.cache.Get(name); ok {
		cp := *g
		return &cp, nil
	}

	v, err, _ := c.lookups.Do(name, func() (any, error) {
		if g, ok := c.cache.Get(name); ok {
			return g, nil
		}
		g := client.NewGroup(c.session, name)
		if _, err := g.Info(ctx); err != nil {
			return nil, err
		}
		c.Put(g)
		return g, nil
	})
	if err != nil {
		return nil, err
	}
	cp := *v.(*client.Group)
	cp.Members = nil
	return &cp, nil
}

// Put stores a copy of g under its current name. Proxies without an id are
// not worth keeping and are ignored.
func (c *GroupCache) Put(g *client.Group) {
	if g == nil || g.ID == "" {
		return
	}
	cp := *g
	cp.Members = nil
	c.cache.Add(cp.Name, &cp)
}

// Forget drops name, e.g. after the group was renamed or deleted.
func (c *GroupCache) Forget(name string) {
	c.cache.Remove(name)
}

// Len returns the current number of cached groups.
func (c *GroupCache) Len() int {
	return c.cache.Len()
}
