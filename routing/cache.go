package routing

import (
	"sort"
	"sync"

	"golang.org/x/sync/singleflight"
)

// GraphCache holds built graphs by network name. Graphs are swapped whole,
// so readers never observe a partially built graph. A singleflight.Group
// coalesces concurrent builds of the same network.
type GraphCache struct {
	mu     sync.RWMutex
	graphs map[string]*Graph
	group  singleflight.Group
}

func NewGraphCache() *GraphCache {
	return &GraphCache{
		graphs: make(map[string]*Graph),
	}
}

// Get returns the cached graph for name.
func (c *GraphCache) Get(name string) (*Graph, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	g, ok := c.graphs[name]
	return g, ok
}

// Put stores g under name, replacing any previous graph.
func (c *GraphCache) Put(name string, g *Graph) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.graphs[name] = g
}

// Invalidate drops the graph for name so the next GetOrBuild rebuilds it.
func (c *GraphCache) Invalidate(name string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.graphs, name)
}

// Names returns the cached network names in sorted order.
func (c *GraphCache) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()

	names := make([]string, 0, len(c.graphs))
	for name := range c.graphs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// GetOrBuild returns the cached graph for name, calling build on a miss.
// Concurrent misses for the same name share one build.
func (c *GraphCache) GetOrBuild(name string, build func() (*Graph, error)) (*Graph, error) {
	if g, ok := c.Get(name); ok {
		return g, nil
	}

	result, err, _ := c.group.Do(name, func() (interface{}, error) {
		if g, ok := c.Get(name); ok {
			return g, nil
		}
		g, err := build()
		if err != nil {
			return nil, err
		}
		c.Put(name, g)
		return g, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*Graph), nil
}
