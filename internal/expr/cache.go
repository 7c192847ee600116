package expr

import "sync"

type parsedNode struct {
	node Node
	err  error
}

type parsedPath struct {
	path *Path
	err  error
}

// Cache memoizes parse results per distinct text. Parsing is deterministic,
// so syntax errors are cached too. A Cache is safe for concurrent use.
type Cache struct {
	mu     sync.Mutex
	nodes  map[string]parsedNode
	paths  map[string]parsedPath
	hits   int
	misses int
}

// NewCache creates an empty Cache.
func NewCache() *Cache {
	return &Cache{
		nodes: make(map[string]parsedNode),
		paths: make(map[string]parsedPath),
	}
}

var defaultCache = NewCache()

// DefaultCache returns the process-wide cache shared by engines that are not
// given their own.
func DefaultCache() *Cache {
	return defaultCache
}

// Parse returns the parsed expression for text, parsing it at most once.
func (c *Cache) Parse(text string) (Node, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.nodes[text]; ok {
		c.hits++
		return p.node, p.err
	}
	c.misses++
	n, err := Parse(text)
	c.nodes[text] = parsedNode{node: n, err: err}
	return n, err
}

// ParsePath returns the parsed accessor path for text, parsing it at most once.
func (c *Cache) ParsePath(text string) (*Path, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p, ok := c.paths[text]; ok {
		c.hits++
		return p.path, p.err
	}
	c.misses++
	path, err := ParsePath(text)
	c.paths[text] = parsedPath{path: path, err: err}
	return path, err
}

// Stats returns the number of cache hits and misses so far.
func (c *Cache) Stats() (hits, misses int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// Len returns the number of cached texts.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.nodes) + len(c.paths)
}
