// Package dimension resolves natural names to warehouse surrogate keys.
package dimension

import "github.com/Ramsey-B/aster/pkg/models"

// Cache holds the name to surrogate key mapping for one load cycle, one map
// per dimension type. It is rebuilt from warehouse state at cycle start and
// discarded afterwards, so no stale mappings survive between cycles.
type Cache struct {
	keys map[models.DimensionType]map[string]int64
}

func NewCache() *Cache {
	keys := make(map[models.DimensionType]map[string]int64, len(models.DimensionTypes))
	for _, dt := range models.DimensionTypes {
		keys[dt] = make(map[string]int64)
	}
	return &Cache{keys: keys}
}

// Seed replaces the cached mapping for one dimension type.
func (c *Cache) Seed(dt models.DimensionType, mapping map[string]int64) {
	m := make(map[string]int64, len(mapping))
	for name, key := range mapping {
		m[name] = key
	}
	c.keys[dt] = m
}

// Get looks up a surrogate key by exact, case-sensitive natural name.
func (c *Cache) Get(dt models.DimensionType, name string) (int64, bool) {
	key, ok := c.keys[dt][name]
	return key, ok
}

// Put writes a freshly assigned surrogate key through to the cache.
func (c *Cache) Put(dt models.DimensionType, name string, key int64) {
	c.keys[dt][name] = key
}

// Len returns the number of cached names for one dimension type.
func (c *Cache) Len(dt models.DimensionType) int {
	return len(c.keys[dt])
}
