package ast

import (
	"github.com/zeebo/xxh3"
)

// Cache memoizes parsed documents by a hash of their name and source.
// Cached documents are shared and must not be modified. A Cache is not
// safe for concurrent use.
type Cache struct {
	docs map[uint64]*Document
	hits int
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{docs: make(map[uint64]*Document)}
}

// Parse returns the cached document for name and source, parsing it on a
// miss.
func (c *Cache) Parse(name, source string) *Document {
	key := xxh3.HashString(name + "\x00" + source)

	if doc, ok := c.docs[key]; ok {
		c.hits++

		return doc
	}

	doc := Parse(name, source)
	c.docs[key] = doc

	return doc
}

// Len returns the number of cached documents.
func (c *Cache) Len() int { return len(c.docs) }

// Hits returns the number of lookups served from the cache.
func (c *Cache) Hits() int { return c.hits }
