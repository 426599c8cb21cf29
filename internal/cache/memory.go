package cache

import (
	"time"

	"github.com/osteele/liquid"
	gocache "github.com/patrickmn/go-cache"
)

// Templates caches parsed Liquid templates in memory. It is safe for
// concurrent use, so renderers of different domains can share one.
type Templates struct {
	cache *gocache.Cache
}

// NewTemplates creates a template cache. A zero ttl keeps entries for the
// life of the process.
func NewTemplates(ttl time.Duration, cleanupInterval time.Duration) *Templates {
	if ttl == 0 {
		ttl = gocache.NoExpiration
	}
	return &Templates{
		cache: gocache.New(ttl, cleanupInterval),
	}
}

// Get retrieves a parsed template
func (c *Templates) Get(key string) (*liquid.Template, bool) {
	if val, found := c.cache.Get(key); found {
		return val.(*liquid.Template), true
	}
	return nil, false
}

// Set stores a parsed template with the default expiration
func (c *Templates) Set(key string, tpl *liquid.Template) {
	c.cache.SetDefault(key, tpl)
}

// Len returns the number of cached templates
func (c *Templates) Len() int {
	return c.cache.ItemCount()
}

// Clear removes all templates
func (c *Templates) Clear() {
	c.cache.Flush()
}
