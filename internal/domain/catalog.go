package domain

import (
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"path"
	"sort"

	"gopkg.in/yaml.v3"
)

//go:embed catalog/*.yaml
var builtin embed.FS

// Catalog is an ordered, validated set of domains
type Catalog struct {
	domains []*Domain
	byKey   map[string]*Domain
	byLabel map[string]*Domain
}

// Builtin loads the catalog embedded in the binary
func Builtin() (*Catalog, error) {
	sub, err := fs.Sub(builtin, "catalog")
	if err != nil {
		return nil, fmt.Errorf("open builtin catalog: %w", err)
	}
	return LoadFS(sub)
}

// LoadFS loads every *.yaml file in fsys, ordered by file name
func LoadFS(fsys fs.FS) (*Catalog, error) {
	names, err := fs.Glob(fsys, "*.yaml")
	if err != nil {
		return nil, fmt.Errorf("list catalog: %w", err)
	}
	if len(names) == 0 {
		return nil, errors.New("catalog has no domain files")
	}
	sort.Strings(names)

	var domains []*Domain
	var errs []error
	for _, name := range names {
		data, err := fs.ReadFile(fsys, name)
		if err != nil {
			errs = append(errs, fmt.Errorf("read %s: %w", name, err))
			continue
		}
		d, err := Parse(data)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", path.Base(name), err))
			continue
		}
		domains = append(domains, d)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return NewCatalog(domains...)
}

// Parse decodes, normalizes and validates one domain document
func Parse(data []byte) (*Domain, error) {
	var d Domain
	if err := yaml.Unmarshal(data, &d); err != nil {
		return nil, fmt.Errorf("parse domain: %w", err)
	}
	d.normalize()
	if err := d.Validate(); err != nil {
		return nil, err
	}
	return &d, nil
}

// NewCatalog indexes already validated domains
func NewCatalog(domains ...*Domain) (*Catalog, error) {
	c := &Catalog{
		byKey:   make(map[string]*Domain),
		byLabel: make(map[string]*Domain),
	}
	for _, d := range domains {
		if _, dup := c.byKey[d.Key]; dup {
			return nil, fmt.Errorf("duplicate domain key %s", d.Key)
		}
		if _, dup := c.byLabel[d.Label]; dup {
			return nil, fmt.Errorf("duplicate domain label %s", d.Label)
		}
		c.domains = append(c.domains, d)
		c.byKey[d.Key] = d
		c.byLabel[d.Label] = d
	}
	return c, nil
}

// All returns the domains in catalog order
func (c *Catalog) All() []*Domain {
	out := make([]*Domain, len(c.domains))
	copy(out, c.domains)
	return out
}

// Keys returns the domain keys in catalog order
func (c *Catalog) Keys() []string {
	keys := make([]string, len(c.domains))
	for i, d := range c.domains {
		keys[i] = d.Key
	}
	return keys
}

// Get returns the domain with the given key
func (c *Catalog) Get(key string) (*Domain, error) {
	d, ok := c.byKey[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDomain, key)
	}
	return d, nil
}

// ByLabel returns the domain whose Korean label matches
func (c *Catalog) ByLabel(label string) (*Domain, error) {
	d, ok := c.byLabel[label]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDomain, label)
	}
	return d, nil
}

// Select resolves keys in order; no keys selects every domain
func (c *Catalog) Select(keys []string) ([]*Domain, error) {
	if len(keys) == 0 {
		return c.All(), nil
	}
	out := make([]*Domain, 0, len(keys))
	seen := map[string]bool{}
	for _, k := range keys {
		if seen[k] {
			continue
		}
		seen[k] = true
		d, err := c.Get(k)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}
