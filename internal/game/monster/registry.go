package monster

import (
	"fmt"
	"sort"
)

// Registry indexes monster templates by ID. It is immutable after
// construction and safe for concurrent reads.
type Registry struct {
	byID map[string]*Template
}

// NewRegistry builds a registry from the given templates.
//
// Precondition: every template has passed Validate.
// Postcondition: Returns a registry, or an error on a duplicate ID.
func NewRegistry(templates []*Template) (*Registry, error) {
	r := &Registry{byID: make(map[string]*Template, len(templates))}
	for _, t := range templates {
		if _, dup := r.byID[t.ID]; dup {
			return nil, fmt.Errorf("monster registry: duplicate template id %q", t.ID)
		}
		r.byID[t.ID] = t
	}
	return r, nil
}

// LoadRegistry loads every template in dir into a fresh registry.
func LoadRegistry(dir string) (*Registry, error) {
	templates, err := LoadTemplates(dir)
	if err != nil {
		return nil, err
	}
	return NewRegistry(templates)
}

// Get returns the template with the given ID.
func (r *Registry) Get(id string) (*Template, bool) {
	t, ok := r.byID[id]
	return t, ok
}

// IDs returns all template IDs in sorted order.
func (r *Registry) IDs() []string {
	out := make([]string, 0, len(r.byID))
	for id := range r.byID {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// Len returns the number of registered templates.
func (r *Registry) Len() int { return len(r.byID) }
