package platforms

import (
	"fmt"

	"github.com/forecastlab/metasync/internal/domain"
)

// Registry is an ordered collection of configured platforms. Registration
// order is sync order.
type Registry struct {
	ordered []*Platform
	byName  map[string]*Platform
}

// NewRegistry builds a registry from the given platforms. Duplicate names are
// a programming error.
func NewRegistry(platforms ...Platform) (*Registry, error) {
	r := &Registry{byName: make(map[string]*Platform, len(platforms))}
	for i := range platforms {
		p := &platforms[i]
		if _, ok := r.byName[p.Name()]; ok {
			return nil, fmt.Errorf("platforms: duplicate platform %q", p.Name())
		}
		r.byName[p.Name()] = p
		r.ordered = append(r.ordered, p)
	}
	return r, nil
}

// All returns the platforms in registration order.
func (r *Registry) All() []*Platform {
	return r.ordered
}

// Get looks a platform up by its short name.
func (r *Registry) Get(name string) (*Platform, error) {
	p, ok := r.byName[name]
	if !ok {
		return nil, fmt.Errorf("platforms: %w: %s", domain.ErrUnknownPlatform, name)
	}
	return p, nil
}
