// Package registry holds the examples collected during one build.
//
// A Registry is constructed at build start and discarded afterwards; watch
// rebuilds get a fresh one so no state leaks across builds. It enforces the
// two-phase protocol: registration only before Seal, reads only after.
package registry

import (
	"sort"

	"git.home.luguber.info/inful/docgallery/internal/foundation/errors"
	"git.home.luguber.info/inful/docgallery/internal/marker"
	"git.home.luguber.info/inful/docgallery/internal/util/sets"
)

// Registry is an insertion-ordered store of examples keyed by identifier.
// Not safe for concurrent use; collection is single-threaded per build.
type Registry struct {
	byID   map[string]*marker.Example
	order  []string
	sealed bool
}

// New creates an empty build-scoped registry.
func New() *Registry {
	return &Registry{byID: make(map[string]*marker.Example)}
}

// Register adds an example. Identifier collisions are fatal authoring errors
// naming both occurrences; registering after Seal is a coordination bug and
// reported as an internal error.
func (r *Registry) Register(ex *marker.Example) error {
	if r.sealed {
		return errors.NewError(errors.CategoryInternal, "example registered after collection phase completed").
			WithContext("example", ex.ID).
			Build()
	}
	// Collisions key on the slugged identifier, so distinct titles like
	// "Foo Bar" and "foo bar!" collide too; the message names both titles.
	if existing, ok := r.byID[ex.ID]; ok {
		return errors.NewError(errors.CategoryAuthoring, "example titles produce the same identifier; identifiers must be unique site-wide").
			WithSeverity(errors.SeverityFatal).
			WithContext("identifier", ex.ID).
			WithContext("title", ex.Title).
			WithContext("document", ex.Docname).
			WithContext("line", ex.Line).
			WithContext("first_title", existing.Title).
			WithContext("first_document", existing.Docname).
			WithContext("first_line", existing.Line).
			Build()
	}
	r.byID[ex.ID] = ex
	r.order = append(r.order, ex.ID)
	return nil
}

// Seal ends the collection phase. Generation must not observe a partially
// collected registry, so All/ByTag/Tags refuse to run before Seal.
func (r *Registry) Seal() {
	r.sealed = true
}

// Sealed reports whether the collection phase has completed.
func (r *Registry) Sealed() bool {
	return r.sealed
}

// Len returns the number of registered examples.
func (r *Registry) Len() int {
	return len(r.byID)
}

// Get returns the example with the given identifier.
func (r *Registry) Get(id string) (*marker.Example, bool) {
	ex, ok := r.byID[id]
	return ex, ok
}

// All returns every example sorted by title. It is an error to call All
// before the registry is sealed.
func (r *Registry) All() ([]*marker.Example, error) {
	if err := r.requireSealed(); err != nil {
		return nil, err
	}
	out := make([]*marker.Example, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.byID[id])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Title < out[j].Title })
	return out, nil
}

// ByTag returns the examples carrying tag, sorted by title.
func (r *Registry) ByTag(tag string) ([]*marker.Example, error) {
	all, err := r.All()
	if err != nil {
		return nil, err
	}
	out := make([]*marker.Example, 0)
	for _, ex := range all {
		if ex.Tags.Has(tag) {
			out = append(out, ex)
		}
	}
	return out, nil
}

// Tags returns the distinct tags carried by at least one example, sorted.
// A tag page exists if and only if its tag appears here.
func (r *Registry) Tags() ([]string, error) {
	if err := r.requireSealed(); err != nil {
		return nil, err
	}
	tags := sets.New[string]()
	for _, ex := range r.byID {
		for t := range ex.Tags {
			tags.Add(t)
		}
	}
	return sets.Sorted(tags), nil
}

func (r *Registry) requireSealed() error {
	if !r.sealed {
		return errors.NewError(errors.CategoryInternal, "registry read before collection phase completed").Build()
	}
	return nil
}
