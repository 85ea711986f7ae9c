package param

import (
	"errors"
	"fmt"
	"regexp"
	"sort"
)

var ErrInvalidFragment = errors.New("invalid parameter fragment")

// Registry maps parameter names to the regular expression fragment that
// describes a legal value. It is read-only once built.
type Registry struct {
	fragments map[string]string
}

func New(fragments map[string]string) (*Registry, error) {
	registry := &Registry{fragments: make(map[string]string, len(fragments))}

	for name, fragment := range fragments {
		if _, err := regexp.Compile(fragment); err != nil {
			return nil, fmt.Errorf("%w: parameter %s: %w", ErrInvalidFragment, name, err)
		}

		registry.fragments[name] = fragment
	}

	return registry, nil
}

func (r *Registry) Fragment(name string) (string, bool) {
	fragment, ok := r.fragments[name]
	return fragment, ok
}

func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.fragments))
	for name := range r.fragments {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

func (r *Registry) Len() int { return len(r.fragments) }
