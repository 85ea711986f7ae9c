package site

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/blakewilliams/sitehop/pkg/param"
	"github.com/blakewilliams/sitehop/pkg/template"
)

var (
	ErrDuplicateSite = errors.New("duplicate site")
	ErrInvalidSite   = errors.New("invalid site")
)

// Registry is an ordered, immutable set of sites whose templates have been
// compiled against a parameter registry.
type Registry struct {
	Parameters *param.Registry
	sites      []*Site
	byID       map[string]*Site
}

// NewRegistry compiles every template of every site. Any malformed template
// fails the whole registry.
func NewRegistry(parameters *param.Registry, sites ...*Site) (*Registry, error) {
	registry := &Registry{
		Parameters: parameters,
		sites:      make([]*Site, 0, len(sites)),
		byID:       make(map[string]*Site, len(sites)),
	}

	for _, s := range sites {
		if s.ID == "" || s.Link == "" {
			return nil, fmt.Errorf("%w: site %q must have an id and a link", ErrInvalidSite, s.ID)
		}

		if s.ID == Unknown {
			return nil, fmt.Errorf("%w: site id %q is reserved", ErrInvalidSite, Unknown)
		}

		if _, ok := registry.byID[s.ID]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateSite, s.ID)
		}

		compiled := &Site{
			ID:        s.ID,
			Link:      s.Link,
			HTTPOnly:  s.HTTPOnly,
			Templates: make([]*template.Template, len(s.Templates)),
			matchers:  make([]*template.Matcher, len(s.Templates)),
		}

		for i, t := range s.Templates {
			t = t.Clone()
			compiled.Templates[i] = t

			matcher, err := template.Compile(t, parameters)
			if err != nil {
				return nil, fmt.Errorf("site %s template %d: %w", s.ID, i, err)
			}

			compiled.matchers[i] = matcher
		}

		registry.sites = append(registry.sites, compiled)
		registry.byID[s.ID] = compiled
	}

	return registry, nil
}

func (r *Registry) Sites() []*Site {
	return append([]*Site(nil), r.sites...)
}

func (r *Registry) Site(id string) (*Site, bool) {
	site, ok := r.byID[id]
	return site, ok
}

func (r *Registry) Len() int { return len(r.sites) }

// Detect returns the id of the first site whose link contains the URL's
// hostname, ignoring a leading "www.".
func (r *Registry) Detect(rawURL string) (string, bool) {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Hostname() == "" {
		return "", false
	}

	hostname := strings.TrimPrefix(parsed.Hostname(), "www.")

	for _, s := range r.sites {
		if strings.Contains(s.Link, hostname) {
			return s.ID, true
		}
	}

	return "", false
}

// Extract matches rawURL against the templates of the site with the given
// id. Unknown sites yield an empty map.
func (r *Registry) Extract(id string, rawURL string) map[string]string {
	s, ok := r.byID[id]
	if !ok {
		return map[string]string{}
	}

	return s.Extract(rawURL)
}

// Select builds one candidate per site other than originID, in registry
// order.
func (r *Registry) Select(originID string, values map[string]string) []Candidate {
	candidates := make([]Candidate, 0, len(r.sites))

	for _, s := range r.sites {
		if s.ID == originID {
			continue
		}

		candidates = append(candidates, s.Candidate(values))
	}

	return candidates
}
