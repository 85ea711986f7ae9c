package site

import (
	"github.com/blakewilliams/sitehop/pkg/template"
)

// Unknown is the origin used when a URL does not belong to any known site.
const Unknown = "unknown"

type Site struct {
	ID        string               `json:"id" yaml:"id"`
	Link      string               `json:"link" yaml:"link"`
	HTTPOnly  bool                 `json:"httpOnly,omitempty" yaml:"httpOnly,omitempty"`
	Templates []*template.Template `json:"templates" yaml:"templates"`

	matchers []*template.Matcher
}

type Option = func(*Site)

func Define(id string, link string, options ...Option) *Site {
	site := &Site{
		ID:        id,
		Link:      link,
		Templates: make([]*template.Template, 0),
	}

	for _, option := range options {
		option(site)
	}

	return site
}

func WithHTTPOnly() Option {
	return func(site *Site) {
		site.HTTPOnly = true
	}
}

// WithTemplates appends templates in priority order.
func WithTemplates(templates ...*template.Template) Option {
	return func(site *Site) {
		site.Templates = append(site.Templates, templates...)
	}
}

func (s *Site) Scheme() string {
	if s.HTTPOnly {
		return "http"
	}

	return "https"
}

// Root is the URL used for a site when no template could be filled.
func (s *Site) Root() string {
	return s.Scheme() + "://" + s.Link + "/"
}

// Extract returns the values captured by the first matching template, or an
// empty map when none match.
func (s *Site) Extract(rawURL string) map[string]string {
	for _, matcher := range s.matchers {
		if values, ok := matcher.Match(rawURL); ok {
			return values
		}
	}

	return map[string]string{}
}

// Candidate picks the first template whose required parameters are all
// present in values and builds the URL for it.
func (s *Site) Candidate(values map[string]string) Candidate {
	for _, t := range s.Templates {
		if t.Satisfied(values) {
			return Candidate{
				ID:     s.ID,
				Active: true,
				URL:    s.Scheme() + "://" + s.Link + t.Build(values),
			}
		}
	}

	return Candidate{ID: s.ID, Active: false, URL: s.Root()}
}

type Candidate struct {
	ID     string `json:"id"`
	Active bool   `json:"active"`
	URL    string `json:"url"`
}
