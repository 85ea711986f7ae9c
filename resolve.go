package sitehop

import (
	"context"

	"github.com/blakewilliams/sitehop/pkg/site"
)

type eventKey struct{ name string }

var (
	EventResolve = eventKey{"resolve"}
	EventExtract = eventKey{"extract"}
	EventSelect  = eventKey{"select"}
)

// Request describes the page a user is on. Additional values, typically
// scraped from the page itself, take precedence over values extracted from
// the URL.
type Request struct {
	URL        string            `json:"url"`
	Permalink  string            `json:"permalink,omitempty"`
	Site       string            `json:"site,omitempty"`
	Additional map[string]string `json:"additional,omitempty"`
}

// Target is the URL values are extracted from.
func (r *Request) Target() string {
	if r.Permalink != "" {
		return r.Permalink
	}

	return r.URL
}

type Resolution struct {
	URL        string            `json:"url"`
	Site       string            `json:"site"`
	Values     map[string]string `json:"values"`
	Candidates []site.Candidate  `json:"candidates"`
}

func (r *Resolution) ActiveCount() int {
	count := 0
	for _, candidate := range r.Candidates {
		if candidate.Active {
			count++
		}
	}

	return count
}

type requestContextKey struct{}

type resolutionContextKey struct{}

// Resolve identifies the site of the request, extracts its parameters, and
// builds a candidate URL for every other known site.
func (s *Server) Resolve(ctx context.Context, req Request) (*Resolution, error) {
	registry := s.Registry()
	if registry == nil {
		return nil, ErrNoSites
	}

	target := req.Target()
	if target == "" {
		return nil, ErrMissingURL
	}

	resolution := &Resolution{URL: target, Site: site.Unknown, Values: map[string]string{}}
	ctx = context.WithValue(ctx, requestContextKey{}, &req)
	ctx = context.WithValue(ctx, resolutionContextKey{}, resolution)

	s.Notifier.Emit(EventResolve, ctx, func(ctx context.Context) {
		resolution.Site = origin(registry, req.Site, target)

		s.Notifier.Emit(EventExtract, ctx, func(ctx context.Context) {
			values := registry.Extract(resolution.Site, target)
			for name, value := range req.Additional {
				values[name] = value
			}

			resolution.Values = values
		})

		s.Notifier.Emit(EventSelect, ctx, func(ctx context.Context) {
			resolution.Candidates = registry.Select(resolution.Site, resolution.Values)
		})
	})

	s.Logger.Printf(
		"Resolved %s as %s with values %v, %d of %d candidates active",
		s.LogFilter.FilterURLString(target),
		resolution.Site,
		s.LogFilter.FilterValues(resolution.Values),
		resolution.ActiveCount(),
		len(resolution.Candidates),
	)

	return resolution, nil
}

func origin(registry *site.Registry, requested string, target string) string {
	if requested != "" {
		if _, ok := registry.Site(requested); ok {
			return requested
		}
	}

	if id, ok := registry.Detect(target); ok {
		return id
	}

	return site.Unknown
}

func RequestFromContext(ctx context.Context) *Request {
	if ctx == nil {
		return nil
	}

	if req := ctx.Value(requestContextKey{}); req != nil {
		return req.(*Request)
	}
	return nil
}

// ResolutionFromContext returns the resolution being built. It is only
// complete once the callback passed to an Around handler has returned.
func ResolutionFromContext(ctx context.Context) *Resolution {
	if ctx == nil {
		return nil
	}

	if resolution := ctx.Value(resolutionContextKey{}); resolution != nil {
		return resolution.(*Resolution)
	}
	return nil
}
