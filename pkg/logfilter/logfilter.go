package logfilter

import (
	"net/url"
	"strings"
)

const (
	Filtered           = "FILTERED"
	FilteredInvalidURL = "FILTERED_INVALID_URL"
)

// Filter redacts values before they reach the logs. Values under keys that
// have been allowed are kept as is.
type Filter interface {
	Allow(keys ...string)
	IsAllowed(string) bool
	FilterURL(url *url.URL) *url.URL
	FilterURLString(url string) string
	FilterQueryParams(params url.Values) url.Values
	FilterValues(values map[string]string) map[string]string
	FilterURLError(err *url.Error) *url.Error
}

type logFilter struct {
	allowed map[string]struct{}
}

var _ Filter = &logFilter{}

func New() Filter {
	return &logFilter{allowed: make(map[string]struct{})}
}

// Allow must be called before the filter is shared between goroutines.
func (l *logFilter) Allow(keys ...string) {
	for _, key := range keys {
		l.allowed[strings.ToLower(key)] = struct{}{}
	}
}

func (l *logFilter) IsAllowed(key string) bool {
	_, ok := l.allowed[strings.ToLower(key)]
	return ok
}

func (l *logFilter) FilterURLString(urlString string) string {
	parsedUrl, err := url.Parse(urlString)

	if err != nil {
		return FilteredInvalidURL
	}

	return l.FilterURL(parsedUrl).String()
}

// FilterURL returns a copy of originalUrl with credentials and query values
// redacted. Fragments are dropped since sites carry parameters in them.
func (l *logFilter) FilterURL(originalUrl *url.URL) *url.URL {
	clonedUrl := *originalUrl

	if clonedUrl.User != nil {
		clonedUrl.User = url.UserPassword(Filtered, Filtered)
	}

	if clonedUrl.RawQuery != "" {
		clonedUrl.RawQuery = l.FilterQueryParams(clonedUrl.Query()).Encode()
	}

	if clonedUrl.Fragment != "" {
		clonedUrl.Fragment = Filtered
		clonedUrl.RawFragment = ""
	}

	return &clonedUrl
}

func (l *logFilter) FilterQueryParams(query url.Values) url.Values {
	filtered := make(url.Values, len(query))

	for key, values := range query {
		for _, value := range values {
			if l.IsAllowed(key) {
				filtered.Add(key, value)
			} else {
				filtered.Add(key, Filtered)
			}
		}
	}

	return filtered
}

func (l *logFilter) FilterValues(values map[string]string) map[string]string {
	filtered := make(map[string]string, len(values))

	for name, value := range values {
		if l.IsAllowed(name) {
			filtered[name] = value
		} else {
			filtered[name] = Filtered
		}
	}

	return filtered
}

func (l *logFilter) FilterURLError(err *url.Error) *url.Error {
	return &url.Error{
		Op:  err.Op,
		URL: l.FilterURLString(err.URL),
		Err: err.Err,
	}
}
