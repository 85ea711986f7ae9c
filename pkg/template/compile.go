package template

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/blakewilliams/sitehop/pkg/param"
)

var (
	ErrUnknownParameter     = errors.New("unknown parameter")
	ErrDuplicatePlaceholder = errors.New("duplicate placeholder")
	ErrInvalidFragment      = param.ErrInvalidFragment
)

// AssemblePattern turns an ordered pattern into a regular expression. Literal
// text is escaped and each {name} becomes a capturing group holding the
// registry fragment for name. Groups are named p0, p1... in placeholder order
// so fragments that contain their own groups do not shift positions.
func AssemblePattern(ordered string, registry *param.Registry) (string, error) {
	var pattern strings.Builder
	seen := make(map[string]struct{})
	last := 0

	for i, loc := range placeholderRegexp.FindAllStringSubmatchIndex(ordered, -1) {
		name := ordered[loc[2]:loc[3]]

		if _, ok := seen[name]; ok {
			return "", fmt.Errorf("%w {%s} in %q", ErrDuplicatePlaceholder, name, ordered)
		}
		seen[name] = struct{}{}

		fragment, ok := registry.Fragment(name)
		if !ok {
			return "", fmt.Errorf("%w %s in %q", ErrUnknownParameter, name, ordered)
		}

		pattern.WriteString(regexp.QuoteMeta(ordered[last:loc[0]]))
		fmt.Fprintf(&pattern, "(?P<%s>%s)", groupName(i), fragment)
		last = loc[1]
	}

	pattern.WriteString(regexp.QuoteMeta(ordered[last:]))

	return pattern.String(), nil
}

func groupName(i int) string {
	return fmt.Sprintf("p%d", i)
}

// keyBoundary keeps a query key from matching inside a longer one, so "lat"
// does not match "mlat=1".
const keyBoundary = `(?:^|[?&#;/])`

type unorderedMatcher struct {
	name   string
	regexp *regexp.Regexp
}

// Matcher is the compiled form of a Template. It is immutable and safe for
// concurrent use.
type Matcher struct {
	Template  *Template
	ordered   *regexp.Regexp
	names     []string
	groups    []int
	unordered []unorderedMatcher
}

func Compile(template *Template, registry *param.Registry) (*Matcher, error) {
	pattern, err := AssemblePattern(template.Ordered, registry)
	if err != nil {
		return nil, err
	}

	ordered, err := regexp.Compile(pattern)
	if err != nil {
		return nil, fmt.Errorf("%w: %q: %w", ErrInvalidFragment, template.Ordered, err)
	}

	matcher := &Matcher{
		Template:  template,
		ordered:   ordered,
		names:     template.OrderedParameters(),
		unordered: make([]unorderedMatcher, 0, len(template.Unordered)),
	}

	matcher.groups = make([]int, len(matcher.names))
	for i := range matcher.names {
		matcher.groups[i] = ordered.SubexpIndex(groupName(i))
	}

	seen := make(map[string]struct{}, len(template.Unordered))
	for _, binding := range template.Unordered {
		if _, ok := seen[binding.Name]; ok {
			return nil, fmt.Errorf("%w %s in unordered parameters of %q", ErrDuplicatePlaceholder, binding.Name, template.Ordered)
		}
		seen[binding.Name] = struct{}{}

		fragment, ok := registry.Fragment(binding.Name)
		if !ok {
			return nil, fmt.Errorf("%w %s in unordered parameters of %q", ErrUnknownParameter, binding.Name, template.Ordered)
		}

		re, err := regexp.Compile(fmt.Sprintf("%s%s=(%s)", keyBoundary, regexp.QuoteMeta(binding.Key), fragment))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrInvalidFragment, binding.Name, err)
		}

		matcher.unordered = append(matcher.unordered, unorderedMatcher{name: binding.Name, regexp: re})
	}

	return matcher, nil
}

// Match runs the ordered regexp against rawURL and then requires every
// unordered binding to be found anywhere in rawURL. Values are only returned
// when both parts succeed.
func (m *Matcher) Match(rawURL string) (map[string]string, bool) {
	orderedMatch := m.ordered.FindStringSubmatch(rawURL)
	if orderedMatch == nil {
		return nil, false
	}

	unorderedValues := make([]string, len(m.unordered))
	for i, unordered := range m.unordered {
		match := unordered.regexp.FindStringSubmatch(rawURL)
		if match == nil {
			return nil, false
		}

		unorderedValues[i] = match[1]
	}

	values := make(map[string]string, len(m.names)+len(m.unordered))
	for i, unordered := range m.unordered {
		values[unordered.name] = unorderedValues[i]
	}
	for i, name := range m.names {
		values[name] = orderedMatch[m.groups[i]]
	}

	return values, true
}

func (m *Matcher) Pattern() string {
	return m.ordered.String()
}
