package template

import (
	"strings"
)

// Build substitutes values into the ordered pattern and appends the unordered
// bindings as a query string. Placeholders without a value are left as is.
//
// When the ordered pattern already carries a query string the bindings are
// joined to it with "&" rather than starting a second one.
func (t *Template) Build(values map[string]string) string {
	var url strings.Builder
	replaced := make(map[string]struct{})
	last := 0

	for _, loc := range placeholderRegexp.FindAllStringSubmatchIndex(t.Ordered, -1) {
		name := t.Ordered[loc[2]:loc[3]]
		value, ok := values[name]

		if _, done := replaced[name]; done || !ok {
			continue
		}
		replaced[name] = struct{}{}

		url.WriteString(t.Ordered[last:loc[0]])
		url.WriteString(value)
		last = loc[1]
	}
	url.WriteString(t.Ordered[last:])

	if len(t.Unordered) == 0 {
		return url.String()
	}

	pairs := make([]string, len(t.Unordered))
	for i, binding := range t.Unordered {
		pairs[i] = binding.Key + "=" + values[binding.Name]
	}

	path := url.String()
	switch {
	case strings.HasSuffix(path, "?"), strings.HasSuffix(path, "&"):
	case strings.Contains(path, "?"):
		url.WriteString("&")
	default:
		url.WriteString("?")
	}
	url.WriteString(strings.Join(pairs, "&"))

	return url.String()
}
