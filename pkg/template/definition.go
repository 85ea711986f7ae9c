package template

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"

	"gopkg.in/yaml.v3"
)

var placeholderRegexp = regexp.MustCompile(`\{([^}]+)\}`)

type Option = func(*Template)

// Binding ties an unordered parameter to the query key it is carried under.
type Binding struct {
	Name string
	Key  string
}

// Bindings keeps declaration order, which is the order query pairs are
// emitted in when building a URL.
type Bindings []Binding

type Template struct {
	Ordered   string   `json:"ordered" yaml:"ordered"`
	Unordered Bindings `json:"unordered,omitempty" yaml:"unordered,omitempty"`
}

func Define(ordered string, options ...Option) *Template {
	template := &Template{Ordered: ordered}

	for _, option := range options {
		option(template)
	}

	return template
}

func WithUnordered(name string, key string) Option {
	return func(template *Template) {
		template.Unordered = append(template.Unordered, Binding{Name: name, Key: key})
	}
}

func WithBindings(bindings Bindings) Option {
	return func(template *Template) {
		template.Unordered = append(template.Unordered, bindings...)
	}
}

// OrderedParameters returns the placeholder names of the ordered pattern from
// left to right.
func (t *Template) OrderedParameters() []string {
	matches := placeholderRegexp.FindAllStringSubmatch(t.Ordered, -1)
	names := make([]string, len(matches))

	for i, match := range matches {
		names[i] = match[1]
	}

	return names
}

func (t *Template) UnorderedParameters() []string {
	names := make([]string, len(t.Unordered))
	for i, binding := range t.Unordered {
		names[i] = binding.Name
	}

	return names
}

func (t *Template) RequiredParameters() []string {
	return append(t.OrderedParameters(), t.UnorderedParameters()...)
}

// Satisfied reports whether every required parameter has an entry in values.
func (t *Template) Satisfied(values map[string]string) bool {
	for _, name := range t.RequiredParameters() {
		if _, ok := values[name]; !ok {
			return false
		}
	}

	return true
}

// Clone returns a copy that shares nothing with t.
func (t *Template) Clone() *Template {
	return &Template{
		Ordered:   t.Ordered,
		Unordered: append(Bindings(nil), t.Unordered...),
	}
}

func (t *Template) String() string {
	if len(t.Unordered) == 0 {
		return t.Ordered
	}

	return fmt.Sprintf("%s %v", t.Ordered, t.Unordered)
}

func (b Bindings) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	for i, binding := range b {
		if i > 0 {
			buf.WriteByte(',')
		}

		name, err := json.Marshal(binding.Name)
		if err != nil {
			return nil, err
		}
		key, err := json.Marshal(binding.Key)
		if err != nil {
			return nil, err
		}

		buf.Write(name)
		buf.WriteByte(':')
		buf.Write(key)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads a JSON object of name to query key, keeping the order
// the keys appear in the document.
func (b *Bindings) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*b = nil
		return nil
	}

	decoder := json.NewDecoder(bytes.NewReader(data))

	token, err := decoder.Token()
	if err != nil {
		return err
	}
	if delim, ok := token.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("unordered parameters must be an object, got %v", token)
	}

	bindings := make(Bindings, 0)
	for decoder.More() {
		token, err := decoder.Token()
		if err != nil {
			return err
		}

		var key string
		if err := decoder.Decode(&key); err != nil {
			return fmt.Errorf("unordered parameter %v: %w", token, err)
		}

		bindings = append(bindings, Binding{Name: token.(string), Key: key})
	}

	if _, err := decoder.Token(); err != nil {
		return err
	}

	*b = bindings
	return nil
}

func (b *Bindings) UnmarshalYAML(value *yaml.Node) error {
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("unordered parameters must be a mapping, line %d", value.Line)
	}

	bindings := make(Bindings, 0, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		var name, key string
		if err := value.Content[i].Decode(&name); err != nil {
			return err
		}
		if err := value.Content[i+1].Decode(&key); err != nil {
			return fmt.Errorf("unordered parameter %s: %w", name, err)
		}

		bindings = append(bindings, Binding{Name: name, Key: key})
	}

	*b = bindings
	return nil
}
