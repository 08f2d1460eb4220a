package stage

import (
	"fmt"
	"slices"
	"strings"

	"github.com/fwojciec/blueprint"
)

// Template is a prompt with {name} placeholders. "{{" and "}}" produce
// literal braces.
type Template string

// Render substitutes every placeholder with its value from vars. A
// placeholder without a value is an error.
func (t Template) Render(vars map[string]string) (string, error) {
	var b strings.Builder
	err := t.scan(func(lit string) { b.WriteString(lit) }, func(name string) error {
		v, ok := vars[name]
		if !ok {
			return fmt.Errorf("template: no value for {%s}: %w", name, blueprint.ErrValidation)
		}
		b.WriteString(v)
		return nil
	})
	if err != nil {
		return "", err
	}
	return b.String(), nil
}

// Placeholders returns the distinct placeholder names in order of first use.
func (t Template) Placeholders() ([]string, error) {
	var names []string
	err := t.scan(func(string) {}, func(name string) error {
		if !slices.Contains(names, name) {
			names = append(names, name)
		}
		return nil
	})
	return names, err
}

// Check reports placeholders that are not in allowed, and malformed braces.
func (t Template) Check(allowed ...string) error {
	names, err := t.Placeholders()
	if err != nil {
		return err
	}
	for _, n := range names {
		if !slices.Contains(allowed, n) {
			return fmt.Errorf("template: unknown placeholder {%s}: %w", n, blueprint.ErrValidation)
		}
	}
	return nil
}

func (t Template) scan(literal func(string), placeholder func(string) error) error {
	s := string(t)
	for len(s) > 0 {
		i := strings.IndexAny(s, "{}")
		if i < 0 {
			literal(s)
			return nil
		}
		literal(s[:i])
		brace := s[i]
		s = s[i+1:]
		if len(s) > 0 && s[0] == brace {
			literal(string(brace))
			s = s[1:]
			continue
		}
		if brace == '}' {
			return fmt.Errorf("template: single '}' in prompt: %w", blueprint.ErrValidation)
		}
		end := strings.IndexByte(s, '}')
		if end < 0 {
			return fmt.Errorf("template: unclosed '{' in prompt: %w", blueprint.ErrValidation)
		}
		name := strings.TrimSpace(s[:end])
		if name == "" || strings.ContainsAny(name, "{ \n") {
			return fmt.Errorf("template: malformed placeholder {%s}: %w", s[:end], blueprint.ErrValidation)
		}
		if err := placeholder(name); err != nil {
			return err
		}
		s = s[end+1:]
	}
	return nil
}
