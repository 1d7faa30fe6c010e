package prompt

import (
	"fmt"
	"regexp"
	"strings"
)

var variablePattern = regexp.MustCompile(`\{\{(\w+)\}\}`)

// Template is a named prompt body with {{variable}} placeholders.
type Template struct {
	Name string
	body string
	vars []string
}

func New(name, body string) *Template {
	return &Template{Name: name, body: body, vars: ExtractVariables(body)}
}

// Variables lists the placeholder names in order of first appearance.
func (t *Template) Variables() []string {
	return append([]string(nil), t.vars...)
}

// Render substitutes every placeholder. Values are inserted verbatim, so a
// value containing "{{x}}" is not expanded again.
func (t *Template) Render(vars map[string]string) (string, error) {
	var missing []string
	for _, v := range t.vars {
		if _, ok := vars[v]; !ok {
			missing = append(missing, v)
		}
	}
	if len(missing) > 0 {
		return "", fmt.Errorf("render %s: missing template variables: %s", t.Name, strings.Join(missing, ", "))
	}

	return variablePattern.ReplaceAllStringFunc(t.body, func(match string) string {
		return vars[match[2:len(match)-2]]
	}), nil
}

// Render is a one-shot helper for ad-hoc templates.
func Render(body string, vars map[string]string) (string, error) {
	return New("inline", body).Render(vars)
}

// ExtractVariables returns a list of variable names found in the template.
func ExtractVariables(body string) []string {
	matches := variablePattern.FindAllStringSubmatch(body, -1)
	seen := make(map[string]bool)
	var vars []string
	for _, m := range matches {
		if len(m) > 1 && !seen[m[1]] {
			vars = append(vars, m[1])
			seen[m[1]] = true
		}
	}
	return vars
}
