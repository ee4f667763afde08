package internal

import (
	"bytes"
	"text/template"

	"github.com/getzep/sprig/v3"
)

// ParsePrompt renders a text/template prompt with sprig's function map available.
func ParsePrompt(promptTemplate string, data any) (string, error) {
	tmpl, err := template.New("prompt").Funcs(sprig.TxtFuncMap()).Parse(promptTemplate)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	err = tmpl.Execute(&buf, data)
	if err != nil {
		return "", err
	}

	return buf.String(), nil
}

// Truncate shortens s to at most n bytes, appending an ellipsis when cut.
func Truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T {
	return &v
}
