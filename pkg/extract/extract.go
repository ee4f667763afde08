// Package extract locates and parses the JSON payload embedded in a model
// completion.
package extract

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/lexalign/concordance/pkg/models"
)

// Method records which step of the fallback chain produced an Object.
type Method string

const (
	MethodFenced   Method = "fenced"
	MethodBalanced Method = "balanced"
	MethodLenient  Method = "lenient"
)

// Object is a JSON value extracted from a completion. Raw always holds
// standard JSON, even when the value was recovered with the relaxed parser.
type Object struct {
	Raw    json.RawMessage
	Value  any
	Method Method
}

// Map returns the value as a JSON object, or nil when it is not one.
func (o *Object) Map() map[string]any {
	if o == nil {
		return nil
	}
	m, _ := o.Value.(map[string]any)
	return m
}

// Get returns a top-level field of an object value.
func (o *Object) Get(key string) (any, bool) {
	m := o.Map()
	if m == nil {
		return nil, false
	}
	v, ok := m[key]
	return v, ok
}

// Decode unmarshals the raw JSON into v.
func (o *Object) Decode(v any) error {
	return json.Unmarshal(o.Raw, v)
}

// trailingMarkers are stop sequences some deployments leave on the completion.
var trailingMarkers = []string{
	"<|eom_id|>",
	"<|eot_id|>",
	"<|end_of_text|>",
	"<|endoftext|>",
	"<|im_end|>",
	"</s>",
}

var fencedJSON = regexp.MustCompile("(?is)```[ \t]*json[ \t]*\\r?\\n?(.*?)```")

// Extract runs the fallback chain over raw and returns the first JSON value
// that parses. It never panics; failures are *models.ExtractionError.
func Extract(raw string) (*Object, error) {
	text := StripMarkers(raw)
	if text == "" {
		return nil, models.NewExtractionError(raw, fmt.Errorf("empty completion"))
	}

	var lastErr error

	for _, m := range fencedJSON.FindAllStringSubmatch(text, -1) {
		obj, err := parseStrict(strings.TrimSpace(m[1]))
		if err == nil {
			obj.Method = MethodFenced
			return obj, nil
		}
		lastErr = err
	}

	obj, err := scanBalanced(text)
	if err == nil {
		obj.Method = MethodBalanced
		return obj, nil
	}
	if err != errNoCandidate {
		lastErr = err
	}

	first := strings.IndexByte(text, '{')
	last := strings.LastIndexByte(text, '}')
	if first >= 0 && last > first {
		obj, err := parseRelaxed(text[first : last+1])
		if err == nil {
			obj.Method = MethodLenient
			return obj, nil
		}
		lastErr = err
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no JSON object in completion")
	}
	return nil, models.NewExtractionError(raw, lastErr)
}

// StripMarkers removes trailing control markers and surrounding whitespace.
func StripMarkers(raw string) string {
	text := strings.TrimSpace(raw)
	for {
		stripped := false
		for _, marker := range trailingMarkers {
			if strings.HasSuffix(text, marker) {
				text = strings.TrimSpace(strings.TrimSuffix(text, marker))
				stripped = true
			}
		}
		if !stripped {
			return text
		}
	}
}

var errNoCandidate = fmt.Errorf("no balanced object")

// scanBalanced tries every "{" in order, parsing the balanced substring that
// starts there. Braces inside single- or double-quoted strings do not count.
func scanBalanced(text string) (*Object, error) {
	var lastErr error = errNoCandidate
	for start := strings.IndexByte(text, '{'); start >= 0; {
		if end := matchingBrace(text, start); end > start {
			obj, err := parseStrict(text[start : end+1])
			if err == nil {
				return obj, nil
			}
			lastErr = err
		}
		next := strings.IndexByte(text[start+1:], '{')
		if next < 0 {
			break
		}
		start += next + 1
	}
	return nil, lastErr
}

// matchingBrace returns the index of the "}" closing the "{" at start, or -1.
func matchingBrace(text string, start int) int {
	depth := 0
	var quote byte
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if quote != 0 {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == quote:
				quote = 0
			}
			continue
		}
		switch c {
		case '"', '\'':
			quote = c
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

func parseStrict(s string) (*Object, error) {
	if s == "" {
		return nil, fmt.Errorf("empty candidate")
	}
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(s)); err != nil {
		return nil, err
	}
	return &Object{Raw: buf.Bytes(), Value: v}, nil
}
