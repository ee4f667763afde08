package extract

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/tailscale/hujson"
)

// parseRelaxed parses near-JSON: comments, trailing commas, single-quoted
// strings, bare object keys and the literals True, False and None.
func parseRelaxed(s string) (*Object, error) {
	v, err := hujson.Parse([]byte(normalizeRelaxed(s)))
	if err != nil {
		return nil, err
	}
	v.Standardize()
	std := v.Pack()

	var value any
	if err := json.Unmarshal(std, &value); err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Compact(&buf, std); err != nil {
		return nil, err
	}
	return &Object{Raw: buf.Bytes(), Value: value}, nil
}

var literals = map[string]string{
	"True":  "true",
	"False": "false",
	"None":  "null",
}

func normalizeRelaxed(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 16)

	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == '"':
			end, _ := skipString(s, i, '"')
			b.WriteString(s[i:end])
			i = end
		case c == '\'':
			end, closed := skipString(s, i, '\'')
			body := s[i+1 : end]
			if closed {
				body = s[i+1 : end-1]
			}
			b.WriteString(requote(body))
			i = end
		case c == '/' && i+1 < len(s) && s[i+1] == '/':
			end := strings.IndexByte(s[i:], '\n')
			if end < 0 {
				end = len(s) - i
			}
			b.WriteString(s[i : i+end])
			i += end
		case c == '/' && i+1 < len(s) && s[i+1] == '*':
			end := strings.Index(s[i+2:], "*/")
			if end < 0 {
				b.WriteString(s[i:])
				i = len(s)
				continue
			}
			b.WriteString(s[i : i+2+end+2])
			i += 2 + end + 2
		case isIdentStart(c):
			j := i + 1
			for j < len(s) && isIdentPart(s[j]) {
				j++
			}
			word := s[i:j]
			switch {
			case literals[word] != "":
				b.WriteString(literals[word])
			case word != "true" && word != "false" && word != "null" && followedByColon(s, j):
				b.WriteString(`"` + word + `"`)
			default:
				b.WriteString(word)
			}
			i = j
		default:
			b.WriteByte(c)
			i++
		}
	}
	return b.String()
}

// skipString returns the index just past the string opened at s[start] and
// whether a closing quote was found. An unterminated string runs to the end of s.
func skipString(s string, start int, quote byte) (int, bool) {
	escaped := false
	for i := start + 1; i < len(s); i++ {
		switch {
		case escaped:
			escaped = false
		case s[i] == '\\':
			escaped = true
		case s[i] == quote:
			return i + 1, true
		}
	}
	return len(s), false
}

// requote turns the body of a single-quoted string into a double-quoted one.
func requote(body string) string {
	var b strings.Builder
	b.WriteByte('"')
	for i := 0; i < len(body); i++ {
		c := body[i]
		switch {
		case c == '\\' && i+1 < len(body) && body[i+1] == '\'':
			b.WriteByte('\'')
			i++
		case c == '\\' && i+1 < len(body):
			b.WriteByte(c)
			b.WriteByte(body[i+1])
			i++
		case c == '"':
			b.WriteString(`\"`)
		default:
			b.WriteByte(c)
		}
	}
	b.WriteByte('"')
	return b.String()
}

func followedByColon(s string, i int) bool {
	for ; i < len(s); i++ {
		switch s[i] {
		case ' ', '\t', '\r', '\n':
			continue
		case ':':
			return true
		default:
			return false
		}
	}
	return false
}

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentPart(c byte) bool {
	return isIdentStart(c) || (c >= '0' && c <= '9')
}
