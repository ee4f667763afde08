package llms

import (
	"encoding/json"
	"fmt"
)

// PromptVariables converts arbitrary values into the string-only map the
// deployments accept. Strings pass through unchanged; everything else is
// serialized to JSON.
func PromptVariables(vars map[string]any) (map[string]string, error) {
	out := make(map[string]string, len(vars))
	for k, v := range vars {
		switch t := v.(type) {
		case string:
			out[k] = t
		case nil:
			out[k] = ""
		default:
			b, err := json.Marshal(t)
			if err != nil {
				return nil, fmt.Errorf("serializing prompt variable %q: %w", k, err)
			}
			out[k] = string(b)
		}
	}
	return out, nil
}
