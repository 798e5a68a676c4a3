package nutrition

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

var fencedBlock = regexp.MustCompile("(?s)```(?:json)?\\s*(.*?)```")

// ParseJSON decodes a webhook reply into out. The reply may be the JSON value
// itself, an array like [{"output": "<json>"}], or text holding a fenced
// code block with the JSON.
func ParseJSON(text string, out interface{}) error {
	var candidates []string
	if inner, ok := unwrapOutput(text); ok {
		candidates = append(candidates, inner)
	}
	candidates = append(candidates, strings.TrimSpace(text))

	for _, c := range candidates {
		if json.Unmarshal([]byte(c), out) == nil && looksLikeObject(c) {
			return nil
		}
		if m := fencedBlock.FindStringSubmatch(c); m != nil {
			if err := json.Unmarshal([]byte(strings.TrimSpace(m[1])), out); err == nil {
				return nil
			}
		}
	}
	return fmt.Errorf("%w: %.80q", ErrBadResponse, text)
}

// unwrapOutput extracts the output string of an [{"output": ...}] or
// {"output": ...} envelope.
func unwrapOutput(text string) (string, bool) {
	type envelope struct {
		Output json.RawMessage `json:"output"`
	}

	var raw json.RawMessage
	var list []envelope
	if err := json.Unmarshal([]byte(text), &list); err == nil && len(list) > 0 {
		raw = list[0].Output
	} else {
		var single envelope
		if err := json.Unmarshal([]byte(text), &single); err != nil {
			return "", false
		}
		raw = single.Output
	}
	if len(raw) == 0 {
		return "", false
	}

	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s), true
	}
	return string(raw), true
}

func looksLikeObject(s string) bool {
	return strings.HasPrefix(s, "{")
}
