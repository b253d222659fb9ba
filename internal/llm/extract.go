package llm

import (
	"encoding/json"
	"fmt"
	"strings"
)

// FormatError reports model output that none of the extraction strategies
// could decode into the expected JSON shape.
type FormatError struct {
	Attempts []string
	Last     error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("model output is not valid JSON (tried %s): %v", strings.Join(e.Attempts, ", "), e.Last)
}

// extractor is one strategy for locating a JSON document inside raw model
// output. It returns the candidate text, or false when the strategy does
// not apply.
type extractor struct {
	name string
	find func(raw string) (string, bool)
}

// The chain is ordered: a well-behaved model passes the first strategy and
// the later ones only absorb common formatting drift (code fences,
// surrounding prose).
var extractors = []extractor{
	{"whole_body", func(raw string) (string, bool) {
		s := strings.TrimSpace(raw)
		return s, strings.HasPrefix(s, "{")
	}},
	{"fenced_block", findFencedJSON},
	{"balanced_braces", findBalancedJSON},
}

// ExtractJSON decodes the first strategy's hit into v. All strategies
// failing yields *FormatError.
func ExtractJSON(raw string, v any) error {
	var tried []string
	var lastErr error

	for _, ex := range extractors {
		text, ok := ex.find(raw)
		if !ok {
			continue
		}
		tried = append(tried, ex.name)
		if err := json.Unmarshal([]byte(text), v); err != nil {
			lastErr = err
			continue
		}
		return nil
	}

	if lastErr == nil {
		lastErr = fmt.Errorf("no JSON object found")
	}
	if len(tried) == 0 {
		tried = []string{"none"}
	}
	return &FormatError{Attempts: tried, Last: lastErr}
}

func findFencedJSON(raw string) (string, bool) {
	for _, fence := range []string{"```json", "```"} {
		start := strings.Index(raw, fence)
		if start < 0 {
			continue
		}
		rest := raw[start+len(fence):]
		end := strings.Index(rest, "```")
		if end < 0 {
			continue
		}
		body := strings.TrimSpace(rest[:end])
		if strings.HasPrefix(body, "{") {
			return body, true
		}
	}
	return "", false
}

// findBalancedJSON returns the first brace-balanced object in the text,
// respecting string literals and escapes.
func findBalancedJSON(raw string) (string, bool) {
	start := strings.IndexByte(raw, '{')
	if start < 0 {
		return "", false
	}
	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(raw); i++ {
		c := raw[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\' && inString:
			escaped = true
		case c == '"':
			inString = !inString
		case inString:
		case c == '{':
			depth++
		case c == '}':
			depth--
			if depth == 0 {
				return raw[start : i+1], true
			}
		}
	}
	return "", false
}
