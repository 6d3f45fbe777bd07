// Package jsonpath pulls a text field out of a decoded JSON response using
// a dot-separated path with optional array indexes, e.g.
// "results[0].alternatives[0].transcript".
package jsonpath

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Text extracts the transcript from a JSON body. The configured path is
// authoritative when it resolves, even to an empty string; otherwise a
// top-level "text" field is tried, then any non-empty top-level string.
func Text(body []byte, path string) string {
	var root interface{}
	if err := json.Unmarshal(body, &root); err != nil {
		return ""
	}

	if path != "" {
		if v, ok := Lookup(root, path); ok {
			return v
		}
	}

	m, ok := root.(map[string]interface{})
	if !ok {
		return ""
	}
	if v, exists := m["text"]; exists {
		if s, ok := asString(v); ok {
			return s
		}
	}
	for _, v := range m {
		if s, ok := v.(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// Lookup walks a decoded JSON structure along path and returns the value
// at its end rendered as a string.
func Lookup(root interface{}, path string) (string, bool) {
	if path == "" {
		return "", false
	}
	cur := root
	for _, token := range strings.Split(path, ".") {
		key, idxs, err := splitToken(token)
		if err != nil {
			return "", false
		}
		if key != "" {
			m, ok := cur.(map[string]interface{})
			if !ok {
				return "", false
			}
			if cur, ok = m[key]; !ok {
				return "", false
			}
		}
		for _, idx := range idxs {
			arr, ok := cur.([]interface{})
			if !ok || idx < 0 || idx >= len(arr) {
				return "", false
			}
			cur = arr[idx]
		}
	}
	return asString(cur)
}

func asString(v interface{}) (string, bool) {
	switch s := v.(type) {
	case string:
		return s, true
	case float64:
		// JSON numbers decode as float64
		if s == float64(int64(s)) {
			return strconv.FormatInt(int64(s), 10), true
		}
		return fmt.Sprintf("%v", s), true
	case bool:
		return strconv.FormatBool(s), true
	default:
		return "", false
	}
}

// splitToken parses "foo[0][1]", "[0]" or "bar" into a base key and its
// index chain.
func splitToken(token string) (string, []int, error) {
	if token == "" {
		return "", nil, fmt.Errorf("empty token")
	}
	br := strings.Index(token, "[")
	if br == -1 {
		return token, nil, nil
	}
	key := token[:br]
	rest := token[br:]
	var idxs []int
	for rest != "" {
		if !strings.HasPrefix(rest, "[") {
			return "", nil, fmt.Errorf("invalid index syntax in %s", token)
		}
		end := strings.Index(rest, "]")
		if end <= 1 {
			return "", nil, fmt.Errorf("malformed index in %s", token)
		}
		n, err := strconv.Atoi(rest[1:end])
		if err != nil {
			return "", nil, fmt.Errorf("invalid index %q in %s", rest[1:end], token)
		}
		idxs = append(idxs, n)
		rest = rest[end+1:]
	}
	return key, idxs, nil
}
