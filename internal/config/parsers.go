package config

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode"

	"gopkg.in/yaml.v2"
)

// CFG returns a koanf parser for flat "Key = value" files.
//
// Lines starting with '#', '@' or ';' are comments, "[Section]" headers are
// ignored and the key ends at the first '=', ':' or tab. Keys are converted
// from CamelCase to snake_case, so "InputImage" and "input_image" name the
// same setting. When a key repeats, the first value wins.
func CFG() *CFGParser {
	return &CFGParser{}
}

// CFGParser implements koanf.Parser for flat key/value files.
type CFGParser struct{}

// Unmarshal parses b into a flat map of string values.
func (p *CFGParser) Unmarshal(b []byte) (map[string]interface{}, error) {
	out := make(map[string]interface{})
	sc := bufio.NewScanner(bytes.NewReader(b))
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.ContainsRune("#@;", rune(text[0])) {
			continue
		}
		if text[0] == '[' && text[len(text)-1] == ']' {
			continue
		}
		sep := strings.IndexAny(text, "=:\t")
		if sep <= 0 {
			return nil, fmt.Errorf("config: line %d: expected key=value, got %q", line, text)
		}
		key := snakeCase(strings.TrimSpace(text[:sep]))
		if _, dup := out[key]; dup {
			continue
		}
		out[key] = strings.TrimSpace(text[sep+1:])
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("config: read: %w", err)
	}
	return out, nil
}

// Marshal writes m as sorted "key = value" lines. Nested maps are rejected.
func (p *CFGParser) Marshal(m map[string]interface{}) ([]byte, error) {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	var buf bytes.Buffer
	for _, k := range keys {
		switch v := m[k].(type) {
		case map[string]interface{}:
			return nil, fmt.Errorf("config: key %q: nested values are not supported", k)
		case []interface{}:
			parts := make([]string, len(v))
			for i, e := range v {
				parts[i] = fmt.Sprint(e)
			}
			fmt.Fprintf(&buf, "%s = %s\n", k, strings.Join(parts, ";"))
		default:
			fmt.Fprintf(&buf, "%s = %v\n", k, v)
		}
	}
	return buf.Bytes(), nil
}

// snakeCase converts "InputImage" to "input_image". Already snake_case keys
// pass through unchanged.
func snakeCase(s string) string {
	runes := []rune(s)
	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) {
			prevLower := i > 0 && (unicode.IsLower(runes[i-1]) || unicode.IsDigit(runes[i-1]))
			nextLower := i > 0 && i+1 < len(runes) && unicode.IsLower(runes[i+1]) && unicode.IsUpper(runes[i-1])
			if prevLower || nextLower {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

// YAML returns a koanf parser backed by gopkg.in/yaml.v2.
func YAML() *YAMLParser {
	return &YAMLParser{}
}

// YAMLParser implements koanf.Parser for YAML documents.
type YAMLParser struct{}

var errYAMLKey = errors.New("config: YAML mapping keys must be strings")

// Unmarshal parses YAML bytes into a nested map with string keys.
func (p *YAMLParser) Unmarshal(b []byte) (map[string]interface{}, error) {
	var raw map[string]interface{}
	if err := yaml.Unmarshal(b, &raw); err != nil {
		return nil, fmt.Errorf("config: parse YAML: %w", err)
	}
	out := make(map[string]interface{}, len(raw))
	for k, v := range raw {
		nv, err := stringKeys(v)
		if err != nil {
			return nil, err
		}
		out[k] = nv
	}
	return out, nil
}

// Marshal encodes m as YAML.
func (p *YAMLParser) Marshal(m map[string]interface{}) ([]byte, error) {
	return yaml.Marshal(m)
}

// stringKeys converts the map[interface{}]interface{} values produced by
// yaml.v2 into map[string]interface{} so koanf can flatten them.
func stringKeys(v interface{}) (interface{}, error) {
	switch t := v.(type) {
	case map[interface{}]interface{}:
		m := make(map[string]interface{}, len(t))
		for k, e := range t {
			ks, ok := k.(string)
			if !ok {
				return nil, fmt.Errorf("%w: %v", errYAMLKey, k)
			}
			ne, err := stringKeys(e)
			if err != nil {
				return nil, err
			}
			m[ks] = ne
		}
		return m, nil
	case []interface{}:
		for i, e := range t {
			ne, err := stringKeys(e)
			if err != nil {
				return nil, err
			}
			t[i] = ne
		}
		return t, nil
	default:
		return v, nil
	}
}
