package services

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"iris-site/pkg/models"
)

// Front matter fences. The writer (FormatFrontMatter) and the parser share them.
const (
	YAMLFence = "---"
	TOMLFence = "+++"
)

type frontMatterFormat struct {
	fence  string
	decode func(block string) (models.Metadata, error)
}

var frontMatterFormats = []frontMatterFormat{
	{fence: YAMLFence, decode: decodeYAMLFrontMatter},
	{fence: TOMLFence, decode: decodeTOMLFrontMatter},
}

// ParseFrontMatter splits a document into its metadata block and body.
//
// A document that does not open with a fence line has empty metadata and the
// whole input as body. A fence that is opened but never closed, or a block
// that is not a key/value mapping, yields ErrMalformedFrontMatter; callers
// decide how to degrade.
func ParseFrontMatter(content []byte) (models.Metadata, string, error) {
	text := string(content)
	for _, f := range frontMatterFormats {
		rest, ok := cutFenceLine(text, f.fence)
		if !ok {
			continue
		}
		block, body, closed := splitClosingFence(rest, f.fence)
		if !closed {
			return models.NewMetadata(), "", fmt.Errorf("%w: %q block is never closed", ErrMalformedFrontMatter, f.fence)
		}
		meta, err := f.decode(block)
		if err != nil {
			return models.NewMetadata(), "", fmt.Errorf("%w: %v", ErrMalformedFrontMatter, err)
		}
		return meta, body, nil
	}
	return models.NewMetadata(), text, nil
}

// FormatFrontMatter writes meta as a YAML front matter block followed by body.
func FormatFrontMatter(meta models.Metadata, body string) ([]byte, error) {
	mapping := &yaml.Node{Kind: yaml.MappingNode}
	for _, k := range meta.Keys() {
		v, _ := meta.Get(k)
		mapping.Content = append(mapping.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v},
		)
	}

	var buf bytes.Buffer
	buf.WriteString(YAMLFence + "\n")
	if meta.Len() > 0 {
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(mapping); err != nil {
			return nil, err
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
	}
	buf.WriteString(YAMLFence + "\n")
	buf.WriteString(body)
	return buf.Bytes(), nil
}

// cutFenceLine reports whether text opens with fence on its own line and returns what follows it.
func cutFenceLine(text, fence string) (string, bool) {
	line, rest, found := strings.Cut(text, "\n")
	if strings.TrimRight(line, " \t\r") != fence {
		return "", false
	}
	if !found {
		return "", true
	}
	return rest, true
}

func splitClosingFence(text, fence string) (block, body string, closed bool) {
	offset := 0
	for offset <= len(text) {
		line, _, found := strings.Cut(text[offset:], "\n")
		if strings.TrimRight(line, " \t\r") == fence {
			end := offset + len(line)
			if found {
				end++
			}
			return text[:offset], text[end:], true
		}
		if !found {
			break
		}
		offset += len(line) + 1
	}
	return "", "", false
}

func decodeYAMLFrontMatter(block string) (models.Metadata, error) {
	meta := models.NewMetadata()

	var doc yaml.Node
	if err := yaml.Unmarshal([]byte(block), &doc); err != nil {
		return meta, err
	}
	root := &doc
	if root.Kind == yaml.DocumentNode {
		if len(root.Content) == 0 {
			return meta, nil
		}
		root = root.Content[0]
	}
	if root.Kind == 0 {
		return meta, nil
	}
	if root.Kind != yaml.MappingNode {
		return meta, fmt.Errorf("front matter is not a key/value mapping")
	}
	for i := 0; i+1 < len(root.Content); i += 2 {
		meta.Set(root.Content[i].Value, yamlValueString(root.Content[i+1]))
	}
	return meta, nil
}

// yamlValueString returns the source text of a scalar without type coercion.
func yamlValueString(n *yaml.Node) string {
	switch n.Kind {
	case yaml.AliasNode:
		if n.Alias != nil {
			return yamlValueString(n.Alias)
		}
		return ""
	case yaml.ScalarNode:
		if n.Tag == "!!null" {
			return ""
		}
		return n.Value
	case yaml.SequenceNode:
		items := make([]string, 0, len(n.Content))
		for _, c := range n.Content {
			items = append(items, yamlValueString(c))
		}
		return strings.Join(items, ", ")
	default:
		out, err := yaml.Marshal(n)
		if err != nil {
			return ""
		}
		return strings.TrimSpace(string(out))
	}
}

func decodeTOMLFrontMatter(block string) (models.Metadata, error) {
	meta := models.NewMetadata()

	var values map[string]any
	if err := toml.Unmarshal([]byte(block), &values); err != nil {
		return meta, err
	}

	seen := make(map[string]bool, len(values))
	for _, k := range tomlKeyOrder(block) {
		v, ok := values[k]
		if !ok || seen[k] {
			continue
		}
		seen[k] = true
		meta.Set(k, tomlValueString(v))
	}

	var rest []string
	for k := range values {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	for _, k := range rest {
		meta.Set(k, tomlValueString(values[k]))
	}
	return meta, nil
}

// tomlKeyOrder lists top-level bare keys in order of appearance.
func tomlKeyOrder(block string) []string {
	var keys []string
	for _, line := range strings.Split(block, "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "[") {
			break
		}
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		k, _, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		keys = append(keys, strings.Trim(strings.TrimSpace(k), `"'`))
	}
	return keys
}

func tomlValueString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case time.Time:
		return t.Format(time.RFC3339)
	case toml.LocalDate:
		return t.String()
	case toml.LocalDateTime:
		return t.String()
	case toml.LocalTime:
		return t.String()
	case []any:
		items := make([]string, 0, len(t))
		for _, item := range t {
			items = append(items, tomlValueString(item))
		}
		return strings.Join(items, ", ")
	case map[string]any:
		out, err := toml.Marshal(t)
		if err != nil {
			return ""
		}
		return strings.TrimSpace(string(out))
	default:
		return fmt.Sprint(t)
	}
}
