package models

import (
	"bytes"
	"slices"

	json "github.com/goccy/go-json"
)

// Metadata is the ordered key/value block from a document's front matter.
// The zero value is an empty mapping ready to use.
type Metadata struct {
	keys   []string
	values map[string]string
}

func NewMetadata() Metadata {
	return Metadata{values: map[string]string{}}
}

func (m Metadata) Get(key string) (string, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Set stores value under key. A new key is appended; an existing key keeps its position.
func (m *Metadata) Set(key, value string) {
	if m.values == nil {
		m.values = map[string]string{}
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

func (m Metadata) Keys() []string {
	return append([]string(nil), m.keys...)
}

func (m Metadata) Len() int { return len(m.keys) }

func (m Metadata) Title() string       { return m.values["title"] }
func (m Metadata) Description() string { return m.values["description"] }
func (m Metadata) Author() string      { return m.values["author"] }
func (m Metadata) Date() string        { return m.values["date"] }

// Map returns an unordered copy, handy for templates.
func (m Metadata) Map() map[string]string {
	out := make(map[string]string, len(m.keys))
	for k, v := range m.values {
		out[k] = v
	}
	return out
}

func (m Metadata) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	if _, err := m.writeFields(&buf); err != nil {
		return nil, err
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// writeFields writes `"key":"value"` pairs without braces, leaving out the
// keys in skip, and reports how many pairs it wrote.
func (m Metadata) writeFields(buf *bytes.Buffer, skip ...string) (int, error) {
	n := 0
	for _, k := range m.keys {
		if slices.Contains(skip, k) {
			continue
		}
		if n > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return n, err
		}
		vb, err := json.Marshal(m.values[k])
		if err != nil {
			return n, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		buf.Write(vb)
		n++
	}
	return n, nil
}

// Document is one article in the content store.
type Document struct {
	Slug     string
	Metadata Metadata
	Body     string
}

// Heading is one second-level heading of a rendered article.
type Heading struct {
	Text string `json:"text"`
	ID   string `json:"id"`
}

// RenderedArticle is recomputed on every request.
type RenderedArticle struct {
	Slug     string    `json:"slug"`
	HTML     string    `json:"html"`
	Metadata Metadata  `json:"metadata"`
	Headings []Heading `json:"headings"`
}

// Summary is the listing view of a document: metadata plus slug, never the body.
type Summary struct {
	Slug     string
	Metadata Metadata
}

// summaryReserved are metadata keys a summary never emits: slug is injected
// from the document and listings carry no body.
var summaryReserved = []string{"slug", "body", "content"}

// MarshalJSON flattens metadata and injects slug, which wins over a "slug" metadata key.
func (s Summary) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	n, err := s.Metadata.writeFields(&buf, summaryReserved...)
	if err != nil {
		return nil, err
	}
	if n > 0 {
		buf.WriteByte(',')
	}
	sb, err := json.Marshal(s.Slug)
	if err != nil {
		return nil, err
	}
	buf.WriteString(`"slug":`)
	buf.Write(sb)
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

type ListResult struct {
	Summaries []Summary `json:"summaries"`
	Skipped   int       `json:"skipped"`
}
