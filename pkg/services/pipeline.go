package services

import (
	"bytes"
	"fmt"
	"html"
	"strings"

	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

const (
	DefaultHighlightStyle = "onedark"
	// UntitledPlaceholder is the title hint used when a document has no title.
	UntitledPlaceholder = "Untitled"
)

type PipelineOptions struct {
	// HighlightStyle is a chroma style name. Unknown names use DefaultHighlightStyle.
	HighlightStyle string
}

type RenderOptions struct {
	Title string
	// Standalone wraps the fragment in a complete HTML document titled Title.
	Standalone bool
}

// Pipeline turns markdown bodies into article HTML:
// parse, convert, assign heading ids, self-link headings, highlight code, serialize.
//
// A Pipeline is built once and is safe for concurrent use; every Render gets
// its own parser context and heading id registry.
type Pipeline struct {
	md goldmark.Markdown
}

func NewPipeline(opts PipelineOptions) *Pipeline {
	style := opts.HighlightStyle
	if _, ok := styles.Registry[style]; !ok {
		style = DefaultHighlightStyle
	}

	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			highlighting.NewHighlighting(
				highlighting.WithStyle(style),
				highlighting.WithFormatOptions(
					chromahtml.WithLineNumbers(false),
					chromahtml.TabWidth(4),
				),
				highlighting.WithWrapperRenderer(renderCodeBlockWrapper),
			),
		),
		goldmark.WithParserOptions(
			parser.WithASTTransformers(
				util.Prioritized(headingTransformer{}, 100),
			),
		),
	)
	return &Pipeline{md: md}
}

// Render converts body to HTML. Raw HTML embedded in the markdown is omitted.
func (p *Pipeline) Render(body string, opts RenderOptions) (out string, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = "", fmt.Errorf("%w: %v", ErrParse, r)
		}
	}()

	src := []byte(body)
	doc := p.md.Parser().Parse(text.NewReader(src), parser.WithContext(parser.NewContext()))

	var buf bytes.Buffer
	if opts.Standalone {
		writeDocumentHead(&buf, opts.Title)
	}
	if err := p.md.Renderer().Render(&buf, src, doc); err != nil {
		return "", fmt.Errorf("%w: %v", ErrParse, err)
	}
	if opts.Standalone {
		buf.WriteString("</body>\n</html>\n")
	}
	return buf.String(), nil
}

func writeDocumentHead(buf *bytes.Buffer, title string) {
	if strings.TrimSpace(title) == "" {
		title = UntitledPlaceholder
	}
	buf.WriteString("<!doctype html>\n<html lang=\"en\">\n<head>\n<meta charset=\"utf-8\">\n")
	buf.WriteString("<meta name=\"viewport\" content=\"width=device-width, initial-scale=1\">\n")
	buf.WriteString("<title>" + html.EscapeString(title) + "</title>\n</head>\n<body>\n")
}

// headingTransformer assigns unique ids to headings and turns each heading
// into a link to itself.
type headingTransformer struct{}

func (headingTransformer) Transform(doc *ast.Document, reader text.Reader, _ parser.Context) {
	src := reader.Source()

	var headings []*ast.Heading
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if h, ok := n.(*ast.Heading); ok && entering {
			headings = append(headings, h)
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	ids := newIDRegistry()
	for _, h := range headings {
		id := ids.Next(nodeText(h, src))
		h.SetAttributeString("id", []byte(id))
	}
	for _, h := range headings {
		linkHeading(h)
	}
}

// linkHeading wraps the heading's content in <a href="#id">. Headings that
// already contain a link get an empty anchor prepended instead, since links
// cannot nest.
func linkHeading(h *ast.Heading) {
	idAttr, ok := h.AttributeString("id")
	if !ok {
		return
	}
	id, _ := idAttr.([]byte)

	link := ast.NewLink()
	link.Destination = append([]byte("#"), id...)

	if containsLink(h) {
		h.InsertBefore(h, h.FirstChild(), link)
		return
	}
	for c := h.FirstChild(); c != nil; {
		next := c.NextSibling()
		h.RemoveChild(h, c)
		link.AppendChild(link, c)
		c = next
	}
	h.AppendChild(h, link)
}

func containsLink(n ast.Node) bool {
	found := false
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch c.(type) {
		case *ast.Link, *ast.AutoLink:
			found = true
			return ast.WalkStop, nil
		}
		return ast.WalkContinue, nil
	})
	return found
}

// nodeText is the plain text of n's inline content as a reader sees it:
// markup ignored, entity and numeric references resolved. Code spans keep
// their literal text.
func nodeText(n ast.Node, src []byte) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch t := c.(type) {
		case *ast.CodeSpan:
			for l := t.FirstChild(); l != nil; l = l.NextSibling() {
				if seg, ok := l.(*ast.Text); ok {
					b.Write(seg.Segment.Value(src))
				}
			}
			return ast.WalkSkipChildren, nil
		case *ast.Text:
			value := t.Segment.Value(src)
			if !t.IsRaw() {
				value = util.ResolveNumericReferences(util.ResolveEntityNames(value))
			}
			b.Write(value)
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(t.Value)
		case *ast.AutoLink:
			b.Write(t.Label(src))
		case *ast.RawHTML:
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}

// renderCodeBlockWrapper adds the copy-to-clipboard affordance around fenced
// code. When chroma could not highlight the block the wrapper also owns the
// <pre><code> element.
func renderCodeBlockWrapper(w util.BufWriter, c highlighting.CodeBlockContext, entering bool) {
	if entering {
		_, _ = w.WriteString(`<div class="code-block">`)
		_, _ = w.WriteString(`<button type="button" class="copy-code" aria-label="Copy code to clipboard" data-feedback-ms="3000">Copy</button>`)
		if !c.Highlighted() {
			_, _ = w.WriteString("<pre><code")
			if lang, ok := c.Language(); ok && len(lang) > 0 {
				_, _ = w.WriteString(` class="language-`)
				_, _ = w.Write(util.EscapeHTML(lang))
				_, _ = w.WriteString(`"`)
			}
			_, _ = w.WriteString(">")
		}
		return
	}
	if !c.Highlighted() {
		_, _ = w.WriteString("</code></pre>")
	}
	_, _ = w.WriteString("</div>\n")
}
