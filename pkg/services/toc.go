package services

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"iris-site/pkg/models"
)

// ExtractHeadings lists the second-level headings of rendered article HTML in
// document order. A heading without an id yields an empty ID.
func ExtractHeadings(fragment string) ([]models.Heading, error) {
	root, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return nil, err
	}

	headings := []models.Heading{}
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.H2 {
			headings = append(headings, models.Heading{
				Text: textContent(n),
				ID:   attr(n, "id"),
			})
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return headings, nil
}

func textContent(n *html.Node) string {
	var b strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return b.String()
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}
