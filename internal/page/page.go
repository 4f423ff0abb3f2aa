package page

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
)

// Document is the parts of a server-rendered page the client works with.
type Document struct {
	URL   string
	Title string
	Forms []*Form
	// Matrix is nil when the page has no payment-matrix table.
	Matrix *Table
	Links  []Link
	// Text holds the trimmed text content of every element with an id.
	Text map[string]string
}

// Link is an anchor on the page.
type Link struct {
	Href string
	Text string
}

// Parse reads an HTML document fetched from url.
func Parse(url string, r io.Reader) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	doc := &Document{URL: url, Text: map[string]string{}}
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			if id := getAttr(n, "id"); id != "" {
				doc.Text[id] = textContent(n)
			}
			switch n.Data {
			case "title":
				if doc.Title == "" {
					doc.Title = textContent(n)
				}
			case "form":
				doc.Forms = append(doc.Forms, parseForm(n))
			case "table":
				if doc.Matrix == nil && hasClass(n, MatrixClass) {
					doc.Matrix = parseTable(n)
				}
			case "a":
				if href := getAttr(n, "href"); href != "" {
					doc.Links = append(doc.Links, Link{Href: href, Text: textContent(n)})
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return doc, nil
}

// ParseBytes is Parse over an in-memory body.
func ParseBytes(url string, body []byte) (*Document, error) {
	return Parse(url, bytes.NewReader(body))
}

// FormByActionPrefix returns the first form whose action path starts with
// prefix.
func (d *Document) FormByActionPrefix(prefix string) (*Form, bool) {
	for _, f := range d.Forms {
		if strings.HasPrefix(f.ActionPath(), prefix) {
			return f, true
		}
	}
	return nil, false
}

// Field finds an input anywhere on the page by element id.
func (d *Document) Field(id string) (*Form, *Field, bool) {
	for _, f := range d.Forms {
		for i := range f.Fields {
			if f.Fields[i].ID == id {
				return f, &f.Fields[i], true
			}
		}
	}
	return nil, nil, false
}

func getAttr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, name) {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, name string) bool {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, name) {
			return true
		}
	}
	return false
}

func classes(n *html.Node) []string {
	return strings.Fields(getAttr(n, "class"))
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range classes(n) {
		if c == class {
			return true
		}
	}
	return false
}

// textContent joins descendant text with whitespace collapsed.
func textContent(n *html.Node) string {
	var b strings.Builder
	var collect func(*html.Node)
	collect = func(c *html.Node) {
		if c.Type == html.TextNode {
			b.WriteString(c.Data)
			b.WriteByte(' ')
			return
		}
		for child := c.FirstChild; child != nil; child = child.NextSibling {
			collect(child)
		}
	}
	collect(n)
	return strings.Join(strings.Fields(b.String()), " ")
}
