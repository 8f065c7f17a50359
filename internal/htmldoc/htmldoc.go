// Package htmldoc wraps a parsed HTML page behind the few operations the
// indexer and the widget injector need: title lookup, text of elements by
// tag, access to <body>, and serialization back to markup.
package htmldoc

import (
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Document is a parsed HTML page.
type Document struct {
	doc *goquery.Document
}

// Parse reads a complete HTML page. The parser is error tolerant, so an
// error means the reader failed, not that the markup is malformed.
// Scripting is off so <noscript> content is parsed as elements.
func Parse(r io.Reader) (*Document, error) {
	root, err := html.ParseWithOptions(r, html.ParseOptionEnableScripting(false))
	if err != nil {
		return nil, err
	}
	return &Document{doc: goquery.NewDocumentFromNode(root)}, nil
}

// Title returns the trimmed text of the first <title> element. The boolean
// is false when the page has no title element.
func (d *Document) Title() (string, bool) {
	sel := d.doc.Find("title").First()
	if sel.Length() == 0 {
		return "", false
	}
	return strings.TrimSpace(sel.Text()), true
}

// ContentBlocks returns, in document order, the text of every element whose
// tag is in tags. Nested matches are returned separately, so text inside a
// nested match appears once per matching ancestor. Each block is the
// element's text nodes, trimmed and joined with single spaces.
func (d *Document) ContentBlocks(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	sel := d.doc.Find(strings.Join(tags, ", "))
	blocks := make([]string, 0, sel.Length())
	sel.Each(func(_ int, s *goquery.Selection) {
		blocks = append(blocks, StrippedText(s.Get(0)))
	})
	return blocks
}

// Body returns the <body> selection.
func (d *Document) Body() *goquery.Selection {
	return d.doc.Find("body").First()
}

// Render serializes the whole document.
func (d *Document) Render(w io.Writer) error {
	return html.Render(w, d.doc.Get(0))
}

// StrippedText joins the trimmed, non-empty text nodes below n with single
// spaces. Script, style and template bodies and comments are not text;
// <noscript> fallback text is.
func StrippedText(n *html.Node) string {
	var parts []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			if t := strings.TrimSpace(n.Data); t != "" {
				parts = append(parts, t)
			}
			return
		case html.ElementNode:
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Template:
				return
			}
		case html.CommentNode:
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return strings.Join(parts, " ")
}
