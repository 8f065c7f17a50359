// Package widget renders the search widget, injects it into exported pages
// and writes the static query assets it loads.
package widget

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"path/filepath"
	"strings"
	texttemplate "text/template"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"git.home.luguber.info/inful/easearch/internal/fsutil"
	"git.home.luguber.info/inful/easearch/internal/htmldoc"
)

//go:embed assets/*
var assets embed.FS

const (
	// MarkerAttr marks every node the injector owns.
	MarkerAttr = "data-easearch-widget"
	// ContainerID is the id of the widget's root element.
	ContainerID = "search-container"

	ScriptFile     = "search.js"
	StylesheetFile = "search.css"

	DefaultLunrURL     = "https://unpkg.com/lunr/lunr.js"
	DefaultHeading     = "Search Enterprise Architect Model"
	DefaultPlaceholder = "Search classes, attributes, descriptions..."
	DefaultIndexFile   = "search-index.js"
	DefaultGlobalName  = "searchData"

	// Query behaviour shared with the offline query command.
	TitleBoost     = 10
	Fuzziness      = 1
	MinQueryLength = 2
)

// Options configures the widget fragment and the query script.
type Options struct {
	ExportRoot  string // directory name of the export root, matched in the page URL
	LunrURL     string
	IndexFile   string
	GlobalName  string
	Heading     string
	Placeholder string
}

func (o Options) withDefaults() Options {
	if o.LunrURL == "" {
		o.LunrURL = DefaultLunrURL
	}
	if o.IndexFile == "" {
		o.IndexFile = DefaultIndexFile
	}
	if o.GlobalName == "" {
		o.GlobalName = DefaultGlobalName
	}
	if o.Heading == "" {
		o.Heading = DefaultHeading
	}
	if o.Placeholder == "" {
		o.Placeholder = DefaultPlaceholder
	}
	return o
}

// Injector places the search widget at the top of a page body.
type Injector struct {
	opts     Options
	fragment *htmltemplate.Template
	script   *texttemplate.Template
}

// New parses the embedded templates.
func New(opts Options) (*Injector, error) {
	opts = opts.withDefaults()

	fragment, err := htmltemplate.ParseFS(assets, "assets/widget.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse widget template: %w", err)
	}
	script, err := texttemplate.ParseFS(assets, "assets/search.js.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse search script template: %w", err)
	}
	return &Injector{opts: opts, fragment: fragment, script: script}, nil
}

type fragmentData struct {
	ExportRoot     string
	Depth          int
	Prefix         string
	Heading        string
	Placeholder    string
	LunrURL        string
	IndexFile      string
	ScriptFile     string
	StylesheetFile string
}

// Fragment renders the widget for a page depth directory levels below the
// export root and returns its top-level nodes.
func (i *Injector) Fragment(depth int) ([]*html.Node, error) {
	if depth < 0 {
		depth = 0
	}
	var buf bytes.Buffer
	err := i.fragment.Execute(&buf, fragmentData{
		ExportRoot:     i.opts.ExportRoot,
		Depth:          depth,
		Prefix:         strings.Repeat("../", depth),
		Heading:        i.opts.Heading,
		Placeholder:    i.opts.Placeholder,
		LunrURL:        i.opts.LunrURL,
		IndexFile:      i.opts.IndexFile,
		ScriptFile:     ScriptFile,
		StylesheetFile: StylesheetFile,
	})
	if err != nil {
		return nil, fmt.Errorf("render widget: %w", err)
	}

	body := &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body}
	parsed, err := html.ParseFragment(&buf, body)
	if err != nil {
		return nil, fmt.Errorf("parse widget: %w", err)
	}

	// Whitespace between the top-level nodes is dropped, otherwise every
	// re-injection would leave another blank line at the top of the body.
	nodes := parsed[:0]
	for _, n := range parsed {
		if n.Type == html.TextNode && strings.TrimSpace(n.Data) == "" {
			continue
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

// Inject removes any widget already present in the page body and inserts a
// fresh one as the first children of <body>. Injecting twice leaves
// exactly one widget.
func (i *Injector) Inject(doc *htmldoc.Document, depth int) error {
	nodes, err := i.Fragment(depth)
	if err != nil {
		return err
	}
	body := doc.Body()
	if body.Length() == 0 {
		return fmt.Errorf("page has no body")
	}
	Strip(body)
	body.PrependNodes(nodes...)
	return nil
}

// Strip removes every widget node from body, including the unmarked block,
// stylesheet link and loader script written by earlier releases.
func Strip(body *goquery.Selection) {
	body.Find("[" + MarkerAttr + "]").Remove()
	body.Find("#" + ContainerID).Remove()
	body.Children().Filter(`link[href$="css/search.css"]`).Remove()
	body.Children().Filter("script:not([src])").FilterFunction(func(_ int, s *goquery.Selection) bool {
		return strings.Contains(s.Text(), `getElementById("index-link")`)
	}).Remove()
}

// Script renders the query script for the configured index.
func (i *Injector) Script() ([]byte, error) {
	var buf bytes.Buffer
	err := i.script.Execute(&buf, struct {
		IndexFile      string
		GlobalName     string
		TitleBoost     int
		Fuzziness      int
		MinQueryLength int
	}{
		IndexFile:      i.opts.IndexFile,
		GlobalName:     i.opts.GlobalName,
		TitleBoost:     TitleBoost,
		Fuzziness:      Fuzziness,
		MinQueryLength: MinQueryLength,
	})
	if err != nil {
		return nil, fmt.Errorf("render search script: %w", err)
	}
	return buf.Bytes(), nil
}

// WriteAssets writes search.js and search.css to the export root,
// replacing any existing copies.
func (i *Injector) WriteAssets(root string) ([]string, error) {
	script, err := i.Script()
	if err != nil {
		return nil, err
	}
	css, err := assets.ReadFile("assets/" + StylesheetFile)
	if err != nil {
		return nil, fmt.Errorf("read stylesheet: %w", err)
	}

	written := make([]string, 0, 2)
	for _, a := range []struct {
		name string
		data []byte
	}{
		{ScriptFile, script},
		{StylesheetFile, css},
	} {
		p := filepath.Join(root, a.name)
		if err := fsutil.WriteFileAtomic(p, a.data, 0o644); err != nil {
			return written, fmt.Errorf("write %s: %w", a.name, err)
		}
		written = append(written, p)
	}
	return written, nil
}
