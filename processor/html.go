package processor

import (
	"context"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ZaguanLabs/gotlui"
	"golang.org/x/net/html"
)

// HTMLProcessor extracts and applies translations to HTML content.
type HTMLProcessor struct {
	ignoredTags map[string]bool
	attrs       []string
}

// NewHTMLProcessor creates a new HTML processor with default ignored tags.
func NewHTMLProcessor() *HTMLProcessor {
	return &HTMLProcessor{
		ignoredTags: IgnoredTags,
		attrs:       TranslatableAttrs,
	}
}

// NewHTMLProcessorWithIgnoredTags creates a new HTML processor with custom ignored tags.
func NewHTMLProcessorWithIgnoredTags(tags []string) *HTMLProcessor {
	ignored := make(map[string]bool)
	for _, tag := range tags {
		ignored[strings.ToLower(tag)] = true
	}
	return &HTMLProcessor{
		ignoredTags: ignored,
		attrs:       TranslatableAttrs,
	}
}

// Document is a parsed HTML document.
type Document struct {
	p   *HTMLProcessor
	doc *goquery.Document
}

// Parse parses HTML content. Fragments are wrapped in html/head/body by
// the parser, as browsers do.
func (p *HTMLProcessor) Parse(content string) (*Document, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(content))
	if err != nil {
		return nil, &gotlui.ProcessorError{
			Message:     "failed to parse HTML",
			Cause:       err,
			ContentType: "html",
		}
	}
	return &Document{p: p, doc: doc}, nil
}

// Fragments returns the distinct translatable texts in document order.
func (d *Document) Fragments() []Fragment {
	var frags []Fragment
	seen := make(map[string]bool)
	add := func(f Fragment) {
		if f.Text == "" || seen[f.Text] {
			return
		}
		seen[f.Text] = true
		frags = append(frags, f)
	}

	d.walk(func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			add(Fragment{
				Text:    strings.TrimSpace(n.Data),
				Context: buildContext(n),
				Source:  "text",
			})
		case html.ElementNode:
			for _, attr := range n.Attr {
				if d.p.translatableAttr(attr.Key) {
					add(Fragment{
						Text:    strings.TrimSpace(attr.Val),
						Context: fmt.Sprintf("%s of <%s>", attr.Key, n.Data),
						Source:  attr.Key,
					})
				}
			}
		}
	})
	return frags
}

// Texts returns the fragment texts only.
func (d *Document) Texts() []string {
	frags := d.Fragments()
	texts := make([]string, len(frags))
	for i, f := range frags {
		texts[i] = f.Text
	}
	return texts
}

// Apply replaces every fragment that has an entry in translations, keyed
// by trimmed source text. Surrounding whitespace of text nodes is kept.
// It returns the number of replacements.
func (d *Document) Apply(translations map[string]string) int {
	applied := 0
	d.walk(func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			trimmed := strings.TrimSpace(n.Data)
			if translated, ok := translations[trimmed]; ok && trimmed != "" {
				n.Data = preserveWhitespace(n.Data, translated)
				applied++
			}
		case html.ElementNode:
			for i, attr := range n.Attr {
				if !d.p.translatableAttr(attr.Key) {
					continue
				}
				if translated, ok := translations[strings.TrimSpace(attr.Val)]; ok {
					n.Attr[i].Val = translated
					applied++
				}
			}
		}
	})
	return applied
}

// SetLang sets the lang and dir attributes of the root element for lang.
func (d *Document) SetLang(lang string) {
	root := d.doc.Find("html").First()
	root.SetAttr("lang", gotlui.ToHTMLLang(lang))
	root.SetAttr("dir", gotlui.GetDirection(lang))
}

// HTML serializes the document.
func (d *Document) HTML() (string, error) {
	out, err := d.doc.Html()
	if err != nil {
		return "", &gotlui.ProcessorError{
			Message:     "failed to serialize HTML",
			Cause:       err,
			ContentType: "html",
		}
	}
	return out, nil
}

// TranslateDocument extracts the fragments of content, translates them in
// one bulk call, applies the results, and marks the document with the
// target language and direction.
func (p *HTMLProcessor) TranslateDocument(ctx context.Context, content string, tr BulkTranslator) (string, error) {
	doc, err := p.Parse(content)
	if err != nil {
		return "", err
	}

	if texts := doc.Texts(); len(texts) > 0 {
		doc.Apply(tr.TranslateMany(ctx, texts))
	}
	doc.SetLang(tr.TargetLang())
	return doc.HTML()
}

// ContentType returns "html".
func (p *HTMLProcessor) ContentType() string {
	return "html"
}

func (p *HTMLProcessor) translatableAttr(key string) bool {
	for _, a := range p.attrs {
		if a == key {
			return true
		}
	}
	return false
}

// walk visits every node outside ignored elements and elements marked
// with data-no-translate or translate="no".
func (d *Document) walk(visit func(*html.Node)) {
	var rec func(*html.Node)
	rec = func(n *html.Node) {
		if n.Type == html.ElementNode && d.p.skipElement(n) {
			return
		}
		visit(n)
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			rec(c)
		}
	}
	for _, n := range d.doc.Nodes {
		rec(n)
	}
}

func (p *HTMLProcessor) skipElement(n *html.Node) bool {
	if p.ignoredTags[strings.ToLower(n.Data)] {
		return true
	}
	for _, attr := range n.Attr {
		if attr.Key == "data-no-translate" || (attr.Key == "translate" && attr.Val == "no") {
			return true
		}
	}
	return false
}

// buildContext creates a disambiguation context string for a text node.
func buildContext(n *html.Node) string {
	if n.Parent == nil {
		return ""
	}
	parent := n.Parent
	tag := parent.Data

	var classAttr, idAttr string
	for _, attr := range parent.Attr {
		if attr.Key == "class" {
			classAttr = attr.Val
		} else if attr.Key == "id" {
			idAttr = attr.Val
		}
	}

	parts := []string{fmt.Sprintf("in <%s>", tag)}
	if classAttr != "" {
		parts[0] = fmt.Sprintf("in <%s class=%q>", tag, classAttr)
	} else if idAttr != "" {
		parts[0] = fmt.Sprintf("in <%s id=%q>", tag, idAttr)
	}

	// Ancestor path (up to 3 levels), outer to inner
	var ancestors []string
	ancestor := parent.Parent
	for i := 0; i < 3 && ancestor != nil; i++ {
		if ancestor.Type == html.ElementNode {
			name := ancestor.Data
			if name != "html" && name != "body" {
				ancestors = append([]string{name}, ancestors...)
			}
		}
		ancestor = ancestor.Parent
	}
	if len(ancestors) > 0 {
		parts = append(parts, "inside: "+strings.Join(ancestors, " > "))
	}

	return strings.Join(parts, " | ")
}

// preserveWhitespace preserves the original leading/trailing whitespace.
func preserveWhitespace(original, translated string) string {
	leadingLen := len(original) - len(strings.TrimLeft(original, " \t\n\r"))
	leading := original[:leadingLen]

	trailingLen := len(original) - len(strings.TrimRight(original, " \t\n\r"))
	trailing := ""
	if trailingLen > 0 {
		trailing = original[len(original)-trailingLen:]
	}

	return leading + translated + trailing
}
