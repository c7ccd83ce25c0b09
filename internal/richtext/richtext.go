// Package richtext turns editor HTML into plain text for terminals and into
// an allowlisted subset for the web client.
package richtext

import (
	"html/template"
	"net/url"
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ExcerptLength is the excerpt size used on profile cards
const ExcerptLength = 150

var blockElements = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Br: true, atom.Li: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Blockquote: true, atom.Pre: true, atom.Ul: true, atom.Ol: true, atom.Tr: true,
}

// Elements whose content is never shown
var droppedElements = map[atom.Atom]bool{
	atom.Script: true, atom.Style: true, atom.Iframe: true, atom.Object: true,
	atom.Embed: true, atom.Noscript: true, atom.Template: true, atom.Head: true,
	atom.Title: true, atom.Form: true, atom.Svg: true, atom.Math: true,
}

// allowed maps element -> allowed attributes
var allowed = map[atom.Atom][]string{
	atom.P: nil, atom.Br: nil, atom.Strong: nil, atom.B: nil, atom.Em: nil, atom.I: nil,
	atom.U: nil, atom.S: nil, atom.Ul: nil, atom.Ol: nil, atom.Li: nil,
	atom.H1: nil, atom.H2: nil, atom.H3: nil, atom.H4: nil, atom.H5: nil, atom.H6: nil,
	atom.Blockquote: nil, atom.Pre: nil, atom.Code: nil, atom.Span: nil,
	atom.A:   {"href"},
	atom.Img: {"src", "alt"},
}

var voidElements = map[atom.Atom]bool{atom.Br: true, atom.Img: true}

// PlainText extracts readable text, one line per block element
func PlainText(fragment string) string {
	nodes, err := parseFragment(fragment)
	if err != nil {
		return strings.TrimSpace(fragment)
	}

	var b strings.Builder
	for _, n := range nodes {
		writeText(&b, n)
	}

	var lines []string
	for _, line := range strings.Split(b.String(), "\n") {
		if line = strings.Join(strings.Fields(line), " "); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n")
}

func writeText(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(n.Data)
		return
	case html.ElementNode:
		if droppedElements[n.DataAtom] {
			return
		}
	case html.CommentNode:
		return
	}

	block := n.Type == html.ElementNode && blockElements[n.DataAtom]
	if block {
		b.WriteByte('\n')
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeText(b, c)
	}
	if block {
		b.WriteByte('\n')
	}
}

// Excerpt returns at most n characters of plain text, with "..." when cut
func Excerpt(fragment string, n int) string {
	text := strings.Join(strings.Fields(PlainText(fragment)), " ")
	if utf8.RuneCountInString(text) <= n {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:n])) + "..."
}

// Sanitize keeps only allowlisted markup. Disallowed wrappers are unwrapped,
// script-like elements are removed with their content.
func Sanitize(fragment string) template.HTML {
	nodes, err := parseFragment(fragment)
	if err != nil {
		return template.HTML(template.HTMLEscapeString(fragment))
	}

	var b strings.Builder
	for _, n := range nodes {
		writeSafe(&b, n)
	}
	return template.HTML(b.String())
}

func writeSafe(b *strings.Builder, n *html.Node) {
	switch n.Type {
	case html.TextNode:
		b.WriteString(html.EscapeString(n.Data))
		return
	case html.CommentNode, html.DoctypeNode:
		return
	case html.ElementNode:
		if droppedElements[n.DataAtom] {
			return
		}
		attrs, ok := allowed[n.DataAtom]
		if !ok {
			writeChildren(b, n)
			return
		}

		b.WriteByte('<')
		b.WriteString(n.Data)
		for _, attr := range n.Attr {
			if attr.Namespace != "" || !contains(attrs, attr.Key) {
				continue
			}
			if (attr.Key == "href" || attr.Key == "src") && !safeURL(attr.Val, attr.Key == "href") {
				continue
			}
			b.WriteByte(' ')
			b.WriteString(attr.Key)
			b.WriteString(`="`)
			b.WriteString(html.EscapeString(attr.Val))
			b.WriteByte('"')
		}
		if n.DataAtom == atom.A {
			b.WriteString(` rel="nofollow noopener"`)
		}
		b.WriteByte('>')
		if voidElements[n.DataAtom] {
			return
		}
		writeChildren(b, n)
		b.WriteString("</")
		b.WriteString(n.Data)
		b.WriteByte('>')
	default:
		writeChildren(b, n)
	}
}

func writeChildren(b *strings.Builder, n *html.Node) {
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		writeSafe(b, c)
	}
}

func safeURL(raw string, allowMailto bool) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return u.Host != ""
	case "mailto":
		return allowMailto
	default:
		return false
	}
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func parseFragment(fragment string) ([]*html.Node, error) {
	context := &html.Node{Type: html.ElementNode, Data: "div", DataAtom: atom.Div}
	return html.ParseFragment(strings.NewReader(fragment), context)
}
