package export

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/gosimple/slug"
	"github.com/microcosm-cc/bluemonday"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/dgallion1/slidestream/internal/deck"
)

const previewStyle = `body{font-family:sans-serif;margin:0;background:#eee}
.slide{background:#fff;margin:2em auto;padding:2em;max-width:60em;min-height:20em;box-shadow:0 1px 4px #999}
.slide[data-width=M]{max-width:45em}.slide[data-width=L]{max-width:75em}
.columns{display:flex;gap:2em}.columns>div{flex:1}
.live{background:#ffe9a8}
.icon{font-size:.8em;color:#666;margin-right:.5em}`

// policy decides what survives from generated content. Model output is
// untrusted, so URLs, attributes and elements pass through a UGC allowlist.
func policy() *bluemonday.Policy {
	p := bluemonday.UGCPolicy()
	p.AllowElements("section")
	p.AllowAttrs("id", "class").Globally()
	p.AllowDataAttributes()
	return p
}

// HTMLFragment renders slides as sanitized section elements.
func HTMLFragment(slides []deck.Slide) (string, error) {
	var buf bytes.Buffer
	anchors := make(map[string]int)
	for i, s := range slides {
		if err := html.Render(&buf, slideNode(s, anchor(s, i, anchors))); err != nil {
			return "", fmt.Errorf("render slide %d: %w", i, err)
		}
		buf.WriteByte('\n')
	}
	return policy().Sanitize(buf.String()), nil
}

// HTMLDocument renders slides as a complete preview page.
func HTMLDocument(slides []deck.Slide, title string) (string, error) {
	fragment, err := HTMLFragment(slides)
	if err != nil {
		return "", err
	}

	body := element(atom.Body)
	children, err := html.ParseFragment(strings.NewReader(fragment), body)
	if err != nil {
		return "", fmt.Errorf("parse sanitized fragment: %w", err)
	}
	for _, c := range children {
		body.AppendChild(c)
	}

	head := element(atom.Head)
	head.AppendChild(element(atom.Meta, attr("charset", "utf-8")))
	head.AppendChild(withText(element(atom.Title), title))
	head.AppendChild(withText(element(atom.Style), previewStyle))

	root := element(atom.Html)
	root.AppendChild(head)
	root.AppendChild(body)

	doc := &html.Node{Type: html.DocumentNode}
	doc.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})
	doc.AppendChild(root)

	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return "", fmt.Errorf("render document: %w", err)
	}
	return buf.String(), nil
}

// anchor picks a unique fragment id for a slide from its title.
func anchor(s deck.Slide, index int, seen map[string]int) string {
	base := slug.Make(s.Title())
	if base == "" {
		base = "slide-" + strconv.Itoa(index+1)
	}
	seen[base]++
	if n := seen[base]; n > 1 {
		return base + "-" + strconv.Itoa(n)
	}
	return base
}

func slideNode(s deck.Slide, id string) *html.Node {
	sec := element(atom.Section,
		attr("id", id),
		attr("class", "slide"),
		attr("data-slide-id", s.ID),
		attr("data-align", string(s.Alignment)),
	)
	if s.Layout != deck.LayoutNone {
		sec.Attr = append(sec.Attr, attr("data-layout", string(s.Layout)))
	}
	if s.Width != deck.WidthDefault {
		sec.Attr = append(sec.Attr, attr("data-width", string(s.Width)))
	}
	if s.BackgroundColor != "" {
		sec.Attr = append(sec.Attr, attr("data-background", s.BackgroundColor))
	}
	if s.RootImage != nil {
		sec.AppendChild(imageNode(s.RootImage.URL, s.RootImage.Query, "root-image"))
	}
	appendBlocks(sec, s.Content)
	return sec
}

func appendBlocks(parent *html.Node, nodes []deck.Node) {
	for _, n := range nodes {
		if h := blockNode(n); h != nil {
			parent.AppendChild(h)
		}
	}
}

func blockNode(n deck.Node) *html.Node {
	switch v := n.(type) {
	case *deck.Heading:
		a := headingAtom(v.Level)
		h := element(a)
		appendRuns(h, v.Runs)
		return h
	case *deck.Paragraph:
		p := element(atom.P)
		appendRuns(p, v.Runs)
		return p
	case *deck.Image:
		return imageNode(v.URL, v.Query, "")
	case *deck.Columns:
		cols := element(atom.Div, attr("class", "columns"))
		for _, col := range v.Columns {
			c := element(atom.Div, attr("class", "column"))
			appendBlocks(c, col)
			cols.AppendChild(c)
		}
		return cols
	case *deck.ItemGroup:
		a := atom.Ul
		if v.Kind == deck.GroupCycle || v.Kind == deck.GroupStaircase {
			a = atom.Ol
		}
		list := element(a, attr("class", "items "+string(v.Kind)))
		for _, it := range v.Items {
			li := element(atom.Li)
			if it.Icon != "" {
				li.AppendChild(withText(element(atom.Span, attr("class", "icon"), attr("data-query", it.Icon)), it.Icon))
			}
			appendBlocks(li, it.Content)
			list.AppendChild(li)
		}
		return list
	case *deck.Visualization:
		list := element(atom.Ol, attr("class", "visualization "+string(v.Kind)))
		for _, it := range v.Items {
			li := element(atom.Li)
			appendBlocks(li, it)
			list.AppendChild(li)
		}
		return list
	case *deck.Chart:
		table := element(atom.Table, attr("class", "chart"), attr("data-chart-type", v.ChartType))
		tbody := element(atom.Tbody)
		for _, d := range v.Data {
			tr := element(atom.Tr)
			tr.AppendChild(withText(element(atom.Th), d.Label))
			tr.AppendChild(withText(element(atom.Td), strconv.FormatFloat(d.Value, 'f', -1, 64)))
			tbody.AppendChild(tr)
		}
		table.AppendChild(tbody)
		return table
	}
	return nil
}

func headingAtom(level int) atom.Atom {
	switch level {
	case 1:
		return atom.H1
	case 2:
		return atom.H2
	case 3:
		return atom.H3
	case 4:
		return atom.H4
	case 5:
		return atom.H5
	}
	return atom.H6
}

// appendRuns writes runs as nested formatting elements, innermost text last.
func appendRuns(parent *html.Node, runs []deck.Run) {
	for _, r := range runs {
		if r.Text == "\n" {
			parent.AppendChild(element(atom.Br))
			continue
		}
		var node, inner *html.Node
		wrap := func(a atom.Atom, attrs ...html.Attribute) {
			e := element(a, attrs...)
			if inner == nil {
				node = e
			} else {
				inner.AppendChild(e)
			}
			inner = e
		}
		if r.Live {
			wrap(atom.Span, attr("class", "live"))
		}
		if r.Bold {
			wrap(atom.B)
		}
		if r.Italic {
			wrap(atom.I)
		}
		if r.Underline {
			wrap(atom.U)
		}
		if r.Strikethrough {
			wrap(atom.S)
		}
		text := &html.Node{Type: html.TextNode, Data: r.Text}
		if inner == nil {
			parent.AppendChild(text)
			continue
		}
		inner.AppendChild(text)
		parent.AppendChild(node)
	}
}

func imageNode(url, query, class string) *html.Node {
	img := element(atom.Img, attr("alt", query), attr("data-query", query))
	if url != "" {
		img.Attr = append(img.Attr, attr("src", url))
	}
	if class != "" {
		img.Attr = append(img.Attr, attr("class", class))
	}
	return img
}

func element(a atom.Atom, attrs ...html.Attribute) *html.Node {
	return &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String(), Attr: attrs}
}

func attr(key, val string) html.Attribute {
	return html.Attribute{Key: key, Val: val}
}

func withText(n *html.Node, text string) *html.Node {
	n.AppendChild(&html.Node{Type: html.TextNode, Data: text})
	return n
}
