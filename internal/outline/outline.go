// Package outline converts a Markdown outline into slide markup. Each heading
// at or above the split level, and each thematic break, starts a new slide.
package outline

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"
)

// DefaultSplitLevel starts a slide at every H1 and H2.
const DefaultSplitLevel = 2

// Converter turns Markdown into slide markup.
type Converter struct {
	splitLevel int
	md         goldmark.Markdown
}

// New returns a converter that starts a slide at headings of level
// splitLevel or shallower. A non-positive level uses DefaultSplitLevel.
func New(splitLevel int) *Converter {
	if splitLevel <= 0 {
		splitLevel = DefaultSplitLevel
	}
	return &Converter{
		splitLevel: splitLevel,
		md:         goldmark.New(goldmark.WithExtensions(extension.Strikethrough, extension.Table)),
	}
}

// Convert converts src with the default split level.
func Convert(src []byte) string {
	return New(DefaultSplitLevel).Convert(src)
}

// Convert returns the slide markup for src, wrapped in a PRESENTATION element.
func (c *Converter) Convert(src []byte) string {
	doc := c.md.Parser().Parse(text.NewReader(src))
	w := &writer{src: src}
	w.out.WriteString("<PRESENTATION>\n")

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			if node.Level <= c.splitLevel {
				w.flush()
			}
			w.block(&w.body, n, true)
		case *ast.ThematicBreak:
			w.flush()
		default:
			w.block(&w.body, n, true)
		}
	}
	w.flush()

	w.out.WriteString("</PRESENTATION>\n")
	return w.out.String()
}

type writer struct {
	src  []byte
	out  strings.Builder
	body strings.Builder

	// rootImage is set once the current slide has a top-level image.
	rootImage bool
}

// flush closes the slide being collected, if it has any content.
func (w *writer) flush() {
	if w.body.Len() > 0 {
		w.out.WriteString("<SECTION")
		if w.rootImage {
			w.out.WriteString(` layout="right"`)
		}
		w.out.WriteString(">")
		w.out.WriteString(w.body.String())
		w.out.WriteString("</SECTION>\n")
	}
	w.body.Reset()
	w.rootImage = false
}

func (w *writer) block(sb *strings.Builder, n ast.Node, top bool) {
	switch node := n.(type) {
	case *ast.Heading:
		if t := w.inline(n); t != "" {
			fmt.Fprintf(sb, "<H%d>%s</H%d>", node.Level, t, node.Level)
		}
	case *ast.Paragraph, *ast.TextBlock:
		if img, ok := n.FirstChild().(*ast.Image); ok && n.ChildCount() == 1 {
			if top {
				w.rootImage = true
			}
			w.image(sb, img)
			return
		}
		if t := w.inline(n); t != "" {
			sb.WriteString("<P>" + t + "</P>")
		}
	case *ast.List:
		tag := "BULLETS"
		if node.IsOrdered() {
			tag = "STAIRCASE"
		}
		sb.WriteString("<" + tag + ">")
		for item := n.FirstChild(); item != nil; item = item.NextSibling() {
			sb.WriteString("<DIV>")
			for c := item.FirstChild(); c != nil; c = c.NextSibling() {
				w.block(sb, c, false)
			}
			sb.WriteString("</DIV>")
		}
		sb.WriteString("</" + tag + ">")
	case *ast.Blockquote:
		for c := n.FirstChild(); c != nil; c = c.NextSibling() {
			w.block(sb, c, false)
		}
	case *ast.FencedCodeBlock, *ast.CodeBlock:
		w.code(sb, n)
	case *extast.Table:
		w.table(sb, node)
	}
}

// inline renders the inline children of n as dialect runs.
func (w *writer) inline(n ast.Node) string {
	var sb strings.Builder
	w.writeInline(&sb, n)
	return strings.TrimSpace(sb.String())
}

func (w *writer) writeInline(sb *strings.Builder, n ast.Node) {
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		switch node := c.(type) {
		case *ast.Text:
			sb.WriteString(escapeText(string(node.Segment.Value(w.src))))
			switch {
			case node.HardLineBreak():
				sb.WriteString("<BR>")
			case node.SoftLineBreak():
				sb.WriteByte(' ')
			}
		case *ast.String:
			sb.WriteString(escapeText(string(node.Value)))
		case *ast.Emphasis:
			tag := "I"
			if node.Level >= 2 {
				tag = "B"
			}
			sb.WriteString("<" + tag + ">")
			w.writeInline(sb, c)
			sb.WriteString("</" + tag + ">")
		case *extast.Strikethrough:
			sb.WriteString("<S>")
			w.writeInline(sb, c)
			sb.WriteString("</S>")
		case *ast.AutoLink:
			sb.WriteString(escapeText(string(node.URL(w.src))))
		case *ast.Image, *ast.RawHTML:
		default:
			w.writeInline(sb, c)
		}
	}
}

func (w *writer) image(sb *strings.Builder, img *ast.Image) {
	query := strings.TrimSpace(w.plain(img))
	if query == "" {
		query = strings.TrimSpace(string(img.Title))
	}
	if query == "" {
		query = "illustration"
	}
	fmt.Fprintf(sb, `<IMG query="%s"`, escapeAttr(query))
	if dest := string(img.Destination); dest != "" {
		fmt.Fprintf(sb, ` url="%s"`, escapeAttr(dest))
	}
	sb.WriteString(" />")
}

// code keeps a code block's lines as one paragraph with explicit breaks.
func (w *writer) code(sb *strings.Builder, n ast.Node) {
	lines := n.Lines()
	parts := make([]string, 0, lines.Len())
	for i := 0; i < lines.Len(); i++ {
		line := lines.At(i)
		parts = append(parts, escapeText(strings.TrimRight(string(line.Value(w.src)), "\r\n")))
	}
	for len(parts) > 0 && strings.TrimSpace(parts[len(parts)-1]) == "" {
		parts = parts[:len(parts)-1]
	}
	if len(parts) > 0 {
		sb.WriteString("<P>" + strings.Join(parts, "<BR>") + "</P>")
	}
}

// table becomes a chart when every body row is a label followed by a number,
// and a bulleted list of rows otherwise.
func (w *writer) table(sb *strings.Builder, t *extast.Table) {
	var rows [][]string
	for r := t.FirstChild(); r != nil; r = r.NextSibling() {
		if _, ok := r.(*extast.TableHeader); ok {
			continue
		}
		var cells []string
		for c := r.FirstChild(); c != nil; c = c.NextSibling() {
			cells = append(cells, escapeText(strings.TrimSpace(w.plain(c))))
		}
		rows = append(rows, cells)
	}
	if len(rows) == 0 {
		return
	}

	if chartable(rows) {
		sb.WriteString("<CHART><TABLE>")
		for _, r := range rows {
			fmt.Fprintf(sb, `<TR><TD type="label"><VALUE>%s</VALUE></TD><TD type="data"><VALUE>%s</VALUE></TD></TR>`, r[0], r[1])
		}
		sb.WriteString("</TABLE></CHART>")
		return
	}

	sb.WriteString("<BULLETS>")
	for _, r := range rows {
		sb.WriteString("<DIV><P>" + strings.Join(r, ": ") + "</P></DIV>")
	}
	sb.WriteString("</BULLETS>")
}

func chartable(rows [][]string) bool {
	for _, r := range rows {
		if len(r) < 2 {
			return false
		}
		if _, err := strconv.ParseFloat(r[1], 64); err != nil {
			return false
		}
	}
	return true
}

// plain returns the text of n's inline descendants without formatting.
func (w *writer) plain(n ast.Node) string {
	var sb strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := c.(type) {
		case *ast.Text:
			sb.Write(node.Segment.Value(w.src))
			if node.SoftLineBreak() || node.HardLineBreak() {
				sb.WriteByte(' ')
			}
		case *ast.String:
			sb.Write(node.Value)
		}
		return ast.WalkContinue, nil
	})
	return sb.String()
}

// The dialect has no character references, so angle brackets in text are
// replaced by lookalikes that the tokenizer reads as plain text.
var (
	textEscaper = strings.NewReplacer("<", "‹", ">", "›")
	attrEscaper = strings.NewReplacer("<", "‹", ">", "›", `"`, "'")
)

func escapeText(s string) string { return textEscaper.Replace(s) }

func escapeAttr(s string) string { return attrEscaper.Replace(s) }
