package parser

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/dgallion1/slidestream/internal/deck"
	"github.com/dgallion1/slidestream/internal/markup"
)

const defaultChartType = "bar"

// mapper turns one completed section into a slide.
type mapper struct {
	ids   *identities
	newID func() string
	live  func(text string) bool
}

// mapSection parses section markup and maps it to a slide.
func (m *mapper) mapSection(source string) deck.Slide {
	root := markup.Parse(source)
	sec := root.Find("section")
	if sec == nil {
		return deck.Slide{ID: m.newID(), Content: []deck.Node{}, Alignment: deck.AlignCenter}
	}

	slide := deck.Slide{
		ID:              m.ids.resolve(fingerprint(sec, source)),
		Content:         []deck.Node{},
		Layout:          layoutOf(sec),
		Alignment:       alignmentOf(sec),
		BackgroundColor: strings.TrimSpace(sec.Attrs["background"]),
		Width:           widthOf(sec),
	}
	for _, c := range sec.Children {
		m.sectionChild(&slide, c, true)
	}
	return slide
}

// sectionChild handles a direct child of the section. Images become the root
// image; a grouping wrapper is flattened once, its children treated as direct
// children themselves.
func (m *mapper) sectionChild(slide *deck.Slide, n *markup.Node, flatten bool) {
	switch lookup(n) {
	case tagImage:
		if slide.RootImage == nil {
			if img, ok := imageOf(n); ok {
				slide.RootImage = &deck.RootImage{Query: img.Query, URL: img.URL}
			}
		}
		return
	case tagGroup:
		if flatten && len(n.Children) > 0 {
			for _, c := range n.Children {
				m.sectionChild(slide, c, false)
			}
			return
		}
	}
	slide.Content = append(slide.Content, m.block(n)...)
}

// block maps one element to zero or more content nodes.
func (m *mapper) block(n *markup.Node) []deck.Node {
	t := lookup(n)
	switch t {
	case tagH1, tagH2, tagH3, tagH4, tagH5, tagH6:
		if runs := m.runs(n); len(runs) > 0 {
			return []deck.Node{&deck.Heading{Level: t.headingLevel(), Runs: runs}}
		}
	case tagParagraph, tagBold, tagItalic, tagUnderline, tagStrike:
		return m.paragraph(n)
	case tagImage:
		if img, ok := imageOf(n); ok {
			return []deck.Node{&img}
		}
	case tagGroup, tagSection:
		return m.content(n)
	case tagColumns:
		return m.columns(n)
	case tagBullets:
		return m.items(n, deck.GroupBullets)
	case tagIcons:
		return m.items(n, deck.GroupIcons)
	case tagCycle:
		return m.items(n, deck.GroupCycle)
	case tagStaircase:
		return m.items(n, deck.GroupStaircase)
	case tagChart:
		return m.chart(n)
	case tagArrows:
		return m.visualization(n, deck.VisualArrows)
	case tagPyramid:
		return m.visualization(n, deck.VisualPyramid)
	case tagTimeline:
		return m.visualization(n, deck.VisualTimeline)
	case tagIcon, tagBreak, tagTable, tagTableSection, tagRow, tagCell, tagValue, tagUnknown:
		// Out of context or unknown: keep whatever text it wraps.
		if len(n.Children) > 0 {
			return m.paragraph(n)
		}
	}
	return nil
}

func (m *mapper) blocks(nodes []*markup.Node) []deck.Node {
	var out []deck.Node
	for _, n := range nodes {
		out = append(out, m.block(n)...)
	}
	return out
}

func (m *mapper) paragraph(n *markup.Node) []deck.Node {
	if runs := m.runs(n); len(runs) > 0 {
		return []deck.Node{&deck.Paragraph{Runs: runs}}
	}
	return nil
}

// content maps the inside of a container. A container holding block elements
// maps them; one holding only text and inline formatting becomes a single
// paragraph.
func (m *mapper) content(n *markup.Node) []deck.Node {
	for _, c := range n.Children {
		if !lookup(c).inline() {
			return m.blocks(n.Children)
		}
	}
	return m.paragraph(n)
}

// wrappers returns the grouping-wrapper children of n; only these are items.
func wrappers(n *markup.Node) []*markup.Node {
	var out []*markup.Node
	for _, c := range n.Children {
		if lookup(c) == tagGroup {
			out = append(out, c)
		}
	}
	return out
}

func (m *mapper) columns(n *markup.Node) []deck.Node {
	var cols [][]deck.Node
	for _, w := range wrappers(n) {
		if col := m.content(w); len(col) > 0 {
			cols = append(cols, col)
		}
	}
	if len(cols) == 0 {
		return nil
	}
	return []deck.Node{&deck.Columns{Columns: cols}}
}

func (m *mapper) items(n *markup.Node, kind deck.GroupKind) []deck.Node {
	var items []deck.Item
	for _, w := range wrappers(n) {
		item := deck.Item{Content: m.content(w)}
		if kind == deck.GroupIcons {
			if icon := w.Find("icon"); icon != nil {
				if q := sanitizeIconQuery(icon.Attrs["query"]); utf8.RuneCountInString(q) >= 2 {
					item.Icon = q
				}
			}
		}
		if len(item.Content) == 0 && item.Icon == "" {
			continue
		}
		if item.Content == nil {
			item.Content = []deck.Node{}
		}
		items = append(items, item)
	}
	if len(items) == 0 {
		return nil
	}
	return []deck.Node{&deck.ItemGroup{Kind: kind, Items: items}}
}

func (m *mapper) visualization(n *markup.Node, kind deck.VisualKind) []deck.Node {
	var items [][]deck.Node
	for _, w := range wrappers(n) {
		if c := m.content(w); len(c) > 0 {
			items = append(items, c)
		}
	}
	if len(items) == 0 {
		return nil
	}
	return []deck.Node{&deck.Visualization{Kind: kind, Items: items}}
}

func (m *mapper) chart(n *markup.Node) []deck.Node {
	table := n.Find("table")
	if table == nil {
		table = n
	}

	var data []deck.DataPoint
	for _, row := range rows(table) {
		var (
			point         deck.DataPoint
			label, filled bool
		)
		for _, cell := range row.Children {
			if lookup(cell) != tagCell {
				continue
			}
			switch strings.ToLower(strings.TrimSpace(cell.Attrs["type"])) {
			case "label":
				if !label {
					point.Label = cellValue(cell)
					label = true
				}
			case "data":
				if !filled {
					v, err := strconv.ParseFloat(cellValue(cell), 64)
					if err != nil {
						v = 0
					}
					point.Value = v
					filled = true
				}
			}
		}
		if label || filled {
			data = append(data, point)
		}
	}
	if len(data) == 0 {
		return nil
	}

	chartType := strings.ToLower(strings.TrimSpace(n.Attrs["charttype"]))
	if chartType == "" {
		chartType = defaultChartType
	}
	return []deck.Node{&deck.Chart{ChartType: chartType, Data: data}}
}

// rows returns the table's rows, looking one level into THEAD/TBODY.
func rows(table *markup.Node) []*markup.Node {
	var out []*markup.Node
	for _, c := range table.Children {
		switch lookup(c) {
		case tagRow:
			out = append(out, c)
		case tagTableSection:
			for _, r := range c.Children {
				if lookup(r) == tagRow {
					out = append(out, r)
				}
			}
		}
	}
	return out
}

func cellValue(cell *markup.Node) string {
	if v := cell.Find("value"); v != nil {
		return strings.TrimSpace(v.InnerText())
	}
	return strings.TrimSpace(cell.InnerText())
}

// imageOf accepts an image only once its query attribute is provably complete.
func imageOf(n *markup.Node) (deck.Image, bool) {
	query, ok := completeQuery(n.Raw)
	if !ok {
		return deck.Image{}, false
	}
	url := strings.TrimSpace(n.Attrs["url"])
	if url == "" {
		url = strings.TrimSpace(n.Attrs["src"])
	}
	return deck.Image{URL: url, Query: query}, true
}

// completeQuery finds query="..." in the raw opening tag, allowing blanks
// around the '=', and returns its value if the closing quote was written and
// the value is not blank.
func completeQuery(raw string) (string, bool) {
	if raw == "" {
		return "", false
	}
	lower := asciiLower(raw)
	from := 0
	for {
		i := indexFrom(lower, "query", from)
		if i < 0 {
			return "", false
		}
		from = i + 1
		if i > 0 && !isAttrBoundary(lower[i-1]) {
			continue
		}
		eq := skipSpace(lower, i+len("query"))
		if eq >= len(lower) || lower[eq] != '=' {
			continue
		}
		rest := raw[skipSpace(lower, eq+1):]
		if rest == "" || (rest[0] != '"' && rest[0] != '\'') {
			return "", false
		}
		end := strings.IndexByte(rest[1:], rest[0])
		if end < 0 {
			return "", false
		}
		q := strings.TrimSpace(rest[1 : 1+end])
		return q, q != ""
	}
}

func isAttrBoundary(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '"' || c == '\''
}

// iconCutMarkers truncate an icon query that swallowed the start of the next
// tag while the stream was incomplete.
var iconCutMarkers = []string{"<", ">", "</", "SECTION"}

func sanitizeIconQuery(q string) string {
	cut := len(q)
	for _, marker := range iconCutMarkers {
		if i := strings.Index(q, marker); i >= 0 && i < cut {
			cut = i
		}
	}
	return strings.TrimSpace(q[:cut])
}

func layoutOf(sec *markup.Node) deck.Layout {
	v, ok := sec.Attr("layout")
	if !ok {
		return deck.LayoutNone
	}
	switch deck.Layout(strings.ToLower(strings.TrimSpace(v))) {
	case deck.LayoutRight:
		return deck.LayoutRight
	case deck.LayoutVertical:
		return deck.LayoutVertical
	default:
		return deck.LayoutLeft
	}
}

func alignmentOf(sec *markup.Node) deck.Alignment {
	switch deck.Alignment(strings.ToLower(strings.TrimSpace(sec.Attrs["align"]))) {
	case deck.AlignStart:
		return deck.AlignStart
	case deck.AlignEnd:
		return deck.AlignEnd
	default:
		return deck.AlignCenter
	}
}

func widthOf(sec *markup.Node) deck.Width {
	switch deck.Width(strings.ToUpper(strings.TrimSpace(sec.Attrs["width"]))) {
	case deck.WidthM:
		return deck.WidthM
	case deck.WidthL:
		return deck.WidthL
	default:
		return deck.WidthDefault
	}
}
