// Package deck defines the typed document model produced from streamed slide
// markup: slides, their block nodes, and the inline runs those nodes carry.
package deck

// Slide is one section of the markup, mapped to typed content.
type Slide struct {
	ID              string     `json:"id"`
	Content         []Node     `json:"content"`
	RootImage       *RootImage `json:"rootImage,omitempty"`
	Layout          Layout     `json:"layout,omitempty"`
	Alignment       Alignment  `json:"alignment"`
	BackgroundColor string     `json:"backgroundColor,omitempty"`
	Width           Width      `json:"width,omitempty"`
}

// ClearLive strips the live mark from every run on the slide.
func (s *Slide) ClearLive() {
	ClearLive(s.Content)
}

// Title returns the text of the slide's first heading, or "".
func (s *Slide) Title() string {
	for _, n := range s.Content {
		if h, ok := n.(*Heading); ok {
			return Text(h.Runs)
		}
	}
	return ""
}

// RootImage is the slide-level illustration, distinct from images embedded in
// the body content.
type RootImage struct {
	Query string `json:"query"`
	URL   string `json:"url,omitempty"`
}

// Layout positions the root image relative to the content.
type Layout string

const (
	LayoutNone     Layout = ""
	LayoutLeft     Layout = "left"
	LayoutRight    Layout = "right"
	LayoutVertical Layout = "vertical"
)

// Alignment is the vertical alignment of slide content.
type Alignment string

const (
	AlignStart  Alignment = "start"
	AlignCenter Alignment = "center"
	AlignEnd    Alignment = "end"
)

// Width is the slide width class.
type Width string

const (
	WidthDefault Width = ""
	WidthM       Width = "M"
	WidthL       Width = "L"
)

// Run is a span of inline text with its formatting.
type Run struct {
	Text          string `json:"text"`
	Bold          bool   `json:"bold,omitempty"`
	Italic        bool   `json:"italic,omitempty"`
	Underline     bool   `json:"underline,omitempty"`
	Strikethrough bool   `json:"strikethrough,omitempty"`

	// Live marks a run that is still being generated.
	Live bool `json:"isLive,omitempty"`
}

// Text concatenates the text of runs.
func Text(runs []Run) string {
	switch len(runs) {
	case 0:
		return ""
	case 1:
		return runs[0].Text
	}
	n := 0
	for _, r := range runs {
		n += len(r.Text)
	}
	b := make([]byte, 0, n)
	for _, r := range runs {
		b = append(b, r.Text...)
	}
	return string(b)
}
