package parser

import (
	"strings"
	"unicode"

	"github.com/dgallion1/slidestream/internal/deck"
	"github.com/dgallion1/slidestream/internal/markup"
)

type style struct {
	bold, italic, underline, strike bool
}

// runs extracts the inline runs of n in document order.
func (m *mapper) runs(n *markup.Node) []deck.Run {
	var out []deck.Run
	m.collectRuns(n, style{}, &out)
	return tidyRuns(out)
}

func (m *mapper) collectRuns(n *markup.Node, st style, out *[]deck.Run) {
	for _, part := range n.Parts {
		if part.Node == nil {
			if part.Text != "" {
				*out = append(*out, m.run(part.Text, st))
			}
			continue
		}
		child, cs := part.Node, st
		switch lookup(child) {
		case tagBold:
			cs.bold = true
		case tagItalic:
			cs.italic = true
		case tagUnderline:
			cs.underline = true
		case tagStrike:
			cs.strike = true
		case tagBreak:
			*out = append(*out, deck.Run{Text: "\n"})
			continue
		case tagIcon, tagImage:
			continue
		}
		m.collectRuns(child, cs, out)
	}
}

func (m *mapper) run(text string, st style) deck.Run {
	return deck.Run{
		Text:          text,
		Bold:          st.bold,
		Italic:        st.italic,
		Underline:     st.underline,
		Strikethrough: st.strike,
		Live:          m.live(text),
	}
}

// tidyRuns drops blank runs at either edge and trims the outer whitespace of
// what remains. Interior whitespace is left alone.
func tidyRuns(runs []deck.Run) []deck.Run {
	for len(runs) > 0 && strings.TrimSpace(runs[0].Text) == "" {
		runs = runs[1:]
	}
	for len(runs) > 0 && strings.TrimSpace(runs[len(runs)-1].Text) == "" {
		runs = runs[:len(runs)-1]
	}
	if len(runs) == 0 {
		return nil
	}
	runs[0].Text = strings.TrimLeftFunc(runs[0].Text, unicode.IsSpace)
	last := len(runs) - 1
	runs[last].Text = strings.TrimRightFunc(runs[last].Text, unicode.IsSpace)
	return runs
}
