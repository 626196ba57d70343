package parser

import (
	"strings"

	"github.com/dgallion1/slidestream/internal/markup"
)

// tag is the closed vocabulary of the slide dialect.
type tag int

const (
	tagUnknown tag = iota
	tagSection
	tagH1
	tagH2
	tagH3
	tagH4
	tagH5
	tagH6
	tagParagraph
	tagImage
	tagGroup
	tagColumns
	tagBullets
	tagIcons
	tagIcon
	tagCycle
	tagStaircase
	tagChart
	tagTable
	tagTableSection
	tagRow
	tagCell
	tagValue
	tagArrows
	tagPyramid
	tagTimeline
	tagBold
	tagItalic
	tagUnderline
	tagStrike
	tagBreak
)

var tagNames = map[string]tag{
	"section":   tagSection,
	"h1":        tagH1,
	"h2":        tagH2,
	"h3":        tagH3,
	"h4":        tagH4,
	"h5":        tagH5,
	"h6":        tagH6,
	"p":         tagParagraph,
	"img":       tagImage,
	"div":       tagGroup,
	"columns":   tagColumns,
	"bullets":   tagBullets,
	"icons":     tagIcons,
	"icon":      tagIcon,
	"cycle":     tagCycle,
	"staircase": tagStaircase,
	"chart":     tagChart,
	"table":     tagTable,
	"thead":     tagTableSection,
	"tbody":     tagTableSection,
	"tr":        tagRow,
	"td":        tagCell,
	"th":        tagCell,
	"value":     tagValue,
	"arrows":    tagArrows,
	"pyramid":   tagPyramid,
	"timeline":  tagTimeline,
	"b":         tagBold,
	"strong":    tagBold,
	"i":         tagItalic,
	"em":        tagItalic,
	"u":         tagUnderline,
	"s":         tagStrike,
	"strike":    tagStrike,
	"br":        tagBreak,
}

func lookup(n *markup.Node) tag {
	return tagNames[strings.ToLower(n.Tag)]
}

func (t tag) headingLevel() int {
	if t >= tagH1 && t <= tagH6 {
		return int(t-tagH1) + 1
	}
	return 0
}

// inline reports whether t only ever contributes runs, never blocks.
func (t tag) inline() bool {
	switch t {
	case tagBold, tagItalic, tagUnderline, tagStrike, tagBreak, tagIcon, tagUnknown:
		return true
	}
	return false
}
