// Package export renders parsed slides as Markdown or as a standalone HTML
// preview page.
package export

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dgallion1/slidestream/internal/deck"
)

// slideBreak separates slides in Markdown output.
const slideBreak = "\n---\n\n"

// Markdown renders slides as one Markdown document, slides separated by a
// thematic break.
func Markdown(slides []deck.Slide) string {
	var sb strings.Builder
	for i, s := range slides {
		if i > 0 {
			sb.WriteString(slideBreak)
		}
		writeSlide(&sb, s)
	}
	return sb.String()
}

func writeSlide(sb *strings.Builder, s deck.Slide) {
	if s.RootImage != nil {
		fmt.Fprintf(sb, "![%s](%s)\n\n", s.RootImage.Query, s.RootImage.URL)
	}
	for _, n := range s.Content {
		writeBlock(sb, n, "")
	}
}

// writeBlock writes one node. indent prefixes every line so nested content
// lines up under its list marker.
func writeBlock(sb *strings.Builder, n deck.Node, indent string) {
	switch v := n.(type) {
	case *deck.Heading:
		fmt.Fprintf(sb, "%s%s %s\n\n", indent, strings.Repeat("#", v.Level), inlineMarkdown(v.Runs))
	case *deck.Paragraph:
		text := inlineMarkdown(v.Runs)
		text = strings.ReplaceAll(text, "\n", "\n"+indent)
		fmt.Fprintf(sb, "%s%s\n\n", indent, text)
	case *deck.Image:
		fmt.Fprintf(sb, "%s![%s](%s)\n\n", indent, v.Query, v.URL)
	case *deck.Columns:
		for i, col := range v.Columns {
			fmt.Fprintf(sb, "%s**Column %d**\n\n", indent, i+1)
			for _, c := range col {
				writeBlock(sb, c, indent)
			}
		}
	case *deck.ItemGroup:
		for i, it := range v.Items {
			marker := "- "
			if v.Kind == deck.GroupCycle || v.Kind == deck.GroupStaircase {
				marker = strconv.Itoa(i+1) + ". "
			}
			if it.Icon != "" {
				marker += "[" + it.Icon + "] "
			}
			writeItem(sb, indent, marker, it.Content)
		}
		sb.WriteString("\n")
	case *deck.Visualization:
		fmt.Fprintf(sb, "%s*%s*\n\n", indent, v.Kind)
		for i, it := range v.Items {
			writeItem(sb, indent, strconv.Itoa(i+1)+". ", it)
		}
		sb.WriteString("\n")
	case *deck.Chart:
		fmt.Fprintf(sb, "%s*%s chart*\n\n", indent, v.ChartType)
		fmt.Fprintf(sb, "%s| Label | Value |\n%s| --- | ---: |\n", indent, indent)
		for _, d := range v.Data {
			fmt.Fprintf(sb, "%s| %s | %s |\n", indent, escapeCell(d.Label), strconv.FormatFloat(d.Value, 'f', -1, 64))
		}
		sb.WriteString("\n")
	}
}

// writeItem writes a list item: the first text block follows the marker and
// anything else is nested beneath it.
func writeItem(sb *strings.Builder, indent, marker string, content []deck.Node) {
	nested := indent + strings.Repeat(" ", len(marker))
	first := ""
	rest := content
	if len(content) > 0 {
		switch v := content[0].(type) {
		case *deck.Paragraph:
			first, rest = inlineMarkdown(v.Runs), content[1:]
		case *deck.Heading:
			first, rest = "**"+deck.Text(v.Runs)+"**", content[1:]
		}
	}
	fmt.Fprintf(sb, "%s%s%s\n", indent, marker, strings.ReplaceAll(first, "\n", "\n"+nested))
	if len(rest) > 0 {
		sb.WriteString("\n")
		for _, n := range rest {
			writeBlock(sb, n, nested)
		}
	}
}

// inlineMarkdown renders runs with emphasis markers. Underline has no Markdown
// form and is written as plain text. A line break becomes a hard break.
func inlineMarkdown(runs []deck.Run) string {
	var sb strings.Builder
	for _, r := range runs {
		if r.Text == "\n" {
			sb.WriteString("  \n")
			continue
		}
		text := r.Text
		core := strings.TrimSpace(text)
		if core == "" {
			sb.WriteString(text)
			continue
		}
		lead := text[:strings.Index(text, core)]
		trail := text[len(lead)+len(core):]

		open, closing := "", ""
		if r.Bold {
			open, closing = open+"**", "**"+closing
		}
		if r.Italic {
			open, closing = open+"*", "*"+closing
		}
		if r.Strikethrough {
			open, closing = open+"~~", "~~"+closing
		}
		sb.WriteString(lead + open + core + closing + trail)
	}
	return sb.String()
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
