package parser

import "strings"

const (
	sectionOpen  = "<section"
	sectionClose = "</section>"
	wrapperOpen  = "<presentation"

	// syntheticClose is appended to sections that never closed on their own.
	syntheticClose = "</SECTION>"
)

// contentMarkers are the openers that make a force-closed section worth
// keeping. A section without any of them is noise.
var contentMarkers = []string{
	"<h1", "<h2", "<h3", "<h4", "<h5", "<h6",
	"<arrows", "<pyramid", "<timeline", "<chart",
}

// extraction is the result of one boundary scan over the buffer.
type extraction struct {
	sections  []string // completed sections, in input order
	forced    int      // sections closed because a newer one began
	discarded int      // unclosed spans dropped for lack of content
	rest      string   // unresolved remainder to keep buffering
}

// extractSections moves every fully resolved section out of buf.
//
// A section is complete when its close marker appears before the next
// section opener. When a new opener comes first, the old section is closed
// with a synthetic marker if it holds real content and dropped otherwise. A
// trailing section with neither a close marker nor a later opener stays in
// rest.
func extractSections(buf string) extraction {
	var res extraction
	lower := asciiLower(buf)
	cursor := skipWrapper(lower)
	keep := 0

	for {
		open := indexOpener(lower, cursor)
		if open < 0 {
			break
		}
		closeAt := indexFrom(lower, sectionClose, open)
		next := indexOpener(lower, open+len(sectionOpen))

		if closeAt >= 0 && (next < 0 || closeAt < next) {
			end := closeAt + len(sectionClose)
			res.sections = append(res.sections, buf[open:end])
			cursor, keep = end, end
			continue
		}
		if next >= 0 {
			if hasContent(lower[open:next]) {
				res.sections = append(res.sections, buf[open:next]+syntheticClose)
				res.forced++
			} else {
				res.discarded++
			}
			cursor, keep = next, next
			continue
		}

		// Still being written.
		keep = open
		break
	}

	res.rest = buf[keep:]
	return res
}

// trailingSection force-closes the open section left at the end of buf, if any.
func trailingSection(buf string) (string, bool) {
	open := indexOpener(asciiLower(buf), 0)
	if open < 0 {
		return "", false
	}
	return buf[open:] + syntheticClose, true
}

// skipWrapper returns the offset just past an optional leading wrapper tag and
// one comment directly after it. lower must already be lowercased.
func skipWrapper(lower string) int {
	i := skipSpace(lower, 0)
	if !strings.HasPrefix(lower[i:], wrapperOpen) {
		return 0
	}
	gt := strings.IndexByte(lower[i:], '>')
	if gt < 0 {
		return 0
	}
	i = skipSpace(lower, i+gt+1)
	if strings.HasPrefix(lower[i:], "<!--") {
		end := strings.Index(lower[i+4:], "-->")
		if end < 0 {
			return i
		}
		i += 4 + end + 3
	}
	return i
}

// indexOpener finds the next section opener at or after from. The opener must
// be followed by a tag delimiter or the end of input, so "<sections" does not
// count.
func indexOpener(lower string, from int) int {
	for from <= len(lower) {
		i := indexFrom(lower, sectionOpen, from)
		if i < 0 {
			return -1
		}
		after := i + len(sectionOpen)
		if after == len(lower) || isDelim(lower[after]) {
			return i
		}
		from = i + 1
	}
	return -1
}

func indexFrom(s, sub string, from int) int {
	if from > len(s) {
		return -1
	}
	i := strings.Index(s[from:], sub)
	if i < 0 {
		return -1
	}
	return from + i
}

func hasContent(lowerSpan string) bool {
	for _, m := range contentMarkers {
		if strings.Contains(lowerSpan, m) {
			return true
		}
	}
	return false
}

func skipSpace(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r') {
		i++
	}
	return i
}

func isDelim(c byte) bool {
	return c == '>' || c == '/' || c == ' ' || c == '\t' || c == '\n' || c == '\r'
}

// asciiLower lowercases ASCII letters only, so byte offsets into the result
// are valid offsets into s.
func asciiLower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}
