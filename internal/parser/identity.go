package parser

import (
	"crypto/sha256"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"

	"github.com/dgallion1/slidestream/internal/markup"
)

// slideNamespace scopes the name-based UUIDs derived from fingerprints.
var slideNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://github.com/dgallion1/slidestream/slide"))

// fingerprint derives the string that recognizes the same logical slide
// across re-parses. In order of preference: the first level-1 heading's text,
// the section's attributes plus its first three child tags, a hash of the
// section markup.
func fingerprint(sec *markup.Node, source string) string {
	if h := firstH1(sec); h != nil {
		if text := strings.TrimSpace(h.InnerText()); text != "" {
			return "h1:" + norm.NFC.String(text)
		}
	}

	if len(sec.Attrs) > 0 || len(sec.Children) > 0 {
		keys := make([]string, 0, len(sec.Attrs))
		for k := range sec.Attrs {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		var sb strings.Builder
		sb.WriteString("struct:")
		for _, k := range keys {
			sb.WriteString(k)
			sb.WriteByte('=')
			sb.WriteString(sec.Attrs[k])
			sb.WriteByte(';')
		}
		sb.WriteByte('|')
		for i, c := range sec.Children {
			if i == 3 {
				break
			}
			if i > 0 {
				sb.WriteByte(',')
			}
			sb.WriteString(strings.ToLower(c.Tag))
		}
		return sb.String()
	}

	sum := sha256.Sum256([]byte(source))
	return fmt.Sprintf("hash:%x", sum[:])
}

// firstH1 looks through the section's children, and one level into grouping
// wrappers, for the first level-1 heading.
func firstH1(sec *markup.Node) *markup.Node {
	for _, c := range sec.Children {
		switch lookup(c) {
		case tagH1:
			return c
		case tagGroup:
			if h := c.Find("h1"); h != nil {
				return h
			}
		}
	}
	return nil
}

// identities binds fingerprints to stable slide ids.
type identities struct {
	ids map[string]string
}

func newIdentities() *identities {
	return &identities{ids: make(map[string]string)}
}

// resolve returns the id issued for fp, issuing one on first sight. Ids are
// name-based UUIDs, so separate parsers agree on them as well.
func (s *identities) resolve(fp string) string {
	if id, ok := s.ids[fp]; ok {
		return id
	}
	id := uuid.NewSHA1(slideNamespace, []byte(fp)).String()
	s.ids[fp] = id
	return id
}

func (s *identities) len() int {
	return len(s.ids)
}
