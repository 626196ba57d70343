// Package markup lexes and parses the slide markup dialect into a generic tree.
//
// The dialect is a small, HTML-like tag vocabulary produced by a model while
// it is still generating, so every input may stop at an arbitrary byte. The
// tokenizer never fails: an unterminated tag becomes trailing text, an
// unterminated comment swallows the rest of the input, and an attribute whose
// quote never closes is left out of the attribute map. The opening tag text is
// kept verbatim on every token so callers can check whether a tag was fully
// written.
package markup

import "strings"

// TokenType identifies a kind of token.
type TokenType int

const (
	EOFToken TokenType = iota
	TextToken
	StartTagToken
	EndTagToken
	SelfClosingTagToken
)

func (t TokenType) String() string {
	switch t {
	case EOFToken:
		return "EOF"
	case TextToken:
		return "Text"
	case StartTagToken:
		return "StartTag"
	case EndTagToken:
		return "EndTag"
	case SelfClosingTagToken:
		return "SelfClosingTag"
	}
	return "Unknown"
}

// Token is one lexical unit of markup.
type Token struct {
	Type  TokenType
	Name  string            // tag name as written (tags only)
	Attrs map[string]string // lowercased keys (start and self-closing tags only)
	Data  string            // text content (text tokens only)
	Raw   string            // the tag exactly as written, including '<' and '>'
}

// voidTags never take children, even when written without a trailing slash.
var voidTags = map[string]bool{
	"img":  true,
	"icon": true,
	"br":   true,
}

// Tokenizer splits a markup string into tokens.
type Tokenizer struct {
	s   string
	pos int
}

// NewTokenizer returns a Tokenizer over s.
func NewTokenizer(s string) *Tokenizer {
	return &Tokenizer{s: s}
}

// Next returns the next token. Once the input is exhausted it keeps returning
// an EOFToken.
func (z *Tokenizer) Next() Token {
	for z.pos < len(z.s) {
		rest := z.s[z.pos:]
		lt := strings.IndexByte(rest, '<')
		if lt > 0 {
			z.pos += lt
			return Token{Type: TextToken, Data: rest[:lt]}
		}
		if lt < 0 {
			z.pos = len(z.s)
			return Token{Type: TextToken, Data: rest}
		}

		// rest starts with '<'.
		if strings.HasPrefix(rest, "<!--") {
			end := strings.Index(rest[4:], "-->")
			if end < 0 {
				z.pos = len(z.s)
				return Token{Type: EOFToken}
			}
			z.pos += 4 + end + 3
			continue
		}

		gt := strings.IndexByte(rest, '>')
		if gt < 0 {
			// Unterminated tag: hand back the tail as text and stop.
			z.pos = len(z.s)
			return Token{Type: TextToken, Data: rest}
		}
		raw := rest[:gt+1]
		inner := rest[1:gt]

		switch {
		case strings.HasPrefix(inner, "!"), strings.HasPrefix(inner, "?"):
			// Doctype or processing instruction.
			z.pos += gt + 1
			continue
		case strings.HasPrefix(inner, "/"):
			name := tagName(inner[1:])
			if name == "" {
				return z.literalLT()
			}
			z.pos += gt + 1
			return Token{Type: EndTagToken, Name: name, Raw: raw}
		}

		name := tagName(inner)
		if name == "" {
			return z.literalLT()
		}
		z.pos += gt + 1
		body := strings.TrimSpace(inner[len(name):])
		typ := StartTagToken
		if strings.HasSuffix(body, "/") {
			typ = SelfClosingTagToken
			body = strings.TrimSuffix(body, "/")
		} else if voidTags[strings.ToLower(name)] {
			typ = SelfClosingTagToken
		}
		return Token{Type: typ, Name: name, Attrs: parseAttrs(body), Raw: raw}
	}
	return Token{Type: EOFToken}
}

// literalLT emits a '<' that opens no tag as one byte of text, so the scan
// resumes right after it and a following tag is still seen.
func (z *Tokenizer) literalLT() Token {
	z.pos++
	return Token{Type: TextToken, Data: "<"}
}

// tagName returns the leading tag name of s, or "" if s does not start with
// one. A name starts with an ASCII letter.
func tagName(s string) string {
	if s == "" || !isLetter(s[0]) {
		return ""
	}
	end := 0
	for end < len(s) {
		c := s[end]
		if isSpace(c) || c == '/' || c == '>' || c == '=' || c == '"' || c == '\'' || c == '<' {
			break
		}
		end++
	}
	return s[:end]
}

// parseAttrs reads name="value" pairs. Parsing stops at the first value whose
// quote is never closed; that key and everything after it are dropped.
func parseAttrs(s string) map[string]string {
	attrs := make(map[string]string)
	i := 0
	for i < len(s) {
		for i < len(s) && (isSpace(s[i]) || s[i] == '/') {
			i++
		}
		start := i
		for i < len(s) && !isSpace(s[i]) && s[i] != '=' && s[i] != '/' {
			i++
		}
		key := strings.ToLower(s[start:i])
		for i < len(s) && isSpace(s[i]) {
			i++
		}
		if i >= len(s) || s[i] != '=' {
			if key != "" {
				attrs[key] = ""
			}
			continue
		}
		i++ // '='
		for i < len(s) && isSpace(s[i]) {
			i++
		}
		if i >= len(s) {
			break
		}
		if q := s[i]; q == '"' || q == '\'' {
			end := strings.IndexByte(s[i+1:], q)
			if end < 0 {
				break
			}
			if key != "" {
				attrs[key] = s[i+1 : i+1+end]
			}
			i += end + 2
			continue
		}
		start = i
		for i < len(s) && !isSpace(s[i]) {
			i++
		}
		if key != "" {
			attrs[key] = s[start:i]
		}
	}
	return attrs
}

func isLetter(c byte) bool {
	return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z')
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r' || c == '\f'
}
