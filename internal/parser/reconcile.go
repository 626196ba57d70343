package parser

import "strings"

// reconcile folds chunk into the buffer. A chunk that extends the previous
// input is a continuation and only its new tail is buffered; anything else
// replaces the buffer outright.
func (p *Parser) reconcile(chunk string) {
	if len(chunk) >= p.lastLen && strings.HasPrefix(chunk, p.input) {
		p.buffer += chunk[p.lastLen:]
	} else {
		p.log.Debug("input is not a continuation, replacing buffer",
			"previous_bytes", p.lastLen, "bytes", len(chunk))
		p.buffer = chunk
	}
	p.lastLen = len(chunk)
	p.input = chunk
	p.latest = chunk
}
