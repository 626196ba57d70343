// Package parser incrementally converts a streamed slide-markup document into
// typed slides while the document is still being generated.
//
// Input arrives either as a cumulative replay of everything generated so far
// or as new fragments. Each call buffers the input, moves every section that
// is provably complete out of the buffer, and maps it to a deck.Slide. Slides
// are appended in input order and never revised; a slide that is parsed again
// keeps its id, so a renderer can diff by id.
//
// A Parser is not safe for concurrent use. Callers own serialization, usually
// one parser per generation driven from a single goroutine.
package parser

import (
	"fmt"
	"log/slog"
	"slices"

	"github.com/google/uuid"

	"github.com/dgallion1/slidestream/internal/deck"
)

// Parser is a streaming slide parser for one generation session.
type Parser struct {
	log *slog.Logger

	// Session state, cleared by Reset.
	buffer  string   // unresolved input awaiting more text
	queue   []string // completed sections not yet mapped
	slides  []deck.Slide
	lastLen int    // length of the previous input
	input   string // previous input, for continuation checks
	latest  string // most recent raw input, for live tracking; cleared by Finalize

	// ids is deliberately exempt from Reset. A caller that restarts the same
	// logical session must see the same ids for the same slides, so the
	// fingerprint cache lives as long as the Parser itself.
	ids *identities

	mapper mapper
}

// Option configures a Parser.
type Option func(*Parser)

// WithLogger sets the logger. The default discards everything.
func WithLogger(log *slog.Logger) Option {
	return func(p *Parser) {
		if log != nil {
			p.log = log
		}
	}
}

// WithIDGenerator sets the generator for ids of slides that have no section
// to fingerprint.
func WithIDGenerator(gen func() string) Option {
	return func(p *Parser) {
		if gen != nil {
			p.mapper.newID = gen
		}
	}
}

// New creates a Parser.
func New(opts ...Option) *Parser {
	p := &Parser{
		log: slog.New(slog.DiscardHandler),
		ids: newIdentities(),
	}
	p.mapper = mapper{
		ids:   p.ids,
		newID: func() string { return uuid.Must(uuid.NewV7()).String() },
		live:  func(text string) bool { return isLive(p.latest, text) },
	}
	for _, o := range opts {
		o(p)
	}
	return p
}

// Submit feeds the next input. A chunk that extends the previous input is
// treated as a continuation; any other chunk replaces the buffer. Submit
// returns the slides completed by this call only.
func (p *Parser) Submit(chunk string) []deck.Slide {
	p.reconcile(chunk)
	p.extract()
	return p.drain()
}

// SubmitDelta feeds a fragment that follows the previous input.
func (p *Parser) SubmitDelta(fragment string) []deck.Slide {
	return p.Submit(p.input + fragment)
}

// Finalize closes whatever section is still open, maps it, and stops marking
// runs live. It returns the slides completed by this call only.
func (p *Parser) Finalize() []deck.Slide {
	p.extract()
	if section, ok := trailingSection(p.buffer); ok {
		p.log.Debug("force-closing trailing section at finalize", "bytes", len(section))
		p.queue = append(p.queue, section)
	}
	p.buffer = ""
	out := p.drain()
	p.latest = ""
	return out
}

// Slides returns every slide emitted so far, in input order.
func (p *Parser) Slides() []deck.Slide {
	return slices.Clone(p.slides)
}

// Reset clears all session state except the fingerprint-to-id cache.
func (p *Parser) Reset() {
	p.buffer = ""
	p.queue = nil
	p.slides = nil
	p.lastLen = 0
	p.input = ""
	p.latest = ""
}

// ClearLiveMarks strips the live mark from every run of every emitted slide.
func (p *Parser) ClearLiveMarks() {
	for i := range p.slides {
		p.slides[i].ClearLive()
	}
}

// Pending returns the number of buffered bytes not yet resolved into a section.
func (p *Parser) Pending() int {
	return len(p.buffer)
}

// KnownSlides returns the number of distinct fingerprints seen.
func (p *Parser) KnownSlides() int {
	return p.ids.len()
}

func (p *Parser) extract() {
	res := extractSections(p.buffer)
	if len(res.sections) > 0 || res.discarded > 0 {
		p.log.Debug("extracted sections",
			"completed", len(res.sections),
			"forced", res.forced,
			"discarded", res.discarded,
			"pending_bytes", len(res.rest))
	}
	p.queue = append(p.queue, res.sections...)
	p.buffer = res.rest
}

// drain maps every queued section. A section that fails to map is logged and
// skipped; it never affects other sections.
func (p *Parser) drain() []deck.Slide {
	var out []deck.Slide
	for len(p.queue) > 0 {
		section := p.queue[0]
		p.queue = p.queue[1:]

		slide, err := p.mapSafely(section)
		if err != nil {
			p.log.Warn("skipping section", "error", err, "bytes", len(section))
			continue
		}
		p.slides = append(p.slides, slide)
		out = append(out, slide)
	}
	p.queue = nil
	return out
}

func (p *Parser) mapSafely(section string) (slide deck.Slide, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("map section: %v", r)
		}
	}()
	return p.mapper.mapSection(section), nil
}
