package sse

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
)

// ErrMalformed marks a data line that was not valid event JSON. The stream
// continues after it.
var ErrMalformed = errors.New("malformed event")

// event covers both stream shapes seen in practice: chat-completion deltas
// (choices[].delta.content) and message-stream events
// (content_block_delta with delta.text).
type event struct {
	Type    string `json:"type"`
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Delta struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"delta"`
	Error *struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	} `json:"error"`
}

func (e *event) text() string {
	if len(e.Choices) > 0 {
		if c := e.Choices[0].Delta.Content; c != "" {
			return c
		}
		return e.Choices[0].Message.Content
	}
	if e.Type == "content_block_delta" {
		return e.Delta.Text
	}
	return ""
}

// Process reads body until EOF, a terminal event, or cancellation, and closes
// the chunk channel when done. Malformed data lines are reported in-band and
// skipped.
func (p *Parser) Process(body io.Reader) {
	defer close(p.chunks)

	reader := bufio.NewReaderSize(body, 4096)
	scanner := bufio.NewScanner(reader)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	scanner.Split(bufio.ScanLines)

	for {
		if err := p.ctx.Err(); err != nil {
			p.send(Chunk{Error: err})
			return
		}
		if !scanner.Scan() {
			if err := scanner.Err(); err != nil {
				p.send(Chunk{Error: err})
			}
			return
		}

		line := scanner.Text()
		if !strings.HasPrefix(line, "data:") {
			// Blank separators, event names, comments and ids.
			continue
		}
		data := strings.TrimSpace(strings.TrimPrefix(line, "data:"))
		if data == "" {
			continue
		}
		if data == "[DONE]" {
			p.send(Chunk{Done: true})
			return
		}

		var ev event
		if err := json.Unmarshal([]byte(data), &ev); err != nil {
			if !p.send(Chunk{Error: fmt.Errorf("%w: %w", ErrMalformed, err)}) {
				return
			}
			continue
		}

		switch ev.Type {
		case "message_stop":
			p.send(Chunk{Done: true})
			return
		case "error":
			msg := "unknown error"
			if ev.Error != nil {
				msg = ev.Error.Type + ": " + ev.Error.Message
			}
			p.send(Chunk{Error: fmt.Errorf("stream error: %s", msg)})
			return
		}

		if content := ev.text(); content != "" {
			if !p.send(Chunk{Content: content}) {
				return
			}
		}
	}
}

// send delivers c unless the context ends first.
func (p *Parser) send(c Chunk) bool {
	select {
	case p.chunks <- c:
		return true
	case <-p.ctx.Done():
		return false
	}
}

// Drain decodes body and calls onContent for each text chunk in order. It
// returns the number of malformed lines skipped and the first error that ended
// the stream.
func Drain(ctx context.Context, body io.Reader, onContent func(string)) (int, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := NewParser(ctx)
	go p.Process(body)

	skipped := 0
	for c := range p.Chunks() {
		switch {
		case errors.Is(c.Error, ErrMalformed):
			skipped++
		case c.Error != nil:
			cancel()
			for range p.Chunks() {
			}
			return skipped, c.Error
		case c.Done:
		default:
			onContent(c.Content)
		}
	}
	return skipped, ctx.Err()
}
