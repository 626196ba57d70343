package sse

import "context"

// Chunk is one decoded piece of a model's text stream.
type Chunk struct {
	Content string
	Done    bool
	Error   error
}

// Parser turns a server-sent-event body into text chunks.
type Parser struct {
	ctx    context.Context
	chunks chan Chunk
}

func NewParser(ctx context.Context) *Parser {
	return &Parser{
		ctx:    ctx,
		chunks: make(chan Chunk),
	}
}

func (p *Parser) Chunks() <-chan Chunk {
	return p.chunks
}
