// Package replay simulates a generation stream: it cuts a finished markup
// document into progressive pieces and feeds them to a parser the way a
// model's output would arrive.
package replay

import (
	"context"
	"fmt"
	"time"
	"unicode/utf8"

	"github.com/dgallion1/slidestream/internal/deck"
)

// Mode selects how pieces are delivered.
type Mode string

const (
	// Cumulative submits everything generated so far on every step.
	Cumulative Mode = "cumulative"
	// Delta submits only the new piece.
	Delta Mode = "delta"
)

// ParseMode validates a mode name. Empty means Cumulative.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", Cumulative:
		return Cumulative, nil
	case Delta:
		return Delta, nil
	}
	return "", fmt.Errorf("unknown replay mode %q", s)
}

// Config controls splitting and delivery.
type Config struct {
	ChunkSize int           // Piece size in bytes. Ignored when Tokens is set.
	Tokens    int           // Piece size in token-like units.
	Mode      Mode          // Delivery mode.
	Pace      time.Duration // Delay between pieces; zero replays as fast as possible.
	Finalize  bool          // Call Finalize after the last piece.
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		ChunkSize: 64,
		Mode:      Cumulative,
		Finalize:  true,
	}
}

// Target is the parser surface a replay drives.
type Target interface {
	Submit(chunk string) []deck.Slide
	SubmitDelta(fragment string) []deck.Slide
	Finalize() []deck.Slide
}

// Step describes one delivered piece.
type Step struct {
	Index  int
	Piece  string
	Sent   int // cumulative bytes delivered, including this piece
	Tokens int // estimated tokens in this piece
	Final  bool
	Slides []deck.Slide // slides completed by this step
}

// Result summarizes a replay.
type Result struct {
	Steps   int
	Slides  int
	Bytes   int
	Elapsed time.Duration
}

// Split cuts text into pieces per cfg. Byte-sized pieces never split a UTF-8
// sequence. Concatenating the pieces always yields text.
func Split(text string, cfg Config) []string {
	if text == "" {
		return nil
	}
	if cfg.Tokens > 0 {
		return splitByTokens(text, cfg.Tokens)
	}
	size := cfg.ChunkSize
	if size <= 0 {
		size = DefaultConfig().ChunkSize
	}
	return splitByBytes(text, size)
}

func splitByBytes(text string, size int) []string {
	var pieces []string
	for len(text) > 0 {
		end := min(size, len(text))
		for end < len(text) && !utf8.RuneStart(text[end]) {
			end++
		}
		pieces = append(pieces, text[:end])
		text = text[end:]
	}
	return pieces
}

func splitByTokens(text string, n int) []string {
	units := splitTokens(text)
	var pieces []string
	for i := 0; i < len(units); i += n {
		end := min(i+n, len(units))
		var piece string
		for _, u := range units[i:end] {
			piece += u
		}
		pieces = append(pieces, piece)
	}
	return pieces
}

// Run feeds pieces to target in order, calling onStep after each one. It stops
// early with the context's error if ctx is cancelled between pieces.
func Run(ctx context.Context, target Target, pieces []string, cfg Config, onStep func(Step)) (Result, error) {
	start := time.Now()
	var (
		res  Result
		sent string
	)

	for i, piece := range pieces {
		if i > 0 && cfg.Pace > 0 {
			t := time.NewTimer(cfg.Pace)
			select {
			case <-ctx.Done():
				t.Stop()
				res.Elapsed = time.Since(start)
				return res, ctx.Err()
			case <-t.C:
			}
		}
		if err := ctx.Err(); err != nil {
			res.Elapsed = time.Since(start)
			return res, err
		}

		sent += piece
		var slides []deck.Slide
		if cfg.Mode == Delta {
			slides = target.SubmitDelta(piece)
		} else {
			slides = target.Submit(sent)
		}

		res.Steps++
		res.Slides += len(slides)
		res.Bytes = len(sent)
		if onStep != nil {
			onStep(Step{
				Index:  i,
				Piece:  piece,
				Sent:   len(sent),
				Tokens: EstimateTokens(piece),
				Slides: slides,
			})
		}
	}

	if cfg.Finalize {
		slides := target.Finalize()
		res.Slides += len(slides)
		if onStep != nil {
			onStep(Step{Index: len(pieces), Sent: len(sent), Final: true, Slides: slides})
		}
	}

	res.Elapsed = time.Since(start)
	return res, nil
}
