package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/dgallion1/slidestream/internal/deck"
	"github.com/dgallion1/slidestream/internal/export"
	"github.com/dgallion1/slidestream/internal/outline"
	"github.com/dgallion1/slidestream/internal/parser"
	"github.com/dgallion1/slidestream/internal/replay"
	"github.com/dgallion1/slidestream/internal/sse"
)

type replayOptions struct {
	chunkSize  int
	tokens     int
	mode       string
	sse        bool
	fromMD     bool
	output     string
	noFinalize bool
	pace       time.Duration
}

func newReplayCmd(logger func(*cobra.Command) *slog.Logger) *cobra.Command {
	var opts replayOptions
	cmd := &cobra.Command{
		Use:   "replay [file|-]",
		Short: "Feed markup to the parser in progressive chunks and print the slides",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd, args, opts, logger(cmd))
		},
	}
	f := cmd.Flags()
	f.IntVar(&opts.chunkSize, "chunk-size", replay.DefaultConfig().ChunkSize, "Piece size in bytes")
	f.IntVar(&opts.tokens, "tokens", 0, "Piece size in token-like units (overrides --chunk-size)")
	f.StringVar(&opts.mode, "mode", string(replay.Cumulative), "Delivery mode: cumulative or delta")
	f.BoolVar(&opts.sse, "sse", false, "Input is a server-sent-event transcript; each text delta is one piece")
	f.BoolVar(&opts.fromMD, "markdown", false, "Input is a Markdown outline to convert first")
	f.StringVarP(&opts.output, "output", "o", "json", "Output format: json, markdown, terminal or html")
	f.BoolVar(&opts.noFinalize, "no-finalize", false, "Leave the trailing section open")
	f.DurationVar(&opts.pace, "pace", 0, "Delay between pieces, e.g. 50ms")
	return cmd
}

func runReplay(cmd *cobra.Command, args []string, opts replayOptions, log *slog.Logger) error {
	mode, err := replay.ParseMode(opts.mode)
	if err != nil {
		return err
	}
	cfg := replay.Config{
		ChunkSize: opts.chunkSize,
		Tokens:    opts.tokens,
		Mode:      mode,
		Pace:      opts.pace,
		Finalize:  !opts.noFinalize,
	}

	src, err := readInput(cmd, args)
	if err != nil {
		return err
	}
	pieces, err := inputPieces(cmd, src, opts, cfg)
	if err != nil {
		return err
	}

	p := parser.New(parser.WithLogger(log))
	res, err := replay.Run(cmd.Context(), p, pieces, cfg, func(s replay.Step) {
		log.Debug("replay step",
			"step", s.Index,
			"sent", s.Sent,
			"tokens", s.Tokens,
			"final", s.Final,
			"new_slides", len(s.Slides),
		)
	})
	if err != nil {
		return fmt.Errorf("replay: %w", err)
	}
	log.Info("replay complete",
		"steps", res.Steps,
		"slides", res.Slides,
		"bytes", res.Bytes,
		"elapsed", res.Elapsed.String(),
	)

	return writeSlides(cmd.OutOrStdout(), p.Slides(), opts.output)
}

// inputPieces turns the raw input into the pieces to deliver.
func inputPieces(cmd *cobra.Command, src []byte, opts replayOptions, cfg replay.Config) ([]string, error) {
	if opts.sse {
		var pieces []string
		skipped, err := sse.Drain(cmd.Context(), bytes.NewReader(src), func(text string) {
			pieces = append(pieces, text)
		})
		if err != nil {
			return nil, fmt.Errorf("decode stream: %w", err)
		}
		if skipped > 0 {
			fmt.Fprintf(cmd.ErrOrStderr(), "skipped %d malformed stream lines\n", skipped)
		}
		if opts.fromMD {
			return replay.Split(outline.Convert([]byte(strings.Join(pieces, ""))), cfg), nil
		}
		return pieces, nil
	}
	text := string(src)
	if opts.fromMD {
		text = outline.Convert(src)
	}
	return replay.Split(text, cfg), nil
}

func writeSlides(w io.Writer, slides []deck.Slide, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if slides == nil {
			slides = []deck.Slide{}
		}
		return enc.Encode(slides)
	case "markdown":
		_, err := io.WriteString(w, export.Markdown(slides))
		return err
	case "terminal":
		r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
		if err != nil {
			return fmt.Errorf("create renderer: %w", err)
		}
		out, err := r.Render(export.Markdown(slides))
		if err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		_, err = io.WriteString(w, out)
		return err
	case "html":
		page, err := export.HTMLDocument(slides, "slidectl replay")
		if err != nil {
			return err
		}
		_, err = io.WriteString(w, page)
		return err
	}
	return fmt.Errorf("unknown output format %q", format)
}
