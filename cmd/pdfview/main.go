// Command pdfview renders a page with its annotations to PNG, dumps the
// extracted text runs or prints document information.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"image/png"
	"io"
	"log/slog"
	"os"
	"os/signal"

	"golang.org/x/term"

	"github.com/wudi/pdfview/document"
	"github.com/wudi/pdfview/edit"
	"github.com/wudi/pdfview/observability"
	"github.com/wudi/pdfview/ocr/tesseract"
	"github.com/wudi/pdfview/overlay"
	"github.com/wudi/pdfview/raster"
	"github.com/wudi/pdfview/textrun"
)

type mode int

const (
	modeRender mode = iota
	modeText
	modeInfo
)

type options struct {
	source   string
	mode     mode
	page     int
	scale    float64
	rotation int
	edits    string
	selectID string
	out      string
	ocr      bool
	verbose  bool
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "pdfview: %v\n", err)
		os.Exit(2)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := run(ctx, opts, os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "pdfview: %v\n", err)
		var remedy interface{ Remedy() string }
		if errors.As(err, &remedy) {
			fmt.Fprintln(os.Stderr, remedy.Remedy())
		}
		os.Exit(1)
	}
}

func parseFlags(args []string) (options, error) {
	var opts options
	fs := flag.NewFlagSet("pdfview", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: pdfview [flags] <pdf path or URL>\n")
		fs.PrintDefaults()
	}
	fs.IntVar(&opts.page, "page", 1, "Page to render (clamped to the document)")
	fs.Float64Var(&opts.scale, "scale", 1, "Zoom factor; 1 is 72 dpi")
	fs.IntVar(&opts.rotation, "rotate", 0, "Clockwise rotation: 0, 90, 180 or 270")
	fs.StringVar(&opts.edits, "edits", "", "JSON file of edits to draw over the page")
	fs.StringVar(&opts.selectID, "select", "", "Text item id to draw selected")
	fs.StringVar(&opts.out, "out", "", "PNG output file; stdout when empty")
	text := fs.Bool("text", false, "Print extracted text items as JSON")
	info := fs.Bool("info", false, "Print page count, page sizes and title")
	fs.BoolVar(&opts.ocr, "ocr", false, "Recognize pages without a text layer with tesseract")
	fs.BoolVar(&opts.verbose, "v", false, "Debug logging")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() != 1 {
		fs.Usage()
		return options{}, fmt.Errorf("missing pdf source")
	}
	opts.source = fs.Arg(0)
	switch {
	case *text && *info:
		return options{}, fmt.Errorf("-text and -info are exclusive")
	case *text:
		opts.mode = modeText
	case *info:
		opts.mode = modeInfo
	}
	return opts, nil
}

func newLogger(w io.Writer, verbose bool) observability.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return observability.NewSlogLogger(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

func run(ctx context.Context, opts options, stdout, stderr io.Writer) error {
	logger := newLogger(stderr, opts.verbose)
	h, err := document.NewLoader(document.Config{Logger: logger}).Open(ctx, opts.source)
	if err != nil {
		return err
	}
	switch opts.mode {
	case modeInfo:
		return printInfo(stdout, h)
	case modeText:
		items, err := extract(ctx, opts, h, logger)
		if err != nil {
			return err
		}
		enc := json.NewEncoder(stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(items)
	}
	return render(ctx, opts, h, logger, stdout)
}

func extract(ctx context.Context, opts options, h *document.Handle, logger observability.Logger) ([]textrun.TextItem, error) {
	cfg := textrun.Config{Logger: logger}
	if opts.ocr {
		cfg.OCR = tesseract.New()
	}
	return textrun.NewExtractor(cfg).ExtractAll(ctx, h)
}

type pageInfo struct {
	Page   int     `json:"page"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Rotate int     `json:"rotate"`
}

func printInfo(w io.Writer, h *document.Handle) error {
	info := struct {
		Title   string     `json:"title,omitempty"`
		Author  string     `json:"author,omitempty"`
		Version string     `json:"version"`
		Pages   []pageInfo `json:"pages"`
	}{Title: h.Info().Title, Author: h.Info().Author, Version: h.Version()}
	for n := 1; n <= h.PageCount(); n++ {
		box, rot, err := h.PageBox(n)
		if err != nil {
			return err
		}
		info.Pages = append(info.Pages, pageInfo{Page: n, Width: box.Width(), Height: box.Height(), Rotate: rot})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(info)
}

func render(ctx context.Context, opts options, h *document.Handle, logger observability.Logger, stdout io.Writer) error {
	page := document.Clamp(opts.page, h.PageCount())
	var edits []edit.Edit
	if opts.edits != "" {
		data, err := os.ReadFile(opts.edits)
		if err != nil {
			return fmt.Errorf("read edits: %w", err)
		}
		if edits, err = edit.Unmarshal(data); err != nil {
			return fmt.Errorf("parse edits: %w", err)
		}
	}

	buf, err := raster.NewRenderer(raster.Options{Logger: logger}).Render(ctx, h, page, opts.scale, opts.rotation)
	if err != nil {
		return err
	}
	items, err := extract(ctx, opts, h, logger)
	if err != nil {
		return err
	}
	store := textrun.NewStore(items)
	store.ApplyEdits(edits)

	ov, err := overlay.NewRenderer(overlay.Style{})
	if err != nil {
		return err
	}
	layer := ov.Composite(page, buf.Viewport, edits, store.Page(page), opts.selectID)
	img, err := overlay.Flatten(buf.Image, layer)
	if err != nil {
		return err
	}

	w := stdout
	if opts.out != "" {
		f, err := os.Create(opts.out)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	} else if f, ok := stdout.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		return fmt.Errorf("refusing to write PNG to a terminal; use -out or redirect stdout")
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("encode png: %w", err)
	}
	logger.Debug("page written", observability.Int("page", page), observability.String("viewport", buf.Viewport.String()))
	return nil
}
