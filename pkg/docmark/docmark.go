// Package docmark converts word-processing packages to Markdown. It wires
// the package reader, the AST extractor, the heading localizer and the
// Markdown renderer behind one converter, and lets callers substitute their
// own extractor or renderer implementations.
package docmark

import (
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/nerdneilsfield/go-docmark/internal/extract"
	"github.com/nerdneilsfield/go-docmark/internal/localize"
	"github.com/nerdneilsfield/go-docmark/internal/render"
	"github.com/nerdneilsfield/go-docmark/pkg/ast"
	"github.com/nerdneilsfield/go-docmark/pkg/ooxml"
)

// Stage identifies the pipeline stage an error originated from.
type Stage string

const (
	StageIo         Stage = "io"
	StageExtraction Stage = "extraction"
	StageRender     Stage = "render"
)

// Error tags an inner failure with its pipeline stage. Inner errors pass
// through unchanged and stay reachable via errors.Is and errors.As.
type Error struct {
	Stage Stage
	Err   error
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// ImageHandling selects how embedded images are materialized.
type ImageHandling int

const (
	// ImageInline embeds images as base64 data URIs.
	ImageInline ImageHandling = iota
	// ImageExtract writes images under Options.ImageOutputDir.
	ImageExtract
	// ImageSkip drops images from the output.
	ImageSkip
)

// Options configures a Converter.
type Options struct {
	// Language enables language-specific heading rules; "ko" turns on the
	// Korean legal-heading pass.
	Language string
	// ImageHandling selects the image materialization strategy.
	ImageHandling ImageHandling
	// ImageOutputDir is where ImageExtract writes assets.
	ImageOutputDir string
	// Logger receives structured pipeline logs. Nil means no logging.
	Logger *zap.Logger
}

// Extractor builds a document tree from a parsed package.
type Extractor interface {
	Extract(pkg *ooxml.Package) (*ast.Document, error)
}

// Renderer serializes a document tree to Markdown.
type Renderer interface {
	Render(doc *ast.Document) (string, error)
}

// Converter runs the conversion pipeline. A Converter is stateless across
// calls; independent conversions may run concurrently on one instance.
type Converter struct {
	opts      Options
	extractor Extractor
	renderer  Renderer
	localizer *localize.Localizer
	logger    *zap.Logger
}

// New creates a Converter using the default extractor and renderer.
func New(opts Options) *Converter {
	return NewWithComponents(opts, nil, nil)
}

// NewWithComponents creates a Converter with substitute pipeline stages. A
// nil extractor or renderer falls back to the default implementation.
func NewWithComponents(opts Options, extractor Extractor, renderer Renderer) *Converter {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	if extractor == nil {
		extractor = extract.New(logger)
	}
	if renderer == nil {
		renderer = render.New(render.Config{
			ImageMode: imageMode(opts.ImageHandling),
			ImageDir:  opts.ImageOutputDir,
		}, logger)
	}
	return &Converter{
		opts:      opts,
		extractor: extractor,
		renderer:  renderer,
		localizer: localize.New(logger),
		logger:    logger,
	}
}

func imageMode(h ImageHandling) render.ImageMode {
	switch h {
	case ImageExtract:
		return render.ImageExtract
	case ImageSkip:
		return render.ImageSkip
	default:
		return render.ImageInline
	}
}

// ConvertFile reads a package from disk and converts it. The returned
// Markdown has no trailing newline; callers writing files append one.
func (c *Converter) ConvertFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", &Error{Stage: StageIo, Err: err}
	}
	return c.Convert(data)
}

// Convert converts an in-memory package. On failure no partial Markdown is
// returned; the error carries the stage it came from.
func (c *Converter) Convert(data []byte) (string, error) {
	id := uuid.NewString()
	start := time.Now()
	logger := c.logger.With(zap.String("conversion_id", id))

	pkg, err := ooxml.Parse(data)
	if err != nil {
		logger.Error("package parse failed", zap.Error(err))
		return "", &Error{Stage: StageIo, Err: err}
	}

	doc, err := c.extractor.Extract(pkg)
	if err != nil {
		logger.Error("extraction failed", zap.Error(err))
		return "", &Error{Stage: StageExtraction, Err: err}
	}

	c.localizer.Apply(doc, c.opts.Language)

	markdown, err := c.renderer.Render(doc)
	if err != nil {
		logger.Error("render failed", zap.Error(err))
		return "", &Error{Stage: StageRender, Err: err}
	}

	logger.Info("conversion finished",
		zap.Int("blocks", len(doc.Blocks)),
		zap.Int("media_assets", len(doc.Media)),
		zap.Int("output_bytes", len(markdown)),
		zap.Duration("duration", time.Since(start)))
	return markdown, nil
}
