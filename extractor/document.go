package extractor

import (
	"bytes"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/citydesk/planex/model"
	"github.com/citydesk/planex/pdf"
)

var (
	// ErrDocumentClosed is returned by every operation on a handle
	// after Close.
	ErrDocumentClosed = errors.New("extractor: document is closed")

	// ErrPageOutOfRange is returned when a page index falls outside
	// [0, PageCount).
	ErrPageOutOfRange = errors.New("extractor: page index out of range")
)

// Document is an open drawing file. A Document is not safe for
// concurrent use; open one handle per goroutine.
type Document struct {
	reader   *pdf.Reader
	pages    []*pdf.Page
	data     []byte
	path     string
	closed   bool
	log      *slog.Logger
	renderer Renderer
}

// Option configures a Document.
type Option func(*Document)

// WithLogger sets the logger used for degraded-mode diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(d *Document) { d.log = l }
}

// WithRenderer replaces the default pdftoppm raster bridge.
func WithRenderer(r Renderer) Option {
	return func(d *Document) { d.renderer = r }
}

// Open reads and parses the drawing at path.
func Open(path string, opts ...Option) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	doc, err := OpenBytes(data, opts...)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	doc.path = path
	return doc, nil
}

// OpenBytes parses a drawing already held in memory.
func OpenBytes(data []byte, opts ...Option) (*Document, error) {
	if !bytes.Contains(head(data, 1024), []byte("%PDF-")) {
		return nil, fmt.Errorf("open: not a PDF file")
	}
	r, err := pdf.NewReader(data)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}
	pages, err := r.Pages()
	if err != nil {
		return nil, fmt.Errorf("open: page tree: %w", err)
	}
	if len(pages) == 0 {
		return nil, fmt.Errorf("open: document has no pages")
	}
	doc := &Document{
		reader:   r,
		pages:    pages,
		data:     data,
		renderer: NewPdftoppmRenderer(nil),
	}
	for _, opt := range opts {
		opt(doc)
	}
	if doc.log == nil {
		doc.log = slog.Default()
	}
	return doc, nil
}

func head(data []byte, n int) []byte {
	if len(data) < n {
		return data
	}
	return data[:n]
}

// Close releases the handle. Calling Close more than once is a no-op.
func (d *Document) Close() error {
	d.closed = true
	return nil
}

// PageCount returns the number of pages. It is valid on a closed
// handle and returns 0 then.
func (d *Document) PageCount() int {
	if d.closed {
		return 0
	}
	return len(d.pages)
}

func (d *Document) page(i int) (*pdf.Page, error) {
	if d.closed {
		return nil, ErrDocumentClosed
	}
	if i < 0 || i >= len(d.pages) {
		return nil, fmt.Errorf("%w: %d of %d", ErrPageOutOfRange, i, len(d.pages))
	}
	return d.pages[i], nil
}

// PageMetadata returns the dimensions and rotation of page i.
func (d *Document) PageMetadata(i int) (model.PageMetadata, error) {
	p, err := d.page(i)
	if err != nil {
		return model.PageMetadata{}, err
	}
	return model.PageMetadata{
		Index:    i,
		Width:    p.MediaBox[2] - p.MediaBox[0],
		Height:   p.MediaBox[3] - p.MediaBox[1],
		Rotation: p.Rotate,
	}, nil
}

// ExtractAll runs every extraction pass over page i.
func (d *Document) ExtractAll(i int) (*model.PageExtractionResult, error) {
	meta, err := d.PageMetadata(i)
	if err != nil {
		return nil, err
	}
	vectors, err := d.ExtractVectors(i)
	if err != nil {
		return nil, err
	}
	texts, err := d.ExtractText(i)
	if err != nil {
		return nil, err
	}
	images, err := d.ExtractImages(i, false)
	if err != nil {
		return nil, err
	}
	annots, err := d.ExtractAnnotations(i)
	if err != nil {
		return nil, err
	}
	return &model.PageExtractionResult{
		Metadata:    meta,
		Vectors:     vectors,
		Texts:       texts,
		Images:      images,
		Annotations: annots,
	}, nil
}

func (d *Document) contents(i int) ([]pdf.Op, *pdf.Page, error) {
	p, err := d.page(i)
	if err != nil {
		return nil, nil, err
	}
	data, err := d.reader.Contents(p)
	if err != nil {
		return nil, nil, fmt.Errorf("page %d: %w", i, err)
	}
	ops, err := pdf.ParseContent(data)
	if err != nil {
		return nil, nil, fmt.Errorf("page %d: %w", i, err)
	}
	return ops, p, nil
}
