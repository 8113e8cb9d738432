package pdfdoc

import (
	"bytes"
	"context"
	"fmt"
	"image/png"
	"sync"

	"github.com/gen2brain/go-fitz"
)

// Renderer rasterizes PDF pages to PNG bytes. The underlying fitz document
// is opened lazily on first use, since most runs never need page images.
type Renderer struct {
	path string

	mu  sync.Mutex
	doc *fitz.Document
	err error
}

// NewRenderer creates a renderer for the document at path.
func NewRenderer(path string) *Renderer {
	return &Renderer{path: path}
}

// Render rasterizes one page (1-indexed) and encodes it as PNG.
func (r *Renderer) Render(ctx context.Context, page int) ([]byte, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.doc == nil && r.err == nil {
		r.doc, r.err = fitz.New(r.path)
	}
	if r.err != nil {
		return nil, fmt.Errorf("open document for rendering: %w", r.err)
	}

	if page < 1 || page > r.doc.NumPage() {
		return nil, fmt.Errorf("page %d out of range [1,%d]", page, r.doc.NumPage())
	}

	img, err := r.doc.Image(page - 1) // fitz pages are 0-indexed
	if err != nil {
		return nil, fmt.Errorf("rasterize page %d: %w", page, err)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode page %d: %w", page, err)
	}

	return buf.Bytes(), nil
}

// Close releases the fitz document if it was opened.
func (r *Renderer) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.doc != nil {
		err := r.doc.Close()
		r.doc = nil
		return err
	}
	return nil
}
