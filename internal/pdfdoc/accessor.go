// Package pdfdoc opens PDF documents and exposes per-page content handles
// to the extraction pipeline.
package pdfdoc

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/ledongthuc/pdf"

	"github.com/skillforge/extraction-engine/internal/domain"
)

// Accessor is an open PDF document implementing domain.Source. Errors at
// this layer are terminal for the whole run: a document cannot be partially
// opened.
type Accessor struct {
	path        string
	file        *os.File
	reader      *pdf.Reader
	renderer    *Renderer
	contentHash string
	encrypted   bool

	// The underlying reader is not safe for concurrent page access.
	mu sync.Mutex
}

// Open opens a PDF document, handling encryption. An encrypted document
// with no password fails with a missing-password error; a supplied but
// rejected password fails with an invalid-password error.
func Open(path, password string) (*Accessor, error) {
	if strings.TrimSpace(path) == "" {
		return nil, domain.ValidationError("file path cannot be empty", nil)
	}

	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, domain.ValidationError(fmt.Sprintf("file does not exist: %s", path), err)
		}
		return nil, domain.IOError(fmt.Sprintf("cannot access file: %s", path), err)
	}
	if info.IsDir() {
		return nil, domain.ValidationError(fmt.Sprintf("path is a directory, not a file: %s", path), nil)
	}
	if ext := strings.ToLower(filepath.Ext(path)); ext != ".pdf" {
		return nil, domain.ValidationError(fmt.Sprintf("file is not a PDF (has extension %s)", ext), nil)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, domain.IOError(fmt.Sprintf("cannot open file: %s", path), err)
	}

	contentHash, err := hashFile(f)
	if err != nil {
		f.Close()
		return nil, domain.IOError("hash document content", err)
	}

	// The password callback only fires for encrypted documents: it hands
	// over the supplied password once, then gives up with "".
	attempted := false
	reader, err := pdf.NewReaderEncrypted(f, info.Size(), func() string {
		if attempted {
			return ""
		}
		attempted = true
		return password
	})
	if err != nil {
		f.Close()
		return nil, mapOpenError(err, password)
	}

	return &Accessor{
		path:        path,
		file:        f,
		reader:      reader,
		renderer:    NewRenderer(path),
		contentHash: contentHash,
		encrypted:   attempted,
	}, nil
}

// mapOpenError translates reader errors into the document error taxonomy.
func mapOpenError(err error, password string) error {
	if errors.Is(err, pdf.ErrInvalidPassword) {
		if password == "" {
			return domain.MissingPasswordError("document is encrypted and no password was supplied")
		}
		return domain.InvalidPasswordError("supplied password was rejected", err)
	}
	return domain.IOError("open PDF document", err)
}

// PageCount returns the number of pages in the document.
func (a *Accessor) PageCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.reader.NumPage()
}

// PageText extracts the raw text of one page. Pages are 1-indexed.
func (a *Accessor) PageText(ctx context.Context, page int) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	if page < 1 || page > a.reader.NumPage() {
		return "", fmt.Errorf("page %d out of range [1,%d]", page, a.reader.NumPage())
	}

	p := a.reader.Page(page)
	if p.V.IsNull() {
		// Empty page, not an error.
		return "", nil
	}

	text, err := p.GetPlainText(nil)
	if err != nil {
		return "", fmt.Errorf("plain text of page %d: %w", page, err)
	}
	return text, nil
}

// PageImage renders one page to PNG bytes for the recognition fallback.
func (a *Accessor) PageImage(ctx context.Context, page int) ([]byte, error) {
	return a.renderer.Render(ctx, page)
}

// Encrypted reports whether the document required a password to open.
func (a *Accessor) Encrypted() bool {
	return a.encrypted
}

// ID returns the source identifier (the file path).
func (a *Accessor) ID() string {
	return a.path
}

// ContentHash returns the sha256 of the raw document bytes.
func (a *Accessor) ContentHash() string {
	return a.contentHash
}

// Close releases the file handle and any renderer resources.
func (a *Accessor) Close() error {
	var errs []error
	if err := a.renderer.Close(); err != nil {
		errs = append(errs, err)
	}
	if err := a.file.Close(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("close accessor: %v", errs)
	}
	return nil
}

func hashFile(f *os.File) (string, error) {
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
