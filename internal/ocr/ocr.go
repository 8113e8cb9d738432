// Package ocr provides optical text recovery from rendered page images.
//
// This package wraps the Tesseract engine via gosseract and requires
// Tesseract to be installed on the system. On macOS, install via:
//
//	brew install tesseract
//
// On Ubuntu/Debian:
//
//	apt-get install tesseract-ocr
package ocr

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/otiai10/gosseract/v2"
)

// Tesseract implements the pipeline's recognition-from-image capability.
type Tesseract struct {
	mu     sync.Mutex
	client *gosseract.Client
}

// New creates a Tesseract recognizer. language may be a "+" separated list
// (e.g. "eng+fra"); empty defaults to "eng". The recognizer should be
// closed when no longer needed to release resources.
func New(language string) (*Tesseract, error) {
	client := gosseract.NewClient()
	if language != "" {
		if err := client.SetLanguage(language); err != nil {
			client.Close()
			return nil, fmt.Errorf("set OCR language %q: %w", language, err)
		}
	}
	return &Tesseract{client: client}, nil
}

// Recognize performs OCR on encoded image bytes (PNG, JPEG, TIFF) and
// returns the recognized text with surrounding whitespace trimmed.
func (t *Tesseract) Recognize(ctx context.Context, image []byte) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}

	// The gosseract client is stateful and not safe for concurrent use.
	t.mu.Lock()
	defer t.mu.Unlock()

	if err := t.client.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("set image: %w", err)
	}

	text, err := t.client.Text()
	if err != nil {
		return "", fmt.Errorf("recognize text: %w", err)
	}

	return strings.TrimSpace(text), nil
}

// Close releases Tesseract resources.
func (t *Tesseract) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.client != nil {
		err := t.client.Close()
		t.client = nil
		return err
	}
	return nil
}
