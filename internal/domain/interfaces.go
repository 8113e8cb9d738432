package domain

import "context"

// Source is an open document handle. Page numbers are 1-indexed.
type Source interface {
	// PageCount returns the number of pages in the document.
	PageCount() int

	// PageText extracts the raw text of one page.
	PageText(ctx context.Context, page int) (string, error)

	// PageImage renders one page to encoded image bytes for recognition.
	PageImage(ctx context.Context, page int) ([]byte, error)

	// Encrypted reports whether the document required a password to open.
	Encrypted() bool

	// ContentHash is a stable hash of the raw document bytes, used for
	// cache keying.
	ContentHash() string

	// ID identifies the source (typically the file path).
	ID() string

	Close() error
}

// Recognizer recovers text from a rendered page image. It is an optional
// capability: a nil Recognizer is a valid configuration.
type Recognizer interface {
	Recognize(ctx context.Context, image []byte) (string, error)
}
