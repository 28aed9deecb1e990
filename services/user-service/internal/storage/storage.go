// Package storage writes uploaded avatar files to a backend.
package storage

import (
	"context"
	"errors"
	"io"
)

var ErrFileTooLarge = errors.New("file exceeds the maximum allowed size")

// Storage persists files by key. A failed Save leaves nothing behind.
type Storage interface {
	// Save streams r to key and returns the number of bytes written.
	Save(ctx context.Context, key, contentType string, r io.Reader) (int64, error)
	Remove(ctx context.Context, key string) error
}

// LimitReader returns a reader that fails with ErrFileTooLarge once more than
// maxBytes have been read from r. A non-positive maxBytes disables the limit.
func LimitReader(r io.Reader, maxBytes int64) io.Reader {
	if maxBytes <= 0 {
		return r
	}

	return &limitedReader{r: r, remaining: maxBytes}
}

type limitedReader struct {
	r         io.Reader
	remaining int64
}

func (l *limitedReader) Read(p []byte) (int, error) {
	if l.remaining < 0 {
		return 0, ErrFileTooLarge
	}

	// Read one byte past the limit so an exact fit is not reported as too large.
	if int64(len(p)) > l.remaining+1 {
		p = p[:l.remaining+1]
	}

	n, err := l.r.Read(p)
	l.remaining -= int64(n)
	if l.remaining < 0 {
		return 0, ErrFileTooLarge
	}

	return n, err
}
