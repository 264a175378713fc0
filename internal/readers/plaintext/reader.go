// Package plaintext provides a reader for plain text inputs.
package plaintext

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"

	"github.com/loomworks/corpus-cli/internal/core/domain"
	"github.com/loomworks/corpus-cli/internal/core/ports/driven"
)

// Ensure Reader implements the interface.
var _ driven.Reader = (*Reader)(nil)

// Reader handles plain text inputs. It is the fallback reader: any
// UTF-8 content goes through unchanged.
type Reader struct{}

// New creates a new plain text reader.
func New() *Reader {
	return &Reader{}
}

// Name returns the registry name of this reader.
func (r *Reader) Name() string {
	return "plaintext"
}

// Read converts one raw input into a document.
// A malformed input (unreadable path, invalid UTF-8, empty content)
// fails this document only.
func (r *Reader) Read(_ context.Context, input domain.RawInput, docType domain.DocumentType) (*domain.Document, error) {
	content, link, err := resolveContent(input)
	if err != nil {
		return nil, err
	}

	return &domain.Document{
		Name:      input.DisplayName(),
		Type:      docType,
		Link:      link,
		Text:      content,
		Timestamp: time.Now().UTC(),
	}, nil
}

// resolveContent loads the content for an input and validates it.
func resolveContent(input domain.RawInput) (content, link string, err error) {
	switch input.Kind {
	case domain.InputBytes:
		content = string(input.Data)
		link = input.Name
	case domain.InputPath:
		data, err := os.ReadFile(input.Path)
		if err != nil {
			return "", "", fmt.Errorf("read %s: %w", input.Path, err)
		}
		content = string(data)
		link, err = filepath.Abs(input.Path)
		if err != nil {
			link = input.Path
		}
	case domain.InputText:
		content = input.Text
		link = input.Name
	default:
		return "", "", fmt.Errorf("%w: unsupported input kind %d", domain.ErrInvalidInput, input.Kind)
	}

	if !utf8.ValidString(content) {
		return "", "", fmt.Errorf("%w: %s is not valid UTF-8", domain.ErrInvalidInput, input.DisplayName())
	}
	if content == "" {
		return "", "", fmt.Errorf("%w: %s is empty", domain.ErrInvalidInput, input.DisplayName())
	}
	return content, link, nil
}
