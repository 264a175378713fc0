// Package markdown provides a reader for Markdown inputs.
package markdown

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/loomworks/corpus-cli/internal/core/domain"
	"github.com/loomworks/corpus-cli/internal/core/ports/driven"
)

// Ensure Reader implements the interface.
var _ driven.Reader = (*Reader)(nil)

// Reader handles Markdown inputs. The document name prefers the first
// H1 heading over the file name, and the text keeps its formatting so
// chunk boundaries stay meaningful.
type Reader struct{}

// New creates a new Markdown reader.
func New() *Reader {
	return &Reader{}
}

// Name returns the registry name of this reader.
func (r *Reader) Name() string {
	return "markdown"
}

// Read converts one raw input into a document.
func (r *Reader) Read(_ context.Context, input domain.RawInput, docType domain.DocumentType) (*domain.Document, error) {
	content, link, err := resolveContent(input)
	if err != nil {
		return nil, err
	}

	name := extractHeadingTitle(content)
	if name == "" {
		name = input.DisplayName()
	}

	return &domain.Document{
		Name:      name,
		Type:      docType,
		Link:      link,
		Text:      content,
		Timestamp: time.Now().UTC(),
	}, nil
}

// headingPattern matches an H1 line (# Title).
var headingPattern = regexp.MustCompile(`(?m)^#\s+(.+)$`)

// extractHeadingTitle returns the first H1 heading, if any.
func extractHeadingTitle(content string) string {
	match := headingPattern.FindStringSubmatch(content)
	if match == nil {
		return ""
	}
	return strings.TrimSpace(match[1])
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
