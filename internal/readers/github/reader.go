// Package github provides a reader that fetches files from GitHub
// repositories.
package github

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	gh "github.com/google/go-github/v80/github"
	"golang.org/x/oauth2"

	"github.com/loomworks/corpus-cli/internal/core/domain"
	"github.com/loomworks/corpus-cli/internal/core/ports/driven"
)

// Ensure Reader implements the interface.
var _ driven.Reader = (*Reader)(nil)

// DefaultTimeout is the default HTTP request timeout.
const DefaultTimeout = 30 * time.Second

// Reader fetches a single file from a GitHub repository. The input is
// an inline text spec of the form "owner/repo/path/to/file[@ref]";
// without a ref the repository's default branch is used.
type Reader struct {
	gh *gh.Client
}

// New creates a GitHub reader. An empty token falls back to
// unauthenticated access with its much lower rate limits.
func New(ctx context.Context, token string) *Reader {
	if token == "" {
		return &Reader{gh: gh.NewClient(nil)}
	}

	ts := oauth2.StaticTokenSource(
		&oauth2.Token{AccessToken: token},
	)
	tc := oauth2.NewClient(ctx, ts)
	tc.Timeout = DefaultTimeout

	return &Reader{gh: gh.NewClient(tc)}
}

// Name returns the registry name of this reader.
func (r *Reader) Name() string {
	return "github"
}

// Read fetches the file named by the input spec and converts it into a
// document. Network and API failures fail this document only.
func (r *Reader) Read(ctx context.Context, input domain.RawInput, docType domain.DocumentType) (*domain.Document, error) {
	spec := input.Text
	if spec == "" {
		spec = input.Name
	}

	owner, repo, path, ref, err := parseSpec(spec)
	if err != nil {
		return nil, err
	}

	opts := &gh.RepositoryContentGetOptions{Ref: ref}
	content, _, _, err := r.gh.Repositories.GetContents(ctx, owner, repo, path, opts)
	if err != nil {
		return nil, fmt.Errorf("get contents %s: %w", spec, err)
	}
	if content == nil {
		return nil, fmt.Errorf("%w: %s is a directory, not a file", domain.ErrInvalidInput, spec)
	}

	text, err := content.GetContent()
	if err != nil {
		return nil, fmt.Errorf("decode content %s: %w", spec, err)
	}
	if !utf8.ValidString(text) {
		return nil, fmt.Errorf("%w: %s is not valid UTF-8", domain.ErrInvalidInput, spec)
	}
	if text == "" {
		return nil, fmt.Errorf("%w: %s is empty", domain.ErrInvalidInput, spec)
	}

	name := input.Name
	if name == "" || name == spec {
		name = path
	}

	return &domain.Document{
		Name:      name,
		Type:      docType,
		Link:      content.GetHTMLURL(),
		Text:      text,
		Timestamp: time.Now().UTC(),
	}, nil
}

// parseSpec splits "owner/repo/path[@ref]" into its components.
func parseSpec(spec string) (owner, repo, path, ref string, err error) {
	if at := strings.LastIndex(spec, "@"); at >= 0 {
		ref = spec[at+1:]
		spec = spec[:at]
	}

	parts := strings.SplitN(spec, "/", 3)
	if len(parts) < 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", "", "", "", fmt.Errorf("%w: %q is not of the form owner/repo/path", domain.ErrInvalidInput, spec)
	}
	return parts[0], parts[1], parts[2], ref, nil
}
