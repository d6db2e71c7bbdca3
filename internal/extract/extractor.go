// Package extract converts raw knowledge-source payloads into plain text.
package extract

import (
	"context"
	"net/http"

	"github.com/shoshlabs/shoshchat/internal/domain"
)

// Payload carries the raw material for one extraction. Exactly one of the
// payload fields is populated, matching Kind.
type Payload struct {
	Kind     domain.SourceKind
	Data     []byte
	FileName string
	URL      string
	RawText  string
}

// Extractor converts a payload of one source kind into plain text.
type Extractor interface {
	Extract(ctx context.Context, p Payload) (string, error)
}

// Registry dispatches extraction to the kind-specific extractor.
type Registry struct {
	byKind map[domain.SourceKind]Extractor
}

// NewRegistry creates a Registry covering all supported source kinds.
// client is used for URL fetches; nil gets a default with a 10s timeout.
func NewRegistry(client *http.Client) *Registry {
	return &Registry{
		byKind: map[domain.SourceKind]Extractor{
			domain.SourceKindFile: &FileExtractor{},
			domain.SourceKindURL:  NewURLExtractor(client),
			domain.SourceKindText: &TextExtractor{},
		},
	}
}

// Extract runs the extractor registered for the payload's kind.
func (r *Registry) Extract(ctx context.Context, p Payload) (string, error) {
	e, ok := r.byKind[p.Kind]
	if !ok {
		return "", domain.NewExtractionError("no extractor for source kind "+string(p.Kind), nil)
	}
	return e.Extract(ctx, p)
}

// TextExtractor passes raw text through unchanged. Blank text is not an
// error; the pipeline records it as a ready source with zero chunks.
type TextExtractor struct{}

func (e *TextExtractor) Extract(_ context.Context, p Payload) (string, error) {
	return p.RawText, nil
}
