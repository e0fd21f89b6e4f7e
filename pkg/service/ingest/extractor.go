package ingest

import (
	"context"
	"strings"
)

// RawFile is an uploaded file awaiting ingestion
type RawFile struct {
	Name string
	Data []byte
}

// Extractor turns raw file bytes into plain text. Document formats
// (PDF and friends) are handled by external collaborators implementing
// this interface.
type Extractor interface {
	Extract(ctx context.Context, file RawFile) (string, error)
}

// PlainTextExtractor treats file bytes as UTF-8 text
type PlainTextExtractor struct{}

func (PlainTextExtractor) Extract(ctx context.Context, file RawFile) (string, error) {
	return strings.ToValidUTF8(string(file.Data), ""), nil
}
