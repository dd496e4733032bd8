package models

import "time"

// SourceKind identifies where a content blob came from
type SourceKind string

const (
	SourceVideo SourceKind = "video"
	SourceRepo  SourceKind = "repo"
	SourceLocal SourceKind = "local"
)

// Valid reports whether k is one of the known source kinds
func (k SourceKind) Valid() bool {
	switch k {
	case SourceVideo, SourceRepo, SourceLocal:
		return true
	default:
		return false
	}
}

// ContentBlob is the normalized, bounded text of one source.
// It is never persisted; only derived summaries are.
type ContentBlob struct {
	SourceKind SourceKind
	SourceKey  string
	Text       string
	// Revision is the commit the text was read from, empty when unknown
	Revision   string
	SizeBytes  int
	AcquiredAt time.Time
}

// NewContentBlob builds a blob and records its size
func NewContentBlob(kind SourceKind, key, text string) ContentBlob {
	return ContentBlob{
		SourceKind: kind,
		SourceKey:  key,
		Text:       text,
		SizeBytes:  len(text),
		AcquiredAt: time.Now(),
	}
}
