package models

// MediaType constants for the document formats the extractor understands.
// Everything else is treated as binary and is not indexable.
const (
	MediaTypePDF  = "application/pdf"
	MediaTypeDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// FileRecord represents a single file as listed by the file store.
// Records are immutable once listed; a listing refresh replaces the
// whole set rather than diffing.
type FileRecord struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	MediaType string `json:"media_type"`
}

// Attachment represents a file selected for a chat answer, including
// its raw bytes as downloaded from the store.
type Attachment struct {
	FileRecord
	Data []byte `json:"-"`
}
