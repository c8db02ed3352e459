package extract

import (
	"strings"

	"github.com/knowledgebot/pkg/models"
)

// Extractor converts raw file bytes into plain text based on the
// declared media type. Extraction is fail-soft: unsupported formats and
// parse failures both collapse to an empty string at this boundary, so
// callers never have to handle extraction errors.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract returns the plain text for the given bytes, or "" when the
// media type is not indexable or the document cannot be parsed.
func (e *Extractor) Extract(data []byte, mediaType string) string {
	text, _ := extractText(data, mediaType)
	return text
}

// extractText keeps the parse error visible so tests can tell a
// genuinely empty document apart from a failed parse.
func extractText(data []byte, mediaType string) (string, error) {
	switch normalizeMediaType(mediaType) {
	case models.MediaTypePDF:
		return pdfText(data)
	case models.MediaTypeDocx:
		return docxText(data)
	default:
		if isTextual(mediaType) {
			return plainText(data), nil
		}
		// Binary formats are deliberately not indexable.
		return "", nil
	}
}

// plainText decodes bytes as UTF-8, dropping invalid sequences instead
// of failing.
func plainText(data []byte) string {
	return strings.ToValidUTF8(string(data), "")
}

func isTextual(mediaType string) bool {
	mt := normalizeMediaType(mediaType)
	if strings.HasPrefix(mt, "text/") {
		return true
	}
	switch mt {
	case "application/json", "application/xml":
		return true
	}
	return false
}

// normalizeMediaType lowercases the type and strips parameters such as
// "; charset=utf-8".
func normalizeMediaType(mediaType string) string {
	mt := strings.ToLower(strings.TrimSpace(mediaType))
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = strings.TrimSpace(mt[:i])
	}
	return mt
}
