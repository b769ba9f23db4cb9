package handler

import (
	"mime"
	"strings"

	"github.com/maraichr/ontograph/internal/ingestion"
	"github.com/maraichr/ontograph/pkg/apierr"
)

const (
	maxDocumentBytes = 32 << 20
	maxNameLength    = 255
	maxVisitsCeiling = 20
)

var supportedTypes = map[string]bool{
	"":                      true,
	"text/plain":            true,
	"text/markdown":         true,
	"text/x-markdown":       true,
	"text/html":             true,
	"application/xhtml+xml": true,
	"application/json":      true,
}

// limitsRequest carries the optional per-document limits of a request.
type limitsRequest struct {
	MaxVisits               int   `json:"max_visits,omitempty"`
	MaxChunks               int   `json:"max_chunks,omitempty"`
	SkipOntologyDevelopment *bool `json:"skip_ontology_development,omitempty"`
}

func (l limitsRequest) limits() ingestion.Limits {
	return ingestion.Limits{
		MaxVisits:               l.MaxVisits,
		MaxChunks:               l.MaxChunks,
		SkipOntologyDevelopment: l.SkipOntologyDevelopment,
	}
}

func validateLimits(l limitsRequest) *apierr.Error {
	if l.MaxVisits < 0 || l.MaxVisits > maxVisitsCeiling || l.MaxChunks < 0 {
		return apierr.InvalidRequestBody()
	}
	return nil
}

func validateName(name string) *apierr.Error {
	if len(name) > maxNameLength {
		return apierr.InvalidRequestBody()
	}
	return nil
}

// normalizeMimeType strips parameters and validates the media type.
func normalizeMimeType(raw string) (string, *apierr.Error) {
	mt := strings.ToLower(strings.TrimSpace(raw))
	if mt != "" {
		parsed, _, err := mime.ParseMediaType(mt)
		if err != nil {
			return "", apierr.UnsupportedFormat(raw)
		}
		mt = parsed
	}
	if !supportedTypes[mt] {
		return "", apierr.UnsupportedFormat(raw)
	}
	return mt, nil
}
