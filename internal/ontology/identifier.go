package ontology

import (
	"net/url"
	"regexp"
	"strings"
	"sync"
)

// NullID is the identifier of the null ontology.
const NullID = "__null_id"

// NullIRI is the sentinel IRI of the null ontology.
const NullIRI = "https://example.com/" + NullID

var (
	fileSuffixRe = regexp.MustCompile(`(?i)\.(owl|ttl|rdf|xml)$`)
	tldSuffixRe  = regexp.MustCompile(`(?i)^(.*?)\.(org|com|net|io|edu|gov|int|mil)$`)
	invalidIDRe  = regexp.MustCompile(`[^a-zA-Z0-9_-]`)
)

// conventionalMappings pins well-known vocabularies to their customary short
// names. Keys are normalized (no trailing '/' or '#').
var conventionalMappings = map[string]string{
	"http://www.w3.org/1999/02/22-rdf-syntax-ns": "rdf",
	"http://www.w3.org/2000/01/rdf-schema":       "rdfs",
	"http://www.w3.org/2002/07/owl":              "owl",
	"http://www.w3.org/2001/XMLSchema":           "xsd",
	"http://www.w3.org/2004/02/skos/core":        "skos",
	"http://purl.org/dc/terms":                   "dcterms",
	"http://purl.org/dc/elements/1.1":            "dc",
	"http://xmlns.com/foaf/0.1":                  "foaf",
	"http://schema.org":                          "schema",
	"https://schema.org":                         "schema",
	"http://www.w3.org/ns/prov":                  "prov",
	"http://www.w3.org/2006/time":                "time",
	"http://www.opengis.net/ont/geosparql":       "geo",
	"http://www.w3.org/ns/org":                   "org",
	"https://spec.edmcouncil.org/fibo/ontology":  "fibo",
}

var mappingsMu sync.RWMutex

// RegisterMapping adds or replaces a conventional mapping. It is meant to be
// called during startup from configuration.
func RegisterMapping(iri, id string) {
	mappingsMu.Lock()
	defer mappingsMu.Unlock()
	conventionalMappings[normalizeIRI(iri)] = id
}

// DeriveID returns a stable short identifier for an ontology IRI. The result
// only contains [a-z0-9_-]; IRIs that yield nothing map to NullID.
func DeriveID(iri string) string {
	if iri == "" {
		return NullID
	}
	normalized := normalizeIRI(iri)

	mappingsMu.RLock()
	id, ok := conventionalMappings[normalized]
	mappingsMu.RUnlock()
	if ok {
		return id
	}

	return cleanID(candidateID(normalized))
}

func normalizeIRI(iri string) string {
	return strings.TrimRight(strings.TrimSpace(iri), "/#")
}

// candidateID picks the last path segment, else the first host label, else the
// whole string.
func candidateID(normalized string) string {
	u, err := url.Parse(normalized)
	if err != nil {
		return normalized
	}
	path := u.Path
	if u.Opaque != "" {
		path = u.Opaque
	}
	if path != "" && strings.Contains(path, "/") {
		return path[strings.LastIndex(path, "/")+1:]
	}
	if u.Host != "" {
		return strings.SplitN(u.Host, ".", 2)[0]
	}
	return normalized
}

func cleanID(s string) string {
	s = fileSuffixRe.ReplaceAllString(s, "")
	if m := tldSuffixRe.FindStringSubmatch(s); m != nil {
		s = m[1]
	}
	s = strings.ToLower(invalidIDRe.ReplaceAllString(s, ""))
	if s == "" {
		return NullID
	}
	return s
}
