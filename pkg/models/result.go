package models

// ProcessResult is the wire form of one processed document. Graphs are
// serialized as Turtle.
type ProcessResult struct {
	DocumentID      string           `json:"document_id"`
	Name            string           `json:"name,omitempty"`
	Status          string           `json:"status"`
	Facts           string           `json:"facts"`
	TripleCount     int              `json:"triple_count"`
	Ontology        *OntologySummary `json:"ontology,omitempty"`
	FailureStage    string           `json:"failure_stage,omitempty"`
	FailureReason   string           `json:"failure_reason,omitempty"`
	ChunksProcessed int              `json:"chunks_processed"`
	ChunksRemaining int              `json:"chunks_remaining"`
	NodeVisits      map[string]int   `json:"node_visits"`
	Steps           int              `json:"steps"`
	DurationMS      int64            `json:"duration_ms"`
}

// OntologySummary describes an ontology record.
type OntologySummary struct {
	ID          string `json:"ontology_id"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	Version     string `json:"version,omitempty"`
	IRI         string `json:"iri"`
	TripleCount int    `json:"triple_count"`
	Turtle      string `json:"turtle,omitempty"`
}
