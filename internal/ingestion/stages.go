package ingestion

import (
	"context"
	"errors"

	"github.com/maraichr/ontograph/internal/ontology"
	"github.com/maraichr/ontograph/internal/rdf"
)

// StageID names a state of the document state machine.
type StageID string

const (
	StageConvertToText       StageID = "convert_to_text"
	StageChunk               StageID = "chunk"
	StageChunksEmpty         StageID = "chunks_empty"
	StageSelectOntology      StageID = "select_ontology"
	StageDevelopOntology     StageID = "develop_ontology"
	StageCritiqueOntology    StageID = "critique_ontology"
	StageMergeOntologyUpdate StageID = "merge_ontology_update"
	StageExtractFacts        StageID = "extract_facts"
	StageCritiqueFacts       StageID = "critique_facts"
	StageAggregateFacts      StageID = "aggregate_facts"
	StageDone                StageID = "done"
)

// perChunk reports whether visits to the stage are recorded in NodeVisits.
// Document-level stages only consume the step budget.
func (s StageID) perChunk() bool {
	switch s {
	case StageSelectOntology, StageDevelopOntology, StageCritiqueOntology,
		StageMergeOntologyUpdate, StageExtractFacts, StageCritiqueFacts:
		return true
	}
	return false
}

var failureNames = map[StageID]FailureStage{
	StageConvertToText:       FailureConvert,
	StageChunk:               "Chunk",
	StageChunksEmpty:         "ChunksEmpty",
	StageSelectOntology:      "SelectOntology",
	StageDevelopOntology:     "DevelopOntology",
	StageCritiqueOntology:    "CritiqueOntology",
	StageMergeOntologyUpdate: "MergeOntologyUpdate",
	StageExtractFacts:        "ExtractFacts",
	StageCritiqueFacts:       "CritiqueFacts",
	StageAggregateFacts:      "AggregateFacts",
}

func (s StageID) failure() FailureStage {
	if f, ok := failureNames[s]; ok {
		return f
	}
	return FailureStage(s)
}

// Status is the terminal outcome of a document.
type Status string

const (
	StatusPending        Status = "pending"
	StatusSuccess        Status = "success"
	StatusFailed         Status = "failed"
	StatusCountsExceeded Status = "counts_exceeded"
)

// FailureStage records where a document stopped.
type FailureStage string

const (
	FailureNone             FailureStage = ""
	FailureConvert          FailureStage = "ConvertToText"
	FailureOntologyCritique FailureStage = "OntologyCritique"
	FailureFactsCritique    FailureStage = "FactsCritique"
	FailureNoOntology       FailureStage = "NoOntology"
	FailureStepBudget       FailureStage = "StepBudget"
	FailurePersist          FailureStage = "Persist"
)

var (
	// ErrInvalidOutput marks generator output that could not be parsed or
	// validated. Inside the critique loop it counts as a rejected attempt.
	ErrInvalidOutput = errors.New("invalid generator output")
	// ErrEmptyDocument is returned for documents without content.
	ErrEmptyDocument = errors.New("empty document")
	// ErrStepBudgetExceeded is returned when a document exhausts its step budget.
	ErrStepBudgetExceeded = errors.New("step budget exceeded")
)

// Stage is one state of the document state machine. Execute returns the next
// stage; returning StageDone after recording a terminal status ends the run.
type Stage interface {
	Name() StageID
	Execute(ctx context.Context, st *State) (StageID, error)
}

// Verdict is the result of a critique. Only Success gates acceptance; Score
// is kept for diagnostics.
type Verdict struct {
	Success  bool    `json:"success"`
	Score    float64 `json:"score"`
	Critique string  `json:"critique,omitempty"`
}

// Facts is the output of one extraction attempt.
type Facts struct {
	Graph           *rdf.Graph
	RelevanceScore  float64
	GenerationScore float64
}

// OntologyRequest is the context for ontology development and its critique.
type OntologyRequest struct {
	Chunk    *Chunk
	Current  *ontology.Ontology // null ontology when creating from scratch
	Domain   string
	Feedback string
}

// FactsRequest is the context for fact extraction and its critique.
type FactsRequest struct {
	Chunk    *Chunk
	Ontology *ontology.Ontology
	Feedback string
}

// Converter turns raw document bytes into text.
type Converter interface {
	Convert(ctx context.Context, data []byte, mimeType string) (string, error)
}

// Chunker splits text into an ordered, finite sequence of chunks.
type Chunker interface {
	Split(text string) []string
}

// OntologySelector picks one of the candidates for a chunk. It returns the
// index of the chosen candidate or -1 when none fits.
type OntologySelector interface {
	SelectOntology(ctx context.Context, chunk *Chunk, candidates []*ontology.Ontology) (int, error)
}

// OntologyDeveloper generates and critiques ontology updates.
type OntologyDeveloper interface {
	DevelopOntology(ctx context.Context, req OntologyRequest) (*ontology.Ontology, error)
	CritiqueOntology(ctx context.Context, req OntologyRequest, candidate *ontology.Ontology) (Verdict, error)
}

// FactExtractor generates and critiques chunk fact graphs.
type FactExtractor interface {
	ExtractFacts(ctx context.Context, req FactsRequest) (*Facts, error)
	CritiqueFacts(ctx context.Context, req FactsRequest, facts *Facts) (Verdict, error)
}

// Persister receives the results of successful documents.
type Persister interface {
	SerializeOntology(ctx context.Context, o *ontology.Ontology) error
	SerializeFacts(ctx context.Context, g *rdf.Graph, namespace string) error
}
