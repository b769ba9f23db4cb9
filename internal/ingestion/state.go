package ingestion

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/maraichr/ontograph/internal/ontology"
	"github.com/maraichr/ontograph/internal/rdf"
)

const (
	DefaultMaxVisits       = 3
	BaseStepBudget         = 1000
	DefaultEstimatedChunks = 30
	hashLength             = 12
)

// Document is one unit of input.
type Document struct {
	ID       uuid.UUID
	Name     string
	MimeType string
	Data     []byte
}

// Limits bounds the work spent on one document. Zero values take defaults.
type Limits struct {
	MaxVisits  int
	MaxChunks  int // 0 means no limit
	StepBudget int
	// SkipOntologyDevelopment overrides the controller default when set.
	SkipOntologyDevelopment *bool
}

// DefaultStepBudget returns the step budget used when none is supplied.
func DefaultStepBudget(maxVisits, estimatedChunks int) int {
	return max(BaseStepBudget, maxVisits*estimatedChunks*10)
}

func (l Limits) withDefaults() Limits {
	if l.MaxVisits <= 0 {
		l.MaxVisits = DefaultMaxVisits
	}
	if l.MaxChunks < 0 {
		l.MaxChunks = 0
	}
	if l.StepBudget <= 0 {
		l.StepBudget = DefaultStepBudget(l.MaxVisits, DefaultEstimatedChunks)
	}
	return l
}

// Chunk is one piece of a document on its way through the state machine.
type Chunk struct {
	Index           int
	Text            string
	Hash            string
	IRI             string
	Namespace       string
	Facts           *rdf.Graph
	RelevanceScore  float64
	GenerationScore float64
}

// State is the per-document state of one controller run. It is owned
// exclusively by that run.
type State struct {
	DocumentID   uuid.UUID
	Name         string
	MimeType     string
	Data         []byte
	Domain       string
	DocHash      string
	DocIRI       string
	DocNamespace string
	Text         string

	Chunks          []*Chunk
	ChunksProcessed []*Chunk
	CurrentChunk    *Chunk

	CurrentOntology *ontology.Ontology
	// OntologyAddendum is the union of every accepted ontology update of
	// this document.
	OntologyAddendum *ontology.Ontology
	AggregatedFacts  *rdf.Graph

	// developed holds the merged record of each ontology updated by this
	// document, keyed by id.
	developed       map[string]*ontology.Ontology
	pendingAddendum *ontology.Ontology

	NodeVisits              map[StageID]int
	MaxVisits               int
	MaxChunks               int
	StepBudget              int
	Steps                   int
	SkipOntologyDevelopment bool

	Status        Status
	FailureStage  FailureStage
	FailureReason string
}

// NewState creates the state for one document with fresh counters.
func NewState(doc Document, limits Limits, domain string, skipDevelopment bool) *State {
	limits = limits.withDefaults()
	if limits.SkipOntologyDevelopment != nil {
		skipDevelopment = *limits.SkipOntologyDevelopment
	}
	id := doc.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	if domain == "" {
		domain = ontology.DefaultDomain
	}
	return &State{
		DocumentID:              id,
		Name:                    doc.Name,
		MimeType:                doc.MimeType,
		Data:                    doc.Data,
		Domain:                  strings.TrimRight(domain, "/"),
		CurrentOntology:         ontology.Null(),
		AggregatedFacts:         rdf.NewGraph(),
		developed:               make(map[string]*ontology.Ontology),
		NodeVisits:              make(map[StageID]int),
		MaxVisits:               limits.MaxVisits,
		MaxChunks:               limits.MaxChunks,
		StepBudget:              limits.StepBudget,
		SkipOntologyDevelopment: skipDevelopment,
		Status:                  StatusPending,
	}
}

// setText records the converted text and the identity derived from it.
func (st *State) setText(text string) {
	st.Text = text
	st.DocHash = shortHash(text)
	st.DocIRI = st.Domain + "/doc/" + st.DocHash
	st.DocNamespace = st.DocIRI + "#"
}

// setChunks fills the pending queue.
func (st *State) setChunks(texts []string) {
	st.Chunks = make([]*Chunk, 0, len(texts))
	for i, text := range texts {
		h := shortHash(fmt.Sprintf("%d:%s", i, text))
		iri := st.DocIRI + "/chunk/" + h
		st.Chunks = append(st.Chunks, &Chunk{
			Index:     i,
			Text:      text,
			Hash:      h,
			IRI:       iri,
			Namespace: iri + "#",
		})
	}
}

// enter records one entry into stage. It fails once the step budget is spent.
func (st *State) enter(stage StageID) error {
	st.Steps++
	if st.Steps > st.StepBudget {
		return fmt.Errorf("enter %s after %d steps: %w", stage, st.StepBudget, ErrStepBudgetExceeded)
	}
	if stage.perChunk() {
		st.NodeVisits[stage]++
	}
	return nil
}

func (st *State) chunkLimitReached() bool {
	return st.MaxChunks > 0 && len(st.ChunksProcessed) >= st.MaxChunks
}

func (st *State) finish(status Status, stage FailureStage, reason string) {
	st.Status = status
	st.FailureStage = stage
	st.FailureReason = reason
}

func shortHash(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:])[:hashLength]
}
