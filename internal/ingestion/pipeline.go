package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/maraichr/ontograph/internal/aggregate"
	"github.com/maraichr/ontograph/internal/ontology"
	"github.com/maraichr/ontograph/internal/rdf"
	"github.com/maraichr/ontograph/pkg/models"
)

// Observer receives pipeline events. internal/metrics implements it.
type Observer interface {
	StageEntered(stage string)
	CritiqueRejected(stage string)
	DocumentFinished(status string, d time.Duration, triples int)
}

type noopObserver struct{}

func (noopObserver) StageEntered(string)                         {}
func (noopObserver) CritiqueRejected(string)                     {}
func (noopObserver) DocumentFinished(string, time.Duration, int) {}

// ControllerDeps holds the collaborators of a Controller. Developer may be
// nil, which disables ontology development. Store may be nil, in which case
// successful documents only update the registry.
type ControllerDeps struct {
	Registry   *ontology.Registry
	Converter  Converter
	Chunker    Chunker
	Selector   OntologySelector
	Developer  OntologyDeveloper
	Extractor  FactExtractor
	Aggregator *aggregate.Aggregator
	Store      Persister
	Observer   Observer

	Domain                  string
	SkipOntologyDevelopment bool

	Logger *slog.Logger
}

// Controller drives documents through the extraction state machine:
//
//	ConvertToText → Chunk → ChunksEmpty ⇄ per chunk {
//	    SelectOntology → [DevelopOntology ⇄ CritiqueOntology → MergeOntologyUpdate]
//	    → ExtractFacts ⇄ CritiqueFacts
//	} → AggregateFacts → Done
//
// A Controller is safe for concurrent use; all per-document state lives in
// State.
type Controller struct {
	registry   *ontology.Registry
	converter  Converter
	chunker    Chunker
	selector   OntologySelector
	developer  OntologyDeveloper
	extractor  FactExtractor
	aggregator *aggregate.Aggregator
	store      Persister
	observer   Observer
	domain     string
	skipDev    bool
	logger     *slog.Logger
	stages     map[StageID]Stage
}

func NewController(d ControllerDeps) *Controller {
	c := &Controller{
		registry:   d.Registry,
		converter:  d.Converter,
		chunker:    d.Chunker,
		selector:   d.Selector,
		developer:  d.Developer,
		extractor:  d.Extractor,
		aggregator: d.Aggregator,
		store:      d.Store,
		observer:   d.Observer,
		domain:     d.Domain,
		skipDev:    d.SkipOntologyDevelopment,
		logger:     d.Logger,
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	if c.observer == nil {
		c.observer = noopObserver{}
	}
	if c.registry == nil {
		c.registry = ontology.NewRegistry(c.logger)
	}
	if c.aggregator == nil {
		c.aggregator = aggregate.New(c.logger)
	}

	c.stages = make(map[StageID]Stage)
	for _, s := range []Stage{
		&convertStage{c: c},
		&chunkStage{c: c},
		chunksEmptyStage{},
		&selectStage{c: c},
		&developStage{c: c},
		mergeStage{},
		&extractStage{c: c},
		&aggregateStage{c: c},
	} {
		c.stages[s.Name()] = s
	}
	return c
}

// Registry returns the registry the controller commits to.
func (c *Controller) Registry() *ontology.Registry { return c.registry }

// Result is the outcome of one document.
type Result struct {
	DocumentID      uuid.UUID
	Name            string
	Status          Status
	Facts           *rdf.Graph
	Ontology        *ontology.Ontology
	FailureStage    FailureStage
	FailureReason   string
	ChunksProcessed int
	ChunksRemaining int
	NodeVisits      map[StageID]int
	Steps           int
	Duration        time.Duration
}

// Process runs one document to a terminal state and commits it when it
// succeeded. It never returns a nil Result.
func (c *Controller) Process(ctx context.Context, doc Document, limits Limits) *Result {
	start := time.Now()
	st := NewState(doc, limits, c.domain, c.skipDev)

	c.logger.Info("document started",
		slog.String("document_id", st.DocumentID.String()),
		slog.String("name", st.Name),
		slog.String("mime_type", st.MimeType))

	c.Run(ctx, st)
	if st.Status == StatusSuccess {
		if err := c.commit(ctx, st); err != nil {
			st.finish(StatusFailed, FailurePersist, err.Error())
		}
	}

	res := newResult(st, time.Since(start))
	c.observer.DocumentFinished(string(res.Status), res.Duration, res.Facts.Len())

	attrs := []any{
		slog.String("document_id", st.DocumentID.String()),
		slog.String("status", string(res.Status)),
		slog.Int("chunks_processed", res.ChunksProcessed),
		slog.Int("chunks_remaining", res.ChunksRemaining),
		slog.Int("triples", res.Facts.Len()),
		slog.Int("steps", res.Steps),
	}
	if res.Status == StatusSuccess {
		c.logger.Info("document completed", attrs...)
	} else {
		attrs = append(attrs,
			slog.String("failure_stage", string(res.FailureStage)),
			slog.String("failure_reason", res.FailureReason))
		c.logger.Warn("document not completed", attrs...)
	}
	return res
}

// Run executes the state machine on st until it reaches Done. It records the
// terminal status on st and never commits anything.
func (c *Controller) Run(ctx context.Context, st *State) {
	id := StageConvertToText
	for id != StageDone {
		stage, ok := c.stages[id]
		if !ok {
			st.finish(StatusFailed, id.failure(), fmt.Sprintf("no handler for stage %s", id))
			return
		}
		if err := ctx.Err(); err != nil {
			c.fail(st, id, err)
			return
		}
		if _, self := stage.(selfAccounting); !self {
			if err := st.enter(id); err != nil {
				c.fail(st, id, err)
				return
			}
			c.observer.StageEntered(string(id))
		}

		c.logger.Info("stage started",
			slog.String("stage", string(id)),
			slog.String("document_id", st.DocumentID.String()))

		next, err := stage.Execute(ctx, st)
		if err != nil {
			c.fail(st, id, err)
			return
		}

		c.logger.Info("stage completed",
			slog.String("stage", string(id)),
			slog.String("document_id", st.DocumentID.String()))
		id = next
	}
	if st.Status == StatusPending {
		st.finish(StatusFailed, FailureNone, "state machine stopped without a terminal status")
	}
}

func (c *Controller) fail(st *State, id StageID, err error) {
	stage := id.failure()
	if errors.Is(err, ErrStepBudgetExceeded) {
		stage = FailureStepBudget
	}
	st.finish(StatusFailed, stage, err.Error())
	c.logger.Error("stage failed",
		slog.String("stage", string(id)),
		slog.String("document_id", st.DocumentID.String()),
		slog.String("error", err.Error()))
}

func (c *Controller) developmentEnabled(st *State) bool {
	return c.developer != nil && !st.SkipOntologyDevelopment
}

// candidates is the registry snapshot with the ontologies this document has
// already developed substituted or appended.
func (c *Controller) candidates(st *State) []*ontology.Ontology {
	list := c.registry.List()
	seen := make(map[string]bool, len(list))
	for i, o := range list {
		seen[o.ID] = true
		if d, ok := st.developed[o.ID]; ok {
			list[i] = d.Clone()
		}
	}
	for _, id := range sortedKeys(st.developed) {
		if !seen[id] {
			list = append(list, st.developed[id].Clone())
		}
	}
	return list
}

// commit persists a successful document. Facts are written first; each
// developed ontology is then merged with the registry's current record, and
// the merged record is stored before the registry takes it. A failed write
// leaves the registry without this document's updates.
func (c *Controller) commit(ctx context.Context, st *State) error {
	if c.store != nil && st.AggregatedFacts.Len() > 0 {
		if err := c.store.SerializeFacts(ctx, st.AggregatedFacts, st.DocNamespace); err != nil {
			return fmt.Errorf("serialize facts: %w", err)
		}
	}

	var persist func(*ontology.Ontology) error
	if c.store != nil {
		persist = func(o *ontology.Ontology) error {
			return c.store.SerializeOntology(ctx, o)
		}
	}
	for _, id := range sortedKeys(st.developed) {
		merged, err := c.registry.Commit(st.developed[id], persist)
		if err != nil {
			return fmt.Errorf("commit ontology %s: %w", id, err)
		}
		if st.CurrentOntology != nil && st.CurrentOntology.ID == id {
			st.CurrentOntology = merged
		}
	}
	return nil
}

func newResult(st *State, d time.Duration) *Result {
	res := &Result{
		DocumentID:      st.DocumentID,
		Name:            st.Name,
		Status:          st.Status,
		Facts:           rdf.NewGraph(),
		FailureStage:    st.FailureStage,
		FailureReason:   st.FailureReason,
		ChunksProcessed: len(st.ChunksProcessed),
		ChunksRemaining: len(st.Chunks),
		NodeVisits:      make(map[StageID]int, len(st.NodeVisits)),
		Steps:           st.Steps,
		Duration:        d,
	}
	if st.CurrentChunk != nil {
		res.ChunksRemaining++
	}
	for k, v := range st.NodeVisits {
		res.NodeVisits[k] = v
	}
	if st.Status == StatusSuccess {
		res.Facts = st.AggregatedFacts
		res.Ontology = st.CurrentOntology
	}
	return res
}

// Model converts the result to its wire form.
func (r *Result) Model() models.ProcessResult {
	m := models.ProcessResult{
		DocumentID:      r.DocumentID.String(),
		Name:            r.Name,
		Status:          string(r.Status),
		Facts:           r.Facts.Turtle(rdf.StandardPrefixes),
		TripleCount:     r.Facts.Len(),
		FailureStage:    string(r.FailureStage),
		FailureReason:   r.FailureReason,
		ChunksProcessed: r.ChunksProcessed,
		ChunksRemaining: r.ChunksRemaining,
		NodeVisits:      make(map[string]int, len(r.NodeVisits)),
		Steps:           r.Steps,
		DurationMS:      r.Duration.Milliseconds(),
	}
	for k, v := range r.NodeVisits {
		m.NodeVisits[string(k)] = v
	}
	if r.Ontology != nil && !r.Ontology.IsNull() {
		m.Ontology = OntologySummary(r.Ontology, true)
	}
	return m
}

// OntologySummary describes o for API responses.
func OntologySummary(o *ontology.Ontology, withTurtle bool) *models.OntologySummary {
	s := &models.OntologySummary{
		ID:          o.ID,
		Title:       o.Title,
		Description: o.Description,
		Version:     o.Version,
		IRI:         o.IRI,
		TripleCount: o.Graph.Len(),
	}
	if withTurtle {
		s.Turtle = o.Turtle()
	}
	return s
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
