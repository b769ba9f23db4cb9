package ingestion

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/maraichr/ontograph/internal/ontology"
	"github.com/maraichr/ontograph/internal/rdf"
)

// selfAccounting is implemented by stages whose critique loop records its own
// stage entries.
type selfAccounting interface {
	selfAccounting()
}

// selectStage matches the current chunk against the known ontologies.
type selectStage struct{ c *Controller }

func (s *selectStage) Name() StageID { return StageSelectOntology }

func (s *selectStage) Execute(ctx context.Context, st *State) (StageID, error) {
	candidates := s.c.candidates(st)
	if len(candidates) == 0 {
		st.CurrentOntology = ontology.Null()
		if s.c.developmentEnabled(st) {
			return StageDevelopOntology, nil
		}
		return StageExtractFacts, nil
	}

	idx, err := s.c.selector.SelectOntology(ctx, st.CurrentChunk, candidates)
	if err != nil {
		if !errors.Is(err, ErrInvalidOutput) {
			return StageDone, fmt.Errorf("select ontology: %w", err)
		}
		s.c.logger.Warn("ontology selection unparseable, treating as no match",
			slog.String("document_id", st.DocumentID.String()),
			slog.Int("chunk", st.CurrentChunk.Index),
			slog.String("error", err.Error()))
		idx = -1
	}

	if idx >= 0 && idx < len(candidates) {
		st.CurrentOntology = candidates[idx]
		s.c.logger.Info("ontology selected",
			slog.String("document_id", st.DocumentID.String()),
			slog.Int("chunk", st.CurrentChunk.Index),
			slog.String("ontology_id", st.CurrentOntology.ID))
		return StageExtractFacts, nil
	}

	// No match: develop a fresh ontology rather than extending the one the
	// previous chunk used.
	st.CurrentOntology = ontology.Null()
	if s.c.developmentEnabled(st) {
		return StageDevelopOntology, nil
	}
	st.finish(StatusFailed, FailureNoOntology,
		fmt.Sprintf("no ontology among %d candidates matches chunk %d and development is disabled", len(candidates), st.CurrentChunk.Index))
	return StageDone, nil
}

// developStage runs the ontology development critique loop.
type developStage struct{ c *Controller }

func (s *developStage) Name() StageID { return StageDevelopOntology }
func (s *developStage) selfAccounting() {}

func (s *developStage) Execute(ctx context.Context, st *State) (StageID, error) {
	req := OntologyRequest{Chunk: st.CurrentChunk, Current: st.CurrentOntology, Domain: st.Domain}
	loop := critiqueLoop[*ontology.Ontology]{
		generateStage: StageDevelopOntology,
		critiqueStage: StageCritiqueOntology,
		generate: func(ctx context.Context, feedback string) (*ontology.Ontology, error) {
			r := req
			r.Feedback = feedback
			return s.c.developer.DevelopOntology(ctx, r)
		},
		critique: func(ctx context.Context, candidate *ontology.Ontology) (Verdict, error) {
			return s.c.developer.CritiqueOntology(ctx, req, candidate)
		},
		observer: s.c.observer,
		logger:   s.c.logger,
	}

	candidate, out, err := loop.run(ctx, st)
	if err != nil {
		return StageDone, fmt.Errorf("develop ontology: %w", err)
	}
	if !out.Accepted {
		st.finish(StatusCountsExceeded, FailureOntologyCritique,
			fmt.Sprintf("ontology rejected %d times: %s", out.Attempts, out.Verdict.Critique))
		return StageDone, nil
	}
	st.pendingAddendum = candidate
	return StageMergeOntologyUpdate, nil
}

// mergeStage folds an accepted ontology update into the document's ontology.
type mergeStage struct{}

func (mergeStage) Name() StageID { return StageMergeOntologyUpdate }

func (mergeStage) Execute(_ context.Context, st *State) (StageID, error) {
	add := st.pendingAddendum
	st.pendingAddendum = nil
	if add == nil {
		return StageExtractFacts, nil
	}

	merged := ontology.Merge(st.CurrentOntology, add)
	st.CurrentOntology = merged
	st.developed[merged.ID] = merged

	if st.OntologyAddendum == nil {
		st.OntologyAddendum = add.Clone()
	} else {
		st.OntologyAddendum = ontology.Merge(st.OntologyAddendum, add)
	}
	return StageExtractFacts, nil
}

// extractStage runs the fact extraction critique loop for the current chunk.
type extractStage struct{ c *Controller }

func (s *extractStage) Name() StageID { return StageExtractFacts }
func (s *extractStage) selfAccounting() {}

func (s *extractStage) Execute(ctx context.Context, st *State) (StageID, error) {
	req := FactsRequest{Chunk: st.CurrentChunk, Ontology: st.CurrentOntology}
	loop := critiqueLoop[*Facts]{
		generateStage: StageExtractFacts,
		critiqueStage: StageCritiqueFacts,
		generate: func(ctx context.Context, feedback string) (*Facts, error) {
			r := req
			r.Feedback = feedback
			return s.c.extractor.ExtractFacts(ctx, r)
		},
		critique: func(ctx context.Context, facts *Facts) (Verdict, error) {
			return s.c.extractor.CritiqueFacts(ctx, req, facts)
		},
		observer: s.c.observer,
		logger:   s.c.logger,
	}

	facts, out, err := loop.run(ctx, st)
	if err != nil {
		return StageDone, fmt.Errorf("extract facts: %w", err)
	}
	if !out.Accepted {
		st.finish(StatusCountsExceeded, FailureFactsCritique,
			fmt.Sprintf("facts rejected %d times: %s", out.Attempts, out.Verdict.Critique))
		return StageDone, nil
	}

	ch := st.CurrentChunk
	ch.Facts = facts.Graph
	if ch.Facts == nil {
		ch.Facts = rdf.NewGraph()
	}
	ch.RelevanceScore = facts.RelevanceScore
	ch.GenerationScore = facts.GenerationScore
	st.ChunksProcessed = append(st.ChunksProcessed, ch)
	st.CurrentChunk = nil
	return StageChunksEmpty, nil
}
