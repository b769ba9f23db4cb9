package ingestion

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/maraichr/ontograph/internal/aggregate"
)

// convertStage turns the raw document into text and fixes its identity.
type convertStage struct{ c *Controller }

func (s *convertStage) Name() StageID { return StageConvertToText }

func (s *convertStage) Execute(ctx context.Context, st *State) (StageID, error) {
	if len(st.Data) == 0 {
		return StageDone, ErrEmptyDocument
	}
	text, err := s.c.converter.Convert(ctx, st.Data, st.MimeType)
	if err != nil {
		return StageDone, fmt.Errorf("convert %q: %w", st.MimeType, err)
	}
	st.setText(text)
	st.Data = nil
	return StageChunk, nil
}

// chunkStage fills the chunk queue.
type chunkStage struct{ c *Controller }

func (s *chunkStage) Name() StageID { return StageChunk }

func (s *chunkStage) Execute(_ context.Context, st *State) (StageID, error) {
	st.setChunks(s.c.chunker.Split(st.Text))
	s.c.logger.Info("document chunked",
		slog.String("document_id", st.DocumentID.String()),
		slog.String("doc_iri", st.DocIRI),
		slog.Int("chunks", len(st.Chunks)))
	return StageChunksEmpty, nil
}

// chunksEmptyStage pops the next chunk or moves on to aggregation.
type chunksEmptyStage struct{}

func (chunksEmptyStage) Name() StageID { return StageChunksEmpty }

func (chunksEmptyStage) Execute(_ context.Context, st *State) (StageID, error) {
	if len(st.Chunks) == 0 || st.chunkLimitReached() {
		return StageAggregateFacts, nil
	}
	st.CurrentChunk = st.Chunks[0]
	st.Chunks = st.Chunks[1:]
	return StageSelectOntology, nil
}

// aggregateStage merges the processed chunk graphs and ends the run
// successfully.
type aggregateStage struct{ c *Controller }

func (s *aggregateStage) Name() StageID { return StageAggregateFacts }

func (s *aggregateStage) Execute(_ context.Context, st *State) (StageID, error) {
	in := aggregate.Input{
		Chunks:       make([]aggregate.ChunkGraph, 0, len(st.ChunksProcessed)),
		DocNamespace: st.DocNamespace,
		Ontology:     st.CurrentOntology,
	}
	for _, ch := range st.ChunksProcessed {
		in.Chunks = append(in.Chunks, aggregate.ChunkGraph{
			Index:     ch.Index,
			Namespace: ch.Namespace,
			Graph:     ch.Facts,
		})
	}
	res := s.c.aggregator.Aggregate(in)
	st.AggregatedFacts = res.Graph
	st.finish(StatusSuccess, FailureNone, "")
	return StageDone, nil
}
