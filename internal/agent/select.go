package agent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/maraichr/ontograph/internal/ingestion"
	"github.com/maraichr/ontograph/internal/llm"
	"github.com/maraichr/ontograph/internal/ontology"
)

type selectReply struct {
	AnswerIndex int `json:"answer_index"`
}

// SelectOntology presents the candidates as a numbered list with a trailing
// "none" option and maps the answer back to a candidate index.
func (a *Agent) SelectOntology(ctx context.Context, chunk *ingestion.Chunk, candidates []*ontology.Ontology) (int, error) {
	if len(candidates) == 0 {
		return -1, nil
	}
	user := fmt.Sprintf(`Which ontology best represents the domain of the excerpt below? Options:

%s

Excerpt:

%s

Answer with the option number between 1 and %d.`,
		numberedOntologies(candidates), excerpt(chunk.Text), len(candidates)+1)

	var reply selectReply
	messages := []llm.Message{llm.System(selectSystemPrompt), llm.User(user)}
	if err := llm.CompleteJSON(ctx, a.llm, messages, &reply); err != nil {
		return -1, invalid(fmt.Errorf("select ontology: %w", err))
	}

	n := len(candidates)
	switch {
	case reply.AnswerIndex == n+1:
		return -1, nil
	case reply.AnswerIndex >= 1 && reply.AnswerIndex <= n:
		a.logger.Debug("ontology chosen",
			slog.Int("chunk", chunk.Index),
			slog.String("ontology_id", candidates[reply.AnswerIndex-1].ID))
		return reply.AnswerIndex - 1, nil
	default:
		return -1, fmt.Errorf("%w: answer_index %d outside 1..%d", ingestion.ErrInvalidOutput, reply.AnswerIndex, n+1)
	}
}
