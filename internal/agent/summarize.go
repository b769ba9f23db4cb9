package agent

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/maraichr/ontograph/internal/llm"
	"github.com/maraichr/ontograph/internal/ontology"
)

// Summarize fills missing title, description and version of registry records
// from an LLM reading of their graphs. Existing values are never replaced.
// Failures are logged per ontology; the count of updated records is returned.
func (a *Agent) Summarize(ctx context.Context, reg *ontology.Registry) int {
	updated := 0
	for _, o := range reg.List() {
		if !o.MissingProperties() {
			continue
		}
		props, err := a.summarize(ctx, o)
		if err != nil {
			a.logger.Warn("ontology summary failed",
				slog.String("ontology_id", o.ID),
				slog.String("error", err.Error()))
			continue
		}
		if err := reg.FillProperties(o.ID, props); err != nil {
			a.logger.Warn("apply ontology summary",
				slog.String("ontology_id", o.ID),
				slog.String("error", err.Error()))
			continue
		}
		updated++
	}
	if updated > 0 {
		a.logger.Info("ontology properties summarized", slog.Int("ontologies", updated))
	}
	return updated
}

func (a *Agent) summarize(ctx context.Context, o *ontology.Ontology) (ontology.Properties, error) {
	user := fmt.Sprintf("Below is an ontology in Turtle format:\n\n```ttl\n%s\n```", o.Turtle())
	var props ontology.Properties
	messages := []llm.Message{llm.System(summarizeSystemPrompt), llm.User(user)}
	if err := llm.CompleteJSON(ctx, a.llm, messages, &props); err != nil {
		return ontology.Properties{}, fmt.Errorf("summarize ontology: %w", err)
	}
	return props, nil
}
