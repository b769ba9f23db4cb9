// Package agent implements the pipeline's generation and critique steps on
// top of an llm.Completer.
package agent

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/maraichr/ontograph/internal/ingestion"
	"github.com/maraichr/ontograph/internal/llm"
	"github.com/maraichr/ontograph/internal/rdf"
)

const excerptLength = 1000

// Agent answers every LLM-backed step of the pipeline. It is safe for
// concurrent use when its Completer is.
type Agent struct {
	llm    llm.Completer
	logger *slog.Logger
}

var (
	_ ingestion.OntologySelector  = (*Agent)(nil)
	_ ingestion.OntologyDeveloper = (*Agent)(nil)
	_ ingestion.FactExtractor     = (*Agent)(nil)
)

func New(c llm.Completer, logger *slog.Logger) *Agent {
	return &Agent{llm: c, logger: logger}
}

// invalid marks parse failures so the critique loop counts them as a
// rejected attempt. Transport errors pass through unchanged.
func invalid(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, llm.ErrMalformedResponse) || errors.Is(err, rdf.ErrSyntax) {
		return fmt.Errorf("%w: %v", ingestion.ErrInvalidOutput, err)
	}
	return err
}

// critiqueReply is the JSON critics answer with.
type critiqueReply struct {
	Success  bool    `json:"success"`
	Score    float64 `json:"score"`
	Critique string  `json:"critique"`
}

func (r critiqueReply) verdict() ingestion.Verdict {
	return ingestion.Verdict{Success: r.Success, Score: r.Score, Critique: strings.TrimSpace(r.Critique)}
}

func excerpt(text string) string {
	if len(text) <= excerptLength {
		return text
	}
	cut := excerptLength
	for cut > 0 && !utf8Start(text[cut]) {
		cut--
	}
	return text[:cut] + " ..."
}

func utf8Start(b byte) bool { return b&0xC0 != 0x80 }
