package ingestion

import (
	"context"
	"errors"
	"log/slog"
)

// loopOutcome is the terminal result of a critique loop.
type loopOutcome struct {
	Accepted bool
	Attempts int
	Verdict  Verdict
}

// critiqueLoop runs generate/critique pairs for one chunk until a candidate
// is accepted or MaxVisits attempts have been rejected. Rejections feed the
// critique text back into the next generation. Invalid generator or critic
// output counts as a rejected attempt; any other error is returned.
type critiqueLoop[T any] struct {
	generateStage StageID
	critiqueStage StageID
	generate      func(ctx context.Context, feedback string) (T, error)
	critique      func(ctx context.Context, candidate T) (Verdict, error)
	observer      Observer
	logger        *slog.Logger
}

func (l critiqueLoop[T]) run(ctx context.Context, st *State) (T, loopOutcome, error) {
	var (
		last     T
		feedback string
		out      loopOutcome
	)
	for {
		if err := ctx.Err(); err != nil {
			return last, out, err
		}

		verdict, candidate, generated, err := l.attempt(ctx, st, feedback)
		if err != nil {
			return last, out, err
		}
		if generated {
			last = candidate
		}
		out.Attempts++
		out.Verdict = verdict
		if verdict.Success {
			out.Accepted = true
			return candidate, out, nil
		}

		l.observer.CritiqueRejected(string(l.critiqueStage))
		if out.Attempts >= st.MaxVisits {
			return last, out, nil
		}
		l.logger.Warn("candidate rejected, retrying",
			slog.String("document_id", st.DocumentID.String()),
			slog.String("stage", string(l.generateStage)),
			slog.Int("attempt", out.Attempts),
			slog.Float64("score", verdict.Score))
		feedback = verdict.Critique
	}
}

// attempt runs one generate/critique pair. generated reports whether the
// generator produced a candidate, so invalid output never replaces the last
// real one.
func (l critiqueLoop[T]) attempt(ctx context.Context, st *State, feedback string) (verdict Verdict, candidate T, generated bool, err error) {
	if err = l.enter(st, l.generateStage); err != nil {
		return Verdict{}, candidate, false, err
	}
	candidate, err = l.generate(ctx, feedback)
	if err != nil {
		var zero T
		if errors.Is(err, ErrInvalidOutput) {
			return Verdict{Critique: err.Error()}, zero, false, nil
		}
		return Verdict{}, zero, false, err
	}

	if err = l.enter(st, l.critiqueStage); err != nil {
		return Verdict{}, candidate, true, err
	}
	verdict, err = l.critique(ctx, candidate)
	if err != nil {
		if errors.Is(err, ErrInvalidOutput) {
			return Verdict{Critique: err.Error()}, candidate, true, nil
		}
		return Verdict{}, candidate, true, err
	}
	return verdict, candidate, true, nil
}

func (l critiqueLoop[T]) enter(st *State, stage StageID) error {
	if err := st.enter(stage); err != nil {
		return err
	}
	l.observer.StageEntered(string(stage))
	return nil
}
