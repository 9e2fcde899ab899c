package ai

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/mockmate/mockmate/internal/model"
)

const (
	// evaluationTimeout bounds the whole judging pass, not individual
	// calls. Treated as advisory cancellation of the batch.
	evaluationTimeout = 30 * time.Second

	// judgePause spaces successive judge calls on top of the shared rate
	// limiter to reduce endpoint throttling.
	judgePause = 500 * time.Millisecond

	noAnswerFeedback = "No answer provided."
)

// AnswerJudge is the per-question scoring dependency of the Evaluator.
type AnswerJudge interface {
	Judge(ctx context.Context, questionText, answerText string) model.Judgement
}

// Evaluator runs the judge over a full interview and aggregates the result.
// Evaluate is a total function: every failure path, including the timeout,
// terminates in a usable EvaluationResult.
type Evaluator struct {
	judge   AnswerJudge
	timeout time.Duration
	pause   time.Duration

	sleep func(time.Duration)
}

// NewEvaluator creates an evaluator over the given judge.
func NewEvaluator(judge AnswerJudge) *Evaluator {
	return &Evaluator{
		judge:   judge,
		timeout: evaluationTimeout,
		pause:   judgePause,
		sleep:   time.Sleep,
	}
}

// Evaluate judges every question in presentation order and combines the
// scores into a 0-100 percentage with a templated summary. If the pass does
// not finish within the timeout, a coarse fallback result is returned and
// the late result is discarded.
func (e *Evaluator) Evaluate(ctx context.Context, answers model.AnswerRecord, questions []model.Question) model.EvaluationResult {
	slog.Info("starting evaluation", "questions", len(questions))

	done := make(chan model.EvaluationResult, 1)
	go func() {
		done <- e.evaluateAll(ctx, answers, questions)
	}()

	select {
	case result := <-done:
		slog.Info("evaluation complete", "score", result.Score)
		return result
	case <-time.After(e.timeout):
		slog.Warn("evaluation timed out, using fallback result")
		return fallbackResult(answers, questions)
	case <-ctx.Done():
		slog.Warn("evaluation canceled, using fallback result", "error", ctx.Err())
		return fallbackResult(answers, questions)
	}
}

func (e *Evaluator) evaluateAll(ctx context.Context, answers model.AnswerRecord, questions []model.Question) model.EvaluationResult {
	judged := make(map[string]model.JudgedAnswer, len(questions))
	totalScore := 0

	for i, q := range questions {
		answer := answers[q.ID]
		if answer == "" {
			judged[q.ID] = model.JudgedAnswer{
				Question: q,
				Answer:   "",
				Score:    0,
				Feedback: noAnswerFeedback,
			}
			continue
		}

		jm := e.judge.Judge(ctx, q.Text, answer)
		judged[q.ID] = model.JudgedAnswer{
			Question: q,
			Answer:   answer,
			Score:    jm.Score,
			Feedback: jm.Feedback,
		}
		totalScore += jm.Score

		if i < len(questions)-1 {
			e.sleep(e.pause)
		}
	}

	score := 0
	if len(questions) > 0 {
		score = int(math.Round(float64(totalScore) * 100 / float64(len(questions)*10)))
	}

	return model.EvaluationResult{
		Score:         score,
		Summary:       summarize(countAnswered(answers, questions), len(questions), score),
		JudgedAnswers: judged,
	}
}

// summarize builds the local summary sentence; no model call is involved.
func summarize(answered, total, score int) string {
	var band string
	switch {
	case score >= 70:
		band = "Strong performance with good technical understanding."
	case score >= 50:
		band = "Moderate performance with room for improvement."
	default:
		band = "Needs significant improvement in technical skills."
	}
	return fmt.Sprintf("Candidate completed %d out of %d questions with an overall score of %d%%. %s",
		answered, total, score, band)
}

// fallbackResult is the coarse result used when the evaluation pass fails
// or times out: score proportional to how many questions were answered.
func fallbackResult(answers model.AnswerRecord, questions []model.Question) model.EvaluationResult {
	answered := countAnswered(answers, questions)
	score := 0
	if len(questions) > 0 {
		score = int(math.Round(float64(answered) * 75 / float64(len(questions))))
	}
	return model.EvaluationResult{
		Score: score,
		Summary: fmt.Sprintf("Interview completed with %d out of %d questions answered. AI evaluation temporarily unavailable.",
			answered, len(questions)),
		JudgedAnswers: map[string]model.JudgedAnswer{},
	}
}

func countAnswered(answers model.AnswerRecord, questions []model.Question) int {
	count := 0
	for _, q := range questions {
		if answers[q.ID] != "" {
			count++
		}
	}
	return count
}
