package ai

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/mockmate/mockmate/internal/model"
)

// fallbackFeedback accompanies heuristically scored answers.
const fallbackFeedback = "AI evaluation temporarily unavailable. Score based on answer length and completeness."

// Judge scores a single question/answer pair. Judge never fails outward:
// when the endpoint is unreachable or retries are exhausted it degrades to
// a word-count heuristic.
type Judge struct {
	client  *Client
	limiter *RateLimiter

	sleep func(time.Duration)
}

// NewJudge creates an answer judge sharing the generator's rate limiter.
func NewJudge(client *Client, limiter *RateLimiter) *Judge {
	return &Judge{
		client:  client,
		limiter: limiter,
		sleep:   time.Sleep,
	}
}

// Judge returns a judgement with score in [0, 10] and feedback text.
func (j *Judge) Judge(ctx context.Context, questionText, answerText string) model.Judgement {
	if !j.client.Configured() {
		slog.Warn("LLM API key is not set, using heuristic score")
		return heuristicJudgement(answerText)
	}

	prompt := buildJudgingPrompt(questionText, answerText)

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		j.limiter.Wait()

		raw, err := j.client.Complete(ctx, prompt, 0.3, 150)
		if err == nil {
			var jm model.Judgement
			jm, err = parseJudgement(raw)
			if err == nil {
				slog.Debug("answer judged", "score", jm.Score, "attempt", attempt)
				return jm
			}
		}

		slog.Warn("judging attempt failed", "attempt", attempt, "error", err)
		if attempt == maxAttempts {
			break
		}
		if isRateLimited(err) {
			j.sleep(rateLimitBackoff * (1 << attempt))
		} else {
			j.sleep(retryBackoff * time.Duration(attempt))
		}
	}

	slog.Warn("all judging attempts failed, using heuristic score")
	return heuristicJudgement(answerText)
}

// parseJudgement extracts and validates the {"score": n, "feedback": "…"}
// object. Score must be numeric and feedback a string; the score is rounded
// and clamped to [0, 10].
func parseJudgement(raw string) (model.Judgement, error) {
	obj, err := extractObject(raw)
	if err != nil {
		return model.Judgement{}, err
	}

	var parsed struct {
		Score    *float64 `json:"score"`
		Feedback *string  `json:"feedback"`
	}
	if err := json.Unmarshal([]byte(obj), &parsed); err != nil {
		return model.Judgement{}, err
	}
	if parsed.Score == nil || parsed.Feedback == nil {
		return model.Judgement{}, errors.New("judgement missing score or feedback")
	}

	score := int(math.Round(*parsed.Score))
	if score < 0 {
		score = 0
	}
	if score > 10 {
		score = 10
	}
	return model.Judgement{Score: score, Feedback: *parsed.Feedback}, nil
}

// heuristicJudgement derives a score from the answer's word count:
// min(8, max(2, words/10 + 3)).
func heuristicJudgement(answerText string) model.Judgement {
	words := len(strings.Fields(answerText))
	score := words/10 + 3
	if score < 2 {
		score = 2
	}
	if score > 8 {
		score = 8
	}
	return model.Judgement{Score: score, Feedback: fallbackFeedback}
}
