package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/mockmate/mockmate/internal/model"
)

const (
	maxAttempts      = 3
	rateLimitBackoff = 5 * time.Second
	retryBackoff     = 2 * time.Second

	// cacheKeyLen is how much of the resume text keys the question cache.
	cacheKeyLen = 100
)

// fallbackCategories is the deterministic question set served when the
// generation endpoint is unavailable or exhausted its retries.
var fallbackCategories = model.QuestionCategories{
	Easy: []string{
		"Tell me about yourself and your background.",
		"What interests you about this full-stack developer position?",
	},
	Medium: []string{
		"Describe a challenging project you worked on and how you overcame obstacles.",
		"Explain the difference between React state and props.",
	},
	Hard: []string{
		"How would you optimize the performance of a React application?",
		"Design a scalable architecture for a high-traffic web application.",
	},
}

// CategoryCache persists generated question categories keyed by a resume
// text prefix, so repeated sessions for the same resume skip the external
// call.
type CategoryCache interface {
	GetCategories(key string) (model.QuestionCategories, bool, error)
	PutCategories(key string, cats model.QuestionCategories) error
}

// memoryCache is the in-process CategoryCache used when no persistent cache
// is wired in.
type memoryCache struct {
	mu   sync.Mutex
	cats map[string]model.QuestionCategories
}

func (m *memoryCache) GetCategories(key string) (model.QuestionCategories, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.cats[key]
	return c, ok, nil
}

func (m *memoryCache) PutCategories(key string, cats model.QuestionCategories) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cats == nil {
		m.cats = make(map[string]model.QuestionCategories)
	}
	m.cats[key] = cats
	return nil
}

// Generator turns resume text into the fixed-shape interview question set.
// Generate never fails outward: retries are bounded and every failure path
// ends in the built-in fallback set.
type Generator struct {
	client  *Client
	limiter *RateLimiter
	cache   CategoryCache

	sleep func(time.Duration)
}

// NewGenerator creates a question generator. cache may be nil, in which
// case categories are cached in memory only.
func NewGenerator(client *Client, limiter *RateLimiter, cache CategoryCache) *Generator {
	if cache == nil {
		cache = &memoryCache{}
	}
	return &Generator{
		client:  client,
		limiter: limiter,
		cache:   cache,
		sleep:   time.Sleep,
	}
}

// Generate returns exactly 6 questions for the resume: 2 per difficulty
// tier, ordered Easy, Medium, Hard, with tier time limits attached.
func (g *Generator) Generate(ctx context.Context, resumeText string) []model.Question {
	key := cacheKey(resumeText)

	if cats, ok, err := g.cache.GetCategories(key); err != nil {
		slog.Warn("question cache read failed", "error", err)
	} else if ok && cats.Complete() {
		slog.Debug("using cached questions", "key_len", len(key))
		return flatten(cats)
	}

	cats := g.fetchCategories(ctx, resumeText)
	if err := g.cache.PutCategories(key, cats); err != nil {
		slog.Warn("question cache write failed", "error", err)
	}
	return flatten(cats)
}

func (g *Generator) fetchCategories(ctx context.Context, resumeText string) model.QuestionCategories {
	if !g.client.Configured() {
		slog.Warn("LLM API key is not set, using fallback questions")
		return fallbackCategories
	}

	prompt := buildGenerationPrompt(resumeText)

	for attempt := 1; attempt <= maxAttempts; attempt++ {
		g.limiter.Wait()

		raw, err := g.client.Complete(ctx, prompt, 0.7, 2048)
		if err == nil {
			cats, parseErr := parseCategories(raw)
			if parseErr == nil {
				slog.Info("questions generated", "attempt", attempt)
				return cats
			}
			err = parseErr
		}

		slog.Warn("question generation attempt failed", "attempt", attempt, "error", err)
		if attempt == maxAttempts {
			break
		}
		if isRateLimited(err) {
			g.sleep(rateLimitBackoff * (1 << attempt))
		} else {
			g.sleep(retryBackoff * time.Duration(attempt))
		}
	}

	slog.Warn("all generation attempts failed, using fallback questions")
	return fallbackCategories
}

func parseCategories(raw string) (model.QuestionCategories, error) {
	var cats model.QuestionCategories
	obj, err := extractObject(raw)
	if err != nil {
		return cats, err
	}
	if err := json.Unmarshal([]byte(obj), &cats); err != nil {
		return cats, fmt.Errorf("parse categories: %w", err)
	}
	if !cats.Complete() {
		return cats, fmt.Errorf("incomplete category object: %d/%d/%d questions",
			len(cats.Easy), len(cats.Medium), len(cats.Hard))
	}
	return cats, nil
}

func cacheKey(resumeText string) string {
	if len(resumeText) > cacheKeyLen {
		return resumeText[:cacheKeyLen]
	}
	return resumeText
}

// flatten turns the category object into the ordered 6-question list with
// ids e0, e1, m0, m1, h0, h1.
func flatten(cats model.QuestionCategories) []model.Question {
	var questions []model.Question
	add := func(prefix string, tier model.Difficulty, texts []string) {
		for i, text := range texts[:2] {
			questions = append(questions, model.Question{
				ID:               fmt.Sprintf("%s%d", prefix, i),
				Text:             text,
				Difficulty:       tier,
				TimeLimitSeconds: tier.TimeLimitSeconds(),
			})
		}
	}
	add("e", model.DifficultyEasy, cats.Easy)
	add("m", model.DifficultyMedium, cats.Medium)
	add("h", model.DifficultyHard, cats.Hard)
	return questions
}
