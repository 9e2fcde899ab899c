package model

import "time"

// Difficulty represents a question difficulty tier. Each tier fixes the
// per-question answer time.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Easy"
	DifficultyMedium Difficulty = "Medium"
	DifficultyHard   Difficulty = "Hard"
)

// TimeLimitSeconds returns the answer time allowed for the tier.
func (d Difficulty) TimeLimitSeconds() int {
	switch d {
	case DifficultyEasy:
		return 20
	case DifficultyMedium:
		return 60
	case DifficultyHard:
		return 120
	}
	return 0
}

// Field identifies one of the candidate detail fields the scripted chat can
// collect. The declaration order is the collection priority order.
type Field string

const (
	FieldName  Field = "name"
	FieldEmail Field = "email"
	FieldPhone Field = "phone"
)

// DetailFields lists all collectable fields in priority order.
var DetailFields = []Field{FieldName, FieldEmail, FieldPhone}

// CandidateDetails holds what we know about the active candidate. Empty
// strings mean the extractor could not find the field and the chat must
// collect it.
type CandidateDetails struct {
	Name       string `json:"name"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	ResumeText string `json:"resume_text"`
}

// Get returns the value of the named detail field.
func (d CandidateDetails) Get(f Field) string {
	switch f {
	case FieldName:
		return d.Name
	case FieldEmail:
		return d.Email
	case FieldPhone:
		return d.Phone
	}
	return ""
}

// Set assigns the named detail field.
func (d *CandidateDetails) Set(f Field, value string) {
	switch f {
	case FieldName:
		d.Name = value
	case FieldEmail:
		d.Email = value
	case FieldPhone:
		d.Phone = value
	}
}

// MissingFields returns the detail fields still unset, in priority order.
func (d CandidateDetails) MissingFields() []Field {
	var missing []Field
	for _, f := range DetailFields {
		if d.Get(f) == "" {
			missing = append(missing, f)
		}
	}
	return missing
}

// Question is one generated interview question. Immutable once generated.
// IDs follow the {tier-prefix}{index} scheme: e0, e1, m0, m1, h0, h1.
type Question struct {
	ID               string     `json:"id"`
	Text             string     `json:"text"`
	Difficulty       Difficulty `json:"difficulty"`
	TimeLimitSeconds int        `json:"time_limit_seconds"`
}

// QuestionCategories is the category object the generation call returns:
// two question texts per difficulty tier.
type QuestionCategories struct {
	Easy   []string `json:"easy"`
	Medium []string `json:"medium"`
	Hard   []string `json:"hard"`
}

// Complete reports whether every tier carries at least two questions.
func (c QuestionCategories) Complete() bool {
	return len(c.Easy) >= 2 && len(c.Medium) >= 2 && len(c.Hard) >= 2
}

// AnswerRecord maps question IDs to the candidate's freeform answer text.
// Unanswered questions are absent or empty.
type AnswerRecord map[string]string

// Judgement is the scored outcome for a single answer.
type Judgement struct {
	Score    int    `json:"score"`
	Feedback string `json:"feedback"`
}

// JudgedAnswer is the denormalized per-question result kept for the
// reviewer: the question, the answer given, and its judgement.
type JudgedAnswer struct {
	Question
	Answer   string `json:"answer"`
	Score    int    `json:"score"`
	Feedback string `json:"feedback"`
}

// EvaluationResult is the aggregate outcome of judging a full interview.
// Score is a rounded percentage in [0, 100].
type EvaluationResult struct {
	Score         int                     `json:"score"`
	Summary       string                  `json:"summary"`
	JudgedAnswers map[string]JudgedAnswer `json:"judged_answers"`
}

// InterviewRecord is the immutable unit stored for the reviewer dashboard:
// one completed (or fallback-completed) session.
type InterviewRecord struct {
	ID            string                  `json:"id"`
	Timestamp     time.Time               `json:"timestamp"`
	Details       CandidateDetails        `json:"details"`
	Answers       AnswerRecord            `json:"answers"`
	Score         int                     `json:"score"`
	Summary       string                  `json:"summary"`
	JudgedAnswers map[string]JudgedAnswer `json:"judged_answers"`
}

// Stage represents the candidate session stage. It is the single source of
// truth for which branch of the interview flow is active.
type Stage string

const (
	StageUpload         Stage = "upload"
	StageCollectDetails Stage = "collect_details"
	StageReady          Stage = "ready"
	StageInProgress     Stage = "in_progress"
	StageComplete       Stage = "complete"
)

// SessionState is the persistable snapshot of the active session. It is
// saved on every mutation and reloaded at process start.
type SessionState struct {
	Stage            Stage            `json:"stage"`
	Details          CandidateDetails `json:"details"`
	Questions        []Question       `json:"questions"`
	Answers          AnswerRecord     `json:"answers"`
	Current          int              `json:"current"`
	RemainingSeconds int              `json:"remaining_seconds"`
	Score            int              `json:"score"`
	Summary          string           `json:"summary"`
}

// SortKey selects the ordering for reviewer record listings.
type SortKey string

const (
	SortByName      SortKey = "name"
	SortByTimestamp SortKey = "timestamp"
	SortByScore     SortKey = "score"
)

// ReviewStats holds derived statistics over all stored interviews.
type ReviewStats struct {
	Total        int     `json:"total"`
	AverageScore float64 `json:"average_score"`
	HighestScore int     `json:"highest_score"`
}
