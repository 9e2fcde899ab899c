package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/mockmate/mockmate/internal/model"
)

// resetDelay is how long the Complete stage is shown before the session
// auto-resets for the next candidate.
const resetDelay = 5 * time.Second

// QuestionSource generates the interview question set from resume text.
type QuestionSource interface {
	Generate(ctx context.Context, resumeText string) []model.Question
}

// Evaluator scores a completed interview.
type Evaluator interface {
	Evaluate(ctx context.Context, answers model.AnswerRecord, questions []model.Question) model.EvaluationResult
}

// Recorder appends completed interview records for the reviewer.
type Recorder interface {
	Append(rec model.InterviewRecord) (model.InterviewRecord, error)
}

// StateStore persists the active session across process restarts.
type StateStore interface {
	SaveSession(state model.SessionState) error
	LoadSession() (*model.SessionState, error)
}

// Machine drives a single candidate session through the interview stages:
// upload, collect_details, ready, in_progress, complete. One session is
// active at a time; all operations are serialized on an internal mutex.
type Machine struct {
	questions QuestionSource
	evaluator Evaluator
	records   Recorder
	states    StateStore
	countdown Countdown

	schedule func(time.Duration, func())

	mu        sync.Mutex
	state     model.SessionState
	draft     string
	handle    CountdownHandle
	resumable bool

	// generation is bumped on restart/reset. Async effects (countdown
	// expiry, finished evaluations, the auto-reset) capture it and are
	// discarded when it has moved on.
	generation uint64
}

// New creates a session machine. All dependencies are required.
func New(questions QuestionSource, evaluator Evaluator, records Recorder, states StateStore, countdown Countdown) *Machine {
	return &Machine{
		questions: questions,
		evaluator: evaluator,
		records:   records,
		states:    states,
		countdown: countdown,
		schedule: func(d time.Duration, f func()) {
			time.AfterFunc(d, f)
		},
		state: freshState(),
	}
}

func freshState() model.SessionState {
	return model.SessionState{
		Stage:   model.StageUpload,
		Answers: model.AnswerRecord{},
	}
}

// Load restores the last persisted session state. A restored session in a
// non-upload, non-complete stage is flagged resumable: the countdown stays
// paused until the candidate chooses Continue or Restart.
func (m *Machine) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	saved, err := m.states.LoadSession()
	if err != nil {
		return fmt.Errorf("load session state: %w", err)
	}
	if saved == nil {
		return nil
	}

	m.state = *saved
	if m.state.Answers == nil {
		m.state.Answers = model.AnswerRecord{}
	}

	switch {
	case m.state.Stage == model.StageComplete:
		// The auto-reset never fired before shutdown; the record is
		// already stored, so show the next candidate a fresh session.
		slog.Info("restored completed session, resetting")
		m.resetLocked()
	case m.state.Stage == model.StageInProgress && m.state.Current >= len(m.state.Questions):
		// Shut down while the evaluation was running. The result is
		// lost and there is no question left to resume into.
		slog.Warn("restored session interrupted during evaluation, resetting")
		m.resetLocked()
	case m.state.Stage != model.StageUpload:
		m.resumable = true
		slog.Info("restored unfinished session", "stage", m.state.Stage)
	}
	return nil
}

// ResumePending reports whether a restored unfinished session is waiting
// for a continue-or-restart decision.
func (m *Machine) ResumePending() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.resumable
}

// Continue resumes a restored session. An in-progress session restarts its
// countdown from the persisted remaining time.
func (m *Machine) Continue() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.resumable {
		return fmt.Errorf("no session to resume")
	}
	m.resumable = false

	if m.state.Stage == model.StageInProgress {
		if m.state.RemainingSeconds <= 0 {
			m.state.RemainingSeconds = m.currentQuestionLocked().TimeLimitSeconds
		}
		m.startCountdownLocked()
	}
	return nil
}

// SetDetails installs extracted candidate details and advances the stage:
// collect_details when any of name/email/phone is missing, else ready.
func (m *Machine) SetDetails(details model.CandidateDetails) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	switch m.state.Stage {
	case model.StageUpload, model.StageCollectDetails, model.StageReady:
	default:
		return fmt.Errorf("cannot upload a resume while the interview is %s", m.state.Stage)
	}

	m.resumable = false
	m.state.Details = details
	if len(details.MissingFields()) > 0 {
		m.state.Stage = model.StageCollectDetails
	} else {
		m.state.Stage = model.StageReady
	}
	m.saveLocked()
	return nil
}

// MissingFields returns the detail fields the chat still has to collect.
func (m *Machine) MissingFields() []model.Field {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state.Details.MissingFields()
}

// NextPrompt returns the scripted chat question for the next missing
// field, or "" when nothing is missing.
func (m *Machine) NextPrompt() string {
	m.mu.Lock()
	defer m.mu.Unlock()

	missing := m.state.Details.MissingFields()
	if len(missing) == 0 {
		return ""
	}
	return fmt.Sprintf("What is your %s?", missing[0])
}

// ProvideDetail fills the next missing detail field with the chat answer.
// When the last gap is filled the stage advances to ready.
func (m *Machine) ProvideDetail(value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state.Stage != model.StageCollectDetails {
		return fmt.Errorf("not collecting details in stage %s", m.state.Stage)
	}
	value = strings.TrimSpace(value)
	if value == "" {
		return fmt.Errorf("detail value must not be empty")
	}

	missing := m.state.Details.MissingFields()
	m.state.Details.Set(missing[0], value)
	if len(missing) == 1 {
		m.state.Stage = model.StageReady
	}
	m.saveLocked()
	return nil
}

// Start begins the timed interview: questions are generated from the
// stored resume text and the first countdown starts.
func (m *Machine) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.state.Stage != model.StageReady {
		m.mu.Unlock()
		return fmt.Errorf("cannot start interview from stage %s", m.state.Stage)
	}
	gen := m.generation
	resumeText := m.state.Details.ResumeText
	m.mu.Unlock()

	// Generation can block on retries; run it outside the lock.
	questions := m.questions.Generate(ctx, resumeText)

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.generation != gen || m.state.Stage != model.StageReady {
		return fmt.Errorf("session was restarted during question generation")
	}

	m.state.Questions = questions
	m.state.Answers = model.AnswerRecord{}
	m.state.Current = 0
	m.state.RemainingSeconds = questions[0].TimeLimitSeconds
	m.state.Stage = model.StageInProgress
	m.draft = ""
	m.startCountdownLocked()
	m.saveLocked()
	return nil
}

// SetDraft mirrors the answer text the candidate has typed so far. The
// draft is what gets captured on expiry or explicit advance.
func (m *Machine) SetDraft(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state.Stage != model.StageInProgress {
		return fmt.Errorf("no question is active in stage %s", m.state.Stage)
	}
	m.draft = text
	return nil
}

// Next advances past the current question before its time expires. The
// countdown is stopped first so the expiry cannot fire a second advance.
func (m *Machine) Next() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state.Stage != model.StageInProgress {
		return fmt.Errorf("no question is active in stage %s", m.state.Stage)
	}
	if m.state.Current >= len(m.state.Questions) {
		return fmt.Errorf("answers are already being evaluated")
	}
	m.stopCountdownLocked()
	m.advanceLocked()
	return nil
}

// Restart discards the session and returns to the upload stage.
func (m *Machine) Restart() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.resetLocked()
	return nil
}

// Snapshot returns a copy of the current session state with live countdown
// remaining time.
func (m *Machine) Snapshot() model.SessionState {
	m.mu.Lock()
	defer m.mu.Unlock()

	snap := m.state
	snap.Questions = append([]model.Question(nil), m.state.Questions...)
	snap.Answers = make(model.AnswerRecord, len(m.state.Answers))
	for k, v := range m.state.Answers {
		snap.Answers[k] = v
	}
	return snap
}

// CurrentQuestion returns the active question while the interview is in
// progress.
func (m *Machine) CurrentQuestion() (model.Question, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state.Stage != model.StageInProgress || m.state.Current >= len(m.state.Questions) {
		return model.Question{}, false
	}
	return m.currentQuestionLocked(), true
}

func (m *Machine) currentQuestionLocked() model.Question {
	return m.state.Questions[m.state.Current]
}

func (m *Machine) startCountdownLocked() {
	gen := m.generation
	index := m.state.Current
	m.handle = m.countdown.Start(m.state.RemainingSeconds,
		func(remaining int) { m.onTick(gen, index, remaining) },
		func() { m.onExpire(gen, index) },
	)
}

func (m *Machine) stopCountdownLocked() {
	if m.handle != nil {
		m.handle.Stop()
		m.handle = nil
	}
}

func (m *Machine) onTick(gen uint64, index, remaining int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.generation != gen || m.state.Stage != model.StageInProgress || m.state.Current != index {
		return
	}
	m.state.RemainingSeconds = remaining
}

func (m *Machine) onExpire(gen uint64, index int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.generation != gen || m.state.Stage != model.StageInProgress || m.state.Current != index {
		return
	}
	m.handle = nil
	m.state.RemainingSeconds = 0
	m.advanceLocked()
}

// advanceLocked captures the draft answer and moves to the next question,
// or runs the evaluation when the last question was just answered. Called
// with the mutex held; releases it around the evaluation.
func (m *Machine) advanceLocked() {
	q := m.currentQuestionLocked()
	m.state.Answers[q.ID] = m.draft
	m.draft = ""
	m.state.Current++

	if m.state.Current < len(m.state.Questions) {
		m.state.RemainingSeconds = m.currentQuestionLocked().TimeLimitSeconds
		m.startCountdownLocked()
		m.saveLocked()
		return
	}

	gen := m.generation
	answers := make(model.AnswerRecord, len(m.state.Answers))
	for k, v := range m.state.Answers {
		answers[k] = v
	}
	questions := append([]model.Question(nil), m.state.Questions...)
	details := m.state.Details
	m.saveLocked()

	// The evaluation can run for up to its internal ceiling; do not hold
	// the session lock for that long.
	m.mu.Unlock()
	result := m.evaluator.Evaluate(context.Background(), answers, questions)
	m.mu.Lock()

	if m.generation != gen {
		// Session was restarted mid-evaluation; discard the late result
		// so no record is written for a discarded session.
		slog.Warn("discarding evaluation result for restarted session")
		return
	}

	m.state.Stage = model.StageComplete
	m.state.Score = result.Score
	m.state.Summary = result.Summary
	m.saveLocked()

	if _, err := m.records.Append(model.InterviewRecord{
		Details:       details,
		Answers:       answers,
		Score:         result.Score,
		Summary:       result.Summary,
		JudgedAnswers: result.JudgedAnswers,
	}); err != nil {
		slog.Error("failed to store interview record", "error", err)
	}

	m.schedule(resetDelay, func() { m.autoReset(gen) })
}

func (m *Machine) autoReset(gen uint64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.generation != gen || m.state.Stage != model.StageComplete {
		return
	}
	m.resetLocked()
}

func (m *Machine) resetLocked() {
	m.stopCountdownLocked()
	m.generation++
	m.state = freshState()
	m.draft = ""
	m.resumable = false
	m.saveLocked()
}

func (m *Machine) saveLocked() {
	if err := m.states.SaveSession(m.state); err != nil {
		slog.Error("failed to persist session state", "error", err)
	}
}
