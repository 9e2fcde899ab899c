package ai

import (
	"fmt"
	"strings"
)

func buildGenerationPrompt(resumeText string) string {
	var sb strings.Builder
	sb.WriteString("Based on the following resume text for a full-stack (React/Node.js) role, ")
	sb.WriteString("generate a set of 6 interview questions. ")
	sb.WriteString("The questions must be answerable within the following time limits: ")
	sb.WriteString("Easy questions in 20 seconds, Medium questions in 60 seconds, and Hard questions in 120 seconds. ")
	sb.WriteString("Categorize the questions into 'easy', 'medium', and 'hard' difficulties, ")
	sb.WriteString("with 2 questions for each category. ")
	sb.WriteString(`Return the questions in a valid JSON object format like this: `)
	sb.WriteString(`{ "easy": ["q1", "q2"], "medium": ["q3", "q4"], "hard": ["q5", "q6"] }. `)
	sb.WriteString("Resume Text: --- " + resumeText + " ---")
	return sb.String()
}

func buildJudgingPrompt(questionText, answerText string) string {
	return fmt.Sprintf(
		`A candidate was asked: %q. They answered: %q. `+
			`As a senior interviewer, rate this answer from 1-10 and provide brief feedback. `+
			`Respond ONLY with valid JSON: {"score": number, "feedback": "text"}`,
		questionText, answerText,
	)
}
