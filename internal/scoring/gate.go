package scoring

// GateResult is the validity decision for one story.
type GateResult struct {
	Valid bool
	// Failed is the first control question that was unanswered or wrong.
	Failed *Question
}

// isControlQuestion reports whether q is one of the comprehension checks
// that decide story validity.
func isControlQuestion(q Question) bool {
	return q.IsControl && (q.Order == OrderControlA || q.Order == OrderControlB)
}

func controlQuestions(questions []Question) []Question {
	var out []Question
	for _, q := range questions {
		if isControlQuestion(q) {
			out = append(out, q)
		}
	}
	return out
}

// CheckGate decides whether the subject understood the story. Every
// authored control question must be answered and correct. A story without
// control questions is valid.
func CheckGate(questions []Question, answers map[int64]AnswerRecord) GateResult {
	for _, q := range controlQuestions(questions) {
		a, ok := answers[q.ID]
		if !ok || !IsCorrect(a.AnswerText, q.CorrectAnswer, q.Type) {
			return GateResult{Failed: &q}
		}
	}
	return GateResult{Valid: true}
}
