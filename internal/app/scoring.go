package app

import "quiz-service/internal/domain"

// Score computes the 0-100 percentage of questions answered correctly.
// Coding questions trust the precomputed IsCorrect on the submitted answer.
func Score(questions []domain.Question, answers []domain.SubmittedAnswer) int {
	byQuestion := indexAnswers(answers)
	correct := 0
	for _, q := range questions {
		if a, ok := byQuestion[q.ID]; ok && isCorrect(q, a) {
			correct++
		}
	}
	return Percentage(correct, len(questions))
}

// Percentage returns round(correct/total*100) with halves rounded up; 0 when total is 0.
func Percentage(correct, total int) int {
	if total <= 0 {
		return 0
	}
	if correct < 0 {
		correct = 0
	}
	if correct > total {
		correct = total
	}
	return (200*correct + total) / (2 * total)
}

// BuildResponses yields exactly one response per quiz question, in quiz order.
// Answers for unknown questions are dropped; unanswered questions are recorded as incorrect.
func BuildResponses(questions []domain.Question, answers []domain.SubmittedAnswer) []domain.Response {
	byQuestion := indexAnswers(answers)
	responses := make([]domain.Response, 0, len(questions))
	for _, q := range questions {
		resp := domain.Response{QuestionID: q.ID}
		if a, ok := byQuestion[q.ID]; ok {
			resp.AnswerID = a.AnswerID
			resp.Code = a.Code
			resp.Output = a.Output
			resp.IsCorrect = isCorrect(q, a)
		}
		responses = append(responses, resp)
	}
	return responses
}

func isCorrect(q domain.Question, a domain.SubmittedAnswer) bool {
	if q.IsCoding() {
		return a.IsCorrect != nil && *a.IsCorrect
	}
	want := q.CorrectAnswerID()
	return want != "" && a.AnswerID != nil && *a.AnswerID == want
}

// indexAnswers keeps the first answer submitted for each question.
func indexAnswers(answers []domain.SubmittedAnswer) map[string]domain.SubmittedAnswer {
	out := make(map[string]domain.SubmittedAnswer, len(answers))
	for _, a := range answers {
		if _, seen := out[a.QuestionID]; !seen {
			out[a.QuestionID] = a
		}
	}
	return out
}
