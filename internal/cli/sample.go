package cli

import "quiz-service/internal/domain"

// sampleQuizzes backs the in-memory catalog and the --seed-sample migration.
func sampleQuizzes() map[string]domain.Quiz {
	return map[string]domain.Quiz{
		"quiz-1": {
			ID:       "quiz-1",
			Title:    "Go Basics",
			Category: "programming",
			Active:   true,
			Questions: []domain.Question{
				{
					ID:     "q1",
					Type:   domain.QuestionMultipleChoice,
					Prompt: "Which keyword starts a goroutine?",
					Answers: []domain.AnswerOption{
						{ID: "a1", Text: "go", IsCorrect: true},
						{ID: "a2", Text: "async"},
						{ID: "a3", Text: "spawn"},
					},
				},
				{
					ID:     "q2",
					Type:   domain.QuestionMultipleChoice,
					Prompt: "What is the zero value of a map?",
					Answers: []domain.AnswerOption{
						{ID: "a1", Text: "an empty map"},
						{ID: "a2", Text: "nil", IsCorrect: true},
					},
				},
				{
					ID:             "q3",
					Type:           domain.QuestionCoding,
					Prompt:         "Print hello",
					Language:       "python",
					ExpectedOutput: "hello",
				},
			},
		},
		"quiz-2": {
			ID:       "quiz-2",
			Title:    "World Capitals",
			Category: "geography",
			Active:   true,
			Questions: []domain.Question{
				{
					ID:     "q1",
					Type:   domain.QuestionMultipleChoice,
					Prompt: "What is the capital of Japan?",
					Answers: []domain.AnswerOption{
						{ID: "a1", Text: "Kyoto"},
						{ID: "a2", Text: "Tokyo", IsCorrect: true},
					},
				},
			},
		},
	}
}
