package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"quiz-service/internal/app"
	"quiz-service/internal/domain"
)

type submitAnswerBody struct {
	QuestionID string  `json:"question_id" validate:"required"`
	AnswerID   *string `json:"answer_id"`
	Code       *string `json:"code"`
	Output     *string `json:"output"`
	IsCorrect  *bool   `json:"is_correct"`
}

type submitAttemptBody struct {
	Answers   []submitAnswerBody `json:"answers" validate:"required,dive"`
	TimeTaken int                `json:"time_taken" validate:"gte=0"`
}

type achievementView struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

type submitAttemptResponse struct {
	AttemptID int64             `json:"attempt_id"`
	Score     int               `json:"score"`
	Streak    int               `json:"streak"`
	Rank      int               `json:"rank"`
	Unlocked  []achievementView `json:"unlocked_achievements"`
}

// SubmitAttempt handles POST /quizzes/:quiz_id/attempts.
func (h *Handler) SubmitAttempt(c *gin.Context) {
	userID, _ := currentUser(c)

	var body submitAttemptBody
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, domain.NewValidationError("answers", "must be an array of answers"))
		return
	}
	if err := validateBody(body); err != nil {
		writeError(c, err)
		return
	}

	answers := make([]domain.SubmittedAnswer, 0, len(body.Answers))
	for _, a := range body.Answers {
		answers = append(answers, domain.SubmittedAnswer{
			QuestionID: a.QuestionID,
			AnswerID:   a.AnswerID,
			Code:       a.Code,
			Output:     a.Output,
			IsCorrect:  a.IsCorrect,
		})
	}

	result, err := h.attempts.Submit(c.Request.Context(), app.SubmitRequest{
		UserID:    userID,
		QuizID:    c.Param("quiz_id"),
		Answers:   answers,
		TimeTaken: body.TimeTaken,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	unlocked := make([]achievementView, 0, len(result.Unlocked))
	for _, a := range result.Unlocked {
		unlocked = append(unlocked, achievementView{ID: a.ID, Title: a.Title, Description: a.Description, Icon: a.Icon})
	}
	c.JSON(http.StatusCreated, submitAttemptResponse{
		AttemptID: result.Attempt.ID,
		Score:     result.Attempt.Score,
		Streak:    result.Streak,
		Rank:      result.Rank,
		Unlocked:  unlocked,
	})
}

// ListAttempts handles GET /quizzes/:quiz_id/attempts?user_id=.
// Only admins may list another user's attempts.
func (h *Handler) ListAttempts(c *gin.Context) {
	callerID, isAdmin := currentUser(c)
	userID := c.DefaultQuery("user_id", callerID)
	if userID != callerID && !isAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "You can only list your own attempts"})
		return
	}

	attempts, err := h.attempts.ListAttempts(c.Request.Context(), userID, c.Param("quiz_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if attempts == nil {
		attempts = []domain.Attempt{}
	}
	c.JSON(http.StatusOK, attempts)
}

// GetAttempt handles GET /quizzes/:quiz_id/attempts/:attempt_id.
func (h *Handler) GetAttempt(c *gin.Context) {
	callerID, isAdmin := currentUser(c)
	attemptID, err := strconv.ParseInt(c.Param("attempt_id"), 10, 64)
	if err != nil {
		writeError(c, domain.ErrAttemptNotFound)
		return
	}

	attempt, responses, err := h.attempts.GetAttempt(c.Request.Context(), callerID, isAdmin, c.Param("quiz_id"), attemptID)
	if err != nil {
		writeError(c, err)
		return
	}
	if responses == nil {
		responses = []domain.Response{}
	}
	c.JSON(http.StatusOK, gin.H{"attempt": attempt, "responses": responses})
}
