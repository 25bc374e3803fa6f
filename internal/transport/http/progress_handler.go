package http

import (
	"bytes"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"
	"quiz-service/internal/domain"
)

type saveProgressBody struct {
	CurrentQuestion int             `json:"current_question" validate:"gte=0"`
	Answers         json.RawMessage `json:"answers"`
}

type progressView struct {
	CurrentQuestion int         `json:"current_question"`
	Answers         interface{} `json:"answers"`
	LastUpdated     *int64      `json:"last_updated"`
}

// decodeAnswers accepts an object keyed by question id. Clients that never answered
// anything send [] or null, which both mean "no answers".
func decodeAnswers(raw json.RawMessage) (map[string]json.RawMessage, error) {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return nil, nil
	}
	if trimmed[0] == '[' {
		var list []json.RawMessage
		if err := json.Unmarshal(trimmed, &list); err != nil || len(list) > 0 {
			return nil, domain.NewValidationError("answers", "must be an object keyed by question id")
		}
		return nil, nil
	}
	var out map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &out); err != nil {
		return nil, domain.NewValidationError("answers", "must be an object keyed by question id")
	}
	return out, nil
}

func snapshotView(snap domain.ProgressSnapshot) progressView {
	view := progressView{CurrentQuestion: snap.CurrentQuestion, Answers: []interface{}{}}
	if len(snap.Answers) > 0 {
		view.Answers = snap.Answers
	}
	if snap.LastUpdated > 0 {
		ts := snap.LastUpdated
		view.LastUpdated = &ts
	}
	return view
}

// SaveProgress handles POST /quizzes/:quiz_id/progress.
func (h *Handler) SaveProgress(c *gin.Context) {
	userID, _ := currentUser(c)

	var body saveProgressBody
	if err := c.ShouldBindJSON(&body); err != nil {
		writeError(c, domain.NewValidationError("body", "must be a JSON object"))
		return
	}
	if err := validateBody(body); err != nil {
		writeError(c, err)
		return
	}
	answers, err := decodeAnswers(body.Answers)
	if err != nil {
		writeError(c, err)
		return
	}

	snap, err := h.progress.Save(c.Request.Context(), userID, c.Param("quiz_id"), body.CurrentQuestion, answers)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, snapshotView(snap))
}

// LoadProgress handles GET /quizzes/:quiz_id/progress.
func (h *Handler) LoadProgress(c *gin.Context) {
	userID, _ := currentUser(c)
	snap, ok, err := h.progress.Load(c.Request.Context(), userID, c.Param("quiz_id"))
	if err != nil {
		writeError(c, err)
		return
	}
	if !ok {
		snap = domain.ProgressSnapshot{}
	}
	c.JSON(http.StatusOK, snapshotView(snap))
}

// ClearProgress handles DELETE /quizzes/:quiz_id/progress.
func (h *Handler) ClearProgress(c *gin.Context) {
	userID, _ := currentUser(c)
	if err := h.progress.Clear(c.Request.Context(), userID, c.Param("quiz_id")); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// MostRecentProgress handles GET /quizzes/progress. The body is null when nothing is in flight.
func (h *Handler) MostRecentProgress(c *gin.Context) {
	userID, _ := currentUser(c)
	active, err := h.progress.MostRecent(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	if active == nil {
		c.JSON(http.StatusOK, nil)
		return
	}
	c.JSON(http.StatusOK, active)
}
