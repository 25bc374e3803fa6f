package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"quiz-service/internal/app"
)

// Handler exposes the attempt, progress and activity use cases over HTTP.
type Handler struct {
	attempts *app.AttemptService
	progress *app.ProgressService
	feed     *app.ActivityFeed
	upgrader websocket.Upgrader
}

func NewHandler(attempts *app.AttemptService, progress *app.ProgressService, feed *app.ActivityFeed) *Handler {
	return &Handler{
		attempts: attempts,
		progress: progress,
		feed:     feed,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// NewRouter wires the routes behind request-id and auth middleware.
func NewRouter(h *Handler, jwtSecret []byte) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), RequestID())

	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})

	api := r.Group("/", Auth(jwtSecret))
	api.GET("/quizzes/progress", h.MostRecentProgress)
	api.POST("/quizzes/:quiz_id/attempts", h.SubmitAttempt)
	api.GET("/quizzes/:quiz_id/attempts", h.ListAttempts)
	api.GET("/quizzes/:quiz_id/attempts/:attempt_id", h.GetAttempt)
	api.POST("/quizzes/:quiz_id/progress", h.SaveProgress)
	api.GET("/quizzes/:quiz_id/progress", h.LoadProgress)
	api.DELETE("/quizzes/:quiz_id/progress", h.ClearProgress)
	api.GET("/activity", h.ListActivity)
	api.GET("/ws/activity", h.ServeActivityWS)
	return r
}
