package http

import (
	"log"

	"github.com/gin-gonic/gin"
	"quiz-service/internal/domain"
)

type outboundMessage[T any] struct {
	Type    string `json:"type"`
	Payload T      `json:"payload"`
}

// ServeActivityWS streams the caller's new activity entries as they are committed.
// The socket is push-only; inbound frames are read just to notice the close.
func (h *Handler) ServeActivityWS(c *gin.Context) {
	userID, _ := currentUser(c)

	// subscribe before the handshake completes so nothing committed after it is missed
	updates, cancel := h.feed.Subscribe(userID)
	defer cancel()

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("ws upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	send := make(chan outboundMessage[domain.Activity], 16)
	closeSignals := make(chan struct{})
	writerDone := make(chan struct{})
	updatesDone := make(chan struct{})

	// single writer goroutine; gorilla connections do not allow concurrent writes
	go func() {
		defer close(writerDone)
		for msg := range send {
			if err := conn.WriteJSON(msg); err != nil {
				log.Printf("ws write error user=%s: %v", userID, err)
				return
			}
		}
	}()

	go func() {
		defer close(updatesDone)
		for {
			select {
			case activity, ok := <-updates:
				if !ok {
					return
				}
				select {
				case send <- outboundMessage[domain.Activity]{Type: "activity", Payload: activity}:
				case <-closeSignals:
					return
				}
			case <-closeSignals:
				return
			}
		}
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}

	close(closeSignals)
	<-updatesDone
	close(send)
	<-writerDone
}
