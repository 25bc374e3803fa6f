package http

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	ctxUserID    = "userID"
	ctxIsAdmin   = "isAdmin"
	ctxRequestID = "requestID"

	roleAdmin = "admin"
)

// Claims are issued by the external auth service; only verification happens here.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// RequestID tags every request with an id and logs it on completion.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(ctxRequestID, id)
		c.Header("X-Request-ID", id)

		start := time.Now()
		c.Next()
		log.Printf("[http] %s %s %d %s request_id=%s", c.Request.Method, c.FullPath(), c.Writer.Status(), time.Since(start), id)
	}
}

// Auth verifies an HS256 bearer token. Websocket clients may pass it as ?token=.
func Auth(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, err := bearerToken(c)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}

		claims := &Claims{}
		token, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return secret, nil
		})
		if err != nil || !token.Valid || claims.Subject == "" {
			log.Printf("[auth] token rejected: %v", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(ctxUserID, claims.Subject)
		c.Set(ctxIsAdmin, claims.Role == roleAdmin)
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, error) {
	header := c.GetHeader("Authorization")
	if header == "" {
		if q := c.Query("token"); q != "" {
			return q, nil
		}
		return "", errors.New("Authorization header is required")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", errors.New("Authorization header must be in the format: Bearer {token}")
	}
	return parts[1], nil
}

func currentUser(c *gin.Context) (string, bool) {
	return c.GetString(ctxUserID), c.GetBool(ctxIsAdmin)
}
