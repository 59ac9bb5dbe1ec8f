package session

import (
	"github.com/gin-gonic/gin"
)

const ginContextKey = "hub_session_data"

// ToGin attaches a session to the request context.
func ToGin(c *gin.Context, s *Session) {
	c.Set(ginContextKey, s)
}

// FromGin returns the session attached to the request, or nil.
func FromGin(c *gin.Context) *Session {
	v, ok := c.Get(ginContextKey)
	if !ok {
		return nil
	}
	s, _ := v.(*Session)
	return s
}
