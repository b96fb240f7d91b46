package handler

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// actorFromContext resolves the acting user from the X-Actor header.
// Mutating endpoints that write audit notes require it.
func actorFromContext(c *gin.Context) string {
	return strings.TrimSpace(c.GetHeader("X-Actor"))
}
