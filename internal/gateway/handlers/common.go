package handlers

import (
	"log"
	"net/http"
	"strconv"

	"whisk-system/internal/api"
	"whisk-system/internal/gateway/middleware"

	"github.com/gin-gonic/gin"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Helper functions
func respondError(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{
		"success": false,
		"error":   message,
	})
}

// respondServiceError maps a service status code onto the HTTP status the
// dashboard expects. Internal errors are logged with the request id.
func respondServiceError(c *gin.Context, err error) {
	st, ok := status.FromError(err)
	if !ok {
		log.Printf("[%s] %s %s: %v", c.GetString(middleware.RequestIDKey), c.Request.Method, c.FullPath(), err)
		respondError(c, http.StatusInternalServerError, "Internal server error")
		return
	}

	code := http.StatusInternalServerError
	switch st.Code() {
	case codes.InvalidArgument:
		code = http.StatusBadRequest
	case codes.NotFound:
		code = http.StatusNotFound
	case codes.Unauthenticated:
		c.Header("WWW-Authenticate", "Bearer")
		code = http.StatusUnauthorized
	case codes.AlreadyExists:
		code = http.StatusConflict
	default:
		log.Printf("[%s] %s %s: %v", c.GetString(middleware.RequestIDKey), c.Request.Method, c.FullPath(), err)
	}
	respondError(c, code, st.Message())
}

func respondDeleted(c *gin.Context, what string) {
	c.JSON(http.StatusOK, gin.H{"detail": what + " deleted"})
}

func parseIDParam(c *gin.Context, param string) (int64, bool) {
	val, err := strconv.ParseInt(c.Param(param), 10, 64)
	if err != nil || val <= 0 {
		respondError(c, http.StatusBadRequest, "Invalid "+param)
		return 0, false
	}
	return val, true
}

func parseIntQuery(c *gin.Context, param string, def int) int {
	str := c.Query(param)
	if str == "" {
		return def
	}
	val, err := strconv.Atoi(str)
	if err != nil {
		return def
	}
	return val
}

func buildPage(c *gin.Context) api.Page {
	return api.Page{
		Skip:  parseIntQuery(c, "skip", 0),
		Limit: parseIntQuery(c, "limit", 0),
	}
}

func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}
