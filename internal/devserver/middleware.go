package devserver

import (
	"net/http"
	"strings"

	"github.com/homestage-ai/staging-client/internal/types"
	"github.com/homestage-ai/staging-client/internal/utils/hashutil"

	"github.com/gin-gonic/gin"
)

const fingerprintHeader = "x-fingerprint"

// authentication admits three kinds of callers: bearer tokens (accepted
// as-is, the stub has no auth service to verify against), API keys
// checked against the configured sha3 hashes, and anonymous devices
// identified by fingerprint. Anonymous quota is enforced later, inside
// the stream, the way the production service reports it.
func (s *Server) authentication(c *gin.Context) {
	authorization := c.Request.Header.Get("Authorization")
	apikey := c.Request.Header.Get("X-API-Key")
	fp := c.Request.Header.Get(fingerprintHeader)

	switch {
	case strings.HasPrefix(authorization, "Bearer "):
		c.Next()
	case apikey != "":
		if _, ok := s.keyHashes[hashutil.Sha3256Hash([]byte(apikey))]; !ok {
			abortWithError(c, http.StatusUnauthorized, "INVALID_API_KEY", "The provided API key is invalid")
			return
		}
		c.Next()
	case fp != "":
		c.Set("fingerprint", fp)
		c.Next()
	default:
		abortWithError(c, http.StatusUnauthorized, "UNAUTHORIZED", "Provide a bearer token, API key, or device fingerprint")
	}
}

func abortWithError(c *gin.Context, status int, code, message string) {
	c.JSON(status, types.Envelope{
		Success: false,
		Error:   &types.APIErrorBody{Code: code, Message: message},
	})
	c.Abort()
}
