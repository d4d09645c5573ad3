package api

import (
	"mirage/image-api/middleware"

	"github.com/gin-gonic/gin"
)

// viewLocals returns the fields every rendered view model carries:
// authentication state, the serialized profile and any banner the
// session guard raised for this request
func viewLocals(c *gin.Context) gin.H {
	h := gin.H{
		"loggedIn": c.GetBool(middleware.CtxLoggedIn),
	}

	if p, ok := c.Get(middleware.CtxProfile); ok {
		h["profile"] = p
	}

	if b, ok := c.Get(middleware.CtxBanner); ok {
		h["globalMessage"] = b
		h["globalMessageClass"] = c.GetString(middleware.CtxBannerClass)
	}

	return h
}
