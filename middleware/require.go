package middleware

import (
	"net/http"

	"mirage/image-api/model"

	"github.com/gin-gonic/gin"
)

// RequireAuth rejects requests the session guard left unauthenticated
func RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !c.GetBool(CtxLoggedIn) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Unauthorized",
			})
			return
		}

		c.Next()
	}
}

// RequireModerator rejects authenticated users without moderator or
// admin standing
func RequireModerator() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := sessionUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Unauthorized",
			})
			return
		}

		if !user.Moderator && !user.Admin {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Not a moderator",
			})
			return
		}

		c.Next()
	}
}

// RequireAdmin rejects everyone but admins
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := sessionUser(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Unauthorized",
			})
			return
		}

		if !user.Admin {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Not an admin",
			})
			return
		}

		c.Next()
	}
}

func sessionUser(c *gin.Context) (*model.User, bool) {
	if !c.GetBool(CtxLoggedIn) {
		return nil, false
	}

	v, ok := c.Get(CtxUser)
	if !ok {
		return nil, false
	}

	user, ok := v.(*model.User)
	return user, ok
}
