package api

import (
	"net/http"

	"mirage/image-api/middleware"
	"mirage/image-api/model"

	"github.com/gin-gonic/gin"
)

// AccountFetch serves the profile page and its sub-pages. Which
// collections are present depends on the relations the route declared
// on its session guard, everything else stays unloaded
func (a *API) AccountFetch(c *gin.Context) {
	user := c.MustGet(middleware.CtxUser).(*model.User)

	locals := viewLocals(c)

	if user.Images != nil {
		locals["images"] = user.Images
	}
	if user.Pastes != nil {
		locals["pastes"] = user.Pastes
	}
	if user.URLs != nil {
		locals["urls"] = user.URLs
	}
	if user.Invites != nil {
		locals["invites"] = user.Invites
	}

	c.JSON(http.StatusOK, locals)
}
