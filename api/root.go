package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/spf13/viper"
)

func (a *API) DiscordRedirect(c *gin.Context) {
	c.Redirect(http.StatusFound, viper.GetString("discord.invite_url"))
}

func (a *API) Contact(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"email":   "abuse@" + viper.GetString("host.domain"),
		"discord": viper.GetString("discord.invite_url"),
	})
}

// Error exists so uptime monitoring can verify the recovery and error
// reporting path end to end
func (a *API) Error(c *gin.Context) {
	panic("Test exception")
}
