package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"mirage/image-api/discord"
	"mirage/image-api/middleware"
	"mirage/image-api/model"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
)

var discordEndpoint = oauth2.Endpoint{
	AuthURL:  "https://discord.com/oauth2/authorize",
	TokenURL: "https://discord.com/api/oauth2/token",
}

func oauthConfig() *oauth2.Config {
	return &oauth2.Config{
		ClientID:     viper.GetString("discord.oauth.client_id"),
		ClientSecret: viper.GetString("discord.oauth.client_secret"),
		RedirectURL:  viper.GetString("discord.oauth.redirect_url"),
		Endpoint:     discordEndpoint,
		Scopes:       []string{"identify"},
	}
}

// makeState signs the linking user's id into the OAuth state parameter
// so the callback can verify the flow wasn't started for someone else
func makeState(userID string) (string, error) {
	t := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"iat":     time.Now().Unix(),
		"exp":     time.Now().Add(10 * time.Minute).Unix(),
	})

	return t.SignedString([]byte(viper.GetString("session.secret")))
}

func verifyState(state, userID string) bool {
	token, err := jwt.Parse(state, func(t *jwt.Token) (any, error) {
		if t.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %s", t.Method.Alg())
		}

		return []byte(viper.GetString("session.secret")), nil
	})
	if err != nil || !token.Valid {
		return false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return false
	}

	sub, _ := claims["user_id"].(string)
	return sub == userID
}

func (a *API) OAuthDiscord(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	user := c.MustGet(middleware.CtxUser).(*model.User)

	state, err := makeState(user.ID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to sign OAuth state", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.Redirect(http.StatusFound, oauthConfig().AuthCodeURL(state))
}

func (a *API) OAuthDiscordCallback(c *gin.Context) {
	requestID := c.MustGet("requestID").(string)
	user := c.MustGet(middleware.CtxUser).(*model.User)

	if !verifyState(c.Query("state"), user.ID) {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Invalid OAuth state",
			"requestID": requestID,
		})
		return
	}

	code := c.Query("code")
	if code == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error":     "Missing OAuth code",
			"requestID": requestID,
		})
		return
	}

	cfg := oauthConfig()

	token, err := cfg.Exchange(c.Request.Context(), code)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{
			"error":     "Discord rejected the OAuth code",
			"requestID": requestID,
		})

		zap.L().Error("Failed to exchange OAuth code", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	resp, err := cfg.Client(c.Request.Context(), token).Get("https://discord.com/api/users/@me")
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{
			"error":     "Failed to fetch Discord identity",
			"requestID": requestID,
		})

		zap.L().Error("Failed to fetch Discord identity", zap.Error(err), zap.String("requestID", requestID))
		return
	}
	defer resp.Body.Close()

	var me struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&me); err != nil || me.ID == "" {
		c.AbortWithStatusJSON(http.StatusBadGateway, gin.H{
			"error":     "Failed to decode Discord identity",
			"requestID": requestID,
		})
		return
	}

	// Synchronous because the durable link itself happens in here, only
	// the role/nickname side effects inside are best-effort
	ctx, cancel := context.WithTimeout(c.Request.Context(), discord.SendTimeout)
	defer cancel()

	if err := a.Bot.LinkAccount(ctx, user, me.ID, viper.GetStringSlice("discord.linked_roles")); err != nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":     "Internal server error",
			"requestID": requestID,
		})

		zap.L().Error("Failed to link Discord account", zap.Error(err), zap.String("requestID", requestID))
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"discord": me.ID,
	})
}
