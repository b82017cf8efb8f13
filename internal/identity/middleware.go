package identity

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

const CookieName = "token"

// ContextKey is the gin context key the middleware stores the verified
// user id under.
const ContextKey = "userId"

// RequireUser rejects requests without a valid identity cookie and exposes
// the verified user id to downstream handlers.
func (m *TokenManager) RequireUser() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token, err := ctx.Cookie(CookieName)
		if err != nil {
			ctx.String(http.StatusUnauthorized, "missing-token")
			ctx.Abort()
			return
		}

		userId, err := m.Verify(token)
		if err != nil {
			ctx.String(http.StatusUnauthorized, "invalid-token")
			ctx.Abort()
			return
		}

		ctx.Set(ContextKey, userId)
		ctx.Next()
	}
}

// SetUserCookie mints a token for userId and attaches it to the response.
func (m *TokenManager) SetUserCookie(ctx *gin.Context, userId string) error {
	token, err := m.Generate(userId)
	if err != nil {
		return err
	}
	ctx.SetSameSite(http.SameSiteNoneMode)
	ctx.SetCookie(CookieName, token, int(tokenLifetime/time.Second), "/", "", true, true)
	return nil
}
