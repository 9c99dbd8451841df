package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/sharath018/campus-events-backend/internal/auth"
)

// Authenticate resolves the bearer token to a user and stores it under "user".
// With a verifier the token is a Firebase ID token and unknown accounts are
// provisioned on first sight; otherwise it is one of our own access tokens.
func Authenticate(authSvc auth.Service, verifier auth.IdentityVerifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing or invalid Authorization header"})
			return
		}

		ctx := c.Request.Context()
		var (
			user *auth.User
			err  error
		)
		if verifier != nil {
			var id auth.Identity
			id, err = verifier.VerifyIDToken(ctx, token)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
				return
			}
			user, err = authSvc.ProvisionFirebaseUser(ctx, id.UID, id.Email, id.Name)
		} else {
			var userID uint
			userID, err = authSvc.ParseAccessToken(token)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
				return
			}
			user, err = authSvc.GetUserByID(ctx, userID)
		}
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
			return
		}

		c.Set("user", *user)
		c.Set("user_id", user.ID)
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}
