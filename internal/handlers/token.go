package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/peermesh/videomesh/internal/middleware"
)

// TokenRequest asks for a guest token carrying display attributes.
type TokenRequest struct {
	Name string `json:"name" binding:"required"`
	Lang string `json:"lang"`
}

// TokenResponse returns the signed guest token.
type TokenResponse struct {
	Token string `json:"token"`
}

// IssueToken mints a short-lived guest token. There are no accounts:
// participants are ephemeral, so the token only pins display attributes
// and gates the signaling endpoint when auth is required.
func IssueToken(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req TokenRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
			return
		}

		claims := middleware.GuestClaims{
			Name: req.Name,
			Lang: req.Lang,
			RegisteredClaims: jwt.RegisteredClaims{
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
				IssuedAt:  jwt.NewNumericDate(time.Now()),
				NotBefore: jwt.NewNumericDate(time.Now()),
			},
		}

		token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
		signed, err := token.SignedString([]byte(jwtSecret))
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to sign token"})
			return
		}

		c.JSON(http.StatusOK, TokenResponse{Token: signed})
	}
}
